package changepoint

import (
	"time"

	"firestige.xyz/drift/internal/core"
	"firestige.xyz/drift/internal/distribution"
)

// RunSnapshot is the gob-friendly projection of a Run, carrying a
// NormalDistribution's observable summary statistics rather than the Dist
// interface itself (spec §4.1 names NormalDistribution as the only
// concrete variant this repository ships).
type RunSnapshot struct {
	Mean     float64
	Variance float64
	N        uint32
	Prob     float64
	Start    time.Time
}

// Snapshot is the persisted-state layout from spec §6: currentRuns,
// normalRuns, compositeOldNormal, lastObserved, lastEventTime, and the
// three counters, in that order.
type Snapshot struct {
	StreamID                      string
	CurrentRuns                   []RunSnapshot
	NormalRuns                    []RunSnapshot
	CompositeOldNormal            RunSnapshot
	LastObserved                  *core.Measurement
	LastEventTime                 *time.Time
	ConsecutiveAnomalies          uint32
	ConsecutiveNormalAfterOutlier uint32
	PreviousMostLikelyIndex       int
}

func snapshotRun(r Run) RunSnapshot {
	return RunSnapshot{
		Mean:     r.Dist.Mean(),
		Variance: r.Dist.Variance(),
		N:        r.Dist.N(),
		Prob:     r.Prob,
		Start:    r.Start,
	}
}

func snapshotRuns(runs []Run) []RunSnapshot {
	if runs == nil {
		return nil
	}
	out := make([]RunSnapshot, len(runs))
	for i, r := range runs {
		out[i] = snapshotRun(r)
	}
	return out
}

// Snapshot captures the processor's full per-key state for checkpointing
// (spec §6). The result contains no reference to live state; mutating the
// processor afterward does not affect it.
func (p *Processor) Snapshot() Snapshot {
	return Snapshot{
		StreamID:                      p.streamID,
		CurrentRuns:                   snapshotRuns(p.currentRuns),
		NormalRuns:                    snapshotRuns(p.normalRuns),
		CompositeOldNormal:            snapshotRun(p.compositeOldNormal),
		LastObserved:                  p.lastObserved,
		LastEventTime:                 p.lastEventTime,
		ConsecutiveAnomalies:          p.consecutiveAnomalies,
		ConsecutiveNormalAfterOutlier: p.consecutiveNormalAfterOutlier,
		PreviousMostLikelyIndex:       p.previousMostLikelyIndex,
	}
}

// mapperOf recovers the measurement-to-scalar projection from a
// distribution prototype, defaulting to distribution.DefaultMapper when
// initial is not a NormalDistribution.
func mapperOf(initial distribution.Distribution) distribution.Mapper {
	if nd, ok := initial.(distribution.NormalDistribution); ok {
		return nd.MapFunc()
	}
	return distribution.DefaultMapper
}

func restoreRun(rs RunSnapshot, mapper distribution.Mapper) Run {
	return Run{
		Dist:  distribution.RestoreNormal(rs.Mean, rs.Variance, rs.N, mapper),
		Prob:  rs.Prob,
		Start: rs.Start,
	}
}

func restoreRuns(snaps []RunSnapshot, mapper distribution.Mapper) []Run {
	if snaps == nil {
		return nil
	}
	out := make([]Run, len(snaps))
	for i, rs := range snaps {
		out[i] = restoreRun(rs, mapper)
	}
	return out
}

// Restore rebuilds a Processor from a Snapshot (spec §6, §8 round-trip
// invariant: restoring a processor and feeding it the same subsequent
// measurements must reproduce identical emissions).
func Restore(cfg Config, initial distribution.Distribution, snap Snapshot, obs Observer) *Processor {
	mapper := mapperOf(initial)
	p := NewProcessor(snap.StreamID, cfg, initial, obs)
	p.currentRuns = restoreRuns(snap.CurrentRuns, mapper)
	p.normalRuns = restoreRuns(snap.NormalRuns, mapper)
	p.compositeOldNormal = restoreRun(snap.CompositeOldNormal, mapper)
	p.lastObserved = snap.LastObserved
	p.lastEventTime = snap.LastEventTime
	p.consecutiveAnomalies = snap.ConsecutiveAnomalies
	p.consecutiveNormalAfterOutlier = snap.ConsecutiveNormalAfterOutlier
	p.previousMostLikelyIndex = snap.PreviousMostLikelyIndex
	return p
}
