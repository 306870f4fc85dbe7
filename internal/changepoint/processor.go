// Package changepoint implements the per-stream Bayesian online changepoint
// detector (spec §4.2): a mixture of run-length hypotheses with normalized
// posterior weights, hysteresis against spurious outliers, and
// severity-thresholded event emission.
package changepoint

import (
	"fmt"
	"math"
	"time"

	"firestige.xyz/drift/internal/core"
	"firestige.xyz/drift/internal/distribution"
)

var epoch = time.Unix(0, 0).UTC()

// Observer receives state-transition notifications for metrics/logging.
// All methods must return promptly; Processor calls them synchronously on
// the measurement-processing goroutine (spec §5, no suspension points).
type Observer interface {
	RunsActive(streamID string, n int)
	Reset(streamID, reason string)
	EventEmitted(streamID string)
}

// noopObserver is used when NewProcessor is given a nil Observer.
type noopObserver struct{}

func (noopObserver) RunsActive(string, int) {}
func (noopObserver) Reset(string, string)   {}
func (noopObserver) EventEmitted(string)    {}

// Processor is the per-key state machine described in spec §4.2. It is not
// safe for concurrent use; the host shards by stream_id so each Processor
// is owned by exactly one goroutine (spec §5).
type Processor struct {
	streamID string
	config   Config
	initial  distribution.Distribution
	obs      Observer

	currentRuns                   []Run
	normalRuns                    []Run
	compositeOldNormal            Run
	lastObserved                  *core.Measurement
	lastEventTime                 *time.Time
	consecutiveAnomalies          uint32
	consecutiveNormalAfterOutlier uint32
	previousMostLikelyIndex       int
}

// NewProcessor constructs a Processor for one stream. initial is the
// distribution prototype fresh hypotheses are seeded from (spec §4.1); obs
// may be nil.
func NewProcessor(streamID string, cfg Config, initial distribution.Distribution, obs Observer) *Processor {
	if obs == nil {
		obs = noopObserver{}
	}
	return &Processor{
		streamID: streamID,
		config:   cfg,
		initial:  initial,
		obs:      obs,
	}
}

// reset clears per-key state (spec §3, Run lifecycle; §4.2 step 1 and the
// post-emission reset). seed becomes the new lastObserved, matching "reset
// state... and set lastObserved = v" — seed may be nil only at
// construction time, never mid-stream.
func (p *Processor) reset(seed *core.Measurement, reason string) {
	p.currentRuns = nil
	p.normalRuns = nil
	p.compositeOldNormal = Run{}
	p.consecutiveAnomalies = 0
	p.consecutiveNormalAfterOutlier = 0
	p.previousMostLikelyIndex = 0
	p.lastObserved = seed
	p.obs.Reset(p.streamID, reason)
}

// Update processes one measurement and returns a ChangepointEvent if this
// step causes an emission (spec §4.2, "Update algorithm").
func (p *Processor) Update(v core.Measurement) (*core.ChangepointEvent, error) {
	if _, ok := v.Value(); !ok {
		return nil, fmt.Errorf("%w: stream %s", core.ErrInvalidMeasurement, v.StreamID)
	}

	// 1. Inactivity / first observation.
	if p.lastObserved == nil || v.Time.Sub(p.lastObserved.Time) > p.config.InactivityPurge {
		p.reset(&v, "inactivity")
		return nil, nil
	}

	// 2. Out-of-order guard.
	if !v.Time.Before(p.lastObserved.Time) {
		p.lastObserved = &v
	}

	// 3. Snapshot normal.
	if p.consecutiveAnomalies == 0 {
		p.normalRuns = cloneRuns(p.currentRuns)
		if len(p.currentRuns) == 0 {
			p.compositeOldNormal = Run{Dist: p.initial, Prob: -1.0, Start: epoch}
		} else {
			largest := runWithLargestN(p.currentRuns)
			startIdx := p.previousMostLikelyIndex
			if startIdx >= len(p.currentRuns) {
				startIdx = len(p.currentRuns) - 1
			}
			p.compositeOldNormal = Run{
				Dist:  p.currentRuns[largest].Dist,
				Prob:  -2.0,
				Start: p.currentRuns[startIdx].Start,
			}
		}
	}

	// 4. Update runs.
	updated, err := p.updateRuns(p.currentRuns, v)
	if err != nil {
		p.reset(&v, resetReason(err))
		return nil, err
	}
	p.currentRuns = updated

	// 5. Most-likely index, excluding the newest "changepoint now" run.
	mostLikely := 0
	if len(p.currentRuns) > 1 {
		for i := 1; i < len(p.currentRuns)-1; i++ {
			if p.currentRuns[i].Prob > p.currentRuns[mostLikely].Prob {
				mostLikely = i
			}
		}
	}

	// 6. Anomaly counting.
	if mostLikely != p.previousMostLikelyIndex {
		p.consecutiveAnomalies++
	}

	highestPdfIndex := 0
	bestPdf := p.currentRuns[0].Dist.PDF(v)
	for i := 1; i < len(p.currentRuns); i++ {
		if pdf := p.currentRuns[i].Dist.PDF(v); pdf > bestPdf {
			bestPdf = pdf
			highestPdfIndex = i
		}
	}

	if highestPdfIndex == len(p.currentRuns)-2 {
		p.consecutiveNormalAfterOutlier++
		if p.consecutiveNormalAfterOutlier > p.config.IgnoreOutlierAfter {
			restored, err := p.updateRuns(p.normalRuns, v)
			if err != nil {
				p.reset(&v, resetReason(err))
				return nil, err
			}
			p.currentRuns = restored
			p.consecutiveAnomalies = 0
			p.consecutiveNormalAfterOutlier = 0
			if len(p.currentRuns) > 1 {
				ml := 0
				for i := 1; i < len(p.currentRuns)-1; i++ {
					if p.currentRuns[i].Prob > p.currentRuns[ml].Prob {
						ml = i
					}
				}
				p.previousMostLikelyIndex = ml
			}
			p.obs.RunsActive(p.streamID, len(p.currentRuns))
			return nil, nil
		}
	} else {
		p.consecutiveNormalAfterOutlier = 0
	}

	if mostLikely == p.previousMostLikelyIndex {
		p.consecutiveAnomalies = 0
		p.consecutiveNormalAfterOutlier = 0
	}
	p.previousMostLikelyIndex = mostLikely

	// 7. Emission.
	var emitted *core.ChangepointEvent
	if p.consecutiveAnomalies > p.config.TriggerCount {
		newNormalIdx := indexWithN1(p.currentRuns)
		if newNormalIdx == -1 {
			// spec §9, Open Questions: fall back to the newest run.
			newNormalIdx = len(p.currentRuns) - 1
		}
		newNormal := p.currentRuns[newNormalIdx]
		sev := severity(p.compositeOldNormal.Dist.Mean(), newNormal.Dist.Mean())

		withinInterval := p.lastEventTime == nil || v.Time.Sub(*p.lastEventTime) >= p.config.MinEventInterval
		if sev > p.config.SeverityThreshold && withinInterval {
			ev := core.ChangepointEvent{
				StreamID:         p.streamID,
				Severity:         sev,
				Start:            newNormal.Start,
				DetectionLatency: v.Time.Sub(newNormal.Start),
				Description:      describeChangepoint(p.compositeOldNormal.Dist.Mean(), newNormal.Dist.Mean()),
				Tags:             core.Tags{},
			}
			emitted = &ev
			t := v.Time
			p.lastEventTime = &t
			p.obs.EventEmitted(p.streamID)
			p.reset(&v, "emission")
			return emitted, nil
		}
		p.consecutiveAnomalies = 0
	}

	p.obs.RunsActive(p.streamID, len(p.currentRuns))
	return emitted, nil
}

// updateRuns applies RunsUpdate (spec §4.2 step 4) to an arbitrary run set,
// so it can be reused both for p.currentRuns and, during lonely-outlier
// cancellation, for p.normalRuns.
func (p *Processor) updateRuns(runs []Run, v core.Measurement) ([]Run, error) {
	growth := p.config.growthFactor()
	hazard := p.config.hazard()

	updated := make([]Run, 0, len(runs)+1)
	for _, r := range runs {
		w := r.Prob * r.Dist.PDF(v) * growth
		nd := r.Dist.WithPoint(v, r.Dist.N()+1)
		updated = append(updated, Run{Dist: nd, Prob: w, Start: r.Start})
	}
	updated = append(updated, Run{
		Dist:  p.initial.WithPoint(v, 1),
		Prob:  hazard,
		Start: v.Time,
	})

	if uint32(len(updated)) > p.config.MaxHistory {
		updated = updated[uint32(len(updated))-p.config.MaxHistory:]
	}

	var sum float64
	for _, r := range updated {
		sum += r.Prob
	}
	if sum == 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		return nil, core.ErrArithmeticSaturation
	}
	for i := range updated {
		updated[i].Prob /= sum
		if math.IsNaN(updated[i].Prob) || math.IsInf(updated[i].Prob, 0) {
			return nil, core.ErrArithmeticSaturation
		}
	}

	if len(updated) == 0 {
		return nil, core.ErrEmptyRunSet
	}
	return updated, nil
}

func resetReason(err error) string {
	switch err {
	case core.ErrArithmeticSaturation:
		return "arithmetic_saturation"
	case core.ErrEmptyRunSet:
		return "empty_run_set"
	default:
		return "error"
	}
}

func indexWithN1(runs []Run) int {
	for i, r := range runs {
		if r.Dist.N() == 1 {
			return i
		}
	}
	return -1
}

func describeChangepoint(oldMean, newMean float64) string {
	direction := "increased"
	if newMean < oldMean {
		direction = "decreased"
	}
	return fmt.Sprintf("mean %s from %.3f to %.3f", direction, oldMean, newMean)
}

// RunCount reports the current number of retained runs, for tests and
// observability (spec §8, len(currentRuns) <= maxHistory invariant).
func (p *Processor) RunCount() int { return len(p.currentRuns) }
