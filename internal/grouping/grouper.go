package grouping

import (
	"time"

	"firestige.xyz/drift/internal/core"
)

// Observer receives grouper state-transition notifications for
// metrics/logging, mirroring changepoint.Observer's synchronous,
// no-suspension-point contract (spec §5).
type Observer interface {
	// GroupFinalized reports a finalized group's size and the condition
	// that triggered finalization: "gap" (a later event exceeded
	// MaxGap past the active group) or "timer" (the MaxSpan deadline,
	// counted from the group's start and not moved by merged events,
	// was reached), per SPEC_FULL §6.3.
	GroupFinalized(streamID string, eventCount int, reason string)
}

type noopObserver struct{}

func (noopObserver) GroupFinalized(string, int, string) {}

// Grouper is the per-key state machine from spec §4.3. It is not safe for
// concurrent use; the host shards by stream_id so each Grouper is owned by
// exactly one goroutine (spec §5).
type Grouper struct {
	streamID string
	config   Config
	obs      Observer

	active   *core.EventGroup
	deadline time.Time
	hasTimer bool
}

// NewGrouper constructs a Grouper for one stream. obs may be nil.
func NewGrouper(streamID string, cfg Config, obs Observer) *Grouper {
	if obs == nil {
		obs = noopObserver{}
	}
	return &Grouper{streamID: streamID, config: cfg, obs: obs}
}

// Add ingests an incoming EventGroup g, which may carry one or more events
// for this stream (spec §4.3). It returns a finalized group when merging g
// requires finalizing the previously active one (the max-gap case); the
// max-span timer case is handled separately by Advance.
func (gr *Grouper) Add(g core.EventGroup) (*core.EventGroup, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if g.StreamID != gr.streamID {
		return nil, core.ErrMultiStreamGroup
	}

	if gr.active == nil {
		gr.active = &core.EventGroup{StreamID: g.StreamID, Start: g.Start, Events: append([]core.Event(nil), g.Events...)}
		gr.deadline = g.Start.Add(gr.config.MaxSpan)
		gr.hasTimer = true
		return nil, nil
	}

	last := latestEvent(gr.active.Events)
	if g.Start.After(last.Time.Add(gr.config.MaxGap)) {
		finalized := gr.finalize(last.Time, "gap")
		gr.active = &core.EventGroup{StreamID: g.StreamID, Start: g.Start, Events: append([]core.Event(nil), g.Events...)}
		gr.deadline = g.Start.Add(gr.config.MaxSpan)
		gr.hasTimer = true
		return finalized, nil
	}

	gr.active.Events = append(gr.active.Events, g.Events...)
	return nil, nil
}

// Deadline reports the currently armed timer, if any, so the host's
// watermark-driven timer heap (spec §5) can schedule Advance calls.
func (gr *Grouper) Deadline() (time.Time, bool) {
	return gr.deadline, gr.hasTimer
}

// Advance fires the max-span timer if watermark has passed it, finalizing
// and clearing the active group (spec §4.3, "On timer fire at t").
func (gr *Grouper) Advance(watermark time.Time) *core.EventGroup {
	if !gr.hasTimer || watermark.Before(gr.deadline) {
		return nil
	}
	return gr.finalize(gr.deadline, "timer")
}

func (gr *Grouper) finalize(end time.Time, reason string) *core.EventGroup {
	if gr.active == nil {
		return nil
	}
	done := gr.active
	done.End = &end
	gr.active = nil
	gr.hasTimer = false
	gr.obs.GroupFinalized(gr.streamID, len(done.Events), reason)
	return done
}

func latestEvent(events []core.Event) core.Event {
	latest := events[0]
	for _, e := range events[1:] {
		if e.Time.After(latest.Time) {
			latest = e
		}
	}
	return latest
}
