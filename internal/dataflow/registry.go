// Package dataflow shards measurement processing by stream_id (spec.md §5,
// per-key single-threaded cooperative scheduling) and owns the per-key
// changepoint/grouping state.
package dataflow

import (
	"sync"
	"sync/atomic"

	"firestige.xyz/drift/internal/changepoint"
	"firestige.xyz/drift/internal/distribution"
	"firestige.xyz/drift/internal/grouping"
)

// Flow bundles the two per-key state machines a stream owns (spec.md §5:
// "one *changepoint.Processor and one *grouping.Grouper per stream_id").
type Flow struct {
	Processor *changepoint.Processor
	Grouper   *grouping.Grouper
}

// Registry is a sync.Map-backed per-key store, grounded on the teacher's
// task.FlowRegistry: lock-free reads for the common case (a key already
// seen), an atomic count, and single-ownership semantics enforced by the
// caller (one shard goroutine per key, never shared across shards).
type Registry struct {
	data  sync.Map // map[string]*Flow
	count atomic.Int64
}

// NewRegistry returns an empty per-shard registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Get retrieves the flow for streamID, if present.
func (r *Registry) Get(streamID string) (*Flow, bool) {
	v, ok := r.data.Load(streamID)
	if !ok {
		return nil, false
	}
	return v.(*Flow), true
}

// GetOrCreate returns the existing flow for streamID, or builds one with
// newFlow and stores it atomically.
func (r *Registry) GetOrCreate(streamID string, newFlow func() *Flow) *Flow {
	if existing, ok := r.data.Load(streamID); ok {
		return existing.(*Flow)
	}
	created := newFlow()
	actual, loaded := r.data.LoadOrStore(streamID, created)
	if !loaded {
		r.count.Add(1)
	}
	return actual.(*Flow)
}

// Delete removes the flow for streamID, e.g. after prolonged inactivity.
func (r *Registry) Delete(streamID string) {
	_, loaded := r.data.LoadAndDelete(streamID)
	if loaded {
		r.count.Add(-1)
	}
}

// Range iterates over all flows in the registry. f returning false stops
// iteration early.
func (r *Registry) Range(f func(streamID string, flow *Flow) bool) {
	r.data.Range(func(k, v any) bool {
		streamID, ok := k.(string)
		if !ok {
			return true
		}
		return f(streamID, v.(*Flow))
	})
}

// Count reports the number of live flows, O(1) via the atomic counter.
func (r *Registry) Count() int {
	return int(r.count.Load())
}

// NewFlowFactory returns a constructor suitable for GetOrCreate, seeding
// fresh Processor/Grouper pairs from shared, read-only configuration and
// distribution prototype (spec.md §5: "initial distribution prototype and
// configuration are read-only after startup, shared by all shards").
func NewFlowFactory(cpCfg changepoint.Config, grCfg grouping.Config, initial distribution.Distribution, cpObs changepoint.Observer, grObs grouping.Observer) func(streamID string) func() *Flow {
	return func(streamID string) func() *Flow {
		return func() *Flow {
			return &Flow{
				Processor: changepoint.NewProcessor(streamID, cpCfg, initial, cpObs),
				Grouper:   grouping.NewGrouper(streamID, grCfg, grObs),
			}
		}
	}
}
