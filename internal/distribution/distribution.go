// Package distribution provides the continuous-distribution abstraction the
// changepoint processor depends on (spec §4.1). NormalDistribution is the
// only concrete variant required to reproduce the system's published
// behavior (spec §4.1); the interface exists so a future distribution can
// be substituted without touching the processor.
package distribution

import "firestige.xyz/drift/internal/core"

// Distribution is a continuous probability model with incremental update
// and density query. Implementations must keep pdf(x) >= 0 for all x, and
// variance >= 0.
type Distribution interface {
	// WithPoint returns a new Distribution incorporating measurement m as
	// if it were the newN-th observation. newN == 1 means "start fresh
	// from this point" — the returned distribution ignores any prior
	// state.
	WithPoint(m core.Measurement, newN uint32) Distribution

	// PDF returns the density at m's scalar projection. Always >= 0.
	PDF(m core.Measurement) float64

	// Mean, Variance, and N are observable summary statistics.
	Mean() float64
	Variance() float64
	N() uint32

	// Map extracts the scalar this distribution models from a
	// measurement. Returns false if the measurement carries no value.
	Map(m core.Measurement) (float64, bool)
}
