package distribution

import (
	"math"

	"firestige.xyz/drift/internal/core"
)

// varianceFloor keeps PDF finite after a single observation, when Welford's
// recurrence would otherwise yield a variance of zero (spec §3).
const varianceFloor = 1e-6

// Mapper extracts the scalar a distribution models from a measurement.
// The default, DefaultMapper, reads Measurement.DefaultValue.
type Mapper func(core.Measurement) (float64, bool)

// DefaultMapper projects a measurement onto its default value (spec §3, §4.1).
func DefaultMapper(m core.Measurement) (float64, bool) { return m.Value() }

// NormalDistribution is a univariate Gaussian with an online mean/variance
// update (spec §3). It is the one concrete Distribution this repository
// ships (spec §4.1).
type NormalDistribution struct {
	mean     float64
	variance float64
	n        uint32
	mapper   Mapper
}

// NewNormalDistribution returns the zero-observation prototype used to seed
// fresh runs. Its mapper defaults to DefaultMapper when nil is passed.
func NewNormalDistribution(mapper Mapper) NormalDistribution {
	if mapper == nil {
		mapper = DefaultMapper
	}
	return NormalDistribution{mapper: mapper}
}

// WithPoint returns a new NormalDistribution incorporating m as the newN-th
// observation (spec §3, §4.1):
//
//	mean'     = mean + (x - mean) / n'
//	variance' = Welford's recurrence; n' == 1 seeds varianceFloor.
func (d NormalDistribution) WithPoint(m core.Measurement, newN uint32) Distribution {
	x, ok := d.mapper(m)
	if !ok {
		return d
	}
	if newN <= 1 {
		return NormalDistribution{mean: x, variance: varianceFloor, n: 1, mapper: d.mapper}
	}

	n := float64(newN)
	oldMean := d.mean
	newMean := oldMean + (x-oldMean)/n

	// Welford's recurrence, expressed directly in terms of variance
	// (sum-of-squares form divided back out each step) rather than a
	// running M2, since NormalDistribution carries variance, not M2, as
	// its observable state (spec §3).
	prevM2 := d.variance * float64(newN-1)
	if d.n <= 1 {
		// A single observation has no spread; the floor it carries only
		// keeps its PDF finite and is not part of the sum of squares.
		prevM2 = 0
	}
	m2 := prevM2 + (x-oldMean)*(x-newMean)
	variance := m2 / n
	if variance < varianceFloor {
		variance = varianceFloor
	}

	return NormalDistribution{mean: newMean, variance: variance, n: newN, mapper: d.mapper}
}

// PDF returns the standard Gaussian density at m's scalar projection.
// Always non-negative (spec §3, §4.1).
func (d NormalDistribution) PDF(m core.Measurement) float64 {
	x, ok := d.mapper(m)
	if !ok {
		return 0
	}
	variance := d.variance
	if variance < varianceFloor {
		variance = varianceFloor
	}
	exponent := -((x - d.mean) * (x - d.mean)) / (2 * variance)
	return math.Exp(exponent) / math.Sqrt(2*math.Pi*variance)
}

func (d NormalDistribution) Mean() float64     { return d.mean }
func (d NormalDistribution) Variance() float64 { return d.variance }
func (d NormalDistribution) N() uint32         { return d.n }

func (d NormalDistribution) Map(m core.Measurement) (float64, bool) { return d.mapper(m) }

// MapFunc returns the mapper this distribution projects measurements
// through, so a checkpoint restore can rebuild a sibling distribution with
// the same projection (see RestoreNormal).
func (d NormalDistribution) MapFunc() Mapper { return d.mapper }

// RestoreNormal reconstructs a NormalDistribution from its observable
// summary statistics, used by the checkpoint store to rehydrate a snapshot
// without replaying history (spec §6, persisted state).
func RestoreNormal(mean, variance float64, n uint32, mapper Mapper) NormalDistribution {
	if mapper == nil {
		mapper = DefaultMapper
	}
	return NormalDistribution{mean: mean, variance: variance, n: n, mapper: mapper}
}
