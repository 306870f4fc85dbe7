package distribution

import (
	"math"
	"testing"
	"time"

	"firestige.xyz/drift/internal/core"
	"github.com/stretchr/testify/assert"
)

func point(v float64) core.Measurement {
	return core.NewMeasurement("s", "rtt", time.Unix(0, 0), v)
}

func TestNormalDistribution_SinglePointVarianceFloor(t *testing.T) {
	d := NewNormalDistribution(nil)
	d1 := d.WithPoint(point(50), 1).(NormalDistribution)

	assert.Equal(t, float64(50), d1.Mean())
	assert.Equal(t, varianceFloor, d1.Variance())
	assert.Equal(t, uint32(1), d1.N())
}

func TestNormalDistribution_MeanConverges(t *testing.T) {
	d := NewNormalDistribution(nil)
	var dist Distribution = d
	values := []float64{10, 10, 10, 10, 10}
	for i, v := range values {
		dist = dist.WithPoint(point(v), uint32(i+1))
	}
	assert.InDelta(t, 10.0, dist.Mean(), 1e-9)
	assert.InDelta(t, varianceFloor, dist.Variance(), 1e-9)
}

func TestNormalDistribution_VarianceMatchesPopulationFormula(t *testing.T) {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	var dist Distribution = NewNormalDistribution(nil)
	for i, v := range values {
		dist = dist.WithPoint(point(v), uint32(i+1))
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	var ss float64
	for _, v := range values {
		ss += (v - mean) * (v - mean)
	}
	wantVariance := ss / float64(len(values))

	assert.InDelta(t, mean, dist.Mean(), 1e-9)
	assert.InDelta(t, wantVariance, dist.Variance(), 1e-9)
}

func TestNormalDistribution_PDFNonNegativeAndPeaksAtMean(t *testing.T) {
	var dist Distribution = NewNormalDistribution(nil)
	for i, v := range []float64{50, 51, 49, 50, 50} {
		dist = dist.WithPoint(point(v), uint32(i+1))
	}

	atMean := dist.PDF(point(dist.Mean()))
	atTail := dist.PDF(point(dist.Mean() + 100))
	assert.GreaterOrEqual(t, atMean, 0.0)
	assert.GreaterOrEqual(t, atTail, 0.0)
	assert.Greater(t, atMean, atTail)
}

func TestNormalDistribution_PDFMatchesClosedForm(t *testing.T) {
	d := NewNormalDistribution(nil).WithPoint(point(100), 1)
	d = d.WithPoint(point(104), 2)

	nd := d.(NormalDistribution)
	x := 106.0
	want := math.Exp(-((x-nd.Mean())*(x-nd.Mean()))/(2*nd.Variance())) / math.Sqrt(2*math.Pi*nd.Variance())
	got := d.PDF(point(x))
	assert.InDelta(t, want, got, 1e-12)
}

func TestNormalDistribution_MapMissingValue(t *testing.T) {
	d := NewNormalDistribution(nil)
	var missing core.Measurement
	v, ok := d.Map(missing)
	assert.False(t, ok)
	assert.Zero(t, v)
}
