package changepoint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeverity_Boundary(t *testing.T) {
	// relDiff = 1.0 exactly when new = 2*old: norm = 1.0 -> severity 100
	assert.Equal(t, uint8(100), severity(50, 100))

	// identical means -> 0 severity
	assert.Equal(t, uint8(0), severity(50, 50))

	// beyond the 1.0 ratio, norm asymptotes toward but never reaches 100
	assert.Less(t, severity(10, 1000), uint8(100))
}

func TestSeverity_SymmetricInDirection(t *testing.T) {
	up := severity(50, 150)
	down := severity(150, 50)
	assert.Equal(t, up, down)
}

func TestSeverity_ThresholdBoundaryNotInclusive(t *testing.T) {
	// severity == threshold must not be treated as "greater than
	// threshold" by callers (spec §8: severity == threshold does not
	// emit; severity == threshold+1 does).
	threshold := uint8(30)
	// means producing exactly 30 and 31
	s30 := severity(100, 130)
	s31 := severity(100, 131)
	assert.Equal(t, threshold, s30)
	assert.False(t, s30 > threshold)
	assert.Equal(t, threshold+1, s31)
	assert.True(t, s31 > threshold)
}

func TestLatencySeverity_Bounds(t *testing.T) {
	assert.Equal(t, uint8(0), LatencySeverity(50, 55))
	assert.Equal(t, uint8(100), LatencySeverity(50, 600))
	mid := LatencySeverity(50, 100)
	assert.Greater(t, mid, uint8(0))
	assert.Less(t, mid, uint8(100))
}
