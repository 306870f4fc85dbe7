package changepoint

import (
	"time"

	"firestige.xyz/drift/internal/distribution"
)

// Run is a hypothesis that the current run started at Start and the
// observations since then are drawn from Dist, with posterior weight Prob
// (spec §3). Runs do not reference each other; the processor owns them
// exclusively (spec §9).
type Run struct {
	Dist  distribution.Distribution
	Prob  float64
	Start time.Time
}

func cloneRuns(runs []Run) []Run {
	if runs == nil {
		return nil
	}
	out := make([]Run, len(runs))
	copy(out, runs)
	return out
}

// runWithLargestN returns the index of the run with the largest observation
// count, used to build compositeOldNormal (spec §4.2, step 3).
func runWithLargestN(runs []Run) int {
	best := 0
	for i := 1; i < len(runs); i++ {
		if runs[i].Dist.N() > runs[best].Dist.N() {
			best = i
		}
	}
	return best
}
