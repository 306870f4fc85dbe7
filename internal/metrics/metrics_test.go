package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestChangepointObserver_UpdatesVectors(t *testing.T) {
	obs := ChangepointObserver{}
	obs.RunsActive("stream-a", 4)
	obs.Reset("stream-a", "inactivity")
	obs.EventEmitted("stream-a")

	assert.Equal(t, float64(4), testutil.ToFloat64(RunsActive.WithLabelValues("stream-a")))
	assert.Equal(t, float64(1), testutil.ToFloat64(ResetsTotal.WithLabelValues("stream-a", "inactivity")))
	assert.Equal(t, float64(1), testutil.ToFloat64(EventsEmittedTotal.WithLabelValues("stream-a")))
}

func TestGroupingObserver_UpdatesVector(t *testing.T) {
	obs := GroupingObserver{}
	obs.GroupFinalized("stream-b", 3, "gap")
	obs.GroupFinalized("stream-b", 1, "timer")

	assert.Equal(t, float64(1), testutil.ToFloat64(GroupsFinalizedTotal.WithLabelValues("stream-b", "gap")))
	assert.Equal(t, float64(1), testutil.ToFloat64(GroupsFinalizedTotal.WithLabelValues("stream-b", "timer")))
}
