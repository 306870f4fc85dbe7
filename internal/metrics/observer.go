package metrics

// ChangepointObserver implements changepoint.Observer against this
// package's Prometheus vectors. It is defined here rather than in
// internal/changepoint to keep the detector package free of a Prometheus
// dependency.
type ChangepointObserver struct{}

func (ChangepointObserver) RunsActive(streamID string, n int) {
	RunsActive.WithLabelValues(streamID).Set(float64(n))
}

func (ChangepointObserver) Reset(streamID, reason string) {
	ResetsTotal.WithLabelValues(streamID, reason).Inc()
}

func (ChangepointObserver) EventEmitted(streamID string) {
	EventsEmittedTotal.WithLabelValues(streamID).Inc()
}

// GroupingObserver implements grouping.Observer against this package's
// Prometheus vectors.
type GroupingObserver struct{}

func (GroupingObserver) GroupFinalized(streamID string, eventCount int, reason string) {
	GroupsFinalizedTotal.WithLabelValues(streamID, reason).Inc()
}
