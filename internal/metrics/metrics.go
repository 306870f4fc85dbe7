// Package metrics implements the Prometheus metrics SPEC_FULL §6.3 names:
// per-stream run/emission/reset counters for the changepoint detector and a
// finalized-group counter for the temporal grouper.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Config is the metrics section of the global configuration.
type Config struct {
	ListenAddr string `mapstructure:"listenAddr"`
}

var (
	RunsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "drift_runs_active",
			Help: "Number of run-length hypotheses currently retained per stream",
		},
		[]string{"stream"},
	)

	EventsEmittedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drift_events_emitted_total",
			Help: "Total number of changepoint events emitted per stream",
		},
		[]string{"stream"},
	)

	ResetsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drift_resets_total",
			Help: "Total number of processor resets per stream, by reason",
		},
		[]string{"stream", "reason"},
	)

	GroupsFinalizedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drift_groups_finalized_total",
			Help: "Total number of event groups finalized per stream, by reason",
		},
		[]string{"stream", "reason"},
	)
)
