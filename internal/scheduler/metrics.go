package scheduler

import "github.com/prometheus/client_golang/prometheus"

var (
	refreshTriggers = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sizewatch",
			Subsystem: "scheduler",
			Name:      "refresh_triggers_total",
			Help:      "Refresh triggers received, by signal channel",
		},
		[]string{"channel"},
	)

	refreshRuns = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "sizewatch",
			Subsystem: "scheduler",
			Name:      "refresh_runs_total",
			Help:      "Top-level refresh executions",
		},
	)

	refreshCycles = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "sizewatch",
			Subsystem: "scheduler",
			Name:      "refresh_cycles",
			Help:      "Gather/broadcast cycles per refresh until convergence",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21, 34, 64},
		},
	)

	broadcastsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "sizewatch",
			Subsystem: "scheduler",
			Name:      "broadcasts_total",
			Help:      "Per-instance broadcast invocations",
		},
	)

	observersGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "sizewatch",
			Subsystem: "scheduler",
			Name:      "observers",
			Help:      "Observer instances currently tracked",
		},
	)

	observationsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "sizewatch",
			Subsystem: "scheduler",
			Name:      "observations",
			Help:      "Registered observation targets across all instances",
		},
	)

	throttleCoalesced = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "sizewatch",
			Subsystem: "scheduler",
			Name:      "throttle_coalesced_total",
			Help:      "Triggers collapsed into an already-scheduled refresh",
		},
	)
)

func init() {
	prometheus.MustRegister(refreshTriggers, refreshRuns, refreshCycles,
		broadcastsTotal, observersGauge, observationsGauge, throttleCoalesced)
}
