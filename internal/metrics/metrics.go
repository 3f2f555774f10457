// Package metrics exposes Prometheus instruments for board persistence.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	adapterCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "board_adapter_calls_total",
		Help: "Persistence adapter calls by backend, operation and result",
	}, []string{"backend", "op", "result"})

	adapterCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "board_adapter_call_duration_seconds",
		Help:    "Persistence adapter call latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"backend", "op"})

	loadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "board_loads_total",
		Help: "Board loads by backend and outcome (ready, fallback, stale)",
	}, []string{"backend", "outcome"})

	reorderPersistFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "board_reorder_persist_failures_total",
		Help: "Optimistic reorders that failed to persist",
	}, []string{"backend"})
)

// ObserveAdapterCall records one adapter call that started at start.
func ObserveAdapterCall(backend, op string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	adapterCallsTotal.WithLabelValues(backend, op, result).Inc()
	adapterCallDuration.WithLabelValues(backend, op).Observe(time.Since(start).Seconds())
}

func ObserveLoad(backend, outcome string) {
	loadsTotal.WithLabelValues(backend, outcome).Inc()
}

func ObserveReorderPersistFailure(backend string) {
	reorderPersistFailuresTotal.WithLabelValues(backend).Inc()
}
