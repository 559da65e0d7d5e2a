package database

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	storeOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meterwatch_store_operations_total",
			Help: "Store operations by operation and result.",
		},
		[]string{"op", "result"},
	)
	detachedWriteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "meterwatch_store_detached_write_failures_total",
			Help: "Fire-and-forget anomaly writes that failed.",
		},
	)
)
