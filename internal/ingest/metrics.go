package ingest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	messagesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meterwatch_ingest_messages_total",
			Help: "Stream messages handled, by loop and result.",
		},
		[]string{"loop", "result"},
	)
	retries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meterwatch_ingest_retries_total",
			Help: "Retries scheduled after a failed attempt.",
		},
		[]string{"loop"},
	)
	attemptDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "meterwatch_ingest_attempt_duration_seconds",
			Help:    "Duration of one classify, persist and commit attempt.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"loop"},
	)
)
