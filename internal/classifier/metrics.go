package classifier

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	predictDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "meterwatch_classifier_request_duration_seconds",
			Help:    "Latency of remote prediction calls by outcome.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)
	anomaliesDetected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meterwatch_anomalies_detected_total",
			Help: "Anomaly records produced, by the rule that produced them.",
		},
		[]string{"rule"},
	)
)
