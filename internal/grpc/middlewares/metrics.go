package middleware

import (
	"context"
	"path"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

var (
	// Requests counts handled calls by method and status code.
	Requests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meterwatch_grpc_requests_total",
			Help: "gRPC requests by method and status code.",
		},
		[]string{"method", "code"},
	)
	// Latency observes handler duration by method.
	Latency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "meterwatch_grpc_request_duration_seconds",
			Help:    "gRPC request latency by method.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	cacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meterwatch_grpc_cache_lookups_total",
			Help: "Response cache lookups by result.",
		},
		[]string{"result"},
	)
)

func NewMetricsInterceptor(
	requests *prometheus.CounterVec,
	latency *prometheus.HistogramVec,
) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()

		resp, err := handler(ctx, req)

		method := path.Base(info.FullMethod)
		requests.WithLabelValues(method, status.Code(err).String()).Inc()
		latency.WithLabelValues(method).Observe(time.Since(start).Seconds())

		return resp, err
	}
}
