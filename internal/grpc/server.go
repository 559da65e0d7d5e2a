//go:generate go run github.com/golang/mock/mockgen -destination=./mocks/meter_api.go -package=mocks . MeterAPI

package server

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"

	middleware "github.com/tejusbharadwaj/meterwatch/internal/grpc/middlewares"
	"github.com/tejusbharadwaj/meterwatch/internal/grpc/meterv1"
	"github.com/tejusbharadwaj/meterwatch/internal/models"
)

// ServerConfig holds configuration options for the gRPC server
type ServerConfig struct {
	CacheSize      int           // Size of the LRU cache
	CacheTTL       time.Duration // Lifetime of a cached response
	RateLimit      float64       // Requests per second
	RateLimitBurst int           // Maximum burst size for rate limiting
}

// DefaultServerConfig returns a ServerConfig with sensible defaults
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		CacheSize:      1000,
		CacheTTL:       5 * time.Second,
		RateLimit:      50.0,
		RateLimitBurst: 100,
	}
}

// MeterAPI is the application surface the gRPC service exposes.
type MeterAPI interface {
	SubmitAndClassify(ctx context.Context, r models.Reading) ([]models.AnomalyRecord, error)
	QueryReadings(ctx context.Context, q models.TimeRangeQuery) ([]models.Reading, error)
	QueryAnomalies(ctx context.Context, q models.TimeRangeQuery) ([]models.AnomalyRecord, error)
	ListMeters(ctx context.Context) ([]string, error)
}

// MeterService implements meterv1.MeterServiceServer on top of a MeterAPI.
type MeterService struct {
	meterv1.UnimplementedMeterServiceServer
	api       MeterAPI
	validator *RequestValidator
}

func NewMeterService(api MeterAPI) *MeterService {
	return &MeterService{
		api:       api,
		validator: NewRequestValidator(),
	}
}

func (s *MeterService) SubmitReading(ctx context.Context, req *meterv1.SubmitReadingRequest) (*meterv1.SubmitReadingResponse, error) {
	anomalies, err := s.api.SubmitAndClassify(ctx, models.Reading{
		MeterID:   req.Reading.MeterID,
		Timestamp: req.Reading.Timestamp,
		EnergyKWh: req.Reading.KWh,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return &meterv1.SubmitReadingResponse{Anomalies: toWireAnomalies(anomalies)}, nil
}

func (s *MeterService) QueryReadings(ctx context.Context, req *meterv1.RangeRequest) (*meterv1.QueryReadingsResponse, error) {
	if err := s.validator.Validate(req.MeterID, req.Start, req.End); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "%s", err.Error())
	}

	readings, err := s.api.QueryReadings(ctx, rangeQuery(req))
	if err != nil {
		return nil, toStatus(err)
	}

	out := make([]meterv1.Reading, 0, len(readings))
	for _, r := range readings {
		out = append(out, meterv1.Reading{MeterID: r.MeterID, Timestamp: r.Timestamp, KWh: r.EnergyKWh})
	}
	return &meterv1.QueryReadingsResponse{Readings: out}, nil
}

func (s *MeterService) QueryAnomalies(ctx context.Context, req *meterv1.RangeRequest) (*meterv1.QueryAnomaliesResponse, error) {
	if err := s.validator.Validate(req.MeterID, req.Start, req.End); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "%s", err.Error())
	}

	anomalies, err := s.api.QueryAnomalies(ctx, rangeQuery(req))
	if err != nil {
		return nil, toStatus(err)
	}
	return &meterv1.QueryAnomaliesResponse{Anomalies: toWireAnomalies(anomalies)}, nil
}

func (s *MeterService) ListMeters(ctx context.Context, _ *emptypb.Empty) (*meterv1.ListMetersResponse, error) {
	meters, err := s.api.ListMeters(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	if meters == nil {
		meters = []string{}
	}
	return &meterv1.ListMetersResponse{MeterIDs: meters}, nil
}

func rangeQuery(req *meterv1.RangeRequest) models.TimeRangeQuery {
	return models.TimeRangeQuery{MeterID: req.MeterID, From: req.Start, To: req.End}
}

func toWireAnomalies(in []models.AnomalyRecord) []meterv1.Anomaly {
	out := make([]meterv1.Anomaly, 0, len(in))
	for _, a := range in {
		out = append(out, meterv1.Anomaly{MeterID: a.MeterID, Timestamp: a.Timestamp, KWh: a.EnergyKWh})
	}
	return out
}

// toStatus maps application errors onto gRPC status codes.
func toStatus(err error) error {
	switch {
	case errors.Is(err, models.ErrInvalidReading), errors.Is(err, models.ErrInvalidTimeRange):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, models.ErrClassifierUnavailable):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	default:
		return status.Errorf(codes.Internal, "request failed: %v", err)
	}
}

// readMethods are safe to serve from the response cache.
var readMethods = []string{
	meterv1.MeterService_QueryReadings_FullMethodName,
	meterv1.MeterService_QueryAnomalies_FullMethodName,
	meterv1.MeterService_ListMeters_FullMethodName,
}

// SetupServer initializes and configures the gRPC server with all middleware.
// Interceptor metrics are registered with reg. hs is registered as the health
// service and reports the meter service as serving; callers flip it with
// hs.Shutdown when draining.
func SetupServer(api MeterAPI, hs *health.Server, config ServerConfig, logger *logrus.Logger, reg prometheus.Registerer) (*grpc.Server, error) {
	cache, err := middleware.NewCache(config.CacheSize, config.CacheTTL, readMethods...)
	if err != nil {
		return nil, err
	}

	for _, c := range []prometheus.Collector{middleware.Requests, middleware.Latency} {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				return nil, err
			}
		}
	}

	server := grpc.NewServer(
		grpc.UnaryInterceptor(
			chainUnaryInterceptors(
				middleware.ContextMiddleware, // Add request ID first
				middleware.NewRateLimitingInterceptor(config.RateLimit, config.RateLimitBurst),
				middleware.NewLoggingInterceptor(logger),
				middleware.NewMetricsInterceptor(middleware.Requests, middleware.Latency),
				cache.Interceptor(), // Cache last to avoid caching errors
			),
		),
	)

	meterv1.RegisterMeterServiceServer(server, NewMeterService(api))
	healthpb.RegisterHealthServer(server, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(meterv1.ServiceName, healthpb.HealthCheckResponse_SERVING)

	return server, nil
}

// chainUnaryInterceptors creates a single interceptor from multiple interceptors
func chainUnaryInterceptors(interceptors ...grpc.UnaryServerInterceptor) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		chain := handler
		for i := len(interceptors) - 1; i >= 0; i-- {
			interceptor := interceptors[i]
			chainedInterceptor := chain
			chain = func(currentCtx context.Context, currentReq interface{}) (interface{}, error) {
				return interceptor(currentCtx, currentReq, info, chainedInterceptor)
			}
		}
		return chain(ctx, req)
	}
}
