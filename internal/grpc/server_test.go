package server_test

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/prometheus/client_golang/prometheus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/timestamppb"

	server "github.com/tejusbharadwaj/meterwatch/internal/grpc"
	"github.com/tejusbharadwaj/meterwatch/internal/grpc/meterv1"
	"github.com/tejusbharadwaj/meterwatch/internal/grpc/mocks"
	"github.com/tejusbharadwaj/meterwatch/internal/models"
)

func TestQueryReadings(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAPI := mocks.NewMockMeterAPI(ctrl)
	svc := server.NewMeterService(mockAPI)
	now := time.Now().UTC()

	tests := []struct {
		name          string
		request       *meterv1.RangeRequest
		setupMock     func()
		expectedCode  codes.Code
		expectedError string
	}{
		{
			name:    "Success case",
			request: &meterv1.RangeRequest{MeterID: "M1", Start: now.Add(-time.Hour), End: now},
			setupMock: func() {
				mockAPI.EXPECT().
					QueryReadings(gomock.Any(), models.TimeRangeQuery{MeterID: "M1", From: now.Add(-time.Hour), To: now}).
					Return([]models.Reading{
						{MeterID: "M1", Timestamp: models.Time(now.Add(-time.Minute)), EnergyKWh: models.Float(1.5)},
					}, nil)
			},
			expectedCode: codes.OK,
		},
		{
			name:          "Invalid time range",
			request:       &meterv1.RangeRequest{MeterID: "M1", Start: now, End: now.Add(-time.Hour)},
			setupMock:     func() {},
			expectedCode:  codes.InvalidArgument,
			expectedError: "start time must be before end time",
		},
		{
			name:          "Missing meter",
			request:       &meterv1.RangeRequest{Start: now.Add(-time.Hour), End: now},
			setupMock:     func() {},
			expectedCode:  codes.InvalidArgument,
			expectedError: "meter id is required",
		},
		{
			name:    "Store failure",
			request: &meterv1.RangeRequest{MeterID: "M1", Start: now.Add(-time.Hour), End: now},
			setupMock: func() {
				mockAPI.EXPECT().
					QueryReadings(gomock.Any(), gomock.Any()).
					Return(nil, fmt.Errorf("%w: range: timeout", models.ErrStore))
			},
			expectedCode:  codes.Internal,
			expectedError: "request failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			resp, err := svc.QueryReadings(context.Background(), tt.request)

			if tt.expectedCode != codes.OK {
				require.Error(t, err)
				st, ok := status.FromError(err)
				require.True(t, ok)
				assert.Equal(t, tt.expectedCode, st.Code())
				assert.Contains(t, st.Message(), tt.expectedError)
				assert.Nil(t, resp)
			} else {
				require.NoError(t, err)
				require.NotNil(t, resp)
				assert.Len(t, resp.Readings, 1)
				assert.Equal(t, 1.5, *resp.Readings[0].KWh)
			}
		})
	}
}

func TestSubmitReading_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code codes.Code
	}{
		{name: "invalid reading", err: fmt.Errorf("%w: meter id", models.ErrInvalidReading), code: codes.InvalidArgument},
		{name: "classifier down", err: fmt.Errorf("%w: got 503", models.ErrClassifierUnavailable), code: codes.Unavailable},
		{name: "store down", err: fmt.Errorf("%w: put", models.ErrStore), code: codes.Internal},
		{name: "deadline", err: context.DeadlineExceeded, code: codes.DeadlineExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockAPI := mocks.NewMockMeterAPI(ctrl)
			mockAPI.EXPECT().SubmitAndClassify(gomock.Any(), gomock.Any()).Return(nil, tt.err)

			_, err := server.NewMeterService(mockAPI).SubmitReading(context.Background(), &meterv1.SubmitReadingRequest{
				Reading: meterv1.Reading{MeterID: "M1", Timestamp: models.Time(time.Now())},
			})
			assert.Equal(t, tt.code, status.Code(err))
		})
	}
}

func TestSetupServer(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAPI := mocks.NewMockMeterAPI(ctrl)
	logger, _ := logtest.NewNullLogger()
	reg := prometheus.NewRegistry()

	srv, err := server.SetupServer(mockAPI, health.NewServer(), server.DefaultServerConfig(), logger, reg)
	require.NoError(t, err)
	require.NotNil(t, srv)

	// registering twice against the same registry is tolerated
	srv, err = server.SetupServer(mockAPI, health.NewServer(), server.DefaultServerConfig(), logger, reg)
	require.NoError(t, err)
	require.NotNil(t, srv)

	// Test with invalid config
	srv, err = server.SetupServer(mockAPI, health.NewServer(), server.ServerConfig{CacheSize: -1}, logger, reg)
	require.Error(t, err)
	require.Nil(t, srv)
}

func dialBufconn(t *testing.T, api server.MeterAPI, hs *health.Server) *grpc.ClientConn {
	t.Helper()
	logger, _ := logtest.NewNullLogger()
	srv, err := server.SetupServer(api, hs, server.DefaultServerConfig(), logger, prometheus.NewRegistry())
	require.NoError(t, err)

	lis := bufconn.Listen(1024 * 1024)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestMeterService_OverTheWire(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAPI := mocks.NewMockMeterAPI(ctrl)
	conn := dialBufconn(t, mockAPI, health.NewServer())
	client := meterv1.NewMeterServiceClient(conn)
	ctx := context.Background()

	ts := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	mockAPI.EXPECT().
		SubmitAndClassify(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, r models.Reading) ([]models.AnomalyRecord, error) {
			assert.Equal(t, "M1", r.MeterID)
			assert.True(t, ts.Equal(*r.Timestamp))
			assert.Equal(t, -1.0, *r.EnergyKWh)
			return []models.AnomalyRecord{models.AnomalyFrom(r), models.AnomalyFrom(r)}, nil
		})

	resp, err := client.SubmitReading(ctx, &meterv1.SubmitReadingRequest{
		Reading: meterv1.Reading{MeterID: "M1", Timestamp: &ts, KWh: models.Float(-1)},
	})
	require.NoError(t, err)
	assert.Len(t, resp.Anomalies, 2)

	// ListMeters is cached: the second call must not reach the API
	mockAPI.EXPECT().ListMeters(gomock.Any()).Return([]string{"M1", "M2"}, nil).Times(1)
	for i := 0; i < 2; i++ {
		meters, err := client.ListMeters(ctx, &emptypb.Empty{})
		require.NoError(t, err)
		assert.Equal(t, []string{"M1", "M2"}, meters.MeterIDs)
	}

	healthClient := grpc_health_v1.NewHealthClient(conn)
	hr, err := healthClient.Check(ctx, &grpc_health_v1.HealthCheckRequest{Service: meterv1.ServiceName})
	require.NoError(t, err)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, hr.Status)
}

func TestMeterService_PlainProtobufClient(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAPI := mocks.NewMockMeterAPI(ctrl)
	conn := dialBufconn(t, mockAPI, health.NewServer())

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	ts := start.Add(90*time.Second + 250*time.Millisecond)
	mockAPI.EXPECT().
		QueryReadings(gomock.Any(), models.TimeRangeQuery{MeterID: "M1", From: start, To: end}).
		Return([]models.Reading{
			{MeterID: "M1", Timestamp: &ts, EnergyKWh: models.Float(0)},
			{MeterID: "M1", Timestamp: models.Time(ts.Add(time.Minute))},
		}, nil)

	// build the request from the descriptor alone, as a client generated
	// from meter.proto would encode it
	msgs := meterv1.File.Messages()
	req := dynamicpb.NewMessage(msgs.ByName("RangeRequest"))
	fields := req.Descriptor().Fields()
	req.Set(fields.ByName("meter_id"), protoreflect.ValueOfString("M1"))
	req.Set(fields.ByName("start"), protoreflect.ValueOfMessage(timestamppb.New(start).ProtoReflect()))
	req.Set(fields.ByName("end"), protoreflect.ValueOfMessage(timestamppb.New(end).ProtoReflect()))

	resp := dynamicpb.NewMessage(msgs.ByName("QueryReadingsResponse"))
	err := conn.Invoke(context.Background(), meterv1.MeterService_QueryReadings_FullMethodName, req, resp)
	require.NoError(t, err)

	readings := resp.Get(resp.Descriptor().Fields().ByName("readings")).List()
	require.Equal(t, 2, readings.Len())

	first := readings.Get(0).Message()
	kwh := first.Descriptor().Fields().ByName("kwh")
	assert.Equal(t, "M1", first.Get(first.Descriptor().Fields().ByName("meter_id")).String())
	assert.True(t, first.Has(kwh), "a zero kWh must stay distinguishable from a missing one")
	assert.False(t, readings.Get(1).Message().Has(kwh))
}

func TestHealth_WatchReportsShutdown(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	hs := health.NewServer()
	conn := dialBufconn(t, mocks.NewMockMeterAPI(ctrl), hs)
	client := grpc_health_v1.NewHealthClient(conn)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := client.Check(ctx, &grpc_health_v1.HealthCheckRequest{Service: "missing"})
	assert.Equal(t, codes.NotFound, status.Code(err))

	stream, err := client.Watch(ctx, &grpc_health_v1.HealthCheckRequest{Service: meterv1.ServiceName})
	require.NoError(t, err)

	update, err := stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, update.Status)

	hs.Shutdown()

	update, err = stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING, update.Status)
}
