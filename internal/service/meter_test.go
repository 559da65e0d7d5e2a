package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejusbharadwaj/meterwatch/internal/classifier"
	classifiermocks "github.com/tejusbharadwaj/meterwatch/internal/classifier/mocks"
	"github.com/tejusbharadwaj/meterwatch/internal/database"
	"github.com/tejusbharadwaj/meterwatch/internal/models"
	"github.com/tejusbharadwaj/meterwatch/internal/service"
)

type fixture struct {
	svc       *service.MeterService
	store     *database.TimeSeriesStore
	kv        *database.MemoryStore
	predictor *classifiermocks.MockPredictor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	logger, _ := logtest.NewNullLogger()

	kv := database.NewMemoryStore()
	store := database.NewTimeSeriesStore(kv, database.DefaultRoot, logger)
	predictor := classifiermocks.NewMockPredictor(ctrl)
	detector := classifier.NewDetector(predictor, logger)

	return &fixture{
		svc:       service.NewMeterService(store, detector, logger),
		store:     store,
		kv:        kv,
		predictor: predictor,
	}
}

func window(meter string, ts time.Time) models.TimeRangeQuery {
	return models.TimeRangeQuery{MeterID: meter, From: ts.Add(-time.Minute), To: ts.Add(time.Minute)}
}

func TestSubmitAndClassify_NegativeReadingWithRemoteAnomaly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ts := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	f.predictor.EXPECT().Predict(gomock.Any(), gomock.Any()).Return(models.Verdict{Success: true, Label: "anomaly"}, nil)

	got, err := f.svc.SubmitAndClassify(ctx, models.Reading{MeterID: "M1", Timestamp: &ts, EnergyKWh: models.Float(-0.5)})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	f.store.Wait()

	readings, err := f.svc.QueryReadings(ctx, window("M1", ts))
	require.NoError(t, err)
	require.Len(t, readings, 1)
	assert.Equal(t, -0.5, *readings[0].EnergyKWh)

	// both records share the reading's key
	anomalies, err := f.svc.QueryAnomalies(ctx, window("M1", ts))
	require.NoError(t, err)
	require.Len(t, anomalies, 1)
	assert.True(t, ts.Equal(anomalies[0].Timestamp))

	meters, err := f.svc.ListMeters(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"M1"}, meters)
}

func TestSubmitAndClassify_NormalReading(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ts := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	f.predictor.EXPECT().Predict(gomock.Any(), gomock.Any()).Return(models.Verdict{Success: true, Label: "normal"}, nil)

	got, err := f.svc.SubmitAndClassify(ctx, models.Reading{MeterID: "M1", Timestamp: &ts, EnergyKWh: models.Float(3.14159)})
	require.NoError(t, err)
	assert.Empty(t, got)
	f.store.Wait()

	readings, err := f.svc.QueryReadings(ctx, window("M1", ts))
	require.NoError(t, err)
	require.Len(t, readings, 1)
	assert.Equal(t, 3.14, *readings[0].EnergyKWh)

	anomalies, err := f.svc.QueryAnomalies(ctx, window("M1", ts))
	require.NoError(t, err)
	assert.Empty(t, anomalies)
}

func TestSubmitAndClassify_NullTimestamp(t *testing.T) {
	f := newFixture(t)

	// no Predict expectation: the remote model must not be called
	got, err := f.svc.SubmitAndClassify(context.Background(), models.Reading{MeterID: "M1", EnergyKWh: models.Float(-1)})
	require.NoError(t, err)
	assert.Empty(t, got)

	meters, err := f.svc.ListMeters(context.Background())
	require.NoError(t, err)
	assert.Empty(t, meters)
}

func TestSubmitAndClassify_InvalidMeterFailsFast(t *testing.T) {
	f := newFixture(t)
	ts := time.Now()

	_, err := f.svc.SubmitAndClassify(context.Background(), models.Reading{MeterID: "users/../x", Timestamp: &ts})
	assert.True(t, errors.Is(err, models.ErrInvalidReading))
}

func TestSubmitAndClassify_ClassifierDown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ts := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	f.predictor.EXPECT().Predict(gomock.Any(), gomock.Any()).
		Return(models.Verdict{}, fmt.Errorf("%w: dial tcp: connection refused", models.ErrClassifierUnavailable))

	got, err := f.svc.SubmitAndClassify(ctx, models.Reading{MeterID: "M1", Timestamp: &ts, EnergyKWh: models.Float(0)})
	assert.Nil(t, got)
	assert.True(t, errors.Is(err, models.ErrClassifierUnavailable))

	// nothing was written
	readings, err := f.svc.QueryReadings(ctx, window("M1", ts))
	require.NoError(t, err)
	assert.Empty(t, readings)
}

func TestIngest_WaitsForAnomalies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ts := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	f.predictor.EXPECT().Predict(gomock.Any(), gomock.Any()).Return(models.Verdict{Success: true, Label: "anomalous"}, nil)

	require.NoError(t, f.svc.Ingest(ctx, models.Reading{MeterID: "M7", Timestamp: &ts, EnergyKWh: models.Float(12)}))

	// no Wait: the streaming path has already stored the anomaly
	anomalies, err := f.svc.QueryAnomalies(ctx, window("M7", ts))
	require.NoError(t, err)
	require.Len(t, anomalies, 1)
	assert.Equal(t, 12.0, *anomalies[0].EnergyKWh)
}

func TestIngest_NullTimestampIsAcknowledged(t *testing.T) {
	f := newFixture(t)
	assert.NoError(t, f.svc.Ingest(context.Background(), models.Reading{MeterID: "M1"}))
}

func TestQueries_RejectInvalidRange(t *testing.T) {
	f := newFixture(t)
	now := time.Now()

	tests := []struct {
		name  string
		query models.TimeRangeQuery
	}{
		{name: "inverted", query: models.TimeRangeQuery{MeterID: "M1", From: now, To: now.Add(-time.Hour)}},
		{name: "missing from", query: models.TimeRangeQuery{MeterID: "M1", To: now}},
		{name: "missing meter", query: models.TimeRangeQuery{From: now, To: now}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.QueryReadings(context.Background(), tt.query)
			assert.True(t, errors.Is(err, models.ErrInvalidTimeRange))
			_, err = f.svc.QueryAnomalies(context.Background(), tt.query)
			assert.True(t, errors.Is(err, models.ErrInvalidTimeRange))
		})
	}
}
