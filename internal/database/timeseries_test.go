package database_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejusbharadwaj/meterwatch/internal/database"
	"github.com/tejusbharadwaj/meterwatch/internal/database/mocks"
	"github.com/tejusbharadwaj/meterwatch/internal/models"
)

func newStore(t *testing.T) (*database.TimeSeriesStore, *database.MemoryStore) {
	t.Helper()
	logger, _ := logtest.NewNullLogger()
	kv := database.NewMemoryStore()
	return database.NewTimeSeriesStore(kv, database.DefaultRoot, logger), kv
}

func TestTimeSeriesStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)

	ts := time.Date(2024, 1, 1, 12, 30, 15, 123456789, time.UTC)
	require.NoError(t, store.SaveReading(ctx, models.Reading{
		MeterID:   "M1",
		Timestamp: &ts,
		EnergyKWh: models.Float(1.23456),
	}))

	got, err := store.Readings(ctx, models.TimeRangeQuery{
		MeterID: "M1",
		From:    ts.Add(-time.Second),
		To:      ts.Add(time.Second),
	})
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, "M1", got[0].MeterID)
	assert.True(t, ts.Truncate(time.Millisecond).Equal(*got[0].Timestamp))
	assert.Equal(t, 1.23, *got[0].EnergyKWh)
}

func TestTimeSeriesStore_ReadingValueShape(t *testing.T) {
	ctx := context.Background()
	store, kv := newStore(t)

	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveReading(ctx, models.Reading{MeterID: "M1", Timestamp: &ts, EnergyKWh: models.Float(2.675)}))

	entries, err := kv.Range(ctx, []string{"SmartMeter", "users", "M1", "data"}, "0", "9")
	require.NoError(t, err)
	require.Len(t, entries, 1)

	assert.Equal(t, "2024-01-01_00:00:00_000", entries[0].Key)
	assert.Equal(t, map[string]string{
		"kWh":   "2.68",
		"Power": "0.00",
		"Irms":  "0.00",
		"Vrms":  "230.00",
	}, entries[0].Fields)
}

func TestTimeSeriesStore_MissingKWh(t *testing.T) {
	ctx := context.Background()
	store, kv := newStore(t)

	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveReading(ctx, models.Reading{MeterID: "M1", Timestamp: &ts}))

	entries, err := kv.Range(ctx, []string{"SmartMeter", "users", "M1", "data"}, "0", "9")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "null", entries[0].Fields["kWh"])

	got, err := store.Readings(ctx, models.TimeRangeQuery{MeterID: "M1", From: ts, To: ts})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 0.0, *got[0].EnergyKWh)
}

func TestTimeSeriesStore_RangeIsInclusiveAndOrdered(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	offsets := []int{5, 1, 9, 3, 7, 0, 10}
	for _, m := range offsets {
		ts := base.Add(time.Duration(m) * time.Minute)
		require.NoError(t, store.SaveReading(ctx, models.Reading{MeterID: "M1", Timestamp: &ts, EnergyKWh: models.Float(float64(m))}))
	}
	// another meter in the same window must not leak into the result
	other := base.Add(5 * time.Minute)
	require.NoError(t, store.SaveReading(ctx, models.Reading{MeterID: "M2", Timestamp: &other, EnergyKWh: models.Float(99)}))

	got, err := store.Readings(ctx, models.TimeRangeQuery{
		MeterID: "M1",
		From:    base.Add(1 * time.Minute),
		To:      base.Add(9 * time.Minute),
	})
	require.NoError(t, err)

	var minutes []float64
	for i, r := range got {
		minutes = append(minutes, *r.EnergyKWh)
		if i > 0 {
			assert.True(t, got[i-1].Timestamp.Before(*r.Timestamp))
		}
	}
	assert.Equal(t, []float64{1, 3, 5, 7, 9}, minutes)
}

func TestTimeSeriesStore_SubMillisecondBounds(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)

	stored := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveReading(ctx, models.Reading{MeterID: "M1", Timestamp: &stored, EnergyKWh: models.Float(1)}))

	testCases := []struct {
		name string
		from time.Time
		to   time.Time
		want int
	}{
		{"from past the stored key", stored.Add(900 * time.Microsecond), stored.Add(time.Second), 0},
		{"from one nanosecond late", stored.Add(time.Nanosecond), stored.Add(time.Second), 0},
		{"from and to inside one millisecond", stored.Add(100 * time.Microsecond), stored.Add(900 * time.Microsecond), 0},
		{"to inside the stored millisecond", stored.Add(-time.Second), stored.Add(900 * time.Microsecond), 1},
		{"exact bounds", stored, stored, 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := store.Readings(ctx, models.TimeRangeQuery{MeterID: "M1", From: tc.from, To: tc.to})
			require.NoError(t, err)
			assert.Len(t, got, tc.want)
		})
	}
}

func TestTimeSeriesStore_RejectsUnencodableBounds(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)

	inRange := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	testCases := []struct {
		name string
		q    models.TimeRangeQuery
	}{
		{"to past year 9999", models.TimeRangeQuery{MeterID: "M1", From: inRange, To: time.Date(10000, 1, 1, 0, 0, 0, 0, time.UTC)}},
		{"from before year 0", models.TimeRangeQuery{MeterID: "M1", From: time.Date(-1, 1, 1, 0, 0, 0, 0, time.UTC), To: inRange}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := store.Readings(ctx, tc.q)
			assert.True(t, errors.Is(err, models.ErrInvalidTimeRange), "got %v", err)

			_, err = store.Anomalies(ctx, tc.q)
			assert.True(t, errors.Is(err, models.ErrInvalidTimeRange), "got %v", err)
		})
	}
}

func TestTimeSeriesStore_RejectsInvalidReadings(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// no expectations: nothing may reach the backing store
	kv := mocks.NewMockKeyRangeStore(ctrl)
	logger, _ := logtest.NewNullLogger()
	store := database.NewTimeSeriesStore(kv, database.DefaultRoot, logger)

	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	far := time.Date(10000, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		reading models.Reading
	}{
		{name: "missing timestamp", reading: models.Reading{MeterID: "M1", EnergyKWh: models.Float(1)}},
		{name: "missing meter", reading: models.Reading{Timestamp: &ts}},
		{name: "meter with slash", reading: models.Reading{MeterID: "a/b", Timestamp: &ts}},
		{name: "year out of range", reading: models.Reading{MeterID: "M1", Timestamp: &far}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.SaveReading(context.Background(), tt.reading)
			assert.True(t, errors.Is(err, models.ErrInvalidReading), "got %v", err)
		})
	}
}

func TestTimeSeriesStore_WrapsTransportErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	kv := mocks.NewMockKeyRangeStore(ctrl)
	logger, _ := logtest.NewNullLogger()
	store := database.NewTimeSeriesStore(kv, "root", logger)

	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	kv.EXPECT().
		Put(gomock.Any(), []string{"root", "M1", "data"}, "2024-01-01_00:00:00_000", gomock.Any()).
		Return(errors.New("connection reset"))
	err := store.SaveReading(context.Background(), models.Reading{MeterID: "M1", Timestamp: &ts, EnergyKWh: models.Float(1)})
	assert.True(t, errors.Is(err, models.ErrStore))

	kv.EXPECT().
		Range(gomock.Any(), []string{"root", "M1", "anomalies"}, gomock.Any(), gomock.Any()).
		Return(nil, errors.New("timeout"))
	_, err = store.Anomalies(context.Background(), models.TimeRangeQuery{MeterID: "M1", From: ts, To: ts})
	assert.True(t, errors.Is(err, models.ErrStore))

	kv.EXPECT().Children(gomock.Any(), []string{"root"}).Return(nil, errors.New("down"))
	_, err = store.Meters(context.Background())
	assert.True(t, errors.Is(err, models.ErrStore))
}

func TestTimeSeriesStore_DetachedWriteOnlyLogs(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	kv := mocks.NewMockKeyRangeStore(ctrl)
	logger, hook := logtest.NewNullLogger()
	store := database.NewTimeSeriesStore(kv, "root", logger)

	kv.EXPECT().
		Put(gomock.Any(), []string{"root", "M1", "anomalies"}, gomock.Any(), gomock.Any()).
		Return(errors.New("permission denied"))

	store.SaveAnomalyDetached(models.AnomalyRecord{
		MeterID:   "M1",
		Timestamp: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EnergyKWh: models.Float(0),
	})
	store.Wait()

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, "Detached anomaly write failed", entry.Message)
}

func TestTimeSeriesStore_AnomaliesAndMeters(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)

	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	a := models.AnomalyRecord{MeterID: "M2", Timestamp: ts, EnergyKWh: models.Float(-1.5)}

	store.SaveAnomalyDetached(a)
	// a second record for the same reading lands on the same key
	store.SaveAnomalyDetached(a)
	store.Wait()

	got, err := store.Anomalies(ctx, models.TimeRangeQuery{MeterID: "M2", From: ts, To: ts})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "M2", got[0].MeterID)
	assert.True(t, ts.Equal(got[0].Timestamp))
	assert.Equal(t, -1.5, *got[0].EnergyKWh)

	require.NoError(t, store.SaveReading(ctx, models.Reading{MeterID: "M1", Timestamp: &ts, EnergyKWh: models.Float(1)}))
	meters, err := store.Meters(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"M1", "M2"}, meters)
}
