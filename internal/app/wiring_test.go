package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejusbharadwaj/meterwatch/internal/config"
	"github.com/tejusbharadwaj/meterwatch/internal/database"
	"github.com/tejusbharadwaj/meterwatch/internal/models"
)

func TestOpenStore(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	kv, err := OpenStore(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &database.MemoryStore{}, kv)

	cfg.Store.Driver = "firebase"
	_, err = OpenStore(context.Background(), cfg)
	assert.Error(t, err)
}

func TestBuild_SubmitThroughRemoteModel(t *testing.T) {
	model := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		label := "normal"
		if body["kWh"].(float64) > 100 {
			label = "anomaly"
		}
		_ = json.NewEncoder(w).Encode(models.Verdict{Success: true, Label: label})
	}))
	defer model.Close()

	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Classifier.URL = model.URL

	logger, _ := logtest.NewNullLogger()
	c, err := Build(context.Background(), cfg, logger)
	require.NoError(t, err)

	ctx := context.Background()
	ts := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	got, err := c.Service.SubmitAndClassify(ctx, models.Reading{MeterID: "M1", Timestamp: &ts, EnergyKWh: models.Float(250)})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	c.Store.Wait()

	anomalies, err := c.Service.QueryAnomalies(ctx, models.TimeRangeQuery{MeterID: "M1", From: ts, To: ts})
	require.NoError(t, err)
	require.Len(t, anomalies, 1)
	assert.Equal(t, 250.0, *anomalies[0].EnergyKWh)

	assert.NoError(t, c.Close())
}
