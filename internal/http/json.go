package httpserver

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/tejusbharadwaj/meterwatch/internal/models"
)

type dataQueryJSON struct {
	MeterID string    `json:"meterId"`
	From    time.Time `json:"from"`
	To      time.Time `json:"to"`
}

func (q dataQueryJSON) toQuery() models.TimeRangeQuery {
	return models.TimeRangeQuery{MeterID: q.MeterID, From: q.From, To: q.To}
}

type uplinkEventJSON struct {
	MeterID   string     `json:"meterId"`
	Timestamp *time.Time `json:"timestamp"`
	KWh       *float64   `json:"kWh"`
}

type meterDocumentJSON struct {
	MeterID   string   `json:"meterId"`
	Timestamp string   `json:"timestamp"`
	KWh       *float64 `json:"kWh"`
}

type apiErrorJSON struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
}

func toAnomalyJSON(in []models.AnomalyRecord) []meterDocumentJSON {
	out := make([]meterDocumentJSON, 0, len(in))
	for _, a := range in {
		out = append(out, meterDocumentJSON{
			MeterID:   a.MeterID,
			Timestamp: formatTime(a.Timestamp),
			KWh:       a.EnergyKWh,
		})
	}
	return out
}

func decodeJSON(r io.Reader, v any) error {
	return json.NewDecoder(r).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}
