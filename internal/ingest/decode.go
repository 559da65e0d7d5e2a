package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tejusbharadwaj/meterwatch/internal/models"
)

type wireReading struct {
	MeterID   string          `json:"meterId"`
	Timestamp json.RawMessage `json:"timestamp"`
	EnergyKWh *float64        `json:"kWh"`
}

// DecodeReading parses a JSON reading from a stream payload. The timestamp
// may be an RFC 3339 string or epoch milliseconds. A payload that cannot be
// parsed is reported as models.ErrInvalidReading.
func DecodeReading(data []byte) (models.Reading, error) {
	var w wireReading
	if err := json.Unmarshal(data, &w); err != nil {
		return models.Reading{}, fmt.Errorf("%w: %v", models.ErrInvalidReading, err)
	}

	r := models.Reading{MeterID: w.MeterID, EnergyKWh: w.EnergyKWh}
	raw := bytes.TrimSpace(w.Timestamp)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return r, nil
	}

	if raw[0] == '"' {
		var ts time.Time
		if err := json.Unmarshal(raw, &ts); err != nil {
			return models.Reading{}, fmt.Errorf("%w: timestamp: %v", models.ErrInvalidReading, err)
		}
		r.Timestamp = &ts
		return r, nil
	}

	var ms int64
	if err := json.Unmarshal(raw, &ms); err != nil {
		return models.Reading{}, fmt.Errorf("%w: timestamp: %v", models.ErrInvalidReading, err)
	}
	ts := time.UnixMilli(ms).UTC()
	r.Timestamp = &ts
	return r, nil
}
