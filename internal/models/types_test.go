package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimeRangeQuery_Validate(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		query   TimeRangeQuery
		wantErr bool
	}{
		{
			name:  "valid range",
			query: TimeRangeQuery{MeterID: "M1", From: now, To: now.Add(time.Hour)},
		},
		{
			name:  "single instant",
			query: TimeRangeQuery{MeterID: "M1", From: now, To: now},
		},
		{
			name:    "missing meter",
			query:   TimeRangeQuery{From: now, To: now.Add(time.Hour)},
			wantErr: true,
		},
		{
			name:    "missing from",
			query:   TimeRangeQuery{MeterID: "M1", To: now},
			wantErr: true,
		},
		{
			name:    "inverted range",
			query:   TimeRangeQuery{MeterID: "M1", From: now.Add(time.Hour), To: now},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate()
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidTimeRange))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestAnomalyFrom(t *testing.T) {
	ts := time.Date(2024, 1, 1, 1, 0, 0, 0, time.FixedZone("CET", 3600))
	r := Reading{MeterID: "M1", Timestamp: &ts, EnergyKWh: Float(0)}

	a := AnomalyFrom(r)

	assert.Equal(t, "M1", a.MeterID)
	assert.True(t, a.Timestamp.Equal(ts))
	assert.Equal(t, time.UTC, a.Timestamp.Location())
	assert.Equal(t, 0.0, *a.EnergyKWh)
}
