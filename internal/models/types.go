package models

import (
	"fmt"
	"time"
)

// Reading is a single telemetry sample reported by a meter or gateway.
//
// Timestamp and EnergyKWh are optional on the wire. A reading without a
// timestamp is not classifiable and is dropped by the pipeline.
type Reading struct {
	MeterID   string     `json:"meterId"`
	Timestamp *time.Time `json:"timestamp"`
	EnergyKWh *float64   `json:"kWh"`
}

// AnomalyRecord is one flagged deviation. It copies the meter id, timestamp
// and energy value of the reading that produced it.
type AnomalyRecord struct {
	MeterID   string    `json:"meterId"`
	Timestamp time.Time `json:"timestamp"`
	EnergyKWh *float64  `json:"kWh"`
}

// Verdict is the remote classifier's answer for a single reading.
type Verdict struct {
	Success bool   `json:"success"`
	Label   string `json:"label"`
}

// TimeRangeQuery selects the readings or anomalies of one meter with a
// timestamp in [From, To].
type TimeRangeQuery struct {
	MeterID string
	From    time.Time
	To      time.Time
}

// Validate checks that the query names a meter and a well-ordered range.
func (q TimeRangeQuery) Validate() error {
	if q.MeterID == "" {
		return fmt.Errorf("%w: meter id is required", ErrInvalidTimeRange)
	}
	if q.From.IsZero() || q.To.IsZero() {
		return fmt.Errorf("%w: missing timestamp", ErrInvalidTimeRange)
	}
	if q.From.After(q.To) {
		return fmt.Errorf("%w: from must not be after to", ErrInvalidTimeRange)
	}
	return nil
}

// AnomalyFrom builds the record flagged for r. The caller guarantees that
// r carries a timestamp.
func AnomalyFrom(r Reading) AnomalyRecord {
	return AnomalyRecord{
		MeterID:   r.MeterID,
		Timestamp: r.Timestamp.UTC(),
		EnergyKWh: r.EnergyKWh,
	}
}

// Float returns a pointer to v. Handy for building readings in code and tests.
func Float(v float64) *float64 {
	return &v
}

// Time returns a pointer to t.
func Time(t time.Time) *time.Time {
	return &t
}
