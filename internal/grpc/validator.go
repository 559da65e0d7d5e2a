package server

import (
	"fmt"
	"time"

	"github.com/tejusbharadwaj/meterwatch/internal/database"
	"github.com/tejusbharadwaj/meterwatch/internal/models"
)

const maxTimeRange = 2 * 365 * 24 * time.Hour

type RequestValidator struct {
	maxRange time.Duration
}

func NewRequestValidator() *RequestValidator {
	return &RequestValidator{maxRange: maxTimeRange}
}

// Validate checks if the range request parameters are valid
func (v *RequestValidator) Validate(meterID string, start, end time.Time) error {
	if meterID == "" {
		return fmt.Errorf("%w: meter id is required", models.ErrInvalidTimeRange)
	}
	if !database.ValidSegment(meterID) {
		return fmt.Errorf("%w: invalid meter id %q", models.ErrInvalidTimeRange, meterID)
	}

	// Validate timestamps are present
	if start.IsZero() || end.IsZero() || start.Equal(time.Unix(0, 0)) || end.Equal(time.Unix(0, 0)) {
		return fmt.Errorf("%w: missing timestamp", models.ErrInvalidTimeRange)
	}

	if start.After(end) {
		return fmt.Errorf("%w: start time must be before end time", models.ErrInvalidTimeRange)
	}

	if end.Sub(start) > v.maxRange {
		return fmt.Errorf("%w: time range exceeds maximum allowed", models.ErrInvalidTimeRange)
	}

	return nil
}
