package models

import "errors"

// Error kinds shared by the pipeline. Components wrap them with
// fmt.Errorf("%w: ...") and callers match with errors.Is.
var (
	// ErrInvalidReading marks a reading that can never be persisted, such as
	// one without a meter id. It is not retried.
	ErrInvalidReading = errors.New("invalid reading")

	// ErrClassifierUnavailable means the remote classifier could not produce
	// a verdict. It is distinct from a "normal" verdict.
	ErrClassifierUnavailable = errors.New("classifier unavailable")

	// ErrStore wraps any failure reported by the underlying key-range store.
	ErrStore = errors.New("store error")

	// ErrInvalidTimeRange marks a malformed range query.
	ErrInvalidTimeRange = errors.New("invalid time range")
)
