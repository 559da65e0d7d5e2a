package database

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/tejusbharadwaj/meterwatch/internal/models"
)

const (
	dataSegment      = "data"
	anomaliesSegment = "anomalies"

	// DefaultRoot is the path under which every meter lives.
	DefaultRoot = "SmartMeter/users"

	defaultDetachedTimeout = 10 * time.Second
)

// Placeholder fields written next to kWh. Downstream dashboards read them
// from every reading node, so they are always present with these values.
var readingPlaceholders = map[string]string{
	"Power": "0.00",
	"Irms":  "0.00",
	"Vrms":  "230.00",
}

// TimeSeriesStore stores readings and anomalies of many meters on a
// KeyRangeStore and answers range queries over them.
//
// Values are kept as text: kWh is rounded to two decimals on write, so a
// round trip loses any further precision.
type TimeSeriesStore struct {
	kv     KeyRangeStore
	root   []string
	logger *logrus.Logger

	detachedTimeout time.Duration
	detached        sync.WaitGroup
}

// NewTimeSeriesStore creates a store rooted at root, e.g. "SmartMeter/users".
func NewTimeSeriesStore(kv KeyRangeStore, root string, logger *logrus.Logger) *TimeSeriesStore {
	segs := SplitPath(root)
	if len(segs) == 0 {
		segs = SplitPath(DefaultRoot)
	}
	return &TimeSeriesStore{
		kv:              kv,
		root:            segs,
		logger:          logger,
		detachedTimeout: defaultDetachedTimeout,
	}
}

// ValidateReading checks that r can be written: it needs a usable meter id,
// a timestamp that fits the key encoding and a finite energy value.
func ValidateReading(r models.Reading) error {
	if !ValidSegment(r.MeterID) {
		return fmt.Errorf("%w: meter id %q", models.ErrInvalidReading, r.MeterID)
	}
	if r.Timestamp == nil {
		return fmt.Errorf("%w: missing timestamp", models.ErrInvalidReading)
	}
	if !ValidKeyTime(*r.Timestamp) {
		return fmt.Errorf("%w: timestamp %s out of range", models.ErrInvalidReading, r.Timestamp)
	}
	if r.EnergyKWh != nil && (math.IsNaN(*r.EnergyKWh) || math.IsInf(*r.EnergyKWh, 0)) {
		return fmt.Errorf("%w: kWh is not finite", models.ErrInvalidReading)
	}
	return nil
}

// SaveReading writes r to <root>/<meterId>/data/<key>.
func (s *TimeSeriesStore) SaveReading(ctx context.Context, r models.Reading) error {
	if err := ValidateReading(r); err != nil {
		return err
	}

	fields := make(map[string]string, len(readingPlaceholders)+1)
	for k, v := range readingPlaceholders {
		fields[k] = v
	}
	fields["kWh"] = formatKWh(r.EnergyKWh)

	path := childPath(s.root, r.MeterID, dataSegment)
	if err := s.kv.Put(ctx, path, FormatKey(*r.Timestamp), fields); err != nil {
		storeOps.WithLabelValues("save_reading", "error").Inc()
		return fmt.Errorf("%w: put %s: %v", models.ErrStore, JoinPath(path), err)
	}
	storeOps.WithLabelValues("save_reading", "ok").Inc()
	return nil
}

// SaveAnomaly writes a to <root>/<meterId>/anomalies/<key>. Two anomalies
// of the same reading share a key, so the later write replaces the earlier.
func (s *TimeSeriesStore) SaveAnomaly(ctx context.Context, a models.AnomalyRecord) error {
	if !ValidSegment(a.MeterID) || !ValidKeyTime(a.Timestamp) {
		return fmt.Errorf("%w: anomaly for meter %q at %s", models.ErrInvalidReading, a.MeterID, a.Timestamp)
	}

	fields := map[string]string{
		"meterId":   a.MeterID,
		"timestamp": a.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		"kWh":       formatKWh(a.EnergyKWh),
	}

	path := childPath(s.root, a.MeterID, anomaliesSegment)
	if err := s.kv.Put(ctx, path, FormatKey(a.Timestamp), fields); err != nil {
		storeOps.WithLabelValues("save_anomaly", "error").Inc()
		return fmt.Errorf("%w: put %s: %v", models.ErrStore, JoinPath(path), err)
	}
	storeOps.WithLabelValues("save_anomaly", "ok").Inc()
	return nil
}

// SaveAnomalyDetached starts SaveAnomaly in the background and returns at
// once. Failures are logged and counted but never reported to the caller.
// Wait blocks until all detached writes have finished.
func (s *TimeSeriesStore) SaveAnomalyDetached(a models.AnomalyRecord) {
	s.detached.Add(1)
	go func() {
		defer s.detached.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.detachedTimeout)
		defer cancel()

		if err := s.SaveAnomaly(ctx, a); err != nil {
			detachedWriteFailures.Inc()
			s.logger.WithError(err).WithFields(logrus.Fields{
				"meter_id":  a.MeterID,
				"timestamp": a.Timestamp,
			}).Error("Detached anomaly write failed")
			return
		}
		s.logger.WithField("meter_id", a.MeterID).Info("Anomaly saved")
	}()
}

// Wait blocks until every detached write started so far has completed.
func (s *TimeSeriesStore) Wait() {
	s.detached.Wait()
}

// Readings returns the readings of q.MeterID with a timestamp in
// [q.From, q.To], ascending by timestamp.
func (s *TimeSeriesStore) Readings(ctx context.Context, q models.TimeRangeQuery) ([]models.Reading, error) {
	entries, err := s.scan(ctx, q, dataSegment)
	if err != nil {
		return nil, err
	}

	out := make([]models.Reading, 0, len(entries))
	for _, e := range entries {
		ts, err := ParseKey(e.Key)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrStore, err)
		}
		out = append(out, models.Reading{
			MeterID:   q.MeterID,
			Timestamp: &ts,
			EnergyKWh: models.Float(parseKWh(e.Fields["kWh"])),
		})
	}
	return out, nil
}

// Anomalies returns the anomalies of q.MeterID with a timestamp in
// [q.From, q.To], ascending by timestamp.
func (s *TimeSeriesStore) Anomalies(ctx context.Context, q models.TimeRangeQuery) ([]models.AnomalyRecord, error) {
	entries, err := s.scan(ctx, q, anomaliesSegment)
	if err != nil {
		return nil, err
	}

	out := make([]models.AnomalyRecord, 0, len(entries))
	for _, e := range entries {
		ts, err := ParseKey(e.Key)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrStore, err)
		}
		out = append(out, models.AnomalyRecord{
			MeterID:   q.MeterID,
			Timestamp: ts,
			EnergyKWh: models.Float(parseKWh(e.Fields["kWh"])),
		})
	}
	return out, nil
}

// Meters lists every meter id that has data under the root path.
func (s *TimeSeriesStore) Meters(ctx context.Context) ([]string, error) {
	meters, err := s.kv.Children(ctx, s.root)
	if err != nil {
		storeOps.WithLabelValues("meters", "error").Inc()
		return nil, fmt.Errorf("%w: children of %s: %v", models.ErrStore, JoinPath(s.root), err)
	}
	storeOps.WithLabelValues("meters", "ok").Inc()
	return meters, nil
}

func (s *TimeSeriesStore) scan(ctx context.Context, q models.TimeRangeQuery, segment string) ([]Entry, error) {
	if !ValidSegment(q.MeterID) {
		return nil, fmt.Errorf("%w: meter id %q", models.ErrInvalidTimeRange, q.MeterID)
	}

	if !ValidKeyTime(q.From) || !ValidKeyTime(q.To) {
		return nil, fmt.Errorf("%w: bounds must fall in years 0000-9999", models.ErrInvalidTimeRange)
	}

	// keys have millisecond resolution; a sub-millisecond lower bound must
	// not match the reading stored at the truncated key
	from := q.From.Truncate(time.Millisecond)
	if from.Before(q.From) {
		from = from.Add(time.Millisecond)
	}
	if from.After(q.To) {
		return nil, nil
	}

	path := childPath(s.root, q.MeterID, segment)
	entries, err := s.kv.Range(ctx, path, FormatKey(from), FormatKey(q.To))
	if err != nil {
		storeOps.WithLabelValues("range_"+segment, "error").Inc()
		return nil, fmt.Errorf("%w: range %s: %v", models.ErrStore, JoinPath(path), err)
	}
	storeOps.WithLabelValues("range_"+segment, "ok").Inc()
	return entries, nil
}

// formatKWh renders v with exactly two decimals, rounding half away from
// zero. A missing value is written as "null".
func formatKWh(v *float64) string {
	if v == nil {
		return "null"
	}
	return decimal.NewFromFloat(*v).StringFixed(2)
}

// parseKWh reads a stored kWh value. Missing or malformed values read as 0.
func parseKWh(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
