// Package service is the entry point the transports share. It wires the
// anomaly detector to the time-series store for writes and validates range
// queries for reads.
package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/tejusbharadwaj/meterwatch/internal/database"
	"github.com/tejusbharadwaj/meterwatch/internal/models"
)

// Store persists readings and anomalies and serves range reads.
type Store interface {
	SaveReading(ctx context.Context, r models.Reading) error
	SaveAnomaly(ctx context.Context, a models.AnomalyRecord) error
	SaveAnomalyDetached(a models.AnomalyRecord)
	Readings(ctx context.Context, q models.TimeRangeQuery) ([]models.Reading, error)
	Anomalies(ctx context.Context, q models.TimeRangeQuery) ([]models.AnomalyRecord, error)
	Meters(ctx context.Context) ([]string, error)
}

// Classifier turns a reading into zero or more anomaly records.
type Classifier interface {
	Consume(ctx context.Context, r models.Reading) ([]models.AnomalyRecord, error)
}

type MeterService struct {
	store      Store
	classifier Classifier
	logger     *logrus.Logger
}

func NewMeterService(store Store, classifier Classifier, logger *logrus.Logger) *MeterService {
	return &MeterService{store: store, classifier: classifier, logger: logger}
}

// SubmitAndClassify is the direct ingestion path. It classifies r, waits
// for the reading to be stored and returns the anomalies found. Anomalies
// are written in the background; a failed anomaly write is logged only.
//
// A reading without a timestamp yields no anomalies and is not stored.
func (s *MeterService) SubmitAndClassify(ctx context.Context, r models.Reading) ([]models.AnomalyRecord, error) {
	anomalies, err := s.classify(ctx, r)
	if err != nil || r.Timestamp == nil {
		return anomalies, err
	}

	if err := s.store.SaveReading(ctx, r); err != nil {
		return nil, err
	}
	for _, a := range anomalies {
		s.store.SaveAnomalyDetached(a)
	}
	return anomalies, nil
}

// Ingest is the streaming path. Unlike SubmitAndClassify it waits for every
// anomaly write, so that a returned nil means everything is durable and the
// message may be committed.
func (s *MeterService) Ingest(ctx context.Context, r models.Reading) error {
	anomalies, err := s.classify(ctx, r)
	if err != nil || r.Timestamp == nil {
		return err
	}

	if err := s.store.SaveReading(ctx, r); err != nil {
		return err
	}
	for _, a := range anomalies {
		if err := s.store.SaveAnomaly(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

func (s *MeterService) classify(ctx context.Context, r models.Reading) ([]models.AnomalyRecord, error) {
	log := s.logger.WithField("meter_id", r.MeterID)
	if r.Timestamp == nil {
		log.Debug("Dropping reading without timestamp")
		return []models.AnomalyRecord{}, nil
	}
	// reject before spending a remote call on a reading that cannot be stored
	if err := database.ValidateReading(r); err != nil {
		return nil, err
	}

	anomalies, err := s.classifier.Consume(ctx, r)
	if err != nil {
		log.WithError(err).Error("Classification failed")
		return nil, err
	}
	if len(anomalies) > 0 {
		log.WithField("count", len(anomalies)).Info("Anomalies detected")
	}
	return anomalies, nil
}

// QueryReadings returns the readings of q.MeterID within [q.From, q.To],
// oldest first.
func (s *MeterService) QueryReadings(ctx context.Context, q models.TimeRangeQuery) ([]models.Reading, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	readings, err := s.store.Readings(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query readings: %w", err)
	}
	return readings, nil
}

// QueryAnomalies returns the anomalies of q.MeterID within [q.From, q.To],
// oldest first.
func (s *MeterService) QueryAnomalies(ctx context.Context, q models.TimeRangeQuery) ([]models.AnomalyRecord, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	anomalies, err := s.store.Anomalies(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query anomalies: %w", err)
	}
	return anomalies, nil
}

func (s *MeterService) ListMeters(ctx context.Context) ([]string, error) {
	meters, err := s.store.Meters(ctx)
	if err != nil {
		return nil, fmt.Errorf("list meters: %w", err)
	}
	return meters, nil
}
