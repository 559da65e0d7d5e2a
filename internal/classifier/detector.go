//go:generate go run github.com/golang/mock/mockgen -destination=./mocks/predictor.go -package=mocks . Predictor

// Package classifier turns readings into anomaly records.
//
// A Detector combines a local rule with the verdict of a remote prediction
// model reached through Client:
//   - a reading with a kWh value <= 0 is always an anomaly
//   - the remote model is consulted for every classifiable reading and may
//     flag it as well
//
// Both rules can fire for the same reading, which yields two records.
package classifier

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/tejusbharadwaj/meterwatch/internal/models"
)

// Labels the remote model uses for an anomalous reading. Matching is exact
// and case sensitive.
const (
	LabelAnomaly   = "anomaly"
	LabelAnomalous = "anomalous"
)

// Predictor is the remote half of the classification.
type Predictor interface {
	// Predict returns the model's verdict for r, or an error wrapping
	// models.ErrClassifierUnavailable when no verdict could be obtained.
	Predict(ctx context.Context, r models.Reading) (models.Verdict, error)
}

// Detector classifies readings. It keeps no state between calls and is safe
// for concurrent use.
type Detector struct {
	predictor Predictor
	logger    *logrus.Logger
}

func NewDetector(predictor Predictor, logger *logrus.Logger) *Detector {
	return &Detector{predictor: predictor, logger: logger}
}

// Consume classifies r and returns zero, one or two anomaly records.
//
// A reading without a timestamp is ignored. If the remote model cannot be
// reached the whole classification fails, including any record the local
// rule already produced.
func (d *Detector) Consume(ctx context.Context, r models.Reading) ([]models.AnomalyRecord, error) {
	if r.Timestamp == nil {
		return []models.AnomalyRecord{}, nil
	}

	anomalies := []models.AnomalyRecord{}
	if r.EnergyKWh != nil && *r.EnergyKWh <= 0 {
		anomalies = append(anomalies, models.AnomalyFrom(r))
		anomaliesDetected.WithLabelValues("local").Inc()
	}

	verdict, err := d.predictor.Predict(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("classify reading of meter %s: %w", r.MeterID, err)
	}

	log := d.logger.WithField("meter_id", r.MeterID)
	if !verdict.Success {
		log.Error("Anomaly detection unsuccessful")
		return anomalies, nil
	}

	log.WithField("label", verdict.Label).Info("Prediction response")
	if verdict.Label == LabelAnomaly || verdict.Label == LabelAnomalous {
		log.Info("Anomaly detected")
		anomalies = append(anomalies, models.AnomalyFrom(r))
		anomaliesDetected.WithLabelValues("remote").Inc()
	} else {
		log.Debug("No anomaly detected")
	}
	return anomalies, nil
}
