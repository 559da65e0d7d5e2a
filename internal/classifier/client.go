package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tejusbharadwaj/meterwatch/internal/models"
)

const (
	// DefaultBaseURL is where the prediction model listens by default.
	DefaultBaseURL = "http://localhost:5000"

	predictPath    = "/predict"
	defaultTimeout = 5 * time.Second
)

// predictRequest is the payload the prediction model expects.
type predictRequest struct {
	MeterID   string     `json:"meterId"`
	Timestamp *time.Time `json:"timestamp"`
	KWh       *float64   `json:"kWh"`
}

// Client calls the remote prediction service. It performs exactly one
// request per call and never retries.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient creates a client for the model at baseURL. A zero timeout
// selects the default of five seconds.
func NewClient(baseURL string, timeout time.Duration, logger *logrus.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Predict asks the model for a verdict on r.
//
// Any transport failure, non-2xx status or undecodable body is reported as
// models.ErrClassifierUnavailable; it is never turned into a verdict.
func (c *Client) Predict(ctx context.Context, r models.Reading) (models.Verdict, error) {
	start := time.Now()
	v, err := c.predict(ctx, r)
	outcome := "ok"
	if err != nil {
		outcome = "unavailable"
	}
	predictDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	return v, err
}

func (c *Client) predict(ctx context.Context, r models.Reading) (models.Verdict, error) {
	body, err := json.Marshal(predictRequest{
		MeterID:   r.MeterID,
		Timestamp: r.Timestamp,
		KWh:       r.EnergyKWh,
	})
	if err != nil {
		return models.Verdict{}, fmt.Errorf("%w: encode request: %v", models.ErrClassifierUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+predictPath, bytes.NewReader(body))
	if err != nil {
		return models.Verdict{}, fmt.Errorf("%w: %v", models.ErrClassifierUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.Verdict{}, fmt.Errorf("%w: %v", models.ErrClassifierUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, resp.Body)
		return models.Verdict{}, fmt.Errorf("%w: got %d", models.ErrClassifierUnavailable, resp.StatusCode)
	}

	var v models.Verdict
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		return models.Verdict{}, fmt.Errorf("%w: decode response: %v", models.ErrClassifierUnavailable, err)
	}

	c.logger.WithFields(logrus.Fields{
		"meter_id": r.MeterID,
		"success":  v.Success,
		"label":    v.Label,
	}).Debug("Prediction response")
	return v, nil
}
