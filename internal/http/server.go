// Package httpserver serves the JSON API used by the dashboard under
// /api/v1, plus /healthz and /metrics.
package httpserver

import (
	"context"
	"errors"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/tejusbharadwaj/meterwatch/internal/models"
)

const (
	apiPrefix      = "/api/v1"
	maxBodyBytes   = 1 << 20
	requestTimeout = 10 * time.Second
)

// MeterAPI is the application surface the HTTP API exposes.
type MeterAPI interface {
	SubmitAndClassify(ctx context.Context, r models.Reading) ([]models.AnomalyRecord, error)
	QueryReadings(ctx context.Context, q models.TimeRangeQuery) ([]models.Reading, error)
	QueryAnomalies(ctx context.Context, q models.TimeRangeQuery) ([]models.AnomalyRecord, error)
	ListMeters(ctx context.Context) ([]string, error)
}

type Server struct {
	api    MeterAPI
	mux    *http.ServeMux
	logger *logrus.Logger
}

func New(api MeterAPI, logger *logrus.Logger) *Server {
	s := &Server{
		api:    api,
		mux:    http.NewServeMux(),
		logger: logger,
	}
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	reqID := r.Header.Get("X-Request-Id")
	if reqID == "" {
		reqID = uuid.NewString()
	}

	w.Header().Set("X-Request-Id", reqID)
	setCORSHeaders(w)
	rr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	defer func() {
		if rec := recover(); rec != nil {
			rr.status = http.StatusInternalServerError
			if !rr.wroteHeader {
				writeAPIError(rr, http.StatusInternalServerError, "internal_error", "internal error")
			}
			s.logger.WithFields(logrus.Fields{
				"request_id": reqID,
				"panic":      rec,
				"stack":      string(debug.Stack()),
			}).Error("Panic handling request")
		}

		dur := time.Since(start)
		observeHTTPRequest(r, rr.status, dur)

		// Keep health checks + metrics endpoint quiet.
		if r.URL.Path != "/healthz" && r.URL.Path != "/metrics" {
			s.logger.WithFields(logrus.Fields{
				"request_id": reqID,
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     rr.status,
				"duration":   dur.Truncate(time.Millisecond),
			}).Info("HTTP request")
		}
	}()

	if r.Method == http.MethodOptions && strings.HasPrefix(r.URL.Path, apiPrefix) {
		rr.WriteHeader(http.StatusNoContent)
		return
	}
	s.mux.ServeHTTP(rr, r)
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET "+apiPrefix+"/meters", s.handleMeters)
	s.mux.HandleFunc("POST "+apiPrefix+"/data", s.handleData)
	s.mux.HandleFunc("POST "+apiPrefix+"/anomalies", s.handleAnomalies)
	s.mux.HandleFunc("POST "+apiPrefix+"/simulate", s.handleSimulate)
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
	s.mux.Handle("GET /metrics", promhttp.Handler())
	s.mux.HandleFunc("/", s.handleNotFound)
}

func setCORSHeaders(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type, X-Request-Id")
}

func (s *Server) handleMeters(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	meters, err := s.api.ListMeters(ctx)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if meters == nil {
		meters = []string{}
	}
	_ = writeJSON(w, http.StatusOK, meters)
}

func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	var q dataQueryJSON
	if !decodeBody(w, r, &q) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	readings, err := s.api.QueryReadings(ctx, q.toQuery())
	if err != nil {
		s.writeError(w, err)
		return
	}

	out := make([]meterDocumentJSON, 0, len(readings))
	for _, rd := range readings {
		out = append(out, meterDocumentJSON{
			MeterID:   rd.MeterID,
			Timestamp: formatTime(*rd.Timestamp),
			KWh:       rd.EnergyKWh,
		})
	}
	_ = writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAnomalies(w http.ResponseWriter, r *http.Request) {
	var q dataQueryJSON
	if !decodeBody(w, r, &q) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	anomalies, err := s.api.QueryAnomalies(ctx, q.toQuery())
	if err != nil {
		s.writeError(w, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, toAnomalyJSON(anomalies))
}

// handleSimulate classifies and stores a single uplink event synchronously
// and returns the anomalies it produced.
func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var ev uplinkEventJSON
	if !decodeBody(w, r, &ev) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	anomalies, err := s.api.SubmitAndClassify(ctx, models.Reading{
		MeterID:   ev.MeterID,
		Timestamp: ev.Timestamp,
		EnergyKWh: ev.KWh,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, toAnomalyJSON(anomalies))
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api") {
		writeAPIError(w, http.StatusNotFound, "not_found", "not found")
		return
	}
	http.NotFound(w, r)
}

// writeError maps application errors onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidReading), errors.Is(err, models.ErrInvalidTimeRange):
		writeAPIError(w, http.StatusBadRequest, "invalid_argument", err.Error())
	case errors.Is(err, models.ErrClassifierUnavailable):
		writeAPIError(w, http.StatusServiceUnavailable, "classifier_unavailable", "classifier unavailable")
	case errors.Is(err, context.DeadlineExceeded):
		writeAPIError(w, http.StatusGatewayTimeout, "timeout", "request timed out")
	default:
		s.logger.WithError(err).WithField("request_id", w.Header().Get("X-Request-Id")).Error("Request failed")
		writeAPIError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := decodeJSON(r.Body, v); err != nil {
		writeAPIError(w, http.StatusBadRequest, "invalid_argument", "invalid request body")
		return false
	}
	return true
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.wroteHeader = true
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(p []byte) (int, error) {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}
	return r.ResponseWriter.Write(p)
}

func writeAPIError(w http.ResponseWriter, status int, code, message string) {
	reqID := w.Header().Get("X-Request-Id")
	_ = writeJSON(w, status, apiErrorJSON{
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}
