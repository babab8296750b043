// Package http exposes the JSON API: plan imports, performance reports and
// per-user credit listings.
package http

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"lendbook/internal/core"
	applog "lendbook/internal/log"
	"lendbook/internal/report"
)

// PlanImporter ingests uploaded workbook bytes.
type PlanImporter interface {
	ImportWorkbook(ctx context.Context, data []byte) (string, error)
}

// PerformanceReporter serves the year and point-in-time reports.
type PerformanceReporter interface {
	YearPerformance(ctx context.Context, year int) ([]report.MonthPerformance, error)
	PlansPerformance(ctx context.Context, asOf time.Time) ([]report.PlanPerformance, error)
}

// CreditReporter serves per-user credit listings.
type CreditReporter interface {
	UserCredits(ctx context.Context, userID int64) ([]report.CreditItem, error)
}

type Server struct {
	http.Server
	importer    PlanImporter
	performance PerformanceReporter
	credits     CreditReporter
	apiKey      string
}

// NewServer configures routes, returning a ready-to-run http.Server. An
// empty apiKey disables authentication.
func NewServer(addr, apiKey string, importer PlanImporter, performance PerformanceReporter, credits CreditReporter) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:           addr,
			Handler:        mux,
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   30 * time.Second,
			IdleTimeout:    60 * time.Second,
			MaxHeaderBytes: 1 << 16, // 64KB
		},
		importer:    importer,
		performance: performance,
		credits:     credits,
		apiKey:      apiKey,
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("POST /api/plans_insert", s.withAPI(s.handlePlansInsert))
	mux.HandleFunc("GET /api/year_performance/{year}", s.withAPI(s.handleYearPerformance))
	mux.HandleFunc("GET /api/plans_performance", s.withAPI(s.handlePlansPerformance))
	mux.HandleFunc("GET /api/user_credits/{user_id}", s.withAPI(s.handleUserCredits))

	return s
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// withAPI wraps API handlers with request logging and the optional key check.
func (s *Server) withAPI(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := generateRequestID()

		if s.apiKey != "" {
			provided := r.Header.Get("X-API-Key")
			if subtle.ConstantTimeCompare([]byte(provided), []byte(s.apiKey)) != 1 {
				writeJSON(w, http.StatusUnauthorized, errorBody{Detail: "Invalid API key"})
				return
			}
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)

		slog.InfoContext(r.Context(), "Request completed",
			applog.FieldComponent, applog.ComponentHTTP,
			applog.FieldRequestID, requestID,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldStatusCode, rec.status,
			applog.FieldDuration, time.Since(start).Milliseconds())
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

type errorBody struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode response", applog.FieldError, err)
	}
}

// writeError maps domain errors to HTTP statuses: rejected input is 400,
// missing entities 404, everything else 500 with a generic body.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var setupErr *core.SetupError
	switch {
	case core.IsValidation(err), errors.As(err, &setupErr):
		writeJSON(w, http.StatusBadRequest, errorBody{Detail: err.Error()})
	case errors.Is(err, core.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Detail: err.Error()})
	default:
		slog.ErrorContext(r.Context(), "Request failed", applog.FieldPath, r.URL.Path, applog.FieldError, err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Detail: "internal server error"})
	}
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}
