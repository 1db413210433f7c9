// Package httpapi exposes the report workflow over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReportService generates a report for one user query.
type ReportService interface {
	GenerateReport(ctx context.Context, userID, query string) (string, error)
}

// HealthChecker reports readiness of a backing dependency.
type HealthChecker func(ctx context.Context) error

// Handlers carries the dependencies of the HTTP surface.
type Handlers struct {
	Reports ReportService
	Logger  *slog.Logger

	// Checks maps a dependency name to its readiness probe. All must pass
	// for /healthz to report ok.
	Checks map[string]HealthChecker

	// Registry serves /metrics. Nil selects the default registerer.
	Registry *prometheus.Registry
}

type reportRequest struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

type reportResponse struct {
	Answer string `json:"answer"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewRouter assembles the chi router for the service.
func NewRouter(h *Handlers) chi.Router {
	if h.Logger == nil {
		h.Logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Post("/api/report", h.handleReport)
	r.Get("/healthz", h.handleHealth)

	if h.Registry != nil {
		r.Get("/metrics", promhttp.HandlerFor(h.Registry, promhttp.HandlerOpts{}).ServeHTTP)
	} else {
		r.Get("/metrics", promhttp.Handler().ServeHTTP)
	}

	return r
}

func (h *Handlers) handleReport(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "user_id is required"})
		return
	}

	started := time.Now()
	answer, err := h.Reports.GenerateReport(r.Context(), req.UserID, req.Message)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			writeJSON(w, http.StatusGatewayTimeout, errorResponse{Error: "report generation timed out"})
			return
		}
		h.Logger.Error("report request failed", "user_id", req.UserID, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "report generation failed"})
		return
	}

	h.Logger.Info("report served",
		"user_id", req.UserID,
		"duration_ms", time.Since(started).Milliseconds(),
	)
	writeJSON(w, http.StatusOK, reportResponse{Answer: answer})
}

func (h *Handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok"}
	code := http.StatusOK

	for name, check := range h.Checks {
		if err := check(r.Context()); err != nil {
			status[name] = err.Error()
			status["status"] = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		status[name] = "ok"
	}
	writeJSON(w, code, status)
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
