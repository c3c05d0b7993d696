package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/energy-analytics-service/internal/dashboard"
	"github.com/couchcryptid/energy-analytics-service/internal/domain"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Dashboard is the query and prediction surface served under /api/v1.
type Dashboard interface {
	ReadinessChecker
	Entities() ([]dashboard.Entity, error)
	Years() ([]int, error)
	TopEntities(f domain.Filter, limit int) ([]dashboard.EntityAverage, error)
	Monthly(f domain.Filter) ([]domain.PeriodAverage, error)
	Seasonality(f domain.Filter) ([]domain.MonthAverage, error)
	Scatter(f domain.Filter) ([]domain.ScatterPoint, error)
	Choropleth(f domain.Filter, variable domain.Field) (dashboard.Choropleth, error)
	Summary(f domain.Filter) (dashboard.Summary, error)
	ModelMetrics() (domain.ModelMetrics, error)
	Fit() (domain.FitPairs, error)
	EntityMetrics(f domain.Filter, sort domain.SortState) (dashboard.MetricsTable, error)
	MetricsSchema() (domain.SchemaVersion, error)
	EntitySeries(f domain.Filter) (domain.EntitySeries, error)
	PredictionDefaults() (dashboard.PredictionDefaults, error)
	Predict(ctx context.Context, in domain.PredictionInput) (domain.PredictionRecord, error)
	History() []domain.PredictionRecord
}

// Server exposes the dashboard API plus health, readiness, and metrics
// endpoints.
type Server struct {
	httpServer *http.Server
	dash       Dashboard
	validate   *validator.Validate
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and the
// /api/v1 dashboard routes.
func NewServer(addr string, dash Dashboard, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		dash:     dash,
		validate: newValidator(),
		logger:   logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(dash))
	mux.Handle("GET /metrics", promhttp.Handler())
	s.registerAPI(mux)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // headers are already sent
}
