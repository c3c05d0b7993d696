package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/couchcryptid/energy-analytics-service/internal/adapter/predictor"
	"github.com/couchcryptid/energy-analytics-service/internal/adapter/report"
	"github.com/couchcryptid/energy-analytics-service/internal/dashboard"
	"github.com/couchcryptid/energy-analytics-service/internal/domain"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypePNG  = "image/png"
)

func (s *Server) registerAPI(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/entities", s.handleEntities)
	mux.HandleFunc("GET /api/v1/years", s.handleYears)
	mux.HandleFunc("GET /api/v1/consumption/by-entity", s.handleTopEntities)
	mux.HandleFunc("GET /api/v1/consumption/monthly", filtered(s, s.dash.Monthly))
	mux.HandleFunc("GET /api/v1/consumption/seasonality", filtered(s, s.dash.Seasonality))
	mux.HandleFunc("GET /api/v1/consumption/scatter", filtered(s, s.dash.Scatter))
	mux.HandleFunc("GET /api/v1/choropleth", s.handleChoropleth)
	mux.HandleFunc("GET /api/v1/summary", filtered(s, s.dash.Summary))
	mux.HandleFunc("GET /api/v1/model/metrics", s.handleModelMetrics)
	mux.HandleFunc("GET /api/v1/model/fit", s.handleFit)
	mux.HandleFunc("GET /api/v1/model/entities", s.handleEntityMetrics)
	mux.HandleFunc("GET /api/v1/model/entities.xlsx", s.handleEntityMetricsXLSX)
	mux.HandleFunc("GET /api/v1/model/series", filtered(s, s.dash.EntitySeries))
	mux.HandleFunc("GET /api/v1/charts/monthly.png", s.handleMonthlyChart)
	mux.HandleFunc("GET /api/v1/charts/fit.png", s.handleFitChart)
	mux.HandleFunc("GET /api/v1/charts/series.png", s.handleSeriesChart)
	mux.HandleFunc("GET /api/v1/predictions/defaults", s.handlePredictionDefaults)
	mux.HandleFunc("POST /api/v1/predictions", s.handlePredict)
	mux.HandleFunc("GET /api/v1/predictions/history", s.handleHistory)
}

// filtered adapts a filter-only view to a handler.
func filtered[T any](s *Server, fn func(domain.Filter) (T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := s.parseFilter(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		v, err := fn(f)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

func (s *Server) handleEntities(w http.ResponseWriter, r *http.Request) {
	v, err := s.dash.Entities()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleYears(w http.ResponseWriter, r *http.Request) {
	v, err := s.dash.Years()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleTopEntities(w http.ResponseWriter, r *http.Request) {
	f, err := s.parseFilter(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	limit, err := s.parseLimit(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	v, err := s.dash.TopEntities(f, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleChoropleth(w http.ResponseWriter, r *http.Request) {
	f, err := s.parseFilter(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	variable, err := s.parseVariable(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	v, err := s.dash.Choropleth(f, variable)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleModelMetrics(w http.ResponseWriter, r *http.Request) {
	v, err := s.dash.ModelMetrics()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleFit(w http.ResponseWriter, r *http.Request) {
	v, err := s.dash.Fit()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) metricsTable(r *http.Request) (dashboard.MetricsTable, error) {
	f, err := s.parseFilter(r)
	if err != nil {
		return dashboard.MetricsTable{}, err
	}
	sort, err := s.parseSort(r)
	if err != nil {
		return dashboard.MetricsTable{}, err
	}
	return s.dash.EntityMetrics(f, sort)
}

func (s *Server) handleEntityMetrics(w http.ResponseWriter, r *http.Request) {
	t, err := s.metricsTable(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleEntityMetricsXLSX(w http.ResponseWriter, r *http.Request) {
	t, err := s.metricsTable(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	version, err := s.dash.MetricsSchema()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data, err := report.MetricsWorkbook(t.Rows, version)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="entity-metrics.xlsx"`)
	writeBytes(w, contentTypeXLSX, data)
}

func (s *Server) handleMonthlyChart(w http.ResponseWriter, r *http.Request) {
	f, err := s.parseFilter(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	series, err := s.dash.Monthly(f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeChart(w, r, func() ([]byte, error) { return report.MonthlyChartPNG(series) })
}

func (s *Server) handleFitChart(w http.ResponseWriter, r *http.Request) {
	pairs, err := s.dash.Fit()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeChart(w, r, func() ([]byte, error) { return report.FitChartPNG(pairs) })
}

func (s *Server) handleSeriesChart(w http.ResponseWriter, r *http.Request) {
	f, err := s.parseFilter(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	series, err := s.dash.EntitySeries(f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeChart(w, r, func() ([]byte, error) { return report.SeriesChartPNG(series) })
}

func (s *Server) writeChart(w http.ResponseWriter, r *http.Request, render func() ([]byte, error)) {
	data, err := render()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeBytes(w, contentTypePNG, data)
}

func (s *Server) handlePredictionDefaults(w http.ResponseWriter, r *http.Request) {
	v, err := s.dash.PredictionDefaults()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req predictionRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, r, errors.Join(errBadRequest, err))
		return
	}
	if err := s.check(req); err != nil {
		s.writeError(w, r, err)
		return
	}

	rec, err := s.dash.Predict(r.Context(), req.input())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleHistory(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.dash.History())
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// writeError maps service errors to status codes.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ve *domain.ValidationError
		fe *fieldError
	)
	status := http.StatusInternalServerError
	body := errorResponse{Error: err.Error()}

	switch {
	case errors.As(err, &ve):
		status, body.Field = http.StatusUnprocessableEntity, ve.Field
	case errors.As(err, &fe):
		status, body.Field = http.StatusUnprocessableEntity, fe.Field
	case errors.Is(err, errBadRequest),
		errors.Is(err, domain.ErrUnknownVariable):
		status = http.StatusBadRequest
	case errors.Is(err, dashboard.ErrNotLoaded),
		errors.Is(err, dashboard.ErrPredictionDisabled):
		status = http.StatusServiceUnavailable
	case errors.Is(err, predictor.ErrPredictionFailed):
		status = http.StatusBadGateway
	case errors.Is(err, dashboard.ErrNoFitData),
		errors.Is(err, dashboard.ErrNoSeries),
		errors.Is(err, report.ErrEmptySeries):
		status = http.StatusNotFound
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSON(w, status, body)
}

func writeBytes(w http.ResponseWriter, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	w.Write(data) //nolint:errcheck // headers are already sent
}
