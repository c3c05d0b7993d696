package dashboard

import (
	"strconv"
	"time"

	"github.com/couchcryptid/energy-analytics-service/internal/domain"
)

// Entity is an available entity with its display name.
type Entity struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Entities lists the entities present in the dataset, ascending by id.
func (s *Service) Entities() ([]Entity, error) {
	snap, err := s.current()
	if err != nil {
		return nil, err
	}
	return view(s, snap, "entities", "", func() []Entity {
		out := make([]Entity, len(snap.entities))
		for i, id := range snap.entities {
			out[i] = Entity{ID: id, Name: snap.directory.Name(id)}
		}
		return out
	}), nil
}

// Years lists the years present in the dataset, ascending.
func (s *Service) Years() ([]int, error) {
	snap, err := s.current()
	if err != nil {
		return nil, err
	}
	return snap.years, nil
}

// EntityAverage is one bar of the consumption ranking.
type EntityAverage struct {
	EntityID int     `json:"entity_id"`
	Name     string  `json:"name"`
	Average  float64 `json:"average"`
	Count    int     `json:"count"`
}

// TopEntities ranks entities by mean billed energy over the filtered rows.
// A non-positive limit returns every entity.
func (s *Service) TopEntities(f domain.Filter, limit int) ([]EntityAverage, error) {
	snap, err := s.current()
	if err != nil {
		return nil, err
	}
	return view(s, snap, "top_entities", f.Key()+"|limit="+strconv.Itoa(limit), func() []EntityAverage {
		groups := domain.TopEntities(s.filtered(snap, f), limit)
		out := make([]EntityAverage, len(groups))
		for i, g := range groups {
			out[i] = EntityAverage{EntityID: g.Key, Name: snap.directory.Name(g.Key), Average: g.Average, Count: g.Count}
		}
		return out
	}), nil
}

// Monthly returns the monthly average series over the filtered rows.
func (s *Service) Monthly(f domain.Filter) ([]domain.PeriodAverage, error) {
	snap, err := s.current()
	if err != nil {
		return nil, err
	}
	return view(s, snap, "monthly", f.Key(), func() []domain.PeriodAverage {
		return domain.MonthlySeries(s.filtered(snap, f))
	}), nil
}

// Seasonality returns the average by calendar month over the filtered rows.
func (s *Service) Seasonality(f domain.Filter) ([]domain.MonthAverage, error) {
	snap, err := s.current()
	if err != nil {
		return nil, err
	}
	return view(s, snap, "seasonality", f.Key(), func() []domain.MonthAverage {
		return domain.Seasonality(s.filtered(snap, f))
	}), nil
}

// Scatter returns temperature against energy for the filtered rows.
func (s *Service) Scatter(f domain.Filter) ([]domain.ScatterPoint, error) {
	snap, err := s.current()
	if err != nil {
		return nil, err
	}
	return view(s, snap, "scatter", f.Key(), func() []domain.ScatterPoint {
		return domain.TemperatureScatter(s.filtered(snap, f))
	}), nil
}

// Choropleth is a joined map layer. Highlight carries the filter's entity.
type Choropleth struct {
	Variable  string `json:"variable"`
	Highlight *int   `json:"highlight"`
	domain.ChoroplethJoin
}

// Choropleth joins the per-entity average of variable onto the map features.
// The join always covers the full dataset; the filter only selects the
// highlighted entity.
func (s *Service) Choropleth(f domain.Filter, variable domain.Field) (Choropleth, error) {
	snap, err := s.current()
	if err != nil {
		return Choropleth{}, err
	}
	join := view(s, snap, "choropleth", variable.String(), func() domain.ChoroplethJoin {
		return domain.JoinChoropleth(snap.assets.Rows, snap.assets.Features, variable)
	})
	return Choropleth{Variable: variable.String(), Highlight: f.EntityID, ChoroplethJoin: join}, nil
}

// Summary describes the filtered rows.
type Summary struct {
	domain.DatasetSummary
	LoadedAt time.Time `json:"loaded_at"`
}

// Summary returns descriptive statistics of the filtered rows.
func (s *Service) Summary(f domain.Filter) (Summary, error) {
	snap, err := s.current()
	if err != nil {
		return Summary{}, err
	}
	sum := view(s, snap, "summary", f.Key(), func() domain.DatasetSummary {
		return domain.Summarize(s.filtered(snap, f))
	})
	return Summary{DatasetSummary: sum, LoadedAt: snap.loadedAt}, nil
}

// ModelMetrics returns the global train/test metrics as loaded.
func (s *Service) ModelMetrics() (domain.ModelMetrics, error) {
	snap, err := s.current()
	if err != nil {
		return domain.ModelMetrics{}, err
	}
	return snap.assets.Model, nil
}

// Fit returns the predicted-vs-actual pairs of both splits.
func (s *Service) Fit() (domain.FitPairs, error) {
	snap, err := s.current()
	if err != nil {
		return domain.FitPairs{}, err
	}
	if snap.assets.Fit == nil {
		return domain.FitPairs{}, ErrNoFitData
	}
	return view(s, snap, "fit", "", snap.assets.Fit.Pairs), nil
}

// MetricsTable is the filtered and sorted per-entity metrics table.
type MetricsTable struct {
	Schema            string                 `json:"schema"`
	Sort              domain.SortState       `json:"sort"`
	Rows              []domain.EntityMetrics `json:"rows"`
	MeanRelativeError *float64               `json:"mean_relative_error"`
}

// EntityMetrics filters the metrics table by entity, then sorts it.
func (s *Service) EntityMetrics(f domain.Filter, sort domain.SortState) (MetricsTable, error) {
	snap, err := s.current()
	if err != nil {
		return MetricsTable{}, err
	}
	key := f.Key() + "|sort=" + string(sort.Column) + "|asc=" + strconv.FormatBool(sort.Ascending)
	return view(s, snap, "entity_metrics", key, func() MetricsTable {
		rows := sort.Apply(domain.FilterMetrics(snap.assets.EntityMetrics, f))
		t := MetricsTable{
			Schema: snap.assets.EntityMetricsVersion.String(),
			Sort:   sort,
			Rows:   rows,
		}
		if mean, ok := domain.MeanRelativeError(rows); ok {
			t.MeanRelativeError = &mean
		}
		return t
	}), nil
}

// MetricsSchema reports which per-entity metrics schema was loaded.
func (s *Service) MetricsSchema() (domain.SchemaVersion, error) {
	snap, err := s.current()
	if err != nil {
		return 0, err
	}
	return snap.assets.EntityMetricsVersion, nil
}

// EntitySeries returns the actual vs predicted series of the filter's
// entity, or of the lowest entity id when the filter has none.
func (s *Service) EntitySeries(f domain.Filter) (domain.EntitySeries, error) {
	snap, err := s.current()
	if err != nil {
		return domain.EntitySeries{}, err
	}
	type result struct {
		series domain.EntitySeries
		ok     bool
	}
	r := view(s, snap, "entity_series", f.Key(), func() result {
		series, ok := domain.SeriesForEntity(snap.assets.Results, f)
		return result{series: series, ok: ok}
	})
	if !r.ok {
		return domain.EntitySeries{}, ErrNoSeries
	}
	return r.series, nil
}

func (s *Service) filtered(snap *snapshot, f domain.Filter) []domain.Row {
	if f.IsAll() {
		return snap.assets.Rows
	}
	return domain.FilterRows(snap.assets.Rows, f)
}
