// Package dashboard serves the derived views of an immutable asset snapshot
// and submits prediction requests to the remote model.
//
// Every view takes its filter explicitly. Computed views are memoised per
// snapshot; callers must treat returned slices as read-only.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/energy-analytics-service/internal/domain"
	"github.com/couchcryptid/energy-analytics-service/internal/observability"
)

var (
	// ErrNotLoaded is returned by every view before the first successful load.
	ErrNotLoaded = errors.New("assets not loaded")
	// ErrPredictionDisabled is returned by Predict when no model endpoint is
	// configured.
	ErrPredictionDisabled = errors.New("prediction disabled")
	// ErrNoFitData is returned when the train/test asset was not loaded.
	ErrNoFitData = errors.New("no train/test data loaded")
	// ErrNoSeries is returned when the results table has no rows.
	ErrNoSeries = errors.New("no result series available")
)

// AssetSource produces a full asset snapshot.
type AssetSource interface {
	Load(ctx context.Context) (*domain.Assets, error)
}

// Predictor scores one validated input with the remote model.
type Predictor interface {
	Predict(ctx context.Context, in domain.PredictionInput) (domain.PredictionResult, error)
}

// Publisher emits completed predictions to downstream consumers.
type Publisher interface {
	PublishPrediction(ctx context.Context, rec domain.PredictionRecord) error
}

// snapshot is one loaded asset set plus indexes derived from it at load time.
type snapshot struct {
	assets    *domain.Assets
	entities  domain.EntityIDs
	years     []int
	directory domain.EntityDirectory
	cache     *viewCache
	loadedAt  time.Time
}

// Service is the dashboard core.
type Service struct {
	snap      atomic.Pointer[snapshot]
	cacheSize int
	predictor Predictor
	publisher Publisher
	history   *history
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// NewService creates a dashboard service. A nil predictor disables
// prediction; a nil publisher disables prediction events.
func NewService(predictor Predictor, publisher Publisher, cacheSize int, metrics *observability.Metrics, logger *slog.Logger) *Service {
	s := &Service{
		cacheSize: cacheSize,
		predictor: predictor,
		publisher: publisher,
		history:   newHistory(historyLimit),
		metrics:   metrics,
		logger:    logger,
	}
	if predictor != nil {
		metrics.PredictionEnabled.Set(1)
	} else {
		metrics.PredictionEnabled.Set(0)
	}
	return s
}

// Load replaces the snapshot with freshly loaded assets. On failure the
// previous snapshot, if any, keeps being served.
func (s *Service) Load(ctx context.Context, src AssetSource) error {
	a, err := src.Load(ctx)
	if err != nil {
		s.metrics.AssetLoads.WithLabelValues("error").Inc()
		return fmt.Errorf("load assets: %w", err)
	}

	snap := &snapshot{
		assets:    a,
		entities:  domain.DistinctEntities(a.Rows),
		years:     domain.DistinctYears(a.Rows),
		directory: domain.NewEntityDirectory(a.EntityMetrics, a.Features),
		cache:     newViewCache(s.cacheSize),
		loadedAt:  domain.Now(),
	}
	s.snap.Store(snap)

	s.metrics.AssetLoads.WithLabelValues("success").Inc()
	s.metrics.AssetsLoaded.Set(1)
	s.metrics.DatasetRows.Set(float64(len(a.Rows)))
	s.logger.Info("snapshot installed",
		"rows", len(a.Rows),
		"entities", len(snap.entities),
		"years", len(snap.years),
	)
	return nil
}

// CheckReadiness reports whether a snapshot is being served.
func (s *Service) CheckReadiness(_ context.Context) error {
	if s.snap.Load() == nil {
		return ErrNotLoaded
	}
	return nil
}

// PredictionEnabled reports whether a model endpoint is configured.
func (s *Service) PredictionEnabled() bool {
	return s.predictor != nil
}

func (s *Service) current() (*snapshot, error) {
	snap := s.snap.Load()
	if snap == nil {
		return nil, ErrNotLoaded
	}
	return snap, nil
}

// view returns the memoised result of compute for key, computing it on a
// miss.
func view[T any](s *Service, snap *snapshot, name, key string, compute func() T) T {
	s.metrics.ViewRequests.WithLabelValues(name).Inc()

	ck := name + "|" + key
	if v, ok := snap.cache.get(ck); ok {
		if t, ok := v.(T); ok {
			s.metrics.ViewCache.WithLabelValues("hit").Inc()
			return t
		}
	}
	s.metrics.ViewCache.WithLabelValues("miss").Inc()

	start := time.Now()
	t := compute()
	s.metrics.ViewDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	snap.cache.put(ck, t)
	return t
}
