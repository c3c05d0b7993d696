package assets

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/couchcryptid/energy-analytics-service/internal/config"
	"github.com/couchcryptid/energy-analytics-service/internal/domain"
	"golang.org/x/sync/errgroup"
)

// Paths locates the asset files. TrainTest is optional.
type Paths struct {
	Dataset       string
	ModelMetrics  string
	Results       string
	EntityMetrics string
	TrainTest     string
	Geo           string
}

// PathsFromConfig resolves the configured asset names against DATA_DIR.
func PathsFromConfig(cfg *config.Config) Paths {
	return Paths{
		Dataset:       cfg.AssetPath(cfg.DatasetFile),
		ModelMetrics:  cfg.AssetPath(cfg.ModelMetricsFile),
		Results:       cfg.AssetPath(cfg.ResultsFile),
		EntityMetrics: cfg.AssetPath(cfg.EntityMetricsFile),
		TrainTest:     cfg.AssetPath(cfg.TrainTestFile),
		Geo:           cfg.AssetPath(cfg.GeoFile),
	}
}

// Loader reads every asset from the filesystem.
type Loader struct {
	paths  Paths
	logger *slog.Logger
}

// NewLoader creates a filesystem asset loader.
func NewLoader(paths Paths, logger *slog.Logger) *Loader {
	return &Loader{paths: paths, logger: logger}
}

// Load reads and parses all assets concurrently. Any failure fails the whole
// load; no partial snapshot is returned.
func (l *Loader) Load(ctx context.Context) (*domain.Assets, error) {
	var a domain.Assets
	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		return readFile(egCtx, l.paths.Dataset, func(r io.Reader) (err error) {
			a.Rows, err = ParseDataset(r)
			return err
		})
	})
	eg.Go(func() error {
		return readFile(egCtx, l.paths.ModelMetrics, func(r io.Reader) (err error) {
			a.Model, err = ParseModelMetrics(r)
			return err
		})
	})
	eg.Go(func() error {
		return readFile(egCtx, l.paths.Results, func(r io.Reader) (err error) {
			a.Results, err = ParseResults(r)
			return err
		})
	})
	eg.Go(func() error {
		return readFile(egCtx, l.paths.EntityMetrics, func(r io.Reader) (err error) {
			a.EntityMetrics, a.EntityMetricsVersion, err = ParseEntityMetrics(r)
			return err
		})
	})
	eg.Go(func() error {
		return readFile(egCtx, l.paths.Geo, func(r io.Reader) (err error) {
			a.Features, err = ParseGeo(r)
			return err
		})
	})
	if l.paths.TrainTest != "" {
		eg.Go(func() error {
			return readFile(egCtx, l.paths.TrainTest, func(r io.Reader) (err error) {
				a.Fit, err = ParseFitData(r)
				return err
			})
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	l.logger.Info("assets loaded",
		"rows", len(a.Rows),
		"features", len(a.Features),
		"results", a.Results.Len(),
		"results_schema", a.Results.Version.String(),
		"entity_metrics", len(a.EntityMetrics),
		"entity_metrics_schema", a.EntityMetricsVersion.String(),
		"fit", a.Fit != nil,
	)
	return &a, nil
}

func readFile(ctx context.Context, path string, parse func(io.Reader) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open asset: %w", err)
	}
	defer f.Close()

	if err := parse(f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
