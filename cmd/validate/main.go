// Command validate checks a directory of dashboard assets for integrity
// before they are served: every file parses, dataset periods are unique,
// entities line up across the dataset, metrics table and map, and the
// results and metrics tables share a schema.
//
// Usage:
//
//	go run ./cmd/validate -data-dir data -train-test data_train_test.json
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/couchcryptid/energy-analytics-service/internal/adapter/assets"
	"github.com/couchcryptid/energy-analytics-service/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	dataDir := flag.String("data-dir", "data", "directory containing the asset files")
	dataset := flag.String("dataset", "df_dataset_unidos5.csv", "dataset CSV")
	modelMetrics := flag.String("model-metrics", "metricas_modelo.json", "model metrics JSON")
	results := flag.String("results", "resultado_modelo.csv", "per-time-step results CSV")
	entityMetrics := flag.String("entity-metrics", "metrics_by_company.csv", "per-entity metrics CSV")
	trainTest := flag.String("train-test", "", "train/test arrays JSON (optional)")
	geo := flag.String("geo", "mapa.json", "GeoJSON map")
	flag.Parse()

	join := func(name string) string {
		if name == "" || filepath.IsAbs(name) {
			return name
		}
		return filepath.Join(*dataDir, name)
	}
	paths := assets.Paths{
		Dataset:       join(*dataset),
		ModelMetrics:  join(*modelMetrics),
		Results:       join(*results),
		EntityMetrics: join(*entityMetrics),
		TrainTest:     join(*trainTest),
		Geo:           join(*geo),
	}

	if code := run(paths, os.Stdout); code != 0 {
		os.Exit(code)
	}
}

func run(paths assets.Paths, out io.Writer) int {
	fmt.Fprintln(out, "=== Energy Dashboard Asset Validation ===")
	fmt.Fprintln(out)

	a, parsing := parseAssets(paths)
	phases := []*phase{parsing}
	if parsing.passed() {
		phases = append(phases,
			validateDataset(a.Rows),
			validateEntityCoverage(a),
			validateSchemas(a),
			validateFitData(a.Fit),
		)
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-42s %s\n", p.name, status)
	}

	if parsing.passed() {
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Records: %d dataset rows, %d results (%s), %d entity metrics (%s), %d map features\n",
			len(a.Rows), a.Results.Len(), a.Results.Version, len(a.EntityMetrics), a.EntityMetricsVersion, len(a.Features))
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(out, "\nValidation FAILED.")
	return 1
}

// ── Parsing ──

// parseAssets parses each file on its own so every broken file is reported,
// not just the first.
func parseAssets(paths assets.Paths) (*domain.Assets, *phase) {
	p := &phase{name: "Asset parsing"}
	var a domain.Assets

	parse := func(label, path string, fn func(io.Reader) error) {
		f, err := os.Open(path)
		if err != nil {
			p.errorf("%s: %v", label, err)
			return
		}
		defer f.Close()
		if err := fn(f); err != nil {
			p.errorf("%s: %v", label, err)
		}
	}

	parse("dataset", paths.Dataset, func(r io.Reader) (err error) {
		a.Rows, err = assets.ParseDataset(r)
		return err
	})
	parse("model metrics", paths.ModelMetrics, func(r io.Reader) (err error) {
		a.Model, err = assets.ParseModelMetrics(r)
		return err
	})
	parse("results", paths.Results, func(r io.Reader) (err error) {
		a.Results, err = assets.ParseResults(r)
		return err
	})
	parse("entity metrics", paths.EntityMetrics, func(r io.Reader) (err error) {
		a.EntityMetrics, a.EntityMetricsVersion, err = assets.ParseEntityMetrics(r)
		return err
	})
	parse("map", paths.Geo, func(r io.Reader) (err error) {
		a.Features, err = assets.ParseGeo(r)
		return err
	})
	if paths.TrainTest != "" {
		parse("train/test", paths.TrainTest, func(r io.Reader) (err error) {
			a.Fit, err = assets.ParseFitData(r)
			return err
		})
	}

	if len(a.Rows) == 0 && p.passed() {
		p.errorf("dataset: no rows")
	}
	return &a, p
}

// ── Dataset ──

type periodKey struct {
	entity, year, month int
}

func validateDataset(rows []domain.Row) *phase {
	p := &phase{name: "Dataset integrity"}

	seen := make(map[periodKey]int, len(rows))
	for i, r := range rows {
		k := periodKey{r.EntityID, r.Year, r.Month}
		if first, ok := seen[k]; ok {
			p.errorf("row %d duplicates row %d: entity %d %s", i+1, first+1, r.EntityID, domain.PeriodKey(r.Year, r.Month))
			continue
		}
		seen[k] = i
	}

	for _, id := range domain.DistinctEntities(rows) {
		f := domain.Filter{}.ForEntity(id)
		if len(domain.EntityAverages(domain.FilterRows(rows, f), domain.FieldEnergy)) == 0 {
			p.errorf("entity %d has no energy values", id)
		}
	}
	return p
}

// ── Cross-file coverage ──

func validateEntityCoverage(a *domain.Assets) *phase {
	p := &phase{name: "Entity coverage"}
	dataset := domain.DistinctEntities(a.Rows)

	metricIDs := make([]int, 0, len(a.EntityMetrics))
	for _, m := range a.EntityMetrics {
		if slices.Contains(metricIDs, m.EntityID) {
			p.errorf("entity metrics: entity %d listed more than once", m.EntityID)
		}
		metricIDs = append(metricIDs, m.EntityID)
	}
	featureIDs := make([]int, 0, len(a.Features))
	for _, f := range a.Features {
		featureIDs = append(featureIDs, f.EntityID)
	}

	for _, id := range dataset {
		if !slices.Contains(metricIDs, id) {
			p.errorf("entity %d has no entity metrics row", id)
		}
		if !slices.Contains(featureIDs, id) {
			p.errorf("entity %d has no map feature", id)
		}
	}
	for _, id := range metricIDs {
		if !dataset.Contains(id) {
			p.errorf("entity metrics: entity %d not in dataset", id)
		}
	}

	var unknown []int
	for _, pt := range a.Results.Points() {
		if !dataset.Contains(pt.EntityID) && !slices.Contains(unknown, pt.EntityID) {
			unknown = append(unknown, pt.EntityID)
		}
	}
	for _, id := range unknown {
		p.errorf("results: entity %d not in dataset", id)
	}
	return p
}

// ── Schemas ──

func validateSchemas(a *domain.Assets) *phase {
	p := &phase{name: "Schema consistency"}
	if a.Results.Version != a.EntityMetricsVersion {
		p.errorf("results table is %s but entity metrics table is %s", a.Results.Version, a.EntityMetricsVersion)
	}
	if a.Results.Len() == 0 {
		p.errorf("results table is empty")
	}
	for _, m := range a.EntityMetrics {
		if a.EntityMetricsVersion == domain.SchemaV1 && !m.HasR2 {
			p.errorf("entity %d: v1 metrics row without R2", m.EntityID)
		}
		if m.Points < 0 {
			p.errorf("entity %d: negative point count %d", m.EntityID, m.Points)
		}
	}
	return p
}

// ── Fit data ──

func validateFitData(fit *domain.FitData) *phase {
	p := &phase{name: "Model fit data"}
	if fit == nil {
		return p
	}
	if len(fit.TrainActual) != len(fit.TrainPredicted) {
		p.errorf("train split: %d actual vs %d predicted values", len(fit.TrainActual), len(fit.TrainPredicted))
	}
	if len(fit.TestActual) != len(fit.TestPredicted) {
		p.errorf("test split: %d actual vs %d predicted values", len(fit.TestActual), len(fit.TestPredicted))
	}
	if len(fit.TrainActual)+len(fit.TestActual) == 0 {
		p.errorf("no fit values")
	}
	return p
}
