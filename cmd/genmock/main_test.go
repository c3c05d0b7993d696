package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/energy-analytics-service/internal/adapter/assets"
	"github.com/couchcryptid/energy-analytics-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOptions(schema string) options {
	return options{entities: 4, startYear: 2020, endYear: 2021, seed: 7, schema: schema, missingEvery: 10}
}

func writeFiles(t *testing.T, files map[string][]byte) assets.Paths {
	t.Helper()
	dir := t.TempDir()
	for name, data := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
	}
	return assets.Paths{
		Dataset:       filepath.Join(dir, datasetFile),
		ModelMetrics:  filepath.Join(dir, modelMetricsFile),
		Results:       filepath.Join(dir, resultsFile),
		EntityMetrics: filepath.Join(dir, entityMetricsFile),
		TrainTest:     filepath.Join(dir, trainTestFile),
		Geo:           filepath.Join(dir, geoFile),
	}
}

func TestGenerate_LoadsCleanly(t *testing.T) {
	for _, tc := range []struct {
		schema string
		want   domain.SchemaVersion
	}{
		{"v1", domain.SchemaV1},
		{"v2", domain.SchemaV2},
	} {
		t.Run(tc.schema, func(t *testing.T) {
			files, err := generate(testOptions(tc.schema))
			require.NoError(t, err)
			require.Len(t, files, 6)

			loader := assets.NewLoader(writeFiles(t, files), slog.New(slog.NewTextHandler(io.Discard, nil)))
			a, err := loader.Load(context.Background())
			require.NoError(t, err)

			assert.Len(t, a.Rows, 4*2*12)
			assert.Len(t, a.Features, 4)
			assert.Len(t, a.EntityMetrics, 4)
			assert.Equal(t, tc.want, a.Results.Version)
			assert.Equal(t, tc.want, a.EntityMetricsVersion)
			assert.Equal(t, 4*2*12, a.Results.Len())

			require.NotNil(t, a.Fit)
			assert.Len(t, a.Fit.TrainActual, len(a.Fit.TrainPredicted))
			assert.Len(t, a.Fit.TestActual, 96/5)

			missing := 0
			for _, r := range a.Rows {
				if r.Missing != 0 {
					missing++
				}
			}
			assert.Equal(t, 96/10, missing)

			for _, f := range a.Features {
				assert.Contains(t, domain.DistinctEntities(a.Rows), f.EntityID)
			}
		})
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	a, err := generate(testOptions("v1"))
	require.NoError(t, err)
	b, err := generate(testOptions("v1"))
	require.NoError(t, err)
	assert.Equal(t, a, b)

	other := testOptions("v1")
	other.seed = 8
	c, err := generate(other)
	require.NoError(t, err)
	assert.NotEqual(t, a[datasetFile], c[datasetFile])
}

func TestGenerate_InvalidOptions(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*options)
	}{
		{"no entities", func(o *options) { o.entities = 0 }},
		{"reversed years", func(o *options) { o.endYear = o.startYear - 1 }},
		{"unknown schema", func(o *options) { o.schema = "v3" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions("v1")
			tt.mutate(&opts)
			_, err := generate(opts)
			assert.Error(t, err)
		})
	}
}
