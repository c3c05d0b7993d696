package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/energy-analytics-service/internal/adapter/assets"
	"github.com/couchcryptid/energy-analytics-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	datasetHeader = "IdEmpresa,Año,IdMes,Energía Facturada (MWh),temperatura,precipitacion,PIB_mensual_interpolado,COSTO_CANASTA,INGRESO_FAMILIAR_MENSUAL\n"

	goodDataset = datasetHeader +
		"2,2023,1,100,15,80,1000,400,350\n" +
		"2,2023,2,110,16,90,1010,401,351\n" +
		"5,2023,1,300,25,,2000,420,370\n"

	goodMetrics = "IdEmpresa,NombreEmpresa,N_Puntos,Consumo_Promedio,RMSE,MAE,R2,Error_Relativo_Porcentual\n" +
		"2,Norte,2,105,5,4,0.9,3.5\n" +
		"5,Sur,1,300,8,6,0.8,2.1\n"

	goodResults = "fecha,año,mes,IdEmpresa,valor_real,prediccion\n" +
		"2023-01-01,2023,1,2,100,98\n" +
		"2023-01-01,2023,1,5,300,305\n"

	goodGeo = `{"type":"FeatureCollection","features":[
		{"type":"Feature","properties":{"IDSISDAT":2,"Arco_Nombr":"Norte"},"geometry":null},
		{"type":"Feature","properties":{"IDSISDAT":5,"Arco_Nombr":"Sur"},"geometry":null}]}`

	goodModel = `{"train":{"mse":1,"rmse":1,"mae":1,"r2":0.9},"test":{"mse":2,"rmse":1.4,"mae":1.2,"r2":0.85}}`
	goodFit   = `{"y_train_original":[1,2],"y_pred_train":[1,2],"y_test_original":[3],"y_pred_test":[3]}`
)

type fixture map[string]string

func goodFixture() fixture {
	return fixture{
		"dataset.csv": goodDataset,
		"metrics.csv": goodMetrics,
		"results.csv": goodResults,
		"map.json":    goodGeo,
		"model.json":  goodModel,
		"fit.json":    goodFit,
	}
}

func (f fixture) write(t *testing.T) assets.Paths {
	t.Helper()
	dir := t.TempDir()
	for name, body := range f {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return assets.Paths{
		Dataset:       filepath.Join(dir, "dataset.csv"),
		ModelMetrics:  filepath.Join(dir, "model.json"),
		Results:       filepath.Join(dir, "results.csv"),
		EntityMetrics: filepath.Join(dir, "metrics.csv"),
		TrainTest:     filepath.Join(dir, "fit.json"),
		Geo:           filepath.Join(dir, "map.json"),
	}
}

func TestRun_Passes(t *testing.T) {
	var out bytes.Buffer
	code := run(goodFixture().write(t), &out)

	assert.Equal(t, 0, code, out.String())
	assert.Contains(t, out.String(), "All validations passed.")
	assert.Contains(t, out.String(), "3 dataset rows, 2 results (v1), 2 entity metrics (v1), 2 map features")
}

func TestRun_Failures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(fixture)
		phase  string
		want   string
	}{
		{
			name:   "unparseable dataset",
			mutate: func(f fixture) { f["dataset.csv"] = datasetHeader + "2,2023,13,1,1,1,1,1,1\n" },
			phase:  "Asset parsing",
			want:   "month 13 out of range",
		},
		{
			name:   "missing file",
			mutate: func(f fixture) { delete(f, "map.json") },
			phase:  "Asset parsing",
			want:   "map:",
		},
		{
			name:   "duplicate period",
			mutate: func(f fixture) { f["dataset.csv"] = goodDataset + "2,2023,1,105,15,80,1000,400,350\n" },
			phase:  "Dataset integrity",
			want:   "row 4 duplicates row 1: entity 2 2023-01",
		},
		{
			name:   "entity without map feature",
			mutate: func(f fixture) { f["map.json"] = `{"type":"FeatureCollection","features":[{"properties":{"IDSISDAT":2}}]}` },
			phase:  "Entity coverage",
			want:   "entity 5 has no map feature",
		},
		{
			name:   "results for unknown entity",
			mutate: func(f fixture) { f["results.csv"] = goodResults + "2023-01-01,2023,1,9,1,1\n" },
			phase:  "Entity coverage",
			want:   "results: entity 9 not in dataset",
		},
		{
			name: "schema mismatch",
			mutate: func(f fixture) {
				f["results.csv"] = "fecha,IdEmpresa,y_true,y_pred\n2023-01-01,2,100,98\n"
			},
			phase: "Schema consistency",
			want:  "results table is v2 but entity metrics table is v1",
		},
		{
			name:   "fit length mismatch",
			mutate: func(f fixture) { f["fit.json"] = `{"y_train_original":[1,2],"y_pred_train":[1]}` },
			phase:  "Model fit data",
			want:   "train split: 2 actual vs 1 predicted values",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := goodFixture()
			tt.mutate(f)

			var out bytes.Buffer
			code := run(f.write(t), &out)

			assert.Equal(t, 1, code)
			assert.Contains(t, out.String(), "--- "+tt.phase+" ---")
			assert.Contains(t, out.String(), tt.want)
			assert.Contains(t, out.String(), "Validation FAILED.")
		})
	}
}

func TestValidateFitData_Optional(t *testing.T) {
	assert.True(t, validateFitData(nil).passed())
	assert.False(t, validateFitData(&domain.FitData{}).passed())
}
