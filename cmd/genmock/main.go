// Command genmock writes a deterministic set of mock dashboard assets: the
// monthly dataset, model metrics, per-time-step results, per-entity metrics,
// train/test fit arrays and a GeoJSON map with one square per entity.
//
// Usage:
//
//	go run ./cmd/genmock -out data -entities 8 -start-year 2018 -end-year 2023 -schema v1
package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"
)

// Output file names, matching the service defaults.
const (
	datasetFile       = "df_dataset_unidos5.csv"
	modelMetricsFile  = "metricas_modelo.json"
	resultsFile       = "resultado_modelo.csv"
	entityMetricsFile = "metrics_by_company.csv"
	trainTestFile     = "data_train_test.json"
	geoFile           = "mapa.json"
)

type options struct {
	entities  int
	startYear int
	endYear   int
	seed      uint64
	schema    string
	// missingEvery blanks one covariate cell every n rows; 0 disables.
	missingEvery int
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "data", "output directory")
	entities := flag.Int("entities", 8, "number of entities")
	startYear := flag.Int("start-year", 2018, "first year of the dataset")
	endYear := flag.Int("end-year", 2023, "last year of the dataset")
	seed := flag.Uint64("seed", 42, "random seed")
	schema := flag.String("schema", "v1", "results and metrics schema: v1 or v2")
	missing := flag.Int("missing-every", 37, "blank one covariate every n rows (0 disables)")
	flag.Parse()

	opts := options{
		entities:     *entities,
		startYear:    *startYear,
		endYear:      *endYear,
		seed:         *seed,
		schema:       *schema,
		missingEvery: *missing,
	}
	files, err := generate(opts)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(*out, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		path := filepath.Join(*out, name)
		if err := os.WriteFile(path, files[name], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		log.Printf("wrote %s (%d bytes)", path, len(files[name]))
	}
	return nil
}

type observation struct {
	entity, year, month int
	energy              float64
	temperature         float64
	precipitation       float64
	gdp                 float64
	basket              float64
	income              float64
}

type prediction struct {
	date      time.Time
	entity    int
	actual    float64
	predicted float64
}

// generate builds every asset in memory. The same options always produce
// the same bytes.
func generate(opts options) (map[string][]byte, error) {
	if opts.entities <= 0 {
		return nil, fmt.Errorf("entities must be positive, got %d", opts.entities)
	}
	if opts.endYear < opts.startYear {
		return nil, fmt.Errorf("end year %d before start year %d", opts.endYear, opts.startYear)
	}
	if opts.schema != "v1" && opts.schema != "v2" {
		return nil, fmt.Errorf("unknown schema %q", opts.schema)
	}

	rng := rand.New(rand.NewPCG(opts.seed, opts.seed^0x9e3779b97f4a7c15))
	ids := entityIDs(opts.entities)
	obs := observations(rng, ids, opts)
	preds := predictions(rng, obs)

	files := make(map[string][]byte, 6)
	var err error
	if files[datasetFile], err = datasetCSV(obs, opts.missingEvery); err != nil {
		return nil, err
	}
	if files[resultsFile], err = resultsCSV(preds, opts.schema); err != nil {
		return nil, err
	}
	if files[entityMetricsFile], err = entityMetricsCSV(ids, preds, opts.schema); err != nil {
		return nil, err
	}
	if files[modelMetricsFile], err = modelMetricsJSON(preds); err != nil {
		return nil, err
	}
	if files[trainTestFile], err = trainTestJSON(preds); err != nil {
		return nil, err
	}
	if files[geoFile], err = geoJSON(ids); err != nil {
		return nil, err
	}
	return files, nil
}

// entityIDs spreads ids out so they are not a dense 1..n range.
func entityIDs(n int) []int {
	ids := make([]int, n)
	for i := range n {
		ids[i] = 3 + i*4
	}
	return ids
}

func observations(rng *rand.Rand, ids []int, opts options) []observation {
	out := make([]observation, 0, len(ids)*(opts.endYear-opts.startYear+1)*12)
	for _, id := range ids {
		base := 800 + rng.Float64()*4000
		baseTemp := 8 + rng.Float64()*18
		for year := opts.startYear; year <= opts.endYear; year++ {
			growth := 1 + 0.03*float64(year-opts.startYear)
			for month := 1; month <= 12; month++ {
				season := math.Sin(2 * math.Pi * float64(month-1) / 12)
				temp := baseTemp + 3*season + rng.NormFloat64()*0.8
				out = append(out, observation{
					entity:        id,
					year:          year,
					month:         month,
					energy:        round(base*growth*(1+0.08*season)+temp*6+rng.NormFloat64()*25, 3),
					temperature:   round(temp, 1),
					precipitation: round(math.Max(0, 120+90*season+rng.NormFloat64()*30), 1),
					gdp:           round(18_000_000*growth+rng.NormFloat64()*150_000, 0),
					basket:        round(480*growth+rng.NormFloat64()*4, 2),
					income:        round(420*growth+rng.NormFloat64()*3, 2),
				})
			}
		}
	}
	return out
}

// predictions simulates a model fitted on every observation.
func predictions(rng *rand.Rand, obs []observation) []prediction {
	out := make([]prediction, len(obs))
	for i, o := range obs {
		out[i] = prediction{
			date:      time.Date(o.year, time.Month(o.month), 1, 0, 0, 0, 0, time.UTC),
			entity:    o.entity,
			actual:    o.energy,
			predicted: round(o.energy*(1+rng.NormFloat64()*0.04), 3),
		}
	}
	return out
}

func datasetCSV(obs []observation, missingEvery int) ([]byte, error) {
	rows := [][]string{{
		"IdEmpresa", "Año", "IdMes", "Energía Facturada (MWh)", "temperatura", "precipitacion",
		"PIB_mensual_interpolado", "COSTO_CANASTA", "INGRESO_FAMILIAR_MENSUAL",
	}}
	for i, o := range obs {
		row := []string{
			strconv.Itoa(o.entity), strconv.Itoa(o.year), strconv.Itoa(o.month),
			ftoa(o.energy), ftoa(o.temperature), ftoa(o.precipitation),
			ftoa(o.gdp), ftoa(o.basket), ftoa(o.income),
		}
		if missingEvery > 0 && i%missingEvery == missingEvery-1 {
			// Rotate through the covariate columns.
			row[4+(i/missingEvery)%5] = ""
		}
		rows = append(rows, row)
	}
	return writeCSV(rows)
}

func resultsCSV(preds []prediction, schema string) ([]byte, error) {
	var rows [][]string
	if schema == "v1" {
		rows = append(rows, []string{"fecha", "año", "mes", "IdEmpresa", "valor_real", "prediccion", "error", "error_abs", "error_porcentual"})
		for _, p := range preds {
			diff := p.actual - p.predicted
			rows = append(rows, []string{
				p.date.Format("2006-01-02"), strconv.Itoa(p.date.Year()), strconv.Itoa(int(p.date.Month())),
				strconv.Itoa(p.entity), ftoa(p.actual), ftoa(p.predicted),
				ftoa(round(diff, 3)), ftoa(round(math.Abs(diff), 3)), ftoa(round(percent(p.actual, p.predicted), 3)),
			})
		}
		return writeCSV(rows)
	}

	rows = append(rows, []string{"fecha", "IdEmpresa", "y_true", "y_pred", "abs_error", "ape"})
	for _, p := range preds {
		rows = append(rows, []string{
			p.date.Format("2006-01-02"), strconv.Itoa(p.entity), ftoa(p.actual), ftoa(p.predicted),
			ftoa(round(math.Abs(p.actual-p.predicted), 3)), ftoa(round(math.Abs(percent(p.actual, p.predicted)), 3)),
		})
	}
	return writeCSV(rows)
}

type splitMetrics struct {
	MSE  float64 `json:"mse"`
	RMSE float64 `json:"rmse"`
	MAE  float64 `json:"mae"`
	R2   float64 `json:"r2"`
}

func score(actual, predicted []float64) splitMetrics {
	n := float64(len(actual))
	if n == 0 {
		return splitMetrics{}
	}
	var sse, sae, mean float64
	for i := range actual {
		d := actual[i] - predicted[i]
		sse += d * d
		sae += math.Abs(d)
		mean += actual[i]
	}
	mean /= n
	var sst float64
	for _, a := range actual {
		sst += (a - mean) * (a - mean)
	}
	m := splitMetrics{MSE: round(sse/n, 4), RMSE: round(math.Sqrt(sse/n), 4), MAE: round(sae/n, 4)}
	if sst > 0 {
		m.R2 = round(1-sse/sst, 4)
	}
	return m
}

func entityMetricsCSV(ids []int, preds []prediction, schema string) ([]byte, error) {
	errCol := "Error_Relativo_Porcentual"
	if schema == "v2" {
		errCol = "MAPE"
	}
	rows := [][]string{{"IdEmpresa", "NombreEmpresa", "N_Puntos", "Consumo_Promedio", "RMSE", "MAE", "R2", errCol}}

	for _, id := range ids {
		var actual, predicted []float64
		var relErr float64
		for _, p := range preds {
			if p.entity != id {
				continue
			}
			actual = append(actual, p.actual)
			predicted = append(predicted, p.predicted)
			relErr += math.Abs(percent(p.actual, p.predicted))
		}
		m := score(actual, predicted)
		var mean float64
		for _, a := range actual {
			mean += a
		}
		n := float64(len(actual))
		rows = append(rows, []string{
			strconv.Itoa(id), entityName(id), strconv.Itoa(len(actual)), ftoa(round(mean/n, 3)),
			ftoa(m.RMSE), ftoa(m.MAE), ftoa(m.R2), ftoa(round(relErr/n, 3)),
		})
	}
	return writeCSV(rows)
}

// splitIndex puts the last fifth of the predictions in the test split.
func splitIndex(n int) int {
	return n - n/5
}

func modelMetricsJSON(preds []prediction) ([]byte, error) {
	actual, predicted := columns(preds)
	cut := splitIndex(len(preds))
	return json.MarshalIndent(map[string]splitMetrics{
		"train": score(actual[:cut], predicted[:cut]),
		"test":  score(actual[cut:], predicted[cut:]),
	}, "", "  ")
}

func trainTestJSON(preds []prediction) ([]byte, error) {
	actual, predicted := columns(preds)
	cut := splitIndex(len(preds))
	return json.Marshal(map[string][]float64{
		"y_train_original": actual[:cut],
		"y_pred_train":     predicted[:cut],
		"y_test_original":  actual[cut:],
		"y_pred_test":      predicted[cut:],
	})
}

func columns(preds []prediction) ([]float64, []float64) {
	actual := make([]float64, len(preds))
	predicted := make([]float64, len(preds))
	for i, p := range preds {
		actual[i], predicted[i] = p.actual, p.predicted
	}
	return actual, predicted
}

type geoFeature struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
	Geometry   map[string]any `json:"geometry"`
}

// geoJSON lays the entities out on a grid of unit squares.
func geoJSON(ids []int) ([]byte, error) {
	cols := int(math.Ceil(math.Sqrt(float64(len(ids)))))
	features := make([]geoFeature, len(ids))
	for i, id := range ids {
		x := -80 + float64(i%cols)
		y := -4 + float64(i/cols)
		features[i] = geoFeature{
			Type: "Feature",
			Properties: map[string]any{
				"IDSISDAT":   id,
				"Arco_Nombr": fmt.Sprintf("Area %d", id),
				"Empresa":    entityName(id),
				"Regional":   []string{"Norte", "Centro", "Sur"}[i%3],
			},
			Geometry: map[string]any{
				"type":        "Polygon",
				"coordinates": [][][2]float64{{{x, y}, {x + 1, y}, {x + 1, y + 1}, {x, y + 1}, {x, y}}},
			},
		}
	}
	return json.MarshalIndent(map[string]any{
		"type":     "FeatureCollection",
		"name":     "mapa",
		"features": features,
	}, "", "  ")
}

func entityName(id int) string {
	return fmt.Sprintf("Distribuidora %02d", id)
}

func percent(actual, predicted float64) float64 {
	if actual == 0 {
		return 0
	}
	return (actual - predicted) / actual * 100
}

func writeCSV(rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	return buf.Bytes(), nil
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
