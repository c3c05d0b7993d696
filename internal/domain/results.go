package domain

import (
	"errors"
	"slices"
	"time"
)

// SchemaVersion tags the layout of the results and entity metrics tables.
type SchemaVersion int

const (
	// SchemaV1 carries valor_real/prediccion/error columns and
	// Error_Relativo_Porcentual.
	SchemaV1 SchemaVersion = 1
	// SchemaV2 carries y_true/y_pred columns and MAPE.
	SchemaV2 SchemaVersion = 2
)

// ErrUnknownSchema is returned when a table matches neither layout.
var ErrUnknownSchema = errors.New("unknown table schema")

func (v SchemaVersion) String() string {
	switch v {
	case SchemaV1:
		return "v1"
	case SchemaV2:
		return "v2"
	}
	return "unknown"
}

// ResultRowV1 is one prediction result in the v1 layout.
type ResultRowV1 struct {
	Date         time.Time `json:"date"`
	Year         int       `json:"year"`
	Month        int       `json:"month"`
	EntityID     int       `json:"entity_id"`
	Actual       float64   `json:"actual"`
	Predicted    float64   `json:"predicted"`
	Error        float64   `json:"error"`
	AbsError     float64   `json:"abs_error"`
	PercentError float64   `json:"percent_error"`
}

// ResultRowV2 is one prediction result in the v2 layout.
type ResultRowV2 struct {
	Date     time.Time `json:"date"`
	EntityID int       `json:"entity_id"`
	YTrue    float64   `json:"y_true"`
	YPred    float64   `json:"y_pred"`
	AbsError float64   `json:"abs_error"`
	APE      float64   `json:"ape"`
}

// ResultTable is the per-time-step prediction results, tagged by schema.
// Exactly one of V1 and V2 is populated, matching Version.
type ResultTable struct {
	Version SchemaVersion
	V1      []ResultRowV1
	V2      []ResultRowV2
}

// ResultPoint is the schema-independent view of one result row.
type ResultPoint struct {
	Date      time.Time `json:"date"`
	EntityID  int       `json:"entity_id"`
	Actual    float64   `json:"actual"`
	Predicted float64   `json:"predicted"`
}

// Points normalises the table into schema-independent points in row order.
func (t ResultTable) Points() []ResultPoint {
	switch t.Version {
	case SchemaV1:
		out := make([]ResultPoint, len(t.V1))
		for i, r := range t.V1 {
			out[i] = ResultPoint{Date: r.Date, EntityID: r.EntityID, Actual: r.Actual, Predicted: r.Predicted}
		}
		return out
	case SchemaV2:
		out := make([]ResultPoint, len(t.V2))
		for i, r := range t.V2 {
			out[i] = ResultPoint{Date: r.Date, EntityID: r.EntityID, Actual: r.YTrue, Predicted: r.YPred}
		}
		return out
	}
	return []ResultPoint{}
}

// Len returns the number of rows in the populated variant.
func (t ResultTable) Len() int {
	if t.Version == SchemaV2 {
		return len(t.V2)
	}
	return len(t.V1)
}

// EntitySeries is the actual vs predicted series of one entity.
type EntitySeries struct {
	EntityID int           `json:"entity_id"`
	Points   []ResultPoint `json:"points"`
}

// SeriesForEntity selects the filter's entity, or the lowest entity id in
// the table when the filter has none, and returns its points sorted by date.
// It reports false when the table is empty.
func SeriesForEntity(t ResultTable, f Filter) (EntitySeries, bool) {
	points := t.Points()
	if len(points) == 0 {
		return EntitySeries{}, false
	}

	var id int
	if f.EntityID != nil {
		id = *f.EntityID
	} else {
		id = points[0].EntityID
		for _, p := range points[1:] {
			id = min(id, p.EntityID)
		}
	}

	selected := make([]ResultPoint, 0)
	for _, p := range points {
		if p.EntityID == id {
			selected = append(selected, p)
		}
	}
	slices.SortStableFunc(selected, func(a, b ResultPoint) int { return a.Date.Compare(b.Date) })
	return EntitySeries{EntityID: id, Points: selected}, true
}

// FitData holds actual and predicted targets for the train and test splits.
type FitData struct {
	TrainActual    []float64 `json:"y_train_original"`
	TestActual     []float64 `json:"y_test_original"`
	TrainPredicted []float64 `json:"y_pred_train"`
	TestPredicted  []float64 `json:"y_pred_test"`
}

// FitPoint pairs an actual value with its prediction.
type FitPoint struct {
	Actual    float64 `json:"actual"`
	Predicted float64 `json:"predicted"`
}

// FitPairs is the predicted-vs-actual scatter for both splits.
type FitPairs struct {
	Train []FitPoint `json:"train"`
	Test  []FitPoint `json:"test"`
}

// Pairs zips actuals with predictions; a length mismatch truncates to the
// shorter slice.
func (d FitData) Pairs() FitPairs {
	return FitPairs{
		Train: zipFit(d.TrainActual, d.TrainPredicted),
		Test:  zipFit(d.TestActual, d.TestPredicted),
	}
}

func zipFit(actual, predicted []float64) []FitPoint {
	n := min(len(actual), len(predicted))
	out := make([]FitPoint, n)
	for i := range n {
		out[i] = FitPoint{Actual: actual[i], Predicted: predicted[i]}
	}
	return out
}
