package assets

import (
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/couchcryptid/energy-analytics-service/internal/domain"
)

// Dataset column headers.
const (
	colEntity          = "IdEmpresa"
	colYear            = "Año"
	colMonth           = "IdMes"
	colEnergy          = "Energía Facturada (MWh)"
	colTemperature     = "temperatura"
	colPrecipitation   = "precipitacion"
	colGDP             = "PIB_mensual_interpolado"
	colBasketCost      = "COSTO_CANASTA"
	colHouseholdIncome = "INGRESO_FAMILIAR_MENSUAL"
)

var covariateColumns = []struct {
	col   string
	field domain.Field
}{
	{colEnergy, domain.FieldEnergy},
	{colTemperature, domain.FieldTemperature},
	{colPrecipitation, domain.FieldPrecipitation},
	{colGDP, domain.FieldGDP},
	{colBasketCost, domain.FieldBasketCost},
	{colHouseholdIncome, domain.FieldHouseholdIncome},
}

// ParseDataset reads the observations table. Blank numeric cells are kept as
// missing values; identifiers and periods are required.
func ParseDataset(r io.Reader) ([]domain.Row, error) {
	t, err := readTable(r)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	if err := t.require(colEntity, colYear, colMonth, colEnergy, colTemperature,
		colPrecipitation, colGDP, colBasketCost, colHouseholdIncome); err != nil {
		return nil, fmt.Errorf("dataset: %w", err)
	}

	rows := make([]domain.Row, 0, len(t.records))
	for i := range t.records {
		rr := t.row(i)
		row := domain.Row{
			EntityID: rr.integer(colEntity),
			Year:     rr.integer(colYear),
			Month:    rr.integer(colMonth),
		}
		for _, c := range covariateColumns {
			v, ok := rr.optFloat(c.col)
			if !ok {
				row.Missing = row.Missing.With(c.field)
				continue
			}
			setField(&row, c.field, v)
		}
		if rr.err != nil {
			return nil, fmt.Errorf("dataset: %w", rr.err)
		}
		if err := row.Validate(); err != nil {
			return nil, fmt.Errorf("dataset line %d: %w", rr.line, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func setField(r *domain.Row, f domain.Field, v float64) {
	switch f {
	case domain.FieldEnergy:
		r.Energy = v
	case domain.FieldTemperature:
		r.Temperature = v
	case domain.FieldPrecipitation:
		r.Precipitation = v
	case domain.FieldGDP:
		r.GDP = v
	case domain.FieldBasketCost:
		r.BasketCost = v
	case domain.FieldHouseholdIncome:
		r.HouseholdIncome = v
	}
}

// ParseModelMetrics decodes the global train/test metrics object as is.
func ParseModelMetrics(r io.Reader) (domain.ModelMetrics, error) {
	var m domain.ModelMetrics
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return domain.ModelMetrics{}, fmt.Errorf("decode model metrics: %w", err)
	}
	return m, nil
}

// ParseFitData decodes the train/test actual and predicted arrays. Feature
// matrices in the same file are ignored.
func ParseFitData(r io.Reader) (*domain.FitData, error) {
	var d domain.FitData
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return nil, fmt.Errorf("decode train/test data: %w", err)
	}
	return &d, nil
}

// Results table headers.
const (
	colDate         = "fecha"
	colResultYear   = "año"
	colResultMonth  = "mes"
	colActual       = "valor_real"
	colPredicted    = "prediccion"
	colError        = "error"
	colAbsError     = "error_abs"
	colPercentError = "error_porcentual"
	colYTrue        = "y_true"
	colYPred        = "y_pred"
	colAbsErrorV2   = "abs_error"
	colAPE          = "ape"
)

// ParseResults reads the per-time-step results, selecting the schema from
// the header row.
func ParseResults(r io.Reader) (domain.ResultTable, error) {
	t, err := readTable(r)
	if err != nil {
		return domain.ResultTable{}, fmt.Errorf("read results: %w", err)
	}

	switch {
	case t.has(colActual, colPredicted):
		return parseResultsV1(t)
	case t.has(colYTrue, colYPred):
		return parseResultsV2(t)
	}
	return domain.ResultTable{}, fmt.Errorf("results: %w", domain.ErrUnknownSchema)
}

func parseResultsV1(t *table) (domain.ResultTable, error) {
	if err := t.require(colDate, colEntity, colActual, colPredicted); err != nil {
		return domain.ResultTable{}, fmt.Errorf("results v1: %w", err)
	}
	out := domain.ResultTable{Version: domain.SchemaV1, V1: make([]domain.ResultRowV1, 0, len(t.records))}
	for i := range t.records {
		rr := t.row(i)
		row := domain.ResultRowV1{
			Date:      rr.date(colDate),
			EntityID:  rr.integer(colEntity),
			Actual:    rr.float(colActual),
			Predicted: rr.float(colPredicted),
		}
		row.Year, row.Month = row.Date.Year(), int(row.Date.Month())
		if t.has(colResultYear, colResultMonth) {
			row.Year, row.Month = rr.integer(colResultYear), rr.integer(colResultMonth)
		}
		row.Error = optOr(rr, colError, row.Actual-row.Predicted)
		row.AbsError = optOr(rr, colAbsError, math.Abs(row.Actual-row.Predicted))
		row.PercentError = optOr(rr, colPercentError, percentError(row.Actual, row.Predicted))
		if rr.err != nil {
			return domain.ResultTable{}, fmt.Errorf("results v1: %w", rr.err)
		}
		out.V1 = append(out.V1, row)
	}
	return out, nil
}

func parseResultsV2(t *table) (domain.ResultTable, error) {
	if err := t.require(colDate, colEntity, colYTrue, colYPred); err != nil {
		return domain.ResultTable{}, fmt.Errorf("results v2: %w", err)
	}
	out := domain.ResultTable{Version: domain.SchemaV2, V2: make([]domain.ResultRowV2, 0, len(t.records))}
	for i := range t.records {
		rr := t.row(i)
		row := domain.ResultRowV2{
			Date:     rr.date(colDate),
			EntityID: rr.integer(colEntity),
			YTrue:    rr.float(colYTrue),
			YPred:    rr.float(colYPred),
		}
		row.AbsError = optOr(rr, colAbsErrorV2, math.Abs(row.YTrue-row.YPred))
		row.APE = optOr(rr, colAPE, math.Abs(percentError(row.YTrue, row.YPred)))
		if rr.err != nil {
			return domain.ResultTable{}, fmt.Errorf("results v2: %w", rr.err)
		}
		out.V2 = append(out.V2, row)
	}
	return out, nil
}

// Entity metrics headers.
const (
	colName          = "NombreEmpresa"
	colPoints        = "N_Puntos"
	colMeanValue     = "Consumo_Promedio"
	colRMSE          = "RMSE"
	colMAE           = "MAE"
	colR2            = "R2"
	colRelativeError = "Error_Relativo_Porcentual"
	colMAPE          = "MAPE"
)

// ParseEntityMetrics reads the per-entity metrics table and reports which
// schema it follows.
func ParseEntityMetrics(r io.Reader) ([]domain.EntityMetrics, domain.SchemaVersion, error) {
	t, err := readTable(r)
	if err != nil {
		return nil, 0, fmt.Errorf("read entity metrics: %w", err)
	}

	var version domain.SchemaVersion
	var errCol string
	switch {
	case t.has(colRelativeError):
		version, errCol = domain.SchemaV1, colRelativeError
		if err := t.require(colR2); err != nil {
			return nil, 0, fmt.Errorf("entity metrics v1: %w", err)
		}
	case t.has(colMAPE):
		version, errCol = domain.SchemaV2, colMAPE
	default:
		return nil, 0, fmt.Errorf("entity metrics: %w", domain.ErrUnknownSchema)
	}
	if err := t.require(colEntity, colName, colPoints, colMeanValue, colRMSE, colMAE); err != nil {
		return nil, 0, fmt.Errorf("entity metrics %s: %w", version, err)
	}

	out := make([]domain.EntityMetrics, 0, len(t.records))
	for i := range t.records {
		rr := t.row(i)
		m := domain.EntityMetrics{
			EntityID:      rr.integer(colEntity),
			Name:          rr.text(colName),
			Points:        rr.integer(colPoints),
			MeanValue:     rr.float(colMeanValue),
			RMSE:          rr.float(colRMSE),
			MAE:           rr.float(colMAE),
			RelativeError: rr.float(errCol),
		}
		m.R2, m.HasR2 = rr.optFloat(colR2)
		if rr.err != nil {
			return nil, 0, fmt.Errorf("entity metrics %s: %w", version, rr.err)
		}
		out = append(out, m)
	}
	return out, version, nil
}

func optOr(rr *rowReader, col string, fallback float64) float64 {
	if v, ok := rr.optFloat(col); ok {
		return v
	}
	return fallback
}

// percentError is (actual - predicted) / actual in percent, 0 for a zero
// actual.
func percentError(actual, predicted float64) float64 {
	if actual == 0 {
		return 0
	}
	return (actual - predicted) / actual * 100
}
