package domain

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// SplitMetrics holds aggregate regression error metrics for one data split.
type SplitMetrics struct {
	MSE  float64 `json:"mse"`
	RMSE float64 `json:"rmse"`
	MAE  float64 `json:"mae"`
	R2   float64 `json:"r2"`
}

// ModelMetrics is the trained model's train/test evaluation, consumed as is.
type ModelMetrics struct {
	Train SplitMetrics `json:"train"`
	Test  SplitMetrics `json:"test"`
}

// EntityMetrics is one precomputed evaluation record per entity.
// RelativeError is the mean relative error in percent (MAPE in the v2 schema).
// HasR2 is false when the source table had no R2 column.
type EntityMetrics struct {
	EntityID      int     `json:"entity_id"`
	Name          string  `json:"name"`
	Points        int     `json:"points"`
	MeanValue     float64 `json:"mean_value"`
	RMSE          float64 `json:"rmse"`
	MAE           float64 `json:"mae"`
	R2            float64 `json:"r2"`
	HasR2         bool    `json:"has_r2"`
	RelativeError float64 `json:"relative_error_pct"`
}

// Column is a sortable column of the metrics table.
type Column string

const (
	ColumnEntityID      Column = "entity_id"
	ColumnPoints        Column = "points"
	ColumnMeanValue     Column = "mean_value"
	ColumnRMSE          Column = "rmse"
	ColumnMAE           Column = "mae"
	ColumnR2            Column = "r2"
	ColumnRelativeError Column = "relative_error"
)

// ErrUnknownColumn is returned by ParseColumn for unrecognised names.
var ErrUnknownColumn = errors.New("unknown column")

// ParseColumn resolves a column by API name or by its asset header.
func ParseColumn(s string) (Column, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "entity_id", "idempresa":
		return ColumnEntityID, nil
	case "points", "n_puntos":
		return ColumnPoints, nil
	case "mean_value", "consumo_promedio":
		return ColumnMeanValue, nil
	case "rmse":
		return ColumnRMSE, nil
	case "mae":
		return ColumnMAE, nil
	case "r2":
		return ColumnR2, nil
	case "relative_error", "error_relativo_porcentual", "mape":
		return ColumnRelativeError, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownColumn, s)
}

// compareBy orders two records on a column. Records without R2 sort below
// every record that has one.
func compareBy(col Column, a, b EntityMetrics) int {
	switch col {
	case ColumnEntityID:
		return cmp.Compare(a.EntityID, b.EntityID)
	case ColumnPoints:
		return cmp.Compare(a.Points, b.Points)
	case ColumnMeanValue:
		return cmp.Compare(a.MeanValue, b.MeanValue)
	case ColumnRMSE:
		return cmp.Compare(a.RMSE, b.RMSE)
	case ColumnMAE:
		return cmp.Compare(a.MAE, b.MAE)
	case ColumnR2:
		if a.HasR2 != b.HasR2 {
			if a.HasR2 {
				return 1
			}
			return -1
		}
		return cmp.Compare(a.R2, b.R2)
	case ColumnRelativeError:
		return cmp.Compare(a.RelativeError, b.RelativeError)
	}
	return 0
}

// SortMetrics returns a copy of table ordered on col. The sort is stable in
// both directions: equal records keep their input order.
func SortMetrics(table []EntityMetrics, col Column, ascending bool) []EntityMetrics {
	out := slices.Clone(table)
	slices.SortStableFunc(out, func(a, b EntityMetrics) int {
		c := compareBy(col, a, b)
		if !ascending {
			c = -c
		}
		return c
	})
	return out
}

// FilterMetrics keeps the records matching the filter's entity. The year
// dimension does not apply to per-entity records.
func FilterMetrics(table []EntityMetrics, f Filter) []EntityMetrics {
	out := make([]EntityMetrics, 0, len(table))
	for _, m := range table {
		if f.EntityID == nil || m.EntityID == *f.EntityID {
			out = append(out, m)
		}
	}
	return out
}

// SortState is the active column and direction of the metrics table.
type SortState struct {
	Column    Column `json:"column"`
	Ascending bool   `json:"ascending"`
}

// DefaultSortState orders by R2, best first.
func DefaultSortState() SortState {
	return SortState{Column: ColumnR2}
}

// Toggle selects col. Selecting the active column flips the direction;
// selecting another column starts descending.
func (s SortState) Toggle(col Column) SortState {
	if s.Column == col {
		return SortState{Column: col, Ascending: !s.Ascending}
	}
	return SortState{Column: col}
}

// Apply sorts table by the state.
func (s SortState) Apply(table []EntityMetrics) []EntityMetrics {
	return SortMetrics(table, s.Column, s.Ascending)
}

// MeanRelativeError averages RelativeError across records. It reports false
// for an empty table.
func MeanRelativeError(table []EntityMetrics) (float64, bool) {
	if len(table) == 0 {
		return 0, false
	}
	var sum float64
	for _, m := range table {
		sum += m.RelativeError
	}
	return sum / float64(len(table)), true
}

// EntityDirectory resolves display names from the metrics table, falling
// back to the map feature names.
type EntityDirectory struct {
	names map[int]string
}

// NewEntityDirectory indexes names. The first non-empty metrics name for an
// id wins; ids without one take the first non-empty feature name.
func NewEntityDirectory(table []EntityMetrics, features []Feature) EntityDirectory {
	names := make(map[int]string, len(table))
	for _, m := range table {
		if _, ok := names[m.EntityID]; !ok && m.Name != "" {
			names[m.EntityID] = m.Name
		}
	}
	for _, f := range features {
		if _, ok := names[f.EntityID]; !ok && f.Name != "" {
			names[f.EntityID] = f.Name
		}
	}
	return EntityDirectory{names: names}
}

// Name returns the display name or "Empresa <id>" when unknown.
func (d EntityDirectory) Name(entityID int) string {
	if n, ok := d.names[entityID]; ok {
		return n
	}
	return fmt.Sprintf("Empresa %d", entityID)
}
