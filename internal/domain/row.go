package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Field identifies one numeric column of a Row.
type Field uint8

const (
	FieldEnergy Field = iota
	FieldTemperature
	FieldPrecipitation
	FieldGDP
	FieldBasketCost
	FieldHouseholdIncome
)

var fieldNames = [...]string{
	FieldEnergy:          "energy",
	FieldTemperature:     "temperature",
	FieldPrecipitation:   "precipitation",
	FieldGDP:             "gdp",
	FieldBasketCost:      "basket_cost",
	FieldHouseholdIncome: "household_income",
}

// ErrUnknownField is returned by ParseField for unrecognised names.
var ErrUnknownField = errors.New("unknown field")

func (f Field) String() string {
	if int(f) < len(fieldNames) {
		return fieldNames[f]
	}
	return fmt.Sprintf("field(%d)", f)
}

// ParseField resolves a field by its API name. The Spanish asset column
// aliases used by the choropleth selector (consumo, temperatura,
// precipitacion) are accepted as well.
func ParseField(s string) (Field, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "energy", "consumo":
		return FieldEnergy, nil
	case "temperature", "temperatura":
		return FieldTemperature, nil
	case "precipitation", "precipitacion":
		return FieldPrecipitation, nil
	case "gdp":
		return FieldGDP, nil
	case "basket_cost":
		return FieldBasketCost, nil
	case "household_income":
		return FieldHouseholdIncome, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownField, s)
}

// FieldSet is a bitmask of fields.
type FieldSet uint8

// With returns the set with f added.
func (s FieldSet) With(f Field) FieldSet { return s | 1<<f }

// Has reports whether f is in the set.
func (s FieldSet) Has(f Field) bool { return s&(1<<f) != 0 }

// Row is one (entity, year, month) observation of billed energy and the
// covariates recorded for it. Rows are created once at load time and never
// mutated afterwards.
type Row struct {
	EntityID        int     `json:"entity_id"`
	Year            int     `json:"year"`
	Month           int     `json:"month"`
	Energy          float64 `json:"energy_mwh"`
	Temperature     float64 `json:"temperature"`
	Precipitation   float64 `json:"precipitation"`
	GDP             float64 `json:"gdp"`
	BasketCost      float64 `json:"basket_cost"`
	HouseholdIncome float64 `json:"household_income"`

	// Missing marks numeric fields that were absent in the source table.
	Missing FieldSet `json:"-"`
}

// Value returns the field value and false when the source cell was empty.
func (r Row) Value(f Field) (float64, bool) {
	if r.Missing.Has(f) {
		return 0, false
	}
	switch f {
	case FieldEnergy:
		return r.Energy, true
	case FieldTemperature:
		return r.Temperature, true
	case FieldPrecipitation:
		return r.Precipitation, true
	case FieldGDP:
		return r.GDP, true
	case FieldBasketCost:
		return r.BasketCost, true
	case FieldHouseholdIncome:
		return r.HouseholdIncome, true
	}
	return 0, false
}

// ValueOrZero returns the field value with absent cells counted as 0.
func (r Row) ValueOrZero(f Field) float64 {
	v, _ := r.Value(f)
	return v
}

// Validate checks the structural invariants of a loaded row.
func (r Row) Validate() error {
	if r.Month < 1 || r.Month > 12 {
		return fmt.Errorf("entity %d year %d: month %d out of range 1-12", r.EntityID, r.Year, r.Month)
	}
	return nil
}
