package domain

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Accepted ranges for a new prediction request.
const (
	MinPredictionYear = 2009
	MaxPredictionYear = 2025
	MinTemperature    = -10.0
	MaxTemperature    = 50.0
	MinPrecipitation  = 0.0
	MaxPrecipitation  = 1000.0
)

// PredictionInput is a candidate record for the remote model: the covariate
// shape of a Row without the target.
type PredictionInput struct {
	Year            int     `json:"year"`
	Month           int     `json:"month"`
	EntityID        int     `json:"entity_id"`
	Temperature     float64 `json:"temperature"`
	Precipitation   float64 `json:"precipitation"`
	GDP             float64 `json:"gdp"`
	BasketCost      float64 `json:"basket_cost"`
	HouseholdIncome float64 `json:"household_income"`
}

// DefaultPredictionInput is the initial state of the prediction form.
func DefaultPredictionInput() PredictionInput {
	return PredictionInput{
		Year:            2024,
		Month:           1,
		EntityID:        11,
		Temperature:     16.5,
		Precipitation:   150,
		GDP:             20_000_000,
		BasketCost:      520,
		HouseholdIncome: 450,
	}
}

// ValidationError names the first field of a PredictionInput that failed.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// EntitySet answers membership of entity ids.
type EntitySet interface {
	Contains(entityID int) bool
}

// EntityIDs is a sorted, distinct list of entity ids.
type EntityIDs []int

// Contains reports whether id is in the list.
func (ids EntityIDs) Contains(id int) bool {
	_, ok := slices.BinarySearch(ids, id)
	return ok
}

// DistinctEntities returns the entity ids present in rows, ascending.
func DistinctEntities(rows []Row) EntityIDs {
	return distinctSorted(rows, rowEntity)
}

// DistinctYears returns the years present in rows, ascending.
func DistinctYears(rows []Row) []int {
	return distinctSorted(rows, func(r Row) int { return r.Year })
}

func distinctSorted(rows []Row, key func(Row) int) []int {
	out := make([]int, 0)
	for _, r := range rows {
		out = append(out, key(r))
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// Validate checks the input rules in order and reports only the first
// violation.
func (in PredictionInput) Validate(known EntitySet) error {
	switch {
	case in.Year < MinPredictionYear || in.Year > MaxPredictionYear:
		return &ValidationError{Field: "year", Reason: fmt.Sprintf("must be between %d and %d", MinPredictionYear, MaxPredictionYear)}
	case in.Month < 1 || in.Month > 12:
		return &ValidationError{Field: "month", Reason: "must be between 1 and 12"}
	case known == nil || !known.Contains(in.EntityID):
		return &ValidationError{Field: "entity_id", Reason: "must be a known entity"}
	case in.Temperature < MinTemperature || in.Temperature > MaxTemperature:
		return &ValidationError{Field: "temperature", Reason: "must be between -10°C and 50°C"}
	case in.Precipitation < MinPrecipitation || in.Precipitation > MaxPrecipitation:
		return &ValidationError{Field: "precipitation", Reason: "must be between 0 and 1000 mm"}
	case in.GDP < 0:
		return &ValidationError{Field: "gdp", Reason: "must not be negative"}
	case in.BasketCost < 0:
		return &ValidationError{Field: "basket_cost", Reason: "must not be negative"}
	case in.HouseholdIncome < 0:
		return &ValidationError{Field: "household_income", Reason: "must not be negative"}
	}
	return nil
}

// PredictionResult is a well-formed successful response of the remote model.
type PredictionResult struct {
	Prediction float64  `json:"prediction"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// PredictionRecord is one completed prediction kept in the history.
type PredictionRecord struct {
	ID         string          `json:"id"`
	Input      PredictionInput `json:"input"`
	Prediction float64         `json:"prediction"`
	Confidence *float64        `json:"confidence,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// NewPredictionRecord stamps a result with a fresh id and the current time.
func NewPredictionRecord(in PredictionInput, res PredictionResult) PredictionRecord {
	return PredictionRecord{
		ID:         uuid.NewString(),
		Input:      in,
		Prediction: res.Prediction,
		Confidence: res.Confidence,
		CreatedAt:  Now(),
	}
}
