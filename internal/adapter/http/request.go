package http

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/couchcryptid/energy-analytics-service/internal/domain"
	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

// errBadRequest marks malformed query parameters and bodies.
var errBadRequest = errors.New("bad request")

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "query"} {
			name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
	return v
}

// fieldError is a validator failure reduced to the offending field.
type fieldError struct {
	Field string
	Rule  string
}

func (e *fieldError) Error() string {
	return fmt.Sprintf("invalid %s: failed %q", e.Field, e.Rule)
}

// check runs struct validation and reports only the first failing field.
func (s *Server) check(v any) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return &fieldError{Field: verrs[0].Field(), Rule: verrs[0].Tag()}
	}
	return fmt.Errorf("%w: %w", errBadRequest, err)
}

type filterQuery struct {
	Entity string `query:"entity" validate:"max=16"`
	Year   string `query:"year" validate:"max=16"`
}

func (s *Server) parseFilter(r *http.Request) (domain.Filter, error) {
	q := filterQuery{
		Entity: r.URL.Query().Get("entity"),
		Year:   r.URL.Query().Get("year"),
	}
	if err := s.check(q); err != nil {
		return domain.Filter{}, err
	}
	f, err := domain.ParseFilter(q.Entity, q.Year)
	if err != nil {
		return domain.Filter{}, fmt.Errorf("%w: %w", errBadRequest, err)
	}
	return f, nil
}

type limitQuery struct {
	Limit int `query:"limit" validate:"min=0,max=1000"`
}

func (s *Server) parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return domain.TopEntitiesLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: limit %q is not an integer", errBadRequest, raw)
	}
	q := limitQuery{Limit: n}
	if err := s.check(q); err != nil {
		return 0, err
	}
	return q.Limit, nil
}

type choroplethQuery struct {
	Variable string `query:"variable" validate:"omitempty,oneof=energy temperature precipitation consumo temperatura precipitacion"`
}

func (s *Server) parseVariable(r *http.Request) (domain.Field, error) {
	q := choroplethQuery{Variable: strings.ToLower(r.URL.Query().Get("variable"))}
	if err := s.check(q); err != nil {
		return 0, err
	}
	return domain.ParseChoroplethVariable(q.Variable)
}

type sortQuery struct {
	Sort  string `query:"sort" validate:"max=64"`
	Order string `query:"order" validate:"omitempty,oneof=asc desc"`
}

// parseSort reads sort and order. Unknown columns fall back to R2 and the
// default order is descending.
func (s *Server) parseSort(r *http.Request) (domain.SortState, error) {
	q := sortQuery{
		Sort:  r.URL.Query().Get("sort"),
		Order: strings.ToLower(r.URL.Query().Get("order")),
	}
	if err := s.check(q); err != nil {
		return domain.SortState{}, err
	}

	state := domain.DefaultSortState()
	if col, err := domain.ParseColumn(q.Sort); err == nil {
		state.Column = col
	}
	state.Ascending = q.Order == "asc"
	return state, nil
}

// predictionRequest requires every field to be present; ranges are left to
// domain validation so its rule order decides the reported field.
type predictionRequest struct {
	Year            *int     `json:"year" validate:"required"`
	Month           *int     `json:"month" validate:"required"`
	EntityID        *int     `json:"entity_id" validate:"required"`
	Temperature     *float64 `json:"temperature" validate:"required"`
	Precipitation   *float64 `json:"precipitation" validate:"required"`
	GDP             *float64 `json:"gdp" validate:"required"`
	BasketCost      *float64 `json:"basket_cost" validate:"required"`
	HouseholdIncome *float64 `json:"household_income" validate:"required"`
}

func (p predictionRequest) input() domain.PredictionInput {
	return domain.PredictionInput{
		Year:            *p.Year,
		Month:           *p.Month,
		EntityID:        *p.EntityID,
		Temperature:     *p.Temperature,
		Precipitation:   *p.Precipitation,
		GDP:             *p.GDP,
		BasketCost:      *p.BasketCost,
		HouseholdIncome: *p.HouseholdIncome,
	}
}
