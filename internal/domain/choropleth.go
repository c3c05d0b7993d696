package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"maps"
	"math"
)

// ErrNoScale signals that a choropleth has no value domain because no
// entity has data.
var ErrNoScale = errors.New("no color scale available")

// ErrUnknownVariable is returned for a choropleth variable outside
// energy, temperature and precipitation.
var ErrUnknownVariable = errors.New("unknown choropleth variable")

// ParseChoroplethVariable resolves the map variable selector. An empty
// selector means energy.
func ParseChoroplethVariable(s string) (Field, error) {
	if s == "" {
		return FieldEnergy, nil
	}
	f, err := ParseField(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnknownVariable, s)
	}
	switch f {
	case FieldEnergy, FieldTemperature, FieldPrecipitation:
		return f, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownVariable, s)
}

// Feature is one geographic area. Geometry is carried verbatim and never
// interpreted.
type Feature struct {
	EntityID int             `json:"entity_id"`
	Name     string          `json:"name"`
	Company  string          `json:"company,omitempty"`
	Region   string          `json:"region,omitempty"`
	Geometry json.RawMessage `json:"geometry"`
}

// ValueLookup resolves the joined value for an entity. A false result means
// the entity has no data. All yields every entity value, including entities
// without a feature.
type ValueLookup interface {
	Lookup(entityID int) (float64, bool)
	All() iter.Seq2[int, float64]
}

// EntityValues is a ValueLookup backed by a map.
type EntityValues map[int]float64

func (m EntityValues) Lookup(entityID int) (float64, bool) {
	v, ok := m[entityID]
	return v, ok
}

func (m EntityValues) All() iter.Seq2[int, float64] {
	return maps.All(m)
}

// ChoroplethValues averages field per entity for a choropleth. Absent cells
// count as 0 and stay in the denominator.
func ChoroplethValues(rows []Row, f Field) EntityValues {
	groups := AverageBy(rows, rowEntity, func(r Row) (float64, bool) { return r.ValueOrZero(f), true })
	out := make(EntityValues, len(groups))
	for _, g := range groups {
		out[g.Key] = g.Average
	}
	return out
}

// JoinedFeature is a feature decorated with its joined value.
type JoinedFeature struct {
	Feature
	Value   float64 `json:"value"`
	Matched bool    `json:"matched"`
}

// ValueDomain is the closed range of joined values. Min <= Max always holds.
type ValueDomain struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Normalize maps v into [0,1] within the domain. A degenerate domain maps
// everything to 0.
func (d ValueDomain) Normalize(v float64) float64 {
	if d.Max == d.Min {
		return 0
	}
	return (v - d.Min) / (d.Max - d.Min)
}

// ChoroplethJoin is the result of joining entity values onto features.
// Domain is nil when no entity has data.
type ChoroplethJoin struct {
	Features []JoinedFeature `json:"features"`
	Domain   *ValueDomain    `json:"domain"`
}

// Scale returns the value domain or ErrNoScale.
func (j ChoroplethJoin) Scale() (ValueDomain, error) {
	if j.Domain == nil {
		return ValueDomain{}, ErrNoScale
	}
	return *j.Domain, nil
}

// JoinChoropleth averages field per entity over rows and joins the averages
// onto features.
func JoinChoropleth(rows []Row, features []Feature, f Field) ChoroplethJoin {
	return JoinValues(features, ChoroplethValues(rows, f))
}

// JoinValues looks up each feature's value. Features without data take 0 so
// every area still renders. The domain spans the entity values, widened to
// include 0 when some feature defaulted; entities without a feature still
// count. Duplicate feature ids are looked up independently and non-finite
// values are treated as missing.
func JoinValues(features []Feature, lookup ValueLookup) ChoroplethJoin {
	out := ChoroplethJoin{Features: make([]JoinedFeature, len(features))}
	defaulted := false

	for i, feat := range features {
		v, ok := lookup.Lookup(feat.EntityID)
		if !ok || !isFinite(v) {
			v, ok = 0, false
			defaulted = true
		}
		out.Features[i] = JoinedFeature{Feature: feat, Value: v, Matched: ok}
	}

	var d *ValueDomain
	for _, v := range lookup.All() {
		if !isFinite(v) {
			continue
		}
		if d == nil {
			d = &ValueDomain{Min: v, Max: v}
			continue
		}
		d.Min = min(d.Min, v)
		d.Max = max(d.Max, v)
	}
	if d != nil && defaulted {
		d.Min = min(d.Min, 0)
		d.Max = max(d.Max, 0)
	}
	out.Domain = d
	return out
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// FindFeature returns the first feature with the given entity id.
func FindFeature(features []Feature, entityID int) (Feature, error) {
	for _, f := range features {
		if f.EntityID == entityID {
			return f, nil
		}
	}
	return Feature{}, fmt.Errorf("no feature for entity %d", entityID)
}
