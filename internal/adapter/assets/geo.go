package assets

import (
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/couchcryptid/energy-analytics-service/internal/domain"
)

// GeoJSON wire types. Only the properties the dashboard reads are decoded;
// geometry stays raw.
type featureCollection struct {
	Type     string       `json:"type"`
	Name     string       `json:"name"`
	Features []geoFeature `json:"features"`
}

type geoFeature struct {
	Type       string          `json:"type"`
	Properties geoProperties   `json:"properties"`
	Geometry   json.RawMessage `json:"geometry"`
}

type geoProperties struct {
	ID      json.Number `json:"IDSISDAT"`
	Name    string      `json:"Arco_Nombr"`
	Company string      `json:"Empresa"`
	Region  string      `json:"Regional"`
}

// ParseGeo decodes a GeoJSON feature collection keyed by IDSISDAT.
func ParseGeo(r io.Reader) ([]domain.Feature, error) {
	var fc featureCollection
	if err := json.NewDecoder(r).Decode(&fc); err != nil {
		return nil, fmt.Errorf("decode geojson: %w", err)
	}
	if fc.Type != "" && fc.Type != "FeatureCollection" {
		return nil, fmt.Errorf("geojson: unexpected type %q", fc.Type)
	}

	out := make([]domain.Feature, 0, len(fc.Features))
	for i, f := range fc.Features {
		id, err := parseFloat(f.Properties.ID.String())
		if err != nil || id != math.Trunc(id) {
			return nil, fmt.Errorf("geojson feature %d: invalid IDSISDAT %q", i, f.Properties.ID)
		}
		out = append(out, domain.Feature{
			EntityID: int(id),
			Name:     f.Properties.Name,
			Company:  f.Properties.Company,
			Region:   f.Properties.Region,
			Geometry: f.Geometry,
		})
	}
	return out, nil
}
