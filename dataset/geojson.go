package dataset

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/paulmach/orb/geojson"
	"github.com/royalcat/cantonmap/regionindex"
)

// DecodeBoundaries reads a GeoJSON feature collection of canton polygons.
// The canton identifier comes from the "id" property, or the feature id when
// the property is absent.
func DecodeBoundaries(r io.Reader) ([]regionindex.Boundary, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read boundaries: %w", err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decode boundaries: %w", err)
	}

	out := make([]regionindex.Boundary, 0, len(fc.Features))
	for i, f := range fc.Features {
		id := featureID(f)
		if id == "" {
			return nil, fmt.Errorf("boundary feature %d has no id", i)
		}
		out = append(out, regionindex.Boundary{ID: id, Geometry: f.Geometry})
	}
	return out, nil
}

func featureID(f *geojson.Feature) string {
	if v, ok := f.Properties["id"]; ok && v != nil {
		return stringify(v)
	}
	if f.ID != nil {
		return stringify(f.ID)
	}
	return ""
}

func stringify(v any) string {
	switch v := v.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
