package dashboard

import (
	"math"

	"github.com/paulmach/orb/geojson"
	"github.com/royalcat/cantonmap/classifier"
	"github.com/royalcat/cantonmap/regionindex"
)

// ClassifiedRegion is one filled canton of a choropleth map.
// Value is NaN when the canton has no data. Non-finite values are rendered as
// missing.
type ClassifiedRegion struct {
	ID    string
	Value float64
	Class string
	Color string
}

func (r ClassifiedRegion) HasValue() bool {
	return !math.IsNaN(r.Value) && !math.IsInf(r.Value, 0)
}

// Choropleth joins canton values to their boundaries and classifies them.
type Choropleth struct {
	index   *regionindex.Index
	scheme  *classifier.Scheme
	palette classifier.Palette
	values  map[string]float64
	missing float64
}

// newChoropleth uses missing as the value of regions absent from values.
func newChoropleth(index *regionindex.Index, scheme *classifier.Scheme, palette classifier.Palette, values map[string]float64, missing float64) *Choropleth {
	return &Choropleth{
		index:   index,
		scheme:  scheme,
		palette: palette,
		values:  values,
		missing: missing,
	}
}

func (c *Choropleth) value(id string) float64 {
	if v, ok := c.values[id]; ok {
		return v
	}
	return c.missing
}

// Region classifies a single canton. ok is false for unknown cantons.
func (c *Choropleth) Region(id string) (ClassifiedRegion, bool) {
	if _, ok := c.index.Lookup(id); !ok {
		return ClassifiedRegion{}, false
	}
	return c.classify(id), true
}

func (c *Choropleth) classify(id string) ClassifiedRegion {
	v := c.value(id)
	class := c.scheme.Classify(v)
	return ClassifiedRegion{
		ID:    id,
		Value: v,
		Class: class,
		Color: c.palette[class],
	}
}

// Regions classifies every canton in index order.
func (c *Choropleth) Regions() []ClassifiedRegion {
	out := make([]ClassifiedRegion, 0, c.index.Len())
	for r := range c.index.All() {
		out = append(out, c.classify(r.ID))
	}
	return out
}

// Features renders the map layer. Missing values are encoded as null and
// label holds the [lon, lat] anchor of the canton name.
func (c *Choropleth) Features() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for r := range c.index.All() {
		cr := c.classify(r.ID)

		f := geojson.NewFeature(r.Geometry)
		f.ID = r.ID
		f.Properties["id"] = cr.ID
		if cr.HasValue() {
			f.Properties["value"] = cr.Value
		} else {
			f.Properties["value"] = nil
		}
		f.Properties["class"] = cr.Class
		f.Properties["fill_color"] = cr.Color
		f.Properties["label"] = []float64{r.Label[0], r.Label[1]}
		fc.Append(f)
	}
	return fc
}

func (c *Choropleth) Legend() []classifier.LegendEntry {
	return c.scheme.Legend(c.palette)
}
