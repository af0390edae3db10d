package dashboard

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/jszwec/csvutil"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/royalcat/cantonmap/config"
	"github.com/royalcat/cantonmap/geomodel"
)

const (
	markerFillOpacity = 0.6
	ExportFileName    = "filtered_data.csv"
)

// Companies backs the companies map page.
type Companies struct {
	*Directory

	header        []string
	styles        map[string]config.MarkerStyle
	defaultMarker config.MarkerStyle
	tolerance     float64
}

// NewCompanies exports companies with header and their source rows when
// header is set, and with the modelled columns otherwise.
func NewCompanies(dir *Directory, header []string, styles map[string]config.MarkerStyle, defaultMarker config.MarkerStyle, tolerance float64) *Companies {
	return &Companies{
		Directory:     dir,
		header:        header,
		styles:        styles,
		defaultMarker: defaultMarker,
		tolerance:     tolerance,
	}
}

// Style returns the marker style of a company group.
func (c *Companies) Style(group string) config.MarkerStyle {
	if s, ok := c.styles[group]; ok {
		return s
	}
	return c.defaultMarker
}

// Markers renders companies as circle markers.
func (c *Companies) Markers(companies []geomodel.Company) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, company := range companies {
		style := c.Style(company.Group)

		f := geojson.NewFeature(orb.Point{company.Lon, company.Lat})
		f.Properties["name"] = company.Name
		f.Properties["city"] = company.City
		f.Properties["group"] = company.Group
		f.Properties["canton"] = company.Canton
		f.Properties["popup"] = company.Popup()
		f.Properties["radius"] = style.Radius
		f.Properties["color"] = style.Color
		f.Properties["fill_color"] = style.Color
		f.Properties["fill_opacity"] = markerFillOpacity
		fc.Append(f)
	}
	return fc
}

// NearestTo returns the company marker under a click, within the click tolerance.
func (c *Companies) NearestTo(lat, lon float64) (geomodel.Company, bool) {
	return c.Nearest(lat, lon, c.tolerance)
}

// Export writes companies as CSV with a header row.
func (c *Companies) Export(companies []geomodel.Company) ([]byte, error) {
	if len(c.header) > 0 {
		return c.exportRows(companies)
	}

	if len(companies) == 0 {
		header, err := csvutil.Header(geomodel.Company{}, "csv")
		if err != nil {
			return nil, fmt.Errorf("export header: %w", err)
		}
		return writeCSV(header, nil)
	}

	data, err := csvutil.Marshal(companies)
	if err != nil {
		return nil, fmt.Errorf("export companies: %w", err)
	}
	return data, nil
}

// exportRows reproduces the source file columns.
func (c *Companies) exportRows(companies []geomodel.Company) ([]byte, error) {
	rows := make([][]string, 0, len(companies))
	for _, company := range companies {
		if len(company.Row) != len(c.header) {
			return nil, fmt.Errorf("export company %q: source row has %d columns, header has %d", company.Name, len(company.Row), len(c.header))
		}
		rows = append(rows, company.Row)
	}
	return writeCSV(c.header, rows)
}

func writeCSV(header []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
