package dashboard

import (
	"errors"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/royalcat/cantonmap/classifier"
	"github.com/royalcat/cantonmap/config"
	"github.com/royalcat/cantonmap/dataset"
	"github.com/royalcat/cantonmap/geomodel"
	"github.com/royalcat/cantonmap/regionindex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thejerf/slogassert"
)

func square(minX, minY, maxX, maxY float64) orb.Polygon {
	return orb.Polygon{orb.Ring{
		{minX, minY}, {maxX, minY}, {maxX, maxY}, {minX, maxY}, {minX, minY},
	}}
}

var testCompanies = []geomodel.Company{
	{Name: "Cadres SA", City: "Genève", Group: "Remettantes", Canton: "GE", Lat: 46.2044, Lon: 6.1432},
	{Name: "Tridel", City: "Lausanne", Group: "Incinération", Canton: "VD", Lat: 46.53, Lon: 6.64},
	{Name: "Cheneviers", City: "Aire-la-Ville", Group: "Incinération", Canton: "GE", Lat: 46.179, Lon: 6.043},
	{Name: "Sogetri", City: "Genève", Group: "Regroupement", Canton: "GE", Lat: 46.17, Lon: 6.11},
	{Name: "Delley", City: "Delémont", Group: "Tri", Canton: "JU", Lat: 47.36, Lon: 7.34},
}

func testDataset() *dataset.Dataset {
	return &dataset.Dataset{
		Boundaries: []regionindex.Boundary{
			{ID: "GE", Geometry: square(5.95, 46.13, 6.31, 46.37)},
			{ID: "VD", Geometry: square(6.32, 46.19, 7.24, 46.99)},
			{ID: "JU", Geometry: square(6.84, 47.15, 7.56, 47.5)},
		},
		Companies: testCompanies,
		Potentials: []geomodel.CantonPotential{
			{Canton: "GE", Total: 17.25, Flows: map[geomodel.Flow]float64{
				geomodel.FlowUsedSolvents: 12.5, geomodel.FlowSolventWater: 3.25,
				geomodel.FlowIndustrialSludge: 0.5, geomodel.FlowEmulsions: 1,
			}},
			{Canton: "VD", Total: 0, Flows: map[geomodel.Flow]float64{}},
		},
		Balances: []geomodel.CantonBalance{
			{Canton: "GE", Balance: -7.5},
			{Canton: "VD", Balance: 3},
			{Canton: "JU", Balance: math.NaN()},
		},
	}
}

func newTestDashboard(t *testing.T) *Dashboard {
	t.Helper()
	cfg := config.ConfigDefault()
	schemes, err := cfg.Validate()
	require.NoError(t, err)

	d, err := New(testDataset(), cfg, schemes, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	return d
}

func TestNewWarnsOnUnmatchedCantons(t *testing.T) {
	cfg := config.ConfigDefault()
	schemes, err := cfg.Validate()
	require.NoError(t, err)

	ds := testDataset()
	ds.Balances = append(ds.Balances, geomodel.CantonBalance{Canton: "Genf", Balance: 1})

	handler := slogassert.New(t, slog.LevelWarn, nil)
	_, err = New(ds, cfg, schemes, slog.New(handler))
	require.NoError(t, err)
	handler.AssertMessage("dataset identifiers without boundary")
}

func TestDirectoryFacets(t *testing.T) {
	dir := NewDirectory(testCompanies)

	assert.Equal(t, 5, dir.Len())
	assert.Equal(t, []string{"GE", "JU", "VD"}, dir.Cantons())
	assert.Equal(t, []string{"Remettantes", "Incinération", "Regroupement", "Tri"}, dir.Groups())
}

func names(companies []geomodel.Company) []string {
	out := []string{}
	for _, c := range companies {
		out = append(out, c.Name)
	}
	return out
}

func TestDirectoryFilter(t *testing.T) {
	dir := NewDirectory(testCompanies)

	tests := []struct {
		name     string
		filter   Filter
		expected []string
	}{
		{name: "everything", filter: Filter{}, expected: []string{"Cadres SA", "Tridel", "Cheneviers", "Sogetri", "Delley"}},
		{name: "all cantons keyword", filter: Filter{Canton: AllCantons, Groups: []string{"Incinération"}}, expected: []string{"Tridel", "Cheneviers"}},
		{name: "one canton keeps file order", filter: Filter{Canton: "GE"}, expected: []string{"Cadres SA", "Cheneviers", "Sogetri"}},
		{name: "canton and group", filter: Filter{Canton: "GE", Groups: []string{"Regroupement", "Remettantes"}}, expected: []string{"Cadres SA", "Sogetri"}},
		{name: "no group selected", filter: Filter{Groups: []string{}}, expected: []string{}},
		{name: "unknown canton", filter: Filter{Canton: "TI"}, expected: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, names(dir.Filter(tt.filter)))
		})
	}
}

func TestDirectoryNearest(t *testing.T) {
	dir := NewDirectory(testCompanies)

	c, ok := dir.Nearest(46.205, 6.144, 0.01)
	require.True(t, ok)
	assert.Equal(t, "Cadres SA", c.Name)

	_, ok = dir.Nearest(46.0, 9.0, 0.01)
	assert.False(t, ok)

	// inside the search box but outside the circle
	_, ok = dir.Nearest(46.2044+0.009, 6.1432+0.009, 0.01)
	assert.False(t, ok)
}

func TestCompaniesMarkers(t *testing.T) {
	d := newTestDashboard(t)

	fc := d.Companies.Markers(d.Companies.Filter(Filter{Canton: "JU"}))
	require.Len(t, fc.Features, 1)
	f := fc.Features[0]
	assert.Equal(t, orb.Point{7.34, 47.36}, f.Geometry)
	assert.Equal(t, "gray", f.Properties["color"])
	assert.Equal(t, 5.0, f.Properties["radius"])
	assert.Equal(t, "Delley - Delémont (Tri)", f.Properties["popup"])

	assert.Equal(t, config.MarkerStyle{Color: "red", Radius: 8}, d.Companies.Style("Incinération"))
}

func TestCompaniesExport(t *testing.T) {
	d := newTestDashboard(t)

	data, err := d.Companies.Export(d.Companies.Filter(Filter{Canton: "VD"}))
	require.NoError(t, err)
	assert.Equal(t, "Companies,Cities,Group,Cantons,latitude,longitude\nTridel,Lausanne,Incinération,VD,46.53,6.64\n", string(data))

	data, err = d.Companies.Export(nil)
	require.NoError(t, err)
	assert.Equal(t, "Companies,Cities,Group,Cantons,latitude,longitude\n", string(data))

	roundTrip, err := dataset.DecodeCompanies(strings.NewReader(string(mustExport(t, d))), slog.Default())
	require.NoError(t, err)
	for i := range roundTrip.Companies {
		roundTrip.Companies[i].Row = nil
	}
	assert.Equal(t, testCompanies, roundTrip.Companies)
}

func TestCompaniesExportKeepsSourceColumns(t *testing.T) {
	const source = "Cities,Companies,Notes,Group,Cantons,longitude,latitude\n" +
		"Genève,Cadres SA,\"client, 2021\",Remettantes,GE,\"6,1432\",\"46,2044\"\n" +
		"Lausanne,Tridel,,Incinération,VD,6.64,46.53\n"

	table, err := dataset.DecodeCompanies(strings.NewReader(source), slog.Default())
	require.NoError(t, err)

	cfg := config.ConfigDefault()
	schemes, err := cfg.Validate()
	require.NoError(t, err)

	ds := testDataset()
	ds.Companies, ds.CompanyHeader = table.Companies, table.Header
	d, err := New(ds, cfg, schemes, slog.New(slog.DiscardHandler))
	require.NoError(t, err)

	data, err := d.Companies.Export(d.Companies.Filter(Filter{Canton: "GE"}))
	require.NoError(t, err)
	assert.Equal(t, "Cities,Companies,Notes,Group,Cantons,longitude,latitude\n"+
		"Genève,Cadres SA,\"client, 2021\",Remettantes,GE,\"6,1432\",\"46,2044\"\n", string(data))

	data, err = d.Companies.Export(nil)
	require.NoError(t, err)
	assert.Equal(t, "Cities,Companies,Notes,Group,Cantons,longitude,latitude\n", string(data))

	_, err = d.Companies.Export(testCompanies[:1])
	assert.Error(t, err)
}

func mustExport(t *testing.T, d *Dashboard) []byte {
	t.Helper()
	data, err := d.Companies.Export(d.Companies.Filter(Filter{}))
	require.NoError(t, err)
	return data
}

func TestPotentialDetail(t *testing.T) {
	d := newTestDashboard(t)

	detail, err := d.Potential.Detail("GE")
	require.NoError(t, err)
	assert.Equal(t, 17.25, detail.Total)
	require.Len(t, detail.Flows, 4)
	assert.Equal(t, "Solvants usagés", detail.Flows[0].Label)
	assert.InDelta(t, 12.5/17.25*100, detail.Flows[0].Percent, 1e-9)
	assert.Equal(t, "Émulsions", detail.Flows[3].Label)
	assert.Equal(t, "15 - 20 GWh", detail.Class)
	assert.Equal(t, "#feb24c", detail.Color)

	detail, err = d.Potential.Detail("VD")
	require.NoError(t, err)
	assert.Equal(t, 0.0, detail.Flows[0].Percent)

	_, err = d.Potential.Detail("JU")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestPotentialDuplicateCantonKeepsFirstRow(t *testing.T) {
	cfg := config.ConfigDefault()
	schemes, err := cfg.Validate()
	require.NoError(t, err)

	ds := testDataset()
	ds.Potentials = append(ds.Potentials, geomodel.CantonPotential{
		Canton: "GE", Total: 1, Flows: map[geomodel.Flow]float64{geomodel.FlowEmulsions: 1},
	})

	handler := slogassert.New(t, slog.LevelWarn, nil)
	d, err := New(ds, cfg, schemes, slog.New(handler))
	require.NoError(t, err)
	handler.AssertMessage("duplicate canton row, keeping the first one")

	detail, err := d.Potential.Detail("GE")
	require.NoError(t, err)
	assert.Equal(t, 17.25, detail.Total)

	ge, ok := d.Potential.Region("GE")
	require.True(t, ok)
	assert.Equal(t, 17.25, ge.Value)
}

func TestNonFiniteBalanceIsNoData(t *testing.T) {
	cfg := config.ConfigDefault()
	schemes, err := cfg.Validate()
	require.NoError(t, err)

	ds := testDataset()
	ds.Balances[0].Balance = math.Inf(1)
	d, err := New(ds, cfg, schemes, slog.New(slog.DiscardHandler))
	require.NoError(t, err)

	ge, err := d.Balance.Detail("GE")
	require.NoError(t, err)
	assert.False(t, ge.HasValue())
	assert.Equal(t, classifier.BalanceNoIncineration, ge.Class)

	_, err = d.Balance.Features().MarshalJSON()
	require.NoError(t, err)

	assert.False(t, ClassifiedRegion{Value: math.Inf(-1)}.HasValue())
}

func TestPotentialChoroplethFillsMissingWithZero(t *testing.T) {
	d := newTestDashboard(t)

	ju, ok := d.Potential.Region("JU")
	require.True(t, ok)
	assert.Equal(t, 0.0, ju.Value)
	assert.Equal(t, "0 - 5 GWh", ju.Class)

	regions := d.Potential.Regions()
	require.Len(t, regions, 3)
	assert.Equal(t, "GE", regions[0].ID)
}

func TestBalanceDetail(t *testing.T) {
	d := newTestDashboard(t)

	ge, err := d.Balance.Detail("GE")
	require.NoError(t, err)
	assert.Equal(t, classifier.BalanceStrongDeficit, ge.Class)
	assert.Equal(t, "#d73027", ge.Color)

	vd, err := d.Balance.Detail("VD")
	require.NoError(t, err)
	assert.Equal(t, classifier.BalanceMediumSurplus, vd.Class)

	ju, err := d.Balance.Detail("JU")
	require.NoError(t, err)
	assert.False(t, ju.HasValue())
	assert.Equal(t, classifier.BalanceNoIncineration, ju.Class)
	assert.Equal(t, "#ffffff", ju.Color)

	_, err = d.Balance.Detail("TI")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBalanceFeatures(t *testing.T) {
	d := newTestDashboard(t)

	fc := d.Balance.Features()
	require.Len(t, fc.Features, 3)

	ge := fc.Features[0]
	assert.Equal(t, "GE", ge.ID)
	assert.Equal(t, -7.5, ge.Properties["value"])
	assert.Equal(t, "#d73027", ge.Properties["fill_color"])
	label := ge.Properties["label"].([]float64)
	assert.InDelta(t, 6.13, label[0], 0.07)
	assert.InDelta(t, 46.25, label[1], 0.01)

	ju := fc.Features[2]
	assert.Nil(t, ju.Properties["value"])
	assert.Equal(t, classifier.BalanceNoIncineration, ju.Properties["class"])

	_, err := fc.MarshalJSON()
	require.NoError(t, err)

	legend := d.Balance.Legend()
	require.Len(t, legend, 7)
	assert.Equal(t, classifier.BalanceStrongSurplus, legend[0].Label)
}

func TestSelect(t *testing.T) {
	d := newTestDashboard(t)

	assert.Equal(t, "GE", d.Select(" ge ", nil))
	assert.Equal(t, "Bern", d.Select("Bern", nil))
	assert.Equal(t, "", d.Select("", nil))

	inVaud := orb.Point{6.6323, 46.5197}
	assert.Equal(t, "VD", d.Select("ge", &inVaud))

	lake := orb.Point{6.6, 46.0}
	assert.Equal(t, "GE", d.Select("GE", &lake))
}
