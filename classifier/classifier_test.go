package classifier

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func balanceScheme(t *testing.T) *Scheme {
	t.Helper()
	s, err := NewScheme(BalanceBands(), BalanceNoIncineration)
	require.NoError(t, err)
	return s
}

func TestClassifyBalance(t *testing.T) {
	s := balanceScheme(t)

	tests := []struct {
		name     string
		value    float64
		expected string
	}{
		{name: "far below first threshold", value: -7.5, expected: BalanceStrongDeficit},
		{name: "negative infinity", value: math.Inf(-1), expected: BalanceStrongDeficit},
		{name: "lower edge is inclusive", value: -6.0, expected: BalanceMediumDeficit},
		{name: "just below upper edge", value: -3.0000001, expected: BalanceMediumDeficit},
		{name: "minus three", value: -3, expected: BalanceLowDeficit},
		{name: "zero", value: 0, expected: BalanceLowSurplus},
		{name: "negative zero", value: math.Copysign(0, -1), expected: BalanceLowSurplus},
		{name: "three", value: 3.0, expected: BalanceMediumSurplus},
		{name: "six lands in catch-all", value: 6.0, expected: BalanceStrongSurplus},
		{name: "large surplus", value: 1e9, expected: BalanceStrongSurplus},
		{name: "positive infinity", value: math.Inf(1), expected: BalanceStrongSurplus},
		{name: "missing value", value: math.NaN(), expected: BalanceNoIncineration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, s.Classify(tt.value))
		})
	}
}

func TestClassifyIdempotent(t *testing.T) {
	s := balanceScheme(t)
	for _, v := range []float64{-7.5, -6, 0, 2.99, 6, math.NaN()} {
		assert.Equal(t, s.Classify(v), s.Classify(v))
	}
}

func TestClassifyTotal(t *testing.T) {
	s := balanceScheme(t)
	labels := map[string]bool{}
	for _, b := range s.Bands() {
		labels[b.Label] = true
	}

	for v := -20.0; v <= 20; v += 0.25 {
		b, ok := s.Band(v)
		require.True(t, ok)
		require.True(t, labels[b.Label], "value %v classified as unknown %q", v, b.Label)

		matches := 0
		for i, band := range s.Bands() {
			if band.contains(v) || (i == len(s.Bands())-1 && v >= band.Lower) {
				matches++
			}
		}
		require.Equal(t, 1, matches, "value %v matched %d bands", v, matches)
	}
}

func TestNoDataForEveryScheme(t *testing.T) {
	bins, err := BinsScheme(PotentialBins(), "GWh", PotentialNoData)
	require.NoError(t, err)

	for _, s := range []*Scheme{balanceScheme(t), bins} {
		assert.Equal(t, s.NoDataLabel(), s.Classify(math.NaN()))
		_, ok := s.Band(math.NaN())
		assert.False(t, ok)
	}
}

func TestNewSchemeRejectsMalformedBands(t *testing.T) {
	inf := math.Inf(1)
	tests := []struct {
		name  string
		bands []Band
	}{
		{name: "empty", bands: nil},
		{name: "bounded below", bands: []Band{{Label: "a", Lower: 0, Upper: inf}}},
		{name: "bounded above", bands: []Band{{Label: "a", Lower: -inf, Upper: 10}}},
		{name: "gap", bands: []Band{{Label: "a", Lower: -inf, Upper: 0}, {Label: "b", Lower: 1, Upper: inf}}},
		{name: "overlap", bands: []Band{{Label: "a", Lower: -inf, Upper: 2}, {Label: "b", Lower: 1, Upper: inf}}},
		{name: "empty range", bands: []Band{{Label: "a", Lower: -inf, Upper: 0}, {Label: "b", Lower: 0, Upper: 0}, {Label: "c", Lower: 0, Upper: inf}}},
		{name: "descending", bands: []Band{{Label: "a", Lower: 0, Upper: inf}, {Label: "b", Lower: -inf, Upper: 0}}},
		{name: "duplicate label", bands: []Band{{Label: "a", Lower: -inf, Upper: 0}, {Label: "a", Lower: 0, Upper: inf}}},
		{name: "missing label", bands: []Band{{Lower: -inf, Upper: inf}}},
		{name: "no-data label reused", bands: []Band{{Label: "none", Lower: -inf, Upper: inf}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewScheme(tt.bands, "none")
			assert.ErrorIs(t, err, ErrUnclassifiable)
		})
	}

	_, err := NewScheme([]Band{{Label: "all", Lower: -inf, Upper: inf}}, "")
	assert.ErrorIs(t, err, ErrUnclassifiable)
}

func TestNewSchemeCopiesBands(t *testing.T) {
	bands := BalanceBands()
	s, err := NewScheme(bands, BalanceNoIncineration)
	require.NoError(t, err)

	bands[0].Label = "changed"
	assert.Equal(t, BalanceStrongDeficit, s.Classify(-10))
}

func TestBinsScheme(t *testing.T) {
	s, err := BinsScheme(PotentialBins(), "GWh", PotentialNoData)
	require.NoError(t, err)

	bands := s.Bands()
	require.Len(t, bands, 8)
	assert.Equal(t, "0 - 5 GWh", bands[0].Label)
	assert.True(t, math.IsInf(bands[0].Lower, -1))
	assert.Equal(t, "35 - 40 GWh", bands[7].Label)
	assert.True(t, math.IsInf(bands[7].Upper, 1))

	assert.Equal(t, "0 - 5 GWh", s.Classify(-1))
	assert.Equal(t, "5 - 10 GWh", s.Classify(5))
	assert.Equal(t, "35 - 40 GWh", s.Classify(72.4))

	_, err = BinsScheme([]float64{0, 5}, "", PotentialNoData)
	assert.ErrorIs(t, err, ErrUnclassifiable)
	_, err = BinsScheme([]float64{0, 10, 5}, "", PotentialNoData)
	assert.ErrorIs(t, err, ErrUnclassifiable)
}

func TestLegend(t *testing.T) {
	s := balanceScheme(t)
	p := BalancePalette()
	require.NoError(t, p.Validate(s))

	legend := s.Legend(p)
	expected := []LegendEntry{
		{Label: BalanceStrongSurplus, Range: "≥ 6", Color: "#4575b4"},
		{Label: BalanceMediumSurplus, Range: "[3, 6[", Color: "#91bfdb"},
		{Label: BalanceLowSurplus, Range: "[0, 3[", Color: "#e0f3f8"},
		{Label: BalanceLowDeficit, Range: "[-3, 0[", Color: "#fee090"},
		{Label: BalanceMediumDeficit, Range: "[-6, -3[", Color: "#fc8d59"},
		{Label: BalanceStrongDeficit, Range: "< -6", Color: "#d73027"},
		{Label: BalanceNoIncineration, Color: "#ffffff"},
	}
	assert.Equal(t, expected, legend)
}

func TestPaletteValidate(t *testing.T) {
	s := balanceScheme(t)

	p := BalancePalette()
	delete(p, BalanceNoIncineration)
	assert.ErrorIs(t, p.Validate(s), ErrUnclassifiable)

	p = BalancePalette()
	delete(p, BalanceLowSurplus)
	assert.ErrorIs(t, p.Validate(s), ErrUnclassifiable)
}

func TestRampPalette(t *testing.T) {
	s, err := BinsScheme(PotentialBins(), "GWh", PotentialNoData)
	require.NoError(t, err)

	p := RampPalette(s, YlOrRd, "#ffffff")
	require.NoError(t, p.Validate(s))
	assert.Equal(t, "#ffffcc", p["0 - 5 GWh"])
	assert.Equal(t, "#b10026", p["35 - 40 GWh"])
}
