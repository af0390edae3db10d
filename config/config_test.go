package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/royalcat/cantonmap/classifier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cantonmap.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := ConfigDefault()
	schemes, err := cfg.Validate()
	require.NoError(t, err)

	assert.Equal(t, 0.01, cfg.Tolerance)
	assert.Equal(t, classifier.BalanceStrongDeficit, schemes.Balance.Classify(-7.5))
	assert.Equal(t, classifier.BalanceMediumSurplus, schemes.Balance.Classify(3))
	assert.Equal(t, classifier.BalanceNoIncineration, schemes.Balance.Classify(math.NaN()))
	assert.Equal(t, classifier.BalancePalette(), schemes.BalancePalette)

	assert.Len(t, schemes.Potential.Bands(), 8)
	assert.Equal(t, "#ffffcc", schemes.PotentialPalette[schemes.Potential.Classify(0)])
}

func TestLoadFileOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
listen: ":9090"
tolerance: 0.02
data:
  boundaries: /srv/cantons.geojson.zst
groups:
  Regroupement:
    color: purple
    radius: 6
balance:
  no_data: {label: "n/a", color: "#eeeeee"}
  bands:
    - {label: low, color: "#ff0000", upper: 0}
    - {label: mid, color: "#00ff00", lower: 0, upper: 10}
    - {label: high, color: "#0000ff", lower: 10}
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Listen)
	assert.Equal(t, 0.02, cfg.Tolerance)
	assert.Equal(t, "/srv/cantons.geojson.zst", cfg.Data.Boundaries)
	assert.Equal(t, "data/Potentiel_Ener_Res_GWh.csv", cfg.Data.Potential)
	assert.Equal(t, MarkerStyle{Color: "purple", Radius: 6}, cfg.Groups["Regroupement"])
	assert.Equal(t, MarkerStyle{Color: "red", Radius: 8}, cfg.Groups["Incinération"])

	schemes, err := cfg.Validate()
	require.NoError(t, err)
	assert.Equal(t, "low", schemes.Balance.Classify(-1))
	assert.Equal(t, "mid", schemes.Balance.Classify(0))
	assert.Equal(t, "high", schemes.Balance.Classify(10))
	assert.Equal(t, "n/a", schemes.Balance.Classify(math.NaN()))
}

func TestLoadFileInfinityBounds(t *testing.T) {
	path := writeConfig(t, `
balance:
  no_data: {label: none, color: "#fff"}
  bands:
    - {label: neg, color: "#f00", lower: -.inf, upper: 0}
    - {label: pos, color: "#00f", lower: 0, upper: .inf}
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	schemes, err := cfg.Validate()
	require.NoError(t, err)
	assert.Equal(t, "neg", schemes.Balance.Classify(-0.1))
	assert.Equal(t, "pos", schemes.Balance.Classify(1e12))
}

func TestLoadFileEmpty(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, ConfigDefault().Listen, cfg.Listen)
}

func TestLoadFileUnknownKey(t *testing.T) {
	_, err := LoadFile(writeConfig(t, "tolerence: 0.5\n"))
	assert.Error(t, err)
}

func TestValidateRejectsMalformedSchemes(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "gap between bands", mutate: func(c *Config) {
			c.Balance.Bands[2].Lower = ptr(-2.0)
		}},
		{name: "overlapping bands", mutate: func(c *Config) {
			c.Balance.Bands[1].Upper = ptr(-2.0)
		}},
		{name: "missing color", mutate: func(c *Config) {
			c.Balance.Bands[0].Color = ""
		}},
		{name: "missing no-data color", mutate: func(c *Config) {
			c.Balance.NoData.Color = ""
		}},
		{name: "bounded first band", mutate: func(c *Config) {
			c.Balance.Bands[0].Lower = ptr(-100.0)
		}},
		{name: "too few potential colors", mutate: func(c *Config) {
			c.Potential.Colors = c.Potential.Colors[:3]
		}},
		{name: "unsorted potential bins", mutate: func(c *Config) {
			c.Potential.Edges = []float64{0, 10, 5, 20}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := ConfigDefault()
			tt.mutate(&cfg)
			_, err := cfg.Validate()
			assert.ErrorIs(t, err, classifier.ErrUnclassifiable)
		})
	}
}

func TestValidateTolerance(t *testing.T) {
	cfg := ConfigDefault()
	cfg.Tolerance = -0.01
	_, err := cfg.Validate()
	assert.Error(t, err)
}
