// Package config holds the dashboard service settings: data files, map
// defaults, marker styles and the classification schemes of both
// choropleth maps.
package config

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/royalcat/cantonmap/classifier"
	"github.com/royalcat/cantonmap/resolver"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Listen            string  `yaml:"listen"`
	TelemetryEndpoint string  `yaml:"telemetry_endpoint"`
	Tolerance         float64 `yaml:"tolerance"`

	Data          DataConfig             `yaml:"data"`
	Map           MapConfig              `yaml:"map"`
	Groups        map[string]MarkerStyle `yaml:"groups"`
	DefaultMarker MarkerStyle            `yaml:"default_marker"`

	Balance   SchemeConfig `yaml:"balance"`
	Potential BinsConfig   `yaml:"potential"`
}

type DataConfig struct {
	Boundaries string `yaml:"boundaries"`
	Companies  string `yaml:"companies"`
	Potential  string `yaml:"potential"`
	Balance    string `yaml:"balance"`
}

type MapConfig struct {
	Lat         float64 `yaml:"lat" json:"lat"`
	Lon         float64 `yaml:"lon" json:"lon"`
	Zoom        int     `yaml:"zoom" json:"zoom"`
	Tiles       string  `yaml:"tiles" json:"tiles"`
	Attribution string  `yaml:"attribution" json:"attribution"`
}

type MarkerStyle struct {
	Color  string  `yaml:"color" json:"color"`
	Radius float64 `yaml:"radius" json:"radius"`
}

type ClassConfig struct {
	Label string `yaml:"label"`
	Color string `yaml:"color"`
}

// BandConfig leaves Lower unset on the first band and Upper unset on the last
// one to make them unbounded. YAML .inf and -.inf work as well.
type BandConfig struct {
	Label string   `yaml:"label"`
	Color string   `yaml:"color"`
	Lower *float64 `yaml:"lower"`
	Upper *float64 `yaml:"upper"`
}

type SchemeConfig struct {
	NoData ClassConfig  `yaml:"no_data"`
	Bands  []BandConfig `yaml:"bands"`
}

type BinsConfig struct {
	Edges  []float64   `yaml:"edges"`
	Unit   string      `yaml:"unit"`
	Colors []string    `yaml:"colors"`
	NoData ClassConfig `yaml:"no_data"`
}

func ConfigDefault() Config {
	balance := SchemeConfig{
		NoData: ClassConfig{Label: classifier.BalanceNoIncineration},
	}
	palette := classifier.BalancePalette()
	balance.NoData.Color = palette[classifier.BalanceNoIncineration]
	for i, b := range classifier.BalanceBands() {
		bc := BandConfig{Label: b.Label, Color: palette[b.Label]}
		if i > 0 {
			bc.Lower = ptr(b.Lower)
		}
		if !math.IsInf(b.Upper, 1) {
			bc.Upper = ptr(b.Upper)
		}
		balance.Bands = append(balance.Bands, bc)
	}

	return Config{
		Listen:    ":8080",
		Tolerance: resolver.DefaultTolerance,
		Data: DataConfig{
			Boundaries: "data/cantons.geojson",
			Companies:  "data/Companies_geocoded_all_unique_corrected.csv",
			Potential:  "data/Potentiel_Ener_Res_GWh.csv",
			Balance:    "data/Balances_Ener_01_04.csv",
		},
		Map: MapConfig{
			Lat:         46.8182,
			Lon:         8.2275,
			Zoom:        8,
			Tiles:       "CartoDB positron",
			Attribution: "© OpenStreetMap contributors, © CartoDB",
		},
		Groups: map[string]MarkerStyle{
			"Remettantes":  {Color: "green", Radius: 2},
			"Incinération": {Color: "red", Radius: 8},
			"Regroupement": {Color: "blue", Radius: 4},
		},
		DefaultMarker: MarkerStyle{Color: "gray", Radius: 5},
		Balance:       balance,
		Potential: BinsConfig{
			Edges:  classifier.PotentialBins(),
			Unit:   "GWh",
			Colors: append([]string(nil), classifier.YlOrRd...),
			NoData: ClassConfig{Label: classifier.PotentialNoData, Color: "#ffffff"},
		},
	}
}

func ptr[T any](v T) *T {
	return &v
}

// LoadFile reads a YAML file on top of ConfigDefault. Unknown keys are an error.
func LoadFile(path string) (Config, error) {
	cfg := ConfigDefault()

	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("decode config %s: %w", path, err)
	}

	return cfg, nil
}

// Schemes are the validated classifications built from a Config.
type Schemes struct {
	Balance          *classifier.Scheme
	BalancePalette   classifier.Palette
	Potential        *classifier.Scheme
	PotentialPalette classifier.Palette
}

// Validate checks the whole config and builds the classification schemes.
// Any error here is fatal at startup.
func (c Config) Validate() (Schemes, error) {
	var s Schemes

	if c.Tolerance < 0 || math.IsNaN(c.Tolerance) {
		return s, fmt.Errorf("tolerance must be a non-negative number of degrees, got %v", c.Tolerance)
	}
	if c.DefaultMarker.Color == "" {
		return s, errors.New("default marker color is empty")
	}

	var err error
	s.Balance, s.BalancePalette, err = c.Balance.build()
	if err != nil {
		return s, fmt.Errorf("balance scheme: %w", err)
	}
	s.Potential, s.PotentialPalette, err = c.Potential.build()
	if err != nil {
		return s, fmt.Errorf("potential scheme: %w", err)
	}

	return s, nil
}

func (sc SchemeConfig) build() (*classifier.Scheme, classifier.Palette, error) {
	bands := make([]classifier.Band, 0, len(sc.Bands))
	palette := classifier.Palette{sc.NoData.Label: sc.NoData.Color}

	for i, bc := range sc.Bands {
		b := classifier.Band{Label: bc.Label, Lower: math.Inf(-1), Upper: math.Inf(1)}
		switch {
		case bc.Lower != nil:
			b.Lower = *bc.Lower
		case i != 0:
			return nil, nil, fmt.Errorf("%w: band %q has no lower bound", classifier.ErrUnclassifiable, bc.Label)
		}
		switch {
		case bc.Upper != nil:
			b.Upper = *bc.Upper
		case i != len(sc.Bands)-1:
			if i+1 < len(sc.Bands) && sc.Bands[i+1].Lower != nil {
				b.Upper = *sc.Bands[i+1].Lower
			} else {
				return nil, nil, fmt.Errorf("%w: band %q has no upper bound", classifier.ErrUnclassifiable, bc.Label)
			}
		}
		bands = append(bands, b)
		palette[bc.Label] = bc.Color
	}

	scheme, err := classifier.NewScheme(bands, sc.NoData.Label)
	if err != nil {
		return nil, nil, err
	}
	if err := palette.Validate(scheme); err != nil {
		return nil, nil, err
	}
	return scheme, palette, nil
}

func (bc BinsConfig) build() (*classifier.Scheme, classifier.Palette, error) {
	scheme, err := classifier.BinsScheme(bc.Edges, bc.Unit, bc.NoData.Label)
	if err != nil {
		return nil, nil, err
	}
	if len(bc.Colors) < len(scheme.Bands()) {
		return nil, nil, fmt.Errorf("%w: %d colors for %d bins", classifier.ErrUnclassifiable, len(bc.Colors), len(scheme.Bands()))
	}
	palette := classifier.RampPalette(scheme, bc.Colors, bc.NoData.Color)
	if err := palette.Validate(scheme); err != nil {
		return nil, nil, err
	}
	return scheme, palette, nil
}
