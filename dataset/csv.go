// Package dataset reads the dashboard inputs: canton boundaries (GeoJSON),
// geocoded companies and the cantonal energy tables (CSV).
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"slices"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/royalcat/cantonmap/geomodel"
)

var ErrMissingColumns = errors.New("missing required columns")

const (
	colCanton  = "Cantons"
	colBalance = "Balance_Ener [GWh]"
	colTotal   = "Pot_Ener [GWh]"
)

func potentialColumn(f geomodel.Flow) string {
	return "Pot_Ener_" + string(f) + " [GWh]"
}

type companyRecord struct {
	Lat    Decimal `csv:"latitude"`
	Lon    Decimal `csv:"longitude"`
	Group  string  `csv:"Group"`
	Canton string  `csv:"Cantons"`
	Name   string  `csv:"Companies"`
	City   string  `csv:"Cities"`
}

var companyColumns = []string{"latitude", "longitude", "Group", colCanton}

type potentialRecord struct {
	Canton string  `csv:"Cantons"`
	Flow01 Decimal `csv:"Pot_Ener_01 [GWh]"`
	Flow04 Decimal `csv:"Pot_Ener_04 [GWh]"`
	Flow08 Decimal `csv:"Pot_Ener_08 [GWh]"`
	Flow11 Decimal `csv:"Pot_Ener_11 [GWh]"`
	Total  Decimal `csv:"Pot_Ener [GWh]"`
}

type balanceRecord struct {
	Canton  string  `csv:"Cantons"`
	Balance Decimal `csv:"Balance_Ener [GWh]"`
}

func newDecoder(r io.Reader, comma rune, required []string) (*csvutil.Decoder, error) {
	cr := csv.NewReader(skipBOM(r))
	cr.Comma = comma
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	dec, err := csvutil.NewDecoder(cr)
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty file, expected %s", ErrMissingColumns, strings.Join(required, ", "))
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	header := dec.Header()
	var missing []string
	for _, col := range required {
		if !slices.Contains(header, col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	return dec, nil
}

func decodeAll[T any](dec *csvutil.Decoder) ([]T, error) {
	var out []T
	for {
		var rec T
		err := dec.Decode(&rec)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("decode record %d: %w", len(out)+1, err)
		}
		out = append(out, rec)
	}
}

// CompanyTable is the decoded companies file. Header is the source header,
// in file order, matching each company's Row.
type CompanyTable struct {
	Header    []string
	Companies []geomodel.Company
}

// DecodeCompanies reads the comma separated companies file. Rows without
// usable coordinates are skipped with a warning.
func DecodeCompanies(r io.Reader, log *slog.Logger) (CompanyTable, error) {
	dec, err := newDecoder(r, ',', companyColumns)
	if err != nil {
		return CompanyTable{}, fmt.Errorf("companies: %w", err)
	}

	table := CompanyTable{Header: slices.Clone(dec.Header())}
	for row := 1; ; row++ {
		var rec companyRecord
		err := dec.Decode(&rec)
		if errors.Is(err, io.EOF) {
			return table, nil
		}
		if err != nil {
			return CompanyTable{}, fmt.Errorf("companies: decode record %d: %w", row, err)
		}

		lat, lon := rec.Lat.Float64(), rec.Lon.Float64()
		if math.IsNaN(lat) || math.IsNaN(lon) {
			log.Warn("skipping company without coordinates", "row", row, "company", rec.Name)
			continue
		}
		table.Companies = append(table.Companies, geomodel.Company{
			Name:   rec.Name,
			City:   rec.City,
			Group:  strings.TrimSpace(rec.Group),
			Canton: strings.TrimSpace(rec.Canton),
			Lat:    lat,
			Lon:    lon,
			Row:    slices.Clone(dec.Record()),
		})
	}
}

// DecodePotentials reads the semicolon separated, decimal comma potential
// table. Unparsable values count as 0.
func DecodePotentials(r io.Reader) ([]geomodel.CantonPotential, error) {
	required := []string{colCanton, colTotal}
	for _, f := range geomodel.Flows {
		required = append(required, potentialColumn(f))
	}

	dec, err := newDecoder(r, ';', required)
	if err != nil {
		return nil, fmt.Errorf("potentials: %w", err)
	}
	records, err := decodeAll[potentialRecord](dec)
	if err != nil {
		return nil, fmt.Errorf("potentials: %w", err)
	}

	out := make([]geomodel.CantonPotential, 0, len(records))
	for _, rec := range records {
		out = append(out, geomodel.CantonPotential{
			Canton: strings.TrimSpace(rec.Canton),
			Flows: map[geomodel.Flow]float64{
				geomodel.FlowUsedSolvents:     rec.Flow01.OrZero(),
				geomodel.FlowSolventWater:     rec.Flow04.OrZero(),
				geomodel.FlowIndustrialSludge: rec.Flow08.OrZero(),
				geomodel.FlowEmulsions:        rec.Flow11.OrZero(),
			},
			Total: rec.Total.OrZero(),
		})
	}
	return out, nil
}

// DecodeBalances reads the semicolon separated, decimal comma balance table.
// Unparsable or empty values stay NaN and mean "no incineration plant".
func DecodeBalances(r io.Reader) ([]geomodel.CantonBalance, error) {
	dec, err := newDecoder(r, ';', []string{colCanton, colBalance})
	if err != nil {
		return nil, fmt.Errorf("balances: %w", err)
	}
	records, err := decodeAll[balanceRecord](dec)
	if err != nil {
		return nil, fmt.Errorf("balances: %w", err)
	}

	out := make([]geomodel.CantonBalance, 0, len(records))
	for _, rec := range records {
		out = append(out, geomodel.CantonBalance{
			Canton:  strings.TrimSpace(rec.Canton),
			Balance: rec.Balance.Float64(),
		})
	}
	return out, nil
}
