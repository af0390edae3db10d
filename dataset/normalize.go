package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
)

var coordinateColumns = []string{"latitude", "longitude"}

// NormalizeCoordinates rewrites a companies export whose latitude and
// longitude use decimal commas. The input may be comma or semicolon
// separated; the output is always comma separated with every column kept.
func NormalizeCoordinates(r io.Reader, w io.Writer) (rows int, err error) {
	data, err := io.ReadAll(skipBOM(r))
	if err != nil {
		return 0, fmt.Errorf("read input: %w", err)
	}

	records, err := readAllWith(data, ',')
	if err != nil || !hasColumns(records, coordinateColumns) {
		records, err = readAllWith(data, ';')
		if err != nil {
			return 0, fmt.Errorf("parse input: %w", err)
		}
	}
	if !hasColumns(records, coordinateColumns) {
		return 0, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(coordinateColumns, ", "))
	}

	header := records[0]
	cols := []int{slices.Index(header, "latitude"), slices.Index(header, "longitude")}
	for i, rec := range records[1:] {
		for _, c := range cols {
			v := strings.Replace(strings.TrimSpace(rec[c]), ",", ".", 1)
			if v != "" {
				if _, err := strconv.ParseFloat(v, 64); err != nil {
					return 0, fmt.Errorf("row %d column %s: invalid coordinate %q", i+1, header[c], rec[c])
				}
			}
			rec[c] = v
		}
	}

	cw := csv.NewWriter(w)
	if err := cw.WriteAll(records); err != nil {
		return 0, fmt.Errorf("write output: %w", err)
	}
	return len(records) - 1, nil
}

func readAllWith(data []byte, comma rune) ([][]string, error) {
	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = comma
	return cr.ReadAll()
}

func hasColumns(records [][]string, cols []string) bool {
	if len(records) == 0 {
		return false
	}
	for _, c := range cols {
		if !slices.Contains(records[0], c) {
			return false
		}
	}
	return true
}
