package classifier

import (
	"fmt"
	"math"
	"strconv"
)

// BinsScheme builds a scheme from ascending bin edges, as used by
// fixed-bin choropleths. Values below the first edge fall in the first bin
// and values above the last edge in the last one.
func BinsScheme(edges []float64, unit, noDataLabel string) (*Scheme, error) {
	if len(edges) < 3 {
		return nil, fmt.Errorf("%w: need at least 3 bin edges, got %d", ErrUnclassifiable, len(edges))
	}

	for i := 1; i < len(edges); i++ {
		if !(edges[i-1] < edges[i]) {
			return nil, fmt.Errorf("%w: bin edges must be ascending, got %v", ErrUnclassifiable, edges)
		}
	}

	bands := make([]Band, 0, len(edges)-1)
	for i := 0; i < len(edges)-1; i++ {
		lower, upper := edges[i], edges[i+1]
		label := formatBound(lower) + " - " + formatBound(upper)
		if unit != "" {
			label += " " + unit
		}
		if i == 0 {
			lower = math.Inf(-1)
		}
		if i == len(edges)-2 {
			upper = math.Inf(1)
		}
		bands = append(bands, Band{Label: label, Lower: lower, Upper: upper})
	}

	return NewScheme(bands, noDataLabel)
}

func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
