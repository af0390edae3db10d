package dataset

import (
	"math"
	"strconv"
	"strings"
)

// Decimal parses numbers written with either a decimal point or a decimal
// comma. Empty, unparsable and non-finite cells decode to NaN instead of
// failing.
type Decimal float64

func (d *Decimal) UnmarshalCSV(data []byte) error {
	*d = Decimal(parseDecimal(string(data)))
	return nil
}

func (d Decimal) Float64() float64 {
	return float64(d)
}

// OrZero replaces NaN by 0.
func (d Decimal) OrZero() float64 {
	if math.IsNaN(float64(d)) {
		return 0
	}
	return float64(d)
}

func parseDecimal(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil || math.IsInf(v, 0) {
		return math.NaN()
	}
	return v
}
