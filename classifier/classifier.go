// Package classifier bins continuous values into ordered, labelled classes
// for choropleth fills and legends.
package classifier

import (
	"errors"
	"fmt"
	"math"
)

// ErrUnclassifiable is returned when bands do not partition the real line.
var ErrUnclassifiable = errors.New("unclassifiable bands")

// Band covers [Lower, Upper). The last band of a scheme also matches values
// equal to or above its Lower bound.
type Band struct {
	Label string
	Lower float64
	Upper float64
}

func (b Band) contains(v float64) bool {
	return b.Lower <= v && v < b.Upper
}

type Scheme struct {
	bands  []Band
	noData string
}

// NewScheme validates bands, which must be given in ascending order.
func NewScheme(bands []Band, noDataLabel string) (*Scheme, error) {
	if len(bands) == 0 {
		return nil, fmt.Errorf("%w: no bands", ErrUnclassifiable)
	}
	if noDataLabel == "" {
		return nil, fmt.Errorf("%w: empty no-data label", ErrUnclassifiable)
	}
	if !math.IsInf(bands[0].Lower, -1) {
		return nil, fmt.Errorf("%w: first band %q must start at -Inf, got %v", ErrUnclassifiable, bands[0].Label, bands[0].Lower)
	}
	if last := bands[len(bands)-1]; !math.IsInf(last.Upper, 1) {
		return nil, fmt.Errorf("%w: last band %q must end at +Inf, got %v", ErrUnclassifiable, last.Label, last.Upper)
	}

	seen := make(map[string]struct{}, len(bands))
	for i, b := range bands {
		if b.Label == "" {
			return nil, fmt.Errorf("%w: band %d has no label", ErrUnclassifiable, i)
		}
		if b.Label == noDataLabel {
			return nil, fmt.Errorf("%w: band %q uses the no-data label", ErrUnclassifiable, b.Label)
		}
		if _, ok := seen[b.Label]; ok {
			return nil, fmt.Errorf("%w: duplicate label %q", ErrUnclassifiable, b.Label)
		}
		seen[b.Label] = struct{}{}

		if math.IsNaN(b.Lower) || math.IsNaN(b.Upper) || !(b.Lower < b.Upper) {
			return nil, fmt.Errorf("%w: band %q has empty range [%v, %v)", ErrUnclassifiable, b.Label, b.Lower, b.Upper)
		}
		if i > 0 {
			prev := bands[i-1]
			switch {
			case prev.Upper < b.Lower:
				return nil, fmt.Errorf("%w: gap between %q and %q", ErrUnclassifiable, prev.Label, b.Label)
			case prev.Upper > b.Lower:
				return nil, fmt.Errorf("%w: %q overlaps %q", ErrUnclassifiable, prev.Label, b.Label)
			}
		}
	}

	return &Scheme{
		bands:  append([]Band(nil), bands...),
		noData: noDataLabel,
	}, nil
}

// Bands returns a copy of the bands in ascending order.
func (s *Scheme) Bands() []Band {
	return append([]Band(nil), s.bands...)
}

func (s *Scheme) NoDataLabel() string {
	return s.noData
}

// Band returns the band v falls in. ok is false for NaN.
func (s *Scheme) Band(v float64) (Band, bool) {
	if math.IsNaN(v) {
		return Band{}, false
	}

	last := len(s.bands) - 1
	for _, b := range s.bands[:last] {
		if b.contains(v) {
			return b, true
		}
	}

	// validated schemes cover the whole line, the catch-all always matches
	return s.bands[last], true
}

// Classify returns the label of the band v falls in, or the no-data label
// for NaN.
func (s *Scheme) Classify(v float64) string {
	b, ok := s.Band(v)
	if !ok {
		return s.noData
	}
	return b.Label
}
