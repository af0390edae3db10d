package classifier

import (
	"fmt"
	"math"
)

// Palette maps class labels to display colors.
type Palette map[string]string

// Validate checks that every class of s, including no-data, has a color.
func (p Palette) Validate(s *Scheme) error {
	for _, b := range s.bands {
		if p[b.Label] == "" {
			return fmt.Errorf("%w: no color for %q", ErrUnclassifiable, b.Label)
		}
	}
	if p[s.noData] == "" {
		return fmt.Errorf("%w: no color for %q", ErrUnclassifiable, s.noData)
	}
	return nil
}

type LegendEntry struct {
	Label string `json:"label"`
	Range string `json:"range,omitempty"`
	Color string `json:"color"`
}

// Legend lists the classes from the highest band down, with the no-data
// entry last.
func (s *Scheme) Legend(p Palette) []LegendEntry {
	entries := make([]LegendEntry, 0, len(s.bands)+1)
	last := len(s.bands) - 1
	for i := last; i >= 0; i-- {
		b := s.bands[i]
		entries = append(entries, LegendEntry{
			Label: b.Label,
			Range: rangeText(b, i == 0, i == last),
			Color: p[b.Label],
		})
	}
	entries = append(entries, LegendEntry{Label: s.noData, Color: p[s.noData]})
	return entries
}

func rangeText(b Band, first, last bool) string {
	switch {
	case first && last:
		return ""
	case last:
		return "≥ " + formatBound(b.Lower)
	case first:
		return "< " + formatBound(b.Upper)
	}
	if math.IsInf(b.Lower, 0) || math.IsInf(b.Upper, 0) {
		return ""
	}
	return "[" + formatBound(b.Lower) + ", " + formatBound(b.Upper) + "["
}
