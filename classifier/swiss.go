package classifier

import "math"

// Class labels of the cantonal energy balance map.
const (
	BalanceStrongDeficit  = "Fortement déficitaire"
	BalanceMediumDeficit  = "Moyennement déficitaire"
	BalanceLowDeficit     = "Faiblement déficitaire"
	BalanceLowSurplus     = "Faiblement excédentaire"
	BalanceMediumSurplus  = "Moyennement excédentaire"
	BalanceStrongSurplus  = "Fortement excédentaire"
	BalanceNoIncineration = "Pas d'installation d'incinération"
	PotentialNoData       = "Pas de données"
)

// BalanceBands are the fixed GWh thresholds of the balance map.
func BalanceBands() []Band {
	return []Band{
		{Label: BalanceStrongDeficit, Lower: math.Inf(-1), Upper: -6},
		{Label: BalanceMediumDeficit, Lower: -6, Upper: -3},
		{Label: BalanceLowDeficit, Lower: -3, Upper: 0},
		{Label: BalanceLowSurplus, Lower: 0, Upper: 3},
		{Label: BalanceMediumSurplus, Lower: 3, Upper: 6},
		{Label: BalanceStrongSurplus, Lower: 6, Upper: math.Inf(1)},
	}
}

func BalancePalette() Palette {
	return Palette{
		BalanceStrongDeficit:  "#d73027",
		BalanceMediumDeficit:  "#fc8d59",
		BalanceLowDeficit:     "#fee090",
		BalanceLowSurplus:     "#e0f3f8",
		BalanceMediumSurplus:  "#91bfdb",
		BalanceStrongSurplus:  "#4575b4",
		BalanceNoIncineration: "#ffffff",
	}
}

// PotentialBins are the GWh bin edges of the residual potential map.
func PotentialBins() []float64 {
	return []float64{0, 5, 10, 15, 20, 25, 30, 35, 40}
}

// YlOrRd is the 8-class ColorBrewer yellow-orange-red ramp.
var YlOrRd = []string{"#ffffcc", "#ffeda0", "#fed976", "#feb24c", "#fd8d3c", "#fc4e2a", "#e31a1c", "#b10026"}

// RampPalette assigns colors to the bands of s in ascending order.
func RampPalette(s *Scheme, ramp []string, noDataColor string) Palette {
	p := Palette{s.noData: noDataColor}
	for i, b := range s.bands {
		if i < len(ramp) {
			p[b.Label] = ramp[i]
		}
	}
	return p
}
