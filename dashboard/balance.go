package dashboard

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/royalcat/cantonmap/classifier"
	"github.com/royalcat/cantonmap/geomodel"
	"github.com/royalcat/cantonmap/regionindex"
)

// Balance backs the energy balance page. Cantons without a value have no
// incineration plant and get the no-data class.
type Balance struct {
	*Choropleth
}

// NewBalance keeps the first row of a canton listed twice, like NewPotential.
func NewBalance(index *regionindex.Index, scheme *classifier.Scheme, palette classifier.Palette, balances []geomodel.CantonBalance, log *slog.Logger) *Balance {
	values := make(map[string]float64, len(balances))
	seen := make(map[string]bool, len(balances))
	for i, b := range balances {
		if seen[b.Canton] {
			log.Warn("duplicate canton row, keeping the first one", "dataset", "balance", "id", b.Canton, "row", i+1)
			continue
		}
		seen[b.Canton] = true
		if b.HasData() {
			values[b.Canton] = b.Balance
		}
	}
	return &Balance{Choropleth: newChoropleth(index, scheme, palette, values, math.NaN())}
}

// Detail requires the canton to exist on the map; its value may be missing.
func (b *Balance) Detail(id string) (ClassifiedRegion, error) {
	cr, ok := b.Region(id)
	if !ok {
		return ClassifiedRegion{}, fmt.Errorf("balance of canton %q: %w", id, ErrNotFound)
	}
	return cr, nil
}
