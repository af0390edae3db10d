package dashboard

import (
	"fmt"
	"log/slog"

	"github.com/royalcat/cantonmap/classifier"
	"github.com/royalcat/cantonmap/geomodel"
	"github.com/royalcat/cantonmap/regionindex"
)

// Potential backs the residual energy potential page.
type Potential struct {
	*Choropleth
	potentials map[string]geomodel.CantonPotential
}

// NewPotential colors cantons by their total potential. Cantons missing
// from the table are drawn with a potential of 0. When a canton is listed
// twice the first row is used and the others are logged.
func NewPotential(index *regionindex.Index, scheme *classifier.Scheme, palette classifier.Palette, potentials []geomodel.CantonPotential, log *slog.Logger) *Potential {
	byID := make(map[string]geomodel.CantonPotential, len(potentials))
	values := make(map[string]float64, len(potentials))
	for i, p := range potentials {
		if _, ok := byID[p.Canton]; ok {
			log.Warn("duplicate canton row, keeping the first one", "dataset", "potential", "id", p.Canton, "row", i+1)
			continue
		}
		byID[p.Canton] = p
		values[p.Canton] = p.Total
	}

	return &Potential{
		Choropleth: newChoropleth(index, scheme, palette, values, 0),
		potentials: byID,
	}
}

type FlowShare struct {
	Flow    geomodel.Flow `json:"flow"`
	Label   string        `json:"label"`
	Value   float64       `json:"value"`
	Percent float64       `json:"percent"`
}

// PotentialDetail is the composition of one canton's potential.
// Total is the sum of the flows.
type PotentialDetail struct {
	Canton string      `json:"canton"`
	Flows  []FlowShare `json:"flows"`
	Total  float64     `json:"total"`
	Class  string      `json:"class"`
	Color  string      `json:"color"`
}

func (p *Potential) Detail(id string) (PotentialDetail, error) {
	cp, ok := p.potentials[id]
	if !ok {
		return PotentialDetail{}, fmt.Errorf("potential of canton %q: %w", id, ErrNotFound)
	}

	total := cp.FlowsTotal()
	detail := PotentialDetail{
		Canton: id,
		Flows:  make([]FlowShare, 0, len(geomodel.Flows)),
		Total:  total,
	}
	for _, f := range geomodel.Flows {
		share := FlowShare{Flow: f, Label: f.Label(), Value: cp.Flows[f]}
		if total > 0 {
			share.Percent = share.Value / total * 100
		}
		detail.Flows = append(detail.Flows, share)
	}

	if cr, ok := p.Region(id); ok {
		detail.Class = cr.Class
		detail.Color = cr.Color
	}
	return detail, nil
}
