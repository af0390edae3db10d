package geomodel

import (
	"math"
)

// Company is a geocoded row of the companies dataset. Row holds the source
// cells in file column order when the company was read from a file.
type Company struct {
	Name   string  `csv:"Companies" json:"name"`
	City   string  `csv:"Cities" json:"city"`
	Group  string  `csv:"Group" json:"group"`
	Canton string  `csv:"Cantons" json:"canton"`
	Lat    float64 `csv:"latitude" json:"lat"`
	Lon    float64 `csv:"longitude" json:"lon"`

	Row []string `csv:"-" json:"-"`
}

// Popup is the marker caption shown on the companies map.
func (c Company) Popup() string {
	return c.Name + " - " + c.City + " (" + c.Group + ")"
}

// Flow identifies one of the waste streams contributing to the energy potential.
type Flow string

const (
	FlowUsedSolvents     Flow = "01"
	FlowSolventWater     Flow = "04"
	FlowIndustrialSludge Flow = "08"
	FlowEmulsions        Flow = "11"
)

// Flows in display order.
var Flows = []Flow{FlowUsedSolvents, FlowSolventWater, FlowIndustrialSludge, FlowEmulsions}

func (f Flow) Label() string {
	switch f {
	case FlowUsedSolvents:
		return "Solvants usagés"
	case FlowSolventWater:
		return "Eaux solvantées"
	case FlowIndustrialSludge:
		return "Boues industrielles"
	case FlowEmulsions:
		return "Émulsions"
	}
	return string(f)
}

// CantonPotential is the residual energy potential of a canton in GWh.
type CantonPotential struct {
	Canton string
	Flows  map[Flow]float64
	Total  float64
}

// FlowsTotal sums the individual flows. It can differ from Total, which is
// taken as-is from the dataset.
func (p CantonPotential) FlowsTotal() float64 {
	var sum float64
	for _, f := range Flows {
		sum += p.Flows[f]
	}
	return sum
}

// CantonBalance is the energy balance between flows 04 and 01 in GWh.
// Balance is NaN when the canton has no incineration plant.
type CantonBalance struct {
	Canton  string
	Balance float64
}

func (b CantonBalance) HasData() bool {
	return !math.IsNaN(b.Balance) && !math.IsInf(b.Balance, 0)
}
