// Package resolver maps a clicked map coordinate to the canton it falls in.
//
// Geometry is unprojected lon/lat, so the tolerance is a fixed number of
// degrees rather than a fixed distance. Over the latitude range of
// Switzerland the resulting ellipse is close enough to a circle.
package resolver

import (
	"log/slog"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/royalcat/cantonmap/regionindex"
)

// DefaultTolerance is roughly one kilometre.
const DefaultTolerance float64 = 0.01

type Resolver struct {
	index *regionindex.Index

	tolerance float64
	logger    *slog.Logger
}

func New(index *regionindex.Index, opts ...Option) *Resolver {
	options := loadOptions(opts...)
	options.logger.Debug("Initializing resolver", "regions", index.Len(), "tolerance", options.tolerance)

	return &Resolver{
		index:     index,
		tolerance: options.tolerance,
		logger:    options.logger,
	}
}

func (r *Resolver) Tolerance() float64 {
	return r.tolerance
}

// Resolve returns the identifier of the region under the clicked point,
// using the configured tolerance.
func (r *Resolver) Resolve(lat, lon float64) (string, bool) {
	return r.ResolveWithin(orb.Point{lon, lat}, r.tolerance)
}

// ResolveWithin returns the first region, in index order, whose boundary
// intersects the disk of the given radius around p.
func (r *Resolver) ResolveWithin(p orb.Point, radius float64) (string, bool) {
	search := orb.Bound{Min: p, Max: p}.Pad(radius)

	for region := range r.index.Intersecting(search) {
		if diskIntersects(region.Geometry, p, radius) {
			return region.ID, true
		}
	}

	return "", false
}

func diskIntersects(mp orb.MultiPolygon, center orb.Point, radius float64) bool {
	if planar.MultiPolygonContains(mp, center) {
		return true
	}
	return planar.DistanceFrom(mp, center) <= radius
}
