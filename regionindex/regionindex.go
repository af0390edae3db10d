// Package regionindex holds the named boundaries (cantons) used to fill the
// choropleth maps and to resolve map clicks.
package regionindex

import (
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"slices"

	"github.com/paulmach/orb"
	"github.com/tidwall/qtree"
)

var ErrUnsupportedGeometry = errors.New("unsupported boundary geometry")

// Boundary is an input pair for Build.
type Boundary struct {
	ID       string
	Geometry orb.Geometry
}

// Region is an indexed boundary. Label is an interior point suited for
// placing the region name.
type Region struct {
	ID       string
	Geometry orb.MultiPolygon
	Bound    orb.Bound
	Label    orb.Point
}

// Index is immutable after Build and safe for concurrent readers.
type Index struct {
	regions []Region
	byID    map[string]int
	qt      qtree.QTree
}

type options struct {
	logger *slog.Logger
}

type Option func(*options)

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// Build creates an index from boundaries in the given order.
// A repeated identifier replaces the geometry of the earlier entry (last write
// wins) and keeps its position; a warning is logged for every replacement.
func Build(boundaries []Boundary, opts ...Option) (*Index, error) {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	idx := &Index{
		regions: make([]Region, 0, len(boundaries)),
		byID:    make(map[string]int, len(boundaries)),
	}

	for _, b := range boundaries {
		mp, err := toMultiPolygon(b.Geometry)
		if err != nil {
			return nil, fmt.Errorf("region %q: %w", b.ID, err)
		}

		r := Region{ID: b.ID, Geometry: mp, Bound: mp.Bound(), Label: labelPoint(mp, labelPrecision)}
		if pos, ok := idx.byID[b.ID]; ok {
			o.logger.Warn("duplicate region identifier, replacing previous boundary", "id", b.ID, "position", pos)
			idx.regions[pos] = r
			continue
		}

		idx.byID[b.ID] = len(idx.regions)
		idx.regions = append(idx.regions, r)
	}

	for i, r := range idx.regions {
		idx.qt.Insert(r.Bound.Min, r.Bound.Max, i)
	}

	return idx, nil
}

func toMultiPolygon(g orb.Geometry) (orb.MultiPolygon, error) {
	switch g := g.(type) {
	case orb.Polygon:
		return orb.MultiPolygon{g}, nil
	case orb.MultiPolygon:
		return g, nil
	case nil:
		return nil, fmt.Errorf("%w: empty geometry", ErrUnsupportedGeometry)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedGeometry, g.GeoJSONType())
	}
}

func (idx *Index) Len() int {
	return len(idx.regions)
}

func (idx *Index) Lookup(id string) (Region, bool) {
	pos, ok := idx.byID[id]
	if !ok {
		return Region{}, false
	}
	return idx.regions[pos], true
}

// All yields regions in index order.
func (idx *Index) All() iter.Seq[Region] {
	return func(yield func(Region) bool) {
		for _, r := range idx.regions {
			if !yield(r) {
				return
			}
		}
	}
}

// Intersecting yields, in index order, the regions whose bounding box
// intersects b.
func (idx *Index) Intersecting(b orb.Bound) iter.Seq[Region] {
	return func(yield func(Region) bool) {
		var hits []int
		idx.qt.Search(b.Min, b.Max, func(_, _ [2]float64, data interface{}) bool {
			hits = append(hits, data.(int))
			return true
		})
		slices.Sort(hits)

		for _, i := range hits {
			if !yield(idx.regions[i]) {
				return
			}
		}
	}
}
