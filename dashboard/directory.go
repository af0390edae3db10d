package dashboard

import (
	"math"
	"slices"

	"github.com/google/btree"
	"github.com/paulmach/orb"
	"github.com/royalcat/cantonmap/geomodel"
	"github.com/tidwall/qtree"
)

// AllCantons selects every canton in a company filter.
const AllCantons = "Tous"

type directoryEntry struct {
	canton string
	seq    int
}

func lessEntry(a, b directoryEntry) bool {
	if a.canton != b.canton {
		return a.canton < b.canton
	}
	return a.seq < b.seq
}

// Directory is the read-only company table behind the companies map.
type Directory struct {
	companies []geomodel.Company
	byCanton  *btree.BTreeG[directoryEntry]
	points    qtree.QTree
	cantons   []string
	groups    []string
}

func NewDirectory(companies []geomodel.Company) *Directory {
	d := &Directory{
		companies: companies,
		byCanton:  btree.NewG(8, lessEntry),
	}

	seenGroup := map[string]bool{}
	for i, c := range companies {
		d.byCanton.ReplaceOrInsert(directoryEntry{canton: c.Canton, seq: i})
		p := orb.Point{c.Lon, c.Lat}
		d.points.Insert(p, p, i)

		if !seenGroup[c.Group] {
			seenGroup[c.Group] = true
			d.groups = append(d.groups, c.Group)
		}
	}

	d.byCanton.Ascend(func(e directoryEntry) bool {
		if n := len(d.cantons); n == 0 || d.cantons[n-1] != e.canton {
			d.cantons = append(d.cantons, e.canton)
		}
		return true
	})

	return d
}

func (d *Directory) Len() int {
	return len(d.companies)
}

// Cantons returns the distinct cantons in ascending order.
func (d *Directory) Cantons() []string {
	return slices.Clone(d.cantons)
}

// Groups returns the distinct company groups in order of first appearance.
func (d *Directory) Groups() []string {
	return slices.Clone(d.groups)
}

// Filter selects companies of a canton (empty or AllCantons for every canton)
// whose group is listed. A nil group list keeps every group, an empty
// non-nil one keeps none.
type Filter struct {
	Canton string
	Groups []string
}

func (f Filter) allCantons() bool {
	return f.Canton == "" || f.Canton == AllCantons
}

func (f Filter) keepGroup(g string) bool {
	return f.Groups == nil || slices.Contains(f.Groups, g)
}

// Filter returns matching companies in file order.
func (d *Directory) Filter(f Filter) []geomodel.Company {
	out := []geomodel.Company{}
	if f.allCantons() {
		for _, c := range d.companies {
			if f.keepGroup(c.Group) {
				out = append(out, c)
			}
		}
		return out
	}

	d.byCanton.AscendGreaterOrEqual(directoryEntry{canton: f.Canton}, func(e directoryEntry) bool {
		if e.canton != f.Canton {
			return false
		}
		if c := d.companies[e.seq]; f.keepGroup(c.Group) {
			out = append(out, c)
		}
		return true
	})
	return out
}

// Nearest returns the company closest to the point within radius degrees.
func (d *Directory) Nearest(lat, lon, radius float64) (geomodel.Company, bool) {
	center := orb.Point{lon, lat}
	search := orb.Bound{Min: center, Max: center}.Pad(radius)

	found := -1
	finDist := math.Inf(1)
	d.points.Search(search.Min, search.Max, func(_, _ [2]float64, data interface{}) bool {
		i := data.(int)
		c := d.companies[i]
		dist := distanceSquared(lon, lat, c.Lon, c.Lat)
		if dist < finDist || (dist == finDist && i < found) {
			found = i
			finDist = dist
		}
		return true
	})

	if found < 0 || finDist > radius*radius {
		return geomodel.Company{}, false
	}
	return d.companies[found], true
}

func distanceSquared(x1, y1, x2, y2 float64) float64 {
	d0 := x1 - x2
	d1 := y1 - y2
	return d0*d0 + d1*d1
}
