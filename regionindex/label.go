package regionindex

import (
	"container/heap"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// labelPrecision is the tolerance of the label point search, in degrees.
const labelPrecision = 0.001

const (
	// maxLabelGrid bounds the starting grid of very elongated polygons.
	maxLabelGrid = 256
	// maxLabelProbes bounds the cells evaluated for one polygon; the best
	// point found so far is returned once it is reached.
	maxLabelProbes = 4096
)

// labelCell is a square of the search grid. dist is the signed distance
// from its center to the polygon boundary, negative outside.
type labelCell struct {
	center orb.Point
	half   float64
	dist   float64
	max    float64
}

func newLabelCell(poly orb.Polygon, center orb.Point, half float64) labelCell {
	d := planar.DistanceFrom(poly, center)
	if !planar.PolygonContains(poly, center) {
		d = -d
	}
	return labelCell{center: center, half: half, dist: d, max: d + half*math.Sqrt2}
}

// cellQueue pops the cell that may hold the farthest interior point first.
type cellQueue []labelCell

func (q cellQueue) Len() int           { return len(q) }
func (q cellQueue) Less(i, j int) bool { return q[i].max > q[j].max }
func (q cellQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }
func (q *cellQueue) Push(x any)        { *q = append(*q, x.(labelCell)) }
func (q *cellQueue) Pop() any {
	old := *q
	c := old[len(old)-1]
	*q = old[:len(old)-1]
	return c
}

// labelPoint returns the pole of inaccessibility of the largest polygon:
// the interior point farthest from any ring, where a canton name reads best.
func labelPoint(mp orb.MultiPolygon, precision float64) orb.Point {
	if len(mp) == 0 {
		return orb.Point{}
	}

	poly := mp[0]
	for _, p := range mp[1:] {
		if math.Abs(planar.Area(p)) > math.Abs(planar.Area(poly)) {
			poly = p
		}
	}

	b := poly.Bound()
	width, height := b.Right()-b.Left(), b.Top()-b.Bottom()
	size := math.Min(width, height)
	if size == 0 {
		return b.Min
	}
	if math.Ceil(width/size)*math.Ceil(height/size) > maxLabelGrid {
		size = math.Max(width, height) / math.Sqrt(maxLabelGrid)
	}
	half := size / 2

	q := &cellQueue{}
	for x := b.Left(); x < b.Right(); x += size {
		for y := b.Bottom(); y < b.Top(); y += size {
			heap.Push(q, newLabelCell(poly, orb.Point{x + half, y + half}, half))
		}
	}

	best := newLabelCell(poly, b.Center(), 0)
	centroid, _ := planar.CentroidArea(poly)
	if c := newLabelCell(poly, centroid, 0); c.dist > best.dist {
		best = c
	}

	for probes := q.Len(); q.Len() > 0 && probes < maxLabelProbes; {
		c := heap.Pop(q).(labelCell)
		if c.dist > best.dist {
			best = c
		}
		if c.max-best.dist <= precision {
			continue
		}

		h := c.half / 2
		for _, d := range [4][2]float64{{-h, -h}, {h, -h}, {-h, h}, {h, h}} {
			heap.Push(q, newLabelCell(poly, orb.Point{c.center[0] + d[0], c.center[1] + d[1]}, h))
		}
		probes += 4
	}

	return best.center
}
