// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package t2delaunay

import (
	"math"

	"github.com/2dChan/t2voronoi/celllist"
	"github.com/2dChan/t2voronoi/periodic"
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
)

const (
	// Relative tolerance of the strict in-circle test.
	inCircleTol = 1e-10

	// Initial and growth factor of the gathering radius, in grid cells.
	initialRadiusCells = 2
	radiusGrowth       = 1.5
)

// Locator answers neighborhood queries about single vertices of the
// triangulation of a periodic point set, using a spatial grid computed over
// the same points. A Locator is safe for concurrent use as long as the
// points and the grid are not modified.
type Locator struct {
	points    []r2.Point
	box       periodic.Box
	grid      *celllist.Grid
	eps       float64
	maxRadius float64
}

// NewLocator returns a Locator over points. The grid must have been computed
// from the same points.
func NewLocator(points []r2.Point, grid *celllist.Grid, setters ...TriangulationOption) (*Locator, error) {
	opts, err := applyOptions(setters)
	if err != nil {
		return nil, err
	}
	if grid.NumPoints() != len(points) {
		return nil, errors.Errorf("t2delaunay: grid holds %d points, want %d", grid.NumPoints(), len(points))
	}
	box := grid.Box()
	return &Locator{
		points:    points,
		box:       box,
		grid:      grid,
		eps:       opts.Eps,
		maxRadius: 0.5 * min(box.X, box.Y),
	}, nil
}

// Ring returns the CCW neighbor ring of vertex vIdx, starting at its smallest
// neighbor, computed from the current positions only.
//
// The gathering radius grows until the triangles around vIdx close into a fan
// whose circumcircles all lie inside the gathered disc. ErrNonFinite and
// ErrUnresolved report failures; a vertex never comes back with an empty ring.
func (l *Locator) Ring(vIdx int) ([]int, error) {
	if vIdx < 0 || vIdx >= len(l.points) {
		panic("Ring: vIdx out of range")
	}
	if !isFinite(l.points[vIdx]) {
		return nil, errors.Wrapf(ErrNonFinite, "vertex %d = %v", vIdx, l.points[vIdx])
	}

	radius := initialRadiusCells * l.grid.CellSize()
	for {
		radius = min(radius, l.maxRadius)
		local, slots, err := l.gather(vIdx, radius)
		if err != nil {
			return nil, err
		}
		if ring, ok := l.localRing(local, slots, radius); ok {
			return CanonicalRing(ring), nil
		}
		if radius >= l.maxRadius {
			return nil, errors.Wrapf(ErrUnresolved, "vertex %d within radius %v", vIdx, radius)
		}
		radius *= radiusGrowth
	}
}

// gather returns the positions relative to vIdx of the points closer than
// radius, with vIdx itself first at the origin.
func (l *Locator) gather(vIdx int, radius float64) ([]r2.Point, []int, error) {
	p := l.points[vIdx]
	local := []r2.Point{{}}
	slots := []int{vIdx}

	width := int(math.Ceil(radius/l.grid.CellSize())) + 1
	cells := l.grid.CellNeighbors(l.grid.PositionToCellIndex(p), width)
	radius2 := radius * radius
	for _, c := range cells {
		for _, j := range l.grid.Cell(c) {
			if j == vIdx {
				continue
			}
			d := l.box.MinDist(l.points[j], p)
			if !isFinite(d) {
				return nil, nil, errors.Wrapf(ErrNonFinite, "vertex %d = %v", j, l.points[j])
			}
			if d.Dot(d) < radius2 {
				local = append(local, d)
				slots = append(slots, j)
			}
		}
	}
	return local, slots, nil
}

func (l *Locator) localRing(local []r2.Point, slots []int, radius float64) ([]int, bool) {
	if len(local) < 4 {
		return nil, false
	}
	tris, err := lowerHull(local, l.eps)
	if err != nil {
		return nil, false
	}

	var incident []int
	for tIdx, t := range tris {
		if t[0] != 0 && t[1] != 0 && t[2] != 0 {
			continue
		}
		center, rad2, ok := Circumcircle(local[t[0]], local[t[1]], local[t[2]])
		if !ok || center.Norm()+math.Sqrt(rad2) >= radius {
			return nil, false
		}
		incident = append(incident, tIdx)
	}
	if !sortIncidentTriangleIndicesCCW(0, incident, tris) {
		return nil, false
	}

	ring := make([]int, len(incident))
	for i, tIdx := range incident {
		ring[i] = slots[NextVertex(tris[tIdx], 0)]
	}
	return ring, true
}

// TriangleEmpty reports whether no point lies strictly inside the
// circumcircle of the triangle (a, b, c), given in CCW order. Inverted,
// degenerate and non-finite triangles, and triangles whose circumradius
// reaches half the box, are reported as not empty.
//
// The test is evaluated on the rotation of (a, b, c) that starts at the
// smallest index, so every caller gets the same answer for the same face.
func (l *Locator) TriangleEmpty(a, b, c int) bool {
	t := canonicalTriangle([3]int{a, b, c})
	pa := l.points[t[0]]
	db := l.box.MinDist(l.points[t[1]], pa)
	dc := l.box.MinDist(l.points[t[2]], pa)
	if !isFinite(pa) || !isFinite(db) || !isFinite(dc) || !(db.Cross(dc) > 0) {
		return false
	}
	rel, rad2, ok := circumcircleRel(db, dc)
	if !ok || rad2 >= l.maxRadius*l.maxRadius {
		return false
	}

	center := l.box.PutInBox(pa.Add(rel))
	width := int(math.Ceil(math.Sqrt(rad2)/l.grid.CellSize())) + 1
	limit := rad2 * (1 - inCircleTol)
	var buf [25]int
	for _, cell := range l.grid.AppendCellNeighbors(buf[:0], l.grid.PositionToCellIndex(center), width) {
		for _, j := range l.grid.Cell(cell) {
			if j == t[0] || j == t[1] || j == t[2] {
				continue
			}
			d := l.box.MinDist(l.points[j], center)
			if d.Dot(d) < limit {
				return false
			}
		}
	}
	return true
}

// TestRing reports whether every triangle of the fan formed by vIdx and its
// ring is still empty.
func (l *Locator) TestRing(vIdx int, ring []int) bool {
	n := len(ring)
	if n < 3 {
		return false
	}
	for i, n1 := range ring {
		if !l.TriangleEmpty(vIdx, n1, ring[(i+1)%n]) {
			return false
		}
	}
	return true
}

func canonicalTriangle(t [3]int) [3]int {
	switch {
	case t[1] < t[0] && t[1] <= t[2]:
		return [3]int{t[1], t[2], t[0]}
	case t[2] < t[0] && t[2] < t[1]:
		return [3]int{t[2], t[0], t[1]}
	}
	return t
}
