// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package t2delaunay computes Delaunay triangulations of points in a periodic
// box (a flat torus), globally or one vertex neighborhood at a time.
package t2delaunay

import (
	"math"
	"slices"

	"github.com/2dChan/t2voronoi/periodic"
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
)

const (
	defaultEps = 1e-12

	// Initial padding around the box, in mean interparticle spacings.
	initialMarginSpacings = 3
)

var (
	// ErrNonFinite is returned when a point has a NaN or infinite coordinate.
	ErrNonFinite = errors.New("t2delaunay: non-finite point position")
	// ErrUnresolved is returned when no neighborhood small enough to be
	// unambiguous on the torus certifies the requested triangles.
	ErrUnresolved = errors.New("t2delaunay: neighborhood could not be resolved")
)

// Triangulation is the Delaunay triangulation of a periodic point set.
type Triangulation struct {
	Points []r2.Point
	Box    periodic.Box
	// NOTE: Smallest vertex first, then CCW.
	Triangles [][3]int
	// NOTE: Sort in CCW per vertex, starting at the smallest neighbor index.
	Neighbors       []int
	NeighborOffsets []int
}

// VertexNeighbors returns the ring of neighbors of vertex vIdx.
func (dt *Triangulation) VertexNeighbors(vIdx int) []int {
	if vIdx < 0 || vIdx+1 >= len(dt.NeighborOffsets) {
		panic("VertexNeighbors: vIdx out of range")
	}
	start := dt.NeighborOffsets[vIdx]
	end := dt.NeighborOffsets[vIdx+1]
	return dt.Neighbors[start:end]
}

// TriangleVertices returns the vertices of triangle tIdx as one connected
// image: the second and third vertices are the periodic images closest to
// the first.
func (dt *Triangulation) TriangleVertices(tIdx int) (r2.Point, r2.Point, r2.Point) {
	if tIdx < 0 || tIdx >= len(dt.Triangles) {
		panic("TriangleVertices: tIdx out of bounds")
	}
	t := dt.Triangles[tIdx]
	a := dt.Points[t[0]]
	b := a.Add(dt.Box.MinDist(dt.Points[t[1]], a))
	c := a.Add(dt.Box.MinDist(dt.Points[t[2]], a))
	return a, b, c
}

type TriangulationOptions struct {
	Eps        float64
	FullTiling bool
}

type TriangulationOption func(*TriangulationOptions) error

// WithEps sets the tolerance passed to the convex hull.
func WithEps(eps float64) TriangulationOption {
	return func(o *TriangulationOptions) error {
		if eps <= 0 {
			return errors.Errorf("WithEps: eps must be positive, got %v", eps)
		}
		o.Eps = eps
		return nil
	}
}

// WithFullTiling surrounds the box by all eight periodic copies instead of a
// margin that grows on demand.
func WithFullTiling() TriangulationOption {
	return func(o *TriangulationOptions) error {
		o.FullTiling = true
		return nil
	}
}

func applyOptions(setters []TriangulationOption) (TriangulationOptions, error) {
	opts := TriangulationOptions{
		Eps: defaultEps,
	}
	for _, set := range setters {
		if err := set(&opts); err != nil {
			return opts, err
		}
	}
	return opts, nil
}

// NewTriangulation computes the Delaunay triangulation of points on the torus
// described by box. Points must lie in the box.
func NewTriangulation(points []r2.Point, box periodic.Box, setters ...TriangulationOption) (*Triangulation, error) {
	opts, err := applyOptions(setters)
	if err != nil {
		return nil, err
	}

	n := len(points)
	if n < 3 {
		return nil,
			errors.New("t2delaunay: insufficient vertices for triangulation (minimum 3 required)")
	}
	for i, p := range points {
		if !isFinite(p) {
			return nil, errors.Wrapf(ErrNonFinite, "point %d = %v", i, p)
		}
	}

	margin := initialMarginSpacings * math.Sqrt(box.Area()/float64(n))
	for {
		full := opts.FullTiling || (margin >= box.X && margin >= box.Y)
		if full {
			margin = max(box.X, box.Y)
		}
		pad := newPadding(points, box, margin)

		tris, err := lowerHull(pad.points, opts.Eps)
		if err != nil {
			return nil, errors.Wrap(err, "t2delaunay: periodic hull")
		}
		incident, certified := pad.incidentTriangles(tris, n)
		if certified {
			return newTriangulation(points, box, pad, tris, incident)
		}
		if full {
			return nil, errors.Wrap(ErrUnresolved, "t2delaunay: full tiling")
		}
		margin *= 2
	}
}

func newTriangulation(points []r2.Point, box periodic.Box, pad *padding, tris [][3]int, incident [][]int) (*Triangulation, error) {
	n := len(points)
	dt := &Triangulation{
		Points:          points,
		Box:             box,
		Neighbors:       make([]int, 0, 6*n),
		NeighborOffsets: make([]int, n+1),
		Triangles:       make([][3]int, 0, 2*n),
	}

	for vIdx := range n {
		if !sortIncidentTriangleIndicesCCW(vIdx, incident[vIdx], tris) {
			return nil, errors.Wrapf(ErrUnresolved, "t2delaunay: open fan around vertex %d", vIdx)
		}
		ring := make([]int, len(incident[vIdx]))
		for i, tIdx := range incident[vIdx] {
			ring[i] = pad.origin[NextVertex(tris[tIdx], vIdx)]
		}
		dt.Neighbors = append(dt.Neighbors, CanonicalRing(ring)...)
		dt.NeighborOffsets[vIdx+1] = len(dt.Neighbors)
	}

	for vIdx := range n {
		ring := dt.VertexNeighbors(vIdx)
		for j, n1 := range ring {
			n2 := ring[(j+1)%len(ring)]
			if vIdx < n1 && vIdx < n2 {
				dt.Triangles = append(dt.Triangles, [3]int{vIdx, n1, n2})
			}
		}
	}

	return dt, nil
}

// padding is a point set made of the box points followed by the periodic
// images that fall within a margin around the box.
type padding struct {
	points []r2.Point
	origin []int
	bounds r2.Rect
}

func newPadding(points []r2.Point, box periodic.Box, margin float64) *padding {
	mx := min(margin, box.X)
	my := min(margin, box.Y)
	pad := &padding{
		points: slices.Clone(points),
		origin: make([]int, len(points)),
		bounds: box.Bounds().Expanded(r2.Point{X: mx, Y: my}),
	}
	for i := range points {
		pad.origin[i] = i
	}

	for sx := -1; sx <= 1; sx++ {
		for sy := -1; sy <= 1; sy++ {
			if sx == 0 && sy == 0 {
				continue
			}
			shift := r2.Point{X: float64(sx) * box.X, Y: float64(sy) * box.Y}
			for i, p := range points {
				q := p.Add(shift)
				if !pad.bounds.ContainsPoint(q) {
					continue
				}
				pad.points = append(pad.points, q)
				pad.origin = append(pad.origin, i)
			}
		}
	}
	return pad
}

// incidentTriangles groups the triangles touching the first n points by
// vertex. certified is false if any of them has a circumcircle leaving the
// padded region, in which case a point outside the padding could lie in it.
func (pad *padding) incidentTriangles(tris [][3]int, n int) (incident [][]int, certified bool) {
	incident = make([][]int, n)
	for tIdx, t := range tris {
		touches := false
		for _, v := range t {
			if v < n {
				incident[v] = append(incident[v], tIdx)
				touches = true
			}
		}
		if !touches {
			continue
		}
		center, rad2, ok := Circumcircle(pad.points[t[0]], pad.points[t[1]], pad.points[t[2]])
		if !ok {
			return nil, false
		}
		r := math.Sqrt(rad2)
		lo, hi := pad.bounds.Lo(), pad.bounds.Hi()
		if center.X-r < lo.X || center.X+r > hi.X || center.Y-r < lo.Y || center.Y+r > hi.Y {
			return nil, false
		}
	}
	return incident, true
}

// CanonicalRing rotates ring in place so that it starts at its smallest
// entry, keeping the cyclic order, and returns it.
func CanonicalRing(ring []int) []int {
	if len(ring) == 0 {
		return ring
	}
	start := 0
	for i, v := range ring {
		if v < ring[start] {
			start = i
		}
	}
	slices.Reverse(ring[:start])
	slices.Reverse(ring[start:])
	slices.Reverse(ring)
	return ring
}

// sortIncidentTriangleIndicesCCW orders the CCW triangles around vIdx so
// that each one follows its predecessor across their shared edge. It reports
// whether the triangles form a single closed fan.
func sortIncidentTriangleIndicesCCW(vIdx int, incidentTris []int, tris [][3]int) bool {
	n := len(incidentTris)
	if n < 3 {
		return false
	}
	for i := 1; i < n; i++ {
		prv := PrevVertex(tris[incidentTris[i-1]], vIdx)
		found := false
		for j := i; j < n; j++ {
			if NextVertex(tris[incidentTris[j]], vIdx) == prv {
				incidentTris[i], incidentTris[j] = incidentTris[j], incidentTris[i]
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return PrevVertex(tris[incidentTris[n-1]], vIdx) == NextVertex(tris[incidentTris[0]], vIdx)
}

func PrevVertex(t [3]int, vIdx int) int {
	switch vIdx {
	case t[0]:
		return t[2]
	case t[1]:
		return t[0]
	case t[2]:
		return t[1]
	}
	panic("PrevVertex: vIdx not in triangle")
}

func NextVertex(t [3]int, vIdx int) int {
	switch vIdx {
	case t[0]:
		return t[1]
	case t[1]:
		return t[2]
	case t[2]:
		return t[0]
	}
	panic("NextVertex: vIdx not in triangle")
}
