// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package t2voronoi

import (
	"fmt"

	"github.com/2dChan/t2voronoi/t2delaunay"
	"github.com/golang/geo/r2"
)

// Cell represents a Voronoi cell. It is a view structure for accessing a cell
// of a Tessellation and is valid until the next call that modifies it.
// The cell's index corresponds to the slot of its site.
type Cell struct {
	idx int
	t   *Tessellation
}

// NumCells returns the number of Voronoi cells, one per point.
func (t *Tessellation) NumCells() int {
	return len(t.points)
}

// Cell returns the Voronoi cell of the point at slot i.
// It returns an error if the index is out of range.
func (t *Tessellation) Cell(i int) (Cell, error) {
	if i < 0 || i >= len(t.points) {
		return Cell{}, fmt.Errorf("Cell: index %d out of range [0 %d)", i, len(t.points))
	}
	return Cell{idx: i, t: t}, nil
}

// VoronoiVertex returns the circumcenter of triangle tIdx, wrapped into the
// box.
func (t *Tessellation) VoronoiVertex(tIdx int) r2.Point {
	tris := t.store.Triangles()
	if tIdx < 0 || tIdx >= len(tris) {
		panic("VoronoiVertex: tIdx out of range")
	}
	tri := tris[tIdx]
	a := t.points[tri[0]]
	b := a.Add(t.box.MinDist(t.points[tri[1]], a))
	c := a.Add(t.box.MinDist(t.points[tri[2]], a))
	center, _, _ := t2delaunay.Circumcircle(a, b, c)
	return t.box.PutInBox(center)
}

// SiteIndex returns the slot of the site.
func (c Cell) SiteIndex() int {
	return c.idx
}

// Tag returns the stable tag of the site.
func (c Cell) Tag() int {
	return c.t.idxToTag[c.idx]
}

// Site returns the site point of the cell.
func (c Cell) Site() r2.Point {
	return c.t.points[c.idx]
}

// NumVertices returns the number of vertices in the cell.
// This equals the number of neighbors.
func (c Cell) NumVertices() int {
	return c.t.store.NumNeighbors(c.idx)
}

// VertexIndices returns the indices of the triangles whose circumcenters are
// the cell's vertices, sorted in counter-clockwise order.
func (c Cell) VertexIndices() []int {
	return c.t.store.CellVertexIndices(c.idx)
}

// Vertex returns the vertex at the specified index, as the periodic image
// closest to the site.
// It returns an error if the index is out of range.
func (c Cell) Vertex(i int) (r2.Point, error) {
	vi := c.VertexIndices()
	if i < 0 || i >= len(vi) {
		return r2.Point{}, fmt.Errorf("Vertex: index %d out of range [0 %d)", i, len(vi))
	}
	site := c.Site()
	return site.Add(c.t.box.MinDist(c.t.VoronoiVertex(vi[i]), site)), nil
}

// Polygon returns every vertex of the cell, in counter-clockwise order
// around the site.
func (c Cell) Polygon() []r2.Point {
	vi := c.VertexIndices()
	site := c.Site()
	poly := make([]r2.Point, len(vi))
	for i, tIdx := range vi {
		poly[i] = site.Add(c.t.box.MinDist(c.t.VoronoiVertex(tIdx), site))
	}
	return poly
}

// Area returns the area of the cell.
func (c Cell) Area() float64 {
	poly := c.Polygon()
	area := 0.0
	for i, p := range poly {
		area += p.Cross(poly[(i+1)%len(poly)])
	}
	return area / 2
}

// Perimeter returns the length of the cell boundary.
func (c Cell) Perimeter() float64 {
	poly := c.Polygon()
	perimeter := 0.0
	for i, p := range poly {
		perimeter += poly[(i+1)%len(poly)].Sub(p).Norm()
	}
	return perimeter
}

// NumNeighbors returns the number of neighboring cells.
// This equals the number of vertices.
func (c Cell) NumNeighbors() int {
	return c.t.store.NumNeighbors(c.idx)
}

// NeighborIndices returns the slots of the neighboring cells, sorted in
// counter-clockwise order.
func (c Cell) NeighborIndices() []int {
	return c.t.store.Ring(c.idx)
}

// Neighbor returns the neighboring cell at the specified index.
// It returns an error if the index is out of range.
func (c Cell) Neighbor(i int) (Cell, error) {
	ring := c.NeighborIndices()
	if i < 0 || i >= len(ring) {
		return Cell{}, fmt.Errorf("Neighbor: index %d out of range [0 %d)", i, len(ring))
	}
	return c.t.Cell(ring[i])
}
