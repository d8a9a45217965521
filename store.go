// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package t2voronoi

import (
	"errors"
	"fmt"
	"slices"

	"github.com/2dChan/t2voronoi/celllist"
	"github.com/2dChan/t2voronoi/t2delaunay"
)

var errCapacity = errors.New("t2voronoi: neighbor ring exceeds capacity")

// NeighIdx addresses one entry of a neighbor ring: the ring of Point, at
// position Pos.
type NeighIdx struct {
	Point int
	Pos   int
}

// Store holds the neighbor rings of every point and the data derived from
// them. Ring i occupies neighbors[i*neighMax : i*neighMax+numNeighbors[i]].
type Store struct {
	n        int
	neighMax int
	slack    int

	neighbors    []int
	numNeighbors []int

	// Derived.
	triangles    [][3]int
	neighIdxs    []NeighIdx
	cellVertices []int
	consistent   bool
}

func newStore(n, slack int) *Store {
	s := &Store{slack: slack}
	s.resize(n)
	return s
}

// NumPoints returns the number of points the store holds rings for.
func (s *Store) NumPoints() int {
	return s.n
}

// NeighMax returns the ring capacity per point.
func (s *Store) NeighMax() int {
	return s.neighMax
}

// Ring returns the CCW neighbor ring of point i, starting at its smallest
// neighbor. The slice must not be modified.
func (s *Store) Ring(i int) []int {
	if i < 0 || i >= s.n {
		panic("Ring: index out of range")
	}
	start := i * s.neighMax
	return s.neighbors[start : start+s.numNeighbors[i]]
}

// NumNeighbors returns the length of the ring of point i.
func (s *Store) NumNeighbors(i int) int {
	if i < 0 || i >= s.n {
		panic("NumNeighbors: index out of range")
	}
	return s.numNeighbors[i]
}

// Triangles returns every triangle once, CCW, rotated to its
// lexicographically smallest form so the smallest slot comes first.
func (s *Store) Triangles() [][3]int {
	return s.triangles
}

// NeighIdxs returns one entry per ring entry, in point order.
func (s *Store) NeighIdxs() []NeighIdx {
	return s.neighIdxs
}

// CellVertexIndices returns, for each position j in the ring of point i, the
// index in Triangles of the triangle (i, ring[j], ring[j+1]).
func (s *Store) CellVertexIndices(i int) []int {
	if i < 0 || i >= s.n {
		panic("CellVertexIndices: index out of range")
	}
	start := i * s.neighMax
	return s.cellVertices[start : start+s.numNeighbors[i]]
}

// resize drops every ring and sets the number of points to n.
func (s *Store) resize(n int) {
	s.n = n
	s.numNeighbors = make([]int, n)
	s.neighbors = make([]int, n*s.neighMax)
	s.cellVertices = make([]int, n*s.neighMax)
	s.triangles = s.triangles[:0]
	s.neighIdxs = s.neighIdxs[:0]
	s.consistent = false
}

// setCapacity changes the ring capacity, keeping the current rings.
func (s *Store) setCapacity(neighMax int) {
	if neighMax == s.neighMax {
		return
	}
	neighbors := make([]int, s.n*neighMax)
	for i := range s.n {
		copy(neighbors[i*neighMax:], s.Ring(i))
	}
	s.neighbors = neighbors
	s.cellVertices = make([]int, s.n*neighMax)
	s.neighMax = neighMax
}

// setRings replaces every ring with those of dt and sizes the capacity to the
// longest ring plus slack.
func (s *Store) setRings(dt *t2delaunay.Triangulation) {
	n := len(dt.NeighborOffsets) - 1
	if n != s.n {
		s.resize(n)
	}
	longest := 0
	for i := range n {
		longest = max(longest, len(dt.VertexNeighbors(i)))
	}
	s.numNeighbors = make([]int, n)
	s.setCapacity(celllist.EvenSlack(longest) + s.slack)
	for i := range n {
		ring := dt.VertexNeighbors(i)
		copy(s.neighbors[i*s.neighMax:], ring)
		s.numNeighbors[i] = len(ring)
	}
	s.rebuildDerived()
}

// commit replaces the rings of slots. It fails without modifying the store
// if any ring is longer than the capacity.
func (s *Store) commit(slots []int, rings [][]int) error {
	for k, ring := range rings {
		if len(ring) > s.neighMax {
			return fmt.Errorf("%w: point %d has %d neighbors, capacity %d", errCapacity, slots[k], len(ring), s.neighMax)
		}
	}
	for k, i := range slots {
		copy(s.neighbors[i*s.neighMax:], rings[k])
		s.numNeighbors[i] = len(rings[k])
	}
	s.rebuildDerived()
	return nil
}

// reindex relabels the store after the points were permuted: new slot i holds
// the point that was at itt[i], and tti is the inverse map.
func (s *Store) reindex(itt, tti []int) {
	neighbors := make([]int, len(s.neighbors))
	numNeighbors := make([]int, s.n)
	for i, from := range itt {
		dst := neighbors[i*s.neighMax : i*s.neighMax+s.numNeighbors[from]]
		for j, nb := range s.Ring(from) {
			dst[j] = tti[nb]
		}
		t2delaunay.CanonicalRing(dst)
		numNeighbors[i] = len(dst)
	}
	s.neighbors = neighbors
	s.numNeighbors = numNeighbors
	s.rebuildDerived()
}

// cornerGroup collects the ring corners that share one cyclic slot triple,
// split by the rotation that turns each corner into the group key.
type cornerGroup struct {
	corners [3][]int
	used    int
}

// rebuildDerived recomputes triangles, NeighIdxs and the cell vertex index
// from the rings, and records whether the rings agree with each other.
//
// Every ring corner (i, ring[j], ring[j+1]) is one corner of a triangle, and
// a triangle is formed by three corners with the same cyclic slot triple, one
// per rotation. Rings may repeat a slot or hold the point itself when the box
// is small against the point spacing.
func (s *Store) rebuildDerived() {
	s.triangles = s.triangles[:0]
	s.neighIdxs = s.neighIdxs[:0]
	for i := range s.cellVertices {
		s.cellVertices[i] = -1
	}

	groups := make(map[[3]int]*cornerGroup, 2*s.n)
	for i := range s.n {
		ring := s.Ring(i)
		for j, n1 := range ring {
			s.neighIdxs = append(s.neighIdxs, NeighIdx{Point: i, Pos: j})
			key, rot := cornerKey(i, n1, ring[(j+1)%len(ring)])
			g := groups[key]
			if g == nil {
				g = &cornerGroup{}
				groups[key] = g
			}
			g.corners[rot] = append(g.corners[rot], i*s.neighMax+j)
		}
	}

	consistent := true
	for i := range s.n {
		ring := s.Ring(i)
		for j, n1 := range ring {
			key, rot := cornerKey(i, n1, ring[(j+1)%len(ring)])
			if rot != 0 {
				continue
			}
			g := groups[key]
			k := g.used
			g.used++

			var members [3]int
			if key[0] == key[1] && key[1] == key[2] {
				// All three corners share rotation 0.
				if k%3 != 0 {
					continue
				}
				if k+3 > len(g.corners[0]) {
					consistent = false
					continue
				}
				members = [3]int(g.corners[0][k : k+3])
			} else {
				if k >= len(g.corners[1]) || k >= len(g.corners[2]) {
					consistent = false
					continue
				}
				members = [3]int{g.corners[0][k], g.corners[1][k], g.corners[2][k]}
			}

			tIdx := len(s.triangles)
			s.triangles = append(s.triangles, key)
			for _, c := range members {
				s.cellVertices[c] = tIdx
			}
		}
	}
	for i := range s.n {
		for _, tIdx := range s.CellVertexIndices(i) {
			if tIdx < 0 {
				consistent = false
			}
		}
	}
	s.consistent = consistent
}

// cornerKey returns the lexicographically smallest rotation of the triangle
// (v, a, b) and the rotation rot with key[k] == (v, a, b)[(k+rot)%3].
func cornerKey(v, a, b int) ([3]int, int) {
	tri := [3]int{v, a, b}
	key, rot := tri, 0
	for r := 1; r < 3; r++ {
		cand := [3]int{tri[r], tri[(r+1)%3], tri[(r+2)%3]}
		if slices.Compare(cand[:], key[:]) < 0 {
			key, rot = cand, r
		}
	}
	return key, rot
}

// checkTopology reports whether the rings form a triangulation of the torus:
// every corner belongs to exactly one triangle, with 2N triangles and 6N ring
// entries.
func (s *Store) checkTopology() bool {
	return s.consistent && s.n > 0 &&
		len(s.triangles) == 2*s.n &&
		len(s.neighIdxs) == 6*s.n
}
