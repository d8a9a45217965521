// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package celllist bins points of a periodic box into a uniform grid so that
// geometric queries only visit nearby points.
package celllist

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/2dChan/t2voronoi/internal/workers"
	"github.com/2dChan/t2voronoi/periodic"
	"github.com/golang/geo/r2"
)

// Grid is a uniform spatial grid over a periodic box.
//
// Bin c holds the slots idxs[c*nmax : c*nmax+min(sizes[c], nmax)]. The
// per-bin capacity nmax only grows, and only at the start of a pass.
type Grid struct {
	box      periodic.Box
	cellSize float64
	xsize    int
	ysize    int

	np    int
	nmax  int
	sizes []int32
	idxs  []int
}

// New returns a grid over box whose square bins have a side close to a.
func New(box periodic.Box, a float64) (*Grid, error) {
	if !(a > 0) || math.IsInf(a, 0) {
		return nil, fmt.Errorf("celllist: grid size must be positive and finite, got %v", a)
	}
	g := &Grid{box: box}
	g.setGridSize(a)
	return g, nil
}

func (g *Grid) setGridSize(a float64) {
	g.xsize = max(1, int(math.Floor(g.box.X/a)))
	g.cellSize = g.box.X / float64(g.xsize)
	g.ysize = max(1, int(math.Ceil(g.box.Y/g.cellSize-1e-9)))
	g.sizes = make([]int32, g.TotalCells())
}

// CellSize returns the side of a bin.
func (g *Grid) CellSize() float64 {
	return g.cellSize
}

// Dims returns the number of bins along x and y.
func (g *Grid) Dims() (int, int) {
	return g.xsize, g.ysize
}

func (g *Grid) TotalCells() int {
	return g.xsize * g.ysize
}

// Nmax returns the current per-bin capacity.
func (g *Grid) Nmax() int {
	return g.nmax
}

// NumPoints returns the number of points binned by the last pass.
func (g *Grid) NumPoints() int {
	return g.np
}

// Box returns the periodic box the grid covers.
func (g *Grid) Box() periodic.Box {
	return g.box
}

// Cell returns the slots of the points in bin idx. The order inside a bin is
// unspecified and the returned slice must not be modified.
func (g *Grid) Cell(idx int) []int {
	if idx < 0 || idx >= g.TotalCells() {
		panic("Cell: idx out of range")
	}
	start := idx * g.nmax
	n := min(int(g.sizes[idx]), g.nmax)
	return g.idxs[start : start+n]
}

// Occupancy returns the number of points in bin idx.
func (g *Grid) Occupancy(idx int) int {
	return int(g.sizes[idx])
}

// PositionToCellIndex returns the bin of p. Coordinates outside the box are
// clamped to the border bins.
func (g *Grid) PositionToCellIndex(p r2.Point) int {
	binx := clampBin(p.X/g.cellSize, g.xsize)
	biny := clampBin(p.Y/g.cellSize, g.ysize)
	return g.index(binx, biny)
}

func clampBin(v float64, size int) int {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v >= float64(size) {
		return size - 1
	}
	return int(v)
}

func (g *Grid) index(x, y int) int {
	return y*g.xsize + x
}

func (g *Grid) setNp(n int) {
	g.np = n
	want := int(math.Ceil(float64(n)/float64(g.TotalCells()))) + 1
	if want > g.nmax {
		g.nmax = want
	}
}

func (g *Grid) reset() {
	clear(g.sizes)
	if need := g.nmax * g.TotalCells(); len(g.idxs) != need {
		g.idxs = make([]int, need)
	}
}

// Compute bins points on the calling goroutine. If a bin overflows, the
// capacity grows to fit it and the pass restarts.
func (g *Grid) Compute(points []r2.Point) {
	g.setNp(len(points))
	for {
		g.reset()
		maxCount := 0
		for i, p := range points {
			bin := g.PositionToCellIndex(p)
			offset := int(g.sizes[bin])
			if offset < g.nmax {
				g.idxs[bin*g.nmax+offset] = i
			}
			g.sizes[bin]++
			maxCount = max(maxCount, offset+1)
		}
		if maxCount <= g.nmax {
			return
		}
		g.nmax = maxCount
	}
}

// ComputeParallel bins points across the given number of workers (0 means
// GOMAXPROCS). Overflowing bins grow the capacity to the largest count
// rounded up to leave even headroom, and the pass restarts. The final bin
// contents equal those of Compute; only the order inside a bin may differ.
//
// A panic inside a worker is returned as an error wrapping workers.ErrFault.
func (g *Grid) ComputeParallel(points []r2.Point, nworkers int) error {
	g.setNp(len(points))
	for {
		g.reset()
		nmax := g.nmax
		err := workers.For(len(points), nworkers, func(lo, hi int) {
			for i := lo; i < hi; i++ {
				bin := g.PositionToCellIndex(points[i])
				offset := int(atomic.AddInt32(&g.sizes[bin], 1)) - 1
				if offset < nmax {
					g.idxs[bin*nmax+offset] = i
				}
			}
		})
		if err != nil {
			return fmt.Errorf("celllist: compute: %w", err)
		}

		maxCount := 0
		for _, s := range g.sizes {
			maxCount = max(maxCount, int(s))
		}
		if maxCount <= g.nmax {
			return nil
		}
		g.nmax = EvenSlack(maxCount)
	}
}

// EvenSlack rounds n up to the next even number with at least one spare slot:
// even n gives n+2, odd n gives n+1.
func EvenSlack(n int) int {
	if n%2 == 0 {
		return n + 2
	}
	return n + 1
}

// CellNeighbors returns the bins within width of cellIndex along both axes,
// wrapping periodically. The width is capped at half the grid in each
// direction so no bin is returned twice.
func (g *Grid) CellNeighbors(cellIndex, width int) []int {
	return g.AppendCellNeighbors(nil, cellIndex, width)
}

// AppendCellNeighbors is like CellNeighbors but appends to dst.
func (g *Grid) AppendCellNeighbors(dst []int, cellIndex, width int) []int {
	cx, cy, xlo, xhi, ylo, yhi := g.window(cellIndex, width)
	for dy := ylo; dy <= yhi; dy++ {
		for dx := xlo; dx <= xhi; dx++ {
			dst = append(dst, g.index(wrapIndex(cx+dx, g.xsize), wrapIndex(cy+dy, g.ysize)))
		}
	}
	return dst
}

// CellShellNeighbors returns the bins on the border of the square of the
// given width around cellIndex. Width 0 returns the bin itself.
func (g *Grid) CellShellNeighbors(cellIndex, width int) []int {
	cx, cy, xlo, xhi, ylo, yhi := g.window(cellIndex, width)
	var dst []int
	for dy := ylo; dy <= yhi; dy++ {
		for dx := xlo; dx <= xhi; dx++ {
			if dx != xlo && dx != xhi && dy != ylo && dy != yhi {
				continue
			}
			dst = append(dst, g.index(wrapIndex(cx+dx, g.xsize), wrapIndex(cy+dy, g.ysize)))
		}
	}
	return dst
}

func (g *Grid) window(cellIndex, width int) (cx, cy, xlo, xhi, ylo, yhi int) {
	if cellIndex < 0 || cellIndex >= g.TotalCells() {
		panic("CellNeighbors: cellIndex out of range")
	}
	width = max(width, 0)
	cx = cellIndex % g.xsize
	cy = cellIndex / g.xsize
	xlo, xhi = span(width, g.xsize)
	ylo, yhi = span(width, g.ysize)
	return cx, cy, xlo, xhi, ylo, yhi
}

func span(width, size int) (int, int) {
	w := min(width, size/2)
	lo, hi := -w, w
	if hi-lo+1 > size {
		lo++
	}
	return lo, hi
}

func wrapIndex(i, size int) int {
	i %= size
	if i < 0 {
		i += size
	}
	return i
}
