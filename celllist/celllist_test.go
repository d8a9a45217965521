// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package celllist

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"testing"

	"github.com/2dChan/t2voronoi/internal/workers"
	"github.com/2dChan/t2voronoi/periodic"
	"github.com/2dChan/t2voronoi/utils"
	"github.com/golang/geo/r2"
	"github.com/google/go-cmp/cmp"
)

func TestNew(t *testing.T) {
	box := mustNewBox(t, 50, 50)
	tests := []struct {
		name    string
		a       float64
		wantErr bool
	}{
		{"positive", 8.8, false},
		{"larger than box", 100, false},
		{"zero", 0, true},
		{"negative", -1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(box, tt.a)
			if (err != nil) != tt.wantErr {
				t.Errorf("New(box, %v) error = %v, wantErr %v", tt.a, err, tt.wantErr)
			}
		})
	}
}

func TestGrid_Dims(t *testing.T) {
	tests := []struct {
		name         string
		x, y, a      float64
		wantX, wantY int
		wantSize     float64
	}{
		{"square", 50, 50, 8.84, 5, 5, 10},
		{"rectangle", 10, 4, 3, 3, 2, 10.0 / 3},
		{"single bin", 5, 5, 20, 1, 1, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := mustNewGrid(t, mustNewBox(t, tt.x, tt.y), tt.a)
			gotX, gotY := g.Dims()
			if gotX != tt.wantX || gotY != tt.wantY {
				t.Errorf("g.Dims() = %d, %d, want %d, %d", gotX, gotY, tt.wantX, tt.wantY)
			}
			if g.CellSize() != tt.wantSize {
				t.Errorf("g.CellSize() = %v, want %v", g.CellSize(), tt.wantSize)
			}
		})
	}
}

func TestGrid_PositionToCellIndex(t *testing.T) {
	g := mustNewGrid(t, mustNewBox(t, 50, 50), 10)
	tests := []struct {
		name string
		p    r2.Point
		want int
	}{
		{"origin", r2.Point{X: 0, Y: 0}, 0},
		{"second column", r2.Point{X: 15, Y: 5}, 1},
		{"second row", r2.Point{X: 5, Y: 15}, 5},
		{"last", r2.Point{X: 49.9, Y: 49.9}, 24},
		{"upper edge clamped", r2.Point{X: 50, Y: 50}, 24},
		{"negative clamped", r2.Point{X: -1, Y: -1}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.PositionToCellIndex(tt.p); got != tt.want {
				t.Errorf("g.PositionToCellIndex(%v) = %d, want %d", tt.p, got, tt.want)
			}
		})
	}
}

func TestGrid_Compute(t *testing.T) {
	box := mustNewBox(t, 50, 50)
	points := utils.GenerateRandomPoints(500, box, 7)
	g := mustNewGrid(t, box, 2.5)
	g.Compute(points)

	seen := make([]int, len(points))
	for c := range g.TotalCells() {
		if g.Occupancy(c) > g.Nmax() {
			t.Fatalf("g.Occupancy(%d) = %d exceeds g.Nmax() = %d", c, g.Occupancy(c), g.Nmax())
		}
		for _, idx := range g.Cell(c) {
			seen[idx]++
			if got := g.PositionToCellIndex(points[idx]); got != c {
				t.Errorf("point %d stored in bin %d, want %d", idx, c, got)
			}
		}
	}
	for i, n := range seen {
		if n != 1 {
			t.Errorf("point %d binned %d times, want 1", i, n)
		}
	}
}

func TestGrid_Compute_GrowsCapacity(t *testing.T) {
	box := mustNewBox(t, 10, 10)
	points := make([]r2.Point, 40)
	for i := range points {
		points[i] = r2.Point{X: 1 + 0.01*float64(i), Y: 1}
	}
	for _, parallel := range []bool{false, true} {
		t.Run(fmt.Sprintf("parallel=%v", parallel), func(t *testing.T) {
			g := mustNewGrid(t, box, 1)
			if parallel {
				if err := g.ComputeParallel(points, 4); err != nil {
					t.Fatalf("g.ComputeParallel(...) error = %v, want nil", err)
				}
			} else {
				g.Compute(points)
			}
			if g.Nmax() < len(points) {
				t.Errorf("g.Nmax() = %d, want >= %d", g.Nmax(), len(points))
			}
			bin := g.PositionToCellIndex(points[0])
			if got := len(g.Cell(bin)); got != len(points) {
				t.Errorf("len(g.Cell(%d)) = %d, want %d", bin, got, len(points))
			}
		})
	}
}

func TestGrid_ComputeParallel_MatchesSequential(t *testing.T) {
	box := mustNewBox(t, 40, 30)
	points := utils.GenerateRandomPoints(2000, box, 3)

	seq := mustNewGrid(t, box, 1.25)
	seq.Compute(points)
	par := mustNewGrid(t, box, 1.25)
	if err := par.ComputeParallel(points, 8); err != nil {
		t.Fatalf("par.ComputeParallel(...) error = %v, want nil", err)
	}

	for c := range seq.TotalCells() {
		want := slices.Sorted(slices.Values(seq.Cell(c)))
		got := slices.Sorted(slices.Values(par.Cell(c)))
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("bin %d mismatch (-sequential +parallel):\n%s", c, diff)
		}
	}
}

func TestGrid_ComputeParallel_Fault(t *testing.T) {
	box := mustNewBox(t, 10, 10)
	g := mustNewGrid(t, box, 1)
	points := utils.GenerateRandomPoints(200, box, 1)
	g.sizes = nil // any bin write panics inside the workers
	err := g.ComputeParallel(points, 4)
	if !errors.Is(err, workers.ErrFault) {
		t.Errorf("g.ComputeParallel(...) error = %v, want workers.ErrFault", err)
	}
}

func TestGrid_CellNeighbors(t *testing.T) {
	tests := []struct {
		name   string
		box    float64
		cell   int
		width  int
		want   int
		shell  bool
		wantIn []int
	}{
		{"width 0", 50, 12, 0, 1, false, []int{12}},
		{"width 1", 50, 12, 1, 9, false, []int{6, 7, 8, 11, 12, 13, 16, 17, 18}},
		{"width 1 corner wraps", 50, 0, 1, 9, false, []int{24, 20, 21, 4, 0, 1, 9, 5, 6}},
		{"width capped odd grid", 50, 0, 7, 25, false, nil},
		{"width capped even grid", 40, 0, 7, 16, false, nil},
		{"shell width 1", 50, 12, 1, 8, true, []int{6, 7, 8, 11, 13, 16, 17, 18}},
		{"shell width 2", 50, 12, 2, 16, true, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := mustNewGrid(t, mustNewBox(t, tt.box, tt.box), 10)
			var got []int
			if tt.shell {
				got = g.CellShellNeighbors(tt.cell, tt.width)
			} else {
				got = g.CellNeighbors(tt.cell, tt.width)
			}
			if len(got) != tt.want {
				t.Errorf("neighbors(%d, %d) len = %d, want %d", tt.cell, tt.width, len(got), tt.want)
			}
			unique := slices.Compact(slices.Sorted(slices.Values(got)))
			if len(unique) != len(got) {
				t.Errorf("neighbors(%d, %d) = %v contains duplicates", tt.cell, tt.width, got)
			}
			if tt.wantIn != nil {
				want := slices.Sorted(slices.Values(tt.wantIn))
				if diff := cmp.Diff(want, unique); diff != "" {
					t.Errorf("neighbors(%d, %d) mismatch (-want +got):\n%s", tt.cell, tt.width, diff)
				}
			}
		})
	}
}

func TestGrid_AppendCellNeighbors(t *testing.T) {
	g := mustNewGrid(t, mustNewBox(t, 50, 50), 10)
	var buf [16]int
	dst := append(buf[:0], -1)

	got := g.AppendCellNeighbors(dst, 12, 1)
	want := append([]int{-1}, g.CellNeighbors(12, 1)...)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("g.AppendCellNeighbors(...) mismatch (-want +got):\n%s", diff)
	}
	if &got[0] != &buf[0] {
		t.Errorf("g.AppendCellNeighbors(...) reallocated a buffer with spare capacity")
	}
}

func TestGrid_CellNeighbors_Panic(t *testing.T) {
	g := mustNewGrid(t, mustNewBox(t, 50, 50), 10)
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("g.CellNeighbors(-1, 1) did not panic, want panic")
		}
	}()
	g.CellNeighbors(-1, 1)
}

func TestEvenSlack(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{6, 8},
		{7, 8},
		{9, 10},
		{0, 2},
	}
	for _, tt := range tests {
		if got := EvenSlack(tt.in); got != tt.want {
			t.Errorf("EvenSlack(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

// Benchmarks

func BenchmarkCompute(b *testing.B) {
	sizes := []int{1e+3, 1e+4, 1e+5}
	for _, n := range sizes {
		box, err := periodic.NewSquareBox(math.Sqrt(float64(n)))
		if err != nil {
			b.Fatal(err)
		}
		points := utils.GenerateRandomPoints(n, box, 0)
		b.Run(fmt.Sprintf("sequential/N%d", n), func(b *testing.B) {
			g, err := New(box, 1.25)
			if err != nil {
				b.Fatal(err)
			}
			b.ReportAllocs()
			for b.Loop() {
				g.Compute(points)
			}
		})
		b.Run(fmt.Sprintf("parallel/N%d", n), func(b *testing.B) {
			g, err := New(box, 1.25)
			if err != nil {
				b.Fatal(err)
			}
			b.ReportAllocs()
			for b.Loop() {
				if err := g.ComputeParallel(points, 0); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// Helpers

func mustNewBox(t *testing.T, x, y float64) periodic.Box {
	t.Helper()
	b, err := periodic.NewBox(x, y)
	if err != nil {
		t.Fatalf("periodic.NewBox(%v, %v) error = %v, want nil", x, y, err)
	}
	return b
}

func mustNewGrid(t *testing.T, box periodic.Box, a float64) *Grid {
	t.Helper()
	g, err := New(box, a)
	if err != nil {
		t.Fatalf("New(%v, %v) error = %v, want nil", box, a, err)
	}
	return g
}
