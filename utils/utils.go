// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package utils provides utility functions for generating and spatially ordering points in a periodic box.

package utils

import (
	"cmp"
	"fmt"
	"math"
	"math/rand"
	"slices"

	"github.com/2dChan/t2voronoi/periodic"
	"github.com/golang/geo/r2"
	"github.com/google/hilbert"
)

// HilbertResolution is the number of lattice steps per box side used to
// compute Hilbert keys. It must be a power of two.
const HilbertResolution = 1 << 10

// GenerateRandomPoints generates cnt points uniformly distributed in box.
// The seed parameter ensures reproducibility.
func GenerateRandomPoints(cnt int, box periodic.Box, seed int64) []r2.Point {
	//nolint:gosec
	random := rand.New(rand.NewSource(seed))
	points := make([]r2.Point, cnt)

	for i := range cnt {
		points[i] = r2.Point{
			X: random.Float64() * box.X,
			Y: random.Float64() * box.Y,
		}
	}

	return points
}

// HilbertOrder returns the permutation that sorts points along a Hilbert
// curve covering box. itt maps a new index to the old one and tti is its
// inverse. Points with equal keys keep their relative order.
func HilbertOrder(points []r2.Point, box periodic.Box) (itt, tti []int, err error) {
	h, err := hilbert.NewHilbert(HilbertResolution)
	if err != nil {
		return nil, nil, fmt.Errorf("utils: hilbert curve: %w", err)
	}

	keys := make([]int, len(points))
	for i, p := range points {
		p = box.PutInBox(p)
		x := latticeCoord(p.X / box.X)
		y := latticeCoord(p.Y / box.Y)
		keys[i], err = h.MapInverse(x, y)
		if err != nil {
			return nil, nil, fmt.Errorf("utils: hilbert key of point %d: %w", i, err)
		}
	}

	itt = make([]int, len(points))
	for i := range itt {
		itt[i] = i
	}
	slices.SortStableFunc(itt, func(a, b int) int {
		return cmp.Compare(keys[a], keys[b])
	})

	tti = make([]int, len(points))
	for newIdx, oldIdx := range itt {
		tti[oldIdx] = newIdx
	}
	return itt, tti, nil
}

func latticeCoord(f float64) int {
	if math.IsNaN(f) || f < 0 {
		return 0
	}
	return min(int(f*HilbertResolution), HilbertResolution-1)
}

// Reindex reorders s in place so that s[i] becomes the old s[itt[i]].
func Reindex[S ~[]E, E any](s S, itt []int) {
	if len(s) != len(itt) {
		panic("Reindex: permutation length mismatch")
	}
	old := slices.Clone(s)
	for i, from := range itt {
		s[i] = old[from]
	}
}
