// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package t2voronoi

import (
	"sync/atomic"

	"github.com/2dChan/t2voronoi/internal/workers"
	"github.com/2dChan/t2voronoi/t2delaunay"
)

// flagged returns, in ascending order, the points incident to a triangle
// whose circumcircle is no longer empty. It never modifies the store.
func (t *Tessellation) flagged(loc *t2delaunay.Locator) ([]int, error) {
	if t.opts.Parallel {
		return t.flaggedParallel(loc)
	}
	return t.flaggedSequential(loc), nil
}

func (t *Tessellation) flaggedParallel(loc *t2delaunay.Locator) ([]int, error) {
	tris := t.store.Triangles()
	flags := make([]atomic.Bool, len(t.points))
	var anyFailed atomic.Bool
	err := workers.For(len(tris), t.opts.Workers, func(lo, hi int) {
		for _, tri := range tris[lo:hi] {
			if loc.TriangleEmpty(tri[0], tri[1], tri[2]) {
				continue
			}
			flags[tri[0]].Store(true)
			flags[tri[1]].Store(true)
			flags[tri[2]].Store(true)
			anyFailed.Store(true)
		}
	})
	if err != nil {
		return nil, err
	}
	if !anyFailed.Load() {
		return nil, nil
	}

	var flagged []int
	for i := range flags {
		if flags[i].Load() {
			flagged = append(flagged, i)
		}
	}
	return flagged, nil
}

func (t *Tessellation) flaggedSequential(loc *t2delaunay.Locator) []int {
	var flagged []int
	for i := range t.points {
		if !loc.TestRing(i, t.store.Ring(i)) {
			flagged = append(flagged, i)
		}
	}
	return flagged
}
