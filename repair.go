// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package t2voronoi

import (
	"errors"
	"fmt"
	"slices"

	"github.com/2dChan/t2voronoi/internal/workers"
	"github.com/2dChan/t2voronoi/t2delaunay"
)

var errInconsistent = errors.New("t2voronoi: neighbor rings are inconsistent")

// repairState is the stage a step is in. States are ordered by cost, so the
// largest state a step passes through is its outcome.
type repairState int

const (
	stateClean repairState = iota
	stateFlagged
	stateLocalRepair
	stateGlobalRebuild
)

func (s repairState) String() string {
	switch s {
	case stateClean:
		return "clean"
	case stateFlagged:
		return "flagged"
	case stateLocalRepair:
		return "local_repair"
	case stateGlobalRebuild:
		return "global_rebuild"
	}
	return fmt.Sprintf("repairState(%d)", int(s))
}

func afterTest(flagged int, forceGlobal bool) repairState {
	switch {
	case forceGlobal:
		return stateGlobalRebuild
	case flagged == 0:
		return stateClean
	}
	return stateFlagged
}

func afterFlagged(queueLen, n int, fraction float64) repairState {
	if float64(queueLen) > fraction*float64(n) {
		return stateGlobalRebuild
	}
	return stateLocalRepair
}

func afterLocalRepair(err error) repairState {
	if err != nil {
		return stateGlobalRebuild
	}
	return stateClean
}

// repairQueue returns the flagged points and every member of their rings,
// sorted and without duplicates.
func (t *Tessellation) repairQueue(flagged []int) []int {
	queue := slices.Clone(flagged)
	for _, i := range flagged {
		queue = append(queue, t.store.Ring(i)...)
	}
	slices.Sort(queue)
	return slices.Compact(queue)
}

// repairLocal recomputes the rings of queue from the current positions and
// commits them together. On error the caller must rebuild globally.
func (t *Tessellation) repairLocal(loc *t2delaunay.Locator, queue []int) error {
	rings := make([][]int, len(queue))
	errs := make([]error, len(queue))
	ringRange := func(lo, hi int) {
		for k := lo; k < hi; k++ {
			rings[k], errs[k] = loc.Ring(queue[k])
		}
	}
	if t.opts.Parallel {
		if err := workers.For(len(queue), t.opts.Workers, ringRange); err != nil {
			return err
		}
	} else {
		ringRange(0, len(queue))
	}
	for k, err := range errs {
		if err != nil {
			return fmt.Errorf("ring of point %d: %w", queue[k], err)
		}
	}

	if err := t.store.commit(queue, rings); err != nil {
		return err
	}
	if !t.store.checkTopology() {
		return errInconsistent
	}
	t.stats.LocalRepairs++
	t.stats.RepairedPoints += len(queue)
	return nil
}

// rebuildGlobal replaces every ring with a fresh triangulation of the current
// positions. If the result is inconsistent it retries once over the full
// 3x3 tiling, and then gives up with ErrTopology after dumping the positions.
func (t *Tessellation) rebuildGlobal() error {
	t.forceGlobal = false
	err := t.triangulate(t2delaunay.WithEps(t.opts.Eps))
	if err == nil {
		t.stats.GlobalRebuilds++
		t.log.Info("global rebuild", "timestep", t.stats.Timestep, "points", len(t.points), "neigh_max", t.store.NeighMax())
		return nil
	}

	t.log.Warn("global rebuild failed, retrying over full tiling", "timestep", t.stats.Timestep, "error", err)
	err = t.triangulate(t2delaunay.WithEps(t.opts.Eps), t2delaunay.WithFullTiling())
	if err == nil {
		t.stats.GlobalRebuilds++
		return nil
	}

	if t.opts.DiagnosticPath != "" {
		if dumpErr := t.dumpPositions(t.opts.DiagnosticPath); dumpErr != nil {
			err = errors.Join(err, dumpErr)
		}
	}
	t.log.Error("triangulation cannot be repaired", "timestep", t.stats.Timestep, "dump", t.opts.DiagnosticPath, "error", err)
	return fmt.Errorf("%w: timestep %d: %w", ErrTopology, t.stats.Timestep, err)
}

func (t *Tessellation) triangulate(setters ...t2delaunay.TriangulationOption) error {
	dt, err := t2delaunay.NewTriangulation(t.points, t.box, setters...)
	if err != nil {
		return err
	}
	t.store.setRings(dt)
	if !t.store.checkTopology() {
		return errInconsistent
	}
	return nil
}
