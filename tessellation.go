// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package t2voronoi maintains the Delaunay triangulation of points moving in
// a periodic box, and the Voronoi tessellation dual to it. After every move
// the triangulation is tested and repaired locally, falling back to a global
// rebuild when the damage is too wide or the local repair fails.
package t2voronoi

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/2dChan/t2voronoi/celllist"
	"github.com/2dChan/t2voronoi/internal/workers"
	"github.com/2dChan/t2voronoi/periodic"
	"github.com/2dChan/t2voronoi/t2delaunay"
	"github.com/2dChan/t2voronoi/utils"
	"github.com/golang/geo/r2"
)

const minPoints = 3

var (
	// ErrTopology is returned when not even a global rebuild restores a
	// valid triangulation. The Tessellation must not be used afterwards.
	ErrTopology = errors.New("t2voronoi: triangulation topology cannot be repaired")
	// ErrWorkerFault is returned when a parallel pass panics.
	ErrWorkerFault = workers.ErrFault
)

// Stats are the counters of a Tessellation since it was created.
type Stats struct {
	Timestep       int
	SkippedFrames  int
	LocalRepairs   int
	GlobalRebuilds int
	// Escalations counts local repairs that fell back to a global rebuild.
	Escalations int
	// RepairedPoints accumulates the queue sizes of local repairs.
	RepairedPoints int
	LastFlagged    int
	LastQueueSize  int
	LastOutcome    string
}

// Tessellation owns a periodic point set and keeps its Delaunay
// triangulation valid as the points move. It is not safe for concurrent use.
type Tessellation struct {
	box      periodic.Box
	points   []r2.Point
	idxToTag []int
	tagToIdx []int

	store       *Store
	grid        *celllist.Grid
	opts        Options
	log         *slog.Logger
	forceGlobal bool
	stats       Stats
}

// NewTessellation wraps points into box and triangulates them.
func NewTessellation(points []r2.Point, box periodic.Box, setters ...Option) (*Tessellation, error) {
	opts := defaultOptions()
	for _, set := range setters {
		if err := set(&opts); err != nil {
			return nil, err
		}
	}
	if len(points) < minPoints {
		return nil, fmt.Errorf("t2voronoi: at least %d points are required, got %d", minPoints, len(points))
	}

	t := &Tessellation{
		box:    box,
		points: make([]r2.Point, len(points)),
		store:  newStore(len(points), opts.NeighborSlack),
		opts:   opts,
		log:    opts.Logger,
	}
	for i, p := range points {
		t.points[i] = box.PutInBox(p)
	}
	t.resetTags()
	if err := t.newGrid(); err != nil {
		return nil, err
	}
	if err := t.rebuildGlobal(); err != nil {
		return nil, err
	}
	t.stats = Stats{LastOutcome: stateGlobalRebuild.String()}
	return t, nil
}

func (t *Tessellation) resetTags() {
	t.idxToTag = make([]int, len(t.points))
	t.tagToIdx = make([]int, len(t.points))
	for i := range t.points {
		t.idxToTag[i] = i
		t.tagToIdx[i] = i
	}
}

func (t *Tessellation) newGrid() error {
	spacing := math.Sqrt(t.box.Area() / float64(len(t.points)))
	grid, err := celllist.New(t.box, t.opts.CellSizeFactor*spacing)
	if err != nil {
		return err
	}
	t.grid = grid
	return nil
}

func (t *Tessellation) computeGrid() error {
	if t.opts.Parallel {
		return t.grid.ComputeParallel(t.points, t.opts.Workers)
	}
	t.grid.Compute(t.points)
	return nil
}

func (t *Tessellation) locator() (*t2delaunay.Locator, error) {
	if err := t.computeGrid(); err != nil {
		return nil, err
	}
	return t2delaunay.NewLocator(t.points, t.grid, t2delaunay.WithEps(t.opts.Eps))
}

// TestAndRepair advances the timestep, tests the triangulation against the
// current positions and repairs it. On return the triangulation is valid,
// unless the error wraps ErrTopology or ErrWorkerFault.
func (t *Tessellation) TestAndRepair() error {
	t.stats.Timestep++
	if t.opts.SortPeriod > 0 && t.stats.Timestep%t.opts.SortPeriod == 0 {
		if err := t.SpatialSort(); err != nil {
			return err
		}
	}

	loc, err := t.locator()
	if err != nil {
		return err
	}

	var flagged, queue []int
	if !t.forceGlobal && !t.opts.GlobalOnly {
		flagged, err = t.flagged(loc)
		if err != nil {
			return fmt.Errorf("t2voronoi: validity test: %w", err)
		}
	}
	t.stats.LastFlagged = len(flagged)
	t.stats.LastQueueSize = 0

	state := afterTest(len(flagged), t.forceGlobal || t.opts.GlobalOnly)
	outcome := state
	for state != stateClean {
		switch state {
		case stateFlagged:
			queue = t.repairQueue(flagged)
			t.stats.LastQueueSize = len(queue)
			state = afterFlagged(len(queue), len(t.points), t.opts.RepairFraction)
			t.log.Debug("repair decision", "timestep", t.stats.Timestep, "flagged", len(flagged), "queue", len(queue), "next", state)
		case stateLocalRepair:
			err := t.repairLocal(loc, queue)
			if errors.Is(err, ErrWorkerFault) {
				return fmt.Errorf("t2voronoi: local repair: %w", err)
			}
			if err != nil {
				t.stats.Escalations++
				t.log.Warn("local repair failed", "timestep", t.stats.Timestep, "queue", len(queue), "error", err)
			}
			state = afterLocalRepair(err)
		case stateGlobalRebuild:
			if err := t.rebuildGlobal(); err != nil {
				return err
			}
			state = stateClean
		}
		outcome = max(outcome, state)
	}

	if outcome == stateClean {
		t.stats.SkippedFrames++
	}
	t.stats.LastOutcome = outcome.String()
	return nil
}

// Retriangulate rebuilds the triangulation from scratch.
func (t *Tessellation) Retriangulate() error {
	return t.rebuildGlobal()
}

// SpatialSort renumbers the points along a Hilbert curve. Tags follow their
// points, and every ring is relabeled so that it is unchanged in tags.
func (t *Tessellation) SpatialSort() error {
	itt, tti, err := utils.HilbertOrder(t.points, t.box)
	if err != nil {
		return fmt.Errorf("t2voronoi: spatial sort: %w", err)
	}
	utils.Reindex(t.points, itt)
	utils.Reindex(t.idxToTag, itt)
	for i, tag := range t.idxToTag {
		t.tagToIdx[tag] = i
	}
	t.store.reindex(itt, tti)
	return nil
}

// AddPoint appends p and returns its tag. The next TestAndRepair rebuilds
// the triangulation globally.
func (t *Tessellation) AddPoint(p r2.Point) (int, error) {
	if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
		return 0, fmt.Errorf("AddPoint: %w: %v", t2delaunay.ErrNonFinite, p)
	}
	tag := len(t.points)
	t.points = append(t.points, t.box.PutInBox(p))
	t.idxToTag = append(t.idxToTag, tag)
	t.tagToIdx = append(t.tagToIdx, len(t.points)-1)
	return tag, t.resized()
}

// RemovePoint removes the point at slot. Later slots shift down by one, and
// tags above the removed tag are renumbered down by one. The next
// TestAndRepair rebuilds the triangulation globally.
func (t *Tessellation) RemovePoint(slot int) error {
	if slot < 0 || slot >= len(t.points) {
		return fmt.Errorf("RemovePoint: slot %d out of range [0 %d)", slot, len(t.points))
	}
	if len(t.points) <= minPoints {
		return fmt.Errorf("RemovePoint: at least %d points are required", minPoints)
	}
	tag := t.idxToTag[slot]
	t.points = slices.Delete(t.points, slot, slot+1)
	t.idxToTag = slices.Delete(t.idxToTag, slot, slot+1)
	t.tagToIdx = t.tagToIdx[:len(t.points)]
	for i, other := range t.idxToTag {
		if other > tag {
			t.idxToTag[i] = other - 1
		}
		t.tagToIdx[t.idxToTag[i]] = i
	}
	return t.resized()
}

func (t *Tessellation) resized() error {
	t.store.resize(len(t.points))
	t.forceGlobal = true
	return t.newGrid()
}

// MovePoints displaces every point and wraps it back into the box.
func (t *Tessellation) MovePoints(displacements []r2.Point) error {
	if len(displacements) != len(t.points) {
		return fmt.Errorf("MovePoints: got %d displacements, want %d", len(displacements), len(t.points))
	}
	move := func(lo, hi int) {
		for i := lo; i < hi; i++ {
			t.points[i] = t.box.PutInBox(t.points[i].Add(displacements[i]))
		}
	}
	if t.opts.Parallel {
		return workers.For(len(t.points), t.opts.Workers, move)
	}
	move(0, len(t.points))
	return nil
}

// SetPositions replaces every position, wrapped into the box.
func (t *Tessellation) SetPositions(points []r2.Point) error {
	if len(points) != len(t.points) {
		return fmt.Errorf("SetPositions: got %d points, want %d", len(points), len(t.points))
	}
	for i, p := range points {
		t.points[i] = t.box.PutInBox(p)
	}
	return nil
}

func (t *Tessellation) Box() periodic.Box {
	return t.box
}

func (t *Tessellation) NumPoints() int {
	return len(t.points)
}

// Positions returns the current positions by slot. The slice must not be
// modified; use MovePoints or SetPositions.
func (t *Tessellation) Positions() []r2.Point {
	return t.points
}

// IdxToTag maps a slot to the tag of the point it holds.
func (t *Tessellation) IdxToTag() []int {
	return t.idxToTag
}

// TagToIdx maps a tag to the slot currently holding it.
func (t *Tessellation) TagToIdx() []int {
	return t.tagToIdx
}

func (t *Tessellation) Store() *Store {
	return t.store
}

func (t *Tessellation) Stats() Stats {
	return t.stats
}
