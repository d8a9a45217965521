// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package t2voronoi

import (
	"errors"
	"fmt"
	"log/slog"
)

const (
	defaultEps            = 1e-12
	defaultRepairFraction = 1.0 / 6
	defaultCellSizeFactor = 1.25
	defaultDiagnosticPath = "failed.txt"
)

type Options struct {
	// RepairFraction is the largest share of points a step may repair
	// locally before it falls back to a global rebuild.
	RepairFraction float64
	// NeighborSlack is extra ring capacity added on top of the default
	// headroom after a global rebuild.
	NeighborSlack int
	// CellSizeFactor scales the grid cell side, in mean interparticle
	// spacings.
	CellSizeFactor float64
	// Workers is the number of goroutines used by parallel passes; 0 means
	// GOMAXPROCS.
	Workers  int
	Parallel bool
	// GlobalOnly rebuilds the triangulation from scratch on every step.
	GlobalOnly bool
	// SortPeriod is the number of steps between spatial sorts; 0 disables
	// sorting.
	SortPeriod int
	Eps        float64
	// DiagnosticPath receives the positions when the triangulation cannot be
	// repaired. Empty disables the dump.
	DiagnosticPath string
	Logger         *slog.Logger
}

type Option func(*Options) error

func defaultOptions() Options {
	return Options{
		RepairFraction: defaultRepairFraction,
		CellSizeFactor: defaultCellSizeFactor,
		Parallel:       true,
		Eps:            defaultEps,
		DiagnosticPath: defaultDiagnosticPath,
		Logger:         slog.Default(),
	}
}

func WithRepairFraction(f float64) Option {
	return func(o *Options) error {
		if !(f > 0 && f <= 1) {
			return fmt.Errorf("WithRepairFraction: fraction must be in (0 1], got %v", f)
		}
		o.RepairFraction = f
		return nil
	}
}

// WithNeighborSlack adds extra ring capacity, rounded up to an even number.
func WithNeighborSlack(n int) Option {
	return func(o *Options) error {
		if n < 0 {
			return fmt.Errorf("WithNeighborSlack: slack must be non-negative, got %d", n)
		}
		o.NeighborSlack = n + n%2
		return nil
	}
}

func WithCellSizeFactor(f float64) Option {
	return func(o *Options) error {
		if !(f > 0) {
			return fmt.Errorf("WithCellSizeFactor: factor must be positive, got %v", f)
		}
		o.CellSizeFactor = f
		return nil
	}
}

func WithWorkers(n int) Option {
	return func(o *Options) error {
		if n < 0 {
			return fmt.Errorf("WithWorkers: workers must be non-negative, got %d", n)
		}
		o.Workers = n
		return nil
	}
}

func WithParallel(parallel bool) Option {
	return func(o *Options) error {
		o.Parallel = parallel
		return nil
	}
}

func WithGlobalOnly(globalOnly bool) Option {
	return func(o *Options) error {
		o.GlobalOnly = globalOnly
		return nil
	}
}

func WithSortPeriod(period int) Option {
	return func(o *Options) error {
		if period < 0 {
			return fmt.Errorf("WithSortPeriod: period must be non-negative, got %d", period)
		}
		o.SortPeriod = period
		return nil
	}
}

func WithEps(eps float64) Option {
	return func(o *Options) error {
		if eps <= 0 {
			return fmt.Errorf("WithEps: eps must be positive, got %v", eps)
		}
		o.Eps = eps
		return nil
	}
}

func WithDiagnosticPath(path string) Option {
	return func(o *Options) error {
		o.DiagnosticPath = path
		return nil
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) error {
		if logger == nil {
			return errors.New("WithLogger: logger must not be nil")
		}
		o.Logger = logger
		return nil
	}
}
