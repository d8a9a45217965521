// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package config loads the YAML configuration of a triangulation run.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/2dChan/t2voronoi"
	"github.com/2dChan/t2voronoi/periodic"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds every configuration parameter.
type Config struct {
	Triangulation TriangulationConfig `yaml:"triangulation"`
	Simulation    SimulationConfig    `yaml:"simulation"`
	Telemetry     TelemetryConfig     `yaml:"telemetry"`
}

// TriangulationConfig maps onto t2voronoi options.
type TriangulationConfig struct {
	RepairFraction float64 `yaml:"repair_fraction"`
	NeighborSlack  int     `yaml:"neighbor_slack"`
	CellSizeFactor float64 `yaml:"cell_size_factor"`
	Workers        int     `yaml:"workers"` // 0 = GOMAXPROCS
	Parallel       bool    `yaml:"parallel"`
	GlobalOnly     bool    `yaml:"global_only"`
	SortPeriod     int     `yaml:"sort_period"` // 0 = never
	Eps            float64 `yaml:"eps"`
	DiagnosticPath string  `yaml:"diagnostic_path"`
}

// SimulationConfig holds the parameters of the example driver.
type SimulationConfig struct {
	Points    int        `yaml:"points"`
	Seed      int64      `yaml:"seed"`
	Box       [2]float64 `yaml:"box"`
	Steps     int        `yaml:"steps"`
	StepSize  float64    `yaml:"step_size"`
	Stiffness float64    `yaml:"stiffness"`
}

// TelemetryConfig holds output parameters.
type TelemetryConfig struct {
	CSVPath  string `yaml:"csv_path"` // "" = no CSV
	Window   int    `yaml:"window"`
	LogLevel string `yaml:"log_level"`
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only overwrites fields present in the file.
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every out-of-range parameter.
func (c *Config) Validate() error {
	var errs []error
	t := c.Triangulation
	if !(t.RepairFraction > 0 && t.RepairFraction <= 1) {
		errs = append(errs, fmt.Errorf("triangulation.repair_fraction must be in (0 1], got %v", t.RepairFraction))
	}
	if t.NeighborSlack < 0 {
		errs = append(errs, fmt.Errorf("triangulation.neighbor_slack must be non-negative, got %d", t.NeighborSlack))
	}
	if !(t.CellSizeFactor > 0) {
		errs = append(errs, fmt.Errorf("triangulation.cell_size_factor must be positive, got %v", t.CellSizeFactor))
	}
	if t.Workers < 0 {
		errs = append(errs, fmt.Errorf("triangulation.workers must be non-negative, got %d", t.Workers))
	}
	if t.SortPeriod < 0 {
		errs = append(errs, fmt.Errorf("triangulation.sort_period must be non-negative, got %d", t.SortPeriod))
	}
	if !(t.Eps > 0) {
		errs = append(errs, fmt.Errorf("triangulation.eps must be positive, got %v", t.Eps))
	}

	s := c.Simulation
	if s.Points < 3 {
		errs = append(errs, fmt.Errorf("simulation.points must be at least 3, got %d", s.Points))
	}
	if _, err := periodic.NewBox(s.Box[0], s.Box[1]); err != nil {
		errs = append(errs, fmt.Errorf("simulation.box: %w", err))
	}
	if s.Steps < 0 {
		errs = append(errs, fmt.Errorf("simulation.steps must be non-negative, got %d", s.Steps))
	}

	if c.Telemetry.Window < 1 {
		errs = append(errs, fmt.Errorf("telemetry.window must be positive, got %d", c.Telemetry.Window))
	}
	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Box returns the simulation box.
func (c *Config) Box() (periodic.Box, error) {
	return periodic.NewBox(c.Simulation.Box[0], c.Simulation.Box[1])
}

// LogLevel parses telemetry.log_level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Telemetry.LogLevel)); err != nil {
		return 0, fmt.Errorf("telemetry.log_level: %w", err)
	}
	return level, nil
}

// Options returns the t2voronoi options of the triangulation section.
func (c *Config) Options() []t2voronoi.Option {
	t := c.Triangulation
	return []t2voronoi.Option{
		t2voronoi.WithRepairFraction(t.RepairFraction),
		t2voronoi.WithNeighborSlack(t.NeighborSlack),
		t2voronoi.WithCellSizeFactor(t.CellSizeFactor),
		t2voronoi.WithWorkers(t.Workers),
		t2voronoi.WithParallel(t.Parallel),
		t2voronoi.WithGlobalOnly(t.GlobalOnly),
		t2voronoi.WithSortPeriod(t.SortPeriod),
		t2voronoi.WithEps(t.Eps),
		t2voronoi.WithDiagnosticPath(t.DiagnosticPath),
	}
}

// WriteYAML saves the configuration to path.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
