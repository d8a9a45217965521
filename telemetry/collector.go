// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package telemetry

import (
	"github.com/2dChan/t2voronoi"
	"github.com/prometheus/client_golang/prometheus"
)

// StatsSource is implemented by *t2voronoi.Tessellation.
type StatsSource interface {
	Stats() t2voronoi.Stats
}

// Collector exports the counters of a StatsSource as Prometheus metrics.
// It reads the source on every scrape, so it must not be scraped while the
// source is being stepped on another goroutine.
type Collector struct {
	source StatsSource

	timestep       *prometheus.Desc
	skipped        *prometheus.Desc
	localRepairs   *prometheus.Desc
	globalRebuilds *prometheus.Desc
	escalations    *prometheus.Desc
	repairedPoints *prometheus.Desc
	lastQueueSize  *prometheus.Desc
}

// NewCollector returns a collector for source with metric names prefixed by
// namespace.
func NewCollector(namespace string, source StatsSource) *Collector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "triangulation", name), help, nil, nil)
	}
	return &Collector{
		source:         source,
		timestep:       desc("timestep", "Number of TestAndRepair calls."),
		skipped:        desc("skipped_frames_total", "Steps that found the triangulation valid."),
		localRepairs:   desc("local_repairs_total", "Steps repaired locally."),
		globalRebuilds: desc("global_rebuilds_total", "Global rebuilds."),
		escalations:    desc("escalations_total", "Local repairs that fell back to a global rebuild."),
		repairedPoints: desc("repaired_points_total", "Points whose rings were recomputed by local repairs."),
		lastQueueSize:  desc("last_queue_size", "Repair queue size of the last step."),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.timestep
	ch <- c.skipped
	ch <- c.localRepairs
	ch <- c.globalRebuilds
	ch <- c.escalations
	ch <- c.repairedPoints
	ch <- c.lastQueueSize
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.source.Stats()
	ch <- prometheus.MustNewConstMetric(c.timestep, prometheus.GaugeValue, float64(s.Timestep))
	ch <- prometheus.MustNewConstMetric(c.skipped, prometheus.CounterValue, float64(s.SkippedFrames))
	ch <- prometheus.MustNewConstMetric(c.localRepairs, prometheus.CounterValue, float64(s.LocalRepairs))
	ch <- prometheus.MustNewConstMetric(c.globalRebuilds, prometheus.CounterValue, float64(s.GlobalRebuilds))
	ch <- prometheus.MustNewConstMetric(c.escalations, prometheus.CounterValue, float64(s.Escalations))
	ch <- prometheus.MustNewConstMetric(c.repairedPoints, prometheus.CounterValue, float64(s.RepairedPoints))
	ch <- prometheus.MustNewConstMetric(c.lastQueueSize, prometheus.GaugeValue, float64(s.LastQueueSize))
}
