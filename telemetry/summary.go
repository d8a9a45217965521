// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package telemetry

import (
	"log/slog"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// Summary aggregates a window of step records.
type Summary struct {
	Steps          int
	Skipped        int
	LocalRepairs   int
	GlobalRebuilds int
	QueueMean      float64
	QueueStd       float64
	DurationMean   float64
	DurationP90    float64
}

// Summarize aggregates records. Queue statistics cover the steps that
// flagged anything.
func Summarize(records []StepRecord) Summary {
	s := Summary{Steps: len(records)}
	if len(records) == 0 {
		return s
	}

	var queues []float64
	durations := make([]float64, 0, len(records))
	for _, rec := range records {
		switch rec.Outcome {
		case "clean":
			s.Skipped++
		case "local_repair":
			s.LocalRepairs++
		case "global_rebuild":
			s.GlobalRebuilds++
		}
		if rec.Flagged > 0 {
			queues = append(queues, float64(rec.QueueSize))
		}
		durations = append(durations, rec.DurationMS)
	}

	if len(queues) > 0 {
		s.QueueMean, s.QueueStd = stat.MeanStdDev(queues, nil)
	}
	s.DurationMean = stat.Mean(durations, nil)
	slices.Sort(durations)
	s.DurationP90 = stat.Quantile(0.9, stat.Empirical, durations, nil)
	return s
}

// LogValue implements slog.LogValuer for structured logging.
func (s Summary) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("steps", s.Steps),
		slog.Int("skipped", s.Skipped),
		slog.Int("local_repairs", s.LocalRepairs),
		slog.Int("global_rebuilds", s.GlobalRebuilds),
		slog.Float64("queue_mean", s.QueueMean),
		slog.Float64("queue_std", s.QueueStd),
		slog.Float64("duration_mean_ms", s.DurationMean),
		slog.Float64("duration_p90_ms", s.DurationP90),
	)
}
