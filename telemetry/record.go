// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package telemetry records what the repair loop does on every step.
package telemetry

import (
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/2dChan/t2voronoi"
	"github.com/gocarina/gocsv"
)

// StepRecord describes one TestAndRepair call.
type StepRecord struct {
	Timestep   int     `csv:"timestep"`
	Outcome    string  `csv:"outcome"`
	Flagged    int     `csv:"flagged"`
	QueueSize  int     `csv:"queue_size"`
	NeighMax   int     `csv:"neigh_max"`
	DurationMS float64 `csv:"duration_ms"`
}

// NewStepRecord builds the record of the step that produced stats.
func NewStepRecord(stats t2voronoi.Stats, neighMax int, d time.Duration) StepRecord {
	return StepRecord{
		Timestep:   stats.Timestep,
		Outcome:    stats.LastOutcome,
		Flagged:    stats.LastFlagged,
		QueueSize:  stats.LastQueueSize,
		NeighMax:   neighMax,
		DurationMS: float64(d) / float64(time.Millisecond),
	}
}

// Recorder keeps the last window records and streams every record as CSV.
type Recorder struct {
	out           io.Writer
	window        int
	records       []StepRecord
	headerWritten bool
}

// NewRecorder returns a recorder that keeps window records. If out is nil,
// records are only kept in memory.
func NewRecorder(out io.Writer, window int) *Recorder {
	if window < 1 {
		window = 1
	}
	return &Recorder{out: out, window: window}
}

// Record appends rec.
func (r *Recorder) Record(rec StepRecord) error {
	if len(r.records) == r.window {
		r.records = append(r.records[:0], r.records[1:]...)
	}
	r.records = append(r.records, rec)

	if r.out == nil {
		return nil
	}
	records := []StepRecord{rec}
	if !r.headerWritten {
		// First write includes headers
		if err := gocsv.Marshal(records, r.out); err != nil {
			return fmt.Errorf("writing step record: %w", err)
		}
		r.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, r.out); err != nil {
		return fmt.Errorf("writing step record: %w", err)
	}
	return nil
}

// Records returns a copy of the records in the window, oldest first.
func (r *Recorder) Records() []StepRecord {
	return slices.Clone(r.records)
}
