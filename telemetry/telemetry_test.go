// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package telemetry

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/2dChan/t2voronoi"
	"github.com/gocarina/gocsv"
	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewStepRecord(t *testing.T) {
	stats := t2voronoi.Stats{Timestep: 7, LastFlagged: 4, LastQueueSize: 19, LastOutcome: "local_repair"}
	got := NewStepRecord(stats, 10, 1500*time.Microsecond)
	want := StepRecord{Timestep: 7, Outcome: "local_repair", Flagged: 4, QueueSize: 19, NeighMax: 10, DurationMS: 1.5}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("NewStepRecord(...) mismatch (-want +got):\n%s", diff)
	}
}

func TestRecorder_CSV(t *testing.T) {
	var buf bytes.Buffer
	r := NewRecorder(&buf, 2)
	want := []StepRecord{
		{Timestep: 1, Outcome: "clean", NeighMax: 8, DurationMS: 0.5},
		{Timestep: 2, Outcome: "local_repair", Flagged: 3, QueueSize: 12, NeighMax: 8, DurationMS: 1.25},
		{Timestep: 3, Outcome: "global_rebuild", Flagged: 90, QueueSize: 400, NeighMax: 10, DurationMS: 12},
	}
	for _, rec := range want {
		if err := r.Record(rec); err != nil {
			t.Fatalf("r.Record(%+v) error = %v, want nil", rec, err)
		}
	}

	if got := strings.Count(buf.String(), "timestep"); got != 1 {
		t.Errorf("CSV header count = %v, want 1", got)
	}
	var got []StepRecord
	if err := gocsv.Unmarshal(&buf, &got); err != nil {
		t.Fatalf("gocsv.Unmarshal(...) error = %v, want nil", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("CSV records mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want[1:], r.Records()); diff != "" {
		t.Errorf("r.Records() mismatch (-want +got):\n%s", diff)
	}
}

func TestRecorder_NoOutput(t *testing.T) {
	r := NewRecorder(nil, 0)
	for i := range 3 {
		if err := r.Record(StepRecord{Timestep: i}); err != nil {
			t.Fatalf("r.Record(...) error = %v, want nil", err)
		}
	}
	if diff := cmp.Diff([]StepRecord{{Timestep: 2}}, r.Records()); diff != "" {
		t.Errorf("r.Records() mismatch (-want +got):\n%s", diff)
	}
}

func TestRecorder_RecordsSnapshot(t *testing.T) {
	r := NewRecorder(nil, 2)
	for i := range 2 {
		if err := r.Record(StepRecord{Timestep: i}); err != nil {
			t.Fatalf("r.Record(...) error = %v, want nil", err)
		}
	}
	snapshot := r.Records()
	if err := r.Record(StepRecord{Timestep: 2}); err != nil {
		t.Fatalf("r.Record(...) error = %v, want nil", err)
	}

	if diff := cmp.Diff([]StepRecord{{Timestep: 0}, {Timestep: 1}}, snapshot); diff != "" {
		t.Errorf("earlier r.Records() changed after Record (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]StepRecord{{Timestep: 1}, {Timestep: 2}}, r.Records()); diff != "" {
		t.Errorf("r.Records() mismatch (-want +got):\n%s", diff)
	}
}

func TestSummarize(t *testing.T) {
	if diff := cmp.Diff(Summary{}, Summarize(nil)); diff != "" {
		t.Errorf("Summarize(nil) mismatch (-want +got):\n%s", diff)
	}

	var records []StepRecord
	for i := range 10 {
		rec := StepRecord{Timestep: i + 1, Outcome: "clean", DurationMS: float64(10 - i)}
		switch i {
		case 3:
			rec.Outcome, rec.Flagged, rec.QueueSize = "local_repair", 2, 10
		case 6:
			rec.Outcome, rec.Flagged, rec.QueueSize = "global_rebuild", 5, 20
		}
		records = append(records, rec)
	}

	s := Summarize(records)
	if s.Steps != 10 || s.Skipped != 8 || s.LocalRepairs != 1 || s.GlobalRebuilds != 1 {
		t.Errorf("Summarize(...) counts = %+v, want 10 steps, 8 skipped, 1 local, 1 global", s)
	}
	if s.QueueMean != 15 || math.Abs(s.QueueStd-math.Sqrt(50)) > 1e-12 {
		t.Errorf("Summarize(...) queue = %v ± %v, want 15 ± %v", s.QueueMean, s.QueueStd, math.Sqrt(50))
	}
	if s.DurationMean != 5.5 {
		t.Errorf("Summarize(...) DurationMean = %v, want 5.5", s.DurationMean)
	}
	if s.DurationP90 < 9 || s.DurationP90 > 10 {
		t.Errorf("Summarize(...) DurationP90 = %v, want in [9 10]", s.DurationP90)
	}
	if records[0].DurationMS != 10 {
		t.Errorf("Summarize(...) reordered its input")
	}
}

type fakeSource t2voronoi.Stats

func (f fakeSource) Stats() t2voronoi.Stats {
	return t2voronoi.Stats(f)
}

func TestCollector(t *testing.T) {
	c := NewCollector("t2v", fakeSource{Timestep: 12, SkippedFrames: 8, LocalRepairs: 3, GlobalRebuilds: 1, LastQueueSize: 14})

	if got := testutil.CollectAndCount(c); got != 7 {
		t.Errorf("testutil.CollectAndCount(c) = %v, want 7", got)
	}

	const want = `
# HELP t2v_triangulation_local_repairs_total Steps repaired locally.
# TYPE t2v_triangulation_local_repairs_total counter
t2v_triangulation_local_repairs_total 3
# HELP t2v_triangulation_timestep Number of TestAndRepair calls.
# TYPE t2v_triangulation_timestep gauge
t2v_triangulation_timestep 12
`
	if err := testutil.CollectAndCompare(c, strings.NewReader(want),
		"t2v_triangulation_local_repairs_total", "t2v_triangulation_timestep"); err != nil {
		t.Errorf("testutil.CollectAndCompare(...) error = %v, want nil", err)
	}
}
