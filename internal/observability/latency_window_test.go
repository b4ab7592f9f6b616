package observability

import (
	"testing"
	"time"
)

func TestLatencyWindowSnapshot(t *testing.T) {
	w := NewLatencyWindow(8)
	w.Observe(StageTurnTotal, 500*time.Millisecond)
	w.Observe(StageTurnTotal, 700*time.Millisecond)
	w.Observe(StageTurnTotal, 900*time.Millisecond)
	w.ObserveIndicator("remote_error")
	w.ObserveIndicator("remote_error")

	snap := w.Snapshot()
	if snap.WindowSize != 8 {
		t.Fatalf("WindowSize = %d, want 8", snap.WindowSize)
	}
	if len(snap.Stages) != 1 {
		t.Fatalf("len(Stages) = %d, want 1", len(snap.Stages))
	}
	s := snap.Stages[0]
	if s.Stage != StageTurnTotal {
		t.Fatalf("Stage = %q, want %q", s.Stage, StageTurnTotal)
	}
	if s.Samples != 3 {
		t.Fatalf("Samples = %d, want 3", s.Samples)
	}
	if s.LastMS != 900 {
		t.Fatalf("LastMS = %.2f, want 900", s.LastMS)
	}
	if s.P50MS != 700 {
		t.Fatalf("P50MS = %.2f, want 700", s.P50MS)
	}
	if s.P95MS <= 700 || s.P95MS > 900 {
		t.Fatalf("P95MS = %.2f, want (700,900]", s.P95MS)
	}
	if len(snap.Indicators) != 1 || snap.Indicators[0].Count != 2 {
		t.Fatalf("Indicators = %+v, want one remote_error with count 2", snap.Indicators)
	}
}

func TestLatencyWindowWraps(t *testing.T) {
	w := NewLatencyWindow(2)
	w.Observe(StageFirstDelta, 100*time.Millisecond)
	w.Observe(StageFirstDelta, 200*time.Millisecond)
	w.Observe(StageFirstDelta, 300*time.Millisecond)

	snap := w.Snapshot()
	if snap.Stages[0].Samples != 2 {
		t.Fatalf("Samples = %d, want 2", snap.Stages[0].Samples)
	}
	if snap.Stages[0].LastMS != 300 {
		t.Fatalf("LastMS = %.2f, want 300", snap.Stages[0].LastMS)
	}
}

func TestLatencyWindowReset(t *testing.T) {
	w := NewLatencyWindow(4)
	w.Observe(StageExtract, time.Millisecond)
	w.ObserveIndicator("reminder")
	w.Reset()

	snap := w.Snapshot()
	if len(snap.Stages) != 0 || len(snap.Indicators) != 0 {
		t.Fatalf("snapshot after reset not empty: %+v", snap)
	}
}
