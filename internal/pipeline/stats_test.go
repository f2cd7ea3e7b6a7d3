package pipeline

import (
	"testing"
	"time"
)

func TestParseStatsSnapshotPercentiles(t *testing.T) {
	stats := NewParseStats(time.Hour)
	for _, ms := range []int64{100, 200, 300, 400, 500} {
		stats.Record(KindSubject, time.Duration(ms)*time.Millisecond)
	}
	stats.Record(KindCourse, 50*time.Millisecond)

	snap := stats.Snapshot()
	sub := snap.ByKind[KindSubject]
	if sub.Count != 5 {
		t.Fatalf("expected count=5, got %d", sub.Count)
	}
	if sub.MinMs != 100 || sub.MaxMs != 500 {
		t.Fatalf("expected min=100 max=500, got %d %d", sub.MinMs, sub.MaxMs)
	}
	if sub.AvgMs != 300 {
		t.Fatalf("expected avg=300, got %f", sub.AvgMs)
	}
	if sub.P50Ms != 300 {
		t.Fatalf("expected p50=300, got %f", sub.P50Ms)
	}
	if sub.P95Ms != 480 {
		t.Fatalf("expected p95=480, got %f", sub.P95Ms)
	}
	if sub.P99Ms != 496 {
		t.Fatalf("expected p99=496, got %f", sub.P99Ms)
	}
	if snap.All.Count != 6 || snap.All.MinMs != 50 {
		t.Fatalf("expected 6 samples overall with min 50, got %+v", snap.All)
	}
	if snap.ByKind[KindCourse].Count != 1 {
		t.Fatalf("expected 1 course sample, got %d", snap.ByKind[KindCourse].Count)
	}
}

func TestParseStatsPrunesExpiredSamples(t *testing.T) {
	stats := NewParseStats(10 * time.Millisecond)
	stats.Record(KindProject, 100*time.Millisecond)
	time.Sleep(25 * time.Millisecond)

	if snap := stats.Snapshot(); snap.All.Count != 0 {
		t.Fatalf("expected count=0 after prune, got %d", snap.All.Count)
	}

	stats.Record(KindProject, 200*time.Millisecond)
	snap := stats.Snapshot()
	if snap.All.Count != 1 || snap.All.MinMs != 200 || snap.All.MaxMs != 200 {
		t.Fatalf("expected one fresh sample of 200, got %+v", snap.All)
	}
}

func TestParseStatsClampsNegativeDuration(t *testing.T) {
	stats := NewParseStats(time.Hour)
	stats.Record(KindCourse, -5*time.Millisecond)
	if snap := stats.Snapshot(); snap.All.MinMs != 0 {
		t.Fatalf("expected min=0, got %d", snap.All.MinMs)
	}
}

func TestParseStatsNilRecorder(t *testing.T) {
	var stats *ParseStats
	stats.Record(KindCourse, time.Second)
}
