package pipeline

import (
	"slices"
	"sync"
	"time"
)

type sample struct {
	timestamp  time.Time
	kind       Kind
	durationMs int64
}

// LatencySnapshot aggregates parse durations.
type LatencySnapshot struct {
	Count int     `json:"count"`
	MinMs int64   `json:"min_ms"`
	MaxMs int64   `json:"max_ms"`
	AvgMs float64 `json:"avg_ms"`
	P50Ms float64 `json:"p50_ms"`
	P95Ms float64 `json:"p95_ms"`
	P99Ms float64 `json:"p99_ms"`
}

// StatsSnapshot is a point-in-time view of recent parse durations, over
// all kinds and per kind.
type StatsSnapshot struct {
	All    LatencySnapshot          `json:"all"`
	ByKind map[Kind]LatencySnapshot `json:"by_kind"`
}

// ParseStats tracks how long files take to load and assemble within a
// rolling window.
type ParseStats struct {
	mu      sync.Mutex
	samples []sample
	maxAge  time.Duration
}

func NewParseStats(maxAge time.Duration) *ParseStats {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &ParseStats{
		samples: make([]sample, 0, 256),
		maxAge:  maxAge,
	}
}

// Record adds one duration. A nil receiver ignores it.
func (s *ParseStats) Record(kind Kind, d time.Duration) {
	if s == nil {
		return
	}
	ms := max(d.Milliseconds(), 0)
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(now)
	s.samples = append(s.samples, sample{timestamp: now, kind: kind, durationMs: ms})
}

func (s *ParseStats) Snapshot() StatsSnapshot {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(now)
	snap := StatsSnapshot{ByKind: make(map[Kind]LatencySnapshot)}
	if len(s.samples) == 0 {
		return snap
	}

	all := make([]int64, 0, len(s.samples))
	byKind := make(map[Kind][]int64)
	for _, sm := range s.samples {
		all = append(all, sm.durationMs)
		byKind[sm.kind] = append(byKind[sm.kind], sm.durationMs)
	}
	snap.All = aggregate(all)
	for k, v := range byKind {
		snap.ByKind[k] = aggregate(v)
	}
	return snap
}

func aggregate(values []int64) LatencySnapshot {
	slices.Sort(values)
	var sum int64
	for _, v := range values {
		sum += v
	}
	return LatencySnapshot{
		Count: len(values),
		MinMs: values[0],
		MaxMs: values[len(values)-1],
		AvgMs: float64(sum) / float64(len(values)),
		P50Ms: percentile(values, 50),
		P95Ms: percentile(values, 95),
		P99Ms: percentile(values, 99),
	}
}

func (s *ParseStats) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.maxAge)
	s.samples = slices.DeleteFunc(s.samples, func(sm sample) bool {
		return sm.timestamp.Before(cutoff)
	})
}

// percentile interpolates linearly between the two closest ranks.
func percentile(sorted []int64, pct float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if pct <= 0 {
		return float64(sorted[0])
	}
	if pct >= 100 {
		return float64(sorted[len(sorted)-1])
	}
	index := float64(len(sorted)-1) * pct / 100
	lower := int(index)
	if lower+1 >= len(sorted) {
		return float64(sorted[lower])
	}
	weight := index - float64(lower)
	lo, hi := float64(sorted[lower]), float64(sorted[lower+1])
	return lo + (hi-lo)*weight
}
