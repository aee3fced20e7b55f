// Package crawlhealth tracks per-source crawl outcomes and recommends when a
// source should switch to its fallback fetch method or be skipped entirely.
package crawlhealth

import (
	"log/slog"
	"sync"
	"time"
)

// Method is the fetch strategy a crawler should use. What "headless" means is
// adapter-specific; the tracker only emits the recommendation.
type Method string

const (
	MethodStatic   Method = "static"   // primary: plain HTTP fetch
	MethodHeadless Method = "headless" // fallback for sources that fight scraping
)

const (
	// SkipAfterConsecutiveFailures: this many zero-collected invocations in a
	// row and the source is omitted from the next round.
	SkipAfterConsecutiveFailures = 3
	// DegradeFailureRate: single-invocation failure rate above this while on
	// the static method recommends the headless fallback.
	DegradeFailureRate = 0.20
)

// AutoRevertMethod controls whether a fully successful crawl reverts a
// headless recommendation back to static. The downgrade is one-way per
// process lifetime; this switch exists so the policy can be revisited
// without touching the transition logic.
var AutoRevertMethod = false

// Entry is one crawl invocation record. Append-only, in-process.
type Entry struct {
	Timestamp    time.Time
	Source       string
	Method       Method
	Collected    int
	Deduplicated int
	Filtered     int
	Failed       int
	Duration     time.Duration
}

// SourceSummary aggregates all recorded invocations of one source.
type SourceSummary struct {
	SuccessRate float64
	TotalRuns   int
}

// Tracker derives per-source health state from crawl log entries.
// Safe for concurrent use.
type Tracker struct {
	mu                  sync.Mutex
	logs                []Entry
	consecutiveFailures map[string]int
	methodOverrides     map[string]Method
	log                 *slog.Logger
}

func New(log *slog.Logger) *Tracker {
	return &Tracker{
		consecutiveFailures: make(map[string]int),
		methodOverrides:     make(map[string]Method),
		log:                 log,
	}
}

// Record logs one crawl invocation and updates the source's derived state.
func (t *Tracker) Record(source string, collected, failed int, method Method, duration time.Duration) Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry := Entry{
		Timestamp: time.Now(),
		Source:    source,
		Method:    method,
		Collected: collected,
		Failed:    failed,
		Duration:  duration,
	}
	t.logs = append(t.logs, entry)

	if collected == 0 && failed > 0 {
		t.consecutiveFailures[source]++
	} else if collected > 0 {
		t.consecutiveFailures[source] = 0
		if AutoRevertMethod && failed == 0 {
			delete(t.methodOverrides, source)
		}
	}

	total := collected + failed
	failureRate := 0.0
	if total > 0 {
		failureRate = float64(failed) / float64(total)
	}

	consecutive := t.consecutiveFailures[source]
	switch {
	case consecutive >= SkipAfterConsecutiveFailures:
		t.log.Warn("source skipped after consecutive failures",
			"source", source, "consecutive", consecutive)
	case failureRate > DegradeFailureRate && method == MethodStatic:
		t.log.Warn("failure rate above threshold, switching to headless fetch",
			"source", source, "failure_rate", failureRate)
		t.methodOverrides[source] = MethodHeadless
	}

	return entry
}

// RecommendedMethod returns the fetch method a crawler should use next.
func (t *Tracker) RecommendedMethod(source string) Method {
	t.mu.Lock()
	defer t.mu.Unlock()
	if m, ok := t.methodOverrides[source]; ok {
		return m
	}
	return MethodStatic
}

// IsSkipped reports whether the source should be omitted from the next round.
func (t *Tracker) IsSkipped(source string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.consecutiveFailures[source] >= SkipAfterConsecutiveFailures
}

// RecentLogs returns the last n entries, oldest first.
func (t *Tracker) RecentLogs(n int) []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	if n <= 0 || n > len(t.logs) {
		n = len(t.logs)
	}
	out := make([]Entry, n)
	copy(out, t.logs[len(t.logs)-n:])
	return out
}

// Summary reports the all-time per-source success rate.
func (t *Tracker) Summary() map[string]SourceSummary {
	t.mu.Lock()
	defer t.mu.Unlock()

	type agg struct{ success, total int }
	bySource := make(map[string]*agg)
	for _, e := range t.logs {
		a := bySource[e.Source]
		if a == nil {
			a = &agg{}
			bySource[e.Source] = a
		}
		a.total += e.Collected + e.Failed
		a.success += e.Collected
	}

	result := make(map[string]SourceSummary, len(bySource))
	for source, a := range bySource {
		s := SourceSummary{TotalRuns: a.total}
		if a.total > 0 {
			s.SuccessRate = float64(a.success) / float64(a.total)
		}
		result[source] = s
	}
	return result
}
