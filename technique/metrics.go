package technique

import (
	"sort"
	"sync"
	"time"
)

// CallStats aggregates provider calls for one technique and purpose.
type CallStats struct {
	Technique    Name          `json:"technique"`
	Purpose      string        `json:"purpose"`
	Calls        int           `json:"calls"`
	Failures     int           `json:"failures"`
	Timeouts     int           `json:"timeouts"`
	TotalLatency time.Duration `json:"total_latency"`
	InputTokens  int           `json:"input_tokens"`
	OutputTokens int           `json:"output_tokens"`
	Cost         float64       `json:"cost"`
}

// AverageLatency returns the mean call latency.
func (s CallStats) AverageLatency() time.Duration {
	if s.Calls == 0 {
		return 0
	}
	return s.TotalLatency / time.Duration(s.Calls)
}

type callKey struct {
	technique Name
	purpose   string
}

// Metrics collects provider call statistics. A nil *Metrics discards
// everything, so callers never need to check before recording.
type Metrics struct {
	mu    sync.Mutex
	calls map[callKey]*CallStats
}

func NewMetrics() *Metrics {
	return &Metrics{calls: make(map[callKey]*CallStats)}
}

// RecordCall adds one provider call outcome.
func (m *Metrics) RecordCall(name Name, purpose string, result CompletionResult, d time.Duration) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := callKey{technique: name, purpose: purpose}
	stats, ok := m.calls[key]
	if !ok {
		stats = &CallStats{Technique: name, Purpose: purpose}
		m.calls[key] = stats
	}
	stats.Calls++
	stats.TotalLatency += d
	if result.Err != nil {
		stats.Failures++
		if result.Err.Kind == KindTimeout {
			stats.Timeouts++
		}
		return
	}
	if result.Response != nil {
		stats.InputTokens += result.Response.Usage.InputTokens
		stats.OutputTokens += result.Response.Usage.OutputTokens
		stats.Cost += result.Response.Cost.Total
	}
}

// Snapshot returns a copy of the statistics ordered by technique then purpose.
func (m *Metrics) Snapshot() []CallStats {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	out := make([]CallStats, 0, len(m.calls))
	for _, s := range m.calls {
		out = append(out, *s)
	}
	m.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Technique != out[j].Technique {
			return out[i].Technique < out[j].Technique
		}
		return out[i].Purpose < out[j].Purpose
	})
	return out
}

// Reset clears all recorded statistics.
func (m *Metrics) Reset() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = make(map[callKey]*CallStats)
}
