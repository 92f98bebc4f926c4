package sb

import (
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
)

// Metrics holds lightweight counters for HTTP activity against the source API.
type Metrics struct {
	TotalRequests atomic.Int64

	ReadRequests  atomic.Int64 // GET
	WriteRequests atomic.Int64 // POST/PUT/PATCH/DELETE

	mu         sync.Mutex
	hostCounts map[string]int64
	status2xx  int64
	status4xx  int64
	status429  int64
	status5xx  int64
}

// NewMetrics creates a new metrics collector.
func NewMetrics() *Metrics { return &Metrics{hostCounts: make(map[string]int64)} }

// IncRequest increments per-host and total request counters.
func (m *Metrics) IncRequest(host, method string) {
	m.TotalRequests.Add(1)
	switch strings.ToUpper(method) {
	case http.MethodGet:
		m.ReadRequests.Add(1)
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		m.WriteRequests.Add(1)
	}
	m.mu.Lock()
	m.hostCounts[host]++
	m.mu.Unlock()
}

// IncStatus tracks status buckets.
func (m *Metrics) IncStatus(code int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case code == 429:
		m.status429++
	case code >= 200 && code < 300:
		m.status2xx++
	case code >= 400 && code < 500:
		m.status4xx++
	case code >= 500:
		m.status5xx++
	}
}

// MetricsSnapshot is a read-only copy of metrics state.
type MetricsSnapshot struct {
	TotalRequests int64
	ReadRequests  int64
	WriteRequests int64
	HostCounts    map[string]int64
	Status2xx     int64
	Status4xx     int64
	Status429     int64
	Status5xx     int64
}

// Snapshot returns a copy of the metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	copyHosts := make(map[string]int64, len(m.hostCounts))
	for k, v := range m.hostCounts {
		copyHosts[k] = v
	}
	return MetricsSnapshot{
		TotalRequests: m.TotalRequests.Load(),
		ReadRequests:  m.ReadRequests.Load(),
		WriteRequests: m.WriteRequests.Load(),
		HostCounts:    copyHosts,
		Status2xx:     m.status2xx,
		Status4xx:     m.status4xx,
		Status429:     m.status429,
		Status5xx:     m.status5xx,
	}
}
