package api

import (
	"sort"
	"sync"
	"time"
)

// maxSamples bounds the per-route latency window used for percentiles
const maxSamples = 1000

// RouteMetrics aggregates timings for one route template
type RouteMetrics struct {
	Method      string        `json:"method"`
	Path        string        `json:"path"`
	Count       int64         `json:"count"`
	ErrorCount  int64         `json:"errorCount"`
	TotalTime   time.Duration `json:"totalTime"`
	AvgTime     time.Duration `json:"avgTime"`
	MinTime     time.Duration `json:"minTime"`
	MaxTime     time.Duration `json:"maxTime"`
	P50Time     time.Duration `json:"p50Time"`
	P95Time     time.Duration `json:"p95Time"`
	LastRequest time.Time     `json:"lastRequest"`

	samples []time.Duration
}

// Summary is the collector-wide view served on the metrics route
type Summary struct {
	WindowStart   time.Time       `json:"windowStart"`
	TotalRequests int64           `json:"totalRequests"`
	TotalErrors   int64           `json:"totalErrors"`
	Sockets       int64           `json:"openSockets"`
	Routes        []*RouteMetrics `json:"routes"`
}

// MetricsCollector collects request timings per route
type MetricsCollector struct {
	mu            sync.RWMutex
	routes        map[string]*RouteMetrics
	windowStart   time.Time
	totalRequests int64
	totalErrors   int64
	sockets       int64
}

// NewMetricsCollector creates an empty collector
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		routes:      make(map[string]*RouteMetrics),
		windowStart: time.Now().UTC(),
	}
}

// Record adds one finished request
func (mc *MetricsCollector) Record(method, path string, status int, took time.Duration, at time.Time) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	key := method + " " + path
	m, ok := mc.routes[key]
	if !ok {
		m = &RouteMetrics{Method: method, Path: path, MinTime: took}
		mc.routes[key] = m
	}
	m.Count++
	m.TotalTime += took
	m.AvgTime = m.TotalTime / time.Duration(m.Count)
	m.LastRequest = at
	if took < m.MinTime {
		m.MinTime = took
	}
	if took > m.MaxTime {
		m.MaxTime = took
	}
	if status >= 400 {
		m.ErrorCount++
		mc.totalErrors++
	}
	mc.totalRequests++

	if len(m.samples) >= maxSamples {
		m.samples = m.samples[1:]
	}
	m.samples = append(m.samples, took)
	m.P50Time, m.P95Time = percentiles(m.samples)
}

// SocketOpened counts a websocket that stays upgraded
func (mc *MetricsCollector) SocketOpened() {
	mc.mu.Lock()
	mc.sockets++
	mc.mu.Unlock()
}

// SocketClosed reverses SocketOpened
func (mc *MetricsCollector) SocketClosed() {
	mc.mu.Lock()
	mc.sockets--
	mc.mu.Unlock()
}

// Summary returns a copy of the collected metrics, slowest average first
func (mc *MetricsCollector) Summary() Summary {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	routes := make([]*RouteMetrics, 0, len(mc.routes))
	for _, m := range mc.routes {
		c := *m
		c.samples = nil
		routes = append(routes, &c)
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].AvgTime == routes[j].AvgTime {
			return routes[i].Method+routes[i].Path < routes[j].Method+routes[j].Path
		}
		return routes[i].AvgTime > routes[j].AvgTime
	})
	return Summary{
		WindowStart:   mc.windowStart,
		TotalRequests: mc.totalRequests,
		TotalErrors:   mc.totalErrors,
		Sockets:       mc.sockets,
		Routes:        routes,
	}
}

func percentiles(samples []time.Duration) (p50, p95 time.Duration) {
	sorted := append([]time.Duration(nil), samples...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return sorted[len(sorted)*50/100], sorted[len(sorted)*95/100]
}
