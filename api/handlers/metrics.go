package handlers

import (
	"net/http"
	"strconv"

	"github.com/linesmerrill/court-session-api/api"
)

// formatRouteMetrics converts duration fields to milliseconds for JSON serialization
func formatRouteMetrics(routes []*api.RouteMetrics) []map[string]interface{} {
	result := make([]map[string]interface{}, len(routes))
	for i, route := range routes {
		result[i] = map[string]interface{}{
			"method":      route.Method,
			"path":        route.Path,
			"count":       route.Count,
			"errorCount":  route.ErrorCount,
			"avgTime":     route.AvgTime.Milliseconds(),
			"minTime":     route.MinTime.Milliseconds(),
			"maxTime":     route.MaxTime.Milliseconds(),
			"p50Time":     route.P50Time.Milliseconds(),
			"p95Time":     route.P95Time.Milliseconds(),
			"lastRequest": route.LastRequest,
		}
	}
	return result
}

// MetricsHandler serves the collected request metrics
type MetricsHandler struct {
	Collector *api.MetricsCollector
}

// MetricsSummaryHandler returns totals and the slowest routes. The optional
// limit query parameter caps the route list.
func (m MetricsHandler) MetricsSummaryHandler(w http.ResponseWriter, r *http.Request) {
	summary := m.Collector.Summary()
	routes := summary.Routes
	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && limit > 0 && limit < len(routes) {
		routes = routes[:limit]
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"windowStart":   summary.WindowStart,
		"totalRequests": summary.TotalRequests,
		"totalErrors":   summary.TotalErrors,
		"openSockets":   summary.Sockets,
		"routes":        formatRouteMetrics(routes),
	})
}
