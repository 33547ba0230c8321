// Package metrics provides a simple Prometheus-compatible metrics endpoint
// for the development backend.
package metrics

import (
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// Metrics holds request counters for one server.
type Metrics struct {
	Requests     atomic.Int64
	Unauthorized atomic.Int64
	ClientErrors atomic.Int64
	ServerErrors atomic.Int64

	// Duration of the most recent request in ms
	LastRequestMs atomic.Int64

	startTime time.Time
}

// New returns zeroed metrics with the uptime clock started.
func New() *Metrics {
	return &Metrics{startTime: time.Now()}
}

// RecordRequest counts one finished request.
func (m *Metrics) RecordRequest(status int, d time.Duration) {
	m.Requests.Add(1)
	switch {
	case status == http.StatusUnauthorized:
		m.Unauthorized.Add(1)
		m.ClientErrors.Add(1)
	case status >= 500:
		m.ServerErrors.Add(1)
	case status >= 400:
		m.ClientErrors.Add(1)
	}
	m.LastRequestMs.Store(d.Milliseconds())
}

// Handler returns an HTTP handler for /metrics endpoint
func (m *Metrics) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")

		gauge := func(name, help string, v interface{}) {
			fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s gauge\n%s %v\n\n", name, help, name, name, v)
		}
		counter := func(name, help string, v int64) {
			fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s counter\n%s %d\n\n", name, help, name, name, v)
		}

		gauge("agentchat_uptime_seconds", "Time since the server started", fmt.Sprintf("%.2f", time.Since(m.startTime).Seconds()))
		counter("agentchat_requests_total", "Total HTTP requests served", m.Requests.Load())
		counter("agentchat_unauthorized_total", "Requests rejected with 401", m.Unauthorized.Load())
		counter("agentchat_client_errors_total", "Requests answered with 4xx", m.ClientErrors.Load())
		counter("agentchat_server_errors_total", "Requests answered with 5xx", m.ServerErrors.Load())
		gauge("agentchat_last_request_duration_ms", "Duration of the last request", m.LastRequestMs.Load())
	}
}
