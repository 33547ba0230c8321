// Package selftest provides health checks for the pieces agentchat depends on.
package selftest

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// ComponentStatus represents health of a single component
type ComponentStatus struct {
	Status  string `json:"status"` // ok, degraded, error
	Latency int64  `json:"latency_ms,omitempty"`
	Detail  string `json:"detail,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HealthStatus represents overall health
type HealthStatus struct {
	Status     string                     `json:"status"` // healthy, degraded, unhealthy
	Components map[string]ComponentStatus `json:"components"`
	Timestamp  string                     `json:"timestamp"`
}

// Probe checks one component.
type Probe struct {
	Name  string
	Check func(ctx context.Context) ComponentStatus
}

// slowThreshold marks a reachable but sluggish component as degraded.
const slowThreshold = 2 * time.Second

// CheckHealth runs every probe concurrently and folds the results.
func CheckHealth(ctx context.Context, probes ...Probe) *HealthStatus {
	status := &HealthStatus{
		Status:     "healthy",
		Components: make(map[string]ComponentStatus, len(probes)),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	for _, p := range probes {
		wg.Add(1)
		go func(p Probe) {
			defer wg.Done()
			result := p.Check(ctx)
			mu.Lock()
			defer mu.Unlock()
			status.Components[p.Name] = result
			if result.Status == "error" {
				status.Status = "unhealthy"
			} else if result.Status == "degraded" && status.Status == "healthy" {
				status.Status = "degraded"
			}
		}(p)
	}
	wg.Wait()
	return status
}

// Prober is the part of the API client the backend probe needs.
type Prober interface {
	Probe(ctx context.Context) (int, error)
	BaseURL() string
}

// APIProbe reports whether the backend answers at all. A 401 is the expected
// answer for an anonymous request.
func APIProbe(p Prober) Probe {
	return Probe{Name: "api", Check: func(ctx context.Context) ComponentStatus {
		start := time.Now()
		code, err := p.Probe(ctx)
		latency := time.Since(start)
		if err != nil {
			return ComponentStatus{Status: "error", Latency: latency.Milliseconds(), Detail: p.BaseURL(), Error: err.Error()}
		}
		cs := ComponentStatus{Status: "ok", Latency: latency.Milliseconds(), Detail: fmt.Sprintf("%s answered %d", p.BaseURL(), code)}
		switch {
		case code >= http.StatusInternalServerError:
			cs.Status = "error"
			cs.Error = http.StatusText(code)
		case code != http.StatusUnauthorized && code != http.StatusOK:
			cs.Status = "degraded"
		case latency > slowThreshold:
			cs.Status = "degraded"
		}
		return cs
	}}
}

// Pinger is anything with a liveness check, such as a store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingProbe wraps a Pinger as a named probe.
func PingProbe(name, detail string, p Pinger) Probe {
	return Probe{Name: name, Check: func(ctx context.Context) ComponentStatus {
		start := time.Now()
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			return ComponentStatus{Status: "error", Latency: time.Since(start).Milliseconds(), Detail: detail, Error: err.Error()}
		}
		return ComponentStatus{Status: "ok", Latency: time.Since(start).Milliseconds(), Detail: detail}
	}}
}

// QuickHealthHandler returns a plain liveness endpoint.
func QuickHealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
