package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// HealthResponse is the JSON response from the /health endpoint.
type HealthResponse struct {
	Status  string            `json:"status"` // "healthy" or "unhealthy"
	Checks  map[string]string `json:"checks"`
	Version string            `json:"version,omitempty"`
}

// Pinger is anything whose liveness can be probed, typically the store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthChecker verifies component health.
type HealthChecker struct {
	store        Pinger
	botEnabled   bool
	eventsActive bool
	version      string
}

// NewHealthChecker creates a HealthChecker. Pass nil for the store if it is
// not available (tests).
func NewHealthChecker(store Pinger, botEnabled, eventsActive bool, version string) *HealthChecker {
	return &HealthChecker{
		store:        store,
		botEnabled:   botEnabled,
		eventsActive: eventsActive,
		version:      version,
	}
}

// Check performs health checks on all components.
func (h *HealthChecker) Check(ctx context.Context) HealthResponse {
	checks := make(map[string]string)
	healthy := true

	if h.store != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := h.store.Ping(pingCtx); err != nil {
			checks["store"] = "error: " + err.Error()
			healthy = false
		} else {
			checks["store"] = "ok"
		}
	} else {
		checks["store"] = "not configured"
	}

	if h.botEnabled {
		checks["bot"] = "configured"
	} else {
		checks["bot"] = "not configured"
	}
	if h.eventsActive {
		checks["events"] = "configured"
	} else {
		checks["events"] = "not configured"
	}

	status := "healthy"
	if !healthy {
		status = "unhealthy"
	}
	return HealthResponse{Status: status, Checks: checks, Version: h.version}
}

// Handler returns the /health endpoint handler. Unhealthy components yield
// 503 so load balancers stop routing webhook traffic here.
func (h *HealthChecker) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := h.Check(r.Context())

		w.Header().Set("Content-Type", "application/json")
		if resp.Status != "healthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(resp)
	})
}
