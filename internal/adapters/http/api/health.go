package api

import (
	"net/http"

	"github.com/okian/matchgate/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReadinessHeader reports whether the gateway can reach upstream at all.
const ReadinessHeader = "X-Gateway-Ready"

// ReadinessChecker reports configuration problems.
type ReadinessChecker interface {
	Ready() error
}

// HealthHandler serves the Prometheus exposition on /healthz.
type HealthHandler struct {
	ready   ReadinessChecker
	metrics http.Handler
}

// NewHealthHandler creates a new health handler. ready may be nil.
func NewHealthHandler(ready ReadinessChecker) *HealthHandler {
	return &HealthHandler{
		ready:   ready,
		metrics: promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}),
	}
}

// HandleHealth handles GET /healthz requests. The process is healthy when it
// answers; a misconfigured gateway is flagged through ReadinessHeader.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		writeError(w, http.StatusMethodNotAllowed, ErrMethodNotAllowed.Error())
		return
	}

	ready := "true"
	if h.ready != nil && h.ready.Ready() != nil {
		ready = "false"
	}
	w.Header().Set(ReadinessHeader, ready)
	h.metrics.ServeHTTP(w, r)
}
