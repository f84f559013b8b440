package httptransport

import (
	"context"
	"net/http"

	"factgate/pkg/platform/httputil"
)

// HealthChecker reports a dependency's liveness.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// HealthHandler reports service and dependency health.
type HealthHandler struct {
	checks map[string]HealthChecker
}

func NewHealthHandler(checks map[string]HealthChecker) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// HandleHealth handles GET /healthz. Degraded dependencies are reported but
// do not fail the probe; the service runs with in-memory fallbacks.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	deps := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check.Health(ctx); err != nil {
			deps[name] = "degraded"
			continue
		}
		deps[name] = "ok"
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"dependencies": deps,
	})
}
