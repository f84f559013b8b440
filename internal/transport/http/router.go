// Package httptransport is the thin HTTP layer. Handlers delegate to domain
// services without embedding business logic so transport concerns remain
// isolated.
package httptransport

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"factgate/internal/identity"
	platformMetrics "factgate/internal/platform/metrics"
	platformMW "factgate/internal/platform/middleware"
	rlMiddleware "factgate/internal/ratelimit/middleware"
	rlModels "factgate/internal/ratelimit/models"
	dErrors "factgate/pkg/domainerrors"
	"factgate/pkg/platform/httputil"
)

// Deps carries everything the router mounts.
type Deps struct {
	Claims    *ClaimsHandler
	Verdicts  *VerdictsHandler
	Trending  *TrendingHandler
	Health    *HealthHandler
	RateLimit *rlMiddleware.Middleware
	JWTKey    string
	Logger    *slog.Logger
	Metrics   *platformMetrics.Metrics
	Timeout   time.Duration
}

// NewRouter wires all public endpoints behind the shared middleware chain.
func NewRouter(deps Deps) chi.Router {
	r := chi.NewRouter()

	r.Use(platformMW.RequestID)
	r.Use(platformMW.ClientMetadata)
	r.Use(platformMW.Recovery(deps.Logger))
	r.Use(platformMW.Logger(deps.Logger))
	r.Use(identity.Middleware(deps.JWTKey))
	if deps.Metrics != nil {
		r.Use(instrument(deps.Metrics))
	}
	if deps.Timeout > 0 {
		r.Use(platformMW.Timeout(deps.Timeout))
	}

	r.Get("/healthz", deps.Health.HandleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimit.Limit(rlModels.ClassSubmit))
		r.Post("/claims", deps.Claims.HandleCreate)
		r.Post("/claims/batch", deps.Claims.HandleCreateBatch)
	})

	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimit.Limit(rlModels.ClassGeneral))
		r.Get("/claims/{id}", deps.Claims.HandleGet)
		r.Get("/claims/{id}/verdict", deps.Verdicts.HandleDisplayed)

		r.Group(func(r chi.Router) {
			r.Use(requireReviewer)
			r.Post("/claims/{id}/assign", deps.Claims.HandleAssign)
			r.Post("/claims/{id}/verdict", deps.Verdicts.HandleSubmitHuman)
			r.Patch("/verdicts/auto/{id}", deps.Verdicts.HandleEditAutomated)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimit.Limit(rlModels.ClassSearch))
		r.Get("/trending", deps.Trending.HandleList)
	})

	return r
}

// requireReviewer gates review endpoints to authenticated reviewer or admin
// callers.
func requireReviewer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := identity.FromContext(r.Context())
		if id.Anonymous || (id.Role != identity.RoleReviewer && id.Role != identity.RoleAdmin) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "reviewer role required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// instrument records request durations by route pattern and status.
func instrument(m *platformMetrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)

			route := chi.RouteContext(r.Context()).RoutePattern()
			if route == "" {
				route = "unmatched"
			}
			m.RequestDuration.WithLabelValues(route, strconv.Itoa(ww.status)).
				Observe(time.Since(start).Seconds())
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
