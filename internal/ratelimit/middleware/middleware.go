// Package middleware enforces rate limits at the HTTP edge and exposes the
// machine-readable limit headers on every response.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"factgate/internal/identity"
	"factgate/internal/ratelimit/models"
	"factgate/pkg/platform/httputil"
)

// Limiter is the slice of the rate limit service this middleware needs.
type Limiter interface {
	Allow(ctx context.Context, identity string, class models.RouteClass) (*models.Result, error)
	Refund(ctx context.Context, identity string, class models.RouteClass) error
}

type Middleware struct {
	limiter  Limiter
	logger   *slog.Logger
	disabled bool
}

type Option func(*Middleware)

// WithDisabled disables rate limiting entirely (tests, demo mode).
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) {
		m.disabled = disabled
	}
}

func New(limiter Limiter, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{limiter: limiter, logger: logger}
	for _, opt := range opts {
		opt(m)
	}
	if m.disabled {
		logger.Info("rate limiting disabled")
	}
	return m
}

// Limit enforces the given route class for every request passing through.
func (m *Middleware) Limit(class models.RouteClass) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m.disabled {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			caller := identity.FromContext(ctx)

			result, err := m.limiter.Allow(ctx, caller.Key(), class)
			if err != nil {
				// Fail open: a broken counter store must not take the API down.
				m.logger.Error("rate limit check failed", "error", err, "class", class)
				next.ServeHTTP(w, r)
				return
			}

			addRateLimitHeaders(w, result)

			if !result.Allowed {
				writeRateLimitExceeded(w, result)
				return
			}

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			// A request the handler rejected as malformed never reached the
			// domain; give its slot back so bad payloads cannot burn quota.
			if rec.status == http.StatusBadRequest || rec.status == http.StatusUnprocessableEntity {
				if err := m.limiter.Refund(ctx, caller.Key(), class); err != nil {
					m.logger.Warn("failed to refund rate limit slot", "error", err, "class", class)
				}
			}
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

func addRateLimitHeaders(w http.ResponseWriter, result *models.Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

func writeRateLimitExceeded(w http.ResponseWriter, result *models.Result) {
	w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
	httputil.WriteJSON(w, http.StatusTooManyRequests, map[string]any{
		"error":       "rate_limit_exceeded",
		"message":     "Too many requests. Please try again later.",
		"retry_after": result.RetryAfter,
	})
}
