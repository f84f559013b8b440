// Package service bounds request volume per identity and route class using
// fixed-window counters in a shared store, so the count holds under
// horizontal scaling.
package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"factgate/internal/ratelimit/config"
	"factgate/internal/ratelimit/metrics"
	"factgate/internal/ratelimit/models"
	"factgate/internal/ratelimit/store"
	dErrors "factgate/pkg/domainerrors"
	"factgate/pkg/platform/privacy"
)

// Auditor receives violation events for abuse monitoring.
type Auditor interface {
	RecordViolation(ctx context.Context, v models.Violation)
}

type Service struct {
	counters store.CounterStore
	config   *config.Config
	logger   *slog.Logger
	metrics  *metrics.Metrics
	auditor  Auditor
	trusted  []*net.IPNet
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditor(a Auditor) Option {
	return func(s *Service) {
		s.auditor = a
	}
}

func New(counters store.CounterStore, opts ...Option) (*Service, error) {
	if counters == nil {
		return nil, fmt.Errorf("counter store is required")
	}
	svc := &Service{
		counters: counters,
		config:   config.DefaultConfig(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(svc)
	}

	for _, cidr := range svc.config.TrustedCIDRs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			return nil, fmt.Errorf("parse trusted CIDR %q: %w", cidr, err)
		}
		svc.trusted = append(svc.trusted, network)
	}
	return svc, nil
}

// Allow checks and consumes one request for (identity, class). A rejected
// request does not count against the window; the counter is rolled back so
// hammering a closed limit cannot extend the penalty.
func (s *Service) Allow(ctx context.Context, identity string, class models.RouteClass) (*models.Result, error) {
	limit, window := s.config.Get(class)

	if s.isTrusted(identity) {
		if s.metrics != nil {
			s.metrics.BypassTotal.Inc()
		}
		return &models.Result{
			Allowed:   true,
			Limit:     limit,
			Remaining: limit,
			ResetAt:   time.Now().Add(window),
		}, nil
	}

	key := models.CounterKey(identity, class)
	count, resetAt, err := s.counters.Incr(ctx, key, window)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check rate limit")
	}

	if count > int64(limit) {
		// Roll back so the rejection itself is not counted.
		if derr := s.counters.Decr(ctx, key); derr != nil {
			s.logger.WarnContext(ctx, "failed to roll back rejected increment", "error", derr.Error())
		}
		retryAfter := int(time.Until(resetAt).Seconds())
		if retryAfter < 1 {
			retryAfter = 1
		}

		s.recordViolation(ctx, identity, class, limit, window)
		if s.metrics != nil {
			s.metrics.ChecksTotal.WithLabelValues(string(class), "rejected").Inc()
			s.metrics.RejectionsTotal.WithLabelValues(string(class)).Inc()
		}
		return &models.Result{
			Allowed:    false,
			Limit:      limit,
			Remaining:  0,
			ResetAt:    resetAt,
			RetryAfter: retryAfter,
		}, nil
	}

	if s.metrics != nil {
		s.metrics.ChecksTotal.WithLabelValues(string(class), "allowed").Inc()
	}
	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return &models.Result{
		Allowed:   true,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}, nil
}

// Refund returns one previously consumed slot. Used when a request passed
// the limiter but was rejected by payload validation before any side effect,
// so malformed input cannot exhaust a caller's window.
func (s *Service) Refund(ctx context.Context, identity string, class models.RouteClass) error {
	if s.isTrusted(identity) {
		return nil
	}
	key := models.CounterKey(identity, class)
	if err := s.counters.Decr(ctx, key); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to refund rate limit slot")
	}
	return nil
}

// RecordAuthSuccess clears the caller's auth counter (skip-on-success policy)
// so a single earlier failure does not penalize legitimate retries.
func (s *Service) RecordAuthSuccess(ctx context.Context, identity string) error {
	if !s.config.SkipAuthOnSuccess {
		return nil
	}
	key := models.CounterKey(identity, models.ClassAuth)
	if err := s.counters.Reset(ctx, key); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear auth counter")
	}
	return nil
}

func (s *Service) recordViolation(ctx context.Context, identity string, class models.RouteClass, limit int, window time.Duration) {
	logged := identity
	if net.ParseIP(identity) != nil {
		logged = privacy.AnonymizeIP(identity)
	}
	s.logger.WarnContext(ctx, "rate limit exceeded",
		"identifier", logged,
		"route_class", class,
		"limit", limit,
		"window_seconds", int(window.Seconds()),
	)
	if s.auditor != nil {
		s.auditor.RecordViolation(ctx, models.Violation{
			Identifier:    logged,
			RouteClass:    class,
			Limit:         limit,
			WindowSeconds: int(window.Seconds()),
			OccurredAt:    time.Now().UTC(),
		})
	}
}

func (s *Service) isTrusted(identity string) bool {
	ip := net.ParseIP(identity)
	if ip == nil {
		return false
	}
	if ip.IsLoopback() {
		return true
	}
	for _, network := range s.trusted {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}
