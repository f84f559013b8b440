package audit

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	rlModels "factgate/internal/ratelimit/models"
)

const defaultInboxSize = 256

// Service hands audit events to the background worker over a buffered
// channel. Emission never blocks domain logic: if the inbox is full the
// event is dropped and logged.
type Service struct {
	inbox  chan Event
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithInboxSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.inbox = make(chan Event, n)
		}
	}
}

func New(opts ...Option) *Service {
	svc := &Service{
		inbox:  make(chan Event, defaultInboxSize),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Inbox is the channel the worker consumes from.
func (s *Service) Inbox() <-chan Event {
	return s.inbox
}

// Emit queues an event for the worker without blocking the caller.
func (s *Service) Emit(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	select {
	case s.inbox <- event:
	default:
		s.logger.WarnContext(ctx, "audit inbox full, dropping event", "action", event.Action)
	}
}

// RecordViolation adapts rate limit violations into audit events.
func (s *Service) RecordViolation(ctx context.Context, v rlModels.Violation) {
	s.Emit(ctx, Event{
		Timestamp: v.OccurredAt,
		Actor:     v.Identifier,
		Action:    ActionRateLimitViolation,
		Detail: fmt.Sprintf("exceeded %d requests per %ds on %s routes",
			v.Limit, v.WindowSeconds, v.RouteClass),
	})
}
