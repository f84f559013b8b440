package audit

import (
	"context"
	"log/slog"
)

// Sink receives events after they are persisted, e.g. a Kafka publisher.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}

// Worker consumes audit events from a channel, persists them, and fans out
// to an optional sink. Persistence failures stop the worker; sink failures
// are logged and skipped so a broker outage cannot stall the audit trail.
type Worker struct {
	store  Store
	sink   Sink
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(store Store, inbox <-chan Event, sink Sink, logger *slog.Logger) *Worker {
	return &Worker{store: store, sink: sink, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				return err
			}
			if w.sink != nil {
				if err := w.sink.Publish(ctx, event); err != nil {
					w.logger.WarnContext(ctx, "failed to publish audit event",
						"action", event.Action, "error", err.Error())
				}
			}
		}
	}
}
