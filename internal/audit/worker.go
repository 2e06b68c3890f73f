package audit

import (
	"context"
	"log/slog"
)

// Worker consumes audit events from the inbox and persists them, forwarding to
// the sink when one is configured. Sink failures are logged, not fatal: the
// local store is the durable record.
type Worker struct {
	store  Store
	sink   Sink
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(store Store, sink Sink, inbox <-chan Event, logger *slog.Logger) *Worker {
	return &Worker{store: store, sink: sink, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "append audit event",
					"action", event.Action,
					"error", err,
				)
			}
			if w.sink != nil {
				if err := w.sink.Publish(ctx, event); err != nil {
					w.logger.ErrorContext(ctx, "publish audit event",
						"action", event.Action,
						"error", err,
					)
				}
			}
		}
	}
}
