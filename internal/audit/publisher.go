package audit

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"coalesce/pkg/requestcontext"
)

// Publisher stamps events and hands them to the worker's inbox. Emit never
// blocks: when the inbox is full the event is dropped and logged, because
// audit must not back-pressure resolution.
type Publisher struct {
	inbox  chan<- Event
	logger *slog.Logger
}

func NewPublisher(inbox chan<- Event, logger *slog.Logger) *Publisher {
	return &Publisher{inbox: inbox, logger: logger}
}

func (p *Publisher) Emit(ctx context.Context, event Event) {
	if p == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}

	select {
	case p.inbox <- event:
	default:
		p.logger.WarnContext(ctx, "audit inbox full, dropping event",
			"action", event.Action,
			"primary_id", event.PrimaryID,
		)
	}
}
