package audit

import (
	"context"
	"log/slog"
)

// Worker consumes events from the publisher and persists them. It runs until
// the context is cancelled, then drains whatever is still buffered so
// shutdown does not lose the tail of the trail.
type Worker struct {
	store  Store
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(store Store, inbox <-chan Event, logger *slog.Logger) *Worker {
	return &Worker{store: store, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return ctx.Err()
		case event := <-w.inbox:
			w.append(ctx, event)
		}
	}
}

func (w *Worker) drain() {
	for {
		select {
		case event := <-w.inbox:
			w.append(context.Background(), event)
		default:
			return
		}
	}
}

func (w *Worker) append(ctx context.Context, event Event) {
	if err := w.store.Append(ctx, event); err != nil {
		// Persistence failure is logged, not retried; the log line itself
		// preserves the event content for forensics.
		w.logger.Error("audit append failed",
			"error", err.Error(),
			"action", string(event.Action),
			"subject", event.Subject,
			"request_id", event.RequestID,
		)
	}
}
