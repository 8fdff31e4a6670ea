package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"placelist/internal/platform/metrics"
	"placelist/pkg/requestcontext"
)

// Publisher hands events to the background worker through a bounded buffer.
// Emit never blocks the request path: when the buffer is full the event is
// dropped and counted, because an audit stall must not turn into an auth
// outage.
type Publisher struct {
	inbox   chan Event
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewPublisher builds a Publisher with the given buffer size. A nil
// *Publisher is safe to use; Emit becomes a no-op so tests can skip wiring.
func NewPublisher(bufferSize int, logger *slog.Logger, m *metrics.Metrics) *Publisher {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	return &Publisher{
		inbox:   make(chan Event, bufferSize),
		logger:  logger,
		metrics: m,
	}
}

// Emit records one event, stamping ID, timestamp, and the request's
// correlation ID.
func (p *Publisher) Emit(ctx context.Context, event Event) {
	if p == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}

	select {
	case p.inbox <- event:
	default:
		p.metrics.IncAuditDropped()
		p.logger.WarnContext(ctx, "audit buffer full, event dropped",
			"action", string(event.Action),
		)
	}
}

// Inbox exposes the event channel to the worker.
func (p *Publisher) Inbox() <-chan Event {
	return p.inbox
}
