// Package eventbus implements an in-process publish/subscribe dispatcher for
// domain events.
package eventbus

import (
	"context"
	"log/slog"
	"sync"

	"github.com/utafrali/inventory-es/internal/domain"
)

// Handler processes a published event. A handler error is logged and
// isolated from its siblings; it never propagates to the publisher or
// aborts other handlers.
type Handler func(ctx context.Context, event domain.Event) error

// Bus is a concurrent, in-memory pub/sub dispatcher keyed by
// domain.EventType string tags rather than Go types, so the same handler can
// be registered under a wildcard-like set of names without relying on
// reflection.
type Bus struct {
	mu       sync.RWMutex
	handlers map[domain.EventType][]Handler
	log      *slog.Logger
}

// New returns an empty Bus.
func New(log *slog.Logger) *Bus {
	if log == nil {
		log = slog.Default()
	}
	return &Bus{
		handlers: make(map[domain.EventType][]Handler),
		log:      log,
	}
}

// Subscribe registers handler to run whenever an event of the given type is
// published.
func (b *Bus) Subscribe(eventType domain.EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Publish runs every handler subscribed to event.Type concurrently and waits
// for all of them to finish. A handler's error is logged, tagged with the
// event type and aggregate id, and does not affect its siblings or the
// caller's return value.
func (b *Bus) Publish(ctx context.Context, event domain.Event) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[event.Type]...)
	b.mu.RUnlock()

	if len(handlers) == 0 {
		b.log.DebugContext(ctx, "no handlers for event", slog.String("event_type", string(event.Type)))
		return
	}

	var wg sync.WaitGroup
	wg.Add(len(handlers))
	for _, h := range handlers {
		go func(h Handler) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					b.log.ErrorContext(ctx, "event handler panicked",
						slog.String("event_type", string(event.Type)),
						slog.String("aggregate_id", event.AggregateID),
						slog.Any("panic", r),
					)
				}
			}()
			if err := h(ctx, event); err != nil {
				b.log.ErrorContext(ctx, "event handler failed",
					slog.String("event_type", string(event.Type)),
					slog.String("aggregate_id", event.AggregateID),
					slog.Any("error", err),
				)
			}
		}(h)
	}
	wg.Wait()
}

// Clear removes every subscription.
func (b *Bus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = make(map[domain.EventType][]Handler)
}

// HandlerCount returns the number of handlers subscribed to eventType.
func (b *Bus) HandlerCount(eventType domain.EventType) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[eventType])
}
