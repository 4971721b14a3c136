package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"fieldvisits_backend/platform/logger"

	"github.com/google/uuid"
)

// InMemoryBus is an in-process Bus. Asynchronous handlers run on their own
// goroutine with a context detached from the request's cancellation.
type InMemoryBus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	log      *logger.Logger
	wg       sync.WaitGroup
}

// NewInMemoryBus creates an empty bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return &InMemoryBus{
		handlers: make(map[string][]Handler),
		log:      log,
	}
}

// Subscribe registers a handler for the given event name.
func (b *InMemoryBus) Subscribe(eventName string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventName] = append(b.handlers[eventName], handler)
}

// Publish dispatches the event to every handler in the background. Handler
// failures are logged, never returned.
func (b *InMemoryBus) Publish(ctx context.Context, event Event) {
	handlers := b.handlersFor(event.EventName())
	if len(handlers) == 0 {
		return
	}

	detached := context.WithoutCancel(ctx)
	for _, h := range handlers {
		b.wg.Add(1)
		go func(h Handler) {
			defer b.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					b.logFailure(detached, event, fmt.Errorf("handler panic: %v", r))
				}
			}()
			if err := h.Handle(detached, event); err != nil {
				b.logFailure(detached, event, err)
			}
		}(h)
	}
}

// PublishSync runs all handlers in order and joins their errors.
func (b *InMemoryBus) PublishSync(ctx context.Context, event Event) error {
	var errs []error
	for _, h := range b.handlersFor(event.EventName()) {
		if err := h.Handle(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Wait blocks until all in-flight asynchronous handlers have returned.
func (b *InMemoryBus) Wait() {
	b.wg.Wait()
}

func (b *InMemoryBus) handlersFor(eventName string) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]Handler(nil), b.handlers[eventName]...)
}

func (b *InMemoryBus) logFailure(ctx context.Context, event Event, err error) {
	if b.log == nil {
		return
	}
	attrs := []any{
		slog.String("event", event.EventName()),
		slog.String("error", err.Error()),
	}
	if identified, ok := event.(interface{ EventID() uuid.UUID }); ok {
		attrs = append(attrs, slog.String("eventId", identified.EventID().String()))
	}
	b.log.WithContext(ctx).Error("event_handler_failed", attrs...)
}

var _ Bus = (*InMemoryBus)(nil)
