package eventbus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/garyjia/liquidagov/internal/domain/event"
)

// ErrClosed is returned when publishing on a closed bus
var ErrClosed = errors.New("event bus is closed")

// Bus fans domain events out to subscribed handlers
type Bus interface {
	// Subscribe registers a handler under a generated name
	Subscribe(eventType event.Type, handler Handler)

	// SubscribeNamed registers a handler under the given name
	SubscribeNamed(eventType event.Type, name string, handler Handler)

	// Unsubscribe removes a handler by name
	Unsubscribe(eventType event.Type, name string)

	// Publish runs the handlers in subscription order and stops at the first error
	Publish(ctx context.Context, evt *event.Event) error

	// PublishAsync runs every handler in its own goroutine. Errors are logged only.
	PublishAsync(ctx context.Context, evt *event.Event)

	// Subscriptions lists the handlers registered for an event type
	Subscriptions(eventType event.Type) []Subscription

	// Close rejects new events and waits for running async handlers
	Close() error
}

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

type bus struct {
	mu       sync.RWMutex
	handlers map[event.Type][]Subscription
	logger   Logger

	wg     sync.WaitGroup
	closed atomic.Bool
}

// Option configures the bus
type Option func(*bus)

// WithLogger sets a logger for the bus
func WithLogger(logger Logger) Option {
	return func(b *bus) {
		b.logger = logger
	}
}

// New creates an event bus
func New(opts ...Option) Bus {
	b := &bus{
		handlers: make(map[event.Type][]Subscription),
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

func (b *bus) Subscribe(eventType event.Type, handler Handler) {
	b.mu.RLock()
	name := fmt.Sprintf("%s-%d", eventType, len(b.handlers[eventType]))
	b.mu.RUnlock()

	b.SubscribeNamed(eventType, name, handler)
}

func (b *bus) SubscribeNamed(eventType event.Type, name string, handler Handler) {
	b.mu.Lock()
	b.handlers[eventType] = append(b.handlers[eventType], Subscription{
		Name:      name,
		EventType: eventType,
		Handler:   handler,
	})
	b.mu.Unlock()

	b.info("Handler subscribed", "event_type", eventType, "handler_name", name)
}

func (b *bus) Unsubscribe(eventType event.Type, name string) {
	b.mu.Lock()
	current := b.handlers[eventType]
	kept := make([]Subscription, 0, len(current))
	for _, s := range current {
		if s.Name != name {
			kept = append(kept, s)
		}
	}
	b.handlers[eventType] = kept
	b.mu.Unlock()

	b.info("Handler unsubscribed", "event_type", eventType, "handler_name", name)
}

func (b *bus) Publish(ctx context.Context, evt *event.Event) error {
	if b.closed.Load() {
		return ErrClosed
	}

	subs := b.snapshot(evt.Type)

	for _, s := range subs {
		if err := b.safeExecute(ctx, evt, s); err != nil {
			b.error("Handler failed",
				"event_type", evt.Type,
				"event_id", evt.ID,
				"handler_name", s.Name,
				"error", err,
			)
			return fmt.Errorf("handler %s failed: %w", s.Name, err)
		}
	}

	return nil
}

func (b *bus) PublishAsync(ctx context.Context, evt *event.Event) {
	if b.closed.Load() {
		b.error("Dropping async event, bus is closed",
			"event_type", evt.Type,
			"event_id", evt.ID,
		)
		return
	}

	for _, s := range b.snapshot(evt.Type) {
		b.wg.Add(1)
		go func(s Subscription) {
			defer b.wg.Done()

			if err := b.safeExecute(ctx, evt, s); err != nil {
				b.error("Async handler failed",
					"event_type", evt.Type,
					"event_id", evt.ID,
					"handler_name", s.Name,
					"error", err,
				)
			}
		}(s)
	}
}

// Subscriptions returns copies without the handler functions
func (b *bus) Subscriptions(eventType event.Type) []Subscription {
	b.mu.RLock()
	defer b.mu.RUnlock()

	subs := b.handlers[eventType]
	out := make([]Subscription, len(subs))
	for i, s := range subs {
		out[i] = Subscription{Name: s.Name, EventType: s.EventType}
	}
	return out
}

func (b *bus) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}

	b.info("Closing event bus, draining async handlers")
	b.wg.Wait()
	b.info("Event bus closed")

	return nil
}

func (b *bus) snapshot(eventType event.Type) []Subscription {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]Subscription(nil), b.handlers[eventType]...)
}

// safeExecute runs a handler with panic recovery
func (b *bus) safeExecute(ctx context.Context, evt *event.Event, s Subscription) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()

	return s.Handler(ctx, evt)
}

func (b *bus) info(msg string, keysAndValues ...interface{}) {
	if b.logger != nil {
		b.logger.Info(msg, keysAndValues...)
	}
}

func (b *bus) error(msg string, keysAndValues ...interface{}) {
	if b.logger != nil {
		b.logger.Error(msg, keysAndValues...)
	}
}
