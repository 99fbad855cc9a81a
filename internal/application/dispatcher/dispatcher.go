package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/garyjia/freelance-billing/internal/domain/event"
)

// ErrClosed is returned when publishing to a closed dispatcher
var ErrClosed = errors.New("dispatcher is closed")

// Dispatcher routes domain events to registered handlers.
// Handlers run synchronously on the publisher's goroutine, so they join the
// publisher's transaction through ctx.
type Dispatcher interface {
	// Subscribe registers a named handler for one event type
	Subscribe(eventType event.Type, name string, handler Handler)

	// SubscribeFunc registers a handler for every event type accepted by match
	SubscribeFunc(name string, match func(event.Type) bool, handler Handler)

	// Unsubscribe removes every registration with name
	Unsubscribe(name string)

	// Publish delivers events in order and stops at the first handler error
	Publish(ctx context.Context, events ...*event.Event) error

	// ListHandlers returns the handlers that would receive eventType
	ListHandlers(eventType event.Type) []HandlerInfo

	// Close stops the dispatcher; later publishes fail with ErrClosed
	Close() error
}

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

type subscription struct {
	info  HandlerInfo
	match func(event.Type) bool
}

type eventDispatcher struct {
	mu     sync.RWMutex
	subs   []subscription
	logger Logger
	closed atomic.Bool
}

// Option configures the dispatcher
type Option func(*eventDispatcher)

// WithLogger sets a logger for the dispatcher
func WithLogger(logger Logger) Option {
	return func(d *eventDispatcher) {
		d.logger = logger
	}
}

// NewDispatcher creates a new event dispatcher
func NewDispatcher(opts ...Option) Dispatcher {
	d := &eventDispatcher{}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *eventDispatcher) Subscribe(eventType event.Type, name string, handler Handler) {
	d.SubscribeFunc(name, func(t event.Type) bool { return t == eventType }, handler)
}

func (d *eventDispatcher) SubscribeFunc(name string, match func(event.Type) bool, handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.subs = append(d.subs, subscription{
		info:  HandlerInfo{Name: name, Handler: handler},
		match: match,
	})

	if d.logger != nil {
		d.logger.Info("Handler registered", "handler_name", name)
	}
}

func (d *eventDispatcher) Unsubscribe(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	filtered := d.subs[:0]
	for _, s := range d.subs {
		if s.info.Name != name {
			filtered = append(filtered, s)
		}
	}
	d.subs = filtered

	if d.logger != nil {
		d.logger.Info("Handler unregistered", "handler_name", name)
	}
}

func (d *eventDispatcher) Publish(ctx context.Context, events ...*event.Event) error {
	if d.closed.Load() {
		return ErrClosed
	}

	for _, evt := range events {
		handlers := d.handlersFor(evt.Type)

		if d.logger != nil {
			d.logger.Info("Dispatching event",
				"event_type", evt.Type,
				"event_id", evt.ID,
				"entity_id", evt.EntityID,
				"handler_count", len(handlers),
			)
		}

		for _, info := range handlers {
			if err := d.safeExecute(ctx, evt, info); err != nil {
				if d.logger != nil {
					d.logger.Error("Handler error",
						"event_type", evt.Type,
						"event_id", evt.ID,
						"handler_name", info.Name,
						"error", err,
					)
				}
				return fmt.Errorf("handler %s failed on %s: %w", info.Name, evt.Type, err)
			}
		}
	}
	return nil
}

func (d *eventDispatcher) ListHandlers(eventType event.Type) []HandlerInfo {
	handlers := d.handlersFor(eventType)
	result := make([]HandlerInfo, len(handlers))
	for i, h := range handlers {
		result[i] = HandlerInfo{
			Name:        h.Name,
			EventType:   eventType,
			Description: h.Description,
		}
	}
	return result
}

func (d *eventDispatcher) Close() error {
	if !d.closed.CompareAndSwap(false, true) {
		return fmt.Errorf("dispatcher already closed")
	}
	if d.logger != nil {
		d.logger.Info("Dispatcher closed")
	}
	return nil
}

func (d *eventDispatcher) handlersFor(eventType event.Type) []HandlerInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []HandlerInfo
	for _, s := range d.subs {
		if s.match(eventType) {
			out = append(out, s.info)
		}
	}
	return out
}

// safeExecute runs a handler with panic recovery
func (d *eventDispatcher) safeExecute(ctx context.Context, evt *event.Event, info HandlerInfo) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
			if d.logger != nil {
				d.logger.Error("Handler panic recovered",
					"event_type", evt.Type,
					"event_id", evt.ID,
					"handler_name", info.Name,
					"panic", r,
				)
			}
		}
	}()

	return info.Handler(ctx, evt)
}
