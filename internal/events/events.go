// Package events is a synchronous in-process bus for workflow lifecycle
// notifications. Handlers run inline at the emission site, in registration
// order; a panicking handler is contained so one bad subscriber cannot sink
// a workflow.
package events

import (
	"log/slog"
	"sync"
	"time"
)

// Type discriminates lifecycle events.
type Type string

const (
	TypeProgressUpdate Type = "progress_update"
	TypePlanComplete   Type = "plan_complete"
	TypePhaseComplete  Type = "phase_complete"
	TypeError          Type = "error"
)

// Types lists every event type, for sinks that subscribe to all of them.
func Types() []Type {
	return []Type{TypeProgressUpdate, TypePlanComplete, TypePhaseComplete, TypeError}
}

// Event is one lifecycle notification.
type Event struct {
	Type       Type           `json:"type"`
	Data       map[string]any `json:"data"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Handler receives events for a subscribed type.
type Handler func(Event)

// Bus dispatches events to subscribed handlers.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Type][]Handler
	logger   *slog.Logger
}

// NewBus creates an empty bus. A nil logger falls back to slog.Default().
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		handlers: make(map[Type][]Handler),
		logger:   logger,
	}
}

// On subscribes a handler to an event type.
func (b *Bus) On(t Type, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[t] = append(b.handlers[t], h)
}

// Emit dispatches an event to all handlers for its type, synchronously and
// in registration order. Emit with no subscribers is a no-op.
func (b *Bus) Emit(t Type, data map[string]any) {
	b.mu.RLock()
	handlers := b.handlers[t]
	b.mu.RUnlock()

	if len(handlers) == 0 {
		return
	}

	evt := Event{Type: t, Data: data, OccurredAt: time.Now().UTC()}
	for _, h := range handlers {
		b.dispatch(h, evt)
	}
}

func (b *Bus) dispatch(h Handler, evt Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked", "type", evt.Type, "panic", r)
		}
	}()
	h(evt)
}
