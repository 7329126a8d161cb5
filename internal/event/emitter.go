package event

import (
	"sync"

	"go.uber.org/zap"

	"wallet-background/pkg/logger"
)

// Emitter fans wallet events out to subscribers. Delivery is best-effort
// fire-and-forget: events for one listener arrive in emission order, and a
// panicking listener never blocks delivery to the others.
type Emitter struct {
	mu        sync.Mutex
	nextID    int
	listeners map[int]func(Event)
}

func NewEmitter() *Emitter {
	return &Emitter{listeners: make(map[int]func(Event))}
}

// AddListener registers a callback and returns its removal function.
func (e *Emitter) AddListener(fn func(Event)) (remove func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.nextID
	e.nextID++
	e.listeners[id] = fn
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.listeners, id)
	}
}

// Emit delivers ev to every registered listener.
func (e *Emitter) Emit(ev Event) {
	e.mu.Lock()
	ids := make([]int, 0, len(e.listeners))
	for id := range e.listeners {
		ids = append(ids, id)
	}
	listeners := make([]func(Event), 0, len(ids))
	for _, id := range ids {
		listeners = append(listeners, e.listeners[id])
	}
	e.mu.Unlock()

	for _, fn := range listeners {
		e.deliver(fn, ev)
	}
}

func (e *Emitter) deliver(fn func(Event), ev Event) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("event listener panicked",
				zap.String("event", ev.Name()),
				zap.Any("panic", r))
		}
	}()
	fn(ev)
}
