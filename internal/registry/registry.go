package registry

import (
	"fmt"

	"wallet-background/internal/handler"
)

// Registry maps provider method names to their handler. Registration is
// static and total: it happens once at startup, and two handlers claiming
// the same method is a configuration error, not a runtime condition.
type Registry struct {
	handlers map[string]handler.Handler
}

func New() *Registry {
	return &Registry{handlers: make(map[string]handler.Handler)}
}

// Register adds a handler for every method it declares.
func (r *Registry) Register(handlers ...handler.Handler) error {
	for _, h := range handlers {
		methods := h.Methods()
		if len(methods) == 0 {
			return fmt.Errorf("handler %T declares no methods", h)
		}
		for _, method := range methods {
			if existing, ok := r.handlers[method]; ok {
				return fmt.Errorf("method %q claimed by both %T and %T", method, existing, h)
			}
			r.handlers[method] = h
		}
	}
	return nil
}

// MustRegister is Register for startup wiring, where a conflict is fatal.
func (r *Registry) MustRegister(handlers ...handler.Handler) {
	if err := r.Register(handlers...); err != nil {
		panic(err)
	}
}

// Lookup returns the handler for a method, or nil.
func (r *Registry) Lookup(method string) handler.Handler {
	return r.handlers[method]
}
