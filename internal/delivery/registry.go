// Package delivery routes user notices to their targets.
package delivery

import (
	"fmt"
	"strings"
	"sync"
)

// Handler delivers a message to a target such as "console" or
// "telegram:<chatID>".
type Handler func(target, message string) error

// Registry routes messages to the handler registered for the longest
// matching target prefix.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates an empty delivery registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
	}
}

// Register adds a handler for targets starting with prefix.
func (r *Registry) Register(prefix string, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[prefix] = handler
}

// Deliver calls the handler whose prefix is the longest match for target.
func (r *Registry) Deliver(target, message string) error {
	r.mu.RLock()
	var best string
	var handler Handler
	for prefix, h := range r.handlers {
		if strings.HasPrefix(target, prefix) && (handler == nil || len(prefix) > len(best)) {
			best, handler = prefix, h
		}
	}
	r.mu.RUnlock()

	if handler == nil {
		return fmt.Errorf("no delivery handler for target: %s", target)
	}
	return handler(target, message)
}
