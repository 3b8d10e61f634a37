// Package events is the in-process signal channel that lets pages tell the
// navigation shell to re-derive shared resources.
package events

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

// StaminaUpdate asks the shell to re-fetch stamina. It carries no payload.
const StaminaUpdate = "stamina-update"

// Handler is invoked once per publish of the signal it subscribed to.
type Handler func()

type subscriber struct {
	seq     uint64
	handler Handler
}

// Bus is a fire-and-forget publish/subscribe channel keyed by signal name.
// Construct one per application session and inject it into views.
type Bus struct {
	mu      sync.RWMutex
	subs    map[string]map[string]subscriber
	nextSeq uint64
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{
		subs: make(map[string]map[string]subscriber),
	}
}

// Subscription is the handle a view keeps to deregister on teardown.
type Subscription struct {
	ID     string
	signal string
	bus    *Bus
	once   sync.Once
}

// Subscribe registers handler for signal until Unsubscribe is called.
func (b *Bus) Subscribe(signal string, handler Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := uuid.NewString()
	b.nextSeq++
	if b.subs[signal] == nil {
		b.subs[signal] = make(map[string]subscriber)
	}
	b.subs[signal][id] = subscriber{seq: b.nextSeq, handler: handler}
	return &Subscription{ID: id, signal: signal, bus: b}
}

// Unsubscribe removes the handler. Calling it more than once is harmless.
func (s *Subscription) Unsubscribe() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		s.bus.mu.Lock()
		defer s.bus.mu.Unlock()
		delete(s.bus.subs[s.signal], s.ID)
		if len(s.bus.subs[s.signal]) == 0 {
			delete(s.bus.subs, s.signal)
		}
	})
}

// Publish synchronously invokes every handler currently subscribed to signal,
// each exactly once. Publishing with no subscribers does nothing.
func (b *Bus) Publish(signal string) {
	b.mu.RLock()
	subs := make([]subscriber, 0, len(b.subs[signal]))
	for _, s := range b.subs[signal] {
		subs = append(subs, s)
	}
	b.mu.RUnlock()

	// Handlers run outside the lock so they may subscribe or unsubscribe.
	sort.Slice(subs, func(i, j int) bool { return subs[i].seq < subs[j].seq })
	for _, s := range subs {
		s.handler()
	}
}

// Subscribers returns how many handlers are registered for signal.
func (b *Bus) Subscribers(signal string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[signal])
}
