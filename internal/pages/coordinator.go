// Package pages holds the per-page view models and the mutation flows that
// keep them consistent with the shell through re-fetch and signals.
package pages

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/user/arena/internal/events"
	"github.com/user/arena/pkg/arena"
)

var (
	// ErrBusy is returned when the same action on the same target is
	// already in flight.
	ErrBusy = errors.New("action already in progress")
	// ErrEmptyContent rejects a post with no visible content.
	ErrEmptyContent = errors.New("post content is empty")
)

// NoticeKind classifies a user notification.
type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Notice is a message that must be shown to the user.
type Notice struct {
	Kind    NoticeKind
	Message string
}

// Notifier surfaces notices to the user.
type Notifier interface {
	Notify(n Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

// Notify calls f(n).
func (f NotifierFunc) Notify(n Notice) { f(n) }

// Pending tracks in-flight actions keyed by target id, standing in for a
// disabled button.
type Pending struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

// Begin marks id as pending. It returns ErrBusy when id is already pending;
// otherwise the returned done func must be called on every exit path.
func (p *Pending) Begin(id string) (done func(), err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ids == nil {
		p.ids = make(map[string]struct{})
	}
	if _, ok := p.ids[id]; ok {
		return nil, fmt.Errorf("%s: %w", id, ErrBusy)
	}
	p.ids[id] = struct{}{}
	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.ids, id)
			p.mu.Unlock()
		})
	}, nil
}

// Is reports whether id is pending.
func (p *Pending) Is(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.ids[id]
	return ok
}

// Coordinator is shared by the transactional pages. It acts for one agent,
// reports outcomes through the Notifier and signals the shell over the Bus.
type Coordinator struct {
	AgentID  string
	bus      *events.Bus
	notifier Notifier
}

// NewCoordinator wires a Coordinator. A nil notifier discards notices.
func NewCoordinator(agentID string, bus *events.Bus, notifier Notifier) *Coordinator {
	if notifier == nil {
		notifier = NotifierFunc(func(Notice) {})
	}
	return &Coordinator{AgentID: agentID, bus: bus, notifier: notifier}
}

func (c *Coordinator) success(msg string) {
	c.notifier.Notify(Notice{Kind: NoticeSuccess, Message: msg})
}

// fail reports err to the user. A server rejection shows its detail after
// prefix; anything else is logged and shows fallback.
func (c *Coordinator) fail(action string, err error, prefix, fallback string) {
	if arena.IsRejection(err) {
		slog.Warn("action rejected", "action", action, "agent_id", c.AgentID, "error", err)
		c.notifier.Notify(Notice{Kind: NoticeError, Message: prefix + arena.Detail(err, fallback)})
		return
	}
	slog.Error("action failed", "action", action, "agent_id", c.AgentID, "error", err)
	c.notifier.Notify(Notice{Kind: NoticeError, Message: fallback})
}

// staminaChanged tells the shell to re-derive stamina.
func (c *Coordinator) staminaChanged() {
	if c.bus != nil {
		c.bus.Publish(events.StaminaUpdate)
	}
}

// lifecycle guards a view's state against updates after unmount. In-flight
// requests are never cancelled, so their results are dropped instead.
type lifecycle struct {
	mu      sync.RWMutex
	mounted bool
	loading bool
}

func (l *lifecycle) mount() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.mounted = true
	l.loading = true
}

func (l *lifecycle) unmount() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.mounted = false
}

// update applies fn under the view lock if the view is still mounted.
func (l *lifecycle) update(fn func()) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.mounted {
		return false
	}
	fn()
	return true
}

// finishLoading clears the loading flag whatever the fetch outcome was.
func (l *lifecycle) finishLoading() {
	l.update(func() { l.loading = false })
}

// Mounted reports whether the view is alive.
func (l *lifecycle) Mounted() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.mounted
}

// Loading reports whether the first fetch since mount is still outstanding.
func (l *lifecycle) Loading() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loading
}

func firstN[T any](items []T, n int) []T {
	if len(items) <= n {
		return append([]T(nil), items...)
	}
	return append([]T(nil), items[:n]...)
}
