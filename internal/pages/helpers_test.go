package pages

import (
	"sync"
	"testing"
	"time"

	"github.com/user/arena/internal/arenatest"
	"github.com/user/arena/internal/events"
	"github.com/user/arena/pkg/arena"
)

const agent = "demo_agent_1"

type recordingNotifier struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *recordingNotifier) Notify(n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

func (r *recordingNotifier) last() Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notices) == 0 {
		return Notice{}
	}
	return r.notices[len(r.notices)-1]
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.notices)
}

type fixture struct {
	srv      *arenatest.Server
	client   *arena.Client
	bus      *events.Bus
	notifier *recordingNotifier
	coord    *Coordinator
	signals  int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	srv := arenatest.NewServer()
	t.Cleanup(srv.Close)
	f := &fixture{
		srv:      srv,
		client:   arena.New(&arena.Config{BaseURL: srv.URL}),
		bus:      events.NewBus(),
		notifier: &recordingNotifier{},
	}
	f.coord = NewCoordinator(agent, f.bus, f.notifier)
	f.bus.Subscribe(events.StaminaUpdate, func() { f.signals++ })
	return f
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-deadline:
			t.Fatal("condition not met within 2s")
		case <-ticker.C:
			if cond() {
				return
			}
		}
	}
}
