package arenatest

import (
	"sync"
	"time"

	"github.com/user/arena/internal/countdown"
)

// Ticker is a manually driven countdown.Ticker. Tests call Fire to run every
// registered job once and Active to check for leaked jobs.
type Ticker struct {
	mu     sync.Mutex
	nextID int
	jobs   map[int]func()
}

func NewTicker() *Ticker {
	return &Ticker{jobs: make(map[int]func())}
}

// Every registers fn. The interval is ignored; jobs run only on Fire.
func (t *Ticker) Every(_ time.Duration, fn func()) countdown.CancelFunc {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextID++
	id := t.nextID
	t.jobs[id] = fn
	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		delete(t.jobs, id)
	}
}

// Fire runs every registered job once.
func (t *Ticker) Fire() {
	t.mu.Lock()
	jobs := make([]func(), 0, len(t.jobs))
	for _, fn := range t.jobs {
		jobs = append(jobs, fn)
	}
	t.mu.Unlock()
	for _, fn := range jobs {
		fn()
	}
}

// Active returns the number of registered jobs.
func (t *Ticker) Active() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.jobs)
}

// Clock is a settable time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(now time.Time) *Clock {
	return &Clock{now: now}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
