// Package countdown derives the time left until a season ends.
package countdown

import (
	"fmt"
	"sync"
	"time"
)

// Remaining is a non-negative split of a duration into calendar-ish units.
type Remaining struct {
	Days    int
	Hours   int
	Minutes int
	Seconds int
}

// Until splits the time between now and end. It returns ok=false when end is
// nil or not after now; callers must then render nothing.
func Until(end *time.Time, now time.Time) (Remaining, bool) {
	if end == nil {
		return Remaining{}, false
	}
	diff := end.Sub(now)
	if diff <= 0 {
		return Remaining{}, false
	}
	total := int64(diff / time.Second)
	return Remaining{
		Days:    int(total / 86400),
		Hours:   int(total / 3600 % 24),
		Minutes: int(total / 60 % 60),
		Seconds: int(total % 60),
	}, true
}

// Banner formats the shell header text, e.g. "2D : 3H : 4M".
func (r Remaining) Banner() string {
	return fmt.Sprintf("%dD : %dH : %dM", r.Days, r.Hours, r.Minutes)
}

// Clock formats the zero-padded season page display.
func (r Remaining) Clock() string {
	return fmt.Sprintf("%02dD %02dH %02dM %02dS", r.Days, r.Hours, r.Minutes, r.Seconds)
}

// CancelFunc stops a recurring job. It is safe to call more than once.
type CancelFunc func()

// Ticker runs fn every interval until the returned CancelFunc is called.
type Ticker interface {
	Every(interval time.Duration, fn func()) CancelFunc
}

// Live is an actively ticking countdown owned by one view. It recomputes
// once per second and reports each value to onTick. When the end passes it
// reports ok=false on every tick until stopped.
type Live struct {
	end    time.Time
	now    func() time.Time
	onTick func(Remaining, bool)

	mu      sync.Mutex
	cancel  CancelFunc
	stopped bool
	last    Remaining
	ok      bool
}

// Start begins an active countdown to end. It returns nil when end is nil, in
// which case nothing is scheduled. now may be nil to use time.Now.
func Start(ticker Ticker, end *time.Time, now func() time.Time, onTick func(Remaining, bool)) *Live {
	if end == nil {
		return nil
	}
	if now == nil {
		now = time.Now
	}
	l := &Live{end: *end, now: now, onTick: onTick}
	l.tick()
	cancel := ticker.Every(time.Second, l.tick)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped {
		cancel()
		return l
	}
	l.cancel = cancel
	return l
}

func (l *Live) tick() {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return
	}
	end := l.end
	l.last, l.ok = Until(&end, l.now())
	r, ok := l.last, l.ok
	l.mu.Unlock()

	if l.onTick != nil {
		l.onTick(r, ok)
	}
}

// Remaining returns the most recently computed value.
func (l *Live) Remaining() (Remaining, bool) {
	if l == nil {
		return Remaining{}, false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.last, l.ok
}

// Stop cancels the recurring tick. Once Stop returns no new tick begins.
func (l *Live) Stop() {
	if l == nil {
		return
	}
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return
	}
	l.stopped = true
	cancel := l.cancel
	l.cancel = nil
	l.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}
