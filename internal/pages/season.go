package pages

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/user/arena/internal/countdown"
	"github.com/user/arena/pkg/arena"
)

// SeasonAPI is the part of the game API the season page uses.
type SeasonAPI interface {
	CurrentSeason(ctx context.Context) (*arena.Season, error)
	Leaderboard(ctx context.Context) ([]arena.LeaderboardEntry, error)
}

// SeasonPage shows the season with a live countdown and the leaderboard.
type SeasonPage struct {
	lifecycle
	api    SeasonAPI
	ticker countdown.Ticker
	now    func() time.Time

	season      *arena.Season
	leaderboard []arena.LeaderboardEntry
	live        *countdown.Live
	remaining   countdown.Remaining
	hasTime     bool
	onTick      func(countdown.Remaining, bool)
}

// NewSeasonPage creates the page. now may be nil to use time.Now.
func NewSeasonPage(api SeasonAPI, ticker countdown.Ticker, now func() time.Time) *SeasonPage {
	if now == nil {
		now = time.Now
	}
	return &SeasonPage{api: api, ticker: ticker, now: now}
}

// OnTick registers a callback run after each countdown recomputation while
// the page is mounted. Set it before Mount.
func (p *SeasonPage) OnTick(fn func(countdown.Remaining, bool)) {
	p.onTick = fn
}

// Mount marks the page alive, loads it and starts the countdown.
func (p *SeasonPage) Mount(ctx context.Context) error {
	p.mount()
	return p.Refresh(ctx)
}

// Unmount destroys the view and cancels its countdown.
func (p *SeasonPage) Unmount() {
	p.mu.Lock()
	p.mounted = false
	live := p.live
	p.live = nil
	p.mu.Unlock()
	live.Stop()
}

// Refresh fetches season and leaderboard concurrently and restarts the
// countdown against the fetched end time.
func (p *SeasonPage) Refresh(ctx context.Context) error {
	defer p.finishLoading()

	var season *arena.Season
	var leaderboard []arena.LeaderboardEntry
	// Siblings are not cancelled when one fails; each request runs to
	// completion.
	var g errgroup.Group
	g.Go(func() (err error) {
		season, err = p.api.CurrentSeason(ctx)
		return err
	})
	g.Go(func() (err error) {
		leaderboard, err = p.api.Leaderboard(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		slog.Error("failed to fetch season", "error", err)
		return fmt.Errorf("fetch season: %w", err)
	}

	var old *countdown.Live
	if !p.update(func() {
		p.season = season
		p.leaderboard = leaderboard
		old = p.live
		p.live = nil
		p.remaining, p.hasTime = countdown.Remaining{}, false
	}) {
		return nil
	}
	old.Stop()

	// Start ticks once synchronously, so it must run outside the view lock.
	live := countdown.Start(p.ticker, season.End(), p.now, p.tick)
	var replaced *countdown.Live
	if !p.update(func() {
		replaced = p.live
		p.live = live
	}) {
		live.Stop()
	}
	// A concurrent Refresh may have started its own countdown meanwhile.
	replaced.Stop()
	return nil
}

func (p *SeasonPage) tick(r countdown.Remaining, ok bool) {
	if !p.update(func() { p.remaining, p.hasTime = r, ok }) {
		return
	}
	if p.onTick != nil {
		p.onTick(r, ok)
	}
}

// Season returns the loaded season, or nil.
func (p *SeasonPage) Season() *arena.Season {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.season
}

// Remaining returns the latest live countdown value; ok is false when there
// is no season end or it has passed.
func (p *SeasonPage) Remaining() (countdown.Remaining, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.remaining, p.hasTime
}

// TopAgents returns the leading leaderboard entries.
func (p *SeasonPage) TopAgents() []arena.LeaderboardEntry {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return firstN(p.leaderboard, topAgentLimit)
}
