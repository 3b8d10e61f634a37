package pages

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/user/arena/pkg/arena"
)

const (
	recentBattleLimit = 4
	topAgentLimit     = 10
)

// DashboardAPI is the part of the game API the dashboard uses.
type DashboardAPI interface {
	Battles(ctx context.Context) ([]arena.Battle, error)
	Leaderboard(ctx context.Context) ([]arena.LeaderboardEntry, error)
}

// Dashboard shows recent battles and the top of the leaderboard.
type Dashboard struct {
	lifecycle
	api DashboardAPI

	battles     []arena.Battle
	leaderboard []arena.LeaderboardEntry
}

// NewDashboard creates the dashboard.
func NewDashboard(api DashboardAPI) *Dashboard {
	return &Dashboard{api: api}
}

// Mount marks the dashboard alive and loads it.
func (d *Dashboard) Mount(ctx context.Context) error {
	d.mount()
	return d.Refresh(ctx)
}

// Unmount destroys the view.
func (d *Dashboard) Unmount() {
	d.unmount()
}

// Refresh fetches battles and leaderboard concurrently. Either failing
// leaves both lists as they were.
func (d *Dashboard) Refresh(ctx context.Context) error {
	defer d.finishLoading()

	var battles []arena.Battle
	var leaderboard []arena.LeaderboardEntry
	// Siblings are not cancelled when one fails; each request runs to
	// completion.
	var g errgroup.Group
	g.Go(func() (err error) {
		battles, err = d.api.Battles(ctx)
		return err
	})
	g.Go(func() (err error) {
		leaderboard, err = d.api.Leaderboard(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		slog.Error("failed to fetch dashboard", "error", err)
		return fmt.Errorf("fetch dashboard: %w", err)
	}

	d.update(func() {
		d.battles = battles
		d.leaderboard = leaderboard
	})
	return nil
}

// RecentBattles returns the newest few battles.
func (d *Dashboard) RecentBattles() []arena.Battle {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return firstN(d.battles, recentBattleLimit)
}

// TopAgents returns the leading leaderboard entries in server order.
func (d *Dashboard) TopAgents() []arena.LeaderboardEntry {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return firstN(d.leaderboard, topAgentLimit)
}
