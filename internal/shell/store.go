// Package shell holds the navigation shell's shared, time-decaying
// resources: the current season and the active agent's stamina.
package shell

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/user/arena/internal/countdown"
	"github.com/user/arena/internal/events"
	"github.com/user/arena/pkg/arena"
)

// API is the slice of the game API the shell reads.
type API interface {
	CurrentSeason(ctx context.Context) (*arena.Season, error)
	Stamina(ctx context.Context, agentID string) (*arena.Stamina, error)
}

// Option configures a Store.
type Option func(*Store)

// WithDiscardStale drops a response when a newer request for the same
// resource has already been applied. Without it the last response to
// resolve wins, even if it was issued first.
func WithDiscardStale() Option {
	return func(s *Store) { s.discardStale = true }
}

// resource tracks one snapshot's request sequence.
type resource struct {
	issued  uint64
	applied uint64
}

// Store is the shell-owned resource state. Reads return the latest applied
// snapshot; a failed refresh leaves the previous snapshot in place.
type Store struct {
	api          API
	agentID      string
	discardStale bool

	mu            sync.RWMutex
	season        *arena.Season
	stamina       *arena.Stamina
	route         string
	seasonReq     resource
	staminaReq    resource
	sub           *events.Subscription
	closed        bool
	wg            sync.WaitGroup
	backgroundCtx context.Context
}

// NewStore creates a Store reading stamina for agentID.
func NewStore(api API, agentID string, opts ...Option) *Store {
	s := &Store{
		api:           api,
		agentID:       agentID,
		backgroundCtx: context.Background(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Season returns the current season snapshot, or nil when none is loaded or
// no season is running.
func (s *Store) Season() *arena.Season {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.season
}

// Stamina returns the stamina snapshot, or nil before the first successful
// refresh.
func (s *Store) Stamina() *arena.Stamina {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stamina
}

// Route returns the route recorded by the last Navigate.
func (s *Store) Route() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.route
}

// RefreshSeason re-reads the current season.
func (s *Store) RefreshSeason(ctx context.Context) error {
	s.mu.Lock()
	s.seasonReq.issued++
	seq := s.seasonReq.issued
	s.mu.Unlock()

	season, err := s.api.CurrentSeason(ctx)
	if err != nil {
		slog.Error("failed to fetch season", "error", err)
		return fmt.Errorf("refresh season: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.discardStale && seq < s.seasonReq.applied {
		slog.Debug("discarding stale season response", "seq", seq, "applied", s.seasonReq.applied)
		return nil
	}
	s.seasonReq.applied = seq
	s.season = season
	return nil
}

// RefreshStamina re-reads the agent's stamina.
func (s *Store) RefreshStamina(ctx context.Context) error {
	s.mu.Lock()
	s.staminaReq.issued++
	seq := s.staminaReq.issued
	s.mu.Unlock()

	stamina, err := s.api.Stamina(ctx, s.agentID)
	if err != nil {
		slog.Error("failed to fetch stamina", "agent_id", s.agentID, "error", err)
		return fmt.Errorf("refresh stamina: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.discardStale && seq < s.staminaReq.applied {
		slog.Debug("discarding stale stamina response", "seq", seq, "applied", s.staminaReq.applied)
		return nil
	}
	s.staminaReq.applied = seq
	s.stamina = stamina
	return nil
}

// Navigate records a route change and refreshes both shared resources
// concurrently. Both refreshes run even if one fails.
func (s *Store) Navigate(ctx context.Context, route string) error {
	s.mu.Lock()
	s.route = route
	s.mu.Unlock()
	slog.Debug("navigate", "route", route)

	var seasonErr, staminaErr error
	var g errgroup.Group
	g.Go(func() error {
		seasonErr = s.RefreshSeason(ctx)
		return nil
	})
	g.Go(func() error {
		staminaErr = s.RefreshStamina(ctx)
		return nil
	})
	g.Wait()
	return errors.Join(seasonErr, staminaErr)
}

// Attach subscribes the store to stamina-update signals. Each signal starts
// one background stamina refresh; signals are never coalesced.
func (s *Store) Attach(bus *events.Bus) {
	sub := bus.Subscribe(events.StaminaUpdate, s.onStaminaUpdate)
	s.mu.Lock()
	prev := s.sub
	s.sub = sub
	s.mu.Unlock()
	prev.Unsubscribe()
}

func (s *Store) onStaminaUpdate() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.wg.Add(1)
	ctx := s.backgroundCtx
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		s.RefreshStamina(ctx)
	}()
}

// Wait blocks until every signal-triggered refresh has resolved.
func (s *Store) Wait() {
	s.wg.Wait()
}

// Close unsubscribes from the bus and waits for outstanding refreshes.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	sub := s.sub
	s.sub = nil
	s.mu.Unlock()
	sub.Unsubscribe()
	s.wg.Wait()
}

// defaultSeasonName labels a season the server left unnamed.
const defaultSeasonName = "SEASON 1"

// Banner is the passive season countdown shown in the shell header. It is
// recomputed only when asked, so it may be stale by up to one navigation.
// ok is false when there is no season or no time remaining.
func (s *Store) Banner(now time.Time) (name string, remaining countdown.Remaining, ok bool) {
	season := s.Season()
	if season == nil {
		return "", countdown.Remaining{}, false
	}
	remaining, ok = countdown.Until(season.End(), now)
	if !ok {
		return "", countdown.Remaining{}, false
	}
	name = season.Name
	if name == "" {
		name = defaultSeasonName
	}
	return name, remaining, true
}
