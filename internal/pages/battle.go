package pages

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/user/arena/pkg/arena"
)

// BattleAPI is the part of the game API the battle page uses.
type BattleAPI interface {
	Battles(ctx context.Context) ([]arena.Battle, error)
	StartBattle(ctx context.Context, agentA, agentB string, mode arena.BattleMode) (string, error)
	SubmitStrategy(ctx context.Context, battleID, agentID, strategy string) error
}

// BattleFilter narrows the battle history locally.
type BattleFilter string

const (
	FilterAll  BattleFilter = "all"
	FilterLive BattleFilter = "live"
)

// Matchup is who fights when the user starts a battle, and with which
// strategies.
type Matchup struct {
	AgentA    string
	AgentB    string
	StrategyA string
	StrategyB string
}

// DefaultMatchup pits the two demo agents against each other.
var DefaultMatchup = Matchup{
	AgentA:    "demo_agent_1",
	AgentB:    "demo_agent_2",
	StrategyA: "Attack aggressively with all items.",
	StrategyB: "Defend and counter-attack.",
}

const startTarget = "start"

// BattlePage is the arena: battle history, selection and starting battles.
type BattlePage struct {
	lifecycle
	api     BattleAPI
	coord   *Coordinator
	matchup Matchup
	starts  Pending

	battles  []arena.Battle
	selected string
	filter   BattleFilter
}

// NewBattlePage creates the page for matchup.
func NewBattlePage(api BattleAPI, coord *Coordinator, matchup Matchup) *BattlePage {
	return &BattlePage{api: api, coord: coord, matchup: matchup, filter: FilterAll}
}

// Mount marks the page alive and loads the battle history.
func (p *BattlePage) Mount(ctx context.Context) error {
	p.mount()
	return p.Refresh(ctx)
}

// Unmount destroys the view. Responses still in flight are dropped.
func (p *BattlePage) Unmount() {
	p.unmount()
}

// Refresh re-fetches the battle list. The selection survives when its
// battle is still listed and otherwise falls back to the first battle.
func (p *BattlePage) Refresh(ctx context.Context) error {
	defer p.finishLoading()

	battles, err := p.api.Battles(ctx)
	if err != nil {
		slog.Error("failed to fetch battles", "error", err)
		return fmt.Errorf("fetch battles: %w", err)
	}

	p.update(func() {
		p.battles = battles
		if !slices.ContainsFunc(battles, func(b arena.Battle) bool { return b.ID == p.selected }) {
			p.selected = ""
			if len(battles) > 0 {
				p.selected = battles[0].ID
			}
		}
	})
	return nil
}

// SetFilter switches between all battles and live ones. No fetch is issued.
func (p *BattlePage) SetFilter(f BattleFilter) {
	p.update(func() { p.filter = f })
}

// Filter returns the active filter.
func (p *BattlePage) Filter() BattleFilter {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.filter
}

// Visible returns the battles that pass the current filter.
func (p *BattlePage) Visible() []arena.Battle {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var out []arena.Battle
	for _, b := range p.battles {
		if p.filter != FilterLive || b.Live() {
			out = append(out, b)
		}
	}
	return out
}

// Select marks a listed battle as selected.
func (p *BattlePage) Select(id string) error {
	var found bool
	p.update(func() {
		if slices.ContainsFunc(p.battles, func(b arena.Battle) bool { return b.ID == id }) {
			p.selected = id
			found = true
		}
	})
	if !found {
		return fmt.Errorf("battle %s not listed", id)
	}
	return nil
}

// Selected returns the selected battle, if any.
func (p *BattlePage) Selected() (arena.Battle, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, b := range p.battles {
		if b.ID == p.selected {
			return b, true
		}
	}
	return arena.Battle{}, false
}

// Starting reports whether a start is in flight.
func (p *BattlePage) Starting() bool {
	return p.starts.Is(startTarget)
}

// Start creates a battle, submits agent A's then agent B's strategy, tells
// the shell stamina changed and re-fetches the history. If creation fails
// nothing else is sent. A failed strategy submission stops the remaining
// submissions, but the battle exists and has consumed stamina, so the
// signal and re-fetch still happen.
func (p *BattlePage) Start(ctx context.Context, mode arena.BattleMode) (string, error) {
	if !mode.Valid() {
		return "", fmt.Errorf("unknown battle mode %q", mode)
	}
	done, err := p.starts.Begin(startTarget)
	if err != nil {
		return "", err
	}
	defer done()

	m := p.matchup
	battleID, err := p.api.StartBattle(ctx, m.AgentA, m.AgentB, mode)
	if err != nil {
		p.coord.fail("start_battle", err, "Cannot start battle: ", "Failed to start battle")
		return "", fmt.Errorf("start battle: %w", err)
	}
	slog.Info("battle started", "battle_id", battleID, "mode", string(mode))

	strategyErr := p.submitStrategies(ctx, battleID)
	if strategyErr != nil {
		p.coord.fail("submit_strategy", strategyErr, "Strategy rejected: ", "Failed to submit strategies")
	} else {
		p.coord.success(fmt.Sprintf("Battle %s started (%s)", battleID, mode))
	}

	p.coord.staminaChanged()
	if err := p.Refresh(ctx); err != nil {
		slog.Warn("battle list not refreshed after start", "battle_id", battleID, "error", err)
	}
	if strategyErr != nil {
		return battleID, fmt.Errorf("submit strategies: %w", strategyErr)
	}
	return battleID, nil
}

func (p *BattlePage) submitStrategies(ctx context.Context, battleID string) error {
	m := p.matchup
	for _, s := range []struct{ agent, strategy string }{
		{m.AgentA, m.StrategyA},
		{m.AgentB, m.StrategyB},
	} {
		if err := p.api.SubmitStrategy(ctx, battleID, s.agent, s.strategy); err != nil {
			return fmt.Errorf("agent %s: %w", s.agent, err)
		}
	}
	return nil
}
