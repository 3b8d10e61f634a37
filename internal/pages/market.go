package pages

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/user/arena/pkg/arena"
)

// MarketAPI is the part of the game API the market uses.
type MarketAPI interface {
	Shop(ctx context.Context) ([]arena.ShopItem, error)
	Proposals(ctx context.Context) ([]arena.Proposal, error)
	Buy(ctx context.Context, agentID, itemID string) (string, error)
	Vote(ctx context.Context, proposalID, agentID string, approve bool) error
}

// ShopFilters are the shop's category tabs.
var ShopFilters = []string{"all", "attack", "defense", "support"}

const pendingProposalLimit = 3

// Market is the shop plus the proposal ballot.
type Market struct {
	lifecycle
	api        MarketAPI
	coord      *Coordinator
	purchasing Pending
	voting     Pending

	items     []arena.ShopItem
	proposals []arena.Proposal
	filter    string
}

// NewMarket creates the market with the "all" filter.
func NewMarket(api MarketAPI, coord *Coordinator) *Market {
	return &Market{api: api, coord: coord, filter: "all"}
}

// Mount marks the market alive and loads it.
func (m *Market) Mount(ctx context.Context) error {
	m.mount()
	return m.Refresh(ctx)
}

// Unmount destroys the view.
func (m *Market) Unmount() {
	m.unmount()
}

// Refresh fetches shop items and proposals concurrently.
func (m *Market) Refresh(ctx context.Context) error {
	defer m.finishLoading()

	var items []arena.ShopItem
	var proposals []arena.Proposal
	// Siblings are not cancelled when one fails; each request runs to
	// completion.
	var g errgroup.Group
	g.Go(func() (err error) {
		items, err = m.api.Shop(ctx)
		return err
	})
	g.Go(func() (err error) {
		proposals, err = m.api.Proposals(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		slog.Error("failed to fetch market", "error", err)
		return fmt.Errorf("fetch market: %w", err)
	}

	m.update(func() {
		m.items = items
		m.proposals = proposals
	})
	return nil
}

// SetFilter sets the shop filter. Filtering is local.
func (m *Market) SetFilter(f string) {
	m.update(func() { m.filter = f })
}

// Items returns the shop items that match the current filter by category
// or by item id substring.
func (m *Market) Items() []arena.ShopItem {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []arena.ShopItem
	for _, it := range m.items {
		if m.filter == "all" || it.Category == m.filter || strings.Contains(it.ItemID, m.filter) {
			out = append(out, it)
		}
	}
	return out
}

// PendingProposals returns the first few proposals still open for votes.
func (m *Market) PendingProposals() []arena.Proposal {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []arena.Proposal
	for _, p := range m.proposals {
		if p.Status == arena.ProposalPending {
			out = append(out, p)
			if len(out) == pendingProposalLimit {
				break
			}
		}
	}
	return out
}

// Purchasing reports whether a purchase of itemID is in flight.
func (m *Market) Purchasing(itemID string) bool { return m.purchasing.Is(itemID) }
// Voting reports whether a vote on proposalID is in flight.
func (m *Market) Voting(proposalID string) bool { return m.voting.Is(proposalID) }

// Buy purchases an item. On success the shell is told stamina may have
// changed and the market is re-fetched; a rejection leaves state untouched.
func (m *Market) Buy(ctx context.Context, itemID string) error {
	done, err := m.purchasing.Begin(itemID)
	if err != nil {
		return err
	}
	defer done()

	msg, err := m.api.Buy(ctx, m.coord.AgentID, itemID)
	if err != nil {
		m.coord.fail("buy", err, "", "Failed to purchase item")
		return fmt.Errorf("buy %s: %w", itemID, err)
	}
	if msg == "" {
		msg = "Purchase successful!"
	}
	slog.Info("item purchased", "agent_id", m.coord.AgentID, "item_id", itemID)
	m.coord.success(msg)

	m.coord.staminaChanged()
	if err := m.Refresh(ctx); err != nil {
		slog.Warn("market not refreshed after purchase", "item_id", itemID, "error", err)
	}
	return nil
}

// Vote casts a ballot on a proposal and re-fetches on success. Votes do not
// touch stamina.
func (m *Market) Vote(ctx context.Context, proposalID string, approve bool) error {
	done, err := m.voting.Begin(proposalID)
	if err != nil {
		return err
	}
	defer done()

	if err := m.api.Vote(ctx, proposalID, m.coord.AgentID, approve); err != nil {
		m.coord.fail("vote", err, "", "Failed to vote")
		return fmt.Errorf("vote on %s: %w", proposalID, err)
	}
	verdict := "Rejected"
	if approve {
		verdict = "Approved"
	}
	m.coord.success("Vote recorded: " + verdict)

	if err := m.Refresh(ctx); err != nil {
		slog.Warn("market not refreshed after vote", "proposal_id", proposalID, "error", err)
	}
	return nil
}
