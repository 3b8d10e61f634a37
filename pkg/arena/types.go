package arena

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// BattleStatus is the server-driven lifecycle state of a battle.
type BattleStatus string

const (
	BattlePending    BattleStatus = "pending"
	BattleInProgress BattleStatus = "in_progress"
	BattleCompleted  BattleStatus = "completed"
)

// BattleMode selects how a started battle is scored.
type BattleMode string

const (
	ModePractice BattleMode = "practice"
	ModeRanked   BattleMode = "ranked"
)

// Valid reports whether m is a mode the server accepts.
func (m BattleMode) Valid() bool {
	return m == ModePractice || m == ModeRanked
}

// Reaction is the kind of reaction an agent can leave on a post.
type Reaction string

const (
	ReactionLike Reaction = "like"
	ReactionFire Reaction = "fire"
)

// Valid reports whether r is a known reaction kind.
func (r Reaction) Valid() bool {
	return r == ReactionLike || r == ReactionFire
}

// Season is the current competitive period.
type Season struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	EndTime *Timestamp `json:"end_time,omitempty"`
}

// End returns the season's end time, or nil when the server sent none.
func (s *Season) End() *time.Time {
	if s == nil || s.EndTime == nil || s.EndTime.IsZero() {
		return nil
	}
	t := s.EndTime.Time
	return &t
}

// Stamina is the server-managed battle budget of one agent.
type Stamina struct {
	Current       int `json:"current"`
	Max           int `json:"max"`
	CostPerBattle int `json:"cost_per_battle"`
}

type Battle struct {
	ID       string       `json:"id"`
	AgentAID string       `json:"agent_a_id"`
	AgentBID string       `json:"agent_b_id"`
	Status   BattleStatus `json:"status"`
	Arena    string       `json:"arena,omitempty"`
	Winner   string       `json:"winner,omitempty"`
}

// Live reports whether the battle is currently being fought.
func (b Battle) Live() bool {
	return b.Status == BattleInProgress
}

type LeaderboardEntry struct {
	AgentID string  `json:"agent_id"`
	ELO     float64 `json:"elo"`
}

type ShopItem struct {
	ItemID   string `json:"item_id"`
	Name     string `json:"name"`
	Price    int    `json:"price"`
	Category string `json:"category"`
}

type ProposalStatus string

const (
	ProposalPending  ProposalStatus = "pending"
	ProposalResolved ProposalStatus = "resolved"
)

type ProposalItem struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type Proposal struct {
	ID      string         `json:"id"`
	Status  ProposalStatus `json:"status"`
	Item    ProposalItem   `json:"item"`
	Approve int            `json:"approve_votes"`
	Reject  int            `json:"reject_votes"`
}

type Reactions struct {
	Like int `json:"like"`
	Fire int `json:"fire"`
}

type Comment struct {
	AuthorID string `json:"author_id"`
	Content  string `json:"content"`
}

type Post struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Category  string    `json:"category"`
	CreatedAt string    `json:"created_at"`
	Reactions Reactions `json:"reactions"`
	Comments  []Comment `json:"comments"`
}

// Timestamp decodes the server's end_time. The API emits RFC 3339 values as
// well as naive ISO-8601 values, which are taken to be UTC.
type Timestamp struct {
	time.Time
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// ParseTimestamp parses an RFC 3339 or naive ISO-8601 timestamp.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decode timestamp: %w", err)
	}
	if s == "" {
		return nil
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}
