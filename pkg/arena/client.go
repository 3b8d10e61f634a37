package arena

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Config holds connection settings for the game API.
type Config struct {
	BaseURL string
	// Timeout bounds each request. Zero means no client-side timeout: a hung
	// request stays outstanding until the caller's context ends.
	Timeout time.Duration
}

// Client talks to the game API over HTTP with JSON bodies.
type Client struct {
	config     *Config
	httpClient *http.Client
}

// New creates a Client for the API rooted at config.BaseURL.
func New(config *Config) *Client {
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// APIError is an application-level rejection: the server answered with a
// non-success status, usually carrying a detail message for the user.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.Status, e.Detail)
}

// IsRejection reports whether err is a server rejection as opposed to a
// transport or decoding failure.
func IsRejection(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}

// Detail extracts the server's detail message from err, or returns fallback
// when err is not a rejection or carries no detail.
func Detail(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return fallback
}

type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

// decodeDetail pulls "detail" out of an error body. FastAPI-style servers
// send either a string or a structured validation list.
func decodeDetail(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil || len(eb.Detail) == 0 {
		return strings.TrimSpace(string(body))
	}
	var s string
	if err := json.Unmarshal(eb.Detail, &s); err == nil {
		return s
	}
	return string(eb.Detail)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	u := strings.TrimRight(c.config.BaseURL, "/") + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Detail: decodeDetail(respBody)}
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}

// Battles lists recent battles.
func (c *Client) Battles(ctx context.Context) ([]Battle, error) {
	var resp struct {
		Battles []Battle `json:"battles"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/battles", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Battles, nil
}

type startBattleRequest struct {
	AgentAID string     `json:"agent_a_id"`
	AgentBID string     `json:"agent_b_id"`
	Mode     BattleMode `json:"mode"`
}

// StartBattle creates a battle between two agents and returns its id.
func (c *Client) StartBattle(ctx context.Context, agentA, agentB string, mode BattleMode) (string, error) {
	var resp struct {
		BattleID string `json:"battle_id"`
	}
	req := startBattleRequest{AgentAID: agentA, AgentBID: agentB, Mode: mode}
	if err := c.do(ctx, http.MethodPost, "/api/v2/battle/start", nil, req, &resp); err != nil {
		return "", err
	}
	if resp.BattleID == "" {
		return "", fmt.Errorf("no battle_id in response")
	}
	return resp.BattleID, nil
}

type strategyRequest struct {
	AgentID  string `json:"agent_id"`
	Strategy string `json:"strategy"`
}

// SubmitStrategy attaches one agent's strategy to a created battle.
func (c *Client) SubmitStrategy(ctx context.Context, battleID, agentID, strategy string) error {
	path := "/api/v2/battle/" + url.PathEscape(battleID) + "/strategy"
	return c.do(ctx, http.MethodPost, path, nil, strategyRequest{AgentID: agentID, Strategy: strategy}, nil)
}

// Leaderboard returns the server-ordered ranking.
func (c *Client) Leaderboard(ctx context.Context) ([]LeaderboardEntry, error) {
	var resp struct {
		Leaderboard []LeaderboardEntry `json:"leaderboard"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v2/leaderboard", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Leaderboard, nil
}

// CurrentSeason returns the active season, or nil when none is running.
func (c *Client) CurrentSeason(ctx context.Context) (*Season, error) {
	var resp struct {
		CurrentSeason *Season `json:"current_season"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v2/seasons/current", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.CurrentSeason, nil
}

// Stamina returns the stamina snapshot for an agent.
func (c *Client) Stamina(ctx context.Context, agentID string) (*Stamina, error) {
	var resp Stamina
	path := "/api/v2/agents/" + url.PathEscape(agentID) + "/stamina"
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Shop lists purchasable items.
func (c *Client) Shop(ctx context.Context) ([]ShopItem, error) {
	var resp struct {
		ShopItems []ShopItem `json:"shop_items"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v2/shop", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.ShopItems, nil
}

type buyRequest struct {
	AgentID string `json:"agent_id"`
	ItemID  string `json:"item_id"`
}

// Buy purchases an item for an agent and returns the server's message.
func (c *Client) Buy(ctx context.Context, agentID, itemID string) (string, error) {
	var resp struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v2/shop/buy", nil, buyRequest{AgentID: agentID, ItemID: itemID}, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// Proposals lists community item proposals.
func (c *Client) Proposals(ctx context.Context) ([]Proposal, error) {
	var resp struct {
		Proposals []Proposal `json:"proposals"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v2/proposals", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Proposals, nil
}

type voteRequest struct {
	AgentID string `json:"agent_id"`
	Approve bool   `json:"approve"`
}

// Vote casts an approval or rejection on a proposal.
func (c *Client) Vote(ctx context.Context, proposalID, agentID string, approve bool) error {
	path := "/api/v2/proposals/" + url.PathEscape(proposalID) + "/vote"
	return c.do(ctx, http.MethodPost, path, nil, voteRequest{AgentID: agentID, Approve: approve}, nil)
}

// CategoryAll is the pseudo-category that lists posts of every category.
const CategoryAll = "all"

// Posts lists community posts. The category is sent as a query parameter
// unless it is empty or CategoryAll.
func (c *Client) Posts(ctx context.Context, category string) ([]Post, error) {
	var query url.Values
	if category != "" && category != CategoryAll {
		query = url.Values{"category": {category}}
	}
	var resp struct {
		Posts []Post `json:"posts"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v2/posts", query, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Posts, nil
}

// NewPost is the body of a post creation.
type NewPost struct {
	AuthorID string `json:"author_id"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Category string `json:"category"`
}

// CreatePost publishes a community post.
func (c *Client) CreatePost(ctx context.Context, post NewPost) error {
	return c.do(ctx, http.MethodPost, "/api/v2/posts", nil, post, nil)
}

type reactRequest struct {
	AgentID  string   `json:"agent_id"`
	Reaction Reaction `json:"reaction"`
}

// React leaves a reaction on a post.
func (c *Client) React(ctx context.Context, postID, agentID string, reaction Reaction) error {
	path := "/api/v2/posts/" + url.PathEscape(postID) + "/react"
	return c.do(ctx, http.MethodPost, path, nil, reactRequest{AgentID: agentID, Reaction: reaction}, nil)
}
