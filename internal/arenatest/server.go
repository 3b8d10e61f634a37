// Package arenatest provides an in-memory fake of the game API for tests.
package arenatest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/user/arena/pkg/arena"
)

// Call records one request the fake received.
type Call struct {
	// Route is the mux pattern that served the request, e.g.
	// "POST /api/v2/battle/{id}/strategy".
	Route string
	Path  string
	Query string
	Body  map[string]any
}

type failure struct {
	status int
	detail string
}

// Server is an httptest server that serves every game API endpoint from
// in-memory fixtures set through its Set* methods.
type Server struct {
	*httptest.Server

	mu          sync.Mutex
	calls       []Call
	failures    map[string]failure
	holds       map[string][]chan struct{}
	battles     []arena.Battle
	leaderboard []arena.LeaderboardEntry
	season      *arena.Season
	stamina     map[string]arena.Stamina
	shop        []arena.ShopItem
	proposals   []arena.Proposal
	posts       []arena.Post
	nextID      int
	mux         *http.ServeMux
}

// NewServer starts a fake API. The caller must Close it, usually via
// t.Cleanup.
func NewServer() *Server {
	s := &Server{
		failures: make(map[string]failure),
		holds:    make(map[string][]chan struct{}),
		stamina:  make(map[string]arena.Stamina),
		mux:      http.NewServeMux(),
	}
	s.mux.HandleFunc("GET /api/v1/battles", s.handleBattles)
	s.mux.HandleFunc("POST /api/v2/battle/start", s.handleStartBattle)
	s.mux.HandleFunc("POST /api/v2/battle/{id}/strategy", s.handleStrategy)
	s.mux.HandleFunc("GET /api/v2/leaderboard", s.handleLeaderboard)
	s.mux.HandleFunc("GET /api/v2/seasons/current", s.handleSeason)
	s.mux.HandleFunc("GET /api/v2/agents/{id}/stamina", s.handleStamina)
	s.mux.HandleFunc("GET /api/v2/shop", s.handleShop)
	s.mux.HandleFunc("POST /api/v2/shop/buy", s.handleBuy)
	s.mux.HandleFunc("GET /api/v2/proposals", s.handleProposals)
	s.mux.HandleFunc("POST /api/v2/proposals/{id}/vote", s.handleVote)
	s.mux.HandleFunc("GET /api/v2/posts", s.handlePosts)
	s.mux.HandleFunc("POST /api/v2/posts", s.handleCreatePost)
	s.mux.HandleFunc("POST /api/v2/posts/{id}/react", s.handleReact)
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	return s
}

// Route names, matching the mux patterns.
const (
	RouteBattles     = "GET /api/v1/battles"
	RouteStartBattle = "POST /api/v2/battle/start"
	RouteStrategy    = "POST /api/v2/battle/{id}/strategy"
	RouteLeaderboard = "GET /api/v2/leaderboard"
	RouteSeason      = "GET /api/v2/seasons/current"
	RouteStamina     = "GET /api/v2/agents/{id}/stamina"
	RouteShop        = "GET /api/v2/shop"
	RouteBuy         = "POST /api/v2/shop/buy"
	RouteProposals   = "GET /api/v2/proposals"
	RouteVote        = "POST /api/v2/proposals/{id}/vote"
	RoutePosts       = "GET /api/v2/posts"
	RouteCreatePost  = "POST /api/v2/posts"
	RouteReact       = "POST /api/v2/posts/{id}/react"
)

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	_, pattern := s.mux.Handler(r)
	call := Call{Route: pattern, Path: r.URL.Path, Query: r.URL.RawQuery}
	if r.Body != nil && r.Method == http.MethodPost {
		data, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(data))
		var body map[string]any
		if err := json.Unmarshal(data, &body); err == nil {
			call.Body = body
		}
	}

	s.mu.Lock()
	s.calls = append(s.calls, call)
	f, failing := s.failures[pattern]
	var hold chan struct{}
	if q := s.holds[pattern]; len(q) > 0 {
		hold, s.holds[pattern] = q[0], q[1:]
	}
	s.mu.Unlock()

	if failing {
		writeJSON(w, f.status, map[string]string{"detail": f.detail})
		return
	}
	if hold != nil {
		r = r.WithContext(context.WithValue(r.Context(), holdKey{}, hold))
	}
	s.mux.ServeHTTP(w, r)
}

// Calls returns a copy of every recorded call.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// CallsTo returns the recorded calls served by route.
func (s *Server) CallsTo(route string) []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Call
	for _, c := range s.calls {
		if c.Route == route {
			out = append(out, c)
		}
	}
	return out
}

// Count returns how many calls route has served.
func (s *Server) Count(route string) int {
	return len(s.CallsTo(route))
}

// Fail makes every subsequent call to route answer status with a detail
// body, until Recover is called.
func (s *Server) Fail(route string, status int, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = failure{status: status, detail: detail}
}

// Recover removes an injected failure.
func (s *Server) Recover(route string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, route)
}

// Hold makes the next call to route compute its response and then wait
// until the returned release function is called. Holds are claimed in the
// order requests arrive.
func (s *Server) Hold(route string) (release func()) {
	ch := make(chan struct{})
	s.mu.Lock()
	s.holds[route] = append(s.holds[route], ch)
	s.mu.Unlock()
	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

type holdKey struct{}

// respond writes v, first waiting on the hold claimed by this request, if
// any. The payload is marshaled before waiting so a held response carries
// the state as of its arrival.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"detail":"marshal failed"}`, http.StatusInternalServerError)
		return
	}
	if hold, _ := r.Context().Value(holdKey{}).(chan struct{}); hold != nil {
		select {
		case <-hold:
		case <-r.Context().Done():
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) newID(prefix string) string {
	s.nextID++
	return fmt.Sprintf("%s_%d", prefix, s.nextID)
}
