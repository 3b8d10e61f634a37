package arenatest

import (
	"encoding/json"
	"io"
	"net/http"
	"slices"

	"github.com/user/arena/pkg/arena"
)

// SetBattles replaces the battle list.
func (s *Server) SetBattles(battles ...arena.Battle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.battles = slices.Clone(battles)
}

// SetLeaderboard replaces the leaderboard.
func (s *Server) SetLeaderboard(entries ...arena.LeaderboardEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leaderboard = slices.Clone(entries)
}

// SetSeason sets the current season; nil means no active season.
func (s *Server) SetSeason(season *arena.Season) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.season = season
}

// SetStamina sets an agent's stamina snapshot.
func (s *Server) SetStamina(agentID string, st arena.Stamina) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stamina[agentID] = st
}

// StaminaOf returns the server-side stamina of an agent.
func (s *Server) StaminaOf(agentID string) arena.Stamina {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stamina[agentID]
}

// SetShop replaces the shop items.
func (s *Server) SetShop(items ...arena.ShopItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shop = slices.Clone(items)
}

// SetProposals replaces the proposals.
func (s *Server) SetProposals(proposals ...arena.Proposal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.proposals = slices.Clone(proposals)
}

// SetPosts replaces the community posts.
func (s *Server) SetPosts(posts ...arena.Post) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts = slices.Clone(posts)
}

func decode(r *http.Request, v any) error {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func (s *Server) handleBattles(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	resp := map[string]any{"battles": slices.Clone(s.battles)}
	s.mu.Unlock()
	s.respond(w, r, http.StatusOK, resp)
}

func (s *Server) handleStartBattle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AgentAID string `json:"agent_a_id"`
		AgentBID string `json:"agent_b_id"`
		Mode     string `json:"mode"`
	}
	if err := decode(r, &req); err != nil || req.AgentAID == "" || req.AgentBID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "agent ids are required"})
		return
	}

	s.mu.Lock()
	st, ok := s.stamina[req.AgentAID]
	if ok && st.Current < st.CostPerBattle {
		s.mu.Unlock()
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Not enough stamina"})
		return
	}
	if ok {
		st.Current -= st.CostPerBattle
		s.stamina[req.AgentAID] = st
	}
	id := s.newID("battle")
	s.battles = append([]arena.Battle{{
		ID:       id,
		AgentAID: req.AgentAID,
		AgentBID: req.AgentBID,
		Status:   arena.BattlePending,
		Arena:    "NEON CITY ARENA",
	}}, s.battles...)
	s.mu.Unlock()

	s.respond(w, r, http.StatusOK, map[string]string{"battle_id": id})
}

func (s *Server) handleStrategy(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s.mu.Lock()
	found := slices.ContainsFunc(s.battles, func(b arena.Battle) bool { return b.ID == id })
	s.mu.Unlock()
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Battle not found"})
		return
	}
	s.respond(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	resp := map[string]any{"leaderboard": slices.Clone(s.leaderboard)}
	s.mu.Unlock()
	s.respond(w, r, http.StatusOK, resp)
}

func (s *Server) handleSeason(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	resp := map[string]any{"current_season": s.season}
	s.mu.Unlock()
	s.respond(w, r, http.StatusOK, resp)
}

func (s *Server) handleStamina(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	st, ok := s.stamina[r.PathValue("id")]
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Agent not found"})
		return
	}
	s.respond(w, r, http.StatusOK, st)
}

func (s *Server) handleShop(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	resp := map[string]any{"shop_items": slices.Clone(s.shop)}
	s.mu.Unlock()
	s.respond(w, r, http.StatusOK, resp)
}

func (s *Server) handleBuy(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AgentID string `json:"agent_id"`
		ItemID  string `json:"item_id"`
	}
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid JSON"})
		return
	}
	s.mu.Lock()
	idx := slices.IndexFunc(s.shop, func(it arena.ShopItem) bool { return it.ItemID == req.ItemID })
	var name string
	if idx >= 0 {
		name = s.shop[idx].Name
	}
	s.mu.Unlock()
	if idx < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Item not found"})
		return
	}
	s.respond(w, r, http.StatusOK, map[string]string{"message": "Purchased " + name})
}

func (s *Server) handleProposals(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	resp := map[string]any{"proposals": slices.Clone(s.proposals)}
	s.mu.Unlock()
	s.respond(w, r, http.StatusOK, resp)
}

func (s *Server) handleVote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AgentID string `json:"agent_id"`
		Approve bool   `json:"approve"`
	}
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid JSON"})
		return
	}
	id := r.PathValue("id")
	s.mu.Lock()
	idx := slices.IndexFunc(s.proposals, func(p arena.Proposal) bool { return p.ID == id })
	if idx >= 0 {
		if req.Approve {
			s.proposals[idx].Approve++
		} else {
			s.proposals[idx].Reject++
		}
	}
	s.mu.Unlock()
	if idx < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Proposal not found"})
		return
	}
	s.respond(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePosts(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	s.mu.Lock()
	var posts []arena.Post
	for _, p := range s.posts {
		if category == "" || p.Category == category {
			posts = append(posts, p)
		}
	}
	s.mu.Unlock()
	s.respond(w, r, http.StatusOK, map[string]any{"posts": posts})
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	var req arena.NewPost
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid JSON"})
		return
	}
	s.mu.Lock()
	post := arena.Post{
		ID:       s.newID("post"),
		AuthorID: req.AuthorID,
		Title:    req.Title,
		Content:  req.Content,
		Category: req.Category,
	}
	s.posts = append([]arena.Post{post}, s.posts...)
	s.mu.Unlock()
	s.respond(w, r, http.StatusOK, map[string]string{"post_id": post.ID})
}

func (s *Server) handleReact(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AgentID  string `json:"agent_id"`
		Reaction string `json:"reaction"`
	}
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid JSON"})
		return
	}
	id := r.PathValue("id")
	s.mu.Lock()
	idx := slices.IndexFunc(s.posts, func(p arena.Post) bool { return p.ID == id })
	if idx >= 0 {
		switch arena.Reaction(req.Reaction) {
		case arena.ReactionLike:
			s.posts[idx].Reactions.Like++
		case arena.ReactionFire:
			s.posts[idx].Reactions.Fire++
		}
	}
	s.mu.Unlock()
	if idx < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Post not found"})
		return
	}
	s.respond(w, r, http.StatusOK, map[string]string{"status": "ok"})
}
