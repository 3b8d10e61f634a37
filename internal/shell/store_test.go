package shell

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/user/arena/internal/arenatest"
	"github.com/user/arena/internal/events"
	"github.com/user/arena/pkg/arena"
)

const agent = "demo_agent_1"

func setup(t *testing.T, opts ...Option) (*Store, *arenatest.Server) {
	t.Helper()
	srv := arenatest.NewServer()
	t.Cleanup(srv.Close)
	client := arena.New(&arena.Config{BaseURL: srv.URL})
	return NewStore(client, agent, opts...), srv
}

func waitForCalls(t *testing.T, srv *arenatest.Server, route string, n int) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-deadline:
			t.Fatalf("expected %d calls to %s, got %d", n, route, srv.Count(route))
		case <-ticker.C:
			if srv.Count(route) >= n {
				return
			}
		}
	}
}

func seasonEnding(d time.Duration) *arena.Season {
	return &arena.Season{
		ID:      "s1",
		Name:    "SEASON 7",
		EndTime: &arena.Timestamp{Time: time.Now().Add(d)},
	}
}

func TestNavigateRefreshesBoth(t *testing.T) {
	store, srv := setup(t)
	srv.SetSeason(seasonEnding(48 * time.Hour))
	srv.SetStamina(agent, arena.Stamina{Current: 8, Max: 10, CostPerBattle: 2})

	if err := store.Navigate(context.Background(), "/battle"); err != nil {
		t.Fatal(err)
	}
	if store.Route() != "/battle" {
		t.Errorf("expected route /battle, got %q", store.Route())
	}
	if s := store.Season(); s == nil || s.Name != "SEASON 7" {
		t.Errorf("unexpected season %+v", s)
	}
	if st := store.Stamina(); st == nil || st.Current != 8 || st.Max != 10 || st.CostPerBattle != 2 {
		t.Errorf("unexpected stamina %+v", st)
	}
	if srv.Count(arenatest.RouteSeason) != 1 || srv.Count(arenatest.RouteStamina) != 1 {
		t.Errorf("expected one call each, got season=%d stamina=%d",
			srv.Count(arenatest.RouteSeason), srv.Count(arenatest.RouteStamina))
	}
}

func TestRefreshFailureKeepsSnapshot(t *testing.T) {
	store, srv := setup(t)
	srv.SetStamina(agent, arena.Stamina{Current: 8, Max: 10, CostPerBattle: 2})
	srv.SetSeason(seasonEnding(time.Hour))

	if err := store.Navigate(context.Background(), "/"); err != nil {
		t.Fatal(err)
	}

	srv.Fail(arenatest.RouteStamina, http.StatusInternalServerError, "boom")
	srv.Fail(arenatest.RouteSeason, http.StatusInternalServerError, "boom")
	err := store.Navigate(context.Background(), "/market")
	if err == nil {
		t.Fatal("expected error")
	}
	if st := store.Stamina(); st == nil || st.Current != 8 {
		t.Errorf("expected previous stamina to survive, got %+v", st)
	}
	if store.Season() == nil {
		t.Error("expected previous season to survive")
	}
	if store.Route() != "/market" {
		t.Errorf("route should change even when refresh fails, got %q", store.Route())
	}
}

func TestRefreshBeforeAnySuccessLeavesAbsent(t *testing.T) {
	store, srv := setup(t)
	srv.Fail(arenatest.RouteStamina, http.StatusServiceUnavailable, "down")

	if err := store.RefreshStamina(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if store.Stamina() != nil {
		t.Errorf("expected no stamina, got %+v", store.Stamina())
	}
}

func TestRefreshStaminaTwiceIdentical(t *testing.T) {
	store, srv := setup(t)
	srv.SetStamina(agent, arena.Stamina{Current: 8, Max: 10, CostPerBattle: 2})

	ctx := context.Background()
	if err := store.RefreshStamina(ctx); err != nil {
		t.Fatal(err)
	}
	first := *store.Stamina()
	if err := store.RefreshStamina(ctx); err != nil {
		t.Fatal(err)
	}

	if *store.Stamina() != first {
		t.Errorf("expected unchanged stamina %+v, got %+v", first, *store.Stamina())
	}
	if n := srv.Count(arenatest.RouteStamina); n != 2 {
		t.Errorf("expected 2 requests, got %d", n)
	}
}

// An older response that resolves after a newer one overwrites it. This is
// the store's default behaviour and matches the browser client.
func TestOutOfOrderResponseOverwritesByDefault(t *testing.T) {
	store, srv := setup(t)
	got := raceStaminaRefreshes(t, store, srv)
	if got.Current != 8 {
		t.Errorf("expected stale overwrite to current=8, got %+v", got)
	}
}

func TestOutOfOrderResponseDiscardedWithGuard(t *testing.T) {
	store, srv := setup(t, WithDiscardStale())
	got := raceStaminaRefreshes(t, store, srv)
	if got.Current != 6 {
		t.Errorf("expected newer snapshot current=6 to survive, got %+v", got)
	}
}

// raceStaminaRefreshes issues a request that sees current=8 and holds it,
// then completes a second request that sees current=6, then releases the
// first.
func raceStaminaRefreshes(t *testing.T, store *Store, srv *arenatest.Server) arena.Stamina {
	t.Helper()
	ctx := context.Background()
	srv.SetStamina(agent, arena.Stamina{Current: 8, Max: 10, CostPerBattle: 2})
	release := srv.Hold(arenatest.RouteStamina)
	defer release()

	done := make(chan error, 1)
	go func() { done <- store.RefreshStamina(ctx) }()
	waitForCalls(t, srv, arenatest.RouteStamina, 1)

	srv.SetStamina(agent, arena.Stamina{Current: 6, Max: 10, CostPerBattle: 2})
	if err := store.RefreshStamina(ctx); err != nil {
		t.Fatal(err)
	}
	if st := store.Stamina(); st == nil || st.Current != 6 {
		t.Fatalf("expected newer snapshot first, got %+v", st)
	}

	release()
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	return *store.Stamina()
}

func TestAttachRefreshesOnSignal(t *testing.T) {
	store, srv := setup(t)
	srv.SetStamina(agent, arena.Stamina{Current: 8, Max: 10, CostPerBattle: 2})
	bus := events.NewBus()
	store.Attach(bus)
	defer store.Close()

	bus.Publish(events.StaminaUpdate)
	store.Wait()
	if st := store.Stamina(); st == nil || st.Current != 8 {
		t.Fatalf("unexpected stamina %+v", st)
	}

	srv.SetStamina(agent, arena.Stamina{Current: 6, Max: 10, CostPerBattle: 2})
	bus.Publish(events.StaminaUpdate)
	bus.Publish(events.StaminaUpdate)
	store.Wait()

	if n := srv.Count(arenatest.RouteStamina); n != 3 {
		t.Errorf("expected one request per signal (3), got %d", n)
	}
	if st := store.Stamina(); st.Current != 6 {
		t.Errorf("expected current=6 after signal, got %+v", st)
	}
}

func TestCloseUnsubscribes(t *testing.T) {
	store, srv := setup(t)
	srv.SetStamina(agent, arena.Stamina{Current: 1, Max: 10})
	bus := events.NewBus()
	store.Attach(bus)
	store.Close()

	if n := bus.Subscribers(events.StaminaUpdate); n != 0 {
		t.Fatalf("expected 0 subscribers after close, got %d", n)
	}
	bus.Publish(events.StaminaUpdate)
	store.Wait()
	if n := srv.Count(arenatest.RouteStamina); n != 0 {
		t.Errorf("expected no refresh after close, got %d", n)
	}
}

func TestAttachTwiceKeepsOneSubscription(t *testing.T) {
	store, _ := setup(t)
	bus := events.NewBus()
	store.Attach(bus)
	store.Attach(bus)
	defer store.Close()

	if n := bus.Subscribers(events.StaminaUpdate); n != 1 {
		t.Errorf("expected 1 subscriber, got %d", n)
	}
}

func TestBanner(t *testing.T) {
	store, srv := setup(t)
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	end := now.Add(2*24*time.Hour + 3*time.Hour + 4*time.Minute + 30*time.Second)
	srv.SetSeason(&arena.Season{ID: "s1", EndTime: &arena.Timestamp{Time: end}})

	if _, _, ok := store.Banner(now); ok {
		t.Fatal("expected no banner before the season is loaded")
	}
	if err := store.RefreshSeason(context.Background()); err != nil {
		t.Fatal(err)
	}

	name, r, ok := store.Banner(now)
	if !ok {
		t.Fatal("expected banner")
	}
	if name != "SEASON 1" {
		t.Errorf("expected default season name, got %q", name)
	}
	if r.Banner() != "2D : 3H : 4M" {
		t.Errorf("expected %q, got %q", "2D : 3H : 4M", r.Banner())
	}

	// Passive mode: the banner only moves when asked with a new time.
	if _, _, ok := store.Banner(end); ok {
		t.Error("expected no banner once the season has ended")
	}
}

func TestBannerNoSeason(t *testing.T) {
	store, srv := setup(t)
	srv.SetSeason(nil)
	if err := store.RefreshSeason(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, _, ok := store.Banner(time.Now()); ok {
		t.Error("expected no banner without a season")
	}
}
