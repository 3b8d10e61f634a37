// Package app holds the session context: the pieces every page shares,
// created once at startup and passed to pages through their constructors.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/user/arena/internal/config"
	"github.com/user/arena/internal/countdown"
	"github.com/user/arena/internal/delivery"
	"github.com/user/arena/internal/events"
	"github.com/user/arena/internal/pages"
	"github.com/user/arena/internal/render"
	"github.com/user/arena/internal/scheduler"
	"github.com/user/arena/internal/shell"
	"github.com/user/arena/internal/telegram"
	"github.com/user/arena/pkg/arena"
)

type App struct {
	Config    *config.Config
	Client    *arena.Client
	Bus       *events.Bus
	Store     *shell.Store
	Scheduler *scheduler.Scheduler
	Notifier  *delivery.Notifier

	coord *pages.Coordinator
}

type options struct {
	telegramEndpoint string
}

// Option configures New.
type Option func(*options)

// WithTelegramEndpoint points the Telegram sender at another Bot API
// endpoint, a format string taking the token and the method.
func WithTelegramEndpoint(endpoint string) Option {
	return func(o *options) { o.telegramEndpoint = endpoint }
}

// New wires a session from cfg. Notices go to out and, when a bot token and
// chat are configured, to Telegram as well.
func New(cfg *config.Config, out io.Writer, opts ...Option) (*App, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	client := arena.New(&arena.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: time.Duration(cfg.API.TimeoutSeconds) * time.Second,
	})

	var storeOpts []shell.Option
	if cfg.DiscardStale {
		storeOpts = append(storeOpts, shell.WithDiscardStale())
	}
	bus := events.NewBus()
	store := shell.NewStore(client, cfg.AgentID, storeOpts...)
	store.Attach(bus)

	registry := delivery.NewRegistry()
	registry.Register(delivery.ConsoleTarget, delivery.Console(out))
	targets := []string{delivery.ConsoleTarget}
	if cfg.Telegram.Token != "" && cfg.Telegram.ChatID != 0 {
		var sender *telegram.Sender
		var err error
		if o.telegramEndpoint != "" {
			sender, err = telegram.NewWithEndpoint(cfg.Telegram.Token, o.telegramEndpoint)
		} else {
			sender, err = telegram.New(cfg.Telegram.Token)
		}
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("start telegram: %w", err)
		}
		registry.Register(telegram.Prefix, sender.Deliver)
		targets = append(targets, telegram.Target(cfg.Telegram.ChatID))
	}
	notifier := delivery.NewNotifier(registry, render.Notice, targets...)
	notifier.FormatFor(telegram.Prefix, render.PlainNotice)

	return &App{
		Config:    cfg,
		Client:    client,
		Bus:       bus,
		Store:     store,
		Scheduler: scheduler.New(),
		Notifier:  notifier,
		coord:     pages.NewCoordinator(cfg.AgentID, bus, notifier),
	}, nil
}

// Start starts the scheduler so recurring jobs fire.
func (a *App) Start() {
	a.Scheduler.Start()
}

// Close stops recurring jobs and detaches the shell from the bus.
func (a *App) Close() {
	a.Scheduler.Stop()
	a.Store.Close()
}

// Navigate moves the shell to route, refreshing its resources.
func (a *App) Navigate(ctx context.Context, route string) error {
	return a.Store.Navigate(ctx, route)
}

// AutoRefresh re-derives the shell resources on the configured schedule
// until the returned cancel func is called.
func (a *App) AutoRefresh(ctx context.Context, onRefresh func()) (countdown.CancelFunc, error) {
	spec := a.Config.Refresh.Schedule
	return a.Scheduler.Cron(spec, func() {
		if err := a.Store.Navigate(ctx, a.Store.Route()); err != nil {
			slog.Warn("scheduled shell refresh failed", "error", err)
		}
		if onRefresh != nil {
			onRefresh()
		}
	})
}

// Matchup is the battle pairing from config.
func (a *App) Matchup() pages.Matchup {
	cfg := a.Config
	m := pages.Matchup{
		AgentA:    cfg.AgentID,
		AgentB:    cfg.OpponentID,
		StrategyA: cfg.Strategies.Agent,
		StrategyB: cfg.Strategies.Opponent,
	}
	if m.AgentB == "" {
		m.AgentB = pages.DefaultMatchup.AgentB
	}
	if m.StrategyA == "" {
		m.StrategyA = pages.DefaultMatchup.StrategyA
	}
	if m.StrategyB == "" {
		m.StrategyB = pages.DefaultMatchup.StrategyB
	}
	return m
}

func (a *App) Dashboard() *pages.Dashboard {
	return pages.NewDashboard(a.Client)
}

func (a *App) BattlePage() *pages.BattlePage {
	return pages.NewBattlePage(a.Client, a.coord, a.Matchup())
}

func (a *App) Market() *pages.Market {
	return pages.NewMarket(a.Client, a.coord)
}

func (a *App) Community() *pages.Community {
	return pages.NewCommunity(a.Client, a.coord)
}

// SeasonPage ticks its countdown on the app's scheduler.
func (a *App) SeasonPage() *pages.SeasonPage {
	return pages.NewSeasonPage(a.Client, a.Scheduler, nil)
}

// Header writes the shell header for the current snapshot.
func (a *App) Header(w io.Writer) {
	name, r, ok := a.Store.Banner(time.Now())
	render.Header(w, name, r, ok, a.Store.Stamina())
}
