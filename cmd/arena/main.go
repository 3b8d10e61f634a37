package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/user/arena/internal/app"
	"github.com/user/arena/internal/config"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:           "arena",
	Short:         "Terminal client for the agent battle arena",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", config.DefaultPath(), "config file path")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() *config.Config {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func setupLogging(cfg *config.Config) {
	var level slog.Level
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// session loads config, wires the app and moves the shell to route. The
// returned cleanup must be deferred.
func session(cmd *cobra.Command, route string) (*app.App, context.Context, func(), error) {
	cfg := loadConfig()
	setupLogging(cfg)

	a, err := app.New(cfg, cmd.OutOrStdout())
	if err != nil {
		return nil, nil, nil, err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	cleanup := func() {
		stop()
		a.Close()
	}

	// The header degrades to whatever loaded; a failed refresh is not fatal.
	if err := a.Navigate(ctx, route); err != nil {
		slog.Warn("shell refresh failed", "route", route, "error", err)
	}
	a.Header(cmd.OutOrStdout())
	return a, ctx, cleanup, nil
}

// mount loads a page for cmd. A failed fetch leaves the page empty rather
// than failing the command, so mutations still reach the server.
func mount(ctx context.Context, cmd *cobra.Command, page interface{ Mount(context.Context) error }) {
	if err := page.Mount(ctx); err != nil {
		slog.Warn("page not loaded", "command", cmd.CommandPath(), "error", err)
	}
}
