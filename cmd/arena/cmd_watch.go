package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/user/arena/internal/countdown"
	"github.com/user/arena/internal/render"
)

var (
	refreshSchedule string
	seasonWatch     bool
)

func init() {
	rootCmd.AddCommand(shellCmd, seasonCmd)
	shellCmd.Flags().StringVar(&refreshSchedule, "refresh", "", "shell refresh schedule, overrides refresh.schedule")
	seasonCmd.Flags().BoolVar(&seasonWatch, "watch", false, "keep the countdown running until interrupted")
}

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Keep the season banner and stamina header up to date",
	Long: "Redraws the shell header on the refresh schedule. Each line read from " +
		"stdin is taken as a route to navigate to, which refreshes the header at once.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, ctx, cleanup, err := session(cmd, "/")
		if err != nil {
			return err
		}
		defer cleanup()
		if refreshSchedule != "" {
			a.Config.Refresh.Schedule = refreshSchedule
		}

		out := cmd.OutOrStdout()
		cancel, err := a.AutoRefresh(ctx, func() { a.Header(out) })
		if err != nil {
			return err
		}
		defer cancel()
		a.Start()

		routes := make(chan string)
		go func() {
			defer close(routes)
			scanner := bufio.NewScanner(os.Stdin)
			for scanner.Scan() {
				routes <- strings.TrimSpace(scanner.Text())
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return nil
			case route, ok := <-routes:
				if !ok {
					return nil
				}
				if route == "" {
					continue
				}
				if err := a.Navigate(ctx, route); err != nil {
					slog.Warn("shell refresh failed", "route", route, "error", err)
				}
				a.Header(out)
			}
		}
	},
}

var seasonCmd = &cobra.Command{
	Use:   "season",
	Short: "Show the season countdown and leaderboard",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, ctx, cleanup, err := session(cmd, "/season")
		if err != nil {
			return err
		}
		defer cleanup()

		out := cmd.OutOrStdout()
		page := a.SeasonPage()
		defer page.Unmount()
		if seasonWatch {
			page.OnTick(func(r countdown.Remaining, ok bool) {
				if ok {
					fmt.Fprintf(out, "\r%s ", r.Clock())
				} else {
					fmt.Fprint(out, "\rseason ended        ")
				}
			})
			a.Start()
		}
		mount(ctx, cmd, page)
		if !seasonWatch {
			render.Season(out, page)
			return nil
		}
		<-ctx.Done()
		fmt.Fprintln(out)
		return nil
	},
}
