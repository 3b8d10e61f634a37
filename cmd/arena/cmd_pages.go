package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/user/arena/internal/pages"
	"github.com/user/arena/internal/render"
	"github.com/user/arena/pkg/arena"
)

var (
	battleMode      string
	battleLiveOnly  bool
	marketFilter    string
	voteApprove     bool
	voteReject      bool
	postCategory    string
	communityFilter string
)

func init() {
	rootCmd.AddCommand(dashboardCmd, battleCmd, marketCmd, communityCmd)

	battleCmd.AddCommand(battleListCmd, battleStartCmd)
	battleListCmd.Flags().BoolVar(&battleLiveOnly, "live", false, "show only live battles")
	battleStartCmd.Flags().StringVar(&battleMode, "mode", string(arena.ModePractice), "battle mode (practice|ranked)")

	marketCmd.AddCommand(marketListCmd, marketBuyCmd, marketVoteCmd)
	marketListCmd.Flags().StringVar(&marketFilter, "filter", "all", "category or item id fragment")
	marketVoteCmd.Flags().BoolVar(&voteApprove, "approve", false, "vote to approve")
	marketVoteCmd.Flags().BoolVar(&voteReject, "reject", false, "vote to reject")
	marketVoteCmd.MarkFlagsMutuallyExclusive("approve", "reject")
	marketVoteCmd.MarkFlagsOneRequired("approve", "reject")

	communityCmd.AddCommand(communityListCmd, communityPostCmd, communityReactCmd)
	communityListCmd.Flags().StringVar(&communityFilter, "category", arena.CategoryAll, "feed category")
	communityPostCmd.Flags().StringVar(&postCategory, "category", "general", "post category")
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show recent battles and the leaderboard",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, ctx, cleanup, err := session(cmd, "/")
		if err != nil {
			return err
		}
		defer cleanup()

		page := a.Dashboard()
		defer page.Unmount()
		mount(ctx, cmd, page)
		render.Dashboard(cmd.OutOrStdout(), page)
		return nil
	},
}

var battleCmd = &cobra.Command{
	Use:   "battle",
	Short: "Battle history and new battles",
}

var battleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List battles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, ctx, cleanup, err := session(cmd, "/battle")
		if err != nil {
			return err
		}
		defer cleanup()

		page := a.BattlePage()
		defer page.Unmount()
		mount(ctx, cmd, page)
		if battleLiveOnly {
			page.SetFilter(pages.FilterLive)
		}
		render.Battles(cmd.OutOrStdout(), page)
		return nil
	},
}

var battleStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a battle between the configured agents",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, ctx, cleanup, err := session(cmd, "/battle")
		if err != nil {
			return err
		}
		defer cleanup()

		page := a.BattlePage()
		defer page.Unmount()
		mount(ctx, cmd, page)
		if _, err := page.Start(ctx, arena.BattleMode(battleMode)); err != nil {
			return err
		}
		a.Store.Wait()
		a.Header(cmd.OutOrStdout())
		render.Battles(cmd.OutOrStdout(), page)
		return nil
	},
}

var marketCmd = &cobra.Command{
	Use:   "market",
	Short: "Shop items and balance proposals",
}

var marketListCmd = &cobra.Command{
	Use:   "list",
	Short: "List shop items and open proposals",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, ctx, cleanup, err := session(cmd, "/market")
		if err != nil {
			return err
		}
		defer cleanup()

		page := a.Market()
		defer page.Unmount()
		mount(ctx, cmd, page)
		page.SetFilter(marketFilter)
		render.Market(cmd.OutOrStdout(), page)
		return nil
	},
}

var marketBuyCmd = &cobra.Command{
	Use:   "buy <item-id>",
	Short: "Buy a shop item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, ctx, cleanup, err := session(cmd, "/market")
		if err != nil {
			return err
		}
		defer cleanup()

		page := a.Market()
		defer page.Unmount()
		mount(ctx, cmd, page)
		if err := page.Buy(ctx, args[0]); err != nil {
			return err
		}
		a.Store.Wait()
		a.Header(cmd.OutOrStdout())
		return nil
	},
}

var marketVoteCmd = &cobra.Command{
	Use:   "vote <proposal-id> --approve|--reject",
	Short: "Vote on a balance proposal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, ctx, cleanup, err := session(cmd, "/market")
		if err != nil {
			return err
		}
		defer cleanup()

		page := a.Market()
		defer page.Unmount()
		mount(ctx, cmd, page)
		if err := page.Vote(ctx, args[0], voteApprove); err != nil {
			return err
		}
		render.Market(cmd.OutOrStdout(), page)
		return nil
	},
}

var communityCmd = &cobra.Command{
	Use:   "community",
	Short: "Community posts and reactions",
}

var communityListCmd = &cobra.Command{
	Use:   "list",
	Short: "List posts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, ctx, cleanup, err := session(cmd, "/community")
		if err != nil {
			return err
		}
		defer cleanup()

		page := a.Community()
		defer page.Unmount()
		mount(ctx, cmd, page)
		if communityFilter != arena.CategoryAll {
			if err := page.SetCategory(ctx, communityFilter); err != nil {
				slog.Warn("posts not loaded", "category", communityFilter, "error", err)
			}
		}
		render.Community(cmd.OutOrStdout(), page)
		return nil
	},
}

var communityPostCmd = &cobra.Command{
	Use:   "post <content>",
	Short: "Publish a post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, ctx, cleanup, err := session(cmd, "/community")
		if err != nil {
			return err
		}
		defer cleanup()

		page := a.Community()
		defer page.Unmount()
		mount(ctx, cmd, page)
		if err := page.SetCategory(ctx, postCategory); err != nil {
			slog.Warn("posts not loaded", "category", postCategory, "error", err)
		}
		page.SetDraft(args[0])
		if err := page.Submit(ctx); err != nil {
			return err
		}
		render.Community(cmd.OutOrStdout(), page)
		return nil
	},
}

var communityReactCmd = &cobra.Command{
	Use:       "react <post-id> <like|fire>",
	Short:     "React to a post",
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{string(arena.ReactionLike), string(arena.ReactionFire)},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, ctx, cleanup, err := session(cmd, "/community")
		if err != nil {
			return err
		}
		defer cleanup()

		page := a.Community()
		defer page.Unmount()
		mount(ctx, cmd, page)
		if err := page.React(ctx, args[0], arena.Reaction(args[1])); err != nil {
			return err
		}
		for _, p := range page.Posts() {
			if p.ID == args[0] {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d likes, %d fire\n", p.ID, p.Reactions.Like, p.Reactions.Fire)
			}
		}
		return nil
	},
}
