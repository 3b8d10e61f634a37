// Package render draws the shell header and page views as terminal text.
package render

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/fatih/color"

	"github.com/user/arena/internal/countdown"
	"github.com/user/arena/internal/pages"
	"github.com/user/arena/pkg/arena"
)

var (
	title   = color.New(color.FgCyan, color.Bold).SprintFunc()
	dim     = color.New(color.Faint).SprintFunc()
	good    = color.New(color.FgGreen).SprintFunc()
	bad     = color.New(color.FgRed).SprintFunc()
	warn    = color.New(color.FgYellow).SprintFunc()
	liveTag = color.New(color.FgMagenta, color.Bold).SprintFunc()
)

const staminaBarWidth = 10

// Notice formats a user notice with a colored marker.
func Notice(n pages.Notice) string {
	if n.Kind == pages.NoticeError {
		return bad("✗ ") + n.Message
	}
	return good("✓ ") + n.Message
}

// PlainNotice formats a notice without terminal escapes, for targets that
// are not a terminal.
func PlainNotice(n pages.Notice) string {
	if n.Kind == pages.NoticeError {
		return "✗ " + n.Message
	}
	return "✓ " + n.Message
}

// Header renders the shell header: the season banner, then the stamina bar.
// Either part is omitted while its resource is absent.
func Header(w io.Writer, season string, r countdown.Remaining, hasTime bool, st *arena.Stamina) {
	var parts []string
	if hasTime {
		parts = append(parts, title(season)+" "+dim("ends in")+" "+r.Banner())
	}
	if st != nil {
		parts = append(parts, StaminaBar(*st))
	}
	if len(parts) == 0 {
		return
	}
	fmt.Fprintln(w, strings.Join(parts, "  |  "))
}

// StaminaBar renders e.g. "STAMINA [■■■■■■■■□□] 8/10".
func StaminaBar(st arena.Stamina) string {
	filled := 0
	if st.Max > 0 {
		filled = min(max(st.Current*staminaBarWidth/st.Max, 0), staminaBarWidth)
	}
	bar := strings.Repeat("■", filled) + strings.Repeat("□", staminaBarWidth-filled)
	paint := good
	if st.Current < st.CostPerBattle {
		paint = bad
	}
	return fmt.Sprintf("STAMINA [%s] %d/%d", paint(bar), st.Current, st.Max)
}

func status(b arena.Battle) string {
	switch {
	case b.Live():
		return liveTag("LIVE")
	case b.Status == arena.BattleCompleted && b.Winner != "":
		return good("winner " + b.Winner)
	default:
		return dim(string(b.Status))
	}
}

func battleLine(w io.Writer, marker string, b arena.Battle) {
	fmt.Fprintf(w, "%s %-12s %s vs %s  %s\n", marker, b.ID, b.AgentAID, b.AgentBID, status(b))
}

func leaderboard(w io.Writer, entries []arena.LeaderboardEntry) {
	fmt.Fprintln(w, title("LEADERBOARD"))
	if len(entries) == 0 {
		fmt.Fprintln(w, dim("  no ranked agents yet"))
		return
	}
	for i, e := range entries {
		fmt.Fprintf(w, "  %2d. %-20s %7.1f\n", i+1, e.AgentID, e.ELO)
	}
}

// Dashboard renders recent battles and the top agents.
func Dashboard(w io.Writer, d *pages.Dashboard) {
	fmt.Fprintln(w, title("RECENT BATTLES"))
	battles := d.RecentBattles()
	if len(battles) == 0 {
		fmt.Fprintln(w, dim("  no battles yet"))
	}
	for _, b := range battles {
		battleLine(w, " ", b)
	}
	fmt.Fprintln(w)
	leaderboard(w, d.TopAgents())
}

// Battles renders the filtered battle history with the selection marked.
func Battles(w io.Writer, p *pages.BattlePage) {
	fmt.Fprintf(w, "%s %s\n", title("BATTLES"), dim("("+string(p.Filter())+")"))
	sel, _ := p.Selected()
	visible := p.Visible()
	if len(visible) == 0 {
		fmt.Fprintln(w, dim("  nothing to show"))
	}
	for _, b := range visible {
		marker := " "
		if b.ID == sel.ID {
			marker = ">"
		}
		battleLine(w, marker, b)
	}
}

// Market renders the filtered shop and the open proposals.
func Market(w io.Writer, m *pages.Market) {
	fmt.Fprintln(w, title("SHOP"))
	for _, it := range m.Items() {
		fmt.Fprintf(w, "  %-14s %-24s %5d  %s\n", it.ItemID, it.Name, it.Price, dim(it.Category))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, title("PROPOSALS"))
	proposals := m.PendingProposals()
	if len(proposals) == 0 {
		fmt.Fprintln(w, dim("  no open proposals"))
	}
	for _, p := range proposals {
		fmt.Fprintf(w, "  %-10s %-24s %s %s\n", p.ID, p.Item.Name,
			good(fmt.Sprintf("+%d", p.Approve)), bad(fmt.Sprintf("-%d", p.Reject)))
	}
}

// Community renders the feed of the current category.
func Community(w io.Writer, c *pages.Community) {
	fmt.Fprintf(w, "%s %s\n", title("COMMUNITY"), dim("("+c.Category()+")"))
	posts := c.Posts()
	if len(posts) == 0 {
		fmt.Fprintln(w, dim("  no posts"))
	}
	for _, p := range posts {
		fmt.Fprintf(w, "\n%s %s %s\n", warn(p.Title), dim("by "+p.AuthorID), dim("#"+p.Category))
		fmt.Fprintln(w, indent(PostBody(p.Content)))
		fmt.Fprintf(w, "  %s %d  %s %d  %s\n", "👍", p.Reactions.Like, "🔥", p.Reactions.Fire, dim(p.ID))
	}
}

// Season renders the season name, the live clock and the leaderboard.
func Season(w io.Writer, p *pages.SeasonPage) {
	name := "No active season"
	if s := p.Season(); s != nil {
		name = s.Name
	}
	fmt.Fprintln(w, title(name))
	if r, ok := p.Remaining(); ok {
		fmt.Fprintf(w, "  %s %s\n", dim("ends in"), r.Clock())
	} else if p.Season().End() != nil {
		fmt.Fprintln(w, dim("  season ended"))
	}
	fmt.Fprintln(w)
	leaderboard(w, p.TopAgents())
}

// PostBody converts HTML written by the web composer to markdown. Plain
// text passes through.
func PostBody(content string) string {
	if !strings.Contains(content, "<") {
		return content
	}
	md, err := htmltomarkdown.ConvertString(content)
	if err != nil {
		slog.Debug("post body kept as html", "error", err)
		return content
	}
	return strings.TrimSpace(md)
}

func indent(s string) string {
	return "  " + strings.ReplaceAll(s, "\n", "\n  ")
}
