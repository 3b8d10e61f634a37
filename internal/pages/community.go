package pages

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/user/arena/pkg/arena"
)

// CommunityAPI is the part of the game API the community page uses.
type CommunityAPI interface {
	Posts(ctx context.Context, category string) ([]arena.Post, error)
	CreatePost(ctx context.Context, post arena.NewPost) error
	React(ctx context.Context, postID, agentID string, reaction arena.Reaction) error
}

// Categories are the community feed tabs. "all" is sent to the server as no
// category at all.
var Categories = []string{arena.CategoryAll, "battle_review", "balance_talk", "tips", "general"}

const (
	maxTitleRunes   = 50
	defaultCategory = "general"
	postTarget      = "post"
)

// Community is the post feed, the post composer and reactions.
type Community struct {
	lifecycle
	api      CommunityAPI
	coord    *Coordinator
	posting  Pending
	reacting Pending

	posts    []arena.Post
	category string
	draft    string
}

// NewCommunity creates the page showing all categories.
func NewCommunity(api CommunityAPI, coord *Coordinator) *Community {
	return &Community{api: api, coord: coord, category: arena.CategoryAll}
}

// Mount marks the page alive and loads the feed.
func (c *Community) Mount(ctx context.Context) error {
	c.mount()
	return c.Refresh(ctx)
}

// Unmount destroys the view.
func (c *Community) Unmount() {
	c.unmount()
}

// Refresh fetches the posts of the current category from the server.
func (c *Community) Refresh(ctx context.Context) error {
	category := c.Category()
	// Only the fetch for the current category may clear loading.
	defer c.update(func() {
		if c.category == category {
			c.loading = false
		}
	})

	posts, err := c.api.Posts(ctx, category)
	if err != nil {
		slog.Error("failed to fetch posts", "category", category, "error", err)
		return fmt.Errorf("fetch posts: %w", err)
	}
	c.update(func() {
		// A category switch while this fetch was out makes it stale.
		if c.category == category {
			c.posts = posts
		}
	})
	return nil
}

// SetCategory switches tabs. The category is filtered server-side, so this
// always re-fetches.
func (c *Community) SetCategory(ctx context.Context, category string) error {
	c.update(func() {
		c.category = category
		c.loading = true
	})
	return c.Refresh(ctx)
}

// Category returns the selected feed category.
func (c *Community) Category() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.category
}

// Posts returns the loaded feed.
func (c *Community) Posts() []arena.Post {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]arena.Post(nil), c.posts...)
}

// SetDraft replaces the composer content.
func (c *Community) SetDraft(s string) {
	c.update(func() { c.draft = s })
}

// Draft returns the composer content.
func (c *Community) Draft() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.draft
}

// Posting reports whether a submit is in flight.
func (c *Community) Posting() bool { return c.posting.Is(postTarget) }

// titleOf derives a post title from the first runes of its content.
func titleOf(content string) string {
	r := []rune(content)
	if len(r) > maxTitleRunes {
		r = r[:maxTitleRunes]
	}
	return string(r)
}

// Submit publishes the draft. Blank drafts are refused before any request.
// On success the draft is cleared and the feed re-fetched.
func (c *Community) Submit(ctx context.Context) error {
	draft := c.Draft()
	if strings.TrimSpace(draft) == "" {
		c.coord.notifier.Notify(Notice{Kind: NoticeError, Message: "Please enter some content"})
		return ErrEmptyContent
	}

	done, err := c.posting.Begin(postTarget)
	if err != nil {
		return err
	}
	defer done()

	category := c.Category()
	if category == arena.CategoryAll || category == "" {
		category = defaultCategory
	}
	post := arena.NewPost{
		AuthorID: c.coord.AgentID,
		Title:    titleOf(draft),
		Content:  draft,
		Category: category,
	}
	if err := c.api.CreatePost(ctx, post); err != nil {
		c.coord.fail("create_post", err, "", "Failed to create post")
		return fmt.Errorf("create post: %w", err)
	}
	slog.Info("post created", "author_id", post.AuthorID, "category", category)

	c.update(func() { c.draft = "" })
	if err := c.Refresh(ctx); err != nil {
		slog.Warn("posts not refreshed after create", "error", err)
	}
	return nil
}

// React leaves a reaction. Counts are not bumped locally; they change when
// the re-fetch resolves.
func (c *Community) React(ctx context.Context, postID string, reaction arena.Reaction) error {
	if !reaction.Valid() {
		return fmt.Errorf("unknown reaction %q", reaction)
	}
	done, err := c.reacting.Begin(postID)
	if err != nil {
		return err
	}
	defer done()

	if err := c.api.React(ctx, postID, c.coord.AgentID, reaction); err != nil {
		c.coord.fail("react", err, "", "Failed to react")
		return fmt.Errorf("react to %s: %w", postID, err)
	}
	if err := c.Refresh(ctx); err != nil {
		slog.Warn("posts not refreshed after reaction", "post_id", postID, "error", err)
	}
	return nil
}
