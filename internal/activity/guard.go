package activity

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jagadeesh/activity-router/internal/messages"
)

// DefaultAccessTTL is how long a creator access check is trusted.
const DefaultAccessTTL = 10 * time.Minute

// destroyFunc removes a subscription and reports whether this call was
// the one that removed it.
type destroyFunc func(ctx context.Context, sub *Subscription) (bool, error)

// Guard re-validates that a subscription's creator can still see the
// repository an event is about.
type Guard struct {
	Identities IdentityResolver
	Cache      AccessCache
	Store      SubscriptionStore
	Chat       ChatClients
	TTL        time.Duration
	Logger     *slog.Logger

	// destroy replaces Store.Destroy when set.
	destroy destroyFunc
}

func accessCacheKey(githubUserID, repoID int64) string {
	return fmt.Sprintf("creator-access#%d:%d", githubUserID, repoID)
}

// CheckAccess reports whether the creator of sub can access repo. When
// access is gone on a repo subscription, the subscription is destroyed and
// the channel is told how to re-enable it. Account subscriptions are left
// alone: having access to only some of an account's repositories is normal.
func (g *Guard) CheckAccess(ctx context.Context, sub *Subscription, repo *Repository) (bool, error) {
	if !sub.HasCreator() {
		return true, nil
	}

	creator, err := g.Identities.Resolve(ctx, *sub.CreatorID)
	if err != nil {
		return false, fmt.Errorf("resolve creator %s: %w", sub.CreatorID, err)
	}

	ttl := g.TTL
	if ttl <= 0 {
		ttl = DefaultAccessTTL
	}
	ok, err := g.Cache.Fetch(ctx, accessCacheKey(creator.GitHubUserID(), repo.ID), ttl, func(ctx context.Context) (bool, error) {
		return creator.HasRepoAccess(ctx, repo.ID)
	})
	if err != nil {
		return false, fmt.Errorf("check creator access: %w", err)
	}
	if ok || sub.Scope == ScopeAccount {
		return ok, nil
	}

	g.logger().Debug("user lost access to resource, deleting subscription",
		"subscription_id", sub.ID,
		"channel_id", sub.ChannelID,
		"creator_id", sub.CreatorID,
		"github_id", sub.GitHubID,
		"workspace_id", sub.Workspace.SlackID,
	)

	destroy := g.destroy
	if destroy == nil {
		destroy = func(ctx context.Context, s *Subscription) (bool, error) {
			return true, g.Store.Destroy(ctx, s)
		}
	}
	first, err := destroy(ctx, sub)
	if err != nil {
		return false, fmt.Errorf("destroy subscription %s: %w", sub.ID, err)
	}
	if !first {
		return false, nil
	}

	msg := messages.ReEnableSubscription(sub.ChannelID, messages.Repo{FullName: repo.FullName, HTMLURL: repo.HTMLURL}, creator.ChatUserID())
	if err := g.Chat(sub.Workspace).PostMessage(ctx, msg); err != nil {
		g.logger().Warn("re-enable notice not delivered",
			"subscription_id", sub.ID,
			"channel_id", sub.ChannelID,
			"error", err,
		)
	}
	return false, nil
}

// withDestroy returns a copy of g that removes subscriptions through fn.
func (g *Guard) withDestroy(fn destroyFunc) *Guard {
	c := *g
	c.destroy = fn
	return &c
}

func (g *Guard) logger() *slog.Logger {
	if g.Logger != nil {
		return g.Logger
	}
	return slog.Default()
}
