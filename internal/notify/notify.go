// Package notify holds the default delivery callback: it renders an event
// and posts it to the subscription's channel.
package notify

import (
	"context"
	"log/slog"

	"github.com/jagadeesh/activity-router/internal/activity"
	"github.com/jagadeesh/activity-router/internal/github"
	"github.com/jagadeesh/activity-router/internal/messages"
	"github.com/jagadeesh/activity-router/internal/slack"
)

type Deliverer struct {
	// Refresh re-reads the issue or pull request through the pipeline's
	// GitHub client so labels and state are current. Failures fall back
	// to the webhook payload.
	Refresh bool
	Logger  *slog.Logger
}

func (n *Deliverer) Deliver(ctx context.Context, d activity.Delivery) error {
	return d.Chat.PostMessage(ctx, n.render(ctx, d))
}

func (n *Deliverer) render(ctx context.Context, d activity.Delivery) slack.Message {
	ev := d.Event
	repo := messages.Repo{FullName: ev.Payload.Repository.FullName, HTMLURL: ev.Payload.Repository.HTMLURL}
	actor := ""
	if ev.Payload.Sender != nil {
		actor = ev.Payload.Sender.Login
	}

	var (
		issue *activity.Issue
		kind  string
	)
	switch {
	case ev.Payload.PullRequest != nil:
		issue, kind = ev.Payload.PullRequest, "pull request"
	case ev.Payload.Issue != nil:
		issue, kind = ev.Payload.Issue, "issue"
	default:
		return messages.Generic(d.Subscription.ChannelID, repo, ev.Name(), actor)
	}

	it := messages.Item{
		Kind:    kind,
		Number:  issue.Number,
		Title:   issue.Title,
		HTMLURL: issue.HTMLURL,
		State:   issue.State,
		Merged:  issue.Merged,
		Author:  issue.User.Login,
	}
	for _, l := range issue.Labels {
		it.Labels = append(it.Labels, l.Name)
	}

	if n.Refresh && d.GitHub != nil {
		if fresh, err := n.fetch(ctx, d.GitHub, repo.FullName, kind, issue.Number); err != nil {
			n.logger().Debug("refresh failed, using webhook payload",
				"repo", repo.FullName,
				"number", issue.Number,
				"error", err,
			)
		} else {
			it.Title, it.State, it.Merged = fresh.Title, fresh.State, fresh.Merged
			it.Labels = it.Labels[:0]
			for _, l := range fresh.Labels {
				it.Labels = append(it.Labels, l.Name)
			}
		}
	}

	return messages.ItemEvent(d.Subscription.ChannelID, repo, ev.Action, actor, it)
}

func (n *Deliverer) fetch(ctx context.Context, gh *github.Client, fullName, kind string, number int) (github.Issue, error) {
	if kind == "pull request" {
		return gh.GetPullRequest(ctx, fullName, number)
	}
	return gh.GetIssue(ctx, fullName, number)
}

func (n *Deliverer) logger() *slog.Logger {
	if n.Logger != nil {
		return n.Logger
	}
	return slog.Default()
}
