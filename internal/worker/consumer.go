package worker

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/jagadeesh/activity-router/internal/events"
)

type Ingester interface {
	Ingest(ctx context.Context, e events.GitHubWebhookReceived) error
}

// GitHubWebhookConsumer routes envelopes from the queue group. Each
// message is handled to completion before the next one on this
// subscription.
type GitHubWebhookConsumer struct {
	Sub    *nats.Subscription
	Ingest Ingester
	Logger *slog.Logger
}

func (c *GitHubWebhookConsumer) Subscribe(ctx context.Context, nc *nats.Conn, queue string) error {
	if nc == nil {
		return nil
	}
	if queue == "" {
		queue = "activity-router"
	}

	sub, err := nc.QueueSubscribe(events.SubjectGitHubWebhookReceived, queue, func(msg *nats.Msg) {
		c.handle(ctx, msg.Data)
	})
	if err != nil {
		return err
	}
	c.Sub = sub

	go func() {
		<-ctx.Done()
		_ = sub.Unsubscribe()
	}()

	return nil
}

func (c *GitHubWebhookConsumer) handle(ctx context.Context, data []byte) {
	var e events.GitHubWebhookReceived
	if err := json.Unmarshal(data, &e); err != nil {
		c.logger().Error("bad github webhook event", "error", err)
		return
	}
	if c.Ingest == nil {
		return
	}
	// A stopping worker still finishes the routing pass it started.
	if err := c.Ingest.Ingest(context.WithoutCancel(ctx), e); err != nil {
		c.logger().Error("webhook ingest failed",
			"delivery_id", e.DeliveryID,
			"event", e.Event,
			"error", err,
		)
	}
}

func (c *GitHubWebhookConsumer) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}
