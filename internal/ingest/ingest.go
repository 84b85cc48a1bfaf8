// Package ingest turns received webhook envelopes into routing passes.
package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jagadeesh/activity-router/internal/activity"
	"github.com/jagadeesh/activity-router/internal/events"
)

// DeliveryRecorder reports whether a webhook delivery id is seen for the
// first time.
type DeliveryRecorder interface {
	Record(ctx context.Context, deliveryID, event, action, repoFullName string) (bool, error)
}

type Router interface {
	Route(ctx context.Context, ev *activity.Event, deliver activity.DeliverFunc) error
}

type Ingestor struct {
	Deliveries DeliveryRecorder
	Router     Router
	Deliver    activity.DeliverFunc
	Logger     *slog.Logger
}

// Ingest routes one webhook. GitHub redeliveries of an id that was
// already recorded are dropped. Events GitHub sends about the hook itself
// are acknowledged without routing.
func (i *Ingestor) Ingest(ctx context.Context, e events.GitHubWebhookReceived) error {
	if i == nil || i.Router == nil {
		return nil
	}
	log := i.logger().With("delivery_id", e.DeliveryID, "event", e.Event, "action", e.Action)

	if e.Event == "ping" {
		log.Debug("webhook ping")
		return nil
	}

	if i.Deliveries != nil && e.DeliveryID != "" {
		first, err := i.Deliveries.Record(ctx, e.DeliveryID, e.Event, e.Action, e.RepoFullName)
		if err != nil {
			return fmt.Errorf("record delivery %s: %w", e.DeliveryID, err)
		}
		if !first {
			log.Info("duplicate delivery skipped")
			return nil
		}
	}

	ev, err := e.Activity()
	if err != nil {
		return fmt.Errorf("parse delivery %s: %w", e.DeliveryID, err)
	}
	if ev.Payload.Repository == nil {
		log.Debug("event has no repository, nothing to route")
		return nil
	}

	if err := i.Router.Route(ctx, ev, i.Deliver); err != nil {
		return fmt.Errorf("route %s (%s): %w", ev.Name(), e.RepoFullName, err)
	}
	log.Debug("event routed", "repo", e.RepoFullName)
	return nil
}

func (i *Ingestor) logger() *slog.Logger {
	if i.Logger != nil {
		return i.Logger
	}
	return slog.Default()
}
