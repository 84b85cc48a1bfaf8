// Package app assembles the routing pipeline from configuration. Both the
// API process (inline mode) and the worker use it.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jagadeesh/activity-router/internal/accesscache"
	"github.com/jagadeesh/activity-router/internal/activity"
	"github.com/jagadeesh/activity-router/internal/config"
	"github.com/jagadeesh/activity-router/internal/cryptox"
	"github.com/jagadeesh/activity-router/internal/db"
	"github.com/jagadeesh/activity-router/internal/github"
	"github.com/jagadeesh/activity-router/internal/ingest"
	"github.com/jagadeesh/activity-router/internal/notify"
	"github.com/jagadeesh/activity-router/internal/slack"
	"github.com/jagadeesh/activity-router/internal/store"
)

type Pipeline struct {
	Ingestor   *ingest.Ingestor
	Router     *activity.Router
	Deliveries *store.Deliveries

	closers []func() error
}

// Close releases the shared cache connection, if any.
func (p *Pipeline) Close() {
	for _, c := range p.closers {
		if err := c(); err != nil {
			slog.Warn("close failed", "error", err)
		}
	}
}

// Build wires store, cache, Slack and GitHub clients into a router and
// an ingestor. Metrics are registered with reg when it is non-nil.
func Build(ctx context.Context, cfg config.Config, database *db.DB, reg prometheus.Registerer) (*Pipeline, error) {
	if database == nil || database.Pool == nil {
		return nil, fmt.Errorf("db not configured")
	}
	key, err := cryptox.KeyFromB64(cfg.TokenEncKeyB64)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{}

	var cache activity.AccessCache
	if cfg.RedisURL != "" {
		rc, err := accesscache.Open(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		p.closers = append(p.closers, rc.Close)
		cache = rc
	} else {
		slog.Info("REDIS_URL not set; access checks are cached per process")
		cache = accesscache.NewMemory(nil)
	}

	factory := &github.Factory{BaseURL: cfg.GitHubAPIURL, LagDelay: cfg.ReplicationLagDelay}
	if cfg.GitHubAppID != 0 {
		appAuth, err := github.NewAppAuth(cfg.GitHubAppID, cfg.GitHubAppPrivateKey, cfg.GitHubAPIURL, nil)
		if err != nil {
			p.Close()
			return nil, err
		}
		factory.App = appAuth
	} else {
		slog.Warn("GITHUB_APP_ID not set; issue refreshes are unauthenticated")
	}

	workspaces := slack.NewWorkspaces(cfg.SlackAPIURL, cfg.SlackRatePerSecond)

	var metrics *activity.Metrics
	if reg != nil {
		metrics = activity.NewMetrics(reg)
	}

	subs := store.NewSubscriptions(database.Pool, key)
	p.Router = activity.NewRouter(activity.RouterDeps{
		Store:      subs,
		Identities: store.NewIdentities(database.Pool, key, cfg.GitHubAPIURL),
		Cache:      cache,
		Chat: func(w activity.Workspace) activity.ChatClient {
			return workspaces.Client(w.SlackID, w.AccessToken)
		},
		GitHub:         factory.ForInstallation,
		Metrics:        metrics,
		AccessTTL:      cfg.AccessCacheTTL,
		MaxConcurrency: cfg.RouterMaxConcurrency,
	})

	p.Deliveries = &store.Deliveries{Pool: database.Pool}
	deliverer := &notify.Deliverer{Refresh: cfg.RefreshItems}
	p.Ingestor = &ingest.Ingestor{
		Deliveries: p.Deliveries,
		Router:     p.Router,
		Deliver:    deliverer.Deliver,
	}
	return p, nil
}
