package activity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type RouterDeps struct {
	Store      SubscriptionStore
	Identities IdentityResolver
	Cache      AccessCache
	Chat       ChatClients
	GitHub     GitHubClients
	Metrics    *Metrics
	Logger     *slog.Logger

	// AccessTTL defaults to DefaultAccessTTL.
	AccessTTL time.Duration
	// MaxConcurrency bounds the pipelines running at once for one event.
	// Zero or less means unbounded.
	MaxConcurrency int
}

// Router fans one event out to every subscription on its repository or on
// the repository's owner.
type Router struct {
	store   SubscriptionStore
	guard   *Guard
	chat    ChatClients
	github  GitHubClients
	metrics *Metrics
	logger  *slog.Logger
	limit   int
}

func NewRouter(deps RouterDeps) *Router {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		store: deps.Store,
		guard: &Guard{
			Identities: deps.Identities,
			Cache:      deps.Cache,
			Store:      deps.Store,
			Chat:       deps.Chat,
			TTL:        deps.AccessTTL,
			Logger:     logger,
		},
		chat:    deps.Chat,
		github:  deps.GitHub,
		metrics: deps.Metrics,
		logger:  logger,
		limit:   deps.MaxConcurrency,
	}
}

// Route delivers ev to every matching subscription. Pipelines run
// concurrently and never affect each other. Route returns once all of them
// have finished; the result joins every transient delivery error and every
// infrastructure error, and is nil when there were none. Events without a
// repository cannot be routed and are ignored.
func (r *Router) Route(ctx context.Context, ev *Event, deliver DeliverFunc) error {
	repo := ev.Payload.Repository
	if repo == nil {
		return nil
	}
	start := time.Now()

	subs, err := r.store.LookupAll(ctx, []Criterion{
		{GitHubID: repo.ID, Scope: ScopeRepo},
		{GitHubID: repo.Owner.ID, Scope: ScopeAccount},
	})
	if err != nil {
		return fmt.Errorf("lookup subscriptions for %s: %w", repo.FullName, err)
	}

	r.logger.Debug("delivering to subscribed channels",
		"delivery_id", ev.DeliveryID,
		"event", ev.Name(),
		"repo", repo.FullName,
		"subscriptions", len(subs),
	)

	p := &pass{store: r.store, destroyed: make(map[uuid.UUID]bool)}

	var (
		mu   sync.Mutex
		errs []error
		g    errgroup.Group
	)
	if r.limit > 0 {
		g.SetLimit(r.limit)
	}
	for _, sub := range subs {
		g.Go(func() error {
			if err := r.pipeline(ctx, ev, sub, deliver, p); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			// Never fail the group: one pipeline must not stop the others.
			return nil
		})
	}
	_ = g.Wait()

	r.metrics.observeRoute(time.Since(start), len(subs))
	return errors.Join(errs...)
}

func (r *Router) pipeline(ctx context.Context, ev *Event, sub *Subscription, deliver DeliverFunc, p *pass) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.metrics.outcome(outcomeTransientError, ev.Type)
			err = fmt.Errorf("subscription %s: panic while routing %s: %v", sub.ID, ev.Name(), rec)
		}
	}()

	if reason := Relevant(ev, sub); reason != SkipNone {
		r.metrics.outcome(outcomeSkipped, ev.Type)
		r.logger.Debug("subscription skipped",
			"subscription_id", sub.ID,
			"event", ev.Name(),
			"reason", string(reason),
		)
		return nil
	}

	repo := ev.Payload.Repository
	if sub.HasCreator() && !ev.IsRepositoryDeletion() {
		revoked := false
		guard := r.guard.withDestroy(func(ctx context.Context, s *Subscription) (bool, error) {
			first, err := p.destroy(ctx, s)
			revoked = first
			return first, err
		})
		ok, err := guard.CheckAccess(ctx, sub, repo)
		if err != nil {
			r.metrics.outcome(outcomeInfraError, ev.Type)
			return fmt.Errorf("subscription %s: %w", sub.ID, err)
		}
		if !ok {
			switch {
			case sub.Scope == ScopeAccount:
				r.metrics.outcome(outcomeAccessDenied, ev.Type)
			case revoked:
				r.metrics.outcome(outcomeAccessRevoked, ev.Type)
			default:
				// Another candidate in this pass already removed it.
				r.metrics.outcome(outcomeSkipped, ev.Type)
			}
			return nil
		}
	}

	issue := ev.IssueOrPullRequest()
	if !PassesLabelFilter(issue, sub.Settings) {
		r.metrics.outcome(outcomeSkipped, ev.Type)
		r.logger.Debug("subscription skipped",
			"subscription_id", sub.ID,
			"event", ev.Name(),
			"reason", string(SkipLabel),
			"issue_labels", labelNames(issue),
			"whitelist", sub.Settings.Labels,
		)
		return nil
	}

	if p.isDestroyed(sub.ID) {
		r.metrics.outcome(outcomeSkipped, ev.Type)
		return nil
	}

	d := Delivery{Event: ev, Subscription: sub, Chat: r.chat(sub.Workspace)}
	if r.github != nil {
		d.GitHub = r.github(ev.InstallationID())
	}

	err = deliver(ctx, d)
	if err == nil {
		r.metrics.outcome(outcomeDelivered, ev.Type)
		return nil
	}

	if ClassifyDeliveryError(err) == OutcomePermanent {
		r.logger.Info("permanent error from slack, removing subscription",
			"error", err,
			"subscription_id", sub.ID,
			"channel_id", sub.ChannelID,
			"event", ev.Name(),
			"repo", repo.FullName,
		)
		if _, derr := p.destroy(ctx, sub); derr != nil {
			r.metrics.outcome(outcomeInfraError, ev.Type)
			return fmt.Errorf("subscription %s: remove after permanent delivery error: %w", sub.ID, derr)
		}
		r.metrics.outcome(outcomePermanentRemoved, ev.Type)
		return nil
	}

	r.metrics.outcome(outcomeTransientError, ev.Type)
	return err
}

// pass tracks subscriptions destroyed while routing one event, so a
// subscription that appears twice among the candidates is destroyed and
// announced at most once and is never delivered to afterwards.
type pass struct {
	store SubscriptionStore

	mu        sync.Mutex
	destroyed map[uuid.UUID]bool
}

func (p *pass) destroy(ctx context.Context, sub *Subscription) (bool, error) {
	p.mu.Lock()
	if p.destroyed[sub.ID] {
		p.mu.Unlock()
		return false, nil
	}
	p.destroyed[sub.ID] = true
	p.mu.Unlock()

	if err := p.store.Destroy(ctx, sub); err != nil {
		p.mu.Lock()
		delete(p.destroyed, sub.ID)
		p.mu.Unlock()
		return false, err
	}
	return true, nil
}

func (p *pass) isDestroyed(id uuid.UUID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.destroyed[id]
}
