package activity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jagadeesh/activity-router/internal/github"
	"github.com/jagadeesh/activity-router/internal/slack"
)

// ErrIdentityNotLinked is returned by an IdentityResolver when the creator
// has no linked GitHub account.
var ErrIdentityNotLinked = errors.New("creator has no linked github account")

type SubscriptionStore interface {
	// LookupAll returns every subscription matching any of the criteria.
	LookupAll(ctx context.Context, criteria []Criterion) ([]*Subscription, error)
	// Destroy removes the subscription. Destroying an already removed
	// subscription is not an error.
	Destroy(ctx context.Context, sub *Subscription) error
}

// Identity is a subscription creator's linked GitHub account.
type Identity interface {
	GitHubUserID() int64
	ChatUserID() string
	HasRepoAccess(ctx context.Context, repoID int64) (bool, error)
}

type IdentityResolver interface {
	Resolve(ctx context.Context, creatorID uuid.UUID) (Identity, error)
}

// AccessCache memoizes boolean results per key for ttl. compute runs at
// most once per key per ttl window; its errors are not cached.
type AccessCache interface {
	Fetch(ctx context.Context, key string, ttl time.Duration, compute func(context.Context) (bool, error)) (bool, error)
}

type ChatClient interface {
	PostMessage(ctx context.Context, msg slack.Message) error
}

// ChatClients returns the client that posts into a subscription's workspace.
type ChatClients func(Workspace) ChatClient

// GitHubClients returns a fresh GitHub client for one routing pipeline.
type GitHubClients func(installationID int64) *github.Client

// Delivery is everything a delivery callback needs for one subscription.
type Delivery struct {
	Event        *Event
	Subscription *Subscription
	Chat         ChatClient
	GitHub       *github.Client
}

// DeliverFunc sends one event to one subscription. Errors classified as
// permanent remove the subscription; all others are returned from Route.
type DeliverFunc func(ctx context.Context, d Delivery) error
