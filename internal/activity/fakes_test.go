package activity

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/jagadeesh/activity-router/internal/slack"
)

type fakeStore struct {
	subs       []*Subscription
	lookupErr  error
	destroyErr error

	mu        sync.Mutex
	lookups   [][]Criterion
	destroyed []uuid.UUID
}

func (s *fakeStore) LookupAll(_ context.Context, criteria []Criterion) ([]*Subscription, error) {
	s.mu.Lock()
	s.lookups = append(s.lookups, criteria)
	s.mu.Unlock()
	if s.lookupErr != nil {
		return nil, s.lookupErr
	}
	return s.subs, nil
}

func (s *fakeStore) Destroy(_ context.Context, sub *Subscription) error {
	if s.destroyErr != nil {
		return s.destroyErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.destroyed = append(s.destroyed, sub.ID)
	return nil
}

func (s *fakeStore) lookupCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lookups)
}

func (s *fakeStore) destroyedIDs() []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]uuid.UUID(nil), s.destroyed...)
}

type fakeIdentity struct {
	githubID int64
	slackID  string
	access   map[int64]bool
	err      error
	calls    *atomic.Int32
}

func (i *fakeIdentity) GitHubUserID() int64 { return i.githubID }
func (i *fakeIdentity) ChatUserID() string  { return i.slackID }

func (i *fakeIdentity) HasRepoAccess(_ context.Context, repoID int64) (bool, error) {
	if i.calls != nil {
		i.calls.Add(1)
	}
	if i.err != nil {
		return false, i.err
	}
	return i.access[repoID], nil
}

type fakeIdentities struct {
	byCreator map[uuid.UUID]*fakeIdentity
	err       error
}

func (f *fakeIdentities) Resolve(_ context.Context, id uuid.UUID) (Identity, error) {
	if f.err != nil {
		return nil, f.err
	}
	ident, ok := f.byCreator[id]
	if !ok {
		return nil, ErrIdentityNotLinked
	}
	return ident, nil
}

type fakeChat struct {
	err error

	mu   sync.Mutex
	sent []slack.Message
}

func (c *fakeChat) PostMessage(_ context.Context, msg slack.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, msg)
	return c.err
}

func (c *fakeChat) messages() []slack.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]slack.Message(nil), c.sent...)
}

func chatFor(c *fakeChat) ChatClients {
	return func(Workspace) ChatClient { return c }
}

// recorder is a DeliverFunc that records which subscriptions it was
// called for and fails for the ones listed in errs.
type recorder struct {
	errs map[uuid.UUID]error

	mu        sync.Mutex
	delivered []uuid.UUID
}

func (r *recorder) deliver(_ context.Context, d Delivery) error {
	r.mu.Lock()
	r.delivered = append(r.delivered, d.Subscription.ID)
	r.mu.Unlock()
	return r.errs[d.Subscription.ID]
}

func (r *recorder) ids() []uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]uuid.UUID(nil), r.delivered...)
}
