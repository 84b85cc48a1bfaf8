package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jagadeesh/activity-router/internal/activity"
	"github.com/jagadeesh/activity-router/internal/github"
)

// Identities resolves subscription creators to their linked GitHub
// accounts. Access checks use the user's own OAuth token.
type Identities struct {
	Pool *pgxpool.Pool
	Key  []byte
	// GitHub builds a client authenticated as the user.
	GitHub func(token string) *github.Client
}

func NewIdentities(pool *pgxpool.Pool, key []byte, githubBaseURL string) *Identities {
	return &Identities{
		Pool: pool,
		Key:  key,
		GitHub: func(token string) *github.Client {
			return github.NewClient(github.WithAuth(github.StaticToken(token)), github.WithBaseURL(githubBaseURL))
		},
	}
}

func (s *Identities) Resolve(ctx context.Context, creatorID uuid.UUID) (activity.Identity, error) {
	if s == nil || s.Pool == nil {
		return nil, fmt.Errorf("db not configured")
	}

	var (
		slackID  string
		githubID *int64
		token    []byte
	)
	err := s.Pool.QueryRow(ctx, `
SELECT su.slack_id, gu.id, gu.access_token
FROM slack_users su
LEFT JOIN github_users gu ON gu.id = su.github_user_id
WHERE su.id = $1
`, creatorID).Scan(&slackID, &githubID, &token)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("slack user %s: %w", creatorID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load slack user %s: %w", creatorID, err)
	}
	if githubID == nil {
		return nil, fmt.Errorf("slack user %s: %w", creatorID, activity.ErrIdentityNotLinked)
	}

	plain, err := decryptToken(s.Key, token)
	if err != nil {
		return nil, fmt.Errorf("github user %d: %w", *githubID, err)
	}
	return &identity{
		githubID: *githubID,
		slackID:  slackID,
		client:   s.GitHub(plain),
	}, nil
}

type identity struct {
	githubID int64
	slackID  string
	client   *github.Client
}

func (i *identity) GitHubUserID() int64 { return i.githubID }
func (i *identity) ChatUserID() string  { return i.slackID }

func (i *identity) HasRepoAccess(ctx context.Context, repoID int64) (bool, error) {
	return i.client.HasRepoAccess(ctx, repoID)
}
