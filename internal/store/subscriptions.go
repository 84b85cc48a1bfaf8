package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jagadeesh/activity-router/internal/activity"
)

// Subscriptions implements activity.SubscriptionStore.
type Subscriptions struct {
	Pool *pgxpool.Pool
	// Key decrypts workspace bot tokens (AES-256-GCM).
	Key []byte
}

func NewSubscriptions(pool *pgxpool.Pool, key []byte) *Subscriptions {
	return &Subscriptions{Pool: pool, Key: key}
}

func (s *Subscriptions) LookupAll(ctx context.Context, criteria []activity.Criterion) ([]*activity.Subscription, error) {
	if s == nil || s.Pool == nil {
		return nil, fmt.Errorf("db not configured")
	}
	if len(criteria) == 0 {
		return nil, nil
	}
	types, ids := criteriaArrays(criteria)

	rows, err := s.Pool.Query(ctx, `
SELECT s.id, s.channel_id, s.type, s.github_id, s.creator_id, s.settings,
       w.id, w.slack_id, w.access_token
FROM subscriptions s
JOIN slack_workspaces w ON w.id = s.slack_workspace_id
WHERE (s.type, s.github_id) IN (SELECT * FROM unnest($1::text[], $2::bigint[]))
ORDER BY s.created_at
`, types, ids)
	if err != nil {
		return nil, fmt.Errorf("query subscriptions: %w", err)
	}
	defer rows.Close()

	var out []*activity.Subscription
	for rows.Next() {
		var (
			sub      activity.Subscription
			scope    string
			settings []byte
			token    []byte
		)
		if err := rows.Scan(
			&sub.ID, &sub.ChannelID, &scope, &sub.GitHubID, &sub.CreatorID, &settings,
			&sub.Workspace.ID, &sub.Workspace.SlackID, &token,
		); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		sub.Scope = activity.Scope(scope)
		if sub.Settings, err = decodeSettings(settings); err != nil {
			slog.Warn("subscription settings partly ignored",
				"subscription_id", sub.ID,
				"error", err,
			)
		}
		if sub.Workspace.AccessToken, err = decryptToken(s.Key, token); err != nil {
			return nil, fmt.Errorf("workspace %s: %w", sub.Workspace.SlackID, err)
		}
		out = append(out, &sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read subscriptions: %w", err)
	}
	return out, nil
}

// Destroy deletes the subscription. Deleting a row that is already gone
// succeeds.
func (s *Subscriptions) Destroy(ctx context.Context, sub *activity.Subscription) error {
	if s == nil || s.Pool == nil {
		return fmt.Errorf("db not configured")
	}
	if _, err := s.Pool.Exec(ctx, `DELETE FROM subscriptions WHERE id = $1`, sub.ID); err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	return nil
}

// Create stores a new subscription and returns its id.
func (s *Subscriptions) Create(ctx context.Context, workspaceID uuid.UUID, channelID string, scope activity.Scope, githubID int64, creatorID *uuid.UUID, settings activity.Settings) (uuid.UUID, error) {
	if s == nil || s.Pool == nil {
		return uuid.Nil, fmt.Errorf("db not configured")
	}
	if !scope.Valid() {
		return uuid.Nil, fmt.Errorf("invalid subscription scope %q", scope)
	}
	raw, err := json.Marshal(settings)
	if err != nil {
		return uuid.Nil, err
	}
	var id uuid.UUID
	err = s.Pool.QueryRow(ctx, `
INSERT INTO subscriptions (channel_id, slack_workspace_id, type, github_id, creator_id, settings)
VALUES ($1, $2, $3, $4, $5, $6::jsonb)
RETURNING id
`, channelID, workspaceID, string(scope), githubID, creatorID, raw).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert subscription: %w", err)
	}
	return id, nil
}

func criteriaArrays(criteria []activity.Criterion) ([]string, []int64) {
	types := make([]string, len(criteria))
	ids := make([]int64, len(criteria))
	for i, c := range criteria {
		types[i] = string(c.Scope)
		ids[i] = c.GitHubID
	}
	return types, ids
}

// decodeSettings decodes each settings field on its own. A field with an
// unexpected shape keeps its default and is reported in the error; the
// returned Settings is usable either way.
func decodeSettings(raw []byte) (activity.Settings, error) {
	var st activity.Settings
	if len(raw) == 0 {
		return st, nil
	}
	var fields struct {
		Features json.RawMessage `json:"features"`
		Label    json.RawMessage `json:"label"`
	}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return st, fmt.Errorf("decode settings: %w", err)
	}

	var ignored []string
	if len(fields.Features) > 0 {
		if err := json.Unmarshal(fields.Features, &st.Features); err != nil {
			st.Features = nil
			ignored = append(ignored, "features")
		}
	}
	// A label value that is not a list of strings means no label filtering.
	if len(fields.Label) > 0 {
		if err := json.Unmarshal(fields.Label, &st.Labels); err != nil {
			st.Labels = nil
			ignored = append(ignored, "label")
		}
	}
	if len(ignored) > 0 {
		return st, fmt.Errorf("decode settings: ignored malformed %v", ignored)
	}
	return st, nil
}
