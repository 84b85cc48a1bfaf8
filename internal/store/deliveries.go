package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Deliveries remembers webhook delivery ids so GitHub redeliveries are
// routed only once.
type Deliveries struct {
	Pool *pgxpool.Pool
}

// Record stores the delivery and reports whether it was new.
func (d *Deliveries) Record(ctx context.Context, deliveryID, event, action, repoFullName string) (bool, error) {
	if d == nil || d.Pool == nil {
		return false, fmt.Errorf("db not configured")
	}
	ct, err := d.Pool.Exec(ctx, `
INSERT INTO github_deliveries (delivery_id, event, action, repo_full_name)
VALUES ($1, $2, $3, $4)
ON CONFLICT (delivery_id) DO NOTHING
`, deliveryID, event, nullIfEmpty(action), nullIfEmpty(repoFullName))
	if err != nil {
		return false, fmt.Errorf("record delivery: %w", err)
	}
	return ct.RowsAffected() == 1, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Prune deletes up to limit deliveries received before cutoff and returns
// how many were removed.
func (d *Deliveries) Prune(ctx context.Context, cutoff time.Time, limit int) (int64, error) {
	if d == nil || d.Pool == nil {
		return 0, fmt.Errorf("db not configured")
	}
	ct, err := d.Pool.Exec(ctx, `
DELETE FROM github_deliveries
WHERE delivery_id IN (
  SELECT delivery_id
  FROM github_deliveries
  WHERE received_at < $1
  ORDER BY received_at
  LIMIT $2
)
`, cutoff, limit)
	if err != nil {
		return 0, fmt.Errorf("prune deliveries: %w", err)
	}
	return ct.RowsAffected(), nil
}
