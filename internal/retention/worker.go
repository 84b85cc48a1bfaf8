// Package retention prunes delivery ids once GitHub can no longer
// redeliver them.
package retention

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jagadeesh/activity-router/internal/clock"
)

const batchSize = 500

type Pruner interface {
	Prune(ctx context.Context, cutoff time.Time, limit int) (int64, error)
}

type Worker struct {
	pruner   Pruner
	maxAge   time.Duration
	interval time.Duration
	clock    clock.Clock
	workerID string
}

func New(p Pruner, maxAge, interval time.Duration, clk clock.Clock) *Worker {
	if clk == nil {
		clk = clock.Real()
	}
	if interval <= 0 {
		interval = time.Hour
	}
	return &Worker{
		pruner:   p,
		maxAge:   maxAge,
		interval: interval,
		clock:    clk,
		workerID: fmt.Sprintf("%s:%d", hostname(), os.Getpid()),
	}
}

// Run prunes once immediately and then every interval until ctx is done.
func (w *Worker) Run(ctx context.Context) error {
	if w.pruner == nil {
		return fmt.Errorf("db not configured")
	}
	if w.maxAge <= 0 {
		return nil
	}
	for {
		if n, err := w.PruneOnce(ctx); err != nil {
			slog.Error("delivery pruning failed", "worker_id", w.workerID, "error", err)
		} else if n > 0 {
			slog.Info("pruned delivery ids", "worker_id", w.workerID, "deleted", n)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.clock.After(w.interval):
		}
	}
}

// PruneOnce deletes in batches until nothing older than maxAge is left.
func (w *Worker) PruneOnce(ctx context.Context) (int64, error) {
	cutoff := w.clock.Now().Add(-w.maxAge)
	var total int64
	for {
		n, err := w.pruner.Prune(ctx, cutoff, batchSize)
		total += n
		if err != nil {
			return total, err
		}
		if n < batchSize {
			return total, nil
		}
	}
}

func hostname() string {
	h, _ := os.Hostname()
	if h == "" {
		return "unknown"
	}
	return h
}
