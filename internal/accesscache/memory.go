// Package accesscache memoizes creator access checks. Concurrent callers
// for the same key share one computation; errors are never cached.
package accesscache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jagadeesh/activity-router/internal/clock"
)

// sweepInterval is the minimum time between scans that drop expired
// entries. Scans run on write.
const sweepInterval = time.Minute

type entry struct {
	value   bool
	expires time.Time
}

// Memory is a process-local cache. It is used when no Redis is configured
// and in tests.
type Memory struct {
	clock clock.Clock
	group singleflight.Group

	mu        sync.Mutex
	entries   map[string]entry
	lastSweep time.Time
}

func NewMemory(clk clock.Clock) *Memory {
	if clk == nil {
		clk = clock.Real()
	}
	return &Memory{clock: clk, entries: make(map[string]entry), lastSweep: clk.Now()}
}

func (m *Memory) Fetch(ctx context.Context, key string, ttl time.Duration, compute func(context.Context) (bool, error)) (bool, error) {
	if v, ok := m.get(key); ok {
		return v, nil
	}
	v, err, _ := m.group.Do(key, func() (any, error) {
		// A caller that lost the race may arrive after the winner stored.
		if v, ok := m.get(key); ok {
			return v, nil
		}
		v, err := compute(ctx)
		if err != nil {
			return false, err
		}
		m.store(key, v, ttl)
		return v, nil
	})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

func (m *Memory) store(key string, v bool, ttl time.Duration) {
	now := m.clock.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	if now.Sub(m.lastSweep) >= sweepInterval {
		for k, e := range m.entries {
			if !now.Before(e.expires) {
				delete(m.entries, k)
			}
		}
		m.lastSweep = now
	}
	m.entries[key] = entry{value: v, expires: now.Add(ttl)}
}

func (m *Memory) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *Memory) get(key string) (bool, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return false, false
	}
	if !m.clock.Now().Before(e.expires) {
		delete(m.entries, key)
		return false, false
	}
	return e.value, true
}
