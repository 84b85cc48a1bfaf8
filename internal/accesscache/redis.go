package accesscache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const keyPrefix = "activity-router:"

// Redis shares cached results between router processes. Values are stored
// as "1" or "0" with the entry's ttl.
type Redis struct {
	client redis.UniversalClient
	group  singleflight.Group
}

func NewRedis(client redis.UniversalClient) *Redis {
	return &Redis{client: client}
}

// Open parses a redis:// URL and verifies the server answers.
func Open(ctx context.Context, url string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedis(client), nil
}

func (r *Redis) Close() error { return r.client.Close() }

func (r *Redis) Fetch(ctx context.Context, key string, ttl time.Duration, compute func(context.Context) (bool, error)) (bool, error) {
	key = keyPrefix + key
	if v, ok, err := r.get(ctx, key); err != nil {
		return false, err
	} else if ok {
		return v, nil
	}

	v, err, _ := r.group.Do(key, func() (any, error) {
		if v, ok, err := r.get(ctx, key); err != nil {
			return false, err
		} else if ok {
			return v, nil
		}
		v, err := compute(ctx)
		if err != nil {
			return false, err
		}
		raw := "0"
		if v {
			raw = "1"
		}
		if err := r.client.Set(ctx, key, raw, ttl).Err(); err != nil {
			return false, fmt.Errorf("redis set %s: %w", key, err)
		}
		return v, nil
	})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

func (r *Redis) get(ctx context.Context, key string) (bool, bool, error) {
	raw, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return raw == "1", true, nil
}
