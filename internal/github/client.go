package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jagadeesh/activity-router/internal/clock"
)

const DefaultBaseURL = "https://api.github.com"

// TokenSource supplies the bearer token for a request. An empty token
// sends the request unauthenticated.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource for a fixed OAuth or installation token.
type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) { return string(t), nil }

type Client struct {
	HTTP      *http.Client
	BaseURL   string
	UserAgent string
	Auth      TokenSource

	clock    clock.Clock
	lagDelay time.Duration
	created  time.Time
	lagOnce  sync.Once
}

type Option func(*Client)

func WithAuth(ts TokenSource) Option { return func(c *Client) { c.Auth = ts } }

func WithBaseURL(u string) Option {
	return func(c *Client) {
		if strings.TrimSpace(u) != "" {
			c.BaseURL = strings.TrimRight(u, "/")
		}
	}
}

func WithClock(clk clock.Clock) Option { return func(c *Client) { c.clock = clk } }

// WithReplicationLagDelay makes the client hold its first read until d has
// passed since the client was created. Webhooks can arrive before GitHub's
// read replicas have caught up, so reading right away may return stale data.
func WithReplicationLagDelay(d time.Duration) Option {
	return func(c *Client) { c.lagDelay = d }
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		HTTP:      &http.Client{Timeout: 10 * time.Second},
		BaseURL:   DefaultBaseURL,
		UserAgent: "activity-router",
		clock:     clock.Real(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.created = c.clock.Now()
	return c
}

func (c *Client) waitForReplicas(ctx context.Context) error {
	if c.lagDelay <= 0 {
		return nil
	}
	var err error
	c.lagOnce.Do(func() {
		remaining := c.lagDelay - c.clock.Now().Sub(c.created)
		if remaining <= 0 {
			return
		}
		select {
		case <-ctx.Done():
			err = ctx.Err()
		case <-c.clock.After(remaining):
		}
	})
	return err
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	if err := c.waitForReplicas(ctx); err != nil {
		return err
	}
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	if c.Auth != nil {
		token, err := c.Auth.Token(ctx)
		if err != nil {
			return fmt.Errorf("github auth: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(method, path, resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("github %s %s: decode: %w", method, path, err)
	}
	return nil
}
