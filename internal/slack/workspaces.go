package slack

import (
	"sync"

	"golang.org/x/time/rate"
)

// Workspaces hands out one client per workspace. Slack rate limits
// chat.postMessage per workspace, so each workspace gets its own limiter
// shared by every pipeline posting into it.
type Workspaces struct {
	BaseURL string

	limit rate.Limit
	burst int

	mu      sync.Mutex
	clients map[string]*Client
}

// NewWorkspaces allows perSecond posts per workspace with a small burst.
// perSecond <= 0 disables throttling.
func NewWorkspaces(baseURL string, perSecond float64) *Workspaces {
	w := &Workspaces{BaseURL: baseURL, clients: map[string]*Client{}}
	if perSecond > 0 {
		w.limit = rate.Limit(perSecond)
		w.burst = max(1, int(perSecond*3))
	}
	return w
}

// Client returns the workspace's client, replacing its token when the
// workspace was reinstalled.
func (w *Workspaces) Client(workspaceID, token string) *Client {
	w.mu.Lock()
	defer w.mu.Unlock()

	if c, ok := w.clients[workspaceID]; ok {
		if c.Token == token {
			return c
		}
		fresh := NewClient(token, c.limiter)
		fresh.BaseURL = c.BaseURL
		w.clients[workspaceID] = fresh
		return fresh
	}

	var limiter *rate.Limiter
	if w.limit > 0 {
		limiter = rate.NewLimiter(w.limit, w.burst)
	}
	c := NewClient(token, limiter)
	if w.BaseURL != "" {
		c.BaseURL = w.BaseURL
	}
	w.clients[workspaceID] = c
	return c
}
