package events

import (
	"encoding/json"
	"strings"

	"github.com/jagadeesh/activity-router/internal/activity"
)

const (
	SubjectGitHubWebhookReceived = "github.webhook.received"
)

// GitHubWebhookReceived is the envelope published for every verified
// webhook. Payload is the raw request body.
type GitHubWebhookReceived struct {
	DeliveryID   string          `json:"delivery_id"`
	Event        string          `json:"event"`
	Action       string          `json:"action,omitempty"`
	RepoFullName string          `json:"repo_full_name,omitempty"`
	Payload      json.RawMessage `json:"payload"`
}

// NewGitHubWebhookReceived builds an envelope, lifting the action and
// repository name out of the body for logging. A body that is not JSON
// still produces an envelope; parsing fails later in Activity.
func NewGitHubWebhookReceived(deliveryID, event string, body []byte) GitHubWebhookReceived {
	e := GitHubWebhookReceived{
		DeliveryID: strings.TrimSpace(deliveryID),
		Event:      strings.TrimSpace(event),
		Payload:    body,
	}
	var env struct {
		Action     string `json:"action"`
		Repository *struct {
			FullName string `json:"full_name"`
		} `json:"repository"`
	}
	if err := json.Unmarshal(body, &env); err == nil {
		e.Action = strings.TrimSpace(env.Action)
		if env.Repository != nil {
			e.RepoFullName = strings.TrimSpace(env.Repository.FullName)
		}
	}
	return e
}

// Activity parses the payload into a routable event.
func (e GitHubWebhookReceived) Activity() (*activity.Event, error) {
	return activity.ParseEvent(e.Event, e.Action, e.DeliveryID, e.Payload)
}
