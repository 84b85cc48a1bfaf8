package activity

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Event is one parsed GitHub webhook delivery. It is not modified while
// it is being routed.
type Event struct {
	Type       string
	Action     string
	DeliveryID string
	Payload    Payload
}

type Payload struct {
	Action       string        `json:"action"`
	Repository   *Repository   `json:"repository"`
	Issue        *Issue        `json:"issue"`
	PullRequest  *Issue        `json:"pull_request"`
	Installation *Installation `json:"installation"`
	Sender       *Account      `json:"sender"`
}

type Repository struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	FullName string  `json:"full_name"`
	HTMLURL  string  `json:"html_url"`
	Private  bool    `json:"private"`
	Owner    Account `json:"owner"`
}

type Account struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
	Type  string `json:"type"`
}

// Issue is the part of an issue or pull request payload routing cares
// about. Labels is nil when the payload carries no labels field at all
// and non-nil (possibly empty) when it does.
type Issue struct {
	ID      int64   `json:"id"`
	Number  int     `json:"number"`
	Title   string  `json:"title"`
	State   string  `json:"state"`
	HTMLURL string  `json:"html_url"`
	Merged  bool    `json:"merged"`
	User    Account `json:"user"`
	Labels  []Label `json:"labels"`
}

type Label struct {
	Name string `json:"name"`
}

type Installation struct {
	ID int64 `json:"id"`
}

// ParseEvent decodes a webhook body. The action header value wins over
// the payload's own action field when both are present.
func ParseEvent(eventType, action, deliveryID string, body []byte) (*Event, error) {
	eventType = strings.TrimSpace(eventType)
	if eventType == "" {
		return nil, fmt.Errorf("event type is required")
	}
	var p Payload
	if len(body) > 0 {
		if err := json.Unmarshal(body, &p); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", eventType, err)
		}
	}
	action = strings.TrimSpace(action)
	if action == "" {
		action = strings.TrimSpace(p.Action)
	}
	return &Event{Type: eventType, Action: action, DeliveryID: deliveryID, Payload: p}, nil
}

// Name is the "type.action" form, e.g. "issues.opened".
func (e *Event) Name() string {
	return e.Type + "." + e.Action
}

// IsRepositoryDeletion reports a repository.deleted event. Those are
// never sent to account subscriptions and skip the creator access check,
// since nobody has access to a deleted repository.
func (e *Event) IsRepositoryDeletion() bool {
	return e.Name() == "repository.deleted"
}

// IssueOrPullRequest returns the issue, falling back to the pull request.
func (e *Event) IssueOrPullRequest() *Issue {
	if e.Payload.Issue != nil {
		return e.Payload.Issue
	}
	return e.Payload.PullRequest
}

func (e *Event) InstallationID() int64 {
	if e.Payload.Installation == nil {
		return 0
	}
	return e.Payload.Installation.ID
}
