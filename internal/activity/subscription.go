package activity

import (
	"github.com/google/uuid"
)

type Scope string

const (
	ScopeRepo    Scope = "repo"
	ScopeAccount Scope = "account"
)

func (s Scope) Valid() bool { return s == ScopeRepo || s == ScopeAccount }

// Feature is a user-toggleable category of notifications.
type Feature string

const (
	FeatureIssues      Feature = "issues"
	FeaturePulls       Feature = "pulls"
	FeatureStatuses    Feature = "statuses"
	FeatureCommits     Feature = "commits"
	FeatureDeployments Feature = "deployments"
	FeaturePublic      Feature = "public"
	FeatureReleases    Feature = "releases"
	FeatureComments    Feature = "comments"
	FeatureBranches    Feature = "branches"
	FeatureReviews     Feature = "reviews"
)

var defaultFeatures = map[Feature]bool{
	FeatureIssues:      true,
	FeaturePulls:       true,
	FeatureStatuses:    true,
	FeatureCommits:     true,
	FeatureDeployments: true,
	FeaturePublic:      true,
	FeatureReleases:    true,
	FeatureComments:    false,
	FeatureBranches:    false,
	FeatureReviews:     false,
}

// eventFeatures maps webhook event types to the feature that gates them.
// Event types missing from the table are always delivered.
var eventFeatures = map[string]Feature{
	"issues":                      FeatureIssues,
	"pull_request":                FeaturePulls,
	"status":                      FeatureStatuses,
	"check_run":                   FeatureStatuses,
	"push":                        FeatureCommits,
	"deployment":                  FeatureDeployments,
	"deployment_status":           FeatureDeployments,
	"public":                      FeaturePublic,
	"release":                     FeatureReleases,
	"issue_comment":               FeatureComments,
	"commit_comment":              FeatureComments,
	"pull_request_review_comment": FeatureComments,
	"create":                      FeatureBranches,
	"delete":                      FeatureBranches,
	"pull_request_review":         FeatureReviews,
}

// Settings is the per-subscription configuration stored as JSON.
type Settings struct {
	// Features overrides the defaults; missing keys keep the default.
	Features map[Feature]bool `json:"features,omitempty"`
	// Labels is the label whitelist. Empty means no label filtering.
	Labels []string `json:"label,omitempty"`
}

func (s Settings) Enabled(f Feature) bool {
	if v, ok := s.Features[f]; ok {
		return v
	}
	return defaultFeatures[f]
}

type Workspace struct {
	ID          uuid.UUID
	SlackID     string
	AccessToken string
}

// Subscription binds a chat channel to a GitHub repository or account.
type Subscription struct {
	ID        uuid.UUID
	ChannelID string
	Workspace Workspace
	Scope     Scope
	GitHubID  int64
	CreatorID *uuid.UUID
	Settings  Settings
}

// IsEnabledForEvent reports whether the subscription wants events of the
// given webhook type.
func (s *Subscription) IsEnabledForEvent(eventType string) bool {
	f, ok := eventFeatures[eventType]
	if !ok {
		return true
	}
	return s.Settings.Enabled(f)
}

func (s *Subscription) HasCreator() bool {
	return s.CreatorID != nil && *s.CreatorID != uuid.Nil
}

// Criterion selects subscriptions of one scope bound to one GitHub id.
type Criterion struct {
	GitHubID int64
	Scope    Scope
}
