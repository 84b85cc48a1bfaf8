package activity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPassesLabelFilter(t *testing.T) {
	whitelist := Settings{Labels: []string{"bug", "urgent"}}

	tests := []struct {
		name     string
		issue    *Issue
		settings Settings
		want     bool
	}{
		{"no issue", nil, whitelist, true},
		{"no labels field", &Issue{Number: 1}, whitelist, true},
		{"no whitelist", &Issue{Labels: []Label{{Name: "enhancement"}}}, Settings{}, true},
		{"empty whitelist", &Issue{Labels: []Label{{Name: "enhancement"}}}, Settings{Labels: []string{}}, true},
		{"no matching label", &Issue{Labels: []Label{{Name: "enhancement"}}}, whitelist, false},
		{"empty labels", &Issue{Labels: []Label{}}, whitelist, false},
		{"one match", &Issue{Labels: []Label{{Name: "bug"}}}, whitelist, true},
		{"match among others", &Issue{Labels: []Label{{Name: "docs"}, {Name: "urgent"}}}, whitelist, true},
		{"case sensitive", &Issue{Labels: []Label{{Name: "Bug"}}}, whitelist, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PassesLabelFilter(tt.issue, tt.settings))
		})
	}
}

func TestRelevant(t *testing.T) {
	issues := &Event{Type: "issues", Action: "opened"}
	deleted := &Event{Type: "repository", Action: "deleted"}
	comment := &Event{Type: "issue_comment", Action: "created"}

	repoSub := &Subscription{Scope: ScopeRepo}
	accountSub := &Subscription{Scope: ScopeAccount}
	issuesOff := &Subscription{Scope: ScopeRepo, Settings: Settings{Features: map[Feature]bool{FeatureIssues: false}}}
	commentsOn := &Subscription{Scope: ScopeRepo, Settings: Settings{Features: map[Feature]bool{FeatureComments: true}}}

	assert.Equal(t, SkipNone, Relevant(issues, repoSub))
	assert.Equal(t, SkipNone, Relevant(issues, accountSub))
	assert.Equal(t, SkipEventDisabled, Relevant(issues, issuesOff))
	assert.Equal(t, SkipNone, Relevant(deleted, repoSub))
	assert.Equal(t, SkipAccountDeletion, Relevant(deleted, accountSub))
	assert.Equal(t, SkipEventDisabled, Relevant(comment, repoSub), "comments are off by default")
	assert.Equal(t, SkipNone, Relevant(comment, commentsOn))
}

func TestIsEnabledForEvent_UnknownTypesAlwaysEnabled(t *testing.T) {
	sub := &Subscription{Settings: Settings{Features: map[Feature]bool{FeatureIssues: false}}}
	assert.True(t, sub.IsEnabledForEvent("repository"))
	assert.True(t, sub.IsEnabledForEvent("star"))
}
