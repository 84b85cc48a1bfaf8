package activity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const issuesPayload = `{
  "action": "labeled",
  "repository": {"id": 100, "name": "widgets", "full_name": "octo/widgets", "owner": {"id": 200, "login": "octo", "type": "Organization"}},
  "issue": {"id": 9, "number": 7, "title": "Broken build", "state": "open", "labels": [{"name": "bug"}]},
  "installation": {"id": 55},
  "sender": {"id": 3, "login": "alice"}
}`

func TestParseEvent(t *testing.T) {
	ev, err := ParseEvent("issues", "", "d-1", []byte(issuesPayload))
	require.NoError(t, err)

	assert.Equal(t, "issues.labeled", ev.Name())
	assert.Equal(t, "d-1", ev.DeliveryID)
	require.NotNil(t, ev.Payload.Repository)
	assert.EqualValues(t, 100, ev.Payload.Repository.ID)
	assert.EqualValues(t, 200, ev.Payload.Repository.Owner.ID)
	assert.EqualValues(t, 55, ev.InstallationID())

	issue := ev.IssueOrPullRequest()
	require.NotNil(t, issue)
	assert.Equal(t, []Label{{Name: "bug"}}, issue.Labels)
	assert.False(t, ev.IsRepositoryDeletion())
}

func TestParseEvent_ActionHeaderWins(t *testing.T) {
	ev, err := ParseEvent("issues", "closed", "", []byte(issuesPayload))
	require.NoError(t, err)
	assert.Equal(t, "closed", ev.Action)
}

func TestParseEvent_LabelsPresence(t *testing.T) {
	ev, err := ParseEvent("issues", "", "", []byte(`{"repository":{"id":1},"issue":{"number":1}}`))
	require.NoError(t, err)
	assert.Nil(t, ev.IssueOrPullRequest().Labels)

	ev, err = ParseEvent("issues", "", "", []byte(`{"repository":{"id":1},"issue":{"number":1,"labels":[]}}`))
	require.NoError(t, err)
	assert.NotNil(t, ev.IssueOrPullRequest().Labels)
	assert.Empty(t, ev.IssueOrPullRequest().Labels)
}

func TestParseEvent_PullRequestFallback(t *testing.T) {
	ev, err := ParseEvent("pull_request", "opened", "", []byte(`{"repository":{"id":1},"pull_request":{"number":4,"merged":true}}`))
	require.NoError(t, err)
	pr := ev.IssueOrPullRequest()
	require.NotNil(t, pr)
	assert.Equal(t, 4, pr.Number)
	assert.True(t, pr.Merged)
}

func TestParseEvent_RepositoryDeletion(t *testing.T) {
	ev, err := ParseEvent("repository", "deleted", "", []byte(`{"repository":{"id":1}}`))
	require.NoError(t, err)
	assert.True(t, ev.IsRepositoryDeletion())
	assert.Zero(t, ev.InstallationID())
}

func TestParseEvent_Errors(t *testing.T) {
	_, err := ParseEvent(" ", "", "", []byte(`{}`))
	require.Error(t, err)

	_, err = ParseEvent("issues", "", "", []byte(`{not json`))
	require.Error(t, err)
}
