package store

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jagadeesh/activity-router/internal/activity"
	"github.com/jagadeesh/activity-router/internal/cryptox"
)

func TestCriteriaArrays(t *testing.T) {
	types, ids := criteriaArrays([]activity.Criterion{
		{GitHubID: 100, Scope: activity.ScopeRepo},
		{GitHubID: 200, Scope: activity.ScopeAccount},
	})
	assert.Equal(t, []string{"repo", "account"}, types)
	assert.Equal(t, []int64{100, 200}, ids)
}

func TestDecodeSettings(t *testing.T) {
	st, err := decodeSettings([]byte(`{"features":{"comments":true,"issues":false},"label":["bug"]}`))
	require.NoError(t, err)
	assert.True(t, st.Enabled(activity.FeatureComments))
	assert.False(t, st.Enabled(activity.FeatureIssues))
	assert.True(t, st.Enabled(activity.FeaturePulls))
	assert.Equal(t, []string{"bug"}, st.Labels)

	st, err = decodeSettings(nil)
	require.NoError(t, err)
	assert.Empty(t, st.Labels)

	_, err = decodeSettings([]byte(`not json`))
	assert.Error(t, err)
}

func TestDecodeSettings_MalformedFieldKeepsDefault(t *testing.T) {
	st, err := decodeSettings([]byte(`{"label":"bug","features":{"comments":true}}`))
	assert.Error(t, err)
	assert.Nil(t, st.Labels)
	assert.True(t, st.Enabled(activity.FeatureComments))
	assert.True(t, activity.PassesLabelFilter(&activity.Issue{Labels: []activity.Label{{Name: "docs"}}}, st))

	st, err = decodeSettings([]byte(`{"label":["bug"],"features":{"issues":"yes"}}`))
	assert.Error(t, err)
	assert.Equal(t, []string{"bug"}, st.Labels)
	assert.True(t, st.Enabled(activity.FeatureIssues))
	assert.False(t, st.Enabled(activity.FeatureComments))
}

func TestDecryptToken(t *testing.T) {
	key := bytes.Repeat([]byte{1}, 32)
	blob, err := cryptox.EncryptAESGCM(key, []byte("gho_token"))
	require.NoError(t, err)

	got, err := decryptToken(key, blob)
	require.NoError(t, err)
	assert.Equal(t, "gho_token", got)

	got, err = decryptToken(key, nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = decryptToken(nil, blob)
	assert.Error(t, err)
}

func TestNilStoresReportMissingDB(t *testing.T) {
	var s *Subscriptions
	_, err := s.LookupAll(t.Context(), []activity.Criterion{{GitHubID: 1, Scope: activity.ScopeRepo}})
	assert.Error(t, err)

	var d *Deliveries
	_, err = d.Record(t.Context(), "d-1", "issues", "", "")
	assert.Error(t, err)
}
