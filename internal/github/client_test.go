package github

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jagadeesh/activity-router/internal/clock"
)

func TestHasRepoAccess(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    bool
		wantErr bool
	}{
		{"visible", 200, `{"id":42,"full_name":"octo/hello","owner":{"id":7,"login":"octo"}}`, true, false},
		{"hidden", 404, `{"message":"Not Found"}`, false, false},
		{"forbidden", 403, `{"message":"Resource not accessible"}`, false, false},
		{"rate limited", 403, `{"message":"API rate limit exceeded"}`, false, true},
		{"outage", 502, `{"message":"Bad Gateway"}`, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/repositories/42", r.URL.Path)
				assert.Equal(t, "Bearer user-token", r.Header.Get("Authorization"))
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient(WithBaseURL(srv.URL), WithAuth(StaticToken("user-token")))
			got, err := c.HasRepoAccess(context.Background(), 42)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetIssue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/octo/hello/issues/12", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"number":12,"title":"Crash on start","labels":[{"name":"bug"}]}`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	it, err := c.GetIssue(context.Background(), "octo/hello", 12)
	require.NoError(t, err)
	assert.Equal(t, "Crash on start", it.Title)
	require.Len(t, it.Labels, 1)
	assert.Equal(t, "bug", it.Labels[0].Name)

	_, err = c.GetIssue(context.Background(), "not-a-full-name", 1)
	require.Error(t, err)
}

func TestReplicationLagDelay_HoldsFirstRead(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{"id":1,"full_name":"octo/hello"}`))
	}))
	defer srv.Close()

	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	c := NewClient(WithBaseURL(srv.URL), WithClock(fake), WithReplicationLagDelay(time.Second))

	done := make(chan error, 1)
	go func() {
		_, err := c.GetRepoByID(context.Background(), 1)
		done <- err
	}()

	fake.WaitForTimers(1)
	assert.Zero(t, hits.Load(), "request must wait for the lag window")

	fake.Advance(time.Second)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("request never ran")
	}
	assert.EqualValues(t, 1, hits.Load())

	// The window is only waited once per client.
	_, err := c.GetRepoByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Zero(t, fake.PendingCount())
}

func TestReplicationLagDelay_RespectsContext(t *testing.T) {
	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	c := NewClient(WithBaseURL("http://127.0.0.1:1"), WithClock(fake), WithReplicationLagDelay(time.Minute))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.GetRepoByID(ctx, 1)
	require.ErrorIs(t, err, context.Canceled)
}

func TestAppAuth_InstallationTokenIsCached(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	keyPEM := string(pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}))

	now := time.Now()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/app/installations/99/access_tokens", r.URL.Path)

		raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		parsed, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(*jwt.Token) (any, error) {
			return &key.PublicKey, nil
		})
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		iss, _ := parsed.Claims.GetIssuer()
		assert.Equal(t, "123", iss)

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"token":"ghs_abc","expires_at":"` + now.Add(time.Hour).UTC().Format(time.RFC3339) + `"}`))
	}))
	defer srv.Close()

	app, err := NewAppAuth(123, keyPEM, srv.URL, clock.Fake(now))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		tok, err := app.InstallationToken(context.Background(), 99)
		require.NoError(t, err)
		assert.Equal(t, "ghs_abc", tok)
	}
	assert.EqualValues(t, 1, calls.Load())
}

func TestNewAppAuth_RejectsBadInput(t *testing.T) {
	_, err := NewAppAuth(0, "", "", nil)
	require.Error(t, err)

	_, err = NewAppAuth(1, "not a key", "", nil)
	require.Error(t, err)
}

func TestFactory_ForInstallation(t *testing.T) {
	f := &Factory{BaseURL: "https://ghe.example.com/api/v3/", LagDelay: time.Second}
	c := f.ForInstallation(0)
	assert.Equal(t, "https://ghe.example.com/api/v3", c.BaseURL)
	assert.Nil(t, c.Auth)
	assert.Equal(t, time.Second, c.lagDelay)
	assert.NotSame(t, c, f.ForInstallation(0))
}
