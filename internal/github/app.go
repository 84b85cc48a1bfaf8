package github

import (
	"context"
	"crypto/rsa"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jagadeesh/activity-router/internal/clock"
)

// AppAuth authenticates as a GitHub App and mints installation tokens.
// Tokens are cached per installation until shortly before they expire.
type AppAuth struct {
	AppID   int64
	Key     *rsa.PrivateKey
	BaseURL string
	HTTP    *http.Client

	clock clock.Clock

	mu     sync.Mutex
	tokens map[int64]installationToken
}

type installationToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewAppAuth parses a PEM encoded private key (PKCS#1 or PKCS#8).
func NewAppAuth(appID int64, privateKeyPEM string, baseURL string, clk clock.Clock) (*AppAuth, error) {
	if appID == 0 {
		return nil, fmt.Errorf("GITHUB_APP_ID is required")
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(privateKeyPEM))
	if err != nil {
		return nil, fmt.Errorf("parse github app private key: %w", err)
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if clk == nil {
		clk = clock.Real()
	}
	return &AppAuth{
		AppID:   appID,
		Key:     key,
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 10 * time.Second},
		clock:   clk,
		tokens:  map[int64]installationToken{},
	}, nil
}

// JWT signs the short-lived app token GitHub expects on /app endpoints.
func (a *AppAuth) JWT() (string, error) {
	now := a.clock.Now()
	claims := jwt.RegisteredClaims{
		Issuer: fmt.Sprintf("%d", a.AppID),
		// Backdated to tolerate clock drift between us and GitHub.
		IssuedAt:  jwt.NewNumericDate(now.Add(-30 * time.Second)),
		ExpiresAt: jwt.NewNumericDate(now.Add(9 * time.Minute)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(a.Key)
}

func (a *AppAuth) InstallationToken(ctx context.Context, installationID int64) (string, error) {
	a.mu.Lock()
	cached, ok := a.tokens[installationID]
	a.mu.Unlock()
	if ok && a.clock.Now().Add(time.Minute).Before(cached.ExpiresAt) {
		return cached.Token, nil
	}

	signed, err := a.JWT()
	if err != nil {
		return "", fmt.Errorf("sign github app jwt: %w", err)
	}

	c := &Client{HTTP: a.HTTP, BaseURL: a.BaseURL, UserAgent: "activity-router", Auth: StaticToken(signed), clock: a.clock}
	var tok installationToken
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/app/installations/%d/access_tokens", installationID), nil, &tok); err != nil {
		return "", err
	}
	if tok.Token == "" {
		return "", fmt.Errorf("github returned empty installation token")
	}

	a.mu.Lock()
	a.tokens[installationID] = tok
	a.mu.Unlock()
	return tok.Token, nil
}

type installationTokenSource struct {
	app *AppAuth
	id  int64
}

func (s installationTokenSource) Token(ctx context.Context) (string, error) {
	return s.app.InstallationToken(ctx, s.id)
}

// Factory builds a fresh client for every routing pipeline so each one
// carries its own replication-lag window and credentials.
type Factory struct {
	App      *AppAuth
	BaseURL  string
	LagDelay time.Duration
	Clock    clock.Clock
}

// ForInstallation returns a client authenticated as the given app
// installation. Without an app, or for installationID 0, the client is
// unauthenticated.
func (f *Factory) ForInstallation(installationID int64) *Client {
	opts := []Option{WithBaseURL(f.BaseURL), WithReplicationLagDelay(f.LagDelay)}
	if f.Clock != nil {
		opts = append(opts, WithClock(f.Clock))
	}
	if f.App != nil && installationID != 0 {
		opts = append(opts, WithAuth(installationTokenSource{app: f.App, id: installationID}))
	}
	return NewClient(opts...)
}
