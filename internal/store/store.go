// Package store persists subscriptions, workspaces, linked users and seen
// webhook deliveries in PostgreSQL.
package store

import (
	"errors"
	"fmt"

	"github.com/jagadeesh/activity-router/internal/cryptox"
)

var ErrNotFound = errors.New("not found")

func decryptToken(key, blob []byte) (string, error) {
	if len(blob) == 0 {
		return "", nil
	}
	if len(key) == 0 {
		return "", fmt.Errorf("token encryption key not configured")
	}
	pt, err := cryptox.DecryptAESGCM(key, blob)
	if err != nil {
		return "", fmt.Errorf("decrypt token: %w", err)
	}
	return string(pt), nil
}
