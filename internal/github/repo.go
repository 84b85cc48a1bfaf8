package github

import (
	"context"
	"fmt"
	"strings"
)

type Repo struct {
	ID    int64 `json:"id"`
	Owner struct {
		ID    int64  `json:"id"`
		Login string `json:"login"`
	} `json:"owner"`
	FullName string `json:"full_name"`
	Private  bool   `json:"private"`
}

// GetRepoByID fetches a repository through the id-addressed endpoint, which
// keeps working across renames and transfers.
func (c *Client) GetRepoByID(ctx context.Context, id int64) (Repo, error) {
	var r Repo
	if err := c.get(ctx, fmt.Sprintf("/repositories/%d", id), &r); err != nil {
		return Repo{}, err
	}
	if r.ID == 0 || r.FullName == "" {
		return Repo{}, fmt.Errorf("invalid github repo response")
	}
	return r, nil
}

// HasRepoAccess reports whether the client's credentials can read the
// repository. GitHub answers 404 (and sometimes 403) for repositories the
// caller cannot see; every other failure is returned as an error.
func (c *Client) HasRepoAccess(ctx context.Context, repoID int64) (bool, error) {
	_, err := c.GetRepoByID(ctx, repoID)
	switch {
	case err == nil:
		return true, nil
	case IsNotFound(err), IsForbidden(err):
		return false, nil
	default:
		return false, err
	}
}

func splitFullName(fullName string) (string, string, error) {
	s := strings.TrimSpace(fullName)
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid repo full name (expected owner/repo)")
	}
	owner := strings.TrimSpace(parts[0])
	repo := strings.TrimSpace(parts[1])
	if owner == "" || repo == "" {
		return "", "", fmt.Errorf("invalid repo full name (expected owner/repo)")
	}
	return owner, repo, nil
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
