package github

import (
	"context"
	"fmt"
	"net/url"
)

type Label struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Issue covers both issues and pull requests; GitHub serves the shared
// fields identically on both endpoints.
type Issue struct {
	ID      int64   `json:"id"`
	Number  int     `json:"number"`
	State   string  `json:"state"`
	Title   string  `json:"title"`
	Body    string  `json:"body"`
	HTMLURL string  `json:"html_url"`
	Labels  []Label `json:"labels"`
	User    struct {
		Login string `json:"login"`
	} `json:"user"`
	Merged bool `json:"merged"`
}

func (c *Client) GetIssue(ctx context.Context, fullName string, number int) (Issue, error) {
	return c.getIssueLike(ctx, fullName, "issues", number)
}

func (c *Client) GetPullRequest(ctx context.Context, fullName string, number int) (Issue, error) {
	return c.getIssueLike(ctx, fullName, "pulls", number)
}

func (c *Client) getIssueLike(ctx context.Context, fullName, kind string, number int) (Issue, error) {
	owner, repo, err := splitFullName(fullName)
	if err != nil {
		return Issue{}, err
	}
	var it Issue
	path := fmt.Sprintf("/repos/%s/%s/%s/%d", url.PathEscape(owner), url.PathEscape(repo), kind, number)
	if err := c.get(ctx, path, &it); err != nil {
		return Issue{}, err
	}
	return it, nil
}
