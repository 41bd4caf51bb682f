// Package githubapi is a thin client for the GitHub REST endpoints draftwire
// consumes: repository metadata, branch lookup, and pull request creation.
package githubapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"
)

// Client wraps an authenticated go-github client scoped to one repository.
type Client struct {
	gh    *github.Client
	owner string
	repo  string
}

// NewClient creates a bearer-token authenticated client for owner/repo.
func NewClient(ctx context.Context, token, owner, repo string) *Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(ctx, ts)

	return &Client{
		gh:    github.NewClient(tc),
		owner: owner,
		repo:  repo,
	}
}

// SetBaseURL points the client at a different API endpoint. Used by tests
// and GitHub Enterprise deployments.
func (c *Client) SetBaseURL(base string) error {
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	parsed, err := url.Parse(base)
	if err != nil {
		return fmt.Errorf("invalid API base URL: %w", err)
	}
	c.gh.BaseURL = parsed
	return nil
}

// Owner returns the repository owner this client is scoped to.
func (c *Client) Owner() string { return c.owner }

// Repo returns the repository name this client is scoped to.
func (c *Client) Repo() string { return c.repo }

// GetRepository fetches the repository metadata.
func (c *Client) GetRepository(ctx context.Context) (*github.Repository, error) {
	repo, _, err := c.gh.Repositories.Get(ctx, c.owner, c.repo)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch repository %s/%s: %w", c.owner, c.repo, err)
	}
	return repo, nil
}

// BranchExists reports whether the named branch exists on the remote. A
// not-found response is not an error; any other failure is.
func (c *Client) BranchExists(ctx context.Context, branch string) (bool, error) {
	_, _, err := c.gh.Repositories.GetBranch(ctx, c.owner, c.repo, branch, 0)
	if err != nil {
		if IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to fetch branch %s: %w", branch, err)
	}
	return true, nil
}

// NewPullRequest describes a pull request to create. AutoMerge is carried
// on the wire as the auto_merge field.
type NewPullRequest struct {
	Title     string `json:"title"`
	Head      string `json:"head"`
	Base      string `json:"base"`
	Body      string `json:"body"`
	AutoMerge bool   `json:"auto_merge"`
}

// CreatePullRequest opens a pull request. go-github's NewPullRequest does
// not carry the auto_merge field, so the request body is built directly and
// sent through the client's request machinery, keeping auth and error
// handling consistent with the other calls.
func (c *Client) CreatePullRequest(ctx context.Context, pr NewPullRequest) (*github.PullRequest, error) {
	u := fmt.Sprintf("repos/%s/%s/pulls", c.owner, c.repo)
	req, err := c.gh.NewRequest(http.MethodPost, u, pr)
	if err != nil {
		return nil, fmt.Errorf("failed to build pull request creation request: %w", err)
	}

	created := new(github.PullRequest)
	if _, err := c.gh.Do(ctx, req, created); err != nil {
		return nil, fmt.Errorf("failed to create pull request: %w", err)
	}
	return created, nil
}

// IsNotFound reports whether err is a GitHub API not-found response.
func IsNotFound(err error) bool {
	var errResp *github.ErrorResponse
	if !errors.As(err, &errResp) {
		return false
	}
	return errResp.Response != nil && errResp.Response.StatusCode == http.StatusNotFound
}
