package githubapi

import (
	"context"
	"fmt"

	"github.com/draftwire/draftwire/pkg/log"
)

// DefaultBranchFallback is used when the API reports no default branch,
// which happens for repositories that have never had a commit.
const DefaultBranchFallback = "main"

// RepoState describes the remote repository as seen at the start of a
// publish attempt. It is fetched fresh per attempt and never cached; the
// remote can gain its first commit from another client at any time.
type RepoState struct {
	// DefaultBranch is the branch the host treats as primary.
	DefaultBranch string

	// Empty reports that the repository has no commits yet: its default
	// branch does not exist on the remote.
	Empty bool
}

// ResolveState determines the remote default branch and whether the
// repository is empty.
//
// The hosting API has no direct "empty repository" flag, so emptiness is
// inferred from a failing probe: if the branch-detail lookup for the
// default branch comes back not-found, the repository has no commits yet.
// Only the not-found outcome maps to Empty; any other failure, on either
// query, aborts the resolve.
func (c *Client) ResolveState(ctx context.Context) (*RepoState, error) {
	repo, err := c.GetRepository(ctx)
	if err != nil {
		return nil, err
	}

	defaultBranch := repo.GetDefaultBranch()
	if defaultBranch == "" {
		defaultBranch = DefaultBranchFallback
	}

	exists, err := c.BranchExists(ctx, defaultBranch)
	if err != nil {
		return nil, fmt.Errorf("failed to probe default branch: %w", err)
	}

	state := &RepoState{
		DefaultBranch: defaultBranch,
		Empty:         !exists,
	}
	log.Debug("resolved remote repository state",
		"default_branch", state.DefaultBranch, "empty", state.Empty)
	return state, nil
}
