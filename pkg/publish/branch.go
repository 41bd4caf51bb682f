package publish

import (
	"context"
	"fmt"
	"time"

	"github.com/draftwire/draftwire/pkg/githubapi"
	"github.com/draftwire/draftwire/pkg/log"
)

// branchStrategy is one way of establishing the local default branch.
// Strategies are tried in order; the first to succeed wins.
type branchStrategy struct {
	name      string
	establish func(ctx context.Context) error
}

// Orchestrator establishes the branch a publish attempt commits to. It is
// entered once per attempt, after the remote repository state has been
// resolved; there are no retries beyond the ordered fallback strategies.
type Orchestrator struct {
	git *gitOps
}

// NewOrchestrator wraps the mirror's git operations.
func newOrchestrator(git *gitOps) *Orchestrator {
	return &Orchestrator{git: git}
}

// EstablishBase puts the mirror on the default branch.
//
// For an empty remote the default branch is checked out if it exists
// locally and created otherwise; the first commit must land directly on it,
// because a pull request cannot target a branch that does not exist
// upstream yet.
//
// For a non-empty remote three strategies are tried in order: checkout plus
// pull, force-create a branch tracking origin, force-create a plain local
// branch. The chain tolerates missing tracking refs, stale local branches,
// and a mirror that has never seen the remote.
func (o *Orchestrator) EstablishBase(ctx context.Context, state *githubapi.RepoState) error {
	if state.Empty {
		if err := o.git.checkout(state.DefaultBranch); err != nil {
			log.Debug("default branch missing locally, creating it",
				"branch", state.DefaultBranch)
			if err := o.git.forceCreateLocalBranch(state.DefaultBranch); err != nil {
				return &GitError{Op: "create default branch", Err: err}
			}
		}
		return nil
	}

	strategies := []branchStrategy{
		{
			name: "checkout and pull",
			establish: func(ctx context.Context) error {
				if err := o.git.checkout(state.DefaultBranch); err != nil {
					return err
				}
				return o.git.pull(ctx, state.DefaultBranch)
			},
		},
		{
			name: "track remote branch",
			establish: func(ctx context.Context) error {
				return o.git.checkoutTrackingRemote(state.DefaultBranch)
			},
		},
		{
			name: "create local branch",
			establish: func(ctx context.Context) error {
				return o.git.forceCreateLocalBranch(state.DefaultBranch)
			},
		},
	}

	var lastErr error
	for _, strategy := range strategies {
		if err := strategy.establish(ctx); err != nil {
			log.Debug("branch strategy failed, trying next",
				"strategy", strategy.name, "branch", state.DefaultBranch, "error", err)
			lastErr = err
			continue
		}
		log.Debug("established default branch",
			"strategy", strategy.name, "branch", state.DefaultBranch)
		return nil
	}

	return &GitError{
		Op:  "establish default branch",
		Err: fmt.Errorf("all strategies exhausted: %w", lastErr),
	}
}

// BeginPublishBranch creates and checks out the timestamped publish branch
// for this attempt and returns its name. Only used on the non-empty path;
// the default branch itself never receives a direct commit there.
func (o *Orchestrator) BeginPublishBranch(now time.Time) (string, error) {
	branch := BranchName(now)
	if err := o.git.createBranch(branch); err != nil {
		return "", &GitError{Op: "create publish branch", Err: err}
	}
	return branch, nil
}
