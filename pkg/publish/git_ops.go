package publish

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"

	"github.com/draftwire/draftwire/pkg/mirror"
)

// gitOps wraps the git operations the publish pipeline performs on the
// repository mirror.
type gitOps struct {
	repo *git.Repository
	auth transport.AuthMethod
}

// newGitOps opens the mirror repository. The token is attached as HTTP
// basic auth only when origin is an HTTP remote; other transports (local
// paths in tests) take no credentials.
func newGitOps(store *mirror.Store, token string) (*gitOps, error) {
	repo, err := store.Open()
	if err != nil {
		return nil, err
	}

	ops := &gitOps{repo: repo}
	if token != "" && remoteIsHTTP(repo) {
		ops.auth = &githttp.BasicAuth{
			Username: "x-access-token",
			Password: token,
		}
	}
	return ops, nil
}

func remoteIsHTTP(repo *git.Repository) bool {
	remote, err := repo.Remote(git.DefaultRemoteName)
	if err != nil {
		return false
	}
	urls := remote.Config().URLs
	return len(urls) > 0 && strings.HasPrefix(urls[0], "http")
}

// fetch updates remote refs from origin. A remote with no commits yet has
// nothing to fetch and is not an error.
func (g *gitOps) fetch(ctx context.Context) error {
	err := g.repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: git.DefaultRemoteName,
		Auth:       g.auth,
	})
	if err == nil ||
		errors.Is(err, git.NoErrAlreadyUpToDate) ||
		errors.Is(err, transport.ErrEmptyRemoteRepository) {
		return nil
	}
	return fmt.Errorf("failed to fetch from origin: %w", err)
}

// checkout switches the worktree to an existing local branch.
func (g *gitOps) checkout(branch string) error {
	worktree, err := g.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}

	err = worktree.Checkout(&git.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(branch),
	})
	if err != nil {
		return fmt.Errorf("failed to checkout branch %s: %w", branch, err)
	}
	return nil
}

// pull fast-forwards the current branch from origin.
func (g *gitOps) pull(ctx context.Context, branch string) error {
	worktree, err := g.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}

	err = worktree.PullContext(ctx, &git.PullOptions{
		RemoteName:    git.DefaultRemoteName,
		ReferenceName: plumbing.NewBranchReferenceName(branch),
		Auth:          g.auth,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("failed to pull %s: %w", branch, err)
	}
	return nil
}

// checkoutTrackingRemote force-creates a local branch at origin/<branch>,
// records the tracking configuration, and checks it out.
func (g *gitOps) checkoutTrackingRemote(branch string) error {
	remoteRef, err := g.repo.Reference(
		plumbing.NewRemoteReferenceName(git.DefaultRemoteName, branch), true)
	if err != nil {
		return fmt.Errorf("remote ref origin/%s not found: %w", branch, err)
	}

	if err := g.removeLocalBranch(branch); err != nil {
		return err
	}

	worktree, err := g.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}
	err = worktree.Checkout(&git.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(branch),
		Hash:   remoteRef.Hash(),
		Create: true,
		Force:  true,
	})
	if err != nil {
		return fmt.Errorf("failed to create tracking branch %s: %w", branch, err)
	}

	// Record tracking config so later pulls know their upstream.
	if err := g.repo.DeleteBranch(branch); err != nil && !errors.Is(err, git.ErrBranchNotFound) {
		return fmt.Errorf("failed to clear stale branch config for %s: %w", branch, err)
	}
	err = g.repo.CreateBranch(&config.Branch{
		Name:   branch,
		Remote: git.DefaultRemoteName,
		Merge:  plumbing.NewBranchReferenceName(branch),
	})
	if err != nil {
		return fmt.Errorf("failed to record tracking config for %s: %w", branch, err)
	}
	return nil
}

// forceCreateLocalBranch creates and checks out an untracked local branch
// named branch at the current HEAD, replacing any stale branch of the same
// name. On a repository with no commits the branch cannot have a ref yet,
// so HEAD is pointed at it symbolically, matching checkout -b on an empty
// repository.
func (g *gitOps) forceCreateLocalBranch(branch string) error {
	branchRef := plumbing.NewBranchReferenceName(branch)

	if !g.hasCommits() {
		head := plumbing.NewSymbolicReference(plumbing.HEAD, branchRef)
		if err := g.repo.Storer.SetReference(head); err != nil {
			return fmt.Errorf("failed to point HEAD at %s: %w", branch, err)
		}
		return nil
	}

	if err := g.removeLocalBranch(branch); err != nil {
		return err
	}

	worktree, err := g.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}
	err = worktree.Checkout(&git.CheckoutOptions{
		Branch: branchRef,
		Create: true,
		Force:  true,
	})
	if err != nil {
		return fmt.Errorf("failed to create branch %s: %w", branch, err)
	}
	return nil
}

// createBranch creates and checks out a new branch at the current HEAD.
// The branch must not already exist.
func (g *gitOps) createBranch(branch string) error {
	worktree, err := g.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}

	// Keep preserves whatever a previously aborted attempt left in the
	// worktree; detection has already decided what gets staged.
	err = worktree.Checkout(&git.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(branch),
		Create: true,
		Keep:   true,
	})
	if err != nil {
		return fmt.Errorf("failed to create branch %s: %w", branch, err)
	}
	return nil
}

// stage adds the given logical paths to the index.
func (g *gitOps) stage(paths []string) error {
	worktree, err := g.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}

	for _, path := range paths {
		if _, err := worktree.Add(path); err != nil {
			return fmt.Errorf("failed to stage %s: %w", path, err)
		}
	}
	return nil
}

// commit records the staged changes. Returns the commit hash.
func (g *gitOps) commit(message, authorName, authorEmail string, when time.Time) (string, error) {
	worktree, err := g.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to get worktree: %w", err)
	}

	commit, err := worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  authorName,
			Email: authorEmail,
			When:  when,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to commit: %w", err)
	}
	return commit.String(), nil
}

// push publishes the named branch to origin.
func (g *gitOps) push(ctx context.Context, branch string) error {
	refSpec := config.RefSpec("refs/heads/" + branch + ":refs/heads/" + branch)

	err := g.repo.PushContext(ctx, &git.PushOptions{
		RemoteName: git.DefaultRemoteName,
		RefSpecs:   []config.RefSpec{refSpec},
		Auth:       g.auth,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("failed to push branch %s: %w", branch, err)
	}
	return nil
}

// currentBranch returns the short name of the branch HEAD points at.
func (g *gitOps) currentBranch() (string, error) {
	head, err := g.repo.Reference(plumbing.HEAD, false)
	if err != nil {
		return "", fmt.Errorf("failed to read HEAD: %w", err)
	}
	target := head.Target()
	if !target.IsBranch() {
		return "", fmt.Errorf("HEAD is not on a branch")
	}
	return target.Short(), nil
}

// hasCommits reports whether HEAD resolves to a commit.
func (g *gitOps) hasCommits() bool {
	_, err := g.repo.Head()
	return err == nil
}

func (g *gitOps) removeLocalBranch(branch string) error {
	branchRef := plumbing.NewBranchReferenceName(branch)
	if _, err := g.repo.Reference(branchRef, false); err != nil {
		return nil
	}
	if err := g.repo.Storer.RemoveReference(branchRef); err != nil {
		return fmt.Errorf("failed to remove stale branch %s: %w", branch, err)
	}
	return nil
}
