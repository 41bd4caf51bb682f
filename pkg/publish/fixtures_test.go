package publish

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/draftwire/draftwire/pkg/mirror"
)

// initBareRemote creates an empty bare repository standing in for the
// hosted remote.
func initBareRemote(t *testing.T) string {
	t.Helper()

	dir := filepath.Join(t.TempDir(), "remote.git")
	if _, err := git.PlainInit(dir, true); err != nil {
		t.Fatalf("failed to init bare remote: %v", err)
	}
	return dir
}

// seedRemote pushes an initial commit with the given files to the bare
// remote's main branch and returns the commit hash.
func seedRemote(t *testing.T, bareDir string, files map[string]string) plumbing.Hash {
	t.Helper()

	work := t.TempDir()
	repo, err := git.PlainInit(work, false)
	if err != nil {
		t.Fatalf("failed to init work repo: %v", err)
	}

	mainRef := plumbing.NewBranchReferenceName("main")
	head := plumbing.NewSymbolicReference(plumbing.HEAD, mainRef)
	if err := repo.Storer.SetReference(head); err != nil {
		t.Fatalf("failed to point HEAD at main: %v", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		t.Fatalf("failed to get worktree: %v", err)
	}
	for path, content := range files {
		full := filepath.Join(work, filepath.FromSlash(path))
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatalf("failed to create dirs for %s: %v", path, err)
		}
		if err := os.WriteFile(full, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", path, err)
		}
		if _, err := worktree.Add(path); err != nil {
			t.Fatalf("failed to stage %s: %v", path, err)
		}
	}

	hash, err := worktree.Commit("seed", &git.CommitOptions{
		Author: &object.Signature{Name: "seed", Email: "seed@test", When: time.Now()},
	})
	if err != nil {
		t.Fatalf("failed to commit seed: %v", err)
	}

	if _, err := repo.CreateRemote(&gitconfig.RemoteConfig{
		Name: git.DefaultRemoteName,
		URLs: []string{bareDir},
	}); err != nil {
		t.Fatalf("failed to add remote: %v", err)
	}
	err = repo.Push(&git.PushOptions{
		RemoteName: git.DefaultRemoteName,
		RefSpecs:   []gitconfig.RefSpec{"refs/heads/main:refs/heads/main"},
	})
	if err != nil {
		t.Fatalf("failed to push seed: %v", err)
	}

	// Point the bare remote's HEAD at main so it advertises a default.
	bare, err := git.PlainOpen(bareDir)
	if err != nil {
		t.Fatalf("failed to open bare remote: %v", err)
	}
	bareHead := plumbing.NewSymbolicReference(plumbing.HEAD, mainRef)
	if err := bare.Storer.SetReference(bareHead); err != nil {
		t.Fatalf("failed to set bare HEAD: %v", err)
	}

	return hash
}

// newMirrorStore initializes a mirror pointed at the given remote.
func newMirrorStore(t *testing.T, remote string) *mirror.Store {
	t.Helper()

	store := mirror.NewStore(filepath.Join(t.TempDir(), "mirror"))
	if err := store.Init(remote); err != nil {
		t.Fatalf("failed to init mirror: %v", err)
	}
	return store
}

// openOps opens the mirror's git operations and fetches remote refs.
func openOps(t *testing.T, store *mirror.Store) *gitOps {
	t.Helper()

	ops, err := newGitOps(store, "")
	if err != nil {
		t.Fatalf("failed to open git ops: %v", err)
	}
	if err := ops.fetch(context.Background()); err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	return ops
}

// remoteBranches returns the branch refs the bare remote holds.
func remoteBranches(t *testing.T, bareDir string) map[string]plumbing.Hash {
	t.Helper()

	repo, err := git.PlainOpen(bareDir)
	if err != nil {
		t.Fatalf("failed to open bare remote: %v", err)
	}
	iter, err := repo.References()
	if err != nil {
		t.Fatalf("failed to list refs: %v", err)
	}

	branches := make(map[string]plumbing.Hash)
	_ = iter.ForEach(func(ref *plumbing.Reference) error {
		if ref.Name().IsBranch() {
			branches[ref.Name().Short()] = ref.Hash()
		}
		return nil
	})
	return branches
}

// commitCount counts commits reachable from the given branch on the bare
// remote.
func commitCount(t *testing.T, bareDir, branch string) int {
	t.Helper()

	repo, err := git.PlainOpen(bareDir)
	if err != nil {
		t.Fatalf("failed to open bare remote: %v", err)
	}
	ref, err := repo.Reference(plumbing.NewBranchReferenceName(branch), true)
	if err != nil {
		t.Fatalf("failed to resolve branch %s: %v", branch, err)
	}
	iter, err := repo.Log(&git.LogOptions{From: ref.Hash()})
	if err != nil {
		t.Fatalf("failed to log %s: %v", branch, err)
	}

	count := 0
	_ = iter.ForEach(func(*object.Commit) error {
		count++
		return nil
	})
	return count
}
