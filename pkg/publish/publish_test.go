package publish

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-github/v68/github"

	"github.com/draftwire/draftwire/pkg/auth"
	"github.com/draftwire/draftwire/pkg/document"
	"github.com/draftwire/draftwire/pkg/githubapi"
	"github.com/draftwire/draftwire/pkg/mirror"
)

// fakeRepoClient is a RepoClient with canned responses.
type fakeRepoClient struct {
	state    *githubapi.RepoState
	stateErr error

	prURL   string
	prErr   error
	prCalls int
	lastPR  githubapi.NewPullRequest
}

func (f *fakeRepoClient) ResolveState(ctx context.Context) (*githubapi.RepoState, error) {
	if f.stateErr != nil {
		return nil, f.stateErr
	}
	return f.state, nil
}

func (f *fakeRepoClient) CreatePullRequest(ctx context.Context, pr githubapi.NewPullRequest) (*github.PullRequest, error) {
	f.prCalls++
	f.lastPR = pr
	if f.prErr != nil {
		return nil, f.prErr
	}
	url := f.prURL
	return &github.PullRequest{HTMLURL: &url}, nil
}

func testCredentials() *auth.Credentials {
	return &auth.Credentials{Token: "test-token", Owner: "octocat", Repo: "blog"}
}

// newDriver builds a driver over a fresh source dir, mirror, and fake
// client, returning all three for assertions.
func newDriver(t *testing.T, remote string, client *fakeRepoClient) (*Driver, string, *mirror.Store) {
	t.Helper()

	sourceDir := t.TempDir()
	store := newMirrorStore(t, remote)

	driver := &Driver{
		Source:      document.NewDirSource(sourceDir),
		Mirror:      store,
		Client:      client,
		Credentials: testCredentials(),
		Now: func() time.Time {
			return time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)
		},
	}
	return driver, sourceDir, store
}

func writeSource(t *testing.T, dir, rel, content string) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create dirs for %s: %v", rel, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", rel, err)
	}
}

func TestPublishWithoutCredentials(t *testing.T) {
	driver := &Driver{Credentials: nil}

	_, err := driver.Publish(context.Background())
	var configErr *ConfigError
	if !errors.As(err, &configErr) {
		t.Fatalf("Publish() error = %v, want *ConfigError", err)
	}
}

func TestPublishNothingToPublish(t *testing.T) {
	client := &fakeRepoClient{state: &githubapi.RepoState{DefaultBranch: "main"}}
	driver, _, _ := newDriver(t, initBareRemote(t), client)

	outcome, err := driver.Publish(context.Background())
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if outcome.Published {
		t.Error("Published = true, want false for empty change set")
	}
	if outcome.Summary() != "nothing to publish" {
		t.Errorf("Summary() = %q, want %q", outcome.Summary(), "nothing to publish")
	}
	if client.prCalls != 0 {
		t.Errorf("CreatePullRequest called %d times, want 0", client.prCalls)
	}
}

func TestPublishFirstCommitToEmptyRepository(t *testing.T) {
	bare := initBareRemote(t)
	client := &fakeRepoClient{state: &githubapi.RepoState{DefaultBranch: "main", Empty: true}}
	driver, sourceDir, _ := newDriver(t, bare, client)
	writeSource(t, sourceDir, "hello.md", "Hi")

	outcome, err := driver.Publish(context.Background())
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	if !outcome.FirstCommit {
		t.Error("FirstCommit = false, want true")
	}
	if outcome.Branch != "main" {
		t.Errorf("Branch = %q, want %q", outcome.Branch, "main")
	}
	if outcome.CommitMessage != "Add blog post: hello" {
		t.Errorf("CommitMessage = %q, want %q", outcome.CommitMessage, "Add blog post: hello")
	}
	if outcome.FileCount != 1 {
		t.Errorf("FileCount = %d, want 1", outcome.FileCount)
	}
	if client.prCalls != 0 {
		t.Errorf("CreatePullRequest called %d times, want 0 on first commit", client.prCalls)
	}
	if !strings.Contains(outcome.Summary(), "first commit") {
		t.Errorf("Summary() = %q, want a first-commit success", outcome.Summary())
	}

	branches := remoteBranches(t, bare)
	if len(branches) != 1 {
		t.Fatalf("remote has %d branches %v, want only main", len(branches), branches)
	}
	if got := commitCount(t, bare, "main"); got != 1 {
		t.Errorf("main has %d commits, want 1", got)
	}
}

func TestPublishChangeToNonEmptyRepository(t *testing.T) {
	bare := initBareRemote(t)
	seedHash := seedRemote(t, bare, map[string]string{"a.md": "old content"})

	client := &fakeRepoClient{
		state: &githubapi.RepoState{DefaultBranch: "main", Empty: false},
		prURL: "https://github.com/octocat/blog/pull/7",
	}
	driver, sourceDir, _ := newDriver(t, bare, client)
	writeSource(t, sourceDir, "a.md", "new content")

	outcome, err := driver.Publish(context.Background())
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	wantBranch := "post-2024-05-01T10-30-00Z"
	if outcome.Branch != wantBranch {
		t.Errorf("Branch = %q, want %q", outcome.Branch, wantBranch)
	}
	if outcome.CommitMessage != "Update post: a" {
		t.Errorf("CommitMessage = %q, want %q", outcome.CommitMessage, "Update post: a")
	}
	if outcome.FileCount != 1 {
		t.Errorf("FileCount = %d, want 1", outcome.FileCount)
	}
	if outcome.PullRequestURL != client.prURL {
		t.Errorf("PullRequestURL = %q, want %q", outcome.PullRequestURL, client.prURL)
	}

	if client.prCalls != 1 {
		t.Fatalf("CreatePullRequest called %d times, want 1", client.prCalls)
	}
	if client.lastPR.Base != "main" || client.lastPR.Head != wantBranch {
		t.Errorf("PR base/head = %q/%q, want main/%s", client.lastPR.Base, client.lastPR.Head, wantBranch)
	}
	if !client.lastPR.AutoMerge {
		t.Error("PR AutoMerge = false, want true")
	}
	if client.lastPR.Title != "Update post: a" {
		t.Errorf("PR title = %q, want %q", client.lastPR.Title, "Update post: a")
	}

	// The publish branch carries the change; the default branch is untouched.
	branches := remoteBranches(t, bare)
	if _, ok := branches[wantBranch]; !ok {
		t.Errorf("remote branches = %v, missing %s", branches, wantBranch)
	}
	if branches["main"] != seedHash {
		t.Errorf("main moved from %s to %s, want untouched", seedHash, branches["main"])
	}
}

func TestPublishIsIdempotentAfterSuccess(t *testing.T) {
	bare := initBareRemote(t)
	seedRemote(t, bare, map[string]string{"a.md": "old content"})

	client := &fakeRepoClient{
		state: &githubapi.RepoState{DefaultBranch: "main", Empty: false},
		prURL: "https://github.com/octocat/blog/pull/7",
	}
	driver, sourceDir, _ := newDriver(t, bare, client)
	writeSource(t, sourceDir, "a.md", "new content")

	if _, err := driver.Publish(context.Background()); err != nil {
		t.Fatalf("first Publish() error = %v", err)
	}

	outcome, err := driver.Publish(context.Background())
	if err != nil {
		t.Fatalf("second Publish() error = %v", err)
	}
	if outcome.Published {
		t.Error("second Publish() published, want nothing to publish")
	}
	if client.prCalls != 1 {
		t.Errorf("CreatePullRequest called %d times across two runs, want 1", client.prCalls)
	}
}

func TestPublishMultipleDocuments(t *testing.T) {
	bare := initBareRemote(t)
	seedRemote(t, bare, map[string]string{"existing.md": "kept"})

	client := &fakeRepoClient{
		state: &githubapi.RepoState{DefaultBranch: "main", Empty: false},
		prURL: "https://github.com/octocat/blog/pull/8",
	}
	driver, sourceDir, _ := newDriver(t, bare, client)
	writeSource(t, sourceDir, "a.md", "first")
	writeSource(t, sourceDir, "b.md", "second")

	outcome, err := driver.Publish(context.Background())
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if outcome.CommitMessage != "Update posts: a, b" {
		t.Errorf("CommitMessage = %q, want %q", outcome.CommitMessage, "Update posts: a, b")
	}
	if outcome.FileCount != 2 {
		t.Errorf("FileCount = %d, want 2", outcome.FileCount)
	}
}

func TestPublishRemoteStateFailureAborts(t *testing.T) {
	client := &fakeRepoClient{stateErr: fmt.Errorf("boom")}
	driver, sourceDir, _ := newDriver(t, initBareRemote(t), client)
	writeSource(t, sourceDir, "a.md", "content")

	_, err := driver.Publish(context.Background())
	var remoteErr *RemoteStateError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("Publish() error = %v, want *RemoteStateError", err)
	}
	if client.prCalls != 0 {
		t.Errorf("CreatePullRequest called %d times, want 0", client.prCalls)
	}
}

func TestPublishPullRequestRejection(t *testing.T) {
	bare := initBareRemote(t)
	seedRemote(t, bare, map[string]string{"a.md": "old"})

	client := &fakeRepoClient{
		state: &githubapi.RepoState{DefaultBranch: "main", Empty: false},
		prErr: fmt.Errorf("422 Validation Failed"),
	}
	driver, sourceDir, _ := newDriver(t, bare, client)
	writeSource(t, sourceDir, "a.md", "new")

	_, err := driver.Publish(context.Background())
	var prErr *PullRequestError
	if !errors.As(err, &prErr) {
		t.Fatalf("Publish() error = %v, want *PullRequestError", err)
	}

	// The branch was pushed before the rejection and stays pushed.
	if _, ok := remoteBranches(t, bare)[prErr.Branch]; !ok {
		t.Errorf("pushed branch %s missing from remote after PR rejection", prErr.Branch)
	}

	// An immediate rerun finds nothing new to commit.
	outcome, err := driver.Publish(context.Background())
	if err != nil {
		t.Fatalf("rerun Publish() error = %v", err)
	}
	if outcome.Published {
		t.Error("rerun published, want nothing to publish")
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "config error",
			err:  &ConfigError{Reason: "no repository credentials stored, run login first"},
			want: "not configured",
		},
		{
			name: "remote state error",
			err:  &RemoteStateError{Err: fmt.Errorf("boom")},
			want: "publish aborted",
		},
		{
			name: "git error",
			err:  &GitError{Op: "push", Err: fmt.Errorf("boom")},
			want: "rerunning will retry",
		},
		{
			name: "pull request error",
			err:  &PullRequestError{Branch: "post-x", Err: fmt.Errorf("boom")},
			want: "manually",
		},
		{
			name: "unclassified error",
			err:  fmt.Errorf("boom"),
			want: "publish failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); !strings.Contains(got, tt.want) {
				t.Errorf("UserMessage() = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}
