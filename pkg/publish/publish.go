// Package publish drives the synchronization of locally edited documents
// into the remote repository: change detection against the mirror, branch
// establishment, commit, push, and pull request creation.
package publish

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/go-github/v68/github"

	"github.com/draftwire/draftwire/pkg/auth"
	"github.com/draftwire/draftwire/pkg/document"
	"github.com/draftwire/draftwire/pkg/githubapi"
	"github.com/draftwire/draftwire/pkg/log"
	"github.com/draftwire/draftwire/pkg/mirror"
)

// RepoClient is the hosting-API surface the driver needs.
type RepoClient interface {
	// ResolveState fetches the remote default branch and emptiness.
	ResolveState(ctx context.Context) (*githubapi.RepoState, error)

	// CreatePullRequest opens a pull request.
	CreatePullRequest(ctx context.Context, pr githubapi.NewPullRequest) (*github.PullRequest, error)
}

// Default commit author identity.
const (
	DefaultAuthorName  = "draftwire bot"
	DefaultAuthorEmail = "bot@draftwire.dev"
)

// Driver runs a publish attempt end to end. A driver instance assumes at
// most one attempt in flight at a time; the mirror is a shared mutable
// resource with no internal locking.
type Driver struct {
	// Source provides the authoritative document set.
	Source document.Source

	// Mirror is the local repository mirror.
	Mirror *mirror.Store

	// Client talks to the hosting API. Nil is treated the same as missing
	// credentials.
	Client RepoClient

	// Credentials are the stored token/repository triple. Incomplete
	// credentials abort the attempt before any network or git call.
	Credentials *auth.Credentials

	// Now supplies the attempt timestamp for the publish branch name and
	// commit signature. Defaults to time.Now.
	Now func() time.Time

	// AuthorName and AuthorEmail override the commit author identity.
	AuthorName  string
	AuthorEmail string
}

// Outcome reports a finished publish attempt.
type Outcome struct {
	// Published is false when there was nothing to publish. That is a
	// success, not an error.
	Published bool

	// FirstCommit is true when the attempt seeded an empty repository, in
	// which case no pull request exists.
	FirstCommit bool

	// FileCount is the number of documents included.
	FileCount int

	// Branch is the branch the commit landed on: the default branch for a
	// first commit, the publish branch otherwise.
	Branch string

	// CommitMessage is the generated commit message.
	CommitMessage string

	// PullRequestURL is the created pull request, when one was requested.
	PullRequestURL string
}

// Summary renders the one-line human-readable outcome.
func (o *Outcome) Summary() string {
	if !o.Published {
		return "nothing to publish"
	}
	if o.FirstCommit {
		return fmt.Sprintf("published first commit to %s (%d file(s))", o.Branch, o.FileCount)
	}
	if o.PullRequestURL != "" {
		return fmt.Sprintf("published %d file(s) on %s, pull request: %s", o.FileCount, o.Branch, o.PullRequestURL)
	}
	return fmt.Sprintf("published %d file(s) on %s", o.FileCount, o.Branch)
}

// Publish runs one attempt. Steps are strictly sequential; any error from
// the remote-state, git, or pull-request stages aborts the attempt and is
// returned as one of the typed errors in this package. Already-pushed state
// is never rolled back: a retry produces a fresh publish branch, and the
// change detector recomputes from whatever the mirror holds.
func (d *Driver) Publish(ctx context.Context) (*Outcome, error) {
	if !d.Credentials.Complete() || d.Client == nil {
		return nil, &ConfigError{Reason: "no repository credentials stored, run login first"}
	}

	docs, err := d.Source.List()
	if err != nil {
		return nil, &ConfigError{Reason: fmt.Sprintf("cannot read documents: %v", err)}
	}

	changed := d.Mirror.DetectChanges(docs)
	if len(changed) == 0 {
		log.Info("no document changes detected")
		return &Outcome{Published: false}, nil
	}
	log.Info("detected changed documents", "count", len(changed))

	gitOps, err := newGitOps(d.Mirror, d.Credentials.Token)
	if err != nil {
		return nil, &GitError{Op: "open mirror", Err: err}
	}

	// Remote refs must be current before the repository state is resolved
	// and branch decisions are made.
	if err := gitOps.fetch(ctx); err != nil {
		return nil, &GitError{Op: "fetch", Err: err}
	}

	state, err := d.Client.ResolveState(ctx)
	if err != nil {
		return nil, &RemoteStateError{Err: err}
	}

	orchestrator := newOrchestrator(gitOps)
	if err := orchestrator.EstablishBase(ctx, state); err != nil {
		return nil, err
	}

	branch := state.DefaultBranch
	if !state.Empty {
		branch, err = orchestrator.BeginPublishBranch(d.now())
		if err != nil {
			return nil, err
		}
	}

	paths := make([]string, len(changed))
	for i, doc := range changed {
		if err := d.Mirror.Materialize(doc); err != nil {
			return nil, &GitError{Op: "materialize", Err: err}
		}
		paths[i] = doc.Path
	}
	if err := gitOps.stage(paths); err != nil {
		return nil, &GitError{Op: "stage", Err: err}
	}

	message := CommitMessage(changed, state.Empty)
	hash, err := gitOps.commit(message, d.authorName(), d.authorEmail(), d.now())
	if err != nil {
		return nil, &GitError{Op: "commit", Err: err}
	}
	log.Info("committed changes", "branch", branch, "commit", hash, "message", message)

	if err := gitOps.push(ctx, branch); err != nil {
		return nil, &GitError{Op: "push", Err: err}
	}
	log.Info("pushed branch", "branch", branch)

	outcome := &Outcome{
		Published:     true,
		FirstCommit:   state.Empty,
		FileCount:     len(changed),
		Branch:        branch,
		CommitMessage: message,
	}

	if state.Empty {
		// The first commit seeds the default branch; there is no branch
		// pair to open a pull request between yet.
		return outcome, nil
	}

	pr, err := d.Client.CreatePullRequest(ctx, githubapi.NewPullRequest{
		Title:     message,
		Head:      branch,
		Base:      state.DefaultBranch,
		Body:      prBody(changed),
		AutoMerge: true,
	})
	if err != nil {
		return nil, &PullRequestError{Branch: branch, Err: err}
	}

	outcome.PullRequestURL = pr.GetHTMLURL()
	log.Info("created pull request", "url", outcome.PullRequestURL)
	return outcome, nil
}

func (d *Driver) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d *Driver) authorName() string {
	if d.AuthorName != "" {
		return d.AuthorName
	}
	return DefaultAuthorName
}

func (d *Driver) authorEmail() string {
	if d.AuthorEmail != "" {
		return d.AuthorEmail
	}
	return DefaultAuthorEmail
}

// UserMessage converts a publish error into the single message shown to
// the user. Errors are classified once, here, at the driver boundary.
func UserMessage(err error) string {
	var configErr *ConfigError
	if errors.As(err, &configErr) {
		return configErr.Error()
	}

	var remoteErr *RemoteStateError
	if errors.As(err, &remoteErr) {
		return fmt.Sprintf("publish aborted: %v", remoteErr)
	}

	var gitErr *GitError
	if errors.As(err, &gitErr) {
		return fmt.Sprintf("publish failed: %v (rerunning will retry from the current mirror state)", gitErr)
	}

	var prErr *PullRequestError
	if errors.As(err, &prErr) {
		return fmt.Sprintf("publish incomplete: %v (open a pull request from that branch manually or rerun)", prErr)
	}

	return fmt.Sprintf("publish failed: %v", err)
}
