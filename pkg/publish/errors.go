package publish

import "fmt"

// The publish pipeline classifies failures into four kinds. Each kind is a
// distinct error type so callers can branch with errors.As, and each is
// converted into exactly one user-facing message at the driver boundary.

// ConfigError means the publish attempt could not start: no credentials are
// stored. No network or git call has been made.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("not configured: %s", e.Reason)
}

// RemoteStateError means the remote repository state could not be resolved
// for a reason other than the empty-repository probe.
type RemoteStateError struct {
	Err error
}

func (e *RemoteStateError) Error() string {
	return fmt.Sprintf("failed to resolve remote repository state: %v", e.Err)
}

func (e *RemoteStateError) Unwrap() error { return e.Err }

// GitError means a git operation failed outside the documented branch
// fallbacks. The mirror is left as-is; the next attempt recomputes changes
// from the current mirror content and self-heals.
type GitError struct {
	Op  string
	Err error
}

func (e *GitError) Error() string {
	return fmt.Sprintf("git %s failed: %v", e.Op, e.Err)
}

func (e *GitError) Unwrap() error { return e.Err }

// PullRequestError means the branch was pushed but the hosting API rejected
// pull request creation. The pushed branch is left in place; a pull request
// can be opened from it manually.
type PullRequestError struct {
	Branch string
	Err    error
}

func (e *PullRequestError) Error() string {
	return fmt.Sprintf("branch %s was pushed but pull request creation failed: %v", e.Branch, e.Err)
}

func (e *PullRequestError) Unwrap() error { return e.Err }
