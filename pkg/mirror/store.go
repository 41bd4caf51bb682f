// Package mirror manages the local repository mirror: an isolated on-disk
// working copy of the remote repository, separate from the document source,
// used exclusively for git operations. The mirror doubles as the comparison
// baseline for change detection: a file inside the mirror is the last
// published content of the document at that path.
package mirror

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"

	"github.com/draftwire/draftwire/pkg/document"
)

// Store is the on-disk mirror of the remote repository.
type Store struct {
	// Dir is the filesystem location of the mirror.
	Dir string
}

// NewStore creates a store rooted at dir. The directory does not have to
// exist yet; Init creates it.
func NewStore(dir string) *Store {
	return &Store{Dir: dir}
}

// Init makes sure the mirror directory holds a git repository whose origin
// remote points at remoteURL. An existing repository is reused; if its
// origin URL differs the remote is repointed, which callers pair with a
// Reset when the repository identity changed.
func (s *Store) Init(remoteURL string) error {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create mirror directory: %w", err)
	}

	repo, err := git.PlainInit(s.Dir, false)
	if err == git.ErrRepositoryAlreadyExists {
		repo, err = git.PlainOpen(s.Dir)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize mirror repository: %w", err)
	}

	remote, err := repo.Remote(git.DefaultRemoteName)
	if err == git.ErrRemoteNotFound {
		_, err = repo.CreateRemote(&config.RemoteConfig{
			Name: git.DefaultRemoteName,
			URLs: []string{remoteURL},
		})
		if err != nil {
			return fmt.Errorf("failed to add origin remote: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to inspect origin remote: %w", err)
	}

	urls := remote.Config().URLs
	if len(urls) == 1 && urls[0] == remoteURL {
		return nil
	}

	if err := repo.DeleteRemote(git.DefaultRemoteName); err != nil {
		return fmt.Errorf("failed to repoint origin remote: %w", err)
	}
	if _, err := repo.CreateRemote(&config.RemoteConfig{
		Name: git.DefaultRemoteName,
		URLs: []string{remoteURL},
	}); err != nil {
		return fmt.Errorf("failed to repoint origin remote: %w", err)
	}
	return nil
}

// Open returns the mirror's git repository.
func (s *Store) Open() (*git.Repository, error) {
	repo, err := git.PlainOpen(s.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open mirror repository: %w", err)
	}
	return repo, nil
}

// Materialize writes the document's current content into the mirror at the
// document's path, creating intermediate directories as needed. The written
// file becomes the comparison baseline for future change detection.
func (s *Store) Materialize(doc document.Document) error {
	path := filepath.Join(s.Dir, filepath.FromSlash(doc.Path))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directories for %s: %w", doc.Path, err)
	}
	if err := os.WriteFile(path, []byte(doc.Content), 0644); err != nil {
		return fmt.Errorf("failed to write %s into mirror: %w", doc.Path, err)
	}
	return nil
}

// Reset deletes the entire mirror, including its git state. The next
// publish rebuilds it from scratch and treats every document as new.
func (s *Store) Reset() error {
	if err := os.RemoveAll(s.Dir); err != nil {
		return fmt.Errorf("failed to reset mirror: %w", err)
	}
	return nil
}

// entry reads the mirror entry at the given logical path. The second
// return value reports whether an entry exists.
func (s *Store) entry(path string) (string, bool, error) {
	content, err := os.ReadFile(filepath.Join(s.Dir, filepath.FromSlash(path)))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return string(content), true, nil
}
