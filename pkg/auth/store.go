// Package auth holds the credential store and the GitHub device
// authorization flow. Both are collaborators of the publish pipeline: the
// pipeline only reads credentials and treats their absence as "not
// configured".
package auth

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Credentials is the stored token/repository triple.
type Credentials struct {
	// Token is the bearer token used for API calls and git pushes.
	Token string `yaml:"token"`

	// Owner is the GitHub user or organisation owning the repository.
	Owner string `yaml:"owner"`

	// Repo is the repository name without owner.
	Repo string `yaml:"repo"`
}

// Complete reports whether all fields are set.
func (c *Credentials) Complete() bool {
	return c != nil && c.Token != "" && c.Owner != "" && c.Repo != ""
}

// RemoteURL returns the git-over-HTTPS URL of the configured repository.
func (c *Credentials) RemoteURL(host string) string {
	if host == "" {
		host = "github.com"
	}
	return fmt.Sprintf("https://%s/%s/%s.git", host, c.Owner, c.Repo)
}

// Store persists credentials as a YAML file.
type Store struct {
	// Path is the location of the credentials file.
	Path string
}

// NewStore creates a store backed by the file at path.
func NewStore(path string) *Store {
	return &Store{Path: path}
}

// Get loads the stored credentials. A missing file is not an error; it
// returns (nil, nil) and callers treat it as "not configured".
func (s *Store) Get() (*Credentials, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read credentials: %w", err)
	}

	var creds Credentials
	if err := yaml.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("failed to parse credentials file: %w", err)
	}
	return &creds, nil
}

// Set writes the credentials, creating the parent directory as needed. The
// file is private to the user since it holds a token.
func (s *Store) Set(creds Credentials) error {
	data, err := yaml.Marshal(creds)
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.Path), 0700); err != nil {
		return fmt.Errorf("failed to create credentials directory: %w", err)
	}
	if err := os.WriteFile(s.Path, data, 0600); err != nil {
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	return nil
}
