// Package document defines the document model draftwire publishes and the
// source it reads documents from. The publish pipeline treats document
// bodies as opaque bytes; it never writes back to a source.
package document

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Document is a single locally edited document.
type Document struct {
	// Path is the logical path of the document, relative to its source,
	// always with forward slashes. It is the document's identity and the
	// path the document is materialized at inside the repository mirror.
	Path string

	// Name is the short display name used in commit messages and PR bodies.
	Name string

	// Content is the current document body.
	Content string
}

// Source lists documents and reads their content.
type Source interface {
	// List returns all documents, including content, in a stable order.
	List() ([]Document, error)

	// Read returns the current content of the document at path.
	Read(path string) (string, error)
}

// DirSource reads documents from a directory tree on the local filesystem.
// Every regular file with a matching extension is a document; its logical
// path is the slash-separated path relative to the root.
type DirSource struct {
	// Root is the directory containing the documents.
	Root string

	// Extensions restricts which files are documents (e.g. ".md"). Empty
	// means every regular file.
	Extensions []string
}

// NewDirSource creates a source over root that lists markdown files.
func NewDirSource(root string) *DirSource {
	return &DirSource{
		Root:       root,
		Extensions: []string{".md", ".markdown"},
	}
}

// List implements Source.
func (s *DirSource) List() ([]Document, error) {
	var docs []Document

	err := filepath.WalkDir(s.Root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			// Dotted directories (.git, editor state) are not document trees.
			if entry.Name() != "." && strings.HasPrefix(entry.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !s.matches(entry.Name()) {
			return nil
		}

		rel, err := filepath.Rel(s.Root, path)
		if err != nil {
			return err
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read document %s: %w", rel, err)
		}

		logical := filepath.ToSlash(rel)
		docs = append(docs, Document{
			Path:    logical,
			Name:    DisplayName(logical),
			Content: string(content),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list documents in %s: %w", s.Root, err)
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Path < docs[j].Path })
	return docs, nil
}

// Read implements Source.
func (s *DirSource) Read(path string) (string, error) {
	content, err := os.ReadFile(filepath.Join(s.Root, filepath.FromSlash(path)))
	if err != nil {
		return "", fmt.Errorf("failed to read document %s: %w", path, err)
	}
	return string(content), nil
}

func (s *DirSource) matches(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	if len(s.Extensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range s.Extensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// DisplayName derives a document's short name from its logical path: the
// base name without extension.
func DisplayName(path string) string {
	base := path
	if idx := strings.LastIndex(base, "/"); idx >= 0 {
		base = base[idx+1:]
	}
	if ext := filepath.Ext(base); ext != "" {
		base = base[:len(base)-len(ext)]
	}
	return base
}
