package mirror

import (
	"github.com/draftwire/draftwire/pkg/document"
	"github.com/draftwire/draftwire/pkg/log"
)

// DetectChanges compares the given documents against their mirror entries
// and returns those whose content differs, in the order given. A document
// with no mirror entry is always a change. Comparison is exact byte
// equality with no normalization.
//
// Detection is read-only; mirror entries are only written later, by
// Materialize, once staging is underway. If a mirror entry cannot be read
// the document is treated as changed rather than silently skipped.
func (s *Store) DetectChanges(docs []document.Document) []document.Document {
	var changed []document.Document

	for _, doc := range docs {
		entry, exists, err := s.entry(doc.Path)
		if err != nil {
			log.Warn("mirror entry unreadable, treating document as changed",
				"path", doc.Path, "error", err)
			changed = append(changed, doc)
			continue
		}
		if !exists || entry != doc.Content {
			changed = append(changed, doc)
		}
	}

	return changed
}
