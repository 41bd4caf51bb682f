package publish

import (
	"fmt"
	"strings"
	"time"

	"github.com/draftwire/draftwire/pkg/document"
)

var branchNameSanitizer = strings.NewReplacer(":", "-", ".", "-")

// BranchName derives the publish branch name from the attempt time:
// "post-" plus the RFC 3339 UTC timestamp with ':' and '.' replaced by '-'.
// Uniqueness relies on second granularity; two attempts within the same
// second would collide, which callers avoid by never running publish
// attempts concurrently.
func BranchName(now time.Time) string {
	return "post-" + branchNameSanitizer.Replace(now.UTC().Format(time.RFC3339))
}

// CommitMessage derives the commit message from the change set. A single
// document yields "Update post: <name>", several yield "Update posts: "
// with the names joined in change set order. On the very first publish
// into an empty repository the verb is "Add blog post".
func CommitMessage(changed []document.Document, firstPublish bool) string {
	names := make([]string, len(changed))
	for i, doc := range changed {
		names[i] = doc.Name
	}

	verb, noun := "Update", "post"
	if firstPublish {
		verb, noun = "Add", "blog post"
	}
	if len(names) > 1 {
		noun += "s"
	}

	return verb + " " + noun + ": " + strings.Join(names, ", ")
}

// prBody renders the pull request body: one line per changed document.
func prBody(changed []document.Document) string {
	var b strings.Builder
	if len(changed) == 1 {
		b.WriteString("Automated publish of 1 changed document:\n")
	} else {
		fmt.Fprintf(&b, "Automated publish of %d changed documents:\n", len(changed))
	}
	for _, doc := range changed {
		b.WriteString("\n- ")
		b.WriteString(doc.Path)
	}
	return b.String()
}
