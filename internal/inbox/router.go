// Package inbox classifies captured content and routes it into the vault:
// detect what a captured item is, pick its destination folder, suggest tags
// from the existing vocabulary, and create the note.
package inbox

import (
	"regexp"
	"strings"
)

// SourceType classifies an inbox item.
type SourceType string

const (
	SourceURL     SourceType = "url"
	SourceCode    SourceType = "code"
	SourceThought SourceType = "thought"
	// SourceUnknown marks failed batch rows.
	SourceUnknown SourceType = "unknown"
)

var (
	urlRe         = regexp.MustCompile(`https?://`)
	codeKeywordRe = regexp.MustCompile(`(?m)^\s*(def|class|function|const|let|var|import|from|public|private|async)\b`)
)

// documentationDomains marks high-value documentation sites that route to
// the documents folder instead of general clippings.
var documentationDomains = []string{
	"learn.microsoft.com",
	"docs.anthropic.com",
	"docs.python.org",
	"developer.mozilla.org",
	"docs.aws.amazon.com",
	"cloud.google.com/docs",
	"kubernetes.io/docs",
	"reactjs.org/docs",
	"vuejs.org/guide",
	"angular.io/docs",
}

// folderTypes resolves the raw note type used when creating a note in a
// routed folder. Unmapped folders fall back to "note".
var folderTypes = map[string]string{
	"00 - Inbox/00a - Active":    "thought",
	"00 - Inbox/00b - Backlog":   "thought",
	"00 - Inbox/00c - Clippings": "clipping",
	"00 - Inbox/00d - Documents": "clipping",
	"00 - Inbox/00r - Research":  "thought",
	"00 - Inbox/00t - Thoughts":  "thought",

	"01 - Notes/01a - Atomic":   "note",
	"01 - Notes/01m - Meetings": "meeting",
	"01 - Notes/01r - Research": "research",

	"02 - MOCs": "moc",

	"03 - Projects/03b - Personal": "project",
	"03 - Projects/03c - Work":     "project",
	"03 - Projects/03p - PRPs":     "prp",

	"04 - Areas": "area",

	"05 - Resources/05c - Clippings": "clipping",
	"05 - Resources/05d - Documents": "resource",
	"05 - Resources/05e - Examples":  "resource",
	"05 - Resources/05l - Learning":  "resource",
	"05 - Resources/05r - Repos":     "resource",
}

// DetectSourceType classifies content. The URL check has absolute priority;
// content carrying both a URL and a code fence still classifies as url.
// The title participates in the contract but classification keys on the
// content alone.
func DetectSourceType(content, title string) SourceType {
	if urlRe.MatchString(content) {
		return SourceURL
	}
	if strings.Contains(content, "```") || codeKeywordRe.MatchString(content) {
		return SourceCode
	}
	return SourceThought
}

// SuggestFolder returns the destination folder for a classified item.
func SuggestFolder(sourceType SourceType, content string) string {
	switch sourceType {
	case SourceURL:
		for _, domain := range documentationDomains {
			if strings.Contains(content, domain) {
				return "05 - Resources/05d - Documents"
			}
		}
		return "05 - Resources/05c - Clippings"
	case SourceCode:
		return "05 - Resources/05e - Examples"
	default:
		return "01 - Notes/01a - Atomic"
	}
}

// FolderType returns the raw note type for a destination folder.
func FolderType(folder string) string {
	if t, ok := folderTypes[folder]; ok {
		return t
	}
	return "note"
}
