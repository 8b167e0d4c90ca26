// Package vault implements the convention-enforcing note store: the folder
// taxonomy, identifier allocation, tag normalization, and CRUD over the
// storage layer.
package vault

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/starford/muninn/internal/apperr"
)

// Folders maps every declared vault folder to the raw note types it accepts.
var Folders = map[string][]string{
	"00 - Inbox/00a - Active":     {"thought", "todo"},
	"00 - Inbox/00b - Backlog":    {"thought", "todo"},
	"00 - Inbox/00c - Clippings":  {"clipping"},
	"00 - Inbox/00d - Documents":  {"clipping", "resource"},
	"00 - Inbox/00e - Excalidraw": {"clipping"},
	"00 - Inbox/00r - Research":   {"thought", "note"},
	"00 - Inbox/00t - Thoughts":   {"thought"},
	"00 - Inbox/00v - Video":      {"clipping"},

	"01 - Notes/01a - Atomic":   {"note"},
	"01 - Notes/01m - Meetings": {"note"},
	"01 - Notes/01r - Research": {"note"},

	"02 - MOCs": {"moc"},

	"03 - Projects/03b - Personal": {"project"},
	"03 - Projects/03c - Work":     {"project"},
	"03 - Projects/03p - PRPs":     {"note"},

	"04 - Areas": {"area"},

	"05 - Resources/05c - Clippings": {"clipping"},
	"05 - Resources/05d - Documents": {"resource"},
	"05 - Resources/05e - Examples":  {"resource"},
	"05 - Resources/05l - Learning":  {"resource", "clipping"},
	"05 - Resources/05r - Repos":     {"resource"},
	"05 - Resources/05v - Video":     {"clipping"},
}

// typeDisplayNames maps raw note types to the labels stored in frontmatter.
// Resource-flavoured types stay lowercase to match the clipping templates.
var typeDisplayNames = map[string]string{
	"note":     "Note",
	"research": "Research",
	"meeting":  "Meeting",
	"thought":  "Thought",
	"moc":      "Map of Content",
	"project":  "Project",
	"area":     "Area",
	"resource": "resource",
	"clipping": "resource",
	"todo":     "Todo",
	"prp":      "PRP",
}

var (
	invalidTagChars = regexp.MustCompile(`[^a-z0-9-]`)
	hyphenRuns      = regexp.MustCompile(`-+`)
)

// FolderNames returns the declared folders in sorted order.
func FolderNames() []string {
	names := make([]string, 0, len(Folders))
	for name := range Folders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DisplayType returns the frontmatter label for a raw note type. Unknown
// types fall back to capitalizing each word.
func DisplayType(raw string) string {
	if d, ok := typeDisplayNames[raw]; ok {
		return d
	}
	words := strings.Fields(raw)
	for i, w := range words {
		words[i] = capitalize(w)
	}
	return strings.Join(words, " ")
}

func capitalize(w string) string {
	r, size := utf8.DecodeRuneInString(w)
	if r == utf8.RuneError {
		return w
	}
	return string(unicode.ToUpper(r)) + w[size:]
}

// NormalizeTag converts a tag to lowercase-hyphenated form: spaces and
// underscores become hyphens, other punctuation is dropped, hyphen runs
// collapse, and edge hyphens are trimmed. Normalization is idempotent.
func NormalizeTag(tag string) string {
	n := strings.ToLower(tag)
	n = strings.ReplaceAll(n, " ", "-")
	n = strings.ReplaceAll(n, "_", "-")
	n = invalidTagChars.ReplaceAllString(n, "")
	n = hyphenRuns.ReplaceAllString(n, "-")
	return strings.Trim(n, "-")
}

// FolderSlug converts a declared folder path to its permalink form, keeping
// the / separators: "01 - Notes/01a - Atomic" becomes "01-notes/01a-atomic".
func FolderSlug(folder string) string {
	s := strings.ToLower(folder)
	s = strings.ReplaceAll(s, " - ", "-")
	return strings.ReplaceAll(s, " ", "-")
}

// Permalink computes the canonical permalink for a note.
func Permalink(folder, id string) string {
	return FolderSlug(folder) + "/" + id
}

// ValidateFolder checks that folder is part of the taxonomy.
func ValidateFolder(folder string) error {
	if _, ok := Folders[folder]; !ok {
		return fmt.Errorf("vault: %w: unknown folder %q (declared folders: %s)",
			apperr.ErrValidation, folder, strings.Join(FolderNames(), ", "))
	}
	return nil
}

// ValidateFolderType checks a folder and raw note type against the taxonomy.
func ValidateFolderType(folder, noteType string) error {
	if err := ValidateFolder(folder); err != nil {
		return err
	}
	allowed := Folders[folder]
	for _, t := range allowed {
		if t == noteType {
			return nil
		}
	}
	return fmt.Errorf("vault: %w: type %q not allowed in folder %q (allowed types: %s)",
		apperr.ErrValidation, noteType, folder, strings.Join(allowed, ", "))
}
