// Package parser converts between raw Markdown files and typed notes: it
// extracts frontmatter, titles, and wikilinks, and renders managed notes
// back to bytes.
package parser

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/muninn/internal/models"
)

var wikilinkRe = regexp.MustCompile(`\[\[(.*?)\]\]`)

// ParseError reports a frontmatter block that is present but not valid YAML.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parser: malformed frontmatter: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Result holds the output of parsing a Markdown file.
type Result struct {
	Frontmatter    models.Frontmatter
	HasFrontmatter bool
	Body           string
	Title          string
	Links          []string
}

// Parse splits raw Markdown bytes into typed frontmatter and body. Files
// without a frontmatter block parse as body only; a block that is present
// but malformed yields a *ParseError.
func Parse(data []byte) (*Result, error) {
	fm, ok, body, err := splitFrontmatter(data)
	if err != nil {
		return nil, err
	}

	return &Result{
		Frontmatter:    fm,
		HasFrontmatter: ok,
		Body:           body,
		Title:          deriveTitle(body),
		Links:          extractLinks(body),
	}, nil
}

// splitFrontmatter separates YAML frontmatter (between leading --- delimiters)
// from the Markdown body. If no frontmatter is found the entire content is body.
func splitFrontmatter(data []byte) (models.Frontmatter, bool, string, error) {
	const delim = "---"

	var fm models.Frontmatter
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return fm, false, string(data), nil
	}

	// Find end delimiter.
	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		// No closing delimiter, treat everything as body.
		return fm, false, string(data), nil
	}

	yamlBlock := rest[:idx]
	// Body starts after the closing delimiter line.
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		return models.Frontmatter{}, false, "", &ParseError{Err: err}
	}

	return fm, true, body, nil
}

// Compose renders a managed note file: frontmatter block, H1 title, then
// content. An empty title omits the heading, which lets update paths write a
// replacement body verbatim. The output always ends with a newline.
func Compose(fm models.Frontmatter, title, content string) ([]byte, error) {
	head, err := yaml.Marshal(fm)
	if err != nil {
		return nil, fmt.Errorf("parser: marshal frontmatter: %w", err)
	}

	var b bytes.Buffer
	b.WriteString("---\n")
	b.Write(head)
	b.WriteString("---\n\n")
	if title != "" {
		fmt.Fprintf(&b, "# %s\n\n", title)
	}
	b.WriteString(content)
	if !bytes.HasSuffix(b.Bytes(), []byte("\n")) {
		b.WriteByte('\n')
	}
	return b.Bytes(), nil
}

// extractLinks returns deduplicated wikilink targets, normalising aliases.
func extractLinks(body string) []string {
	matches := wikilinkRe.FindAllStringSubmatch(body, -1)
	seen := make(map[string]struct{}, len(matches))
	var out []string
	for _, m := range matches {
		raw := m[1]
		// Handle aliases: [[Target|Alias]] → Target.
		target := raw
		if i := strings.Index(raw, "|"); i >= 0 {
			target = raw[:i]
		}
		target = strings.TrimSpace(target)
		if target == "" {
			continue
		}
		if _, ok := seen[target]; ok {
			continue
		}
		seen[target] = struct{}{}
		out = append(out, target)
	}
	return out
}

// deriveTitle returns the first H1 heading of the body, or empty string.
func deriveTitle(body string) string {
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}
