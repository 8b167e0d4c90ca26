// Package models defines the domain types for Muninn.
package models

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var (
	// IDPattern matches the 14-digit timestamp identifiers used as filename stems.
	IDPattern = regexp.MustCompile(`^\d{14}$`)
	// TagPattern matches normalized tags.
	TagPattern = regexp.MustCompile(`^[a-z0-9-]+$`)
	// DatePattern matches the YYYY-MM-DD date fields.
	DatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	// PermalinkPattern matches folder-slug/id permalinks.
	PermalinkPattern = regexp.MustCompile(`^[a-z0-9/-]+$`)
)

// Frontmatter is the typed YAML header carried by every managed note.
// Field order here fixes the serialized order.
type Frontmatter struct {
	ID        string   `yaml:"id" json:"id"`
	Type      string   `yaml:"type" json:"type"`
	Tags      []string `yaml:"tags" json:"tags"`
	Created   string   `yaml:"created" json:"created"`
	Updated   string   `yaml:"updated" json:"updated"`
	Permalink string   `yaml:"permalink" json:"permalink"`
	Status    string   `yaml:"status,omitempty" json:"status,omitempty"`
}

// Validate checks the frontmatter against the vault conventions. The type
// field is a display label and only has to be non-empty.
func (f Frontmatter) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.ID, validation.Required, validation.Match(IDPattern)),
		validation.Field(&f.Type, validation.Required),
		validation.Field(&f.Tags, validation.Each(validation.Required, validation.Match(TagPattern))),
		validation.Field(&f.Created, validation.Required, validation.Match(DatePattern)),
		validation.Field(&f.Updated, validation.Required, validation.Match(DatePattern)),
		validation.Field(&f.Permalink, validation.Required, validation.Match(PermalinkPattern)),
	)
}

// Note is a fully parsed Markdown file from the vault.
type Note struct {
	Path        string      `json:"path"`
	Frontmatter Frontmatter `json:"frontmatter"`
	Title       string      `json:"title,omitempty"`
	Body        string      `json:"body"`
	Links       []string    `json:"links,omitempty"`
}

// NoteSummary is the lightweight representation returned by list operations.
type NoteSummary struct {
	ID        string   `json:"id"`
	Type      string   `json:"type"`
	Tags      []string `json:"tags"`
	Created   string   `json:"created"`
	Updated   string   `json:"updated"`
	Permalink string   `json:"permalink"`
	Path      string   `json:"path"`
}

// TagCluster groups the notes sharing one tag.
type TagCluster struct {
	Tag             string   `json:"tag"`
	NoteIDs         []string `json:"note_ids"`
	Count           int      `json:"count"`
	ShouldCreateMOC bool     `json:"should_create_moc"`
}

// CheckThreshold marks and reports whether the cluster is large enough to
// warrant an index note.
func (c *TagCluster) CheckThreshold(threshold int) bool {
	c.ShouldCreateMOC = c.Count >= threshold
	return c.ShouldCreateMOC
}
