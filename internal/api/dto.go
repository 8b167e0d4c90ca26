package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/muninn/internal/inbox"
	"github.com/starford/muninn/internal/moc"
	"github.com/starford/muninn/internal/service"
)

// WriteNoteRequest is the request body for the write_note tool.
type WriteNoteRequest struct {
	Title    string   `json:"title" example:"Vector Clocks"`
	Content  string   `json:"content" example:"# Vector Clocks\nNotes on ordering."`
	Folder   string   `json:"folder" example:"01 - Notes/01a - Atomic"`
	NoteType string   `json:"note_type" example:"note"`
	Tags     []string `json:"tags" example:"distributed-systems,clocks"`
	Status   string   `json:"status,omitempty"`
	DryRun   bool     `json:"dry_run,omitempty"`
}

// Validate checks the required tool parameters.
func (r WriteNoteRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required),
		validation.Field(&r.Content, validation.Required),
		validation.Field(&r.Folder, validation.Required),
		validation.Field(&r.NoteType, validation.Required),
	)
}

// ReadNoteRequest is the request body for the read_note tool.
type ReadNoteRequest struct {
	NoteID string `json:"note_id" example:"20240115103000"`
}

// Validate checks the required tool parameters.
func (r ReadNoteRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.NoteID, validation.Required),
	)
}

// UpdateNoteRequest is the request body for the update_note tool. Nil
// fields keep their current values.
type UpdateNoteRequest struct {
	NoteID  string   `json:"note_id" example:"20240115103000"`
	Content *string  `json:"content,omitempty"`
	Tags    []string `json:"tags,omitempty"`
	Status  *string  `json:"status,omitempty"`
	DryRun  bool     `json:"dry_run,omitempty"`
}

// Validate checks the required tool parameters.
func (r UpdateNoteRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.NoteID, validation.Required),
	)
}

// DeleteNoteRequest is the request body for the delete_note tool.
type DeleteNoteRequest struct {
	NoteID string `json:"note_id" example:"20240115103000"`
	DryRun bool   `json:"dry_run,omitempty"`
}

// Validate checks the required tool parameters.
func (r DeleteNoteRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.NoteID, validation.Required),
	)
}

// ListNotesRequest is the request body for the list_notes tool. Every
// field is optional.
type ListNotesRequest struct {
	Folder   string `json:"folder,omitempty" example:"01 - Notes/01a - Atomic"`
	NoteType string `json:"note_type,omitempty" example:"note"`
	Tag      string `json:"tag,omitempty" example:"golang"`
}

// SearchNotesRequest is the request body for the search_notes tool.
type SearchNotesRequest struct {
	Query string `json:"query" example:"eventual consistency tradeoffs"`
	Limit int    `json:"limit,omitempty" example:"5"`
}

// Validate checks the required tool parameters.
func (r SearchNotesRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Query, validation.Required),
		validation.Field(&r.Limit, validation.Min(1), validation.Max(20)),
	)
}

// SuggestTagsRequest is the request body for the suggest_tags tool.
type SuggestTagsRequest struct {
	Content string `json:"content"`
	Title   string `json:"title,omitempty"`
	MaxTags int    `json:"max_tags,omitempty" example:"5"`
}

// Validate checks the required tool parameters.
func (r SuggestTagsRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Content, validation.Required),
		validation.Field(&r.MaxTags, validation.Min(1)),
	)
}

// InboxItemRequest is the request body for the process_inbox_item tool.
type InboxItemRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	MaxTags int    `json:"max_tags,omitempty" example:"5"`
}

// Validate checks the required tool parameters.
func (r InboxItemRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required),
		validation.Field(&r.Content, validation.Required),
		validation.Field(&r.MaxTags, validation.Min(1)),
	)
}

// InboxBatchRequest is the request body for the process_inbox_batch tool.
type InboxBatchRequest struct {
	Items   []inbox.Item `json:"items"`
	MaxTags int          `json:"max_tags,omitempty" example:"5"`
}

// Validate checks the required tool parameters.
func (r InboxBatchRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Items, validation.Required, validation.Length(1, 0)),
		validation.Field(&r.MaxTags, validation.Min(1)),
	)
}

// CreateMOCRequest is the request body for the create_moc tool. A zero
// threshold uses the configured default.
type CreateMOCRequest struct {
	Tag       string `json:"tag" example:"golang"`
	Threshold int    `json:"threshold,omitempty" example:"12"`
	DryRun    bool   `json:"dry_run,omitempty"`
}

// Validate checks the required tool parameters.
func (r CreateMOCRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Tag, validation.Required),
		validation.Field(&r.Threshold, validation.Min(1)),
	)
}

// Response types are aliased from the domain layer so both surfaces share
// one shape.
type (
	// WriteNoteResult reports a created note.
	WriteNoteResult = service.WriteNoteResult
	// NoteContent is the full note payload returned by read_note.
	NoteContent = service.NoteContent
	// MutationResult reports an update or delete.
	MutationResult = service.MutationResult
	// NoteListResponse wraps note listings.
	NoteListResponse = service.NoteList
	// SearchResponse wraps semantic search results.
	SearchResponse = service.SearchResult
	// TagSuggestions wraps suggested tags.
	TagSuggestions = service.TagSuggestions
	// InboxResult reports one routed inbox item.
	InboxResult = inbox.Result
	// InboxBatchResponse reports a batch inbox run.
	InboxBatchResponse = service.BatchResult
	// MOCResult reports a create_moc evaluation.
	MOCResult = moc.ToolResult
	// VaultStatsResponse summarizes the vault.
	VaultStatsResponse = service.Stats
	// VocabularyInfo reports the vocabulary size after a refresh.
	VocabularyInfo = service.VocabularyInfo
)
