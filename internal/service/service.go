// Package service orchestrates the vault subsystems behind the HTTP API and
// the MCP server. It owns boundary validation for tool parameters, keeps the
// tag vocabulary fresh after mutations, and publishes events to the SSE
// broker. Vector search and index sync are optional; operations that need
// them fail with apperr.ErrUnavailable when they are not configured.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/starford/muninn/internal/apperr"
	"github.com/starford/muninn/internal/inbox"
	"github.com/starford/muninn/internal/index"
	"github.com/starford/muninn/internal/moc"
	"github.com/starford/muninn/internal/models"
	"github.com/starford/muninn/internal/sse"
	"github.com/starford/muninn/internal/tags"
	"github.com/starford/muninn/internal/vault"
	"github.com/starford/muninn/internal/vector"
)

// Deps carries the collaborators for a Service. Store, Analyzer, Processor,
// and Generator are required. Searcher, Syncer, and Broker may be nil.
type Deps struct {
	Store     *vault.Store
	Analyzer  *tags.Analyzer
	Processor *inbox.Processor
	Generator *moc.Generator
	Searcher  *vector.Searcher
	Syncer    *index.Syncer
	Broker    *sse.Broker
	Logger    *slog.Logger
}

// Service exposes the vault operations shared by every surface.
type Service struct {
	store     *vault.Store
	analyzer  *tags.Analyzer
	processor *inbox.Processor
	generator *moc.Generator
	searcher  *vector.Searcher
	syncer    *index.Syncer
	broker    *sse.Broker
	logger    *slog.Logger
}

// New assembles a Service from its dependencies.
func New(d Deps) *Service {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:     d.Store,
		analyzer:  d.Analyzer,
		processor: d.Processor,
		generator: d.Generator,
		searcher:  d.Searcher,
		syncer:    d.Syncer,
		broker:    d.Broker,
		logger:    logger,
	}
}

// WriteNoteRequest carries the parameters for WriteNote.
type WriteNoteRequest struct {
	Title   string
	Content string
	Folder  string
	Type    string
	Tags    []string
	Status  string
	DryRun  bool
}

// WriteNoteResult reports a created note.
type WriteNoteResult struct {
	NoteID    string   `json:"note_id"`
	FilePath  string   `json:"file_path"`
	Folder    string   `json:"folder"`
	Permalink string   `json:"permalink"`
	Tags      []string `json:"tags"`
	DryRun    bool     `json:"dry_run,omitempty"`
}

// WriteNote validates the tool parameters and creates a note through the
// store. The vocabulary is refreshed afterwards so the new tags take part
// in future suggestions.
func (s *Service) WriteNote(ctx context.Context, req WriteNoteRequest) (*WriteNoteResult, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("service: %w: title must not be empty", apperr.ErrValidation)
	}
	if strings.TrimSpace(req.Content) == "" {
		return nil, fmt.Errorf("service: %w: content must not be empty", apperr.ErrValidation)
	}
	if strings.TrimSpace(req.Folder) == "" {
		return nil, fmt.Errorf("service: %w: folder must not be empty", apperr.ErrValidation)
	}
	if strings.TrimSpace(req.Type) == "" {
		return nil, fmt.Errorf("service: %w: note type must not be empty", apperr.ErrValidation)
	}

	note, err := s.store.Create(ctx, vault.CreateRequest{
		Title:   req.Title,
		Content: req.Content,
		Folder:  req.Folder,
		Type:    req.Type,
		Tags:    req.Tags,
		Status:  req.Status,
		DryRun:  req.DryRun,
	})
	if err != nil {
		return nil, err
	}
	if !req.DryRun {
		s.refreshVocabulary(ctx)
	}
	return &WriteNoteResult{
		NoteID:    note.Frontmatter.ID,
		FilePath:  note.Path,
		Folder:    req.Folder,
		Permalink: note.Frontmatter.Permalink,
		Tags:      nonNilSlice(note.Frontmatter.Tags),
		DryRun:    req.DryRun,
	}, nil
}

// NoteContent is the full representation returned by ReadNote.
type NoteContent struct {
	NoteID      string             `json:"note_id"`
	Title       string             `json:"title"`
	Content     string             `json:"content"`
	Frontmatter models.Frontmatter `json:"frontmatter"`
	FilePath    string             `json:"file_path"`
	Links       []string           `json:"links"`
}

// ReadNote fetches a note by ID.
func (s *Service) ReadNote(ctx context.Context, id string) (*NoteContent, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("service: %w: note_id must not be empty", apperr.ErrValidation)
	}
	note, err := s.store.Read(ctx, id)
	if err != nil {
		return nil, err
	}
	return &NoteContent{
		NoteID:      note.Frontmatter.ID,
		Title:       note.Title,
		Content:     note.Body,
		Frontmatter: note.Frontmatter,
		FilePath:    note.Path,
		Links:       nonNilSlice(note.Links),
	}, nil
}

// UpdateNoteRequest carries the parameters for UpdateNote. Nil fields keep
// their current values.
type UpdateNoteRequest struct {
	NoteID  string
	Content *string
	Tags    []string
	Status  *string
	DryRun  bool
}

// MutationResult reports an update or delete.
type MutationResult struct {
	NoteID  string `json:"note_id"`
	Success bool   `json:"success"`
	DryRun  bool   `json:"dry_run,omitempty"`
}

// UpdateNote applies a partial update to an existing note. Unknown IDs
// return apperr.ErrNotFound.
func (s *Service) UpdateNote(ctx context.Context, req UpdateNoteRequest) (*MutationResult, error) {
	if strings.TrimSpace(req.NoteID) == "" {
		return nil, fmt.Errorf("service: %w: note_id must not be empty", apperr.ErrValidation)
	}
	if req.Content == nil && req.Tags == nil && req.Status == nil {
		return nil, fmt.Errorf("service: %w: nothing to update", apperr.ErrValidation)
	}

	found, err := s.store.Update(ctx, req.NoteID, vault.UpdateRequest{
		Content: req.Content,
		Tags:    req.Tags,
		Status:  req.Status,
		DryRun:  req.DryRun,
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("service: note %s: %w", req.NoteID, apperr.ErrNotFound)
	}
	if !req.DryRun {
		s.refreshVocabulary(ctx)
	}
	return &MutationResult{NoteID: req.NoteID, Success: true, DryRun: req.DryRun}, nil
}

// DeleteNote removes a note by ID. Unknown IDs return apperr.ErrNotFound.
func (s *Service) DeleteNote(ctx context.Context, id string, dryRun bool) (*MutationResult, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("service: %w: note_id must not be empty", apperr.ErrValidation)
	}
	found, err := s.store.Delete(ctx, id, dryRun)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("service: note %s: %w", id, apperr.ErrNotFound)
	}
	if !dryRun {
		s.refreshVocabulary(ctx)
	}
	return &MutationResult{NoteID: id, Success: true, DryRun: dryRun}, nil
}

// NoteList is the result of ListNotes.
type NoteList struct {
	Notes []models.NoteSummary `json:"notes"`
	Total int                  `json:"total"`
}

// ListNotes returns summaries of the managed notes matching the filter.
func (s *Service) ListNotes(ctx context.Context, filter vault.ListFilter) (*NoteList, error) {
	notes, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &NoteList{Notes: nonNilSlice(notes), Total: len(notes)}, nil
}

// TagSuggestions is the result of SuggestTags.
type TagSuggestions struct {
	Tags           []string `json:"tags"`
	VocabularySize int      `json:"vocabulary_size"`
}

// SuggestTags scores the current vocabulary against the content and returns
// up to max tags. Suggestions only ever come from tags already in use.
func (s *Service) SuggestTags(_ context.Context, content, title string, max int) (*TagSuggestions, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("service: %w: content must not be empty", apperr.ErrValidation)
	}
	if max <= 0 {
		max = inbox.DefaultMaxTags
	}
	vocab := s.analyzer.Vocabulary()
	return &TagSuggestions{
		Tags:           nonNilSlice(vocab.Suggest(content, title, max)),
		VocabularySize: vocab.Len(),
	}, nil
}

// ProcessInboxItem routes one captured item into the vault with suggested
// tags. The vocabulary is refreshed afterwards.
func (s *Service) ProcessInboxItem(ctx context.Context, title, content string, maxTags int) (*inbox.Result, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("service: %w: title must not be empty", apperr.ErrValidation)
	}
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("service: %w: content must not be empty", apperr.ErrValidation)
	}
	res, err := s.processor.ProcessItem(ctx, title, content, maxTags)
	if err != nil {
		return nil, err
	}
	s.refreshVocabulary(ctx)
	return res, nil
}

// BatchResult reports a batch inbox run. Failed items carry their error in
// the per-item result instead of aborting the batch.
type BatchResult struct {
	Results   []inbox.Result `json:"results"`
	Processed int            `json:"processed"`
	Failed    int            `json:"failed"`
}

// ProcessInboxBatch routes every item in order and reports per-item outcomes.
func (s *Service) ProcessInboxBatch(ctx context.Context, items []inbox.Item, maxTags int) (*BatchResult, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("service: %w: items must not be empty", apperr.ErrValidation)
	}
	results := s.processor.ProcessBatch(ctx, items, maxTags)
	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
	}
	s.refreshVocabulary(ctx)
	return &BatchResult{
		Results:   nonNilSlice(results),
		Processed: len(results) - failed,
		Failed:    failed,
	}, nil
}

// CreateMOC evaluates the cluster for a tag and creates an index note when
// warranted. A threshold of zero uses the generator default. On creation
// the broker is notified and the vocabulary refreshed.
func (s *Service) CreateMOC(ctx context.Context, tag string, threshold int, dryRun bool) (*moc.ToolResult, error) {
	res, err := s.generator.CreateForTag(ctx, tag, threshold, dryRun)
	if err != nil {
		return nil, err
	}
	if res.MOCCreated {
		if s.broker != nil {
			s.broker.PublishMOCCreated(res.Tag, res.FilePath)
		}
		s.refreshVocabulary(ctx)
	}
	return res, nil
}

// SearchResult is the result of SearchNotes.
type SearchResult struct {
	Query      string       `json:"query"`
	MatchCount int          `json:"match_count"`
	Results    []vector.Hit `json:"results"`
}

// SearchNotes runs a semantic search over the note index. A limit of zero
// uses the default.
func (s *Service) SearchNotes(ctx context.Context, query string, limit int) (*SearchResult, error) {
	if s.searcher == nil {
		return nil, fmt.Errorf("service: %w: vector search is not configured", apperr.ErrUnavailable)
	}
	hits, err := s.searcher.SearchSimilar(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	return &SearchResult{Query: query, MatchCount: len(hits), Results: nonNilSlice(hits)}, nil
}

// Stats summarizes the vault for diagnostics.
type Stats struct {
	TotalNotes    int        `json:"total_notes"`
	Vocabulary    tags.Stats `json:"vocabulary"`
	VectorEnabled bool       `json:"vector_enabled"`
	IndexedNotes  int        `json:"indexed_notes"`
}

// VaultStats counts managed notes and reports vocabulary and index figures.
// Index failures degrade to a zero count rather than failing the call.
func (s *Service) VaultStats(ctx context.Context) (*Stats, error) {
	notes, err := s.store.List(ctx, vault.ListFilter{})
	if err != nil {
		return nil, err
	}
	stats := &Stats{
		TotalNotes: len(notes),
		Vocabulary: s.analyzer.Vocabulary().Stats(),
	}
	if s.searcher != nil {
		stats.VectorEnabled = true
		count, err := s.searcher.Index().Count(ctx)
		if err != nil {
			s.logger.Warn("vector index count failed", slog.String("error", err.Error()))
		} else {
			stats.IndexedNotes = count
		}
	}
	return stats, nil
}

// VocabularyInfo reports the vocabulary size after a refresh.
type VocabularyInfo struct {
	TagCount int `json:"tag_count"`
}

// RefreshVocabulary rebuilds the tag vocabulary from the vault.
func (s *Service) RefreshVocabulary(ctx context.Context) (*VocabularyInfo, error) {
	vocab, err := s.analyzer.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	return &VocabularyInfo{TagCount: vocab.Len()}, nil
}

// SyncIndex reconciles the vector index with the vault and publishes the
// outcome to the broker.
func (s *Service) SyncIndex(ctx context.Context) (*index.Result, error) {
	if s.syncer == nil {
		return nil, fmt.Errorf("service: %w: vector index is not configured", apperr.ErrUnavailable)
	}
	res, err := s.syncer.Sync(ctx)
	if err != nil {
		return nil, err
	}
	if s.broker != nil {
		s.broker.PublishSyncCompleted(res.Indexed, res.Skipped, res.Removed)
	}
	return res, nil
}

// refreshVocabulary rebuilds the vocabulary after a mutation. Failures are
// logged and swallowed so a scan problem never fails the mutation that
// already succeeded.
func (s *Service) refreshVocabulary(ctx context.Context) {
	if _, err := s.analyzer.Refresh(ctx); err != nil {
		s.logger.Warn("vocabulary refresh failed", slog.String("error", err.Error()))
	}
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
