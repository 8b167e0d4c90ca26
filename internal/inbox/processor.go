package inbox

import (
	"context"
	"log/slog"

	"github.com/starford/muninn/internal/tags"
	"github.com/starford/muninn/internal/vault"
)

// DefaultMaxTags is the suggestion budget used when a caller does not ask
// for a specific number.
const DefaultMaxTags = 5

// Processor drives the inbox workflow: classify, route, tag, create.
type Processor struct {
	store    *vault.Store
	analyzer *tags.Analyzer
	logger   *slog.Logger
}

// NewProcessor creates a Processor over the given store and analyzer.
func NewProcessor(store *vault.Store, analyzer *tags.Analyzer, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{store: store, analyzer: analyzer, logger: logger}
}

// Result is the outcome of processing one inbox item. Failed batch rows
// carry the error string and an unknown source type.
type Result struct {
	FilePath   string     `json:"file_path"`
	Folder     string     `json:"folder"`
	Tags       []string   `json:"tags"`
	SourceType SourceType `json:"source_type"`
	Error      string     `json:"error,omitempty"`
}

// Item is one captured unit of content for batch processing.
type Item struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// ProcessItem runs one item through the full workflow: classify the
// content, route it to a folder, suggest tags from the current vocabulary
// snapshot, resolve the folder's note type, and create the note.
func (p *Processor) ProcessItem(ctx context.Context, title, content string, maxTags int) (*Result, error) {
	p.logger.Info("processing inbox item", slog.String("title", title))

	sourceType := DetectSourceType(content, title)
	folder := SuggestFolder(sourceType, content)
	suggested := p.analyzer.Vocabulary().Suggest(content, title, maxTags)
	noteType := FolderType(folder)

	note, err := p.store.Create(ctx, vault.CreateRequest{
		Title:   title,
		Content: content,
		Folder:  folder,
		Type:    noteType,
		Tags:    suggested,
	})
	if err != nil {
		return nil, err
	}

	p.logger.Info("inbox item processed",
		slog.String("path", note.Path),
		slog.String("source_type", string(sourceType)),
		slog.String("folder", folder),
		slog.Int("tags", len(suggested)))

	return &Result{
		FilePath:   note.Path,
		Folder:     folder,
		Tags:       suggested,
		SourceType: sourceType,
	}, nil
}

// ProcessBatch processes items strictly sequentially, which keeps the ID
// collision handling effective. One item's failure is recorded in its
// result row and never aborts the rest of the batch.
func (p *Processor) ProcessBatch(ctx context.Context, items []Item, maxTags int) []Result {
	results := make([]Result, 0, len(items))

	for _, item := range items {
		title := item.Title
		if title == "" {
			title = "Untitled"
		}
		res, err := p.ProcessItem(ctx, title, item.Content, maxTags)
		if err != nil {
			p.logger.Error("failed to process inbox item",
				slog.String("title", title),
				slog.String("error", err.Error()))
			results = append(results, Result{
				Tags:       []string{},
				SourceType: SourceUnknown,
				Error:      err.Error(),
			})
			continue
		}
		results = append(results, *res)
	}

	p.logger.Info("batch processing complete", slog.Int("items", len(results)))
	return results
}

// Stats reports the current vocabulary statistics.
func (p *Processor) Stats() tags.Stats {
	return p.analyzer.Vocabulary().Stats()
}

// RefreshVocabulary rebuilds the vocabulary, picking up tags from notes
// created outside the processor, and returns the new size.
func (p *Processor) RefreshVocabulary(ctx context.Context) (int, error) {
	vocab, err := p.analyzer.Refresh(ctx)
	if err != nil {
		return 0, err
	}
	p.logger.Info("vocabulary refreshed", slog.Int("tags", vocab.Len()))
	return vocab.Len(), nil
}
