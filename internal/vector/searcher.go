package vector

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/starford/muninn/internal/apperr"
)

const (
	// DefaultSearchLimit is the result count used when a caller passes 0.
	DefaultSearchLimit = 5
	// MaxSearchLimit caps similarity search result counts.
	MaxSearchLimit = 20

	queryCacheTTL = 5 * time.Minute
)

// Searcher composes an Embedder and an Index into the note-level
// operations the surfaces call. Query embeddings are cached briefly so
// repeated searches do not re-embed the same text.
type Searcher struct {
	embedder Embedder
	index    Index
	queries  *gocache.Cache
	logger   *slog.Logger
}

// NewSearcher creates a Searcher over the given embedder and index.
func NewSearcher(embedder Embedder, index Index, logger *slog.Logger) *Searcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Searcher{
		embedder: embedder,
		index:    index,
		queries:  gocache.New(queryCacheTTL, 2*queryCacheTTL),
		logger:   logger,
	}
}

// Index exposes the underlying index for maintenance operations.
func (s *Searcher) Index() Index {
	return s.index
}

// IndexNote embeds the note and upserts its point. The embedded text
// composes title, tags, and content so retrieval can match on any of them.
func (s *Searcher) IndexNote(ctx context.Context, noteID, title, content string, tags []string) error {
	if strings.TrimSpace(noteID) == "" {
		return fmt.Errorf("vector: %w: note_id must not be empty", apperr.ErrValidation)
	}
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("vector: %w: content must not be empty", apperr.ErrValidation)
	}

	embedding, err := s.embedder.Embed(ctx, embedText(title, content, tags))
	if err != nil {
		return fmt.Errorf("vector: embed note %s: %w", noteID, err)
	}
	return s.index.Upsert(ctx, Point{
		NoteID: noteID,
		Title:  title,
		Tags:   tags,
		Vector: embedding,
	})
}

// embedText builds the text that represents a note in vector space.
func embedText(title, content string, tags []string) string {
	var b strings.Builder
	if title != "" {
		b.WriteString(title)
		b.WriteString("\n")
	}
	if len(tags) > 0 {
		b.WriteString(strings.Join(tags, " "))
		b.WriteString("\n")
	}
	b.WriteString(content)
	return b.String()
}

// SearchSimilar embeds the query and returns the closest notes. A zero
// limit means DefaultSearchLimit; anything outside 1..MaxSearchLimit is
// rejected.
func (s *Searcher) SearchSimilar(ctx context.Context, query string, limit int) ([]Hit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("vector: %w: query must not be empty", apperr.ErrValidation)
	}
	if limit == 0 {
		limit = DefaultSearchLimit
	}
	if limit < 1 || limit > MaxSearchLimit {
		return nil, fmt.Errorf("vector: %w: limit must be between 1 and %d", apperr.ErrValidation, MaxSearchLimit)
	}

	vec, err := s.queryVector(ctx, query)
	if err != nil {
		return nil, err
	}
	hits, err := s.index.Search(ctx, vec, limit)
	if err != nil {
		return nil, err
	}

	s.logger.Info("vector search complete",
		slog.String("query", truncate(query, 50)),
		slog.Int("results", len(hits)))
	return hits, nil
}

// RemoveNote drops the note's point from the index.
func (s *Searcher) RemoveNote(ctx context.Context, noteID string) error {
	return s.index.Delete(ctx, noteID)
}

// queryVector returns the cached embedding for a query, embedding and
// caching it on a miss.
func (s *Searcher) queryVector(ctx context.Context, query string) ([]float64, error) {
	if cached, found := s.queries.Get(query); found {
		if vec, ok := cached.([]float64); ok {
			s.logger.Debug("query embedding cache hit")
			return vec, nil
		}
	}
	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("vector: embed query: %w", err)
	}
	s.queries.Set(query, vec, gocache.DefaultExpiration)
	return vec, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
