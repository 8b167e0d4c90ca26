// Package vector provides embedding generation and similarity search over
// vault notes. An Embedder turns text into vectors, an Index stores them
// and answers nearest-neighbour queries, and a Searcher composes the two.
package vector

import "context"

const (
	// DefaultModel is the embedding model used when none is configured.
	DefaultModel = "text-embedding-3-small"
	// DefaultDimension is the vector size produced by DefaultModel.
	DefaultDimension = 1536
	// DefaultCollection is the index collection holding vault notes.
	DefaultCollection = "muninn_notes"
)

// Embedder generates an embedding vector for a piece of text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
	// Dimension is the length of the vectors Embed returns.
	Dimension() int
}

// Point is one note vector together with the payload stored beside it.
type Point struct {
	NoteID string
	Title  string
	Tags   []string
	Vector []float64
}

// Hit is a single similarity search result.
type Hit struct {
	NoteID string  `json:"note_id"`
	Title  string  `json:"title"`
	Score  float64 `json:"score"`
}

// Index stores note vectors and answers similarity queries. Implementations
// are the embedded SQLite index and the Qdrant client.
type Index interface {
	Upsert(ctx context.Context, p Point) error
	Search(ctx context.Context, vector []float64, limit int) ([]Hit, error)
	Delete(ctx context.Context, noteID string) error
	Count(ctx context.Context) (int, error)
	Close() error
}
