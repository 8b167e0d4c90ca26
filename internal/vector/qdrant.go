package vector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/starford/muninn/internal/apperr"
)

// pointNamespace seeds the deterministic UUIDs Qdrant requires as point
// IDs. The same note ID always maps to the same point.
var pointNamespace = uuid.NameSpaceOID

// QdrantConfig configures the Qdrant index client.
type QdrantConfig struct {
	URL        string
	Collection string
	Dimension  int
	Timeout    time.Duration
}

// QdrantIndex stores note vectors in a Qdrant collection over its REST API.
type QdrantIndex struct {
	baseURL    string
	collection string
	dimension  int
	client     *http.Client
	logger     *slog.Logger
}

var _ Index = (*QdrantIndex)(nil)

// NewQdrantIndex creates the client and ensures the collection exists,
// creating it with cosine distance when missing.
func NewQdrantIndex(ctx context.Context, cfg QdrantConfig, logger *slog.Logger) (*QdrantIndex, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("vector: qdrant url is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	collection := cfg.Collection
	if collection == "" {
		collection = DefaultCollection
	}
	dimension := cfg.Dimension
	if dimension == 0 {
		dimension = DefaultDimension
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	q := &QdrantIndex{
		baseURL:    strings.TrimSuffix(cfg.URL, "/"),
		collection: collection,
		dimension:  dimension,
		client:     &http.Client{Timeout: timeout},
		logger:     logger,
	}
	if err := q.ensureCollection(ctx); err != nil {
		return nil, err
	}
	return q, nil
}

// ensureCollection creates the collection when it does not exist yet.
func (q *QdrantIndex) ensureCollection(ctx context.Context) error {
	path := "/collections/" + q.collection

	status, _, err := q.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if status == http.StatusOK {
		q.logger.Info("qdrant collection exists", slog.String("collection", q.collection))
		return nil
	}
	if status != http.StatusNotFound {
		return fmt.Errorf("vector: qdrant collection check returned HTTP %d", status)
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     q.dimension,
			"distance": "Cosine",
		},
	}
	status, respBody, err := q.do(ctx, http.MethodPut, path, body)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("vector: qdrant create collection returned HTTP %d: %s", status, respBody)
	}

	q.logger.Info("qdrant collection created",
		slog.String("collection", q.collection),
		slog.Int("dimension", q.dimension))
	return nil
}

// PointID returns the deterministic Qdrant point ID for a note.
func PointID(noteID string) string {
	return uuid.NewSHA1(pointNamespace, []byte(noteID)).String()
}

// Upsert writes one point, overwriting any previous vector for the note.
func (q *QdrantIndex) Upsert(ctx context.Context, p Point) error {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	body := map[string]any{
		"points": []map[string]any{{
			"id":     PointID(p.NoteID),
			"vector": p.Vector,
			"payload": map[string]any{
				"note_id": p.NoteID,
				"title":   p.Title,
				"tags":    tags,
			},
		}},
	}

	status, respBody, err := q.do(ctx, http.MethodPut, "/collections/"+q.collection+"/points?wait=true", body)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("vector: qdrant upsert returned HTTP %d: %s", status, respBody)
	}

	q.logger.Info("upserted note vector",
		slog.String("note_id", p.NoteID),
		slog.String("title", p.Title))
	return nil
}

// Search returns the closest points to the vector, best first.
func (q *QdrantIndex) Search(ctx context.Context, vector []float64, limit int) ([]Hit, error) {
	body := map[string]any{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
	}
	status, respBody, err := q.do(ctx, http.MethodPost, "/collections/"+q.collection+"/points/search", body)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("vector: qdrant search returned HTTP %d: %s", status, respBody)
	}

	var result struct {
		Result []struct {
			Score   float64 `json:"score"`
			Payload struct {
				NoteID string   `json:"note_id"`
				Title  string   `json:"title"`
				Tags   []string `json:"tags"`
			} `json:"payload"`
		} `json:"result"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("vector: parse search response: %w", err)
	}

	hits := make([]Hit, 0, len(result.Result))
	for _, r := range result.Result {
		noteID := r.Payload.NoteID
		if noteID == "" {
			noteID = "unknown"
		}
		title := r.Payload.Title
		if title == "" {
			title = "Untitled"
		}
		hits = append(hits, Hit{NoteID: noteID, Title: title, Score: r.Score})
	}
	return hits, nil
}

// Delete removes the point for a note. Missing points are not an error.
func (q *QdrantIndex) Delete(ctx context.Context, noteID string) error {
	body := map[string]any{
		"points": []string{PointID(noteID)},
	}
	status, respBody, err := q.do(ctx, http.MethodPost, "/collections/"+q.collection+"/points/delete?wait=true", body)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("vector: qdrant delete returned HTTP %d: %s", status, respBody)
	}

	q.logger.Info("deleted note vector", slog.String("note_id", noteID))
	return nil
}

// Count returns the exact number of indexed points.
func (q *QdrantIndex) Count(ctx context.Context) (int, error) {
	status, respBody, err := q.do(ctx, http.MethodPost, "/collections/"+q.collection+"/points/count", map[string]any{"exact": true})
	if err != nil {
		return 0, err
	}
	if status != http.StatusOK {
		return 0, fmt.Errorf("vector: qdrant count returned HTTP %d: %s", status, respBody)
	}

	var result struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return 0, fmt.Errorf("vector: parse count response: %w", err)
	}
	return result.Result.Count, nil
}

// Close is a no-op; the client holds no persistent connections.
func (q *QdrantIndex) Close() error {
	return nil
}

// do sends one JSON request and returns the status and raw body. Transport
// failures are wrapped as unavailable so surfaces can map them to 503.
func (q *QdrantIndex) do(ctx context.Context, method, path string, body any) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("vector: marshal qdrant request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, q.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("vector: build qdrant request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := q.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("vector: %w: qdrant request: %v", apperr.ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("vector: read qdrant response: %w", err)
	}
	return resp.StatusCode, respBody, nil
}
