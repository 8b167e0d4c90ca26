package index

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/starford/muninn/internal/vector"
)

// Verify *DB can serve as the vector index at compile time.
var _ vector.Index = (*DB)(nil)

// Upsert inserts or replaces a note's vector and payload. The checksum
// journal columns on the row are left untouched.
func (db *DB) Upsert(ctx context.Context, p vector.Point) error {
	tagsJSON, _ := json.Marshal(p.Tags)
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO notes (id, title, tags, embedding, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title      = excluded.title,
			tags       = excluded.tags,
			embedding  = excluded.embedding,
			updated_at = excluded.updated_at
	`, p.NoteID, p.Title, string(tagsJSON), embeddingToBlob(p.Vector), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("index: upsert note %s: %w", p.NoteID, err)
	}
	return nil
}

// Search scans every stored embedding and returns the closest notes,
// best first. Brute force is fine at personal-vault scale.
func (db *DB) Search(ctx context.Context, queryVec []float64, limit int) ([]vector.Hit, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT id, title, embedding FROM notes WHERE embedding IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("index: search query: %w", err)
	}
	defer rows.Close()

	var hits []vector.Hit
	for rows.Next() {
		var id, title string
		var blob []byte
		if err := rows.Scan(&id, &title, &blob); err != nil {
			return nil, fmt.Errorf("index: scan search row: %w", err)
		}
		score := cosineSimilarity(queryVec, blobToEmbedding(blob))
		hits = append(hits, vector.Hit{NoteID: id, Title: title, Score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("index: iterate search rows: %w", err)
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].NoteID < hits[j].NoteID
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	for i := range hits {
		if hits[i].Title == "" {
			hits[i].Title = "Untitled"
		}
	}
	return hits, nil
}

// Delete removes a note's row entirely, journal columns included.
func (db *DB) Delete(ctx context.Context, noteID string) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, noteID); err != nil {
		return fmt.Errorf("index: delete note %s: %w", noteID, err)
	}
	return nil
}

// Count returns the number of notes with a stored embedding.
func (db *DB) Count(ctx context.Context) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM notes WHERE embedding IS NOT NULL`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("index: count: %w", err)
	}
	return n, nil
}

// SetSynced records the path and content checksum for a note after a
// successful sync, creating the row when the vectors live elsewhere.
func (db *DB) SetSynced(ctx context.Context, noteID, path, checksum string) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO notes (id, path, checksum, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			path       = excluded.path,
			checksum   = excluded.checksum,
			updated_at = excluded.updated_at
	`, noteID, path, checksum, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("index: set synced %s: %w", noteID, err)
	}
	return nil
}

// Checksums returns the stored checksum for every journaled path.
func (db *DB) Checksums(ctx context.Context) (map[string]string, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT path, checksum FROM notes WHERE path != ''`)
	if err != nil {
		return nil, fmt.Errorf("index: checksums: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// IDForPath returns the note ID journaled under a path.
func (db *DB) IDForPath(ctx context.Context, path string) (string, bool, error) {
	var id string
	err := db.conn.QueryRowContext(ctx, `SELECT id FROM notes WHERE path = ?`, path).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("index: id for path %s: %w", path, err)
	}
	return id, true, nil
}

// DeleteByPath removes the row journaled under a path.
func (db *DB) DeleteByPath(ctx context.Context, path string) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM notes WHERE path = ?`, path); err != nil {
		return fmt.Errorf("index: delete by path %s: %w", path, err)
	}
	return nil
}

// cosineSimilarity computes the cosine similarity between two vectors.
// Returns 0 if either vector has zero magnitude.
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, magA, magB float64
	for i := range a {
		dot += a[i] * b[i]
		magA += a[i] * a[i]
		magB += b[i] * b[i]
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}

// embeddingToBlob serializes a vector into a little-endian binary blob.
func embeddingToBlob(emb []float64) []byte {
	buf := make([]byte, len(emb)*8)
	for i, v := range emb {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}

// blobToEmbedding deserializes a binary blob back into a vector.
func blobToEmbedding(blob []byte) []float64 {
	n := len(blob) / 8
	emb := make([]float64, n)
	for i := 0; i < n; i++ {
		emb[i] = math.Float64frombits(binary.LittleEndian.Uint64(blob[i*8:]))
	}
	return emb
}
