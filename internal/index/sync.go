package index

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/starford/muninn/internal/checksum"
	"github.com/starford/muninn/internal/parser"
	"github.com/starford/muninn/internal/storage"
	"github.com/starford/muninn/internal/vector"
)

// Syncer reconciles the vault with the vector index. The checksum journal
// keeps embedding calls incremental: only files whose content changed
// since the last pass are re-embedded.
type Syncer struct {
	db       *DB
	files    storage.Provider
	searcher *vector.Searcher
	logger   *slog.Logger
}

// NewSyncer creates a Syncer over the journal, the vault files, and the
// searcher that performs embedding and upserts.
func NewSyncer(db *DB, files storage.Provider, searcher *vector.Searcher, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{db: db, files: files, searcher: searcher, logger: logger}
}

// Result counts what one sync pass did.
type Result struct {
	Indexed int `json:"indexed"`
	Skipped int `json:"skipped"`
	Removed int `json:"removed"`
}

// Sync walks the vault and brings the index up to date:
//   - new/changed files are parsed, embedded, and upserted
//   - unchanged files (by checksum) are skipped without an embedding call
//   - journal entries whose files are gone are removed from the index
func (s *Syncer) Sync(ctx context.Context) (*Result, error) {
	paths, err := s.files.Walk("")
	if err != nil {
		return nil, err
	}
	checksums, err := s.db.Checksums(ctx)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	disk := make(map[string]struct{}, len(paths))
	for _, path := range paths {
		disk[path] = struct{}{}

		data, err := s.files.Read(path)
		if err != nil {
			s.logger.Warn("sync: read failed", slog.String("path", path), slog.String("error", err.Error()))
			continue
		}
		if !checksum.Changed(checksums[path], data) {
			res.Skipped++
			continue
		}
		if err := s.IndexPath(ctx, path, data); err != nil {
			s.logger.Warn("sync: index failed", slog.String("path", path), slog.String("error", err.Error()))
			continue
		}
		res.Indexed++
		s.logger.Debug("sync: indexed", slog.String("path", path))
	}

	// Remove stale entries.
	for p := range checksums {
		if _, ok := disk[p]; ok {
			continue
		}
		if err := s.RemovePath(ctx, p); err != nil {
			s.logger.Warn("sync: remove failed", slog.String("path", p), slog.String("error", err.Error()))
			continue
		}
		res.Removed++
		s.logger.Debug("sync: removed stale", slog.String("path", p))
	}

	s.logger.Info("sync complete",
		slog.Int("indexed", res.Indexed),
		slog.Int("skipped", res.Skipped),
		slog.Int("removed", res.Removed))
	return res, nil
}

// IndexPath embeds one file's content and records it in the journal. Files
// without an ID in their frontmatter cannot be indexed.
func (s *Syncer) IndexPath(ctx context.Context, path string, data []byte) error {
	res, err := parser.Parse(data)
	if err != nil {
		return err
	}
	if !res.HasFrontmatter || res.Frontmatter.ID == "" {
		return fmt.Errorf("index: %s has no note id", path)
	}

	id := res.Frontmatter.ID
	if err := s.searcher.IndexNote(ctx, id, res.Title, res.Body, res.Frontmatter.Tags); err != nil {
		return err
	}
	return s.db.SetSynced(ctx, id, path, checksum.Sum(data))
}

// RemovePath drops a file's vector and journal entry.
func (s *Syncer) RemovePath(ctx context.Context, path string) error {
	id, ok, err := s.db.IDForPath(ctx, path)
	if err != nil {
		return err
	}
	if ok {
		if err := s.searcher.RemoveNote(ctx, id); err != nil {
			return err
		}
	}
	return s.db.DeleteByPath(ctx, path)
}
