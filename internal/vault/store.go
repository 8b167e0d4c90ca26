package vault

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/starford/muninn/internal/apperr"
	"github.com/starford/muninn/internal/models"
	"github.com/starford/muninn/internal/parser"
	"github.com/starford/muninn/internal/storage"
)

const (
	idLayout    = "20060102150405"
	dateLayout  = "2006-01-02"
	monthLayout = "01-2006"

	defaultCollisionWait = time.Second
)

// Store enforces the vault conventions over a storage provider. A single
// mutex serializes ID allocation and the write that follows it, so creates
// within one process cannot race the collision probe.
type Store struct {
	files  storage.Provider
	logger *slog.Logger

	mu            sync.Mutex
	now           func() time.Time
	collisionWait time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source. Tests use it to force ID collisions.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithCollisionWait overrides the wait between collision retries.
func WithCollisionWait(d time.Duration) Option {
	return func(s *Store) { s.collisionWait = d }
}

// NewStore creates a Store on top of the given provider.
func NewStore(files storage.Provider, logger *slog.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		files:         files,
		logger:        logger,
		now:           time.Now,
		collisionWait: defaultCollisionWait,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureLayout creates every declared folder under the vault root.
func (s *Store) EnsureLayout() error {
	for _, folder := range FolderNames() {
		if err := s.files.EnsureDir(folder); err != nil {
			return err
		}
	}
	return nil
}

// CreateRequest carries the inputs for creating a note.
type CreateRequest struct {
	Title   string
	Content string
	Folder  string
	Type    string
	Tags    []string
	Status  string
	DryRun  bool
}

// Create validates the request against the conventions, allocates a
// collision-free ID, and writes the note. In dry-run mode every validation
// and computation still happens but nothing touches the filesystem; the
// returned note carries the path that would have been written.
func (s *Store) Create(ctx context.Context, req CreateRequest) (*models.Note, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("vault: %w: title must not be empty", apperr.ErrValidation)
	}
	if err := ValidateFolderType(req.Folder, req.Type); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.allocateID(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	tags := make([]string, 0, len(req.Tags)+1)
	for _, t := range req.Tags {
		tags = append(tags, NormalizeTag(t))
	}
	monthTag := now.Format(monthLayout)
	if !slices.Contains(tags, monthTag) {
		tags = append(tags, monthTag)
	}

	today := now.Format(dateLayout)
	fm := models.Frontmatter{
		ID:        id,
		Type:      DisplayType(req.Type),
		Tags:      tags,
		Created:   today,
		Updated:   today,
		Permalink: Permalink(req.Folder, id),
		Status:    req.Status,
	}
	if err := fm.Validate(); err != nil {
		return nil, fmt.Errorf("vault: %w: invalid frontmatter: %v", apperr.ErrValidation, err)
	}

	path := filepath.Join(req.Folder, id+".md")
	data, err := parser.Compose(fm, req.Title, req.Content)
	if err != nil {
		return nil, err
	}
	res, err := parser.Parse(data)
	if err != nil {
		return nil, err
	}
	note := &models.Note{
		Path:        path,
		Frontmatter: fm,
		Title:       res.Title,
		Body:        res.Body,
		Links:       res.Links,
	}

	if req.DryRun {
		s.logger.Info("dry run, would create note",
			slog.String("path", path),
			slog.String("id", id))
		return note, nil
	}

	if err := s.files.EnsureDir(req.Folder); err != nil {
		return nil, err
	}
	if err := s.files.Write(path, data); err != nil {
		return nil, err
	}

	s.logger.Info("note created",
		slog.String("path", path),
		slog.String("type", req.Type),
		slog.Int("tags", len(tags)))
	return note, nil
}

// allocateID derives an ID from the clock and probes every declared folder
// for a file with that stem. On collision it waits out the interval so the
// clock reaches a fresh second before retrying.
func (s *Store) allocateID(ctx context.Context) (string, error) {
	for {
		id := s.now().Format(idLayout)
		taken, err := s.idTaken(id)
		if err != nil {
			return "", err
		}
		if !taken {
			return id, nil
		}

		s.logger.Warn("id collision detected, waiting",
			slog.String("id", id),
			slog.Duration("wait", s.collisionWait))
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(s.collisionWait):
		}
	}
}

func (s *Store) idTaken(id string) (bool, error) {
	name := id + ".md"
	for _, folder := range FolderNames() {
		ok, err := s.files.Exists(filepath.Join(folder, name))
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// Read finds a note by ID, searching every declared folder recursively so
// nested subfolders are tolerated. Absent IDs return apperr.ErrNotFound.
func (s *Store) Read(_ context.Context, id string) (*models.Note, error) {
	path, ok, err := s.findNote(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.logger.Warn("note not found", slog.String("id", id))
		return nil, fmt.Errorf("vault: note %s: %w", id, apperr.ErrNotFound)
	}

	data, err := s.files.Read(path)
	if err != nil {
		return nil, err
	}
	res, err := parser.Parse(data)
	if err != nil {
		return nil, err
	}
	return &models.Note{
		Path:        path,
		Frontmatter: res.Frontmatter,
		Title:       res.Title,
		Body:        res.Body,
		Links:       res.Links,
	}, nil
}

func (s *Store) findNote(id string) (string, bool, error) {
	name := id + ".md"
	for _, folder := range FolderNames() {
		path, ok, err := s.files.Find(folder, name)
		if err != nil {
			return "", false, err
		}
		if ok {
			return path, true, nil
		}
	}
	return "", false, nil
}

// UpdateRequest carries the optional fields for updating a note. Nil fields
// keep their current values; a non-nil empty Tags slice clears the list.
type UpdateRequest struct {
	Content *string
	Tags    []string
	Status  *string
	DryRun  bool
}

// Update applies the supplied fields to an existing note and refreshes the
// updated date. The boolean is false, with no error and no side effects,
// when the ID does not exist.
func (s *Store) Update(_ context.Context, id string, req UpdateRequest) (bool, error) {
	path, ok, err := s.findNote(id)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	data, err := s.files.Read(path)
	if err != nil {
		return false, err
	}
	res, err := parser.Parse(data)
	if err != nil {
		return false, err
	}

	fm := res.Frontmatter
	body := res.Body
	if req.Content != nil {
		body = *req.Content
	}
	if req.Tags != nil {
		tags := make([]string, 0, len(req.Tags))
		for _, t := range req.Tags {
			tags = append(tags, NormalizeTag(t))
		}
		fm.Tags = tags
	}
	if req.Status != nil {
		fm.Status = *req.Status
	}
	fm.Updated = s.now().Format(dateLayout)

	if err := fm.Validate(); err != nil {
		return false, fmt.Errorf("vault: %w: invalid frontmatter: %v", apperr.ErrValidation, err)
	}

	if req.DryRun {
		s.logger.Info("dry run, would update note", slog.String("path", path))
		return true, nil
	}

	out, err := parser.Compose(fm, "", body)
	if err != nil {
		return false, err
	}
	if err := s.files.Write(path, out); err != nil {
		return false, err
	}

	s.logger.Info("note updated", slog.String("path", path))
	return true, nil
}

// Delete removes a note by ID. The boolean is false when the ID does not
// exist. Dry-run reports success without removing anything.
func (s *Store) Delete(_ context.Context, id string, dryRun bool) (bool, error) {
	path, ok, err := s.findNote(id)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	if dryRun {
		s.logger.Info("dry run, would delete note", slog.String("path", path))
		return true, nil
	}
	if err := s.files.Delete(path); err != nil {
		return false, err
	}

	s.logger.Info("note deleted", slog.String("path", path))
	return true, nil
}

// ListFilter narrows a List call. Zero values mean no filter.
type ListFilter struct {
	Folder string
	Type   string
	Tag    string
}

// List scans the selected folders and returns summaries of the managed notes
// matching every supplied filter. Files that fail to parse are skipped with
// a warning rather than failing the scan.
func (s *Store) List(_ context.Context, filter ListFilter) ([]models.NoteSummary, error) {
	folders := FolderNames()
	if filter.Folder != "" {
		if err := ValidateFolder(filter.Folder); err != nil {
			return nil, err
		}
		folders = []string{filter.Folder}
	}
	tag := filter.Tag
	if tag != "" {
		tag = NormalizeTag(tag)
	}

	var out []models.NoteSummary
	for _, folder := range folders {
		paths, err := s.files.List(folder)
		if err != nil {
			return nil, err
		}
		for _, p := range paths {
			data, err := s.files.Read(p)
			if err != nil {
				s.logger.Warn("skipping unreadable note",
					slog.String("path", p),
					slog.String("error", err.Error()))
				continue
			}
			res, err := parser.Parse(data)
			if err != nil {
				s.logger.Warn("skipping unparseable note",
					slog.String("path", p),
					slog.String("error", err.Error()))
				continue
			}
			if !res.HasFrontmatter || res.Frontmatter.ID == "" {
				continue
			}

			fm := res.Frontmatter
			if filter.Type != "" && !typeMatches(fm.Type, filter.Type) {
				continue
			}
			if tag != "" && !slices.Contains(fm.Tags, tag) {
				continue
			}
			out = append(out, models.NoteSummary{
				ID:        fm.ID,
				Type:      fm.Type,
				Tags:      fm.Tags,
				Created:   fm.Created,
				Updated:   fm.Updated,
				Permalink: fm.Permalink,
				Path:      p,
			})
		}
	}

	s.logger.Debug("listed notes",
		slog.Int("folders", len(folders)),
		slog.Int("notes", len(out)))
	return out, nil
}

// typeMatches accepts either the raw type or its display label, ignoring case.
func typeMatches(stored, filter string) bool {
	return strings.EqualFold(stored, filter) || strings.EqualFold(stored, DisplayType(filter))
}
