// Package moc generates Map of Content index notes for tag clusters.
package moc

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/starford/muninn/internal/apperr"
	"github.com/starford/muninn/internal/models"
	"github.com/starford/muninn/internal/parser"
	"github.com/starford/muninn/internal/storage"
	"github.com/starford/muninn/internal/vault"
)

const (
	// DefaultThreshold is the note count at which a tag cluster warrants
	// its own index note.
	DefaultThreshold = 12

	// Folder is where generated index notes live.
	Folder = "02 - MOCs"

	noteType = "moc"
)

// Generator finds tag clusters and creates index notes for them. Cluster
// scans read the vault directly; note creation goes through the store so
// generated notes follow the same conventions as everything else.
type Generator struct {
	store     *vault.Store
	files     storage.Provider
	logger    *slog.Logger
	threshold int
}

// Option configures a Generator.
type Option func(*Generator)

// WithThreshold overrides the default cluster threshold. Non-positive
// values are ignored.
func WithThreshold(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.threshold = n
		}
	}
}

// NewGenerator creates a Generator over the given store and provider.
func NewGenerator(store *vault.Store, files storage.Provider, logger *slog.Logger, opts ...Option) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	g := &Generator{
		store:     store,
		files:     files,
		logger:    logger,
		threshold: DefaultThreshold,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Threshold returns the configured cluster threshold.
func (g *Generator) Threshold() int {
	return g.threshold
}

// scanClusters walks every note in the vault and maps each tag to the IDs
// of the notes carrying it. Notes without tags are skipped silently; notes
// without an ID or that fail to parse are skipped with a warning.
func (g *Generator) scanClusters(_ context.Context) (map[string][]string, error) {
	paths, err := g.files.Walk("")
	if err != nil {
		return nil, fmt.Errorf("moc: scan vault: %w", err)
	}

	tagToNotes := make(map[string][]string)
	for _, path := range paths {
		data, err := g.files.Read(path)
		if err != nil {
			g.logger.Warn("skipping unreadable note", slog.String("path", path), slog.String("error", err.Error()))
			continue
		}
		res, err := parser.Parse(data)
		if err != nil {
			g.logger.Warn("skipping unparseable note", slog.String("path", path), slog.String("error", err.Error()))
			continue
		}
		if !res.HasFrontmatter || len(res.Frontmatter.Tags) == 0 {
			continue
		}
		if res.Frontmatter.ID == "" {
			g.logger.Warn("note missing id", slog.String("path", path))
			continue
		}
		for _, tag := range res.Frontmatter.Tags {
			tagToNotes[tag] = append(tagToNotes[tag], res.Frontmatter.ID)
		}
	}
	return tagToNotes, nil
}

// FindClusters returns every tag cluster that meets the threshold, sorted
// by tag. Note IDs within each cluster are sorted.
func (g *Generator) FindClusters(ctx context.Context) ([]models.TagCluster, error) {
	tagToNotes, err := g.scanClusters(ctx)
	if err != nil {
		return nil, err
	}

	var clusters []models.TagCluster
	for tag, ids := range tagToNotes {
		sort.Strings(ids)
		cluster := models.TagCluster{Tag: tag, NoteIDs: ids, Count: len(ids)}
		if cluster.CheckThreshold(g.threshold) {
			clusters = append(clusters, cluster)
			g.logger.Info("cluster meets threshold",
				slog.String("tag", tag),
				slog.Int("notes", cluster.Count))
		}
	}
	sort.Slice(clusters, func(i, j int) bool { return clusters[i].Tag < clusters[j].Tag })
	return clusters, nil
}

// ClusterFor builds the cluster for a single tag, whatever its size, and
// marks it against the given threshold.
func (g *Generator) ClusterFor(ctx context.Context, tag string, threshold int) (*models.TagCluster, error) {
	tagToNotes, err := g.scanClusters(ctx)
	if err != nil {
		return nil, err
	}
	ids := tagToNotes[tag]
	sort.Strings(ids)
	cluster := &models.TagCluster{Tag: tag, NoteIDs: ids, Count: len(ids)}
	cluster.CheckThreshold(threshold)
	return cluster, nil
}

// CheckMOCNeeded reports whether the tag has accumulated enough notes for
// an index note. It returns nil when the threshold is not met.
func (g *Generator) CheckMOCNeeded(ctx context.Context, tag string) (*models.TagCluster, error) {
	clusters, err := g.FindClusters(ctx)
	if err != nil {
		return nil, err
	}
	for i := range clusters {
		if clusters[i].Tag == tag {
			return &clusters[i], nil
		}
	}
	return nil, nil
}

// CreateRequest carries the inputs for creating one index note.
type CreateRequest struct {
	Cluster *models.TagCluster
	DryRun  bool
	// Content overrides the generated body when non-empty.
	Content string
}

// CreateMOC writes an index note for the cluster. A below-threshold
// cluster still gets its note when explicitly asked for, with a warning.
func (g *Generator) CreateMOC(ctx context.Context, req CreateRequest) (*models.Note, error) {
	cluster := req.Cluster
	if !cluster.ShouldCreateMOC {
		g.logger.Warn("cluster below threshold",
			slog.String("tag", cluster.Tag),
			slog.Int("notes", cluster.Count),
			slog.Int("threshold", g.threshold))
	}

	title := titleCase(cluster.Tag)
	content := req.Content
	if content == "" {
		content = renderContent(cluster, title)
	}

	note, err := g.store.Create(ctx, vault.CreateRequest{
		Title:   title + " MOC",
		Content: content,
		Folder:  Folder,
		Type:    noteType,
		Tags:    []string{cluster.Tag, noteType},
		DryRun:  req.DryRun,
	})
	if err != nil {
		return nil, fmt.Errorf("moc: create for tag %q: %w", cluster.Tag, err)
	}

	g.logger.Info("moc created",
		slog.String("tag", cluster.Tag),
		slog.String("path", note.Path))
	return note, nil
}

// CreateAllNeeded creates index notes for every cluster meeting the
// threshold. One cluster's failure is logged and does not stop the rest.
func (g *Generator) CreateAllNeeded(ctx context.Context, dryRun bool) ([]*models.Note, error) {
	clusters, err := g.FindClusters(ctx)
	if err != nil {
		return nil, err
	}
	if len(clusters) == 0 {
		g.logger.Info("no clusters meet threshold")
		return nil, nil
	}

	g.logger.Info("creating mocs", slog.Int("clusters", len(clusters)))
	created := make([]*models.Note, 0, len(clusters))
	for i := range clusters {
		note, err := g.CreateMOC(ctx, CreateRequest{Cluster: &clusters[i], DryRun: dryRun})
		if err != nil {
			g.logger.Error("failed to create moc",
				slog.String("tag", clusters[i].Tag),
				slog.String("error", err.Error()))
			continue
		}
		created = append(created, note)
	}
	g.logger.Info("mocs created", slog.Int("count", len(created)))
	return created, nil
}

// ToolResult is the structured outcome of a tag-driven creation request,
// shared by the HTTP and MCP surfaces.
type ToolResult struct {
	Tag          string `json:"tag"`
	NoteCount    int    `json:"note_count"`
	Threshold    int    `json:"threshold"`
	ShouldCreate bool   `json:"should_create"`
	MOCCreated   bool   `json:"moc_created"`
	NoteID       string `json:"note_id,omitempty"`
	FilePath     string `json:"file_path,omitempty"`
	Preview      string `json:"preview,omitempty"`
}

// previewLinkLimit caps how many note links a dry-run preview lists.
const previewLinkLimit = 5

// CreateForTag resolves the cluster for a tag and creates its index note
// when the threshold is met. A zero threshold means the generator default.
// Dry-run returns a content preview instead of writing anything.
func (g *Generator) CreateForTag(ctx context.Context, tag string, threshold int, dryRun bool) (*ToolResult, error) {
	if strings.TrimSpace(tag) == "" {
		return nil, fmt.Errorf("moc: %w: tag must not be empty", apperr.ErrValidation)
	}
	normalized := vault.NormalizeTag(tag)
	if normalized == "" {
		return nil, fmt.Errorf("moc: %w: tag %q normalizes to nothing", apperr.ErrValidation, tag)
	}
	if threshold == 0 {
		threshold = g.threshold
	}
	if threshold < 1 {
		return nil, fmt.Errorf("moc: %w: threshold must be at least 1", apperr.ErrValidation)
	}

	cluster, err := g.ClusterFor(ctx, normalized, threshold)
	if err != nil {
		return nil, err
	}

	result := &ToolResult{
		Tag:          normalized,
		NoteCount:    cluster.Count,
		Threshold:    threshold,
		ShouldCreate: cluster.ShouldCreateMOC,
	}

	if dryRun {
		result.Preview = renderPreview(cluster, threshold)
		return result, nil
	}

	if !cluster.ShouldCreateMOC {
		g.logger.Info("not creating moc",
			slog.String("tag", normalized),
			slog.Int("notes", cluster.Count),
			slog.Int("threshold", threshold))
		return result, nil
	}

	note, err := g.CreateMOC(ctx, CreateRequest{Cluster: cluster})
	if err != nil {
		return nil, err
	}
	result.MOCCreated = true
	result.NoteID = note.Frontmatter.ID
	result.FilePath = note.Path
	return result, nil
}

// renderContent produces the default index note body: a summary line and a
// sorted link list.
func renderContent(cluster *models.TagCluster, title string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Collection of %d notes about %s\n\n", cluster.Count, strings.ToLower(title))
	b.WriteString("## Notes\n\n")
	ids := append([]string(nil), cluster.NoteIDs...)
	sort.Strings(ids)
	for _, id := range ids {
		fmt.Fprintf(&b, "- [[%s]]\n", id)
	}
	return b.String()
}

// renderPreview produces the dry-run text: a one-liner below threshold, a
// truncated rendering of the would-be note above it.
func renderPreview(cluster *models.TagCluster, threshold int) string {
	if !cluster.ShouldCreateMOC {
		return fmt.Sprintf("Would create MOC with %d notes (threshold: %d)", cluster.Count, threshold)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "# %s MOC\n\n", titleCase(cluster.Tag))
	fmt.Fprintf(&b, "Collection of %d notes about %s\n\n", cluster.Count, cluster.Tag)
	b.WriteString("## Notes\n\n")
	for i, id := range cluster.NoteIDs {
		if i == previewLinkLimit {
			fmt.Fprintf(&b, "- ... (%d more notes)\n", len(cluster.NoteIDs)-previewLinkLimit)
			break
		}
		fmt.Fprintf(&b, "- [[%s]]\n", id)
	}
	return b.String()
}

// titleCase turns a hyphenated tag into spaced capitalized words, so
// "machine-learning" becomes "Machine Learning".
func titleCase(tag string) string {
	words := strings.Fields(strings.ReplaceAll(tag, "-", " "))
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
