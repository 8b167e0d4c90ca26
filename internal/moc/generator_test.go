package moc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/starford/muninn/internal/apperr"
	"github.com/starford/muninn/internal/storage"
	"github.com/starford/muninn/internal/testutil"
	"github.com/starford/muninn/internal/vault"
)

func newTestGenerator(t *testing.T, opts ...Option) (*Generator, storage.Provider) {
	t.Helper()
	_, files := testutil.TestVault(t)
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	current := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	store := vault.NewStore(files, logger, vault.WithClock(func() time.Time {
		current = current.Add(time.Second)
		return current
	}))
	return NewGenerator(store, files, logger, opts...), files
}

func writeTagged(t *testing.T, files storage.Provider, id string, tags ...string) {
	t.Helper()
	var list strings.Builder
	for _, tag := range tags {
		fmt.Fprintf(&list, "  - %s\n", tag)
	}
	note := fmt.Sprintf(`---
id: %q
type: Note
tags:
%screated: 2024-01-10
updated: 2024-01-10
permalink: 01-notes/01a-atomic/%s
---

# Note %s
`, id, list.String(), id, id)
	if err := files.Write("01 - Notes/01a - Atomic/"+id+".md", []byte(note)); err != nil {
		t.Fatalf("Write %s: %v", id, err)
	}
}

func seedCluster(t *testing.T, files storage.Provider, tag string, n int) []string {
	t.Helper()
	ids := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		id := fmt.Sprintf("20240110%06d", i)
		writeTagged(t, files, id, tag)
		ids = append(ids, id)
	}
	return ids
}

func TestFindClusters_DefaultThreshold(t *testing.T) {
	g, files := newTestGenerator(t)

	seedCluster(t, files, "golang", DefaultThreshold)
	for i := 1; i < DefaultThreshold; i++ {
		writeTagged(t, files, fmt.Sprintf("20240111%06d", i), "rust")
	}

	clusters, err := g.FindClusters(context.Background())
	if err != nil {
		t.Fatalf("FindClusters: %v", err)
	}
	if len(clusters) != 1 {
		t.Fatalf("clusters = %d, want 1", len(clusters))
	}
	c := clusters[0]
	if c.Tag != "golang" {
		t.Errorf("Tag = %q, want golang", c.Tag)
	}
	if c.Count != DefaultThreshold || len(c.NoteIDs) != DefaultThreshold {
		t.Errorf("Count = %d, NoteIDs = %d, want %d", c.Count, len(c.NoteIDs), DefaultThreshold)
	}
	if !c.ShouldCreateMOC {
		t.Error("ShouldCreateMOC = false")
	}
	for i := 1; i < len(c.NoteIDs); i++ {
		if c.NoteIDs[i-1] >= c.NoteIDs[i] {
			t.Fatalf("NoteIDs not sorted: %v", c.NoteIDs)
		}
	}
}

func TestWithThreshold(t *testing.T) {
	g, files := newTestGenerator(t, WithThreshold(3))
	if g.Threshold() != 3 {
		t.Fatalf("Threshold = %d, want 3", g.Threshold())
	}

	seedCluster(t, files, "zig", 3)
	clusters, err := g.FindClusters(context.Background())
	if err != nil {
		t.Fatalf("FindClusters: %v", err)
	}
	if len(clusters) != 1 || clusters[0].Tag != "zig" {
		t.Errorf("clusters = %v", clusters)
	}

	// Non-positive overrides keep the default.
	g2, _ := newTestGenerator(t, WithThreshold(0))
	if g2.Threshold() != DefaultThreshold {
		t.Errorf("Threshold = %d, want default %d", g2.Threshold(), DefaultThreshold)
	}
}

func TestClusterFor(t *testing.T) {
	g, files := newTestGenerator(t)
	seedCluster(t, files, "golang", 2)

	c, err := g.ClusterFor(context.Background(), "golang", 5)
	if err != nil {
		t.Fatalf("ClusterFor: %v", err)
	}
	if c.Count != 2 || c.ShouldCreateMOC {
		t.Errorf("cluster = %+v, want 2 notes below threshold", c)
	}

	missing, err := g.ClusterFor(context.Background(), "no-such-tag", 5)
	if err != nil {
		t.Fatalf("ClusterFor: %v", err)
	}
	if missing.Count != 0 {
		t.Errorf("Count = %d, want 0", missing.Count)
	}
}

func TestCheckMOCNeeded(t *testing.T) {
	g, files := newTestGenerator(t, WithThreshold(3))
	seedCluster(t, files, "golang", 3)
	seedCluster(t, files, "rust", 2)

	c, err := g.CheckMOCNeeded(context.Background(), "golang")
	if err != nil {
		t.Fatalf("CheckMOCNeeded: %v", err)
	}
	if c == nil || !c.ShouldCreateMOC {
		t.Errorf("cluster = %+v, want met threshold", c)
	}

	below, err := g.CheckMOCNeeded(context.Background(), "rust")
	if err != nil {
		t.Fatalf("CheckMOCNeeded: %v", err)
	}
	if below != nil {
		t.Errorf("cluster = %+v, want nil below threshold", below)
	}
}

func TestCreateForTag(t *testing.T) {
	g, files := newTestGenerator(t, WithThreshold(3))
	ids := seedCluster(t, files, "machine-learning", 3)

	res, err := g.CreateForTag(context.Background(), "Machine Learning", 0, false)
	if err != nil {
		t.Fatalf("CreateForTag: %v", err)
	}

	if res.Tag != "machine-learning" {
		t.Errorf("Tag = %q, want normalized machine-learning", res.Tag)
	}
	if res.NoteCount != 3 || res.Threshold != 3 {
		t.Errorf("NoteCount = %d, Threshold = %d", res.NoteCount, res.Threshold)
	}
	if !res.ShouldCreate || !res.MOCCreated {
		t.Errorf("ShouldCreate = %v, MOCCreated = %v", res.ShouldCreate, res.MOCCreated)
	}
	if res.NoteID == "" || !strings.HasPrefix(res.FilePath, Folder+"/") {
		t.Errorf("NoteID = %q, FilePath = %q", res.NoteID, res.FilePath)
	}

	data, err := files.Read(res.FilePath)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "# Machine Learning MOC") {
		t.Errorf("missing title heading:\n%s", content)
	}
	if !strings.Contains(content, "Collection of 3 notes about machine learning") {
		t.Errorf("missing summary line:\n%s", content)
	}
	for _, id := range ids {
		if !strings.Contains(content, "[["+id+"]]") {
			t.Errorf("missing link to %s", id)
		}
	}
	if !strings.Contains(content, "- machine-learning") || !strings.Contains(content, "- moc") {
		t.Errorf("missing tags:\n%s", content)
	}
	if !strings.Contains(content, "type: Map of Content") {
		t.Errorf("missing type label:\n%s", content)
	}
}

func TestCreateForTag_BelowThreshold(t *testing.T) {
	g, files := newTestGenerator(t)
	seedCluster(t, files, "golang", 2)

	res, err := g.CreateForTag(context.Background(), "golang", 0, false)
	if err != nil {
		t.Fatalf("CreateForTag: %v", err)
	}
	if res.ShouldCreate || res.MOCCreated {
		t.Errorf("result = %+v, want nothing created", res)
	}
	if res.NoteCount != 2 || res.Threshold != DefaultThreshold {
		t.Errorf("NoteCount = %d, Threshold = %d", res.NoteCount, res.Threshold)
	}

	paths, err := files.List(Folder)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(paths) != 0 {
		t.Errorf("MOC folder not empty: %v", paths)
	}
}

func TestCreateForTag_DryRunBelowThreshold(t *testing.T) {
	g, files := newTestGenerator(t)
	seedCluster(t, files, "golang", 2)

	res, err := g.CreateForTag(context.Background(), "golang", 0, true)
	if err != nil {
		t.Fatalf("CreateForTag: %v", err)
	}
	want := fmt.Sprintf("Would create MOC with 2 notes (threshold: %d)", DefaultThreshold)
	if res.Preview != want {
		t.Errorf("Preview = %q, want %q", res.Preview, want)
	}
	if res.MOCCreated {
		t.Error("dry run created a note")
	}
}

func TestCreateForTag_DryRunPreviewTruncates(t *testing.T) {
	g, files := newTestGenerator(t, WithThreshold(3))
	seedCluster(t, files, "golang", 7)

	res, err := g.CreateForTag(context.Background(), "golang", 0, true)
	if err != nil {
		t.Fatalf("CreateForTag: %v", err)
	}

	if !strings.HasPrefix(res.Preview, "# Golang MOC\n\nCollection of 7 notes about golang\n\n## Notes\n\n") {
		t.Errorf("Preview = %q", res.Preview)
	}
	if strings.Count(res.Preview, "[[") != previewLinkLimit {
		t.Errorf("preview lists %d links, want %d", strings.Count(res.Preview, "[["), previewLinkLimit)
	}
	if !strings.Contains(res.Preview, "... (2 more notes)") {
		t.Errorf("Preview = %q", res.Preview)
	}

	paths, err := files.List(Folder)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(paths) != 0 {
		t.Errorf("dry run wrote files: %v", paths)
	}
}

func TestCreateForTag_Validation(t *testing.T) {
	g, _ := newTestGenerator(t)
	ctx := context.Background()

	if _, err := g.CreateForTag(ctx, "", 0, false); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("empty tag: %v, want ErrValidation", err)
	}
	if _, err := g.CreateForTag(ctx, "!!!", 0, false); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("unnormalizable tag: %v, want ErrValidation", err)
	}
	if _, err := g.CreateForTag(ctx, "golang", -1, false); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("negative threshold: %v, want ErrValidation", err)
	}
}

func TestCreateMOC_BelowThresholdStillWrites(t *testing.T) {
	g, files := newTestGenerator(t)
	seedCluster(t, files, "golang", 2)

	cluster, err := g.ClusterFor(context.Background(), "golang", DefaultThreshold)
	if err != nil {
		t.Fatalf("ClusterFor: %v", err)
	}

	note, err := g.CreateMOC(context.Background(), CreateRequest{Cluster: cluster})
	if err != nil {
		t.Fatalf("CreateMOC: %v", err)
	}
	ok, err := files.Exists(note.Path)
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if !ok {
		t.Error("explicit create below threshold wrote nothing")
	}
}

func TestCreateAllNeeded(t *testing.T) {
	g, files := newTestGenerator(t, WithThreshold(3))
	seedCluster(t, files, "golang", 3)
	for i := 1; i <= 3; i++ {
		writeTagged(t, files, fmt.Sprintf("20240112%06d", i), "rust")
	}
	writeTagged(t, files, "20240113000001", "lonely")

	created, err := g.CreateAllNeeded(context.Background(), false)
	if err != nil {
		t.Fatalf("CreateAllNeeded: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("created %d MOCs, want 2", len(created))
	}

	paths, err := files.List(Folder)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(paths) != 2 {
		t.Errorf("MOC folder holds %d files, want 2", len(paths))
	}
}

func TestCreateAllNeeded_DryRun(t *testing.T) {
	g, files := newTestGenerator(t, WithThreshold(3))
	seedCluster(t, files, "golang", 3)

	created, err := g.CreateAllNeeded(context.Background(), true)
	if err != nil {
		t.Fatalf("CreateAllNeeded: %v", err)
	}
	if len(created) != 1 {
		t.Fatalf("created = %d results, want 1", len(created))
	}

	paths, err := files.List(Folder)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(paths) != 0 {
		t.Errorf("dry run wrote files: %v", paths)
	}
}
