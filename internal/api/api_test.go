package api

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/starford/muninn/internal/inbox"
	"github.com/starford/muninn/internal/moc"
	"github.com/starford/muninn/internal/service"
	"github.com/starford/muninn/internal/tags"
	"github.com/starford/muninn/internal/testutil"
	"github.com/starford/muninn/internal/vault"
)

// buildRouter wires a real service over a temp vault. The store clock
// advances one second per call so consecutive creates never collide.
func buildRouter(t *testing.T, authEnabled bool, token string, events http.Handler) http.Handler {
	t.Helper()
	_, files := testutil.TestVault(t)
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	current := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	store := vault.NewStore(files, logger, vault.WithClock(func() time.Time {
		current = current.Add(time.Second)
		return current
	}))
	analyzer := tags.NewAnalyzer(files, logger)
	svc := service.New(service.Deps{
		Store:     store,
		Analyzer:  analyzer,
		Processor: inbox.NewProcessor(store, analyzer, logger),
		Generator: moc.NewGenerator(store, files, logger),
		Logger:    logger,
	})
	h := NewHandler(svc, Info{Version: "test", VaultPath: "/tmp/vault", MOCThreshold: moc.DefaultThreshold})
	return NewRouter(h, authEnabled, token, events)
}

// testEnv builds a router. authToken="" means disabled mode; non-empty
// means token mode.
func testEnv(t *testing.T, authToken string) http.Handler {
	t.Helper()
	return buildRouter(t, authToken != "", authToken, nil)
}

func postTool(t *testing.T, router http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var data []byte
	if body != nil {
		var err error
		data, err = json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func writeNote(t *testing.T, router http.Handler, title, folder, noteType string, noteTags []string) WriteNoteResult {
	t.Helper()
	w := postTool(t, router, "/tools/write_note", map[string]any{
		"title":     title,
		"content":   "Body for " + title + ".",
		"folder":    folder,
		"note_type": noteType,
		"tags":      noteTags,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("write_note status = %d, body = %s", w.Code, w.Body.String())
	}
	var res WriteNoteResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	return res
}

func TestWriteAndReadNote(t *testing.T) {
	router := testEnv(t, "")

	created := writeNote(t, router, "Vector Clocks", "01 - Notes/01a - Atomic", "note", []string{"Distributed Systems"})
	if len(created.NoteID) != 14 {
		t.Errorf("note_id = %q, want 14 digits", created.NoteID)
	}
	if !strings.HasPrefix(created.Permalink, "01-notes/01a-atomic/") {
		t.Errorf("permalink = %q", created.Permalink)
	}
	for _, want := range []string{"distributed-systems", "03-2024"} {
		found := false
		for _, tag := range created.Tags {
			if tag == want {
				found = true
			}
		}
		if !found {
			t.Errorf("tags = %v, missing %q", created.Tags, want)
		}
	}

	w := postTool(t, router, "/tools/read_note", map[string]string{"note_id": created.NoteID})
	if w.Code != http.StatusOK {
		t.Fatalf("read_note status = %d, body = %s", w.Code, w.Body.String())
	}
	var note NoteContent
	if err := json.Unmarshal(w.Body.Bytes(), &note); err != nil {
		t.Fatal(err)
	}
	if note.NoteID != created.NoteID {
		t.Errorf("note_id = %q, want %q", note.NoteID, created.NoteID)
	}
	if note.Title != "Vector Clocks" {
		t.Errorf("title = %q, want Vector Clocks", note.Title)
	}
	if !strings.Contains(note.Content, "Body for Vector Clocks.") {
		t.Errorf("content = %q", note.Content)
	}
}

func TestWriteNote_MissingFields(t *testing.T) {
	router := testEnv(t, "")

	w := postTool(t, router, "/tools/write_note", map[string]string{"title": "Only a title"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestWriteNote_UnknownFolder(t *testing.T) {
	router := testEnv(t, "")

	w := postTool(t, router, "/tools/write_note", map[string]any{
		"title": "X", "content": "c", "folder": "99 - Nope", "note_type": "note",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), "unknown folder") {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestWriteNote_TypeNotAllowedInFolder(t *testing.T) {
	router := testEnv(t, "")

	w := postTool(t, router, "/tools/write_note", map[string]any{
		"title": "X", "content": "c", "folder": "02 - MOCs", "note_type": "note",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), "not allowed") {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestWriteNote_DryRun(t *testing.T) {
	router := testEnv(t, "")

	w := postTool(t, router, "/tools/write_note", map[string]any{
		"title": "Ghost", "content": "never lands", "folder": "01 - Notes/01a - Atomic",
		"note_type": "note", "dry_run": true,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var res WriteNoteResult
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	if !res.DryRun {
		t.Error("dry_run flag not echoed")
	}

	w = postTool(t, router, "/tools/read_note", map[string]string{"note_id": res.NoteID})
	if w.Code != http.StatusNotFound {
		t.Errorf("dry-run note readable, status = %d", w.Code)
	}
}

func TestReadNote_NotFound(t *testing.T) {
	router := testEnv(t, "")

	w := postTool(t, router, "/tools/read_note", map[string]string{"note_id": "20990101000000"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if !strings.Contains(w.Body.String(), "not found") {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestUpdateAndDeleteNote(t *testing.T) {
	router := testEnv(t, "")

	created := writeNote(t, router, "Mutable", "01 - Notes/01a - Atomic", "note", nil)

	w := postTool(t, router, "/tools/update_note", map[string]any{
		"note_id": created.NoteID, "content": "Rewritten body.", "status": "evergreen",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d, body = %s", w.Code, w.Body.String())
	}
	var mut MutationResult
	_ = json.Unmarshal(w.Body.Bytes(), &mut)
	if !mut.Success || mut.NoteID != created.NoteID {
		t.Errorf("mutation = %+v", mut)
	}

	w = postTool(t, router, "/tools/read_note", map[string]string{"note_id": created.NoteID})
	var note NoteContent
	_ = json.Unmarshal(w.Body.Bytes(), &note)
	if !strings.Contains(note.Content, "Rewritten body.") {
		t.Errorf("content after update = %q", note.Content)
	}
	if note.Frontmatter.Status != "evergreen" {
		t.Errorf("status = %q, want evergreen", note.Frontmatter.Status)
	}

	w = postTool(t, router, "/tools/delete_note", map[string]string{"note_id": created.NoteID})
	if w.Code != http.StatusOK {
		t.Fatalf("delete status = %d", w.Code)
	}
	w = postTool(t, router, "/tools/read_note", map[string]string{"note_id": created.NoteID})
	if w.Code != http.StatusNotFound {
		t.Errorf("read after delete = %d, want 404", w.Code)
	}
}

func TestUpdateNote_NothingToUpdate(t *testing.T) {
	router := testEnv(t, "")

	created := writeNote(t, router, "Stale", "01 - Notes/01a - Atomic", "note", nil)
	w := postTool(t, router, "/tools/update_note", map[string]string{"note_id": created.NoteID})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), "nothing to update") {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestUpdateNote_NotFound(t *testing.T) {
	router := testEnv(t, "")

	w := postTool(t, router, "/tools/update_note", map[string]any{
		"note_id": "20990101000000", "content": "x",
	})
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestListNotes(t *testing.T) {
	router := testEnv(t, "")

	writeNote(t, router, "Atomic One", "01 - Notes/01a - Atomic", "note", []string{"golang"})
	writeNote(t, router, "A Thought", "00 - Inbox/00t - Thoughts", "thought", []string{"golang"})
	writeNote(t, router, "A Clip", "05 - Resources/05c - Clippings", "clipping", nil)

	w := postTool(t, router, "/tools/list_notes", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d, body = %s", w.Code, w.Body.String())
	}
	var all NoteListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &all)
	if all.Total != 3 || len(all.Notes) != 3 {
		t.Errorf("total = %d, len = %d, want 3", all.Total, len(all.Notes))
	}

	w = postTool(t, router, "/tools/list_notes", map[string]string{"folder": "01 - Notes/01a - Atomic"})
	var byFolder NoteListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &byFolder)
	if byFolder.Total != 1 {
		t.Errorf("folder filter total = %d, want 1", byFolder.Total)
	}

	w = postTool(t, router, "/tools/list_notes", map[string]string{"tag": "golang"})
	var byTag NoteListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &byTag)
	if byTag.Total != 2 {
		t.Errorf("tag filter total = %d, want 2", byTag.Total)
	}

	w = postTool(t, router, "/tools/list_notes", map[string]string{"note_type": "thought"})
	var byType NoteListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &byType)
	if byType.Total != 1 {
		t.Errorf("type filter total = %d, want 1", byType.Total)
	}
}

func TestListNotes_UnknownFolder(t *testing.T) {
	router := testEnv(t, "")

	w := postTool(t, router, "/tools/list_notes", map[string]string{"folder": "bogus"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestSearchNotes_NotConfigured(t *testing.T) {
	router := testEnv(t, "")

	w := postTool(t, router, "/tools/search_notes", map[string]string{"query": "anything"})
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}

func TestSearchNotes_MissingQuery(t *testing.T) {
	router := testEnv(t, "")

	w := postTool(t, router, "/tools/search_notes", map[string]string{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestSuggestTags(t *testing.T) {
	router := testEnv(t, "")

	writeNote(t, router, "Go Testing", "01 - Notes/01a - Atomic", "note", []string{"golang", "testing"})

	w := postTool(t, router, "/tools/suggest_tags", map[string]any{
		"content": "More about golang and its testing story",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var res TagSuggestions
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	if res.VocabularySize < 2 {
		t.Errorf("vocabulary_size = %d, want >= 2", res.VocabularySize)
	}
	found := false
	for _, tag := range res.Tags {
		if tag == "golang" {
			found = true
		}
	}
	if !found {
		t.Errorf("tags = %v, want golang suggested", res.Tags)
	}
}

func TestProcessInboxItem(t *testing.T) {
	router := testEnv(t, "")

	w := postTool(t, router, "/tools/process_inbox_item", map[string]string{
		"title":   "Random thought",
		"content": "I wonder about memory palaces",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var res InboxResult
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	if res.Folder != "01 - Notes/01a - Atomic" {
		t.Errorf("folder = %q", res.Folder)
	}
	if res.SourceType != inbox.SourceThought {
		t.Errorf("source_type = %q", res.SourceType)
	}
	if res.FilePath == "" {
		t.Error("file_path empty")
	}
}

func TestProcessInboxItem_MissingContent(t *testing.T) {
	router := testEnv(t, "")

	w := postTool(t, router, "/tools/process_inbox_item", map[string]string{"title": "No body"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestProcessInboxBatch(t *testing.T) {
	router := testEnv(t, "")

	w := postTool(t, router, "/tools/process_inbox_batch", map[string]any{
		"items": []map[string]string{
			{"title": "An idea", "content": "Plain musing about habits"},
			{"title": "Good read", "content": "https://example.com/article worth reading"},
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var res InboxBatchResponse
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	if res.Processed != 2 || res.Failed != 0 {
		t.Errorf("processed = %d, failed = %d", res.Processed, res.Failed)
	}
	if len(res.Results) != 2 {
		t.Fatalf("results = %d, want 2", len(res.Results))
	}
	if res.Results[1].Folder != "05 - Resources/05c - Clippings" {
		t.Errorf("url item folder = %q", res.Results[1].Folder)
	}
}

func TestProcessInboxBatch_Empty(t *testing.T) {
	router := testEnv(t, "")

	w := postTool(t, router, "/tools/process_inbox_batch", map[string]any{"items": []map[string]string{}})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestCreateMOC(t *testing.T) {
	router := testEnv(t, "")

	for _, title := range []string{"Go One", "Go Two", "Go Three"} {
		writeNote(t, router, title, "01 - Notes/01a - Atomic", "note", []string{"golang"})
	}

	w := postTool(t, router, "/tools/create_moc", map[string]any{
		"tag": "golang", "threshold": 3, "dry_run": true,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("dry-run status = %d, body = %s", w.Code, w.Body.String())
	}
	var dry MOCResult
	_ = json.Unmarshal(w.Body.Bytes(), &dry)
	if !dry.ShouldCreate || dry.MOCCreated || dry.NoteCount != 3 {
		t.Errorf("dry-run result = %+v", dry)
	}
	if dry.Preview == "" {
		t.Error("dry-run preview empty")
	}

	w = postTool(t, router, "/tools/create_moc", map[string]any{"tag": "golang", "threshold": 3})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var res MOCResult
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	if !res.MOCCreated || res.NoteID == "" {
		t.Fatalf("result = %+v", res)
	}
	if !strings.HasPrefix(res.FilePath, "02 - MOCs/") {
		t.Errorf("file_path = %q", res.FilePath)
	}

	w = postTool(t, router, "/tools/read_note", map[string]string{"note_id": res.NoteID})
	if w.Code != http.StatusOK {
		t.Fatalf("read moc status = %d", w.Code)
	}
	var note NoteContent
	_ = json.Unmarshal(w.Body.Bytes(), &note)
	if note.Title != "Golang MOC" {
		t.Errorf("moc title = %q", note.Title)
	}
}

func TestCreateMOC_BadRequest(t *testing.T) {
	router := testEnv(t, "")

	w := postTool(t, router, "/tools/create_moc", map[string]string{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing tag status = %d, want 400", w.Code)
	}

	w = postTool(t, router, "/tools/create_moc", map[string]any{"tag": "x", "threshold": -1})
	if w.Code != http.StatusBadRequest {
		t.Errorf("negative threshold status = %d, want 400", w.Code)
	}
}

func TestVaultStats(t *testing.T) {
	router := testEnv(t, "")

	writeNote(t, router, "One", "01 - Notes/01a - Atomic", "note", []string{"golang"})
	writeNote(t, router, "Two", "01 - Notes/01a - Atomic", "note", []string{"golang"})

	w := postTool(t, router, "/tools/vault_stats", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var stats VaultStatsResponse
	_ = json.Unmarshal(w.Body.Bytes(), &stats)
	if stats.TotalNotes != 2 {
		t.Errorf("total_notes = %d, want 2", stats.TotalNotes)
	}
	if stats.VectorEnabled {
		t.Error("vector_enabled = true without a searcher")
	}
	if stats.Vocabulary.TotalTags < 1 {
		t.Errorf("vocabulary tags = %d, want >= 1", stats.Vocabulary.TotalTags)
	}
}

func TestRefreshVocabulary(t *testing.T) {
	router := testEnv(t, "")

	writeNote(t, router, "Tagged", "01 - Notes/01a - Atomic", "note", []string{"golang"})

	w := postTool(t, router, "/tools/refresh_vocabulary", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var res VocabularyInfo
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	// golang plus the month tag.
	if res.TagCount != 2 {
		t.Errorf("tag_count = %d, want 2", res.TagCount)
	}
}

func TestToolsListing(t *testing.T) {
	router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/tools", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var res struct {
		Tools []ToolDescriptor `json:"tools"`
		Total int              `json:"total"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	if res.Total != len(toolDescriptors) || len(res.Tools) != len(toolDescriptors) {
		t.Errorf("total = %d, len = %d, want %d", res.Total, len(res.Tools), len(toolDescriptors))
	}
	if res.Tools[0].Name != "write_note" {
		t.Errorf("first tool = %q", res.Tools[0].Name)
	}
}

func TestInvalidJSONBody(t *testing.T) {
	router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodPost, "/tools/write_note", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	router := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/tools", nil)
	req.Header.Set("Authorization", "Bearer secret123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("authed = %d, want 200", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	router := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/tools", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	router := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/tools", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_QueryToken(t *testing.T) {
	router := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/tools?token=secret123", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("query token = %d, want 200", w.Code)
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/tools", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("no auth = %d, want 200", w.Code)
	}
}

func TestRootAndHealth(t *testing.T) {
	h := NewHandler(service.New(service.Deps{}), Info{Version: "1.2.3", VaultPath: "/v", MOCThreshold: 12})

	w := httptest.NewRecorder()
	h.Root(w, httptest.NewRequest(http.MethodGet, "/", nil))
	var root map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &root)
	if root["service"] != "muninn" || root["version"] != "1.2.3" {
		t.Errorf("root = %v", root)
	}

	w = httptest.NewRecorder()
	h.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	var health map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &health)
	if health["status"] != "healthy" {
		t.Errorf("health = %v", health)
	}
	cfg, _ := health["config"].(map[string]any)
	if cfg["moc_threshold"] != float64(12) {
		t.Errorf("config = %v", cfg)
	}
}

// SSE endpoint auth tests.

// testEnvWithSSE mounts a stub events handler to test auth on /events.
func testEnvWithSSE(t *testing.T, authEnabled bool, token string) http.Handler {
	t.Helper()
	events := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-r.Context().Done()
	})
	return buildRouter(t, authEnabled, token, events)
}

func TestSSEEvents_AuthProtected(t *testing.T) {
	router := testEnvWithSSE(t, true, "secret")

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	router := testEnvWithSSE(t, true, "tok")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code == http.StatusUnauthorized {
		t.Error("SSE with valid token should not 401")
	}
}

func TestSSEEvents_AuthDisabled(t *testing.T) {
	router := testEnvWithSSE(t, false, "")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code == http.StatusUnauthorized {
		t.Error("SSE should not require auth when disabled")
	}
}
