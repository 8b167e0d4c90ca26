package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with every tool route mounted.
// authEnabled controls whether Bearer token auth is enforced.
// events, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(h *Handler, authEnabled bool, token string, events http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Tool discovery.
	r.Get("/tools", h.Tools)

	// Note CRUD tools.
	r.Post("/tools/write_note", h.WriteNote)
	r.Post("/tools/read_note", h.ReadNote)
	r.Post("/tools/update_note", h.UpdateNote)
	r.Post("/tools/delete_note", h.DeleteNote)
	r.Post("/tools/list_notes", h.ListNotes)

	// Search and tagging tools.
	r.Post("/tools/search_notes", h.SearchNotes)
	r.Post("/tools/suggest_tags", h.SuggestTags)

	// Inbox tools.
	r.Post("/tools/process_inbox_item", h.ProcessInboxItem)
	r.Post("/tools/process_inbox_batch", h.ProcessInboxBatch)

	// MOC tool.
	r.Post("/tools/create_moc", h.CreateMOC)

	// Diagnostics.
	r.Post("/tools/vault_stats", h.VaultStats)
	r.Post("/tools/refresh_vocabulary", h.RefreshVocabulary)

	// SSE endpoint (protected by the same auth middleware).
	if events != nil {
		r.Get("/events", events.ServeHTTP)
	}

	return r
}
