package api

import (
	"encoding/json"
	"net/http"

	"github.com/starford/muninn/internal/service"
	"github.com/starford/muninn/internal/vault"
)

// Info describes the running service for the root and health endpoints.
type Info struct {
	Version      string
	VaultPath    string
	MOCThreshold int
	VectorSearch bool
}

// Handler holds API route handlers.
type Handler struct {
	svc  *service.Service
	info Info
}

// NewHandler creates a new Handler.
func NewHandler(svc *service.Service, info Info) *Handler {
	return &Handler{svc: svc, info: info}
}

// ToolDescriptor names one tool endpoint under /api/tools.
type ToolDescriptor struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description" validate:"required"`
}

var toolDescriptors = []ToolDescriptor{
	{Name: "write_note", Description: "Create a note that follows the vault conventions"},
	{Name: "read_note", Description: "Read a note by its 14-digit ID"},
	{Name: "update_note", Description: "Update content, tags, or status of an existing note"},
	{Name: "delete_note", Description: "Delete a note by its 14-digit ID"},
	{Name: "list_notes", Description: "List notes filtered by folder, type, or tag"},
	{Name: "search_notes", Description: "Search the vault by meaning, not keywords"},
	{Name: "suggest_tags", Description: "Suggest tags from the vocabulary already in use"},
	{Name: "process_inbox_item", Description: "Route one captured item into the right folder with tags"},
	{Name: "process_inbox_batch", Description: "Route several captured items in one call"},
	{Name: "create_moc", Description: "Create a Map of Content index note for a tag cluster"},
	{Name: "vault_stats", Description: "Report note counts and vocabulary statistics"},
	{Name: "refresh_vocabulary", Description: "Rebuild the tag vocabulary from the vault"},
}

// decodeBody decodes a JSON request body into dst, writing a 400 response
// and returning false on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return false
	}
	return true
}

// Root handles GET /.
//
//	@Summary		Service banner with endpoint pointers
//	@Tags			system
//	@Produce		json
//	@Success		200	{object}	map[string]any
//	@Router			/ [get]
func (h *Handler) Root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service":    "muninn",
		"version":    h.info.Version,
		"status":     "running",
		"health":     "/health",
		"tools":      "/api/tools",
		"events":     "/api/events",
		"tool_count": len(toolDescriptors),
	})
}

// Health handles GET /health.
//
//	@Summary		Health check with effective configuration
//	@Tags			system
//	@Produce		json
//	@Success		200	{object}	map[string]any
//	@Router			/health [get]
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"service": "muninn",
		"version": h.info.Version,
		"config": map[string]any{
			"vault_path":    h.info.VaultPath,
			"moc_threshold": h.info.MOCThreshold,
			"vector_search": h.info.VectorSearch,
		},
	})
}

// Tools handles GET /api/tools.
//
//	@Summary		List the available tool endpoints
//	@Tags			tools
//	@Produce		json
//	@Success		200	{object}	map[string]any
//	@Security		BearerAuth
//	@Router			/tools [get]
func (h *Handler) Tools(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"tools": toolDescriptors,
		"total": len(toolDescriptors),
	})
}

// WriteNote handles POST /api/tools/write_note.
//
//	@Summary		Create a note following the vault conventions
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		WriteNoteRequest	true	"Note to create"
//	@Success		200		{object}	WriteNoteResult
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tools/write_note [post]
func (h *Handler) WriteNote(w http.ResponseWriter, r *http.Request) {
	var req WriteNoteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	res, err := h.svc.WriteNote(r.Context(), service.WriteNoteRequest{
		Title:   req.Title,
		Content: req.Content,
		Folder:  req.Folder,
		Type:    req.NoteType,
		Tags:    req.Tags,
		Status:  req.Status,
		DryRun:  req.DryRun,
	})
	if err != nil {
		writeServiceError(w, "write note", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ReadNote handles POST /api/tools/read_note.
//
//	@Summary		Read a note by ID
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ReadNoteRequest	true	"Note to read"
//	@Success		200		{object}	NoteContent
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tools/read_note [post]
func (h *Handler) ReadNote(w http.ResponseWriter, r *http.Request) {
	var req ReadNoteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	res, err := h.svc.ReadNote(r.Context(), req.NoteID)
	if err != nil {
		writeServiceError(w, "read note", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// UpdateNote handles POST /api/tools/update_note.
//
//	@Summary		Update content, tags, or status of a note
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		UpdateNoteRequest	true	"Fields to update"
//	@Success		200		{object}	MutationResult
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tools/update_note [post]
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	var req UpdateNoteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	res, err := h.svc.UpdateNote(r.Context(), service.UpdateNoteRequest{
		NoteID:  req.NoteID,
		Content: req.Content,
		Tags:    req.Tags,
		Status:  req.Status,
		DryRun:  req.DryRun,
	})
	if err != nil {
		writeServiceError(w, "update note", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// DeleteNote handles POST /api/tools/delete_note.
//
//	@Summary		Delete a note by ID
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		DeleteNoteRequest	true	"Note to delete"
//	@Success		200		{object}	MutationResult
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tools/delete_note [post]
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	var req DeleteNoteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	res, err := h.svc.DeleteNote(r.Context(), req.NoteID, req.DryRun)
	if err != nil {
		writeServiceError(w, "delete note", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ListNotes handles POST /api/tools/list_notes. An empty body lists every
// managed note.
//
//	@Summary		List notes filtered by folder, type, or tag
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ListNotesRequest	false	"Filters"
//	@Success		200		{object}	NoteListResponse
//	@Security		BearerAuth
//	@Router			/tools/list_notes [post]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	var req ListNotesRequest
	if r.ContentLength != 0 && !decodeBody(w, r, &req) {
		return
	}
	res, err := h.svc.ListNotes(r.Context(), vault.ListFilter{
		Folder: req.Folder,
		Type:   req.NoteType,
		Tag:    req.Tag,
	})
	if err != nil {
		writeServiceError(w, "list notes", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// SearchNotes handles POST /api/tools/search_notes.
//
//	@Summary		Semantic search across the vault
//	@Tags			search
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SearchNotesRequest	true	"Query"
//	@Success		200		{object}	SearchResponse
//	@Failure		503		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tools/search_notes [post]
func (h *Handler) SearchNotes(w http.ResponseWriter, r *http.Request) {
	var req SearchNotesRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	res, err := h.svc.SearchNotes(r.Context(), req.Query, req.Limit)
	if err != nil {
		writeServiceError(w, "search notes", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// SuggestTags handles POST /api/tools/suggest_tags.
//
//	@Summary		Suggest tags from the vocabulary already in use
//	@Tags			tags
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SuggestTagsRequest	true	"Content to analyze"
//	@Success		200		{object}	TagSuggestions
//	@Security		BearerAuth
//	@Router			/tools/suggest_tags [post]
func (h *Handler) SuggestTags(w http.ResponseWriter, r *http.Request) {
	var req SuggestTagsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	res, err := h.svc.SuggestTags(r.Context(), req.Content, req.Title, req.MaxTags)
	if err != nil {
		writeServiceError(w, "suggest tags", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ProcessInboxItem handles POST /api/tools/process_inbox_item.
//
//	@Summary		Route one captured item into the vault
//	@Tags			inbox
//	@Accept			json
//	@Produce		json
//	@Param			body	body		InboxItemRequest	true	"Captured item"
//	@Success		200		{object}	InboxResult
//	@Security		BearerAuth
//	@Router			/tools/process_inbox_item [post]
func (h *Handler) ProcessInboxItem(w http.ResponseWriter, r *http.Request) {
	var req InboxItemRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	res, err := h.svc.ProcessInboxItem(r.Context(), req.Title, req.Content, req.MaxTags)
	if err != nil {
		writeServiceError(w, "process inbox item", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ProcessInboxBatch handles POST /api/tools/process_inbox_batch.
//
//	@Summary		Route several captured items in one call
//	@Tags			inbox
//	@Accept			json
//	@Produce		json
//	@Param			body	body		InboxBatchRequest	true	"Captured items"
//	@Success		200		{object}	InboxBatchResponse
//	@Security		BearerAuth
//	@Router			/tools/process_inbox_batch [post]
func (h *Handler) ProcessInboxBatch(w http.ResponseWriter, r *http.Request) {
	var req InboxBatchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	res, err := h.svc.ProcessInboxBatch(r.Context(), req.Items, req.MaxTags)
	if err != nil {
		writeServiceError(w, "process inbox batch", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// CreateMOC handles POST /api/tools/create_moc.
//
//	@Summary		Create a Map of Content index note for a tag cluster
//	@Tags			moc
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateMOCRequest	true	"Tag and threshold"
//	@Success		200		{object}	MOCResult
//	@Security		BearerAuth
//	@Router			/tools/create_moc [post]
func (h *Handler) CreateMOC(w http.ResponseWriter, r *http.Request) {
	var req CreateMOCRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	res, err := h.svc.CreateMOC(r.Context(), req.Tag, req.Threshold, req.DryRun)
	if err != nil {
		writeServiceError(w, "create moc", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// VaultStats handles POST /api/tools/vault_stats.
//
//	@Summary		Report note counts and vocabulary statistics
//	@Tags			system
//	@Produce		json
//	@Success		200	{object}	VaultStatsResponse
//	@Security		BearerAuth
//	@Router			/tools/vault_stats [post]
func (h *Handler) VaultStats(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.VaultStats(r.Context())
	if err != nil {
		writeServiceError(w, "vault stats", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// RefreshVocabulary handles POST /api/tools/refresh_vocabulary.
//
//	@Summary		Rebuild the tag vocabulary from the vault
//	@Tags			tags
//	@Produce		json
//	@Success		200	{object}	VocabularyInfo
//	@Security		BearerAuth
//	@Router			/tools/refresh_vocabulary [post]
func (h *Handler) RefreshVocabulary(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.RefreshVocabulary(r.Context())
	if err != nil {
		writeServiceError(w, "refresh vocabulary", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
