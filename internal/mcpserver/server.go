// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the Muninn vault tools for LLM integration via stdio
// transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/muninn/internal/apperr"
	"github.com/starford/muninn/internal/inbox"
	"github.com/starford/muninn/internal/service"
	"github.com/starford/muninn/internal/vault"
)

// Server wraps the MCP server with the Muninn tools.
type Server struct {
	mcp *server.MCPServer
	svc *service.Service
}

// New creates a new MCP server with all Muninn tools registered.
func New(svc *service.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Muninn",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("write_note",
		mcp.WithDescription("Create a note that follows the vault conventions. "+
			"The server allocates the ID, builds the frontmatter, and normalizes "+
			"tags. Read the conventions first via the get_conventions tool or the "+
			"muninn://conventions resource."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Note title, used as the H1 heading")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Markdown body of the note")),
		mcp.WithString("folder", mcp.Required(), mcp.Description("Declared vault folder (e.g. \"01 - Notes/01a - Atomic\")")),
		mcp.WithString("note_type", mcp.Required(), mcp.Description("Note type the folder accepts (e.g. note, thought, moc)")),
		mcp.WithArray("tags", mcp.Description("Tags to apply; normalized to lowercase-hyphenated form"),
			mcp.Items(map[string]any{"type": "string"})),
		mcp.WithString("status", mcp.Description("Optional status stored in the frontmatter")),
		mcp.WithBoolean("dry_run", mcp.Description("Validate and report without writing")),
	), s.writeNote)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read the full content of a note by its 14-digit ID."),
		mcp.WithString("note_id", mcp.Required(), mcp.Description("14-digit note ID (e.g. 20240115103000)")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("update_note",
		mcp.WithDescription("Update content, tags, or status of an existing note. "+
			"Omitted fields keep their current values; an empty tags list clears the tags."),
		mcp.WithString("note_id", mcp.Required(), mcp.Description("14-digit note ID")),
		mcp.WithString("content", mcp.Description("Replacement Markdown body")),
		mcp.WithArray("tags", mcp.Description("Replacement tag list"),
			mcp.Items(map[string]any{"type": "string"})),
		mcp.WithString("status", mcp.Description("Replacement status")),
		mcp.WithBoolean("dry_run", mcp.Description("Validate and report without writing")),
	), s.updateNote)

	s.mcp.AddTool(mcp.NewTool("delete_note",
		mcp.WithDescription("Delete a note by its 14-digit ID."),
		mcp.WithString("note_id", mcp.Required(), mcp.Description("14-digit note ID")),
		mcp.WithBoolean("dry_run", mcp.Description("Report without deleting")),
	), s.deleteNote)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List managed notes, optionally filtered by folder, type, or tag."),
		mcp.WithString("folder", mcp.Description("Declared vault folder to list (empty for all)")),
		mcp.WithString("note_type", mcp.Description("Filter by note type")),
		mcp.WithString("tag", mcp.Description("Filter by tag")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Search the vault by meaning rather than keywords. "+
			"Returns the closest notes with similarity scores."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Natural language query")),
		mcp.WithNumber("limit", mcp.Description("Maximum results, 1 to 20 (default 5)")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("suggest_tags",
		mcp.WithDescription("Suggest tags for content from the vocabulary already in "+
			"use. Never invents new tags."),
		mcp.WithString("content", mcp.Required(), mcp.Description("Content to analyze")),
		mcp.WithString("title", mcp.Description("Optional title, weighted separately")),
		mcp.WithNumber("max_tags", mcp.Description("Maximum suggestions (default 5)")),
	), s.suggestTags)

	s.mcp.AddTool(mcp.NewTool("process_inbox_item",
		mcp.WithDescription("Route one captured item into the vault: detects whether "+
			"it is a URL, code, or a thought, picks the folder, and applies suggested tags."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Item title")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Raw captured content")),
		mcp.WithNumber("max_tags", mcp.Description("Maximum suggested tags (default 5)")),
	), s.processInboxItem)

	s.mcp.AddTool(mcp.NewTool("process_inbox_batch",
		mcp.WithDescription("Route several captured items in one call. Items that fail "+
			"report their error without aborting the rest."),
		mcp.WithArray("items", mcp.Required(),
			mcp.Description("Items to process, each with title and content"),
			mcp.Items(map[string]any{"type": "object"})),
		mcp.WithNumber("max_tags", mcp.Description("Maximum suggested tags per item (default 5)")),
	), s.processInboxBatch)

	s.mcp.AddTool(mcp.NewTool("create_moc",
		mcp.WithDescription("Create a Map of Content index note for a tag once enough "+
			"notes share it. Below the threshold the tool reports the cluster size and "+
			"does nothing."),
		mcp.WithString("tag", mcp.Required(), mcp.Description("Tag to build the MOC for")),
		mcp.WithNumber("threshold", mcp.Description("Minimum cluster size (default 12)")),
		mcp.WithBoolean("dry_run", mcp.Description("Preview the MOC without writing")),
	), s.createMOC)

	s.mcp.AddTool(mcp.NewTool("vault_stats",
		mcp.WithDescription("Report note counts, vocabulary statistics, and index figures."),
	), s.vaultStats)

	s.mcp.AddTool(mcp.NewTool("refresh_vocabulary",
		mcp.WithDescription("Rebuild the tag vocabulary from the vault."),
	), s.refreshVocabulary)

	s.mcp.AddTool(mcp.NewTool("get_conventions",
		mcp.WithDescription("Returns the vault conventions document. Call this before "+
			"writing notes to learn the folder taxonomy and frontmatter rules."),
	), s.getConventions)

	// Resource: vault conventions.
	s.mcp.AddResource(
		mcp.NewResource("muninn://conventions", "Vault Conventions",
			mcp.WithResourceDescription("Folder taxonomy, ID format, and frontmatter rules every note must follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readConventionsResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) writeNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	folder, err := req.RequireString("folder")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	noteType, err := req.RequireString("note_type")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	args := req.GetArguments()
	tags, err := stringSliceArg(args, "tags")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := s.svc.WriteNote(ctx, service.WriteNoteRequest{
		Title:   title,
		Content: content,
		Folder:  folder,
		Type:    noteType,
		Tags:    tags,
		Status:  stringArg(args, "status"),
		DryRun:  boolArg(args, "dry_run"),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("note_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.ReadNote(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("note not found: %s", id)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (s *Server) updateNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("note_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	args := req.GetArguments()
	upd := service.UpdateNoteRequest{NoteID: id, DryRun: boolArg(args, "dry_run")}
	if v, ok := args["content"].(string); ok {
		upd.Content = &v
	}
	if v, ok := args["status"].(string); ok {
		upd.Status = &v
	}
	if _, ok := args["tags"]; ok {
		tags, err := stringSliceArg(args, "tags")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		upd.Tags = tags
	}

	res, err := s.svc.UpdateNote(ctx, upd)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("note not found: %s", id)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (s *Server) deleteNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("note_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.DeleteNote(ctx, id, boolArg(req.GetArguments(), "dry_run"))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("note not found: %s", id)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	res, err := s.svc.ListNotes(ctx, vault.ListFilter{
		Folder: stringArg(args, "folder"),
		Type:   stringArg(args, "note_type"),
		Tag:    stringArg(args, "tag"),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.SearchNotes(ctx, query, intArg(req.GetArguments(), "limit"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (s *Server) suggestTags(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	args := req.GetArguments()
	res, err := s.svc.SuggestTags(ctx, content, stringArg(args, "title"), intArg(args, "max_tags"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (s *Server) processInboxItem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.ProcessInboxItem(ctx, title, content, intArg(req.GetArguments(), "max_tags"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (s *Server) processInboxBatch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	raw, ok := args["items"].([]any)
	if !ok || len(raw) == 0 {
		return mcp.NewToolResultError("items must be a non-empty list"), nil
	}
	items := make([]inbox.Item, 0, len(raw))
	for _, it := range raw {
		m, ok := it.(map[string]any)
		if !ok {
			return mcp.NewToolResultError("each item must be an object with title and content"), nil
		}
		items = append(items, inbox.Item{
			Title:   stringArg(m, "title"),
			Content: stringArg(m, "content"),
		})
	}

	res, err := s.svc.ProcessInboxBatch(ctx, items, intArg(args, "max_tags"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (s *Server) createMOC(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tag, err := req.RequireString("tag")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	args := req.GetArguments()
	res, err := s.svc.CreateMOC(ctx, tag, intArg(args, "threshold"), boolArg(args, "dry_run"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (s *Server) vaultStats(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := s.svc.VaultStats(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (s *Server) refreshVocabulary(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := s.svc.RefreshVocabulary(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (s *Server) getConventions(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(VaultConventions), nil
}

func (s *Server) readConventionsResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "muninn://conventions",
			MIMEType: "text/markdown",
			Text:     VaultConventions,
		},
	}, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, _ := json.MarshalIndent(v, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

func boolArg(args map[string]any, key string) bool {
	v, _ := args[key].(bool)
	return v
}

// intArg reads an optional number argument. JSON numbers arrive as float64.
func intArg(args map[string]any, key string) int {
	v, _ := args[key].(float64)
	return int(v)
}

// stringSliceArg reads an optional array-of-strings argument. A missing key
// yields nil; a present key with non-string members is an error.
func stringSliceArg(args map[string]any, key string) ([]string, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return nil, nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%s must be a list of strings", key)
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		s, ok := it.(string)
		if !ok {
			return nil, fmt.Errorf("%s must be a list of strings", key)
		}
		out = append(out, s)
	}
	return out, nil
}
