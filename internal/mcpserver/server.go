// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes notekeeper tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/notekeeper/internal/apperr"
	"github.com/starford/notekeeper/internal/keeper"
	"github.com/starford/notekeeper/internal/lockgate"
	"github.com/starford/notekeeper/internal/models"
	"github.com/starford/notekeeper/internal/search"
)

const contractURI = "notekeeper://note-format"

// Server wraps the MCP server with notekeeper tools.
type Server struct {
	mcp *server.MCPServer
	svc *keeper.Services
}

// New creates a new MCP server with all notekeeper tools registered.
func New(svc *keeper.Services) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Notekeeper",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List active notes in the configured order. Locked notes are listed without their text."),
		mcp.WithString("tag", mcp.Description("Optional tag id to filter by")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Search notes. A D.M.YYYY query matches the creation date; "+
			"anything else is a case-insensitive expression matched against titles, "+
			"then against text when no title matches. Locked text hits stay hidden."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read a note. Locked notes need their password."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
		mcp.WithString("password", mcp.Description("Password of a locked note")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a note with a title and text."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Note title")),
		mcp.WithString("text", mcp.Required(), mcp.Description("Note text")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("trash_note",
		mcp.WithDescription("Move a note to the trash. Locked notes need their password."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
		mcp.WithString("password", mcp.Description("Password of a locked note")),
	), s.trashNote)

	s.mcp.AddTool(mcp.NewTool("list_tags",
		mcp.WithDescription("List all tags."),
	), s.listTags)

	s.mcp.AddTool(mcp.NewTool("list_trash",
		mcp.WithDescription("List trashed notes."),
	), s.listTrash)

	s.mcp.AddTool(mcp.NewTool("get_note_contract",
		mcp.WithDescription("Returns the Markdown format used by the vault inbox and export."),
	), s.getNoteContract)

	s.mcp.AddResource(
		mcp.NewResource(contractURI, "Note Format Contract",
			mcp.WithResourceDescription("Markdown note format of the vault inbox and export."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNoteFormatResource,
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

// noteSummary is the MCP view of a note.
type noteSummary struct {
	ID     string   `json:"id"`
	Title  string   `json:"title"`
	Text   string   `json:"text,omitempty"`
	Tags   []string `json:"tags,omitempty"`
	Locked bool     `json:"locked"`
}

func summarize(n models.Note, revealed bool) noteSummary {
	out := noteSummary{ID: n.ID, Title: n.Title, Text: n.Text, Tags: n.Tags, Locked: n.Locked()}
	if out.Locked && !revealed {
		out.Text = ""
	}
	return out
}

func summarizeAll(notes []models.Note) []noteSummary {
	out := make([]noteSummary, len(notes))
	for i, n := range notes {
		out[i] = summarize(n, false)
	}
	return out
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

// toolError maps service errors to short messages for the model.
func toolError(err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, apperr.ErrIncorrectSecret):
		return mcp.NewToolResultError("incorrect password")
	case errors.Is(err, apperr.ErrLocked):
		return mcp.NewToolResultError("note is locked")
	case errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultError("not found")
	}
	return mcp.NewToolResultError(err.Error())
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var (
		notes []models.Note
		err   error
	)
	if tag := req.GetString("tag", ""); tag != "" {
		notes, err = s.svc.Tags.FilterByTag(ctx, tag)
	} else {
		notes, err = s.svc.Notes.List(ctx)
	}
	if err != nil {
		return toolError(err), nil
	}
	st, err := s.svc.Settings.Get(ctx)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(summarizeAll(search.SortNotesBy(notes, st.SortBy, st.SortDirection)))
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.Search.Search(ctx, query, lockgate.Deny)
	if err != nil {
		return toolError(err), nil
	}
	if len(res.Hits) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("no notes match %q", strings.TrimSpace(query))), nil
	}
	hits := make([]noteSummary, len(res.Hits))
	for i, h := range res.Hits {
		hits[i] = summarize(h.Note, !h.Locked)
		hits[i].Locked = h.Locked
	}
	return jsonResult(map[string]any{"mode": res.Mode, "hits": hits})
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.svc.Notes.Get(ctx, id)
	if err != nil {
		return toolError(err), nil
	}
	if err := s.svc.Gate.Check(ctx, note, req.GetString("password", "")); err != nil {
		return toolError(err), nil
	}
	return jsonResult(summarize(note, true))
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.svc.Notes.Save(ctx, models.Note{Title: title, Text: text})
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", note.ID)), nil
}

func (s *Server) trashNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.svc.Notes.Get(ctx, id)
	if err != nil {
		return toolError(err), nil
	}
	if err := s.svc.Gate.Check(ctx, note, req.GetString("password", "")); err != nil {
		return toolError(err), nil
	}
	if _, err := s.svc.Notes.MoveToTrash(ctx, id); err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("trashed: %s", id)), nil
}

func (s *Server) listTags(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	all, err := s.svc.Tags.ListTags(ctx)
	if err != nil {
		return toolError(err), nil
	}
	if len(all) == 0 {
		return mcp.NewToolResultText("no tags"), nil
	}
	lines := make([]string, len(all))
	for i, t := range all {
		lines[i] = t.ID + "\t" + t.Text
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) listTrash(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	notes, err := s.svc.Notes.ListTrash(ctx)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(summarizeAll(notes))
}

func (s *Server) getNoteContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(NoteFormatContract), nil
}

func (s *Server) readNoteFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      contractURI,
			MIMEType: "text/markdown",
			Text:     NoteFormatContract,
		},
	}, nil
}
