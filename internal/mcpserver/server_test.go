package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"golang.org/x/crypto/bcrypt"

	"github.com/starford/notekeeper/internal/keeper"
	"github.com/starford/notekeeper/internal/models"
	"github.com/starford/notekeeper/internal/testutil"
)

func testServer(t *testing.T) (*Server, *keeper.Services) {
	t.Helper()
	svc := keeper.New(testutil.TestDB(t), keeper.WithBcryptCost(bcrypt.MinCost))
	return New(svc), svc
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_notes":
		result, err = srv.listNotes(ctx, req)
	case "search_notes":
		result, err = srv.searchNotes(ctx, req)
	case "read_note":
		result, err = srv.readNote(ctx, req)
	case "create_note":
		result, err = srv.createNote(ctx, req)
	case "trash_note":
		result, err = srv.trashNote(ctx, req)
	case "list_tags":
		result, err = srv.listTags(ctx, req)
	case "list_trash":
		result, err = srv.listTrash(ctx, req)
	case "get_note_contract":
		result, err = srv.getNoteContract(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func createLocked(t *testing.T, svc *keeper.Services, title, text, secret string) models.Note {
	t.Helper()
	ctx := context.Background()
	n, err := svc.Notes.Save(ctx, models.Note{Title: title, Text: text})
	if err != nil {
		t.Fatal(err)
	}
	n, err = svc.Passwords.Lock(ctx, n, secret)
	if err != nil {
		t.Fatal(err)
	}
	return n
}

func TestCreateAndReadNote(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "create_note", map[string]interface{}{"title": "Test", "text": "Hello"})
	text := resultText(r)
	if !strings.HasPrefix(text, "created: ") {
		t.Fatalf("create result = %q", text)
	}
	id := strings.TrimPrefix(text, "created: ")

	r = callTool(t, srv, "read_note", map[string]interface{}{"id": id})
	var got noteSummary
	if err := json.Unmarshal([]byte(resultText(r)), &got); err != nil {
		t.Fatalf("read result = %q: %v", resultText(r), err)
	}
	if got.Title != "Test" || got.Text != "Hello" {
		t.Errorf("read = %+v", got)
	}
}

func TestCreateNoteRejectsEmptyText(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "create_note", map[string]interface{}{"title": "Test", "text": ""})
	if !r.IsError {
		t.Error("expected error for empty text")
	}
}

func TestReadNoteMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "read_note", map[string]interface{}{"id": "nope"})
	if !r.IsError || resultText(r) != "not found" {
		t.Errorf("missing note = %q", resultText(r))
	}
}

func TestReadLockedNote(t *testing.T) {
	srv, svc := testServer(t)
	n := createLocked(t, svc, "diary", "dear diary", "p1")

	cases := []struct {
		password string
		want     string
		isError  bool
	}{
		{"", "note is locked", true},
		{"wrong", "incorrect password", true},
		{"p1", "dear diary", false},
	}
	for _, tc := range cases {
		r := callTool(t, srv, "read_note", map[string]interface{}{"id": n.ID, "password": tc.password})
		if r.IsError != tc.isError || !strings.Contains(resultText(r), tc.want) {
			t.Errorf("password %q: result = %q", tc.password, resultText(r))
		}
	}
}

func TestListNotesHidesLockedText(t *testing.T) {
	srv, svc := testServer(t)
	createLocked(t, svc, "diary", "dear diary", "p1")
	callTool(t, srv, "create_note", map[string]interface{}{"title": "open", "text": "visible"})

	r := callTool(t, srv, "list_notes", map[string]interface{}{})
	text := resultText(r)
	if strings.Contains(text, "dear diary") || !strings.Contains(text, "visible") {
		t.Errorf("list = %s", text)
	}
}

func TestSearchNotes(t *testing.T) {
	srv, svc := testServer(t)
	callTool(t, srv, "create_note", map[string]interface{}{"title": "Groceries", "text": "milk"})
	createLocked(t, svc, "diary", "milk secrets", "p1")

	r := callTool(t, srv, "search_notes", map[string]interface{}{"query": "milk"})
	text := resultText(r)
	if strings.Contains(text, "milk secrets") {
		t.Errorf("locked text leaked: %s", text)
	}
	if !strings.Contains(text, `"locked": true`) || !strings.Contains(text, "Groceries") {
		t.Errorf("search = %s", text)
	}

	r = callTool(t, srv, "search_notes", map[string]interface{}{"query": "zzz"})
	if !strings.HasPrefix(resultText(r), "no notes match") {
		t.Errorf("empty search = %q", resultText(r))
	}
}

func TestTrashNoteAndListTrash(t *testing.T) {
	srv, svc := testServer(t)
	n := createLocked(t, svc, "diary", "x", "p1")

	r := callTool(t, srv, "trash_note", map[string]interface{}{"id": n.ID})
	if !r.IsError {
		t.Fatal("trashing a locked note without password should fail")
	}
	r = callTool(t, srv, "trash_note", map[string]interface{}{"id": n.ID, "password": "p1"})
	if r.IsError {
		t.Fatalf("trash = %q", resultText(r))
	}

	r = callTool(t, srv, "list_trash", map[string]interface{}{})
	if !strings.Contains(resultText(r), n.ID) {
		t.Errorf("trash = %s", resultText(r))
	}
}

func TestListTags(t *testing.T) {
	srv, svc := testServer(t)
	if got := resultText(callTool(t, srv, "list_tags", nil)); got != "no tags" {
		t.Errorf("empty tags = %q", got)
	}
	tag, err := svc.Tags.AddTag(context.Background(), "work")
	if err != nil {
		t.Fatal(err)
	}
	if got := resultText(callTool(t, srv, "list_tags", nil)); got != tag.ID+"\twork" {
		t.Errorf("tags = %q", got)
	}
}

func TestNoteContract(t *testing.T) {
	srv, _ := testServer(t)
	if got := resultText(callTool(t, srv, "get_note_contract", nil)); got != NoteFormatContract {
		t.Error("contract mismatch")
	}
}
