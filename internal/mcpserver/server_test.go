package mcpserver

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/ansuz/internal/testutil"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	return New(testutil.TestStack(t).Service)
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	var result *mcp.CallToolResult
	var err error
	switch name {
	case "list_resources":
		result, err = srv.listResources(ctx, req)
	case "read_note":
		result, err = srv.readNote(ctx, req)
	case "resolve_reference":
		result, err = srv.resolveReference(ctx, req)
	case "get_backlinks":
		result, err = srv.getBacklinks(ctx, req)
	case "get_outlinks":
		result, err = srv.getOutlinks(ctx, req)
	case "search_notes":
		result, err = srv.searchNotes(ctx, req)
	case "create_note":
		result, err = srv.createNote(ctx, req)
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

func TestCreateAndReadNote(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "create_note", map[string]any{
		"path":    "test.md",
		"content": "# Test\nHello",
	})
	if r.IsError {
		t.Fatalf("create failed: %s", resultText(r))
	}

	r = callTool(t, srv, "read_note", map[string]any{"path": "test.md"})
	text := resultText(r)
	if !strings.Contains(text, "# Test") {
		t.Errorf("read result = %q", text)
	}
}

func TestReadNoteMissing(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "read_note", map[string]any{"path": "nope.md"})
	if !r.IsError {
		t.Error("expected error for missing note")
	}
}

func TestListResourcesIncludesPlaceholders(t *testing.T) {
	srv := testServer(t)
	callTool(t, srv, "create_note", map[string]any{"path": "a.md", "content": "[[ghost]]"})

	text := resultText(callTool(t, srv, "list_resources", map[string]any{}))
	if !strings.Contains(text, "a.md") || !strings.Contains(text, "placeholder:ghost") {
		t.Errorf("list = %q", text)
	}
}

func TestResolveReference(t *testing.T) {
	srv := testServer(t)
	callTool(t, srv, "create_note", map[string]any{"path": "deep/topic.md", "content": "# Topic"})

	text := resultText(callTool(t, srv, "resolve_reference", map[string]any{"ref": "topic"}))
	if text != "deep/topic.md" {
		t.Errorf("resolve = %q", text)
	}

	text = resultText(callTool(t, srv, "resolve_reference", map[string]any{"ref": "nothing"}))
	if !strings.Contains(text, "no resource matches") {
		t.Errorf("resolve miss = %q", text)
	}
}

func TestGetBacklinksAndOutlinks(t *testing.T) {
	srv := testServer(t)
	callTool(t, srv, "create_note", map[string]any{"path": "b.md", "content": "# B"})
	callTool(t, srv, "create_note", map[string]any{"path": "a.md", "content": "links to [[b]]"})

	text := resultText(callTool(t, srv, "get_backlinks", map[string]any{"path": "b.md"}))
	if !strings.Contains(text, "a.md") {
		t.Errorf("backlinks = %q", text)
	}
	text = resultText(callTool(t, srv, "get_outlinks", map[string]any{"path": "a.md"}))
	if !strings.Contains(text, "b.md") {
		t.Errorf("outlinks = %q", text)
	}
}

func TestSearchNotes(t *testing.T) {
	srv := testServer(t)
	callTool(t, srv, "create_note", map[string]any{"path": "s.md", "content": "# S\nthe needle here"})

	text := resultText(callTool(t, srv, "search_notes", map[string]any{"query": "needle"}))
	if !strings.Contains(text, "s.md") {
		t.Errorf("search = %q", text)
	}
}
