// Package mcpserver exposes the workspace graph to LLM clients through an
// MCP (Model Context Protocol) server over stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/ansuz/internal/noteservice"
)

// Server wraps the MCP server with Ansuz tools.
type Server struct {
	mcp *server.MCPServer
	svc *noteservice.Service
}

// New creates an MCP server with all tools registered.
func New(svc *noteservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Ansuz",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_resources",
		mcp.WithDescription("List every workspace resource: real notes first, then placeholders for unresolved reference targets."),
	), s.listResources)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read a Markdown note with its resolved links and backlinks."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note (e.g. topics/note.md)")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("resolve_reference",
		mcp.WithDescription("Resolve a reference string (wikilink target, short name, or path) to the resource it denotes."),
		mcp.WithString("ref", mcp.Required(), mcp.Description("Reference to resolve")),
		mcp.WithString("origin", mcp.Description("Optional origin note path for relative references")),
	), s.resolveReference)

	s.mcp.AddTool(mcp.NewTool("get_backlinks",
		mcp.WithDescription("Find all connections pointing at the specified note."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the target note")),
	), s.getBacklinks)

	s.mcp.AddTool(mcp.NewTool("get_outlinks",
		mcp.WithDescription("List the resolved outgoing connections of the specified note."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the source note")),
	), s.getOutlinks)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Substring search through note titles and content."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a new Markdown note. Wikilinks in the content are resolved into graph connections immediately."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path for the new note (must end with .md)")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Markdown content")),
	), s.createNote)

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

func (s *Server) listResources(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items := s.svc.ListResources(ctx)
	out, _ := json.MarshalIndent(items, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	detail, err := s.svc.GetNote(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	out, _ := json.MarshalIndent(detail, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) resolveReference(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := req.RequireString("ref")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	origin := req.GetString("origin", "")
	target := s.svc.Resolve(ctx, ref, origin)
	if target == "" {
		return mcp.NewToolResultText(fmt.Sprintf("no resource matches %q", ref)), nil
	}
	return mcp.NewToolResultText(target), nil
}

func (s *Server) getBacklinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(s.svc.Backlinks(ctx, path), "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getOutlinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(s.svc.Outlinks(ctx, path), "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	detail, err := s.svc.CreateNote(ctx, path, []byte(content))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(detail, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}
