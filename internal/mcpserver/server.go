// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes notesplit refactoring tools for LLM integration via stdio
// transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/notesplit/internal/refactor"
	"github.com/starford/notesplit/internal/refactorservice"
)

// TemplateReferenceURI is the URI of the template reference resource.
const TemplateReferenceURI = "notesplit://template-reference"

// Server wraps the MCP server with notesplit tools.
type Server struct {
	mcp *server.MCPServer
	svc *refactorservice.Service
}

// New creates a new MCP server with all tools registered.
func New(svc *refactorservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"notesplit",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("extract_lines",
		mcp.WithDescription("Move a range of lines of a note into a new note and leave a link in their place. "+
			"Without a title the first selected line names the new note. Read "+TemplateReferenceURI+" for the link template placeholders."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path of the source note (e.g. folder/note.md)")),
		mcp.WithNumber("start_line", mcp.Required(), mcp.Min(0), mcp.Description("First line to move, 0-based")),
		mcp.WithNumber("end_line", mcp.Required(), mcp.Min(0), mcp.Description("Last line to move, 0-based and inclusive")),
		mcp.WithString("title", mcp.Description("Optional title of the new note")),
		mcp.WithBoolean("dry_run", mcp.Description("Return the result without writing anything")),
	), s.extractLines)

	s.mcp.AddTool(mcp.NewTool("split_note",
		mcp.WithDescription("Move everything from a line to the end of a note into a new note."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path of the source note")),
		mcp.WithNumber("line", mcp.Required(), mcp.Min(0), mcp.Description("First line to move, 0-based")),
		mcp.WithString("title", mcp.Description("Optional title of the new note")),
		mcp.WithBoolean("dry_run", mcp.Description("Return the result without writing anything")),
	), s.splitNote)

	s.mcp.AddTool(mcp.NewTool("split_by_heading",
		mcp.WithDescription("Move every section headed at the given level into its own note named after the heading."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path of the source note")),
		mcp.WithNumber("level", mcp.Required(), mcp.Min(1), mcp.Max(6), mcp.Description("Heading level, 1 to 6")),
		mcp.WithBoolean("dry_run", mcp.Description("Return the result without writing anything")),
	), s.splitByHeading)

	s.mcp.AddTool(mcp.NewTool("render_template",
		mcp.WithDescription("Render a template with the notesplit placeholders. See "+TemplateReferenceURI+"."),
		mcp.WithString("template", mcp.Required(), mcp.Description("Template text")),
		mcp.WithString("path", mcp.Description("Optional note supplying {{title}}, {{link}} and {{prop[Key]}} values")),
		mcp.WithString("new_note_title", mcp.Description("Value of {{new_note_title}}")),
		mcp.WithString("new_note_link", mcp.Description("Value of {{new_note_link}}")),
		mcp.WithString("new_note_path", mcp.Description("Value of {{new_note_path}}")),
		mcp.WithString("new_note_content", mcp.Description("Value of {{new_note_content}}")),
	), s.renderTemplate)

	s.mcp.AddTool(mcp.NewTool("extract_metadata",
		mcp.WithDescription("Return the 'Key: Value' metadata at the top of a note, up to the first *** line."),
		mcp.WithString("path", mcp.Description("Relative path of a note")),
		mcp.WithString("text", mcp.Description("Text to scan when no path is given")),
	), s.extractMetadata)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read the full content of a Markdown note."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note (e.g. folder/note.md)")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List indexed notes ordered by path."),
		mcp.WithNumber("limit", mcp.Description("Page size (default 100)")),
		mcp.WithNumber("offset", mcp.Description("Page offset")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("get_backlinks",
		mcp.WithDescription("Find all notes that link to the specified note."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the note to find backlinks for")),
	), s.getBacklinks)

	s.mcp.AddTool(mcp.NewTool("refactor_history",
		mcp.WithDescription("List recent refactors, newest first."),
		mcp.WithString("source", mcp.Description("Only refactors of this note")),
		mcp.WithNumber("limit", mcp.Description("Max entries (default 50)")),
	), s.refactorHistory)

	s.mcp.AddResource(
		mcp.NewResource(TemplateReferenceURI, "Template Reference",
			mcp.WithResourceDescription("Placeholders and date tokens available in note and link templates."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readTemplateReference,
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

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) extractLines(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	start, err := req.RequireInt("start_line")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	end, err := req.RequireInt("end_line")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.ExtractSelection(ctx, refactorservice.ExtractRequest{
		Path:      path,
		StartLine: start,
		EndLine:   end,
		Title:     req.GetString("title", ""),
		DryRun:    req.GetBool("dry_run", false),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (s *Server) splitNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	line, err := req.RequireInt("line")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.SplitRemainder(ctx, refactorservice.SplitRequest{
		Path:   path,
		Line:   line,
		Title:  req.GetString("title", ""),
		DryRun: req.GetBool("dry_run", false),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (s *Server) splitByHeading(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	level, err := req.RequireInt("level")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.SplitByHeading(ctx, refactorservice.HeadingSplitRequest{
		Path:   path,
		Level:  level,
		DryRun: req.GetBool("dry_run", false),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (s *Server) renderTemplate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tmpl, err := req.RequireString("template")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, err := s.svc.Render(ctx, refactorservice.RenderRequest{
		Template:       tmpl,
		Path:           req.GetString("path", ""),
		NewNoteTitle:   req.GetString("new_note_title", ""),
		NewNoteLink:    req.GetString("new_note_link", ""),
		NewNotePath:    req.GetString("new_note_path", ""),
		NewNoteContent: req.GetString("new_note_content", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(out), nil
}

func (s *Server) extractMetadata(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, text := req.GetString("path", ""), req.GetString("text", "")
	if path == "" && text == "" {
		return mcp.NewToolResultError("path or text is required"), nil
	}
	md, err := s.svc.ExtractMetadata(ctx, path, text)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(md)
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.svc.ReadNote(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(note.Content), nil
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, _, err := s.svc.ListNotes(ctx, req.GetInt("limit", 0), req.GetInt("offset", 0))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	paths := make([]string, len(items))
	for i, it := range items {
		paths[i] = it.Path
	}
	return mcp.NewToolResultText(strings.Join(paths, "\n")), nil
}

func (s *Server) getBacklinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	bl, err := s.svc.Backlinks(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(bl) == 0 {
		return mcp.NewToolResultText("no backlinks found"), nil
	}
	return mcp.NewToolResultText(strings.Join(bl, "\n")), nil
}

func (s *Server) refactorHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	recs, err := s.svc.History(ctx, req.GetString("source", ""), req.GetInt("limit", 0))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(recs)
}

func (s *Server) readTemplateReference(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      TemplateReferenceURI,
			MIMEType: "text/markdown",
			Text:     TemplateReference(s.svc.Settings()),
		},
	}, nil
}

// placeholderDocs describes each fixed placeholder.
var placeholderDocs = map[refactor.Placeholder]string{
	refactor.TitlePlaceholder:          "title of the source note",
	refactor.LinkPlaceholder:           "link to the source note",
	refactor.NewNoteTitlePlaceholder:   "title of the new note",
	refactor.NewNoteLinkPlaceholder:    "link to the new note",
	refactor.NewNoteContentPlaceholder: "body of the new note",
	refactor.NewNotePathPlaceholder:    "vault path of the new note",
}
