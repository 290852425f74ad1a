// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes fileexpo tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/fileexpo/internal/fileservice"
	"github.com/starford/fileexpo/internal/voice"
)

// Commander runs a typed command through the voice dispatcher.
type Commander interface {
	Handle(ctx context.Context, text string) voice.Outcome
}

// Server wraps the MCP server with fileexpo tools.
type Server struct {
	mcp          *server.MCPServer
	files        *fileservice.Service
	commander    Commander
	destinations []voice.Destination
}

// New creates a new MCP server with all fileexpo tools registered.
// commander may be nil, in which case run_command is not offered.
func New(files *fileservice.Service, commander Commander, destinations []voice.Destination) *Server {
	s := &Server{files: files, commander: commander, destinations: destinations}

	s.mcp = server.NewMCPServer(
		"fileexpo",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_tags",
		mcp.WithDescription("List every manual tag in use."),
	), s.listTags)

	s.mcp.AddTool(mcp.NewTool("tag_file",
		mcp.WithDescription("Attach a tag to a file."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Absolute file path (~ is expanded)")),
		mcp.WithString("tag", mcp.Required(), mcp.Description("Tag to attach")),
	), s.tagFile)

	s.mcp.AddTool(mcp.NewTool("untag_file",
		mcp.WithDescription("Remove a tag from a file."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Absolute file path")),
		mcp.WithString("tag", mcp.Required(), mcp.Description("Tag to remove")),
	), s.untagFile)

	s.mcp.AddTool(mcp.NewTool("find_by_tag",
		mcp.WithDescription("List files carrying a manual or automatic tag."),
		mcp.WithString("tag", mcp.Required(), mcp.Description("Tag to look up")),
	), s.findByTag)

	s.mcp.AddTool(mcp.NewTool("most_accessed",
		mcp.WithDescription("Files ordered by access count, highest first."),
		mcp.WithNumber("n", mcp.Description("Number of entries (default 10)")),
	), s.mostAccessed)

	s.mcp.AddTool(mcp.NewTool("recently_accessed",
		mcp.WithDescription("Files ordered by last access time, newest first."),
		mcp.WithNumber("n", mcp.Description("Number of entries (default 10)")),
	), s.recentlyAccessed)

	s.mcp.AddTool(mcp.NewTool("check_integrity",
		mcp.WithDescription("Compare a file with its stored digest. The first check stores a baseline."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Absolute file path")),
	), s.checkIntegrity)

	s.mcp.AddTool(mcp.NewTool("file_problems",
		mcp.WithDescription("List common problems with a file: missing, empty, unreadable, encoding."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Absolute file path")),
	), s.fileProblems)

	s.mcp.AddTool(mcp.NewTool("verify_directory",
		mcp.WithDescription("Re-check every file with a stored digest under a directory."),
		mcp.WithString("dir", mcp.Required(), mcp.Description("Absolute directory path")),
	), s.verifyDirectory)

	if commander != nil {
		s.mcp.AddTool(mcp.NewTool("run_command",
			mcp.WithDescription("Run a command as if it had been spoken, e.g. \"open downloads\" or "+
				"\"create file notes.txt\". Read the "+VoiceCommandsURI+" resource for the command table."),
			mcp.WithString("text", mcp.Required(), mcp.Description("Command text")),
		), s.runCommand)
	}

	s.mcp.AddResource(
		mcp.NewResource(VoiceCommandsURI, "Command Reference",
			mcp.WithResourceDescription("Recognized commands in matching order and the navigation destinations."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readCommandsResource,
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

func (s *Server) listTags(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tags := s.files.AllTags(ctx)
	if len(tags) == 0 {
		return mcp.NewToolResultText("no tags"), nil
	}
	return mcp.NewToolResultText(strings.Join(tags, "\n")), nil
}

func (s *Server) tagFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tag, err := req.RequireString("tag")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	added, err := s.files.AddTag(ctx, path, tag)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !added {
		return mcp.NewToolResultText("already tagged: " + tag), nil
	}
	return mcp.NewToolResultText("tagged: " + tag), nil
}

func (s *Server) untagFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tag, err := req.RequireString("tag")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	removed, err := s.files.RemoveTag(ctx, path, tag)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !removed {
		return mcp.NewToolResultText("not tagged: " + tag), nil
	}
	return mcp.NewToolResultText("untagged: " + tag), nil
}

func (s *Server) findByTag(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tag, err := req.RequireString("tag")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	paths, err := s.files.PathsForTag(ctx, tag)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(paths) == 0 {
		return mcp.NewToolResultText("no files found"), nil
	}
	return mcp.NewToolResultText(strings.Join(paths, "\n")), nil
}

func (s *Server) mostAccessed(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.files.MostAccessed(ctx, req.GetInt("n", fileservice.DefaultLimit)))
}

func (s *Server) recentlyAccessed(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.files.RecentlyAccessed(ctx, req.GetInt("n", fileservice.DefaultLimit)))
}

func (s *Server) checkIntegrity(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.files.CheckIntegrity(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (s *Server) fileProblems(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	problems, err := s.files.Problems(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(problems) == 0 {
		return mcp.NewToolResultText("no problems found"), nil
	}
	return mcp.NewToolResultText(strings.Join(problems, "\n")), nil
}

func (s *Server) verifyDirectory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dir, err := req.RequireString("dir")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	report, err := s.files.VerifyDirectory(ctx, dir)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(report)
}

func (s *Server) runCommand(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out := s.commander.Handle(ctx, text)
	if out.Error != "" {
		return mcp.NewToolResultError(out.Error), nil
	}
	return jsonResult(out)
}

func (s *Server) readCommandsResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      VoiceCommandsURI,
			MIMEType: "text/markdown",
			Text:     CommandReference(s.destinations),
		},
	}, nil
}
