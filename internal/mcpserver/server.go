// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes dashboard tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/lifedash/internal/dashboard"
	"github.com/starford/lifedash/internal/importer"
	"github.com/starford/lifedash/internal/models"
)

const guideURI = "lifedash://guide"

// Importer ingests a personal-data export.
type Importer interface {
	Import(ctx context.Context, data []byte) (importer.Stats, error)
}

// Server wraps the MCP server with dashboard tools.
type Server struct {
	mcp      *server.MCPServer
	svc      *dashboard.Service
	importer Importer
}

// New creates a new MCP server with all dashboard tools registered.
// imp may be nil, in which case the import tool is not offered.
func New(svc *dashboard.Service, imp Importer, version string) *Server {
	s := &Server{svc: svc, importer: imp}

	s.mcp = server.NewMCPServer(
		"lifedash",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("get_right_now",
		mcp.WithDescription("Return the current status snapshot: summary, quadrant statuses, values alignment and actionables."),
	), s.getRightNow)

	s.mcp.AddTool(mcp.NewTool("list_timeline",
		mcp.WithDescription("List timeline entries, newest first."),
		mcp.WithString("category", mcp.Description("Optional quadrant filter"),
			mcp.Enum("relationships", "parkour", "work", "travel")),
		mcp.WithNumber("limit", mcp.Description("Maximum entries (default 20)")),
	), s.listTimeline)

	s.mcp.AddTool(mcp.NewTool("add_manual_entry",
		mcp.WithDescription("Record something that happened so the next refresh includes it. "+
			"Read the guide via the lifedash://guide resource for the category list."),
		mcp.WithString("content", mcp.Required(), mcp.Description("What happened")),
		mcp.WithString("category", mcp.Required(), mcp.Description("Quadrant category"),
			mcp.Enum("relationships", "parkour", "work", "travel")),
		mcp.WithString("link", mcp.Description("Optional related URL")),
	), s.addManualEntry)

	s.mcp.AddTool(mcp.NewTool("search_dashboard",
		mcp.WithDescription("Full-text search across timeline entries and inspiration items."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.Description("Maximum results (default 20)")),
	), s.searchDashboard)

	s.mcp.AddTool(mcp.NewTool("list_goals",
		mcp.WithDescription("List near-term and far-term goals together with the core values."),
	), s.listGoals)

	if imp != nil {
		s.mcp.AddTool(mcp.NewTool("import_instagram",
			mcp.WithDescription("Import saved and liked posts from an Instagram data export file as inspiration."),
			mcp.WithString("path", mcp.Required(), mcp.Description("Local path to the export JSON file")),
		), s.importInstagram)
	}

	s.mcp.AddResource(
		mcp.NewResource(guideURI, "Dashboard Guide",
			mcp.WithResourceDescription("Quadrant categories, statuses and how manual entries are used."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readGuide,
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

func (s *Server) getRightNow(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rn, err := s.svc.RightNow(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(rn)
}

func (s *Server) listTimeline(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	category := models.Category(req.GetString("category", ""))
	limit := req.GetInt("limit", 20)
	entries, err := s.svc.Timeline(ctx, category, limit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(entries)
}

func (s *Server) addManualEntry(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	category, err := req.RequireString("category")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	e, err := s.svc.AddManualEntry(ctx, dashboard.ManualEntryInput{
		Content:  content,
		Category: models.Category(category),
		Link:     req.GetString("link", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("added: %s", e.ID)), nil
}

func (s *Server) searchDashboard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, req.GetInt("limit", 20))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText("no results"), nil
	}
	return jsonResult(results)
}

func (s *Server) listGoals(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	v, err := s.svc.Goals(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(v)
}

func (s *Server) importInstagram(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("read export: %v", err)), nil
	}
	stats, err := s.importer.Import(ctx, data)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(stats)
}

func (s *Server) readGuide(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      guideURI,
			MIMEType: "text/markdown",
			Text:     DashboardGuide,
		},
	}, nil
}
