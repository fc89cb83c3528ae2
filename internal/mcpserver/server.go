// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes read-only module graph tools for LLM integration via stdio
// transport.
package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/stemgraph/stemgraph/internal/models"
	"github.com/stemgraph/stemgraph/internal/moduleservice"
)

// Server wraps the MCP server with module graph tools.
type Server struct {
	mcp *server.MCPServer
	svc *moduleservice.Service
}

// New creates a new MCP server with all graph tools registered. Every tool
// is read-only; module creation stays behind the HTTP write endpoint.
func New(svc *moduleservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"STEMgraph",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Return the full learning module graph: all modules and all builds-on edges."),
	), s.getGraph)

	s.mcp.AddTool(mcp.NewTool("get_module",
		mcp.WithDescription("Look up a single module by internal id, UUID, or exact name."),
		mcp.WithString("identifier", mcp.Required(), mcp.Description("Internal id, UUID, or module name")),
	), s.getModule)

	s.mcp.AddTool(mcp.NewTool("builds_on",
		mcp.WithDescription("List every module the given module transitively builds on, as a flat UUID list."),
		mcp.WithString("identifier", mcp.Required(), mcp.Description("Internal id, UUID, or module name")),
	), s.buildsOn)

	s.mcp.AddTool(mcp.NewTool("builds_on_tree",
		mcp.WithDescription("Resolve the builds-on dependencies of the given module as a nested tree."),
		mcp.WithString("identifier", mcp.Required(), mcp.Description("Internal id, UUID, or module name")),
	), s.buildsOnTree)

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

func (s *Server) getGraph(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap := s.svc.Graph(ctx)
	if snap == nil {
		return mcp.NewToolResultError("graph cache not loaded"), nil
	}
	nodes := snap.Nodes
	if nodes == nil {
		nodes = []models.Node{}
	}
	edges := snap.Edges
	if edges == nil {
		edges = []models.Edge{}
	}
	out, _ := json.MarshalIndent(map[string]any{"nodes": nodes, "edges": edges}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getModule(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	identifier, err := req.RequireString("identifier")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	node, err := s.svc.GetModule(ctx, identifier)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(node, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) buildsOn(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	identifier, err := req.RequireString("identifier")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.BuildsOn(ctx, identifier)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(res, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) buildsOnTree(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	identifier, err := req.RequireString("identifier")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.BuildsOnTree(ctx, identifier)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(res, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}
