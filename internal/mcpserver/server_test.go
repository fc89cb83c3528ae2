package mcpserver

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/stemgraph/stemgraph/internal/cache"
	"github.com/stemgraph/stemgraph/internal/models"
	"github.com/stemgraph/stemgraph/internal/moduleservice"
	"github.com/stemgraph/stemgraph/internal/testutil"
)

const (
	uuidGit   = "11111111-1111-4111-8111-111111111111"
	uuidShell = "22222222-2222-4222-8222-222222222222"
)

func testServer(t *testing.T) *Server {
	t.Helper()

	store := testutil.NewFakeStore(
		[]models.Node{
			{InternalID: 1, UUID: uuidGit, Name: "git-basics", RepoDomain: "github.com", Description: "Version control"},
			{InternalID: 2, UUID: uuidShell, Name: "shell-basics", RepoDomain: "github.com", Description: "Shell usage"},
		},
		[]models.Edge{
			{SourceUUID: uuidGit, TargetUUID: uuidShell},
		},
	)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := cache.New(store, logger, nil)
	if err := c.Initialize(context.Background()); err != nil {
		t.Fatal(err)
	}

	return New(moduleservice.NewService(store, c))
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so we invoke the
	// handler functions directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "get_graph":
		result, err = srv.getGraph(ctx, req)
	case "get_module":
		result, err = srv.getModule(ctx, req)
	case "builds_on":
		result, err = srv.buildsOn(ctx, req)
	case "builds_on_tree":
		result, err = srv.buildsOnTree(ctx, req)
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

func TestGetGraph(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "get_graph", map[string]interface{}{})
	text := resultText(r)
	if !strings.Contains(text, "git-basics") || !strings.Contains(text, "shell-basics") {
		t.Errorf("graph missing nodes: %q", text)
	}
	if !strings.Contains(text, `"source_uuid"`) {
		t.Errorf("graph missing edges: %q", text)
	}
}

func TestGetModule_ByName(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "get_module", map[string]interface{}{"identifier": "git-basics"})
	text := resultText(r)
	if !strings.Contains(text, uuidGit) {
		t.Errorf("module lookup result = %q", text)
	}
}

func TestGetModule_Missing(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "get_module", map[string]interface{}{"identifier": "no-such-module"})
	if !r.IsError {
		t.Error("expected error for unknown module")
	}
}

func TestBuildsOn(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "builds_on", map[string]interface{}{"identifier": "git-basics"})
	text := resultText(r)
	if !strings.Contains(text, uuidShell) {
		t.Errorf("builds_on missing dependency: %q", text)
	}
}

func TestBuildsOnTree(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "builds_on_tree", map[string]interface{}{"identifier": uuidGit})
	text := resultText(r)
	if !strings.Contains(text, `"builds_on_tree"`) || !strings.Contains(text, uuidShell) {
		t.Errorf("builds_on_tree result = %q", text)
	}
}

func TestMissingIdentifierArgument(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "builds_on", map[string]interface{}{})
	if !r.IsError {
		t.Error("expected error for missing identifier")
	}
}
