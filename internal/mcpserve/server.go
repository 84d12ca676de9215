// Package mcpserve exposes queries over a finished tree as MCP tools.
package mcpserve

import (
	"bytes"
	"context"
	"math"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ohler55/ojg"
	"github.com/ohler55/ojg/oj"

	"github.com/agentic-research/lsgraph/api"
	"github.com/agentic-research/lsgraph/internal/graph"
	"github.com/agentic-research/lsgraph/internal/report"
)

// Tool names.
const (
	ToolSumSmall = "sum_small_directories"
	ToolSmallest = "smallest_directory_at_least"
	ToolReport   = "report"
	ToolSelect   = "select"
)

// Server answers tool calls against one finished store.
type Server struct {
	store  *graph.Store
	policy api.Policy
	mcp    *server.MCPServer
}

// New registers the tools for s. The store must not be mutated afterwards.
func New(s *graph.Store, p api.Policy, version string) *Server {
	srv := &Server{
		store:  s,
		policy: p,
		mcp:    server.NewMCPServer("lsgraph", version, server.WithToolCapabilities(false), server.WithRecovery()),
	}

	srv.mcp.AddTool(mcp.NewTool(ToolSumSmall,
		mcp.WithDescription("Total size of all directories whose size is at most cap. Nested directories count independently."),
		mcp.WithNumber("cap", mcp.Required(), mcp.Description("Inclusive size limit in bytes")),
		mcp.WithReadOnlyHintAnnotation(true),
	), srv.handleSumSmall)

	srv.mcp.AddTool(mcp.NewTool(ToolSmallest,
		mcp.WithDescription("Smallest directory whose size is at least floor."),
		mcp.WithNumber("floor", mcp.Required(), mcp.Description("Minimum size in bytes")),
		mcp.WithReadOnlyHintAnnotation(true),
	), srv.handleSmallest)

	srv.mcp.AddTool(mcp.NewTool(ToolReport,
		mcp.WithDescription("Disk-cleanup report under the configured policy."),
		mcp.WithReadOnlyHintAnnotation(true),
	), srv.handleReport)

	srv.mcp.AddTool(mcp.NewTool(ToolSelect,
		mcp.WithDescription("Evaluate a JSONPath expression against the tree document. Nodes have name, kind, size, path and children."),
		mcp.WithString("expression", mcp.Required(), mcp.Description("JSONPath, e.g. $.children[*].name")),
		mcp.WithReadOnlyHintAnnotation(true),
	), srv.handleSelect)

	return srv
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer { return s.mcp }

// ServeStdio serves the tools over stdin/stdout until stdin closes.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) handleSumSmall(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit, err := requireSize(req, "cap")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(strconv.FormatUint(s.store.SumSmallDirectories(limit), 10)), nil
}

func (s *Server) handleSmallest(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	floor, err := requireSize(req, "floor")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id, ok := s.store.SmallestDirectoryNodeAtLeast(floor)
	if !ok {
		return mcp.NewToolResultErrorf("no directory has size >= %d", floor), nil
	}
	return mcp.NewToolResultStructured(map[string]any{
		"path": s.store.Path(id),
		"size": s.store.Size(id),
	}, strconv.FormatUint(s.store.Size(id), 10)), nil
}

func (s *Server) handleReport(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	r, err := report.Compute(s.store, s.policy)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("report", err), nil
	}
	var buf bytes.Buffer
	r.Render(&buf)
	return mcp.NewToolResultStructured(map[string]any{
		"root_size":       r.RootSize,
		"small_dir_cap":   r.SmallDirCap,
		"small_dir_total": r.SmallDirTotal,
		"unused":          r.Unused,
		"floor":           r.Floor,
		"candidate":       r.Candidate,
		"candidate_path":  r.CandidatePath,
	}, buf.String()), nil
}

func (s *Server) handleSelect(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	expr, err := req.RequireString("expression")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.store.Select(expr)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if results == nil {
		results = []any{}
	}
	return mcp.NewToolResultText(oj.JSON(results, &ojg.Options{Sort: true})), nil
}

// requireSize reads a non-negative integral byte count.
func requireSize(req mcp.CallToolRequest, key string) (uint64, error) {
	v, err := req.RequireFloat(key)
	if err != nil {
		return 0, err
	}
	if v < 0 || v != math.Trunc(v) || v >= math.MaxUint64 {
		return 0, errors.Newf("argument %q must be a non-negative integer, got %v", key, v)
	}
	return uint64(v), nil
}
