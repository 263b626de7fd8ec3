package agenttool

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/poiesic/shigen/search"
	"github.com/poiesic/shigen/session"
)

const serverName = "shigen"

type mcpHandlers struct {
	searcher *search.Searcher
	registry *session.Registry
	logger   *slog.Logger
}

// NewMCPServer builds an MCP server exposing the search and detail tools
// together with session begin and reset. Search and reset require a
// session_id; each conversation obtains its own from begin_search_session.
func NewMCPServer(searcher *search.Searcher, registry *session.Registry, version string) *server.MCPServer {
	h := &mcpHandlers{
		searcher: searcher,
		registry: registry,
		logger:   slog.Default().With("component", "agenttool"),
	}

	s := server.NewMCPServer(
		serverName,
		version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	s.AddTool(mcp.NewTool(SearchToolName,
		mcp.WithDescription(searchToolDesc),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Keywords describing the client's situation, optionally with a region."),
		),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Search session returned by begin_search_session."),
		),
	), h.search)

	s.AddTool(mcp.NewTool(DetailToolName,
		mcp.WithDescription("Show every known detail of one local resource by (part of) its service name."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Service name or part of it.")),
	), h.detail)

	s.AddTool(mcp.NewTool(BeginToolName,
		mcp.WithDescription("Start a new search session for one conversation and return its session_id."),
	), h.begin)

	s.AddTool(mcp.NewTool(ResetToolName,
		mcp.WithDescription("Forget the queries and failures recorded for a search session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session to reset.")),
	), h.reset)

	return s
}

func requireSessionID(req mcp.CallToolRequest) (string, error) {
	id, err := req.RequireString("session_id")
	if err != nil {
		return "", err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return "", errors.New("session_id must not be empty; call " + BeginToolName + " first")
	}
	return id, nil
}

func (h *mcpHandlers) search(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id, err := requireSessionID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if _, err := h.registry.Ensure(ctx, id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(h.searcher.SearchLocalResources(ctx, id, query)), nil
}

func (h *mcpHandlers) detail(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(h.searcher.ResourceDetail(name)), nil
}

func (h *mcpHandlers) begin(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	state, err := h.registry.Begin(ctx, "")
	if err != nil {
		h.logger.Error("error beginning session", "err", err)
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(state.ID), nil
}

func (h *mcpHandlers) reset(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireSessionID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	err = h.registry.Reset(ctx, id)
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		return mcp.NewToolResultText("session " + id + " had no recorded searches"), nil
	case err != nil:
		h.logger.Error("error resetting session", "session", id, "err", err)
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("session " + id + " reset"), nil
}
