package agenttool

import (
	"context"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"
	"github.com/poiesic/shigen/search"
)

const (
	// SearchToolName is the name agents call the local search by.
	SearchToolName = "search_local_resources"

	// DetailToolName is the name of the single-resource lookup.
	DetailToolName = "search_resource_detail"

	// ResetToolName clears a search session.
	ResetToolName = "reset_search_session"

	// BeginToolName starts a fresh search session and returns its ID.
	BeginToolName = "begin_search_session"

	// MaxToolCalls bounds the tool calls an orchestrating agent should make
	// for one client situation.
	MaxToolCalls = 10
)

const searchToolDesc = "Search the local catalog of social-welfare resources. " +
	"Accepts free text in Japanese or English, AND/OR operators, a leading '-' to exclude a word, " +
	"and a region such as 南陽市 or 'Nanyo City'. Region matches are listed before other regions. " +
	"Results tagged (NO_RESULT_1), (NO_RESULT_2) or (NO_RESULT_3) carry instructions for the next step; " +
	"(REPEAT_QUERY) means the same query was already tried in this session."

// SearchInput is the argument of the search tool.
type SearchInput struct {
	Query string `json:"query"`
}

// DetailInput is the argument of the detail tool.
type DetailInput struct {
	Name string `json:"name"`
}

// Output wraps the text returned to the agent.
type Output struct {
	Result string `json:"result"`
}

// NewSearchTool returns the search tool bound to one search session.
func NewSearchTool(searcher *search.Searcher, sessionID string) tool.InvokableTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: SearchToolName,
			Desc: searchToolDesc,
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"query": {
					Type:     schema.String,
					Desc:     "Keywords describing the client's situation, optionally with a region, e.g. '南陽市 生活困窮' or 'Nanyo City livelihood hardship'.",
					Required: true,
				},
			}),
		},
		func(ctx context.Context, in *SearchInput) (*Output, error) {
			return &Output{Result: searcher.SearchLocalResources(ctx, sessionID, in.Query)}, nil
		},
	)
}

// NewDetailTool returns the tool that renders one resource by name.
func NewDetailTool(searcher *search.Searcher) tool.InvokableTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: DetailToolName,
			Desc: "Show every known detail of one local resource. Matches a case-insensitive part of the service name.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"name": {
					Type:     schema.String,
					Desc:     "The service name, or part of it, as shown in a search result.",
					Required: true,
				},
			}),
		},
		func(_ context.Context, in *DetailInput) (*Output, error) {
			return &Output{Result: searcher.ResourceDetail(in.Name)}, nil
		},
	)
}

// Tools returns the search and detail tools for one session.
func Tools(searcher *search.Searcher, sessionID string) []tool.BaseTool {
	return []tool.BaseTool{
		NewSearchTool(searcher, sessionID),
		NewDetailTool(searcher),
	}
}
