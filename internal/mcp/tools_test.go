package mcp

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thebtf/promptdeck/internal/filter"
	"github.com/thebtf/promptdeck/internal/library"
	"github.com/thebtf/promptdeck/pkg/models"
)

func testLibrary() models.Library {
	return models.Library{
		Industries: []models.Industry{
			{ID: "all", Name: "All"},
			{ID: "fin", Name: "Finance"},
			{ID: "health", Name: "Healthcare"},
		},
		JobAreas: []models.JobArea{
			{ID: "sales", Name: "Sales", UseCases: []models.UseCase{
				{ID: "cold", Name: "Cold Outreach"},
				{ID: "follow", Name: "Follow-up"},
			}},
			{ID: "hr", Name: "People", UseCases: []models.UseCase{{ID: "hiring", Name: "Hiring"}}},
		},
		Prompts: []models.Prompt{
			{ID: "p1", Title: "Intro Email", Template: "Write an intro email.", JobAreaID: "sales", UseCaseID: "cold", IndustryIDs: []string{"fin"}},
			{ID: "p2", Title: "Check-in", Template: "Write a check-in.", JobAreaID: "sales", UseCaseID: "follow", IndustryIDs: []string{"all"}},
			{ID: "p3", Title: "Job Ad", Template: "Draft a job ad.", JobAreaID: "hr", UseCaseID: "hiring", IndustryIDs: []string{"health"}},
		},
	}
}

func testDeps() *ToolDependencies {
	return &ToolDependencies{
		Store:  library.NewStaticStore(library.NewCatalog(testLibrary())),
		Engine: filter.NewEngine(filter.DefaultLocale),
	}
}

func failedDeps(t *testing.T) *ToolDependencies {
	t.Helper()
	store := library.NewStore(library.Options{Source: filepath.Join(t.TempDir(), "missing.json")})
	_, err := store.Load(context.Background())
	require.Error(t, err)
	return &ToolDependencies{Store: store, Engine: filter.NewEngine(filter.DefaultLocale)}
}

func callTool(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) *mcp.CallToolResult {
	t.Helper()
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	result, err := handler(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", result.Content[0])
	return text.Text
}

func decodeResult[T any](t *testing.T, result *mcp.CallToolResult) T {
	t.Helper()
	require.False(t, result.IsError, resultText(t, result))
	var out T
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &out))
	return out
}

func promptIDs(prompts []PromptSummary) []string {
	ids := make([]string, 0, len(prompts))
	for _, p := range prompts {
		ids = append(ids, p.ID)
	}
	return ids
}

func TestToolSpecs(t *testing.T) {
	tests := []struct {
		tool mcp.Tool
		name string
	}{
		{ListPromptsSpec(), ToolListPrompts},
		{ListFiltersSpec(), ToolListFilters},
		{GetPromptSpec(), ToolGetPrompt},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.tool.Name)
			assert.NotEmpty(t, tt.tool.Description)
			require.NotNil(t, tt.tool.Annotations.ReadOnlyHint)
			assert.True(t, *tt.tool.Annotations.ReadOnlyHint)
		})
	}
}

func TestListPromptsHandler(t *testing.T) {
	handler := ListPromptsHandler(testDeps())

	tests := []struct {
		name      string
		args      map[string]any
		wantIDs   []string
		wantState filter.State
		wantMeta  string
		wantEmpty string
	}{
		{
			name:      "no arguments lists everything in library order",
			args:      nil,
			wantIDs:   []string{"p1", "p2", "p3"},
			wantState: filter.DefaultState(),
			wantMeta:  "Showing 3 of 3 prompts",
		},
		{
			name:      "industry keeps all-industry prompts",
			args:      map[string]any{"industry": "fin"},
			wantIDs:   []string{"p1", "p2"},
			wantState: filter.State{IndustryID: "fin", JobArea: "All", UseCase: "All"},
			wantMeta:  "Showing 2 of 3 prompts",
		},
		{
			name:      "job area and use case",
			args:      map[string]any{"jobArea": "Sales", "useCase": "Follow-up"},
			wantIDs:   []string{"p2"},
			wantState: filter.State{IndustryID: "all", JobArea: "Sales", UseCase: "Follow-up"},
			wantMeta:  "Showing 1 of 3 prompts",
		},
		{
			name:      "unavailable job area is ignored",
			args:      map[string]any{"industry": "fin", "jobArea": "People"},
			wantIDs:   []string{"p1", "p2"},
			wantState: filter.State{IndustryID: "fin", JobArea: "All", UseCase: "All"},
			wantMeta:  "Showing 2 of 3 prompts",
		},
		{
			name:      "query sorts by title",
			args:      map[string]any{"query": "write"},
			wantIDs:   []string{"p2", "p1"},
			wantState: filter.State{IndustryID: "all", JobArea: "All", UseCase: "All", Query: "write"},
			wantMeta:  "Showing 2 of 3 prompts",
		},
		{
			name:      "no match quotes the query",
			args:      map[string]any{"query": "  zebra  "},
			wantIDs:   []string{},
			wantState: filter.State{IndustryID: "all", JobArea: "All", UseCase: "All", Query: "  zebra  "},
			wantMeta:  "Showing 0 of 3 prompts",
			wantEmpty: `No prompts match "zebra".`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := decodeResult[ListPromptsOutput](t, callTool(t, handler, tt.args))
			assert.Equal(t, tt.wantIDs, promptIDs(out.Prompts))
			assert.Equal(t, tt.wantState, out.State)
			assert.Equal(t, tt.wantMeta, out.Meta)
			assert.Equal(t, tt.wantEmpty, out.EmptyMessage)
		})
	}
}

func TestListFiltersHandler(t *testing.T) {
	handler := ListFiltersHandler(testDeps())

	out := decodeResult[ListFiltersOutput](t, callTool(t, handler, map[string]any{"industry": "health"}))
	assert.Equal(t, "health", out.State.IndustryID)
	assert.Len(t, out.Industries, 3)
	assert.Equal(t, []string{"Sales", "People"}, out.JobAreas)
	assert.Empty(t, out.UseCases)

	out = decodeResult[ListFiltersOutput](t, callTool(t, handler, map[string]any{"industry": "fin", "jobArea": "Sales"}))
	assert.Equal(t, []string{"Sales"}, out.JobAreas)
	assert.Equal(t, []string{"Cold Outreach", "Follow-up"}, out.UseCases)
}

func TestGetPromptHandler(t *testing.T) {
	handler := GetPromptHandler(testDeps())

	t.Run("found", func(t *testing.T) {
		out := decodeResult[PromptSummary](t, callTool(t, handler, map[string]any{"id": "p1"}))
		assert.Equal(t, PromptSummary{
			ID:         "p1",
			Title:      "Intro Email",
			JobArea:    "Sales",
			UseCase:    "Cold Outreach",
			Industries: []string{"Finance"},
			Template:   "Write an intro email.",
		}, out)
	})

	t.Run("missing id", func(t *testing.T) {
		result := callTool(t, handler, nil)
		assert.True(t, result.IsError)
		assert.Contains(t, resultText(t, result), "id parameter is required")
	})

	t.Run("unknown id", func(t *testing.T) {
		result := callTool(t, handler, map[string]any{"id": "nope"})
		assert.True(t, result.IsError)
		assert.Contains(t, resultText(t, result), "prompt not found")
	})
}

func TestToolsReportLoadFailure(t *testing.T) {
	deps := failedDeps(t)
	handlers := map[string]func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error){
		ToolListPrompts: ListPromptsHandler(deps),
		ToolListFilters: ListFiltersHandler(deps),
		ToolGetPrompt:   GetPromptHandler(deps),
	}
	for name, handler := range handlers {
		t.Run(name, func(t *testing.T) {
			result := callTool(t, handler, map[string]any{"id": "p1"})
			assert.True(t, result.IsError)
			assert.Equal(t, library.LoadFailedMessage, resultText(t, result))
		})
	}
}

func TestToolsWithoutStore(t *testing.T) {
	result := callTool(t, ListPromptsHandler(&ToolDependencies{}), nil)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "not initialized")
}
