package mcp

import (
	"context"

	"github.com/goccy/go-json"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"

	"github.com/thebtf/promptdeck/internal/filter"
	"github.com/thebtf/promptdeck/internal/library"
	"github.com/thebtf/promptdeck/internal/view"
	"github.com/thebtf/promptdeck/pkg/models"
)

// Tool names.
const (
	ToolListPrompts = "list-prompts"
	ToolListFilters = "list-filters"
	ToolGetPrompt   = "get-prompt"
)

// ToolDependencies contains everything the tool handlers read.
type ToolDependencies struct {
	Store  *library.Store
	Engine *filter.Engine
}

// ListPromptsInput selects prompts the same way the dashboard does.
type ListPromptsInput struct {
	Industry string `json:"industry,omitempty" jsonschema:"description=Industry id; 'all' or empty for every industry"`
	JobArea  string `json:"jobArea,omitempty" jsonschema:"description=Job area name; 'All' or empty for every job area"`
	UseCase  string `json:"useCase,omitempty" jsonschema:"description=Use case name; only applies when a job area is set"`
	Query    string `json:"query,omitempty" jsonschema:"description=Case-insensitive search over title, template, tags and industries"`
}

// ListFiltersInput asks which job areas and use cases have prompts.
type ListFiltersInput struct {
	Industry string `json:"industry,omitempty" jsonschema:"description=Industry id; 'all' or empty for every industry"`
	JobArea  string `json:"jobArea,omitempty" jsonschema:"description=Job area name to list use cases for"`
}

// GetPromptInput names one prompt.
type GetPromptInput struct {
	ID string `json:"id" jsonschema:"description=Prompt id as returned by list-prompts"`
}

// PromptSummary is one prompt in tool output.
type PromptSummary struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	JobArea    string   `json:"jobArea"`
	UseCase    string   `json:"useCase"`
	Industries []string `json:"industries"`
	Template   string   `json:"template"`
}

// ListPromptsOutput is the list-prompts result.
type ListPromptsOutput struct {
	State        filter.State    `json:"state"`
	Meta         string          `json:"meta"`
	EmptyMessage string          `json:"emptyMessage,omitempty"`
	Prompts      []PromptSummary `json:"prompts"`
}

// ListFiltersOutput is the list-filters result.
type ListFiltersOutput struct {
	State      filter.State      `json:"state"`
	Industries []models.Industry `json:"industries"`
	JobAreas   []string          `json:"jobAreas"`
	UseCases   []string          `json:"useCases"`
}

// ListPromptsSpec returns the tool specification for list-prompts.
func ListPromptsSpec() mcp.Tool {
	return mcp.NewTool(ToolListPrompts,
		mcp.WithDescription(`Lists prompt templates from the prompt library.

Filters cascade like the dashboard: industry, then job area, then use case. Prompts tagged for
all industries appear under every industry. A job area or use case that has no prompts under the
chosen industry is ignored. Without a query the library order is kept; with a query the results
are sorted by title.`),
		mcp.WithInputSchema[ListPromptsInput](),
		mcp.WithTitleAnnotation("List Prompts"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(false),
	)
}

// ListFiltersSpec returns the tool specification for list-filters.
func ListFiltersSpec() mcp.Tool {
	return mcp.NewTool(ToolListFilters,
		mcp.WithDescription("Lists industries and the job areas and use cases that have prompts for the given industry and job area."),
		mcp.WithInputSchema[ListFiltersInput](),
		mcp.WithTitleAnnotation("List Filters"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(false),
	)
}

// GetPromptSpec returns the tool specification for get-prompt.
func GetPromptSpec() mcp.Tool {
	return mcp.NewTool(ToolGetPrompt,
		mcp.WithDescription("Returns one prompt with its resolved job area, use case and industry names. The template is returned verbatim."),
		mcp.WithInputSchema[GetPromptInput](),
		mcp.WithTitleAnnotation("Get Prompt"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(false),
	)
}

// ListPromptsHandler returns the handler for list-prompts.
func ListPromptsHandler(deps *ToolDependencies) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		c, errResult := currentCatalog(deps)
		if errResult != nil {
			return errResult, nil
		}

		var args ListPromptsInput
		if err := request.BindArguments(&args); err != nil {
			log.Error().Err(err).Str("tool", ToolListPrompts).Msg("Error binding arguments")
			return mcp.NewToolResultError(err.Error()), nil
		}

		st := filter.Normalize(c, filter.State{
			IndustryID: args.Industry,
			JobArea:    args.JobArea,
			UseCase:    args.UseCase,
			Query:      args.Query,
		})
		visible := deps.Engine.VisiblePrompts(c, st)

		out := ListPromptsOutput{
			State:   st,
			Meta:    view.ResultsMeta(len(visible), c.Count()),
			Prompts: make([]PromptSummary, 0, len(visible)),
		}
		if len(visible) == 0 {
			out.EmptyMessage = view.EmptyMessage(st)
		}
		for _, p := range visible {
			out.Prompts = append(out.Prompts, summarize(p))
		}
		return jsonResult(out)
	}
}

// ListFiltersHandler returns the handler for list-filters.
func ListFiltersHandler(deps *ToolDependencies) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		c, errResult := currentCatalog(deps)
		if errResult != nil {
			return errResult, nil
		}

		var args ListFiltersInput
		if err := request.BindArguments(&args); err != nil {
			log.Error().Err(err).Str("tool", ToolListFilters).Msg("Error binding arguments")
			return mcp.NewToolResultError(err.Error()), nil
		}

		st := filter.Normalize(c, filter.State{IndustryID: args.Industry, JobArea: args.JobArea})
		return jsonResult(ListFiltersOutput{
			State:      st,
			Industries: c.Industries(),
			JobAreas:   filter.AvailableJobAreas(c, st.IndustryID),
			UseCases:   filter.AvailableUseCases(c, st.IndustryID, st.JobArea),
		})
	}
}

// GetPromptHandler returns the handler for get-prompt.
func GetPromptHandler(deps *ToolDependencies) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		c, errResult := currentCatalog(deps)
		if errResult != nil {
			return errResult, nil
		}

		var args GetPromptInput
		if err := request.BindArguments(&args); err != nil {
			log.Error().Err(err).Str("tool", ToolGetPrompt).Msg("Error binding arguments")
			return mcp.NewToolResultError(err.Error()), nil
		}
		if args.ID == "" {
			return mcp.NewToolResultError("id parameter is required"), nil
		}

		p, ok := c.Prompt(args.ID)
		if !ok {
			return mcp.NewToolResultError("prompt not found: " + args.ID), nil
		}
		return jsonResult(summarize(p))
	}
}

func currentCatalog(deps *ToolDependencies) (*library.Catalog, *mcp.CallToolResult) {
	if deps == nil || deps.Store == nil {
		return nil, mcp.NewToolResultError("prompt library is not initialized")
	}
	c, err := deps.Store.Current()
	if err != nil {
		log.Warn().Err(err).Msg("Prompt library unavailable")
		return nil, mcp.NewToolResultError(library.UserMessage(err))
	}
	return c, nil
}

func summarize(p models.MappedPrompt) PromptSummary {
	return PromptSummary{
		ID:         p.ID,
		Title:      p.Title,
		JobArea:    p.JobArea,
		UseCase:    p.UseCase,
		Industries: p.IndustryNames,
		Template:   p.Template,
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError("failed to encode result: " + err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
