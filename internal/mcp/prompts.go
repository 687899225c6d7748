package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/thebtf/promptdeck/internal/library"
	"github.com/thebtf/promptdeck/pkg/models"
)

type serverPrompt struct {
	prompt  mcp.Prompt
	handler server.PromptHandlerFunc
}

// libraryPrompts builds one MCP prompt per library prompt, in library order.
func libraryPrompts(c *library.Catalog) []serverPrompt {
	mapped := c.Mapped()
	out := make([]serverPrompt, 0, len(mapped))
	for _, p := range mapped {
		out = append(out, serverPrompt{
			prompt:  mcp.NewPrompt(p.ID, mcp.WithPromptDescription(promptDescription(p))),
			handler: promptHandler(p),
		})
	}
	return out
}

func promptDescription(p models.MappedPrompt) string {
	desc := fmt.Sprintf("%s (%s / %s)", p.Title, p.JobArea, p.UseCase)
	if len(p.IndustryNames) > 0 {
		desc += " for " + strings.Join(p.IndustryNames, ", ")
	}
	return desc
}

// promptHandler returns the template verbatim as a single user message.
func promptHandler(p models.MappedPrompt) server.PromptHandlerFunc {
	return func(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		return mcp.NewGetPromptResult(p.Title, []mcp.PromptMessage{
			mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(p.Template)),
		}), nil
	}
}
