// Package mcp exposes the prompt library over the Model Context Protocol (stdio).
package mcp

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"

	"github.com/thebtf/promptdeck/internal/filter"
	"github.com/thebtf/promptdeck/internal/library"
)

const serverName = "promptdeck"

// Server wraps an MCP server over one library store.
type Server struct {
	mcpServer *server.MCPServer
	deps      *ToolDependencies
	disabled  map[string]bool

	mu      sync.Mutex
	prompts []string // names of the MCP prompts currently registered
}

// NewServer creates an MCP server. Tools named in disabledTools are not registered.
func NewServer(store *library.Store, engine *filter.Engine, version string, disabledTools []string) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer(serverName, version,
			server.WithToolCapabilities(false),
			server.WithPromptCapabilities(true),
			server.WithRecovery(),
		),
		deps:     &ToolDependencies{Store: store, Engine: engine},
		disabled: make(map[string]bool, len(disabledTools)),
	}
	for _, name := range disabledTools {
		s.disabled[name] = true
	}
	s.mcpServer.AddTools(s.enabledTools()...)
	s.SyncPrompts()
	return s
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer { return s.mcpServer }

// Run serves stdio until ctx is cancelled or stdin closes.
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve serves the protocol over the given streams.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcpServer)
	return stdio.Listen(ctx, in, out)
}

// SSE returns an HTTP transport for the server. Clients open basePath+"/sse" and post
// requests to the endpoint announced there.
func (s *Server) SSE(basePath string) *server.SSEServer {
	return server.NewSSEServer(s.mcpServer, server.WithStaticBasePath(basePath))
}

// Reload reloads the library and re-registers the MCP prompts on success.
func (s *Server) Reload(ctx context.Context) error {
	if _, err := s.deps.Store.Load(ctx); err != nil {
		return err
	}
	s.SyncPrompts()
	return nil
}

// SyncPrompts registers one MCP prompt per library prompt, replacing the previous set.
// Without a loaded library no prompts are registered.
func (s *Server) SyncPrompts() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.prompts) > 0 {
		s.mcpServer.DeletePrompts(s.prompts...)
		s.prompts = nil
	}

	c, err := s.deps.Store.Current()
	if err != nil {
		return
	}
	for _, sp := range libraryPrompts(c) {
		s.mcpServer.AddPrompt(sp.prompt, sp.handler)
		s.prompts = append(s.prompts, sp.prompt.Name)
	}
	log.Debug().Int("prompts", len(s.prompts)).Msg("MCP prompts registered")
}

// PromptNames returns the registered MCP prompt names in library order.
func (s *Server) PromptNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.prompts...)
}

func (s *Server) allTools() []server.ServerTool {
	return []server.ServerTool{
		{Tool: ListPromptsSpec(), Handler: ListPromptsHandler(s.deps)},
		{Tool: ListFiltersSpec(), Handler: ListFiltersHandler(s.deps)},
		{Tool: GetPromptSpec(), Handler: GetPromptHandler(s.deps)},
	}
}

func (s *Server) enabledTools() []server.ServerTool {
	all := s.allTools()
	enabled := make([]server.ServerTool, 0, len(all))
	for _, t := range all {
		if s.disabled[t.Tool.Name] {
			log.Info().Str("tool", t.Tool.Name).Msg("MCP tool disabled by configuration")
			continue
		}
		enabled = append(enabled, t)
	}
	return enabled
}
