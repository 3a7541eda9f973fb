package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/jonwraymond/toolfoundation/model"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/jonwraymond/promptdiscovery/catalog"
)

// Config configures a Server.
type Config struct {
	ServerInfo ServerInfo

	// Logger receives request logs. If nil, logging is disabled.
	Logger *zap.Logger
}

// ServerInfo describes this MCP server for the initialize response.
type ServerInfo struct {
	Name    string
	Version string
}

// ToolHandler executes a tool with the arguments of a tools/call request.
// The returned value becomes the structured content of the tool result.
type ToolHandler func(ctx context.Context, args map[string]any) (any, error)

type registeredTool struct {
	tool    model.Tool
	handler ToolHandler
}

// Server serves a prompt catalog over MCP.
type Server struct {
	catalog *catalog.Catalog
	config  Config
	logger  *zap.Logger

	mu    sync.RWMutex
	tools map[string]registeredTool
	order []string
}

// New creates a Server for c with the prompt tools registered.
func New(c *catalog.Catalog, cfg Config) (*Server, error) {
	if cfg.ServerInfo.Name == "" {
		cfg.ServerInfo.Name = "promptdiscovery"
	}
	if cfg.ServerInfo.Version == "" {
		cfg.ServerInfo.Version = "dev"
	}

	s := &Server{
		catalog: c,
		config:  cfg,
		logger:  cfg.Logger,
		tools:   make(map[string]registeredTool),
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}

	for _, t := range s.promptTools() {
		if err := s.Register(t.tool, t.handler); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Register adds a tool with its handler.
func (s *Server) Register(tool model.Tool, handler ToolHandler) error {
	if err := tool.Validate(); err != nil {
		return fmt.Errorf("invalid tool: %w", err)
	}
	if handler == nil {
		return fmt.Errorf("invalid tool %s: nil handler", tool.Name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tools[tool.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, tool.Name)
	}
	s.tools[tool.Name] = registeredTool{tool: tool, handler: handler}
	s.order = append(s.order, tool.Name)
	return nil
}

// Tools returns the registered tools in registration order.
func (s *Server) Tools() []model.Tool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Tool, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.tools[name].tool)
	}
	return out
}

// Execute runs the named tool and wraps its value in an MCP tool result.
func (s *Server) Execute(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	s.mu.RLock()
	entry, ok := s.tools[name]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}

	value, err := entry.handler(ctx, args)
	if err != nil {
		return nil, err
	}

	text, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("%w: encode result: %v", ErrExecutionFailed, err)
	}
	return &mcp.CallToolResult{
		Content:           []mcp.Content{&mcp.TextContent{Text: string(text)}},
		StructuredContent: value,
	}, nil
}

// Catalog returns the served catalog.
func (s *Server) Catalog() *catalog.Catalog {
	return s.catalog
}
