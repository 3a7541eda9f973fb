package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jonwraymond/toolfoundation/model"
	"go.uber.org/zap"

	"github.com/jonwraymond/promptdiscovery/catalog"
	"github.com/jonwraymond/promptdiscovery/history"
	"github.com/jonwraymond/promptdiscovery/recommend"
)

// MCPRequest represents an incoming MCP JSON-RPC request.
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// IsNotification reports whether the request expects no response.
// Any request without an id is a notification.
func (r MCPRequest) IsNotification() bool {
	return r.ID == nil
}

// MCPResponse represents an MCP JSON-RPC response.
type MCPResponse struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      any       `json:"id"`
	Result  any       `json:"result,omitempty"`
	Error   *MCPError `json:"error,omitempty"`
}

// MCPError is a JSON-RPC error object.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func errorResponse(id any, code int, msg string) MCPResponse {
	return MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &MCPError{Code: code, Message: msg},
	}
}

// HandleNotification processes a request that expects no response.
// Client lifecycle notifications are acknowledged without side effects;
// other methods run and their result is discarded.
func (s *Server) HandleNotification(ctx context.Context, req MCPRequest) {
	if strings.HasPrefix(req.Method, "notifications/") {
		s.logger.Debug("mcp notification", zap.String("method", req.Method))
		return
	}
	resp := s.HandleRequest(ctx, req)
	if resp.Error != nil {
		s.logger.Debug("mcp notification failed",
			zap.String("method", req.Method),
			zap.Int("code", resp.Error.Code),
			zap.String("error", resp.Error.Message),
		)
	}
}

// HandleRequest processes an MCP request and returns a response.
func (s *Server) HandleRequest(ctx context.Context, req MCPRequest) MCPResponse {
	s.logger.Debug("mcp request", zap.String("method", req.Method), zap.Any("id", req.ID))

	if req.JSONRPC != "2.0" {
		return errorResponse(req.ID, ErrCodeInvalidRequest, `jsonrpc must be "2.0"`)
	}

	switch req.Method {
	case "initialize":
		return s.handleInitialize(req.ID)
	case "ping":
		return MCPResponse{JSONRPC: "2.0", ID: req.ID, Result: map[string]any{}}
	case "tools/list":
		return s.handleToolsList(req.ID)
	case "tools/call":
		return s.handleToolsCall(ctx, req.ID, req.Params)
	default:
		return errorResponse(req.ID, ErrCodeMethodNotFound, fmt.Sprintf("method %s not found", req.Method))
	}
}

func (s *Server) handleInitialize(id any) MCPResponse {
	result := map[string]any{
		"protocolVersion": model.MCPVersion,
		"capabilities": map[string]any{
			"tools": map[string]any{},
		},
		"serverInfo": map[string]any{
			"name":    s.config.ServerInfo.Name,
			"version": s.config.ServerInfo.Version,
		},
	}
	return MCPResponse{JSONRPC: "2.0", ID: id, Result: result}
}

func (s *Server) handleToolsList(id any) MCPResponse {
	tools := s.Tools()
	mcpTools := make([]map[string]any, 0, len(tools))
	for _, tool := range tools {
		mcpTools = append(mcpTools, map[string]any{
			"name":        tool.Name,
			"description": tool.Description,
			"inputSchema": tool.InputSchema,
		})
	}
	return MCPResponse{JSONRPC: "2.0", ID: id, Result: map[string]any{"tools": mcpTools}}
}

type toolsCallParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

func (s *Server) handleToolsCall(ctx context.Context, id any, params json.RawMessage) MCPResponse {
	var callParams toolsCallParams
	if err := json.Unmarshal(params, &callParams); err != nil {
		return errorResponse(id, ErrCodeInvalidParams, err.Error())
	}

	result, err := s.Execute(ctx, callParams.Name, callParams.Arguments)
	if err != nil {
		code := errorCode(err)
		if code == ErrCodeToolExecFailed {
			s.logger.Warn("tool call failed", zap.String("tool", callParams.Name), zap.Error(err))
		}
		return errorResponse(id, code, err.Error())
	}
	return MCPResponse{JSONRPC: "2.0", ID: id, Result: result}
}

func errorCode(err error) int {
	switch {
	case errors.Is(err, ErrToolNotFound):
		return ErrCodeToolNotFound
	case errors.Is(err, ErrInvalidParams),
		errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, recommend.ErrInvalidSignal),
		errors.Is(err, history.ErrInvalidEvent):
		return ErrCodeInvalidParams
	default:
		return ErrCodeToolExecFailed
	}
}
