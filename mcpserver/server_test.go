package mcpserver

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jonwraymond/toolfoundation/model"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/jonwraymond/promptdiscovery/catalog"
	"github.com/jonwraymond/promptdiscovery/history"
	"github.com/jonwraymond/promptdiscovery/prompt"
	"github.com/jonwraymond/promptdiscovery/recommend"
	"github.com/jonwraymond/promptdiscovery/search"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testPrompts() []prompt.Prompt {
	return []prompt.Prompt{
		{ID: "alpha-docs", Title: "Alpha Documentation Writer", Description: "Write clear README documentation", Category: "documentation", Tags: []string{"docs", "readme"}, Author: "jeffrey", Featured: true},
		{ID: "beta-test", Title: "Beta Test Generator", Description: "Generate unit tests with high coverage", Category: "testing", Tags: []string{"tests"}, Author: "jeffrey"},
		{ID: "gamma-docs", Title: "Gamma Style Guide", Description: "Review documentation for style", Category: "documentation", Tags: []string{"docs", "style"}, Author: "jeffrey"},
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store := history.NewInMemoryStore()
	t.Cleanup(func() { _ = store.Close() })

	c, err := catalog.New(catalog.Options{
		Prompts: testPrompts(),
		History: store,
		Logger:  zaptest.NewLogger(t),
	})
	require.NoError(t, err)

	s, err := New(c, Config{
		ServerInfo: ServerInfo{Name: "test-server", Version: "1.0.0"},
		Logger:     zaptest.NewLogger(t),
	})
	require.NoError(t, err)
	return s
}

func call(t *testing.T, s *Server, name string, args map[string]any) MCPResponse {
	t.Helper()
	params, err := json.Marshal(toolsCallParams{Name: name, Arguments: args})
	require.NoError(t, err)
	return s.HandleRequest(context.Background(), MCPRequest{JSONRPC: "2.0", ID: 1, Method: "tools/call", Params: params})
}

func structured[T any](t *testing.T, resp MCPResponse) T {
	t.Helper()
	require.Nil(t, resp.Error)
	result, ok := resp.Result.(*mcp.CallToolResult)
	require.True(t, ok, "result is %T", resp.Result)
	out, ok := result.StructuredContent.(T)
	require.True(t, ok, "structured content is %T", result.StructuredContent)
	return out
}

func TestHandleRequest_Initialize(t *testing.T) {
	s := newTestServer(t)

	resp := s.HandleRequest(context.Background(), MCPRequest{JSONRPC: "2.0", ID: 1, Method: "initialize"})
	require.Nil(t, resp.Error)

	result := resp.Result.(map[string]any)
	require.Equal(t, model.MCPVersion, result["protocolVersion"])
	info := result["serverInfo"].(map[string]any)
	require.Equal(t, "test-server", info["name"])
	require.Equal(t, "1.0.0", info["version"])
}

func TestHandleRequest_ToolsList(t *testing.T) {
	s := newTestServer(t)

	resp := s.HandleRequest(context.Background(), MCPRequest{JSONRPC: "2.0", ID: 1, Method: "tools/list"})
	require.Nil(t, resp.Error)

	tools := resp.Result.(map[string]any)["tools"].([]map[string]any)
	names := make([]string, len(tools))
	for i, tool := range tools {
		names[i] = tool["name"].(string)
		require.NotNil(t, tool["inputSchema"])
	}
	require.Equal(t, []string{
		"search_prompts",
		"get_prompt",
		"related_prompts",
		"recommend_prompts",
		"record_signal",
		"user_recommendations",
	}, names)
}

func TestHandleRequest_Errors(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	resp := s.HandleRequest(ctx, MCPRequest{JSONRPC: "2.0", ID: 1, Method: "unknown/method"})
	require.Equal(t, ErrCodeMethodNotFound, resp.Error.Code)

	resp = s.HandleRequest(ctx, MCPRequest{JSONRPC: "1.0", ID: 1, Method: "tools/list"})
	require.Equal(t, ErrCodeInvalidRequest, resp.Error.Code)

	resp = s.HandleRequest(ctx, MCPRequest{JSONRPC: "2.0", ID: 1, Method: "tools/call", Params: json.RawMessage(`{`)})
	require.Equal(t, ErrCodeInvalidParams, resp.Error.Code)

	tests := []struct {
		name string
		tool string
		args map[string]any
		code int
	}{
		{"unknown tool", "nonexistent", nil, ErrCodeToolNotFound},
		{"unknown prompt", "get_prompt", map[string]any{"id": "missing"}, ErrCodeInvalidParams},
		{"missing id", "related_prompts", map[string]any{}, ErrCodeInvalidParams},
		{"unknown argument", "search_prompts", map[string]any{"query": "docs", "bogus": true}, ErrCodeInvalidParams},
		{"wrong type", "search_prompts", map[string]any{"query": "docs", "limit": "ten"}, ErrCodeInvalidParams},
		{"bad kind", "record_signal", map[string]any{"user_id": "u", "prompt_id": "alpha-docs", "kind": "like"}, ErrCodeInvalidParams},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := call(t, s, tt.tool, tt.args)
			require.NotNil(t, resp.Error)
			require.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestTool_SearchPrompts(t *testing.T) {
	s := newTestServer(t)

	out := structured[searchOutput](t, call(t, s, "search_prompts", map[string]any{"query": "readme", "limit": 5}))
	require.Equal(t, "readme", out.Query)
	require.Equal(t, []string{"alpha-docs"}, out.Results.IDs())

	resp := call(t, s, "search_prompts", map[string]any{"query": "readme"})
	text := resp.Result.(*mcp.CallToolResult).Content[0].(*mcp.TextContent).Text
	var decoded struct {
		Results search.Results `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(text), &decoded))
	require.Equal(t, []string{"alpha-docs"}, decoded.Results.IDs())
}

func TestTool_GetPrompt(t *testing.T) {
	s := newTestServer(t)

	p := structured[prompt.Prompt](t, call(t, s, "get_prompt", map[string]any{"id": "beta-test"}))
	require.Equal(t, "Beta Test Generator", p.Title)
}

func TestTool_RelatedPrompts(t *testing.T) {
	s := newTestServer(t)

	out := structured[recommendOutput](t, call(t, s, "related_prompts", map[string]any{"id": "alpha-docs"}))
	require.Equal(t, "gamma-docs", out.Results[0].Prompt.ID)
	require.NotContains(t, out.Results.IDs(), "alpha-docs")
}

func TestTool_RecommendPrompts(t *testing.T) {
	s := newTestServer(t)

	cold := structured[recommendOutput](t, call(t, s, "recommend_prompts", nil))
	require.Equal(t, []string{"alpha-docs"}, cold.Results.IDs())
	require.Equal(t, []string{"Featured pick"}, cold.Results[0].Reasons)

	out := structured[recommendOutput](t, call(t, s, "recommend_prompts", map[string]any{
		"saved_ids": []string{"alpha-docs", "unknown"},
	}))
	require.Contains(t, out.Results.IDs(), "gamma-docs")
	require.NotContains(t, out.Results.IDs(), "alpha-docs")
}

func TestTool_SignalsAndUserRecommendations(t *testing.T) {
	s := newTestServer(t)

	event := structured[history.Event](t, call(t, s, "record_signal", map[string]any{
		"user_id": "u1", "prompt_id": "alpha-docs", "kind": "save",
	}))
	require.Equal(t, recommend.KindSave, event.Kind)
	require.NotEmpty(t, event.ID)

	out := structured[recommendOutput](t, call(t, s, "user_recommendations", map[string]any{"user_id": "u1"}))
	require.Equal(t, "gamma-docs", out.Results[0].Prompt.ID)
}

func TestRegister_Duplicate(t *testing.T) {
	s := newTestServer(t)

	tool := s.Tools()[0]
	err := s.Register(tool, func(context.Context, map[string]any) (any, error) { return nil, nil })
	require.ErrorIs(t, err, ErrDuplicateTool)

	err = s.Register(model.Tool{Tool: mcp.Tool{Name: "no_handler", InputSchema: map[string]any{"type": "object"}}}, nil)
	require.Error(t, err)
}

func TestServeStdio_RequestsWithoutIDGetNoResponse(t *testing.T) {
	s := newTestServer(t)

	in := strings.Join([]string{
		`{"jsonrpc":"2.0","method":"ping"}`,
		`{"jsonrpc":"2.0","method":"tools/call","params":{"name":"record_signal","arguments":{"user_id":"u1","prompt_id":"alpha-docs","kind":"save"}}}`,
		`{"jsonrpc":"2.0","method":"tools/call","params":{"name":"no_such_tool"}}`,
		`{"jsonrpc":"2.0","id":3,"method":"ping"}`,
	}, "\n")
	var out bytes.Buffer

	require.NoError(t, ServeStdio(context.Background(), s, strings.NewReader(in), &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 1)
	var resp MCPResponse
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &resp))
	require.EqualValues(t, 3, resp.ID)

	events, err := s.Catalog().HistoryStore().List(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, events, 1, "tool calls without an id still run")
	require.Equal(t, "alpha-docs", events[0].PromptID)
}

func TestServeStdio(t *testing.T) {
	s := newTestServer(t)

	in := strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize"}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		``,
		`not json`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"get_prompt","arguments":{"id":"gamma-docs"}}}`,
	}, "\n")
	var out bytes.Buffer

	require.NoError(t, ServeStdio(context.Background(), s, strings.NewReader(in), &out))

	var responses []MCPResponse
	scanner := bufio.NewScanner(&out)
	for scanner.Scan() {
		var resp MCPResponse
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &resp))
		responses = append(responses, resp)
	}
	require.Len(t, responses, 3)
	require.Nil(t, responses[0].Error)
	require.Equal(t, ErrCodeParseError, responses[1].Error.Code)
	require.Nil(t, responses[2].Error)
	require.EqualValues(t, 2, responses[2].ID)
}

func TestServeStdio_Cancelled(t *testing.T) {
	s := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())

	pr, pw := io.Pipe()
	done := make(chan error, 1)
	go func() { done <- ServeStdio(ctx, s, pr, io.Discard) }()

	cancel()
	_, err := pw.Write([]byte(`{"jsonrpc":"2.0","id":1,"method":"ping"}` + "\n"))
	require.NoError(t, err)
	require.ErrorIs(t, <-done, context.Canceled)
	require.NoError(t, pw.Close())
}

func TestHTTPHandler(t *testing.T) {
	h := HTTPHandler(newTestServer(t))

	do := func(method, body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(method, "/mcp", strings.NewReader(body)))
		return rec
	}

	rec := do(http.MethodPost, `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var listed MCPResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Nil(t, listed.Error)

	rec = do(http.MethodPost, `{invalid`)
	var parsed MCPResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &parsed))
	require.Equal(t, ErrCodeParseError, parsed.Error.Code)

	rec = do(http.MethodPost, `{"jsonrpc":"2.0","method":"notifications/initialized"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	rec = do(http.MethodPost, `{"jsonrpc":"2.0","method":"ping"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Empty(t, rec.Body.String())

	rec = do(http.MethodGet, "")
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	require.Equal(t, http.MethodPost, rec.Header().Get("Allow"))
}
