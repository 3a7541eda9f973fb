// Package mcpserver exposes a prompt catalog as an MCP tool server.
//
// The server answers the MCP JSON-RPC methods initialize, tools/list and
// tools/call. Its tools wrap the catalog operations:
//
//   - search_prompts: BM25 search over the corpus
//   - get_prompt: fetch one prompt by id
//   - related_prompts: prompts related to a given prompt
//   - recommend_prompts: personalized suggestions from explicit interactions
//   - record_signal: store a view, save or run for a user
//   - user_recommendations: personalized suggestions from stored history
//
// Example usage:
//
//	srv, err := mcpserver.New(cat, mcpserver.Config{
//	    ServerInfo: mcpserver.ServerInfo{Name: "promptdiscovery", Version: "1.0.0"},
//	    Logger:     logger,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// stdio transport
//	mcpserver.ServeStdio(ctx, srv, os.Stdin, os.Stdout)
//
//	// or streamable HTTP
//	http.Handle("/mcp", mcpserver.HTTPHandler(srv))
package mcpserver
