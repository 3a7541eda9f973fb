package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonwraymond/toolfoundation/model"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jonwraymond/promptdiscovery/recommend"
	"github.com/jonwraymond/promptdiscovery/search"
)

type toolDef struct {
	tool    model.Tool
	handler ToolHandler
}

func newTool(name, description string, properties map[string]any, required []string, tags ...string) model.Tool {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return model.Tool{
		Tool: mcp.Tool{
			Name:        name,
			Description: description,
			InputSchema: schema,
		},
		Tags: model.NormalizeTags(tags),
	}
}

var (
	stringProp  = map[string]any{"type": "string"}
	limitProp   = map[string]any{"type": "integer", "minimum": 0}
	idListProp  = map[string]any{"type": "array", "items": map[string]any{"type": "string"}}
	preferences = map[string]any{
		"type": "object",
		"properties": map[string]any{
			"tags":               idListProp,
			"categories":         idListProp,
			"exclude_tags":       idListProp,
			"exclude_categories": idListProp,
		},
	}
)

func (s *Server) promptTools() []toolDef {
	return []toolDef{
		{
			tool: newTool("search_prompts",
				"Search the prompt catalog with BM25 ranking over title, description, tags and content.",
				map[string]any{
					"query":           stringProp,
					"limit":           limitProp,
					"expand_synonyms": map[string]any{"type": "boolean"},
				},
				[]string{"query"}, "search"),
			handler: s.searchPrompts,
		},
		{
			tool: newTool("get_prompt",
				"Fetch a prompt by id.",
				map[string]any{"id": stringProp},
				[]string{"id"}, "lookup"),
			handler: s.getPrompt,
		},
		{
			tool: newTool("related_prompts",
				"List prompts related to a prompt by shared tags, content, category and author.",
				map[string]any{
					"id":          stringProp,
					"limit":       limitProp,
					"exclude_ids": idListProp,
					"min_score":   map[string]any{"type": "number", "minimum": 0},
				},
				[]string{"id"}, "recommend"),
			handler: s.relatedPrompts,
		},
		{
			tool: newTool("recommend_prompts",
				"Suggest prompts from viewed, saved and run prompt ids and stated preferences.",
				map[string]any{
					"viewed_ids":  idListProp,
					"saved_ids":   idListProp,
					"run_ids":     idListProp,
					"preferences": preferences,
					"exclude_ids": idListProp,
					"limit":       limitProp,
				},
				nil, "recommend"),
			handler: s.recommendPrompts,
		},
		{
			tool: newTool("record_signal",
				"Record that a user viewed, saved or ran a prompt.",
				map[string]any{
					"user_id":   stringProp,
					"prompt_id": stringProp,
					"kind":      map[string]any{"type": "string", "enum": []string{"view", "save", "run"}},
				},
				[]string{"user_id", "prompt_id"}, "history"),
			handler: s.recordSignal,
		},
		{
			tool: newTool("user_recommendations",
				"Suggest prompts for a user from their recorded signals.",
				map[string]any{
					"user_id":     stringProp,
					"preferences": preferences,
					"exclude_ids": idListProp,
					"limit":       limitProp,
				},
				[]string{"user_id"}, "recommend", "history"),
			handler: s.userRecommendations,
		},
	}
}

type searchArgs struct {
	Query          string `json:"query"`
	Limit          int    `json:"limit"`
	ExpandSynonyms bool   `json:"expand_synonyms"`
}

type searchOutput struct {
	Query   string         `json:"query"`
	Results search.Results `json:"results"`
}

func (s *Server) searchPrompts(ctx context.Context, raw map[string]any) (any, error) {
	var args searchArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	results, err := s.catalog.Search(ctx, args.Query, search.Options{
		Limit:          args.Limit,
		ExpandSynonyms: args.ExpandSynonyms,
	})
	if err != nil {
		return nil, err
	}
	return searchOutput{Query: args.Query, Results: results}, nil
}

type idArgs struct {
	ID string `json:"id"`
}

func (s *Server) getPrompt(_ context.Context, raw map[string]any) (any, error) {
	var args idArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	if err := requireField("id", args.ID); err != nil {
		return nil, err
	}
	return s.catalog.Get(args.ID)
}

type relatedArgs struct {
	ID         string   `json:"id"`
	Limit      int      `json:"limit"`
	ExcludeIDs []string `json:"exclude_ids"`
	MinScore   float64  `json:"min_score"`
}

type recommendOutput struct {
	Results recommend.Results `json:"results"`
}

func (s *Server) relatedPrompts(ctx context.Context, raw map[string]any) (any, error) {
	var args relatedArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	if err := requireField("id", args.ID); err != nil {
		return nil, err
	}
	results, err := s.catalog.Related(ctx, args.ID, recommend.RelatedOptions{
		Limit:      args.Limit,
		ExcludeIDs: args.ExcludeIDs,
		MinScore:   args.MinScore,
	})
	if err != nil {
		return nil, err
	}
	return recommendOutput{Results: results}, nil
}

type recommendArgs struct {
	ViewedIDs   []string              `json:"viewed_ids"`
	SavedIDs    []string              `json:"saved_ids"`
	RunIDs      []string              `json:"run_ids"`
	Preferences recommend.Preferences `json:"preferences"`
	ExcludeIDs  []string              `json:"exclude_ids"`
	Limit       int                   `json:"limit"`
}

func (s *Server) recommendPrompts(ctx context.Context, raw map[string]any) (any, error) {
	var args recommendArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	in := recommend.ForYouInput{
		Viewed:      s.catalog.Resolve(args.ViewedIDs),
		Saved:       s.catalog.Resolve(args.SavedIDs),
		Runs:        s.catalog.Resolve(args.RunIDs),
		Preferences: args.Preferences,
	}
	results, err := s.catalog.ForYou(ctx, in, recommend.ForYouOptions{
		Limit:      args.Limit,
		ExcludeIDs: args.ExcludeIDs,
	})
	if err != nil {
		return nil, err
	}
	return recommendOutput{Results: results}, nil
}

type signalArgs struct {
	UserID   string `json:"user_id"`
	PromptID string `json:"prompt_id"`
	Kind     string `json:"kind"`
}

func (s *Server) recordSignal(ctx context.Context, raw map[string]any) (any, error) {
	var args signalArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	kind, err := recommend.ParseKind(args.Kind)
	if err != nil {
		return nil, err
	}
	return s.catalog.RecordSignal(ctx, args.UserID, args.PromptID, kind)
}

type userArgs struct {
	UserID      string                `json:"user_id"`
	Preferences recommend.Preferences `json:"preferences"`
	ExcludeIDs  []string              `json:"exclude_ids"`
	Limit       int                   `json:"limit"`
}

func (s *Server) userRecommendations(ctx context.Context, raw map[string]any) (any, error) {
	var args userArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	if err := requireField("user_id", args.UserID); err != nil {
		return nil, err
	}
	results, err := s.catalog.ForUser(ctx, args.UserID, args.Preferences, recommend.ForYouOptions{
		Limit:      args.Limit,
		ExcludeIDs: args.ExcludeIDs,
	})
	if err != nil {
		return nil, err
	}
	return recommendOutput{Results: results}, nil
}

// decodeArgs converts tools/call arguments into a typed struct.
// Unknown arguments are rejected.
func decodeArgs(args map[string]any, v any) error {
	if args == nil {
		args = map[string]any{}
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	return nil
}

func requireField(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalidParams, name)
	}
	return nil
}
