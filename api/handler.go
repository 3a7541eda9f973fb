package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jonwraymond/promptdiscovery/catalog"
	"github.com/jonwraymond/promptdiscovery/history"
	"github.com/jonwraymond/promptdiscovery/prompt"
	"github.com/jonwraymond/promptdiscovery/recommend"
	"github.com/jonwraymond/promptdiscovery/search"
)

// ErrBadRequest reports a malformed request parameter or body.
var ErrBadRequest = errors.New("bad request")

const maxBodySize = 1 << 20

// Handler serves the REST API over a catalog.
type Handler struct {
	catalog *catalog.Catalog
	logger  *zap.Logger
	mux     *http.ServeMux
}

// New creates a Handler. A nil logger disables request logging.
func New(c *catalog.Catalog, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handler{catalog: c, logger: logger, mux: http.NewServeMux()}

	h.mux.HandleFunc("GET /healthz", h.health)
	h.mux.HandleFunc("GET /api/prompts", h.listPrompts)
	h.mux.HandleFunc("GET /api/prompts/{id}", h.getPrompt)
	h.mux.HandleFunc("GET /api/prompts/{id}/related", h.related)
	h.mux.HandleFunc("GET /api/search", h.search)
	h.mux.HandleFunc("GET /api/categories", h.categories)
	h.mux.HandleFunc("GET /api/tags", h.tags)
	h.mux.HandleFunc("POST /api/recommendations", h.recommendations)
	h.mux.HandleFunc("POST /api/users/{user}/signals", h.recordSignal)
	h.mux.HandleFunc("GET /api/users/{user}/recommendations", h.userRecommendations)
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	h.mux.ServeHTTP(rec, r)
	h.logger.Debug("http request",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", rec.status),
		zap.Duration("duration", time.Since(start)),
	)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

type healthResponse struct {
	Status      string `json:"status"`
	Prompts     int    `json:"prompts"`
	Version     uint64 `json:"version"`
	Fingerprint string `json:"fingerprint"`
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:      "ok",
		Prompts:     h.catalog.Len(),
		Version:     h.catalog.Version(),
		Fingerprint: h.catalog.Fingerprint(),
	})
}

type promptList struct {
	Prompts []prompt.Prompt `json:"prompts"`
	Count   int             `json:"count"`
}

func (h *Handler) listPrompts(w http.ResponseWriter, r *http.Request) {
	category := strings.TrimSpace(r.URL.Query().Get("category"))
	tag := strings.TrimSpace(r.URL.Query().Get("tag"))

	out := make([]prompt.Prompt, 0, h.catalog.Len())
	for _, p := range h.catalog.Prompts() {
		if category != "" && !strings.EqualFold(p.Category, category) {
			continue
		}
		if tag != "" && !p.HasTag(tag) {
			continue
		}
		out = append(out, p)
	}
	writeJSON(w, http.StatusOK, promptList{Prompts: out, Count: len(out)})
}

func (h *Handler) getPrompt(w http.ResponseWriter, r *http.Request) {
	p, err := h.catalog.Get(r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type searchResponse struct {
	Query   string         `json:"query"`
	Results search.Results `json:"results"`
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := intParam(q.Get("limit"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	synonyms, err := boolParam(q.Get("synonyms"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	results, err := h.catalog.Search(r.Context(), q.Get("q"), search.Options{Limit: limit, ExpandSynonyms: synonyms})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, searchResponse{Query: q.Get("q"), Results: results})
}

type recommendResponse struct {
	Results recommend.Results `json:"results"`
}

func (h *Handler) related(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := intParam(q.Get("limit"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	minScore, err := floatParam(q.Get("min_score"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	results, err := h.catalog.Related(r.Context(), r.PathValue("id"), recommend.RelatedOptions{
		Limit:      limit,
		ExcludeIDs: listParam(q.Get("exclude")),
		MinScore:   minScore,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recommendResponse{Results: results})
}

func (h *Handler) categories(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]catalog.Facet{"categories": h.catalog.Categories()})
}

func (h *Handler) tags(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]catalog.Facet{"tags": h.catalog.Tags()})
}

// RecommendRequest is the body of POST /api/recommendations.
type RecommendRequest struct {
	ViewedIDs   []string              `json:"viewed_ids"`
	SavedIDs    []string              `json:"saved_ids"`
	RunIDs      []string              `json:"run_ids"`
	Preferences recommend.Preferences `json:"preferences"`
	ExcludeIDs  []string              `json:"exclude_ids"`
	Limit       int                   `json:"limit"`
}

func (h *Handler) recommendations(w http.ResponseWriter, r *http.Request) {
	var req RecommendRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if req.Limit < 0 {
		h.writeError(w, fmt.Errorf("%w: limit must not be negative", ErrBadRequest))
		return
	}

	in := recommend.ForYouInput{
		Viewed:      h.catalog.Resolve(req.ViewedIDs),
		Saved:       h.catalog.Resolve(req.SavedIDs),
		Runs:        h.catalog.Resolve(req.RunIDs),
		Preferences: req.Preferences,
	}
	results, err := h.catalog.ForYou(r.Context(), in, recommend.ForYouOptions{Limit: req.Limit, ExcludeIDs: req.ExcludeIDs})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recommendResponse{Results: results})
}

// SignalRequest is the body of POST /api/users/{user}/signals.
type SignalRequest struct {
	PromptID string `json:"prompt_id"`
	Kind     string `json:"kind"`
}

func (h *Handler) recordSignal(w http.ResponseWriter, r *http.Request) {
	var req SignalRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if strings.TrimSpace(req.PromptID) == "" {
		h.writeError(w, fmt.Errorf("%w: prompt_id is required", ErrBadRequest))
		return
	}
	kind, err := recommend.ParseKind(req.Kind)
	if err != nil {
		h.writeError(w, err)
		return
	}

	event, err := h.catalog.RecordSignal(r.Context(), r.PathValue("user"), req.PromptID, kind)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

func (h *Handler) userRecommendations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := intParam(q.Get("limit"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	prefs := recommend.Preferences{
		Tags:              listParam(q.Get("tags")),
		Categories:        listParam(q.Get("categories")),
		ExcludeTags:       listParam(q.Get("exclude_tags")),
		ExcludeCategories: listParam(q.Get("exclude_categories")),
	}

	results, err := h.catalog.ForUser(r.Context(), r.PathValue("user"), prefs, recommend.ForYouOptions{
		Limit:      limit,
		ExcludeIDs: listParam(q.Get("exclude")),
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recommendResponse{Results: results})
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", zap.Error(err))
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, recommend.ErrInvalidSignal),
		errors.Is(err, history.ErrInvalidEvent):
		return http.StatusBadRequest
	case errors.Is(err, catalog.ErrNoHistory):
		return http.StatusNotImplemented
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return nil
}

func intParam(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: invalid limit %q", ErrBadRequest, s)
	}
	return n, nil
}

func floatParam(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: invalid number %q", ErrBadRequest, s)
	}
	return f, nil
}

func boolParam(s string) (bool, error) {
	if s == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("%w: invalid boolean %q", ErrBadRequest, s)
	}
	return b, nil
}

// listParam splits a comma-separated query value, dropping empty entries.
func listParam(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
