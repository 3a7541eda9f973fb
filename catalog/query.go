package catalog

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/jonwraymond/promptdiscovery/history"
	"github.com/jonwraymond/promptdiscovery/recommend"
	"github.com/jonwraymond/promptdiscovery/search"
)

// Operation names used in logs and metrics.
const (
	opSearch  = "search"
	opRelated = "related"
	opForYou  = "for_you"
	opForUser = "for_user"
	opSignal  = "record_signal"
)

// Search performs a BM25 search over the corpus.
// Returns results ordered by relevance score.
func (c *Catalog) Search(ctx context.Context, query string, opts search.Options) (results search.Results, err error) {
	start := time.Now()
	defer func() { c.metrics.observe(opSearch, start, err) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	idx, fp := c.snapshotWithFingerprint()
	key := cacheKey(opSearch, fp, query, strconv.Itoa(opts.Limit), strconv.FormatBool(opts.ExpandSynonyms))
	if cached, ok := c.cacheGet(key); ok {
		c.metrics.cacheHit(opSearch)
		return cloneSearchResults(cached.(search.Results)), nil
	}

	results = idx.Search(query, opts)
	c.cacheSet(key, results)

	c.logger.Debug("search",
		zap.String("query", query),
		zap.Int("limit", opts.Limit),
		zap.Bool("synonyms", opts.ExpandSynonyms),
		zap.Int("results", len(results)),
	)
	return cloneSearchResults(results), nil
}

// Related returns prompts related to the prompt with the given id.
func (c *Catalog) Related(ctx context.Context, id string, opts recommend.RelatedOptions) (results recommend.Results, err error) {
	start := time.Now()
	defer func() { c.metrics.observe(opRelated, start, err) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	idx, fp := c.index, c.fingerprint
	pos, ok := c.byID[id]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	source := idx.Corpus()[pos]

	key := cacheKey(opRelated, fp, id,
		strconv.Itoa(opts.Limit),
		strconv.FormatFloat(opts.MinScore, 'g', -1, 64),
		strings.Join(opts.ExcludeIDs, "\x01"),
	)
	if cached, ok := c.cacheGet(key); ok {
		c.metrics.cacheHit(opRelated)
		return cached.(recommend.Results).Clone(), nil
	}

	results = c.rec.RelatedFromIndex(source, idx, opts)
	c.cacheSet(key, results)

	c.logger.Debug("related",
		zap.String("id", id),
		zap.Int("limit", opts.Limit),
		zap.Int("results", len(results)),
	)
	return results.Clone(), nil
}

// ForYou returns personalized suggestions for the given interactions.
func (c *Catalog) ForYou(ctx context.Context, in recommend.ForYouInput, opts recommend.ForYouOptions) (results recommend.Results, err error) {
	start := time.Now()
	defer func() { c.metrics.observe(opForYou, start, err) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results = c.rec.ForYou(in, c.snapshot().Corpus(), opts)
	c.logger.Debug("for you",
		zap.Int("viewed", len(in.Viewed)),
		zap.Int("saved", len(in.Saved)),
		zap.Int("runs", len(in.Runs)),
		zap.Int("results", len(results)),
	)
	return results.Clone(), nil
}

// RecordSignal stores a user interaction with a known prompt.
func (c *Catalog) RecordSignal(ctx context.Context, userID, promptID string, kind recommend.SignalKind) (event history.Event, err error) {
	start := time.Now()
	defer func() { c.metrics.observe(opSignal, start, err) }()

	if c.history == nil {
		return history.Event{}, ErrNoHistory
	}
	if _, err := c.Get(promptID); err != nil {
		return history.Event{}, err
	}

	event, err = c.history.Record(ctx, history.Event{UserID: userID, PromptID: promptID, Kind: kind})
	if err != nil {
		c.logger.Warn("record signal failed",
			zap.String("user", userID),
			zap.String("prompt", promptID),
			zap.Error(err),
		)
		return history.Event{}, err
	}
	return event, nil
}

// ForUser replays a user's most recent signals into ForYou. Signals for
// prompts no longer in the corpus are skipped.
func (c *Catalog) ForUser(ctx context.Context, userID string, prefs recommend.Preferences, opts recommend.ForYouOptions) (results recommend.Results, err error) {
	start := time.Now()
	defer func() { c.metrics.observe(opForUser, start, err) }()

	if c.history == nil {
		return nil, ErrNoHistory
	}

	events, err := c.history.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load history for %s: %w", userID, err)
	}
	if len(events) > c.maxHistory {
		events = events[len(events)-c.maxHistory:]
	}

	in := recommend.ForYouInput{Preferences: prefs}
	for _, e := range events {
		resolved := c.Resolve([]string{e.PromptID})
		if len(resolved) == 0 {
			continue
		}
		switch e.Kind {
		case recommend.KindSave:
			in.Saved = append(in.Saved, resolved[0])
		case recommend.KindRun:
			in.Runs = append(in.Runs, resolved[0])
		default:
			in.Viewed = append(in.Viewed, resolved[0])
		}
	}

	return c.ForYou(ctx, in, opts)
}

func (c *Catalog) cacheGet(key string) (any, bool) {
	if c.cache == nil {
		return nil, false
	}
	return c.cache.Get(key)
}

func (c *Catalog) cacheSet(key string, value any) {
	if c.cache == nil {
		return
	}
	c.cache.Set(key, value, gocache.DefaultExpiration)
}

func cacheKey(parts ...string) string {
	return strings.Join(parts, "\x00")
}

func cloneSearchResults(r search.Results) search.Results {
	out := make(search.Results, len(r))
	for i, res := range r {
		out[i] = search.Result{Prompt: res.Prompt.Clone(), Score: res.Score}
	}
	return out
}
