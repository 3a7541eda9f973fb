package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/jonwraymond/promptdiscovery/history"
	"github.com/jonwraymond/promptdiscovery/prompt"
	"github.com/jonwraymond/promptdiscovery/recommend"
	"github.com/jonwraymond/promptdiscovery/search"
)

// Error values for catalog operations.
var (
	ErrNotFound  = errors.New("prompt not found")
	ErrNoHistory = errors.New("history store not configured")
)

// Default option values.
const (
	DefaultCacheTTL   = 5 * time.Minute
	DefaultMaxHistory = 50
)

// Options configures a Catalog instance.
type Options struct {
	// Prompts is the initial corpus. It may be empty and loaded later.
	Prompts []prompt.Prompt

	// BM25 configures the searcher.
	BM25 search.BM25Config

	// Recommend configures the recommendation weights.
	Recommend recommend.Config

	// History stores user signals. If nil, RecordSignal and ForUser
	// return ErrNoHistory.
	History history.Store

	// Logger receives operational logs. If nil, logging is disabled.
	Logger *zap.Logger

	// Metrics receives operation metrics. If nil, metrics are disabled.
	Metrics *Metrics

	// CacheTTL is how long search and related results are cached.
	// Default: 5m. Negative disables the cache.
	CacheTTL time.Duration

	// MaxHistory caps how many of a user's most recent signals feed ForUser.
	// Default: 50
	MaxHistory int
}

// ChangeEvent describes a corpus reload.
type ChangeEvent struct {
	Version     uint64
	Fingerprint string
	Count       int
}

// ChangeListener is notified after the corpus changes.
type ChangeListener func(ChangeEvent)

// Facet is a category or tag with the number of prompts carrying it.
type Facet struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Catalog is the unified facade for prompt search and recommendation.
// It owns the corpus and its BM25 index and is safe for concurrent use.
type Catalog struct {
	mu          sync.RWMutex
	index       *search.Index
	byID        map[string]int
	fingerprint string
	version     uint64

	searcher   *search.Searcher
	rec        *recommend.Recommender
	history    history.Store
	cache      *gocache.Cache
	logger     *zap.Logger
	metrics    *Metrics
	maxHistory int

	listenerMu   sync.Mutex
	listeners    map[int]ChangeListener
	nextListener int
}

// New creates a new Catalog with the given options.
func New(opts Options) (*Catalog, error) {
	searcher, err := search.NewSearcher(opts.BM25)
	if err != nil {
		return nil, err
	}
	rec, err := recommend.New(searcher, opts.Recommend)
	if err != nil {
		return nil, err
	}

	c := &Catalog{
		searcher:   searcher,
		rec:        rec,
		history:    opts.History,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
		maxHistory: opts.MaxHistory,
		listeners:  make(map[int]ChangeListener),
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.maxHistory <= 0 {
		c.maxHistory = DefaultMaxHistory
	}

	ttl := opts.CacheTTL
	if ttl == 0 {
		ttl = DefaultCacheTTL
	}
	if ttl > 0 {
		c.cache = gocache.New(ttl, 2*ttl)
	}

	c.index = searcher.Index(nil)
	c.byID = map[string]int{}
	c.fingerprint = search.Fingerprint(nil)

	if len(opts.Prompts) > 0 {
		if err := c.Load(opts.Prompts); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Load validates prompts and replaces the corpus. The index is only rebuilt
// when the corpus fingerprint changes.
func (c *Catalog) Load(prompts []prompt.Prompt) error {
	if err := prompt.ValidateCorpus(prompts); err != nil {
		return err
	}

	fp := search.Fingerprint(prompts)

	c.mu.RLock()
	unchanged := fp == c.fingerprint
	c.mu.RUnlock()
	if unchanged {
		c.logger.Debug("corpus unchanged, keeping index", zap.String("fingerprint", shortFingerprint(fp)))
		return nil
	}

	corpus := make([]prompt.Prompt, len(prompts))
	byID := make(map[string]int, len(prompts))
	for i, p := range prompts {
		corpus[i] = p.Clone()
		byID[p.ID] = i
	}
	idx := c.searcher.Index(corpus)

	c.mu.Lock()
	c.index = idx
	c.byID = byID
	c.fingerprint = fp
	c.version++
	event := ChangeEvent{Version: c.version, Fingerprint: fp, Count: len(corpus)}
	c.mu.Unlock()

	if c.cache != nil {
		c.cache.Flush()
	}
	c.metrics.corpusLoaded(len(corpus))
	c.logger.Info("corpus loaded",
		zap.Int("prompts", len(corpus)),
		zap.Uint64("version", event.Version),
		zap.String("fingerprint", shortFingerprint(fp)),
	)

	c.notify(event)
	return nil
}

// LoadFile imports a JSONL corpus file and loads it.
func (c *Catalog) LoadFile(path string) error {
	prompts, meta, err := prompt.ImportFile(path)
	if err != nil {
		return err
	}
	c.logger.Debug("corpus file read",
		zap.String("path", path),
		zap.Int("prompts", len(prompts)),
		zap.String("data_version", meta.Version),
	)
	return c.Load(prompts)
}

// ExportFile atomically writes the current corpus as JSONL.
func (c *Catalog) ExportFile(path string) error {
	prompts := c.Prompts()
	if err := prompt.ExportFile(path, prompts, prompt.Meta{}); err != nil {
		return err
	}
	c.logger.Info("corpus exported", zap.String("path", path), zap.Int("prompts", len(prompts)))
	return nil
}

// Get returns a prompt by id.
func (c *Catalog) Get(id string) (prompt.Prompt, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i, ok := c.byID[id]
	if !ok {
		return prompt.Prompt{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return c.index.Corpus()[i].Clone(), nil
}

// Resolve returns the prompts for ids in order, skipping unknown ids.
func (c *Catalog) Resolve(ids []string) []prompt.Prompt {
	c.mu.RLock()
	defer c.mu.RUnlock()

	corpus := c.index.Corpus()
	out := make([]prompt.Prompt, 0, len(ids))
	for _, id := range ids {
		if i, ok := c.byID[id]; ok {
			out = append(out, corpus[i].Clone())
		}
	}
	return out
}

// Prompts returns a copy of the corpus in order.
func (c *Catalog) Prompts() []prompt.Prompt {
	c.mu.RLock()
	defer c.mu.RUnlock()

	corpus := c.index.Corpus()
	out := make([]prompt.Prompt, len(corpus))
	for i, p := range corpus {
		out[i] = p.Clone()
	}
	return out
}

// Len returns the number of prompts.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.index.Len()
}

// Fingerprint returns the fingerprint of the loaded corpus.
func (c *Catalog) Fingerprint() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fingerprint
}

// Version returns a counter incremented on every corpus change.
func (c *Catalog) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// Categories returns every category with its prompt count, most common first.
func (c *Catalog) Categories() []Facet {
	counts := map[string]int{}
	for _, p := range c.snapshot().Corpus() {
		if cat := strings.TrimSpace(p.Category); cat != "" {
			counts[cat]++
		}
	}
	return facets(counts)
}

// Tags returns every normalized tag with its prompt count, most common first.
func (c *Catalog) Tags() []Facet {
	counts := map[string]int{}
	for _, p := range c.snapshot().Corpus() {
		for _, t := range p.NormalizedTags() {
			counts[t]++
		}
	}
	return facets(counts)
}

// OnChange registers a listener for corpus changes.
// Returns an unsubscribe function.
func (c *Catalog) OnChange(listener ChangeListener) func() {
	c.listenerMu.Lock()
	id := c.nextListener
	c.nextListener++
	c.listeners[id] = listener
	c.listenerMu.Unlock()

	return func() {
		c.listenerMu.Lock()
		delete(c.listeners, id)
		c.listenerMu.Unlock()
	}
}

// Searcher returns the underlying BM25 searcher.
func (c *Catalog) Searcher() *search.Searcher {
	return c.searcher
}

// Recommender returns the underlying recommender.
func (c *Catalog) Recommender() *recommend.Recommender {
	return c.rec
}

// HistoryStore returns the configured history store, or nil.
func (c *Catalog) HistoryStore() history.Store {
	return c.history
}

func (c *Catalog) notify(event ChangeEvent) {
	c.listenerMu.Lock()
	ids := make([]int, 0, len(c.listeners))
	for id := range c.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	listeners := make([]ChangeListener, 0, len(ids))
	for _, id := range ids {
		listeners = append(listeners, c.listeners[id])
	}
	c.listenerMu.Unlock()

	for _, l := range listeners {
		l(event)
	}
}

func (c *Catalog) snapshot() *search.Index {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.index
}

func (c *Catalog) snapshotWithFingerprint() (*search.Index, string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.index, c.fingerprint
}

func facets(counts map[string]int) []Facet {
	out := make([]Facet, 0, len(counts))
	for name, n := range counts {
		out = append(out, Facet{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func shortFingerprint(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
