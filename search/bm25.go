package search

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/jonwraymond/promptdiscovery/prompt"
)

// ErrInvalidConfig reports a BM25 configuration that cannot be used.
var ErrInvalidConfig = errors.New("invalid search config")

// Default BM25 parameters and field weights.
const (
	DefaultK1 = 1.2
	DefaultB  = 0.75

	DefaultTitleWeight       = 3.0
	DefaultDescriptionWeight = 2.0
	DefaultTagsWeight        = 1.5
	DefaultContentWeight     = 1.0
)

// Off sets a BM25 parameter or field weight to zero. A plain zero selects
// the default, so Off is the only way to disable a field or use b = 0.
const Off = -1.0

// FieldWeights scales the contribution of each prompt field to term
// frequency and document length. Zero values use the defaults; [Off]
// disables a field.
type FieldWeights struct {
	Title       float64 `yaml:"title" json:"title"`
	Description float64 `yaml:"description" json:"description"`
	Tags        float64 `yaml:"tags" json:"tags"`
	Content     float64 `yaml:"content" json:"content"`
}

// BM25Config configures a [Searcher]. The zero value is ready to use.
// Numeric fields left at zero take their defaults; set them to [Off] for an
// explicit zero.
type BM25Config struct {
	// K1 controls term frequency saturation (default 1.2).
	K1 float64

	// B controls document length normalization, in (0, 1] (default 0.75).
	B float64

	// Weights are the per-field multipliers (default title 3, description 2,
	// tags 1.5, content 1).
	Weights FieldWeights

	// Analyzer names the bleve analyzer used for documents and queries
	// (default [AnalyzerStandard]).
	Analyzer string

	// Synonyms is consulted when a query asks for synonym expansion.
	Synonyms Synonyms
}

func (c BM25Config) withDefaults() BM25Config {
	set := func(v *float64, def float64) {
		switch *v {
		case 0:
			*v = def
		case Off:
			*v = 0
		}
	}
	set(&c.K1, DefaultK1)
	set(&c.B, DefaultB)
	set(&c.Weights.Title, DefaultTitleWeight)
	set(&c.Weights.Description, DefaultDescriptionWeight)
	set(&c.Weights.Tags, DefaultTagsWeight)
	set(&c.Weights.Content, DefaultContentWeight)
	if c.Analyzer == "" {
		c.Analyzer = AnalyzerStandard
	}
	return c
}

// Validate reports whether the config, after defaults, is usable.
func (c BM25Config) Validate() error {
	c = c.withDefaults()
	if c.K1 < 0 || math.IsNaN(c.K1) || math.IsInf(c.K1, 0) {
		return fmt.Errorf("%w: k1 must be a finite non-negative number", ErrInvalidConfig)
	}
	if c.B < 0 || c.B > 1 || math.IsNaN(c.B) {
		return fmt.Errorf("%w: b must be within [0, 1]", ErrInvalidConfig)
	}
	for name, w := range map[string]float64{
		"title":       c.Weights.Title,
		"description": c.Weights.Description,
		"tags":        c.Weights.Tags,
		"content":     c.Weights.Content,
	} {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("%w: %s weight must be a finite non-negative number", ErrInvalidConfig, name)
		}
	}
	return nil
}

// Options controls a single query.
type Options struct {
	// Limit caps the number of results. Zero or negative means no cap.
	Limit int

	// ExpandSynonyms adds configured synonyms of each query term.
	ExpandSynonyms bool
}

// Result is a prompt paired with its relevance score.
type Result struct {
	Prompt prompt.Prompt `json:"prompt"`
	Score  float64       `json:"score"`
}

// Results is a slice of Result with helper methods.
type Results []Result

// IDs returns just the prompt IDs from the results.
func (r Results) IDs() []string {
	ids := make([]string, len(r))
	for i, result := range r {
		ids[i] = result.Prompt.ID
	}
	return ids
}

// Prompts returns just the prompts from the results.
func (r Results) Prompts() []prompt.Prompt {
	prompts := make([]prompt.Prompt, len(r))
	for i, result := range r {
		prompts[i] = result.Prompt
	}
	return prompts
}

// Searcher scores prompts with field-weighted BM25.
//
// A Searcher holds only immutable configuration and is safe for concurrent
// use. Each call to [Searcher.Score] or [Searcher.Search] analyzes the corpus
// afresh; callers that query the same corpus repeatedly should build an
// [Index] once and query it instead.
type Searcher struct {
	cfg      BM25Config
	tok      *Tokenizer
	synonyms Synonyms
}

// NewSearcher validates cfg and builds a searcher.
func NewSearcher(cfg BM25Config) (*Searcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	tok, err := NewTokenizer(cfg.Analyzer)
	if err != nil {
		return nil, err
	}

	return &Searcher{
		cfg:      cfg,
		tok:      tok,
		synonyms: cfg.Synonyms.analyzed(tok),
	}, nil
}

// Config returns the effective configuration, defaults applied.
func (s *Searcher) Config() BM25Config {
	return s.cfg
}

// Tokenizer returns the tokenizer shared by documents and queries.
func (s *Searcher) Tokenizer() *Tokenizer {
	return s.tok
}

// Score returns one result per corpus entry, in corpus order, zero scores
// included.
func (s *Searcher) Score(query string, corpus []prompt.Prompt, opts Options) Results {
	return s.Index(corpus).Score(query, opts)
}

// Search returns the positively scored prompts sorted by score descending,
// ties kept in corpus order, truncated to opts.Limit.
func (s *Searcher) Search(query string, corpus []prompt.Prompt, opts Options) Results {
	return s.Index(corpus).Search(query, opts)
}

// docStats holds the weighted term frequencies of one prompt.
type docStats struct {
	tf     map[string]float64
	length float64
}

// Index is the analyzed form of a corpus. It is immutable once built and
// safe for concurrent queries.
type Index struct {
	s      *Searcher
	corpus []prompt.Prompt
	docs   []docStats
	df     map[string]int
	avgLen float64
}

// Index analyzes corpus. The corpus slice is retained and must not be
// modified while the index is in use.
func (s *Searcher) Index(corpus []prompt.Prompt) *Index {
	ix := &Index{
		s:      s,
		corpus: corpus,
		docs:   make([]docStats, len(corpus)),
		df:     make(map[string]int),
	}

	w := s.cfg.Weights
	var total float64
	for i, p := range corpus {
		st := docStats{tf: make(map[string]float64)}
		add := func(text string, weight float64) {
			for _, term := range s.tok.Tokens(text) {
				st.tf[term] += weight
				st.length += weight
			}
		}
		add(p.Title, w.Title)
		add(p.Description, w.Description)
		for _, tag := range p.Tags {
			add(tag, w.Tags)
		}
		add(p.Content, w.Content)

		for term := range st.tf {
			ix.df[term]++
		}
		ix.docs[i] = st
		total += st.length
	}
	if len(corpus) > 0 {
		ix.avgLen = total / float64(len(corpus))
	}

	return ix
}

// Len returns the number of indexed prompts.
func (ix *Index) Len() int {
	return len(ix.corpus)
}

// Corpus returns the indexed prompts in corpus order.
func (ix *Index) Corpus() []prompt.Prompt {
	return ix.corpus
}

// QueryTerms returns the analyzed, de-duplicated terms a query resolves to.
func (ix *Index) QueryTerms(query string, expandSynonyms bool) []string {
	terms := ix.s.tok.UniqueTokens(query)
	if expandSynonyms {
		terms = ix.s.synonyms.Expand(terms)
	}
	return terms
}

// Score returns one result per indexed prompt, in corpus order.
func (ix *Index) Score(query string, opts Options) Results {
	results := make(Results, len(ix.corpus))
	terms := ix.QueryTerms(query, opts.ExpandSynonyms)
	for i, p := range ix.corpus {
		results[i] = Result{Prompt: p, Score: ix.scoreDoc(i, terms)}
	}
	return results
}

// Search returns positively scored prompts, best first.
func (ix *Index) Search(query string, opts Options) Results {
	terms := ix.QueryTerms(query, opts.ExpandSynonyms)
	if len(terms) == 0 {
		return Results{}
	}

	results := make(Results, 0, len(ix.corpus))
	for i, p := range ix.corpus {
		if score := ix.scoreDoc(i, terms); score > 0 {
			results = append(results, Result{Prompt: p, Score: score})
		}
	}

	SortResults(results)

	if opts.Limit > 0 && len(results) > opts.Limit {
		results = results[:opts.Limit]
	}
	return results
}

func (ix *Index) scoreDoc(i int, terms []string) float64 {
	if len(terms) == 0 || ix.avgLen <= 0 {
		return 0
	}

	st := ix.docs[i]
	k1, b := ix.s.cfg.K1, ix.s.cfg.B
	n := float64(len(ix.corpus))
	norm := k1 * (1 - b + b*st.length/ix.avgLen)

	var score float64
	for _, term := range terms {
		tf := st.tf[term]
		if tf == 0 {
			continue
		}
		df := float64(ix.df[term])
		idf := math.Log(1 + (n-df+0.5)/(df+0.5))
		score += idf * tf * (k1 + 1) / (tf + norm)
	}

	if math.IsNaN(score) || math.IsInf(score, 0) || score < 0 {
		return 0
	}
	return score
}

// SortResults orders results by score descending. The sort is stable, so
// equal scores keep their incoming (corpus) order.
func SortResults(results Results) {
	slices.SortStableFunc(results, func(a, b Result) int {
		return cmp.Compare(b.Score, a.Score)
	})
}
