package recommend

import (
	"math"

	"github.com/jonwraymond/promptdiscovery/prompt"
	"github.com/jonwraymond/promptdiscovery/search"
)

// RelatedOptions controls [Recommender.Related].
type RelatedOptions struct {
	// Limit caps the result count (default Config.DefaultLimit).
	Limit int

	// ExcludeIDs are never returned.
	ExcludeIDs []string

	// MinScore drops results scoring below it. Results must always score
	// strictly above zero.
	MinScore float64
}

// Recommender builds related and history-based suggestions. It holds only
// immutable configuration and is safe for concurrent use.
type Recommender struct {
	cfg      Config
	searcher *search.Searcher
}

// New validates cfg and returns a Recommender. A nil searcher uses the
// default BM25 configuration.
func New(searcher *search.Searcher, cfg Config) (*Recommender, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if searcher == nil {
		s, err := search.NewSearcher(search.BM25Config{})
		if err != nil {
			return nil, err
		}
		searcher = s
	}
	return &Recommender{cfg: cfg.withDefaults(), searcher: searcher}, nil
}

// Config returns the effective configuration, defaults applied.
func (r *Recommender) Config() Config {
	return r.cfg
}

// Searcher returns the BM25 searcher used for textual similarity.
func (r *Recommender) Searcher() *search.Searcher {
	return r.searcher
}

// Related returns prompts similar to source, best first.
func (r *Recommender) Related(source prompt.Prompt, corpus []prompt.Prompt, opts RelatedOptions) Results {
	return r.RelatedFromIndex(source, r.searcher.Index(corpus), opts)
}

// RelatedFromIndex is [Recommender.Related] over a prebuilt index. The index
// must have been built by the same searcher configuration.
//
// The score of a candidate is
//
//	sharedTags*TagWeight + (bm25/maxBM25)*BM25Weight
//	    + CategoryBoost (same category) + AuthorBoost (same author)
//	    + FeaturedBoost (featured, only when already above zero)
//
// where bm25 scores the candidate against the source's title and description.
func (r *Recommender) RelatedFromIndex(source prompt.Prompt, idx *search.Index, opts RelatedOptions) Results {
	corpus := idx.Corpus()
	if len(corpus) == 0 {
		return Results{}
	}

	excluded := idSet(opts.ExcludeIDs)
	excluded[source.ID] = struct{}{}

	bm25 := idx.Score(source.Title+" "+source.Description, search.Options{ExpandSynonyms: false})

	maxScore := 0.0
	for i, p := range corpus {
		if _, skip := excluded[p.ID]; skip {
			continue
		}
		if s := bm25[i].Score; !math.IsNaN(s) && !math.IsInf(s, 0) && s > maxScore {
			maxScore = s
		}
	}
	if maxScore <= 0 {
		maxScore = 1
	}

	sourceTags := tagSet(source)
	sourceCategory := prompt.NormalizeTag(source.Category)
	sourceAuthor := prompt.NormalizeTag(source.Author)

	results := make(Results, 0, len(corpus))
	for i, p := range corpus {
		if _, skip := excluded[p.ID]; skip {
			continue
		}

		var why reasons
		overlap := sharedTags(sourceTags, p)
		normalized := bm25[i].Score / maxScore
		if math.IsNaN(normalized) || math.IsInf(normalized, 0) || normalized < 0 {
			normalized = 0
		}

		score := float64(overlap)*r.cfg.TagWeight + normalized*r.cfg.BM25Weight
		if overlap > 0 {
			why.add("Shares %d %s", overlap, plural(overlap, "tag", "tags"))
		}
		if normalized > 0 {
			why.add("Similar content")
		}
		if sourceCategory != "" && prompt.NormalizeTag(p.Category) == sourceCategory {
			score += r.cfg.CategoryBoost
			why.add("Same category: %s", p.Category)
		}
		if sourceAuthor != "" && prompt.NormalizeTag(p.Author) == sourceAuthor {
			score += r.cfg.AuthorBoost
			why.add("Same author: %s", p.Author)
		}
		if score > 0 && p.Featured {
			score += r.cfg.FeaturedBoost
			why.add("Featured prompt")
		}

		if score <= 0 || score < opts.MinScore {
			continue
		}
		results = append(results, Result{Prompt: p, Score: score, Reasons: why.slice()})
	}

	return sortAndLimit(results, r.cfg.limit(opts.Limit))
}

func idSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids)+1)
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func tagSet(p prompt.Prompt) map[string]struct{} {
	tags := p.NormalizedTags()
	set := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		set[t] = struct{}{}
	}
	return set
}

func normalizedSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		if n := prompt.NormalizeTag(v); n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}

func sharedTags(tags map[string]struct{}, p prompt.Prompt) int {
	if len(tags) == 0 {
		return 0
	}
	n := 0
	for _, t := range p.NormalizedTags() {
		if _, ok := tags[t]; ok {
			n++
		}
	}
	return n
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
