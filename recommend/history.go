package recommend

import (
	"github.com/jonwraymond/promptdiscovery/prompt"
)

// HistoryOptions controls [Recommender.FromHistory].
type HistoryOptions struct {
	// Limit caps the result count (default Config.DefaultLimit).
	Limit int

	// ExcludeIDs are never returned. Prompts present in the history are
	// always excluded as well.
	ExcludeIDs []string

	// Preferences add weight for liked tags/categories and filter out
	// excluded ones.
	Preferences Preferences
}

// FromHistory recommends prompts similar to those a user interacted with.
//
// Each history entry contributes its structural similarity to a candidate
// (shared tags, same category, same author) scaled by the entry's kind
// weight, so a saved prompt pulls harder than a viewed one. Preferred tags
// and categories add weight; excluded tags and categories are hard filters.
//
// With no history and no preferred tags or categories, only featured prompts
// are returned, each scored Config.ColdStartScore.
//
// Every returned result scores strictly above zero.
func (r *Recommender) FromHistory(history []Signal, corpus []prompt.Prompt, opts HistoryOptions) Results {
	if len(corpus) == 0 {
		return Results{}
	}

	signals := normalizeSignals(history)

	excluded := idSet(opts.ExcludeIDs)
	for _, s := range signals {
		excluded[s.Prompt.ID] = struct{}{}
	}

	prefs := opts.Preferences
	prefTags := normalizedSet(prefs.Tags)
	prefCategories := normalizedSet(prefs.Categories)
	excludeTags := normalizedSet(prefs.ExcludeTags)
	excludeCategories := normalizedSet(prefs.ExcludeCategories)

	coldStart := len(signals) == 0 && len(prefTags) == 0 && len(prefCategories) == 0

	sources := make([]source, len(signals))
	for i, s := range signals {
		sources[i] = source{
			signal:   s,
			tags:     tagSet(s.Prompt),
			category: prompt.NormalizeTag(s.Prompt.Category),
			author:   prompt.NormalizeTag(s.Prompt.Author),
			weight:   r.cfg.kindWeight(s.Kind),
		}
	}

	results := make(Results, 0, len(corpus))
	for _, p := range corpus {
		if _, skip := excluded[p.ID]; skip {
			continue
		}
		candidateTags := p.NormalizedTags()
		candidateCategory := prompt.NormalizeTag(p.Category)
		if containsAny(excludeTags, candidateTags) {
			continue
		}
		if _, skip := excludeCategories[candidateCategory]; skip && candidateCategory != "" {
			continue
		}

		if coldStart {
			if p.Featured {
				results = append(results, Result{
					Prompt:  p,
					Score:   r.cfg.ColdStartScore,
					Reasons: []string{"Featured pick"},
				})
			}
			continue
		}

		var why reasons
		var score float64

		for _, src := range sources {
			sim := r.structuralSimilarity(src, p)
			if sim <= 0 {
				continue
			}
			score += sim * src.weight
			why.add("Because you %s %s", pastTense(src.signal.Kind), displayName(src.signal.Prompt))
		}

		for _, tag := range candidateTags {
			if _, ok := prefTags[tag]; ok {
				score += r.cfg.PreferenceTagBoost
				why.add("Matches your interest: %s", tag)
			}
		}
		if _, ok := prefCategories[candidateCategory]; ok && candidateCategory != "" {
			score += r.cfg.PreferenceCategoryBoost
			why.add("In your preferred category: %s", p.Category)
		}

		if score > 0 && p.Featured {
			score += r.cfg.FeaturedBoost
			why.add("Featured prompt")
		}

		if score <= 0 {
			continue
		}
		results = append(results, Result{Prompt: p, Score: score, Reasons: why.slice()})
	}

	return sortAndLimit(results, r.cfg.limit(opts.Limit))
}

// source is a history entry with its comparison keys precomputed.
type source struct {
	signal   Signal
	tags     map[string]struct{}
	category string
	author   string
	weight   float64
}

func (r *Recommender) structuralSimilarity(src source, p prompt.Prompt) float64 {
	sim := float64(sharedTags(src.tags, p)) * r.cfg.TagWeight
	if src.category != "" && prompt.NormalizeTag(p.Category) == src.category {
		sim += r.cfg.CategoryBoost
	}
	if src.author != "" && prompt.NormalizeTag(p.Author) == src.author {
		sim += r.cfg.AuthorBoost
	}
	return sim
}

// normalizeSignals defaults empty or unknown kinds to view.
func normalizeSignals(history []Signal) []Signal {
	out := make([]Signal, 0, len(history))
	for _, s := range history {
		kind, err := ParseKind(string(s.Kind))
		if err != nil {
			kind = KindView
		}
		out = append(out, Signal{Prompt: s.Prompt, Kind: kind})
	}
	return out
}

func containsAny(set map[string]struct{}, values []string) bool {
	if len(set) == 0 {
		return false
	}
	for _, v := range values {
		if _, ok := set[v]; ok {
			return true
		}
	}
	return false
}

func pastTense(kind SignalKind) string {
	switch kind {
	case KindSave:
		return "saved"
	case KindRun:
		return "ran"
	default:
		return "viewed"
	}
}

func displayName(p prompt.Prompt) string {
	if p.Title != "" {
		return p.Title
	}
	return p.ID
}
