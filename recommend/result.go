package recommend

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/jonwraymond/promptdiscovery/prompt"
)

// ErrInvalidSignal reports an unknown signal kind.
var ErrInvalidSignal = errors.New("invalid signal")

// SignalKind identifies the kind of interaction a user had with a prompt.
type SignalKind string

const (
	// KindView is a prompt page view.
	KindView SignalKind = "view"

	// KindSave is an explicit save or bookmark.
	KindSave SignalKind = "save"

	// KindRun is a copy or run of the prompt.
	KindRun SignalKind = "run"
)

// ParseKind parses a signal kind. The empty string parses as [KindView].
func ParseKind(s string) (SignalKind, error) {
	switch SignalKind(strings.ToLower(strings.TrimSpace(s))) {
	case "", KindView:
		return KindView, nil
	case KindSave:
		return KindSave, nil
	case KindRun:
		return KindRun, nil
	default:
		return "", fmt.Errorf("%w: unknown kind %q", ErrInvalidSignal, s)
	}
}

// Signal is one recorded interaction with a prompt.
type Signal struct {
	Prompt prompt.Prompt `json:"prompt"`
	Kind   SignalKind    `json:"kind"`
}

// Views wraps bare prompts as view signals.
func Views(prompts ...prompt.Prompt) []Signal {
	return signalsOf(prompts, KindView)
}

func signalsOf(prompts []prompt.Prompt, kind SignalKind) []Signal {
	out := make([]Signal, len(prompts))
	for i, p := range prompts {
		out[i] = Signal{Prompt: p, Kind: kind}
	}
	return out
}

// Preferences are a user's declared interests.
//
// Tags and Categories add weight to matching candidates. ExcludeTags and
// ExcludeCategories remove matching candidates outright.
type Preferences struct {
	Tags              []string `json:"tags,omitempty"`
	Categories        []string `json:"categories,omitempty"`
	ExcludeTags       []string `json:"exclude_tags,omitempty"`
	ExcludeCategories []string `json:"exclude_categories,omitempty"`
}

// Result is a recommended prompt with its score and the reasons it was chosen.
type Result struct {
	Prompt  prompt.Prompt `json:"prompt"`
	Score   float64       `json:"score"`
	Reasons []string      `json:"reasons"`
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

// FilterByCategory returns results in the given category.
func (r Results) FilterByCategory(category string) Results {
	want := prompt.NormalizeTag(category)
	var filtered Results
	for _, result := range r {
		if prompt.NormalizeTag(result.Prompt.Category) == want {
			filtered = append(filtered, result)
		}
	}
	return filtered
}

// FilterByMinScore returns results with score >= minScore.
func (r Results) FilterByMinScore(minScore float64) Results {
	var filtered Results
	for _, result := range r {
		if result.Score >= minScore {
			filtered = append(filtered, result)
		}
	}
	return filtered
}

// Clone returns a deep copy of the results.
func (r Results) Clone() Results {
	if r == nil {
		return nil
	}
	out := make(Results, len(r))
	for i, result := range r {
		out[i] = Result{
			Prompt:  result.Prompt.Clone(),
			Score:   result.Score,
			Reasons: slices.Clone(result.Reasons),
		}
	}
	return out
}

// sortAndLimit orders by score descending, keeping corpus order on ties.
func sortAndLimit(results Results, limit int) Results {
	slices.SortStableFunc(results, func(a, b Result) int {
		return cmp.Compare(b.Score, a.Score)
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

// reasons collects reason strings without duplicates.
type reasons struct {
	list []string
	seen map[string]struct{}
}

func (r *reasons) add(format string, args ...any) {
	s := fmt.Sprintf(format, args...)
	if r.seen == nil {
		r.seen = make(map[string]struct{})
	}
	if _, ok := r.seen[s]; ok {
		return
	}
	r.seen[s] = struct{}{}
	r.list = append(r.list, s)
}

func (r *reasons) slice() []string {
	if r.list == nil {
		return []string{}
	}
	return r.list
}
