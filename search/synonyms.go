package search

import (
	"sort"
	"strings"
)

// Synonyms maps a query term to the terms treated as equivalent to it.
//
// Synonyms are injected through [BM25Config]; the package ships no vocabulary of
// its own. Keys and values are re-analyzed by the searcher's tokenizer when
// the searcher is built, so entries written in plain words still line up with
// stemmed or lowercased index terms.
type Synonyms map[string][]string

// SynonymsFromGroups builds a symmetric mapping: every member of a group maps
// to every other member of the same group.
func SynonymsFromGroups(groups [][]string) Synonyms {
	out := Synonyms{}
	for _, group := range groups {
		members := make([]string, 0, len(group))
		for _, m := range group {
			m = strings.ToLower(strings.TrimSpace(m))
			if m != "" {
				members = append(members, m)
			}
		}
		for _, m := range members {
			for _, other := range members {
				if other != m {
					out[m] = appendUnique(out[m], other)
				}
			}
		}
	}
	return out
}

// Expand returns tokens followed by every synonym of every token. The
// result holds no duplicates and keeps the original tokens first.
func (s Synonyms) Expand(tokens []string) []string {
	if len(s) == 0 || len(tokens) == 0 {
		return tokens
	}

	out := make([]string, 0, len(tokens))
	seen := make(map[string]struct{}, len(tokens))
	add := func(tok string) {
		if _, ok := seen[tok]; ok {
			return
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}

	for _, tok := range tokens {
		add(tok)
	}
	for _, tok := range tokens {
		for _, syn := range s[tok] {
			add(syn)
		}
	}
	return out
}

// analyzed re-keys the mapping through tok. Multi-term entries contribute all
// of their terms.
func (s Synonyms) analyzed(tok *Tokenizer) Synonyms {
	if len(s) == 0 {
		return nil
	}

	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := Synonyms{}
	for _, k := range keys {
		values := make([]string, 0, len(s[k]))
		for _, v := range s[k] {
			values = append(values, tok.Tokens(v)...)
		}
		for _, kt := range tok.Tokens(k) {
			for _, v := range values {
				if v != kt {
					out[kt] = appendUnique(out[kt], v)
				}
			}
		}
	}
	return out
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
