package search

import (
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/registry"
)

// Analyzer names accepted by [NewTokenizer].
const (
	// AnalyzerStandard splits on unicode word boundaries, lowercases and
	// drops English stop words.
	AnalyzerStandard = standard.Name

	// AnalyzerEnglish additionally applies possessive stripping and Porter
	// stemming ("docs" and "doc" produce the same token).
	AnalyzerEnglish = en.AnalyzerName
)

// analyzer is the subset of a bleve analyzer the tokenizer needs.
type analyzer interface {
	Analyze([]byte) analysis.TokenStream
}

// Tokenizer turns free text into normalized terms using a bleve analyzer.
// It is safe for concurrent use.
type Tokenizer struct {
	name     string
	analyzer analyzer
}

// NewTokenizer returns a tokenizer backed by the named bleve analyzer.
// An empty name selects [AnalyzerStandard].
func NewTokenizer(name string) (*Tokenizer, error) {
	if name == "" {
		name = AnalyzerStandard
	}

	a, err := registry.NewCache().AnalyzerNamed(name)
	if err != nil {
		return nil, fmt.Errorf("%w: analyzer %q: %v", ErrInvalidConfig, name, err)
	}

	return &Tokenizer{name: name, analyzer: a}, nil
}

// Name returns the analyzer name.
func (t *Tokenizer) Name() string {
	return t.name
}

// Tokens returns the analyzed terms of text in order. Blank input yields nil.
func (t *Tokenizer) Tokens(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	stream := t.analyzer.Analyze([]byte(text))
	if len(stream) == 0 {
		return nil
	}

	out := make([]string, 0, len(stream))
	for _, tok := range stream {
		if len(tok.Term) == 0 {
			continue
		}
		out = append(out, string(tok.Term))
	}
	return out
}

// UniqueTokens returns the analyzed terms of text with duplicates removed,
// keeping first occurrence order.
func (t *Tokenizer) UniqueTokens(text string) []string {
	return dedupe(t.Tokens(text))
}

func dedupe(tokens []string) []string {
	if len(tokens) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tokens))
	out := tokens[:0:0]
	for _, tok := range tokens {
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}
