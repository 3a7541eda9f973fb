package prompt

import (
	"errors"
	"fmt"
	"strings"
)

// Error values for consistent error handling by callers.
var (
	ErrInvalidPrompt = errors.New("invalid prompt")
	ErrDuplicateID   = errors.New("duplicate prompt id")
)

// Prompt is a single catalog entry.
//
// Prompts are treated as immutable values by the search and recommendation
// packages; callers own the slice they pass in.
type Prompt struct {
	ID          string   `json:"id" yaml:"id"`
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Category    string   `json:"category,omitempty" yaml:"category,omitempty"`
	Tags        []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	Content     string   `json:"content,omitempty" yaml:"content,omitempty"`
	Author      string   `json:"author,omitempty" yaml:"author,omitempty"`
	Version     string   `json:"version,omitempty" yaml:"version,omitempty"`
	Created     string   `json:"created,omitempty" yaml:"created,omitempty"`
	Featured    bool     `json:"featured,omitempty" yaml:"featured,omitempty"`
}

// Validate checks the fields every prompt must carry.
func (p Prompt) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidPrompt)
	}
	if strings.TrimSpace(p.Title) == "" {
		return fmt.Errorf("%w: %s: title is required", ErrInvalidPrompt, p.ID)
	}
	return nil
}

// HasTag reports whether the prompt carries tag, ignoring case.
func (p Prompt) HasTag(tag string) bool {
	want := NormalizeTag(tag)
	if want == "" {
		return false
	}
	for _, t := range p.Tags {
		if NormalizeTag(t) == want {
			return true
		}
	}
	return false
}

// NormalizedTags returns the de-duplicated, lowercased tag set in original order.
func (p Prompt) NormalizedTags() []string {
	if len(p.Tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(p.Tags))
	out := make([]string, 0, len(p.Tags))
	for _, t := range p.Tags {
		n := NormalizeTag(t)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// NormalizeTag lowercases and trims a tag or category label.
func NormalizeTag(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Clone returns a deep copy of p.
func (p Prompt) Clone() Prompt {
	if p.Tags != nil {
		tags := make([]string, len(p.Tags))
		copy(tags, p.Tags)
		p.Tags = tags
	}
	return p
}

// ValidateCorpus validates every prompt and rejects duplicate ids.
func ValidateCorpus(prompts []Prompt) error {
	seen := make(map[string]struct{}, len(prompts))
	for i, p := range prompts {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("prompt %d: %w", i, err)
		}
		if _, ok := seen[p.ID]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateID, p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	return nil
}

// IDs returns the ids of prompts in order.
func IDs(prompts []Prompt) []string {
	ids := make([]string, len(prompts))
	for i, p := range prompts {
		ids[i] = p.ID
	}
	return ids
}
