package prompt

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPrompt_Validate(t *testing.T) {
	tests := []struct {
		name    string
		prompt  Prompt
		wantErr bool
	}{
		{name: "valid", prompt: Prompt{ID: "a", Title: "A"}},
		{name: "missing id", prompt: Prompt{Title: "A"}, wantErr: true},
		{name: "blank id", prompt: Prompt{ID: "  ", Title: "A"}, wantErr: true},
		{name: "missing title", prompt: Prompt{ID: "a"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.prompt.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidPrompt) {
					t.Fatalf("Validate() = %v, want ErrInvalidPrompt", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate() = %v, want nil", err)
			}
		})
	}
}

func TestPrompt_HasTag(t *testing.T) {
	p := Prompt{ID: "a", Title: "A", Tags: []string{"Docs", " readme "}}

	if !p.HasTag("docs") {
		t.Error("expected case-insensitive match for docs")
	}
	if !p.HasTag("README") {
		t.Error("expected trimmed match for readme")
	}
	if p.HasTag("api") {
		t.Error("unexpected match for api")
	}
	if p.HasTag("") {
		t.Error("empty tag should never match")
	}
}

func TestPrompt_NormalizedTags(t *testing.T) {
	p := Prompt{Tags: []string{"Docs", "docs", " API", "", "readme"}}
	got := p.NormalizedTags()
	want := []string{"docs", "api", "readme"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("NormalizedTags() mismatch (-want +got):\n%s", diff)
	}

	if tags := (Prompt{}).NormalizedTags(); tags != nil {
		t.Errorf("NormalizedTags() on empty = %v, want nil", tags)
	}
}

func TestPrompt_CloneCopiesTags(t *testing.T) {
	p := Prompt{ID: "a", Title: "A", Tags: []string{"x"}}
	c := p.Clone()
	c.Tags[0] = "changed"
	if p.Tags[0] != "x" {
		t.Error("Clone shares tag storage with original")
	}
}

func TestValidateCorpus(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		err := ValidateCorpus([]Prompt{{ID: "a", Title: "A"}, {ID: "b", Title: "B"}})
		if err != nil {
			t.Fatalf("ValidateCorpus() = %v", err)
		}
	})

	t.Run("duplicate", func(t *testing.T) {
		err := ValidateCorpus([]Prompt{{ID: "a", Title: "A"}, {ID: "a", Title: "Again"}})
		if !errors.Is(err, ErrDuplicateID) {
			t.Fatalf("ValidateCorpus() = %v, want ErrDuplicateID", err)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		err := ValidateCorpus([]Prompt{{ID: "a"}})
		if !errors.Is(err, ErrInvalidPrompt) {
			t.Fatalf("ValidateCorpus() = %v, want ErrInvalidPrompt", err)
		}
	})

	t.Run("empty", func(t *testing.T) {
		if err := ValidateCorpus(nil); err != nil {
			t.Fatalf("ValidateCorpus(nil) = %v", err)
		}
	})
}

func TestIDs(t *testing.T) {
	got := IDs([]Prompt{{ID: "b"}, {ID: "a"}})
	if diff := cmp.Diff([]string{"b", "a"}, got); diff != "" {
		t.Errorf("IDs() mismatch (-want +got):\n%s", diff)
	}
}
