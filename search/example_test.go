package search_test

import (
	"fmt"

	"github.com/jonwraymond/promptdiscovery/prompt"
	"github.com/jonwraymond/promptdiscovery/search"
)

func ExampleSearcher_Search() {
	searcher, err := search.NewSearcher(search.BM25Config{})
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	corpus := []prompt.Prompt{
		{
			ID:          "git-commit",
			Title:       "Commit Message Writer",
			Description: "Write a conventional commit message",
			Tags:        []string{"git"},
		},
		{
			ID:          "code-review",
			Title:       "Code Review",
			Description: "Review a diff for bugs",
			Tags:        []string{"review"},
		},
		{
			ID:          "release-notes",
			Title:       "Release Notes",
			Description: "Summarize merged commits into release notes",
			Tags:        []string{"git", "release"},
		},
	}

	results := searcher.Search("git", corpus, search.Options{Limit: 10})
	fmt.Println("Found:", len(results))
	for _, r := range results {
		fmt.Println(r.Prompt.ID)
	}
	// Output:
	// Found: 2
	// git-commit
	// release-notes
}

func ExampleSearcher_Search_synonyms() {
	searcher, err := search.NewSearcher(search.BM25Config{
		Synonyms: search.SynonymsFromGroups([][]string{{"bug", "defect"}}),
	})
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	corpus := []prompt.Prompt{
		{ID: "triage", Title: "Defect Triage"},
		{ID: "notes", Title: "Release Notes"},
	}

	fmt.Println("plain:", searcher.Search("bug", corpus, search.Options{}).IDs())
	fmt.Println("expanded:", searcher.Search("bug", corpus, search.Options{ExpandSynonyms: true}).IDs())
	// Output:
	// plain: []
	// expanded: [triage]
}

func ExampleSynonymsFromGroups() {
	syn := search.SynonymsFromGroups([][]string{
		{"bug", "Defect", "issue"},
		{"docs", "documentation"},
	})

	fmt.Println(syn.Expand([]string{"bug"}))
	fmt.Println(syn.Expand([]string{"documentation", "readme"}))
	// Output:
	// [bug defect issue]
	// [documentation readme docs]
}

func ExampleTokenizer_Tokens() {
	tok, err := search.NewTokenizer(search.AnalyzerStandard)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	fmt.Println(tok.Tokens("Review the Pull Request"))
	// Output:
	// [review pull request]
}

func ExampleFingerprint() {
	a := []prompt.Prompt{{ID: "p", Title: "Prompt", Tags: []string{"x", "y"}}}
	b := []prompt.Prompt{{ID: "p", Title: "Prompt", Tags: []string{"y", "x"}}}

	fmt.Println(search.Fingerprint(a) == search.Fingerprint(b))
	// Output:
	// true
}
