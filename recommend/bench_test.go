package recommend

import (
	"fmt"
	"testing"

	"github.com/jonwraymond/promptdiscovery/prompt"
)

var benchTopics = []string{"git", "docker", "kubernetes", "testing", "review", "docs", "debug", "release"}

func makeBenchCorpus(n int) []prompt.Prompt {
	corpus := make([]prompt.Prompt, n)
	for i := range n {
		topic := benchTopics[i%len(benchTopics)]
		corpus[i] = prompt.Prompt{
			ID:          fmt.Sprintf("prompt-%d", i),
			Title:       fmt.Sprintf("%s helper %d", topic, i),
			Description: fmt.Sprintf("Assist with %s tasks like review, refactor and explain", topic),
			Category:    fmt.Sprintf("category-%d", i%10),
			Tags:        []string{topic, fmt.Sprintf("tag-%d", i%5)},
			Author:      fmt.Sprintf("author-%d", i%7),
			Featured:    i%20 == 0,
		}
	}
	return corpus
}

func newBenchRecommender(b *testing.B) *Recommender {
	b.Helper()
	r, err := New(nil, Config{})
	if err != nil {
		b.Fatalf("New() error: %v", err)
	}
	return r
}

func BenchmarkRelated(b *testing.B) {
	r := newBenchRecommender(b)
	corpus := makeBenchCorpus(300)
	source := corpus[42]

	b.ResetTimer()
	for b.Loop() {
		_ = r.Related(source, corpus, RelatedOptions{})
	}
}

func BenchmarkRelatedFromIndex(b *testing.B) {
	r := newBenchRecommender(b)
	idx := r.Searcher().Index(makeBenchCorpus(300))
	source := idx.Corpus()[42]

	b.ResetTimer()
	for b.Loop() {
		_ = r.RelatedFromIndex(source, idx, RelatedOptions{})
	}
}

func BenchmarkFromHistory(b *testing.B) {
	r := newBenchRecommender(b)
	corpus := makeBenchCorpus(300)
	history := []Signal{
		{Prompt: corpus[1], Kind: KindView},
		{Prompt: corpus[2], Kind: KindSave},
		{Prompt: corpus[3], Kind: KindRun},
		{Prompt: corpus[11], Kind: KindView},
	}
	opts := HistoryOptions{Preferences: Preferences{Tags: []string{"docs"}, ExcludeTags: []string{"tag-4"}}}

	b.ResetTimer()
	for b.Loop() {
		_ = r.FromHistory(history, corpus, opts)
	}
}

func BenchmarkForYou_ColdStart(b *testing.B) {
	r := newBenchRecommender(b)
	corpus := makeBenchCorpus(300)

	b.ResetTimer()
	for b.Loop() {
		_ = r.ForYou(ForYouInput{}, corpus, ForYouOptions{})
	}
}
