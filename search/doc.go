// Package search provides field-weighted BM25 ranking over a prompt corpus.
//
// It exists to:
//   - Rank prompts for free-text queries
//   - Supply the lexical similarity component used by the recommend package
//
// # Usage
//
// The primary type is [Searcher]:
//
//	s, err := search.NewSearcher(search.BM25Config{})
//	if err != nil {
//	    return err
//	}
//	results := s.Search("code review", corpus, search.Options{Limit: 10})
//
// For repeated queries against the same corpus, analyze it once:
//
//	idx := s.Index(corpus)
//	results := idx.Search("code review", search.Options{Limit: 10})
//
// # Configuration
//
// [BM25Config] allows customization of the ranking function:
//
//	cfg := search.BM25Config{
//	    K1:       1.2, // Term frequency saturation (default: 1.2)
//	    B:        0.75, // Length normalization (default: 0.75)
//	    Weights:  search.FieldWeights{Title: 3, Description: 2, Tags: 1.5, Content: 1},
//	    Analyzer: search.AnalyzerEnglish, // Porter stemming (default: standard)
//	    Synonyms: search.SynonymsFromGroups([][]string{{"bug", "defect", "issue"}}),
//	}
//
// Term frequency is the sum of field weights over every occurrence of a term,
// and document length is the weighted token count, so a title hit counts three
// times as much as a content hit with the default weights. IDF uses the
// non-negative form ln(1 + (N-df+0.5)/(df+0.5)).
//
// # Thread Safety
//
// [Searcher] and [Index] are immutable after construction and safe for
// concurrent use. Results are freshly allocated per call.
//
// # Behavior
//
// Empty queries and empty corpora return empty results. [Index.Search] drops
// zero scores and orders by score descending; equal scores keep corpus order.
// [Index.Score] returns every prompt in corpus order, zeros included.
//
// [Fingerprint] hashes a corpus so callers can cache an [Index] and rebuild it
// only when the corpus changes.
package search
