// Package recommend builds "related" and "for you" prompt suggestions.
//
// Suggestions blend textual similarity from the search package with
// structural overlap: shared tags, same category, same author and featured
// status. Every result carries a list of human-readable reasons naming the
// heuristics that fired ("Shares 2 tags", "Same category: documentation",
// "Featured prompt", "Because you saved Code Review").
//
// # Builders
//
//   - [Recommender.Related]: prompts similar to one source prompt
//   - [Recommender.FromHistory]: prompts similar to a user's view/save/run
//     signals, shaped by declared preferences
//   - [Recommender.ForYou]: assembles history from separate viewed, saved
//     and run lists and delegates to FromHistory
//
// # Usage
//
//	rec, err := recommend.New(nil, recommend.Config{})
//	if err != nil {
//	    return err
//	}
//	related := rec.Related(source, corpus, recommend.RelatedOptions{Limit: 5})
//	forYou := rec.ForYou(recommend.ForYouInput{Saved: saved}, corpus, recommend.ForYouOptions{})
//
// # Scoring
//
// Weights are tunable through [Config]; the defaults are tag overlap 0.6,
// normalized BM25 0.4, category +0.5, author +0.3, featured +0.2, and signal
// multipliers save 3 > run 2 > view 1. The featured boost only applies to
// candidates that are already related, so unrelated featured prompts never
// appear except as cold-start picks.
//
// All builders are pure: they never modify the corpus, results are freshly
// allocated, and equal scores keep corpus order.
package recommend
