// Package catalog is the facade over prompt search and recommendation.
//
// A Catalog owns the corpus, its BM25 index, the recommendation weights and
// an optional history store, and adds the operational concerns the pure
// search and recommend packages leave out: result caching, metrics, logging
// and reload notifications.
//
// # Usage
//
//	c, err := catalog.New(catalog.Options{
//	    Prompts: prompts,
//	    History: history.NewInMemoryStore(),
//	    Logger:  logger,
//	    Metrics: catalog.NewMetrics(prometheus.NewRegistry()),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	results, err := c.Search(ctx, "code review", search.Options{Limit: 10})
//	related, err := c.Related(ctx, "code-review", recommend.RelatedOptions{Limit: 5})
//
// # Reloads
//
// [Catalog.Load] and [Catalog.LoadFile] swap in a new corpus. The index is
// rebuilt only when the corpus fingerprint changes; a changed corpus flushes
// the result cache and notifies [Catalog.OnChange] listeners.
//
// # Personalization
//
// With a history store configured, [Catalog.RecordSignal] stores view, save
// and run events and [Catalog.ForUser] replays a user's most recent events
// into recommend.ForYouInput.
package catalog
