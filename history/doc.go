// Package history persists user interaction signals (view, save, run).
//
// The recommendation core never stores anything itself; callers that want
// personalized suggestions inject a [Store] and replay a user's events into
// recommend.ForYouInput. Two implementations are provided:
//
//   - [InMemoryStore]: process-local, for tests and single-instance servers
//   - [BoltStore]: durable, backed by a bbolt database file
//
// Both are safe for concurrent use and return events oldest first.
package history
