// Package prompt defines the catalog entry model and its JSONL corpus format.
//
// A corpus is an ordered []Prompt. Order matters: search and recommendation
// break score ties by corpus position, so the order a file is read in is the
// order results are reported in.
//
// # JSONL Format
//
// Corpus files hold one JSON object per line. The first non-empty line may be
// a metadata header:
//
//	{"_meta":{"version":"2026-01-02T03:04:05Z","count":2,"exported_at":"...","schema_version":1}}
//	{"id":"code-review","title":"Code Review","tags":["review"]}
//	{"id":"write-tests","title":"Write Tests","tags":["testing"]}
//
// A line is only treated as the header when it is an object with a top-level
// "_meta" key, so prompts that merely mention "_meta" in their content are
// imported normally.
//
// [ExportFile] writes atomically (temp file, fsync, rename) so readers never
// observe a partially written corpus.
package prompt
