package search

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strings"

	"github.com/jonwraymond/promptdiscovery/prompt"
)

// Fingerprint returns a stable hash of the corpus. It changes whenever any
// field of any prompt changes or prompts are reordered; tag order within a
// prompt does not affect it.
func Fingerprint(corpus []prompt.Prompt) string {
	h := sha256.New()

	for _, p := range corpus {
		for _, field := range []string{
			p.ID,
			p.Title,
			p.Description,
			p.Category,
			p.Content,
			p.Author,
			p.Version,
			p.Created,
		} {
			h.Write([]byte(field))
			h.Write([]byte{0}) // separator
		}

		if p.Featured {
			h.Write([]byte{1})
		} else {
			h.Write([]byte{2})
		}
		h.Write([]byte{0})

		// Tags sorted for order-independence
		sortedTags := slices.Clone(p.Tags)
		slices.Sort(sortedTags)
		h.Write([]byte(strings.Join(sortedTags, "\x01")))
		h.Write([]byte{0})
	}

	return hex.EncodeToString(h.Sum(nil))
}
