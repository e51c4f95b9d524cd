package annotation

import (
	"log"
	"strings"

	"github.com/clearlabel/agreekit/internal/config"
)

// Category is one of the fixed feedback dimensions annotators rate
// (e.g. theme, sentiment). The set is defined by configuration and
// identical for every engine in a run.
type Category string

// Label is a canonical categorical value from the configured vocabulary.
// Labels are nominal; no ordering is assumed.
type Label string

// Missing is the sentinel for absent, null, or unrecognized raw labels.
// Canonical labels are never empty, so the empty string is unambiguous.
const Missing Label = ""

// Codec maps raw annotator strings to canonical labels and assigns each
// canonical label a stable integer code for matrix indexing. It is built
// once from configuration and safe for concurrent use (read-only).
type Codec struct {
	labels    []Label          // code -> canonical label
	codes     map[Label]int    // canonical label -> code
	canonical map[string]Label // lowercase raw form -> canonical label
}

// NewCodec builds a codec from the configured vocabulary. Canonical labels
// keep their listed order; synonyms fold into their canonical form.
func NewCodec(vocab config.Labels) *Codec {
	c := &Codec{
		codes:     make(map[Label]int, len(vocab.Canonical)),
		canonical: make(map[string]Label, len(vocab.Canonical)+len(vocab.Synonyms)),
	}
	for _, raw := range vocab.Canonical {
		l := Label(strings.ToLower(strings.TrimSpace(raw)))
		if l == Missing {
			continue
		}
		if _, ok := c.codes[l]; ok {
			continue
		}
		c.codes[l] = len(c.labels)
		c.labels = append(c.labels, l)
		c.canonical[string(l)] = l
	}
	for syn, target := range vocab.Synonyms {
		t := Label(strings.ToLower(strings.TrimSpace(target)))
		if _, ok := c.codes[t]; !ok {
			log.Printf("Ignoring synonym %q: target %q is not a canonical label", syn, target)
			continue
		}
		c.canonical[strings.ToLower(strings.TrimSpace(syn))] = t
	}
	return c
}

// Normalize maps a raw label for a category to its canonical form.
// Total: unrecognized or empty input yields Missing, never an error.
// Unknown values are logged so incomplete exports are visible without
// aborting the run.
func (c *Codec) Normalize(category Category, raw string) Label {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if trimmed == "" || trimmed == "null" || trimmed == "none" {
		return Missing
	}
	if l, ok := c.canonical[trimmed]; ok {
		return l
	}
	log.Printf("Unknown label %q for category %s, treating as missing", raw, category)
	return Missing
}

// Code returns the integer code for a canonical label, or -1 for Missing
// or anything outside the vocabulary.
func (c *Codec) Code(l Label) int {
	if code, ok := c.codes[l]; ok {
		return code
	}
	return -1
}

// Labels returns the canonical labels in code order.
func (c *Codec) Labels() []Label {
	return c.labels
}

// Size returns the number of canonical labels.
func (c *Codec) Size() int {
	return len(c.labels)
}

// Vote interprets a label as a binary correctness judgment of the AI:
// the first canonical label means the prediction was correct, the second
// that it was wrong. Returns ok=false for Missing or any other label.
func (c *Codec) Vote(l Label) (correct bool, ok bool) {
	code := c.Code(l)
	switch code {
	case 0:
		return true, true
	case 1:
		return false, true
	default:
		return false, false
	}
}
