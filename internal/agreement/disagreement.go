package agreement

import "github.com/clearlabel/agreekit/internal/annotation"

// RaterLabel pairs an annotator with the label they assigned.
type RaterLabel struct {
	AnnotatorID string
	Label       annotation.Label
}

// Disagreement is one (post, category) where the raters that supplied a
// label were not unanimous. Missing raters are omitted from the
// comparison, not treated as a disagreeing vote.
type Disagreement struct {
	PostID   string
	Category annotation.Category
	Labels   []RaterLabel
}

// Disagreements lists every non-unanimous (post, category) pair. It
// derives from the same normalized labels the kappa computation scores,
// so the two reports stay consistent.
func (c *Calculator) Disagreements(records []annotation.Record) []Disagreement {
	raters, posts := roster(records)
	labels := c.labelIndex(records)

	var out []Disagreement
	for _, cat := range c.categories {
		for _, post := range posts {
			var present []RaterLabel
			for _, rater := range raters {
				l := labels.get(rater, post, cat)
				if l != annotation.Missing {
					present = append(present, RaterLabel{AnnotatorID: rater, Label: l})
				}
			}
			if len(present) < 2 {
				continue
			}
			unanimous := true
			for _, rl := range present[1:] {
				if rl.Label != present[0].Label {
					unanimous = false
					break
				}
			}
			if !unanimous {
				out = append(out, Disagreement{PostID: post, Category: cat, Labels: present})
			}
		}
	}
	return out
}
