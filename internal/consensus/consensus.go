// Package consensus derives a ground-truth verdict per (post, category)
// by majority vote over the annotators' feedback. The verdicts feed the
// model evaluation, so ties stay uncertain instead of being forced to a
// side.
package consensus

import (
	"fmt"
	"sort"

	"github.com/clearlabel/agreekit/internal/annotation"
)

// Kind is the outcome of a majority vote.
type Kind string

const (
	VerdictCorrect   Kind = "correct"   // majority says the model got it right
	VerdictIncorrect Kind = "incorrect" // majority says the model got it wrong
	VerdictUncertain Kind = "uncertain" // tie, or no votes at all
)

// Vote is one annotator's judgment on whether the model's label for a
// (post, category) was right.
type Vote struct {
	AnnotatorID string
	Correct     bool
}

// Verdict is the consensus for one (post, category). Confidence is the
// majority fraction of the votes cast; HasConfidence is false when no
// votes exist, so a zero-vote verdict renders as N/A rather than 0.
type Verdict struct {
	PostID        string
	Category      annotation.Category
	Votes         []Vote
	Kind          Kind
	Confidence    float64
	HasConfidence bool
}

// ConfidenceString formats the confidence for reports, with N/A for
// zero-vote verdicts.
func (v *Verdict) ConfidenceString() string {
	if !v.HasConfidence {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", v.Confidence)
}

// Builder turns annotation records into consensus verdicts over a fixed
// category set and label vocabulary.
type Builder struct {
	codec      *annotation.Codec
	categories []annotation.Category
}

// NewBuilder creates a consensus builder for the given vocabulary and
// category set.
func NewBuilder(codec *annotation.Codec, categories []annotation.Category) *Builder {
	return &Builder{codec: codec, categories: categories}
}

// Build produces one verdict for every (post, category) pair seen in the
// input, in deterministic post-then-category order. Missing labels and
// labels outside the vote vocabulary simply cast no vote; a pair where
// nobody voted still gets an uncertain verdict so downstream consumers
// see the gap.
func (b *Builder) Build(records []annotation.Record) ([]Verdict, error) {
	if len(b.categories) == 0 {
		return nil, fmt.Errorf("consensus: no categories configured")
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("consensus: no records supplied")
	}

	type key struct {
		post string
		cat  annotation.Category
	}
	votes := make(map[key][]Vote)

	posts := make(map[string]bool)
	for _, rec := range records {
		posts[rec.PostID] = true
		for _, cat := range b.categories {
			l := rec.FeedbackLabel(b.codec, cat)
			correct, ok := b.codec.Vote(l)
			if !ok {
				continue
			}
			k := key{post: rec.PostID, cat: cat}
			votes[k] = append(votes[k], Vote{AnnotatorID: rec.AnnotatorID, Correct: correct})
		}
	}

	ordered := make([]string, 0, len(posts))
	for p := range posts {
		ordered = append(ordered, p)
	}
	sort.Strings(ordered)

	var out []Verdict
	for _, post := range ordered {
		for _, cat := range b.categories {
			vs := votes[key{post: post, cat: cat}]
			sort.Slice(vs, func(i, j int) bool { return vs[i].AnnotatorID < vs[j].AnnotatorID })
			out = append(out, tally(post, cat, vs))
		}
	}
	return out, nil
}

// tally resolves one vote set to a verdict. A strict majority decides;
// anything else, including an empty vote set, is uncertain.
func tally(post string, cat annotation.Category, votes []Vote) Verdict {
	v := Verdict{PostID: post, Category: cat, Votes: votes}

	correct := 0
	for _, vote := range votes {
		if vote.Correct {
			correct++
		}
	}
	total := len(votes)
	incorrect := total - correct

	switch {
	case total == 0:
		v.Kind = VerdictUncertain
	case correct > incorrect:
		v.Kind = VerdictCorrect
		v.Confidence = float64(correct) / float64(total)
		v.HasConfidence = true
	case incorrect > correct:
		v.Kind = VerdictIncorrect
		v.Confidence = float64(incorrect) / float64(total)
		v.HasConfidence = true
	default:
		v.Kind = VerdictUncertain
		v.Confidence = 0.5
		v.HasConfidence = true
	}
	return v
}
