// Package evaluate scores model predictions against consensus verdicts.
// Uncertain verdicts are excluded from accuracy denominators by default;
// the half-credit strategy counts them as half right instead of dropping
// them.
package evaluate

import (
	"fmt"
	"sort"

	"github.com/clearlabel/agreekit/internal/annotation"
	"github.com/clearlabel/agreekit/internal/config"
	"github.com/clearlabel/agreekit/internal/consensus"
)

// Result holds the per-category (or overall) performance tally. Counts
// stay integral; Accuracy and ErrorRate depend on the scoring strategy.
type Result struct {
	Category  annotation.Category
	Correct   int
	Incorrect int
	Uncertain int // tied votes
	NoData    int // no votes at all
	Posts     int // verdicts seen for this category
	Evaluated int // Correct + Incorrect
	Accuracy  float64
	ErrorRate float64
}

// ProblemPost is a post where the model was wrong in more than the
// configured share of its decided categories.
type ProblemPost struct {
	PostID    string
	Errors    int
	Total     int // decided categories (correct or incorrect verdict)
	ErrorRate float64
}

// Report is the full output of one model evaluation.
type Report struct {
	Strategy     string
	Categories   []*Result
	Overall      *Result // pooled counts across categories, not a mean of means
	ProblemPosts []ProblemPost
}

// Category returns the result for a category, or nil.
func (r *Report) Category(cat annotation.Category) *Result {
	for _, res := range r.Categories {
		if res.Category == cat {
			return res
		}
	}
	return nil
}

// Evaluator scores consensus verdicts over a fixed category set.
type Evaluator struct {
	categories []annotation.Category
	skip       map[annotation.Category]bool
	strategy   string
	threshold  float64
}

// NewEvaluator creates an evaluator. Skipped categories are dropped from
// every tally, including the pooled overall and problem-post detection.
func NewEvaluator(categories []annotation.Category, skip []string, strategy string, problemThreshold float64) *Evaluator {
	skipSet := make(map[annotation.Category]bool, len(skip))
	for _, s := range skip {
		skipSet[annotation.Category(s)] = true
	}
	return &Evaluator{
		categories: categories,
		skip:       skipSet,
		strategy:   strategy,
		threshold:  problemThreshold,
	}
}

// Evaluate tallies the verdicts per category, pools them into an overall
// result, and flags problem posts.
func (e *Evaluator) Evaluate(verdicts []consensus.Verdict) (*Report, error) {
	if len(verdicts) == 0 {
		return nil, fmt.Errorf("evaluate: no verdicts supplied")
	}

	report := &Report{Strategy: e.strategy}
	overall := &Result{}

	for _, cat := range e.categories {
		if e.skip[cat] {
			continue
		}
		res := &Result{Category: cat}
		for _, v := range verdicts {
			if v.Category != cat {
				continue
			}
			res.Posts++
			switch {
			case v.Kind == consensus.VerdictCorrect:
				res.Correct++
			case v.Kind == consensus.VerdictIncorrect:
				res.Incorrect++
			case len(v.Votes) == 0:
				res.NoData++
			default:
				res.Uncertain++
			}
		}
		e.score(res)
		report.Categories = append(report.Categories, res)

		overall.Correct += res.Correct
		overall.Incorrect += res.Incorrect
		overall.Uncertain += res.Uncertain
		overall.NoData += res.NoData
		overall.Posts += res.Posts
	}

	if len(report.Categories) == 0 {
		return nil, fmt.Errorf("evaluate: every category is skipped")
	}

	e.score(overall)
	report.Overall = overall
	report.ProblemPosts = e.problemPosts(verdicts)
	return report, nil
}

// score fills Evaluated, Accuracy and ErrorRate from the counts.
func (e *Evaluator) score(res *Result) {
	res.Evaluated = res.Correct + res.Incorrect

	if e.strategy == config.ConsensusHalfCredit {
		denom := float64(res.Correct + res.Incorrect + res.Uncertain)
		if denom > 0 {
			res.Accuracy = (float64(res.Correct) + 0.5*float64(res.Uncertain)) / denom
			res.ErrorRate = (float64(res.Incorrect) + 0.5*float64(res.Uncertain)) / denom
		}
		return
	}

	if res.Evaluated > 0 {
		res.Accuracy = float64(res.Correct) / float64(res.Evaluated)
		res.ErrorRate = float64(res.Incorrect) / float64(res.Evaluated)
	}
}

// problemPosts flags posts whose error rate over decided categories
// exceeds the threshold, worst first.
func (e *Evaluator) problemPosts(verdicts []consensus.Verdict) []ProblemPost {
	type tally struct {
		errors int
		total  int
	}
	perPost := make(map[string]*tally)

	for _, v := range verdicts {
		if e.skip[v.Category] {
			continue
		}
		t := perPost[v.PostID]
		if t == nil {
			t = &tally{}
			perPost[v.PostID] = t
		}
		switch v.Kind {
		case consensus.VerdictCorrect:
			t.total++
		case consensus.VerdictIncorrect:
			t.total++
			t.errors++
		}
	}

	var out []ProblemPost
	for post, t := range perPost {
		if t.total == 0 {
			continue
		}
		rate := float64(t.errors) / float64(t.total)
		if rate > e.threshold {
			out = append(out, ProblemPost{
				PostID:    post,
				Errors:    t.errors,
				Total:     t.total,
				ErrorRate: rate,
			})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].ErrorRate != out[j].ErrorRate {
			return out[i].ErrorRate > out[j].ErrorRate
		}
		return out[i].PostID < out[j].PostID
	})
	return out
}
