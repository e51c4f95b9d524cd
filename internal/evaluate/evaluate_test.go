package evaluate

import (
	"math"
	"testing"

	"github.com/clearlabel/agreekit/internal/annotation"
	"github.com/clearlabel/agreekit/internal/config"
	"github.com/clearlabel/agreekit/internal/consensus"
)

const tolerance = 1e-9

func verdict(post, cat string, kind consensus.Kind, votes int) consensus.Verdict {
	v := consensus.Verdict{
		PostID:   post,
		Category: annotation.Category(cat),
		Kind:     kind,
	}
	for i := 0; i < votes; i++ {
		v.Votes = append(v.Votes, consensus.Vote{AnnotatorID: "annotator-1"})
	}
	return v
}

func conservative(categories ...string) *Evaluator {
	return NewEvaluator(annotation.Categories(categories), nil, config.ConsensusConservative, 0.5)
}

func TestAccuracyExcludesUncertain(t *testing.T) {
	// 2 correct, 1 incorrect, 1 uncertain: accuracy 2/3, not 2/4.
	verdicts := []consensus.Verdict{
		verdict("a", "theme", consensus.VerdictCorrect, 2),
		verdict("b", "theme", consensus.VerdictCorrect, 2),
		verdict("c", "theme", consensus.VerdictIncorrect, 2),
		verdict("d", "theme", consensus.VerdictUncertain, 2),
	}

	report, err := conservative("theme").Evaluate(verdicts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	res := report.Category("theme")
	if res.Evaluated != 3 {
		t.Errorf("expected 3 evaluated, got %d", res.Evaluated)
	}
	if math.Abs(res.Accuracy-2.0/3.0) > tolerance {
		t.Errorf("expected accuracy 2/3, got %f", res.Accuracy)
	}
	if math.Abs(res.ErrorRate-1.0/3.0) > tolerance {
		t.Errorf("expected error rate 1/3, got %f", res.ErrorRate)
	}
	if res.Uncertain != 1 {
		t.Errorf("expected 1 uncertain, got %d", res.Uncertain)
	}
}

func TestHalfCreditStrategy(t *testing.T) {
	verdicts := []consensus.Verdict{
		verdict("a", "theme", consensus.VerdictCorrect, 2),
		verdict("b", "theme", consensus.VerdictCorrect, 2),
		verdict("c", "theme", consensus.VerdictIncorrect, 2),
		verdict("d", "theme", consensus.VerdictUncertain, 2),
	}

	ev := NewEvaluator(annotation.Categories([]string{"theme"}), nil, config.ConsensusHalfCredit, 0.5)
	report, err := ev.Evaluate(verdicts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	res := report.Category("theme")
	// (2 + 0.5) / 4
	if math.Abs(res.Accuracy-0.625) > tolerance {
		t.Errorf("expected half-credit accuracy 0.625, got %f", res.Accuracy)
	}
	if math.Abs(res.ErrorRate-0.375) > tolerance {
		t.Errorf("expected half-credit error rate 0.375, got %f", res.ErrorRate)
	}
	if res.Evaluated != 3 {
		t.Errorf("expected Evaluated to stay correct+incorrect, got %d", res.Evaluated)
	}
}

func TestNoDataTrackedSeparately(t *testing.T) {
	verdicts := []consensus.Verdict{
		verdict("a", "theme", consensus.VerdictCorrect, 2),
		verdict("b", "theme", consensus.VerdictUncertain, 0), // nobody voted
		verdict("c", "theme", consensus.VerdictUncertain, 2), // tie
	}

	report, err := conservative("theme").Evaluate(verdicts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	res := report.Category("theme")
	if res.NoData != 1 {
		t.Errorf("expected 1 no-data verdict, got %d", res.NoData)
	}
	if res.Uncertain != 1 {
		t.Errorf("expected 1 uncertain verdict, got %d", res.Uncertain)
	}
	if res.Posts != 3 {
		t.Errorf("expected 3 posts, got %d", res.Posts)
	}
}

func TestOverallPoolsCounts(t *testing.T) {
	// theme: 1/1 correct. sentiment: 1 correct, 2 incorrect. A mean of
	// per-category accuracies would be (1 + 1/3)/2 = 2/3; pooled counts
	// give 2/4 = 0.5.
	verdicts := []consensus.Verdict{
		verdict("a", "theme", consensus.VerdictCorrect, 2),
		verdict("a", "sentiment", consensus.VerdictCorrect, 2),
		verdict("b", "sentiment", consensus.VerdictIncorrect, 2),
		verdict("c", "sentiment", consensus.VerdictIncorrect, 2),
	}

	report, err := conservative("theme", "sentiment").Evaluate(verdicts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.Overall.Evaluated != 4 {
		t.Errorf("expected 4 pooled evaluations, got %d", report.Overall.Evaluated)
	}
	if math.Abs(report.Overall.Accuracy-0.5) > tolerance {
		t.Errorf("expected pooled accuracy 0.5, got %f", report.Overall.Accuracy)
	}
}

func TestSkipCategories(t *testing.T) {
	verdicts := []consensus.Verdict{
		verdict("a", "overall", consensus.VerdictIncorrect, 2),
		verdict("a", "theme", consensus.VerdictCorrect, 2),
		verdict("b", "theme", consensus.VerdictCorrect, 2),
	}

	ev := NewEvaluator(annotation.Categories([]string{"overall", "theme"}),
		[]string{"overall"}, config.ConsensusConservative, 0.5)
	report, err := ev.Evaluate(verdicts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.Category("overall") != nil {
		t.Error("skipped category must not appear in the results")
	}
	if report.Overall.Incorrect != 0 {
		t.Errorf("skipped category leaked into the pooled overall: %+v", report.Overall)
	}
	if math.Abs(report.Overall.Accuracy-1.0) > tolerance {
		t.Errorf("expected pooled accuracy 1.0, got %f", report.Overall.Accuracy)
	}
}

func TestProblemPosts(t *testing.T) {
	verdicts := []consensus.Verdict{
		// Post a: wrong in 2 of 3 decided categories.
		verdict("a", "theme", consensus.VerdictIncorrect, 2),
		verdict("a", "sentiment", consensus.VerdictIncorrect, 2),
		verdict("a", "objects", consensus.VerdictCorrect, 2),
		// Post b: wrong in 1 of 2, exactly at the threshold, not flagged.
		verdict("b", "theme", consensus.VerdictIncorrect, 2),
		verdict("b", "sentiment", consensus.VerdictCorrect, 2),
		// Post c: only uncertain verdicts, never flagged.
		verdict("c", "theme", consensus.VerdictUncertain, 2),
	}

	report, err := conservative("theme", "sentiment", "objects").Evaluate(verdicts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(report.ProblemPosts) != 1 {
		t.Fatalf("expected 1 problem post, got %d", len(report.ProblemPosts))
	}
	p := report.ProblemPosts[0]
	if p.PostID != "a" || p.Errors != 2 || p.Total != 3 {
		t.Errorf("unexpected problem post: %+v", p)
	}
	if math.Abs(p.ErrorRate-2.0/3.0) > tolerance {
		t.Errorf("expected error rate 2/3, got %f", p.ErrorRate)
	}
}

func TestProblemPostsSortedWorstFirst(t *testing.T) {
	verdicts := []consensus.Verdict{
		verdict("a", "theme", consensus.VerdictIncorrect, 2),
		verdict("a", "sentiment", consensus.VerdictIncorrect, 2),
		verdict("a", "objects", consensus.VerdictCorrect, 2),
		verdict("b", "theme", consensus.VerdictIncorrect, 2),
		verdict("b", "sentiment", consensus.VerdictIncorrect, 2),
	}

	report, err := conservative("theme", "sentiment", "objects").Evaluate(verdicts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(report.ProblemPosts) != 2 {
		t.Fatalf("expected 2 problem posts, got %d", len(report.ProblemPosts))
	}
	if report.ProblemPosts[0].PostID != "b" {
		t.Errorf("expected post b (100%% errors) first, got %s", report.ProblemPosts[0].PostID)
	}
}

func TestEvaluateInputErrors(t *testing.T) {
	if _, err := conservative("theme").Evaluate(nil); err == nil {
		t.Error("expected error for empty verdicts")
	}

	ev := NewEvaluator(annotation.Categories([]string{"theme"}),
		[]string{"theme"}, config.ConsensusConservative, 0.5)
	verdicts := []consensus.Verdict{verdict("a", "theme", consensus.VerdictCorrect, 2)}
	if _, err := ev.Evaluate(verdicts); err == nil {
		t.Error("expected error when every category is skipped")
	}
}

func TestZeroEvaluatedAccuracy(t *testing.T) {
	verdicts := []consensus.Verdict{
		verdict("a", "theme", consensus.VerdictUncertain, 0),
	}

	report, err := conservative("theme").Evaluate(verdicts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	res := report.Category("theme")
	if res.Accuracy != 0 || res.ErrorRate != 0 {
		t.Errorf("expected zero accuracy with nothing evaluated, got %+v", res)
	}
}
