package consensus

import (
	"math"
	"testing"

	"github.com/clearlabel/agreekit/internal/annotation"
	"github.com/clearlabel/agreekit/internal/config"
)

const tolerance = 1e-9

func testBuilder(categories ...string) *Builder {
	if len(categories) == 0 {
		categories = []string{"theme"}
	}
	codec := annotation.NewCodec(config.Labels{Canonical: []string{"positive", "negative"}})
	return NewBuilder(codec, annotation.Categories(categories))
}

func rec(post, rater string, feedback map[annotation.Category]string) annotation.Record {
	return annotation.Record{PostID: post, AnnotatorID: rater, Feedback: feedback}
}

func single(t *testing.T, verdicts []Verdict) Verdict {
	t.Helper()
	if len(verdicts) != 1 {
		t.Fatalf("expected 1 verdict, got %d", len(verdicts))
	}
	return verdicts[0]
}

func TestUnanimousCorrect(t *testing.T) {
	verdicts, err := testBuilder().Build([]annotation.Record{
		rec("a", "annotator-1", map[annotation.Category]string{"theme": "positive"}),
		rec("a", "annotator-2", map[annotation.Category]string{"theme": "positive"}),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	v := single(t, verdicts)
	if v.Kind != VerdictCorrect {
		t.Errorf("expected correct verdict, got %s", v.Kind)
	}
	if !v.HasConfidence || math.Abs(v.Confidence-1.0) > tolerance {
		t.Errorf("expected confidence 1.0, got %s", v.ConfidenceString())
	}
	if len(v.Votes) != 2 {
		t.Errorf("expected 2 recorded votes, got %d", len(v.Votes))
	}
}

func TestUnanimousIncorrect(t *testing.T) {
	verdicts, err := testBuilder().Build([]annotation.Record{
		rec("a", "annotator-1", map[annotation.Category]string{"theme": "negative"}),
		rec("a", "annotator-2", map[annotation.Category]string{"theme": "negative"}),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	v := single(t, verdicts)
	if v.Kind != VerdictIncorrect {
		t.Errorf("expected incorrect verdict, got %s", v.Kind)
	}
	if !v.HasConfidence || math.Abs(v.Confidence-1.0) > tolerance {
		t.Errorf("expected confidence 1.0, got %s", v.ConfidenceString())
	}
}

func TestTieIsUncertain(t *testing.T) {
	verdicts, err := testBuilder().Build([]annotation.Record{
		rec("a", "annotator-1", map[annotation.Category]string{"theme": "positive"}),
		rec("a", "annotator-2", map[annotation.Category]string{"theme": "negative"}),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	v := single(t, verdicts)
	if v.Kind != VerdictUncertain {
		t.Errorf("expected uncertain verdict, got %s", v.Kind)
	}
	if !v.HasConfidence || math.Abs(v.Confidence-0.5) > tolerance {
		t.Errorf("expected confidence 0.5, got %s", v.ConfidenceString())
	}
}

func TestZeroVotesUncertainWithoutConfidence(t *testing.T) {
	// The post exists but nobody labeled this category.
	verdicts, err := testBuilder("theme", "sentiment").Build([]annotation.Record{
		rec("a", "annotator-1", map[annotation.Category]string{"theme": "positive"}),
		rec("a", "annotator-2", map[annotation.Category]string{"theme": "positive"}),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(verdicts) != 2 {
		t.Fatalf("expected verdicts for both categories, got %d", len(verdicts))
	}
	var sentiment *Verdict
	for i := range verdicts {
		if verdicts[i].Category == "sentiment" {
			sentiment = &verdicts[i]
		}
	}
	if sentiment == nil {
		t.Fatal("expected a verdict for the unlabeled category")
	}
	if sentiment.Kind != VerdictUncertain {
		t.Errorf("expected uncertain verdict, got %s", sentiment.Kind)
	}
	if sentiment.HasConfidence {
		t.Error("expected no confidence for a zero-vote verdict")
	}
	if sentiment.ConfidenceString() != "N/A" {
		t.Errorf("expected N/A confidence, got %s", sentiment.ConfidenceString())
	}
}

func TestMajorityOfThree(t *testing.T) {
	verdicts, err := testBuilder().Build([]annotation.Record{
		rec("a", "annotator-1", map[annotation.Category]string{"theme": "positive"}),
		rec("a", "annotator-2", map[annotation.Category]string{"theme": "positive"}),
		rec("a", "annotator-3", map[annotation.Category]string{"theme": "negative"}),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	v := single(t, verdicts)
	if v.Kind != VerdictCorrect {
		t.Errorf("expected correct verdict from 2-of-3 majority, got %s", v.Kind)
	}
	if math.Abs(v.Confidence-2.0/3.0) > tolerance {
		t.Errorf("expected confidence 2/3, got %f", v.Confidence)
	}
}

func TestSynonymsCountAsVotes(t *testing.T) {
	codec := annotation.NewCodec(config.Labels{
		Canonical: []string{"positive", "negative"},
		Synonyms:  map[string]string{"up": "positive", "down": "negative"},
	})
	builder := NewBuilder(codec, annotation.Categories([]string{"theme"}))

	verdicts, err := builder.Build([]annotation.Record{
		rec("a", "annotator-1", map[annotation.Category]string{"theme": "up"}),
		rec("a", "annotator-2", map[annotation.Category]string{"theme": "down"}),
		rec("a", "annotator-3", map[annotation.Category]string{"theme": "up"}),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	v := single(t, verdicts)
	if v.Kind != VerdictCorrect {
		t.Errorf("expected synonym votes to tally, got %s", v.Kind)
	}
}

func TestDeterministicOrder(t *testing.T) {
	records := []annotation.Record{
		rec("b", "annotator-2", map[annotation.Category]string{"theme": "positive"}),
		rec("a", "annotator-1", map[annotation.Category]string{"theme": "negative"}),
		rec("a", "annotator-2", map[annotation.Category]string{"theme": "negative"}),
		rec("b", "annotator-1", map[annotation.Category]string{"theme": "positive"}),
	}

	verdicts, err := testBuilder().Build(records)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(verdicts) != 2 {
		t.Fatalf("expected 2 verdicts, got %d", len(verdicts))
	}
	if verdicts[0].PostID != "a" || verdicts[1].PostID != "b" {
		t.Errorf("expected post order a, b; got %s, %s", verdicts[0].PostID, verdicts[1].PostID)
	}
	votes := verdicts[0].Votes
	if votes[0].AnnotatorID != "annotator-1" || votes[1].AnnotatorID != "annotator-2" {
		t.Errorf("expected votes sorted by annotator, got %+v", votes)
	}
}

func TestBuildInputErrors(t *testing.T) {
	if _, err := testBuilder().Build(nil); err == nil {
		t.Error("expected error for empty records")
	}

	codec := annotation.NewCodec(config.Labels{Canonical: []string{"positive", "negative"}})
	empty := NewBuilder(codec, nil)
	records := []annotation.Record{
		rec("a", "annotator-1", map[annotation.Category]string{"theme": "positive"}),
	}
	if _, err := empty.Build(records); err == nil {
		t.Error("expected error for empty category set")
	}
}
