package agreement

import (
	"testing"

	"github.com/clearlabel/agreekit/internal/annotation"
)

func TestDisagreementsExtraction(t *testing.T) {
	cat := annotation.Category("theme")
	records := twoRaters(cat,
		[]string{"positive", "positive", "negative"},
		[]string{"positive", "negative", "negative"},
	)

	got := testCalculator().Disagreements(records)
	if len(got) != 1 {
		t.Fatalf("expected 1 disagreement, got %d", len(got))
	}
	d := got[0]
	if d.PostID != "b" || d.Category != cat {
		t.Errorf("unexpected disagreement location: %s/%s", d.PostID, d.Category)
	}
	if len(d.Labels) != 2 {
		t.Fatalf("expected 2 rater labels, got %d", len(d.Labels))
	}
	if d.Labels[0].AnnotatorID != "annotator-1" || d.Labels[0].Label != "positive" {
		t.Errorf("unexpected first label: %+v", d.Labels[0])
	}
	if d.Labels[1].AnnotatorID != "annotator-2" || d.Labels[1].Label != "negative" {
		t.Errorf("unexpected second label: %+v", d.Labels[1])
	}
}

func TestDisagreementsMissingRaterOmitted(t *testing.T) {
	cat := annotation.Category("theme")
	records := []annotation.Record{
		// Only annotator-1 and annotator-3 labeled post a; they disagree.
		rec("a", "annotator-1", map[annotation.Category]string{cat: "positive"}),
		rec("a", "annotator-3", map[annotation.Category]string{cat: "negative"}),
		// annotator-2 appears elsewhere so it is part of the roster.
		rec("b", "annotator-2", map[annotation.Category]string{cat: "positive"}),
	}

	got := testCalculator().Disagreements(records)
	if len(got) != 1 {
		t.Fatalf("expected 1 disagreement, got %d", len(got))
	}
	for _, rl := range got[0].Labels {
		if rl.AnnotatorID == "annotator-2" {
			t.Error("missing rater must be omitted, not listed")
		}
	}
	if len(got[0].Labels) != 2 {
		t.Errorf("expected 2 present labels, got %d", len(got[0].Labels))
	}
}

func TestDisagreementsSingleLabelNotReported(t *testing.T) {
	cat := annotation.Category("theme")
	records := []annotation.Record{
		rec("a", "annotator-1", map[annotation.Category]string{cat: "positive"}),
		rec("b", "annotator-2", map[annotation.Category]string{cat: "negative"}),
	}

	if got := testCalculator().Disagreements(records); len(got) != 0 {
		t.Errorf("expected no disagreements with fewer than 2 labels per post, got %d", len(got))
	}
}

func TestDisagreementsUnanimousEmpty(t *testing.T) {
	cat := annotation.Category("theme")
	records := twoRaters(cat,
		[]string{"positive", "negative"},
		[]string{"positive", "negative"},
	)

	if got := testCalculator().Disagreements(records); len(got) != 0 {
		t.Errorf("expected no disagreements on unanimous input, got %d", len(got))
	}
}
