package pipeline

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/clearlabel/agreekit/internal/config"
	"github.com/clearlabel/agreekit/internal/database"
	"github.com/clearlabel/agreekit/internal/report"
)

const annotatorA = `{
  "posts": [
    {
      "postId": "p1",
      "feedback": {"theme": "positive", "sentiment": "positive"},
      "llm": {"llmTheme": "technology", "llmSentiment": "neutral"}
    },
    {
      "postId": "p2",
      "feedback": {"theme": "negative", "sentiment": "positive"},
      "llm": {"llmTheme": "sports", "llmSentiment": "positive"}
    }
  ]
}`

const annotatorB = `{
  "posts": [
    {
      "postId": "p1",
      "feedback": {"theme": "positive", "sentiment": "negative"},
      "llm": {"llmTheme": "technology", "llmSentiment": "neutral"}
    },
    {
      "postId": "p2",
      "feedback": {"theme": "negative", "sentiment": "positive"},
      "llm": {"llmTheme": "sports", "llmSentiment": "positive"}
    }
  ]
}`

func testPipeline(t *testing.T) (*Pipeline, *database.DB, string, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()

	db, err := database.Open(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{
		Categories: []string{"theme", "sentiment"},
		Labels: config.Labels{
			Canonical: []string{"positive", "negative"},
		},
		Consensus:  config.Consensus{Strategy: config.ConsensusConservative},
		Evaluation: config.Evaluation{ProblemThreshold: 0.5},
		Output:     config.Output{DataDir: dir},
	}

	var buf bytes.Buffer
	return New(cfg, db, &buf), db, dir, &buf
}

func writeExports(t *testing.T, dir string) []string {
	t.Helper()
	a := filepath.Join(dir, "annotator-a.json")
	b := filepath.Join(dir, "annotator-b.json")
	if err := os.WriteFile(a, []byte(annotatorA), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(b, []byte(annotatorB), 0o644); err != nil {
		t.Fatal(err)
	}
	return []string{a, b}
}

func TestFullPipelineRun(t *testing.T) {
	p, db, dir, buf := testPipeline(t)
	files := writeExports(t, dir)

	result := p.Run(files)

	if len(result.Steps) != 4 {
		t.Fatalf("expected 4 steps, got %d", len(result.Steps))
	}
	for _, step := range result.Steps {
		if step.Err != nil {
			t.Fatalf("step %s failed: %v", step.Name, step.Err)
		}
	}
	if result.RunID == "" {
		t.Fatal("expected a run ID")
	}

	run, err := db.GetRun(result.RunID)
	if err != nil || run == nil {
		t.Fatalf("expected stored run, got %v (%v)", run, err)
	}
	if run.Annotators != 2 || run.Posts != 2 {
		t.Errorf("unexpected run counts: %+v", run)
	}

	// Agreement rows: theme, sentiment, plus the pooled overall.
	agreements, _ := db.GetAgreementResults(result.RunID)
	if len(agreements) != 3 {
		t.Errorf("expected 3 agreement rows, got %d", len(agreements))
	}

	// The annotators split on p1/sentiment only.
	disagreements, _ := db.GetDisagreements(result.RunID)
	if len(disagreements) != 1 {
		t.Fatalf("expected 1 disagreement, got %d", len(disagreements))
	}
	if disagreements[0].PostID != "p1" || disagreements[0].Category != "sentiment" {
		t.Errorf("unexpected disagreement: %+v", disagreements[0])
	}

	verdicts, _ := db.GetVerdicts(result.RunID)
	if len(verdicts) != 4 {
		t.Errorf("expected 4 verdicts (2 posts x 2 categories), got %d", len(verdicts))
	}

	evaluations, _ := db.GetEvaluationResults(result.RunID)
	if len(evaluations) != 3 {
		t.Errorf("expected 3 evaluation rows, got %d", len(evaluations))
	}

	// Export files land under the data directory.
	for _, name := range []string{
		report.AgreementFile, report.DisagreementFile,
		report.EvaluationFile, report.DetailsFile,
	} {
		path := filepath.Join(dir, "exports", name)
		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected export %s: %v", name, err)
		}
	}

	out := buf.String()
	if !strings.Contains(out, "INTER-ANNOTATOR AGREEMENT") {
		t.Error("expected agreement report in output")
	}
	if !strings.Contains(out, "MODEL CORRECTNESS EVALUATION") {
		t.Error("expected evaluation report in output")
	}
}

func TestPipelineVerdictSemantics(t *testing.T) {
	p, db, dir, _ := testPipeline(t)
	files := writeExports(t, dir)

	result := p.Run(files)
	if result.RunID == "" {
		t.Fatal("expected a run ID")
	}

	verdicts, _ := db.GetVerdicts(result.RunID)
	byKey := make(map[string]database.VerdictRow)
	for _, v := range verdicts {
		byKey[v.PostID+"/"+v.Category] = v
	}

	// p1/theme: both positive -> correct with confidence 1.0.
	v := byKey["p1/theme"]
	if v.Verdict != "correct" || v.Confidence == nil || *v.Confidence != 1.0 {
		t.Errorf("unexpected p1/theme verdict: %+v", v)
	}
	// p1/sentiment: split -> uncertain with confidence 0.5.
	v = byKey["p1/sentiment"]
	if v.Verdict != "uncertain" || v.Confidence == nil || *v.Confidence != 0.5 {
		t.Errorf("unexpected p1/sentiment verdict: %+v", v)
	}
	// p2/theme: both negative -> incorrect.
	v = byKey["p2/theme"]
	if v.Verdict != "incorrect" {
		t.Errorf("unexpected p2/theme verdict: %+v", v)
	}
}

func TestImportThenSeparateSteps(t *testing.T) {
	p, _, dir, _ := testPipeline(t)
	files := writeExports(t, dir)

	runID, err := p.Import(files)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if err := p.Agreement(runID); err != nil {
		t.Fatalf("agreement: %v", err)
	}
	if err := p.Evaluate(runID); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
}

func TestResolveRun(t *testing.T) {
	p, _, dir, _ := testPipeline(t)

	if _, err := p.ResolveRun(""); err == nil {
		t.Error("expected error with no runs imported")
	}
	if _, err := p.ResolveRun("nope"); err == nil {
		t.Error("expected error for unknown run")
	}

	files := writeExports(t, dir)
	runID, err := p.Import(files)
	if err != nil {
		t.Fatalf("import: %v", err)
	}

	run, err := p.ResolveRun("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if run.ID != runID {
		t.Errorf("expected latest run %s, got %s", runID, run.ID)
	}
}

func TestRunFailsOnMissingFiles(t *testing.T) {
	p, _, _, _ := testPipeline(t)

	result := p.Run([]string{"/nonexistent/file.json"})
	if len(result.Steps) != 1 {
		t.Fatalf("expected pipeline to stop after import, got %d steps", len(result.Steps))
	}
	if result.Steps[0].Err == nil {
		t.Error("expected import error")
	}
}
