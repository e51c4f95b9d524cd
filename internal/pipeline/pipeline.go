// Package pipeline orchestrates the evaluation workflow: import the
// annotation exports, compute inter-annotator agreement, build consensus
// verdicts, and score the model against them.
package pipeline

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/clearlabel/agreekit/internal/agreement"
	"github.com/clearlabel/agreekit/internal/annotation"
	"github.com/clearlabel/agreekit/internal/config"
	"github.com/clearlabel/agreekit/internal/consensus"
	"github.com/clearlabel/agreekit/internal/database"
	"github.com/clearlabel/agreekit/internal/evaluate"
	"github.com/clearlabel/agreekit/internal/ingest"
	"github.com/clearlabel/agreekit/internal/report"
)

// StepResult holds the result of a single pipeline step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result holds the results of a full pipeline run.
type Result struct {
	RunID string
	Steps []StepResult
}

// Pipeline orchestrates the 4-step evaluation pipeline.
type Pipeline struct {
	cfg       *config.Config
	db        *database.DB
	out       io.Writer
	codec     *annotation.Codec
	cats      []annotation.Category
	exportDir string
}

// New creates a new pipeline writing reports to out.
func New(cfg *config.Config, db *database.DB, out io.Writer) *Pipeline {
	if out == nil {
		out = os.Stdout
	}
	return &Pipeline{
		cfg:       cfg,
		db:        db,
		out:       out,
		codec:     annotation.NewCodec(cfg.Labels),
		cats:      annotation.Categories(cfg.Categories),
		exportDir: filepath.Join(cfg.GetDataDir(), "exports"),
	}
}

// Run executes the full pipeline over a set of annotation export files.
func (p *Pipeline) Run(files []string) *Result {
	r := &Result{}

	// Step 1: Import
	step, runID := p.runImport(files)
	r.Steps = append(r.Steps, step)
	if step.Err != nil {
		return r
	}
	r.RunID = runID

	// Step 2: Agreement
	step = p.runAgreement(runID)
	r.Steps = append(r.Steps, step)

	// Step 3: Consensus
	step = p.runConsensus(runID)
	r.Steps = append(r.Steps, step)
	if step.Err != nil {
		return r
	}

	// Step 4: Evaluate
	step = p.runEvaluate(runID)
	r.Steps = append(r.Steps, step)

	return r
}

// Import loads the export files into a new run and returns its ID.
func (p *Pipeline) Import(files []string) (string, error) {
	step, runID := p.runImport(files)
	return runID, step.Err
}

// Agreement recomputes and reports agreement for a stored run.
func (p *Pipeline) Agreement(runID string) error {
	return p.runAgreement(runID).Err
}

// Evaluate rebuilds consensus and rescores the model for a stored run.
func (p *Pipeline) Evaluate(runID string) error {
	if step := p.runConsensus(runID); step.Err != nil {
		return step.Err
	}
	return p.runEvaluate(runID).Err
}

// ResolveRun returns the requested run, or the latest when id is empty.
func (p *Pipeline) ResolveRun(id string) (*database.Run, error) {
	if id != "" {
		run, err := p.db.GetRun(id)
		if err != nil {
			return nil, err
		}
		if run == nil {
			return nil, fmt.Errorf("run %s not found", id)
		}
		return run, nil
	}
	run, err := p.db.GetLatestRun()
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, fmt.Errorf("no runs imported yet")
	}
	return run, nil
}

func (p *Pipeline) runImport(files []string) (StepResult, string) {
	log.Println("Step 1/4: Importing annotation exports...")
	loader := ingest.NewLoader(p.cats)
	imp, err := loader.LoadFiles(files)
	if err != nil {
		return StepResult{Name: "Import", Err: err}, ""
	}

	runID := uuid.NewString()
	run := &database.Run{
		ID:          runID,
		Annotators:  len(imp.Annotators),
		Posts:       imp.Posts,
		Warnings:    imp.Warnings,
		SourceFiles: imp.SourceFiles,
	}
	if err := p.db.InsertRun(run); err != nil {
		return StepResult{Name: "Import", Err: err}, ""
	}
	if err := p.db.InsertRecords(runID, imp.Records); err != nil {
		return StepResult{Name: "Import", Err: err}, ""
	}

	return StepResult{
		Name: "Import",
		Summary: fmt.Sprintf("Imported %d posts from %d annotators (%d warnings)",
			imp.Posts, len(imp.Annotators), imp.Warnings),
	}, runID
}

func (p *Pipeline) runAgreement(runID string) StepResult {
	log.Println("Step 2/4: Computing inter-annotator agreement...")
	records, err := p.db.GetRecords(runID)
	if err != nil {
		return StepResult{Name: "Agreement", Err: err}
	}

	calc := agreement.NewCalculator(p.codec, p.cats)
	rep, err := calc.Compute(records)
	if err != nil {
		return StepResult{Name: "Agreement", Err: err}
	}
	disagreements := calc.Disagreements(records)

	if err := p.db.SaveAgreementResults(runID, agreementRows(rep)); err != nil {
		return StepResult{Name: "Agreement", Err: err}
	}
	if err := p.db.SaveDisagreements(runID, disagreementRows(disagreements)); err != nil {
		return StepResult{Name: "Agreement", Err: err}
	}

	if err := report.ExportAgreement(filepath.Join(p.exportDir, report.AgreementFile), rep); err != nil {
		return StepResult{Name: "Agreement", Err: err}
	}
	if err := report.ExportDisagreements(filepath.Join(p.exportDir, report.DisagreementFile), disagreements); err != nil {
		return StepResult{Name: "Agreement", Err: err}
	}

	report.PrintAgreement(p.out, rep)
	if len(disagreements) > 0 {
		report.PrintDisagreements(p.out, disagreements)
	}

	summary := fmt.Sprintf("%d categories, %d disagreements", len(rep.Categories), len(disagreements))
	if !rep.Overall.Unavailable {
		summary = fmt.Sprintf("Overall kappa %.4f (%s), %d disagreements",
			rep.Overall.Kappa, rep.Overall.Band, len(disagreements))
	}
	return StepResult{Name: "Agreement", Summary: summary}
}

func (p *Pipeline) runConsensus(runID string) StepResult {
	log.Println("Step 3/4: Building consensus verdicts...")
	records, err := p.db.GetRecords(runID)
	if err != nil {
		return StepResult{Name: "Consensus", Err: err}
	}

	builder := consensus.NewBuilder(p.codec, p.cats)
	verdicts, err := builder.Build(records)
	if err != nil {
		return StepResult{Name: "Consensus", Err: err}
	}

	if err := p.db.SaveVerdicts(runID, verdictRows(verdicts)); err != nil {
		return StepResult{Name: "Consensus", Err: err}
	}

	decided := 0
	for _, v := range verdicts {
		if v.Kind != consensus.VerdictUncertain {
			decided++
		}
	}
	return StepResult{
		Name:    "Consensus",
		Summary: fmt.Sprintf("%d verdicts, %d decided by majority", len(verdicts), decided),
	}
}

func (p *Pipeline) runEvaluate(runID string) StepResult {
	log.Println("Step 4/4: Evaluating model performance...")
	run, err := p.db.GetRun(runID)
	if err != nil {
		return StepResult{Name: "Evaluate", Err: err}
	}
	stored, err := p.db.GetVerdicts(runID)
	if err != nil {
		return StepResult{Name: "Evaluate", Err: err}
	}
	verdicts := verdictsFromRows(stored)

	ev := evaluate.NewEvaluator(p.cats, p.cfg.Evaluation.SkipCategories,
		p.cfg.Consensus.Strategy, p.cfg.Evaluation.ProblemThreshold)
	rep, err := ev.Evaluate(verdicts)
	if err != nil {
		return StepResult{Name: "Evaluate", Err: err}
	}

	if err := p.db.SaveEvaluationResults(runID, evaluationRows(rep)); err != nil {
		return StepResult{Name: "Evaluate", Err: err}
	}
	if err := p.db.SaveProblemPosts(runID, problemRows(rep.ProblemPosts)); err != nil {
		return StepResult{Name: "Evaluate", Err: err}
	}

	if err := report.ExportEvaluation(filepath.Join(p.exportDir, report.EvaluationFile), rep, run.Annotators, run.Posts); err != nil {
		return StepResult{Name: "Evaluate", Err: err}
	}
	if err := report.ExportEvaluationDetails(filepath.Join(p.exportDir, report.DetailsFile), verdicts); err != nil {
		return StepResult{Name: "Evaluate", Err: err}
	}

	report.PrintEvaluation(p.out, rep, run.Annotators, run.Posts)

	return StepResult{
		Name: "Evaluate",
		Summary: fmt.Sprintf("Overall accuracy %.2f%% over %d evaluations, %d problem posts",
			rep.Overall.Accuracy*100, rep.Overall.Evaluated, len(rep.ProblemPosts)),
	}
}
