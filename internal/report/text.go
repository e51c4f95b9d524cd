// Package report renders agreement and evaluation results as terminal
// text and exports them as JSON for downstream analysis.
package report

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/clearlabel/agreekit/internal/agreement"
	"github.com/clearlabel/agreekit/internal/evaluate"
)

const rule = "============================================================"
const thinRule = "------------------------------------------------------------"

// minSampleSize is the post count below which results get a robustness
// warning.
const minSampleSize = 30

// PrintAgreement writes the full agreement report: per-category scores,
// raw agreement, the overall kappa with its interpretation, confusion
// matrices for 2-rater runs, and guidance.
func PrintAgreement(w io.Writer, rep *agreement.Report) {
	fmt.Fprintf(w, "\n%s\n", rule)
	fmt.Fprintf(w, "INTER-ANNOTATOR AGREEMENT (%d annotators, %d posts)\n", len(rep.Raters), rep.Posts)
	fmt.Fprintf(w, "%s\n\n", rule)

	fmt.Fprintln(w, "Category-wise Kappa Scores:")
	fmt.Fprintln(w, thinRule)
	for _, res := range rep.Categories {
		if res.Unavailable {
			fmt.Fprintf(w, "%-20s: N/A (%s)\n", res.Category, res.Cause)
			continue
		}
		fmt.Fprintf(w, "%-20s: %6.4f  (%s)\n", res.Category, res.Kappa, res.Band)
	}

	fmt.Fprintf(w, "\n%s\n", rule)
	fmt.Fprintln(w, "RAW AGREEMENT PERCENTAGES")
	fmt.Fprintln(w, rule)
	for _, res := range rep.Categories {
		if res.Unavailable {
			fmt.Fprintf(w, "%-20s: N/A\n", res.Category)
			continue
		}
		fmt.Fprintf(w, "%-20s: %6.2f%%\n", res.Category, res.RawAgreement*100)
	}

	fmt.Fprintf(w, "\n%s\n", rule)
	if rep.Overall.Unavailable {
		fmt.Fprintf(w, "Overall Kappa Score: N/A (%s)\n", rep.Overall.Cause)
	} else {
		fmt.Fprintf(w, "Overall Kappa Score (%s): %.4f\n", rep.Overall.Method, rep.Overall.Kappa)
		fmt.Fprintf(w, "Agreement Level: %s\n", rep.Overall.Band)
		fmt.Fprintf(w, "Description: %s\n", rep.Overall.Band.Description())
		fmt.Fprintf(w, "Reliability: %s\n", rep.Overall.Band.Reliability())
	}
	fmt.Fprintln(w, rule)

	if len(rep.Confusion) > 0 {
		fmt.Fprintf(w, "\n%s\n", rule)
		fmt.Fprintln(w, "CONFUSION MATRICES")
		fmt.Fprintln(w, rule)
		for _, cm := range rep.Confusion {
			printConfusion(w, cm)
		}
	}

	if len(rep.Excluded) > 0 {
		fmt.Fprintf(w, "\nExcluded posts:\n")
		for _, ex := range rep.Excluded {
			fmt.Fprintf(w, "  %s/%s: %s\n", ex.PostID, ex.Category, ex.Reason)
		}
	}

	printAgreementGuidance(w, rep)
}

func printConfusion(w io.Writer, cm *agreement.ConfusionMatrix) {
	fmt.Fprintf(w, "\n%s (%d posts)\n", cm.Category, cm.Posts)
	header := fmt.Sprintf("%-14s", "A \\ B")
	for _, l := range cm.Labels {
		header += fmt.Sprintf("%12s", l)
	}
	fmt.Fprintln(w, header)
	for i, l := range cm.Labels {
		line := fmt.Sprintf("%-14s", l)
		for j := range cm.Labels {
			line += fmt.Sprintf("%12d", cm.Counts[i][j])
		}
		fmt.Fprintln(w, line)
	}
}

// printAgreementGuidance maps the overall kappa to next-step advice.
func printAgreementGuidance(w io.Writer, rep *agreement.Report) {
	fmt.Fprintf(w, "\n%s\n", rule)
	fmt.Fprintln(w, "GUIDANCE")
	fmt.Fprintln(w, rule)

	kappa := rep.Overall.Kappa
	switch {
	case rep.Overall.Unavailable || math.IsNaN(kappa):
		fmt.Fprintln(w, "Unable to calculate agreement - check your data")
	case kappa >= 0.60:
		fmt.Fprintln(w, "HIGH AGREEMENT (kappa >= 0.6)")
		fmt.Fprintln(w, "  Annotators consistently agreed on the model's performance.")
		fmt.Fprintln(w, "  The feedback signals are reliable error indicators.")
		fmt.Fprintln(w, "  Proceed to model evaluation with majority-vote consensus.")
	case kappa >= 0.40:
		fmt.Fprintln(w, "MODERATE AGREEMENT (0.4 <= kappa < 0.6)")
		fmt.Fprintln(w, "  There is reasonable agreement, but some ambiguity remains.")
		fmt.Fprintln(w, "  Review the disagreement cases and refine the annotation guidelines.")
	default:
		fmt.Fprintln(w, "LOW AGREEMENT (kappa < 0.4)")
		fmt.Fprintln(w, "  Annotators could not reliably agree on these posts.")
		fmt.Fprintln(w, "  Clarify the annotation instructions and re-annotate before")
		fmt.Fprintln(w, "  trusting any downstream evaluation.")
	}

	if rep.Posts < minSampleSize {
		fmt.Fprintf(w, "\nWARNING: sample size (%d posts) is too small for robust conclusions.\n", rep.Posts)
		fmt.Fprintln(w, "  Collect at least 100 posts for reliable statistics.")
	}
	fmt.Fprintln(w, rule)
}

// PrintDisagreements writes the non-unanimous (post, category) pairs.
func PrintDisagreements(w io.Writer, ds []agreement.Disagreement) {
	fmt.Fprintf(w, "\n%s\n", rule)
	fmt.Fprintf(w, "DISAGREEMENTS (%d)\n", len(ds))
	fmt.Fprintln(w, rule)
	for _, d := range ds {
		var parts []string
		for _, rl := range d.Labels {
			parts = append(parts, fmt.Sprintf("%s=%s", rl.AnnotatorID, rl.Label))
		}
		fmt.Fprintf(w, "%-20s %-16s %s\n", d.PostID, d.Category, strings.Join(parts, "  "))
	}
}

// PrintEvaluation writes the model performance report with per-category
// scores, pooled overall metrics, problem posts, and guidance.
func PrintEvaluation(w io.Writer, rep *evaluate.Report, annotators, posts int) {
	fmt.Fprintf(w, "\n%s\n", rule)
	fmt.Fprintln(w, "MODEL CORRECTNESS EVALUATION")
	fmt.Fprintf(w, "%s\n", rule)
	fmt.Fprintf(w, "Annotators: %d\n", annotators)
	fmt.Fprintf(w, "Posts: %d\n", posts)
	fmt.Fprintf(w, "Scoring strategy: %s\n\n", rep.Strategy)

	fmt.Fprintln(w, "Category-wise Performance:")
	fmt.Fprintln(w, thinRule)
	fmt.Fprintf(w, "%-20s %-9s %-9s %-10s %-8s %s\n",
		"Category", "Correct", "Wrong", "Uncertain", "NoData", "Accuracy")
	fmt.Fprintln(w, thinRule)
	for _, res := range rep.Categories {
		fmt.Fprintf(w, "%-20s %-9d %-9d %-10d %-8d %6.2f%%\n",
			res.Category, res.Correct, res.Incorrect, res.Uncertain, res.NoData, res.Accuracy*100)
	}

	overall := rep.Overall
	fmt.Fprintf(w, "\n%s\n", rule)
	fmt.Fprintln(w, "OVERALL MODEL PERFORMANCE")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Total Evaluations:  %d\n", overall.Evaluated)
	fmt.Fprintf(w, "Correct:            %d\n", overall.Correct)
	fmt.Fprintf(w, "Incorrect:          %d\n", overall.Incorrect)
	fmt.Fprintf(w, "Uncertain:          %d\n", overall.Uncertain)
	fmt.Fprintf(w, "\nOverall Accuracy:   %.2f%%\n", overall.Accuracy*100)
	fmt.Fprintf(w, "Overall Error Rate: %.2f%%\n", overall.ErrorRate*100)
	fmt.Fprintln(w, rule)

	if len(rep.ProblemPosts) > 0 {
		fmt.Fprintf(w, "\nFound %d posts with high error rates:\n", len(rep.ProblemPosts))
		for i, p := range rep.ProblemPosts {
			if i >= 5 {
				break
			}
			fmt.Fprintf(w, "  %s: %d/%d errors (%.1f%%)\n", p.PostID, p.Errors, p.Total, p.ErrorRate*100)
		}
	}

	printEvaluationGuidance(w, rep, posts)
}

// printEvaluationGuidance summarizes strongest and weakest categories
// and rates the overall accuracy.
func printEvaluationGuidance(w io.Writer, rep *evaluate.Report, posts int) {
	fmt.Fprintf(w, "\n%s\n", rule)
	fmt.Fprintln(w, "INSIGHTS & RECOMMENDATIONS")
	fmt.Fprintln(w, rule)

	var best, worst *evaluate.Result
	for _, res := range rep.Categories {
		if res.Evaluated == 0 {
			continue
		}
		if best == nil || res.Accuracy > best.Accuracy {
			best = res
		}
		if worst == nil || res.Accuracy < worst.Accuracy {
			worst = res
		}
	}
	if best == nil {
		fmt.Fprintln(w, "No category had enough decided verdicts to evaluate.")
		fmt.Fprintln(w, rule)
		return
	}

	fmt.Fprintf(w, "\nSTRONGEST AREA:\n  %s: %.1f%% accuracy\n", best.Category, best.Accuracy*100)
	fmt.Fprintf(w, "\nNEEDS IMPROVEMENT:\n  %s: %.1f%% accuracy\n", worst.Category, worst.Accuracy*100)

	acc := rep.Overall.Accuracy
	switch {
	case acc >= 0.9:
		fmt.Fprintln(w, "\nEXCELLENT: model shows outstanding performance (>90% accuracy)")
	case acc >= 0.8:
		fmt.Fprintln(w, "\nGOOD: model shows strong performance (80-90% accuracy)")
	case acc >= 0.7:
		fmt.Fprintln(w, "\nFAIR: model shows acceptable performance (70-80% accuracy)")
	default:
		fmt.Fprintln(w, "\nPOOR: model needs significant improvement (<70% accuracy)")
	}

	if posts < minSampleSize {
		fmt.Fprintf(w, "\nWARNING: sample size (%d posts) is too small for robust conclusions.\n", posts)
		fmt.Fprintln(w, "  Collect at least 100 posts for reliable statistics.")
	}
	fmt.Fprintln(w, rule)
}
