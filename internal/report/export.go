package report

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/clearlabel/agreekit/internal/agreement"
	"github.com/clearlabel/agreekit/internal/consensus"
	"github.com/clearlabel/agreekit/internal/evaluate"
)

// Export file names, matching what downstream analysis scripts expect.
const (
	AgreementFile    = "kappa_results.json"
	DisagreementFile = "disagreements.json"
	EvaluationFile   = "model_evaluation.json"
	DetailsFile      = "evaluation_details.json"
)

// kappaValue renders an unavailable kappa as JSON null instead of NaN,
// which encoding/json would reject.
func kappaValue(res *agreement.KappaResult) *float64 {
	if res.Unavailable || math.IsNaN(res.Kappa) {
		return nil
	}
	k := res.Kappa
	return &k
}

type confusionExport struct {
	Labels []string `json:"labels"`
	Matrix [][]int  `json:"matrix"`
	Posts  int      `json:"n_posts"`
}

type interpretationExport struct {
	Level       string `json:"level"`
	Description string `json:"description"`
	Reliability string `json:"reliability"`
}

// ExportAgreement writes the agreement report as kappa_results.json.
func ExportAgreement(path string, rep *agreement.Report) error {
	scores := make(map[string]*float64)
	raw := make(map[string]*float64)
	for _, res := range rep.Categories {
		scores[string(res.Category)] = kappaValue(res)
		if res.Unavailable {
			raw[string(res.Category)] = nil
		} else {
			r := res.RawAgreement
			raw[string(res.Category)] = &r
		}
	}

	confusion := make(map[string]confusionExport)
	for _, cm := range rep.Confusion {
		labels := make([]string, len(cm.Labels))
		for i, l := range cm.Labels {
			labels[i] = string(l)
		}
		confusion[string(cm.Category)] = confusionExport{
			Labels: labels,
			Matrix: cm.Counts,
			Posts:  cm.Posts,
		}
	}

	data := map[string]any{
		"kappa_type":            rep.Overall.Method.String(),
		"n_annotators":          len(rep.Raters),
		"n_posts":               rep.Posts,
		"category_scores":       scores,
		"overall_kappa":         kappaValue(rep.Overall),
		"raw_agreement_scores":  raw,
		"overall_raw_agreement": rep.Overall.RawAgreement,
		"confusion_matrices":    confusion,
		"interpretation": interpretationExport{
			Level:       string(rep.Overall.Band),
			Description: rep.Overall.Band.Description(),
			Reliability: rep.Overall.Band.Reliability(),
		},
	}
	return writeJSON(path, data)
}

// ExportDisagreements writes the disagreement list as disagreements.json.
func ExportDisagreements(path string, ds []agreement.Disagreement) error {
	type entry struct {
		Category string            `json:"category"`
		PostID   string            `json:"postId"`
		Labels   map[string]string `json:"labels"`
	}
	out := make([]entry, 0, len(ds))
	for _, d := range ds {
		labels := make(map[string]string, len(d.Labels))
		for _, rl := range d.Labels {
			labels[rl.AnnotatorID] = string(rl.Label)
		}
		out = append(out, entry{
			Category: string(d.Category),
			PostID:   d.PostID,
			Labels:   labels,
		})
	}
	return writeJSON(path, out)
}

// ExportEvaluation writes the model scores as model_evaluation.json.
func ExportEvaluation(path string, rep *evaluate.Report, annotators, posts int) error {
	type categoryExport struct {
		Correct        int     `json:"correct"`
		Incorrect      int     `json:"incorrect"`
		Uncertain      int     `json:"uncertain"`
		NoData         int     `json:"no_data"`
		TotalEvaluated int     `json:"total_evaluated"`
		Accuracy       float64 `json:"accuracy"`
		ErrorRate      float64 `json:"error_rate"`
	}

	categories := make(map[string]categoryExport)
	for _, res := range rep.Categories {
		categories[string(res.Category)] = categoryExport{
			Correct:        res.Correct,
			Incorrect:      res.Incorrect,
			Uncertain:      res.Uncertain,
			NoData:         res.NoData,
			TotalEvaluated: res.Evaluated,
			Accuracy:       res.Accuracy,
			ErrorRate:      res.ErrorRate,
		}
	}

	type problemExport struct {
		PostID    string  `json:"postId"`
		Errors    int     `json:"errors"`
		Total     int     `json:"total"`
		ErrorRate float64 `json:"error_rate"`
	}
	problems := make([]problemExport, 0, len(rep.ProblemPosts))
	for _, p := range rep.ProblemPosts {
		problems = append(problems, problemExport{
			PostID:    p.PostID,
			Errors:    p.Errors,
			Total:     p.Total,
			ErrorRate: p.ErrorRate,
		})
	}

	data := map[string]any{
		"n_annotators":     annotators,
		"n_posts":          posts,
		"strategy":         rep.Strategy,
		"category_results": categories,
		"overall_metrics": map[string]any{
			"total_correct":      rep.Overall.Correct,
			"total_incorrect":    rep.Overall.Incorrect,
			"total_uncertain":    rep.Overall.Uncertain,
			"total_evaluated":    rep.Overall.Evaluated,
			"overall_accuracy":   rep.Overall.Accuracy,
			"overall_error_rate": rep.Overall.ErrorRate,
		},
		"problem_posts": problems,
	}
	return writeJSON(path, data)
}

// ExportEvaluationDetails writes the per-verdict breakdown as
// evaluation_details.json.
func ExportEvaluationDetails(path string, verdicts []consensus.Verdict) error {
	type entry struct {
		Category   string   `json:"category"`
		PostID     string   `json:"postId"`
		Consensus  string   `json:"consensus"`
		Confidence *float64 `json:"confidence"`
		NVotes     int      `json:"n_votes"`
		Votes      []int    `json:"votes"`
	}

	out := make([]entry, 0, len(verdicts))
	for _, v := range verdicts {
		e := entry{
			Category:  string(v.Category),
			PostID:    v.PostID,
			Consensus: string(v.Kind),
			NVotes:    len(v.Votes),
			Votes:     make([]int, 0, len(v.Votes)),
		}
		if v.HasConfidence {
			c := v.Confidence
			e.Confidence = &c
		}
		for _, vote := range v.Votes {
			if vote.Correct {
				e.Votes = append(e.Votes, 1)
			} else {
				e.Votes = append(e.Votes, 0)
			}
		}
		out = append(out, e)
	}
	return writeJSON(path, out)
}

func writeJSON(path string, data any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating export directory: %w", err)
	}
	encoded, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}
	return os.WriteFile(path, encoded, 0o644)
}
