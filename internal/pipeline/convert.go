package pipeline

import (
	"sort"

	"github.com/clearlabel/agreekit/internal/agreement"
	"github.com/clearlabel/agreekit/internal/annotation"
	"github.com/clearlabel/agreekit/internal/consensus"
	"github.com/clearlabel/agreekit/internal/database"
	"github.com/clearlabel/agreekit/internal/evaluate"
)

// agreementRows flattens an agreement report into storage rows. The
// pooled overall result becomes a row with the pooled flag set, so it
// never collides with a real category named "overall".
func agreementRows(rep *agreement.Report) []database.AgreementResult {
	rows := make([]database.AgreementResult, 0, len(rep.Categories)+1)
	for _, res := range rep.Categories {
		rows = append(rows, agreementRow(res, false))
	}
	rows = append(rows, agreementRow(rep.Overall, true))
	return rows
}

func agreementRow(res *agreement.KappaResult, pooled bool) database.AgreementResult {
	row := database.AgreementResult{
		Category:     string(res.Category),
		Pooled:       pooled,
		Method:       res.Method.String(),
		Raters:       res.Raters,
		Posts:        res.Posts,
		RawAgreement: res.RawAgreement,
		Band:         string(res.Band),
	}
	if !res.Unavailable {
		k := res.Kappa
		row.Kappa = &k
	}
	if res.Cause != "" {
		c := res.Cause
		row.Cause = &c
	}
	return row
}

func disagreementRows(ds []agreement.Disagreement) []database.DisagreementRow {
	rows := make([]database.DisagreementRow, 0, len(ds))
	for _, d := range ds {
		labels := make(map[string]string, len(d.Labels))
		for _, rl := range d.Labels {
			labels[rl.AnnotatorID] = string(rl.Label)
		}
		rows = append(rows, database.DisagreementRow{
			PostID:   d.PostID,
			Category: string(d.Category),
			Labels:   labels,
		})
	}
	return rows
}

func verdictRows(verdicts []consensus.Verdict) []database.VerdictRow {
	rows := make([]database.VerdictRow, 0, len(verdicts))
	for _, v := range verdicts {
		votes := make(map[string]bool, len(v.Votes))
		for _, vote := range v.Votes {
			votes[vote.AnnotatorID] = vote.Correct
		}
		row := database.VerdictRow{
			PostID:   v.PostID,
			Category: string(v.Category),
			Verdict:  string(v.Kind),
			Votes:    votes,
		}
		if v.HasConfidence {
			c := v.Confidence
			row.Confidence = &c
		}
		rows = append(rows, row)
	}
	return rows
}

func verdictsFromRows(rows []database.VerdictRow) []consensus.Verdict {
	verdicts := make([]consensus.Verdict, 0, len(rows))
	for _, row := range rows {
		v := consensus.Verdict{
			PostID:   row.PostID,
			Category: annotation.Category(row.Category),
			Kind:     consensus.Kind(row.Verdict),
		}
		if row.Confidence != nil {
			v.Confidence = *row.Confidence
			v.HasConfidence = true
		}
		for annotator, correct := range row.Votes {
			v.Votes = append(v.Votes, consensus.Vote{AnnotatorID: annotator, Correct: correct})
		}
		sort.Slice(v.Votes, func(i, j int) bool { return v.Votes[i].AnnotatorID < v.Votes[j].AnnotatorID })
		verdicts = append(verdicts, v)
	}
	return verdicts
}

func evaluationRows(rep *evaluate.Report) []database.EvaluationResult {
	rows := make([]database.EvaluationResult, 0, len(rep.Categories)+1)
	for _, res := range rep.Categories {
		rows = append(rows, evaluationRow(rep.Strategy, res, false))
	}
	rows = append(rows, evaluationRow(rep.Strategy, rep.Overall, true))
	return rows
}

func evaluationRow(strategy string, res *evaluate.Result, pooled bool) database.EvaluationResult {
	return database.EvaluationResult{
		Category:  string(res.Category),
		Pooled:    pooled,
		Strategy:  strategy,
		Correct:   res.Correct,
		Incorrect: res.Incorrect,
		Uncertain: res.Uncertain,
		NoData:    res.NoData,
		Posts:     res.Posts,
		Evaluated: res.Evaluated,
		Accuracy:  res.Accuracy,
		ErrorRate: res.ErrorRate,
	}
}

func problemRows(posts []evaluate.ProblemPost) []database.ProblemPostRow {
	rows := make([]database.ProblemPostRow, 0, len(posts))
	for _, p := range posts {
		rows = append(rows, database.ProblemPostRow{
			PostID:    p.PostID,
			Errors:    p.Errors,
			Total:     p.Total,
			ErrorRate: p.ErrorRate,
		})
	}
	return rows
}
