package database

import (
	"encoding/json"
	"fmt"
)

// SaveAgreementResults replaces the stored agreement rows for a run.
func (db *DB) SaveAgreementResults(runID string, results []AgreementResult) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM agreement_results WHERE run_id = ?`, runID); err != nil {
		tx.Rollback()
		return err
	}
	for _, r := range results {
		_, err := tx.Exec(
			`INSERT INTO agreement_results
			 (run_id, category, pooled, method, raters, posts, kappa, raw_agreement, band, cause)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, r.Category, r.Pooled, r.Method, r.Raters, r.Posts,
			r.Kappa, r.RawAgreement, r.Band, r.Cause,
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("inserting agreement result for %s: %w", r.Category, err)
		}
	}
	return tx.Commit()
}

// GetAgreementResults returns the stored agreement rows for a run, the
// pooled overall row last.
func (db *DB) GetAgreementResults(runID string) ([]AgreementResult, error) {
	rows, err := db.conn.Query(
		`SELECT run_id, category, pooled, method, raters, posts, kappa, raw_agreement, band, cause
		 FROM agreement_results WHERE run_id = ? ORDER BY pooled, category`, runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []AgreementResult
	for rows.Next() {
		var r AgreementResult
		if err := rows.Scan(&r.RunID, &r.Category, &r.Pooled, &r.Method, &r.Raters,
			&r.Posts, &r.Kappa, &r.RawAgreement, &r.Band, &r.Cause); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// SaveDisagreements replaces the stored disagreements for a run.
func (db *DB) SaveDisagreements(runID string, rows []DisagreementRow) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM disagreements WHERE run_id = ?`, runID); err != nil {
		tx.Rollback()
		return err
	}
	for _, d := range rows {
		labels, err := json.Marshal(d.Labels)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("encoding labels for %s: %w", d.PostID, err)
		}
		_, err = tx.Exec(
			`INSERT INTO disagreements (run_id, post_id, category, labels) VALUES (?, ?, ?, ?)`,
			runID, d.PostID, d.Category, string(labels),
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("inserting disagreement for %s: %w", d.PostID, err)
		}
	}
	return tx.Commit()
}

// GetDisagreements returns the stored disagreements for a run.
func (db *DB) GetDisagreements(runID string) ([]DisagreementRow, error) {
	rows, err := db.conn.Query(
		`SELECT run_id, post_id, category, labels
		 FROM disagreements WHERE run_id = ? ORDER BY post_id, category`, runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DisagreementRow
	for rows.Next() {
		var d DisagreementRow
		var labels string
		if err := rows.Scan(&d.RunID, &d.PostID, &d.Category, &labels); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(labels), &d.Labels); err != nil {
			return nil, fmt.Errorf("decoding labels for %s: %w", d.PostID, err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// SaveVerdicts replaces the stored consensus verdicts for a run.
func (db *DB) SaveVerdicts(runID string, rows []VerdictRow) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM consensus_verdicts WHERE run_id = ?`, runID); err != nil {
		tx.Rollback()
		return err
	}
	for _, v := range rows {
		votes, err := json.Marshal(v.Votes)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("encoding votes for %s: %w", v.PostID, err)
		}
		_, err = tx.Exec(
			`INSERT INTO consensus_verdicts (run_id, post_id, category, verdict, confidence, votes)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			runID, v.PostID, v.Category, v.Verdict, v.Confidence, string(votes),
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("inserting verdict for %s: %w", v.PostID, err)
		}
	}
	return tx.Commit()
}

// GetVerdicts returns the stored consensus verdicts for a run.
func (db *DB) GetVerdicts(runID string) ([]VerdictRow, error) {
	rows, err := db.conn.Query(
		`SELECT run_id, post_id, category, verdict, confidence, votes
		 FROM consensus_verdicts WHERE run_id = ? ORDER BY post_id, category`, runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []VerdictRow
	for rows.Next() {
		var v VerdictRow
		var votes string
		if err := rows.Scan(&v.RunID, &v.PostID, &v.Category, &v.Verdict, &v.Confidence, &votes); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(votes), &v.Votes); err != nil {
			return nil, fmt.Errorf("decoding votes for %s: %w", v.PostID, err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// SaveEvaluationResults replaces the stored evaluation rows for a run.
func (db *DB) SaveEvaluationResults(runID string, results []EvaluationResult) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM evaluation_results WHERE run_id = ?`, runID); err != nil {
		tx.Rollback()
		return err
	}
	for _, r := range results {
		_, err := tx.Exec(
			`INSERT INTO evaluation_results
			 (run_id, category, pooled, strategy, correct, incorrect, uncertain, no_data,
			  posts, evaluated, accuracy, error_rate)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, r.Category, r.Pooled, r.Strategy, r.Correct, r.Incorrect, r.Uncertain,
			r.NoData, r.Posts, r.Evaluated, r.Accuracy, r.ErrorRate,
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("inserting evaluation result for %s: %w", r.Category, err)
		}
	}
	return tx.Commit()
}

// GetEvaluationResults returns the stored evaluation rows for a run, the
// pooled overall row last.
func (db *DB) GetEvaluationResults(runID string) ([]EvaluationResult, error) {
	rows, err := db.conn.Query(
		`SELECT run_id, category, pooled, strategy, correct, incorrect, uncertain, no_data,
		        posts, evaluated, accuracy, error_rate
		 FROM evaluation_results WHERE run_id = ? ORDER BY pooled, category`, runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []EvaluationResult
	for rows.Next() {
		var r EvaluationResult
		if err := rows.Scan(&r.RunID, &r.Category, &r.Pooled, &r.Strategy, &r.Correct,
			&r.Incorrect, &r.Uncertain, &r.NoData, &r.Posts, &r.Evaluated,
			&r.Accuracy, &r.ErrorRate); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// SaveProblemPosts replaces the stored problem posts for a run.
func (db *DB) SaveProblemPosts(runID string, rows []ProblemPostRow) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM problem_posts WHERE run_id = ?`, runID); err != nil {
		tx.Rollback()
		return err
	}
	for _, p := range rows {
		_, err := tx.Exec(
			`INSERT INTO problem_posts (run_id, post_id, errors, total, error_rate)
			 VALUES (?, ?, ?, ?, ?)`,
			runID, p.PostID, p.Errors, p.Total, p.ErrorRate,
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("inserting problem post %s: %w", p.PostID, err)
		}
	}
	return tx.Commit()
}

// GetProblemPosts returns the stored problem posts for a run, worst first.
func (db *DB) GetProblemPosts(runID string) ([]ProblemPostRow, error) {
	rows, err := db.conn.Query(
		`SELECT run_id, post_id, errors, total, error_rate
		 FROM problem_posts WHERE run_id = ? ORDER BY error_rate DESC, post_id`, runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ProblemPostRow
	for rows.Next() {
		var p ProblemPostRow
		if err := rows.Scan(&p.RunID, &p.PostID, &p.Errors, &p.Total, &p.ErrorRate); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
