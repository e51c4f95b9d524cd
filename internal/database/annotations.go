package database

import (
	"fmt"

	"github.com/clearlabel/agreekit/internal/annotation"
)

// InsertRecords stores the raw annotations and model predictions for a
// run in one transaction. Predictions are keyed per post, so duplicates
// from later annotator files are ignored.
func (db *DB) InsertRecords(runID string, records []annotation.Record) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}

	annStmt, err := tx.Prepare(
		`INSERT OR REPLACE INTO annotations (run_id, post_id, annotator_id, category, raw_label)
		 VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer annStmt.Close()

	predStmt, err := tx.Prepare(
		`INSERT OR IGNORE INTO predictions (run_id, post_id, category, prediction)
		 VALUES (?, ?, ?, ?)`,
	)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer predStmt.Close()

	for _, rec := range records {
		for cat, raw := range rec.Feedback {
			if _, err := annStmt.Exec(runID, rec.PostID, rec.AnnotatorID, string(cat), raw); err != nil {
				tx.Rollback()
				return fmt.Errorf("inserting annotation for %s: %w", rec.PostID, err)
			}
		}
		for cat, pred := range rec.Predictions {
			if _, err := predStmt.Exec(runID, rec.PostID, string(cat), pred); err != nil {
				tx.Rollback()
				return fmt.Errorf("inserting prediction for %s: %w", rec.PostID, err)
			}
		}
	}

	return tx.Commit()
}

// GetRecords reconstructs the annotation records for a run, one record
// per (post, annotator), in stable post-then-annotator order.
func (db *DB) GetRecords(runID string) ([]annotation.Record, error) {
	rows, err := db.conn.Query(
		`SELECT post_id, annotator_id, category, raw_label
		 FROM annotations WHERE run_id = ?
		 ORDER BY post_id, annotator_id, category`, runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []annotation.Record
	index := make(map[string]int) // post_id + "\x00" + annotator_id

	for rows.Next() {
		var post, annotator, cat, raw string
		if err := rows.Scan(&post, &annotator, &cat, &raw); err != nil {
			return nil, err
		}

		key := post + "\x00" + annotator
		i, ok := index[key]
		if !ok {
			i = len(records)
			index[key] = i
			records = append(records, annotation.Record{
				PostID:      post,
				AnnotatorID: annotator,
				Feedback:    make(map[annotation.Category]string),
				Predictions: make(map[annotation.Category]string),
			})
		}
		records[i].Feedback[annotation.Category(cat)] = raw
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	preds, err := db.GetPredictions(runID)
	if err != nil {
		return nil, err
	}
	for i := range records {
		for cat, pred := range preds[records[i].PostID] {
			records[i].Predictions[cat] = pred
		}
	}
	return records, nil
}

// GetPredictions returns the model predictions for a run, keyed by post
// then category.
func (db *DB) GetPredictions(runID string) (map[string]map[annotation.Category]string, error) {
	rows, err := db.conn.Query(
		`SELECT post_id, category, prediction FROM predictions WHERE run_id = ?`, runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]map[annotation.Category]string)
	for rows.Next() {
		var post, cat, pred string
		if err := rows.Scan(&post, &cat, &pred); err != nil {
			return nil, err
		}
		if out[post] == nil {
			out[post] = make(map[annotation.Category]string)
		}
		out[post][annotation.Category(cat)] = pred
	}
	return out, rows.Err()
}
