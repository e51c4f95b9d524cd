package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// InsertRun stores a new run row.
func (db *DB) InsertRun(run *Run) error {
	files, err := json.Marshal(run.SourceFiles)
	if err != nil {
		return fmt.Errorf("encoding source files: %w", err)
	}
	_, err = db.conn.Exec(
		`INSERT INTO runs (id, annotators, posts, warnings, source_files) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Annotators, run.Posts, run.Warnings, string(files),
	)
	return err
}

// GetRun returns a run by ID, or nil if it does not exist.
func (db *DB) GetRun(id string) (*Run, error) {
	row := db.conn.QueryRow(
		`SELECT id, created_at, annotators, posts, warnings, source_files FROM runs WHERE id = ?`, id,
	)
	return scanRun(row)
}

// GetLatestRun returns the most recent run, or nil when none exist.
func (db *DB) GetLatestRun() (*Run, error) {
	row := db.conn.QueryRow(
		`SELECT id, created_at, annotators, posts, warnings, source_files
		 FROM runs ORDER BY created_at DESC, id DESC LIMIT 1`,
	)
	return scanRun(row)
}

// ListRuns returns all runs, newest first.
func (db *DB) ListRuns() ([]Run, error) {
	rows, err := db.conn.Query(
		`SELECT id, created_at, annotators, posts, warnings, source_files
		 FROM runs ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var files string
		if err := rows.Scan(&r.ID, &r.CreatedAt, &r.Annotators, &r.Posts, &r.Warnings, &files); err != nil {
			return nil, err
		}
		if files != "" {
			json.Unmarshal([]byte(files), &r.SourceFiles)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func scanRun(row *sql.Row) (*Run, error) {
	var r Run
	var files string
	if err := row.Scan(&r.ID, &r.CreatedAt, &r.Annotators, &r.Posts, &r.Warnings, &files); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if files != "" {
		json.Unmarshal([]byte(files), &r.SourceFiles)
	}
	return &r, nil
}

// GetStats returns aggregate counts for the status command.
func (db *DB) GetStats() (*Stats, error) {
	stats := &Stats{}

	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&stats.Runs); err != nil {
		return nil, err
	}
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM annotations`).Scan(&stats.Annotations); err != nil {
		return nil, err
	}
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM consensus_verdicts`).Scan(&stats.Verdicts); err != nil {
		return nil, err
	}

	last, err := db.GetLatestRun()
	if err != nil {
		return nil, err
	}
	if last != nil {
		stats.LastRunID = last.ID
		stats.LastRunAt = last.CreatedAt
	}
	return stats, nil
}
