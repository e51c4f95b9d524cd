package database

import "database/sql"

// Migration represents a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "initial schema",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    created_at TEXT DEFAULT (datetime('now')),
    annotators INTEGER DEFAULT 0,
    posts INTEGER DEFAULT 0,
    warnings INTEGER DEFAULT 0,
    source_files TEXT
);

CREATE TABLE IF NOT EXISTS annotations (
    run_id TEXT NOT NULL REFERENCES runs(id),
    post_id TEXT NOT NULL,
    annotator_id TEXT NOT NULL,
    category TEXT NOT NULL,
    raw_label TEXT NOT NULL,
    PRIMARY KEY (run_id, post_id, annotator_id, category)
);

CREATE TABLE IF NOT EXISTS predictions (
    run_id TEXT NOT NULL REFERENCES runs(id),
    post_id TEXT NOT NULL,
    category TEXT NOT NULL,
    prediction TEXT NOT NULL,
    PRIMARY KEY (run_id, post_id, category)
);

CREATE TABLE IF NOT EXISTS agreement_results (
    run_id TEXT NOT NULL REFERENCES runs(id),
    category TEXT NOT NULL,
    pooled INTEGER NOT NULL DEFAULT 0,
    method TEXT NOT NULL,
    raters INTEGER NOT NULL,
    posts INTEGER NOT NULL,
    kappa REAL,
    raw_agreement REAL,
    band TEXT NOT NULL,
    cause TEXT,
    PRIMARY KEY (run_id, category, pooled)
);

CREATE TABLE IF NOT EXISTS disagreements (
    run_id TEXT NOT NULL REFERENCES runs(id),
    post_id TEXT NOT NULL,
    category TEXT NOT NULL,
    labels TEXT NOT NULL,
    PRIMARY KEY (run_id, post_id, category)
);

CREATE TABLE IF NOT EXISTS consensus_verdicts (
    run_id TEXT NOT NULL REFERENCES runs(id),
    post_id TEXT NOT NULL,
    category TEXT NOT NULL,
    verdict TEXT NOT NULL,
    confidence REAL,
    votes TEXT NOT NULL,
    PRIMARY KEY (run_id, post_id, category)
);

CREATE TABLE IF NOT EXISTS evaluation_results (
    run_id TEXT NOT NULL REFERENCES runs(id),
    category TEXT NOT NULL,
    pooled INTEGER NOT NULL DEFAULT 0,
    strategy TEXT NOT NULL,
    correct INTEGER DEFAULT 0,
    incorrect INTEGER DEFAULT 0,
    uncertain INTEGER DEFAULT 0,
    no_data INTEGER DEFAULT 0,
    posts INTEGER DEFAULT 0,
    evaluated INTEGER DEFAULT 0,
    accuracy REAL DEFAULT 0,
    error_rate REAL DEFAULT 0,
    PRIMARY KEY (run_id, category, pooled)
);

CREATE TABLE IF NOT EXISTS problem_posts (
    run_id TEXT NOT NULL REFERENCES runs(id),
    post_id TEXT NOT NULL,
    errors INTEGER NOT NULL,
    total INTEGER NOT NULL,
    error_rate REAL NOT NULL,
    PRIMARY KEY (run_id, post_id)
);

CREATE INDEX IF NOT EXISTS idx_annotations_run ON annotations(run_id);
CREATE INDEX IF NOT EXISTS idx_predictions_run ON predictions(run_id);
CREATE INDEX IF NOT EXISTS idx_disagreements_run ON disagreements(run_id);
CREATE INDEX IF NOT EXISTS idx_verdicts_run ON consensus_verdicts(run_id);
`)
			return err
		},
	},
}

// latestVersion returns the highest migration version number.
func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}
