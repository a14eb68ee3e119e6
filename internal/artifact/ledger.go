// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package artifact

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/drift-engine/pkg/types"
)

const (
	indexDir = "index"
	dbFile   = "runs.db"
)

// Run statuses recorded in the ledger.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Ledger is the SQLite catalogue of runs and their artifacts. It is
// observability only: stage data flows through the YAML documents, the
// ledger just answers "which runs exist and how did they end".
type Ledger struct {
	db *sql.DB
}

// OpenLedger opens or creates the ledger database at
// stateDir/index/runs.db, creating the schema if needed.
func OpenLedger(cfg types.StoreConfig) (*Ledger, error) {
	stateDir := cfg.StateDir
	if stateDir == "" {
		stateDir = "state"
	}
	dbDir := filepath.Join(stateDir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening ledger database: %w", err)
	}

	l := &Ledger{db: db}
	if err := l.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating ledger schema: %w", err)
	}
	return l, nil
}

// Close releases the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

func (l *Ledger) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			status TEXT NOT NULL,
			failed_stage INTEGER,
			reason TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS artifacts (
			run_id TEXT NOT NULL REFERENCES runs(id),
			stage_index INTEGER NOT NULL,
			label TEXT NOT NULL,
			path TEXT NOT NULL,
			produced_at TEXT NOT NULL,
			PRIMARY KEY (run_id, stage_index)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_artifacts_run ON artifacts(run_id)`,
	}
	for _, stmt := range statements {
		if _, err := l.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// BeginRun records a new run in the running state.
func (l *Ledger) BeginRun(ctx context.Context, runID string, startedAt time.Time) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, status) VALUES (?, ?, ?)`,
		runID, startedAt.UTC().Format(time.RFC3339Nano), StatusRunning)
	if err != nil {
		return fmt.Errorf("recording run %s: %w", runID, err)
	}
	return nil
}

// RecordArtifact catalogues one written stage document.
func (l *Ledger) RecordArtifact(ctx context.Context, runID string, stage int, label, path string, producedAt time.Time) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO artifacts (run_id, stage_index, label, path, produced_at) VALUES (?, ?, ?, ?, ?)`,
		runID, stage, label, path, producedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("recording artifact %d-%s: %w", stage, label, err)
	}
	return nil
}

// CompleteRun marks a run completed.
func (l *Ledger) CompleteRun(ctx context.Context, runID string, finishedAt time.Time) error {
	return l.finishRun(ctx, runID, StatusCompleted, nil, "", finishedAt)
}

// FailRun marks a run failed at the given stage with the reason.
func (l *Ledger) FailRun(ctx context.Context, runID string, stage int, reason string, finishedAt time.Time) error {
	return l.finishRun(ctx, runID, StatusFailed, &stage, reason, finishedAt)
}

func (l *Ledger) finishRun(ctx context.Context, runID, status string, stage *int, reason string, finishedAt time.Time) error {
	var failedStage any
	if stage != nil {
		failedStage = *stage
	}
	_, err := l.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, status = ?, failed_stage = ?, reason = ? WHERE id = ?`,
		finishedAt.UTC().Format(time.RFC3339Nano), status, failedStage, reason, runID)
	if err != nil {
		return fmt.Errorf("finishing run %s: %w", runID, err)
	}
	return nil
}

// RunRecord is one row of the runs table.
type RunRecord struct {
	ID          string
	StartedAt   time.Time
	FinishedAt  time.Time
	Status      string
	FailedStage int
	Reason      string
}

// Runs lists all runs, most recent first.
func (l *Ledger) Runs(ctx context.Context) ([]RunRecord, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, status, failed_stage, reason
		 FROM runs ORDER BY started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var r RunRecord
		var started string
		var finished, reason sql.NullString
		var failedStage sql.NullInt64
		if err := rows.Scan(&r.ID, &started, &finished, &r.Status, &failedStage, &reason); err != nil {
			return nil, fmt.Errorf("scanning run row: %w", err)
		}
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		if finished.Valid {
			r.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished.String)
		}
		if failedStage.Valid {
			r.FailedStage = int(failedStage.Int64)
		} else {
			r.FailedStage = -1
		}
		r.Reason = reason.String
		records = append(records, r)
	}
	return records, rows.Err()
}

// ArtifactRecord is one row of the artifacts table.
type ArtifactRecord struct {
	RunID      string
	StageIndex int
	Label      string
	Path       string
	ProducedAt time.Time
}

// Artifacts lists a run's artifacts in stage order.
func (l *Ledger) Artifacts(ctx context.Context, runID string) ([]ArtifactRecord, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT run_id, stage_index, label, path, produced_at
		 FROM artifacts WHERE run_id = ? ORDER BY stage_index`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying artifacts: %w", err)
	}
	defer rows.Close()

	var records []ArtifactRecord
	for rows.Next() {
		var a ArtifactRecord
		var produced string
		if err := rows.Scan(&a.RunID, &a.StageIndex, &a.Label, &a.Path, &produced); err != nil {
			return nil, fmt.Errorf("scanning artifact row: %w", err)
		}
		a.ProducedAt, _ = time.Parse(time.RFC3339Nano, produced)
		records = append(records, a)
	}
	return records, rows.Err()
}

// LatestRun returns the most recently started run, or ok=false when
// the ledger is empty.
func (l *Ledger) LatestRun(ctx context.Context) (RunRecord, bool, error) {
	runs, err := l.Runs(ctx)
	if err != nil || len(runs) == 0 {
		return RunRecord{}, false, err
	}
	return runs[0], true, nil
}
