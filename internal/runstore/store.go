// Package runstore records evaluation runs in SQLite.
package runstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/Osama-Zahid1/Predication-Protein-Model/internal/evaluation"
)

var ErrRunNotFound = errors.New("runstore: run not found")

const schema = `
CREATE TABLE IF NOT EXISTS evaluation_runs (
	run_id        TEXT PRIMARY KEY,
	model         TEXT NOT NULL,
	decision      TEXT NOT NULL,
	fingerprint   TEXT NOT NULL,
	classes       INTEGER NOT NULL,
	samples       INTEGER NOT NULL,
	metrics_json  TEXT NOT NULL,
	thresholds    TEXT,
	created_at    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_evaluation_runs_model ON evaluation_runs (model, created_at);
`

// Run is one evaluated (model, decision) pair on the test split.
type Run struct {
	ID          string
	Model       string
	Decision    string
	Fingerprint string
	Classes     int
	Samples     int
	Metrics     evaluation.MetricsReport
	Thresholds  evaluation.ThresholdVector
	CreatedAt   time.Time
}

// Store manages evaluation history in SQLite.
type Store struct {
	db *sql.DB
}

// Open opens a SQLite database and runs migrations.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores run under a new id and returns it with ID and CreatedAt set.
func (s *Store) Record(ctx context.Context, run Run) (Run, error) {
	run.ID = uuid.New().String()
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	metricsJSON, err := sonic.MarshalString(run.Metrics)
	if err != nil {
		return Run{}, fmt.Errorf("marshal metrics: %w", err)
	}
	var thresholds any
	if run.Thresholds != nil {
		raw, err := sonic.MarshalString(run.Thresholds)
		if err != nil {
			return Run{}, fmt.Errorf("marshal thresholds: %w", err)
		}
		thresholds = raw
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO evaluation_runs (run_id, model, decision, fingerprint, classes, samples, metrics_json, thresholds, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Model, run.Decision, run.Fingerprint, run.Classes, run.Samples,
		metricsJSON, thresholds, run.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

const selectRun = `SELECT run_id, model, decision, fingerprint, classes, samples, metrics_json, thresholds, created_at
	FROM evaluation_runs`

func (s *Store) Get(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, selectRun+` WHERE run_id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, err
}

// List returns the most recent runs, newest first. An empty model lists every
// model; a non-positive limit returns all rows.
func (s *Store) List(ctx context.Context, model string, limit int) ([]Run, error) {
	query := selectRun
	var args []any
	if model != "" {
		query += ` WHERE model = ?`
		args = append(args, model)
	}
	query += ` ORDER BY created_at DESC, rowid DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		run         Run
		metricsJSON string
		thresholds  sql.NullString
		createdAt   string
	)
	if err := sc.Scan(&run.ID, &run.Model, &run.Decision, &run.Fingerprint, &run.Classes, &run.Samples,
		&metricsJSON, &thresholds, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}

	if err := sonic.UnmarshalString(metricsJSON, &run.Metrics); err != nil {
		return Run{}, fmt.Errorf("unmarshal metrics of %s: %w", run.ID, err)
	}
	if thresholds.Valid {
		if err := sonic.UnmarshalString(thresholds.String, &run.Thresholds); err != nil {
			return Run{}, fmt.Errorf("unmarshal thresholds of %s: %w", run.ID, err)
		}
	}
	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return Run{}, fmt.Errorf("parse created_at of %s: %w", run.ID, err)
	}
	run.CreatedAt = t
	return run, nil
}
