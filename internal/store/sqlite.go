package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/stellarlinkco/finbench/internal/metrics"
)

const defaultListLimit = 50

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB

	insertRunStmt    *sql.Stmt
	insertResultStmt *sql.Stmt
	getRunStmt       *sql.Stmt
	resultsByRunStmt *sql.Stmt
}

var (
	sqliteOpen              = sql.Open
	sqlitePrepareStatements = (*SQLiteStore).prepareStatements
)

// NewSQLiteStore opens or creates a SQLite store at the given path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("store: empty sqlite path")
	}
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("store: create sqlite dir: %w", err)
			}
		}
	}

	db, err := sqliteOpen("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: ping sqlite: %w", err)
	}

	if err := initSQLiteSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	st := &SQLiteStore{db: db}
	if err := sqlitePrepareStatements(st); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

func initSQLiteSchema(db *sql.DB) error {
	stmts := []string{
		`PRAGMA foreign_keys = ON`,
		`PRAGMA journal_mode = WAL`,
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			model TEXT NOT NULL,
			split TEXT NOT NULL,
			started_at INTEGER NOT NULL,
			finished_at INTEGER NOT NULL,
			total INTEGER NOT NULL,
			correct INTEGER NOT NULL,
			incorrect INTEGER NOT NULL,
			unscored INTEGER NOT NULL,
			errors INTEGER NOT NULL,
			accuracy REAL NOT NULL,
			report_json TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS run_results (
			run_id TEXT NOT NULL,
			problem_id TEXT NOT NULL,
			category TEXT NOT NULL,
			difficulty TEXT NOT NULL,
			outcome TEXT NOT NULL,
			score REAL NOT NULL,
			extracted TEXT,
			response TEXT,
			latency_ms INTEGER NOT NULL,
			input_tokens INTEGER NOT NULL,
			output_tokens INTEGER NOT NULL,
			error TEXT,
			PRIMARY KEY (run_id, problem_id),
			FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_model_split ON runs(model, split)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,
		`CREATE INDEX IF NOT EXISTS idx_run_results_run_id ON run_results(run_id)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("store: init schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) prepareStatements() error {
	if s == nil || s.db == nil {
		return errors.New("store: nil sqlite store")
	}

	ctx := context.Background()
	type stmtSpec struct {
		dst    **sql.Stmt
		query  string
		errFmt string
	}

	specs := []stmtSpec{
		{
			dst: &s.insertRunStmt,
			query: `
				INSERT INTO runs (
					id, model, split, started_at, finished_at, total, correct, incorrect, unscored, errors, accuracy, report_json
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`,
			errFmt: "store: prepare insert run: %w",
		},
		{
			dst: &s.insertResultStmt,
			query: `
				INSERT INTO run_results (
					run_id, problem_id, category, difficulty, outcome, score, extracted, response,
					latency_ms, input_tokens, output_tokens, error
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`,
			errFmt: "store: prepare insert result: %w",
		},
		{
			dst: &s.getRunStmt,
			query: `
				SELECT id, model, split, started_at, finished_at, total, correct, incorrect, unscored, errors, accuracy, report_json
				FROM runs WHERE id = ?
			`,
			errFmt: "store: prepare get run: %w",
		},
		{
			dst: &s.resultsByRunStmt,
			query: `
				SELECT problem_id, category, difficulty, outcome, score, extracted, response,
					latency_ms, input_tokens, output_tokens, error
				FROM run_results
				WHERE run_id = ?
				ORDER BY problem_id ASC
			`,
			errFmt: "store: prepare get results: %w",
		},
	}

	for _, spec := range specs {
		stmt, err := s.db.PrepareContext(ctx, spec.query)
		if err != nil {
			return fmt.Errorf(spec.errFmt, err)
		}
		*spec.dst = stmt
	}

	return nil
}

// Close releases database resources.
func (s *SQLiteStore) Close() error {
	if s == nil {
		return nil
	}
	stmts := []*sql.Stmt{
		s.insertRunStmt,
		s.insertResultStmt,
		s.getRunStmt,
		s.resultsByRunStmt,
	}
	for _, stmt := range stmts {
		if stmt != nil {
			_ = stmt.Close()
		}
	}
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveRun persists a run summary.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *RunRecord) error {
	if s == nil {
		return errors.New("store: nil sqlite store")
	}
	if ctx == nil {
		return errors.New("store: nil context")
	}
	if run == nil {
		return errors.New("store: nil run")
	}

	id := strings.TrimSpace(run.ID)
	if id == "" {
		return errors.New("store: empty run id")
	}
	if strings.TrimSpace(run.Model) == "" || strings.TrimSpace(run.Split) == "" {
		return errors.New("store: missing run model/split")
	}
	if run.StartedAt.IsZero() || run.FinishedAt.IsZero() {
		return errors.New("store: missing run timestamps")
	}

	reportJSON := []byte("null")
	if run.Report != nil {
		var err error
		reportJSON, err = json.Marshal(run.Report)
		if err != nil {
			return fmt.Errorf("store: marshal run report: %w", err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin run tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt := tx.StmtContext(ctx, s.insertRunStmt)
	defer stmt.Close()

	_, err = stmt.ExecContext(
		ctx,
		id,
		run.Model,
		run.Split,
		run.StartedAt.UTC().UnixMilli(),
		run.FinishedAt.UTC().UnixMilli(),
		run.Total,
		run.Correct,
		run.Incorrect,
		run.Unscored,
		run.Errors,
		run.Accuracy,
		string(reportJSON),
	)
	if err != nil {
		return fmt.Errorf("store: insert run: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit run: %w", err)
	}
	return nil
}

// SaveResults persists per-problem results for a run in one
// transaction.
func (s *SQLiteStore) SaveResults(ctx context.Context, runID string, results []ResultRecord) error {
	if s == nil {
		return errors.New("store: nil sqlite store")
	}
	if ctx == nil {
		return errors.New("store: nil context")
	}
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return errors.New("store: empty run id")
	}
	if len(results) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin results tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt := tx.StmtContext(ctx, s.insertResultStmt)
	defer stmt.Close()

	for _, r := range results {
		if strings.TrimSpace(r.ProblemID) == "" {
			return errors.New("store: result missing problem id")
		}
		if _, err := stmt.ExecContext(
			ctx,
			runID,
			r.ProblemID,
			string(r.Category),
			string(r.Difficulty),
			string(r.Outcome),
			r.Score,
			r.Extracted,
			r.Response,
			r.LatencyMs,
			r.InputTokens,
			r.OutputTokens,
			r.Error,
		); err != nil {
			return fmt.Errorf("store: insert result %s: %w", r.ProblemID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit results: %w", err)
	}
	return nil
}

// GetRun loads a run by id.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*RunRecord, error) {
	if s == nil {
		return nil, errors.New("store: nil sqlite store")
	}
	if ctx == nil {
		return nil, errors.New("store: nil context")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("store: empty run id")
	}

	row := s.getRunStmt.QueryRowContext(ctx, id)
	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("store: get run: %w", err)
	}
	return run, nil
}

// ListRuns returns runs matching the filter, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]*RunRecord, error) {
	if s == nil {
		return nil, errors.New("store: nil sqlite store")
	}
	if ctx == nil {
		return nil, errors.New("store: nil context")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	var sb strings.Builder
	sb.WriteString(`SELECT id, model, split, started_at, finished_at, total, correct, incorrect, unscored, errors, accuracy, report_json FROM runs WHERE 1=1`)

	var args []any
	if model := strings.TrimSpace(filter.Model); model != "" {
		sb.WriteString(` AND model = ?`)
		args = append(args, model)
	}
	if split := strings.TrimSpace(filter.Split); split != "" {
		sb.WriteString(` AND split = ?`)
		args = append(args, split)
	}
	if !filter.Since.IsZero() {
		sb.WriteString(` AND started_at >= ?`)
		args = append(args, filter.Since.UTC().UnixMilli())
	}
	if !filter.Until.IsZero() {
		sb.WriteString(` AND started_at <= ?`)
		args = append(args, filter.Until.UTC().UnixMilli())
	}
	sb.WriteString(` ORDER BY started_at DESC LIMIT ?`)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	defer rows.Close()

	var out []*RunRecord
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan run: %w", err)
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: scan runs: %w", err)
	}
	return out, nil
}

// GetResults returns every stored result for a run ordered by problem
// id.
func (s *SQLiteStore) GetResults(ctx context.Context, runID string) ([]ResultRecord, error) {
	if s == nil {
		return nil, errors.New("store: nil sqlite store")
	}
	if ctx == nil {
		return nil, errors.New("store: nil context")
	}
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return nil, errors.New("store: empty run id")
	}

	rows, err := s.resultsByRunStmt.QueryContext(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("store: get results: %w", err)
	}
	defer rows.Close()

	var out []ResultRecord
	for rows.Next() {
		var r ResultRecord
		var extracted, response, errText sql.NullString
		if err := rows.Scan(
			&r.ProblemID,
			&r.Category,
			&r.Difficulty,
			&r.Outcome,
			&r.Score,
			&extracted,
			&response,
			&r.LatencyMs,
			&r.InputTokens,
			&r.OutputTokens,
			&errText,
		); err != nil {
			return nil, fmt.Errorf("store: scan result: %w", err)
		}
		r.Extracted = extracted.String
		r.Response = response.String
		r.Error = errText.String
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: scan results: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*RunRecord, error) {
	var (
		run          RunRecord
		startedAtMS  int64
		finishedAtMS int64
		reportJSON   sql.NullString
	)
	if err := row.Scan(
		&run.ID,
		&run.Model,
		&run.Split,
		&startedAtMS,
		&finishedAtMS,
		&run.Total,
		&run.Correct,
		&run.Incorrect,
		&run.Unscored,
		&run.Errors,
		&run.Accuracy,
		&reportJSON,
	); err != nil {
		return nil, err
	}
	run.StartedAt = time.UnixMilli(startedAtMS).UTC()
	run.FinishedAt = time.UnixMilli(finishedAtMS).UTC()

	if reportJSON.Valid && reportJSON.String != "" && reportJSON.String != "null" {
		var rep metrics.Report
		if err := json.Unmarshal([]byte(reportJSON.String), &rep); err != nil {
			return nil, fmt.Errorf("decode report: %w", err)
		}
		run.Report = &rep
	}
	return &run, nil
}
