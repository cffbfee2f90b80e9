package leaderboard

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/stellarlinkco/finbench/internal/metrics"
)

const defaultLimit = 50

type Store struct {
	db *sql.DB
}

// Entry is one leaderboard row. At most one entry per (model, split) is
// current; superseded and smaller-sample submissions stay behind as
// versioned history.
type Entry struct {
	ID              int64     `json:"id"`
	Model           string    `json:"model"`
	Split           string    `json:"split"`
	Version         int       `json:"version"`
	Current         bool      `json:"current"`
	Accuracy        float64   `json:"accuracy"`
	MedianLatencyMs int64     `json:"median_latency_ms"`
	SampleSize      int       `json:"sample_size"`
	Unscored        int       `json:"unscored"`
	SubmittedAt     time.Time `json:"submitted_at"`
}

func NewStore(dbPath string) (*Store, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, errors.New("leaderboard: empty db path")
	}

	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("leaderboard: create db dir: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: open db: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("leaderboard: ping db: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func initSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("leaderboard: nil db")
	}

	stmts := []string{
		`PRAGMA foreign_keys = ON`,
		`PRAGMA journal_mode = WAL`,
		`CREATE TABLE IF NOT EXISTS leaderboard_entries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			model TEXT NOT NULL,
			split TEXT NOT NULL,
			version INTEGER NOT NULL,
			current INTEGER NOT NULL DEFAULT 0,
			accuracy REAL NOT NULL,
			median_latency_ms INTEGER NOT NULL,
			sample_size INTEGER NOT NULL,
			unscored INTEGER NOT NULL,
			submitted_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_leaderboard_split_current ON leaderboard_entries(split, current)`,
		`CREATE INDEX IF NOT EXISTS idx_leaderboard_model_split ON leaderboard_entries(model, split)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("leaderboard: init schema: %w", err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Submit records a report for a model. The new submission becomes the
// current entry for (model, split) only when its sample size is at
// least the current entry's; otherwise it is stored as a non-current
// historical version. Nothing is ever overwritten or dropped.
func (s *Store) Submit(ctx context.Context, model string, rep *metrics.Report) (*Entry, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("leaderboard: nil store")
	}
	if ctx == nil {
		return nil, errors.New("leaderboard: nil context")
	}
	if rep == nil {
		return nil, errors.New("leaderboard: nil report")
	}

	model = strings.TrimSpace(model)
	split := strings.TrimSpace(rep.Split)
	if model == "" || split == "" {
		return nil, errors.New("leaderboard: missing model/split")
	}

	submittedAt := rep.Timestamp
	if submittedAt.IsZero() {
		submittedAt = time.Now().UTC()
	}

	entry := &Entry{
		Model:           model,
		Split:           split,
		Accuracy:        rep.Accuracy,
		MedianLatencyMs: rep.Latency.P50Ms,
		SampleSize:      rep.Total,
		Unscored:        rep.Unscored,
		SubmittedAt:     submittedAt.UTC(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var maxVersion int
	var currentSample sql.NullInt64
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(version), 0),
		       (SELECT sample_size FROM leaderboard_entries WHERE model = ? AND split = ? AND current = 1)
		FROM leaderboard_entries
		WHERE model = ? AND split = ?
	`, model, split, model, split).Scan(&maxVersion, &currentSample)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: query versions: %w", err)
	}

	entry.Version = maxVersion + 1
	entry.Current = !currentSample.Valid || int64(entry.SampleSize) >= currentSample.Int64

	if entry.Current && currentSample.Valid {
		if _, err := tx.ExecContext(ctx, `
			UPDATE leaderboard_entries SET current = 0 WHERE model = ? AND split = ? AND current = 1
		`, model, split); err != nil {
			return nil, fmt.Errorf("leaderboard: demote current entry: %w", err)
		}
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO leaderboard_entries (
			model, split, version, current, accuracy, median_latency_ms, sample_size, unscored, submitted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.Model, entry.Split, entry.Version, boolToInt(entry.Current), entry.Accuracy,
		entry.MedianLatencyMs, entry.SampleSize, entry.Unscored, entry.SubmittedAt.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("leaderboard: insert entry: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		entry.ID = id
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("leaderboard: commit: %w", err)
	}
	return entry, nil
}

// Ranked returns the current entries for a split ordered by accuracy
// descending, then lower median latency, then earlier submission.
func (s *Store) Ranked(ctx context.Context, split string, limit int) ([]Entry, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("leaderboard: nil store")
	}
	if ctx == nil {
		return nil, errors.New("leaderboard: nil context")
	}
	split = strings.TrimSpace(split)
	if split == "" {
		return nil, errors.New("leaderboard: empty split")
	}
	if limit <= 0 {
		limit = defaultLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, model, split, version, current, accuracy, median_latency_ms, sample_size, unscored, submitted_at
		FROM leaderboard_entries
		WHERE split = ? AND current = 1
		ORDER BY accuracy DESC, median_latency_ms ASC, submitted_at ASC
		LIMIT ?
	`, split, limit)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: query ranked: %w", err)
	}
	defer rows.Close()

	return scanRows(rows)
}

// History returns every stored version for a model and split, newest
// version first.
func (s *Store) History(ctx context.Context, model, split string) ([]Entry, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("leaderboard: nil store")
	}
	if ctx == nil {
		return nil, errors.New("leaderboard: nil context")
	}
	model = strings.TrimSpace(model)
	split = strings.TrimSpace(split)
	if model == "" || split == "" {
		return nil, errors.New("leaderboard: missing model/split")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, model, split, version, current, accuracy, median_latency_ms, sample_size, unscored, submitted_at
		FROM leaderboard_entries
		WHERE model = ? AND split = ?
		ORDER BY version DESC
	`, model, split)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: query model history: %w", err)
	}
	defer rows.Close()

	return scanRows(rows)
}

func scanRows(rows *sql.Rows) ([]Entry, error) {
	var out []Entry
	for rows.Next() {
		var e Entry
		var current int
		var submittedMS int64
		if err := rows.Scan(
			&e.ID,
			&e.Model,
			&e.Split,
			&e.Version,
			&current,
			&e.Accuracy,
			&e.MedianLatencyMs,
			&e.SampleSize,
			&e.Unscored,
			&submittedMS,
		); err != nil {
			return nil, fmt.Errorf("leaderboard: scan entry: %w", err)
		}
		e.Current = current != 0
		e.SubmittedAt = time.UnixMilli(submittedMS).UTC()
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("leaderboard: scan rows: %w", err)
	}
	return out, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
