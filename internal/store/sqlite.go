// Package store persists the interactive session's state: the problem the
// user last selected and the summaries of finished benchmark runs.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"

	_ "modernc.org/sqlite"
)

const createSelectionTable = `
CREATE TABLE IF NOT EXISTS selection (
    slot        TEXT PRIMARY KEY,
    problem_id  INTEGER NOT NULL,
    updated_at  DATETIME NOT NULL
)`

const createBenchmarksTable = `
CREATE TABLE IF NOT EXISTS benchmarks (
    id          TEXT PRIMARY KEY,
    problem_id  INTEGER NOT NULL,
    answer      TEXT NOT NULL,
    iterations  INTEGER NOT NULL,
    mean_ns     REAL NOT NULL,
    stddev_ns   REAL,
    created_at  DATETIME NOT NULL
)`

const createBenchmarksIndex = `
CREATE INDEX IF NOT EXISTS idx_benchmarks_problem ON benchmarks (problem_id, created_at)`

const currentSlot = "current"

// ErrNotFound is returned when no selection has been stored yet.
var ErrNotFound = errors.New("selection not found")

// BenchmarkRecord summarizes one finished benchmark run.
type BenchmarkRecord struct {
	ID          string    `json:"id"`
	ProblemID   int       `json:"problemId"`
	Answer      string    `json:"answer"`
	Iterations  int       `json:"iterations"`
	MeanNanos   float64   `json:"meanNanos"`
	StdDevNanos *float64  `json:"stddevNanos,omitempty"` // nil below two samples
	CreatedAt   time.Time `json:"createdAt"`
}

// Store is the persistence API used by the controller and the HTTP server.
type Store interface {
	LoadSelection(ctx context.Context) (int, error)
	SaveSelection(ctx context.Context, problemID int) error
	SaveBenchmark(ctx context.Context, rec *BenchmarkRecord) error
	ListBenchmarks(ctx context.Context, problemID, limit int) ([]BenchmarkRecord, error)
	Close() error
}

// Compile-time interface satisfaction check.
var _ Store = (*SQLiteStore)(nil)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens the SQLite database at dbPath, creating parent
// directories as needed, and runs migrations. ":memory:" is accepted.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create state directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	for _, stmt := range []struct{ name, sql string }{
		{"set WAL mode", "PRAGMA journal_mode=WAL"},
		{"set busy timeout", "PRAGMA busy_timeout = 5000"},
		{"create selection table", createSelectionTable},
		{"create benchmarks table", createBenchmarksTable},
		{"create benchmarks index", createBenchmarksIndex},
	} {
		if _, err := db.Exec(stmt.sql); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", stmt.name, err)
		}
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// LoadSelection returns the last selected problem id, or ErrNotFound.
func (s *SQLiteStore) LoadSelection(ctx context.Context) (int, error) {
	var id int
	err := s.db.QueryRowContext(ctx,
		`SELECT problem_id FROM selection WHERE slot = ?`, currentSlot,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("load selection: %w", err)
	}
	return id, nil
}

// SaveSelection records problemID as the current selection.
func (s *SQLiteStore) SaveSelection(ctx context.Context, problemID int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO selection (slot, problem_id, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET problem_id = excluded.problem_id, updated_at = excluded.updated_at`,
		currentSlot, problemID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save selection: %w", err)
	}
	return nil
}

// SaveBenchmark inserts rec, filling in ID and CreatedAt when empty.
func (s *SQLiteStore) SaveBenchmark(ctx context.Context, rec *BenchmarkRecord) error {
	if rec.ID == "" {
		rec.ID = ulid.Make().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO benchmarks (id, problem_id, answer, iterations, mean_ns, stddev_ns, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.ProblemID, rec.Answer, rec.Iterations, rec.MeanNanos, rec.StdDevNanos, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert benchmark: %w", err)
	}
	return nil
}

// ListBenchmarks returns up to limit runs of problemID, newest first.
// A limit of zero or less returns every run.
func (s *SQLiteStore) ListBenchmarks(ctx context.Context, problemID, limit int) ([]BenchmarkRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, problem_id, answer, iterations, mean_ns, stddev_ns, created_at
		FROM benchmarks WHERE problem_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		problemID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list benchmarks: %w", err)
	}
	defer rows.Close()

	var out []BenchmarkRecord
	for rows.Next() {
		var (
			rec    BenchmarkRecord
			stddev sql.NullFloat64
		)
		if err := rows.Scan(&rec.ID, &rec.ProblemID, &rec.Answer, &rec.Iterations,
			&rec.MeanNanos, &stddev, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan benchmark: %w", err)
		}
		if stddev.Valid {
			v := stddev.Float64
			rec.StdDevNanos = &v
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate benchmarks: %w", err)
	}
	return out, nil
}
