package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// sqliteTime is fixed-width so that text order is time order.
const sqliteTime = "2006-01-02T15:04:05.000000000Z"

// SQLiteStore implements Store using SQLite
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store and applies migrations
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) migrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			variants TEXT NOT NULL,
			benchmarks INTEGER NOT NULL,
			document TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);`,
	}
	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run Run) error {
	query := `INSERT INTO runs (id, created_at, variants, benchmarks, document) VALUES (?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		run.ID, run.CreatedAt.UTC().Format(sqliteTime), joinVariants(run.Variants), run.Benchmarks, string(run.Document))
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", run.ID, err)
	}
	return nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT id, created_at, variants, benchmarks FROM runs ORDER BY created_at DESC, id LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run      Run
			created  string
			variants string
		)
		if err := rows.Scan(&run.ID, &created, &variants, &run.Benchmarks); err != nil {
			return nil, err
		}
		if run.CreatedAt, err = time.Parse(sqliteTime, created); err != nil {
			return nil, fmt.Errorf("run %s: bad timestamp %q: %w", run.ID, created, err)
		}
		run.Variants = splitVariants(variants)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *SQLiteStore) GetRun(ctx context.Context, id string) (Run, error) {
	if err := validID(id); err != nil {
		return Run{}, err
	}

	query := `SELECT id, created_at, variants, benchmarks, document FROM runs WHERE id = ?`
	var (
		run      Run
		created  string
		variants string
		doc      string
	)
	err := s.db.QueryRowContext(ctx, query, id).Scan(&run.ID, &created, &variants, &run.Benchmarks, &doc)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Run{}, fmt.Errorf("failed to load run %s: %w", id, err)
	}
	if run.CreatedAt, err = time.Parse(sqliteTime, created); err != nil {
		return Run{}, fmt.Errorf("run %s: bad timestamp %q: %w", id, created, err)
	}
	run.Variants = splitVariants(variants)
	run.Document = []byte(doc)
	return run, nil
}
