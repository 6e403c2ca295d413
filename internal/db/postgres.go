package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
)

// PostgresStore implements Store using PostgreSQL
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store and applies migrations
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

func (s *PostgresStore) migrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id UUID PRIMARY KEY,
			created_at TIMESTAMPTZ NOT NULL,
			variants TEXT NOT NULL,
			benchmarks INTEGER NOT NULL,
			document JSONB NOT NULL
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
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) SaveRun(ctx context.Context, run Run) error {
	query := `INSERT INTO runs (id, created_at, variants, benchmarks, document) VALUES ($1, $2, $3, $4, $5)`
	_, err := s.db.ExecContext(ctx, query,
		run.ID, run.CreatedAt.UTC(), joinVariants(run.Variants), run.Benchmarks, string(run.Document))
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", run.ID, err)
	}
	return nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT id, created_at, variants, benchmarks FROM runs ORDER BY created_at DESC, id LIMIT $1`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run      Run
			variants string
		)
		if err := rows.Scan(&run.ID, &run.CreatedAt, &variants, &run.Benchmarks); err != nil {
			return nil, err
		}
		run.Variants = splitVariants(variants)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *PostgresStore) GetRun(ctx context.Context, id string) (Run, error) {
	if err := validID(id); err != nil {
		return Run{}, err
	}

	query := `SELECT id, created_at, variants, benchmarks, document FROM runs WHERE id = $1`
	var (
		run      Run
		variants string
		doc      string
	)
	err := s.db.QueryRowContext(ctx, query, id).Scan(&run.ID, &run.CreatedAt, &variants, &run.Benchmarks, &doc)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Run{}, fmt.Errorf("failed to load run %s: %w", id, err)
	}
	run.Variants = splitVariants(variants)
	run.Document = []byte(doc)
	return run, nil
}
