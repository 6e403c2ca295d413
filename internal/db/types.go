// Package db keeps a history of benchmark reports in SQL storage.
package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"zbench/internal/benchmark"
)

// ErrNotFound is returned by GetRun for an unknown id.
var ErrNotFound = errors.New("run not found")

// Run is one stored report.
type Run struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	Variants   []string  `json:"variants"`
	Benchmarks int       `json:"benchmarks"`
	// Document is the persisted report. ListRuns leaves it empty.
	Document []byte `json:"-"`
}

// NewRun wraps a report for storage under a fresh id.
func NewRun(r *benchmark.Report, now time.Time) (Run, error) {
	doc, err := benchmark.Marshal(r)
	if err != nil {
		return Run{}, err
	}
	return Run{
		ID:         uuid.NewString(),
		CreatedAt:  now.UTC(),
		Variants:   r.VariantNames(),
		Benchmarks: len(r.Benchmarks),
		Document:   doc,
	}, nil
}

// Report decodes the stored document.
func (r Run) Report() (*benchmark.Report, error) {
	if len(r.Document) == 0 {
		return nil, fmt.Errorf("run %s has no document", r.ID)
	}
	return benchmark.Unmarshal(r.Document)
}

// Store persists runs.
type Store interface {
	SaveRun(ctx context.Context, run Run) error
	// ListRuns returns the newest runs first, at most limit of them.
	ListRuns(ctx context.Context, limit int) ([]Run, error)
	GetRun(ctx context.Context, id string) (Run, error)
	Close() error
}

func joinVariants(names []string) string {
	return strings.Join(names, ",")
}

func splitVariants(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

func validID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: invalid id %q", ErrNotFound, id)
	}
	return nil
}
