// Package storage keeps a history of reconstruction runs in SQLite.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Run statuses.
const (
	StatusOK       = "ok"
	StatusFailed   = "failed"
	StatusShredded = "shredded"
)

// ErrNotFound is returned by GetRun for an unknown id.
var ErrNotFound = errors.New("storage: run not found")

// Store wraps SQLite-backed persistence for reconstruction runs.
type Store struct {
	db *sql.DB
}

// Run is one recorded reconstruction.
type Run struct {
	ID        string        `json:"id"`
	Source    string        `json:"source"`
	Output    string        `json:"output,omitempty"`
	Strips    int           `json:"strips"`
	Width     int           `json:"width"`
	Height    int           `json:"height"`
	Order     []int         `json:"order,omitempty"`
	SeamStrip int           `json:"seam_strip"`
	SeamScore float64       `json:"seam_score"`
	Status    string        `json:"status"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration"`
	CreatedAt time.Time     `json:"created_at"`
}

// New opens (or creates) the database at path and ensures the schema.
// Use ":memory:" for a throwaway store.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// a single connection keeps ":memory:" databases shared and serializes writers
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
            id TEXT PRIMARY KEY,
            source TEXT NOT NULL,
            output TEXT,
            strips INTEGER NOT NULL,
            width INTEGER,
            height INTEGER,
            strip_order TEXT,
            seam_strip INTEGER,
            seam_score REAL,
            status TEXT NOT NULL,
            error TEXT,
            duration_ms INTEGER,
            created_at TIMESTAMP NOT NULL
        );`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_source ON runs(source);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// Close closes the underlying DB.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RecordRun inserts r and returns its id. An empty ID is filled with a new
// UUID and a zero CreatedAt with the current time.
func (s *Store) RecordRun(ctx context.Context, r *Run) (string, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	if r.Status == "" {
		r.Status = StatusOK
	}

	order, err := json.Marshal(r.Order)
	if err != nil {
		return "", fmt.Errorf("encode order: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO runs
        (id, source, output, strips, width, height, strip_order, seam_strip, seam_score, status, error, duration_ms, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Source, r.Output, r.Strips, r.Width, r.Height, string(order),
		r.SeamStrip, r.SeamScore, r.Status, r.Error, r.Duration.Milliseconds(), r.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return r.ID, nil
}

// ListRuns returns up to limit runs, newest first. limit <= 0 means 50.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `SELECT
        id, source, output, strips, width, height, strip_order, seam_strip, seam_score, status, error, duration_ms, created_at
        FROM runs ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

// GetRun returns the run with the given id, or ErrNotFound.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT
        id, source, output, strips, width, height, strip_order, seam_strip, seam_score, status, error, duration_ms, created_at
        FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return r, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*Run, error) {
	var (
		r          Run
		output     sql.NullString
		order      sql.NullString
		errMsg     sql.NullString
		durationMS int64
	)
	if err := sc.Scan(&r.ID, &r.Source, &output, &r.Strips, &r.Width, &r.Height, &order,
		&r.SeamStrip, &r.SeamScore, &r.Status, &errMsg, &durationMS, &r.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	r.Output = output.String
	r.Error = errMsg.String
	r.Duration = time.Duration(durationMS) * time.Millisecond
	if order.Valid && order.String != "" && order.String != "null" {
		if err := json.Unmarshal([]byte(order.String), &r.Order); err != nil {
			return nil, fmt.Errorf("decode order: %w", err)
		}
	}
	return &r, nil
}
