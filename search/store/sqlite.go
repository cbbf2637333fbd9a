package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore is a SQLite-backed RunStore.
//
// Designed for single-process hosts that want the run journal to survive
// restarts with zero setup: one database file, auto-migrated schema, WAL
// mode for concurrent reads.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
	path   string
}

// NewSQLiteStore opens (creating if needed) the database at path.
// Use ":memory:" for an in-memory database in tests.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite connection: %w", err)
	}

	// SQLite supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx := context.Background()
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	s := &SQLiteStore{db: db, path: path}
	if err := s.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) createTables(ctx context.Context) error {
	table := `
		CREATE TABLE IF NOT EXISTS search_runs (
			run_id TEXT NOT NULL PRIMARY KEY,
			graph_id TEXT NOT NULL,
			mode TEXT NOT NULL,
			start_cell TEXT NOT NULL,
			goal_cell TEXT NOT NULL,
			cost REAL NOT NULL,
			expanded INTEGER NOT NULL,
			status TEXT NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL
		)
	`
	if _, err := s.db.ExecContext(ctx, table); err != nil {
		return fmt.Errorf("failed to create search_runs table: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		"CREATE INDEX IF NOT EXISTS idx_runs_graph ON search_runs(graph_id, finished_at)"); err != nil {
		return fmt.Errorf("failed to create idx_runs_graph: %w", err)
	}
	return nil
}

// SaveRun persists one record (implements RunStore).
func (s *SQLiteStore) SaveRun(ctx context.Context, rec RunRecord) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}

	query := `
		INSERT INTO search_runs
			(run_id, graph_id, mode, start_cell, goal_cell, cost, expanded, status, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			graph_id = excluded.graph_id,
			mode = excluded.mode,
			start_cell = excluded.start_cell,
			goal_cell = excluded.goal_cell,
			cost = excluded.cost,
			expanded = excluded.expanded,
			status = excluded.status,
			started_at = excluded.started_at,
			finished_at = excluded.finished_at
	`
	_, err := s.db.ExecContext(ctx, query,
		rec.RunID, rec.GraphID, rec.Mode, rec.Start, rec.Goal,
		rec.Cost, rec.Expanded, rec.Status,
		rec.StartedAt.UTC().Format(time.RFC3339Nano),
		rec.FinishedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// LoadRun retrieves a record by run ID (implements RunStore).
func (s *SQLiteStore) LoadRun(ctx context.Context, runID string) (RunRecord, error) {
	if err := s.ensureOpen(); err != nil {
		return RunRecord{}, err
	}

	query := `
		SELECT run_id, graph_id, mode, start_cell, goal_cell, cost, expanded, status, started_at, finished_at
		FROM search_runs
		WHERE run_id = ?
	`
	rec, err := scanRun(s.db.QueryRowContext(ctx, query, runID))
	if err == sql.ErrNoRows {
		return RunRecord{}, ErrNotFound
	}
	if err != nil {
		return RunRecord{}, fmt.Errorf("failed to load run: %w", err)
	}
	return rec, nil
}

// ListRuns returns up to limit records for the graph, most recent first
// (implements RunStore).
func (s *SQLiteStore) ListRuns(ctx context.Context, graphID string, limit int) ([]RunRecord, error) {
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	query := `
		SELECT run_id, graph_id, mode, start_cell, goal_cell, cost, expanded, status, started_at, finished_at
		FROM search_runs
		WHERE (? = '' OR graph_id = ?)
		ORDER BY finished_at DESC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, graphID, graphID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run rows: %w", err)
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (RunRecord, error) {
	var (
		rec                  RunRecord
		startedAt, finishedAt string
	)
	if err := row.Scan(&rec.RunID, &rec.GraphID, &rec.Mode, &rec.Start, &rec.Goal,
		&rec.Cost, &rec.Expanded, &rec.Status, &startedAt, &finishedAt); err != nil {
		return RunRecord{}, err
	}
	var err error
	if rec.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
		return RunRecord{}, fmt.Errorf("failed to parse started_at: %w", err)
	}
	if rec.FinishedAt, err = time.Parse(time.RFC3339Nano, finishedAt); err != nil {
		return RunRecord{}, fmt.Errorf("failed to parse finished_at: %w", err)
	}
	return rec, nil
}

func (s *SQLiteStore) ensureOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return fmt.Errorf("store is closed")
	}
	return nil
}

// Close closes the database connection. Double-close is a no-op.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// Path returns the database file path, for debugging and logging.
func (s *SQLiteStore) Path() string {
	return s.path
}
