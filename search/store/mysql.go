package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLStore is a MySQL-backed RunStore for hosts that aggregate run
// journals from many processes into one database.
type MySQLStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewMySQLStore opens a connection pool against the given DSN, e.g.
// "user:pass@tcp(localhost:3306)/pathwise?parseTime=true". The schema is
// created on first use.
func NewMySQLStore(dsn string) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL connection: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	s := &MySQLStore{db: db}
	if err := s.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

func (s *MySQLStore) createTables(ctx context.Context) error {
	table := `
		CREATE TABLE IF NOT EXISTS search_runs (
			run_id VARCHAR(191) NOT NULL PRIMARY KEY,
			graph_id VARCHAR(191) NOT NULL,
			mode VARCHAR(16) NOT NULL,
			start_cell TEXT NOT NULL,
			goal_cell TEXT NOT NULL,
			cost DOUBLE NOT NULL,
			expanded INT NOT NULL,
			status VARCHAR(16) NOT NULL,
			started_at VARCHAR(64) NOT NULL,
			finished_at VARCHAR(64) NOT NULL,
			INDEX idx_runs_graph (graph_id, finished_at)
		)
	`
	if _, err := s.db.ExecContext(ctx, table); err != nil {
		return fmt.Errorf("failed to create search_runs table: %w", err)
	}
	return nil
}

// SaveRun persists one record (implements RunStore).
func (s *MySQLStore) SaveRun(ctx context.Context, rec RunRecord) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}

	query := `
		INSERT INTO search_runs
			(run_id, graph_id, mode, start_cell, goal_cell, cost, expanded, status, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			graph_id = VALUES(graph_id),
			mode = VALUES(mode),
			start_cell = VALUES(start_cell),
			goal_cell = VALUES(goal_cell),
			cost = VALUES(cost),
			expanded = VALUES(expanded),
			status = VALUES(status),
			started_at = VALUES(started_at),
			finished_at = VALUES(finished_at)
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
func (s *MySQLStore) LoadRun(ctx context.Context, runID string) (RunRecord, error) {
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
func (s *MySQLStore) ListRuns(ctx context.Context, graphID string, limit int) ([]RunRecord, error) {
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 1000
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

func (s *MySQLStore) ensureOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return fmt.Errorf("store is closed")
	}
	return nil
}

// Close closes the connection pool. Double-close is a no-op.
func (s *MySQLStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
