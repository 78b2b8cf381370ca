package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/glebarez/go-sqlite"

	"chathello/internal/domain"
)

const createActivities = `CREATE TABLE IF NOT EXISTS activities (
    id TEXT PRIMARY KEY,
    ts TEXT NOT NULL,
    provider TEXT,
    model TEXT,
    prompt_tokens INTEGER,
    completion_tokens INTEGER,
    total_tokens INTEGER,
    response_time_ms REAL,
    status TEXT,
    error_code TEXT
);`

// SQLiteStore keeps activity entries in a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("repository: sqlite path must not be empty")
	}
	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=busy_timeout(10000)")
	if err != nil {
		return nil, fmt.Errorf("repository: open sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, createActivities); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("repository: create activities table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Record(ctx context.Context, a domain.Activity) error {
	if a.ID == "" {
		return errors.New("repository: Record: activity id is required")
	}
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO activities (id, ts, provider, model, prompt_tokens, completion_tokens, total_tokens, response_time_ms, status, error_code)
         VALUES (?,?,?,?,?,?,?,?,?,?);`,
		a.ID, a.Timestamp.UTC().Format(time.RFC3339Nano), a.Provider, a.Model,
		a.PromptTokens, a.CompletionTokens, a.TotalTokens, a.ResponseTimeMs, a.Status, a.ErrorCode,
	)
	if err != nil {
		return fmt.Errorf("repository: Record: %w", err)
	}
	return nil
}

// List returns up to limit entries, newest first. limit <= 0 returns all.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]domain.Activity, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, ts, provider, model, prompt_tokens, completion_tokens, total_tokens, response_time_ms, status, error_code
         FROM activities ORDER BY ts DESC, rowid DESC LIMIT ?;`, limit)
	if err != nil {
		return nil, fmt.Errorf("repository: List query: %w", err)
	}
	defer rows.Close()

	var out []domain.Activity
	for rows.Next() {
		var (
			a  domain.Activity
			ts string
		)
		if err := rows.Scan(&a.ID, &ts, &a.Provider, &a.Model, &a.PromptTokens, &a.CompletionTokens,
			&a.TotalTokens, &a.ResponseTimeMs, &a.Status, &a.ErrorCode); err != nil {
			return nil, fmt.Errorf("repository: List scan: %w", err)
		}
		if a.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("repository: parse timestamp: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: List rows: %w", err)
	}
	return out, nil
}
