package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"DietPlanner/internal/database"
)

// SQLStore keeps one row per record. Unlike the file backends it never
// rewrites earlier entries.
type SQLStore struct {
	db    database.Service
	table string
}

// TableName is the table that holds records of the given plan kind.
func TableName(kind string) string {
	return "plan_history_" + kind
}

// NewSQLStore creates the table for kind if needed.
func NewSQLStore(ctx context.Context, db database.Service, kind string) (*SQLStore, error) {
	s := &SQLStore{db: db, table: TableName(kind)}
	if err := s.initSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLStore) initSchema(ctx context.Context) error {
	var schema string
	switch s.db.Dialect() {
	case database.Postgres:
		schema = fmt.Sprintf(`
    CREATE TABLE IF NOT EXISTS "%s" (
        id BIGSERIAL PRIMARY KEY,
        created_at TIMESTAMPTZ NOT NULL,
        payload TEXT NOT NULL
    )`, s.table)
	default:
		schema = fmt.Sprintf(`
    CREATE TABLE IF NOT EXISTS "%s" (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        created_at DATETIME NOT NULL,
        payload TEXT NOT NULL
    )`, s.table)
	}

	if _, err := s.db.DB().ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create table %s: %w", s.table, err)
	}
	return nil
}

func (s *SQLStore) Append(ctx context.Context, record any) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode history record: %w", err)
	}

	d := s.db.Dialect()
	query := fmt.Sprintf(`INSERT INTO "%s" (created_at, payload) VALUES (%s, %s)`,
		s.table, d.Placeholder(1), d.Placeholder(2))
	if _, err := s.db.DB().ExecContext(ctx, query, time.Now().UTC(), string(raw)); err != nil {
		return fmt.Errorf("failed to insert history record: %w", err)
	}
	return nil
}

func (s *SQLStore) List(ctx context.Context) ([]json.RawMessage, error) {
	rows, err := s.db.DB().QueryContext(ctx, fmt.Sprintf(`SELECT payload FROM "%s" ORDER BY id`, s.table))
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	entries := []json.RawMessage{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		if !json.Valid([]byte(payload)) {
			continue
		}
		entries = append(entries, json.RawMessage(payload))
	}
	return entries, rows.Err()
}
