package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq"
)

// schema creates the single table backing PostgresStore.
//
// Keys are compared with the "C" collation so that range scans follow
// byte order regardless of the database locale.
const schema = `
CREATE TABLE IF NOT EXISTS meter_entries (
    path   TEXT  NOT NULL,
    key    TEXT  NOT NULL COLLATE "C",
    fields JSONB NOT NULL,
    PRIMARY KEY (path, key)
)`

// PostgresStore implements KeyRangeStore on PostgreSQL.
//
// Features:
//   - One row per (path, key) with the value fields stored as JSONB
//   - Upserts through INSERT ... ON CONFLICT
//   - Range scans served by the primary key index
//   - Connection pooling through database/sql
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates and initializes a new PostgresStore.
//
// The connection string should be in the format:
// "host=localhost port=5432 user=u password=p dbname=db sslmode=disable"
//
// The function will:
//  1. Establish database connection
//  2. Verify connectivity
//  3. Create the entries table if missing
func NewPostgresStore(ctx context.Context, connStr string, maxConns int) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	if maxConns > 0 {
		db.SetMaxOpenConns(maxConns)
	}

	// Verify connection
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Put(ctx context.Context, path []string, key string, fields map[string]string) error {
	if err := validatePath(path); err != nil {
		return err
	}
	if !ValidSegment(key) {
		return fmt.Errorf("invalid key %q", key)
	}
	if fields == nil {
		fields = map[string]string{}
	}

	value, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to encode fields: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
        INSERT INTO meter_entries (path, key, fields)
        VALUES ($1, $2, $3)
        ON CONFLICT (path, key) DO UPDATE SET fields = EXCLUDED.fields
    `, JoinPath(path), key, string(value))
	return err
}

// Range retrieves the entries at path with keys in [fromKey, toKey].
//
// The rows are read inside a single statement, so the result reflects one
// snapshot of the table.
func (s *PostgresStore) Range(ctx context.Context, path []string, fromKey, toKey string) ([]Entry, error) {
	if err := validatePath(path); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
        SELECT key, fields
        FROM meter_entries
        WHERE path = $1 AND key BETWEEN $2 AND $3
        ORDER BY key
    `, JoinPath(path), fromKey, toKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Entry
	for rows.Next() {
		var (
			e   Entry
			raw []byte
		)
		if err := rows.Scan(&e.Key, &raw); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &e.Fields); err != nil {
			return nil, fmt.Errorf("failed to decode fields of %q: %w", e.Key, err)
		}
		results = append(results, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return results, nil
}

// Children lists the distinct next path segments of every stored path
// below path.
func (s *PostgresStore) Children(ctx context.Context, path []string) ([]string, error) {
	if err := validatePath(path); err != nil {
		return nil, err
	}

	prefix := JoinPath(path) + "/"
	rows, err := s.db.QueryContext(ctx, `
        SELECT DISTINCT split_part(substr(path, length($1::text) + 1), '/', 1) COLLATE "C" AS child
        FROM meter_entries
        WHERE left(path, length($1::text)) = $1::text
        ORDER BY child
    `, prefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var children []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		children = append(children, c)
	}
	return children, rows.Err()
}

// Close releases all database resources.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// Compile-time interface implementation check
var _ KeyRangeStore = (*PostgresStore)(nil)
