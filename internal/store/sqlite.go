package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

const schemaVersion = 1

// SQLiteStore keeps records in a single documents table keyed by
// (collection, id).
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) a SQLite-backed store at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &PersistenceError{Op: "open", Err: err}
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, &PersistenceError{Op: "open", Err: fmt.Errorf("executing %s: %w", p, err)}
		}
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return &PersistenceError{Op: "migrate", Err: err}
	}
	if version >= schemaVersion {
		return nil
	}

	if version < 1 {
		_, err := s.db.Exec(`
			CREATE TABLE IF NOT EXISTS documents (
				collection TEXT NOT NULL,
				id         TEXT NOT NULL,
				body       TEXT NOT NULL,
				updated_at TEXT NOT NULL DEFAULT (datetime('now')),
				PRIMARY KEY (collection, id)
			)`)
		if err != nil {
			return &PersistenceError{Op: "migrate", Err: err}
		}
	}

	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return &PersistenceError{Op: "migrate", Err: err}
	}
	return nil
}

// Get reads a record by id.
func (s *SQLiteStore) Get(ctx context.Context, collection, id string) (json.RawMessage, error) {
	var body string
	err := s.db.QueryRowContext(ctx,
		"SELECT body FROM documents WHERE collection = ? AND id = ?",
		collection, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &PersistenceError{Op: "get", Err: err}
	}
	return json.RawMessage(body), nil
}

// Put writes a record, replacing any previous version.
func (s *SQLiteStore) Put(ctx context.Context, collection, id string, record json.RawMessage) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (collection, id, body, updated_at)
		VALUES (?, ?, ?, datetime('now'))
		ON CONFLICT(collection, id) DO UPDATE SET
			body = excluded.body,
			updated_at = excluded.updated_at`,
		collection, id, string(record))
	if err != nil {
		return &PersistenceError{Op: "put", Err: err}
	}
	return nil
}

// List returns all records in a collection whose id starts with prefix,
// ordered by id.
func (s *SQLiteStore) List(ctx context.Context, collection, prefix string) ([]json.RawMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT body FROM documents
		WHERE collection = ? AND id LIKE ? || '%'
		ORDER BY id`,
		collection, prefix)
	if err != nil {
		return nil, &PersistenceError{Op: "list", Err: err}
	}
	defer rows.Close()

	var records []json.RawMessage
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, &PersistenceError{Op: "list", Err: err}
		}
		records = append(records, json.RawMessage(body))
	}
	if err := rows.Err(); err != nil {
		return nil, &PersistenceError{Op: "list", Err: err}
	}
	return records, nil
}

// Delete removes a record. Returns true if a record was deleted.
func (s *SQLiteStore) Delete(ctx context.Context, collection, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM documents WHERE collection = ? AND id = ?",
		collection, id)
	if err != nil {
		return false, &PersistenceError{Op: "delete", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, &PersistenceError{Op: "delete", Err: err}
	}
	return n > 0, nil
}
