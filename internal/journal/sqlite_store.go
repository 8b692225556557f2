package journal

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore implements the journal using SQLite
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the journal database at path
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	// WAL plus a busy timeout lets the CLI and an embedding runtime share the file.
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// migrate creates the necessary tables
func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS operations (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		operation TEXT NOT NULL,
		version_id TEXT NOT NULL DEFAULT '',
		backup_id TEXT NOT NULL DEFAULT '',
		file TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		success INTEGER NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_operations_created_at ON operations(created_at);
	CREATE INDEX IF NOT EXISTS idx_operations_version_id ON operations(version_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Append records an entry
func (s *SQLiteStore) Append(e *Entry) error {
	_, err := s.db.Exec(`
		INSERT INTO operations (id, operation, version_id, backup_id, file, description, success, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, string(e.Operation), e.VersionID, e.BackupID, e.File, e.Description, e.Success, e.Error, e.CreatedAt.UnixNano())
	return err
}

const selectColumns = `SELECT id, operation, version_id, backup_id, file, description, success, error, created_at FROM operations`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row scanner) (*Entry, error) {
	var e Entry
	var op string
	var created int64
	if err := row.Scan(&e.ID, &op, &e.VersionID, &e.BackupID, &e.File, &e.Description, &e.Success, &e.Error, &created); err != nil {
		return nil, err
	}
	e.Operation = Operation(op)
	e.CreatedAt = time.Unix(0, created)
	return &e, nil
}

// Get retrieves an entry by id
func (s *SQLiteStore) Get(id string) (*Entry, error) {
	e, err := scanEntry(s.db.QueryRow(selectColumns+" WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("journal entry not found: %s", id)
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// List returns matching entries, newest first
func (s *SQLiteStore) List(f Filter) ([]*Entry, error) {
	var where []string
	var args []interface{}
	if f.Operation != "" {
		where = append(where, "operation = ?")
		args = append(args, string(f.Operation))
	}
	if f.VersionID != "" {
		where = append(where, "(version_id = ? OR backup_id = ?)")
		args = append(args, f.VersionID, f.VersionID)
	}

	query := selectColumns
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, seq DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []*Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
