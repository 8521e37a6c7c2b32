// Package sqlite stores workspace documents in a SQLite database using the
// pure Go modernc.org/sqlite driver. One database file can hold several
// documents keyed by name.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"timetracker/internal/infra/persistence"
)

// DefaultDocument is the key used when no document name is given.
const DefaultDocument = "workspace"

// Backend implements persistence.Backend over one row of the documents table.
type Backend struct {
	db   *sql.DB
	mu   sync.Mutex
	path string
	name string
}

var _ persistence.Backend = (*Backend)(nil)

// New opens (creating if needed) the database at path and binds the
// backend to the document called name.
func New(ctx context.Context, path, name string) (*Backend, error) {
	if path == "" {
		path = "timetracker.db"
	}
	if name == "" {
		name = DefaultDocument
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS documents (
		location TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create documents table: %w", err)
	}
	return &Backend{db: db, path: path, name: name}, nil
}

// Load returns the stored document.
func (b *Backend) Load(ctx context.Context) ([]byte, error) {
	var payload []byte
	err := b.db.QueryRowContext(ctx, `SELECT payload FROM documents WHERE location = ?`, b.name).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.ErrNoDocument
	}
	if err != nil {
		return nil, fmt.Errorf("select document: %w", err)
	}
	return payload, nil
}

// Save upserts the document inside a transaction.
func (b *Backend) Save(ctx context.Context, document []byte) (retErr error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx, `INSERT INTO documents(location,payload) VALUES(?,?) ON CONFLICT(location) DO UPDATE SET payload=excluded.payload`, b.name, document); err != nil {
		return fmt.Errorf("upsert document: %w", err)
	}
	return tx.Commit()
}

// Close closes the database handle.
func (b *Backend) Close() error { return b.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (b *Backend) DB() *sql.DB { return b.db }

// Path returns the configured database path.
func (b *Backend) Path() string { return b.path }
