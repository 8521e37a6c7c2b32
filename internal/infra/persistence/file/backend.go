// Package file stores a workspace document as a single file on disk.
// Saves write a temporary file next to the target and rename it into
// place so a crash never leaves a truncated document behind.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"timetracker/internal/infra/persistence"
)

// Backend implements persistence.Backend over one file path.
type Backend struct {
	path string
	perm os.FileMode
}

var _ persistence.Backend = (*Backend)(nil)

// New returns a backend for path. Parent directories are created on save.
func New(path string) (*Backend, error) {
	if path == "" {
		return nil, errors.New("file: empty path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("file: resolve %s: %w", path, err)
	}
	return &Backend{path: abs, perm: 0o600}, nil
}

// Path returns the absolute document path.
func (b *Backend) Path() string { return b.path }

// Load reads the document.
func (b *Backend) Load(context.Context) ([]byte, error) {
	doc, err := os.ReadFile(b.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, persistence.ErrNoDocument
	}
	if err != nil {
		return nil, fmt.Errorf("file: read %s: %w", b.path, err)
	}
	return doc, nil
}

// Save atomically replaces the document.
func (b *Backend) Save(ctx context.Context, document []byte) (retErr error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("file: create dirs: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(b.path)+"-*")
	if err != nil {
		return fmt.Errorf("file: create temp: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()
	if _, err := tmp.Write(document); err != nil {
		return fmt.Errorf("file: write temp: %w", err)
	}
	if err := tmp.Chmod(b.perm); err != nil {
		return fmt.Errorf("file: chmod temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("file: sync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("file: close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), b.path); err != nil {
		return fmt.Errorf("file: rename into place: %w", err)
	}
	return nil
}

// Close is a no-op; the file is only open during Load and Save.
func (b *Backend) Close() error { return nil }
