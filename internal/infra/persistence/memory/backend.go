// Package memory keeps workspace documents in process memory. Documents
// live in a Space keyed by name so that closing and reopening the same
// name within one process sees the last saved document.
package memory

import (
	"context"
	"errors"
	"sync"

	"timetracker/internal/infra/persistence"
)

// ErrClosed is returned by a Backend after Close.
var ErrClosed = errors.New("memory: backend closed")

// Space holds named documents shared by the backends it hands out.
type Space struct {
	mu   sync.Mutex
	docs map[string][]byte
}

// NewSpace returns an empty document space.
func NewSpace() *Space { return &Space{docs: make(map[string][]byte)} }

// Backend returns a backend bound to name.
func (sp *Space) Backend(name string) *Backend {
	return &Backend{space: sp, name: name}
}

// Names returns the names holding a document.
func (sp *Space) Names() []string {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	out := make([]string, 0, len(sp.docs))
	for name := range sp.docs {
		out = append(out, name)
	}
	return out
}

// Remove discards the document stored under name.
func (sp *Space) Remove(name string) {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	delete(sp.docs, name)
}

// Backend implements persistence.Backend over one Space slot.
type Backend struct {
	space  *Space
	name   string
	mu     sync.Mutex
	closed bool
}

var _ persistence.Backend = (*Backend)(nil)

// New returns a backend over a private space, mostly for tests.
func New() *Backend { return NewSpace().Backend("") }

// Load returns a copy of the stored document.
func (b *Backend) Load(context.Context) ([]byte, error) {
	if err := b.ensureOpen(); err != nil {
		return nil, err
	}
	b.space.mu.Lock()
	defer b.space.mu.Unlock()
	doc, ok := b.space.docs[b.name]
	if !ok {
		return nil, persistence.ErrNoDocument
	}
	return append([]byte(nil), doc...), nil
}

// Save replaces the stored document with a copy of document.
func (b *Backend) Save(_ context.Context, document []byte) error {
	if err := b.ensureOpen(); err != nil {
		return err
	}
	b.space.mu.Lock()
	defer b.space.mu.Unlock()
	b.space.docs[b.name] = append([]byte(nil), document...)
	return nil
}

// Close marks the backend closed. The document stays in the space.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

func (b *Backend) ensureOpen() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	return nil
}
