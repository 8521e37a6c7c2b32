// Package blobdoc keeps a workspace document as one object in a blob store,
// so any blob driver (filesystem, S3, memory) can hold a workspace.
package blobdoc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"timetracker/internal/blob"
	"timetracker/internal/infra/persistence"
)

// ContentType is recorded on every saved document.
const ContentType = "application/xml"

// Backend implements persistence.Backend over a single blob key.
type Backend struct {
	store blob.Store
	key   string
}

var _ persistence.Backend = (*Backend)(nil)

// New returns a backend storing the document under key.
func New(store blob.Store, key string) (*Backend, error) {
	if store == nil {
		return nil, errors.New("blobdoc: nil store")
	}
	if key == "" {
		return nil, errors.New("blobdoc: empty key")
	}
	return &Backend{store: store, key: key}, nil
}

// Key returns the blob key holding the document.
func (b *Backend) Key() string { return b.key }

// Load fetches the document.
func (b *Backend) Load(ctx context.Context) ([]byte, error) {
	_, rc, err := b.store.Get(ctx, b.key)
	if errors.Is(err, blob.ErrNotFound) {
		return nil, persistence.ErrNoDocument
	}
	if err != nil {
		return nil, fmt.Errorf("blobdoc: get %s: %w", b.key, err)
	}
	defer func() { _ = rc.Close() }()
	doc, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("blobdoc: read %s: %w", b.key, err)
	}
	return doc, nil
}

// Save uploads the document, replacing the previous one. A document whose
// digest matches the stored object is not uploaded again.
func (b *Backend) Save(ctx context.Context, document []byte) error {
	current, err := b.store.Head(ctx, b.key)
	switch {
	case err == nil && current.Digest == blob.Digest(document):
		return nil
	case err != nil && !errors.Is(err, blob.ErrNotFound):
		return fmt.Errorf("blobdoc: head %s: %w", b.key, err)
	}
	_, err = b.store.Put(ctx, b.key, bytes.NewReader(document), blob.PutOptions{ContentType: ContentType})
	if err != nil {
		return fmt.Errorf("blobdoc: put %s: %w", b.key, err)
	}
	return nil
}

// Documents lists the keys under prefix that hold workspace documents.
func Documents(ctx context.Context, store blob.Store, prefix string) ([]string, error) {
	infos, err := store.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("blobdoc: list %q: %w", prefix, err)
	}
	var keys []string
	for _, info := range infos {
		if info.ContentType == ContentType {
			keys = append(keys, info.Key)
		}
	}
	return keys, nil
}

// Close is a no-op; the blob store is owned by the caller.
func (b *Backend) Close() error { return nil }
