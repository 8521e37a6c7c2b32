package workspace

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"

	"timetracker/internal/blob"
	"timetracker/internal/config"
	"timetracker/internal/core"
	"timetracker/internal/infra/persistence"
	badgerbackend "timetracker/internal/infra/persistence/badger"
	"timetracker/internal/infra/persistence/blobdoc"
	"timetracker/internal/infra/persistence/file"
	"timetracker/internal/infra/persistence/memory"
	"timetracker/internal/infra/persistence/postgres"
	"timetracker/internal/infra/persistence/sqlite"
)

// DefaultRegistry returns a registry with one store type per storage
// driver. The driver name is the address mnemonic.
//
//	memory:   location names a document in a registry-wide memory space
//	file:     location is a path to an XML document
//	sqlite:   location is a path to a database file
//	postgres: location names a document; the server comes from cfg.PostgresDSN
//	badger:   location is a database directory
//	blob:     location is a key in the blob store selected by cfg.Blob
func DefaultRegistry(cfg config.Config, opts ...Option) (*Registry, error) {
	opts = append([]Option{WithStoreOptions(core.WithSelfCheck(cfg.SelfCheck))}, opts...)
	r := NewRegistry(opts...)
	space := memory.NewSpace()
	blobs := &lazyBlobStore{cfg: cfg.Blob}
	types := []StoreType{
		{
			Mnemonic:    config.DriverMemory,
			DisplayName: "Memory",
			Backend: func(_ context.Context, location string) (persistence.Backend, error) {
				return space.Backend(location), nil
			},
		},
		{
			Mnemonic:    config.DriverFile,
			DisplayName: "File",
			Normalize:   absolutePath,
			Backend: func(_ context.Context, location string) (persistence.Backend, error) {
				return file.New(location)
			},
		},
		{
			Mnemonic:    config.DriverSQLite,
			DisplayName: "SQLite",
			Normalize:   absolutePath,
			Backend: func(ctx context.Context, location string) (persistence.Backend, error) {
				return sqlite.New(ctx, location, sqlite.DefaultDocument)
			},
		},
		{
			Mnemonic:    config.DriverPostgres,
			DisplayName: "PostgreSQL",
			Normalize:   documentName,
			Backend: func(ctx context.Context, location string) (persistence.Backend, error) {
				if cfg.PostgresDSN == "" {
					return nil, errors.New("postgres DSN not configured")
				}
				return postgres.New(ctx, cfg.PostgresDSN, location)
			},
		},
		{
			Mnemonic:    config.DriverBadger,
			DisplayName: "Badger",
			Normalize:   absolutePath,
			Backend: func(_ context.Context, location string) (persistence.Backend, error) {
				return badgerbackend.New(location, badgerbackend.DefaultDocument, badgerbackend.WithLogger(r.log))
			},
		},
		{
			Mnemonic:    config.DriverBlob,
			DisplayName: "Blob",
			Normalize:   blobKey,
			Backend: func(ctx context.Context, location string) (persistence.Backend, error) {
				store, err := blobs.get(ctx)
				if err != nil {
					return nil, err
				}
				return blobdoc.New(store, location)
			},
			Discover: func(ctx context.Context) ([]string, error) {
				store, err := blobs.get(ctx)
				if err != nil {
					return nil, err
				}
				return blobdoc.Documents(ctx, store, "")
			},
		},
	}
	for _, t := range types {
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func absolutePath(location string) (string, error) {
	if strings.TrimSpace(location) == "" {
		return "", errors.New("empty path")
	}
	return filepath.Abs(location)
}

func documentName(location string) (string, error) {
	name := strings.TrimSpace(location)
	if name == "" {
		return "", errors.New("empty document name")
	}
	return name, nil
}

func blobKey(location string) (string, error) { return blob.CheckKey(location) }

// lazyBlobStore opens the configured blob store on first use so registries
// that never touch the blob driver need no credentials.
type lazyBlobStore struct {
	cfg   blob.Config
	once  sync.Once
	store blob.Store
	err   error
}

func (l *lazyBlobStore) get(ctx context.Context) (blob.Store, error) {
	l.once.Do(func() { l.store, l.err = blob.Open(ctx, l.cfg) })
	return l.store, l.err
}
