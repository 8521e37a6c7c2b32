// Package badger stores workspace documents in an embedded Badger
// key-value database, one key per document.
package badger

import (
	"context"
	"errors"
	"fmt"

	badgerdb "github.com/dgraph-io/badger/v3"
	"github.com/rs/zerolog"

	"timetracker/internal/infra/persistence"
)

const keyPrefix = "document/"

// DefaultDocument is the key suffix used when no document name is given.
const DefaultDocument = "workspace"

// Backend implements persistence.Backend over one Badger key.
type Backend struct {
	db  *badgerdb.DB
	key []byte
}

var _ persistence.Backend = (*Backend)(nil)

// Option configures the Badger database.
type Option func(*badgerdb.Options)

// WithLogger routes Badger's own logging through logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *badgerdb.Options) { *o = o.WithLogger(zerologAdapter{logger}) }
}

// InMemory keeps the database in memory; dir is ignored.
func InMemory() Option {
	return func(o *badgerdb.Options) { *o = o.WithInMemory(true).WithDir("").WithValueDir("") }
}

// New opens the database in dir and binds the backend to name.
func New(dir, name string, opts ...Option) (*Backend, error) {
	if name == "" {
		name = DefaultDocument
	}
	options := badgerdb.DefaultOptions(dir).WithLogger(nil)
	for _, opt := range opts {
		opt(&options)
	}
	if !options.InMemory && dir == "" {
		return nil, errors.New("badger: directory required")
	}
	db, err := badgerdb.Open(options)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &Backend{db: db, key: []byte(keyPrefix + name)}, nil
}

// Load returns the stored document.
func (b *Backend) Load(context.Context) ([]byte, error) {
	var doc []byte
	err := b.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(b.key)
		if err != nil {
			return err
		}
		doc, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return nil, persistence.ErrNoDocument
	}
	if err != nil {
		return nil, fmt.Errorf("badger get: %w", err)
	}
	return doc, nil
}

// Save replaces the stored document.
func (b *Backend) Save(ctx context.Context, document []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	value := append([]byte(nil), document...)
	if err := b.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(b.key, value)
	}); err != nil {
		return fmt.Errorf("badger set: %w", err)
	}
	return nil
}

// Close closes the database.
func (b *Backend) Close() error { return b.db.Close() }

type zerologAdapter struct {
	log zerolog.Logger
}

func (a zerologAdapter) Errorf(format string, args ...interface{}) {
	a.log.Error().Msgf(format, args...)
}

func (a zerologAdapter) Warningf(format string, args ...interface{}) {
	a.log.Warn().Msgf(format, args...)
}

func (a zerologAdapter) Infof(format string, args ...interface{}) {
	a.log.Info().Msgf(format, args...)
}

func (a zerologAdapter) Debugf(format string, args ...interface{}) {
	a.log.Debug().Msgf(format, args...)
}
