// Package memory keeps blobs in process memory. Registries built for tests
// and throwaway workspaces use it in place of a filesystem or bucket.
package memory

import (
	"bytes"
	"context"
	"io"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"timetracker/internal/blob/core"
)

type object struct {
	info core.Info
	data []byte
}

// snapshot detaches the returned Info from the stored object.
func (o *object) snapshot() core.Info {
	info := o.info
	info.Metadata = maps.Clone(o.info.Metadata)
	return info
}

// Store is a map of immutable objects; Put swaps in a new one.
type Store struct {
	mu      sync.RWMutex
	objects map[string]*object
	now     func() time.Time
}

func New() *Store {
	return &Store{objects: make(map[string]*object), now: func() time.Time { return time.Now().UTC() }}
}

func (s *Store) Driver() core.Driver { return core.DriverMemory }

func (s *Store) Put(_ context.Context, key string, r io.Reader, opts core.PutOptions) (core.Info, error) {
	key, err := core.CheckKey(key)
	if err != nil {
		return core.Info{}, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return core.Info{}, err
	}
	obj := &object{
		data: data,
		info: core.Info{
			Key:         key,
			Size:        int64(len(data)),
			ContentType: opts.ContentType,
			Digest:      core.Digest(data),
			Metadata:    maps.Clone(opts.Metadata),
			Modified:    s.now(),
		},
	}
	s.mu.Lock()
	s.objects[key] = obj
	s.mu.Unlock()
	return obj.snapshot(), nil
}

func (s *Store) lookup(key string) (*object, error) {
	key, err := core.CheckKey(key)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	if !ok {
		return nil, core.ErrNotFound
	}
	return obj, nil
}

// Get returns a reader over the stored bytes. Objects are never mutated
// in place, so the reader needs no copy.
func (s *Store) Get(_ context.Context, key string) (core.Info, io.ReadCloser, error) {
	obj, err := s.lookup(key)
	if err != nil {
		return core.Info{}, nil, err
	}
	return obj.snapshot(), io.NopCloser(bytes.NewReader(obj.data)), nil
}

func (s *Store) Head(_ context.Context, key string) (core.Info, error) {
	obj, err := s.lookup(key)
	if err != nil {
		return core.Info{}, err
	}
	return obj.snapshot(), nil
}

func (s *Store) List(_ context.Context, prefix string) ([]core.Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := slices.Sorted(maps.Keys(s.objects))
	var out []core.Info
	for _, key := range keys {
		if strings.HasPrefix(key, prefix) {
			out = append(out, s.objects[key].snapshot())
		}
	}
	return out, nil
}
