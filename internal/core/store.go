package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"timetracker/internal/infra/persistence"
	"timetracker/internal/validation"
	"timetracker/pkg/domain"
)

// Store owns every live and recently dead object of one workspace. A single
// mutex guards the whole object graph; View and Update hold it for the
// duration of their callback and deliver queued change events afterwards.
type Store struct {
	mu sync.Mutex

	backend   persistence.Backend
	typeName  string
	location  string
	log       zerolog.Logger
	validator *validation.Validator
	selfCheck bool
	nowFn     func() time.Time
	oids      *domain.OidGenerator
	seed      func(tx *Tx) error

	open      bool
	dirty     bool
	live      map[domain.Oid]Object
	graveyard map[domain.Oid]Object

	notifier *notifier
}

// Option configures a Store.
type Option func(*Store)

// WithLogger attaches a structured logger. The default discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) { s.log = logger }
}

// WithSelfCheck runs the validation pass after every structural mutation.
func WithSelfCheck(enabled bool) Option {
	return func(s *Store) { s.selfCheck = enabled }
}

// WithClock overrides the time source used for oid generation.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.nowFn = now
		}
	}
}

// WithDescription records the store type display name and location used in
// diagnostics such as StoreCorrupt errors.
func WithDescription(typeName, location string) Option {
	return func(s *Store) {
		s.typeName = typeName
		s.location = location
	}
}

// WithSeed populates a store made by Create before its first save. A seed
// failure aborts Create and leaves the backend untouched.
func WithSeed(seed func(tx *Tx) error) Option {
	return func(s *Store) { s.seed = seed }
}

// WithValidator replaces the default validator.
func WithValidator(v *validation.Validator) Option {
	return func(s *Store) {
		if v != nil {
			s.validator = v
		}
	}
}

func newStore(backend persistence.Backend, opts ...Option) *Store {
	s := &Store{
		backend:   backend,
		typeName:  "workspace",
		log:       zerolog.Nop(),
		validator: validation.New(),
		nowFn:     func() time.Time { return time.Now().UTC() },
		oids:      domain.NewOidGenerator(),
		live:      make(map[domain.Oid]Object),
		graveyard: make(map[domain.Oid]Object),
		notifier:  newNotifier(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With().Str("store", s.typeName).Str("location", s.location).Logger()
	return s
}

// Create initializes an empty store on a backend that holds no document
// yet, writes the empty document and returns the open store.
func Create(ctx context.Context, backend persistence.Backend, opts ...Option) (*Store, error) {
	s := newStore(backend, opts...)
	_, err := backend.Load(ctx)
	switch {
	case err == nil:
		return nil, &Error{Kind: domain.KindAlreadyExists, StoreType: s.typeName, Location: s.location, Msg: "a workspace already exists at this location"}
	case !errors.Is(err, persistence.ErrNoDocument):
		return nil, errCustom("inspect backend", err)
	}
	s.open = true
	if s.seed != nil {
		if err := s.Update(s.seed); err != nil {
			s.open = false
			return nil, err
		}
	}
	if err := s.Save(ctx); err != nil {
		s.open = false
		return nil, err
	}
	s.log.Info().Int("objects", len(s.live)).Msg("workspace created")
	return s, nil
}

// Open loads the document held by backend, resolves associations and runs
// the validation pass. Any failure leaves the store closed.
func Open(ctx context.Context, backend persistence.Backend, opts ...Option) (*Store, error) {
	s := newStore(backend, opts...)
	doc, err := backend.Load(ctx)
	if err != nil {
		if errors.Is(err, persistence.ErrNoDocument) {
			return nil, &Error{Kind: domain.KindDoesNotExist, StoreType: s.typeName, Location: s.location, Msg: "no workspace at this location"}
		}
		return nil, errCustom("load document", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = true
	if err := s.decodeLocked(doc); err != nil {
		s.resetLocked()
		s.log.Error().Err(err).Msg("workspace failed to load")
		return nil, s.wrapCorrupt(err)
	}
	if err := s.validateLocked(); err != nil {
		s.resetLocked()
		s.log.Error().Err(err).Msg("workspace failed validation")
		return nil, err
	}
	s.dirty = false
	s.notifier.drain()
	s.log.Info().Int("objects", len(s.live)).Msg("workspace opened")
	return s, nil
}

func (s *Store) resetLocked() {
	s.open = false
	s.live = make(map[domain.Oid]Object)
	s.graveyard = make(map[domain.Oid]Object)
}

// TypeName returns the store type display name given at construction.
func (s *Store) TypeName() string { return s.typeName }

// Location returns the location given at construction.
func (s *Store) Location() string { return s.location }

// IsOpen reports whether the store accepts operations.
func (s *Store) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// NeedsSaving reports whether there are unsaved changes.
func (s *Store) NeedsSaving() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// GraveyardSize returns the number of dead objects still referenced.
func (s *Store) GraveyardSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.graveyard)
}

// Save serializes every live object and hands the document to the backend.
// The store is locked for the whole pass.
func (s *Store) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return errStoreClosed()
	}
	return s.saveLocked(ctx)
}

func (s *Store) saveLocked(ctx context.Context) error {
	doc, err := s.encodeLocked()
	if err != nil {
		return errCustom("encode document", err)
	}
	if err := s.backend.Save(ctx, doc); err != nil {
		return errCustom("save document", err)
	}
	s.dirty = false
	s.log.Debug().Int("bytes", len(doc)).Msg("workspace saved")
	return nil
}

// Close saves pending changes and releases the backend. Further operations
// fail with StoreClosed.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return errStoreClosed()
	}
	var saveErr error
	if s.dirty {
		saveErr = s.saveLocked(ctx)
	}
	s.open = false
	if err := s.backend.Close(); err != nil && saveErr == nil {
		saveErr = errCustom("close backend", err)
	}
	s.log.Info().Msg("workspace closed")
	return saveErr
}

// Validate runs the structural validation pass.
func (s *Store) Validate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return errStoreClosed()
	}
	return s.validateLocked()
}

// View runs fn with read-only access to the object graph.
func (s *Store) View(fn func(tx *Tx) error) error {
	return s.run(false, fn)
}

// Update runs fn with read-write access to the object graph. Operations
// inside fn share the lock, so fn may call any number of them.
func (s *Store) Update(fn func(tx *Tx) error) error {
	return s.run(true, fn)
}

func (s *Store) run(writable bool, fn func(tx *Tx) error) error {
	defer s.notifier.flush()
	s.mu.Lock()
	defer s.mu.Unlock()
	tx := &Tx{store: s, writable: writable}
	defer func() { tx.done = true }()
	if !s.open {
		return errStoreClosed()
	}
	return fn(tx)
}

// AddReference registers a holder of obj.
func (s *Store) AddReference(obj Object) error {
	return s.View(func(tx *Tx) error { return tx.AddReference(obj) })
}

// RemoveReference releases a holder of obj. A dead object whose count drops
// to zero leaves the graveyard.
func (s *Store) RemoveReference(obj Object) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx := &Tx{store: s}
	defer func() { tx.done = true }()
	return tx.RemoveReference(obj)
}

// Subscribe registers a listener for change events. Listeners run after
// the store lock is released, in FIFO order.
func (s *Store) Subscribe(listener Listener) (cancel func()) {
	return s.notifier.subscribe(listener)
}

func (s *Store) now() time.Time { return s.nowFn() }

// register inserts a freshly constructed object into the live index.
func (s *Store) register(obj Object) {
	s.live[obj.OID()] = obj
	s.dirty = true
	s.post(domain.ChangeCreated, obj)
	s.log.Debug().Str("kind", string(obj.Kind())).Str("oid", obj.OID().String()).Msg("object created")
}

// kill moves a live object to the graveyard, or drops it when unreferenced.
func (s *Store) kill(obj Object) {
	o := obj.base()
	if !o.live {
		return
	}
	o.live = false
	delete(s.live, o.oid)
	if o.refs > 0 {
		s.graveyard[o.oid] = obj
	} else {
		o.deallocated = true
	}
	s.dirty = true
	s.post(domain.ChangeDestroyed, obj)
	s.log.Debug().Str("kind", string(o.kind)).Str("oid", o.oid.String()).Int("refs", o.refs).Msg("object destroyed")
}

// touch marks obj modified. Objects being destroyed report only their
// destruction.
func (s *Store) touch(obj Object) {
	s.dirty = true
	if o := obj.base(); o.live && !o.dying {
		s.post(domain.ChangeModified, obj)
	}
}

func (s *Store) post(change domain.ChangeKind, obj Object) {
	s.notifier.post(ChangeEvent{Store: s, Change: change, Entity: obj.Kind(), Oid: obj.OID()})
}

// liveOf returns the live objects of type T accepted by keep, in oid order.
func liveOf[T Object](s *Store, keep func(T) bool) []T {
	var out []T
	for _, obj := range s.live {
		typed, ok := obj.(T)
		if !ok {
			continue
		}
		if keep == nil || keep(typed) {
			out = append(out, typed)
		}
	}
	sortByOid(out)
	return out
}

func sortByOid[T Object](list []T) {
	sort.Slice(list, func(i, j int) bool { return list[i].OID().Less(list[j].OID()) })
}

func (s *Store) String() string {
	return fmt.Sprintf("%s %s", s.typeName, s.location)
}
