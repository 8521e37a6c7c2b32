// Package workspace is the credential-gated face of the engine. A Registry
// opens stores by address and hands out Workspaces; every Workspace
// operation resolves the caller's credentials, checks permissions, runs
// against the store under its lock and relabels failures as *Error.
package workspace

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"timetracker/internal/address"
	"timetracker/internal/core"
	"timetracker/internal/infra/persistence"
	"timetracker/pkg/domain"
)

// BackendFactory opens the persistence backend for a normalized location.
type BackendFactory func(ctx context.Context, location string) (persistence.Backend, error)

// StoreType describes one kind of storage a workspace can live in.
type StoreType struct {
	// Mnemonic is the type token used in addresses.
	Mnemonic string
	// DisplayName is used in diagnostics such as StoreCorrupt errors.
	DisplayName string
	// Normalize canonicalizes a location; nil keeps it as given.
	Normalize func(location string) (string, error)
	Backend   BackendFactory
	// Discover lists locations that already hold a workspace; nil when the
	// storage cannot be enumerated.
	Discover func(ctx context.Context) ([]string, error)
}

// Registry owns the store types, the address cache and the set of open
// workspaces. There is no package-level registry.
type Registry struct {
	mu        sync.Mutex
	types     map[string]StoreType
	cache     *address.Cache
	open      map[*address.Address]*Workspace
	log       zerolog.Logger
	metrics   MetricsRecorder
	storeOpts []core.Option
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger handed to the registry, its workspaces and
// their stores.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Registry) { r.log = logger }
}

// WithMetrics sets the recorder for operation outcomes.
func WithMetrics(m MetricsRecorder) Option {
	return func(r *Registry) {
		if m != nil {
			r.metrics = m
		}
	}
}

// WithStoreOptions appends engine options applied to every opened store.
func WithStoreOptions(opts ...core.Option) Option {
	return func(r *Registry) { r.storeOpts = append(r.storeOpts, opts...) }
}

// NewRegistry returns a registry without store types.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		types:   make(map[string]StoreType),
		open:    make(map[*address.Address]*Workspace),
		log:     zerolog.Nop(),
		metrics: noopMetrics{},
	}
	for _, opt := range opts {
		opt(r)
	}
	r.cache = address.NewCache(r.log)
	return r
}

// Register adds a store type. Mnemonics must be unique.
func (r *Registry) Register(t StoreType) error {
	if t.Mnemonic == "" || t.Backend == nil {
		return fmt.Errorf("workspace: store type needs a mnemonic and a backend factory")
	}
	if t.DisplayName == "" {
		t.DisplayName = t.Mnemonic
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.types[t.Mnemonic]; dup {
		return fmt.Errorf("workspace: store type %q already registered", t.Mnemonic)
	}
	r.types[t.Mnemonic] = t
	return nil
}

// StoreTypes returns the registered types ordered by mnemonic.
func (r *Registry) StoreTypes() []StoreType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]StoreType, 0, len(r.types))
	for _, t := range r.types {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Mnemonic < out[j].Mnemonic })
	return out
}

// Discover returns the addresses of existing workspaces for every store
// type that can enumerate its storage, ordered by encoded form.
func (r *Registry) Discover(ctx context.Context) ([]address.Ref, error) {
	var refs []address.Ref
	for _, t := range r.StoreTypes() {
		if t.Discover == nil {
			continue
		}
		locations, err := t.Discover(ctx)
		if err != nil {
			return nil, translate("discover", &Error{Kind: domain.KindCustom, Msg: fmt.Sprintf("discover %s: %v", t.DisplayName, err), Err: err})
		}
		for _, loc := range locations {
			refs = append(refs, address.Ref{Type: t.Mnemonic, Location: loc})
		}
	}
	sort.Slice(refs, func(i, j int) bool { return address.Encode(refs[i]) < address.Encode(refs[j]) })
	return refs, nil
}

// Addresses exposes the address cache.
func (r *Registry) Addresses() *address.Cache { return r.cache }

// Normalize resolves ref's store type and canonicalizes its location.
func (r *Registry) Normalize(ref address.Ref) (address.Ref, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, norm, err := r.normalizeLocked(ref)
	return norm, translate("normalize", err)
}

func (r *Registry) normalizeLocked(ref address.Ref) (StoreType, address.Ref, error) {
	t, ok := r.types[ref.Type]
	if !ok {
		return StoreType{}, address.Ref{}, &Error{Kind: domain.KindInvalidAddress, Msg: fmt.Sprintf("unknown store type %q", ref.Type)}
	}
	location := ref.Location
	if t.Normalize != nil {
		var err error
		if location, err = t.Normalize(location); err != nil {
			return StoreType{}, address.Ref{}, &Error{Kind: domain.KindInvalidAddress, Msg: err.Error(), Err: err}
		}
	}
	if location == "" {
		return StoreType{}, address.Ref{}, &Error{Kind: domain.KindInvalidAddress, Msg: "empty location"}
	}
	return t, address.Ref{Type: t.Mnemonic, Location: location}, nil
}

// OpenWorkspaces returns the addresses currently open, sorted.
func (r *Registry) OpenWorkspaces() []address.Ref {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]address.Ref, 0, len(r.open))
	for addr := range r.open {
		out = append(out, addr.Ref())
	}
	sort.Slice(out, func(i, j int) bool { return address.Encode(out[i]) < address.Encode(out[j]) })
	return out
}

// Administrator describes the first user and account of a new workspace.
// The account holds every capability.
type Administrator struct {
	RealName string
	Login    string
	Password string
}

func (a Administrator) seed(tx *core.Tx) error {
	user, err := tx.CreateUser(core.UserFields{RealName: a.RealName})
	if err != nil {
		return err
	}
	_, err = tx.CreateAccount(user, core.AccountFields{
		Login:        a.Login,
		Password:     a.Password,
		Capabilities: domain.AllCapabilities,
	})
	return err
}

// Create initializes a workspace at ref holding only admin and opens it.
// Nothing is written when admin is invalid.
func (r *Registry) Create(ctx context.Context, ref address.Ref, admin Administrator) (*Workspace, error) {
	return r.attach(ctx, "create", ref, func(ctx context.Context, backend persistence.Backend, opts ...core.Option) (*core.Store, error) {
		return core.Create(ctx, backend, append(opts, core.WithSeed(admin.seed))...)
	})
}

// Open loads the workspace at ref. A location can be open only once per
// registry; a second Open fails with StoreInUse until the first is closed.
func (r *Registry) Open(ctx context.Context, ref address.Ref) (*Workspace, error) {
	return r.attach(ctx, "open", ref, core.Open)
}

type storeOpener func(ctx context.Context, backend persistence.Backend, opts ...core.Option) (*core.Store, error)

func (r *Registry) attach(ctx context.Context, op string, ref address.Ref, openStore storeOpener) (*Workspace, error) {
	start := time.Now()
	ws, err := r.attachLocked(ctx, ref, openStore)
	err = translate(op, err)
	r.metrics.Observe(ctx, op, err == nil, time.Since(start))
	if err != nil {
		r.log.Warn().Err(err).Str("op", op).Str("address", address.Encode(ref)).Msg("workspace not opened")
		return nil, err
	}
	return ws, nil
}

func (r *Registry) attachLocked(ctx context.Context, ref address.Ref, openStore storeOpener) (*Workspace, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, norm, err := r.normalizeLocked(ref)
	if err != nil {
		return nil, err
	}
	addr, err := r.cache.Resolve(norm)
	if err != nil {
		return nil, err
	}
	if _, busy := r.open[addr]; busy {
		r.cache.Release(addr)
		return nil, &Error{Kind: domain.KindStoreInUse, StoreType: t.DisplayName, Location: norm.Location}
	}
	backend, err := t.Backend(ctx, norm.Location)
	if err != nil {
		r.cache.Release(addr)
		return nil, &Error{Kind: domain.KindCustom, StoreType: t.DisplayName, Location: norm.Location, Msg: err.Error(), Err: err}
	}
	logger := r.log.With().Str("store_type", t.Mnemonic).Logger()
	opts := append(append([]core.Option(nil), r.storeOpts...),
		core.WithLogger(logger),
		core.WithDescription(t.DisplayName, norm.Location),
	)
	store, err := openStore(ctx, backend, opts...)
	if err != nil {
		_ = backend.Close()
		r.cache.Release(addr)
		return nil, err
	}
	ws := newWorkspace(r, addr, t, store, logger)
	r.open[addr] = ws
	return ws, nil
}

func (r *Registry) detach(ws *Workspace) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.open[ws.addr] != ws {
		return
	}
	delete(r.open, ws.addr)
	r.cache.Release(ws.addr)
}
