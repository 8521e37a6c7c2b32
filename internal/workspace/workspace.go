package workspace

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"timetracker/internal/address"
	"timetracker/internal/core"
	"timetracker/pkg/domain"
)

// Workspace is an open store seen through the access gate.
type Workspace struct {
	registry  *Registry
	addr      *address.Address
	storeType StoreType
	store     *core.Store
	log       zerolog.Logger
	metrics   MetricsRecorder

	mu       sync.Mutex
	sessions map[uuid.UUID]domain.Oid
}

func newWorkspace(r *Registry, addr *address.Address, t StoreType, store *core.Store, logger zerolog.Logger) *Workspace {
	return &Workspace{
		registry:  r,
		addr:      addr,
		storeType: t,
		store:     store,
		log:       logger.With().Str("workspace", addr.String()).Logger(),
		metrics:   r.metrics,
		sessions:  make(map[uuid.UUID]domain.Oid),
	}
}

// Address returns the normalized address the workspace was opened with.
func (ws *Workspace) Address() address.Ref { return ws.addr.Ref() }

// StoreType returns the store type the workspace lives in.
func (ws *Workspace) StoreType() StoreType { return ws.storeType }

// IsOpen reports whether the workspace accepts operations.
func (ws *Workspace) IsOpen() bool { return ws.store.IsOpen() }

// NeedsSaving reports whether there are unsaved changes.
func (ws *Workspace) NeedsSaving() bool { return ws.store.NeedsSaving() }

// Save writes pending changes to the backend.
func (ws *Workspace) Save(ctx context.Context) error {
	start := time.Now()
	err := translate("save", ws.store.Save(ctx))
	ws.metrics.Observe(ctx, "save", err == nil, time.Since(start))
	return err
}

// Close saves pending changes, closes the store and frees the address for
// another Open. Sessions end with the workspace.
func (ws *Workspace) Close(ctx context.Context) error {
	start := time.Now()
	err := translate("close", ws.store.Close(ctx))
	ws.metrics.Observe(ctx, "close", err == nil, time.Since(start))
	if domain.IsKind(err, domain.KindStoreClosed) {
		return err
	}
	ws.mu.Lock()
	ws.sessions = make(map[uuid.UUID]domain.Oid)
	ws.mu.Unlock()
	ws.registry.detach(ws)
	return err
}

// Event reports a change to one object of a workspace.
type Event struct {
	Workspace *Workspace
	Change    domain.ChangeKind
	Entity    domain.EntityKind
	Oid       domain.Oid
}

// Subscribe registers fn for change events. Events are delivered after the
// operation that caused them has released the store, so fn may call back
// into the workspace.
func (ws *Workspace) Subscribe(fn func(Event)) (cancel func()) {
	return ws.store.Subscribe(func(e core.ChangeEvent) {
		fn(Event{Workspace: ws, Change: e.Change, Entity: e.Entity, Oid: e.Oid})
	})
}

// Login checks login and password and issues session credentials that
// stay valid until Logout, Close, or the account is disabled or destroyed.
func (ws *Workspace) Login(login, password string) (domain.Credentials, error) {
	var session domain.Credentials
	err := ws.run("login", domain.NewLoginCredentials(login, password), false, func(_ *core.Tx, c *caller) error {
		token := uuid.New()
		ws.mu.Lock()
		ws.sessions[token] = c.account.OID()
		ws.mu.Unlock()
		session = domain.NewSessionCredentials(token)
		return nil
	})
	if err != nil {
		return domain.Credentials{}, err
	}
	ws.log.Info().Str("login", login).Msg("session opened")
	return session, nil
}

// Logout ends a session issued by Login.
func (ws *Workspace) Logout(creds domain.Credentials) error {
	ws.mu.Lock()
	_, ok := ws.sessions[creds.Session]
	delete(ws.sessions, creds.Session)
	ws.mu.Unlock()
	if !creds.IsSession() || !ok {
		return accessDenied("logout", "unknown session")
	}
	return nil
}

func (ws *Workspace) sessionAccount(token uuid.UUID) (domain.Oid, bool) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	oid, ok := ws.sessions[token]
	return oid, ok
}

// Capabilities returns the capabilities of the account creds resolve to.
func (ws *Workspace) Capabilities(creds domain.Credentials) (domain.Capabilities, error) {
	var caps domain.Capabilities
	err := ws.run("capabilities", creds, false, func(_ *core.Tx, c *caller) error {
		caps = c.caps
		return nil
	})
	return caps, err
}

// Account returns a handle to the caller's own account.
func (ws *Workspace) Account(creds domain.Credentials) (*Handle[*core.Account], error) {
	var h *Handle[*core.Account]
	err := ws.run("account", creds, false, func(tx *core.Tx, c *caller) error {
		var err error
		h, err = newHandle(ws, tx, c.account)
		return err
	})
	return h, err
}

// Validate runs the structural validation pass. Any account may ask.
func (ws *Workspace) Validate(creds domain.Credentials) error {
	return ws.run("validate", creds, false, func(tx *core.Tx, _ *caller) error {
		return tx.Validate()
	})
}

// Stats counts the live objects the caller can read, by kind.
func (ws *Workspace) Stats(creds domain.Credentials) (map[domain.EntityKind]int, error) {
	stats := make(map[domain.EntityKind]int)
	err := ws.run("stats", creds, false, func(tx *core.Tx, c *caller) error {
		objects, err := tx.Objects()
		if err != nil {
			return err
		}
		for _, obj := range objects {
			if ok, err := c.canRead(tx, obj); err != nil {
				return err
			} else if ok {
				stats[obj.Kind()]++
			}
		}
		return nil
	})
	return stats, err
}

// run is the template every gated operation follows: lock, resolve the
// caller, let fn authorize and delegate, unlock, translate.
func (ws *Workspace) run(op string, creds domain.Credentials, writable bool, fn func(tx *core.Tx, c *caller) error) error {
	start := time.Now()
	body := func(tx *core.Tx) error {
		c, err := ws.resolve(tx, op, creds)
		if err != nil {
			return err
		}
		return fn(tx, c)
	}
	var err error
	if writable {
		err = ws.store.Update(body)
	} else {
		err = ws.store.View(body)
	}
	err = translate(op, err)
	ws.metrics.Observe(context.Background(), op, err == nil, time.Since(start))
	if err != nil {
		ws.log.Debug().Err(err).Str("op", op).Str("caller", creds.String()).Msg("operation failed")
	}
	return err
}

// resolve maps credentials to the caller's account. Any failure, including
// a disabled account or user, is AccessDenied.
func (ws *Workspace) resolve(tx *core.Tx, op string, creds domain.Credentials) (*caller, error) {
	var account *core.Account
	if creds.IsSession() {
		oid, ok := ws.sessionAccount(creds.Session)
		if !ok {
			return nil, accessDenied(op, "unknown session")
		}
		obj, err := tx.FindObject(oid)
		if domain.IsKind(err, domain.KindDoesNotExist) {
			return nil, accessDenied(op, "session account no longer exists")
		} else if err != nil {
			return nil, err
		}
		acc, ok := obj.(*core.Account)
		if !ok {
			return nil, accessDenied(op, "unknown session")
		}
		if active, err := accountActive(tx, acc); err != nil {
			return nil, err
		} else if !active {
			return nil, accessDenied(op, "account disabled")
		}
		account = acc
	} else {
		acc, err := tx.TryLogin(creds.Login, creds.Password)
		if err != nil {
			return nil, err
		}
		if acc == nil {
			return nil, accessDenied(op, "invalid login or password")
		}
		account = acc
	}
	user, err := account.User(tx)
	if err != nil {
		return nil, err
	}
	caps, err := account.Capabilities(tx)
	if err != nil {
		return nil, err
	}
	return &caller{account: account, user: user, caps: caps}, nil
}

func accountActive(tx *core.Tx, acc *core.Account) (bool, error) {
	enabled, err := acc.Enabled(tx)
	if err != nil || !enabled {
		return false, err
	}
	user, err := acc.User(tx)
	if err != nil {
		return false, err
	}
	return user.Enabled(tx)
}
