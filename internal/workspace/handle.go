package workspace

import (
	"reflect"
	"sync"

	"timetracker/internal/core"
	"timetracker/pkg/domain"
)

// Ref is any handle, regardless of the entity type it points at.
type Ref interface {
	Oid() domain.Oid
	Kind() domain.EntityKind
	resolve() (*Workspace, core.Object, error)
}

// Handle is a counted reference to one engine object, obtained through a
// Workspace. The object stays addressable, possibly as Dead, until Release.
type Handle[T core.Object] struct {
	ws  *Workspace
	obj T

	mu       sync.Mutex
	released bool
}

func newHandle[T core.Object](ws *Workspace, tx *core.Tx, obj T) (*Handle[T], error) {
	if err := tx.AddReference(obj); err != nil {
		return nil, err
	}
	return &Handle[T]{ws: ws, obj: obj}, nil
}

func newHandles[U core.Object](ws *Workspace, tx *core.Tx, c *caller, list []U) ([]*Handle[U], error) {
	out := make([]*Handle[U], 0, len(list))
	for _, obj := range list {
		ok, err := c.canRead(tx, obj)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		h, err := newHandle(ws, tx, obj)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, nil
}

// Oid returns the target's identifier.
func (h *Handle[T]) Oid() domain.Oid { return h.obj.OID() }

// Kind returns the target's entity kind.
func (h *Handle[T]) Kind() domain.EntityKind { return h.obj.Kind() }

// Workspace returns the workspace the handle was issued by.
func (h *Handle[T]) Workspace() *Workspace { return h.ws }

// State returns the target's lifecycle state.
func (h *Handle[T]) State() (domain.ObjectState, error) {
	var state domain.ObjectState
	err := h.ws.store.View(func(tx *core.Tx) error {
		state = h.obj.State(tx)
		return nil
	})
	return state, translate("state", err)
}

// Release drops the handle's reference. Releasing twice is a no-op.
func (h *Handle[T]) Release() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return nil
	}
	h.released = true
	return translate("release", h.ws.store.RemoveReference(h.obj))
}

func (h *Handle[T]) resolve() (*Workspace, core.Object, error) {
	if h == nil || h.ws == nil {
		return nil, nil, &Error{Kind: domain.KindInvalidPropertyValue, Msg: "nil handle"}
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return nil, nil, &Error{Kind: domain.KindCustom, Entity: h.obj.Kind(), Msg: "handle released"}
	}
	return h.ws, h.obj, nil
}

// unwrap returns target's object after checking it was issued by ws.
func (ws *Workspace) unwrap(target Ref) (core.Object, error) {
	if isNil(target) {
		return nil, &Error{Kind: domain.KindInvalidPropertyValue, Msg: "nil handle"}
	}
	owner, obj, err := target.resolve()
	if err != nil {
		return nil, err
	}
	if owner != ws {
		return nil, &Error{Kind: domain.KindIncompatibleInstance, Entity: obj.Kind(), Msg: "handle belongs to a different workspace"}
	}
	return obj, nil
}

func unwrapAs[U core.Object](ws *Workspace, h *Handle[U]) (U, error) {
	var zero U
	if h == nil {
		return zero, nil
	}
	if _, err := ws.unwrap(h); err != nil {
		return zero, err
	}
	return h.obj, nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

// Get reads property p of h's target.
//
//	name, err := workspace.Get(h, creds, workspace.UserRealName)
func Get[T core.Object, V any](h *Handle[T], creds domain.Credentials, p Property[T, V]) (V, error) {
	var out V
	ws, _, err := h.resolve()
	if err != nil {
		return out, translate("get", err)
	}
	if p.get == nil {
		return out, translate("get", readOnly(h.obj.Kind(), p.name, "write-only"))
	}
	err = ws.run("get", creds, false, func(tx *core.Tx, c *caller) error {
		if err := c.requireRead(tx, "get", h.obj); err != nil {
			return err
		}
		var err error
		out, err = p.get(h.obj, tx)
		return err
	})
	return out, err
}

// Set changes property p of h's target.
//
//	err := workspace.Set(h, creds, workspace.UserRealName, "Ada")
func Set[T core.Object, V any](h *Handle[T], creds domain.Credentials, p Property[T, V], value V) error {
	ws, _, err := h.resolve()
	if err != nil {
		return translate("set", err)
	}
	if p.set == nil {
		return translate("set", readOnly(h.obj.Kind(), p.name, "read-only"))
	}
	return ws.run("set", creds, true, func(tx *core.Tx, c *caller) error {
		if err := c.requireModify(tx, "set", h.obj); err != nil {
			return err
		}
		return p.set(h.obj, tx, value)
	})
}

// Link points reference r of h's target at target, or clears it when
// target is nil. The caller must be able to modify h and read target.
//
//	err := workspace.Link(task, creds, workspace.ActivityParent, parent)
func Link[T, U core.Object](h *Handle[T], creds domain.Credentials, r Reference[T, U], target *Handle[U]) error {
	ws, _, err := h.resolve()
	if err != nil {
		return translate("link", err)
	}
	if r.set == nil {
		return translate("link", readOnly(h.obj.Kind(), r.name, "read-only"))
	}
	return ws.run("link", creds, true, func(tx *core.Tx, c *caller) error {
		if err := c.requireModify(tx, "link", h.obj); err != nil {
			return err
		}
		obj, err := unwrapAs(ws, target)
		if err != nil {
			return err
		}
		if target != nil {
			if err := c.requireRead(tx, "link", obj); err != nil {
				return err
			}
		}
		return r.set(h.obj, tx, obj)
	})
}

// Follow returns a handle to the object reference r of h's target points
// at, or nil when the reference is empty.
//
//	owner, err := workspace.Follow(activity, creds, workspace.ActivityOwner)
func Follow[T, U core.Object](h *Handle[T], creds domain.Credentials, r Reference[T, U]) (*Handle[U], error) {
	ws, _, err := h.resolve()
	if err != nil {
		return nil, translate("follow", err)
	}
	var out *Handle[U]
	err = ws.run("follow", creds, false, func(tx *core.Tx, c *caller) error {
		if err := c.requireRead(tx, "follow", h.obj); err != nil {
			return err
		}
		obj, err := r.get(h.obj, tx)
		if err != nil || isNil(obj) {
			return err
		}
		if err := c.requireRead(tx, "follow", obj); err != nil {
			return err
		}
		out, err = newHandle(ws, tx, obj)
		return err
	})
	return out, err
}

// Related returns handles to the objects in association a of h's target,
// skipping those the caller cannot read.
//
//	accounts, err := workspace.Related(user, creds, workspace.UserAccounts)
func Related[T, U core.Object](h *Handle[T], creds domain.Credentials, a Association[T, U]) ([]*Handle[U], error) {
	ws, _, err := h.resolve()
	if err != nil {
		return nil, translate("related", err)
	}
	var out []*Handle[U]
	err = ws.run("related", creds, false, func(tx *core.Tx, c *caller) error {
		if err := c.requireRead(tx, "related", h.obj); err != nil {
			return err
		}
		items, err := a.get(h.obj, tx)
		if err != nil {
			return err
		}
		out, err = newHandles(ws, tx, c, items)
		return err
	})
	return out, err
}

// Attach adds target to association a of h's target.
//
//	err := workspace.Attach(project, creds, workspace.WorkloadBeneficiaries, acme)
func Attach[T, U core.Object](h *Handle[T], creds domain.Credentials, a Association[T, U], target *Handle[U]) error {
	return changeOne(h, creds, "attach", a.name, a.add, target)
}

// Detach removes target from association a of h's target.
func Detach[T, U core.Object](h *Handle[T], creds domain.Credentials, a Association[T, U], target *Handle[U]) error {
	return changeOne(h, creds, "detach", a.name, a.remove, target)
}

func changeOne[T, U core.Object](h *Handle[T], creds domain.Credentials, op, name string, change func(T, *core.Tx, U) error, target *Handle[U]) error {
	ws, _, err := h.resolve()
	if err != nil {
		return translate(op, err)
	}
	if change == nil {
		return translate(op, readOnly(h.obj.Kind(), name, "read-only"))
	}
	return ws.run(op, creds, true, func(tx *core.Tx, c *caller) error {
		if err := c.requireModify(tx, op, h.obj); err != nil {
			return err
		}
		objs, err := readableTargets(ws, tx, c, op, []*Handle[U]{target})
		if err != nil {
			return err
		}
		return change(h.obj, tx, objs[0])
	})
}

// LinkAll replaces association a of h's target with targets, in order.
func LinkAll[T, U core.Object](h *Handle[T], creds domain.Credentials, a Association[T, U], targets []*Handle[U]) error {
	ws, _, err := h.resolve()
	if err != nil {
		return translate("link", err)
	}
	if a.set == nil {
		return translate("link", readOnly(h.obj.Kind(), a.name, "read-only"))
	}
	return ws.run("link", creds, true, func(tx *core.Tx, c *caller) error {
		if err := c.requireModify(tx, "link", h.obj); err != nil {
			return err
		}
		objs, err := readableTargets(ws, tx, c, "link", targets)
		if err != nil {
			return err
		}
		return a.set(h.obj, tx, objs)
	})
}

func readableTargets[U core.Object](ws *Workspace, tx *core.Tx, c *caller, op string, targets []*Handle[U]) ([]U, error) {
	objs := make([]U, 0, len(targets))
	for _, target := range targets {
		if target == nil {
			return nil, &Error{Kind: domain.KindInvalidPropertyValue, Msg: "nil handle"}
		}
		obj, err := unwrapAs(ws, target)
		if err != nil {
			return nil, err
		}
		if err := c.requireRead(tx, op, obj); err != nil {
			return nil, err
		}
		objs = append(objs, obj)
	}
	return objs, nil
}

func readOnly(kind domain.EntityKind, name, mode string) error {
	return &Error{Kind: domain.KindCustom, Entity: kind, Property: name, Msg: name + " is " + mode}
}

// List returns handles to the objects of listing l that the caller can
// read.
//
//	users, err := workspace.List(ws, creds, workspace.Users)
func List[U core.Object](ws *Workspace, creds domain.Credentials, l Listing[U]) ([]*Handle[U], error) {
	var out []*Handle[U]
	err := ws.run("list", creds, false, func(tx *core.Tx, c *caller) error {
		items, err := l.list(tx)
		if err != nil {
			return err
		}
		out, err = newHandles(ws, tx, c, items)
		return err
	})
	return out, err
}

// Lookup returns a handle to the live object with oid. An object of a
// different type than U does not exist as far as the caller is concerned.
func Lookup[U core.Object](ws *Workspace, creds domain.Credentials, oid domain.Oid) (*Handle[U], error) {
	var out *Handle[U]
	err := ws.run("lookup", creds, false, func(tx *core.Tx, c *caller) error {
		obj, err := tx.FindObject(oid)
		if err != nil {
			return err
		}
		typed, ok := obj.(U)
		if !ok {
			return &Error{Kind: domain.KindDoesNotExist, Property: "Oid", Value: oid.String()}
		}
		if err := c.requireRead(tx, "lookup", typed); err != nil {
			return err
		}
		out, err = newHandle(ws, tx, typed)
		return err
	})
	return out, err
}

// Destroy destroys target together with everything it aggregates.
func (ws *Workspace) Destroy(creds domain.Credentials, target Ref) error {
	return ws.run("destroy", creds, true, func(tx *core.Tx, c *caller) error {
		obj, err := ws.unwrap(target)
		if err != nil {
			return err
		}
		if err := c.requireDestroy(tx, "destroy", obj); err != nil {
			return err
		}
		return tx.Destroy(obj)
	})
}
