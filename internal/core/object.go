package core

import "timetracker/pkg/domain"

// Object is implemented by every entity the store owns. Identity accessors
// are immutable and safe without a transaction; everything else takes a *Tx.
type Object interface {
	OID() domain.Oid
	Kind() domain.EntityKind
	Store() *Store
	State(tx *Tx) domain.ObjectState
	IsLive(tx *Tx) bool
	ReferenceCount(tx *Tx) int
	base() *object
}

// object carries the lifecycle bookkeeping shared by all entities. All
// mutable fields are guarded by the owning store's mutex.
type object struct {
	store *Store
	oid   domain.Oid
	kind  domain.EntityKind
	state domain.ObjectState
	live  bool
	refs  int
	// dying is set while destroy cascades so survivors-only events skip it.
	dying bool
	// deallocated is set once a dead object leaves the graveyard.
	deallocated bool
}

func newObject(store *Store, oid domain.Oid, kind domain.EntityKind) object {
	return object{store: store, oid: oid, kind: kind, state: domain.StateNew, live: true}
}

// OID returns the object's identifier.
func (o *object) OID() domain.Oid { return o.oid }

// Kind returns the object's entity kind.
func (o *object) Kind() domain.EntityKind { return o.kind }

// Store returns the owning store.
func (o *object) Store() *Store { return o.store }

func (o *object) base() *object { return o }

// State returns New, Managed, Old or Dead.
func (o *object) State(tx *Tx) domain.ObjectState {
	tx.mustBelong(o)
	if !o.live {
		return domain.StateDead
	}
	return o.state
}

// IsLive reports whether the object has not been destroyed.
func (o *object) IsLive(tx *Tx) bool {
	tx.mustBelong(o)
	return o.live
}

// ReferenceCount returns the number of active holders.
func (o *object) ReferenceCount(tx *Tx) int {
	tx.mustBelong(o)
	return o.refs
}

func (o *object) addReference() {
	o.refs++
	if o.live {
		o.state = domain.StateManaged
	}
}

// removeReference reports whether the object must now be deallocated.
func (o *object) removeReference() (release bool, err error) {
	if o.refs == 0 {
		return false, errCustom("reference count underflow on "+o.kind.DisplayName()+" "+o.oid.String(), nil)
	}
	o.refs--
	if o.refs == 0 {
		if !o.live {
			return true, nil
		}
		o.state = domain.StateOld
	}
	return false, nil
}
