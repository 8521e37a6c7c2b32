package core

import (
	"reflect"

	"timetracker/pkg/domain"
)

// Tx is the token handed to View and Update callbacks. Holding one proves
// the store lock is held, so every entity accessor requires it. A Tx must
// not be retained after its callback returns.
type Tx struct {
	store    *Store
	writable bool
	done     bool
}

// Store returns the store the transaction runs against.
func (tx *Tx) Store() *Store { return tx.store }

// Writable reports whether the transaction was started by Update.
func (tx *Tx) Writable() bool { return tx.writable }

func (tx *Tx) check() error {
	if tx == nil || tx.done {
		return errCustom("transaction is no longer active", nil)
	}
	if !tx.store.open {
		return errStoreClosed()
	}
	return nil
}

func (tx *Tx) mustBelong(o *object) {
	if tx == nil || tx.done || o.store != tx.store {
		panic("core: object accessed outside a transaction of its store")
	}
}

// read verifies that o can be read inside tx.
func (tx *Tx) read(o *object) error {
	if err := tx.check(); err != nil {
		return err
	}
	if o.store != tx.store {
		return errIncompatible(o.kind, "object belongs to a different store")
	}
	if !o.live {
		return errInstanceDead(o.kind)
	}
	return nil
}

// write verifies that o can be modified inside tx.
func (tx *Tx) write(o *object) error {
	if err := tx.read(o); err != nil {
		return err
	}
	if !tx.writable {
		return errCustom("read-only transaction", nil)
	}
	return nil
}

func (tx *Tx) mutable() error {
	if err := tx.check(); err != nil {
		return err
	}
	if !tx.writable {
		return errCustom("read-only transaction", nil)
	}
	return nil
}

// argument verifies that an object passed as an operand is a live member
// of this store.
func (tx *Tx) argument(obj Object) error {
	if isNilObject(obj) {
		return errMissingObject()
	}
	o := obj.base()
	if o.store != tx.store {
		return errIncompatible(o.kind, "object belongs to a different store")
	}
	if !o.live {
		return errInstanceDead(o.kind)
	}
	return nil
}

// structural runs the self check after a structural mutation when enabled.
func (tx *Tx) structural() error {
	if !tx.store.selfCheck {
		return nil
	}
	return tx.store.validateLocked()
}

// AddReference registers a holder of obj. Dead objects may still be held.
func (tx *Tx) AddReference(obj Object) error {
	if err := tx.check(); err != nil {
		return err
	}
	if isNilObject(obj) {
		return errMissingObject()
	}
	o := obj.base()
	if o.store != tx.store {
		return errIncompatible(o.kind, "object belongs to a different store")
	}
	if o.deallocated {
		return errInstanceDead(o.kind)
	}
	o.addReference()
	return nil
}

// RemoveReference releases a holder of obj. It works on closed stores so
// that handles can be released after Close.
func (tx *Tx) RemoveReference(obj Object) error {
	if tx == nil || tx.done {
		return errCustom("transaction is no longer active", nil)
	}
	if isNilObject(obj) {
		return errMissingObject()
	}
	o := obj.base()
	if o.store != tx.store {
		return errIncompatible(o.kind, "object belongs to a different store")
	}
	release, err := o.removeReference()
	if err != nil {
		return err
	}
	if release {
		delete(tx.store.graveyard, o.oid)
		o.deallocated = true
		tx.store.log.Debug().Str("kind", string(o.kind)).Str("oid", o.oid.String()).Msg("object deallocated")
	}
	return nil
}

// FindObject returns the live object with the given oid.
func (tx *Tx) FindObject(oid domain.Oid) (Object, error) {
	if err := tx.check(); err != nil {
		return nil, err
	}
	obj, ok := tx.store.live[oid]
	if !ok {
		return nil, errDoesNotExist("", "Oid", oid)
	}
	return obj, nil
}

// Objects returns every live object in oid order.
func (tx *Tx) Objects() ([]Object, error) {
	if err := tx.check(); err != nil {
		return nil, err
	}
	return liveOf[Object](tx.store, nil), nil
}

// Destroy severs obj's associations, cascades to aggregated objects and
// marks everything dead. Destroying a dead object fails with InstanceDead.
func (tx *Tx) Destroy(obj Object) error {
	if err := tx.mutable(); err != nil {
		return err
	}
	if err := tx.argument(obj); err != nil {
		return err
	}
	tx.destroy(obj)
	return tx.structural()
}

func (tx *Tx) destroy(obj Object) {
	if !obj.base().live {
		return
	}
	switch o := obj.(type) {
	case *User:
		o.destroyLocked(tx)
	case *Account:
		o.destroyLocked(tx)
	case *ActivityType:
		o.destroyLocked(tx)
	case *Activity:
		o.destroyLocked(tx)
	case *Workload:
		o.destroyLocked(tx)
	case *Beneficiary:
		o.destroyLocked(tx)
	case *Work:
		o.destroyLocked(tx)
	case *Event:
		o.destroyLocked(tx)
	default:
		panic("core: destroy of unknown object type")
	}
}

// Validate runs the validation pass inside the transaction.
func (tx *Tx) Validate() error {
	if err := tx.check(); err != nil {
		return err
	}
	return tx.store.validateLocked()
}

func (tx *Tx) nextOid() domain.Oid {
	return tx.store.oids.Next(tx.store.now())
}

func isNilObject(obj Object) bool {
	if obj == nil {
		return true
	}
	v := reflect.ValueOf(obj)
	return v.Kind() == reflect.Pointer && v.IsNil()
}
