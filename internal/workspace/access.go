package workspace

import (
	"timetracker/internal/core"
	"timetracker/pkg/domain"
)

// caller is the resolved identity of one operation.
type caller struct {
	account *core.Account
	user    *core.User
	caps    domain.Capabilities
}

// manageCapability is the capability that grants modify and destroy on
// each kind, on top of Administrator.
var manageCapability = map[domain.EntityKind]domain.Capability{
	domain.EntityUser:            domain.CapManageUsers,
	domain.EntityAccount:         domain.CapManageUsers,
	domain.EntityActivityType:    domain.CapManageActivityTypes,
	domain.EntityBeneficiary:     domain.CapManageBeneficiaries,
	domain.EntityProject:         domain.CapManageWorkloads,
	domain.EntityWorkStream:      domain.CapManageWorkloads,
	domain.EntityPublicActivity:  domain.CapManagePublicActivities,
	domain.EntityPublicTask:      domain.CapManagePublicTasks,
	domain.EntityPrivateActivity: domain.CapManagePrivateActivities,
	domain.EntityPrivateTask:     domain.CapManagePrivateTasks,
	domain.EntityWork:            domain.CapLogWork,
	domain.EntityEvent:           domain.CapLogEvents,
}

func (c *caller) isAdmin() bool { return c.caps.Contains(domain.CapAdministrator) }

func (c *caller) has(kind domain.EntityKind) bool {
	if c.isAdmin() {
		return true
	}
	capability, ok := manageCapability[kind]
	return ok && c.caps.Contains(capability)
}

func errDead(kind domain.EntityKind) error {
	return &Error{Kind: domain.KindInstanceDead, Entity: kind}
}

// owns reports whether obj belongs to the caller: the owner of a private
// activity, or the account of a work or event.
func (c *caller) owns(tx *core.Tx, obj core.Object) (bool, error) {
	switch o := obj.(type) {
	case *core.Activity:
		owner, err := o.Owner(tx)
		return owner != nil && owner == c.user, err
	case *core.Work:
		acc, err := o.Account(tx)
		return acc == c.account, err
	case *core.Event:
		acc, err := o.Account(tx)
		return acc == c.account, err
	default:
		return false, nil
	}
}

func needsOwnership(kind domain.EntityKind) bool {
	return kind.IsPrivate() || kind == domain.EntityWork || kind == domain.EntityEvent
}

// canRead: store-wide, except private activities and tasks which only
// their owner and administrators see.
func (c *caller) canRead(tx *core.Tx, obj core.Object) (bool, error) {
	if !obj.IsLive(tx) {
		return false, errDead(obj.Kind())
	}
	if !obj.Kind().IsPrivate() || c.isAdmin() {
		return true, nil
	}
	return c.owns(tx, obj)
}

func (c *caller) canModify(tx *core.Tx, obj core.Object) (bool, error) {
	if !obj.IsLive(tx) {
		return false, errDead(obj.Kind())
	}
	if c.isAdmin() {
		return true, nil
	}
	if !c.has(obj.Kind()) {
		return false, nil
	}
	if needsOwnership(obj.Kind()) {
		return c.owns(tx, obj)
	}
	return true, nil
}

func (c *caller) canDestroy(tx *core.Tx, obj core.Object) (bool, error) {
	return c.canModify(tx, obj)
}

// canCreate checks the capability for a new object of kind owned by owner
// (nil for store-owned kinds).
func (c *caller) canCreate(kind domain.EntityKind, owner *core.User) bool {
	if c.isAdmin() {
		return true
	}
	if !c.has(kind) {
		return false
	}
	if kind.IsPrivate() {
		return owner == c.user
	}
	return true
}

func (c *caller) requireRead(tx *core.Tx, op string, obj core.Object) error {
	ok, err := c.canRead(tx, obj)
	if err != nil {
		return err
	}
	if !ok {
		return &Error{Kind: domain.KindAccessDenied, Op: op, Entity: obj.Kind(), Msg: "read not permitted"}
	}
	return nil
}

func (c *caller) requireModify(tx *core.Tx, op string, obj core.Object) error {
	ok, err := c.canModify(tx, obj)
	if err != nil {
		return err
	}
	if !ok {
		return &Error{Kind: domain.KindAccessDenied, Op: op, Entity: obj.Kind(), Msg: "modify not permitted"}
	}
	return nil
}

func (c *caller) requireDestroy(tx *core.Tx, op string, obj core.Object) error {
	ok, err := c.canDestroy(tx, obj)
	if err != nil {
		return err
	}
	if !ok {
		return &Error{Kind: domain.KindAccessDenied, Op: op, Entity: obj.Kind(), Msg: "destroy not permitted"}
	}
	return nil
}

func (c *caller) requireCreate(op string, kind domain.EntityKind, owner *core.User) error {
	if !c.canCreate(kind, owner) {
		return &Error{Kind: domain.KindAccessDenied, Op: op, Entity: kind, Msg: "create not permitted"}
	}
	return nil
}

type check func(c *caller, tx *core.Tx, obj core.Object) (bool, error)

// CanRead reports whether creds may read target. Denial, including
// credentials that do not resolve to an enabled account, is false rather
// than an error; dead or foreign targets still fail.
func (ws *Workspace) CanRead(creds domain.Credentials, target Ref) (bool, error) {
	return ws.allowed("can_read", creds, target, (*caller).canRead)
}

// CanModify reports whether creds may modify target.
func (ws *Workspace) CanModify(creds domain.Credentials, target Ref) (bool, error) {
	return ws.allowed("can_modify", creds, target, (*caller).canModify)
}

// CanDestroy reports whether creds may destroy target.
func (ws *Workspace) CanDestroy(creds domain.Credentials, target Ref) (bool, error) {
	return ws.allowed("can_destroy", creds, target, (*caller).canDestroy)
}

func (ws *Workspace) allowed(op string, creds domain.Credentials, target Ref, fn check) (bool, error) {
	var ok, resolved bool
	err := ws.run(op, creds, false, func(tx *core.Tx, c *caller) error {
		resolved = true
		obj, err := ws.unwrap(target)
		if err != nil {
			return err
		}
		ok, err = fn(c, tx, obj)
		return err
	})
	if !resolved && domain.IsKind(err, domain.KindAccessDenied) {
		return false, nil
	}
	return ok, err
}
