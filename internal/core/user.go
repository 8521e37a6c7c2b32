package core

import (
	"slices"
	"time"

	"timetracker/pkg/domain"
)

// User is a person known to the workspace. A user owns accounts and private
// activities and may be assigned to workloads.
type User struct {
	object

	realName          string
	inactivityTimeout *time.Duration
	uiLocale          string
	emailAddresses    []string
	enabled           bool

	accounts          []*Account
	privateActivities []*Activity
	workloads         []*Workload
}

// UserFields are the initial properties of a new user.
type UserFields struct {
	RealName          string
	InactivityTimeout *time.Duration
	UILocale          string
	EmailAddresses    []string
}

func (f UserFields) validate(tx *Tx) error {
	v := tx.validator().User
	if !v.IsValidRealName(f.RealName) {
		return errInvalidProperty(domain.EntityUser, "RealName", f.RealName)
	}
	if !v.IsValidInactivityTimeout(f.InactivityTimeout) {
		return errInvalidProperty(domain.EntityUser, "InactivityTimeout", f.InactivityTimeout)
	}
	if !v.IsValidUILocale(f.UILocale) {
		return errInvalidProperty(domain.EntityUser, "UILocale", f.UILocale)
	}
	if !v.IsValidEmailAddresses(f.EmailAddresses) {
		return errInvalidProperty(domain.EntityUser, "EmailAddresses", joinEmails(f.EmailAddresses))
	}
	return nil
}

// CreateUser creates an enabled user.
func (tx *Tx) CreateUser(fields UserFields) (*User, error) {
	if err := tx.mutable(); err != nil {
		return nil, err
	}
	if err := fields.validate(tx); err != nil {
		return nil, err
	}
	u := &User{
		object:            newObject(tx.store, tx.nextOid(), domain.EntityUser),
		realName:          fields.RealName,
		inactivityTimeout: cloneDuration(fields.InactivityTimeout),
		uiLocale:          fields.UILocale,
		emailAddresses:    cloneList(fields.EmailAddresses),
		enabled:           true,
	}
	tx.store.register(u)
	return u, tx.structural()
}

// Users returns every live user in oid order.
func (tx *Tx) Users() ([]*User, error) {
	if err := tx.check(); err != nil {
		return nil, err
	}
	return liveOf[*User](tx.store, nil), nil
}

// FindUserByRealName returns the first live user, in oid order, whose real
// name equals name.
func (tx *Tx) FindUserByRealName(name string) (*User, error) {
	if err := tx.check(); err != nil {
		return nil, err
	}
	found := liveOf(tx.store, func(u *User) bool { return u.realName == name })
	if len(found) == 0 {
		return nil, errDoesNotExist(domain.EntityUser, "RealName", name)
	}
	return found[0], nil
}

// RealName returns the user's real name.
func (u *User) RealName(tx *Tx) (string, error) {
	return readProp(tx, &u.object, func() string { return u.realName })
}

// SetRealName changes the user's real name.
func (u *User) SetRealName(tx *Tx, name string) error {
	return tx.set(u, func() error {
		return invalidUnless(tx.validator().User.IsValidRealName(name), u.kind, "RealName", name)
	}, func() bool { return assign(&u.realName, name) })
}

// InactivityTimeout returns the user's inactivity timeout, nil when unset.
func (u *User) InactivityTimeout(tx *Tx) (*time.Duration, error) {
	return readProp(tx, &u.object, func() *time.Duration { return cloneDuration(u.inactivityTimeout) })
}

// SetInactivityTimeout changes the inactivity timeout; nil clears it.
func (u *User) SetInactivityTimeout(tx *Tx, timeout *time.Duration) error {
	return tx.set(u, func() error {
		return invalidUnless(tx.validator().User.IsValidInactivityTimeout(timeout), u.kind, "InactivityTimeout", timeout)
	}, func() bool { return assignDuration(&u.inactivityTimeout, timeout) })
}

// UILocale returns the user's UI locale tag, empty for the system default.
func (u *User) UILocale(tx *Tx) (string, error) {
	return readProp(tx, &u.object, func() string { return u.uiLocale })
}

// SetUILocale changes the UI locale.
func (u *User) SetUILocale(tx *Tx, locale string) error {
	return tx.set(u, func() error {
		return invalidUnless(tx.validator().User.IsValidUILocale(locale), u.kind, "UILocale", locale)
	}, func() bool { return assign(&u.uiLocale, locale) })
}

// EmailAddresses returns the user's email addresses.
func (u *User) EmailAddresses(tx *Tx) ([]string, error) {
	return readProp(tx, &u.object, func() []string { return cloneList(u.emailAddresses) })
}

// SetEmailAddresses replaces the user's email addresses.
func (u *User) SetEmailAddresses(tx *Tx, addresses []string) error {
	return tx.set(u, func() error {
		return invalidUnless(tx.validator().User.IsValidEmailAddresses(addresses), u.kind, "EmailAddresses", joinEmails(addresses))
	}, func() bool { return assignStrings(&u.emailAddresses, addresses) })
}

// Enabled reports whether the user may log in.
func (u *User) Enabled(tx *Tx) (bool, error) {
	return readProp(tx, &u.object, func() bool { return u.enabled })
}

// SetEnabled enables or disables the user.
func (u *User) SetEnabled(tx *Tx, enabled bool) error {
	return tx.set(u, nil, func() bool { return assign(&u.enabled, enabled) })
}

// Accounts returns the user's accounts.
func (u *User) Accounts(tx *Tx) ([]*Account, error) {
	return readProp(tx, &u.object, func() []*Account { return cloneList(u.accounts) })
}

// PrivateActivities returns the plain activities owned by the user.
func (u *User) PrivateActivities(tx *Tx) ([]*Activity, error) {
	return readProp(tx, &u.object, func() []*Activity {
		return filterActivities(u.privateActivities, func(a *Activity) bool { return a.task == nil })
	})
}

// PrivateTasks returns every task owned by the user.
func (u *User) PrivateTasks(tx *Tx) ([]*Activity, error) {
	return readProp(tx, &u.object, func() []*Activity {
		return filterActivities(u.privateActivities, func(a *Activity) bool { return a.task != nil })
	})
}

// RootPrivateTasks returns the user's tasks that have no parent.
func (u *User) RootPrivateTasks(tx *Tx) ([]*Activity, error) {
	return readProp(tx, &u.object, func() []*Activity {
		return filterActivities(u.privateActivities, func(a *Activity) bool { return a.task != nil && a.task.parent == nil })
	})
}

// Workloads returns the workloads the user is assigned to.
func (u *User) Workloads(tx *Tx) ([]*Workload, error) {
	return readProp(tx, &u.object, func() []*Workload { return cloneList(u.workloads) })
}

// AddWorkload assigns the user to w. Both sides are updated.
func (u *User) AddWorkload(tx *Tx, w *Workload) error {
	return w.AddAssignee(tx, u)
}

// RemoveWorkload unassigns the user from w. Both sides are updated.
func (u *User) RemoveWorkload(tx *Tx, w *Workload) error {
	return w.RemoveAssignee(tx, u)
}

// SetWorkloads replaces the user's workload assignments.
func (u *User) SetWorkloads(tx *Tx, workloads []*Workload) error {
	if err := tx.write(&u.object); err != nil {
		return err
	}
	if err := checkArguments(tx, workloads); err != nil {
		return err
	}
	if hasDuplicates(workloads) {
		return errInvalidProperty(u.kind, "Workloads", "duplicate workload")
	}
	for _, w := range cloneList(u.workloads) {
		if !containsItem(workloads, w) {
			unlinkAssignee(tx, w, u)
		}
	}
	for _, w := range workloads {
		linkAssignee(tx, w, u)
	}
	if !slices.Equal(u.workloads, workloads) {
		u.workloads = cloneList(workloads)
		tx.store.touch(u)
	}
	return tx.structural()
}

func (u *User) destroyLocked(tx *Tx) {
	beginDestroy(u)
	for _, a := range cloneList(u.accounts) {
		tx.destroy(a)
	}
	for _, a := range cloneList(u.privateActivities) {
		tx.destroy(a)
	}
	for _, w := range cloneList(u.workloads) {
		unlinkAssignee(tx, w, u)
	}
	tx.store.kill(u)
}

func filterActivities(list []*Activity, keep func(*Activity) bool) []*Activity {
	var out []*Activity
	for _, a := range list {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out
}
