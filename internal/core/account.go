package core

import (
	"crypto/sha1"
	"encoding/hex"
	"slices"
	"strings"

	"timetracker/pkg/domain"
)

// Account is a login belonging to a user. Only the password hash is kept.
type Account struct {
	object

	user           *User
	login          string
	passwordHash   string
	capabilities   domain.Capabilities
	enabled        bool
	emailAddresses []string

	quickPicks []*Activity
	works      []*Work
	events     []*Event
}

// AccountFields are the initial properties of a new account.
type AccountFields struct {
	Login          string
	Password       string
	Capabilities   domain.Capabilities
	EmailAddresses []string
}

// HashPassword returns the uppercase hex SHA-1 digest of password.
func HashPassword(password string) string {
	sum := sha1.Sum([]byte(password))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

// CreateAccount creates an enabled account for user. Logins are unique
// among live accounts.
func (tx *Tx) CreateAccount(user *User, fields AccountFields) (*Account, error) {
	if err := tx.mutable(); err != nil {
		return nil, err
	}
	if err := tx.argument(user); err != nil {
		return nil, err
	}
	v := tx.validator().Account
	switch {
	case !v.IsValidLogin(fields.Login):
		return nil, errInvalidProperty(domain.EntityAccount, "Login", fields.Login)
	case !v.IsValidPassword(fields.Password):
		return nil, errInvalidProperty(domain.EntityAccount, "Password", "********")
	case !v.IsValidCapabilities(fields.Capabilities):
		return nil, errInvalidProperty(domain.EntityAccount, "Capabilities", fields.Capabilities)
	case !v.IsValidEmailAddresses(fields.EmailAddresses):
		return nil, errInvalidProperty(domain.EntityAccount, "EmailAddresses", joinEmails(fields.EmailAddresses))
	}
	if tx.store.accountByLogin(fields.Login) != nil {
		return nil, errAlreadyExists(domain.EntityAccount, "Login", fields.Login)
	}
	a := &Account{
		object:         newObject(tx.store, tx.nextOid(), domain.EntityAccount),
		user:           user,
		login:          fields.Login,
		passwordHash:   HashPassword(fields.Password),
		capabilities:   fields.Capabilities,
		enabled:        true,
		emailAddresses: cloneList(fields.EmailAddresses),
	}
	tx.store.register(a)
	link(tx, user, &user.accounts, a)
	return a, tx.structural()
}

func (s *Store) accountByLogin(login string) *Account {
	for _, obj := range s.live {
		if a, ok := obj.(*Account); ok && a.login == login {
			return a
		}
	}
	return nil
}

// Accounts returns every live account in oid order.
func (tx *Tx) Accounts() ([]*Account, error) {
	if err := tx.check(); err != nil {
		return nil, err
	}
	return liveOf[*Account](tx.store, nil), nil
}

// FindAccountByLogin returns the live account with the given login.
func (tx *Tx) FindAccountByLogin(login string) (*Account, error) {
	if err := tx.check(); err != nil {
		return nil, err
	}
	a := tx.store.accountByLogin(login)
	if a == nil {
		return nil, errDoesNotExist(domain.EntityAccount, "Login", login)
	}
	return a, nil
}

// TryLogin returns the account identified by login and password, or nil
// when the login is unknown, the password does not match, or the account
// or its user is disabled.
func (tx *Tx) TryLogin(login, password string) (*Account, error) {
	if err := tx.check(); err != nil {
		return nil, err
	}
	a := tx.store.accountByLogin(login)
	if a == nil || !a.enabled || !a.user.enabled {
		return nil, nil
	}
	if a.passwordHash != HashPassword(password) {
		return nil, nil
	}
	return a, nil
}

// User returns the account's owner.
func (a *Account) User(tx *Tx) (*User, error) {
	return readProp(tx, &a.object, func() *User { return a.user })
}

// Login returns the account's login.
func (a *Account) Login(tx *Tx) (string, error) {
	return readProp(tx, &a.object, func() string { return a.login })
}

// SetLogin changes the login. The new login must not be used by another
// live account.
func (a *Account) SetLogin(tx *Tx, login string) error {
	return tx.set(a, func() error {
		if !tx.validator().Account.IsValidLogin(login) {
			return errInvalidProperty(a.kind, "Login", login)
		}
		if other := tx.store.accountByLogin(login); other != nil && other != a {
			return errAlreadyExists(a.kind, "Login", login)
		}
		return nil
	}, func() bool { return assign(&a.login, login) })
}

// PasswordHash returns the stored password digest.
func (a *Account) PasswordHash(tx *Tx) (string, error) {
	return readProp(tx, &a.object, func() string { return a.passwordHash })
}

// SetPassword replaces the password. Only its hash is stored.
func (a *Account) SetPassword(tx *Tx, password string) error {
	return tx.set(a, func() error {
		return invalidUnless(tx.validator().Account.IsValidPassword(password), a.kind, "Password", "********")
	}, func() bool { return assign(&a.passwordHash, HashPassword(password)) })
}

// Capabilities returns the capabilities granted to the account.
func (a *Account) Capabilities(tx *Tx) (domain.Capabilities, error) {
	return readProp(tx, &a.object, func() domain.Capabilities { return a.capabilities })
}

// SetCapabilities replaces the granted capabilities.
func (a *Account) SetCapabilities(tx *Tx, caps domain.Capabilities) error {
	return tx.set(a, func() error {
		return invalidUnless(tx.validator().Account.IsValidCapabilities(caps), a.kind, "Capabilities", caps)
	}, func() bool { return assign(&a.capabilities, caps) })
}

// Enabled reports whether the account may log in.
func (a *Account) Enabled(tx *Tx) (bool, error) {
	return readProp(tx, &a.object, func() bool { return a.enabled })
}

// SetEnabled enables or disables the account.
func (a *Account) SetEnabled(tx *Tx, enabled bool) error {
	return tx.set(a, nil, func() bool { return assign(&a.enabled, enabled) })
}

// EmailAddresses returns the account's email addresses.
func (a *Account) EmailAddresses(tx *Tx) ([]string, error) {
	return readProp(tx, &a.object, func() []string { return cloneList(a.emailAddresses) })
}

// SetEmailAddresses replaces the account's email addresses.
func (a *Account) SetEmailAddresses(tx *Tx, addresses []string) error {
	return tx.set(a, func() error {
		return invalidUnless(tx.validator().Account.IsValidEmailAddresses(addresses), a.kind, "EmailAddresses", joinEmails(addresses))
	}, func() bool { return assignStrings(&a.emailAddresses, addresses) })
}

// QuickPickList returns the activities pinned by the account, in order.
func (a *Account) QuickPickList(tx *Tx) ([]*Activity, error) {
	return readProp(tx, &a.object, func() []*Activity { return cloneList(a.quickPicks) })
}

func (a *Account) checkQuickPick(tx *Tx, act *Activity) error {
	if err := tx.argument(act); err != nil {
		return err
	}
	if act.owner != nil && act.owner != a.user {
		return errIncompatible(act.kind, "private activity belongs to another user")
	}
	return nil
}

// AddToQuickPickList appends act to the quick-pick list. Private activities
// must belong to the account's user.
func (a *Account) AddToQuickPickList(tx *Tx, act *Activity) error {
	if err := tx.write(&a.object); err != nil {
		return err
	}
	if err := a.checkQuickPick(tx, act); err != nil {
		return err
	}
	linkQuickPick(tx, a, act)
	return tx.structural()
}

// RemoveFromQuickPickList removes act from the quick-pick list.
func (a *Account) RemoveFromQuickPickList(tx *Tx, act *Activity) error {
	if err := tx.write(&a.object); err != nil {
		return err
	}
	if err := tx.argument(act); err != nil {
		return err
	}
	unlinkQuickPick(tx, a, act)
	return tx.structural()
}

// SetQuickPickList replaces the quick-pick list, keeping the given order.
func (a *Account) SetQuickPickList(tx *Tx, list []*Activity) error {
	if err := tx.write(&a.object); err != nil {
		return err
	}
	for _, act := range list {
		if err := a.checkQuickPick(tx, act); err != nil {
			return err
		}
	}
	if hasDuplicates(list) {
		return errInvalidProperty(a.kind, "QuickPickList", "duplicate activity")
	}
	for _, act := range cloneList(a.quickPicks) {
		if !containsItem(list, act) {
			unlinkQuickPick(tx, a, act)
		}
	}
	for _, act := range list {
		linkQuickPick(tx, a, act)
	}
	if !slices.Equal(a.quickPicks, list) {
		a.quickPicks = cloneList(list)
		tx.store.touch(a)
	}
	return tx.structural()
}

// Works returns the work logged by the account.
func (a *Account) Works(tx *Tx) ([]*Work, error) {
	return readProp(tx, &a.object, func() []*Work { return cloneList(a.works) })
}

// Events returns the events logged by the account.
func (a *Account) Events(tx *Tx) ([]*Event, error) {
	return readProp(tx, &a.object, func() []*Event { return cloneList(a.events) })
}

func (a *Account) destroyLocked(tx *Tx) {
	beginDestroy(a)
	for _, w := range cloneList(a.works) {
		tx.destroy(w)
	}
	for _, e := range cloneList(a.events) {
		tx.destroy(e)
	}
	for _, act := range cloneList(a.quickPicks) {
		unlinkQuickPick(tx, a, act)
	}
	unlink(tx, a.user, &a.user.accounts, a)
	tx.store.kill(a)
}
