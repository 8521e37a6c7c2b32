package core

import (
	"fmt"

	"timetracker/pkg/domain"
)

// validateLocked walks every live object once and reports the first
// structural violation as StoreCorrupt.
func (s *Store) validateLocked() error {
	c := &checker{
		store:   s,
		visited: make(map[Object]struct{}, len(s.live)),
		names:   make(map[nameKey]Object),
	}
	for _, obj := range liveOf[Object](s, nil) {
		if err := c.visit(obj); err != nil {
			return err
		}
	}
	for oid, obj := range s.graveyard {
		o := obj.base()
		if o.live || o.refs == 0 || o.oid != oid {
			return s.errCorrupt("graveyard entry %s is not a referenced dead object", oid)
		}
	}
	return nil
}

type nameKey struct {
	kind   domain.EntityKind
	scope  Object
	parent Object
	name   string
}

type checker struct {
	store   *Store
	visited map[Object]struct{}
	names   map[nameKey]Object
}

func (c *checker) fail(obj Object, format string, args ...any) error {
	return c.store.errCorrupt("%s %s: %s", obj.Kind().DisplayName(), obj.OID(), fmt.Sprintf(format, args...))
}

// target verifies that an association endpoint is a live member of the store.
func (c *checker) target(from Object, name string, to Object) error {
	if isNilObject(to) {
		return c.fail(from, "%s refers to nothing", name)
	}
	o := to.base()
	if o.store != c.store || !o.live || c.store.live[o.oid] != to {
		return c.fail(from, "%s refers to %s %s which is not live", name, o.kind.DisplayName(), o.oid)
	}
	return nil
}

func (c *checker) property(obj Object, ok bool, name string) error {
	if ok {
		return nil
	}
	return c.fail(obj, "invalid %s", name)
}

func (c *checker) unique(obj Object, key nameKey) error {
	if other, dup := c.names[key]; dup && other != obj {
		return c.fail(obj, "name %q already used by %s", key.name, other.OID())
	}
	c.names[key] = obj
	return nil
}

// symmetric checks that every item of list is a live target whose reverse
// list (or reference) points back at owner.
func symmetric[T interface {
	Object
	comparable
}](c *checker, owner Object, name string, list []T, back func(T) bool) error {
	if hasDuplicates(list) {
		return c.fail(owner, "%s has duplicates", name)
	}
	for _, item := range list {
		if err := c.target(owner, name, item); err != nil {
			return err
		}
		if !back(item) {
			return c.fail(owner, "%s entry %s does not refer back", name, item.OID())
		}
	}
	return nil
}

func (c *checker) visit(obj Object) error {
	if _, seen := c.visited[obj]; seen {
		return c.fail(obj, "indexed twice")
	}
	c.visited[obj] = struct{}{}
	o := obj.base()
	if o.store != c.store || !o.live || !o.oid.IsValid() || c.store.live[o.oid] != obj {
		return c.fail(obj, "not a live member of the store")
	}
	if _, dead := c.store.graveyard[o.oid]; dead {
		return c.fail(obj, "live object in graveyard")
	}
	switch x := obj.(type) {
	case *User:
		return c.user(x)
	case *Account:
		return c.account(x)
	case *ActivityType:
		return c.activityType(x)
	case *Activity:
		return c.activity(x)
	case *Workload:
		return c.workload(x)
	case *Beneficiary:
		return c.beneficiary(x)
	case *Work:
		return c.work(x)
	case *Event:
		return c.event(x)
	default:
		return c.fail(obj, "unknown object type %T", obj)
	}
}

func (c *checker) user(u *User) error {
	v := c.store.validator.User
	for _, err := range []error{
		c.property(u, v.IsValidRealName(u.realName), "RealName"),
		c.property(u, v.IsValidInactivityTimeout(u.inactivityTimeout), "InactivityTimeout"),
		c.property(u, v.IsValidUILocale(u.uiLocale), "UILocale"),
		c.property(u, v.IsValidEmailAddresses(u.emailAddresses), "EmailAddresses"),
		symmetric(c, u, "Accounts", u.accounts, func(a *Account) bool { return a.user == u }),
		symmetric(c, u, "PrivateActivities", u.privateActivities, func(a *Activity) bool { return a.owner == u }),
		symmetric(c, u, "Workloads", u.workloads, func(w *Workload) bool { return containsItem(w.assignees, u) }),
	} {
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *checker) account(a *Account) error {
	v := c.store.validator.Account
	for _, err := range []error{
		c.property(a, v.IsValidLogin(a.login), "Login"),
		c.property(a, v.IsValidPasswordHash(a.passwordHash), "PasswordHash"),
		c.property(a, v.IsValidCapabilities(a.capabilities), "Capabilities"),
		c.property(a, v.IsValidEmailAddresses(a.emailAddresses), "EmailAddresses"),
		c.unique(a, nameKey{kind: a.kind, name: a.login}),
		c.target(a, "User", a.user),
	} {
		if err != nil {
			return err
		}
	}
	if !containsItem(a.user.accounts, a) {
		return c.fail(a, "user does not list the account")
	}
	for _, act := range a.quickPicks {
		if act.owner != nil && act.owner != a.user {
			return c.fail(a, "quick-pick %s belongs to another user", act.oid)
		}
	}
	for _, err := range []error{
		symmetric(c, a, "QuickPickList", a.quickPicks, func(act *Activity) bool { return containsItem(act.quickPickers, a) }),
		symmetric(c, a, "Works", a.works, func(w *Work) bool { return w.account == a }),
		symmetric(c, a, "Events", a.events, func(e *Event) bool { return e.account == a }),
	} {
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *checker) activityType(t *ActivityType) error {
	v := c.store.validator.ActivityType
	for _, err := range []error{
		c.property(t, v.IsValidDisplayName(t.displayName), "DisplayName"),
		c.property(t, v.IsValidDescription(t.description), "Description"),
		c.unique(t, nameKey{kind: t.kind, name: t.displayName}),
		symmetric(c, t, "Activities", t.activities, func(a *Activity) bool { return a.activityType == t }),
	} {
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *checker) activity(a *Activity) error {
	if a.kind != activityKind(a.owner != nil, a.task != nil) {
		return c.fail(a, "shape does not match kind")
	}
	v := c.store.validator.Activity
	var owner, parent Object
	if a.owner != nil {
		owner = a.owner
	}
	if p := a.parent(); p != nil {
		parent = p
	}
	for _, err := range []error{
		c.property(a, v.IsValidDisplayName(a.displayName), "DisplayName"),
		c.property(a, v.IsValidDescription(a.description), "Description"),
		c.property(a, v.IsValidTimeout(a.timeout), "Timeout"),
		c.unique(a, nameKey{kind: a.kind, scope: owner, parent: parent, name: a.displayName}),
	} {
		if err != nil {
			return err
		}
	}
	if a.owner != nil {
		if err := c.target(a, "Owner", a.owner); err != nil {
			return err
		}
		if !containsItem(a.owner.privateActivities, a) {
			return c.fail(a, "owner does not list the activity")
		}
	}
	if t := a.activityType; t != nil {
		if err := c.target(a, "ActivityType", t); err != nil {
			return err
		}
		if !containsItem(t.activities, a) {
			return c.fail(a, "activity type does not list the activity")
		}
	}
	if w := a.workload; w != nil {
		if err := c.target(a, "Workload", w); err != nil {
			return err
		}
		if !containsItem(w.activities, a) {
			return c.fail(a, "workload does not list the activity")
		}
	}
	if a.task != nil {
		if p := a.task.parent; p != nil {
			if err := c.target(a, "Parent", p); err != nil {
				return err
			}
			if p.kind != a.kind || p.task == nil || p.owner != a.owner || !containsItem(p.task.children, a) {
				return c.fail(a, "parent %s does not hold the task", p.oid)
			}
		}
		steps := 0
		for p := a.task.parent; p != nil; p = p.parent() {
			if p == a || steps > len(c.store.live) {
				return c.fail(a, "task hierarchy has a cycle")
			}
			steps++
		}
		if err := symmetric(c, a, "Children", a.task.children, func(ch *Activity) bool { return ch.parent() == a }); err != nil {
			return err
		}
	}
	for _, err := range []error{
		symmetric(c, a, "QuickPickers", a.quickPickers, func(acc *Account) bool { return containsItem(acc.quickPicks, a) }),
		symmetric(c, a, "Works", a.works, func(w *Work) bool { return w.activity == a }),
		symmetric(c, a, "Events", a.events, func(e *Event) bool { return containsItem(e.activities, a) }),
	} {
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *checker) workload(w *Workload) error {
	if (w.project != nil) != (w.kind == domain.EntityProject) {
		return c.fail(w, "shape does not match kind")
	}
	v := c.store.validator.Workload
	var parent Object
	if p := w.parent(); p != nil {
		parent = p
	}
	for _, err := range []error{
		c.property(w, v.IsValidDisplayName(w.displayName), "DisplayName"),
		c.property(w, v.IsValidDescription(w.description), "Description"),
		c.unique(w, nameKey{kind: w.kind, parent: parent, name: w.displayName}),
		symmetric(c, w, "Beneficiaries", w.beneficiaries, func(b *Beneficiary) bool { return containsItem(b.workloads, w) }),
		symmetric(c, w, "Assignees", w.assignees, func(u *User) bool { return containsItem(u.workloads, w) }),
		symmetric(c, w, "Activities", w.activities, func(a *Activity) bool { return a.workload == w }),
	} {
		if err != nil {
			return err
		}
	}
	if w.project != nil {
		if p := w.project.parent; p != nil {
			if err := c.target(w, "Parent", p); err != nil {
				return err
			}
			if p.project == nil || !containsItem(p.project.children, w) {
				return c.fail(w, "parent %s does not hold the project", p.oid)
			}
		}
		steps := 0
		for p := w.project.parent; p != nil; p = p.parent() {
			if p == w || steps > len(c.store.live) {
				return c.fail(w, "project hierarchy has a cycle")
			}
			steps++
		}
		if err := symmetric(c, w, "Children", w.project.children, func(ch *Workload) bool { return ch.parent() == w }); err != nil {
			return err
		}
	}
	return nil
}

func (c *checker) beneficiary(b *Beneficiary) error {
	v := c.store.validator.Beneficiary
	for _, err := range []error{
		c.property(b, v.IsValidDisplayName(b.displayName), "DisplayName"),
		c.property(b, v.IsValidDescription(b.description), "Description"),
		c.unique(b, nameKey{kind: b.kind, name: b.displayName}),
		symmetric(c, b, "Workloads", b.workloads, func(w *Workload) bool { return containsItem(w.beneficiaries, b) }),
	} {
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *checker) work(w *Work) error {
	for _, err := range []error{
		c.property(w, c.store.validator.Work.IsValidInterval(w.startedAt, w.finishedAt), "Interval"),
		c.target(w, "Account", w.account),
		c.target(w, "Activity", w.activity),
	} {
		if err != nil {
			return err
		}
	}
	if !containsItem(w.account.works, w) || !containsItem(w.activity.works, w) {
		return c.fail(w, "account or activity does not list the work")
	}
	return nil
}

func (c *checker) event(e *Event) error {
	v := c.store.validator.Event
	for _, err := range []error{
		c.property(e, v.IsValidOccurredAt(e.occurredAt), "OccurredAt"),
		c.property(e, v.IsValidSummary(e.summary), "Summary"),
		c.target(e, "Account", e.account),
	} {
		if err != nil {
			return err
		}
	}
	if !containsItem(e.account.events, e) {
		return c.fail(e, "account does not list the event")
	}
	return symmetric(c, e, "Activities", e.activities, func(a *Activity) bool { return containsItem(a.events, e) })
}
