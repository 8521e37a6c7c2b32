package core

import (
	"time"

	"timetracker/pkg/domain"
)

// Activity is something work can be logged against. Ownership and shape
// are composition tags fixed at creation: owner is nil for public
// activities, task is nil for plain activities. The four combinations map
// to the PublicActivity, PublicTask, PrivateActivity and PrivateTask kinds.
type Activity struct {
	object

	owner *User
	task  *taskShape

	displayName           string
	description           string
	timeout               *time.Duration
	requireCommentOnStart bool
	requireCommentOnStop  bool
	fullScreenReminder    bool

	activityType *ActivityType
	workload     *Workload
	quickPickers []*Account
	works        []*Work
	events       []*Event
}

type taskShape struct {
	parent    *Activity
	children  []*Activity
	completed bool
}

// ActivityFields are the properties shared by all four activity kinds.
type ActivityFields struct {
	DisplayName           string
	Description           string
	Timeout               *time.Duration
	RequireCommentOnStart bool
	RequireCommentOnStop  bool
	FullScreenReminder    bool
	ActivityType          *ActivityType
	Workload              *Workload
}

// TaskFields add the tree position and completion flag of a task.
type TaskFields struct {
	ActivityFields
	Parent    *Activity
	Completed bool
}

func activityKind(private, task bool) domain.EntityKind {
	switch {
	case private && task:
		return domain.EntityPrivateTask
	case private:
		return domain.EntityPrivateActivity
	case task:
		return domain.EntityPublicTask
	default:
		return domain.EntityPublicActivity
	}
}

// CreatePublicActivity creates a store-owned plain activity.
func (tx *Tx) CreatePublicActivity(fields ActivityFields) (*Activity, error) {
	return tx.createActivity(nil, fields, nil)
}

// CreatePrivateActivity creates a plain activity owned by owner.
func (tx *Tx) CreatePrivateActivity(owner *User, fields ActivityFields) (*Activity, error) {
	if err := tx.mutable(); err != nil {
		return nil, err
	}
	if err := tx.argument(owner); err != nil {
		return nil, err
	}
	return tx.createActivity(owner, fields, nil)
}

// CreatePublicTask creates a store-owned task, under fields.Parent when set.
func (tx *Tx) CreatePublicTask(fields TaskFields) (*Activity, error) {
	return tx.createActivity(nil, fields.ActivityFields, &taskShape{parent: fields.Parent, completed: fields.Completed})
}

// CreatePrivateTask creates a task owned by owner. A parent must be a
// private task of the same owner.
func (tx *Tx) CreatePrivateTask(owner *User, fields TaskFields) (*Activity, error) {
	if err := tx.mutable(); err != nil {
		return nil, err
	}
	if err := tx.argument(owner); err != nil {
		return nil, err
	}
	return tx.createActivity(owner, fields.ActivityFields, &taskShape{parent: fields.Parent, completed: fields.Completed})
}

func (tx *Tx) createActivity(owner *User, fields ActivityFields, task *taskShape) (*Activity, error) {
	if err := tx.mutable(); err != nil {
		return nil, err
	}
	kind := activityKind(owner != nil, task != nil)
	v := tx.validator().Activity
	switch {
	case !v.IsValidDisplayName(fields.DisplayName):
		return nil, errInvalidProperty(kind, "DisplayName", fields.DisplayName)
	case !v.IsValidDescription(fields.Description):
		return nil, errInvalidProperty(kind, "Description", fields.Description)
	case !v.IsValidTimeout(fields.Timeout):
		return nil, errInvalidProperty(kind, "Timeout", fields.Timeout)
	}
	if fields.ActivityType != nil {
		if err := tx.argument(fields.ActivityType); err != nil {
			return nil, err
		}
	}
	if fields.Workload != nil {
		if err := tx.argument(fields.Workload); err != nil {
			return nil, err
		}
	}
	var parent *Activity
	if task != nil && task.parent != nil {
		parent = task.parent
		if err := checkTaskParent(tx, kind, owner, parent); err != nil {
			return nil, err
		}
	}
	if tx.store.activityNameTaken(kind, owner, parent, fields.DisplayName, nil) {
		return nil, errAlreadyExists(kind, "DisplayName", fields.DisplayName)
	}

	a := &Activity{
		object:                newObject(tx.store, tx.nextOid(), kind),
		owner:                 owner,
		displayName:           fields.DisplayName,
		description:           fields.Description,
		timeout:               cloneDuration(fields.Timeout),
		requireCommentOnStart: fields.RequireCommentOnStart,
		requireCommentOnStop:  fields.RequireCommentOnStop,
		fullScreenReminder:    fields.FullScreenReminder,
		activityType:          fields.ActivityType,
		workload:              fields.Workload,
	}
	if task != nil {
		a.task = &taskShape{parent: parent, completed: task.completed}
	}
	tx.store.register(a)
	if owner != nil {
		link(tx, owner, &owner.privateActivities, a)
	}
	if parent != nil {
		link(tx, parent, &parent.task.children, a)
	}
	if a.activityType != nil {
		link(tx, a.activityType, &a.activityType.activities, a)
	}
	if a.workload != nil {
		link(tx, a.workload, &a.workload.activities, a)
	}
	return a, tx.structural()
}

// checkTaskParent verifies parent can hold a task of kind owned by owner.
func checkTaskParent(tx *Tx, kind domain.EntityKind, owner *User, parent *Activity) error {
	if err := tx.argument(parent); err != nil {
		return err
	}
	if parent.kind != kind {
		return errIncompatible(kind, "parent must be a "+kind.DisplayName())
	}
	if parent.owner != owner {
		return errIncompatible(kind, "parent task belongs to another user")
	}
	return nil
}

// activityNameTaken reports whether another live activity of the same
// kind, owner and parent already uses name.
func (s *Store) activityNameTaken(kind domain.EntityKind, owner *User, parent *Activity, name string, self *Activity) bool {
	for _, obj := range s.live {
		a, ok := obj.(*Activity)
		if !ok || a == self || a.kind != kind || a.owner != owner || a.parent() != parent {
			continue
		}
		if a.displayName == name {
			return true
		}
	}
	return false
}

func (a *Activity) parent() *Activity {
	if a.task == nil {
		return nil
	}
	return a.task.parent
}

// PublicActivities returns every live public plain activity.
func (tx *Tx) PublicActivities() ([]*Activity, error) {
	return tx.activitiesOfKind(domain.EntityPublicActivity, false)
}

// PublicTasks returns every live public task.
func (tx *Tx) PublicTasks() ([]*Activity, error) {
	return tx.activitiesOfKind(domain.EntityPublicTask, false)
}

// RootPublicTasks returns the live public tasks without a parent.
func (tx *Tx) RootPublicTasks() ([]*Activity, error) {
	return tx.activitiesOfKind(domain.EntityPublicTask, true)
}

// PrivateActivities returns every live private plain activity of any owner.
func (tx *Tx) PrivateActivities() ([]*Activity, error) {
	return tx.activitiesOfKind(domain.EntityPrivateActivity, false)
}

// PrivateTasks returns every live private task of any owner.
func (tx *Tx) PrivateTasks() ([]*Activity, error) {
	return tx.activitiesOfKind(domain.EntityPrivateTask, false)
}

func (tx *Tx) activitiesOfKind(kind domain.EntityKind, rootsOnly bool) ([]*Activity, error) {
	if err := tx.check(); err != nil {
		return nil, err
	}
	return liveOf(tx.store, func(a *Activity) bool {
		return a.kind == kind && (!rootsOnly || a.parent() == nil)
	}), nil
}

// IsPublic reports whether the activity is store-owned.
func (a *Activity) IsPublic() bool { return !a.kind.IsPrivate() }

// IsPrivate reports whether the activity is owned by a user.
func (a *Activity) IsPrivate() bool { return a.kind.IsPrivate() }

// IsTask reports whether the activity is a task.
func (a *Activity) IsTask() bool { return a.kind.IsTask() }

// Owner returns the owning user of a private activity, nil when public.
func (a *Activity) Owner(tx *Tx) (*User, error) {
	return readProp(tx, &a.object, func() *User { return a.owner })
}

// DisplayName returns the activity's name.
func (a *Activity) DisplayName(tx *Tx) (string, error) {
	return readProp(tx, &a.object, func() string { return a.displayName })
}

// SetDisplayName renames the activity. Names are unique among activities
// of the same kind, owner and parent.
func (a *Activity) SetDisplayName(tx *Tx, name string) error {
	return tx.set(a, func() error {
		if !tx.validator().Activity.IsValidDisplayName(name) {
			return errInvalidProperty(a.kind, "DisplayName", name)
		}
		if tx.store.activityNameTaken(a.kind, a.owner, a.parent(), name, a) {
			return errAlreadyExists(a.kind, "DisplayName", name)
		}
		return nil
	}, func() bool { return assign(&a.displayName, name) })
}

// Description returns the activity's description.
func (a *Activity) Description(tx *Tx) (string, error) {
	return readProp(tx, &a.object, func() string { return a.description })
}

// SetDescription changes the description.
func (a *Activity) SetDescription(tx *Tx, description string) error {
	return tx.set(a, func() error {
		return invalidUnless(tx.validator().Activity.IsValidDescription(description), a.kind, "Description", description)
	}, func() bool { return assign(&a.description, description) })
}

// Timeout returns the activity's inactivity timeout, nil when unset.
func (a *Activity) Timeout(tx *Tx) (*time.Duration, error) {
	return readProp(tx, &a.object, func() *time.Duration { return cloneDuration(a.timeout) })
}

// SetTimeout changes the inactivity timeout; nil clears it.
func (a *Activity) SetTimeout(tx *Tx, timeout *time.Duration) error {
	return tx.set(a, func() error {
		return invalidUnless(tx.validator().Activity.IsValidTimeout(timeout), a.kind, "Timeout", timeout)
	}, func() bool { return assignDuration(&a.timeout, timeout) })
}

// RequireCommentOnStart reports whether starting work asks for a comment.
func (a *Activity) RequireCommentOnStart(tx *Tx) (bool, error) {
	return readProp(tx, &a.object, func() bool { return a.requireCommentOnStart })
}

// SetRequireCommentOnStart changes the start comment flag.
func (a *Activity) SetRequireCommentOnStart(tx *Tx, require bool) error {
	return tx.set(a, nil, func() bool { return assign(&a.requireCommentOnStart, require) })
}

// RequireCommentOnStop reports whether stopping work asks for a comment.
func (a *Activity) RequireCommentOnStop(tx *Tx) (bool, error) {
	return readProp(tx, &a.object, func() bool { return a.requireCommentOnStop })
}

// SetRequireCommentOnStop changes the stop comment flag.
func (a *Activity) SetRequireCommentOnStop(tx *Tx, require bool) error {
	return tx.set(a, nil, func() bool { return assign(&a.requireCommentOnStop, require) })
}

// FullScreenReminder reports whether the activity shows a full-screen reminder.
func (a *Activity) FullScreenReminder(tx *Tx) (bool, error) {
	return readProp(tx, &a.object, func() bool { return a.fullScreenReminder })
}

// SetFullScreenReminder changes the reminder flag.
func (a *Activity) SetFullScreenReminder(tx *Tx, enabled bool) error {
	return tx.set(a, nil, func() bool { return assign(&a.fullScreenReminder, enabled) })
}

// ActivityType returns the activity's type, nil when unclassified.
func (a *Activity) ActivityType(tx *Tx) (*ActivityType, error) {
	return readProp(tx, &a.object, func() *ActivityType { return a.activityType })
}

// SetActivityType changes the activity type; nil clears it.
func (a *Activity) SetActivityType(tx *Tx, t *ActivityType) error {
	if err := tx.write(&a.object); err != nil {
		return err
	}
	if t != nil {
		if err := tx.argument(t); err != nil {
			return err
		}
	}
	if a.activityType == t {
		return nil
	}
	if old := a.activityType; old != nil {
		unlink(tx, old, &old.activities, a)
	}
	a.activityType = t
	if t != nil {
		link(tx, t, &t.activities, a)
	}
	tx.store.touch(a)
	return tx.structural()
}

// Workload returns the workload the activity contributes to, nil when none.
func (a *Activity) Workload(tx *Tx) (*Workload, error) {
	return readProp(tx, &a.object, func() *Workload { return a.workload })
}

// SetWorkload changes the contributed workload; nil clears it.
func (a *Activity) SetWorkload(tx *Tx, w *Workload) error {
	if err := tx.write(&a.object); err != nil {
		return err
	}
	if w != nil {
		if err := tx.argument(w); err != nil {
			return err
		}
	}
	if a.workload == w {
		return nil
	}
	if old := a.workload; old != nil {
		unlink(tx, old, &old.activities, a)
	}
	a.workload = w
	if w != nil {
		link(tx, w, &w.activities, a)
	}
	tx.store.touch(a)
	return tx.structural()
}

// QuickPickers returns the accounts that pinned the activity.
func (a *Activity) QuickPickers(tx *Tx) ([]*Account, error) {
	return readProp(tx, &a.object, func() []*Account { return cloneList(a.quickPickers) })
}

// Works returns the work logged against the activity.
func (a *Activity) Works(tx *Tx) ([]*Work, error) {
	return readProp(tx, &a.object, func() []*Work { return cloneList(a.works) })
}

// Events returns the events that mention the activity.
func (a *Activity) Events(tx *Tx) ([]*Event, error) {
	return readProp(tx, &a.object, func() []*Event { return cloneList(a.events) })
}

func (a *Activity) taskOnly(tx *Tx) error {
	if err := tx.read(&a.object); err != nil {
		return err
	}
	if a.task == nil {
		return errIncompatible(a.kind, "not a task")
	}
	return nil
}

// Parent returns the parent task, nil for a root task.
func (a *Activity) Parent(tx *Tx) (*Activity, error) {
	if err := a.taskOnly(tx); err != nil {
		return nil, err
	}
	return a.task.parent, nil
}

// Children returns the task's direct subtasks.
func (a *Activity) Children(tx *Tx) ([]*Activity, error) {
	if err := a.taskOnly(tx); err != nil {
		return nil, err
	}
	return cloneList(a.task.children), nil
}

// Completed reports whether the task is marked completed.
func (a *Activity) Completed(tx *Tx) (bool, error) {
	if err := a.taskOnly(tx); err != nil {
		return false, err
	}
	return a.task.completed, nil
}

// SetCompleted marks the task completed or open.
func (a *Activity) SetCompleted(tx *Tx, completed bool) error {
	if err := a.taskOnly(tx); err != nil {
		return err
	}
	return tx.set(a, nil, func() bool { return assign(&a.task.completed, completed) })
}

// SetParent moves the task under parent; nil makes it a root task. Moving
// a task under itself or one of its descendants is rejected.
func (a *Activity) SetParent(tx *Tx, parent *Activity) error {
	if err := a.taskOnly(tx); err != nil {
		return err
	}
	if err := tx.write(&a.object); err != nil {
		return err
	}
	if parent != nil {
		if err := checkTaskParent(tx, a.kind, a.owner, parent); err != nil {
			return err
		}
		for p := parent; p != nil; p = p.task.parent {
			if p == a {
				return errInvalidProperty(a.kind, "Parent", parent.oid)
			}
		}
	}
	if a.task.parent == parent {
		return nil
	}
	if tx.store.activityNameTaken(a.kind, a.owner, parent, a.displayName, a) {
		return errAlreadyExists(a.kind, "DisplayName", a.displayName)
	}
	if old := a.task.parent; old != nil {
		unlink(tx, old, &old.task.children, a)
	}
	a.task.parent = parent
	if parent != nil {
		link(tx, parent, &parent.task.children, a)
	}
	tx.store.touch(a)
	return tx.structural()
}

func (a *Activity) destroyLocked(tx *Tx) {
	beginDestroy(a)
	if a.task != nil {
		for _, child := range cloneList(a.task.children) {
			tx.destroy(child)
		}
	}
	for _, w := range cloneList(a.works) {
		tx.destroy(w)
	}
	// Events are immutable: they drop a without reporting a modification.
	for _, e := range cloneList(a.events) {
		e.activities, _ = removeItem(e.activities, a)
	}
	a.events = nil
	for _, acc := range cloneList(a.quickPickers) {
		unlinkQuickPick(tx, acc, a)
	}
	if t := a.activityType; t != nil {
		unlink(tx, t, &t.activities, a)
	}
	if w := a.workload; w != nil {
		unlink(tx, w, &w.activities, a)
	}
	if u := a.owner; u != nil {
		unlink(tx, u, &u.privateActivities, a)
	}
	if p := a.parent(); p != nil {
		unlink(tx, p, &p.task.children, a)
	}
	tx.store.kill(a)
}
