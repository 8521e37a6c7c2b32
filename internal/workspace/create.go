package workspace

import (
	"crypto/subtle"
	"time"

	"timetracker/internal/core"
	"timetracker/pkg/domain"
)

// ActivityFields are core.ActivityFields with the activity type and
// workload given as handles.
type ActivityFields struct {
	DisplayName           string
	Description           string
	Timeout               *time.Duration
	RequireCommentOnStart bool
	RequireCommentOnStop  bool
	FullScreenReminder    bool
	ActivityType          *Handle[*core.ActivityType]
	Workload              *Handle[*core.Workload]
}

// TaskFields add the parent task and completion flag.
type TaskFields struct {
	ActivityFields
	Parent    *Handle[*core.Activity]
	Completed bool
}

// ProjectFields add the parent project and completion flag.
type ProjectFields struct {
	core.WorkloadFields
	Parent    *Handle[*core.Workload]
	Completed bool
}

func create[U core.Object](ws *Workspace, op string, creds domain.Credentials, fn func(tx *core.Tx, c *caller) (U, error)) (*Handle[U], error) {
	var out *Handle[U]
	err := ws.run(op, creds, true, func(tx *core.Tx, c *caller) error {
		obj, err := fn(tx, c)
		if err != nil {
			return err
		}
		out, err = newHandle(ws, tx, obj)
		return err
	})
	return out, err
}

// readable unwraps an optional handle and checks the caller can read it.
func readable[U core.Object](ws *Workspace, tx *core.Tx, c *caller, op string, h *Handle[U]) (U, error) {
	obj, err := unwrapAs(ws, h)
	if err != nil || h == nil {
		return obj, err
	}
	return obj, c.requireRead(tx, op, obj)
}

func (f ActivityFields) resolve(ws *Workspace, tx *core.Tx, c *caller, op string) (core.ActivityFields, error) {
	activityType, err := readable(ws, tx, c, op, f.ActivityType)
	if err != nil {
		return core.ActivityFields{}, err
	}
	workload, err := readable(ws, tx, c, op, f.Workload)
	if err != nil {
		return core.ActivityFields{}, err
	}
	return core.ActivityFields{
		DisplayName:           f.DisplayName,
		Description:           f.Description,
		Timeout:               f.Timeout,
		RequireCommentOnStart: f.RequireCommentOnStart,
		RequireCommentOnStop:  f.RequireCommentOnStop,
		FullScreenReminder:    f.FullScreenReminder,
		ActivityType:          activityType,
		Workload:              workload,
	}, nil
}

func (f TaskFields) resolve(ws *Workspace, tx *core.Tx, c *caller, op string) (core.TaskFields, error) {
	fields, err := f.ActivityFields.resolve(ws, tx, c, op)
	if err != nil {
		return core.TaskFields{}, err
	}
	parent, err := readable(ws, tx, c, op, f.Parent)
	if err != nil {
		return core.TaskFields{}, err
	}
	return core.TaskFields{ActivityFields: fields, Parent: parent, Completed: f.Completed}, nil
}

// CreateUser requires ManageUsers.
func (ws *Workspace) CreateUser(creds domain.Credentials, fields core.UserFields) (*Handle[*core.User], error) {
	const op = "create_user"
	return create(ws, op, creds, func(tx *core.Tx, c *caller) (*core.User, error) {
		if err := c.requireCreate(op, domain.EntityUser, nil); err != nil {
			return nil, err
		}
		return tx.CreateUser(fields)
	})
}

// CreateAccount adds an account to user. Requires ManageUsers.
func (ws *Workspace) CreateAccount(creds domain.Credentials, user *Handle[*core.User], fields core.AccountFields) (*Handle[*core.Account], error) {
	const op = "create_account"
	return create(ws, op, creds, func(tx *core.Tx, c *caller) (*core.Account, error) {
		if err := c.requireCreate(op, domain.EntityAccount, nil); err != nil {
			return nil, err
		}
		owner, err := readable(ws, tx, c, op, user)
		if err != nil {
			return nil, err
		}
		return tx.CreateAccount(owner, fields)
	})
}

// CreateActivityType requires ManageActivityTypes.
func (ws *Workspace) CreateActivityType(creds domain.Credentials, fields core.ActivityTypeFields) (*Handle[*core.ActivityType], error) {
	const op = "create_activity_type"
	return create(ws, op, creds, func(tx *core.Tx, c *caller) (*core.ActivityType, error) {
		if err := c.requireCreate(op, domain.EntityActivityType, nil); err != nil {
			return nil, err
		}
		return tx.CreateActivityType(fields)
	})
}

// CreateBeneficiary requires ManageBeneficiaries.
func (ws *Workspace) CreateBeneficiary(creds domain.Credentials, fields core.BeneficiaryFields) (*Handle[*core.Beneficiary], error) {
	const op = "create_beneficiary"
	return create(ws, op, creds, func(tx *core.Tx, c *caller) (*core.Beneficiary, error) {
		if err := c.requireCreate(op, domain.EntityBeneficiary, nil); err != nil {
			return nil, err
		}
		return tx.CreateBeneficiary(fields)
	})
}

// CreateProject requires ManageWorkloads.
func (ws *Workspace) CreateProject(creds domain.Credentials, fields ProjectFields) (*Handle[*core.Workload], error) {
	const op = "create_project"
	return create(ws, op, creds, func(tx *core.Tx, c *caller) (*core.Workload, error) {
		if err := c.requireCreate(op, domain.EntityProject, nil); err != nil {
			return nil, err
		}
		parent, err := readable(ws, tx, c, op, fields.Parent)
		if err != nil {
			return nil, err
		}
		return tx.CreateProject(core.ProjectFields{WorkloadFields: fields.WorkloadFields, Parent: parent, Completed: fields.Completed})
	})
}

// CreateWorkStream requires ManageWorkloads.
func (ws *Workspace) CreateWorkStream(creds domain.Credentials, fields core.WorkloadFields) (*Handle[*core.Workload], error) {
	const op = "create_work_stream"
	return create(ws, op, creds, func(tx *core.Tx, c *caller) (*core.Workload, error) {
		if err := c.requireCreate(op, domain.EntityWorkStream, nil); err != nil {
			return nil, err
		}
		return tx.CreateWorkStream(fields)
	})
}

// CreatePublicActivity requires ManagePublicActivities.
func (ws *Workspace) CreatePublicActivity(creds domain.Credentials, fields ActivityFields) (*Handle[*core.Activity], error) {
	const op = "create_public_activity"
	return create(ws, op, creds, func(tx *core.Tx, c *caller) (*core.Activity, error) {
		if err := c.requireCreate(op, domain.EntityPublicActivity, nil); err != nil {
			return nil, err
		}
		resolved, err := fields.resolve(ws, tx, c, op)
		if err != nil {
			return nil, err
		}
		return tx.CreatePublicActivity(resolved)
	})
}

// CreatePublicTask requires ManagePublicTasks.
func (ws *Workspace) CreatePublicTask(creds domain.Credentials, fields TaskFields) (*Handle[*core.Activity], error) {
	const op = "create_public_task"
	return create(ws, op, creds, func(tx *core.Tx, c *caller) (*core.Activity, error) {
		if err := c.requireCreate(op, domain.EntityPublicTask, nil); err != nil {
			return nil, err
		}
		resolved, err := fields.resolve(ws, tx, c, op)
		if err != nil {
			return nil, err
		}
		return tx.CreatePublicTask(resolved)
	})
}

// ownerOrCaller returns the user a private activity is created for; nil
// means the caller's own user.
func ownerOrCaller(ws *Workspace, tx *core.Tx, c *caller, op string, owner *Handle[*core.User]) (*core.User, error) {
	if owner == nil {
		return c.user, nil
	}
	return readable(ws, tx, c, op, owner)
}

// CreatePrivateActivity creates an activity owned by owner, or by the
// caller when owner is nil. Requires ManagePrivateActivities and, unless
// Administrator, that owner is the caller.
func (ws *Workspace) CreatePrivateActivity(creds domain.Credentials, owner *Handle[*core.User], fields ActivityFields) (*Handle[*core.Activity], error) {
	const op = "create_private_activity"
	return create(ws, op, creds, func(tx *core.Tx, c *caller) (*core.Activity, error) {
		user, err := ownerOrCaller(ws, tx, c, op, owner)
		if err != nil {
			return nil, err
		}
		if err := c.requireCreate(op, domain.EntityPrivateActivity, user); err != nil {
			return nil, err
		}
		resolved, err := fields.resolve(ws, tx, c, op)
		if err != nil {
			return nil, err
		}
		return tx.CreatePrivateActivity(user, resolved)
	})
}

// CreatePrivateTask is CreatePrivateActivity for tasks; it requires
// ManagePrivateTasks.
func (ws *Workspace) CreatePrivateTask(creds domain.Credentials, owner *Handle[*core.User], fields TaskFields) (*Handle[*core.Activity], error) {
	const op = "create_private_task"
	return create(ws, op, creds, func(tx *core.Tx, c *caller) (*core.Activity, error) {
		user, err := ownerOrCaller(ws, tx, c, op, owner)
		if err != nil {
			return nil, err
		}
		if err := c.requireCreate(op, domain.EntityPrivateTask, user); err != nil {
			return nil, err
		}
		resolved, err := fields.resolve(ws, tx, c, op)
		if err != nil {
			return nil, err
		}
		return tx.CreatePrivateTask(user, resolved)
	})
}

// accountOrCaller returns the account a work or event is logged against;
// nil means the caller's own account. Only administrators log for others.
func accountOrCaller(ws *Workspace, tx *core.Tx, c *caller, op string, kind domain.EntityKind, account *Handle[*core.Account]) (*core.Account, error) {
	acc := c.account
	if account != nil {
		var err error
		if acc, err = readable(ws, tx, c, op, account); err != nil {
			return nil, err
		}
	}
	if !c.has(kind) || (acc != c.account && !c.isAdmin()) {
		return nil, &Error{Kind: domain.KindAccessDenied, Op: op, Entity: kind, Msg: "create not permitted"}
	}
	return acc, nil
}

// CreateWork logs an interval of work on activity. Requires LogWork.
func (ws *Workspace) CreateWork(creds domain.Credentials, account *Handle[*core.Account], activity *Handle[*core.Activity], startedAt, finishedAt time.Time) (*Handle[*core.Work], error) {
	const op = "create_work"
	return create(ws, op, creds, func(tx *core.Tx, c *caller) (*core.Work, error) {
		acc, err := accountOrCaller(ws, tx, c, op, domain.EntityWork, account)
		if err != nil {
			return nil, err
		}
		act, err := readable(ws, tx, c, op, activity)
		if err != nil {
			return nil, err
		}
		return tx.CreateWork(acc, act, startedAt, finishedAt)
	})
}

// CreateEvent logs an event touching activities. Requires LogEvents.
func (ws *Workspace) CreateEvent(creds domain.Credentials, account *Handle[*core.Account], occurredAt time.Time, summary string, activities []*Handle[*core.Activity]) (*Handle[*core.Event], error) {
	const op = "create_event"
	return create(ws, op, creds, func(tx *core.Tx, c *caller) (*core.Event, error) {
		acc, err := accountOrCaller(ws, tx, c, op, domain.EntityEvent, account)
		if err != nil {
			return nil, err
		}
		acts, err := readableTargets(ws, tx, c, op, activities)
		if err != nil {
			return nil, err
		}
		return tx.CreateEvent(acc, occurredAt, summary, acts)
	})
}

// ChangePassword sets the password of the caller's own account once old
// matches the current one. No capability is needed.
func (ws *Workspace) ChangePassword(creds domain.Credentials, old, password string) error {
	const op = "change_password"
	return ws.run(op, creds, true, func(tx *core.Tx, c *caller) error {
		hash, err := c.account.PasswordHash(tx)
		if err != nil {
			return err
		}
		if subtle.ConstantTimeCompare([]byte(hash), []byte(core.HashPassword(old))) != 1 {
			return accessDenied(op, "old password does not match")
		}
		return c.account.SetPassword(tx, password)
	})
}

// SetQuickPickList replaces the caller's own quick-pick list. Every
// activity must be readable by the caller.
func (ws *Workspace) SetQuickPickList(creds domain.Credentials, activities []*Handle[*core.Activity]) error {
	const op = "set_quick_pick_list"
	return ws.run(op, creds, true, func(tx *core.Tx, c *caller) error {
		acts, err := readableTargets(ws, tx, c, op, activities)
		if err != nil {
			return err
		}
		return c.account.SetQuickPickList(tx, acts)
	})
}
