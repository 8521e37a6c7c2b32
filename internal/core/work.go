package core

import (
	"time"

	"timetracker/pkg/domain"
)

// Work is an immutable interval of time an account spent on an activity.
type Work struct {
	object

	startedAt  time.Time
	finishedAt time.Time
	account    *Account
	activity   *Activity
}

// CreateWork logs an interval for account against activity. Private
// activities must belong to the account's user.
func (tx *Tx) CreateWork(account *Account, activity *Activity, startedAt, finishedAt time.Time) (*Work, error) {
	if err := tx.mutable(); err != nil {
		return nil, err
	}
	if err := tx.argument(account); err != nil {
		return nil, err
	}
	if err := tx.argument(activity); err != nil {
		return nil, err
	}
	if activity.owner != nil && activity.owner != account.user {
		return nil, errIncompatible(domain.EntityWork, "private activity belongs to another user")
	}
	if !tx.validator().Work.IsValidInterval(startedAt, finishedAt) {
		return nil, errInvalidProperty(domain.EntityWork, "Interval", startedAt.Format(time.RFC3339)+"/"+finishedAt.Format(time.RFC3339))
	}
	w := &Work{
		object:     newObject(tx.store, tx.nextOid(), domain.EntityWork),
		startedAt:  startedAt,
		finishedAt: finishedAt,
		account:    account,
		activity:   activity,
	}
	tx.store.register(w)
	link(tx, account, &account.works, w)
	link(tx, activity, &activity.works, w)
	return w, tx.structural()
}

// Works returns every live work record in oid order.
func (tx *Tx) Works() ([]*Work, error) {
	if err := tx.check(); err != nil {
		return nil, err
	}
	return liveOf[*Work](tx.store, nil), nil
}

// StartedAt returns the UTC start of the interval.
func (w *Work) StartedAt(tx *Tx) (time.Time, error) {
	return readProp(tx, &w.object, func() time.Time { return w.startedAt })
}

// FinishedAt returns the UTC end of the interval.
func (w *Work) FinishedAt(tx *Tx) (time.Time, error) {
	return readProp(tx, &w.object, func() time.Time { return w.finishedAt })
}

// Duration returns FinishedAt minus StartedAt.
func (w *Work) Duration(tx *Tx) (time.Duration, error) {
	return readProp(tx, &w.object, func() time.Duration { return w.finishedAt.Sub(w.startedAt) })
}

// Account returns the account that logged the work.
func (w *Work) Account(tx *Tx) (*Account, error) {
	return readProp(tx, &w.object, func() *Account { return w.account })
}

// Activity returns the activity the work was logged against.
func (w *Work) Activity(tx *Tx) (*Activity, error) {
	return readProp(tx, &w.object, func() *Activity { return w.activity })
}

func (w *Work) destroyLocked(tx *Tx) {
	beginDestroy(w)
	unlink(tx, w.account, &w.account.works, w)
	unlink(tx, w.activity, &w.activity.works, w)
	tx.store.kill(w)
}
