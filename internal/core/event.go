package core

import (
	"time"

	"timetracker/pkg/domain"
)

// Event is an immutable point-in-time record logged by an account.
type Event struct {
	object

	occurredAt time.Time
	summary    string
	account    *Account
	activities []*Activity
}

// CreateEvent logs an event for account mentioning activities.
func (tx *Tx) CreateEvent(account *Account, occurredAt time.Time, summary string, activities []*Activity) (*Event, error) {
	if err := tx.mutable(); err != nil {
		return nil, err
	}
	if err := tx.argument(account); err != nil {
		return nil, err
	}
	if err := checkArguments(tx, activities); err != nil {
		return nil, err
	}
	for _, a := range activities {
		if a.owner != nil && a.owner != account.user {
			return nil, errIncompatible(domain.EntityEvent, "private activity belongs to another user")
		}
	}
	v := tx.validator().Event
	switch {
	case !v.IsValidOccurredAt(occurredAt):
		return nil, errInvalidProperty(domain.EntityEvent, "OccurredAt", occurredAt.Format(time.RFC3339Nano))
	case !v.IsValidSummary(summary):
		return nil, errInvalidProperty(domain.EntityEvent, "Summary", summary)
	case hasDuplicates(activities):
		return nil, errInvalidProperty(domain.EntityEvent, "Activities", "duplicate activity")
	}
	e := &Event{
		object:     newObject(tx.store, tx.nextOid(), domain.EntityEvent),
		occurredAt: occurredAt,
		summary:    summary,
		account:    account,
		activities: cloneList(activities),
	}
	tx.store.register(e)
	link(tx, account, &account.events, e)
	for _, a := range activities {
		link(tx, a, &a.events, e)
	}
	return e, tx.structural()
}

// Events returns every live event in oid order.
func (tx *Tx) Events() ([]*Event, error) {
	if err := tx.check(); err != nil {
		return nil, err
	}
	return liveOf[*Event](tx.store, nil), nil
}

// OccurredAt returns the UTC time of the event.
func (e *Event) OccurredAt(tx *Tx) (time.Time, error) {
	return readProp(tx, &e.object, func() time.Time { return e.occurredAt })
}

// Summary returns the event's free-text summary.
func (e *Event) Summary(tx *Tx) (string, error) {
	return readProp(tx, &e.object, func() string { return e.summary })
}

// Account returns the account that logged the event.
func (e *Event) Account(tx *Tx) (*Account, error) {
	return readProp(tx, &e.object, func() *Account { return e.account })
}

// Activities returns the activities the event mentions.
func (e *Event) Activities(tx *Tx) ([]*Activity, error) {
	return readProp(tx, &e.object, func() []*Activity { return cloneList(e.activities) })
}

func (e *Event) destroyLocked(tx *Tx) {
	beginDestroy(e)
	unlink(tx, e.account, &e.account.events, e)
	for _, a := range cloneList(e.activities) {
		unlink(tx, a, &a.events, e)
	}
	tx.store.kill(e)
}
