package core

import "timetracker/pkg/domain"

// ActivityType classifies activities. Display names are unique per store.
type ActivityType struct {
	object

	displayName string
	description string

	activities []*Activity
}

// ActivityTypeFields are the initial properties of a new activity type.
type ActivityTypeFields struct {
	DisplayName string
	Description string
}

// CreateActivityType creates an activity type.
func (tx *Tx) CreateActivityType(fields ActivityTypeFields) (*ActivityType, error) {
	if err := tx.mutable(); err != nil {
		return nil, err
	}
	v := tx.validator().ActivityType
	switch {
	case !v.IsValidDisplayName(fields.DisplayName):
		return nil, errInvalidProperty(domain.EntityActivityType, "DisplayName", fields.DisplayName)
	case !v.IsValidDescription(fields.Description):
		return nil, errInvalidProperty(domain.EntityActivityType, "Description", fields.Description)
	}
	if tx.store.activityTypeByName(fields.DisplayName) != nil {
		return nil, errAlreadyExists(domain.EntityActivityType, "DisplayName", fields.DisplayName)
	}
	t := &ActivityType{
		object:      newObject(tx.store, tx.nextOid(), domain.EntityActivityType),
		displayName: fields.DisplayName,
		description: fields.Description,
	}
	tx.store.register(t)
	return t, tx.structural()
}

func (s *Store) activityTypeByName(name string) *ActivityType {
	for _, obj := range s.live {
		if t, ok := obj.(*ActivityType); ok && t.displayName == name {
			return t
		}
	}
	return nil
}

// ActivityTypes returns every live activity type in oid order.
func (tx *Tx) ActivityTypes() ([]*ActivityType, error) {
	if err := tx.check(); err != nil {
		return nil, err
	}
	return liveOf[*ActivityType](tx.store, nil), nil
}

// DisplayName returns the activity type's name.
func (t *ActivityType) DisplayName(tx *Tx) (string, error) {
	return readProp(tx, &t.object, func() string { return t.displayName })
}

// SetDisplayName renames the activity type.
func (t *ActivityType) SetDisplayName(tx *Tx, name string) error {
	return tx.set(t, func() error {
		if !tx.validator().ActivityType.IsValidDisplayName(name) {
			return errInvalidProperty(t.kind, "DisplayName", name)
		}
		if other := tx.store.activityTypeByName(name); other != nil && other != t {
			return errAlreadyExists(t.kind, "DisplayName", name)
		}
		return nil
	}, func() bool { return assign(&t.displayName, name) })
}

// Description returns the activity type's description.
func (t *ActivityType) Description(tx *Tx) (string, error) {
	return readProp(tx, &t.object, func() string { return t.description })
}

// SetDescription changes the description.
func (t *ActivityType) SetDescription(tx *Tx, description string) error {
	return tx.set(t, func() error {
		return invalidUnless(tx.validator().ActivityType.IsValidDescription(description), t.kind, "Description", description)
	}, func() bool { return assign(&t.description, description) })
}

// Activities returns the activities of this type.
func (t *ActivityType) Activities(tx *Tx) ([]*Activity, error) {
	return readProp(tx, &t.object, func() []*Activity { return cloneList(t.activities) })
}

func (t *ActivityType) destroyLocked(tx *Tx) {
	beginDestroy(t)
	for _, a := range cloneList(t.activities) {
		a.activityType = nil
		tx.store.touch(a)
	}
	t.activities = nil
	tx.store.kill(t)
}
