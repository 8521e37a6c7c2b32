package domain

// ObjectState is the lifecycle state of a reference-counted object.
type ObjectState int

const (
	// StateNew is assigned at construction; the reference count is zero.
	StateNew ObjectState = iota
	// StateManaged means at least one holder references the object.
	StateManaged
	// StateOld means the last holder released the object; it is still live.
	StateOld
	// StateDead is terminal: the object has been destroyed.
	StateDead
)

func (s ObjectState) String() string {
	switch s {
	case StateNew:
		return "New"
	case StateManaged:
		return "Managed"
	case StateOld:
		return "Old"
	case StateDead:
		return "Dead"
	default:
		return "Unknown"
	}
}

// ChangeKind classifies a change notification.
type ChangeKind int

const (
	// ChangeCreated is posted after an object is constructed.
	ChangeCreated ChangeKind = iota + 1
	// ChangeModified is posted after a property or association changes.
	ChangeModified
	// ChangeDestroyed is posted after an object becomes dead.
	ChangeDestroyed
)

func (c ChangeKind) String() string {
	switch c {
	case ChangeCreated:
		return "created"
	case ChangeModified:
		return "modified"
	case ChangeDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}
