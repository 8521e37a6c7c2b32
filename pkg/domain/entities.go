// Package domain defines the identifiers, entity kinds, capabilities and
// error kinds shared by the workspace engine and its access gate.
package domain

// EntityKind identifies the kind of object stored in a workspace. The value
// doubles as the element tag used in the persisted document.
type EntityKind string

// Supported entity kinds.
const (
	// EntityUser identifies a person using the workspace.
	EntityUser EntityKind = "User"
	// EntityAccount identifies a login belonging to a user.
	EntityAccount EntityKind = "Account"
	// EntityActivityType identifies an activity classification.
	EntityActivityType EntityKind = "ActivityType"
	// EntityPublicActivity identifies a store-owned plain activity.
	EntityPublicActivity EntityKind = "PublicActivity"
	// EntityPublicTask identifies a store-owned task.
	EntityPublicTask EntityKind = "PublicTask"
	// EntityPrivateActivity identifies a user-owned plain activity.
	EntityPrivateActivity EntityKind = "PrivateActivity"
	// EntityPrivateTask identifies a user-owned task.
	EntityPrivateTask EntityKind = "PrivateTask"
	// EntityProject identifies a hierarchical workload.
	EntityProject EntityKind = "Project"
	// EntityWorkStream identifies a flat workload.
	EntityWorkStream EntityKind = "WorkStream"
	// EntityBeneficiary identifies a party funding workloads.
	EntityBeneficiary EntityKind = "Beneficiary"
	// EntityWork identifies a logged time interval.
	EntityWork EntityKind = "Work"
	// EntityEvent identifies a logged point-in-time event.
	EntityEvent EntityKind = "Event"
)

// EntityKinds lists every kind in document order: kinds referenced by
// others come first so a hand-written document reads naturally.
var EntityKinds = []EntityKind{
	EntityUser,
	EntityAccount,
	EntityActivityType,
	EntityBeneficiary,
	EntityProject,
	EntityWorkStream,
	EntityPublicActivity,
	EntityPublicTask,
	EntityPrivateActivity,
	EntityPrivateTask,
	EntityWork,
	EntityEvent,
}

// Known reports whether k is one of the supported kinds.
func (k EntityKind) Known() bool {
	for _, known := range EntityKinds {
		if k == known {
			return true
		}
	}
	return false
}

// DisplayName returns a human-readable name for diagnostics.
func (k EntityKind) DisplayName() string {
	switch k {
	case EntityUser:
		return "user"
	case EntityAccount:
		return "account"
	case EntityActivityType:
		return "activity type"
	case EntityPublicActivity:
		return "public activity"
	case EntityPublicTask:
		return "public task"
	case EntityPrivateActivity:
		return "private activity"
	case EntityPrivateTask:
		return "private task"
	case EntityProject:
		return "project"
	case EntityWorkStream:
		return "work stream"
	case EntityBeneficiary:
		return "beneficiary"
	case EntityWork:
		return "work"
	case EntityEvent:
		return "event"
	default:
		return string(k)
	}
}

// IsActivity reports whether the kind is one of the four activity shapes.
func (k EntityKind) IsActivity() bool {
	switch k {
	case EntityPublicActivity, EntityPublicTask, EntityPrivateActivity, EntityPrivateTask:
		return true
	default:
		return false
	}
}

// IsTask reports whether the kind is a public or private task.
func (k EntityKind) IsTask() bool {
	return k == EntityPublicTask || k == EntityPrivateTask
}

// IsPrivate reports whether the kind is owned by a single user.
func (k EntityKind) IsPrivate() bool {
	return k == EntityPrivateActivity || k == EntityPrivateTask
}

// IsWorkload reports whether the kind is a project or work stream.
func (k EntityKind) IsWorkload() bool {
	return k == EntityProject || k == EntityWorkStream
}
