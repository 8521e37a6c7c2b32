package workspace

import (
	"time"

	"timetracker/internal/core"
	"timetracker/pkg/domain"
)

// Property names one scalar property of T. The set of properties is fixed by
// this package; callers pick one of the exported values below and never run
// their own code against the engine.
type Property[T core.Object, V any] struct {
	name string
	get  func(T, *core.Tx) (V, error)
	set  func(T, *core.Tx, V) error
}

// Name returns the property name used in errors.
func (p Property[T, V]) Name() string { return p.name }

// Writable reports whether Set accepts the property.
func (p Property[T, V]) Writable() bool { return p.set != nil }

// Reference names a to-one association from T to U.
type Reference[T, U core.Object] struct {
	name string
	get  func(T, *core.Tx) (U, error)
	set  func(T, *core.Tx, U) error
}

// Name returns the association name used in errors.
func (r Reference[T, U]) Name() string { return r.name }

// Association names a to-many association from T to U. Associations kept
// by the engine as a side effect (works, children) are read-only.
type Association[T, U core.Object] struct {
	name   string
	get    func(T, *core.Tx) ([]U, error)
	add    func(T, *core.Tx, U) error
	remove func(T, *core.Tx, U) error
	set    func(T, *core.Tx, []U) error
}

// Name returns the association name used in errors.
func (a Association[T, U]) Name() string { return a.name }

// Listing names one of the store-wide object listings.
type Listing[U core.Object] struct {
	name string
	list func(*core.Tx) ([]U, error)
}

// Name returns the listing name.
func (l Listing[U]) Name() string { return l.name }

func readOnlyAssociation[T, U core.Object](name string, get func(T, *core.Tx) ([]U, error)) Association[T, U] {
	return Association[T, U]{name: name, get: get}
}

// Users and their accounts.
var (
	UserRealName          = Property[*core.User, string]{"RealName", (*core.User).RealName, (*core.User).SetRealName}
	UserInactivityTimeout = Property[*core.User, *time.Duration]{"InactivityTimeout", (*core.User).InactivityTimeout, (*core.User).SetInactivityTimeout}
	UserUILocale          = Property[*core.User, string]{"UILocale", (*core.User).UILocale, (*core.User).SetUILocale}
	UserEmailAddresses    = Property[*core.User, []string]{"EmailAddresses", (*core.User).EmailAddresses, (*core.User).SetEmailAddresses}
	UserEnabled           = Property[*core.User, bool]{"Enabled", (*core.User).Enabled, (*core.User).SetEnabled}

	UserAccounts          = readOnlyAssociation("Accounts", (*core.User).Accounts)
	UserPrivateActivities = readOnlyAssociation("PrivateActivities", (*core.User).PrivateActivities)
	UserPrivateTasks      = readOnlyAssociation("PrivateTasks", (*core.User).PrivateTasks)
	UserRootPrivateTasks  = readOnlyAssociation("RootPrivateTasks", (*core.User).RootPrivateTasks)
	UserWorkloads         = Association[*core.User, *core.Workload]{
		"Workloads", (*core.User).Workloads, (*core.User).AddWorkload, (*core.User).RemoveWorkload, (*core.User).SetWorkloads,
	}

	AccountUser           = Reference[*core.Account, *core.User]{name: "User", get: (*core.Account).User}
	AccountLogin          = Property[*core.Account, string]{"Login", (*core.Account).Login, (*core.Account).SetLogin}
	AccountPasswordHash   = Property[*core.Account, string]{name: "PasswordHash", get: (*core.Account).PasswordHash}
	AccountPassword       = Property[*core.Account, string]{name: "Password", set: (*core.Account).SetPassword}
	AccountCapabilities   = Property[*core.Account, domain.Capabilities]{"Capabilities", (*core.Account).Capabilities, (*core.Account).SetCapabilities}
	AccountEnabled        = Property[*core.Account, bool]{"Enabled", (*core.Account).Enabled, (*core.Account).SetEnabled}
	AccountEmailAddresses = Property[*core.Account, []string]{"EmailAddresses", (*core.Account).EmailAddresses, (*core.Account).SetEmailAddresses}
	AccountQuickPickList  = Association[*core.Account, *core.Activity]{
		"QuickPickList", (*core.Account).QuickPickList, (*core.Account).AddToQuickPickList, (*core.Account).RemoveFromQuickPickList, (*core.Account).SetQuickPickList,
	}
	AccountWorks  = readOnlyAssociation("Works", (*core.Account).Works)
	AccountEvents = readOnlyAssociation("Events", (*core.Account).Events)
)

// Activity types, activities and tasks.
var (
	ActivityTypeDisplayName = Property[*core.ActivityType, string]{"DisplayName", (*core.ActivityType).DisplayName, (*core.ActivityType).SetDisplayName}
	ActivityTypeDescription = Property[*core.ActivityType, string]{"Description", (*core.ActivityType).Description, (*core.ActivityType).SetDescription}
	ActivityTypeActivities  = readOnlyAssociation("Activities", (*core.ActivityType).Activities)

	ActivityDisplayName           = Property[*core.Activity, string]{"DisplayName", (*core.Activity).DisplayName, (*core.Activity).SetDisplayName}
	ActivityDescription           = Property[*core.Activity, string]{"Description", (*core.Activity).Description, (*core.Activity).SetDescription}
	ActivityTimeout               = Property[*core.Activity, *time.Duration]{"Timeout", (*core.Activity).Timeout, (*core.Activity).SetTimeout}
	ActivityRequireCommentOnStart = Property[*core.Activity, bool]{"RequireCommentOnStart", (*core.Activity).RequireCommentOnStart, (*core.Activity).SetRequireCommentOnStart}
	ActivityRequireCommentOnStop  = Property[*core.Activity, bool]{"RequireCommentOnStop", (*core.Activity).RequireCommentOnStop, (*core.Activity).SetRequireCommentOnStop}
	ActivityFullScreenReminder    = Property[*core.Activity, bool]{"FullScreenReminder", (*core.Activity).FullScreenReminder, (*core.Activity).SetFullScreenReminder}
	ActivityCompleted             = Property[*core.Activity, bool]{"Completed", (*core.Activity).Completed, (*core.Activity).SetCompleted}

	ActivityOwner    = Reference[*core.Activity, *core.User]{name: "Owner", get: (*core.Activity).Owner}
	ActivityTypeOf   = Reference[*core.Activity, *core.ActivityType]{"ActivityType", (*core.Activity).ActivityType, (*core.Activity).SetActivityType}
	ActivityWorkload = Reference[*core.Activity, *core.Workload]{"Workload", (*core.Activity).Workload, (*core.Activity).SetWorkload}
	ActivityParent   = Reference[*core.Activity, *core.Activity]{"Parent", (*core.Activity).Parent, (*core.Activity).SetParent}

	ActivityChildren     = readOnlyAssociation("Children", (*core.Activity).Children)
	ActivityQuickPickers = readOnlyAssociation("QuickPickers", (*core.Activity).QuickPickers)
	ActivityWorks        = readOnlyAssociation("Works", (*core.Activity).Works)
	ActivityEvents       = readOnlyAssociation("Events", (*core.Activity).Events)
)

// Workloads and beneficiaries.
var (
	WorkloadDisplayName = Property[*core.Workload, string]{"DisplayName", (*core.Workload).DisplayName, (*core.Workload).SetDisplayName}
	WorkloadDescription = Property[*core.Workload, string]{"Description", (*core.Workload).Description, (*core.Workload).SetDescription}
	WorkloadCompleted   = Property[*core.Workload, bool]{"Completed", (*core.Workload).Completed, (*core.Workload).SetCompleted}
	WorkloadParent      = Reference[*core.Workload, *core.Workload]{"Parent", (*core.Workload).Parent, (*core.Workload).SetParent}

	WorkloadBeneficiaries = Association[*core.Workload, *core.Beneficiary]{
		"Beneficiaries", (*core.Workload).Beneficiaries, (*core.Workload).AddBeneficiary, (*core.Workload).RemoveBeneficiary, (*core.Workload).SetBeneficiaries,
	}
	WorkloadAssignees = Association[*core.Workload, *core.User]{
		"Assignees", (*core.Workload).Assignees, (*core.Workload).AddAssignee, (*core.Workload).RemoveAssignee, (*core.Workload).SetAssignees,
	}
	WorkloadChildren               = readOnlyAssociation("Children", (*core.Workload).Children)
	WorkloadContributingActivities = readOnlyAssociation("ContributingActivities", (*core.Workload).ContributingActivities)

	BeneficiaryDisplayName = Property[*core.Beneficiary, string]{"DisplayName", (*core.Beneficiary).DisplayName, (*core.Beneficiary).SetDisplayName}
	BeneficiaryDescription = Property[*core.Beneficiary, string]{"Description", (*core.Beneficiary).Description, (*core.Beneficiary).SetDescription}
	BeneficiaryWorkloads   = Association[*core.Beneficiary, *core.Workload]{
		"Workloads", (*core.Beneficiary).Workloads, (*core.Beneficiary).AddWorkload, (*core.Beneficiary).RemoveWorkload, (*core.Beneficiary).SetWorkloads,
	}
)

// Works and events never change after creation.
var (
	WorkStartedAt  = Property[*core.Work, time.Time]{name: "StartedAt", get: (*core.Work).StartedAt}
	WorkFinishedAt = Property[*core.Work, time.Time]{name: "FinishedAt", get: (*core.Work).FinishedAt}
	WorkDuration   = Property[*core.Work, time.Duration]{name: "Duration", get: (*core.Work).Duration}
	WorkAccount    = Reference[*core.Work, *core.Account]{name: "Account", get: (*core.Work).Account}
	WorkActivity   = Reference[*core.Work, *core.Activity]{name: "Activity", get: (*core.Work).Activity}

	EventOccurredAt = Property[*core.Event, time.Time]{name: "OccurredAt", get: (*core.Event).OccurredAt}
	EventSummary    = Property[*core.Event, string]{name: "Summary", get: (*core.Event).Summary}
	EventAccount    = Reference[*core.Event, *core.Account]{name: "Account", get: (*core.Event).Account}
	EventActivities = readOnlyAssociation("Activities", (*core.Event).Activities)
)

// Store-wide listings.
var (
	Users             = Listing[*core.User]{"Users", (*core.Tx).Users}
	Accounts          = Listing[*core.Account]{"Accounts", (*core.Tx).Accounts}
	ActivityTypes     = Listing[*core.ActivityType]{"ActivityTypes", (*core.Tx).ActivityTypes}
	PublicActivities  = Listing[*core.Activity]{"PublicActivities", (*core.Tx).PublicActivities}
	PublicTasks       = Listing[*core.Activity]{"PublicTasks", (*core.Tx).PublicTasks}
	RootPublicTasks   = Listing[*core.Activity]{"RootPublicTasks", (*core.Tx).RootPublicTasks}
	PrivateActivities = Listing[*core.Activity]{"PrivateActivities", (*core.Tx).PrivateActivities}
	PrivateTasks      = Listing[*core.Activity]{"PrivateTasks", (*core.Tx).PrivateTasks}
	Projects          = Listing[*core.Workload]{"Projects", (*core.Tx).Projects}
	RootProjects      = Listing[*core.Workload]{"RootProjects", (*core.Tx).RootProjects}
	WorkStreams       = Listing[*core.Workload]{"WorkStreams", (*core.Tx).WorkStreams}
	Beneficiaries     = Listing[*core.Beneficiary]{"Beneficiaries", (*core.Tx).Beneficiaries}
	Works             = Listing[*core.Work]{"Works", (*core.Tx).Works}
	Events            = Listing[*core.Event]{"Events", (*core.Tx).Events}
)
