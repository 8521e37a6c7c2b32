package workspace

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timetracker/internal/core"
	"timetracker/pkg/domain"
)

func TestLoginResolvesCredentials(t *testing.T) {
	ws := newTestWorkspace(t)
	alice := addPerson(t, ws, "Alice", "alice", domain.CapLogWork)

	caps, err := ws.Capabilities(alice.creds)
	require.NoError(t, err)
	assert.Equal(t, domain.NewCapabilities(domain.CapLogWork), caps)

	_, err = ws.Capabilities(domain.NewLoginCredentials("alice", "wrong"))
	requireKind(t, err, domain.KindAccessDenied)
	_, err = ws.Capabilities(domain.NewLoginCredentials("nobody", "x"))
	requireKind(t, err, domain.KindAccessDenied)
	_, err = ws.Login("alice", "wrong")
	requireKind(t, err, domain.KindAccessDenied)

	require.NoError(t, Set(alice.account, rootCreds, AccountEnabled, false))
	_, err = ws.Capabilities(alice.creds)
	requireKind(t, err, domain.KindAccessDenied)

	require.NoError(t, Set(alice.account, rootCreds, AccountEnabled, true))
	require.NoError(t, Set(alice.user, rootCreds, UserEnabled, false))
	_, err = ws.Capabilities(alice.creds)
	requireKind(t, err, domain.KindAccessDenied)
}

func TestSessions(t *testing.T) {
	ws := newTestWorkspace(t)
	alice := addPerson(t, ws, "Alice", "alice", domain.CapLogWork)

	session, err := ws.Login("alice", "alice-pw")
	require.NoError(t, err)
	require.True(t, session.IsSession())

	caps, err := ws.Capabilities(session)
	require.NoError(t, err)
	assert.True(t, caps.Contains(domain.CapLogWork))

	// Disabling the account ends the session's access without ending it.
	require.NoError(t, Set(alice.account, rootCreds, AccountEnabled, false))
	_, err = ws.Capabilities(session)
	requireKind(t, err, domain.KindAccessDenied)
	require.NoError(t, Set(alice.account, rootCreds, AccountEnabled, true))
	_, err = ws.Capabilities(session)
	require.NoError(t, err)

	require.NoError(t, ws.Logout(session))
	_, err = ws.Capabilities(session)
	requireKind(t, err, domain.KindAccessDenied)
	requireKind(t, ws.Logout(session), domain.KindAccessDenied)

	session, err = ws.Login("alice", "alice-pw")
	require.NoError(t, err)
	require.NoError(t, ws.Destroy(rootCreds, alice.account))
	_, err = ws.Capabilities(session)
	requireKind(t, err, domain.KindAccessDenied)
}

func TestChangePassword(t *testing.T) {
	ws := newTestWorkspace(t)
	alice := addPerson(t, ws, "Alice", "alice")

	err := ws.ChangePassword(alice.creds, "not-the-old-one", "new-secret")
	requireKind(t, err, domain.KindAccessDenied)
	_, err = ws.Capabilities(alice.creds)
	require.NoError(t, err)

	require.NoError(t, ws.ChangePassword(alice.creds, "alice-pw", "new-secret"))
	_, err = ws.Capabilities(alice.creds)
	requireKind(t, err, domain.KindAccessDenied)
	_, err = ws.Capabilities(domain.NewLoginCredentials("alice", "new-secret"))
	require.NoError(t, err)

	// Self-service stops at the password: capabilities need ManageUsers.
	err = Set(alice.account, domain.NewLoginCredentials("alice", "new-secret"), AccountCapabilities, domain.AllCapabilities)
	requireKind(t, err, domain.KindAccessDenied)
}

// An account without capabilities can read its own account but change
// nothing through it, neither its capabilities nor its user.
func TestAccountWithoutCapabilitiesCannotEscalate(t *testing.T) {
	ws := newTestWorkspace(t)
	mallory := addPerson(t, ws, "Mallory", "mallory")
	alice := addPerson(t, ws, "Alice", "alice", domain.CapLogWork)

	own, err := ws.Account(mallory.creds)
	require.NoError(t, err)
	caps, err := Get(own, mallory.creds, AccountCapabilities)
	require.NoError(t, err)
	assert.Zero(t, caps)

	err = Set(own, mallory.creds, AccountCapabilities, domain.NewCapabilities(domain.CapAdministrator))
	requireKind(t, err, domain.KindAccessDenied)
	err = Set(own, mallory.creds, AccountLogin, "root")
	requireKind(t, err, domain.KindAccessDenied)
	err = Set(alice.account, mallory.creds, AccountPassword, "taken")
	requireKind(t, err, domain.KindAccessDenied)
	err = Set(mallory.user, mallory.creds, UserRealName, "Root")
	requireKind(t, err, domain.KindAccessDenied)

	user, err := Follow(own, mallory.creds, AccountUser)
	require.NoError(t, err)
	err = Attach(user, mallory.creds, UserWorkloads, nil)
	requireKind(t, err, domain.KindAccessDenied)
	requireKind(t, ws.Destroy(mallory.creds, alice.user), domain.KindAccessDenied)

	got, err := ws.Capabilities(mallory.creds)
	require.NoError(t, err)
	assert.Zero(t, got)

	// Descriptors without a getter or setter are refused before any check.
	_, err = Get(own, rootCreds, AccountPassword)
	requireKind(t, err, domain.KindCustom)
	err = Set(own, rootCreds, AccountPasswordHash, "00")
	requireKind(t, err, domain.KindCustom)
	err = Link(own, rootCreds, AccountUser, alice.user)
	requireKind(t, err, domain.KindCustom)

	var zero Handle[*core.User]
	_, err = Get(&zero, rootCreds, UserRealName)
	requireKind(t, err, domain.KindInvalidPropertyValue)
}

func TestPrivateActivitiesAreReadableByOwnerOnly(t *testing.T) {
	ws := newTestWorkspace(t)
	alice := addPerson(t, ws, "Alice", "alice", domain.CapManagePrivateActivities)
	bob := addPerson(t, ws, "Bob", "bob")

	notes, err := ws.CreatePrivateActivity(alice.creds, nil, ActivityFields{DisplayName: "Notes"})
	require.NoError(t, err)
	public, err := ws.CreatePublicActivity(rootCreds, ActivityFields{DisplayName: "Standup"})
	require.NoError(t, err)

	name, err := Get(notes, alice.creds, ActivityDisplayName)
	require.NoError(t, err)
	assert.Equal(t, "Notes", name)
	_, err = Get(notes, bob.creds, ActivityDisplayName)
	requireKind(t, err, domain.KindAccessDenied)
	_, err = Get(notes, rootCreds, ActivityDisplayName)
	require.NoError(t, err)

	ok, err := ws.CanRead(bob.creds, notes)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = ws.CanRead(domain.NewLoginCredentials("bob", "wrong"), public)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = ws.CanModify(domain.NewLoginCredentials("nobody", "x"), notes)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = ws.CanRead(bob.creds, public)
	require.NoError(t, err)
	assert.True(t, ok)

	bobsView, err := List(ws, bob.creds, PrivateActivities)
	require.NoError(t, err)
	assert.Empty(t, bobsView)
	alicesView, err := List(ws, alice.creds, PrivateActivities)
	require.NoError(t, err)
	require.Len(t, alicesView, 1)
	assert.Equal(t, notes.Oid(), alicesView[0].Oid())

	owned, err := Related(alice.user, bob.creds, UserPrivateActivities)
	require.NoError(t, err)
	assert.Empty(t, owned)

	stats, err := ws.Stats(bob.creds)
	require.NoError(t, err)
	assert.Equal(t, 1, stats[domain.EntityPublicActivity])
	assert.Zero(t, stats[domain.EntityPrivateActivity])
	assert.Equal(t, 3, stats[domain.EntityUser])
}

// A non-administrator without ManagePrivateActivities cannot modify another
// user's private activity, and can modify its own once granted the
// capability.
func TestPrivateActivityModifyNeedsCapabilityAndOwnership(t *testing.T) {
	ws := newTestWorkspace(t)
	alice := addPerson(t, ws, "Alice", "alice", domain.CapLogWork)
	bob := addPerson(t, ws, "Bob", "bob", domain.CapManagePrivateActivities)

	bobs, err := ws.CreatePrivateActivity(bob.creds, nil, ActivityFields{DisplayName: "Reading"})
	require.NoError(t, err)
	alices, err := ws.CreatePrivateActivity(rootCreds, alice.user, ActivityFields{DisplayName: "Notes"})
	require.NoError(t, err)

	err = Set(bobs, alice.creds, ActivityDisplayName, "Mine now")
	requireKind(t, err, domain.KindAccessDenied)
	err = Set(alices, alice.creds, ActivityDisplayName, "Journal")
	requireKind(t, err, domain.KindAccessDenied)
	_, err = ws.CreatePrivateActivity(alice.creds, nil, ActivityFields{DisplayName: "Other"})
	requireKind(t, err, domain.KindAccessDenied)

	caps := domain.NewCapabilities(domain.CapLogWork, domain.CapManagePrivateActivities)
	require.NoError(t, Set(alice.account, rootCreds, AccountCapabilities, caps))

	require.NoError(t, Set(alices, alice.creds, ActivityDisplayName, "Journal"))
	name, err := Get(alices, alice.creds, ActivityDisplayName)
	require.NoError(t, err)
	assert.Equal(t, "Journal", name)

	err = Set(bobs, alice.creds, ActivityDisplayName, "Mine now")
	requireKind(t, err, domain.KindAccessDenied)
	_, err = ws.CreatePrivateActivity(alice.creds, bob.user, ActivityFields{DisplayName: "Planted"})
	requireKind(t, err, domain.KindAccessDenied)

	ok, err := ws.CanModify(alice.creds, alices)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = ws.CanDestroy(alice.creds, bobs)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestKindCapabilities(t *testing.T) {
	ws := newTestWorkspace(t)
	planner := addPerson(t, ws, "Planner", "planner", domain.CapManageWorkloads, domain.CapManageBeneficiaries)
	clerk := addPerson(t, ws, "Clerk", "clerk", domain.CapManageActivityTypes)

	project, err := ws.CreateProject(planner.creds, ProjectFields{WorkloadFields: core.WorkloadFields{DisplayName: "Apollo"}})
	require.NoError(t, err)
	child, err := ws.CreateProject(planner.creds, ProjectFields{WorkloadFields: core.WorkloadFields{DisplayName: "Lander"}, Parent: project})
	require.NoError(t, err)
	acme, err := ws.CreateBeneficiary(planner.creds, core.BeneficiaryFields{DisplayName: "Acme"})
	require.NoError(t, err)
	require.NoError(t, Attach(project, planner.creds, WorkloadBeneficiaries, acme))

	_, err = ws.CreateProject(clerk.creds, ProjectFields{WorkloadFields: core.WorkloadFields{DisplayName: "Gemini"}})
	requireKind(t, err, domain.KindAccessDenied)
	_, err = ws.CreateActivityType(planner.creds, core.ActivityTypeFields{DisplayName: "Meeting"})
	requireKind(t, err, domain.KindAccessDenied)
	_, err = ws.CreateActivityType(clerk.creds, core.ActivityTypeFields{DisplayName: "Meeting"})
	require.NoError(t, err)
	_, err = ws.CreateUser(planner.creds, core.UserFields{RealName: "Intruder"})
	requireKind(t, err, domain.KindAccessDenied)

	err = Set(child, clerk.creds, WorkloadCompleted, true)
	requireKind(t, err, domain.KindAccessDenied)
	require.NoError(t, Set(child, planner.creds, WorkloadCompleted, true))

	parent, err := Follow(child, clerk.creds, WorkloadParent)
	require.NoError(t, err)
	require.NotNil(t, parent)
	assert.Equal(t, project.Oid(), parent.Oid())
	none, err := Follow(project, clerk.creds, WorkloadParent)
	require.NoError(t, err)
	assert.Nil(t, none)

	funded, err := Related(acme, clerk.creds, BeneficiaryWorkloads)
	require.NoError(t, err)
	require.Len(t, funded, 1)
	assert.Equal(t, project.Oid(), funded[0].Oid())

	requireKind(t, ws.Destroy(clerk.creds, project), domain.KindAccessDenied)
	require.NoError(t, ws.Destroy(planner.creds, project))
	state, err := child.State()
	require.NoError(t, err)
	assert.Equal(t, domain.StateDead, state)
	_, err = Get(child, planner.creds, WorkloadDisplayName)
	requireKind(t, err, domain.KindInstanceDead)
	requireKind(t, ws.Destroy(planner.creds, child), domain.KindInstanceDead)
	_, err = ws.CanRead(planner.creds, child)
	requireKind(t, err, domain.KindInstanceDead)
}

func TestWorkAndEventsAreLoggedAgainstOwnAccount(t *testing.T) {
	ws := newTestWorkspace(t)
	alice := addPerson(t, ws, "Alice", "alice", domain.CapLogWork, domain.CapLogEvents)
	bob := addPerson(t, ws, "Bob", "bob", domain.CapLogWork)

	standup, err := ws.CreatePublicActivity(rootCreds, ActivityFields{DisplayName: "Standup"})
	require.NoError(t, err)

	work, err := ws.CreateWork(alice.creds, nil, standup, baseTime, baseTime.Add(30*time.Minute))
	require.NoError(t, err)
	d, err := Get(work, bob.creds, WorkDuration)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, d)

	_, err = ws.CreateWork(bob.creds, alice.account, standup, baseTime, baseTime.Add(time.Hour))
	requireKind(t, err, domain.KindAccessDenied)
	_, err = ws.CreateEvent(bob.creds, nil, baseTime, "Deployed", []*Handle[*core.Activity]{standup})
	requireKind(t, err, domain.KindAccessDenied)
	_, err = ws.CreateWork(rootCreds, bob.account, standup, baseTime, baseTime.Add(time.Hour))
	require.NoError(t, err)

	event, err := ws.CreateEvent(alice.creds, alice.account, baseTime.Add(time.Hour), "Deployed", []*Handle[*core.Activity]{standup})
	require.NoError(t, err)
	touched, err := Related(event, bob.creds, EventActivities)
	require.NoError(t, err)
	require.Len(t, touched, 1)

	requireKind(t, ws.Destroy(bob.creds, work), domain.KindAccessDenied)
	require.NoError(t, ws.Destroy(alice.creds, work))

	works, err := List(ws, bob.creds, Works)
	require.NoError(t, err)
	assert.Len(t, works, 1)
}

func TestQuickPickListSelfService(t *testing.T) {
	ws := newTestWorkspace(t)
	alice := addPerson(t, ws, "Alice", "alice", domain.CapManagePrivateTasks)
	bob := addPerson(t, ws, "Bob", "bob", domain.CapManagePrivateTasks)

	standup, err := ws.CreatePublicActivity(rootCreds, ActivityFields{DisplayName: "Standup"})
	require.NoError(t, err)
	inbox, err := ws.CreatePrivateTask(alice.creds, nil, TaskFields{ActivityFields: ActivityFields{DisplayName: "Inbox"}})
	require.NoError(t, err)
	bobsInbox, err := ws.CreatePrivateTask(bob.creds, nil, TaskFields{ActivityFields: ActivityFields{DisplayName: "Inbox"}})
	require.NoError(t, err)

	require.NoError(t, ws.SetQuickPickList(alice.creds, []*Handle[*core.Activity]{inbox, standup}))
	err = ws.SetQuickPickList(alice.creds, []*Handle[*core.Activity]{bobsInbox})
	requireKind(t, err, domain.KindAccessDenied)

	own, err := ws.Account(alice.creds)
	require.NoError(t, err)
	picks, err := Related(own, alice.creds, AccountQuickPickList)
	require.NoError(t, err)
	require.Len(t, picks, 2)
	assert.Equal(t, inbox.Oid(), picks[0].Oid())
	assert.Equal(t, standup.Oid(), picks[1].Oid())

	// Bob sees only the public half of Alice's list.
	picks, err = Related(own, bob.creds, AccountQuickPickList)
	require.NoError(t, err)
	require.Len(t, picks, 1)
	assert.Equal(t, standup.Oid(), picks[0].Oid())
}

func TestLookupAndHandles(t *testing.T) {
	ws := newTestWorkspace(t)
	alice := addPerson(t, ws, "Alice", "alice")

	found, err := Lookup[*core.User](ws, alice.creds, alice.user.Oid())
	require.NoError(t, err)
	assert.Equal(t, domain.EntityUser, found.Kind())
	_, err = Lookup[*core.Account](ws, alice.creds, alice.user.Oid())
	requireKind(t, err, domain.KindDoesNotExist)

	state, err := found.State()
	require.NoError(t, err)
	assert.Equal(t, domain.StateManaged, state)

	require.NoError(t, ws.Destroy(rootCreds, alice.user))
	state, err = found.State()
	require.NoError(t, err)
	assert.Equal(t, domain.StateDead, state)

	require.NoError(t, found.Release())
	require.NoError(t, found.Release())
	_, err = Get(found, rootCreds, UserRealName)
	requireKind(t, err, domain.KindCustom)

	var missing *Handle[*core.User]
	_, err = ws.CanRead(rootCreds, missing)
	requireKind(t, err, domain.KindInvalidPropertyValue)
}

func TestHandlesDoNotCrossWorkspaces(t *testing.T) {
	first := newTestWorkspace(t)
	second := newTestWorkspace(t)
	alice := addPerson(t, first, "Alice", "alice")
	acme, err := second.CreateBeneficiary(rootCreds, core.BeneficiaryFields{DisplayName: "Acme"})
	require.NoError(t, err)
	project, err := first.CreateProject(rootCreds, ProjectFields{WorkloadFields: core.WorkloadFields{DisplayName: "Apollo"}})
	require.NoError(t, err)

	requireKind(t, second.Destroy(rootCreds, alice.user), domain.KindIncompatibleInstance)
	requireKind(t, Attach(project, rootCreds, WorkloadBeneficiaries, acme), domain.KindIncompatibleInstance)
	_, err = first.CanRead(rootCreds, acme)
	requireKind(t, err, domain.KindIncompatibleInstance)

	// The same login works in either workspace.
	_, err = second.Capabilities(rootCreds)
	require.NoError(t, err)
}

func TestFailedOperationsLeaveNoTrace(t *testing.T) {
	ws := newTestWorkspace(t)
	_, err := ws.CreateActivityType(rootCreds, core.ActivityTypeFields{DisplayName: "Meeting"})
	require.NoError(t, err)
	require.NoError(t, ws.Save(t.Context()))

	_, err = ws.CreateActivityType(rootCreds, core.ActivityTypeFields{DisplayName: "Meeting"})
	requireKind(t, err, domain.KindAlreadyExists)
	_, err = ws.CreateUser(rootCreds, core.UserFields{RealName: " padded "})
	requireKind(t, err, domain.KindInvalidPropertyValue)
	assert.False(t, ws.NeedsSaving())

	types, err := List(ws, rootCreds, ActivityTypes)
	require.NoError(t, err)
	assert.Len(t, types, 1)
}
