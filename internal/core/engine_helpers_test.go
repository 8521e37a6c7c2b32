package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"timetracker/internal/infra/persistence/memory"
	"timetracker/pkg/domain"
)

func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	opts = append([]Option{WithSelfCheck(true), WithDescription("Memory", "test")}, opts...)
	s, err := Create(context.Background(), memory.New(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		if s.IsOpen() {
			_ = s.Close(context.Background())
		}
	})
	return s
}

func mustUpdate(t *testing.T, s *Store, fn func(tx *Tx) error) {
	t.Helper()
	require.NoError(t, s.Update(fn))
}

func requireKind(t *testing.T, err error, kind domain.ErrorKind) {
	t.Helper()
	require.Error(t, err)
	require.Equalf(t, kind, domain.KindOf(err), "unexpected error: %v", err)
}

func durationPtr(d time.Duration) *time.Duration { return &d }

var baseTime = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

// fixture is a small but fully connected workspace.
type fixture struct {
	alice, bob       *User
	aliceAcc, bobAcc *Account
	meeting          *ActivityType
	acme             *Beneficiary
	root, child      *Workload
	stream           *Workload
	public           *Activity
	publicTask       *Activity
	private          *Activity
	privateTask      *Activity
	work             *Work
	event            *Event
}

func buildFixture(t *testing.T, s *Store) *fixture {
	t.Helper()
	f := &fixture{}
	mustUpdate(t, s, func(tx *Tx) error {
		var err error
		if f.alice, err = tx.CreateUser(UserFields{RealName: "Alice", InactivityTimeout: durationPtr(15 * time.Minute), UILocale: "en-GB", EmailAddresses: []string{"alice@example.com"}}); err != nil {
			return err
		}
		if f.bob, err = tx.CreateUser(UserFields{RealName: "Bob"}); err != nil {
			return err
		}
		if f.aliceAcc, err = tx.CreateAccount(f.alice, AccountFields{Login: "alice", Password: "secret", Capabilities: domain.NewCapabilities(domain.CapAdministrator)}); err != nil {
			return err
		}
		if f.bobAcc, err = tx.CreateAccount(f.bob, AccountFields{Login: "bob", Password: "hunter2", Capabilities: domain.NewCapabilities(domain.CapLogWork)}); err != nil {
			return err
		}
		if f.meeting, err = tx.CreateActivityType(ActivityTypeFields{DisplayName: "Meeting", Description: "Talking"}); err != nil {
			return err
		}
		if f.acme, err = tx.CreateBeneficiary(BeneficiaryFields{DisplayName: "Acme"}); err != nil {
			return err
		}
		if f.root, err = tx.CreateProject(ProjectFields{WorkloadFields: WorkloadFields{DisplayName: "Root"}}); err != nil {
			return err
		}
		if f.child, err = tx.CreateProject(ProjectFields{WorkloadFields: WorkloadFields{DisplayName: "Child"}, Parent: f.root}); err != nil {
			return err
		}
		if f.stream, err = tx.CreateWorkStream(WorkloadFields{DisplayName: "Support"}); err != nil {
			return err
		}
		if err = f.root.AddBeneficiary(tx, f.acme); err != nil {
			return err
		}
		if err = f.stream.AddAssignee(tx, f.alice); err != nil {
			return err
		}
		if f.public, err = tx.CreatePublicActivity(ActivityFields{DisplayName: "Standup", ActivityType: f.meeting, Workload: f.root, Timeout: durationPtr(time.Hour)}); err != nil {
			return err
		}
		if f.publicTask, err = tx.CreatePublicTask(TaskFields{ActivityFields: ActivityFields{DisplayName: "Release", Description: "line one\nline two"}}); err != nil {
			return err
		}
		if f.private, err = tx.CreatePrivateActivity(f.alice, ActivityFields{DisplayName: "Reading", RequireCommentOnStop: true}); err != nil {
			return err
		}
		if f.privateTask, err = tx.CreatePrivateTask(f.alice, TaskFields{ActivityFields: ActivityFields{DisplayName: "Inbox"}, Completed: true}); err != nil {
			return err
		}
		if err = f.aliceAcc.SetQuickPickList(tx, []*Activity{f.private, f.public}); err != nil {
			return err
		}
		if f.work, err = tx.CreateWork(f.aliceAcc, f.private, baseTime, baseTime.Add(90*time.Minute)); err != nil {
			return err
		}
		f.event, err = tx.CreateEvent(f.aliceAcc, baseTime.Add(2*time.Hour), "Shipped", []*Activity{f.public, f.privateTask})
		return err
	})
	return f
}
