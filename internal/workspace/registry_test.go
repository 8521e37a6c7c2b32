package workspace

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timetracker/internal/address"
	"timetracker/internal/blob"
	"timetracker/internal/config"
	"timetracker/internal/core"
	"timetracker/internal/infra/persistence"
	"timetracker/internal/infra/persistence/postgres"
	"timetracker/internal/infra/persistence/postgres/testutil"
	"timetracker/pkg/domain"
)

func TestOpenTwiceIsStoreInUse(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t)
	ref := address.Ref{Type: config.DriverMemory, Location: "shared"}

	ws, err := r.Create(ctx, ref, rootAdmin)
	require.NoError(t, err)
	_, err = r.Open(ctx, ref)
	requireKind(t, err, domain.KindStoreInUse)
	assert.Equal(t, []address.Ref{ref}, r.OpenWorkspaces())

	require.NoError(t, ws.Close(ctx))
	requireKind(t, ws.Close(ctx), domain.KindStoreClosed)
	assert.Empty(t, r.OpenWorkspaces())
	_, err = ws.Capabilities(rootCreds)
	requireKind(t, err, domain.KindStoreClosed)

	reopened, err := r.Open(ctx, ref)
	require.NoError(t, err)
	defer reopened.Close(ctx)
	caps, err := reopened.Capabilities(rootCreds)
	require.NoError(t, err)
	assert.Equal(t, domain.AllCapabilities, caps)

	addr, err := r.Addresses().Address(ref)
	require.NoError(t, err)
	assert.Equal(t, address.Managed, addr.State())
	assert.Equal(t, 1, addr.ReferenceCount())
}

func TestCreateAndOpenFailures(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t)

	_, err := r.Open(ctx, address.Ref{Type: "ftp", Location: "x"})
	requireKind(t, err, domain.KindInvalidAddress)
	_, err = r.Open(ctx, address.Ref{Type: config.DriverBlob, Location: "../escape.xml"})
	requireKind(t, err, domain.KindInvalidAddress)
	_, err = r.Open(ctx, address.Ref{Type: config.DriverMemory, Location: "missing"})
	requireKind(t, err, domain.KindDoesNotExist)

	ref := address.Ref{Type: config.DriverMemory, Location: "once"}
	_, err = r.Create(ctx, ref, Administrator{RealName: "Root", Login: "has space", Password: "x"})
	requireKind(t, err, domain.KindInvalidPropertyValue)
	_, err = r.Open(ctx, ref)
	requireKind(t, err, domain.KindDoesNotExist)

	ws, err := r.Create(ctx, ref, rootAdmin)
	require.NoError(t, err)
	require.NoError(t, ws.Close(ctx))
	_, err = r.Create(ctx, ref, rootAdmin)
	requireKind(t, err, domain.KindAlreadyExists)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	r := newTestRegistry(t)
	err := r.Register(StoreType{Mnemonic: config.DriverMemory, Backend: func(context.Context, string) (persistence.Backend, error) { return nil, nil }})
	require.Error(t, err)
	require.Error(t, r.Register(StoreType{Mnemonic: "nothing"}))

	var names []string
	for _, st := range r.StoreTypes() {
		names = append(names, st.Mnemonic)
	}
	assert.Equal(t, []string{"badger", "blob", "file", "memory", "postgres", "sqlite"}, names)
}

func TestDefaultRegistryDrivers(t *testing.T) {
	dir := t.TempDir()
	conn := testutil.NewStubConn()
	restore := postgres.OverrideSQLOpen(func(driverName, dsn string) (*sql.DB, error) {
		return conn.OpenDB(), nil
	})
	t.Cleanup(restore)

	cfg := testConfig()
	cfg.PostgresDSN = "postgres://stub"
	cfg.Blob = blob.Config{Driver: blob.DriverFilesystem, FSRoot: filepath.Join(dir, "blobs")}

	refs := []address.Ref{
		{Type: config.DriverMemory, Location: "drivers"},
		{Type: config.DriverFile, Location: filepath.Join(dir, "ws.xml")},
		{Type: config.DriverSQLite, Location: filepath.Join(dir, "ws.db")},
		{Type: config.DriverPostgres, Location: "drivers"},
		{Type: config.DriverBadger, Location: filepath.Join(dir, "badger")},
		{Type: config.DriverBlob, Location: "workspaces/drivers.xml"},
	}
	for _, ref := range refs {
		t.Run(ref.Type, func(t *testing.T) {
			ctx := context.Background()
			r, err := DefaultRegistry(cfg)
			require.NoError(t, err)

			ws, err := r.Create(ctx, ref, rootAdmin)
			require.NoError(t, err)
			_, err = ws.CreateBeneficiary(rootCreds, core.BeneficiaryFields{DisplayName: "Acme"})
			require.NoError(t, err)
			require.True(t, ws.NeedsSaving())
			require.NoError(t, ws.Close(ctx))

			ws, err = r.Open(ctx, ref)
			require.NoError(t, err)
			defer ws.Close(ctx)
			beneficiaries, err := List(ws, rootCreds, Beneficiaries)
			require.NoError(t, err)
			require.Len(t, beneficiaries, 1)
			name, err := Get(beneficiaries[0], rootCreds, BeneficiaryDisplayName)
			require.NoError(t, err)
			assert.Equal(t, "Acme", name)
			require.NoError(t, ws.Validate(rootCreds))
		})
	}
}

func TestPostgresNeedsDSN(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.Open(context.Background(), address.Ref{Type: config.DriverPostgres, Location: "x"})
	requireKind(t, err, domain.KindCustom)
	assert.Contains(t, err.Error(), "DSN")
}

func TestDiscoverFindsBlobWorkspaces(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t)
	refs, err := r.Discover(ctx)
	require.NoError(t, err)
	assert.Empty(t, refs)

	for _, key := range []string{"teams/beta.xml", "teams/alpha.xml"} {
		ws, err := r.Create(ctx, address.Ref{Type: config.DriverBlob, Location: key}, rootAdmin)
		require.NoError(t, err)
		require.NoError(t, ws.Close(ctx))
	}
	refs, err = r.Discover(ctx)
	require.NoError(t, err)
	assert.Equal(t, []address.Ref{
		{Type: config.DriverBlob, Location: "teams/alpha.xml"},
		{Type: config.DriverBlob, Location: "teams/beta.xml"},
	}, refs)
}

func TestSubscribeDeliversWorkspaceEvents(t *testing.T) {
	ws := newTestWorkspace(t)
	var (
		mu     sync.Mutex
		events []Event
	)
	cancel := ws.Subscribe(func(e Event) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
		// Listeners run after the store is unlocked and may call back in.
		_, err := ws.Capabilities(rootCreds)
		assert.NoError(t, err)
	})

	user, err := ws.CreateUser(rootCreds, core.UserFields{RealName: "Alice"})
	require.NoError(t, err)
	require.NoError(t, Set(user, rootCreds, UserUILocale, "en-GB"))
	cancel()
	require.NoError(t, Set(user, rootCreds, UserUILocale, "de-DE"))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 2)
	assert.Equal(t, domain.ChangeCreated, events[0].Change)
	assert.Equal(t, domain.ChangeModified, events[1].Change)
	for _, e := range events {
		assert.Same(t, ws, e.Workspace)
		assert.Equal(t, domain.EntityUser, e.Entity)
		assert.Equal(t, user.Oid(), e.Oid)
	}
}
