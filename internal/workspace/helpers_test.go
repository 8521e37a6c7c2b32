package workspace

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"timetracker/internal/address"
	"timetracker/internal/blob"
	"timetracker/internal/config"
	"timetracker/internal/core"
	"timetracker/pkg/domain"
)

var (
	rootCreds = domain.NewLoginCredentials("root", "toor")
	baseTime  = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	rootAdmin = Administrator{RealName: "Root", Login: "root", Password: "toor"}
)

func testConfig() config.Config {
	return config.Config{
		StorageDriver: config.DriverMemory,
		SelfCheck:     true,
		Blob:          blob.Config{Driver: blob.DriverMemory},
	}
}

func newTestRegistry(t *testing.T, opts ...Option) *Registry {
	t.Helper()
	r, err := DefaultRegistry(testConfig(), opts...)
	require.NoError(t, err)
	return r
}

func newTestWorkspace(t *testing.T, opts ...Option) *Workspace {
	t.Helper()
	r := newTestRegistry(t, opts...)
	ws, err := r.Create(context.Background(), address.Ref{Type: config.DriverMemory, Location: t.Name()}, rootAdmin)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close(context.Background()) })
	return ws
}

func requireKind(t *testing.T, err error, kind domain.ErrorKind) {
	t.Helper()
	require.Error(t, err)
	require.Equalf(t, kind, domain.KindOf(err), "unexpected error: %v", err)
	var gate *Error
	require.ErrorAs(t, err, &gate, "gate operations return *workspace.Error")
}

// person is a user with one account, created by root.
type person struct {
	user    *Handle[*core.User]
	account *Handle[*core.Account]
	creds   domain.Credentials
}

func addPerson(t *testing.T, ws *Workspace, name, login string, caps ...domain.Capability) person {
	t.Helper()
	user, err := ws.CreateUser(rootCreds, core.UserFields{RealName: name})
	require.NoError(t, err)
	acc, err := ws.CreateAccount(rootCreds, user, core.AccountFields{
		Login:        login,
		Password:     login + "-pw",
		Capabilities: domain.NewCapabilities(caps...),
	})
	require.NoError(t, err)
	return person{user: user, account: acc, creds: domain.NewLoginCredentials(login, login+"-pw")}
}
