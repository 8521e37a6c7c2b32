package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCapabilitiesPackAndParse(t *testing.T) {
	caps := NewCapabilities(CapLogWork, CapAdministrator, CapBackupAndRestore)
	assert.Equal(t, "Administrator,LogWork,BackupAndRestore", caps.Pack())
	assert.Equal(t, "{Administrator,LogWork,BackupAndRestore}", caps.String())

	parsed, err := ParseCapabilities(caps.Pack())
	require.NoError(t, err)
	assert.Equal(t, caps, parsed)

	empty, err := ParseCapabilities("")
	require.NoError(t, err)
	assert.Equal(t, NoCapabilities, empty)

	_, err = ParseCapabilities("Administrator,Juggling")
	require.ErrorContains(t, err, "Juggling")
}

func TestCapabilitiesSetOperations(t *testing.T) {
	caps := NoCapabilities.With(CapManageUsers).With(CapLogEvents)
	assert.True(t, caps.Contains(CapManageUsers))
	assert.False(t, caps.Contains(CapAdministrator))
	assert.True(t, caps.ContainsAny(CapAdministrator, CapLogEvents))
	assert.False(t, caps.Without(CapLogEvents).Contains(CapLogEvents))
	assert.Equal(t, []Capability{CapManageUsers, CapLogEvents}, caps.List())
	assert.True(t, AllCapabilities.IsValid())
	assert.False(t, Capabilities(1<<31).IsValid())
	assert.Len(t, AllCapabilities.List(), 13)
}

type kindedErr struct{ kind ErrorKind }

func (e kindedErr) Error() string        { return e.kind.String() }
func (e kindedErr) ErrorKind() ErrorKind { return e.kind }

func TestKindOfFollowsWrapChain(t *testing.T) {
	err := fmt.Errorf("outer: %w", kindedErr{KindAccessDenied})
	assert.Equal(t, KindAccessDenied, KindOf(err))
	assert.True(t, IsKind(err, KindAccessDenied))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.False(t, IsKind(nil, KindUnknown))
}

func TestEntityKinds(t *testing.T) {
	for _, k := range EntityKinds {
		assert.True(t, k.Known())
		assert.NotEqual(t, string(k), k.DisplayName())
	}
	assert.False(t, EntityKind("Nope").Known())
	assert.True(t, EntityPrivateTask.IsTask() && EntityPrivateTask.IsPrivate() && EntityPrivateTask.IsActivity())
	assert.True(t, EntityWorkStream.IsWorkload())
	assert.False(t, EntityWork.IsActivity())
}

func TestCredentialsNeverPrintPasswords(t *testing.T) {
	login := NewLoginCredentials("alice", "secret")
	assert.False(t, login.IsSession())
	assert.NotContains(t, login.String(), "secret")
	token := uuid.New()
	session := NewSessionCredentials(token)
	assert.True(t, session.IsSession())
	assert.Equal(t, "session:"+token.String(), session.String())
}
