package core

import (
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timetracker/internal/infra/persistence/memory"
	"timetracker/pkg/domain"
)

func TestDocumentRoundTripIsByteIdentical(t *testing.T) {
	ctx := context.Background()
	space := memory.NewSpace()
	s, err := Create(ctx, space.Backend("ws"), WithSelfCheck(true))
	require.NoError(t, err)
	f := buildFixture(t, s)
	require.True(t, s.NeedsSaving())
	require.NoError(t, s.Close(ctx))

	first, err := space.Backend("ws").Load(ctx)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(first), `<?xml version="1.0" encoding="UTF-8"?>`+"\n"+`<Workspace FormatVersion="1">`))

	reopened, err := Open(ctx, space.Backend("ws"))
	require.NoError(t, err)
	assert.False(t, reopened.NeedsSaving())
	require.NoError(t, reopened.Save(ctx))
	second, err := space.Backend("ws").Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))

	require.NoError(t, reopened.View(func(tx *Tx) error {
		alice, err := tx.FindUserByRealName("Alice")
		require.NoError(t, err)
		assert.Equal(t, f.alice.OID(), alice.OID())
		timeout, err := alice.InactivityTimeout(tx)
		require.NoError(t, err)
		require.NotNil(t, timeout)
		assert.Equal(t, 15*time.Minute, *timeout)
		locale, err := alice.UILocale(tx)
		require.NoError(t, err)
		assert.Equal(t, "en-GB", locale)

		acc, err := tx.FindAccountByLogin("alice")
		require.NoError(t, err)
		caps, err := acc.Capabilities(tx)
		require.NoError(t, err)
		assert.True(t, caps.Contains(domain.CapAdministrator))
		picks, err := acc.QuickPickList(tx)
		require.NoError(t, err)
		require.Len(t, picks, 2)
		assert.Equal(t, f.private.OID(), picks[0].OID())
		assert.Equal(t, f.public.OID(), picks[1].OID())

		works, err := tx.Works()
		require.NoError(t, err)
		require.Len(t, works, 1)
		start, err := works[0].StartedAt(tx)
		require.NoError(t, err)
		assert.True(t, baseTime.Equal(start))

		tasks, err := tx.PrivateTasks()
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		done, err := tasks[0].Completed(tx)
		require.NoError(t, err)
		assert.True(t, done)
		owner, err := tasks[0].Owner(tx)
		require.NoError(t, err)
		assert.Same(t, alice, owner)
		return nil
	}))

	// Oids issued after a reload never collide with loaded ones.
	var fresh *Beneficiary
	require.NoError(t, reopened.Update(func(tx *Tx) error {
		fresh, err = tx.CreateBeneficiary(BeneficiaryFields{DisplayName: "Globex"})
		return err
	}))
	require.NoError(t, reopened.View(func(tx *Tx) error {
		all, err := tx.Objects()
		require.NoError(t, err)
		assert.Same(t, fresh, all[len(all)-1])
		return nil
	}))
	require.NoError(t, reopened.Close(ctx))
}

func TestOpenRejectsTamperedDocuments(t *testing.T) {
	ctx := context.Background()
	space := memory.NewSpace()
	s, err := Create(ctx, space.Backend("ws"))
	require.NoError(t, err)
	buildFixture(t, s)
	require.NoError(t, s.Close(ctx))
	valid, err := space.Backend("ws").Load(ctx)
	require.NoError(t, err)

	tampers := map[string]func(string) string{
		"asymmetric link": func(doc string) string {
			return regexp.MustCompile(`(?m)^\s*<Link Name="Accounts"[^\n]*\n`).ReplaceAllString(doc, "")
		},
		"truncated": func(doc string) string { return doc[:len(doc)/2] },
		"format version": func(doc string) string {
			return strings.Replace(doc, `FormatVersion="1"`, `FormatVersion="7"`, 1)
		},
		"unknown element": func(doc string) string {
			return strings.Replace(doc, "<User ", "<Person ", 1)
		},
		"unknown attribute": func(doc string) string {
			return strings.Replace(doc, `RealName="Alice"`, `RealName="Alice" Nickname="Al"`, 1)
		},
		"invalid property": func(doc string) string {
			return strings.Replace(doc, `RealName="Alice"`, `RealName=""`, 1)
		},
		"bad boolean": func(doc string) string {
			return strings.Replace(doc, `Enabled="Y"`, `Enabled="yes"`, 1)
		},
		"duplicate login": func(doc string) string {
			return strings.Replace(doc, `Login="bob"`, `Login="alice"`, 1)
		},
	}

	for name, tamper := range tampers {
		t.Run(name, func(t *testing.T) {
			doc := tamper(string(valid))
			require.NotEqual(t, string(valid), doc)
			target := memory.NewSpace().Backend("bad")
			require.NoError(t, target.Save(ctx, []byte(doc)))
			opened, err := Open(ctx, target, WithDescription("Memory", "bad"))
			requireKind(t, err, domain.KindStoreCorrupt)
			assert.Nil(t, opened)
			var cerr *Error
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, "Memory", cerr.StoreType)
			assert.Equal(t, "bad", cerr.Location)
		})
	}
}

func TestCreateAndOpenProbeTheBackend(t *testing.T) {
	ctx := context.Background()
	space := memory.NewSpace()
	_, err := Open(ctx, space.Backend("missing"))
	requireKind(t, err, domain.KindDoesNotExist)

	s, err := Create(ctx, space.Backend("ws"))
	require.NoError(t, err)
	require.NoError(t, s.Close(ctx))
	_, err = Create(ctx, space.Backend("ws"))
	requireKind(t, err, domain.KindAlreadyExists)

	empty, err := Open(ctx, space.Backend("ws"))
	require.NoError(t, err)
	require.NoError(t, empty.View(func(tx *Tx) error {
		all, err := tx.Objects()
		require.NoError(t, err)
		assert.Empty(t, all)
		return nil
	}))
	require.NoError(t, empty.Close(ctx))
}

func TestCloseSavesPendingChanges(t *testing.T) {
	ctx := context.Background()
	space := memory.NewSpace()
	s, err := Create(ctx, space.Backend("ws"))
	require.NoError(t, err)
	mustUpdate(t, s, func(tx *Tx) error {
		_, err := tx.CreateUser(UserFields{RealName: "Alice"})
		return err
	})
	require.NoError(t, s.Close(ctx))
	doc, err := space.Backend("ws").Load(ctx)
	require.NoError(t, err)
	assert.Contains(t, string(doc), `RealName="Alice"`)
}
