package blobdoc

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timetracker/internal/blob"
	"timetracker/internal/infra/blob/fs"
	"timetracker/internal/infra/blob/memory"
	"timetracker/internal/infra/blob/s3"
	"timetracker/internal/infra/persistence"
)

func TestBackendAcrossDrivers(t *testing.T) {
	fsStore, err := fs.New(t.TempDir())
	require.NoError(t, err)
	stores := map[string]blob.Store{
		"memory": memory.New(),
		"fs":     fsStore,
		"s3":     s3.NewMock(),
	}
	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			b, err := New(store, "workspaces/main.xml")
			require.NoError(t, err)

			_, err = b.Load(ctx)
			require.ErrorIs(t, err, persistence.ErrNoDocument)

			require.NoError(t, b.Save(ctx, []byte("<Workspace/>")))
			require.NoError(t, b.Save(ctx, []byte("<Workspace FormatVersion=\"1\"/>")))
			doc, err := b.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, `<Workspace FormatVersion="1"/>`, string(doc))

			info, err := store.Head(ctx, b.Key())
			require.NoError(t, err)
			assert.Equal(t, ContentType, info.ContentType)
			require.NoError(t, b.Close())
		})
	}
}

func TestNewRejectsBadArguments(t *testing.T) {
	_, err := New(nil, "k")
	require.Error(t, err)
	_, err = New(memory.New(), "")
	require.Error(t, err)
}

type countingStore struct {
	blob.Store
	puts int
}

func (c *countingStore) Put(ctx context.Context, key string, r io.Reader, opts blob.PutOptions) (blob.Info, error) {
	c.puts++
	return c.Store.Put(ctx, key, r, opts)
}

func TestSaveSkipsUnchangedDocument(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{Store: memory.New()}
	b, err := New(store, "ws.xml")
	require.NoError(t, err)

	require.NoError(t, b.Save(ctx, []byte("<Workspace/>")))
	require.NoError(t, b.Save(ctx, []byte("<Workspace/>")))
	assert.Equal(t, 1, store.puts)
	require.NoError(t, b.Save(ctx, []byte("<Workspace FormatVersion=\"1\"/>")))
	assert.Equal(t, 2, store.puts)
}

func TestDocumentsListsOnlyWorkspaces(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	for _, key := range []string{"team/b.xml", "team/a.xml"} {
		b, err := New(store, key)
		require.NoError(t, err)
		require.NoError(t, b.Save(ctx, []byte("<Workspace/>")))
	}
	_, err := store.Put(ctx, "team/notes.txt", strings.NewReader("hi"), blob.PutOptions{ContentType: "text/plain"})
	require.NoError(t, err)

	keys, err := Documents(ctx, store, "team/")
	require.NoError(t, err)
	assert.Equal(t, []string{"team/a.xml", "team/b.xml"}, keys)
}
