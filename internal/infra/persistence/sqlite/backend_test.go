package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timetracker/internal/infra/persistence"
)

func TestBackendPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tt.db")

	b, err := New(ctx, path, "")
	require.NoError(t, err)
	_, err = b.Load(ctx)
	require.ErrorIs(t, err, persistence.ErrNoDocument)
	require.NoError(t, b.Save(ctx, []byte("v1")))
	require.NoError(t, b.Save(ctx, []byte("v2")))
	require.NoError(t, b.Close())

	reopened, err := New(ctx, path, DefaultDocument)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()
	got, err := reopened.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "v2", string(got))
	assert.Equal(t, path, reopened.Path())

	var rows int
	require.NoError(t, reopened.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&rows))
	assert.Equal(t, 1, rows)
}

func TestBackendKeepsNamedDocumentsApart(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tt.db")

	alpha, err := New(ctx, path, "alpha")
	require.NoError(t, err)
	defer func() { _ = alpha.Close() }()
	beta, err := New(ctx, path, "beta")
	require.NoError(t, err)
	defer func() { _ = beta.Close() }()

	require.NoError(t, alpha.Save(ctx, []byte("a")))
	_, err = beta.Load(ctx)
	require.ErrorIs(t, err, persistence.ErrNoDocument)
}
