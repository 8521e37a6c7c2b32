package badger

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timetracker/internal/infra/persistence"
)

func TestBackendPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	b, err := New(dir, "")
	require.NoError(t, err)
	_, err = b.Load(ctx)
	require.ErrorIs(t, err, persistence.ErrNoDocument)
	require.NoError(t, b.Save(ctx, []byte("<Workspace/>")))
	require.NoError(t, b.Close())

	reopened, err := New(dir, DefaultDocument)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()
	got, err := reopened.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "<Workspace/>", string(got))
}

func TestInMemoryBackendWithLogger(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	b, err := New("", "alpha", InMemory(), WithLogger(zerolog.New(&buf)))
	require.NoError(t, err)
	defer func() { _ = b.Close() }()

	require.NoError(t, b.Save(ctx, []byte("a")))
	got, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", string(got))
}

func TestNewRequiresDirectory(t *testing.T) {
	_, err := New("", "x")
	require.Error(t, err)
}
