package blob

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	infraS3 "timetracker/internal/infra/blob/s3"
)

func drivers(t *testing.T) map[string]Store {
	t.Helper()
	ctx := context.Background()
	fsStore, err := Open(ctx, Config{Driver: DriverFilesystem, FSRoot: filepath.Join(t.TempDir(), "blobs")})
	require.NoError(t, err)
	memStore, err := Open(ctx, Config{Driver: DriverMemory})
	require.NoError(t, err)
	return map[string]Store{
		"fs":     fsStore,
		"memory": memStore,
		"s3":     infraS3.NewMock(),
	}
}

func readAll(t *testing.T, s Store, key string) (Info, string) {
	t.Helper()
	info, rc, err := s.Get(context.Background(), key)
	require.NoError(t, err)
	defer func() { _ = rc.Close() }()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	return info, string(body)
}

func TestDriversAgree(t *testing.T) {
	for name, s := range drivers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			meta := map[string]string{"owner": "ops"}
			_, err := s.Put(ctx, "teams/a.xml", strings.NewReader("<v1/>"), PutOptions{ContentType: "application/xml", Metadata: meta})
			require.NoError(t, err)
			meta["owner"] = "changed"

			put, err := s.Put(ctx, "teams/a.xml", strings.NewReader("<v2/>"), PutOptions{ContentType: "application/xml", Metadata: map[string]string{"owner": "ops"}})
			require.NoError(t, err)
			assert.Equal(t, "teams/a.xml", put.Key)
			assert.Equal(t, int64(5), put.Size)
			assert.Equal(t, Digest([]byte("<v2/>")), put.Digest)

			got, body := readAll(t, s, "teams/a.xml")
			assert.Equal(t, "<v2/>", body)
			assert.Equal(t, put.Digest, got.Digest)
			assert.Equal(t, map[string]string{"owner": "ops"}, got.Metadata)

			head, err := s.Head(ctx, "./teams//a.xml")
			require.NoError(t, err)
			assert.Equal(t, "application/xml", head.ContentType)
			assert.Equal(t, put.Digest, head.Digest)

			_, err = s.Put(ctx, "teams/b.xml", strings.NewReader("<b/>"), PutOptions{})
			require.NoError(t, err)
			_, err = s.Put(ctx, "solo.xml", strings.NewReader("<s/>"), PutOptions{})
			require.NoError(t, err)
			list, err := s.List(ctx, "teams/")
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, "teams/a.xml", list[0].Key)
			assert.Equal(t, "teams/b.xml", list[1].Key)
			assert.Equal(t, Digest([]byte("<b/>")), list[1].Digest)
		})
	}
}

func TestDriversRejectMissingAndInvalidKeys(t *testing.T) {
	for name, s := range drivers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_, _, err := s.Get(ctx, "absent.xml")
			require.ErrorIs(t, err, ErrNotFound)
			_, err = s.Head(ctx, "absent.xml")
			require.ErrorIs(t, err, ErrNotFound)
			for _, key := range []string{"", "  ", "/etc/passwd", "../escape", "a/../../b"} {
				_, err := s.Put(ctx, key, strings.NewReader("x"), PutOptions{})
				assert.ErrorIs(t, err, ErrInvalidKey, "key %q", key)
			}
		})
	}
}

func TestCheckKeyCleans(t *testing.T) {
	key, err := CheckKey(`teams\a\..\b.xml`)
	require.NoError(t, err)
	assert.Equal(t, "teams/b.xml", key)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, Config{FSRoot: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, DriverFilesystem, s.Driver())

	_, err = Open(ctx, Config{Driver: "tape"})
	require.ErrorContains(t, err, "tape")
	_, err = Open(ctx, Config{Driver: DriverS3})
	require.ErrorContains(t, err, "bucket")
}
