package s3

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timetracker/internal/blob/core"
)

func TestDigestTravelsAsMetadata(t *testing.T) {
	ctx := context.Background()
	s := NewMock()
	assert.Equal(t, "mock-bucket", s.Bucket())

	_, err := s.Put(ctx, "ws/doc.xml", strings.NewReader("<doc/>"), core.PutOptions{ContentType: "application/xml"})
	require.NoError(t, err)

	info, err := s.Head(ctx, "ws/doc.xml")
	require.NoError(t, err)
	assert.Equal(t, core.Digest([]byte("<doc/>")), info.Digest)
	assert.Nil(t, info.Metadata)
	assert.False(t, info.Modified.IsZero())
}

func TestNewRequiresBucket(t *testing.T) {
	_, err := New(context.Background(), Config{})
	require.ErrorContains(t, err, "bucket")
}
