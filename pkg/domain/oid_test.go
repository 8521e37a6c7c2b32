package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOidGeneratorIsMonotonic(t *testing.T) {
	g := NewOidGenerator()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	prev := g.Next(now)
	require.True(t, prev.IsValid())
	for i := 0; i < 1000; i++ {
		// A clock running backwards must not break ordering.
		next := g.Next(now.Add(-time.Duration(i) * time.Millisecond))
		require.True(t, prev.Less(next), "oid %d not increasing", i)
		prev = next
	}
}

func TestOidObserveSkipsLoadedOids(t *testing.T) {
	loaded := NewOidGenerator().Next(time.Now().Add(time.Hour))
	g := NewOidGenerator()
	g.Observe(loaded)
	assert.True(t, loaded.Less(g.Next(time.Now())))
}

func TestParseOid(t *testing.T) {
	oid := NewOidGenerator().Next(time.Now())
	parsed, err := ParseOid(oid.String())
	require.NoError(t, err)
	assert.Equal(t, oid, parsed)
	assert.Zero(t, oid.Compare(parsed))

	_, err = ParseOid("00000000000000000000000000")
	require.Error(t, err)
	_, err = ParseOid("not-an-oid")
	require.Error(t, err)
	assert.Equal(t, "invalid", InvalidOid.String())
	assert.False(t, InvalidOid.IsValid())
}
