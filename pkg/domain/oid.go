package domain

import (
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Oid identifies an object within one store. The zero value is InvalidOid.
type Oid struct {
	id ulid.ULID
}

// InvalidOid is the reserved sentinel that never identifies an object.
var InvalidOid = Oid{}

// ParseOid decodes the token produced by Oid.String.
func ParseOid(token string) (Oid, error) {
	id, err := ulid.ParseStrict(token)
	if err != nil {
		return InvalidOid, fmt.Errorf("parse oid %q: %w", token, err)
	}
	if id == (ulid.ULID{}) {
		return InvalidOid, fmt.Errorf("parse oid %q: reserved invalid oid", token)
	}
	return Oid{id: id}, nil
}

// IsValid reports whether the oid is not the InvalidOid sentinel.
func (o Oid) IsValid() bool { return o != InvalidOid }

// Compare orders oids by generation order.
func (o Oid) Compare(other Oid) int { return o.id.Compare(other.id) }

// Less reports whether o sorts before other.
func (o Oid) Less(other Oid) bool { return o.Compare(other) < 0 }

func (o Oid) String() string {
	if !o.IsValid() {
		return "invalid"
	}
	return o.id.String()
}

// OidGenerator hands out strictly increasing oids. It is safe for concurrent use.
type OidGenerator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
	lastMS  uint64
	last    ulid.ULID
}

// NewOidGenerator constructs a generator seeded from crypto/rand.
func NewOidGenerator() *OidGenerator {
	return &OidGenerator{entropy: ulid.Monotonic(rand.Reader, 0)}
}

// Next returns an oid greater than every oid previously returned or observed.
func (g *OidGenerator) Next(now time.Time) Oid {
	g.mu.Lock()
	defer g.mu.Unlock()
	ms := ulid.Timestamp(now)
	if ms < g.lastMS {
		ms = g.lastMS
	}
	for {
		id, err := ulid.New(ms, g.entropy)
		if err != nil {
			// entropy overflow within one millisecond
			ms++
			continue
		}
		if id.Compare(g.last) <= 0 {
			ms++
			continue
		}
		g.lastMS = ms
		g.last = id
		return Oid{id: id}
	}
}

// Observe records an oid loaded from elsewhere so Next never reissues it.
func (g *OidGenerator) Observe(o Oid) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if o.id.Compare(g.last) > 0 {
		g.last = o.id
		if ms := o.id.Time(); ms > g.lastMS {
			g.lastMS = ms
		}
	}
}
