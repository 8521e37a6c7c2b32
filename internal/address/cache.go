package address

import (
	"sync"

	"github.com/rs/zerolog"
)

// State is the lifecycle state of a cached address.
type State int

const (
	// New addresses have never been referenced and may be pruned.
	New State = iota
	// Managed addresses have at least one holder.
	Managed
	// Old addresses lost their last holder and may be pruned.
	Old
)

func (s State) String() string {
	switch s {
	case New:
		return "New"
	case Managed:
		return "Managed"
	case Old:
		return "Old"
	default:
		return "Unknown"
	}
}

// Address is a cached, reference-counted location handle. Identity is
// stable for as long as the entry stays in its cache.
type Address struct {
	cache *Cache
	ref   Ref
	state State
	refs  int
}

// Ref returns the location the address stands for.
func (a *Address) Ref() Ref { return a.ref }

// Type returns the store type mnemonic.
func (a *Address) Type() string { return a.ref.Type }

// Location returns the normalized location.
func (a *Address) Location() string { return a.ref.Location }

// State returns New, Managed or Old.
func (a *Address) State() State {
	a.cache.mu.Lock()
	defer a.cache.mu.Unlock()
	return a.state
}

// ReferenceCount returns the number of holders.
func (a *Address) ReferenceCount() int {
	a.cache.mu.Lock()
	defer a.cache.mu.Unlock()
	return a.refs
}

func (a *Address) String() string { return Encode(a.ref) }

// Cache hands out one Address per distinct location.
type Cache struct {
	mu      sync.Mutex
	entries map[Ref]*Address
	log     zerolog.Logger
}

// NewCache returns an empty cache. Pruning is logged at debug level.
func NewCache(logger zerolog.Logger) *Cache {
	return &Cache{entries: make(map[Ref]*Address), log: logger}
}

// Address returns the cached entry for r without holding it, inserting a
// New one when absent. Inserting prunes every entry nobody holds, so a New
// entry lives only until the next insert unless Resolve takes it.
func (c *Cache) Address(r Ref) (*Address, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lookupLocked(r), nil
}

// Resolve returns the entry for r holding a reference to it. Callers
// balance it with Release.
func (c *Cache) Resolve(r Ref) (*Address, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	a := c.lookupLocked(r)
	a.refs++
	a.state = Managed
	return a, nil
}

func (c *Cache) lookupLocked(r Ref) *Address {
	if a, ok := c.entries[r]; ok {
		return a
	}
	c.pruneLocked()
	a := &Address{cache: c, ref: r, state: New}
	c.entries[r] = a
	return a
}

func (c *Cache) pruneLocked() {
	for r, a := range c.entries {
		if a.refs == 0 {
			delete(c.entries, r)
			c.log.Debug().Str("type", r.Type).Str("location", r.Location).Msg("address pruned")
		}
	}
}

// Release drops one reference taken by Resolve. An address without holders
// becomes Old and is pruned on a later insert.
func (c *Cache) Release(a *Address) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if a.refs == 0 {
		return
	}
	a.refs--
	if a.refs == 0 {
		a.state = Old
	}
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
