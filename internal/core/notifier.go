package core

import (
	"sync"

	"timetracker/pkg/domain"
)

// ChangeEvent reports that an object was created, modified or destroyed.
type ChangeEvent struct {
	Store  *Store
	Change domain.ChangeKind
	Entity domain.EntityKind
	Oid    domain.Oid
}

// Listener receives change events after the store lock has been released.
type Listener func(ChangeEvent)

// notifier is a FIFO queue filled under the store lock and drained after it
// is released. Only one goroutine dispatches at a time, which keeps
// delivery in posting order across callers.
type notifier struct {
	mu        sync.Mutex
	queue     []ChangeEvent
	listeners []listenerEntry
	nextID    int

	dispatching sync.Mutex
}

type listenerEntry struct {
	id int
	fn Listener
}

func newNotifier() *notifier { return &notifier{} }

func (n *notifier) post(e ChangeEvent) {
	n.mu.Lock()
	n.queue = append(n.queue, e)
	n.mu.Unlock()
}

func (n *notifier) drain() []ChangeEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := n.queue
	n.queue = nil
	return out
}

func (n *notifier) pop() (ChangeEvent, []listenerEntry, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.queue) == 0 {
		return ChangeEvent{}, nil, false
	}
	e := n.queue[0]
	n.queue = n.queue[1:]
	return e, append([]listenerEntry(nil), n.listeners...), true
}

func (n *notifier) pending() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.queue) > 0
}

// flush delivers queued events. A listener that re-enters the store from
// inside a callback finds the dispatcher busy and leaves its events to it.
func (n *notifier) flush() {
	for {
		if !n.dispatching.TryLock() {
			return
		}
		for {
			e, listeners, ok := n.pop()
			if !ok {
				break
			}
			for _, l := range listeners {
				l.fn(e)
			}
		}
		n.dispatching.Unlock()
		if !n.pending() {
			return
		}
	}
}

func (n *notifier) subscribe(fn Listener) func() {
	if fn == nil {
		return func() {}
	}
	n.mu.Lock()
	n.nextID++
	id := n.nextID
	n.listeners = append(n.listeners, listenerEntry{id: id, fn: fn})
	n.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			for i, l := range n.listeners {
				if l.id == id {
					n.listeners = append(n.listeners[:i:i], n.listeners[i+1:]...)
					return
				}
			}
		})
	}
}
