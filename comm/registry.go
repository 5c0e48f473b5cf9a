package comm

import (
	"sync"

	"github.com/relaylink/commlink/receiver"
)

// registry is the comm package's receiver.Registry: a command-id keyed
// map of subscribers, mutated by Subscribe and read by the receive loop.
// Grounded on CommHandle.hpp's subscribers map, with the SubscriberBase
// virtual-dispatch erasure replaced by receiver.Subscriber's plain
// struct (see MODULE 9's type-erasure re-architecture note).
//
// spec.md §5 documents the registry as written only before a receive
// session starts; this RWMutex is the conforming implementation's
// optional extra guard for callers who mutate it concurrently anyway.
type registry struct {
	mu   sync.RWMutex
	subs map[uint16]receiver.Subscriber
}

func newRegistry() *registry {
	return &registry{subs: make(map[uint16]receiver.Subscriber)}
}

func (r *registry) set(cmd uint16, sub receiver.Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs[cmd] = sub
}

func (r *registry) Lookup(cmd uint16) (receiver.Subscriber, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sub, ok := r.subs[cmd]
	return sub, ok
}

var _ receiver.Registry = (*registry)(nil)
