// Package table implements the three forwarding-plane tables: the FIB,
// the PIT, and the Content Store. All three are asynchronous with
// respect to a per-table delay queue: every lookup/update enqueues a
// work item and completes via a callback.
package table

import (
	"sync"
	"time"

	"github.com/parc-ccnx-archive/ccnfwd/config"
	"github.com/parc-ccnx-archive/ccnfwd/conn"
	"github.com/parc-ccnx-archive/ccnfwd/pkt"
	"github.com/parc-ccnx-archive/ccnfwd/queue"
)

// fibEntry is the set of connections installed for one exact name
// prefix. The FIB never stores an empty entry: removing the
// last connection deletes it.
type fibEntry struct {
	conns *conn.ConnectionList
}

// Fib is the Forwarding Information Base: an exact-match map from Name
// to a set of next-hop Connections, with longest-prefix-match lookup
// performed by successively probing longer prefixes.
type Fib struct {
	mu      sync.Mutex // route writers (mgmt, NFP) vs the lookup queue's timer
	entries map[uint64]*fibEntry
	names   map[uint64]pkt.Name // for diagnostics/mgmt listing
	queue   *queue.DelayQueue[fibLookupItem]
	cfg     config.FibConfig
}

type fibLookupItem struct {
	name     pkt.Name
	ingress  *conn.Connection
	callback func(egress *conn.ConnectionList)
}

// String identifies the FIB for logging, matching the
// convention of naming every stateful component.
func (f *Fib) String() string { return "fib" }

// NewFib constructs an empty FIB using the given delay configuration.
func NewFib(cfg config.FibConfig) *Fib {
	f := &Fib{
		entries: make(map[uint64]*fibEntry),
		names:   make(map[uint64]pkt.Name),
		cfg:     cfg,
	}
	f.queue = queue.New(cfg.Delay.Servers, f.serviceTime, f.doLookup)
	return f
}

// serviceTime implements the affine delay model: constant +
// slope*nameComponents.
func (f *Fib) serviceTime(item fibLookupItem) time.Duration {
	return durationFor(f.cfg.Delay, item.name.NComponents())
}

// AddRoute installs connection c as a next hop for the exact prefix
// name. Refuses the localhost sentinel (the AddRoute contract
// lives on the Forwarder, but the FIB itself enforces the same
// invariant so direct callers can't bypass it).
func (f *Fib) AddRoute(name pkt.Name, c *conn.Connection) {
	if c.IsLocalhost() {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	h := name.Hash()
	e, ok := f.entries[h]
	if !ok {
		e = &fibEntry{conns: conn.NewConnectionList()}
		f.entries[h] = e
		f.names[h] = name
	}
	if e.conns.Add(c) {
		readvertiseAnnounce(name, c)
	}
}

// RemoveRoute removes connection c from the exact prefix name. If that
// was the entry's last connection, the entry is deleted (the FIB
// invariant: no entry is ever empty).
func (f *Fib) RemoveRoute(name pkt.Name, c *conn.Connection) {
	f.mu.Lock()
	defer f.mu.Unlock()

	h := name.Hash()
	e, ok := f.entries[h]
	if !ok {
		return
	}
	if e.conns.Remove(c) {
		readvertiseWithdraw(name, c)
	}
	if e.conns.IsEmpty() {
		delete(f.entries, h)
		delete(f.names, h)
	}
}

// RemoveConnection removes c from every FIB entry, deleting any entry
// left empty.
func (f *Fib) RemoveConnection(c *conn.Connection) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for h, e := range f.entries {
		if e.conns.Remove(c) {
			readvertiseWithdraw(f.names[h], c)
		}
		if e.conns.IsEmpty() {
			delete(f.entries, h)
			delete(f.names, h)
		}
	}
}

// Lookup asynchronously resolves the longest-prefix match for name,
// split-horizoned against ingress, invoking callback with the result
// (possibly empty; "no route" is not an error).
func (f *Fib) Lookup(name pkt.Name, ingress *conn.Connection, callback func(egress *conn.ConnectionList)) {
	f.queue.PushBack(fibLookupItem{name: name, ingress: ingress, callback: callback})
}

// doLookup runs longest-prefix match: starting from the first
// segment, successively probe longer prefixes of name; the last
// successful exact-match probe wins.
func (f *Fib) doLookup(item fibLookupItem) {
	f.mu.Lock()
	var winner *fibEntry
	probe := make(pkt.Name, 0, len(item.name))
	for _, c := range item.name {
		probe = append(probe, c)
		if e, ok := f.entries[probe.Hash()]; ok {
			winner = e
		}
	}

	egress := conn.NewConnectionList()
	if winner != nil {
		for _, c := range winner.conns.Slice() {
			if item.ingress != nil && c.Equal(item.ingress) {
				continue // split horizon
			}
			egress.Add(c)
		}
	}
	f.mu.Unlock()
	item.callback(egress)
}

// Size returns the number of distinct prefixes installed, for mgmt
// introspection.
func (f *Fib) Size() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

// Entries returns a snapshot of every (name, connections) pair, for
// mgmt's /fib/list endpoint.
func (f *Fib) Entries() map[string]*conn.ConnectionList {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make(map[string]*conn.ConnectionList, len(f.entries))
	for h, e := range f.entries {
		out[f.names[h].String()] = e.conns.Clone()
	}
	return out
}
