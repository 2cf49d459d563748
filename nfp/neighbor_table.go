package nfp

import (
	"sync"
	"time"

	"github.com/parc-ccnx-archive/ccnfwd/conn"
	"github.com/parc-ccnx-archive/ccnfwd/pkt"
)

// NeighborTable maps (router name, connection) adjacencies to their
// Neighbor hello state.
type NeighborTable struct {
	mu        sync.Mutex
	neighbors map[uint64]*Neighbor
	timeout   time.Duration
	onChange  StateChangeCallback
}

// String identifies the table for logging.
func (t *NeighborTable) String() string { return "nfp-neighbors" }

// NewNeighborTable constructs an empty neighbor table.
func NewNeighborTable(timeout time.Duration, onChange StateChangeCallback) *NeighborTable {
	return &NeighborTable{
		neighbors: make(map[uint64]*Neighbor),
		timeout:   timeout,
		onChange:  onChange,
	}
}

func key(name pkt.Name, c *conn.Connection) uint64 {
	return name.Hash()*1099511628211 ^ uint64(c.ID())
}

// Get returns the neighbor for (name, c), or nil.
func (t *NeighborTable) Get(name pkt.Name, c *conn.Connection) *Neighbor {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.neighbors[key(name, c)]
}

// ReceiveHello updates (creating if absent) the neighbor for (name, c)
// with an incoming hello sequence number. Returns
// the neighbor and whether the hello was in order (a not-in-order hello
// on a freshly created neighbor is impossible — creation always accepts
// the first hello).
func (t *NeighborTable) ReceiveHello(name pkt.Name, c *conn.Connection, seqnum uint16) (*Neighbor, bool) {
	t.mu.Lock()
	k := key(name, c)
	n, ok := t.neighbors[k]
	if !ok {
		n = NewNeighbor(name, c, seqnum, t.timeout, t.onChange)
		t.neighbors[k] = n
		t.mu.Unlock()
		return n, true
	}
	t.mu.Unlock()

	before := n.Seqnum()
	n.ReceiveHello(seqnum)
	return n, seqGreater16(seqnum, before)
}

// CheckExpiry runs every neighbor's timer-driven transition and deletes
// any that become Dead.
func (t *NeighborTable) CheckExpiry(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for k, n := range t.neighbors {
		if n.CheckExpiry(now) {
			delete(t.neighbors, k)
		}
	}
}

// Size returns the number of known neighbors (any state).
func (t *NeighborTable) Size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.neighbors)
}

// All returns a snapshot of every neighbor, for mgmt introspection.
func (t *NeighborTable) All() []*Neighbor {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*Neighbor, 0, len(t.neighbors))
	for _, n := range t.neighbors {
		out = append(out, n)
	}
	return out
}
