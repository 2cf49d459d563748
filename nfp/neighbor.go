package nfp

import (
	"sync"
	"time"

	"github.com/parc-ccnx-archive/ccnfwd/conn"
	"github.com/parc-ccnx-archive/ccnfwd/log"
	"github.com/parc-ccnx-archive/ccnfwd/pkt"
)

// NeighborState is the three-state hello aging machine.
type NeighborState int

const (
	NeighborUp NeighborState = iota
	NeighborDown
	NeighborDead
)

func (s NeighborState) String() string {
	switch s {
	case NeighborUp:
		return "up"
	case NeighborDown:
		return "down"
	default:
		return "dead"
	}
}

// StateChangeCallback is invoked on every Up<->Down<->Dead transition.
// It never fires for the initial INIT->Up construction.
type StateChangeCallback func(n *Neighbor, old, new_ NeighborState)

// Neighbor is one (Name, Connection) adjacency's hello state.
// Timer-driven transitions are owned by the caller's scheduler:
// CheckExpiry must be invoked periodically (or via time.AfterFunc, as
// RoutingProtocol does) for Up->Down and Down->Dead to fire.
type Neighbor struct {
	mu sync.Mutex

	Name *pkt.Name
	Conn *conn.Connection

	seqnum   uint16
	expiry   time.Time
	state    NeighborState
	timeout  time.Duration
	onChange StateChangeCallback
}

// String identifies the neighbor for logging.
func (n *Neighbor) String() string { return "nfp-neighbor" }

// NewNeighbor constructs a Neighbor in the Up state from a first in-order
// hello (the initial transition to Up never fires a callback).
func NewNeighbor(name pkt.Name, c *conn.Connection, seqnum uint16, timeout time.Duration, onChange StateChangeCallback) *Neighbor {
	return &Neighbor{
		Name:     &name,
		Conn:     c,
		seqnum:   seqnum,
		expiry:   time.Now().Add(timeout),
		state:    NeighborUp,
		timeout:  timeout,
		onChange: onChange,
	}
}

// State returns the neighbor's current state.
func (n *Neighbor) State() NeighborState {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// Seqnum returns the last accepted hello sequence number.
func (n *Neighbor) Seqnum() uint16 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.seqnum
}

// ReceiveHello processes an incoming hello with the given message
// sequence number. An out-of-order hello is ignored entirely; callers
// drop the sender's whole payload before getting here, but the guard
// exists for direct callers and tests too. In-order hellos extend
// expiry and move Down->Up.
func (n *Neighbor) ReceiveHello(seqnum uint16) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !seqGreater16(seqnum, n.seqnum) {
		return
	}
	n.seqnum = seqnum
	n.expiry = time.Now().Add(n.timeout)

	if n.state != NeighborUp {
		old := n.state
		n.state = NeighborUp
		n.fire(old, NeighborUp)
	}
}

// CheckExpiry runs the timer-driven transitions: Up->Down on first
// expiry, Down->Dead on a second expiry with no intervening hello.
// Returns true if the neighbor is now Dead and should be deleted by the
// owning table.
func (n *Neighbor) CheckExpiry(now time.Time) (dead bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if now.Before(n.expiry) {
		return false
	}

	switch n.state {
	case NeighborUp:
		n.state = NeighborDown
		n.expiry = now.Add(n.timeout)
		n.fire(NeighborUp, NeighborDown)
		return false
	case NeighborDown:
		n.state = NeighborDead
		n.fire(NeighborDown, NeighborDead)
		return true
	default:
		return true
	}
}

// fire invokes the state-change callback with n.mu still held, so
// onChange must not call back into this Neighbor. The mutex exists only
// so CheckExpiry's timer and ReceiveHello's packet-driven path can't
// race each other.
func (n *Neighbor) fire(old, new_ NeighborState) {
	if n.onChange != nil {
		n.onChange(n, old, new_)
	}
	log.Trace(n, "state change", "name", n.Name.String(), "from", old, "to", new_)
}
