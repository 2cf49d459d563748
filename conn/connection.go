// Package conn implements the Connection/ConnectionList abstraction:
// an opaque, globally unique handle to a peer adjacency,
// shared by the FIB, PIT, Content Store, and Forwarder.
package conn

import "sort"

// LocalhostID is the sentinel connection id that never appears in the
// FIB. It identifies packets originated locally rather than
// received from a peer.
const LocalhostID uint32 = 0

// Connection is an opaque handle to a peer adjacency, identified solely
// by a globally unique 32-bit id. Equality and ordering follow
// the id; everything else about the peer (transport, address) is owned
// by the external collaborator that created it.
type Connection struct {
	id     uint32
	closed bool
}

// NewConnection wraps a connection id. id must be unique across the
// node and must not be LocalhostID unless the caller intends to
// represent local origination.
func NewConnection(id uint32) *Connection {
	return &Connection{id: id}
}

// ID returns the connection's unique id.
func (c *Connection) ID() uint32 { return c.id }

// IsLocalhost reports whether this connection is the localhost sentinel.
func (c *Connection) IsLocalhost() bool { return c.id == LocalhostID }

// Close marks the connection closed. A closed connection remains a
// valid, comparable handle; it is up to table owners to evict it via
// RemoveConnection.
func (c *Connection) Close() { c.closed = true }

// IsOpen reports whether the connection has not been closed.
func (c *Connection) IsOpen() bool { return !c.closed }

// Equal compares connections by id.
func (c *Connection) Equal(rhs *Connection) bool {
	if c == nil || rhs == nil {
		return c == rhs
	}
	return c.id == rhs.id
}

// Compare orders connections by id, for deterministic iteration.
func (c *Connection) Compare(rhs *Connection) int {
	switch {
	case c.id < rhs.id:
		return -1
	case c.id > rhs.id:
		return 1
	default:
		return 0
	}
}

// ConnectionList is an ordered, duplicate-free set of connections, used
// for FIB entries and PIT/Content-Store reverse-route sets and egress
// lists.
type ConnectionList struct {
	byID map[uint32]*Connection
}

// NewConnectionList constructs an empty list.
func NewConnectionList() *ConnectionList {
	return &ConnectionList{byID: make(map[uint32]*Connection)}
}

// Add inserts a connection if not already present. Returns true if it
// was newly added.
func (l *ConnectionList) Add(c *Connection) bool {
	if _, ok := l.byID[c.id]; ok {
		return false
	}
	l.byID[c.id] = c
	return true
}

// Remove deletes a connection by id. Returns true if it was present.
func (l *ConnectionList) Remove(c *Connection) bool {
	if _, ok := l.byID[c.id]; !ok {
		return false
	}
	delete(l.byID, c.id)
	return true
}

// Contains reports whether a connection (by id) is in the list.
func (l *ConnectionList) Contains(c *Connection) bool {
	_, ok := l.byID[c.id]
	return ok
}

// Len returns the number of connections in the list.
func (l *ConnectionList) Len() int { return len(l.byID) }

// IsEmpty reports whether the list has no connections.
func (l *ConnectionList) IsEmpty() bool { return len(l.byID) == 0 }

// Slice returns the connections in ascending id order, for deterministic
// iteration and testing.
func (l *ConnectionList) Slice() []*Connection {
	out := make([]*Connection, 0, len(l.byID))
	for _, c := range l.byID {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// Clone returns a shallow copy (same *Connection pointers, new set).
func (l *ConnectionList) Clone() *ConnectionList {
	out := NewConnectionList()
	for id, c := range l.byID {
		out.byID[id] = c
	}
	return out
}

// Union merges rhs into a new list containing every connection from
// both, deduplicated by id.
func (l *ConnectionList) Union(rhs *ConnectionList) *ConnectionList {
	out := l.Clone()
	for id, c := range rhs.byID {
		out.byID[id] = c
	}
	return out
}
