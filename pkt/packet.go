package pkt

import "sync/atomic"

// PacketType discriminates the three wire packet kinds.
type PacketType uint8

const (
	TypeInterest       PacketType = 1
	TypeContentObject  PacketType = 2
	TypeInterestReturn PacketType = 3
)

// FixedHeader is the 8-byte header common to every packet.
type FixedHeader struct {
	Version      uint8
	Type         PacketType
	TotalLength  uint16
	HopLimit     uint8
	ReturnCode   uint8
	HeaderLength uint8
}

// Interest carries a Name and two optional match restrictions.
type Interest struct {
	Header                       FixedHeader
	Name                         Name
	KeyIdRestriction             *HashValue
	ContentObjectHashRestriction *HashValue
	// Lifetime is the interest lifetime from its per-hop header, if any.
	// Zero means "not present" (the PIT falls back to its configured
	// default lifetime).
	Lifetime uint32 // milliseconds
}

// ContentObject carries a Name, its KeyId, and its computed hash.
type ContentObject struct {
	Header FixedHeader
	Name   Name
	KeyId  *HashValue
	Hash   HashValue
	// Payload is opaque application content; the forwarder never
	// inspects it.
	Payload []byte
}

// InterestReturn mirrors an Interest that could not be forwarded
// further upstream. The forwarder core only ever drops these; the type
// exists so callers can recognize and count them.
type InterestReturn struct {
	Header FixedHeader
	Name   Name
}

// Packet is the discriminated union routed through the forwarding
// pipeline. Exactly one of the three fields is non-nil.
//
// Packets are shared by reference once admitted to the PIT or Content
// Store: a Packet value is an immutable view onto a refcounted
// handle, cheap to copy, and must never be mutated after construction.
type Packet struct {
	ref *packetRef
}

type packetRef struct {
	refs          atomic.Int32
	interest      *Interest
	contentObject *ContentObject
	ret           *InterestReturn
}

// NewInterestPacket wraps an Interest as a shared Packet with one
// reference held by the caller.
func NewInterestPacket(i *Interest) Packet {
	r := &packetRef{interest: i}
	r.refs.Store(1)
	return Packet{ref: r}
}

// NewContentObjectPacket wraps a ContentObject as a shared Packet with
// one reference held by the caller.
func NewContentObjectPacket(co *ContentObject) Packet {
	r := &packetRef{contentObject: co}
	r.refs.Store(1)
	return Packet{ref: r}
}

// NewInterestReturnPacket wraps an InterestReturn as a shared Packet.
func NewInterestReturnPacket(ir *InterestReturn) Packet {
	r := &packetRef{ret: ir}
	r.refs.Store(1)
	return Packet{ref: r}
}

// Type reports which of the three kinds this packet is.
func (p Packet) Type() PacketType {
	switch {
	case p.ref.interest != nil:
		return TypeInterest
	case p.ref.contentObject != nil:
		return TypeContentObject
	default:
		return TypeInterestReturn
	}
}

// Interest returns the wrapped Interest, or nil if this packet is not one.
func (p Packet) Interest() *Interest { return p.ref.interest }

// ContentObject returns the wrapped ContentObject, or nil if this packet
// is not one.
func (p Packet) ContentObject() *ContentObject { return p.ref.contentObject }

// InterestReturn returns the wrapped InterestReturn, or nil if this
// packet is not one.
func (p Packet) InterestReturn() *InterestReturn { return p.ref.ret }

// Name returns the packet's name, regardless of its concrete type.
func (p Packet) Name() Name {
	switch {
	case p.ref.interest != nil:
		return p.ref.interest.Name
	case p.ref.contentObject != nil:
		return p.ref.contentObject.Name
	default:
		return p.ref.ret.Name
	}
}

// ByteLength approximates the on-wire size used for the forwarder's
// packet-proportional service time: header plus name plus
// payload, which is all this core model needs to be representative.
func (p Packet) ByteLength() int {
	n := 8 + p.Name().ByteLength()
	if co := p.ref.contentObject; co != nil {
		n += len(co.Payload)
	}
	return n
}

// Retain adds a reference to the shared packet, returning the same
// logical packet. The Forwarder retains each packet for the length of
// its pipeline pass; the PIT and Content Store keep the wrapped
// *Interest / *ContentObject rather than the Packet and do not call it.
func (p Packet) Retain() Packet {
	p.ref.refs.Add(1)
	return p
}

// Release drops a reference. The underlying packet is only a Go value
// (garbage collected, not pooled), so Release exists for symmetry with
// Retain and to make ownership transfers explicit and auditable; it
// does not free anything itself.
func (p Packet) Release() {
	p.ref.refs.Add(-1)
}

// RefCount reports the current number of live references, for tests.
func (p Packet) RefCount() int32 {
	return p.ref.refs.Load()
}
