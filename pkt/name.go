// Package pkt implements the wire-level data model shared by the
// forwarding plane and the NFP routing protocol: names, hash values,
// packets, and their codecs.
package pkt

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Component types. Only the handful the forwarding plane and NFP
// payloads actually distinguish are named; any other value round-trips
// through the codec unchanged.
type ComponentType uint8

const (
	ComponentTypeGeneric ComponentType = 0
	ComponentTypeKeyword ComponentType = 1
	ComponentTypeVersion ComponentType = 2
)

// Component is a single opaque, type-tagged name segment.
type Component struct {
	Typ ComponentType
	Val []byte
}

// NewComponent builds a generic-typed component from a string.
func NewComponent(s string) Component {
	return Component{Typ: ComponentTypeGeneric, Val: []byte(s)}
}

// Compare orders components by (type, length, bytes):
// shortest-first, lexicographic within equal length.
func (c Component) Compare(rhs Component) int {
	if c.Typ != rhs.Typ {
		if c.Typ < rhs.Typ {
			return -1
		}
		return 1
	}
	if len(c.Val) != len(rhs.Val) {
		if len(c.Val) < len(rhs.Val) {
			return -1
		}
		return 1
	}
	return bytes.Compare(c.Val, rhs.Val)
}

// Equal reports whether two components have the same type and bytes.
func (c Component) Equal(rhs Component) bool {
	return c.Typ == rhs.Typ && bytes.Equal(c.Val, rhs.Val)
}

// String renders the component in a simple "type=value" alt-URI form,
// using the generic syntax (just the value) for the common case.
func (c Component) String() string {
	if c.Typ == ComponentTypeGeneric {
		return string(c.Val)
	}
	sb := strings.Builder{}
	sb.WriteString(strconv.Itoa(int(c.Typ)))
	sb.WriteRune('=')
	sb.Write(c.Val)
	return sb.String()
}

// Name is an ordered sequence of name segments.
type Name []Component

// NameFromStr parses a "/"-delimited name, e.g. "/foo/bar". An empty or
// root-only string yields an empty Name.
func NameFromStr(s string) Name {
	s = strings.Trim(s, "/")
	if s == "" {
		return Name{}
	}
	parts := strings.Split(s, "/")
	name := make(Name, 0, len(parts))
	for _, p := range parts {
		name = append(name, NewComponent(p))
	}
	return name
}

// String renders the name in "/"-delimited form.
func (n Name) String() string {
	if len(n) == 0 {
		return "/"
	}
	sb := strings.Builder{}
	for _, c := range n {
		sb.WriteRune('/')
		sb.WriteString(c.String())
	}
	return sb.String()
}

// Clone returns a deep copy of the name.
func (n Name) Clone() Name {
	out := make(Name, len(n))
	for i, c := range n {
		out[i] = Component{Typ: c.Typ, Val: append([]byte(nil), c.Val...)}
	}
	return out
}

// Append returns a new name with the given components appended.
func (n Name) Append(comps ...Component) Name {
	out := make(Name, 0, len(n)+len(comps))
	out = append(out, n...)
	out = append(out, comps...)
	return out
}

// Equal reports whether two names have the same segments.
func (n Name) Equal(rhs Name) bool {
	if len(n) != len(rhs) {
		return false
	}
	for i := range n {
		if !n[i].Equal(rhs[i]) {
			return false
		}
	}
	return true
}

// Compare implements the total order over names: segment by segment in
// Component.Compare's (type, length, bytes) order, shortest name wins
// when one is a prefix of the other.
func (n Name) Compare(rhs Name) int {
	for i := 0; i < len(n) && i < len(rhs); i++ {
		if c := n[i].Compare(rhs[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(n) < len(rhs):
		return -1
	case len(n) > len(rhs):
		return 1
	default:
		return 0
	}
}

// IsPrefixOf reports whether n is a prefix of other: other has at least
// as many segments and each of n's segments equals the corresponding
// segment of other.
func (n Name) IsPrefixOf(other Name) bool {
	if len(n) > len(other) {
		return false
	}
	for i := range n {
		if !n[i].Equal(other[i]) {
			return false
		}
	}
	return true
}

// Hash returns a 64-bit hash of the name, used as the map key backing
// the FIB, the PIT's name-keyed sub-tables, and the Content Store's
// name index.
func (n Name) Hash() uint64 {
	h := xxhash.New()
	for _, c := range n {
		h.Write([]byte{byte(c.Typ)})
		h.Write(c.Val)
		// delimiter so ("ab","c") and ("a","bc") never collide
		h.Write([]byte{0})
	}
	return h.Sum64()
}

// Bytes returns a canonical byte encoding of the name, suitable for use
// as a map key when Name itself (a slice) cannot be one directly.
func (n Name) Bytes() []byte {
	var buf bytes.Buffer
	for _, c := range n {
		buf.WriteByte(byte(c.Typ))
		var lenBuf [2]byte
		lenBuf[0] = byte(len(c.Val) >> 8)
		lenBuf[1] = byte(len(c.Val))
		buf.Write(lenBuf[:])
		buf.Write(c.Val)
	}
	return buf.Bytes()
}

// NComponents returns the number of segments in the name.
func (n Name) NComponents() int {
	return len(n)
}

// ByteLength returns the total byte length of all segment values
// (type and length headers are not counted), used
// by the PIT's byte-proportional service time.
func (n Name) ByteLength() int {
	total := 0
	for _, c := range n {
		total += len(c.Val)
	}
	return total
}
