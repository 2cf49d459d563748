package pkt

import (
	"bytes"
	"encoding/hex"

	"github.com/cespare/xxhash/v2"
)

// HashValueLength is the fixed width, in bytes, of a HashValue. Content
// object hashes and key ids in this forwarder are both SHA-256-sized
// identifiers; the forwarder never validates the digest itself, only
// compares and orders it.
const HashValueLength = 32

// HashValue is a fixed-width opaque identifier with total order, used
// for KeyId and ContentObjectHash.
type HashValue [HashValueLength]byte

// NewHashValue truncates or zero-pads b into a HashValue.
func NewHashValue(b []byte) HashValue {
	var h HashValue
	copy(h[:], b)
	return h
}

// Compare orders two hash values byte-wise.
func (h HashValue) Compare(rhs HashValue) int {
	return bytes.Compare(h[:], rhs[:])
}

// Equal reports whether two hash values are identical.
func (h HashValue) Equal(rhs HashValue) bool {
	return h == rhs
}

// IsZero reports whether the hash value has never been set.
func (h HashValue) IsZero() bool {
	return h == HashValue{}
}

// Hash returns a 64-bit hash of the value, for use as a map key.
func (h HashValue) Hash() uint64 {
	return xxhash.Sum64(h[:])
}

// String renders the hash value as lowercase hex.
func (h HashValue) String() string {
	return hex.EncodeToString(h[:])
}
