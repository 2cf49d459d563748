package pkt

import (
	"encoding/binary"
	"fmt"
)

// FixedHeaderLength is the size, in bytes, of the fixed header.
const FixedHeaderLength = 8

// EncodeFixedHeader writes the 8-byte fixed header:
// version, type, total length (big-endian u16), hop limit, return code,
// a reserved zero byte, and header length.
func EncodeFixedHeader(h FixedHeader) []byte {
	buf := make([]byte, FixedHeaderLength)
	buf[0] = h.Version
	buf[1] = byte(h.Type)
	binary.BigEndian.PutUint16(buf[2:4], h.TotalLength)
	buf[4] = h.HopLimit
	buf[5] = h.ReturnCode
	buf[6] = 0 // reserved
	buf[7] = h.HeaderLength
	return buf
}

// DecodeFixedHeader parses the 8-byte fixed header, rejecting buffers
// too short to contain one. A structural length mismatch here is a
// protocol-level malformation returned as an error, not a
// process-aborting condition; only internal queue/codec invariant
// violations panic.
func DecodeFixedHeader(buf []byte) (FixedHeader, error) {
	if len(buf) < FixedHeaderLength {
		return FixedHeader{}, fmt.Errorf("pkt: fixed header truncated: got %d bytes", len(buf))
	}
	return FixedHeader{
		Version:      buf[0],
		Type:         PacketType(buf[1]),
		TotalLength:  binary.BigEndian.Uint16(buf[2:4]),
		HopLimit:     buf[4],
		ReturnCode:   buf[5],
		HeaderLength: buf[7],
	}, nil
}

// PerHopTLV is one per-hop header TLV: a 16-bit type, a 16-bit length,
// and its value.
type PerHopTLV struct {
	Type  uint16
	Value []byte
}

// Well-known per-hop header types.
const (
	PerHopTypeInterestLifetime uint16 = 0x0001
)

// EncodePerHopTLVs concatenates the given TLVs in order, each as a
// 16-bit type, 16-bit length, then value.
func EncodePerHopTLVs(tlvs []PerHopTLV) []byte {
	size := 0
	for _, t := range tlvs {
		size += 4 + len(t.Value)
	}
	buf := make([]byte, size)
	off := 0
	for _, t := range tlvs {
		binary.BigEndian.PutUint16(buf[off:], t.Type)
		binary.BigEndian.PutUint16(buf[off+2:], uint16(len(t.Value)))
		copy(buf[off+4:], t.Value)
		off += 4 + len(t.Value)
	}
	return buf
}

// PerHopCodec decodes one per-hop TLV's value into caller state. The
// registry below dispatches by TLV type.
type PerHopCodec func(value []byte) error

var perHopRegistry = map[uint16]PerHopCodec{}

// RegisterPerHopCodec installs a decoder for a per-hop TLV type.
func RegisterPerHopCodec(typ uint16, codec PerHopCodec) {
	perHopRegistry[typ] = codec
}

// DecodePerHopTLVs walks a buffer of concatenated per-hop TLVs, invoking
// the registered codec for each recognized type and skipping (not
// erroring on) unrecognized ones. A TLV whose value runs past the end
// of buf is an error.
func DecodePerHopTLVs(buf []byte) error {
	off := 0
	for off+4 <= len(buf) {
		typ := binary.BigEndian.Uint16(buf[off:])
		length := binary.BigEndian.Uint16(buf[off+2:])
		off += 4
		if off+int(length) > len(buf) {
			return fmt.Errorf("pkt: per-hop TLV truncated: type %d length %d", typ, length)
		}
		value := buf[off : off+int(length)]
		off += int(length)
		if codec, ok := perHopRegistry[typ]; ok {
			if err := codec(value); err != nil {
				return fmt.Errorf("pkt: per-hop TLV type %d: %w", typ, err)
			}
		}
	}
	return nil
}
