package pkt

import (
	"encoding/binary"
	"fmt"
)

// EncodeName serializes a Name as a sequence of (type u8, length u16,
// value) segments, used both for the wire format's Name fields and for
// the NFP payload's router-name/prefix/anchor-name fields.
func EncodeName(n Name) []byte {
	size := 0
	for _, c := range n {
		size += 3 + len(c.Val)
	}
	buf := make([]byte, size)
	off := 0
	for _, c := range n {
		buf[off] = byte(c.Typ)
		binary.BigEndian.PutUint16(buf[off+1:], uint16(len(c.Val)))
		copy(buf[off+3:], c.Val)
		off += 3 + len(c.Val)
	}
	return buf
}

// DecodeName parses a buffer produced by EncodeName, returning the name
// and the number of bytes consumed.
func DecodeName(buf []byte) (Name, int, error) {
	var name Name
	off := 0
	for off < len(buf) {
		if off+3 > len(buf) {
			return nil, 0, fmt.Errorf("pkt: name component header truncated")
		}
		typ := ComponentType(buf[off])
		length := int(binary.BigEndian.Uint16(buf[off+1:]))
		off += 3
		if off+length > len(buf) {
			return nil, 0, fmt.Errorf("pkt: name component value truncated")
		}
		name = append(name, Component{Typ: typ, Val: append([]byte(nil), buf[off:off+length]...)})
		off += length
	}
	return name, off, nil
}

// EncodeNameField prefixes an encoded name with its own u16 length, for
// embedding inside an outer TLV alongside other fields (used by the NFP
// payload codec).
func EncodeNameField(n Name) []byte {
	body := EncodeName(n)
	buf := make([]byte, 2+len(body))
	binary.BigEndian.PutUint16(buf, uint16(len(body)))
	copy(buf[2:], body)
	return buf
}

// DecodeNameField reads a length-prefixed encoded name, returning the
// name and the number of bytes consumed including the length prefix.
func DecodeNameField(buf []byte) (Name, int, error) {
	if len(buf) < 2 {
		return nil, 0, fmt.Errorf("pkt: name field length truncated")
	}
	length := int(binary.BigEndian.Uint16(buf))
	if 2+length > len(buf) {
		return nil, 0, fmt.Errorf("pkt: name field value truncated")
	}
	name, _, err := DecodeName(buf[2 : 2+length])
	if err != nil {
		return nil, 0, err
	}
	return name, 2 + length, nil
}
