package nfp

import (
	"encoding/binary"
	"fmt"

	"github.com/parc-ccnx-archive/ccnfwd/pkt"
)

// TLV types for the NFP payload, carried as an Interest payload.
// Every field is fixed-width, so the encoding uses the same
// encoding/binary primitives as pkt/wire.go.
const (
	tMsg       uint16 = 0x1001
	tMsgSeqnum uint16 = 0x1002
	tAdv       uint16 = 0x1003
	tWithdraw  uint16 = 0x1004
	tAdvData   uint16 = 0x1005
)

// MessageKind discriminates the two message types an NfpPayload carries.
type MessageKind int

const (
	KindAdvertise MessageKind = iota
	KindWithdraw
)

// Message is one Advertise or Withdraw entry nested inside an
// NfpPayload.
type Message struct {
	Kind      MessageKind
	Anchor    pkt.Name
	Prefix    pkt.Name
	AnchorSeq uint32 // only meaningful for KindAdvertise
	Distance  uint16 // only meaningful for KindAdvertise
}

// NfpPayload is the full T_MSG TLV: router name, message seqnum, and
// zero or more nested Advertise/Withdraw messages.
type NfpPayload struct {
	RouterName pkt.Name
	Seqnum     uint16
	Messages   []Message
}

// Equal reports whether two payloads have the same router name, seqnum,
// and ordered contained messages.
func (p NfpPayload) Equal(o NfpPayload) bool {
	if !p.RouterName.Equal(o.RouterName) || p.Seqnum != o.Seqnum || len(p.Messages) != len(o.Messages) {
		return false
	}
	for i := range p.Messages {
		a, b := p.Messages[i], o.Messages[i]
		if a.Kind != b.Kind || !a.Anchor.Equal(b.Anchor) || !a.Prefix.Equal(b.Prefix) {
			return false
		}
		if a.Kind == KindAdvertise && (a.AnchorSeq != b.AnchorSeq || a.Distance != b.Distance) {
			return false
		}
	}
	return true
}

// encodeMessage serializes one Advertise or Withdraw message, mirroring
// the outer T_MSG TLV's (type, length, value) shape.
func encodeMessage(m Message) []byte {
	anchor := pkt.EncodeNameField(m.Anchor)
	prefix := pkt.EncodeNameField(m.Prefix)

	var body []byte
	body = append(body, anchor...)
	body = append(body, prefix...)

	typ := tWithdraw
	if m.Kind == KindAdvertise {
		typ = tAdv
		data := make([]byte, 6)
		binary.BigEndian.PutUint32(data[0:4], m.AnchorSeq)
		binary.BigEndian.PutUint16(data[4:6], m.Distance)
		body = append(body, tlvBytes(tAdvData, data)...)
	}
	return tlvBytes(typ, body)
}

// tlvBytes wraps value in a (type u16, length u16, value) TLV.
func tlvBytes(typ uint16, value []byte) []byte {
	buf := make([]byte, 4+len(value))
	binary.BigEndian.PutUint16(buf[0:2], typ)
	binary.BigEndian.PutUint16(buf[2:4], uint16(len(value)))
	copy(buf[4:], value)
	return buf
}

// Encode serializes the payload as the outer T_MSG TLV.
func (p NfpPayload) Encode() []byte {
	var body []byte
	body = append(body, pkt.EncodeNameField(p.RouterName)...)

	seqBuf := make([]byte, 2)
	binary.BigEndian.PutUint16(seqBuf, p.Seqnum)
	body = append(body, tlvBytes(tMsgSeqnum, seqBuf)...)

	for _, m := range p.Messages {
		body = append(body, encodeMessage(m)...)
	}
	return tlvBytes(tMsg, body)
}

// DecodePayload parses a buffer produced by Encode.
func DecodePayload(buf []byte) (NfpPayload, error) {
	typ, body, _, err := readTLV(buf)
	if err != nil {
		return NfpPayload{}, err
	}
	if typ != tMsg {
		return NfpPayload{}, fmt.Errorf("nfp: expected T_MSG, got type %d", typ)
	}

	var p NfpPayload
	off := 0

	name, n, err := pkt.DecodeNameField(body[off:])
	if err != nil {
		return NfpPayload{}, fmt.Errorf("nfp: router name: %w", err)
	}
	p.RouterName = name
	off += n

	haveSeqnum := false
	for off < len(body) {
		mt, value, consumed, err := readTLV(body[off:])
		if err != nil {
			return NfpPayload{}, err
		}
		off += consumed

		switch mt {
		case tMsgSeqnum:
			if len(value) != 2 {
				return NfpPayload{}, fmt.Errorf("nfp: T_MSG_SEQNUM length %d, want 2", len(value))
			}
			p.Seqnum = binary.BigEndian.Uint16(value)
			haveSeqnum = true
		case tAdv:
			m, err := decodeMessage(KindAdvertise, value)
			if err != nil {
				return NfpPayload{}, err
			}
			p.Messages = append(p.Messages, m)
		case tWithdraw:
			m, err := decodeMessage(KindWithdraw, value)
			if err != nil {
				return NfpPayload{}, err
			}
			p.Messages = append(p.Messages, m)
		default:
			// Unknown nested TLV: tolerated and skipped, not fatal.
		}
	}
	if !haveSeqnum {
		return NfpPayload{}, fmt.Errorf("nfp: payload missing T_MSG_SEQNUM")
	}
	return p, nil
}

func decodeMessage(kind MessageKind, body []byte) (Message, error) {
	m := Message{Kind: kind}
	off := 0

	anchor, n, err := pkt.DecodeNameField(body[off:])
	if err != nil {
		return Message{}, fmt.Errorf("nfp: anchor name: %w", err)
	}
	m.Anchor = anchor
	off += n

	prefix, n, err := pkt.DecodeNameField(body[off:])
	if err != nil {
		return Message{}, fmt.Errorf("nfp: prefix name: %w", err)
	}
	m.Prefix = prefix
	off += n

	if kind == KindAdvertise {
		_, data, _, err := readTLV(body[off:])
		if err != nil {
			return Message{}, fmt.Errorf("nfp: T_ADV_DATA: %w", err)
		}
		if len(data) != 6 {
			return Message{}, fmt.Errorf("nfp: T_ADV_DATA length %d, want 6", len(data))
		}
		m.AnchorSeq = binary.BigEndian.Uint32(data[0:4])
		m.Distance = binary.BigEndian.Uint16(data[4:6])
	}
	return m, nil
}

// readTLV reads one (type u16, length u16, value) TLV from the front of
// buf, returning its type, value, and total bytes consumed.
func readTLV(buf []byte) (typ uint16, value []byte, consumed int, err error) {
	if len(buf) < 4 {
		return 0, nil, 0, fmt.Errorf("nfp: TLV header truncated")
	}
	typ = binary.BigEndian.Uint16(buf[0:2])
	length := int(binary.BigEndian.Uint16(buf[2:4]))
	if 4+length > len(buf) {
		return 0, nil, 0, fmt.Errorf("nfp: TLV type %d value truncated", typ)
	}
	return typ, buf[4 : 4+length], 4 + length, nil
}
