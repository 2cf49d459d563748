package pkt

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedHeaderRoundTrip(t *testing.T) {
	h := FixedHeader{
		Version:      1,
		Type:         TypeContentObject,
		TotalLength:  512,
		HopLimit:     64,
		ReturnCode:   0,
		HeaderLength: 24,
	}
	buf := EncodeFixedHeader(h)
	require.Len(t, buf, FixedHeaderLength)
	assert.Equal(t, byte(0), buf[6]) // reserved

	got, err := DecodeFixedHeader(buf)
	require.NoError(t, err)
	assert.Equal(t, h, got)
}

func TestDecodeFixedHeaderRejectsShortBuffer(t *testing.T) {
	_, err := DecodeFixedHeader([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestPerHopTLVRegistryDispatch(t *testing.T) {
	var gotLifetime uint32
	RegisterPerHopCodec(PerHopTypeInterestLifetime, func(value []byte) error {
		gotLifetime = binary.BigEndian.Uint32(value)
		return nil
	})

	lifetime := make([]byte, 4)
	binary.BigEndian.PutUint32(lifetime, 4000)
	buf := EncodePerHopTLVs([]PerHopTLV{
		{Type: PerHopTypeInterestLifetime, Value: lifetime},
		{Type: 0x7FFF, Value: []byte{0xAA}}, // unknown type: skipped
	})

	require.NoError(t, DecodePerHopTLVs(buf))
	assert.Equal(t, uint32(4000), gotLifetime)
}

func TestDecodePerHopTLVsRejectsTruncatedValue(t *testing.T) {
	buf := []byte{0x00, 0x01, 0x00, 0x10, 0xAB} // claims 16 bytes, has 1
	assert.Error(t, DecodePerHopTLVs(buf))
}
