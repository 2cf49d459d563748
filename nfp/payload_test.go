package nfp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parc-ccnx-archive/ccnfwd/pkt"
)

func TestPayloadRoundTrip(t *testing.T) {
	p := NfpPayload{
		RouterName: pkt.NameFromStr("/routers/r1"),
		Seqnum:     42,
		Messages: []Message{
			{Kind: KindAdvertise, Anchor: pkt.NameFromStr("/routers/r1"), Prefix: pkt.NameFromStr("/a/b"), AnchorSeq: 7, Distance: 2},
			{Kind: KindWithdraw, Anchor: pkt.NameFromStr("/routers/r2"), Prefix: pkt.NameFromStr("/c")},
		},
	}

	buf := p.Encode()
	decoded, err := DecodePayload(buf)
	require.NoError(t, err)
	assert.True(t, p.Equal(decoded))
}

func TestPayloadRoundTripEmpty(t *testing.T) {
	p := NfpPayload{RouterName: pkt.NameFromStr("/routers/r1"), Seqnum: 0}
	buf := p.Encode()
	decoded, err := DecodePayload(buf)
	require.NoError(t, err)
	assert.True(t, p.Equal(decoded))
}

func TestDecodePayloadRejectsTruncated(t *testing.T) {
	_, err := DecodePayload([]byte{0x10, 0x01})
	assert.Error(t, err)
}
