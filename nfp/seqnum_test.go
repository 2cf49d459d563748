package nfp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompare16Basic(t *testing.T) {
	assert.True(t, seqGreater16(5, 4))
	assert.False(t, seqGreater16(4, 5))
	assert.False(t, seqGreater16(4, 4))
}

func TestCompare16WrapBoundary(t *testing.T) {
	// Just past the wrap: 0 should be considered "after" 65535.
	assert.True(t, seqGreater16(0, math.MaxUint16))
	assert.False(t, seqGreater16(math.MaxUint16, 0))

	// Half the space apart is the ambiguous boundary; RFC1982-style
	// comparisons treat exactly half as "b is after a" per the serial
	// formula (a > b and a-b > 2^(n-1) is false at exactly half).
	assert.False(t, seqGreater16(0, 1<<15))
}

func TestCompare32WrapBoundary(t *testing.T) {
	assert.True(t, seqGreater32(0, math.MaxUint32))
	assert.False(t, seqGreater32(math.MaxUint32, 0))
}
