package nfp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parc-ccnx-archive/ccnfwd/conn"
)

// Feasibility across two neighbors advertising the same (anchor, prefix).
func TestAnchorAdvertisementFeasibilityMultiNeighbor(t *testing.T) {
	a := newAnchorAdvertisement()
	conn1 := conn.NewConnection(1)
	conn2 := conn.NewConnection(2)
	future := time.Now().Add(time.Minute)

	v1 := a.Receive(5, 3, conn1, future)
	assert.Equal(t, VerdictReplace, v1)

	v2 := a.Receive(5, 3, conn2, future)
	assert.Equal(t, VerdictEqualCost, v2)

	hops := a.NextHops(time.Now())
	require.Len(t, hops, 2)

	v3 := a.Receive(6, 4, conn1, future)
	assert.Equal(t, VerdictReplace, v3)

	hops2 := a.NextHops(time.Now())
	require.Len(t, hops2, 1)
	assert.True(t, hops2[0].Equal(conn1))
}

func TestAnchorAdvertisementIgnoresStaleSeqnum(t *testing.T) {
	a := newAnchorAdvertisement()
	conn1 := conn.NewConnection(1)
	future := time.Now().Add(time.Minute)

	a.Receive(10, 1, conn1, future)
	v := a.Receive(9, 0, conn1, future)
	assert.Equal(t, VerdictIgnore, v)
}

func TestAnchorAdvertisementEqualSeqnumHigherDistanceIgnored(t *testing.T) {
	a := newAnchorAdvertisement()
	conn1 := conn.NewConnection(1)
	conn2 := conn.NewConnection(2)
	future := time.Now().Add(time.Minute)

	a.Receive(5, 2, conn1, future)
	v := a.Receive(5, 5, conn2, future)
	assert.Equal(t, VerdictIgnore, v)
}

func TestAnchorAdvertisementWithdraw(t *testing.T) {
	a := newAnchorAdvertisement()
	conn1 := conn.NewConnection(1)
	future := time.Now().Add(time.Minute)

	a.Receive(1, 0, conn1, future)
	empty := a.Withdraw(conn1)
	assert.True(t, empty)
}

func TestAnchorAdvertisementPruneExpired(t *testing.T) {
	a := newAnchorAdvertisement()
	conn1 := conn.NewConnection(1)
	past := time.Now().Add(-time.Second)

	a.Receive(1, 0, conn1, past)
	hops := a.NextHops(time.Now())
	assert.Empty(t, hops)
}
