package table

import (
	"testing"
	"time"

	"github.com/parc-ccnx-archive/ccnfwd/config"
	"github.com/parc-ccnx-archive/ccnfwd/conn"
	"github.com/parc-ccnx-archive/ccnfwd/pkt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFib() *Fib {
	return NewFib(config.FibConfig{Delay: config.DelayConfig{
		Constant: time.Millisecond, Slope: 0, Servers: 1,
	}})
}

func lookupSync(t *testing.T, f *Fib, name pkt.Name, ingress *conn.Connection) *conn.ConnectionList {
	t.Helper()
	result := make(chan *conn.ConnectionList, 1)
	f.Lookup(name, ingress, func(egress *conn.ConnectionList) { result <- egress })
	select {
	case r := <-result:
		return r
	case <-time.After(time.Second):
		t.Fatal("FIB lookup callback never fired")
		return nil
	}
}

func TestFibLongestPrefixMatch(t *testing.T) {
	f := testFib()
	conn1 := conn.NewConnection(1)
	conn2 := conn.NewConnection(2)

	f.AddRoute(pkt.NameFromStr("/foo"), conn1)
	f.AddRoute(pkt.NameFromStr("/foo/bar"), conn2)

	egress := lookupSync(t, f, pkt.NameFromStr("/foo/bar/baz"), nil)
	require.Equal(t, 1, egress.Len())
	assert.True(t, egress.Contains(conn2))
}

func TestFibSplitHorizon(t *testing.T) {
	f := testFib()
	conn1 := conn.NewConnection(1)
	conn99 := conn.NewConnection(99)
	f.AddRoute(pkt.NameFromStr("/foo"), conn1)
	f.AddRoute(pkt.NameFromStr("/foo"), conn99)

	egress := lookupSync(t, f, pkt.NameFromStr("/foo/bar"), conn99)
	require.Equal(t, 1, egress.Len())
	assert.True(t, egress.Contains(conn1))
}

func TestFibNoRouteIsEmptyNotError(t *testing.T) {
	f := testFib()
	egress := lookupSync(t, f, pkt.NameFromStr("/unknown"), nil)
	assert.True(t, egress.IsEmpty())
}

func TestFibRemoveRouteDeletesEmptyEntry(t *testing.T) {
	f := testFib()
	c1 := conn.NewConnection(1)
	f.AddRoute(pkt.NameFromStr("/foo"), c1)
	assert.Equal(t, 1, f.Size())

	f.RemoveRoute(pkt.NameFromStr("/foo"), c1)
	assert.Equal(t, 0, f.Size())
}

func TestFibRemoveConnectionFromAllEntries(t *testing.T) {
	f := testFib()
	c1 := conn.NewConnection(1)
	f.AddRoute(pkt.NameFromStr("/a"), c1)
	f.AddRoute(pkt.NameFromStr("/b"), c1)
	assert.Equal(t, 2, f.Size())

	f.RemoveConnection(c1)
	assert.Equal(t, 0, f.Size())
}

func TestFibAddRouteRefusesLocalhost(t *testing.T) {
	f := testFib()
	f.AddRoute(pkt.NameFromStr("/foo"), conn.NewConnection(conn.LocalhostID))
	assert.Equal(t, 0, f.Size())
}
