package nfp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parc-ccnx-archive/ccnfwd/config"
	"github.com/parc-ccnx-archive/ccnfwd/conn"
	"github.com/parc-ccnx-archive/ccnfwd/forwarder"
	"github.com/parc-ccnx-archive/ccnfwd/pkt"
	"github.com/parc-ccnx-archive/ccnfwd/table"
)

func newTestProtocol(t *testing.T) (*RoutingProtocol, *forwarder.Forwarder) {
	t.Helper()
	cfg := config.Default()
	pit := table.NewPit(cfg.Pit)
	cs := table.NewCs(cfg.ContentStore)
	fib := table.NewFib(cfg.Fib)
	fwd := forwarder.New(cfg.Forwarder, pit, cs, fib, func(pkt.Packet, *conn.Connection, forwarder.ErrorCode, *conn.ConnectionList) {})

	p := New(cfg.Nfp, pkt.NameFromStr("/routers/me"), fwd, func(*conn.Connection, []byte) {})
	return p, fwd
}

// A neighbor's hello stream stops; it ages
// Up -> Down -> Dead on schedule, and every route learned through it is
// withdrawn from the FIB.
func TestNeighborAgingWithdrawsRoutes(t *testing.T) {
	p, fwd := newTestProtocol(t)
	neighborConn := conn.NewConnection(7)

	p.receiveAdvertise(pkt.NameFromStr("/routers/other"), pkt.NameFromStr("/data"), 1, 1, neighborConn)
	// First hello establishes the neighbor as Up.
	p.neighbors.ReceiveHello(pkt.NameFromStr("/routers/other"), neighborConn, 1)

	require.Equal(t, 1, fwd.Fib().Size())
	entries := fwd.Fib().Entries()
	require.Contains(t, entries, "/data")
	assert.True(t, entries["/data"].Contains(neighborConn))

	n := p.neighbors.Get(pkt.NameFromStr("/routers/other"), neighborConn)
	require.NotNil(t, n)
	assert.Equal(t, NeighborUp, n.State())

	base := time.Now()
	// t=0: no hello yet due, still Up.
	p.CheckNeighbors(base)
	assert.Equal(t, NeighborUp, n.State())

	// t=NeighborTimeout: first missed window, Up -> Down.
	p.CheckNeighbors(base.Add(p.cfg.NeighborTimeout + time.Millisecond))
	assert.Equal(t, NeighborDown, n.State())
	// Going Down already withdraws every route learned through it.
	assert.Equal(t, 0, fwd.Fib().Size())

	// t=2*NeighborTimeout: second missed window, Down -> Dead.
	p.CheckNeighbors(base.Add(2*p.cfg.NeighborTimeout + time.Millisecond))
	assert.Equal(t, 0, p.neighbors.Size())
	assert.Equal(t, 0, fwd.Fib().Size())
}

func TestReceiveAdvertisePropagatesToFib(t *testing.T) {
	p, fwd := newTestProtocol(t)
	c1 := conn.NewConnection(1)

	p.receiveAdvertise(pkt.NameFromStr("/routers/a"), pkt.NameFromStr("/x/y"), 5, 2, c1)

	entries := fwd.Fib().Entries()
	require.Contains(t, entries, "/x/y")
	assert.True(t, entries["/x/y"].Contains(c1))
}

func TestReceiveWithdrawRemovesRoute(t *testing.T) {
	p, fwd := newTestProtocol(t)
	c1 := conn.NewConnection(1)

	p.receiveAdvertise(pkt.NameFromStr("/routers/a"), pkt.NameFromStr("/x"), 1, 0, c1)
	require.Equal(t, 1, fwd.Fib().Size())

	p.receiveWithdraw(pkt.NameFromStr("/routers/a"), pkt.NameFromStr("/x"), c1)
	assert.Equal(t, 0, fwd.Fib().Size())
}

func TestStaleSeqnumIgnored(t *testing.T) {
	p, fwd := newTestProtocol(t)
	c1 := conn.NewConnection(1)
	c2 := conn.NewConnection(2)

	p.receiveAdvertise(pkt.NameFromStr("/routers/a"), pkt.NameFromStr("/x"), 5, 1, c1)
	p.receiveAdvertise(pkt.NameFromStr("/routers/a"), pkt.NameFromStr("/x"), 3, 0, c2)

	entries := fwd.Fib().Entries()
	require.Contains(t, entries, "/x")
	assert.True(t, entries["/x"].Contains(c1))
	assert.False(t, entries["/x"].Contains(c2))
}

func TestAnchorRouteTickInjectsLocalPrefix(t *testing.T) {
	p, fwd := newTestProtocol(t)
	p.AddAnchorPrefix(pkt.NameFromStr("/local/service"))

	p.anchorRouteTick()

	prefixes := p.Prefixes().Prefixes()
	found := false
	for _, name := range prefixes {
		if name.Equal(pkt.NameFromStr("/local/service")) {
			found = true
		}
	}
	assert.True(t, found)
	// Self-origination never installs a forwarder route for the
	// localhost sentinel.
	assert.Equal(t, 0, fwd.Fib().Size())
	anchors := p.Prefixes().Anchors(pkt.NameFromStr("/local/service"))
	require.Len(t, anchors, 1)
	assert.True(t, anchors[0].Anchor.Equal(pkt.NameFromStr("/routers/me")))
}

func TestBuildMessageWithdrawsWhenUnreachable(t *testing.T) {
	p, _ := newTestProtocol(t)
	anchor := pkt.NameFromStr("/routers/a")
	prefix := pkt.NameFromStr("/x")
	c1 := conn.NewConnection(1)

	p.receiveAdvertise(anchor, prefix, 1, 0, c1)
	msg, ok := p.buildMessage(workItem{Anchor: anchor, Prefix: prefix})
	require.True(t, ok)
	assert.Equal(t, KindAdvertise, msg.Kind)
	assert.Equal(t, uint16(1), msg.Distance)

	p.receiveWithdraw(anchor, prefix, c1)
	msg2, ok := p.buildMessage(workItem{Anchor: anchor, Prefix: prefix})
	require.True(t, ok)
	assert.Equal(t, KindWithdraw, msg2.Kind)
}
