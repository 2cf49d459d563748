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

func testPit() *Pit {
	return NewPit(config.PitConfig{
		DefaultLifetime: 200 * time.Millisecond,
		Delay:           config.DelayConfig{Constant: time.Millisecond, Slope: 0, Servers: 1},
	})
}

func receiveSync(t *testing.T, p *Pit, i *pkt.Interest, ingress *conn.Connection) Verdict {
	t.Helper()
	result := make(chan Verdict, 1)
	p.ReceiveInterest(i, ingress, func(v Verdict) { result <- v })
	select {
	case v := <-result:
		return v
	case <-time.After(time.Second):
		t.Fatal("ReceiveInterest callback never fired")
		return 0
	}
}

func satisfySync(t *testing.T, p *Pit, co *pkt.ContentObject, ingress *conn.Connection) *conn.ConnectionList {
	t.Helper()
	result := make(chan *conn.ConnectionList, 1)
	p.SatisfyInterest(co, ingress, func(egress *conn.ConnectionList) { result <- egress })
	select {
	case r := <-result:
		return r
	case <-time.After(time.Second):
		t.Fatal("SatisfyInterest callback never fired")
		return nil
	}
}

func TestPitFirstInterestForwards(t *testing.T) {
	p := testPit()
	i := &pkt.Interest{Name: pkt.NameFromStr("/foo/bar")}
	v := receiveSync(t, p, i, conn.NewConnection(99))
	assert.Equal(t, VerdictForward, v)
	assert.Equal(t, 1, p.Size())
}

func TestPitAggregationAndRetransmission(t *testing.T) {
	p := testPit()
	i := &pkt.Interest{Name: pkt.NameFromStr("/foo/bar")}

	v1 := receiveSync(t, p, i, conn.NewConnection(99))
	assert.Equal(t, VerdictForward, v1)

	// Retransmission from the same face still forwards.
	v2 := receiveSync(t, p, i, conn.NewConnection(99))
	assert.Equal(t, VerdictForward, v2)

	// A different face aggregates.
	v3 := receiveSync(t, p, i, conn.NewConnection(98))
	assert.Equal(t, VerdictAggregate, v3)
}

func TestPitSatisfyFansOutAndRemovesIngress(t *testing.T) {
	p := testPit()
	i := &pkt.Interest{Name: pkt.NameFromStr("/foo/bar")}
	receiveSync(t, p, i, conn.NewConnection(99))
	receiveSync(t, p, i, conn.NewConnection(98))

	co := &pkt.ContentObject{Name: pkt.NameFromStr("/foo/bar"), Hash: pkt.NewHashValue([]byte("x"))}
	egress := satisfySync(t, p, co, conn.NewConnection(1))

	require.Equal(t, 2, egress.Len())
	assert.True(t, egress.Contains(conn.NewConnection(98)))
	assert.True(t, egress.Contains(conn.NewConnection(99)))
	assert.Equal(t, 0, p.Size())
}

func TestPitSatisfyExcludesIngressFace(t *testing.T) {
	p := testPit()
	i := &pkt.Interest{Name: pkt.NameFromStr("/foo/bar")}
	receiveSync(t, p, i, conn.NewConnection(1))

	co := &pkt.ContentObject{Name: pkt.NameFromStr("/foo/bar"), Hash: pkt.NewHashValue([]byte("x"))}
	// Content object comes back in on the same face that sent the
	// interest: that face must not appear in its own egress list.
	egress := satisfySync(t, p, co, conn.NewConnection(1))
	assert.True(t, egress.IsEmpty())
}

func TestPitMostRestrictiveKeySelection(t *testing.T) {
	p := testPit()
	hash := pkt.NewHashValue([]byte("digest"))
	i := &pkt.Interest{
		Name:                         pkt.NameFromStr("/foo"),
		ContentObjectHashRestriction: &hash,
	}
	receiveSync(t, p, i, conn.NewConnection(1))
	assert.Equal(t, 0, len(p.byName))
	assert.Equal(t, 1, len(p.byHash))
}

func TestPitExpiryNeverShrinks(t *testing.T) {
	p := testPit()
	i := &pkt.Interest{Name: pkt.NameFromStr("/foo"), Lifetime: 500}
	receiveSync(t, p, i, conn.NewConnection(1))
	h := i.Name.Hash()
	first := p.byName[h].expiry

	i2 := &pkt.Interest{Name: pkt.NameFromStr("/foo"), Lifetime: 10}
	receiveSync(t, p, i2, conn.NewConnection(2))
	assert.True(t, !p.byName[h].expiry.Before(first))
}

func TestPitExpiredEntryResetsOnNextTouch(t *testing.T) {
	p := testPit()
	p.now = func() time.Time { return time.Unix(1000, 0) }
	i := &pkt.Interest{Name: pkt.NameFromStr("/foo"), Lifetime: 1}
	receiveSync(t, p, i, conn.NewConnection(1))

	// advance time past expiry
	p.now = func() time.Time { return time.Unix(2000, 0) }
	v := receiveSync(t, p, i, conn.NewConnection(2))
	assert.Equal(t, VerdictForward, v)
	assert.Equal(t, 1, p.byName[i.Name.Hash()].reverse.Len())
}
