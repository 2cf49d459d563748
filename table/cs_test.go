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

func testCs(capacity int) *Cs {
	return NewCs(config.ContentStoreConfig{
		ObjectCapacity: capacity,
		Delay:          config.DelayConfig{Constant: time.Millisecond, Slope: 0, Servers: 1},
	})
}

func addSync(t *testing.T, c *Cs, co *pkt.ContentObject) {
	t.Helper()
	done := make(chan struct{})
	c.AddContentObject(co, conn.NewConnectionList(), func() { close(done) })
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("AddContentObject callback never fired")
	}
}

func matchSync(t *testing.T, c *Cs, i *pkt.Interest) (*pkt.ContentObject, bool) {
	t.Helper()
	type result struct {
		co  *pkt.ContentObject
		hit bool
	}
	ch := make(chan result, 1)
	c.MatchInterest(i, func(co *pkt.ContentObject, hit bool) { ch <- result{co, hit} })
	select {
	case r := <-ch:
		return r.co, r.hit
	case <-time.After(time.Second):
		t.Fatal("MatchInterest callback never fired")
		return nil, false
	}
}

func TestCsHitAndMiss(t *testing.T) {
	c := testCs(10)
	co := &pkt.ContentObject{Name: pkt.NameFromStr("/a"), Hash: pkt.NewHashValue([]byte("a"))}
	addSync(t, c, co)

	got, hit := matchSync(t, c, &pkt.Interest{Name: pkt.NameFromStr("/a")})
	require.True(t, hit)
	assert.True(t, got.Name.Equal(co.Name))

	_, miss := matchSync(t, c, &pkt.Interest{Name: pkt.NameFromStr("/b")})
	assert.False(t, miss)
}

func TestCsLRUEviction(t *testing.T) {
	c := testCs(2)
	a := &pkt.ContentObject{Name: pkt.NameFromStr("/a"), Hash: pkt.NewHashValue([]byte("a"))}
	b := &pkt.ContentObject{Name: pkt.NameFromStr("/b"), Hash: pkt.NewHashValue([]byte("b"))}
	cc := &pkt.ContentObject{Name: pkt.NameFromStr("/c"), Hash: pkt.NewHashValue([]byte("c"))}

	addSync(t, c, a)
	addSync(t, c, b)
	addSync(t, c, cc)

	assert.Equal(t, 2, c.Size())
	_, hitA := matchSync(t, c, &pkt.Interest{Name: pkt.NameFromStr("/a")})
	assert.False(t, hitA)
	_, hitB := matchSync(t, c, &pkt.Interest{Name: pkt.NameFromStr("/b")})
	assert.True(t, hitB)
	_, hitC := matchSync(t, c, &pkt.Interest{Name: pkt.NameFromStr("/c")})
	assert.True(t, hitC)
}

func TestCsAddIsNoopIfAlreadyPresent(t *testing.T) {
	c := testCs(10)
	co := &pkt.ContentObject{Name: pkt.NameFromStr("/a"), Hash: pkt.NewHashValue([]byte("a"))}
	addSync(t, c, co)
	addSync(t, c, co)
	assert.Equal(t, 1, c.Size())
}

func TestCsMatchByKeyIdRestriction(t *testing.T) {
	c := testCs(10)
	keyId := pkt.NewHashValue([]byte("key1"))
	co := &pkt.ContentObject{
		Name:  pkt.NameFromStr("/a"),
		KeyId: &keyId,
		Hash:  pkt.NewHashValue([]byte("a")),
	}
	addSync(t, c, co)

	got, hit := matchSync(t, c, &pkt.Interest{Name: pkt.NameFromStr("/a"), KeyIdRestriction: &keyId})
	require.True(t, hit)
	assert.True(t, got.Hash.Equal(co.Hash))

	other := pkt.NewHashValue([]byte("key2"))
	_, miss := matchSync(t, c, &pkt.Interest{Name: pkt.NameFromStr("/a"), KeyIdRestriction: &other})
	assert.False(t, miss)
}

func TestCsDeleteContentObject(t *testing.T) {
	c := testCs(10)
	co := &pkt.ContentObject{Name: pkt.NameFromStr("/a"), Hash: pkt.NewHashValue([]byte("a"))}
	addSync(t, c, co)
	c.DeleteContentObject(co)
	assert.Equal(t, 0, c.Size())
}
