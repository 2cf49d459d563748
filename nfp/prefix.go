package nfp

import (
	"sync"
	"time"

	"github.com/parc-ccnx-archive/ccnfwd/conn"
	"github.com/parc-ccnx-archive/ccnfwd/pkt"
	priority_queue "github.com/parc-ccnx-archive/ccnfwd/std/types/priority_queue"
)

// PrefixTable is Name -> (anchorName -> AnchorAdvertisement), aggregating
// next hops across every anchor that advertises a prefix to form the
// FIB image for that prefix. A min-heap of (prefix, anchor)
// pairs keyed by their next scheduled expiry drives route-timeout
// pruning through the generic priority_queue instead of one timer per
// pair.
type PrefixTable struct {
	mu       sync.Mutex
	prefixes map[uint64]*prefixEntry
	expiries priority_queue.Queue[expiryKey, int64] // priority is UnixNano, since time.Time isn't constraints.Ordered
}

type prefixEntry struct {
	name    pkt.Name
	anchors map[uint64]*anchorEntry
}

type anchorEntry struct {
	anchorName pkt.Name
	adv        *AnchorAdvertisement
}

type expiryKey struct {
	prefixHash uint64
	anchorHash uint64
}

// String identifies the table for logging.
func (t *PrefixTable) String() string { return "nfp-prefix" }

// NewPrefixTable constructs an empty prefix table.
func NewPrefixTable() *PrefixTable {
	return &PrefixTable{
		prefixes: make(map[uint64]*prefixEntry),
		expiries: priority_queue.New[expiryKey, int64](),
	}
}

func (t *PrefixTable) entry(prefix pkt.Name) *prefixEntry {
	h := prefix.Hash()
	e, ok := t.prefixes[h]
	if !ok {
		e = &prefixEntry{name: prefix, anchors: make(map[uint64]*anchorEntry)}
		t.prefixes[h] = e
	}
	return e
}

// Receive applies an incoming advertisement for (anchor, prefix) from
// ingress, returning the feasibility verdict and the prefix's aggregated
// next-hop set immediately after applying it.
func (t *PrefixTable) Receive(anchor, prefix pkt.Name, seqnum uint32, distance uint16, ingress *conn.Connection, expiry time.Time) (FeasibilityVerdict, []*conn.Connection) {
	t.mu.Lock()
	defer t.mu.Unlock()

	pe := t.entry(prefix)
	ah := anchor.Hash()
	ae, ok := pe.anchors[ah]
	if !ok {
		ae = &anchorEntry{anchorName: anchor, adv: newAnchorAdvertisement()}
		pe.anchors[ah] = ae
	}

	verdict := ae.adv.Receive(seqnum, distance, ingress, expiry)
	if verdict != VerdictIgnore {
		t.expiries.Push(expiryKey{prefixHash: prefix.Hash(), anchorHash: ah}, expiry.UnixNano())
	}
	return verdict, t.aggregateLocked(pe, time.Now())
}

// Withdraw removes ingress from (anchor, prefix)'s next-hop set,
// returning the prefix's aggregated next-hop set afterward.
func (t *PrefixTable) Withdraw(anchor, prefix pkt.Name, ingress *conn.Connection) []*conn.Connection {
	t.mu.Lock()
	defer t.mu.Unlock()

	h := prefix.Hash()
	pe, ok := t.prefixes[h]
	if !ok {
		return nil
	}
	ae, ok := pe.anchors[anchor.Hash()]
	if !ok {
		return t.aggregateLocked(pe, time.Now())
	}
	if empty := ae.adv.Withdraw(ingress); empty {
		delete(pe.anchors, anchor.Hash())
	}
	return t.aggregateLocked(pe, time.Now())
}

// RemoveConnection withdraws c from every anchor advertisement across
// every prefix (e.g. when a neighbor goes Down or Dead),
// returning every prefix whose aggregated next-hop set changed.
func (t *PrefixTable) RemoveConnection(c *conn.Connection) []pkt.Name {
	t.mu.Lock()
	defer t.mu.Unlock()

	var dirty []pkt.Name
	for _, pe := range t.prefixes {
		changed := false
		for ah, ae := range pe.anchors {
			for _, h := range ae.adv.nextHops {
				if h.conn.Equal(c) {
					changed = true
					break
				}
			}
			if empty := ae.adv.Withdraw(c); empty {
				delete(pe.anchors, ah)
			}
		}
		if changed {
			dirty = append(dirty, pe.name)
		}
	}
	return dirty
}

// PruneExpired pops every (prefix, anchor) pair whose scheduled expiry
// has passed, prunes that anchor's expired next hops, and returns every
// prefix touched by a popped pair, whether or not its aggregated
// next-hop set actually changed.
func (t *PrefixTable) PruneExpired(now time.Time) []pkt.Name {
	t.mu.Lock()
	defer t.mu.Unlock()

	dirty := map[uint64]pkt.Name{}
	for t.expiries.Len() > 0 && t.expiries.PeekPriority() <= now.UnixNano() {
		k := t.expiries.Pop()
		pe, ok := t.prefixes[k.prefixHash]
		if !ok {
			continue
		}
		ae, ok := pe.anchors[k.anchorHash]
		if !ok {
			continue
		}
		if empty := ae.adv.Prune(now); empty {
			delete(pe.anchors, k.anchorHash)
		}
		dirty[k.prefixHash] = pe.name
	}

	out := make([]pkt.Name, 0, len(dirty))
	for _, name := range dirty {
		out = append(out, name)
	}
	return out
}

// aggregateLocked computes the union of next hops across every anchor
// advertising this prefix. Caller must hold t.mu.
func (t *PrefixTable) aggregateLocked(pe *prefixEntry, now time.Time) []*conn.Connection {
	seen := make(map[uint32]*conn.Connection)
	for _, ae := range pe.anchors {
		for _, c := range ae.adv.NextHops(now) {
			seen[c.ID()] = c
		}
	}
	out := make([]*conn.Connection, 0, len(seen))
	for _, c := range seen {
		out = append(out, c)
	}
	return out
}

// NextHops returns the current aggregated next-hop set for prefix
// without mutating anything beyond lazy pruning.
func (t *PrefixTable) NextHops(prefix pkt.Name) []*conn.Connection {
	t.mu.Lock()
	defer t.mu.Unlock()
	pe, ok := t.prefixes[prefix.Hash()]
	if !ok {
		return nil
	}
	return t.aggregateLocked(pe, time.Now())
}

// Prefixes returns every prefix name currently tracked, for mgmt
// introspection and the AdvertiseTimer's full requeue.
func (t *PrefixTable) Prefixes() []pkt.Name {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]pkt.Name, 0, len(t.prefixes))
	for _, pe := range t.prefixes {
		out = append(out, pe.name)
	}
	return out
}

// AnchorSnapshot is a copied view of one anchor's advertisement for a
// prefix: the anchor's name, its stored (seqnum, distance), and the
// pruned next-hop set. Safe to use without the table lock; none of the
// live advertisement state escapes with it.
type AnchorSnapshot struct {
	Anchor   pkt.Name
	Seqnum   uint32
	Distance uint16
	NextHops []*conn.Connection
}

// Anchors returns a snapshot of every anchor currently advertising
// prefix, for re-advertisement and mgmt introspection.
func (t *PrefixTable) Anchors(prefix pkt.Name) []AnchorSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	pe, ok := t.prefixes[prefix.Hash()]
	if !ok {
		return nil
	}
	now := time.Now()
	out := make([]AnchorSnapshot, 0, len(pe.anchors))
	for _, ae := range pe.anchors {
		out = append(out, AnchorSnapshot{
			Anchor:   ae.anchorName,
			Seqnum:   ae.adv.Seqnum(),
			Distance: ae.adv.Distance(),
			NextHops: ae.adv.NextHops(now),
		})
	}
	return out
}
