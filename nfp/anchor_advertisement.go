package nfp

import (
	"time"

	"github.com/parc-ccnx-archive/ccnfwd/conn"
)

// FeasibilityVerdict is the result of comparing an incoming advertisement
// against the stored best one for a (prefix, anchor) pair.
type FeasibilityVerdict int

const (
	// VerdictIgnore means the advertisement was not feasible: neither a
	// higher seqnum nor an equal-seqnum/better-or-equal distance.
	VerdictIgnore FeasibilityVerdict = iota
	// VerdictReplace means the advertisement strictly improves on the
	// stored one; the next-hop set was reset to just this one.
	VerdictReplace
	// VerdictEqualCost means the advertisement matches the stored
	// (seqnum, distance) exactly; its next hop was added to the set.
	VerdictEqualCost
)

// nextHop is one equal-cost next hop with its own independent expiry.
type nextHop struct {
	conn   *conn.Connection
	expiry time.Time
}

// AnchorAdvertisement tracks one anchor's best-known advertisement for
// one prefix: the best (seqnum, distance) seen and the set of next hops
// that share it. It is not synchronized; the owning PrefixTable holds
// its lock around every access and hands out only copied
// AnchorSnapshot views.
type AnchorAdvertisement struct {
	bestSeqnum   uint32
	bestDistance uint16
	haveBest     bool
	nextHops     []nextHop
}

func newAnchorAdvertisement() *AnchorAdvertisement {
	return &AnchorAdvertisement{}
}

// Feasible reports whether (seqnum, distance) would be accepted against
// the currently stored best: a strictly higher seqnum is
// free; an equal seqnum requires a distance no worse than stored.
func (a *AnchorAdvertisement) Feasible(seqnum uint32, distance uint16) bool {
	if !a.haveBest {
		return true
	}
	if seqGreater32(seqnum, a.bestSeqnum) {
		return true
	}
	return seqnum == a.bestSeqnum && distance <= a.bestDistance
}

// Receive applies an incoming (seqnum, distance) advertisement from
// ingress, returning the feasibility verdict. expiry is the
// time at which this next hop should be pruned absent a fresher
// advertisement.
func (a *AnchorAdvertisement) Receive(seqnum uint32, distance uint16, ingress *conn.Connection, expiry time.Time) FeasibilityVerdict {
	switch {
	case !a.haveBest || seqGreater32(seqnum, a.bestSeqnum) || (seqnum == a.bestSeqnum && distance < a.bestDistance):
		a.bestSeqnum = seqnum
		a.bestDistance = distance
		a.haveBest = true
		a.nextHops = []nextHop{{conn: ingress, expiry: expiry}}
		return VerdictReplace
	case seqnum == a.bestSeqnum && distance == a.bestDistance:
		a.addOrRefresh(ingress, expiry)
		return VerdictEqualCost
	default:
		return VerdictIgnore
	}
}

func (a *AnchorAdvertisement) addOrRefresh(c *conn.Connection, expiry time.Time) {
	for i := range a.nextHops {
		if a.nextHops[i].conn.Equal(c) {
			a.nextHops[i].expiry = expiry
			return
		}
	}
	a.nextHops = append(a.nextHops, nextHop{conn: c, expiry: expiry})
}

// Withdraw removes ingress from the next-hop set for this anchor,
// returning whether the set is now empty, meaning the prefix is now
// unreachable via this anchor.
func (a *AnchorAdvertisement) Withdraw(ingress *conn.Connection) (empty bool) {
	for i := range a.nextHops {
		if a.nextHops[i].conn.Equal(ingress) {
			a.nextHops = append(a.nextHops[:i], a.nextHops[i+1:]...)
			break
		}
	}
	return len(a.nextHops) == 0
}

// Prune removes any next hop whose expiry has passed, returning whether
// the set is now empty (the per-anchor prune pass).
func (a *AnchorAdvertisement) Prune(now time.Time) (empty bool) {
	live := a.nextHops[:0]
	for _, h := range a.nextHops {
		if h.expiry.After(now) {
			live = append(live, h)
		}
	}
	a.nextHops = live
	return len(a.nextHops) == 0
}

// NextHops returns a snapshot of the current next-hop connection set
// (after pruning expired entries).
func (a *AnchorAdvertisement) NextHops(now time.Time) []*conn.Connection {
	a.Prune(now)
	out := make([]*conn.Connection, len(a.nextHops))
	for i, h := range a.nextHops {
		out[i] = h.conn
	}
	return out
}

// Distance returns the stored best distance (anchor distance + 1 when
// re-advertising is the caller's job, this type only stores what was
// received).
func (a *AnchorAdvertisement) Distance() uint16 { return a.bestDistance }

// Seqnum returns the stored best anchor seqnum.
func (a *AnchorAdvertisement) Seqnum() uint32 { return a.bestSeqnum }
