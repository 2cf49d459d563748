package table

import (
	"sync"
	"time"

	"github.com/parc-ccnx-archive/ccnfwd/config"
	"github.com/parc-ccnx-archive/ccnfwd/conn"
	"github.com/parc-ccnx-archive/ccnfwd/pkt"
	"github.com/parc-ccnx-archive/ccnfwd/queue"
)

// Verdict is the result of handing an Interest to the PIT.
type Verdict int

const (
	// VerdictForward means the interest should continue to the
	// Content Store / FIB: either this is a new entry, or the ingress
	// is retransmitting the same interest it already sent.
	VerdictForward Verdict = iota
	// VerdictAggregate means an interest for this name is already
	// pending from a different face; nothing further should happen.
	VerdictAggregate
)

// pitEntry is the reverse-route set and expiry shared by all three PIT
// sub-tables. An entry with expiry <= now is considered
// expired; its reverse set is cleared the next time it is touched.
type pitEntry struct {
	reverse *conn.ConnectionList
	expiry  time.Time
}

func newPitEntry() *pitEntry {
	return &pitEntry{reverse: conn.NewConnectionList()}
}

// receive applies one Interest arrival to the entry: expired entries reset,
// expiry only ever extends upward, and the verdict depends on whether
// the ingress connection is new to the reverse set.
func (e *pitEntry) receive(now time.Time, ingress *conn.Connection, newExpiry time.Time) Verdict {
	if !e.expiry.After(now) {
		e.reverse = conn.NewConnectionList()
		e.expiry = newExpiry
	} else if newExpiry.After(e.expiry) {
		e.expiry = newExpiry
	}

	if e.reverse.IsEmpty() {
		e.reverse.Add(ingress)
		return VerdictForward
	}
	if e.reverse.Contains(ingress) {
		return VerdictForward
	}
	e.reverse.Add(ingress)
	return VerdictAggregate
}

func (e *pitEntry) isLive(now time.Time) bool {
	return e.expiry.After(now)
}

// pitKey selects which of the three sub-tables an Interest
// belongs in, by most-restrictive key present: hash > name+keyid > name.
type pitKeyKind int

const (
	pitKeyName pitKeyKind = iota
	pitKeyNameKeyId
	pitKeyHash
)

func classify(i *pkt.Interest) pitKeyKind {
	switch {
	case i.ContentObjectHashRestriction != nil:
		return pitKeyHash
	case i.KeyIdRestriction != nil:
		return pitKeyNameKeyId
	default:
		return pitKeyName
	}
}

// Pit is the Pending Interest Table: three maps sharing the pitEntry
// value type, keyed by Name, (Name, KeyId), or ContentObjectHash
// respectively.
type Pit struct {
	mu           sync.Mutex // the receive and satisfy queues fire on separate timers
	byName      map[uint64]*pitEntry
	byNameKeyId map[uint64]*pitEntry
	byHash      map[uint64]*pitEntry
	cfg         config.PitConfig
	recvQueue   *queue.DelayQueue[receiveItem]
	satQueue    *queue.DelayQueue[satisfyItem]
	now         func() time.Time
}

type receiveItem struct {
	interest *pkt.Interest
	ingress  *conn.Connection
	callback func(v Verdict)
}

type satisfyItem struct {
	co       *pkt.ContentObject
	ingress  *conn.Connection
	callback func(egress *conn.ConnectionList)
}

// String identifies the PIT for logging.
func (p *Pit) String() string { return "pit" }

// NewPit constructs an empty PIT.
func NewPit(cfg config.PitConfig) *Pit {
	p := &Pit{
		byName:      make(map[uint64]*pitEntry),
		byNameKeyId: make(map[uint64]*pitEntry),
		byHash:      make(map[uint64]*pitEntry),
		cfg:         cfg,
		now:         time.Now,
	}
	p.recvQueue = queue.New(cfg.Delay.Servers, p.recvServiceTime, p.doReceive)
	p.satQueue = queue.New(cfg.Delay.Servers, p.satServiceTime, p.doSatisfy)
	return p
}

func (p *Pit) recvServiceTime(item receiveItem) time.Duration {
	return durationFor(p.cfg.Delay, item.interest.Name.ByteLength())
}

func (p *Pit) satServiceTime(item satisfyItem) time.Duration {
	return durationFor(p.cfg.Delay, item.co.Name.ByteLength())
}

// nameKeyIdHash combines a name and keyid into one map key, distinct
// from the plain name-table's key space.
func nameKeyIdHash(name pkt.Name, keyId pkt.HashValue) uint64 {
	// Fold the keyid hash into the name hash with a distinct mixing
	// constant so (name, keyid) never collides with a plain name hash
	// in a different sub-table (they live in different maps anyway,
	// but keeping this collision-free costs nothing).
	return name.Hash()*1099511628211 ^ keyId.Hash()
}

// ReceiveInterest asynchronously records an incoming Interest and
// reports whether it should be Forwarded or was Aggregated into an
// already-pending entry.
func (p *Pit) ReceiveInterest(interest *pkt.Interest, ingress *conn.Connection, callback func(v Verdict)) {
	p.recvQueue.PushBack(receiveItem{interest: interest, ingress: ingress, callback: callback})
}

func (p *Pit) doReceive(item receiveItem) {
	now := p.now()
	interest := item.interest

	lifetime := p.cfg.DefaultLifetime
	if interest.Lifetime > 0 {
		lifetime = time.Duration(interest.Lifetime) * time.Millisecond
	}
	newExpiry := now.Add(lifetime)

	p.mu.Lock()
	var table map[uint64]*pitEntry
	var key uint64
	switch classify(interest) {
	case pitKeyHash:
		table = p.byHash
		key = interest.ContentObjectHashRestriction.Hash()
	case pitKeyNameKeyId:
		table = p.byNameKeyId
		key = nameKeyIdHash(interest.Name, *interest.KeyIdRestriction)
	default:
		table = p.byName
		key = interest.Name.Hash()
	}

	e, ok := table[key]
	if !ok {
		e = newPitEntry()
		table[key] = e
	}
	verdict := e.receive(now, item.ingress, newExpiry)
	p.mu.Unlock()
	item.callback(verdict)
}

// SatisfyInterest asynchronously matches an incoming ContentObject
// against all three sub-tables that could reference it, unions their
// reverse-route sets minus the ingress connection, and removes or
// shrinks the corresponding entries.
func (p *Pit) SatisfyInterest(co *pkt.ContentObject, ingress *conn.Connection, callback func(egress *conn.ConnectionList)) {
	p.satQueue.PushBack(satisfyItem{co: co, ingress: ingress, callback: callback})
}

func (p *Pit) doSatisfy(item satisfyItem) {
	now := p.now()
	co := item.co

	p.mu.Lock()
	egress := conn.NewConnectionList()

	consume := func(table map[uint64]*pitEntry, key uint64) {
		e, ok := table[key]
		if !ok || !e.isLive(now) {
			if ok {
				delete(table, key)
			}
			return
		}
		for _, c := range e.reverse.Slice() {
			if item.ingress != nil && c.Equal(item.ingress) {
				continue
			}
			egress.Add(c)
		}
		delete(table, key)
	}

	consume(p.byName, co.Name.Hash())
	if co.KeyId != nil {
		consume(p.byNameKeyId, nameKeyIdHash(co.Name, *co.KeyId))
	}
	consume(p.byHash, co.Hash.Hash())
	p.mu.Unlock()

	item.callback(egress)
}

// Size returns the total number of live entries across all three
// sub-tables, for tests and mgmt introspection.
func (p *Pit) Size() int {
	now := p.now()

	p.mu.Lock()
	defer p.mu.Unlock()

	n := 0
	for _, e := range p.byName {
		if e.isLive(now) {
			n++
		}
	}
	for _, e := range p.byNameKeyId {
		if e.isLive(now) {
			n++
		}
	}
	for _, e := range p.byHash {
		if e.isLive(now) {
			n++
		}
	}
	return n
}
