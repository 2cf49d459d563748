package table

import (
	"container/list"
	"sync"
	"time"

	"github.com/parc-ccnx-archive/ccnfwd/config"
	"github.com/parc-ccnx-archive/ccnfwd/conn"
	"github.com/parc-ccnx-archive/ccnfwd/pkt"
	"github.com/parc-ccnx-archive/ccnfwd/queue"
)

// ContentStore is the bounded-capacity, LRU-evicted cache of content
// objects. It is implemented as the default in-memory
// backend; table.BadgerContentStore (cs_badger.go) implements the same
// interface for deployments whose working set exceeds memory.
type ContentStore interface {
	MatchInterest(i *pkt.Interest, callback func(co *pkt.ContentObject, hit bool))
	AddContentObject(co *pkt.ContentObject, egress *conn.ConnectionList, callback func())
	DeleteContentObject(co *pkt.ContentObject)
	Size() int
	Capacity() int
}

// csEntry owns one ContentObject plus its use count and LRU position.
// Three indices (hash, name, name+keyid) may reference the same entry;
// the doubly-linked LRU list (container/list — an intrusive linked list
// has no third-party equivalent worth reaching for, so stdlib is the
// right call here) orders entries most-recently-used first.
type csEntry struct {
	co       *pkt.ContentObject
	useCount int
	expired  bool
	stale    bool
	elem     *list.Element // position in lru
}

func (e *csEntry) invalid() bool { return e.expired || e.stale }

// Cs is the default in-memory Content Store.
type Cs struct {
	mu          sync.Mutex // the match and add queues fire on separate timers
	capacity    int
	byHash      map[uint64]*csEntry
	byName      map[uint64]*csEntry
	byNameKeyId map[uint64]*csEntry
	lru         *list.List // elements are *csEntry
	cfg         config.ContentStoreConfig
	matchQ      *queue.DelayQueue[matchItem]
	addQ        *queue.DelayQueue[addItem]

	// onEvict, if set, is invoked (with mu held) for every object the
	// store evicts to make room. BadgerContentStore uses it to drop the
	// evicted payload from disk.
	onEvict func(co *pkt.ContentObject)
}

type matchItem struct {
	interest *pkt.Interest
	callback func(co *pkt.ContentObject, hit bool)
}

type addItem struct {
	co       *pkt.ContentObject
	egress   *conn.ConnectionList
	callback func()
}

// String identifies the content store for logging.
func (c *Cs) String() string { return "content-store" }

// NewCs constructs an empty Content Store using cfg's capacity and
// delay knobs.
func NewCs(cfg config.ContentStoreConfig) *Cs {
	capacity := cfg.ObjectCapacity
	if capacity <= 0 {
		capacity = 10_000
	}
	c := &Cs{
		capacity:    capacity,
		byHash:      make(map[uint64]*csEntry),
		byName:      make(map[uint64]*csEntry),
		byNameKeyId: make(map[uint64]*csEntry),
		lru:         list.New(),
		cfg:         cfg,
	}
	c.matchQ = queue.New(cfg.Delay.Servers, c.matchServiceTime, c.doMatch)
	c.addQ = queue.New(cfg.Delay.Servers, c.addServiceTime, c.doAdd)
	return c
}

func (c *Cs) matchServiceTime(item matchItem) time.Duration {
	return durationFor(c.cfg.Delay, item.interest.Name.ByteLength())
}

func (c *Cs) addServiceTime(item addItem) time.Duration {
	return durationFor(c.cfg.Delay, item.co.Name.ByteLength())
}

// MatchInterest asynchronously probes the most specific applicable
// index: hash-only, then name+keyid, then name.
func (c *Cs) MatchInterest(i *pkt.Interest, callback func(co *pkt.ContentObject, hit bool)) {
	c.matchQ.PushBack(matchItem{interest: i, callback: callback})
}

func (c *Cs) doMatch(item matchItem) {
	c.mu.Lock()
	i := item.interest
	var e *csEntry
	var table map[uint64]*csEntry
	var key uint64

	switch {
	case i.ContentObjectHashRestriction != nil:
		table, key = c.byHash, i.ContentObjectHashRestriction.Hash()
	case i.KeyIdRestriction != nil:
		table, key = c.byNameKeyId, nameKeyIdHash(i.Name, *i.KeyIdRestriction)
	default:
		table, key = c.byName, i.Name.Hash()
	}
	e = table[key]

	if e == nil {
		c.mu.Unlock()
		item.callback(nil, false)
		return
	}
	if e.invalid() {
		c.removeEntry(e)
		c.mu.Unlock()
		item.callback(nil, false)
		return
	}

	e.useCount++
	c.lru.MoveToFront(e.elem)
	co := e.co
	c.mu.Unlock()
	item.callback(co, true)
}

// AddContentObject asynchronously admits co into the store, evicting
// the LRU tail if at capacity. egress is carried through unchanged so
// the forwarder can forward after insertion completes.
func (c *Cs) AddContentObject(co *pkt.ContentObject, egress *conn.ConnectionList, callback func()) {
	c.addQ.PushBack(addItem{co: co, egress: egress, callback: callback})
}

func (c *Cs) doAdd(item addItem) {
	co := item.co
	defer item.callback()

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.byHash[co.Hash.Hash()]; exists {
		return
	}

	if len(c.byHash) >= c.capacity {
		c.evictLRU()
	}

	e := &csEntry{co: co}
	e.elem = c.lru.PushFront(e)
	c.byHash[co.Hash.Hash()] = e
	if len(co.Name) > 0 {
		c.byName[co.Name.Hash()] = e
		if co.KeyId != nil {
			c.byNameKeyId[nameKeyIdHash(co.Name, *co.KeyId)] = e
		}
	}
}

func (c *Cs) evictLRU() {
	back := c.lru.Back()
	if back == nil {
		return
	}
	e := back.Value.(*csEntry)
	c.removeEntry(e)
	if c.onEvict != nil {
		c.onEvict(e.co)
	}
}

// removeEntry deletes e from every index it occupies and from the LRU
// list.
func (c *Cs) removeEntry(e *csEntry) {
	delete(c.byHash, e.co.Hash.Hash())
	if len(e.co.Name) > 0 {
		delete(c.byName, e.co.Name.Hash())
		if e.co.KeyId != nil {
			delete(c.byNameKeyId, nameKeyIdHash(e.co.Name, *e.co.KeyId))
		}
	}
	if e.elem != nil {
		c.lru.Remove(e.elem)
		e.elem = nil
	}
}

// DeleteContentObject removes co (matched by hash) from every index.
func (c *Cs) DeleteContentObject(co *pkt.ContentObject) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.byHash[co.Hash.Hash()]; ok {
		c.removeEntry(e)
	}
}

// Size returns the number of objects currently stored.
func (c *Cs) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.byHash)
}

// Capacity returns the configured object capacity.
func (c *Cs) Capacity() int { return c.capacity }
