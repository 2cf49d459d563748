package table

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/parc-ccnx-archive/ccnfwd/config"
	"github.com/parc-ccnx-archive/ccnfwd/conn"
	"github.com/parc-ccnx-archive/ccnfwd/pkt"
)

// BadgerContentStore is a persistent Content Store backend for
// deployments whose working set exceeds memory. It
// implements the same ContentStore interface as the default in-memory
// Cs, keeping the hash/name/keyid indices and LRU order in memory (they
// are small compared to payload bytes) while payloads themselves live
// in a Badger key-value store, keyed by content object hash.
type BadgerContentStore struct {
	mu       sync.Mutex
	db       *badger.DB
	capacity int
	index    *Cs // reuse Cs's indices/LRU bookkeeping, payloads elided
}

// NewBadgerContentStore opens (or creates) a Badger database at path and
// wraps it as a ContentStore.
func NewBadgerContentStore(path string, cfg config.ContentStoreConfig) (*BadgerContentStore, error) {
	db, err := badger.Open(badger.DefaultOptions(path))
	if err != nil {
		return nil, err
	}
	capacity := cfg.ObjectCapacity
	if capacity <= 0 {
		capacity = 10_000
	}
	b := &BadgerContentStore{
		db:       db,
		capacity: capacity,
		index:    NewCs(cfg),
	}
	b.index.onEvict = func(co *pkt.ContentObject) {
		_ = b.db.Update(func(txn *badger.Txn) error {
			return txn.Delete(b.payloadKey(co.Hash))
		})
	}
	return b, nil
}

// String identifies the store for logging.
func (b *BadgerContentStore) String() string { return "content-store-badger" }

// Close releases the underlying database handle.
func (b *BadgerContentStore) Close() error {
	return b.db.Close()
}

type badgerRecord struct {
	Name    pkt.Name       `json:"name"`
	KeyId   *pkt.HashValue `json:"key_id,omitempty"`
	Hash    pkt.HashValue  `json:"hash"`
	Payload []byte         `json:"payload"`
}

func (b *BadgerContentStore) payloadKey(h pkt.HashValue) []byte {
	return append([]byte("cs/"), h[:]...)
}

// MatchInterest probes the in-memory index for a hit, then fetches the
// payload from Badger on a hit (the index alone tells us whether the
// object is present and keeps LRU order; the expensive part, the
// payload bytes, stays out of the process's heap until requested).
func (b *BadgerContentStore) MatchInterest(i *pkt.Interest, callback func(co *pkt.ContentObject, hit bool)) {
	b.index.MatchInterest(i, func(co *pkt.ContentObject, hit bool) {
		if !hit {
			callback(nil, false)
			return
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		var rec badgerRecord
		err := b.db.View(func(txn *badger.Txn) error {
			item, err := txn.Get(b.payloadKey(co.Hash))
			if err != nil {
				return err
			}
			return item.Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
		})
		if err != nil {
			callback(nil, false)
			return
		}
		callback(&pkt.ContentObject{Name: rec.Name, KeyId: rec.KeyId, Hash: rec.Hash, Payload: rec.Payload}, true)
	})
}

// AddContentObject persists co to Badger and updates the in-memory
// index; the index's eviction hook drops any displaced payload from
// disk.
func (b *BadgerContentStore) AddContentObject(co *pkt.ContentObject, egress *conn.ConnectionList, callback func()) {
	indexed := *co
	indexed.Payload = nil
	b.index.AddContentObject(&indexed, egress, func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		rec := badgerRecord{Name: co.Name, KeyId: co.KeyId, Hash: co.Hash, Payload: co.Payload}
		data, err := json.Marshal(rec)
		if err == nil {
			_ = b.db.Update(func(txn *badger.Txn) error {
				return txn.SetEntry(badger.NewEntry(b.payloadKey(co.Hash), data).WithTTL(24 * time.Hour))
			})
		}
		callback()
	})
}

// DeleteContentObject removes co from both the index and Badger.
func (b *BadgerContentStore) DeleteContentObject(co *pkt.ContentObject) {
	b.index.DeleteContentObject(co)
	b.mu.Lock()
	defer b.mu.Unlock()
	_ = b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(b.payloadKey(co.Hash))
	})
}

// Size returns the number of objects currently indexed.
func (b *BadgerContentStore) Size() int { return b.index.Size() }

// Capacity returns the configured object capacity.
func (b *BadgerContentStore) Capacity() int { return b.capacity }
