package table

import (
	"sync"

	"github.com/parc-ccnx-archive/ccnfwd/conn"
	"github.com/parc-ccnx-archive/ccnfwd/pkt"
)

// Readvertiser is notified of every FIB route change, without the FIB
// depending on whatever consumes those notifications (mgmt's event
// stream, in this repository).
type Readvertiser interface {
	Announce(name pkt.Name, c *conn.Connection)
	Withdraw(name pkt.Name, c *conn.Connection)
}

var (
	readvertiseMu sync.Mutex
	readvertisers []Readvertiser
)

// AddReadvertiser registers r to receive every future route change.
func AddReadvertiser(r Readvertiser) {
	readvertiseMu.Lock()
	defer readvertiseMu.Unlock()
	readvertisers = append(readvertisers, r)
}

// RemoveReadvertiser deregisters r. Callers that register per-instance
// subscribers (mgmt's event hub) must remove them on shutdown so
// repeated construction doesn't accumulate stale entries.
func RemoveReadvertiser(r Readvertiser) {
	readvertiseMu.Lock()
	defer readvertiseMu.Unlock()
	for i, cur := range readvertisers {
		if cur == r {
			readvertisers = append(readvertisers[:i], readvertisers[i+1:]...)
			return
		}
	}
}

// snapshotReadvertisers copies the subscriber list so notifications run
// without the registry lock (a subscriber may block briefly; the FIB's
// writer should not hold this lock meanwhile).
func snapshotReadvertisers() []Readvertiser {
	readvertiseMu.Lock()
	defer readvertiseMu.Unlock()
	return append([]Readvertiser(nil), readvertisers...)
}

func readvertiseAnnounce(name pkt.Name, c *conn.Connection) {
	for _, r := range snapshotReadvertisers() {
		r.Announce(name, c)
	}
}

func readvertiseWithdraw(name pkt.Name, c *conn.Connection) {
	for _, r := range snapshotReadvertisers() {
		r.Withdraw(name, c)
	}
}
