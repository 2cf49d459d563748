// Package forwarder implements the forwarding pipeline: the single
// entry point for every packet arriving on any
// connection, dispatching by packet type through the PIT, Content
// Store, and FIB, and emitting packets back out on the connections
// those tables select.
package forwarder

import (
	"time"

	"github.com/parc-ccnx-archive/ccnfwd/config"
	"github.com/parc-ccnx-archive/ccnfwd/conn"
	"github.com/parc-ccnx-archive/ccnfwd/log"
	"github.com/parc-ccnx-archive/ccnfwd/pkt"
	"github.com/parc-ccnx-archive/ccnfwd/queue"
	"github.com/parc-ccnx-archive/ccnfwd/table"
)

// RouteCallback is how a Forwarder signals completion of a RouteInput or
// RouteOutput call: exactly one invocation per call, with
// the final egress connection list (possibly empty, which is a normal
// "no route"/"aggregated"/"dropped" outcome, not a failure).
type RouteCallback func(p pkt.Packet, ingress *conn.Connection, code ErrorCode, egress *conn.ConnectionList)

// Route is one (prefix, cost, connection) entry, the shape NFP's
// multipath next-hop sets and bulk FIB updates are expressed in.
// AddRoutes and RemoveRoutes ignore Cost; the FIB
// itself only tracks connection membership.
type Route struct {
	Name       pkt.Name
	Cost       uint32
	Connection *conn.Connection
}

// Forwarder is the top-level orchestration of the pipeline: one PIT, one
// Content Store, one FIB, and an input delay queue modeling the cost
// of dispatching a packet to the right sub-pipeline.
type Forwarder struct {
	pit *table.Pit
	cs  table.ContentStore
	fib *table.Fib

	callback RouteCallback

	in    *queue.DelayQueue[routeItem]
	stats statCounters
	cfg   config.ForwarderConfig
}

// routeItem is the work item queued on the forwarder's input delay
// queue: the packet plus everything needed to dispatch it once its
// simulated processing delay has elapsed.
type routeItem struct {
	packet         pkt.Packet
	ingress        *conn.Connection
	optionalEgress *conn.ConnectionList
}

// String identifies the forwarder for logging.
func (f *Forwarder) String() string { return "forwarder" }

// New constructs a Forwarder around the given tables. cs may be nil (no
// content store configured), table.NewCs's return value, or
// table.NewBadgerContentStore's return value; both concrete stores
// satisfy table.ContentStore.
// callback is invoked exactly once per RouteInput/RouteOutput call.
func New(cfg config.ForwarderConfig, pit *table.Pit, cs table.ContentStore, fib *table.Fib, callback RouteCallback) *Forwarder {
	f := &Forwarder{pit: pit, cs: cs, fib: fib, callback: callback, cfg: cfg}
	f.in = queue.New(cfg.Delay.Servers, f.serviceTime, f.dequeue)
	return f
}

func (f *Forwarder) serviceTime(item routeItem) time.Duration {
	return table.DurationForBytes(f.cfg.Delay, item.packet.ByteLength())
}

// RouteInput is the single entry point for a packet arriving on
// ingress from the network. It retains the packet for the duration of
// the pipeline and releases it once dispatch completes.
func (f *Forwarder) RouteInput(p pkt.Packet, ingress *conn.Connection) {
	f.stats.inPackets.Add(1)
	f.enqueue(p, ingress, nil)
}

// RouteOutput is the entry point for a locally originated packet;
// ingress identifies the originating local application, and a nil
// ingress is replaced by the localhost sentinel connection.
// If optionalEgress is non-nil it replaces whatever the PIT/Content
// Store/FIB pipeline would otherwise have selected.
func (f *Forwarder) RouteOutput(p pkt.Packet, ingress *conn.Connection, optionalEgress *conn.ConnectionList) {
	if ingress == nil {
		ingress = conn.NewConnection(conn.LocalhostID)
	}
	f.stats.inPackets.Add(1)
	f.enqueue(p, ingress, optionalEgress)
}

func (f *Forwarder) enqueue(p pkt.Packet, ingress *conn.Connection, optionalEgress *conn.ConnectionList) {
	p = p.Retain()
	f.in.PushBack(routeItem{packet: p, ingress: ingress, optionalEgress: optionalEgress})
}

// dequeue runs once an item's simulated processing delay has elapsed,
// dispatching it by packet type.
func (f *Forwarder) dequeue(item routeItem) {
	switch item.packet.Type() {
	case pkt.TypeInterest:
		f.routeInterest(item)
	case pkt.TypeContentObject:
		f.routeContentObject(item)
	default:
		f.stats.dropUnsupportedPacketType.Add(1)
		log.Trace(f, "dropping unsupported packet type", "type", item.packet.Type())
		f.finish(item, conn.NewConnectionList())
	}
}

func (f *Forwarder) routeInterest(item routeItem) {
	interest := item.packet.Interest()
	f.stats.interestsToPit.Add(1)

	f.pit.ReceiveInterest(interest, item.ingress, func(v table.Verdict) {
		switch v {
		case table.VerdictAggregate:
			f.stats.interestsAggregated.Add(1)
			if item.optionalEgress != nil {
				f.finish(item, item.optionalEgress)
				return
			}
			f.finish(item, conn.NewConnectionList())
		default: // VerdictForward
			f.stats.interestsForwarded.Add(1)
			f.forwardInterest(item, interest)
		}
	})
}

// forwardInterest runs the Content-Store-then-FIB half of the
// Interest path. An explicit RouteOutput optionalEgress short-circuits
// both table lookups.
func (f *Forwarder) forwardInterest(item routeItem, interest *pkt.Interest) {
	if item.optionalEgress != nil {
		f.finish(item, item.optionalEgress)
		return
	}

	if f.cs == nil {
		f.lookupFib(item, interest.Name)
		return
	}

	f.stats.interestsToCs.Add(1)
	f.cs.MatchInterest(interest, func(co *pkt.ContentObject, hit bool) {
		if !hit {
			f.stats.csMisses.Add(1)
			f.lookupFib(item, interest.Name)
			return
		}
		f.stats.csHits.Add(1)
		// On a store hit, replace the packet with the
		// matching content object, clear ingress, and hand it to
		// PIT.SatisfyInterest to fan out to every waiting reverse
		// path, as if the object had arrived from nowhere.
		f.pit.SatisfyInterest(co, nil, func(egress *conn.ConnectionList) {
			hitItem := routeItem{packet: pkt.NewContentObjectPacket(co), ingress: nil}
			f.finish(hitItem, egress)
			item.packet.Release()
		})
	})
}

func (f *Forwarder) lookupFib(item routeItem, name pkt.Name) {
	f.stats.interestsToFib.Add(1)
	f.fib.Lookup(name, item.ingress, func(egress *conn.ConnectionList) {
		f.finish(item, egress)
	})
}

func (f *Forwarder) routeContentObject(item routeItem) {
	co := item.packet.ContentObject()
	f.stats.contentObjectsToPit.Add(1)

	f.pit.SatisfyInterest(co, item.ingress, func(egress *conn.ConnectionList) {
		if item.optionalEgress != nil {
			egress = item.optionalEgress
		}

		if egress.IsEmpty() {
			f.stats.contentObjectsUnsolicited.Add(1)
			f.finish(item, egress)
			return
		}
		f.stats.contentObjectsSatisfied.Add(1)

		if f.cs == nil {
			f.finish(item, egress)
			return
		}
		f.stats.contentObjectsToCs.Add(1)
		f.cs.AddContentObject(co, egress, func() {
			f.finish(item, egress)
		})
	})
}

// finish invokes the route callback exactly once for item and releases
// its packet reference. Empty egress with ErrNone is the normal
// aggregation/miss/drop outcome; this pipeline never produces
// ErrNoRoute itself, since every table exhausts its own fallback before
// reaching here, but the code exists for symmetry with the error
// taxonomy and for callers that want to react to "no route" distinctly
// from "dropped".
func (f *Forwarder) finish(item routeItem, egress *conn.ConnectionList) {
	if !egress.IsEmpty() {
		f.stats.outPackets.Add(uint64(egress.Len()))
	}
	f.callback(item.packet, item.ingress, ErrNone, egress)
	item.packet.Release()
}

// AddRoute installs connection c as a next hop for name, refusing the
// localhost sentinel.
func (f *Forwarder) AddRoute(c *conn.Connection, name pkt.Name) {
	if c.IsLocalhost() {
		return
	}
	f.fib.AddRoute(name, c)
}

// AddRoutes installs every (prefix, cost, connection) entry in routes.
func (f *Forwarder) AddRoutes(routes []Route) {
	for _, r := range routes {
		f.AddRoute(r.Connection, r.Name)
	}
}

// RemoveRoute withdraws connection c as a next hop for name.
func (f *Forwarder) RemoveRoute(c *conn.Connection, name pkt.Name) {
	f.fib.RemoveRoute(name, c)
}

// RemoveRoutes withdraws every entry in routes, mirroring AddRoutes.
func (f *Forwarder) RemoveRoutes(routes []Route) {
	for _, r := range routes {
		f.RemoveRoute(r.Connection, r.Name)
	}
}

// RemoveConnection evicts c from the FIB entirely, e.g. when its
// underlying transport closes.
func (f *Forwarder) RemoveConnection(c *conn.Connection) {
	f.fib.RemoveConnection(c)
}

// Stats returns a point-in-time snapshot of the forwarder's counters.
func (f *Forwarder) Stats() Stats {
	return f.stats.snapshot()
}

// Fib, Pit, and Cs expose the underlying tables for mgmt introspection
// and for the NFP routing protocol's direct FIB synchronization; NFP
// is the exclusive writer of the routes it originates.
func (f *Forwarder) Fib() *table.Fib       { return f.fib }
func (f *Forwarder) Pit() *table.Pit       { return f.pit }
func (f *Forwarder) Cs() table.ContentStore { return f.cs }
