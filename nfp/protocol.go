package nfp

import (
	"math/rand"
	"sync"
	"time"

	"github.com/parc-ccnx-archive/ccnfwd/config"
	"github.com/parc-ccnx-archive/ccnfwd/conn"
	"github.com/parc-ccnx-archive/ccnfwd/forwarder"
	"github.com/parc-ccnx-archive/ccnfwd/log"
	"github.com/parc-ccnx-archive/ccnfwd/pkt"
)

// WellKnownName is the portal name NFP payloads are addressed to.
var WellKnownName = pkt.NameFromStr("/nfp")

// nfpInterestOverhead approximates the bytes an Interest's fixed header,
// name, and per-hop TLVs add on top of its NFP payload, subtracted from
// an interface's MTU when bounding a single broadcast.
const nfpInterestOverhead = 64

const defaultMtu = 1500

// Output delivers an encoded NfpPayload, wrapped by the caller as an
// Interest addressed to WellKnownName, for transmission on c. This is
// the transport boundary: NFP never opens a socket itself.
type Output func(c *conn.Connection, payload []byte)

// localConn is the sentinel "self" ingress used when the anchor-route
// timer injects this node's own advertisement for a locally configured
// anchor prefix. The forwarder's FIB refuses the localhost id, so a
// locally-originated prefix's own next hop is never
// actually installed as a route — exactly the semantics a local anchor
// needs: reachability bookkeeping without a forwarding entry.
var localConn = conn.NewConnection(conn.LocalhostID)

// iface is one NFP-participating adjacency: its connection and the MTU
// to use when bounding outbound payloads on it.
type iface struct {
	conn *conn.Connection
	mtu  int
}

// RoutingProtocol implements the NFP control plane: neighbor/prefix state,
// the hello/advertise/anchor-route/route-timeout timers, the work
// queue, and packet I/O over the "/nfp" portal, synchronizing the
// forwarder's FIB as prefixes become reachable or unreachable.
type RoutingProtocol struct {
	mu sync.Mutex

	routerName pkt.Name
	cfg        config.NfpConfig
	fwd        *forwarder.Forwarder
	output     Output

	neighbors *NeighborTable
	prefixes  *PrefixTable
	wq        *workQueue

	interfaces map[uint32]iface
	anchors    map[uint64]pkt.Name // locally configured anchor prefixes

	modelFib map[uint64]map[uint32]*conn.Connection // prefix hash -> installed conns

	mySeqnum       uint16
	myAnchorSeqnum uint32
	lastBroadcast  time.Time

	rng      *rand.Rand
	stopped  bool
	pwqArmed bool

	stats statCounters
}

// String identifies the protocol for logging.
func (p *RoutingProtocol) String() string { return "nfp" }

// New constructs a RoutingProtocol for routerName, wired to fwd's FIB
// and to output for transmission.
func New(cfg config.NfpConfig, routerName pkt.Name, fwd *forwarder.Forwarder, output Output) *RoutingProtocol {
	p := &RoutingProtocol{
		routerName: routerName,
		cfg:        cfg,
		fwd:        fwd,
		output:     output,
		prefixes:   NewPrefixTable(),
		wq:         newWorkQueue(),
		interfaces: make(map[uint32]iface),
		anchors:    make(map[uint64]pkt.Name),
		modelFib:   make(map[uint64]map[uint32]*conn.Connection),
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	p.neighbors = NewNeighborTable(cfg.NeighborTimeout, p.onNeighborStateChange)
	return p
}

// RegisterInterface adds c (with the given MTU) to the set of Up
// interfaces hellos and advertisements flood over.
func (p *RoutingProtocol) RegisterInterface(c *conn.Connection, mtu int) {
	if mtu <= 0 {
		mtu = defaultMtu
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.interfaces[c.ID()] = iface{conn: c, mtu: mtu}
}

// UnregisterInterface removes c from the Up interface set and withdraws
// any routes learned through it.
func (p *RoutingProtocol) UnregisterInterface(c *conn.Connection) {
	p.mu.Lock()
	delete(p.interfaces, c.ID())
	p.mu.Unlock()

	p.fwd.RemoveConnection(c)
	for _, name := range p.prefixes.RemoveConnection(c) {
		p.syncFib(name)
	}
}

// AddAnchorPrefix configures prefix as one this node originates. It
// takes effect on the next AnchorRouteTimer tick.
func (p *RoutingProtocol) AddAnchorPrefix(prefix pkt.Name) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.anchors[prefix.Hash()] = prefix
}

// Start arms the hello, advertise, anchor-route, and neighbor-check
// timers. Route-timeout pruning piggybacks on the advertise timer's
// cadence rather than its own goroutine, since both only ever need to
// run at most once per AdvertiseInterval.
func (p *RoutingProtocol) Start() {
	p.mu.Lock()
	p.stopped = false
	p.mu.Unlock()

	p.armHello()
	p.armAdvertise()
	p.armAnchorRoute()
	p.armNeighborCheck()
}

// Stop halts all future timer rearmament. In-flight timers still fire
// once but no-op.
func (p *RoutingProtocol) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopped = true
}

func (p *RoutingProtocol) isStopped() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopped
}

func (p *RoutingProtocol) withJitter(base time.Duration) time.Duration {
	if p.cfg.Jitter <= 0 {
		return base
	}
	return base + time.Duration(p.rng.Int63n(int64(p.cfg.Jitter)))
}

func (p *RoutingProtocol) armHello() {
	time.AfterFunc(p.withJitter(p.cfg.HelloInterval), func() {
		if p.isStopped() {
			return
		}
		p.helloTick()
		p.armHello()
	})
}

func (p *RoutingProtocol) armAdvertise() {
	time.AfterFunc(p.cfg.AdvertiseInterval, func() {
		if p.isStopped() {
			return
		}
		p.advertiseTick()
		p.armAdvertise()
	})
}

func (p *RoutingProtocol) armAnchorRoute() {
	time.AfterFunc(p.cfg.AnchorRouteInterval, func() {
		if p.isStopped() {
			return
		}
		p.anchorRouteTick()
		p.armAnchorRoute()
	})
}

// armNeighborCheck sweeps the neighbor table at hello cadence so
// Up->Down and Down->Dead fire even when no packets arrive at all.
func (p *RoutingProtocol) armNeighborCheck() {
	time.AfterFunc(p.withJitter(p.cfg.HelloInterval), func() {
		if p.isStopped() {
			return
		}
		p.neighbors.CheckExpiry(time.Now())
		p.armNeighborCheck()
	})
}

// helloTick implements the HelloTimer: if nothing else has
// broadcast within the last interval, emit an empty payload carrying
// only the router name and message seqnum.
func (p *RoutingProtocol) helloTick() {
	p.mu.Lock()
	due := time.Since(p.lastBroadcast) >= p.cfg.HelloInterval
	p.mu.Unlock()
	if !due {
		return
	}
	p.stats.hellosSent.Add(1)
	p.broadcast(NfpPayload{RouterName: p.routerName, Seqnum: p.nextSeqnum()})
}

// advertiseTick implements the AdvertiseTimer: requeue every
// reachable (anchor, prefix) pair, then run one RouteTimeout prune pass.
func (p *RoutingProtocol) advertiseTick() {
	for _, prefix := range p.prefixes.Prefixes() {
		for _, a := range p.prefixes.Anchors(prefix) {
			p.enqueue(a.Anchor, prefix)
		}
	}
	p.scheduleProcessWorkQueue()

	for _, name := range p.prefixes.PruneExpired(time.Now()) {
		p.syncFib(name)
		for _, a := range p.prefixes.Anchors(name) {
			p.enqueue(a.Anchor, name)
		}
	}
	if p.wq.Len() > 0 {
		p.scheduleProcessWorkQueue()
	}
}

// anchorRouteTick implements the AnchorRouteTimer: bump our
// anchor seqnum and inject a self-originated advertisement for every
// locally configured anchor prefix, causing normal propagation.
func (p *RoutingProtocol) anchorRouteTick() {
	p.mu.Lock()
	p.myAnchorSeqnum++
	seq := p.myAnchorSeqnum
	prefixes := make([]pkt.Name, 0, len(p.anchors))
	for _, name := range p.anchors {
		prefixes = append(prefixes, name)
	}
	p.mu.Unlock()

	for _, prefix := range prefixes {
		p.receiveAdvertise(p.routerName, prefix, seq, 0, localConn)
	}
}

func (p *RoutingProtocol) nextSeqnum() uint16 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mySeqnum++
	return p.mySeqnum
}

// ReceivePayload is the portal's inbound entry point: an
// Interest addressed to WellKnownName arriving from a neighbor.
func (p *RoutingProtocol) ReceivePayload(buf []byte, from *conn.Connection) {
	payload, err := DecodePayload(buf)
	if err != nil {
		p.stats.payloadsDroppedMalformed.Add(1)
		log.Warn(p, "malformed NFP payload", "err", err)
		return
	}
	if payload.RouterName.Equal(p.routerName) {
		p.stats.payloadsDroppedSelfOriginated.Add(1)
		return // our own advertisement looped back
	}

	_, inOrder := p.neighbors.ReceiveHello(payload.RouterName, from, payload.Seqnum)
	if !inOrder {
		p.stats.payloadsDroppedOutOfOrder.Add(1)
		return // out-of-order seqnum drops the whole payload
	}

	for _, m := range payload.Messages {
		switch m.Kind {
		case KindAdvertise:
			p.stats.advertisementsReceived.Add(1)
			p.receiveAdvertise(m.Anchor, m.Prefix, m.AnchorSeq, m.Distance, from)
		case KindWithdraw:
			p.stats.withdrawsReceived.Add(1)
			p.receiveWithdraw(m.Anchor, m.Prefix, from)
		}
	}
}

// receiveAdvertise feeds the advertisement into the prefix table,
// syncs the FIB on any state change, and enqueues the pair for
// re-propagation.
func (p *RoutingProtocol) receiveAdvertise(anchor, prefix pkt.Name, seqnum uint32, distance uint16, ingress *conn.Connection) {
	expiry := time.Now().Add(p.cfg.RouteTimeout)
	verdict, _ := p.prefixes.Receive(anchor, prefix, seqnum, distance, ingress, expiry)
	if verdict == VerdictIgnore {
		return
	}
	p.syncFib(prefix)
	p.enqueue(anchor, prefix)
	p.scheduleProcessWorkQueue()
}

// receiveWithdraw removes ingress from (anchor, prefix)'s next-hop set
// and syncs the FIB.
func (p *RoutingProtocol) receiveWithdraw(anchor, prefix pkt.Name, ingress *conn.Connection) {
	p.prefixes.Withdraw(anchor, prefix, ingress)
	p.syncFib(prefix)
	p.enqueue(anchor, prefix)
	p.scheduleProcessWorkQueue()
}

func (p *RoutingProtocol) enqueue(anchor, prefix pkt.Name) {
	p.wq.Enqueue(workItem{Anchor: anchor, Prefix: prefix})
}

// onNeighborStateChange withdraws every route learned through a
// neighbor that goes Down or Dead.
func (p *RoutingProtocol) onNeighborStateChange(n *Neighbor, old, new_ NeighborState) {
	log.Info(p, "neighbor state change", "name", n.Name.String(), "from", old, "to", new_)
	if new_ == NeighborUp {
		return
	}
	for _, name := range p.prefixes.RemoveConnection(n.Conn) {
		p.syncFib(name)
	}
}

// syncFib reconciles the forwarder's FIB for prefix against the prefix
// table's current aggregated next-hop set, installing new connections
// and removing stale ones, tracked through a model-FIB so only the
// diff is applied.
func (p *RoutingProtocol) syncFib(prefix pkt.Name) {
	want := p.prefixes.NextHops(prefix)
	wantSet := make(map[uint32]*conn.Connection, len(want))
	for _, c := range want {
		wantSet[c.ID()] = c
	}

	h := prefix.Hash()
	p.mu.Lock()
	defer p.mu.Unlock()

	have := p.modelFib[h]
	if have == nil {
		have = make(map[uint32]*conn.Connection)
	}

	for id, c := range wantSet {
		if _, ok := have[id]; !ok {
			p.fwd.AddRoute(c, prefix)
			have[id] = c
		}
	}
	for id, c := range have {
		if _, ok := wantSet[id]; !ok {
			p.fwd.RemoveRoute(c, prefix)
			delete(have, id)
		}
	}

	if len(have) == 0 {
		delete(p.modelFib, h)
	} else {
		p.modelFib[h] = have
	}
}

// scheduleProcessWorkQueue arms the ProcessWorkQueueTimer, coalescing
// rapid updates into a single pass. Re-arming while already
// armed is a no-op.
func (p *RoutingProtocol) scheduleProcessWorkQueue() {
	p.mu.Lock()
	if p.pwqArmed {
		p.mu.Unlock()
		return
	}
	p.pwqArmed = true
	p.mu.Unlock()

	time.AfterFunc(time.Millisecond, func() {
		p.mu.Lock()
		p.pwqArmed = false
		p.mu.Unlock()
		p.processWorkQueue()
	})
}

// processWorkQueue drains the work queue, packaging as many Advertise
// or Withdraw messages as fit within the minimum-MTU-sized payload, and
// broadcasts each payload once full or the queue empties.
func (p *RoutingProtocol) processWorkQueue() {
	items := p.wq.PopAll()
	if len(items) == 0 {
		return
	}

	budget := p.minPayloadBudget()
	payload := NfpPayload{RouterName: p.routerName, Seqnum: p.nextSeqnum()}
	size := len(payload.Encode())

	flush := func() {
		if len(payload.Messages) == 0 {
			return
		}
		p.broadcast(payload)
		payload = NfpPayload{RouterName: p.routerName, Seqnum: p.nextSeqnum()}
		size = len(payload.Encode())
	}

	for _, it := range items {
		msg, ok := p.buildMessage(it)
		if !ok {
			continue
		}
		msgSize := len(encodeMessage(msg))
		if msgSize > budget {
			// The minimum configured MTU must accommodate at
			// least one maximal message. A single oversized item is a
			// misconfiguration, not a runtime condition to swallow.
			panic("nfp: advertisement does not fit in minimum interface MTU")
		}
		if size+msgSize > budget {
			flush()
		}
		if msg.Kind == KindAdvertise {
			p.stats.advertisementsSent.Add(1)
		} else {
			p.stats.withdrawsSent.Add(1)
		}
		payload.Messages = append(payload.Messages, msg)
		size += msgSize
	}
	flush()
}

// buildMessage turns a work-queue item into the Advertise or Withdraw
// message to transmit, propagating distance+1 (standard distance-vector
// hop accounting) for a still-reachable anchor, or a Withdraw if it no
// longer has any next hop.
func (p *RoutingProtocol) buildMessage(it workItem) (Message, bool) {
	for _, a := range p.prefixes.Anchors(it.Prefix) {
		if !a.Anchor.Equal(it.Anchor) {
			continue
		}
		if len(a.NextHops) == 0 {
			break
		}
		return Message{
			Kind:      KindAdvertise,
			Anchor:    it.Anchor,
			Prefix:    it.Prefix,
			AnchorSeq: a.Seqnum,
			Distance:  a.Distance + 1,
		}, true
	}
	return Message{Kind: KindWithdraw, Anchor: it.Anchor, Prefix: it.Prefix}, true
}

// minPayloadBudget returns the minimum MTU across all Up interfaces,
// less the Interest overhead, bounding a single broadcast payload.
// With no interfaces registered it falls back to the default MTU.
func (p *RoutingProtocol) minPayloadBudget() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	min := defaultMtu
	found := false
	for _, f := range p.interfaces {
		if !found || f.mtu < min {
			min = f.mtu
			found = true
		}
	}
	budget := min - nfpInterestOverhead
	if budget < 0 {
		budget = 0
	}
	return budget
}

// broadcast transmits payload over every registered Up interface.
func (p *RoutingProtocol) broadcast(payload NfpPayload) {
	p.mu.Lock()
	p.lastBroadcast = time.Now()
	ifaces := make([]iface, 0, len(p.interfaces))
	for _, f := range p.interfaces {
		ifaces = append(ifaces, f)
	}
	p.mu.Unlock()

	buf := payload.Encode()
	for _, f := range ifaces {
		p.output(f.conn, buf)
	}
}

// CheckNeighbors runs every neighbor's timer-driven Up/Down/Dead
// transition. Exposed for callers (and tests) that want to
// drive neighbor aging deterministically rather than via wall-clock
// timers.
func (p *RoutingProtocol) CheckNeighbors(now time.Time) {
	p.neighbors.CheckExpiry(now)
}

// Neighbors returns the neighbor table, for mgmt introspection.
func (p *RoutingProtocol) Neighbors() *NeighborTable { return p.neighbors }

// Prefixes returns the prefix table, for mgmt introspection.
func (p *RoutingProtocol) Prefixes() *PrefixTable { return p.prefixes }
