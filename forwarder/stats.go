package forwarder

import "sync/atomic"

// Stats are the forwarding plane's monotonically increasing counters,
// exposed as a point-in-time snapshot by Forwarder.Stats().
type Stats struct {
	InPackets  uint64
	OutPackets uint64

	DropUnsupportedPacketType uint64

	InterestsToPit      uint64
	InterestsForwarded  uint64
	InterestsAggregated uint64

	InterestsToCs uint64
	CsHits        uint64
	CsMisses      uint64

	InterestsToFib uint64

	ContentObjectsToPit       uint64
	ContentObjectsSatisfied   uint64
	ContentObjectsUnsolicited uint64

	ContentObjectsToCs uint64
}

// statCounters holds the live atomics backing a Stats snapshot.
type statCounters struct {
	inPackets  atomic.Uint64
	outPackets atomic.Uint64

	dropUnsupportedPacketType atomic.Uint64

	interestsToPit      atomic.Uint64
	interestsForwarded  atomic.Uint64
	interestsAggregated atomic.Uint64

	interestsToCs atomic.Uint64
	csHits        atomic.Uint64
	csMisses      atomic.Uint64

	interestsToFib atomic.Uint64

	contentObjectsToPit       atomic.Uint64
	contentObjectsSatisfied   atomic.Uint64
	contentObjectsUnsolicited atomic.Uint64

	contentObjectsToCs atomic.Uint64
}

// snapshot copies every counter's current value into a Stats value.
func (c *statCounters) snapshot() Stats {
	return Stats{
		InPackets:                 c.inPackets.Load(),
		OutPackets:                c.outPackets.Load(),
		DropUnsupportedPacketType: c.dropUnsupportedPacketType.Load(),
		InterestsToPit:            c.interestsToPit.Load(),
		InterestsForwarded:        c.interestsForwarded.Load(),
		InterestsAggregated:       c.interestsAggregated.Load(),
		InterestsToCs:             c.interestsToCs.Load(),
		CsHits:                    c.csHits.Load(),
		CsMisses:                  c.csMisses.Load(),
		InterestsToFib:            c.interestsToFib.Load(),
		ContentObjectsToPit:       c.contentObjectsToPit.Load(),
		ContentObjectsSatisfied:   c.contentObjectsSatisfied.Load(),
		ContentObjectsUnsolicited: c.contentObjectsUnsolicited.Load(),
		ContentObjectsToCs:        c.contentObjectsToCs.Load(),
	}
}
