package nfp

import "sync/atomic"

// Stats are the NFP protocol counters, exposed as a point-in-time
// snapshot via RoutingProtocol.Stats().
type Stats struct {
	HellosSent uint64

	AdvertisementsSent     uint64
	AdvertisementsReceived uint64
	WithdrawsSent          uint64
	WithdrawsReceived      uint64

	PayloadsDroppedSelfOriginated uint64
	PayloadsDroppedOutOfOrder     uint64
	PayloadsDroppedMalformed      uint64
}

type statCounters struct {
	hellosSent atomic.Uint64

	advertisementsSent     atomic.Uint64
	advertisementsReceived atomic.Uint64
	withdrawsSent          atomic.Uint64
	withdrawsReceived      atomic.Uint64

	payloadsDroppedSelfOriginated atomic.Uint64
	payloadsDroppedOutOfOrder     atomic.Uint64
	payloadsDroppedMalformed      atomic.Uint64
}

func (c *statCounters) snapshot() Stats {
	return Stats{
		HellosSent:                    c.hellosSent.Load(),
		AdvertisementsSent:            c.advertisementsSent.Load(),
		AdvertisementsReceived:        c.advertisementsReceived.Load(),
		WithdrawsSent:                 c.withdrawsSent.Load(),
		WithdrawsReceived:             c.withdrawsReceived.Load(),
		PayloadsDroppedSelfOriginated: c.payloadsDroppedSelfOriginated.Load(),
		PayloadsDroppedOutOfOrder:     c.payloadsDroppedOutOfOrder.Load(),
		PayloadsDroppedMalformed:      c.payloadsDroppedMalformed.Load(),
	}
}

// Stats returns a snapshot of this protocol instance's counters.
func (p *RoutingProtocol) Stats() Stats {
	return p.stats.snapshot()
}
