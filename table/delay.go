package table

import (
	"time"

	"github.com/parc-ccnx-archive/ccnfwd/config"
)

// durationFor implements the affine service-time model shared by the
// FIB, PIT, and Content Store: constant + slope*size.
func durationFor(cfg config.DelayConfig, size int) time.Duration {
	return cfg.Constant + cfg.Slope*time.Duration(size)
}

// DurationForBytes is durationFor exported for the Forwarder's own input
// stage (constant + slope*packetBytes), which lives outside
// this package but shares the same affine model.
func DurationForBytes(cfg config.DelayConfig, bytes int) time.Duration {
	return durationFor(cfg, bytes)
}
