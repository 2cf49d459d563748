// Package config holds the per-node configuration surface: Content
// Store, PIT, FIB, and Forwarder delay knobs, and NFP protocol timers,
// each with stock defaults.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
)

// DelayConfig is the affine service-time model shared by the FIB, PIT,
// and Content Store: constant + slope*size, served by
// a configurable number of parallel servers.
type DelayConfig struct {
	Constant time.Duration `yaml:"constant"`
	Slope    time.Duration `yaml:"slope"`
	Servers  int           `yaml:"servers"`
}

// ContentStoreConfig configures the Content Store.
type ContentStoreConfig struct {
	ObjectCapacity int         `yaml:"object_capacity"`
	Delay          DelayConfig `yaml:"delay"`
}

// DefaultContentStoreConfig returns the stock defaults: capacity
// 10,000, 1µs constant, 10ns/byte slope, a single server.
func DefaultContentStoreConfig() ContentStoreConfig {
	return ContentStoreConfig{
		ObjectCapacity: 10_000,
		Delay: DelayConfig{
			Constant: 1 * time.Microsecond,
			Slope:    10 * time.Nanosecond,
			Servers:  1,
		},
	}
}

// PitConfig configures the PIT.
type PitConfig struct {
	DefaultLifetime time.Duration `yaml:"default_lifetime"`
	Delay           DelayConfig   `yaml:"delay"`
}

// DefaultPitConfig returns the stock defaults: 200ms default interest
// lifetime, same affine delay knobs as the content store.
func DefaultPitConfig() PitConfig {
	return PitConfig{
		DefaultLifetime: 200 * time.Millisecond,
		Delay: DelayConfig{
			Constant: 1 * time.Microsecond,
			Slope:    10 * time.Nanosecond,
			Servers:  1,
		},
	}
}

// FibConfig configures the FIB.
type FibConfig struct {
	Delay DelayConfig `yaml:"delay"`
}

// DefaultFibConfig returns the stock defaults.
func DefaultFibConfig() FibConfig {
	return FibConfig{
		Delay: DelayConfig{
			Constant: 1 * time.Microsecond,
			Slope:    10 * time.Nanosecond,
			Servers:  1,
		},
	}
}

// ForwarderConfig configures the Forwarder's input pipeline.
type ForwarderConfig struct {
	Delay DelayConfig `yaml:"delay"`
}

// DefaultForwarderConfig returns the stock defaults.
func DefaultForwarderConfig() ForwarderConfig {
	return ForwarderConfig{
		Delay: DelayConfig{
			Constant: 1 * time.Microsecond,
			Slope:    10 * time.Nanosecond,
			Servers:  1,
		},
	}
}

// NfpConfig configures the NFP routing protocol's timers.
type NfpConfig struct {
	HelloInterval       time.Duration `yaml:"hello_interval"`
	AdvertiseInterval   time.Duration `yaml:"advertise_interval"`
	AnchorRouteInterval time.Duration `yaml:"anchor_route_interval"`
	Jitter              time.Duration `yaml:"jitter"`
	RouteTimeout        time.Duration `yaml:"route_timeout"`
	NeighborTimeout     time.Duration `yaml:"neighbor_timeout"`
}

// DefaultNfpConfig returns the stock defaults: 2s hellos (100ms
// jitter), 5s advertise/anchor-route timers, 15s route timeout, 6s
// neighbor timeout.
func DefaultNfpConfig() NfpConfig {
	return NfpConfig{
		HelloInterval:       2 * time.Second,
		AdvertiseInterval:   5 * time.Second,
		AnchorRouteInterval: 5 * time.Second,
		Jitter:              100 * time.Millisecond,
		RouteTimeout:        15 * time.Second,
		NeighborTimeout:     6 * time.Second,
	}
}

// Config is the complete per-node configuration surface.
type Config struct {
	RouterName   string             `yaml:"router_name"`
	ContentStore ContentStoreConfig `yaml:"content_store"`
	Pit          PitConfig          `yaml:"pit"`
	Fib          FibConfig          `yaml:"fib"`
	Forwarder    ForwarderConfig    `yaml:"forwarder"`
	Nfp          NfpConfig          `yaml:"nfp"`
	// MgmtAddr is the address the mgmt HTTP/WebSocket surface listens
	// on, e.g. "127.0.0.1:9696". Empty disables it.
	MgmtAddr string `yaml:"mgmt_addr"`
}

// Default returns a Config with every component at its stock
// default.
func Default() Config {
	return Config{
		RouterName:   "/ccnfwd",
		ContentStore: DefaultContentStoreConfig(),
		Pit:          DefaultPitConfig(),
		Fib:          DefaultFibConfig(),
		Forwarder:    DefaultForwarderConfig(),
		Nfp:          DefaultNfpConfig(),
		MgmtAddr:     "127.0.0.1:9696",
	}
}

// Load reads a YAML config file, overlaying it on Default() so that an
// omitted field keeps its stock default rather than zeroing out.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}
