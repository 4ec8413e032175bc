// Package config holds the single configuration struct read once at process
// entry and passed by reference to the engine and BFE, which read it but
// never mutate it (spec §9, "Global configuration").
package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// NonMonotonicPolicy controls how the engine reacts to a packet whose
// timestamp precedes the current window's start.
type NonMonotonicPolicy string

const (
	PolicyReject NonMonotonicPolicy = "reject"
	PolicyClamp  NonMonotonicPolicy = "clamp"
)

// Config is the top-level configuration for the extraction pipeline. Zero
// value is not valid; use Default() and override fields, or LoadYAML to
// overlay a file on top of Default().
type Config struct {
	WindowSeconds float64 `yaml:"window_seconds"`

	SizeBinEdges     []uint32  `yaml:"size_bin_edges"`
	DurationBinEdges []float64 `yaml:"duration_bin_edges"`

	TopKFlows uint32 `yaml:"top_k_flows"`
	TopKPorts uint32 `yaml:"top_k_ports"`

	UniqueIPCap uint32 `yaml:"unique_ip_cap"`

	NonMonotonicPolicy NonMonotonicPolicy `yaml:"nonmonotonic_policy"`

	// RollingWindow is the BFE's rolling-baseline size R (§4.4).
	RollingWindow int `yaml:"rolling_window"`

	// MaxBytesRead and ReadTimeoutSeconds bound the Packet Source (§4.1).
	// Zero means unbounded.
	MaxBytesRead       int64   `yaml:"max_bytes_read"`
	ReadTimeoutSeconds  float64 `yaml:"read_timeout_seconds"`
}

// Default returns the compile-time default configuration (spec §4.3).
func Default() *Config {
	return &Config{
		WindowSeconds:      60.0,
		SizeBinEdges:       []uint32{64, 128, 256, 512, 1024, 1518},
		DurationBinEdges:   []float64{0.1, 1, 10, 60},
		TopKFlows:          10,
		TopKPorts:          10,
		UniqueIPCap:        1_000_000,
		NonMonotonicPolicy: PolicyClamp,
		RollingWindow:      10,
		MaxBytesRead:       0,
		ReadTimeoutSeconds: 0,
	}
}

// LoadYAML overlays fields present in the YAML file at path onto cfg. Fields
// absent from the file are left untouched.
func LoadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}
	return nil
}

// Validate checks that the configuration is internally consistent, per the
// invariants implied by spec §4.3 and §7 (UsageError).
func (c *Config) Validate() error {
	if c.WindowSeconds <= 0 {
		return fmt.Errorf("window_seconds must be positive, got %v", c.WindowSeconds)
	}
	if c.TopKFlows == 0 {
		return fmt.Errorf("top_k_flows must be positive")
	}
	if c.TopKPorts == 0 {
		return fmt.Errorf("top_k_ports must be positive")
	}
	if c.UniqueIPCap == 0 {
		return fmt.Errorf("unique_ip_cap must be positive")
	}
	if c.RollingWindow <= 0 {
		return fmt.Errorf("rolling_window must be positive")
	}
	switch c.NonMonotonicPolicy {
	case PolicyReject, PolicyClamp:
	default:
		return fmt.Errorf("nonmonotonic_policy must be %q or %q, got %q", PolicyReject, PolicyClamp, c.NonMonotonicPolicy)
	}
	for i := 1; i < len(c.SizeBinEdges); i++ {
		if c.SizeBinEdges[i] <= c.SizeBinEdges[i-1] {
			return fmt.Errorf("size_bin_edges must be strictly increasing")
		}
	}
	for i := 1; i < len(c.DurationBinEdges); i++ {
		if c.DurationBinEdges[i] <= c.DurationBinEdges[i-1] {
			return fmt.Errorf("duration_bin_edges must be strictly increasing")
		}
	}
	return nil
}

// MinDuration is the floor applied to any window-duration divisor (spec
// §3's "divided ... floored at 1e-6").
const MinDuration = 1e-6

// SafeDuration returns max(d, MinDuration), guarding against division by a
// zero or negative window duration.
func SafeDuration(d float64) float64 {
	return math.Max(d, MinDuration)
}
