package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Default parameter values, matching a single-lane 8-bit controller with
// 8-entry queues.
const (
	DefaultBaseAddress     = 0x10014000
	DefaultRegionSize      = 0x1000
	DefaultDepth           = 8
	DefaultChipSelectCount = 1
	DefaultFrameBits       = 8
	DefaultDelayBits       = 8
	DefaultDivisorBits     = 12
	DefaultSampleDelay     = 2
)

// DefaultParams returns the default parameter set
func DefaultParams() Params {
	p := Params{}
	applyDefaults(&p)
	p.SampleDelay = DefaultSampleDelay
	return p
}

// Default returns the validated default configuration
func Default() *Config {
	return MustNew(DefaultParams())
}

// Load parses a JSON parameter set, fills missing values with defaults and
// validates the result.
func Load(jsonData []byte) (*Config, error) {
	var p Params

	if err := json.Unmarshal(jsonData, &p); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	applyDefaults(&p)

	return New(p)
}

// LoadFile is Load on the contents of a file
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return Load(data)
}

// applyDefaults fills in zero parameters. SampleDelay is left alone since
// zero is a meaningful value for it. A window at address zero has to be
// built with New.
func applyDefaults(p *Params) {
	if p.RegionSize == 0 {
		p.RegionSize = DefaultRegionSize
	}
	if p.BaseAddress == 0 {
		p.BaseAddress = DefaultBaseAddress
	}
	if p.RxDepth == 0 {
		p.RxDepth = DefaultDepth
	}
	if p.TxDepth == 0 {
		p.TxDepth = DefaultDepth
	}
	if p.ChipSelectCount == 0 {
		p.ChipSelectCount = DefaultChipSelectCount
	}
	if p.FrameBits == 0 {
		p.FrameBits = DefaultFrameBits
	}
	if p.DelayBits == 0 {
		p.DelayBits = DefaultDelayBits
	}
	if p.DivisorBits == 0 {
		p.DivisorBits = DefaultDivisorBits
	}
}
