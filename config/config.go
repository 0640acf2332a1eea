// Package config holds the immutable parameters of an SPI master controller
// and every bit-width derived from them.
package config

import "math/bits"

// MapSpan is the number of bytes covered by the register map. A register
// window smaller than this cannot hold every register.
const MapSpan = 0x78

// Limits imposed by the 32-bit register width
const (
	MaxFrameBits       = 31 // bit 31 of the data registers carries the full/empty flag
	MaxChipSelectCount = 32
	MaxCounterBits     = 32
	MinFrameBits       = 4
	AddressSpace       = 1 << 32
)

// Params are the construction parameters of a controller.
// Zero fields are filled in by Load; New takes them as given.
type Params struct {
	BaseAddress     uint64 `json:"base_address"`
	RegionSize      uint64 `json:"region_size"`
	RxDepth         int    `json:"rx_depth"`
	TxDepth         int    `json:"tx_depth"`
	ChipSelectCount int    `json:"chip_select_count"`
	FrameBits       int    `json:"frame_bits"`
	DelayBits       int    `json:"delay_bits"`
	DivisorBits     int    `json:"divisor_bits"`
	SampleDelay     int    `json:"sample_delay"`
}

// Config is a validated, immutable controller configuration.
// It is the only place bit-widths are computed.
type Config struct {
	params Params

	rxDepthBits uint
	txDepthBits uint
	csIDBits    uint
	lengthBits  uint
	countBits   uint
}

// New validates p and derives all widths. No Config is returned on error.
func New(p Params) (*Config, error) {
	if err := validate(p); err != nil {
		return nil, err
	}

	c := &Config{
		params:      p,
		rxDepthBits: log2Ceil(uint64(p.RxDepth) + 1),
		txDepthBits: log2Ceil(uint64(p.TxDepth) + 1),
		csIDBits:    log2Ceil(uint64(p.ChipSelectCount)),
		lengthBits:  log2Floor(uint64(p.FrameBits)) + 1,
	}
	c.countBits = max(c.lengthBits, uint(p.DelayBits))

	return c, nil
}

// MustNew is New for parameters known to be valid; it panics otherwise.
func MustNew(p Params) *Config {
	c, err := New(p)
	if err != nil {
		panic(err)
	}
	return c
}

func validate(p Params) error {
	switch {
	case p.RegionSize == 0 || p.RegionSize&(p.RegionSize-1) != 0:
		return invalid("region_size", "must be a power of two")
	case p.RegionSize < MapSpan:
		return invalid("region_size", "smaller than the register map")
	case p.RegionSize > AddressSpace:
		return invalid("region_size", "larger than the 32-bit bus")
	case p.BaseAddress&(p.RegionSize-1) != 0:
		return invalid("base_address", "not aligned to region_size")
	case p.BaseAddress > AddressSpace-p.RegionSize:
		return invalid("base_address", "window does not fit the 32-bit bus")
	case p.RxDepth <= 0:
		return invalid("rx_depth", "must be positive")
	case p.TxDepth <= 0:
		return invalid("tx_depth", "must be positive")
	case p.ChipSelectCount <= 0:
		return invalid("chip_select_count", "must be positive")
	case p.ChipSelectCount > MaxChipSelectCount:
		return invalid("chip_select_count", "more lines than cs-default can hold")
	case p.FrameBits < MinFrameBits:
		return invalid("frame_bits", "must be at least 4")
	case p.FrameBits > MaxFrameBits:
		return invalid("frame_bits", "does not fit the data registers")
	case p.DelayBits <= 0 || p.DelayBits > MaxCounterBits:
		return invalid("delay_bits", "must be in 1..32")
	case p.DivisorBits <= 0 || p.DivisorBits > MaxCounterBits:
		return invalid("divisor_bits", "must be in 1..32")
	case p.SampleDelay < 0:
		return invalid("sample_delay", "must not be negative")
	}
	return nil
}

// log2Ceil returns ceil(log2(n)), with log2Ceil(1) == 0.
func log2Ceil(n uint64) uint {
	if n <= 1 {
		return 0
	}
	return uint(bits.Len64(n - 1))
}

// log2Floor returns floor(log2(n)) for n > 0.
func log2Floor(n uint64) uint {
	return uint(bits.Len64(n)) - 1
}

// Params returns a copy of the parameters the Config was built from.
func (c *Config) Params() Params { return c.params }

func (c *Config) BaseAddress() uint64 { return c.params.BaseAddress }
func (c *Config) RegionSize() uint64 { return c.params.RegionSize }
func (c *Config) RxDepth() int { return c.params.RxDepth }
func (c *Config) TxDepth() int { return c.params.TxDepth }
func (c *Config) ChipSelectCount() int { return c.params.ChipSelectCount }
func (c *Config) FrameBits() uint { return uint(c.params.FrameBits) }
func (c *Config) DelayBits() uint { return uint(c.params.DelayBits) }
func (c *Config) DivisorBits() uint { return uint(c.params.DivisorBits) }
func (c *Config) SampleDelay() int { return c.params.SampleDelay }

// RxDepthBits is the width needed to count 0..RxDepth.
func (c *Config) RxDepthBits() uint { return c.rxDepthBits }

// TxDepthBits is the width needed to count 0..TxDepth.
func (c *Config) TxDepthBits() uint { return c.txDepthBits }

// CSIDBits is the width of the chip-select id; zero with a single line.
func (c *Config) CSIDBits() uint { return c.csIDBits }

// LengthBits is the width of the frame-length field, wide enough to hold FrameBits.
func (c *Config) LengthBits() uint { return c.lengthBits }

// CountBits is the width of a counter shared by frame length and delays.
func (c *Config) CountBits() uint { return c.countBits }

// Contains reports whether addr falls inside the register window.
func (c *Config) Contains(addr uint64) bool {
	return addr >= c.params.BaseAddress && addr-c.params.BaseAddress < c.params.RegionSize
}
