package config

import (
	"errors"
	"testing"
)

func TestDefaultWidths(t *testing.T) {
	c := Default()

	if c.RxDepthBits() != 4 || c.TxDepthBits() != 4 {
		t.Errorf("Expected depth bits 4/4, got %d/%d", c.RxDepthBits(), c.TxDepthBits())
	}
	if c.CSIDBits() != 0 {
		t.Errorf("Expected 0 cs id bits for one line, got %d", c.CSIDBits())
	}
	if c.LengthBits() != 4 {
		t.Errorf("Expected 4 length bits for 8-bit frames, got %d", c.LengthBits())
	}
	if c.CountBits() != 8 {
		t.Errorf("Expected count bits 8, got %d", c.CountBits())
	}
	if c.SampleDelay() != DefaultSampleDelay {
		t.Errorf("Expected sample delay %d, got %d", DefaultSampleDelay, c.SampleDelay())
	}
}

func TestDerivedWidthLaws(t *testing.T) {
	for frameBits := MinFrameBits; frameBits <= MaxFrameBits; frameBits++ {
		for cs := 1; cs <= MaxChipSelectCount; cs++ {
			p := DefaultParams()
			p.FrameBits = frameBits
			p.ChipSelectCount = cs

			c, err := New(p)
			if err != nil {
				t.Fatalf("frame_bits=%d cs=%d: %v", frameBits, cs, err)
			}

			span := uint64(1) << c.LengthBits()
			if span <= uint64(frameBits) || span > 2*uint64(frameBits) {
				t.Errorf("frame_bits=%d: 2^lengthBits=%d out of (frameBits, 2*frameBits]", frameBits, span)
			}
			if uint64(1)<<c.CSIDBits() < uint64(cs) {
				t.Errorf("cs=%d: 2^csIdBits=%d too small", cs, uint64(1)<<c.CSIDBits())
			}
			if c.CountBits() < c.LengthBits() || c.CountBits() < c.DelayBits() {
				t.Errorf("count bits %d below length %d or delay %d", c.CountBits(), c.LengthBits(), c.DelayBits())
			}
		}
	}
}

func TestDepthBits(t *testing.T) {
	tests := []struct {
		depth int
		want  uint
	}{
		{1, 1}, {2, 2}, {3, 2}, {4, 3}, {7, 3}, {8, 4}, {15, 4}, {16, 5},
	}

	for _, tt := range tests {
		p := DefaultParams()
		p.RxDepth = tt.depth
		p.TxDepth = tt.depth
		c := MustNew(p)
		if c.RxDepthBits() != tt.want || c.TxDepthBits() != tt.want {
			t.Errorf("depth %d: expected %d bits, got rx=%d tx=%d", tt.depth, tt.want, c.RxDepthBits(), c.TxDepthBits())
		}
	}
}

func TestInvalidParams(t *testing.T) {
	tests := []struct {
		name  string
		field string
		edit  func(p *Params)
	}{
		{"region not power of two", "region_size", func(p *Params) { p.RegionSize = 0x1800 }},
		{"region zero", "region_size", func(p *Params) { p.RegionSize = 0 }},
		{"region too small", "region_size", func(p *Params) { p.RegionSize = 0x40 }},
		{"base misaligned", "base_address", func(p *Params) { p.BaseAddress = 0x10014010 }},
		{"base past 32 bits", "base_address", func(p *Params) { p.BaseAddress = 0x1_0000_0000 }},
		{"region past 32 bits", "region_size", func(p *Params) { p.RegionSize = 1 << 33 }},
		{"frame too short", "frame_bits", func(p *Params) { p.FrameBits = 3 }},
		{"frame too long", "frame_bits", func(p *Params) { p.FrameBits = 32 }},
		{"negative sample delay", "sample_delay", func(p *Params) { p.SampleDelay = -1 }},
		{"zero rx depth", "rx_depth", func(p *Params) { p.RxDepth = 0 }},
		{"negative tx depth", "tx_depth", func(p *Params) { p.TxDepth = -4 }},
		{"no chip selects", "chip_select_count", func(p *Params) { p.ChipSelectCount = 0 }},
		{"too many chip selects", "chip_select_count", func(p *Params) { p.ChipSelectCount = 33 }},
		{"zero delay bits", "delay_bits", func(p *Params) { p.DelayBits = 0 }},
		{"zero divisor bits", "divisor_bits", func(p *Params) { p.DivisorBits = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.edit(&p)

			c, err := New(p)
			if c != nil {
				t.Error("Expected no Config on validation failure")
			}
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("Expected ErrInvalid, got %v", err)
			}
			var cerr *Error
			if !errors.As(err, &cerr) {
				t.Fatalf("Expected *Error, got %T", err)
			}
			if cerr.Field != tt.field {
				t.Errorf("Expected field %q, got %q", tt.field, cerr.Field)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	c, err := Load([]byte(`{"tx_depth": 16, "chip_select_count": 4, "frame_bits": 16}`))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if c.TxDepth() != 16 || c.RxDepth() != DefaultDepth {
		t.Errorf("Expected depths 16/%d, got %d/%d", DefaultDepth, c.TxDepth(), c.RxDepth())
	}
	if c.CSIDBits() != 2 {
		t.Errorf("Expected 2 cs id bits, got %d", c.CSIDBits())
	}
	if c.LengthBits() != 5 {
		t.Errorf("Expected 5 length bits, got %d", c.LengthBits())
	}
	if c.BaseAddress() != DefaultBaseAddress || c.RegionSize() != DefaultRegionSize {
		t.Errorf("Expected default window, got %#x/%#x", c.BaseAddress(), c.RegionSize())
	}
}

func TestLoadRejects(t *testing.T) {
	if _, err := Load([]byte(`{"region_size": 3000}`)); !errors.Is(err, ErrInvalid) {
		t.Errorf("Expected ErrInvalid, got %v", err)
	}
	if _, err := Load([]byte(`{`)); err == nil || errors.Is(err, ErrInvalid) {
		t.Errorf("Expected a JSON error, got %v", err)
	}
}

func TestContains(t *testing.T) {
	c := Default()

	if !c.Contains(DefaultBaseAddress) || !c.Contains(DefaultBaseAddress+DefaultRegionSize-1) {
		t.Error("Expected window bounds to be contained")
	}
	if c.Contains(DefaultBaseAddress-1) || c.Contains(DefaultBaseAddress+DefaultRegionSize) {
		t.Error("Expected addresses outside the window to be rejected")
	}
}

func TestTopWindow(t *testing.T) {
	p := DefaultParams()
	p.BaseAddress = AddressSpace - DefaultRegionSize

	c, err := New(p)
	if err != nil {
		t.Fatalf("Expected the last window of the bus to be accepted, got %v", err)
	}
	if !c.Contains(AddressSpace - 4) {
		t.Error("Expected the top word to be contained")
	}
}
