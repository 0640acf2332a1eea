package core

import (
	"sync/atomic"

	"spimaster/config"
)

// Frame is one unit of serial data held in a queue
type Frame uint32

// cell is a single width-limited control field. Loads and stores are atomic
// per cell; nothing spans cells.
type cell struct {
	v     atomic.Uint32
	width uint
}

func (c *cell) load() uint32 { return c.v.Load() }

func (c *cell) store(v uint32) { c.v.Store(v & Mask[uint32](c.width)) }

// ClockState holds the serial clock controls
type ClockState struct {
	divisor  cell
	phase    cell
	polarity cell
}

func (s *ClockState) Divisor() uint32 { return s.divisor.load() }
func (s *ClockState) Phase() uint8 { return uint8(s.phase.load()) }
func (s *ClockState) Polarity() uint8 { return uint8(s.polarity.load()) }
func (s *ClockState) SetDivisor(v uint32) { s.divisor.store(v) }
func (s *ClockState) SetPhase(v uint8) { s.phase.store(uint32(v)) }
func (s *ClockState) SetPolarity(v uint8) { s.polarity.store(uint32(v)) }

// Mode returns the conventional SPI mode number, CPOL<<1 | CPHA
func (s *ClockState) Mode() uint8 {
	return s.Polarity()<<1 | s.Phase()
}

// DelayState holds the four chip-select and frame spacing counters, in
// serial clock cycles
type DelayState struct {
	setup      cell // chip-select assert to first clock edge
	hold       cell // last clock edge to chip-select deassert
	interCS    cell // minimum deasserted time between chip selects
	interFrame cell // gap between frames without a chip-select change
}

func (s *DelayState) Setup() uint32 { return s.setup.load() }
func (s *DelayState) Hold() uint32 { return s.hold.load() }
func (s *DelayState) InterCS() uint32 { return s.interCS.load() }
func (s *DelayState) InterFrame() uint32 { return s.interFrame.load() }
func (s *DelayState) SetSetup(v uint32) { s.setup.store(v) }
func (s *DelayState) SetHold(v uint32) { s.hold.store(v) }
func (s *DelayState) SetInterCS(v uint32) { s.interCS.store(v) }
func (s *DelayState) SetInterFrame(v uint32) { s.interFrame.store(v) }

// ChipSelectState holds the chip-select controls
type ChipSelectState struct {
	id       cell
	defaults cell // idle level per line, bit i for line i
	mode     cell
	lines    int
}

func (s *ChipSelectState) ID() uint32 { return s.id.load() }
func (s *ChipSelectState) DefaultLevels() uint32 { return s.defaults.load() }
func (s *ChipSelectState) Lines() int { return s.lines }
func (s *ChipSelectState) SetID(v uint32) { s.id.store(v) }
func (s *ChipSelectState) SetDefaultLevels(v uint32) { s.defaults.store(v) }

// DefaultLevel returns the idle level of one line; out of range lines idle high.
func (s *ChipSelectState) DefaultLevel(line int) bool {
	if line < 0 || line >= s.lines {
		return true
	}
	return extract(s.defaults.load(), uint(line), 1) != 0
}

// Mode returns the drive mode
func (s *ChipSelectState) Mode() CSMode {
	return CSMode(s.mode.load())
}

// SetMode stores m if it is a defined drive mode
func (s *ChipSelectState) SetMode(m CSMode) error {
	if _, err := DecodeCSMode(m.Encode()); err != nil {
		return err
	}
	s.mode.store(m.Encode())
	return nil
}

// FormatState holds the frame format controls
type FormatState struct {
	protocol  cell
	endian    cell
	direction cell
	length    cell
}

func (s *FormatState) Protocol() Protocol { return Protocol(s.protocol.load()) }
func (s *FormatState) Endian() Endian { return Endian(s.endian.load()) }
func (s *FormatState) Direction() Direction { return Direction(s.direction.load()) }
func (s *FormatState) Length() uint32 { return s.length.load() }
func (s *FormatState) SetLength(v uint32) { s.length.store(v) }

// SetProtocol stores p if it is a defined lane count
func (s *FormatState) SetProtocol(p Protocol) error {
	if _, err := DecodeProtocol(p.Encode()); err != nil {
		return err
	}
	s.protocol.store(p.Encode())
	return nil
}

// SetEndian stores e if it is a defined bit order
func (s *FormatState) SetEndian(e Endian) error {
	if _, err := DecodeEndian(e.Encode()); err != nil {
		return err
	}
	s.endian.store(e.Encode())
	return nil
}

// SetDirection stores d if it is a defined direction
func (s *FormatState) SetDirection(d Direction) error {
	if _, err := DecodeDirection(d.Encode()); err != nil {
		return err
	}
	s.direction.store(d.Encode())
	return nil
}

// WatermarkState holds the queue thresholds behind the pending flags
type WatermarkState struct {
	tx cell
	rx cell
}

func (s *WatermarkState) TxMark() uint32 { return s.tx.load() }
func (s *WatermarkState) RxMark() uint32 { return s.rx.load() }
func (s *WatermarkState) SetTxMark(v uint32) { s.tx.store(v) }
func (s *WatermarkState) SetRxMark(v uint32) { s.rx.store(v) }

// ControlState is the host-writable state of a controller. Every field is
// independently addressable; there is no operation that reads or writes the
// state as a whole.
type ControlState struct {
	cfg *config.Config

	Clock      ClockState
	Delay      DelayState
	ChipSelect ChipSelectState
	Format     FormatState
	Watermark  WatermarkState
}

// NewControlState returns state sized by cfg and set to reset defaults.
func NewControlState(cfg *config.Config) *ControlState {
	s := &ControlState{cfg: cfg}

	s.Clock.divisor.width = cfg.DivisorBits()
	s.Clock.phase.width = 1
	s.Clock.polarity.width = 1

	s.Delay.setup.width = cfg.DelayBits()
	s.Delay.hold.width = cfg.DelayBits()
	s.Delay.interCS.width = cfg.DelayBits()
	s.Delay.interFrame.width = cfg.DelayBits()

	s.ChipSelect.id.width = cfg.CSIDBits()
	s.ChipSelect.defaults.width = uint(cfg.ChipSelectCount())
	s.ChipSelect.mode.width = csModeBits
	s.ChipSelect.lines = cfg.ChipSelectCount()

	s.Format.protocol.width = protocolBits
	s.Format.endian.width = endianBits
	s.Format.direction.width = directionBits
	s.Format.length.width = cfg.LengthBits()

	s.Watermark.tx.width = cfg.TxDepthBits()
	s.Watermark.rx.width = cfg.RxDepthBits()

	s.Reset()
	return s
}

// Reset restores every field to its reset default, one field at a time.
func (s *ControlState) Reset() {
	s.Clock.divisor.store(0)
	s.Clock.phase.store(0)
	s.Clock.polarity.store(0)

	s.Delay.setup.store(0)
	s.Delay.hold.store(0)
	s.Delay.interCS.store(0)
	s.Delay.interFrame.store(0)

	s.ChipSelect.id.store(0)
	s.ChipSelect.defaults.store(Mask[uint32](uint(s.ChipSelect.lines)))
	s.ChipSelect.mode.store(CSModeAuto.Encode())

	s.Format.protocol.store(ProtocolSingle.Encode())
	s.Format.endian.store(EndianMSB.Encode())
	s.Format.direction.store(DirBidirectional.Encode())
	s.Format.length.store(uint32(s.cfg.FrameBits()))

	s.Watermark.tx.store(0)
	s.Watermark.rx.store(0)
}

// Config returns the configuration the state was sized from
func (s *ControlState) Config() *config.Config { return s.cfg }
