package core

// Register offsets from the base of the map
const (
	RegClockDivisor    = 0x00
	RegClockMode       = 0x04
	RegCSID            = 0x10
	RegCSDefault       = 0x14
	RegCSMode          = 0x18
	RegDelaySetup      = 0x28
	RegDelayHold       = 0x2C
	RegDelayInterCS    = 0x30
	RegDelayInterFrame = 0x34
	RegFormat          = 0x40
	RegFrameLength     = 0x44
	RegTxData          = 0x48
	RegRxData          = 0x4C
	RegTxWatermark     = 0x50
	RegRxWatermark     = 0x54
	RegInterruptEnable = 0x70
	RegInterruptPend   = 0x74
)

// Flag bits of the data registers
const (
	TxDataFull  = 1 << 31
	RxDataEmpty = 1 << 31
	flagShift   = 31
)

// Interrupt bits of interrupt-enable and interrupt-pending
const (
	IntTxWatermark = 1 << 0
	IntRxWatermark = 1 << 1
)

// Format register layout
const (
	fmtProtocolShift  = 0
	fmtEndianShift    = 2
	fmtDirectionShift = 3
)

func rw(name string, shift, width uint, get func() uint32, set func(uint32)) *Field {
	return &Field{Name: name, Shift: shift, Width: width, Access: AccessRW, get: get, set: set}
}

func ro(name string, shift, width uint, get func() uint32) *Field {
	return &Field{Name: name, Shift: shift, Width: width, Access: AccessRO, get: get}
}

func checked(f *Field, check func(uint32) error) *Field {
	f.check = check
	return f
}

func decodes[T any](decode func(uint32) (T, error)) func(uint32) error {
	return func(v uint32) error {
		_, err := decode(v)
		return err
	}
}

// buildRegisters lays out the register table over c's state. Field setters
// are only reached after their check passed.
func buildRegisters(c *Controller) []*Register {
	cfg := c.cfg
	s := c.state
	irq := c.irq

	frameBits := cfg.FrameBits()

	txData := &Register{
		Name:   "tx-data",
		Offset: RegTxData,
		Fields: []*Field{
			{Name: "data", Shift: 0, Width: frameBits, Access: AccessEnqueue,
				set: func(v uint32) { c.enqueue(Frame(v)) }},
			ro("full", flagShift, 1, func() uint32 { return boolBit(c.txFull()) }),
		},
		read: func() uint32 {
			return boolBit(c.txFull()) << flagShift
		},
		write: func(v uint32) {
			c.enqueue(Frame(extract(v, 0, frameBits)))
		},
	}

	rxData := &Register{
		Name:   "rx-data",
		Offset: RegRxData,
		Fields: []*Field{
			{Name: "data", Shift: 0, Width: frameBits, Access: AccessDequeue,
				get: func() uint32 {
					f, _ := c.dequeue()
					return uint32(f)
				}},
			ro("empty", flagShift, 1, func() uint32 { return boolBit(c.rxEmpty()) }),
		},
		read: func() uint32 {
			f, ok := c.dequeue()
			if !ok {
				return RxDataEmpty
			}
			return extract(uint32(f), 0, frameBits)
		},
		write: func(uint32) {},
	}

	return []*Register{
		{Name: "clock-divisor", Offset: RegClockDivisor, Fields: []*Field{
			rw("divisor", 0, cfg.DivisorBits(), s.Clock.Divisor, s.Clock.SetDivisor),
		}},
		{Name: "clock-mode", Offset: RegClockMode, Fields: []*Field{
			rw("phase", 0, 1,
				func() uint32 { return uint32(s.Clock.Phase()) },
				func(v uint32) { s.Clock.SetPhase(uint8(v)) }),
			rw("polarity", 1, 1,
				func() uint32 { return uint32(s.Clock.Polarity()) },
				func(v uint32) { s.Clock.SetPolarity(uint8(v)) }),
		}},
		{Name: "cs-id", Offset: RegCSID, Fields: []*Field{
			rw("id", 0, cfg.CSIDBits(), s.ChipSelect.ID, s.ChipSelect.SetID),
		}},
		{Name: "cs-default", Offset: RegCSDefault, Fields: []*Field{
			rw("levels", 0, uint(cfg.ChipSelectCount()), s.ChipSelect.DefaultLevels, s.ChipSelect.SetDefaultLevels),
		}},
		{Name: "cs-mode", Offset: RegCSMode, Fields: []*Field{
			checked(rw("mode", 0, csModeBits,
				func() uint32 { return s.ChipSelect.Mode().Encode() },
				func(v uint32) { _ = s.ChipSelect.SetMode(CSMode(v)) }),
				decodes(DecodeCSMode)),
		}},
		{Name: "delay-setup", Offset: RegDelaySetup, Fields: []*Field{
			rw("cs-to-sck", 0, cfg.DelayBits(), s.Delay.Setup, s.Delay.SetSetup),
		}},
		{Name: "delay-hold", Offset: RegDelayHold, Fields: []*Field{
			rw("sck-to-cs", 0, cfg.DelayBits(), s.Delay.Hold, s.Delay.SetHold),
		}},
		{Name: "delay-intercs", Offset: RegDelayInterCS, Fields: []*Field{
			rw("inter-cs", 0, cfg.DelayBits(), s.Delay.InterCS, s.Delay.SetInterCS),
		}},
		{Name: "delay-interframe", Offset: RegDelayInterFrame, Fields: []*Field{
			rw("inter-frame", 0, cfg.DelayBits(), s.Delay.InterFrame, s.Delay.SetInterFrame),
		}},
		{Name: "format", Offset: RegFormat, Fields: []*Field{
			checked(rw("protocol", fmtProtocolShift, protocolBits,
				func() uint32 { return s.Format.Protocol().Encode() },
				func(v uint32) { _ = s.Format.SetProtocol(Protocol(v)) }),
				decodes(DecodeProtocol)),
			checked(rw("endian", fmtEndianShift, endianBits,
				func() uint32 { return s.Format.Endian().Encode() },
				func(v uint32) { _ = s.Format.SetEndian(Endian(v)) }),
				decodes(DecodeEndian)),
			checked(rw("direction", fmtDirectionShift, directionBits,
				func() uint32 { return s.Format.Direction().Encode() },
				func(v uint32) { _ = s.Format.SetDirection(Direction(v)) }),
				decodes(DecodeDirection)),
		}},
		{Name: "frame-length", Offset: RegFrameLength, Fields: []*Field{
			rw("length", 0, cfg.LengthBits(), s.Format.Length, s.Format.SetLength),
		}},
		txData,
		rxData,
		{Name: "tx-watermark", Offset: RegTxWatermark, Fields: []*Field{
			rw("threshold", 0, cfg.TxDepthBits(), s.Watermark.TxMark, s.Watermark.SetTxMark),
		}},
		{Name: "rx-watermark", Offset: RegRxWatermark, Fields: []*Field{
			rw("threshold", 0, cfg.RxDepthBits(), s.Watermark.RxMark, s.Watermark.SetRxMark),
		}},
		{Name: "interrupt-enable", Offset: RegInterruptEnable, Fields: []*Field{
			rw("tx", 0, 1,
				func() uint32 { return boolBit(irq.TxEnabled()) },
				func(v uint32) { irq.SetTxEnabled(v != 0) }),
			rw("rx", 1, 1,
				func() uint32 { return boolBit(irq.RxEnabled()) },
				func(v uint32) { irq.SetRxEnabled(v != 0) }),
		}},
		{Name: "interrupt-pending", Offset: RegInterruptPend, Fields: []*Field{
			ro("tx", 0, 1, func() uint32 {
				tx, _ := irq.Pending()
				return boolBit(tx)
			}),
			ro("rx", 1, 1, func() uint32 {
				_, rx := irq.Pending()
				return boolBit(rx)
			}),
		}},
	}
}
