package core

import "errors"

// ErrInvalidEncoding is returned when a bit pattern names no enumeration value
var ErrInvalidEncoding = errors.New("invalid field encoding")

// Widths of the enumerated register fields
const (
	csModeBits    = 2
	protocolBits  = 2
	endianBits    = 1
	directionBits = 2
)

// CSMode is the chip-select drive mode
type CSMode uint8

const (
	CSModeAuto CSMode = 0 // assert per frame, deassert after
	CSModeHold CSMode = 2 // keep the selected line asserted
	CSModeOff  CSMode = 3 // never assert
)

// DecodeCSMode maps a cs-mode field value to a CSMode
func DecodeCSMode(v uint32) (CSMode, error) {
	switch m := CSMode(v); m {
	case CSModeAuto, CSModeHold, CSModeOff:
		return m, nil
	}
	return 0, ErrInvalidEncoding
}

// Encode returns the field value of m
func (m CSMode) Encode() uint32 { return uint32(m) }

func (m CSMode) String() string {
	switch m {
	case CSModeAuto:
		return "auto"
	case CSModeHold:
		return "hold"
	case CSModeOff:
		return "off"
	}
	return "invalid"
}

// Protocol is the number of data lanes used per clock
type Protocol uint8

const (
	ProtocolSingle Protocol = iota
	ProtocolDual
	ProtocolQuad
)

// DecodeProtocol maps a format.protocol field value to a Protocol
func DecodeProtocol(v uint32) (Protocol, error) {
	if v > uint32(ProtocolQuad) {
		return 0, ErrInvalidEncoding
	}
	return Protocol(v), nil
}

// Encode returns the field value of p
func (p Protocol) Encode() uint32 { return uint32(p) }

// Lanes returns the number of data lines shifted per clock
func (p Protocol) Lanes() uint {
	return 1 << uint(p)
}

func (p Protocol) String() string {
	switch p {
	case ProtocolSingle:
		return "single"
	case ProtocolDual:
		return "dual"
	case ProtocolQuad:
		return "quad"
	}
	return "invalid"
}

// Endian is the bit order of a frame on the wire
type Endian uint8

const (
	EndianMSB Endian = iota // most significant bit first
	EndianLSB
)

// DecodeEndian maps a format.endian field value to an Endian
func DecodeEndian(v uint32) (Endian, error) {
	if v > uint32(EndianLSB) {
		return 0, ErrInvalidEncoding
	}
	return Endian(v), nil
}

// Encode returns the field value of e
func (e Endian) Encode() uint32 { return uint32(e) }

func (e Endian) String() string {
	if e == EndianLSB {
		return "lsb"
	}
	return "msb"
}

// Direction selects which queues take part in a transfer
type Direction uint8

const (
	DirBidirectional Direction = iota
	DirRx                      // receive only
	DirTx                      // transmit only
)

// DecodeDirection maps a format.direction field value to a Direction
func DecodeDirection(v uint32) (Direction, error) {
	if v > uint32(DirTx) {
		return 0, ErrInvalidEncoding
	}
	return Direction(v), nil
}

// Encode returns the field value of d
func (d Direction) Encode() uint32 { return uint32(d) }

// Transmits reports whether tx frame data reaches the wire
func (d Direction) Transmits() bool { return d != DirRx }

// Receives reports whether received frames are queued
func (d Direction) Receives() bool { return d != DirTx }

func (d Direction) String() string {
	switch d {
	case DirBidirectional:
		return "bidir"
	case DirRx:
		return "rx"
	case DirTx:
		return "tx"
	}
	return "invalid"
}
