// Package frame is the software frame/timing engine: it pulls frames from the
// FIFO engine handshake, drives chip select, and shifts each frame through a
// tinygo.org/x/drivers SPI port.
package frame

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tinygo.org/x/drivers"

	"spimaster/core"
)

// Settings is the serial clock configuration a port is opened with
type Settings struct {
	Mode    uint8 // polarity<<1 | phase
	Divisor uint32
}

// PortFactory opens an SPI port for the given clock settings. The engine
// calls it again whenever the clock registers change.
type PortFactory func(s Settings) (drivers.SPI, error)

// Link is the FIFO side of the engine: the handshake plus the active frame
// length in bits.
type Link interface {
	core.Handshake
	FrameLength() uint
}

// ChipSelectOutput drives physical chip-select lines. level is the electrical
// level, already combined with the line's default level.
type ChipSelectOutput interface {
	Set(line int, level bool)
}

// Engine moves frames between a Link and an SPI port.
type Engine struct {
	mu sync.Mutex

	binding core.TimingBinding
	link    Link
	open    PortFactory
	out     ChipSelectOutput

	port     drivers.SPI
	settings Settings

	asserted bool
	selected int // line held asserted while asserted is set
	lastLine int // line of the previous frame, -1 before the first

	cycles uint64
	frames uint64

	buf [8]byte
}

// New returns an engine observing b and l. The port is opened lazily on the
// first Step. out may be nil.
func New(b core.TimingBinding, l Link, open PortFactory, out ChipSelectOutput) *Engine {
	return &Engine{
		binding:  b,
		link:     l,
		open:     open,
		out:      out,
		lastLine: -1,
	}
}

// Step moves at most one frame. It reports whether a frame was transferred.
// With nothing to send it releases chip select in auto mode and refreshes
// the output lines.
//
// A frame costs setup + ceil(length/lanes)·2·(divisor+1) + hold cycles,
// plus the sample delay when the direction receives.
func (e *Engine) Step() (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer e.drive()

	cs := e.binding.ChipSelect
	mode := cs.Mode()
	if mode != core.CSModeHold {
		e.asserted = false
	}

	if !e.link.TxReady() || !e.link.RxReady() {
		return false, nil
	}
	// A zero frame length shifts nothing; frames wait for a usable length.
	n := e.link.FrameLength()
	if n == 0 {
		return false, nil
	}
	if err := e.syncPort(); err != nil {
		return false, err
	}

	line := int(cs.ID())
	delay := e.binding.Delay
	if e.frames > 0 {
		e.cycles += uint64(delay.InterFrame())
	}
	if e.lastLine >= 0 && line != e.lastLine {
		e.cycles += uint64(delay.InterCS())
	}

	if mode != core.CSModeOff {
		e.asserted = true
		e.selected = line
		e.drive()
	}
	e.cycles += uint64(delay.Setup())

	rx, err := e.shift(e.link.TxFrame(), n)
	if err != nil {
		if mode == core.CSModeAuto {
			e.asserted = false
		}
		return false, fmt.Errorf("frame: transfer: %w", err)
	}
	e.link.TxAccept()
	e.link.RxPush(rx)

	format := e.binding.Format
	lanes := format.Protocol().Lanes()
	clocks := (n + lanes - 1) / lanes
	e.cycles += uint64(clocks) * 2 * (uint64(e.settings.Divisor) + 1)
	if format.Direction().Receives() {
		e.cycles += uint64(e.binding.SampleDelay)
	}
	e.cycles += uint64(delay.Hold())
	if mode == core.CSModeAuto {
		e.asserted = false
	}
	e.frames++
	e.lastLine = line
	return true, nil
}

// Flush steps until no frame moves and returns the number transferred
func (e *Engine) Flush() (int, error) {
	n := 0
	for {
		moved, err := e.Step()
		if err != nil {
			return n, err
		}
		if !moved {
			return n, nil
		}
		n++
	}
}

// Run steps the engine until ctx is done, sleeping for idle between polls
// that move nothing.
func (e *Engine) Run(ctx context.Context, idle time.Duration) error {
	for {
		moved, err := e.Step()
		if err != nil {
			return err
		}
		if moved {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(idle):
		}
	}
}

// Level returns the electrical level of a chip-select line: its default
// level, inverted while the line is asserted.
func (e *Engine) Level(line int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.level(line)
}

// Asserted reports whether line is currently asserted
func (e *Engine) Asserted(line int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.isAsserted(line)
}

// Cycles returns the serial clock cycles accounted since the last reset
func (e *Engine) Cycles() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cycles
}

// Frames returns the number of frames transferred since the last reset
func (e *Engine) Frames() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frames
}

// Settings returns the clock settings of the open port
func (e *Engine) Settings() (Settings, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settings, e.port != nil
}

// Reset releases chip select and clears the counters. The port stays open.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.asserted = false
	e.lastLine = -1
	e.cycles = 0
	e.frames = 0
	e.drive()
}

func (e *Engine) isAsserted(line int) bool {
	return e.asserted && line == e.selected &&
		e.binding.ChipSelect.Mode() != core.CSModeOff
}

func (e *Engine) level(line int) bool {
	return e.binding.ChipSelect.DefaultLevel(line) != e.isAsserted(line)
}

func (e *Engine) drive() {
	if e.out == nil {
		return
	}
	for line := 0; line < e.binding.ChipSelect.Lines(); line++ {
		e.out.Set(line, e.level(line))
	}
}

// syncPort reopens the port when the clock registers no longer match it
func (e *Engine) syncPort() error {
	clk := e.binding.Clock
	s := Settings{Mode: clk.Mode(), Divisor: clk.Divisor()}
	if e.port != nil && s == e.settings {
		return nil
	}
	port, err := e.open(s)
	if err != nil {
		return fmt.Errorf("frame: open port: %w", err)
	}
	e.port = port
	e.settings = s
	core.DebugPrintln(fmt.Sprintf("[frame] port mode %d divisor %d", s.Mode, s.Divisor))
	return nil
}

// shift sends the low n bits of f MSB first, left aligned in ceil(n/8) bytes,
// and returns the n bits received.
func (e *Engine) shift(f core.Frame, n uint) (core.Frame, error) {
	nbytes := (n + 7) / 8
	if nbytes == 0 {
		return 0, nil
	}
	w := e.buf[:nbytes]
	r := e.buf[4 : 4+nbytes]
	pack(w, uint32(f), n)
	if err := e.port.Tx(w, r); err != nil {
		return 0, err
	}
	return core.Frame(unpack(r, n)), nil
}

func pack(b []byte, v uint32, n uint) {
	v <<= uint(len(b))*8 - n
	for i := len(b) - 1; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
}

func unpack(b []byte, n uint) uint32 {
	var v uint32
	for _, c := range b {
		v = v<<8 | uint32(c)
	}
	v >>= uint(len(b))*8 - n
	return v & core.Mask[uint32](n)
}
