// Package fifo is a software FIFO engine for the SPI controller: the tx and
// rx frame queues, their watermark comparisons, and the tx/rx handshake
// consumed by a frame engine.
package fifo

import (
	"math/bits"
	"sync"

	"spimaster/config"
	"spimaster/core"
)

// Engine implements core.FIFOEngine and core.Handshake.
//
// Host-side calls (TryEnqueue, TryDequeue) and frame-engine calls (TxFrame,
// TxAccept, RxPush) may come from different goroutines.
type Engine struct {
	mu sync.Mutex
	tx ring[core.Frame]
	rx ring[core.Frame]

	frameBits uint
	binding   core.FIFOBinding

	dropped uint32 // received frames discarded for lack of space
}

var (
	_ core.FIFOEngine = (*Engine)(nil)
	_ core.Handshake  = (*Engine)(nil)
	_ core.Resetter   = (*Engine)(nil)
)

// New returns an empty engine sized by cfg observing b
func New(cfg *config.Config, b core.FIFOBinding) *Engine {
	return &Engine{
		tx:        newRing[core.Frame](cfg.TxDepth()),
		rx:        newRing[core.Frame](cfg.RxDepth()),
		frameBits: cfg.FrameBits(),
		binding:   b,
	}
}

// TryEnqueue queues one frame for transmission, truncated to the frame width.
// It reports false without side effect when the tx queue is full.
func (e *Engine) TryEnqueue(f core.Frame) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tx.push(f & core.Frame(core.Mask[uint32](e.frameBits)))
}

// TryDequeue takes the oldest received frame
func (e *Engine) TryDequeue() (core.Frame, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rx.pop()
}

// TxPending holds while tx occupancy is at or below the tx watermark
func (e *Engine) TxPending() bool {
	e.mu.Lock()
	n := e.tx.len()
	e.mu.Unlock()
	return uint32(n) <= e.binding.Watermark.TxMark()
}

// RxPending holds while rx occupancy is at or above the rx watermark
func (e *Engine) RxPending() bool {
	e.mu.Lock()
	n := e.rx.len()
	e.mu.Unlock()
	return uint32(n) >= e.binding.Watermark.RxMark()
}

func (e *Engine) TxCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tx.len()
}

func (e *Engine) RxCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rx.len()
}

// Dropped returns the number of received frames lost to a full rx queue
func (e *Engine) Dropped() uint32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dropped
}

// TxReady reports a frame waiting for the frame engine
func (e *Engine) TxReady() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tx.len() > 0
}

// TxFrame returns the head tx frame in wire order. In receive-only direction
// the frame still paces the transfer but carries no data.
func (e *Engine) TxFrame() core.Frame {
	e.mu.Lock()
	f, _ := e.tx.peek()
	e.mu.Unlock()

	format := e.binding.Format
	if !format.Direction().Transmits() {
		return 0
	}
	return e.toWire(f)
}

// TxAccept drops the head tx frame once the frame engine has taken it
func (e *Engine) TxAccept() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tx.pop()
}

// RxReady reports whether RxPush would keep the frame. Frames that will be
// discarded anyway never hold up the frame engine.
func (e *Engine) RxReady() bool {
	if !e.capturing() {
		return true
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.rx.full()
}

// RxPush stores a frame shifted in by the frame engine. Frames are discarded
// in transmit-only direction and while chip select is held deasserted.
func (e *Engine) RxPush(f core.Frame) {
	if !e.capturing() {
		return
	}
	f = e.fromWire(f)

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.rx.push(f) {
		e.dropped++
	}
}

// Reset empties both queues
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tx.reset()
	e.rx.reset()
	e.dropped = 0
}

// FrameLength returns the active frame length in bits: the frame-length
// register limited to the configured frame width.
func (e *Engine) FrameLength() uint {
	return e.length()
}

func (e *Engine) capturing() bool {
	return e.binding.Format.Direction().Receives() &&
		e.binding.ChipSelect.Mode() != core.CSModeOff
}

// length returns the active frame length, limited to the configured width
func (e *Engine) length() uint {
	return min(uint(e.binding.Format.Length()), e.frameBits)
}

// toWire trims a queued frame to the active length and, for LSB-first
// format, reverses it so the frame engine always shifts MSB first.
func (e *Engine) toWire(f core.Frame) core.Frame {
	n := e.length()
	v := uint32(f) & core.Mask[uint32](n)
	if e.binding.Format.Endian() == core.EndianLSB {
		v = reverse(v, n)
	}
	return core.Frame(v)
}

// fromWire undoes toWire for received frames
func (e *Engine) fromWire(f core.Frame) core.Frame {
	return e.toWire(f)
}

// reverse reverses the low n bits of v
func reverse(v uint32, n uint) uint32 {
	if n == 0 {
		return 0
	}
	return bits.Reverse32(v) >> (32 - n)
}
