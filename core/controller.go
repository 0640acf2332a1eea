package core

import (
	"sync/atomic"

	"spimaster/config"
)

// engineRef boxes the bound FIFO engine for atomic replacement
type engineRef struct {
	FIFOEngine
}

// Controller composes a configuration, its control and interrupt state, the
// register map over them, and the bound FIFO engine.
type Controller struct {
	cfg   *config.Config
	state *ControlState
	irq   *Interrupts
	regs  *Map

	fifo atomic.Pointer[engineRef]
}

// NewController builds a controller in its reset state with no FIFO engine
// bound. Until one is bound tx-data writes are dropped, rx-data reads empty
// and both pending flags read false.
func NewController(cfg *config.Config) *Controller {
	c := &Controller{
		cfg:   cfg,
		state: NewControlState(cfg),
	}
	c.irq = newInterrupts(c.pendingSource)
	c.regs = newMap(buildRegisters(c))
	return c
}

// Config returns the controller configuration
func (c *Controller) Config() *config.Config { return c.cfg }

// State returns the live control state
func (c *Controller) State() *ControlState { return c.state }

// Interrupts returns the interrupt enables and pending view
func (c *Controller) Interrupts() *Interrupts { return c.irq }

// Map returns the register map
func (c *Controller) Map() *Map { return c.regs }

// InterruptLine returns the level of the single interrupt output
func (c *Controller) InterruptLine() bool { return c.irq.Line() }

// FIFOBinding returns the state the FIFO engine observes
func (c *Controller) FIFOBinding() FIFOBinding {
	return FIFOBinding{
		Format:     &c.state.Format,
		ChipSelect: &c.state.ChipSelect,
		Watermark:  &c.state.Watermark,
	}
}

// TimingBinding returns the state the frame/timing engine observes
func (c *Controller) TimingBinding() TimingBinding {
	return TimingBinding{
		Clock:       &c.state.Clock,
		Delay:       &c.state.Delay,
		ChipSelect:  &c.state.ChipSelect,
		Format:      &c.state.Format,
		SampleDelay: uint32(c.cfg.SampleDelay()),
	}
}

// BindFIFO attaches the FIFO engine behind tx-data, rx-data and the pending
// flags. Passing nil detaches it.
func (c *Controller) BindFIFO(e FIFOEngine) {
	if e == nil {
		c.fifo.Store(nil)
		return
	}
	c.fifo.Store(&engineRef{e})
}

// FIFO returns the bound FIFO engine or nil
func (c *Controller) FIFO() FIFOEngine {
	if ref := c.fifo.Load(); ref != nil {
		return ref.FIFOEngine
	}
	return nil
}

// Reset returns control state and interrupt enables to their defaults and
// resets the FIFO engine if it supports it.
func (c *Controller) Reset() {
	c.regs.mu.Lock()
	defer c.regs.mu.Unlock()

	c.state.Reset()
	c.irq.Reset()
	if r, ok := c.FIFO().(Resetter); ok {
		r.Reset()
	}
	DebugPrintln("[controller] reset")
}

func (c *Controller) pendingSource() PendingSource {
	if e := c.FIFO(); e != nil {
		return e
	}
	return nil
}

// enqueue is the tx-data write side effect
func (c *Controller) enqueue(f Frame) {
	e := c.FIFO()
	if e == nil || !e.TryEnqueue(f) {
		DebugPrintln("[controller] tx-data: queue full, frame dropped")
	}
}

// dequeue is the rx-data read side effect
func (c *Controller) dequeue() (Frame, bool) {
	e := c.FIFO()
	if e == nil {
		return 0, false
	}
	return e.TryDequeue()
}

func (c *Controller) txFull() bool {
	e := c.FIFO()
	return e == nil || e.TxCount() >= c.cfg.TxDepth()
}

func (c *Controller) rxEmpty() bool {
	e := c.FIFO()
	return e == nil || e.RxCount() == 0
}
