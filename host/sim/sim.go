// Package sim assembles a complete software SPI master: controller, FIFO
// engine, frame engine on a loopback port, and the bus adapter in front.
package sim

import (
	"fmt"
	"io"

	"spimaster/bus"
	"spimaster/config"
	"spimaster/core"
	"spimaster/fifo"
	"spimaster/frame"
)

// Sim is a simulated controller. Frames written to tx-data loop back into
// rx-data.
type Sim struct {
	Controller *core.Controller
	FIFO       *fifo.Engine
	Frames     *frame.Engine
	Adapter    *bus.Adapter
}

// New builds a simulator for cfg
func New(cfg *config.Config) *Sim {
	c := core.NewController(cfg)
	q := fifo.New(cfg, c.FIFOBinding())
	c.BindFIFO(q)
	return &Sim{
		Controller: c,
		FIFO:       q,
		Frames:     frame.New(c.TimingBinding(), q, frame.NewLoopback(nil), nil),
		Adapter:    bus.NewAdapter(c),
	}
}

// Load implements bus.Accessor
func (s *Sim) Load(addr uint32) (uint32, error) {
	return s.Adapter.Load(addr)
}

// Store implements bus.Accessor. Every successful store runs the frame
// engine until it stalls, so queued frames are on their way back before
// the next access.
func (s *Sim) Store(addr, v uint32) error {
	if err := s.Adapter.Store(addr, v); err != nil {
		return err
	}
	s.step()
	return nil
}

// Reset resets the controller and the frame engine
func (s *Sim) Reset() {
	s.Controller.Reset()
	s.Frames.Reset()
}

// Serve answers bus requests on rw until it closes
func (s *Sim) Serve(rw io.ReadWriter) error {
	srv := bus.NewServer(s.Adapter, rw)
	srv.AfterStore = func(uint32, uint32) { s.step() }
	return srv.Serve()
}

func (s *Sim) step() {
	if _, err := s.Frames.Flush(); err != nil {
		core.DebugPrintln(fmt.Sprintf("[sim] frame engine: %v", err))
	}
}
