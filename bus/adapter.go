// Package bus maps a controller's register file into an address space and
// carries load/store transactions over a framed serial link.
package bus

import (
	"errors"
	"fmt"

	"spimaster/config"
	"spimaster/core"
)

// Accessor is 32-bit load/store access to the controller's address window
type Accessor interface {
	Load(addr uint32) (uint32, error)
	Store(addr, v uint32) error
}

// Adapter places a register map at the configured base address
type Adapter struct {
	cfg  *config.Config
	regs *core.Map
}

var _ Accessor = (*Adapter)(nil)

// NewAdapter returns an adapter over c's register map
func NewAdapter(c *core.Controller) *Adapter {
	return &Adapter{cfg: c.Config(), regs: c.Map()}
}

// Base returns the first address of the window
func (a *Adapter) Base() uint32 { return uint32(a.cfg.BaseAddress()) }

// Load reads the register at addr
func (a *Adapter) Load(addr uint32) (uint32, error) {
	off, err := a.offset(addr)
	if err != nil {
		return 0, err
	}
	v, err := a.regs.Read(off)
	if err != nil {
		return 0, a.fault(addr, err)
	}
	return v, nil
}

// Store writes v to the register at addr. Writes the register map rejects
// for an invalid encoding are returned as is, not as faults.
func (a *Adapter) Store(addr, v uint32) error {
	off, err := a.offset(addr)
	if err != nil {
		return err
	}
	if err := a.regs.Write(off, v); err != nil {
		return a.fault(addr, err)
	}
	return nil
}

func (a *Adapter) offset(addr uint32) (uint32, error) {
	if !a.cfg.Contains(uint64(addr)) {
		return 0, &Fault{Addr: addr, Reason: ReasonOutsideWindow}
	}
	if addr%4 != 0 {
		return 0, &Fault{Addr: addr, Reason: ReasonMisaligned}
	}
	return uint32(uint64(addr) - a.cfg.BaseAddress()), nil
}

func (a *Adapter) fault(addr uint32, err error) error {
	if errors.Is(err, core.ErrNoRegister) {
		return &Fault{Addr: addr, Reason: ReasonNoRegister}
	}
	return fmt.Errorf("bus: %#08x: %w", addr, err)
}
