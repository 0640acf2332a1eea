//go:build rp2040

package main

import (
	"errors"
	"machine"

	pio "github.com/tinygo-org/pio/rp2-pio"
	"github.com/tinygo-org/pio/rp2-pio/piolib"
	"tinygo.org/x/drivers"

	"spimaster/frame"
)

// Bus pins, matching Klipper's spi0a assignment
const (
	pinSCK = machine.GPIO2
	pinSDO = machine.GPIO3
	pinSDI = machine.GPIO0
)

// inputClock is the clock the divisor register divides:
// SCK = inputClock / (2 * (divisor + 1))
const inputClock = 16_000_000

var errUnsupportedMode = errors.New("pio spi: clock polarity 1 not supported")

// pioPorts opens piolib SPI ports, one PIO0 state machine per supported clock
// mode. A port is built once per mode; later opens only retune its divider.
type pioPorts struct {
	ports  [2]*piolib.SPI
	active int
}

func newPIOPorts() *pioPorts {
	return &pioPorts{active: -1}
}

// Open implements frame.PortFactory
func (p *pioPorts) Open(s frame.Settings) (drivers.SPI, error) {
	if s.Mode > 1 {
		return nil, errUnsupportedMode
	}
	mode := int(s.Mode)
	freq := uint32(inputClock / (2 * (uint64(s.Divisor) + 1)))
	sm := pio.PIO0.StateMachine(uint8(mode))

	if p.active >= 0 && p.active != mode {
		pio.PIO0.StateMachine(uint8(p.active)).SetEnabled(false)
	}

	if p.ports[mode] == nil {
		spi, err := piolib.NewSPI(sm, machine.SPIConfig{
			Frequency: freq,
			SCK:       pinSCK,
			SDO:       pinSDO,
			SDI:       pinSDI,
			Mode:      s.Mode,
		})
		if err != nil {
			return nil, err
		}
		p.ports[mode] = spi
	} else {
		whole, frac, err := pio.ClkDivFromFrequency(freq, machine.CPUFrequency())
		if err != nil {
			return nil, err
		}
		sm.SetClkDiv(whole, frac)
		sm.SetEnabled(true)
	}
	p.active = mode
	return p.ports[mode], nil
}

// csPins drives the chip-select lines as plain GPIO outputs
type csPins []machine.Pin

func newCSPins(pins ...machine.Pin) csPins {
	for _, pin := range pins {
		pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
		pin.High()
	}
	return csPins(pins)
}

// Set implements frame.ChipSelectOutput
func (c csPins) Set(line int, level bool) {
	if line < len(c) {
		c[line].Set(level)
	}
}
