// Package master drives a remote SPI controller as a tinygo.org/x/drivers
// SPI bus over the register bus.
package master

import (
	"errors"
	"fmt"
	"io"
	"time"

	"tinygo.org/x/drivers"

	"spimaster/bus"
	"spimaster/core"
	"spimaster/host/serial"
)

// DefaultPolls bounds the status reads spent waiting on one frame
const DefaultPolls = 100

var ErrNoResponse = errors.New("master: no frame received")

// Settings is the bus configuration written by Configure
type Settings struct {
	Divisor     uint32
	Mode        uint8 // polarity<<1 | phase
	ChipSelect  uint32
	CSMode      core.CSMode
	Endian      core.Endian
	FrameLength uint32
}

// DefaultSettings is mode 0, MSB first, 8-bit frames on chip select 0
func DefaultSettings() Settings {
	return Settings{CSMode: core.CSModeAuto, Endian: core.EndianMSB, FrameLength: 8}
}

// Master implements drivers.SPI on top of a bus.Accessor
type Master struct {
	acc  bus.Accessor
	base uint32

	// Polls bounds the tx-data and rx-data reads per frame
	Polls int
}

var _ drivers.SPI = (*Master)(nil)

// New returns a master for the controller whose window starts at base
func New(acc bus.Accessor, base uint32) *Master {
	return &Master{acc: acc, base: base, Polls: DefaultPolls}
}

// Dial opens a serial device and returns a master talking over it
func Dial(cfg *serial.Config, base uint32, timeout time.Duration) (*Master, error) {
	port, err := serial.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("master: %w", err)
	}
	if err := port.Flush(); err != nil {
		port.Close()
		return nil, fmt.Errorf("master: flush %s: %w", cfg.Device, err)
	}
	return New(bus.NewClient(port, timeout), base), nil
}

// Accessor returns the bus the master issues its loads and stores on
func (m *Master) Accessor() bus.Accessor { return m.acc }

// Configure writes clock, chip-select and format registers
func (m *Master) Configure(s Settings) error {
	format := s.Endian.Encode()<<2 | core.DirBidirectional.Encode()<<3 | core.ProtocolSingle.Encode()
	writes := []struct {
		off uint32
		v   uint32
	}{
		{core.RegClockDivisor, s.Divisor},
		{core.RegClockMode, uint32(s.Mode & 3)},
		{core.RegCSID, s.ChipSelect},
		{core.RegCSMode, s.CSMode.Encode()},
		{core.RegFormat, format},
		{core.RegFrameLength, s.FrameLength},
	}
	for _, w := range writes {
		if err := m.acc.Store(m.base+w.off, w.v); err != nil {
			return fmt.Errorf("master: configure: %w", err)
		}
	}
	return nil
}

// Transfer sends one frame and returns the frame received with it
func (m *Master) Transfer(b byte) (byte, error) {
	v, err := m.Frame(uint32(b))
	return byte(v), err
}

// Tx sends w while filling r. A nil w sends zeros; a nil r discards.
func (m *Master) Tx(w, r []byte) error {
	n := max(len(w), len(r))
	for i := 0; i < n; i++ {
		var out byte
		if i < len(w) {
			out = w[i]
		}
		in, err := m.Transfer(out)
		if err != nil {
			return err
		}
		if i < len(r) {
			r[i] = in
		}
	}
	return nil
}

// Frame sends one frame of the configured length and waits for its reply
func (m *Master) Frame(v uint32) (uint32, error) {
	if err := m.waitTxSpace(); err != nil {
		return 0, err
	}
	if err := m.acc.Store(m.base+core.RegTxData, v&^core.TxDataFull); err != nil {
		return 0, fmt.Errorf("master: tx-data: %w", err)
	}
	for i := 0; i < m.Polls; i++ {
		rx, err := m.acc.Load(m.base + core.RegRxData)
		if err != nil {
			return 0, fmt.Errorf("master: rx-data: %w", err)
		}
		if rx&core.RxDataEmpty == 0 {
			return rx, nil
		}
	}
	return 0, ErrNoResponse
}

// Close closes the underlying link if it has one
func (m *Master) Close() error {
	if c, ok := m.acc.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (m *Master) waitTxSpace() error {
	for i := 0; i < m.Polls; i++ {
		v, err := m.acc.Load(m.base + core.RegTxData)
		if err != nil {
			return fmt.Errorf("master: tx-data: %w", err)
		}
		if v&core.TxDataFull == 0 {
			return nil
		}
	}
	return fmt.Errorf("master: tx queue stayed full: %w", ErrNoResponse)
}
