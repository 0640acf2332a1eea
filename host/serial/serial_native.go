//go:build !wasm

package serial

import (
	"errors"
	"fmt"
	"io"

	"github.com/tarm/serial"
)

// NativePort wraps a tarm/serial port
type NativePort struct {
	*serial.Port
	cfg *Config
}

var _ Port = (*NativePort)(nil)

// Open opens a native serial port
func Open(cfg *Config) (*NativePort, error) {
	if cfg == nil {
		return nil, errors.New("serial: nil config")
	}

	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("serial: open %s: %w", cfg.Device, err)
	}
	return &NativePort{Port: port, cfg: cfg}, nil
}

// Device returns the path the port was opened on
func (p *NativePort) Device() string { return p.cfg.Device }

// Read reads from the port. A read that times out with no data returns
// 0, nil rather than the io.EOF the underlying file reports.
func (p *NativePort) Read(b []byte) (int, error) {
	n, err := p.Port.Read(b)
	if n == 0 && errors.Is(err, io.EOF) && p.cfg.ReadTimeout > 0 {
		return 0, nil
	}
	return n, err
}
