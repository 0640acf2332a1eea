// Package serial opens the host side of the register bus link.
package serial

import (
	"io"
	"time"
)

// Port is an open serial link. Tests substitute net.Pipe ends.
type Port interface {
	io.ReadWriteCloser

	// Flush discards data received but not yet read
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyACM0", "COM3")
	Device string

	// Baud rate; USB CDC devices ignore it
	Baud int

	// ReadTimeout bounds a single read; 0 blocks
	ReadTimeout time.Duration
}

// DefaultBaud matches the Klipper-style links the targets expose
const DefaultBaud = 250000

// DefaultConfig returns the configuration used when only a device is named
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        DefaultBaud,
		ReadTimeout: 100 * time.Millisecond,
	}
}
