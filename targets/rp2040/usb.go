//go:build rp2040

package main

import (
	"machine"
	"time"

	"spimaster/core"
)

// usbLink adapts machine.Serial, the USB CDC-ACM port on RP2040, to the
// io.ReadWriter the bus server reads blocks from.
type usbLink struct {
	idle time.Duration
}

// InitUSB configures the USB CDC port
func InitUSB() *usbLink {
	if err := machine.Serial.Configure(machine.UARTConfig{}); err != nil {
		core.DebugPrintln("[usb] configure: " + err.Error())
	}
	return &usbLink{idle: 100 * time.Microsecond}
}

// Read returns the buffered bytes, waiting until at least one arrives
func (l *usbLink) Read(p []byte) (int, error) {
	for machine.Serial.Buffered() == 0 {
		time.Sleep(l.idle)
	}
	n := 0
	for n < len(p) && machine.Serial.Buffered() > 0 {
		b, err := machine.Serial.ReadByte()
		if err != nil {
			return n, err
		}
		p[n] = b
		n++
	}
	return n, nil
}

// Write sends p, retrying partial writes
func (l *usbLink) Write(p []byte) (int, error) {
	written := 0
	for written < len(p) {
		n, err := machine.Serial.Write(p[written:])
		if err != nil {
			return written, err
		}
		written += n
	}
	return written, nil
}
