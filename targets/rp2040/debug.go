//go:build rp2040

package main

import (
	"machine"

	"spimaster/core"
)

var debugUART *machine.UART

// InitDebugUART routes core debug output to UART1 on GPIO4 (TX) and GPIO5
// (RX) at 115200 baud, keeping USB for the register bus.
func InitDebugUART() {
	debugUART = machine.UART1
	err := debugUART.Configure(machine.UARTConfig{
		BaudRate: 115200,
		TX:       machine.GPIO4,
		RX:       machine.GPIO5,
	})
	if err != nil {
		return
	}
	core.SetDebugWriter(func(s string) {
		debugUART.Write([]byte(s))
		debugUART.Write([]byte("\r\n"))
	})
	core.SetDebugEnabled(true)
	core.DebugPrintln("=== RP2040 SPI master debug UART ===")
}
