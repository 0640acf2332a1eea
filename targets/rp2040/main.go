//go:build rp2040

// Firmware exposing a PIO-backed SPI master controller over USB. The host
// drives it with spictl or host/master.
package main

import (
	"machine"
	"time"

	"spimaster/bus"
	"spimaster/config"
	"spimaster/core"
	"spimaster/fifo"
	"spimaster/frame"
)

func main() {
	// Disable any watchdog left running across a reset
	if err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0}); err != nil {
		return
	}

	InitDebugUART()
	link := InitUSB()

	p := config.DefaultParams()
	p.ChipSelectCount = 2
	cfg := config.MustNew(p)

	ctrl := core.NewController(cfg)
	queue := fifo.New(cfg, ctrl.FIFOBinding())
	ctrl.BindFIFO(queue)

	cs := newCSPins(machine.GPIO1, machine.GPIO6)
	engine := frame.New(ctrl.TimingBinding(), queue, newPIOPorts().Open, cs)

	// Frame engine loop
	go func() {
		for {
			if _, err := engine.Step(); err != nil {
				core.DebugPrintln("[frame] " + err.Error())
				time.Sleep(10 * time.Millisecond)
			}
			time.Sleep(10 * time.Microsecond)
		}
	}()

	srv := bus.NewServer(bus.NewAdapter(ctrl), link)
	for {
		if err := srv.Serve(); err != nil {
			core.DebugPrintln(err.Error())
		}
		time.Sleep(time.Millisecond)
	}
}
