// Command spisim serves a simulated SPI controller on a serial device. Every
// frame written to tx-data comes back through rx-data.
//
//	spisim [-device DEV] [-baud N] [-config FILE] [-v]
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/platinasystems/flags"
	"github.com/platinasystems/log"
	"github.com/platinasystems/parms"

	"spimaster/config"
	"spimaster/core"
	"spimaster/host/serial"
	"spimaster/host/sim"
)

func main() {
	log.Tee(os.Stderr)
	core.SetDebugWriter(func(s string) { log.Print("daemon", "debug", s) })

	if err := run(os.Args[1:]); err != nil {
		log.Print("daemon", "err", "spisim: ", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flag, args := flags.New(args, "-v")
	parm, args := parms.New(args, "-device", "-baud", "-config")
	if len(args) > 0 {
		return fmt.Errorf("%v: unexpected", args)
	}
	core.SetDebugEnabled(flag.ByName["-v"])

	cfg, err := loadConfig(parm.ByName["-config"])
	if err != nil {
		return err
	}

	sc := serial.DefaultConfig(parm.ByName["-device"])
	if sc.Device == "" {
		sc.Device = "/dev/ttyGS0"
	}
	if s := parm.ByName["-baud"]; s != "" {
		if sc.Baud, err = strconv.Atoi(s); err != nil {
			return fmt.Errorf("-baud: %w", err)
		}
	}

	port, err := serial.Open(sc)
	if err != nil {
		return err
	}
	defer port.Close()

	s := sim.New(cfg)
	log.Printf("daemon", "info", "spisim: serving %#x..%#x on %s",
		cfg.BaseAddress(), cfg.BaseAddress()+cfg.RegionSize(), port.Device())
	return s.Serve(port)
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.LoadFile(path)
}
