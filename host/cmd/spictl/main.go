// Command spictl reads and writes the registers of a remote SPI controller
// and runs byte transfers through it.
//
//	spictl [-device DEV] [-baud N] [-config FILE] [-timeout D] [-v] COMMAND
//
// Commands:
//
//	read REG|ADDR          print one register
//	write REG|ADDR VALUE   store one register
//	dump                   print every register except rx-data
//	xfer BYTE...           send bytes, print the bytes received
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/platinasystems/flags"
	"github.com/platinasystems/log"
	"github.com/platinasystems/parms"

	"spimaster/bus"
	"spimaster/config"
	"spimaster/core"
	"spimaster/host/master"
	"spimaster/host/serial"
)

const usage = `usage: spictl [-device DEV] [-baud N] [-config FILE] [-timeout D] [-v] COMMAND
commands:
  read REG|ADDR
  write REG|ADDR VALUE
  dump
  xfer BYTE...`

var errUsage = errors.New(usage)

// dialer opens the link to the controller described by cfg
type dialer func(dev string, baud int, cfg *config.Config, timeout time.Duration) (*master.Master, error)

func main() {
	log.Tee(os.Stderr)
	core.SetDebugWriter(func(s string) { log.Print("debug", s) })

	if err := run(os.Args[1:], os.Stdout, dialSerial); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, usage)
			os.Exit(2)
		}
		log.Print("err", "spictl: ", err)
		os.Exit(1)
	}
}

func dialSerial(dev string, baud int, cfg *config.Config, timeout time.Duration) (*master.Master, error) {
	sc := serial.DefaultConfig(dev)
	sc.Baud = baud
	return master.Dial(sc, uint32(cfg.BaseAddress()), timeout)
}

func run(args []string, w io.Writer, dial dialer) error {
	flag, args := flags.New(args, "-v", "-h")
	parm, args := parms.New(args, "-device", "-baud", "-config", "-timeout")

	if flag.ByName["-h"] || len(args) == 0 {
		return errUsage
	}
	core.SetDebugEnabled(flag.ByName["-v"])

	cfg := config.Default()
	if path := parm.ByName["-config"]; path != "" {
		var err error
		if cfg, err = config.LoadFile(path); err != nil {
			return err
		}
	}

	dev := parm.ByName["-device"]
	if dev == "" {
		dev = "/dev/ttyACM0"
	}
	baud := serial.DefaultBaud
	if s := parm.ByName["-baud"]; s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("-baud: %w", err)
		}
		baud = n
	}
	timeout := bus.DefaultTimeout
	if s := parm.ByName["-timeout"]; s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("-timeout: %w", err)
		}
		timeout = d
	}

	// A local controller of the same shape names the registers and fields
	regs := core.NewController(cfg).Map()
	base := uint32(cfg.BaseAddress())

	cmd, args := args[0], args[1:]
	switch cmd {
	case "read", "write", "dump", "xfer":
	default:
		return fmt.Errorf("%s: unknown command: %w", cmd, errUsage)
	}

	m, err := dial(dev, baud, cfg, timeout)
	if err != nil {
		return err
	}
	defer m.Close()
	acc := m.Accessor()

	switch cmd {
	case "read":
		if len(args) != 1 {
			return errUsage
		}
		addr, err := resolve(regs, base, args[0])
		if err != nil {
			return err
		}
		v, err := acc.Load(addr)
		if err != nil {
			return err
		}
		printRegister(w, regs, base, addr, v)

	case "write":
		if len(args) != 2 {
			return errUsage
		}
		addr, err := resolve(regs, base, args[0])
		if err != nil {
			return err
		}
		v, err := strconv.ParseUint(args[1], 0, 32)
		if err != nil {
			return fmt.Errorf("value %q: %w", args[1], err)
		}
		if err := acc.Store(addr, uint32(v)); err != nil {
			return err
		}
		log.Print("info", fmt.Sprintf("spictl: wrote %#x to %#08x", v, addr))

	case "dump":
		return dump(w, acc, regs, base)

	case "xfer":
		if len(args) == 0 {
			return errUsage
		}
		out := make([]byte, len(args))
		for i, s := range args {
			b, err := strconv.ParseUint(s, 0, 8)
			if err != nil {
				return fmt.Errorf("byte %q: %w", s, err)
			}
			out[i] = byte(b)
		}
		in := make([]byte, len(out))
		if err := m.Tx(out, in); err != nil {
			return err
		}
		hex := make([]string, len(in))
		for i, b := range in {
			hex[i] = fmt.Sprintf("0x%02x", b)
		}
		fmt.Fprintln(w, strings.Join(hex, " "))
	}
	return nil
}

// resolve takes a register name, an offset below the region size or an
// absolute address
func resolve(regs *core.Map, base uint32, s string) (uint32, error) {
	if r, ok := regs.Lookup(s); ok {
		return base + r.Offset, nil
	}
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("%q: not a register or address", s)
	}
	if uint32(v) < base {
		return base + uint32(v), nil
	}
	return uint32(v), nil
}

func dump(w io.Writer, acc bus.Accessor, regs *core.Map, base uint32) error {
	for _, r := range regs.Registers() {
		// Reading rx-data pops a frame
		if r.Offset == core.RegRxData {
			continue
		}
		v, err := acc.Load(base + r.Offset)
		if err != nil {
			return err
		}
		printRegister(w, regs, base, base+r.Offset, v)
	}
	return nil
}

func printRegister(w io.Writer, regs *core.Map, base, addr, v uint32) {
	r, ok := regs.At(addr - base)
	if !ok {
		fmt.Fprintf(w, "%#08x: %#08x\n", addr, v)
		return
	}
	fields := make([]string, 0, len(r.Fields))
	for _, f := range r.Fields {
		fv := v >> f.Shift & (1<<f.Width - 1)
		fields = append(fields, fmt.Sprintf("%s=%#x", f.Name, fv))
	}
	fmt.Fprintf(w, "%-18s %#08x: %#08x  %s\n", r.Name, addr, v, strings.Join(fields, " "))
}
