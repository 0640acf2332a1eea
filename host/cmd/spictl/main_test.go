package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"spimaster/config"
	"spimaster/core"
	"spimaster/host/master"
	"spimaster/host/sim"
)

func simDialer(s *sim.Sim) dialer {
	return func(dev string, baud int, cfg *config.Config, timeout time.Duration) (*master.Master, error) {
		return master.New(s, uint32(cfg.BaseAddress())), nil
	}
}

func TestWriteRead(t *testing.T) {
	s := sim.New(config.Default())
	var out bytes.Buffer

	if err := run([]string{"write", "clock-divisor", "0x2a"}, &out, simDialer(s)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := s.Controller.State().Clock.Divisor(); got != 0x2A {
		t.Errorf("Expected divisor 0x2a, got %#x", got)
	}

	out.Reset()
	if err := run([]string{"read", "0x00"}, &out, simDialer(s)); err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(out.String(), "clock-divisor") || !strings.Contains(out.String(), "divisor=0x2a") {
		t.Errorf("Unexpected read output: %q", out.String())
	}
}

func TestDumpSkipsRxData(t *testing.T) {
	s := sim.New(config.Default())
	s.Store(s.Adapter.Base()+core.RegTxData, 0x11)
	var out bytes.Buffer

	if err := run([]string{"dump"}, &out, simDialer(s)); err != nil {
		t.Fatalf("dump: %v", err)
	}
	if strings.Contains(out.String(), "rx-data") {
		t.Error("Expected dump to leave rx-data alone")
	}
	if !strings.Contains(out.String(), "interrupt-pending") {
		t.Errorf("Expected every other register, got %q", out.String())
	}
	if s.FIFO.RxCount() != 1 {
		t.Errorf("Expected the looped back frame still queued, got %d", s.FIFO.RxCount())
	}
}

func TestXfer(t *testing.T) {
	s := sim.New(config.Default())
	var out bytes.Buffer

	if err := run([]string{"-v", "xfer", "0x01", "0xff", "7"}, &out, simDialer(s)); err != nil {
		t.Fatalf("xfer: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "0x01 0xff 0x07" {
		t.Errorf("Expected looped back bytes, got %q", got)
	}
	core.SetDebugEnabled(false)
}

func TestUsageErrors(t *testing.T) {
	s := sim.New(config.Default())
	testCases := [][]string{
		nil,
		{"-h"},
		{"frobnicate"},
		{"read"},
		{"write", "format"},
	}

	for _, args := range testCases {
		if err := run(args, &bytes.Buffer{}, simDialer(s)); !errors.Is(err, errUsage) {
			t.Errorf("%q: expected usage error, got %v", args, err)
		}
	}
}

func TestResolve(t *testing.T) {
	cfg := config.Default()
	regs := core.NewController(cfg).Map()
	base := uint32(cfg.BaseAddress())

	testCases := []struct {
		in   string
		want uint32
	}{
		{"tx-data", base + core.RegTxData},
		{"0x4c", base + core.RegRxData},
		{"0x10014070", base + core.RegInterruptEnable},
	}
	for _, tc := range testCases {
		got, err := resolve(regs, base, tc.in)
		if err != nil || got != tc.want {
			t.Errorf("%s: expected %#x, got %#x (%v)", tc.in, tc.want, got, err)
		}
	}
	if _, err := resolve(regs, base, "nope"); err == nil {
		t.Error("Expected an error for an unknown name")
	}
}
