package bus

import (
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"spimaster/config"
	"spimaster/core"
	"spimaster/protocol"
)

const base = config.DefaultBaseAddress

func newAdapter(t *testing.T) (*core.Controller, *Adapter) {
	t.Helper()
	c := core.NewController(config.Default())
	return c, NewAdapter(c)
}

func TestAdapterLoadStore(t *testing.T) {
	_, a := newAdapter(t)

	if err := a.Store(base+core.RegClockDivisor, 0x123); err != nil {
		t.Fatalf("store: %v", err)
	}
	v, err := a.Load(base + core.RegClockDivisor)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if v != 0x123 {
		t.Errorf("Expected 0x123, got %#x", v)
	}
	if a.Base() != base {
		t.Errorf("Expected base %#x, got %#x", base, a.Base())
	}
}

func TestAdapterFaults(t *testing.T) {
	_, a := newAdapter(t)

	testCases := []struct {
		addr   uint32
		reason Reason
	}{
		{base - 4, ReasonOutsideWindow},
		{base + config.DefaultRegionSize, ReasonOutsideWindow},
		{base + 2, ReasonMisaligned},
		{base + 0x08, ReasonNoRegister},
		{base + 0x78, ReasonNoRegister},
	}

	for _, tc := range testCases {
		_, err := a.Load(tc.addr)
		var f *Fault
		if !errors.As(err, &f) || f.Reason != tc.reason || f.Addr != tc.addr {
			t.Errorf("%#x: expected %v fault, got %v", tc.addr, tc.reason, err)
		}
		if !errors.Is(err, ErrAccessFault) {
			t.Errorf("%#x: expected ErrAccessFault match", tc.addr)
		}
		if err := a.Store(tc.addr, 1); !errors.Is(err, ErrAccessFault) {
			t.Errorf("%#x: expected store fault, got %v", tc.addr, err)
		}
	}
}

func TestAdapterRejectedStore(t *testing.T) {
	_, a := newAdapter(t)

	err := a.Store(base+core.RegCSMode, 1)
	if !errors.Is(err, core.ErrInvalidEncoding) {
		t.Errorf("Expected ErrInvalidEncoding, got %v", err)
	}
	if errors.Is(err, ErrAccessFault) {
		t.Error("Expected a rejected value not to be an access fault")
	}
}

func startPair(t *testing.T, acc Accessor) *Client {
	t.Helper()
	host, dev := net.Pipe()
	srv := NewServer(acc, dev)
	done := make(chan error, 1)
	go func() { done <- srv.Serve() }()

	c := NewClient(host, time.Second)
	t.Cleanup(func() {
		c.Close()
		if err := <-done; err != nil {
			t.Errorf("serve: %v", err)
		}
	})
	return c
}

func TestClientServer(t *testing.T) {
	ctrl, a := newAdapter(t)
	c := startPair(t, a)

	if err := c.Store(base+core.RegFrameLength, 5); err != nil {
		t.Fatalf("store: %v", err)
	}
	if got := ctrl.State().Format.Length(); got != 5 {
		t.Errorf("Expected frame length 5, got %d", got)
	}

	v, err := c.Load(base + core.RegCSDefault)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if v != 1 {
		t.Errorf("Expected cs-default 1, got %#x", v)
	}

	v, err = c.Load(base + core.RegRxData)
	if err != nil || v != core.RxDataEmpty {
		t.Errorf("Expected empty rx-data, got %#x (%v)", v, err)
	}
}

func TestClientFaults(t *testing.T) {
	_, a := newAdapter(t)
	c := startPair(t, a)

	_, err := c.Load(base + 0x0C)
	var f *Fault
	if !errors.As(err, &f) || f.Reason != ReasonNoRegister {
		t.Errorf("Expected no-register fault, got %v", err)
	}

	err = c.Store(base+core.RegFormat, 3)
	if !errors.As(err, &f) || f.Reason != ReasonRejected {
		t.Errorf("Expected rejected fault, got %v", err)
	}

	// The link survives faults
	if err := c.Store(base+core.RegClockMode, 1); err != nil {
		t.Errorf("Expected store after faults to succeed, got %v", err)
	}
}

func TestAfterStoreHook(t *testing.T) {
	_, a := newAdapter(t)
	host, dev := net.Pipe()
	srv := NewServer(a, dev)

	var stored []uint32
	srv.AfterStore = func(addr, v uint32) { stored = append(stored, addr) }
	done := make(chan error, 1)
	go func() { done <- srv.Serve() }()

	c := NewClient(host, time.Second)
	c.Store(base+core.RegTxData, 1)
	c.Store(base+0x08, 1)
	c.Close()
	<-done

	if len(stored) != 1 || stored[0] != base+core.RegTxData {
		t.Errorf("Expected one hook call for tx-data, got %#x", stored)
	}
}

func TestClientTimeout(t *testing.T) {
	host, dev := net.Pipe()
	defer dev.Close()
	go func() {
		// Swallow requests without answering
		buf := make([]byte, protocol.BlockMax)
		for {
			if _, err := dev.Read(buf); err != nil {
				return
			}
		}
	}()

	c := NewClient(host, 20*time.Millisecond)
	defer c.Close()

	_, err := c.Load(base)
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("Expected ErrTimeout, got %v", err)
	}
}

func TestClientIgnoresStaleSequence(t *testing.T) {
	host, dev := net.Pipe()
	defer dev.Close()
	go func() {
		d := protocol.NewDecoder(dev)
		for {
			b, err := d.Decode()
			if err != nil {
				return
			}
			req, _ := protocol.DecodeMessage(b.Payload)
			stale := protocol.Message{Op: protocol.OpValue, Addr: req.Addr, Value: 0xBAD}
			dev.Write(protocol.EncodeMessage(protocol.NextSeq(b.Seq), stale))
			good := protocol.Message{Op: protocol.OpValue, Addr: req.Addr, Value: 0x600D}
			dev.Write(protocol.EncodeMessage(b.Seq, good))
		}
	}()

	c := NewClient(host, time.Second)
	defer c.Close()

	v, err := c.Load(base)
	if err != nil || v != 0x600D {
		t.Errorf("Expected 0x600d, got %#x (%v)", v, err)
	}
}

func TestConcurrentClose(t *testing.T) {
	host, dev := net.Pipe()
	defer dev.Close()
	c := NewClient(host, time.Second)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = c.Close()
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("Expected nil from Close %d, got %v", i, err)
		}
	}
	if _, err := c.Load(base); err == nil {
		t.Error("Expected load on a closed client to fail")
	}
}
