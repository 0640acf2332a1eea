package master

import (
	"bytes"
	"errors"
	"net"
	"testing"
	"time"

	"spimaster/bus"
	"spimaster/config"
	"spimaster/core"
	"spimaster/host/sim"
)

func TestTxLoopback(t *testing.T) {
	s := sim.New(config.Default())
	m := New(s, s.Adapter.Base())

	if err := m.Configure(DefaultSettings()); err != nil {
		t.Fatalf("configure: %v", err)
	}

	w := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	r := make([]byte, len(w))
	if err := m.Tx(w, r); err != nil {
		t.Fatalf("tx: %v", err)
	}
	if !bytes.Equal(w, r) {
		t.Errorf("Expected %x, got %x", w, r)
	}

	b, err := m.Transfer(0x5A)
	if err != nil || b != 0x5A {
		t.Errorf("Expected 0x5a, got %#x (%v)", b, err)
	}
}

func TestTxNilBuffers(t *testing.T) {
	s := sim.New(config.Default())
	m := New(s, s.Adapter.Base())

	r := []byte{0xFF, 0xFF}
	if err := m.Tx(nil, r); err != nil {
		t.Fatalf("tx: %v", err)
	}
	if !bytes.Equal(r, []byte{0, 0}) {
		t.Errorf("Expected zeros, got %x", r)
	}
	if err := m.Tx([]byte{1, 2, 3}, nil); err != nil {
		t.Fatalf("tx: %v", err)
	}
	if s.Frames.Frames() != 5 {
		t.Errorf("Expected 5 frames, got %d", s.Frames.Frames())
	}
}

func TestConfigure(t *testing.T) {
	s := sim.New(config.MustNew(func() config.Params {
		p := config.DefaultParams()
		p.ChipSelectCount = 4
		return p
	}()))
	m := New(s, s.Adapter.Base())

	err := m.Configure(Settings{
		Divisor:     7,
		Mode:        3,
		ChipSelect:  2,
		CSMode:      core.CSModeHold,
		Endian:      core.EndianLSB,
		FrameLength: 6,
	})
	if err != nil {
		t.Fatalf("configure: %v", err)
	}

	st := s.Controller.State()
	if st.Clock.Divisor() != 7 || st.Clock.Mode() != 3 {
		t.Errorf("Expected divisor 7 mode 3, got %d %d", st.Clock.Divisor(), st.Clock.Mode())
	}
	if st.ChipSelect.ID() != 2 || st.ChipSelect.Mode() != core.CSModeHold {
		t.Errorf("Expected cs 2 hold, got %d %v", st.ChipSelect.ID(), st.ChipSelect.Mode())
	}
	if st.Format.Endian() != core.EndianLSB || st.Format.Length() != 6 {
		t.Errorf("Expected lsb 6-bit frames, got %v %d", st.Format.Endian(), st.Format.Length())
	}
}

func TestConfigureRejected(t *testing.T) {
	s := sim.New(config.Default())
	m := New(s, s.Adapter.Base())

	bad := DefaultSettings()
	bad.CSMode = 1
	if err := m.Configure(bad); !errors.Is(err, core.ErrInvalidEncoding) {
		t.Errorf("Expected ErrInvalidEncoding, got %v", err)
	}
}

func TestNoResponse(t *testing.T) {
	s := sim.New(config.Default())
	m := New(s, s.Adapter.Base())
	m.Polls = 3

	// Transmit-only direction never fills rx-data
	if err := s.Store(s.Adapter.Base()+core.RegFormat, core.DirTx.Encode()<<3); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Transfer(1); !errors.Is(err, ErrNoResponse) {
		t.Errorf("Expected ErrNoResponse, got %v", err)
	}
}

func TestOverSerialLink(t *testing.T) {
	s := sim.New(config.Default())
	host, dev := net.Pipe()
	done := make(chan error, 1)
	go func() { done <- s.Serve(dev) }()

	m := New(bus.NewClient(host, time.Second), s.Adapter.Base())
	w := []byte("spi")
	r := make([]byte, len(w))
	if err := m.Tx(w, r); err != nil {
		t.Fatalf("tx: %v", err)
	}
	if !bytes.Equal(w, r) {
		t.Errorf("Expected %q, got %q", w, r)
	}

	m.Close()
	if err := <-done; err != nil {
		t.Errorf("serve: %v", err)
	}
}
