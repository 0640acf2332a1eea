package protocol

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestBlockRoundTrip(t *testing.T) {
	msgs := []Message{
		{Op: OpLoad, Addr: 0x10014000},
		{Op: OpStore, Addr: 0x10014048, Value: 0xA5},
		{Op: OpValue, Addr: 0x1001404C, Value: 0x80000000},
		{Op: OpAck, Addr: 0x10014048},
		{Op: OpFault, Addr: 0xFFFFFFFF, Value: 2},
	}

	var stream []byte
	seq := uint8(SeqDest)
	for _, m := range msgs {
		stream = append(stream, EncodeMessage(seq, m)...)
		seq = NextSeq(seq)
	}

	d := NewDecoder(bytes.NewReader(stream))
	seq = SeqDest
	for i, want := range msgs {
		b, err := d.Decode()
		if err != nil {
			t.Fatalf("block %d: %v", i, err)
		}
		if b.Seq != seq {
			t.Errorf("block %d: expected seq %#x, got %#x", i, seq, b.Seq)
		}
		got, err := DecodeMessage(b.Payload)
		if err != nil {
			t.Fatalf("block %d: %v", i, err)
		}
		if got != want {
			t.Errorf("block %d: expected %+v, got %+v", i, want, got)
		}
		seq = NextSeq(seq)
	}
	if _, err := d.Decode(); !errors.Is(err, io.EOF) {
		t.Errorf("Expected EOF, got %v", err)
	}
}

func TestBlockLayout(t *testing.T) {
	b, err := AppendBlock(nil, SeqDest, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{5, SeqDest, 0x9E, 0x81, SyncByte}
	if !bytes.Equal(b, want) {
		t.Errorf("Expected %x, got %x", want, b)
	}

	if _, err := AppendBlock(nil, SeqDest, make([]byte, PayloadMax+1)); !errors.Is(err, ErrBlockTooLong) {
		t.Errorf("Expected ErrBlockTooLong, got %v", err)
	}
}

func TestDecoderResync(t *testing.T) {
	good := EncodeMessage(SeqDest, Message{Op: OpLoad, Addr: 0x44})
	corrupt := EncodeMessage(NextSeq(SeqDest), Message{Op: OpStore, Addr: 0x48, Value: 7})
	corrupt[3] ^= 0xFF

	d := NewDecoder(nil)
	d.Feed([]byte{0x01, 0x02, 0x03})
	d.Feed(corrupt)
	d.Feed(good[:4])
	if got := d.DecodeAll(); len(got) != 0 {
		t.Fatalf("Expected no blocks yet, got %d", len(got))
	}
	d.Feed(good[4:])

	got := d.DecodeAll()
	if len(got) != 1 {
		t.Fatalf("Expected 1 block after resync, got %d", len(got))
	}
	m, err := DecodeMessage(got[0].Payload)
	if err != nil || m.Addr != 0x44 {
		t.Errorf("Expected load of 0x44, got %+v (%v)", m, err)
	}
	if d.Discarded == 0 {
		t.Error("Expected discarded bytes to be counted")
	}
}

func TestDecoderRejectsForeignSeq(t *testing.T) {
	b, _ := AppendBlock(nil, 0x20, AppendMessage(nil, Message{Op: OpLoad}))
	good := EncodeMessage(SeqDest, Message{Op: OpAck, Addr: 4})

	d := NewDecoder(nil)
	d.Feed(b)
	d.Feed(good)
	got := d.DecodeAll()
	if len(got) != 1 || got[0].Seq != SeqDest {
		t.Errorf("Expected only the 0x10 block, got %+v", got)
	}
}

func TestDecodeMessageErrors(t *testing.T) {
	if _, err := DecodeMessage(AppendMessage(nil, Message{Op: 9})); !errors.Is(err, ErrBadOp) {
		t.Errorf("Expected ErrBadOp, got %v", err)
	}
	if _, err := DecodeMessage([]byte{1, 2}); !errors.Is(err, ErrBufferTooSmall) {
		t.Errorf("Expected ErrBufferTooSmall, got %v", err)
	}
	if _, err := DecodeMessage([]byte{1, 2, 3, 4}); !errors.Is(err, ErrInvalidVLQ) {
		t.Errorf("Expected ErrInvalidVLQ for trailing bytes, got %v", err)
	}
}
