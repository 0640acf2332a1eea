package protocol

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

var ErrBlockTooLong = errors.New("protocol: block too long")

// AppendBlock frames payload with seq and appends the block to dst
func AppendBlock(dst []byte, seq uint8, payload []byte) ([]byte, error) {
	n := BlockMin + len(payload)
	if n > BlockMax {
		return dst, fmt.Errorf("%w: %d bytes (max %d)", ErrBlockTooLong, n, BlockMax)
	}
	start := len(dst)
	dst = append(dst, byte(n), seq)
	dst = append(dst, payload...)
	crc := CRC16(dst[start:])
	return append(dst, byte(crc>>8), byte(crc), SyncByte), nil
}

// Decoder reads blocks from a byte stream. Garbage, bad lengths and CRC
// errors drop it out of sync; it resynchronizes after the next sync byte.
type Decoder struct {
	r      io.Reader
	buf    []byte
	chunk  [BlockMax]byte
	synced bool

	// Discarded counts the bytes skipped while resynchronizing
	Discarded int
}

// NewDecoder returns a decoder reading from r
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r, synced: true}
}

// Decode returns the next valid block. It returns the reader's error once
// no complete block is buffered.
func (d *Decoder) Decode() (Block, error) {
	for {
		if b, ok := d.next(); ok {
			return b, nil
		}
		n, err := d.r.Read(d.chunk[:])
		d.buf = append(d.buf, d.chunk[:n]...)
		if err != nil {
			if b, ok := d.next(); ok {
				return b, nil
			}
			return Block{}, err
		}
	}
}

// Feed appends raw bytes for DecodeAll
func (d *Decoder) Feed(p []byte) {
	d.buf = append(d.buf, p...)
}

// DecodeAll returns every complete block buffered by Feed
func (d *Decoder) DecodeAll() []Block {
	var out []Block
	for {
		b, ok := d.next()
		if !ok {
			return out
		}
		out = append(out, b)
	}
}

// next parses one block out of buf, consuming what it examined
func (d *Decoder) next() (Block, bool) {
	for len(d.buf) > 0 {
		if !d.synced {
			i := bytes.IndexByte(d.buf, SyncByte)
			if i < 0 {
				d.Discarded += len(d.buf)
				d.buf = d.buf[:0]
				return Block{}, false
			}
			d.Discarded += i + 1
			d.consume(i + 1)
			d.synced = true
			continue
		}

		if d.buf[0] == SyncByte {
			d.consume(1)
			continue
		}
		if len(d.buf) < BlockMin {
			return Block{}, false
		}

		n := int(d.buf[positionLen])
		seq := d.buf[positionSeq]
		if n < BlockMin || n > BlockMax || seq&seqDestMask != SeqDest {
			d.synced = false
			continue
		}
		if len(d.buf) < n {
			return Block{}, false
		}
		if d.buf[n-trailerSync] != SyncByte {
			d.synced = false
			continue
		}
		crc := uint16(d.buf[n-trailerCRC])<<8 | uint16(d.buf[n-trailerCRC+1])
		if crc != CRC16(d.buf[:n-BlockTrailerSize]) {
			d.synced = false
			continue
		}

		b := Block{
			Seq:     seq,
			Payload: append([]byte(nil), d.buf[BlockHeaderSize:n-BlockTrailerSize]...),
		}
		d.consume(n)
		return b, true
	}
	return Block{}, false
}

func (d *Decoder) consume(n int) {
	d.buf = d.buf[:copy(d.buf, d.buf[n:])]
}
