// Package protocol implements the serial wire format of the register bus:
// Klipper-style blocks carrying VLQ-encoded load/store messages.
package protocol

// Block layout: len, seq, payload..., crc16 high, crc16 low, sync
const (
	BlockHeaderSize  = 2
	BlockTrailerSize = 3
	BlockMin         = BlockHeaderSize + BlockTrailerSize
	BlockMax         = 64
	PayloadMax       = BlockMax - BlockMin

	positionLen = 0
	positionSeq = 1
	trailerCRC  = 3
	trailerSync = 1
	seqDestMask = ^uint8(SeqMask)

	SyncByte = 0x7E
	SeqDest  = 0x10
	SeqMask  = 0x0F
)

// Block is one framed unit on the wire
type Block struct {
	Seq     uint8
	Payload []byte
}

// NextSeq returns the sequence number following seq, 0x10 through 0x1F
func NextSeq(seq uint8) uint8 {
	return ((seq + 1) & SeqMask) | SeqDest
}
