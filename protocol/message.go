package protocol

import (
	"errors"
	"fmt"
)

var ErrBadOp = errors.New("protocol: unknown op")

// Op identifies a bus message
type Op uint8

const (
	OpLoad  Op = 1 // host: read the register at Addr
	OpStore Op = 2 // host: write Value to Addr
	OpValue Op = 3 // device: Value read from Addr
	OpAck   Op = 4 // device: store to Addr done
	OpFault Op = 5 // device: access to Addr faulted, Value is the reason code
)

func (o Op) String() string {
	switch o {
	case OpLoad:
		return "load"
	case OpStore:
		return "store"
	case OpValue:
		return "value"
	case OpAck:
		return "ack"
	case OpFault:
		return "fault"
	}
	return fmt.Sprintf("op(%d)", uint8(o))
}

// Message is one bus transaction, carried as the payload of a Block
type Message struct {
	Op    Op
	Addr  uint32
	Value uint32
}

// AppendMessage appends the VLQ encoding of m to dst
func AppendMessage(dst []byte, m Message) []byte {
	dst = AppendVLQ(dst, uint32(m.Op))
	dst = AppendVLQ(dst, m.Addr)
	return AppendVLQ(dst, m.Value)
}

// DecodeMessage decodes a block payload holding exactly one message
func DecodeMessage(payload []byte) (Message, error) {
	var fields [3]uint32
	for i := range fields {
		v, err := DecodeVLQ(&payload)
		if err != nil {
			return Message{}, fmt.Errorf("decode message: %w", err)
		}
		fields[i] = v
	}
	if len(payload) != 0 {
		return Message{}, fmt.Errorf("decode message: %d trailing bytes: %w", len(payload), ErrInvalidVLQ)
	}

	m := Message{Op: Op(fields[0]), Addr: fields[1], Value: fields[2]}
	if fields[0] < uint32(OpLoad) || fields[0] > uint32(OpFault) {
		return Message{}, fmt.Errorf("%w %d", ErrBadOp, fields[0])
	}
	return m, nil
}

// EncodeMessage frames m as a complete block with sequence seq
func EncodeMessage(seq uint8, m Message) []byte {
	var scratch [3 * 5]byte
	// Three VLQs never exceed PayloadMax, so framing cannot fail
	b, _ := AppendBlock(nil, seq, AppendMessage(scratch[:0], m))
	return b
}
