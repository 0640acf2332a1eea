package protocol

import "errors"

var (
	ErrInvalidVLQ     = errors.New("protocol: invalid VLQ encoding")
	ErrBufferTooSmall = errors.New("protocol: buffer too small for VLQ")
)

// AppendVLQ appends the Klipper VLQ encoding of v to dst. Values are encoded
// as signed 32-bit integers, so every uint32 takes at most five bytes.
func AppendVLQ(dst []byte, v uint32) []byte {
	i := int32(v)
	if !(-(1<<26) <= i && i < (3<<26)) {
		dst = append(dst, byte((i>>28)&0x7F)|0x80)
	}
	if !(-(1<<19) <= i && i < (3<<19)) {
		dst = append(dst, byte((i>>21)&0x7F)|0x80)
	}
	if !(-(1<<12) <= i && i < (3<<12)) {
		dst = append(dst, byte((i>>14)&0x7F)|0x80)
	}
	if !(-(1<<5) <= i && i < (3<<5)) {
		dst = append(dst, byte((i>>7)&0x7F)|0x80)
	}
	return append(dst, byte(i&0x7F))
}

// DecodeVLQ decodes one VLQ value and advances data past it
func DecodeVLQ(data *[]byte) (uint32, error) {
	if len(*data) == 0 {
		return 0, ErrBufferTooSmall
	}

	c := uint32((*data)[0])
	*data = (*data)[1:]

	v := c & 0x7F
	if c&0x60 == 0x60 {
		v |= ^uint32(0x1F)
	}
	for n := 1; c&0x80 != 0; n++ {
		if n == 5 {
			return 0, ErrInvalidVLQ
		}
		if len(*data) == 0 {
			return 0, ErrBufferTooSmall
		}
		c = uint32((*data)[0])
		*data = (*data)[1:]
		v = v<<7 | c&0x7F
	}
	return v, nil
}
