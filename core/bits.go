package core

import (
	"math/bits"

	"golang.org/x/exp/constraints"
)

// Mask returns a T with the low width bits set. Widths at or beyond the size
// of T saturate.
func Mask[T constraints.Unsigned](width uint) T {
	all := ^T(0)
	if width >= uint(bits.Len64(uint64(all))) {
		return all
	}
	return T(1)<<width - 1
}

// extract returns the width-bit field at bit offset shift of v.
func extract[T constraints.Unsigned](v T, shift, width uint) T {
	return (v >> shift) & Mask[T](width)
}

// insert returns v with the width-bit field at shift replaced by field.
func insert[T constraints.Unsigned](v T, shift, width uint, field T) T {
	m := Mask[T](width) << shift
	return (v &^ m) | ((field << shift) & m)
}

func boolBit(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
