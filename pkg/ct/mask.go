// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ct

import "math/bits"

// Mask is a word whose bits are either all zero or all one.
//
// Masks are only produced by the constructors in this file, which never
// yield any other bit pattern.
type Mask uint64

const (
	// MaskFalse selects the second operand.
	MaskFalse Mask = 0

	// MaskTrue selects the first operand.
	MaskTrue Mask = ^Mask(0)
)

// MaskFromBool returns MaskTrue when b is true. The bool-to-bit conversion
// compiles to a flag move (SETcc), not a jump.
func MaskFromBool(b bool) Mask {
	var bit uint64
	if b {
		bit = 1
	}
	return MaskFromBit(bit)
}

// MaskFromBit expands the low bit of b into a Mask.
func MaskFromBit(b uint64) Mask {
	return Mask(-(b & 1))
}

// MaskNonZero returns MaskTrue when x != 0.
func MaskNonZero(x uint64) Mask {
	return MaskFromBit((x | -x) >> 63)
}

// MaskEq returns MaskTrue when x == y.
func MaskEq(x, y uint64) Mask {
	return ^MaskNonZero(x ^ y)
}

// MaskLess returns MaskTrue when x < y.
func MaskLess(x, y uint64) Mask {
	_, borrow := bits.Sub64(x, y, 0)
	return MaskFromBit(borrow)
}

// Bool converts the mask back into a bool. Use only on values that are
// safe to reveal, such as a final comparison result.
func (m Mask) Bool() bool {
	return m == MaskTrue
}

// Select returns x when m is MaskTrue and y when m is MaskFalse.
func Select(m Mask, x, y uint64) uint64 {
	return (x & uint64(m)) | (y &^ uint64(m))
}

// SelectInt is Select for int operands.
func SelectInt(m Mask, x, y int) int {
	return int(Select(m, uint64(x), uint64(y)))
}

// SelectByte is Select for byte operands.
func SelectByte(m Mask, x, y byte) byte {
	b := byte(m)
	return (x & b) | (y &^ b)
}

// ConditionalSelect returns x when cond holds and y otherwise, without
// branching on cond.
//
// # Examples
//
//	ct.ConditionalSelect(true, 7, 9)  // 7
//	ct.ConditionalSelect(false, 7, 9) // 9
func ConditionalSelect(cond bool, x, y uint64) uint64 {
	return Select(MaskFromBool(cond), x, y)
}
