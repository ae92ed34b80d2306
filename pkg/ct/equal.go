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

// zeroByte stands in for an empty operand so indexing stays in bounds.
var zeroByte = []byte{0}

// Equal reports whether a and b hold the same bytes.
//
// # Description
//
// Scans max(len(a), len(b)) positions. Positions past the end of the shorter
// slice read as zero. The XOR of each byte pair is ORed into an accumulator,
// and a length mismatch is ORed into the same accumulator rather than
// checked with an early return. Neither a length mismatch nor the position
// of a content mismatch changes the number of bytes visited.
//
// # Inputs
//
//   - a, b: Buffers to compare. Neither is retained.
//
// # Outputs
//
//   - bool: True iff len(a) == len(b) and every byte matches.
//
// # Thread Safety
//
// Safe for concurrent use.
func Equal(a, b []byte) bool {
	n := max(len(a), len(b))
	if n == 0 {
		return true
	}

	var acc uint64
	for i := 0; i < n; i++ {
		acc |= uint64(byteAt(a, i) ^ byteAt(b, i))
	}
	acc |= uint64(MaskNonZero(uint64(len(a) ^ len(b))))

	return MaskEq(acc, 0).Bool()
}

// HasPrefix reports whether s begins with prefix.
//
// The scan always covers len(prefix) positions. A short s is handled the
// same way Equal handles a short operand.
func HasPrefix(s, prefix []byte) bool {
	var acc uint64
	for i := range prefix {
		acc |= uint64(byteAt(s, i) ^ prefix[i])
	}
	acc |= uint64(MaskLess(uint64(len(s)), uint64(len(prefix))))

	return MaskEq(acc, 0).Bool()
}

// Compare returns -1, 0 or 1 for lexicographic a < b, a == b, a > b.
//
// All min(len(a), len(b)) positions are visited. The first difference wins;
// when the common prefix is equal, the shorter slice sorts first.
func Compare(a, b []byte) int {
	n := min(len(a), len(b))

	var (
		res     uint64
		decided Mask
	)
	for i := 0; i < n; i++ {
		lt := MaskLess(uint64(a[i]), uint64(b[i]))
		gt := MaskLess(uint64(b[i]), uint64(a[i]))
		res = Select(^decided&lt, ^uint64(0), res)
		res = Select(^decided&gt, 1, res)
		decided |= lt | gt
	}

	la, lb := uint64(len(a)), uint64(len(b))
	res = Select(^decided&MaskLess(la, lb), ^uint64(0), res)
	res = Select(^decided&MaskLess(lb, la), 1, res)

	return int(int64(res))
}

// byteAt returns buf[i] for i < len(buf), else 0, without branching on i.
func byteAt(buf []byte, i int) byte {
	if len(buf) == 0 {
		buf = zeroByte
	}
	in := MaskLess(uint64(i), uint64(len(buf)))
	idx := SelectInt(in, i, 0)
	return buf[idx] & byte(in)
}
