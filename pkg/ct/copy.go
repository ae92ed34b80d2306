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

import "fmt"

// ConditionalCopy overwrites dst with src when cond holds.
//
// # Description
//
// Every byte of dst is written whether or not cond holds; only the written
// value depends on cond. The buffers must have equal length.
//
// # Inputs
//
//   - dst: Destination buffer, modified in place.
//   - src: Source buffer. Must satisfy len(src) == len(dst).
//   - cond: Whether src replaces dst.
//
// # Outputs
//
//   - error: ErrLengthMismatch when the lengths differ. dst is untouched.
func ConditionalCopy(dst, src []byte, cond bool) error {
	if len(dst) != len(src) {
		return fmt.Errorf("conditional copy dst=%d src=%d: %w", len(dst), len(src), ErrLengthMismatch)
	}
	CopyMasked(MaskFromBool(cond), dst, src)
	return nil
}

// CopyMasked is ConditionalCopy for callers that already hold a Mask.
// The caller guarantees len(dst) == len(src).
func CopyMasked(m Mask, dst, src []byte) {
	b := byte(m)
	src = src[:len(dst)]
	for i := range dst {
		dst[i] = (src[i] & b) | (dst[i] &^ b)
	}
}
