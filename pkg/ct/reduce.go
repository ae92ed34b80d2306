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

// ReduceMin returns the smallest element of values.
//
// Each step computes candidate < current as a Mask and updates the running
// minimum through Select. The comparison result never drives a branch.
// Returns ErrEmptyInput for an empty slice.
func ReduceMin(values []uint64) (uint64, error) {
	if len(values) == 0 {
		return 0, ErrEmptyInput
	}
	cur := values[0]
	for _, v := range values[1:] {
		cur = Select(MaskLess(v, cur), v, cur)
	}
	return cur, nil
}

// ReduceMax returns the largest element of values.
func ReduceMax(values []uint64) (uint64, error) {
	if len(values) == 0 {
		return 0, ErrEmptyInput
	}
	cur := values[0]
	for _, v := range values[1:] {
		cur = Select(MaskLess(cur, v), v, cur)
	}
	return cur, nil
}

// Min returns the smaller of x and y.
func Min(x, y uint64) uint64 {
	return Select(MaskLess(x, y), x, y)
}

// Max returns the larger of x and y.
func Max(x, y uint64) uint64 {
	return Select(MaskLess(x, y), y, x)
}
