// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package stats

import "fmt"

// DefaultBuckets is the bucket count used by leakage reports.
const DefaultBuckets = 10

// Bucket is one histogram bin covering [Low, High). The last bin of a
// histogram also includes High.
type Bucket struct {
	Low   float64 `json:"range_low"`
	High  float64 `json:"range_high"`
	Count int     `json:"count"`
}

// Histogram bins samples linearly between their observed min and max.
//
// Description:
//
//	Produces exactly buckets bins of equal width. When every sample has the
//	same value the width would be zero, so the first bin holds every sample
//	and the remaining bins are empty, all spanning [min, min].
//
// Inputs:
//   - samples: Values to bin. Must not be empty.
//   - buckets: Number of bins. Must be at least 1.
//
// Outputs:
//   - []Bucket: The bins in ascending order. Counts sum to len(samples).
//   - error: ErrContractViolation on empty samples or buckets < 1.
//
// Thread Safety: This function is stateless and safe for concurrent use.
func Histogram(samples []float64, buckets int) ([]Bucket, error) {
	if buckets < 1 {
		return nil, fmt.Errorf("histogram with %d buckets: %w", buckets, ErrContractViolation)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("histogram of empty sample: %w", ErrContractViolation)
	}

	lo, hi := samples[0], samples[0]
	for _, s := range samples[1:] {
		lo = min(lo, s)
		hi = max(hi, s)
	}

	out := make([]Bucket, buckets)
	if lo == hi {
		for i := range out {
			out[i] = Bucket{Low: lo, High: hi}
		}
		out[0].Count = len(samples)
		return out, nil
	}

	width := (hi - lo) / float64(buckets)
	for i := range out {
		out[i].Low = lo + float64(i)*width
		out[i].High = lo + float64(i+1)*width
	}
	out[buckets-1].High = hi

	for _, s := range samples {
		idx := int((s - lo) / width)
		if idx >= buckets {
			idx = buckets - 1
		}
		out[idx].Count++
	}
	return out, nil
}
