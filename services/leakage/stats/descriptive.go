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

import (
	"fmt"
	"math"
	"slices"
)

// z95 is the two-sided 95% normal quantile.
const z95 = 1.96

// Mean returns the arithmetic mean of samples.
//
// Outputs:
//   - float64: The mean.
//   - error: ErrContractViolation when samples is empty.
func Mean(samples []float64) (float64, error) {
	if len(samples) == 0 {
		return 0, fmt.Errorf("mean of empty sample: %w", ErrContractViolation)
	}
	var sum float64
	for _, s := range samples {
		sum += s
	}
	return sum / float64(len(samples)), nil
}

// SampleVariance returns the Bessel-corrected variance around mean.
//
// Description:
//
//	Divides the sum of squared deviations by n-1. The mean is supplied by
//	the caller so it is computed once per sample set.
//
// Outputs:
//   - float64: The unbiased variance estimate.
//   - error: ErrDegenerateSample when len(samples) < 2.
func SampleVariance(samples []float64, mean float64) (float64, error) {
	if len(samples) < 2 {
		return 0, fmt.Errorf("variance of %d observation(s): %w", len(samples), ErrDegenerateSample)
	}
	var sumSq float64
	for _, s := range samples {
		d := s - mean
		sumSq += d * d
	}
	return sumSq / float64(len(samples)-1), nil
}

// meanVar returns mean and sample variance together.
func meanVar(samples []float64) (float64, float64, error) {
	m, err := Mean(samples)
	if err != nil {
		return 0, 0, err
	}
	v, err := SampleVariance(samples, m)
	if err != nil {
		return 0, 0, err
	}
	return m, v, nil
}

// Summary holds descriptive statistics for one sample set.
type Summary struct {
	Count    int     `json:"count"`
	Min      float64 `json:"min_ns"`
	Max      float64 `json:"max_ns"`
	Mean     float64 `json:"mean_ns"`
	Median   float64 `json:"median_ns"`
	StdDev   float64 `json:"std_dev_ns"`
	Variance float64 `json:"variance"`

	// CI95Low and CI95High bound the mean at 95% confidence, using the
	// normal approximation mean ± 1.96·sd/√n.
	CI95Low  float64 `json:"ci95_low_ns"`
	CI95High float64 `json:"ci95_high_ns"`

	// CV is the coefficient of variation, sd/mean. Zero when the mean is zero.
	CV float64 `json:"cv"`
}

// Summarize computes a Summary over samples.
//
// Inputs:
//   - samples: At least two observations. Not modified.
//
// Outputs:
//   - Summary: The descriptive statistics.
//   - error: ErrContractViolation for an empty set, ErrDegenerateSample for one observation.
//
// Thread Safety: This function is stateless and safe for concurrent use.
func Summarize(samples []float64) (Summary, error) {
	m, v, err := meanVar(samples)
	if err != nil {
		return Summary{}, err
	}

	sorted := slices.Clone(samples)
	slices.Sort(sorted)

	n := len(sorted)
	median := sorted[n/2]
	if n%2 == 0 {
		median = (sorted[n/2-1] + sorted[n/2]) / 2
	}

	sd := math.Sqrt(v)
	margin := z95 * sd / math.Sqrt(float64(n))

	var cv float64
	if m != 0 {
		cv = sd / m
	}

	return Summary{
		Count:    n,
		Min:      sorted[0],
		Max:      sorted[n-1],
		Mean:     m,
		Median:   median,
		StdDev:   sd,
		Variance: v,
		CI95Low:  m - margin,
		CI95High: m + margin,
		CV:       cv,
	}, nil
}

// RatioTo returns s.Mean / other.Mean, or 0 when other.Mean is zero.
func (s Summary) RatioTo(other Summary) float64 {
	if other.Mean == 0 {
		return 0
	}
	return s.Mean / other.Mean
}

// Overlaps reports whether the two 95% confidence intervals intersect.
func (s Summary) Overlaps(other Summary) bool {
	return s.CI95Low <= other.CI95High && other.CI95Low <= s.CI95High
}

// Finite maps NaN to 0 and ±Inf to ±MaxFloat64, for encoders such as JSON
// that cannot represent them.
func Finite(f float64) float64 {
	switch {
	case math.IsNaN(f):
		return 0
	case math.IsInf(f, 1):
		return math.MaxFloat64
	case math.IsInf(f, -1):
		return -math.MaxFloat64
	}
	return f
}
