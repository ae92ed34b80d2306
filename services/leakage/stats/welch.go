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
	"math"
)

// -----------------------------------------------------------------------------
// Welch's t-test
// -----------------------------------------------------------------------------

// TTestResult holds the outcome of a Welch comparison.
type TTestResult struct {
	// TStatistic is (meanA - meanB) / sqrt(varA/nA + varB/nB).
	TStatistic float64

	// DegreesOfFreedom is the Welch-Satterthwaite df. Zero when both
	// variances are zero.
	DegreesOfFreedom float64

	// PValue is the approximate two-tailed p-value. Informational only;
	// Significant is decided by Threshold.
	PValue float64

	// Threshold is the |t| bound the caller supplied.
	Threshold float64

	// Significant is true when |TStatistic| > Threshold.
	Significant bool

	// EffectSize is Cohen's d using the pooled standard deviation.
	EffectSize float64
}

// WelchT computes Welch's t-statistic for samples a and b.
//
// Description:
//
//	Assumes unequal variances and allows unequal sample sizes. When both
//	variances are zero the standard error is zero: the result is 0 if the
//	means are equal and ±Inf otherwise, so a constant offset between two
//	noiseless sets is still reported as a difference.
//
// Inputs:
//   - a, b: Sample sets with at least two observations each.
//
// Outputs:
//   - float64: The t-statistic. Positive when mean(a) > mean(b).
//   - error: ErrDegenerateSample or ErrContractViolation on too few observations.
//
// Thread Safety: This function is stateless and safe for concurrent use.
func WelchT(a, b []float64) (float64, error) {
	r, err := WelchTest(a, b, math.Inf(1))
	if err != nil {
		return 0, err
	}
	return r.TStatistic, nil
}

// WelchTest runs Welch's t-test and compares |t| against threshold.
//
// Inputs:
//   - a, b: Sample sets with at least two observations each.
//   - threshold: |t| above which the difference is significant.
//
// Outputs:
//   - *TTestResult: Statistic, df, p-value, and the significance decision.
//   - error: Non-nil if either sample set is too small.
//
// Thread Safety: This function is stateless and safe for concurrent use.
func WelchTest(a, b []float64, threshold float64) (*TTestResult, error) {
	meanA, varA, err := meanVar(a)
	if err != nil {
		return nil, err
	}
	meanB, varB, err := meanVar(b)
	if err != nil {
		return nil, err
	}

	nA := float64(len(a))
	nB := float64(len(b))
	qA := varA / nA
	qB := varB / nB

	res := &TTestResult{
		Threshold:  threshold,
		EffectSize: cohenD(meanA, meanB, varA, varB, nA, nB),
	}

	se := math.Sqrt(qA + qB)
	if se == 0 {
		switch {
		case meanA == meanB:
			res.TStatistic, res.PValue = 0, 1
		case meanA > meanB:
			res.TStatistic = math.Inf(1)
		default:
			res.TStatistic = math.Inf(-1)
		}
		res.Significant = math.Abs(res.TStatistic) > threshold
		return res, nil
	}

	res.TStatistic = (meanA - meanB) / se
	res.DegreesOfFreedom = (qA + qB) * (qA + qB) / (qA*qA/(nA-1) + qB*qB/(nB-1))
	res.PValue = tDistributionPValue(math.Abs(res.TStatistic), res.DegreesOfFreedom)
	res.Significant = math.Abs(res.TStatistic) > threshold

	return res, nil
}

// cohenD returns the standardized mean difference, 0 when pooled variance is 0.
func cohenD(meanA, meanB, varA, varB, nA, nB float64) float64 {
	pooled := math.Sqrt(((nA-1)*varA + (nB-1)*varB) / (nA + nB - 2))
	if pooled == 0 {
		return 0
	}
	return (meanA - meanB) / pooled
}

func normalCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}

// tDistributionPValue approximates the two-tailed p-value for |t| with df
// degrees of freedom. Large df use the normal distribution.
func tDistributionPValue(t, df float64) float64 {
	if df <= 0 {
		return 1
	}
	if df >= 30 {
		return 2 * (1 - normalCDF(t))
	}

	adjusted := t * math.Sqrt(df/(df-2+0.001))
	p := 2 * (1 - normalCDF(adjusted))
	return math.Min(math.Max(p, 0), 1)
}
