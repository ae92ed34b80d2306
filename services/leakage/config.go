// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package leakage

import (
	"fmt"
	"math"
)

// Reference configuration values.
const (
	DefaultTrialCount            = 1000
	DefaultIterationsPerTrial    = 1000
	DefaultSignificanceThreshold = 2.0
	DefaultWarmupTrials          = 10
	DefaultHistogramBuckets      = 10

	// StrictSignificanceThreshold is the |t| bound common in side-channel
	// literature. Pair it with far larger trial counts than the default.
	StrictSignificanceThreshold = 4.5
)

// Config controls one leakage run.
//
// Every field is explicit. DefaultConfig returns the reference values;
// nothing else is filled in behind the caller's back.
type Config struct {
	// TrialCount is the number of samples recorded per class.
	TrialCount int `json:"trial_count" yaml:"trial_count"`

	// IterationsPerTrial is the candidate call count inside each timed loop.
	IterationsPerTrial int `json:"iterations_per_trial" yaml:"iterations_per_trial"`

	// SignificanceThreshold is the |t| above which a pair leaks.
	SignificanceThreshold float64 `json:"significance_threshold" yaml:"significance_threshold"`

	// WarmupTrials run before measurement and are discarded. May be zero.
	WarmupTrials int `json:"warmup_trials" yaml:"warmup_trials"`

	// HistogramBuckets sets the report histogram size. Zero disables it.
	HistogramBuckets int `json:"histogram_buckets" yaml:"histogram_buckets"`
}

// DefaultConfig returns 1000 trials of 1000 iterations, |t| > 2.0,
// 10 warmup trials and a 10-bucket histogram.
func DefaultConfig() Config {
	return Config{
		TrialCount:            DefaultTrialCount,
		IterationsPerTrial:    DefaultIterationsPerTrial,
		SignificanceThreshold: DefaultSignificanceThreshold,
		WarmupTrials:          DefaultWarmupTrials,
		HistogramBuckets:      DefaultHistogramBuckets,
	}
}

// Validate reports the first invalid field, wrapped in ErrContractViolation.
func (c Config) Validate() error {
	switch {
	case c.TrialCount < 1:
		return fmt.Errorf("trial_count must be positive, got %d: %w", c.TrialCount, ErrContractViolation)
	case c.IterationsPerTrial < 1:
		return fmt.Errorf("iterations_per_trial must be positive, got %d: %w", c.IterationsPerTrial, ErrContractViolation)
	case math.IsNaN(c.SignificanceThreshold) || math.IsInf(c.SignificanceThreshold, 0) || c.SignificanceThreshold <= 0:
		return fmt.Errorf("significance_threshold must be a positive number, got %v: %w", c.SignificanceThreshold, ErrContractViolation)
	case c.WarmupTrials < 0:
		return fmt.Errorf("warmup_trials must not be negative, got %d: %w", c.WarmupTrials, ErrContractViolation)
	case c.HistogramBuckets < 0:
		return fmt.Errorf("histogram_buckets must not be negative, got %d: %w", c.HistogramBuckets, ErrContractViolation)
	}
	return nil
}
