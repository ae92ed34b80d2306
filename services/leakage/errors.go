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
	"errors"
	"fmt"

	"github.com/AleutianAI/ctguard/services/leakage/stats"
)

// -----------------------------------------------------------------------------
// Errors
// -----------------------------------------------------------------------------

var (
	// ErrContractViolation indicates invalid configuration, classes, or
	// arguments. It is the same sentinel package ct and stats use.
	ErrContractViolation = stats.ErrContractViolation

	// ErrDegenerateSample indicates a statistic was requested on fewer than
	// two observations.
	ErrDegenerateSample = stats.ErrDegenerateSample

	// ErrClockFailure indicates the timing source could not be read. The run
	// is aborted; no duration is ever substituted.
	ErrClockFailure = errors.New("clock failure")

	// ErrCandidateFailure indicates the candidate returned an error or
	// panicked. It carries no timing meaning.
	ErrCandidateFailure = errors.New("candidate failure")
)

// CandidateError describes a candidate failure during a run.
type CandidateError struct {
	// Candidate is the failing candidate's name.
	Candidate string

	// Class is the input class being measured, empty outside a run.
	Class string

	// Trial is the zero-based trial index; -1 during warmup or outside a run.
	Trial int

	// Panicked is true when the failure was a recovered panic.
	Panicked bool

	// Err is the candidate's error or the recovered panic value.
	Err error
}

// Error implements error.
func (e *CandidateError) Error() string {
	what := "failed"
	if e.Panicked {
		what = "panicked"
	}
	if e.Class == "" {
		return fmt.Sprintf("candidate %q %s: %v", e.Candidate, what, e.Err)
	}
	return fmt.Sprintf("candidate %q %s on class %q trial %d: %v", e.Candidate, what, e.Class, e.Trial, e.Err)
}

// Unwrap exposes both ErrCandidateFailure and the underlying cause.
func (e *CandidateError) Unwrap() []error {
	return []error{ErrCandidateFailure, e.Err}
}
