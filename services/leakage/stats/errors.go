// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package stats reduces timing samples to the figures a leakage verdict
// needs: mean, Bessel-corrected variance, Welch's t, histograms and
// descriptive summaries.
//
// Every function takes samples as float64 nanoseconds and is stateless.
package stats

import (
	"fmt"

	"github.com/AleutianAI/ctguard/pkg/ct"
)

// -----------------------------------------------------------------------------
// Errors
// -----------------------------------------------------------------------------

var (
	// ErrContractViolation is shared with package ct so callers can test one
	// sentinel for every structural precondition failure.
	ErrContractViolation = ct.ErrContractViolation

	// ErrDegenerateSample indicates a statistic needing two or more
	// observations was given fewer. It also matches ErrContractViolation.
	ErrDegenerateSample = fmt.Errorf("%w: degenerate sample", ErrContractViolation)
)
