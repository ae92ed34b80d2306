// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ctdiff

import (
	"errors"
	"fmt"

	"github.com/AleutianAI/ctguard/pkg/ct"
)

var (
	// ErrInputTooLarge indicates an input longer than the configured limit
	// or the padding size.
	ErrInputTooLarge = fmt.Errorf("%w: input too large", ct.ErrContractViolation)

	// ErrComputationLimit indicates the padded edit matrix exceeds MaxCells.
	ErrComputationLimit = fmt.Errorf("%w: computation limit exceeded", ct.ErrContractViolation)

	// ErrInvalidConfig indicates a Config that fails Validate.
	ErrInvalidConfig = fmt.Errorf("%w: invalid diff config", ct.ErrContractViolation)

	// ErrInvalidScript indicates an edit script that does not fit the input
	// it is applied to.
	ErrInvalidScript = errors.New("invalid edit script")
)
