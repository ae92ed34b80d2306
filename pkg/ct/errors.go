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

import (
	"errors"
	"fmt"
)

// ErrContractViolation is the root of every error returned by this package.
// It indicates a public, structural precondition was not met.
var ErrContractViolation = errors.New("contract violation")

var (
	// ErrLengthMismatch indicates two buffers that must share a length do not.
	ErrLengthMismatch = fmt.Errorf("%w: length mismatch", ErrContractViolation)

	// ErrEmptyInput indicates an operation that needs at least one element got none.
	ErrEmptyInput = fmt.Errorf("%w: empty input", ErrContractViolation)

	// ErrInvalidSize indicates a non-positive buffer or payload size.
	ErrInvalidSize = fmt.Errorf("%w: invalid size", ErrContractViolation)
)
