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
	"time"
)

// Sampler times repeated invocations of a candidate.
//
// Description:
//
//	Measure brackets a tight loop of candidate calls with two clock reads
//	and returns the elapsed time. It makes no attempt to subtract loop or
//	call overhead: every class in a run uses the same iteration count, so
//	the overhead is shared and cancels when distributions are compared.
//
// Thread Safety: Not safe for concurrent use. Each run owns its Sampler.
type Sampler struct {
	clock Clock

	// sink accumulates candidate results so the loop has an observable effect.
	sink uint64
}

// NewSampler creates a Sampler reading clock. A nil clock selects MonotonicClock.
func NewSampler(clock Clock) *Sampler {
	if clock == nil {
		clock = MonotonicClock{}
	}
	return &Sampler{clock: clock}
}

// Measure invokes c.Call(input) iterations times and returns the elapsed time.
//
// Inputs:
//   - c: Candidate to call. Must not be nil.
//   - input: Passed unchanged to every call.
//   - iterations: Calls in the timed loop. Must be positive.
//
// Outputs:
//   - time.Duration: Time between the two clock reads.
//   - error: ErrContractViolation, ErrClockFailure, or a *CandidateError.
//     A candidate panic is recovered and returned as a *CandidateError.
func (s *Sampler) Measure(c Candidate, input []byte, iterations int) (time.Duration, error) {
	if c == nil {
		return 0, fmt.Errorf("nil candidate: %w", ErrContractViolation)
	}
	if iterations < 1 {
		return 0, fmt.Errorf("iterations %d: %w", iterations, ErrContractViolation)
	}

	start, err := s.clock.Now()
	if err != nil {
		return 0, fmt.Errorf("reading start time: %w: %w", ErrClockFailure, err)
	}

	acc, err := callLoop(c, input, iterations)
	if err != nil {
		return 0, err
	}

	end, err := s.clock.Now()
	if err != nil {
		return 0, fmt.Errorf("reading end time: %w: %w", ErrClockFailure, err)
	}
	s.sink ^= acc

	if end < start {
		return 0, fmt.Errorf("clock moved backwards by %v: %w", start-end, ErrClockFailure)
	}
	return end - start, nil
}

// callLoop is the timed region. Only candidate panics are recovered here;
// a panicking clock propagates to the caller.
func callLoop(c Candidate, input []byte, iterations int) (acc uint64, err error) {
	defer func() {
		if r := recover(); r != nil {
			acc = 0
			err = &CandidateError{Candidate: c.Name(), Trial: -1, Panicked: true, Err: panicError(r)}
		}
	}()

	for i := 0; i < iterations; i++ {
		r, callErr := c.Call(input)
		if callErr != nil {
			return 0, &CandidateError{Candidate: c.Name(), Trial: -1, Err: callErr}
		}
		acc ^= r
	}
	return acc, nil
}

// panicError keeps a panicked error value intact so errors.Is still sees it.
func panicError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("%v", r)
}

// Sink returns the folded candidate results.
func (s *Sampler) Sink() uint64 { return s.sink }
