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

// Candidate is an operation under test.
//
// Description:
//
//	The harness calls Call repeatedly inside a timed loop. It does not know
//	or care whether the operation is constant-time. The returned word is
//	folded into a sink so the call cannot be optimized away; it has no
//	other meaning to the harness.
//
//	Call must treat input as read-only. A non-nil error aborts the run with
//	ErrCandidateFailure.
type Candidate interface {
	Name() string
	Call(input []byte) (uint64, error)
}

// CandidateFunc is the function form of Candidate.Call.
type CandidateFunc func(input []byte) (uint64, error)

type funcCandidate struct {
	name string
	fn   CandidateFunc
}

func (c *funcCandidate) Name() string                      { return c.name }
func (c *funcCandidate) Call(input []byte) (uint64, error) { return c.fn(input) }

// NewCandidate wraps fn as a Candidate called name.
func NewCandidate(name string, fn CandidateFunc) Candidate {
	return &funcCandidate{name: name, fn: fn}
}

// BoolCandidate adapts a predicate, such as a comparison against a secret,
// into a Candidate that never fails.
func BoolCandidate(name string, fn func(input []byte) bool) Candidate {
	return NewCandidate(name, func(input []byte) (uint64, error) {
		if fn(input) {
			return 1, nil
		}
		return 0, nil
	})
}
