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
	"encoding/binary"
	"fmt"
	"math/rand/v2"
)

// LowercaseAlphabet is the default alphabet for random classes.
const LowercaseAlphabet = "abcdefghijklmnopqrstuvwxyz"

// DefaultRandomLength is the default input length for random classes.
const DefaultRandomLength = 20

// InputClass is a named generator producing one concrete input per draw.
//
// Description:
//
//	The Runner calls Next once per trial, before any timing for that
//	trial starts. Classes are compared pairwise by name, so names within
//	one run must be unique. Implementations need not be safe for
//	concurrent use.
type InputClass interface {
	Name() string
	Next() []byte
}

// -----------------------------------------------------------------------------
// Fixed
// -----------------------------------------------------------------------------

// FixedClass yields the same input on every draw.
type FixedClass struct {
	name  string
	input []byte
}

// NewFixedClass returns a class that always yields a copy of input made at
// construction. Candidates must not modify it.
func NewFixedClass(name string, input []byte) *FixedClass {
	return &FixedClass{name: name, input: append([]byte(nil), input...)}
}

// Name returns the class name.
func (c *FixedClass) Name() string { return c.name }

// Next returns the fixed input.
func (c *FixedClass) Next() []byte { return c.input }

// -----------------------------------------------------------------------------
// Random
// -----------------------------------------------------------------------------

// RandomClass yields a fresh random string on every draw.
//
// Draws come from a ChaCha8 stream keyed by the seed, so a run with the same
// seed sees the same inputs.
type RandomClass struct {
	name     string
	length   int
	alphabet []byte
	rng      *rand.Rand
}

// NewRandomClass creates a random class.
//
// Inputs:
//   - name: Class name.
//   - length: Bytes per input. Must be positive.
//   - alphabet: Symbols to draw from. Must not be empty.
//   - seed: Stream seed.
//
// Outputs:
//   - *RandomClass: The class.
//   - error: ErrContractViolation on bad length or alphabet.
func NewRandomClass(name string, length int, alphabet string, seed uint64) (*RandomClass, error) {
	if length < 1 {
		return nil, fmt.Errorf("random class %q length %d: %w", name, length, ErrContractViolation)
	}
	if alphabet == "" {
		return nil, fmt.Errorf("random class %q empty alphabet: %w", name, ErrContractViolation)
	}

	var key [32]byte
	binary.LittleEndian.PutUint64(key[:8], seed)

	return &RandomClass{
		name:     name,
		length:   length,
		alphabet: []byte(alphabet),
		rng:      rand.New(rand.NewChaCha8(key)),
	}, nil
}

// Name returns the class name.
func (c *RandomClass) Name() string { return c.name }

// Next draws a new input.
func (c *RandomClass) Next() []byte {
	out := make([]byte, c.length)
	for i := range out {
		out[i] = c.alphabet[c.rng.IntN(len(c.alphabet))]
	}
	return out
}

// -----------------------------------------------------------------------------
// Generator
// -----------------------------------------------------------------------------

type generatorClass struct {
	name string
	next func() []byte
}

func (c *generatorClass) Name() string { return c.name }
func (c *generatorClass) Next() []byte { return c.next() }

// NewClass wraps a generator function as an InputClass.
func NewClass(name string, next func() []byte) InputClass {
	return &generatorClass{name: name, next: next}
}
