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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedClass(t *testing.T) {
	src := []byte("fixed_test_input_123")
	c := NewFixedClass("fixed", src)
	src[0] = 'X'

	assert.Equal(t, "fixed", c.Name())
	assert.Equal(t, "fixed_test_input_123", string(c.Next()), "input is copied at construction")
	assert.Equal(t, c.Next(), c.Next())
}

func TestRandomClass(t *testing.T) {
	c, err := NewRandomClass("random", DefaultRandomLength, LowercaseAlphabet, 99)
	require.NoError(t, err)

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		in := c.Next()
		require.Len(t, in, DefaultRandomLength)
		for _, b := range in {
			require.True(t, strings.IndexByte(LowercaseAlphabet, b) >= 0, "byte %q", b)
		}
		seen[string(in)] = true
	}
	assert.Greater(t, len(seen), 95, "draws are fresh")
}

func TestRandomClass_Reproducible(t *testing.T) {
	a, err := NewRandomClass("r", 8, LowercaseAlphabet, 5)
	require.NoError(t, err)
	b, err := NewRandomClass("r", 8, LowercaseAlphabet, 5)
	require.NoError(t, err)
	c, err := NewRandomClass("r", 8, LowercaseAlphabet, 6)
	require.NoError(t, err)

	first := a.Next()
	assert.Equal(t, first, b.Next())
	assert.NotEqual(t, first, c.Next())
}

func TestRandomClass_Errors(t *testing.T) {
	_, err := NewRandomClass("r", 0, LowercaseAlphabet, 1)
	assert.ErrorIs(t, err, ErrContractViolation)

	_, err = NewRandomClass("r", 4, "", 1)
	assert.ErrorIs(t, err, ErrContractViolation)
}

func TestNewClass(t *testing.T) {
	n := 0
	c := NewClass("counter", func() []byte {
		n++
		return []byte{byte(n)}
	})
	assert.Equal(t, "counter", c.Name())
	assert.Equal(t, []byte{1}, c.Next())
	assert.Equal(t, []byte{2}, c.Next())
}
