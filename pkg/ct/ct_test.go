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
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Test: Masks and selection
// =============================================================================

func TestMaskConstructors(t *testing.T) {
	assert.Equal(t, MaskTrue, MaskFromBool(true))
	assert.Equal(t, MaskFalse, MaskFromBool(false))
	assert.Equal(t, MaskTrue, MaskFromBit(1))
	assert.Equal(t, MaskFalse, MaskFromBit(2), "only the low bit counts")

	assert.Equal(t, MaskFalse, MaskNonZero(0))
	assert.Equal(t, MaskTrue, MaskNonZero(1))
	assert.Equal(t, MaskTrue, MaskNonZero(math.MaxUint64))
	assert.Equal(t, MaskTrue, MaskNonZero(1<<63))

	assert.Equal(t, MaskTrue, MaskEq(42, 42))
	assert.Equal(t, MaskFalse, MaskEq(42, 43))

	assert.Equal(t, MaskTrue, MaskLess(0, 1))
	assert.Equal(t, MaskFalse, MaskLess(1, 1))
	assert.Equal(t, MaskFalse, MaskLess(math.MaxUint64, 0))
	assert.Equal(t, MaskTrue, MaskLess(0, math.MaxUint64))
}

// TestConditionalSelect verifies selection across boundary bit patterns.
func TestConditionalSelect(t *testing.T) {
	values := []uint64{0, 1, math.MaxUint64, 1 << 63, 0x5555555555555555, 0xaaaaaaaaaaaaaaaa}
	for _, x := range values {
		for _, y := range values {
			assert.Equal(t, x, ConditionalSelect(true, x, y))
			assert.Equal(t, y, ConditionalSelect(false, x, y))
		}
	}

	assert.Equal(t, -5, SelectInt(MaskTrue, -5, 9))
	assert.Equal(t, 9, SelectInt(MaskFalse, -5, 9))
	assert.Equal(t, byte(0xff), SelectByte(MaskTrue, 0xff, 0x00))
	assert.Equal(t, byte(0x00), SelectByte(MaskFalse, 0xff, 0x00))
}

// =============================================================================
// Test: Equal, HasPrefix, Compare
// =============================================================================

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"both empty", "", "", true},
		{"identical", "MySecretPassword123!", "MySecretPassword123!", true},
		{"first byte", "XySecretPassword123!", "MySecretPassword123!", false},
		{"last byte", "MySecretPassword123?", "MySecretPassword123!", false},
		{"shorter prefix", "MySecret", "MySecretPassword123!", false},
		{"longer", "MySecretPassword123!!", "MySecretPassword123!", false},
		{"empty vs non-empty", "", "a", false},
		{"trailing zero byte", "ab\x00", "ab", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Equal([]byte(tt.a), []byte(tt.b)))
			assert.Equal(t, tt.want, Equal([]byte(tt.b), []byte(tt.a)), "symmetric")
		})
	}
}

// TestEqual_EveryMismatchPosition checks each single-byte mismatch is caught.
func TestEqual_EveryMismatchPosition(t *testing.T) {
	secret := []byte("MySecretPassword123!")
	for i := range secret {
		guess := bytes.Clone(secret)
		guess[i] ^= 0x01
		assert.False(t, Equal(secret, guess), "mismatch at %d", i)
	}
	assert.True(t, Equal(secret, bytes.Clone(secret)))
}

func TestHasPrefix(t *testing.T) {
	assert.True(t, HasPrefix([]byte("/api/v1/users"), []byte("/api/")))
	assert.True(t, HasPrefix([]byte("abc"), nil))
	assert.True(t, HasPrefix([]byte("abc"), []byte("abc")))
	assert.False(t, HasPrefix([]byte("/apx/v1"), []byte("/api/")))
	assert.False(t, HasPrefix([]byte("/ap"), []byte("/api/")))
	assert.False(t, HasPrefix(nil, []byte("a")))
	assert.False(t, HasPrefix([]byte("ab"), []byte("ab\x00")))
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "abc", 0},
		{"abc", "abd", -1},
		{"abd", "abc", 1},
		{"ab", "abc", -1},
		{"abc", "ab", 1},
		{"b", "abc", 1},
		{"\x00", "", 1},
		{"\xff\x00", "\xff\x01", -1},
	}
	for _, tt := range tests {
		got := Compare([]byte(tt.a), []byte(tt.b))
		assert.Equal(t, tt.want, got, "Compare(%q, %q)", tt.a, tt.b)
		assert.Equal(t, bytes.Compare([]byte(tt.a), []byte(tt.b)), got, "agrees with bytes.Compare")
	}
}

// =============================================================================
// Test: ConditionalCopy
// =============================================================================

func TestConditionalCopy(t *testing.T) {
	src := []byte{1, 2, 3, 4}

	dst := []byte{9, 9, 9, 9}
	require.NoError(t, ConditionalCopy(dst, src, true))
	assert.Equal(t, src, dst)

	dst = []byte{9, 9, 9, 9}
	require.NoError(t, ConditionalCopy(dst, src, false))
	assert.Equal(t, []byte{9, 9, 9, 9}, dst)
}

func TestConditionalCopy_LengthMismatch(t *testing.T) {
	dst := []byte{9, 9, 9}
	err := ConditionalCopy(dst, []byte{1, 2, 3, 4}, true)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLengthMismatch))
	assert.True(t, errors.Is(err, ErrContractViolation))
	assert.Equal(t, []byte{9, 9, 9}, dst, "dst must be untouched on contract violation")
}

// =============================================================================
// Test: Reductions
// =============================================================================

func TestReduceMinMax(t *testing.T) {
	values := []uint64{17, 3, math.MaxUint64, 0, 99, 3}

	lo, err := ReduceMin(values)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), lo)

	hi, err := ReduceMax(values)
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), hi)

	single, err := ReduceMin([]uint64{7})
	require.NoError(t, err)
	assert.Equal(t, uint64(7), single)

	assert.Equal(t, uint64(3), Min(3, 5))
	assert.Equal(t, uint64(5), Max(3, 5))
}

func TestReduce_Empty(t *testing.T) {
	_, err := ReduceMin(nil)
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = ReduceMax([]uint64{})
	assert.ErrorIs(t, err, ErrContractViolation)
}
