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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampler_Measure(t *testing.T) {
	clock := &fakeClock{}
	cand := newCostCandidate(clock, map[string]time.Duration{"abc": 7}, 0)
	s := NewSampler(clock)

	d, err := s.Measure(cand, []byte("abc"), 100)
	require.NoError(t, err)
	assert.Equal(t, 700*time.Nanosecond, d)
	assert.Equal(t, 2, clock.reads, "one read before and one after the loop")
}

func TestSampler_FoldsResults(t *testing.T) {
	s := NewSampler(&fakeClock{})
	cand := NewCandidate("word", func([]byte) (uint64, error) { return 0b1011, nil })

	_, err := s.Measure(cand, nil, 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(0b1011), s.Sink(), "odd number of XORs leaves the value")
}

func TestSampler_ContractViolations(t *testing.T) {
	s := NewSampler(&fakeClock{})
	cand := NewCandidate("noop", func([]byte) (uint64, error) { return 0, nil })

	_, err := s.Measure(cand, nil, 0)
	assert.ErrorIs(t, err, ErrContractViolation)

	_, err = s.Measure(nil, nil, 1)
	assert.ErrorIs(t, err, ErrContractViolation)
}

func TestSampler_ClockFailure(t *testing.T) {
	for _, failAt := range []int{1, 2} {
		clock := &fakeClock{failAt: failAt}
		s := NewSampler(clock)
		cand := NewCandidate("noop", func([]byte) (uint64, error) { return 0, nil })

		d, err := s.Measure(cand, nil, 5)
		assert.Zero(t, d)
		assert.ErrorIs(t, err, ErrClockFailure, "read %d", failAt)
		assert.ErrorIs(t, err, errClockBroken)
	}
}

func TestSampler_RecoversPanic(t *testing.T) {
	s := NewSampler(&fakeClock{})
	cand := NewCandidate("boom", func([]byte) (uint64, error) { panic(errors.New("nil map write")) })

	d, err := s.Measure(cand, nil, 1)
	assert.Zero(t, d)
	var ce *CandidateError
	require.ErrorAs(t, err, &ce)
	assert.True(t, ce.Panicked)
	assert.Equal(t, "boom", ce.Candidate)
}

func TestSampler_PanickedErrorUnwraps(t *testing.T) {
	errBoom := errors.New("nil map write")
	s := NewSampler(&fakeClock{})
	cand := NewCandidate("boom", func([]byte) (uint64, error) { panic(errBoom) })

	_, err := s.Measure(cand, nil, 1)
	assert.ErrorIs(t, err, errBoom)
	assert.ErrorIs(t, err, ErrCandidateFailure)

	cand = NewCandidate("text", func([]byte) (uint64, error) { panic("bad index") })
	_, err = s.Measure(cand, nil, 1)
	assert.ErrorContains(t, err, "bad index")
}

func TestSampler_ClockPanicIsNotACandidateFailure(t *testing.T) {
	s := NewSampler(ClockFunc(func() (time.Duration, error) { panic("clock driver") }))
	cand := NewCandidate("noop", func([]byte) (uint64, error) { return 0, nil })

	assert.PanicsWithValue(t, "clock driver", func() {
		_, _ = s.Measure(cand, nil, 1)
	})
}

// TestMonotonicClock exercises the real clock: readings never decrease.
func TestMonotonicClock(t *testing.T) {
	var c MonotonicClock
	prev, err := c.Now()
	require.NoError(t, err)
	for i := 0; i < 1000; i++ {
		now, err := c.Now()
		require.NoError(t, err)
		require.GreaterOrEqual(t, now, prev)
		prev = now
	}
}

func TestClockFunc(t *testing.T) {
	c := ClockFunc(func() (time.Duration, error) { return 42, nil })
	now, err := c.Now()
	require.NoError(t, err)
	assert.Equal(t, time.Duration(42), now)
}
