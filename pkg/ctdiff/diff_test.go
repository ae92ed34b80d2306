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
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/ctguard/pkg/ct"
)

// levenshtein is a plain two-row reference.
func levenshtein(a, b []byte) int {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j-1]+cost, cur[j-1]+1, prev[j]+1)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

func newDiffer(t *testing.T, cfg Config) *Differ {
	t.Helper()
	d, err := New(cfg)
	require.NoError(t, err)
	return d
}

func requireScript(t *testing.T, res *Result, a, b []byte) {
	t.Helper()
	require.True(t, res.Valid(), "script %v", res.Ops)
	out, err := res.Apply(a)
	require.NoError(t, err)
	assert.Equal(t, b, out)
}

func TestDiff_Cases(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		distance int
	}{
		{"both empty", "", "", 0},
		{"insert all", "", "abc", 3},
		{"delete all", "abc", "", 3},
		{"identical", "hello", "hello", 0},
		{"one substitution", "hello", "hallo", 1},
		{"kitten sitting", "kitten", "sitting", 3},
		{"prefix change", "Xhello world test", "Ahello world test", 1},
		{"suffix change", "hello world tesX", "hello world tesA", 1},
		{"insert middle", "helloworld", "hello world", 1},
		{"pad byte in input", "a\xffb", "ab", 1},
		{"disjoint", "abc", "xyz", 3},
	}

	configs := map[string]Config{
		"unpadded":   {MaxInputSize: 64},
		"auto pad":   {MaxInputSize: 64, Pad: true},
		"fixed pad":  {MaxInputSize: 64, Pad: true, PaddingSize: 32},
		"cell bound": {MaxInputSize: 64, Pad: true, PaddingSize: 32, MaxCells: 33 * 33},
	}

	for cfgName, cfg := range configs {
		d := newDiffer(t, cfg)
		for _, tt := range tests {
			t.Run(cfgName+"/"+tt.name, func(t *testing.T) {
				a, b := []byte(tt.a), []byte(tt.b)
				res, err := d.Diff(a, b)
				require.NoError(t, err)
				assert.Equal(t, tt.distance, res.Distance)
				assert.Equal(t, len(a), res.LenA)
				assert.Equal(t, len(b), res.LenB)
				requireScript(t, res, a, b)

				dist, err := d.Distance(a, b)
				require.NoError(t, err)
				assert.Equal(t, tt.distance, dist)
			})
		}
	}
}

// TestDiff_MatchesReference checks minimality against a plain Levenshtein
// over random pairs drawn from a small alphabet, where ties are common.
func TestDiff_MatchesReference(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	alphabet := []byte("ab\xff")
	d := newDiffer(t, Config{MaxInputSize: 24, Pad: true})

	for n := 0; n < 300; n++ {
		a := make([]byte, rng.IntN(25))
		b := make([]byte, rng.IntN(25))
		for i := range a {
			a[i] = alphabet[rng.IntN(len(alphabet))]
		}
		for i := range b {
			b[i] = alphabet[rng.IntN(len(alphabet))]
		}

		res, err := d.Diff(a, b)
		require.NoError(t, err)
		require.Equal(t, levenshtein(a, b), res.Distance, "a=%q b=%q", a, b)
		requireScript(t, res, a, b)
	}
}

func TestDiff_IdenticalIsAllKeeps(t *testing.T) {
	in := []byte("the quick brown fox jumps over the lazy dog")
	d := newDiffer(t, LevelBalanced.Config(0))

	res, err := d.Diff(in, in)
	require.NoError(t, err)
	require.Len(t, res.Ops, len(in))
	for i, op := range res.Ops {
		assert.Equal(t, Op{Kind: OpKeep}, op, "op %d", i)
	}
}

func TestDiff_DoesNotModifyInputs(t *testing.T) {
	a, b := []byte("abc"), []byte("abd")
	d := newDiffer(t, Config{MaxInputSize: 8, Pad: true, PaddingSize: 8})

	_, err := d.Diff(a, b)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), a)
	assert.Equal(t, []byte("abd"), b)
}

func TestDiff_Limits(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		a, b    int
		wantErr error
	}{
		{"over max input", Config{MaxInputSize: 8}, 9, 1, ErrInputTooLarge},
		{"over padding size", Config{MaxInputSize: 16, Pad: true, PaddingSize: 4}, 1, 5, ErrInputTooLarge},
		{"over cell bound", Config{MaxInputSize: 16, MaxCells: 10}, 3, 3, ErrComputationLimit},
		{"padded cells count", Config{MaxInputSize: 16, Pad: true, PaddingSize: 8, MaxCells: 80}, 1, 1, ErrComputationLimit},
		{"at limits", Config{MaxInputSize: 8, Pad: true, PaddingSize: 8, MaxCells: 81}, 8, 8, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDiffer(t, tt.cfg)
			_, err := d.Diff(make([]byte, tt.a), make([]byte, tt.b))
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, ct.ErrContractViolation)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"zero max input", Config{}, false},
		{"negative padding", Config{MaxInputSize: 4, PaddingSize: -1}, false},
		{"padding over max", Config{MaxInputSize: 4, PaddingSize: 8}, false},
		{"negative cells", Config{MaxInputSize: 4, MaxCells: -1}, false},
		{"minimal", Config{MaxInputSize: 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}

	for _, l := range []Level{LevelMaximum, LevelBalanced, LevelFast} {
		assert.NoError(t, l.Config(0).Validate(), "%s preset", l)
		assert.NoError(t, l.Config(16).Validate(), "%s preset, 16 bytes", l)
	}
}

func TestPaddedLen(t *testing.T) {
	tests := []struct {
		cfg        Config
		lenA, lenB int
		want       int
	}{
		{Config{MaxInputSize: 64}, 5, 9, 0},
		{Config{MaxInputSize: 64, Pad: true}, 0, 0, 1},
		{Config{MaxInputSize: 64, Pad: true}, 5, 9, 16},
		{Config{MaxInputSize: 64, Pad: true}, 16, 3, 16},
		{Config{MaxInputSize: 40, Pad: true}, 33, 1, 40},
		{Config{MaxInputSize: 64, Pad: true, PaddingSize: 48}, 5, 9, 48},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%+v/%d,%d", tt.cfg, tt.lenA, tt.lenB), func(t *testing.T) {
			got, err := tt.cfg.paddedLen(tt.lenA, tt.lenB)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
		ok   bool
	}{
		{"maximum", LevelMaximum, true},
		{"MAX", LevelMaximum, true},
		{" balanced ", LevelBalanced, true},
		{"", LevelBalanced, true},
		{"fast", LevelFast, true},
		{"paranoid", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if !tt.ok {
				assert.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			round, err := ParseLevel(got.String())
			require.NoError(t, err)
			assert.Equal(t, got, round)
		})
	}
}

func TestClosest_PicksLowestDistance(t *testing.T) {
	d := newDiffer(t, Config{MaxInputSize: 64, Pad: true, PaddingSize: 64})
	base := []byte("the quick brown fox jumps over the lazy dog")

	tests := []struct {
		name       string
		candidates []string
		index      int
		distance   int
	}{
		{"exact last", []string{"completely different", "the quick brown cat", string(base)}, 2, 0},
		{"near first", []string{"the quick brown fox jumps over the lazy cat", "the slow brown fox walks over the lazy dog"}, 0, 3},
		{"tie goes low", []string{"xyz", "abc", "xyz"}, 0, 41},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cands := make([][]byte, len(tt.candidates))
			for i, c := range tt.candidates {
				cands[i] = []byte(c)
			}
			index, distance, err := d.Closest(base, cands)
			require.NoError(t, err)
			assert.Equal(t, tt.index, index)
			assert.Equal(t, tt.distance, distance)
		})
	}

	_, _, err := d.Closest(base, nil)
	assert.ErrorIs(t, err, ct.ErrEmptyInput)
}

func TestPresetDiff(t *testing.T) {
	a, b := []byte("hello world"), []byte("hello, world")

	res, err := Diff(a, b)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Distance)
	requireScript(t, res, a, b)

	_, err = Diff(make([]byte, BalancedInputSize+1), nil)
	assert.ErrorIs(t, err, ErrInputTooLarge)
}

func TestResult_ApplyRejectsBadScripts(t *testing.T) {
	tests := []struct {
		name string
		res  Result
		in   string
	}{
		{"wrong input length", Result{LenA: 2}, "a"},
		{"keep past end", Result{Ops: []Op{{Kind: OpKeep}, {Kind: OpKeep}}, LenA: 1, LenB: 2}, "a"},
		{"unconsumed input", Result{Ops: []Op{{Kind: OpKeep}}, LenA: 2, LenB: 1}, "ab"},
		{"unknown kind", Result{Ops: []Op{{Kind: 9}}, LenA: 1}, "a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, tt.res.Valid())
			_, err := tt.res.Apply([]byte(tt.in))
			assert.ErrorIs(t, err, ErrInvalidScript)
		})
	}
}
