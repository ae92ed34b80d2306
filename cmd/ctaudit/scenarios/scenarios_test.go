// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package scenarios

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/ctguard/pkg/ctdiff"
	"github.com/AleutianAI/ctguard/services/leakage"
)

func TestCatalog(t *testing.T) {
	var names []string
	for _, s := range All() {
		names = append(names, s.Name)
		assert.Equal(t, []string{"constant-time", "early-exit"}, s.Candidates(), s.Name)
		assert.NotEmpty(t, s.Description)
		assert.True(t, (s.Classes == nil) != (s.Random == nil), "%s must set exactly one class source", s.Name)
	}
	assert.Equal(t, []string{"diff-position", "diff-similarity", "index", "lookup", "password", "prefix", "token"}, names)

	_, err := Lookup("nope")
	assert.ErrorIs(t, err, ErrUnknownScenario)

	s, err := Lookup("password")
	require.NoError(t, err)
	_, err = s.Entry("missing")
	assert.ErrorIs(t, err, leakage.ErrNotFound)
}

// Both candidates of a scenario must agree on every class input; only their
// timing differs.
func TestCandidatesAgree(t *testing.T) {
	want := map[string]map[string]uint64{
		"password": {"early_mismatch": 0, "late_mismatch": 0},
		"prefix":   {"full_prefix": 1, "first_byte_mismatch": 0},
		"diff-position": {
			"change_at_pos_0": 1, "change_at_pos_5": 1, "change_at_pos_10": 1, "change_at_end": 1,
		},
		"diff-similarity": {"100_percent_similar": 0, "90_percent_similar": 3},
		"index":           {"out_of_range": 0},
	}

	for _, s := range All() {
		if s.Classes == nil {
			continue
		}
		classes, err := s.Classes(1)
		require.NoError(t, err)

		for _, class := range classes {
			in := class.Next()
			var results []uint64
			for _, name := range s.Candidates() {
				e, err := s.Entry(name)
				require.NoError(t, err)
				v, err := e.Candidate.Call(in)
				require.NoError(t, err)
				results = append(results, v)
			}
			assert.Equal(t, results[0], results[1], "%s/%s", s.Name, class.Name())
			if exp, ok := want[s.Name][class.Name()]; ok {
				assert.Equal(t, exp, results[0], "%s/%s", s.Name, class.Name())
			}
		}
	}
}

func TestPasswordAcceptsStored(t *testing.T) {
	s, err := Lookup("password")
	require.NoError(t, err)
	for _, name := range s.Candidates() {
		e, _ := s.Entry(name)
		v, err := e.Candidate.Call(StoredPassword)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), v, name)
	}
}

func TestLookupFindsPayload(t *testing.T) {
	s, err := Lookup("lookup")
	require.NoError(t, err)
	e, err := s.Entry("constant-time")
	require.NoError(t, err)

	first, err := e.Candidate.Call(encodeID(keyring[0].ID))
	require.NoError(t, err)
	assert.NotZero(t, first)

	absent, err := e.Candidate.Call(encodeID(absentKeyID))
	require.NoError(t, err)
	assert.Zero(t, absent)

	bad, err := e.Candidate.Call([]byte{1, 2})
	require.NoError(t, err)
	assert.Zero(t, bad)
}

func TestTokenVerify(t *testing.T) {
	s, err := Lookup("token")
	require.NoError(t, err)
	fixed, err := s.Fixed()
	require.NoError(t, err)
	require.Len(t, fixed, TagSize)

	want, err := Tag(TokenMessage)
	require.NoError(t, err)
	assert.Equal(t, want, fixed)

	random, err := s.Random(7)
	require.NoError(t, err)

	for _, name := range s.Candidates() {
		e, _ := s.Entry(name)
		v, err := e.Candidate.Call(fixed)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), v, name)

		v, err = e.Candidate.Call(random.Next())
		require.NoError(t, err)
		assert.Equal(t, uint64(0), v, name)

		v, err = e.Candidate.Call(TokenMessage)
		require.NoError(t, err)
		assert.Equal(t, uint64(0), v, "%s: the message itself is not a tag", name)
	}
	assert.Len(t, random.Next(), TagSize)
}

// TestTokenEarlyExitLeaks measures the token scenario on the real clock.
// The tag is precomputed, so the timed loop holds only the comparison and
// the early-exit candidate separates clearly at the default configuration.
func TestTokenEarlyExitLeaks(t *testing.T) {
	if testing.Short() {
		t.Skip("real-clock measurement")
	}
	s, err := Lookup("token")
	require.NoError(t, err)
	runner := leakage.NewRunner(leakage.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	for attempt := 0; attempt < 3; attempt++ {
		e, err := s.Entry("early-exit")
		require.NoError(t, err)
		report, err := s.Run(context.Background(), runner, e, leakage.DefaultConfig(), uint64(attempt+1))
		require.NoError(t, err)
		require.True(t, report.LeakDetected(), "attempt %d: t=%.3f", attempt, report.Verdicts[0].TStatistic)
	}
}

// stepClock advances 100ns per read, so every sample is identical.
type stepClock struct{ now time.Duration }

func (c *stepClock) Now() (time.Duration, error) {
	c.now += 100
	return c.now, nil
}

func TestScenarioRun(t *testing.T) {
	runner := leakage.NewRunner(
		leakage.WithClock(&stepClock{}),
		leakage.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	cfg := leakage.Config{TrialCount: 20, IterationsPerTrial: 5, SignificanceThreshold: 2, HistogramBuckets: 4}

	for _, s := range All() {
		e, err := s.Entry("constant-time")
		require.NoError(t, err)

		report, err := s.Run(context.Background(), runner, e, cfg, 42)
		require.NoError(t, err, s.Name)
		assert.Equal(t, "constant-time", report.Candidate)
		assert.False(t, report.LeakDetected(), s.Name)
		assert.True(t, e.Matches(report), s.Name)
	}
}

func TestEntryMatches(t *testing.T) {
	leaky := &leakage.Report{Verdicts: []leakage.Verdict{{LeakDetected: true}}}
	clean := &leakage.Report{Verdicts: []leakage.Verdict{{}}}

	assert.True(t, Entry{Expect: ExpectLeak}.Matches(leaky))
	assert.False(t, Entry{Expect: ExpectLeak}.Matches(clean))
	assert.True(t, Entry{Expect: ExpectConstant}.Matches(clean))
	assert.False(t, Entry{Expect: ExpectConstant}.Matches(leaky))
}

func TestSplitPair(t *testing.T) {
	tests := []struct {
		name    string
		in      []byte
		a, b    string
		wantErr bool
	}{
		{"round trip", encodePair("abc", "de"), "abc", "de", false},
		{"empty halves", encodePair("", ""), "", "", false},
		{"no prefix", []byte{0}, "", "", true},
		{"short first half", []byte{0, 5, 'a'}, "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b, err := splitPair(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.a, string(a))
			assert.Equal(t, tt.b, string(b))
		})
	}
}

// The shortcut distance must agree with ctdiff on every scenario pair and a
// few edge shapes.
func TestEarlyExitDistance(t *testing.T) {
	pairs := append(append([]diffPair{}, positionPairs...), similarityPairs...)
	pairs = append(pairs,
		diffPair{"empty", "", ""},
		diffPair{"prefix only", "abc", "abcdef"},
		diffPair{"kitten", "kitten", "sitting"},
	)
	d, err := ctdiff.New(ctdiff.Config{MaxInputSize: diffPadding, Pad: true, PaddingSize: diffPadding})
	require.NoError(t, err)

	for _, p := range pairs {
		t.Run(p.name, func(t *testing.T) {
			res, err := d.Diff([]byte(p.a), []byte(p.b))
			require.NoError(t, err)
			assert.Equal(t, res.Distance, earlyExitDistance([]byte(p.a), []byte(p.b)))
		})
	}
}

func TestDiffScenarios_SetIterations(t *testing.T) {
	for _, name := range []string{"diff-position", "diff-similarity"} {
		s, err := Lookup(name)
		require.NoError(t, err)
		assert.Equal(t, diffIterations, s.Iterations, name)
	}
	s, err := Lookup("password")
	require.NoError(t, err)
	assert.Zero(t, s.Iterations)
}

func TestIndexCandidates(t *testing.T) {
	s, err := Lookup("index")
	require.NoError(t, err)

	tests := []struct {
		index uint64
		want  []byte
	}{
		{0, vault[0].Payload},
		{5, vault[5].Payload},
		{indexSlots - 1, vault[indexSlots-1].Payload},
		{indexSlots, nil},
		{1 << 63, nil},
	}
	for _, tt := range tests {
		found, payload := earlyExitIndex(vault, tt.index)
		assert.Equal(t, tt.want != nil, found, "index %d", tt.index)
		assert.Equal(t, tt.want, payload, "index %d", tt.index)

		for _, name := range s.Candidates() {
			e, err := s.Entry(name)
			require.NoError(t, err)
			v, err := e.Candidate.Call(encodeID(tt.index))
			require.NoError(t, err)
			assert.Equal(t, payloadWord(found, payload), v, "%s index %d", name, tt.index)
		}
	}
	assert.Equal(t, indexSlots, indexFrom(1<<63))
	assert.Equal(t, 3, indexFrom(3))
}
