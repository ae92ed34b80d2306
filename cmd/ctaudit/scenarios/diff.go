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
	"encoding/binary"
	"fmt"

	"github.com/AleutianAI/ctguard/pkg/ctdiff"
	"github.com/AleutianAI/ctguard/services/leakage"
)

const (
	diffPadding = 64

	// Each diff call fills a full padded matrix, so far fewer calls fit in
	// a trial than for the comparison scenarios.
	diffIterations = 10
)

// diffPair is one (a, b) input of a diff scenario.
type diffPair struct {
	name string
	a, b string
}

// positionPairs differ by one byte at a moving position.
var positionPairs = []diffPair{
	{"change_at_pos_0", "Xhello world test", "Ahello world test"},
	{"change_at_pos_5", "helloXworld test", "helloAworld test"},
	{"change_at_pos_10", "hello worldXtest", "hello worldAtest"},
	{"change_at_end", "hello world tesX", "hello world tesA"},
}

const similarityBase = "the quick brown fox jumps over the lazy dog"

// similarityPairs compare one base against inputs of falling similarity.
var similarityPairs = []diffPair{
	{"100_percent_similar", similarityBase, similarityBase},
	{"90_percent_similar", similarityBase, "the quick brown fox jumps over the lazy cat"},
	{"70_percent_similar", similarityBase, "the quick brown cat jumps over the lazy dog"},
	{"50_percent_similar", similarityBase, "the slow brown fox walks over the lazy dog"},
	{"10_percent_similar", similarityBase, "completely different content with few matches"},
}

// encodePair packs a and b as a big-endian uint16 length of a, then a, then b.
func encodePair(a, b string) []byte {
	buf := make([]byte, 2, 2+len(a)+len(b))
	binary.BigEndian.PutUint16(buf, uint16(len(a)))
	buf = append(buf, a...)
	return append(buf, b...)
}

func splitPair(in []byte) (a, b []byte, err error) {
	if len(in) < 2 {
		return nil, nil, fmt.Errorf("diff input of %d bytes has no length prefix", len(in))
	}
	n := int(binary.BigEndian.Uint16(in))
	if 2+n > len(in) {
		return nil, nil, fmt.Errorf("diff input: first half %d bytes, only %d present", n, len(in)-2)
	}
	return in[2 : 2+n], in[2+n:], nil
}

func pairClasses(pairs []diffPair) func(uint64) ([]leakage.InputClass, error) {
	return func(uint64) ([]leakage.InputClass, error) {
		classes := make([]leakage.InputClass, len(pairs))
		for i, p := range pairs {
			classes[i] = leakage.NewFixedClass(p.name, encodePair(p.a, p.b))
		}
		return classes, nil
	}
}

// earlyExitDistance is a textbook edit distance with the usual shortcuts:
// identical inputs return at once, a shared prefix is skipped and every
// cell takes a branch.
//
//go:noinline
func earlyExitDistance(a, b []byte) int {
	if string(a) == string(b) {
		return 0
	}
	for len(a) > 0 && len(b) > 0 && a[0] == b[0] {
		a, b = a[1:], b[1:]
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1]
				continue
			}
			best := prev[j-1]
			if cur[j-1] < best {
				best = cur[j-1]
			}
			if prev[j] < best {
				best = prev[j]
			}
			cur[j] = best + 1
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

func diffEntries(d *ctdiff.Differ) []Entry {
	return []Entry{
		{
			Candidate: leakage.NewCandidate("early-exit", func(in []byte) (uint64, error) {
				a, b, err := splitPair(in)
				if err != nil {
					return 0, err
				}
				return uint64(earlyExitDistance(a, b)), nil
			}),
			Expect:      ExpectLeak,
			Description: "edit distance that skips identical inputs and shared prefixes",
		},
		{
			Candidate: leakage.NewCandidate("constant-time", func(in []byte) (uint64, error) {
				a, b, err := splitPair(in)
				if err != nil {
					return 0, err
				}
				res, err := d.Diff(a, b)
				if err != nil {
					return 0, err
				}
				return uint64(res.Distance), nil
			}),
			Expect:      ExpectConstant,
			Description: fmt.Sprintf("ctdiff.Differ padded to %d bytes", diffPadding),
		},
	}
}

func init() {
	d, err := ctdiff.New(ctdiff.Config{MaxInputSize: diffPadding, Pad: true, PaddingSize: diffPadding})
	if err != nil {
		panic(fmt.Sprintf("diff scenario differ: %v", err))
	}

	register(newScenario(&Scenario{
		Name:        "diff-position",
		Description: "diff inputs that differ by one byte at a moving position",
		Iterations:  diffIterations,
		Classes:     pairClasses(positionPairs),
	}, diffEntries(d)...))

	register(newScenario(&Scenario{
		Name:        "diff-similarity",
		Description: "diff a sentence against inputs from identical to unrelated",
		Iterations:  diffIterations,
		Classes:     pairClasses(similarityPairs),
	}, diffEntries(d)...))
}
