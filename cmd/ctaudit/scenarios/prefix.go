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
	"github.com/AleutianAI/ctguard/pkg/ct"
	"github.com/AleutianAI/ctguard/services/leakage"
)

// APIKeyPrefix is the secret prefix a presented key must start with.
var APIKeyPrefix = []byte("ctg_live_9f8e7d6c5b4a39281706f5e4")

//go:noinline
func earlyExitHasPrefix(s, prefix []byte) bool {
	if len(s) < len(prefix) {
		return false
	}
	for i := range prefix {
		if s[i] != prefix[i] {
			return false
		}
	}
	return true
}

func init() {
	register(newScenario(&Scenario{
		Name:        "prefix",
		Description: "check that a presented API key carries the secret prefix",
		Classes: func(uint64) ([]leakage.InputClass, error) {
			valid := append(append([]byte(nil), APIKeyPrefix...), "_customer0042"...)
			wrong := append([]byte(nil), valid...)
			wrong[0] = 'x'
			return []leakage.InputClass{
				leakage.NewFixedClass("full_prefix", valid),
				leakage.NewFixedClass("first_byte_mismatch", wrong),
			}, nil
		},
	},
		Entry{
			Candidate: leakage.BoolCandidate("early-exit", func(in []byte) bool {
				return earlyExitHasPrefix(in, APIKeyPrefix)
			}),
			Expect:      ExpectLeak,
			Description: "byte loop that returns on first mismatch",
		},
		Entry{
			Candidate: leakage.BoolCandidate("constant-time", func(in []byte) bool {
				return ct.HasPrefix(in, APIKeyPrefix)
			}),
			Expect:      ExpectConstant,
			Description: "ct.HasPrefix",
		},
	))
}
