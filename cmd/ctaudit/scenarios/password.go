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

// StoredPassword is the secret both password candidates compare against.
var StoredPassword = []byte("MySecretPassword123!")

//go:noinline
func earlyExitEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func init() {
	register(newScenario(&Scenario{
		Name:        "password",
		Description: "compare a guess against a stored password",
		Classes: func(uint64) ([]leakage.InputClass, error) {
			return []leakage.InputClass{
				leakage.NewFixedClass("early_mismatch", []byte("wrong_password")),
				leakage.NewFixedClass("late_mismatch", []byte("MySecretPassword999!")),
			}, nil
		},
	},
		Entry{
			Candidate: leakage.BoolCandidate("early-exit", func(in []byte) bool {
				return earlyExitEqual(StoredPassword, in)
			}),
			Expect:      ExpectLeak,
			Description: "length check then byte loop that returns on first mismatch",
		},
		Entry{
			Candidate: leakage.BoolCandidate("constant-time", func(in []byte) bool {
				return ct.Equal(StoredPassword, in)
			}),
			Expect:      ExpectConstant,
			Description: "ct.Equal",
		},
	))
}
