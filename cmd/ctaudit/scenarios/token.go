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
	"fmt"
	"sync"

	"golang.org/x/crypto/sha3"

	"github.com/AleutianAI/ctguard/pkg/ct"
	"github.com/AleutianAI/ctguard/services/leakage"
)

// TagSize is the length of a token tag.
const TagSize = 32

// TokenMessage is the message whose tag the server expects.
var TokenMessage = []byte("user=alice;role=admin;exp=1767225600")

var (
	// tokenKey is created on first use so that the process has already
	// chosen between locked and heap memory. ct.Purge wipes it at exit.
	tokenKey = sync.OnceValues(func() (*ct.Secret, error) {
		return ct.SecretFrom([]byte("ctguard-demo-token-signing-key-0"))
	})

	expectedTag = sync.OnceValues(func() ([]byte, error) {
		return Tag(TokenMessage)
	})
)

// Tag is SHA3-256 over key || msg.
func Tag(msg []byte) ([]byte, error) {
	key, err := tokenKey()
	if err != nil {
		return nil, fmt.Errorf("token key: %w", err)
	}
	h := sha3.New256()
	h.Write(key.Bytes())
	h.Write(msg)
	return h.Sum(nil), nil
}

// byteAlphabet holds every byte value, for uniformly random tags.
var byteAlphabet = func() string {
	b := make([]byte, 256)
	for i := range b {
		b[i] = byte(i)
	}
	return string(b)
}()

// verifyWith checks a presented tag against the expected one. The tag is
// computed once, outside the timed loop, so only the comparison is measured.
func verifyWith(eq func(a, b []byte) bool) leakage.CandidateFunc {
	return func(presented []byte) (uint64, error) {
		want, err := expectedTag()
		if err != nil {
			return 0, err
		}
		if eq(want, presented) {
			return 1, nil
		}
		return 0, nil
	}
}

func init() {
	register(newScenario(&Scenario{
		Name:        "token",
		Description: "check a presented SHA3-keyed tag, the valid tag vs random tags",
		Fixed:       expectedTag,
		Random: func(seed uint64) (leakage.InputClass, error) {
			c, err := leakage.NewRandomClass("random", TagSize, byteAlphabet, seed)
			if err != nil {
				return nil, err
			}
			return c, nil
		},
	},
		Entry{
			Candidate:   leakage.NewCandidate("early-exit", verifyWith(earlyExitEqual)),
			Expect:      ExpectLeak,
			Description: "tag compare that returns on first mismatch",
		},
		Entry{
			Candidate:   leakage.NewCandidate("constant-time", verifyWith(ct.Equal)),
			Expect:      ExpectConstant,
			Description: "tag compare with ct.Equal",
		},
	))
}
