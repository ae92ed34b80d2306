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

	"github.com/AleutianAI/ctguard/pkg/ct"
	"github.com/AleutianAI/ctguard/services/leakage"
)

const (
	lookupEntries     = 64
	lookupPayloadSize = 16
	absentKeyID       = 1
)

// keyring is the table both lookup candidates search.
var keyring = buildKeyring()

func buildKeyring() []ct.Entry {
	entries := make([]ct.Entry, lookupEntries)
	for i := range entries {
		payload := make([]byte, lookupPayloadSize)
		for j := range payload {
			payload[j] = byte(i*31 + j)
		}
		entries[i] = ct.Entry{ID: uint64(1000 + 7*i), Payload: payload, Active: true}
	}
	return entries
}

func encodeID(id uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, id)
	return buf
}

func decodeID(in []byte) uint64 {
	if len(in) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(in)
}

//go:noinline
func earlyExitLookup(entries []ct.Entry, id uint64) (bool, []byte) {
	for _, e := range entries {
		if e.Active && e.ID == id {
			return true, e.Payload
		}
	}
	return false, nil
}

func payloadWord(found bool, payload []byte) uint64 {
	if !found || len(payload) < 8 {
		return 0
	}
	return binary.LittleEndian.Uint64(payload)
}

func init() {
	table, err := ct.NewTable(keyring, lookupPayloadSize)
	if err != nil {
		panic(fmt.Sprintf("lookup scenario table: %v", err))
	}

	register(newScenario(&Scenario{
		Name:        "lookup",
		Description: "find a key by ID in a 64-entry keyring",
		Classes: func(uint64) ([]leakage.InputClass, error) {
			return []leakage.InputClass{
				leakage.NewFixedClass("first_position", encodeID(keyring[0].ID)),
				leakage.NewFixedClass("last_position", encodeID(keyring[lookupEntries-1].ID)),
				leakage.NewFixedClass("absent_key", encodeID(absentKeyID)),
			}, nil
		},
	},
		Entry{
			Candidate: leakage.NewCandidate("early-exit", func(in []byte) (uint64, error) {
				return payloadWord(earlyExitLookup(keyring, decodeID(in))), nil
			}),
			Expect:      ExpectLeak,
			Description: "linear scan that returns at the first match",
		},
		Entry{
			Candidate: leakage.NewCandidate("constant-time", func(in []byte) (uint64, error) {
				return payloadWord(table.LookupID(decodeID(in))), nil
			}),
			Expect:      ExpectConstant,
			Description: "ct.Table.LookupID",
		},
	))
}
