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

	"github.com/AleutianAI/ctguard/pkg/ct"
	"github.com/AleutianAI/ctguard/services/leakage"
)

const (
	indexSlots       = 64
	indexPayloadSize = 32
)

// vaultNames fill the first slots of the index table; the rest stay empty.
var vaultNames = []string{
	"user_data_alice",
	"user_data_bob",
	"user_data_charlie",
	"admin_config_prod",
	"admin_config_test",
	"secret_key_primary",
	"secret_key_backup",
	"certificate_root_ca",
	"certificate_intermediate",
	"database_credentials",
}

var vault = buildVault()

func buildVault() []ct.Entry {
	entries := make([]ct.Entry, indexSlots)
	for i := range entries {
		payload := make([]byte, indexPayloadSize)
		if i < len(vaultNames) {
			copy(payload, vaultNames[i])
		} else {
			copy(payload, fmt.Sprintf("slot_%02d", i))
		}
		entries[i] = ct.Entry{ID: uint64(i), Payload: payload, Active: true}
	}
	return entries
}

//go:noinline
func earlyExitIndex(entries []ct.Entry, index uint64) (bool, []byte) {
	for i := range entries {
		if uint64(i) == index {
			return true, entries[i].Payload
		}
	}
	return false, nil
}

func init() {
	table, err := ct.NewTable(vault, indexPayloadSize)
	if err != nil {
		panic(fmt.Sprintf("index scenario table: %v", err))
	}

	register(newScenario(&Scenario{
		Name:        "index",
		Description: "read a 64-slot table by secret index",
		Classes: func(uint64) ([]leakage.InputClass, error) {
			return []leakage.InputClass{
				leakage.NewFixedClass("first_slot", encodeID(0)),
				leakage.NewFixedClass("last_slot", encodeID(indexSlots-1)),
				leakage.NewFixedClass("out_of_range", encodeID(indexSlots)),
			}, nil
		},
	},
		Entry{
			Candidate: leakage.NewCandidate("early-exit", func(in []byte) (uint64, error) {
				return payloadWord(earlyExitIndex(vault, decodeID(in))), nil
			}),
			Expect:      ExpectLeak,
			Description: "loop over slots that returns when it reaches the index",
		},
		Entry{
			Candidate: leakage.NewCandidate("constant-time", func(in []byte) (uint64, error) {
				return payloadWord(table.At(indexFrom(decodeID(in)))), nil
			}),
			Expect:      ExpectConstant,
			Description: "ct.Table.At",
		},
	))
}

// indexFrom clamps a decoded index into int range; anything past the table
// reads as out of range.
func indexFrom(v uint64) int {
	return int(ct.Select(ct.MaskLess(v, indexSlots), v, indexSlots))
}
