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

import "fmt"

// Entry is one row of a Table.
type Entry struct {
	// ID identifies the entry. It is compared with MaskEq, never ==.
	ID uint64

	// Payload is the secret value returned on a match. NewTable pads it
	// with zeros to the table's payload size.
	Payload []byte

	// Active marks whether the entry may match. Inactive entries are still
	// scanned.
	Active bool
}

// Predicate computes an entry's match mask. It must return MaskTrue or
// MaskFalse using mask arithmetic only, and must not retain or modify the
// entry's payload.
type Predicate func(e Entry) Mask

// Table is an immutable, fixed-size table supporting oblivious lookup.
//
// # Description
//
// Tables are built once with NewTable and never change afterwards. Every
// lookup visits every entry exactly once and copies every payload through a
// mask, so the work done is identical whether the match sits at position 0,
// at position N-1, or nowhere.
//
// # Thread Safety
//
// Safe for concurrent lookups.
type Table struct {
	entries     []Entry
	payloadSize int
}

// NewTable copies entries into a new Table.
//
// # Inputs
//
//   - entries: Rows to store. Each payload may be at most payloadSize bytes.
//   - payloadSize: Fixed payload length. Must be positive.
//
// # Outputs
//
//   - *Table: The immutable table.
//   - error: ErrInvalidSize or ErrLengthMismatch on bad input.
func NewTable(entries []Entry, payloadSize int) (*Table, error) {
	if payloadSize < 1 {
		return nil, fmt.Errorf("payload size %d: %w", payloadSize, ErrInvalidSize)
	}

	rows := make([]Entry, len(entries))
	for i, e := range entries {
		if len(e.Payload) > payloadSize {
			return nil, fmt.Errorf("entry %d payload %d > %d: %w", i, len(e.Payload), payloadSize, ErrLengthMismatch)
		}
		p := make([]byte, payloadSize)
		copy(p, e.Payload)
		rows[i] = Entry{ID: e.ID, Payload: p, Active: e.Active}
	}

	return &Table{entries: rows, payloadSize: payloadSize}, nil
}

// Len returns the number of entries.
func (t *Table) Len() int { return len(t.entries) }

// PayloadSize returns the fixed payload length.
func (t *Table) PayloadSize() int { return t.payloadSize }

// Lookup scans every entry and returns the payload of the matching one.
//
// # Description
//
// For each entry the predicate yields a match mask. The mask is ORed into
// the found accumulator and used to copy the entry's payload into the
// result buffer. There is no early return. If several entries match, the
// last one wins.
//
// # Outputs
//
//   - found: Whether any entry matched.
//   - payload: A fresh buffer owned by the caller. All zero when not found.
func (t *Table) Lookup(pred Predicate) (found bool, payload []byte) {
	out := make([]byte, t.payloadSize)
	var acc Mask
	for i := range t.entries {
		m := pred(t.entries[i])
		acc |= m
		CopyMasked(m, out, t.entries[i].Payload)
	}
	return acc.Bool(), out
}

// LookupID finds the active entry whose ID equals id.
func (t *Table) LookupID(id uint64) (bool, []byte) {
	return t.Lookup(func(e Entry) Mask {
		return MaskEq(e.ID, id) & MaskFromBool(e.Active)
	})
}

// At returns the payload stored at index, reading every entry to do so.
// An out-of-range index reports found=false with a zero payload.
func (t *Table) At(index int) (bool, []byte) {
	out := make([]byte, t.payloadSize)
	var acc Mask
	for i := range t.entries {
		m := MaskEq(uint64(i), uint64(index))
		acc |= m
		CopyMasked(m, out, t.entries[i].Payload)
	}
	return acc.Bool(), out
}
