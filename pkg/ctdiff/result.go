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

import "fmt"

// OpKind is the type of one edit.
type OpKind uint8

const (
	OpKeep OpKind = iota + 1
	OpInsert
	OpDelete
	OpSubstitute
)

func (k OpKind) String() string {
	switch k {
	case OpKeep:
		return "keep"
	case OpInsert:
		return "insert"
	case OpDelete:
		return "delete"
	case OpSubstitute:
		return "substitute"
	default:
		return fmt.Sprintf("op(%d)", uint8(k))
	}
}

// MarshalText encodes the kind by name.
func (k OpKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Op is one step of an edit script. Byte is the inserted or substituted
// byte and zero otherwise.
type Op struct {
	Kind OpKind `json:"kind"`
	Byte byte   `json:"byte,omitempty"`
}

// IsModification reports whether the op changes the input.
func (o Op) IsModification() bool { return o.Kind != OpKeep }

// Result is an edit script turning A into B.
type Result struct {
	Ops      []Op `json:"ops"`
	Distance int  `json:"edit_distance"`
	LenA     int  `json:"len_a"`
	LenB     int  `json:"len_b"`
}

// Valid reports whether the script consumes exactly LenA bytes, produces
// exactly LenB bytes and contains Distance modifications.
func (r *Result) Valid() bool {
	var posA, posB, mods int
	for _, op := range r.Ops {
		switch op.Kind {
		case OpKeep:
			posA++
			posB++
		case OpInsert:
			posB++
			mods++
		case OpDelete:
			posA++
			mods++
		case OpSubstitute:
			posA++
			posB++
			mods++
		default:
			return false
		}
	}
	return posA == r.LenA && posB == r.LenB && mods == r.Distance
}

// Apply runs the script over a and returns the reconstructed B.
//
// Apply walks the script, not the secret, and is not constant-time.
func (r *Result) Apply(a []byte) ([]byte, error) {
	if len(a) != r.LenA {
		return nil, fmt.Errorf("input %d bytes, script expects %d: %w", len(a), r.LenA, ErrInvalidScript)
	}
	out := make([]byte, 0, r.LenB)
	pos := 0
	for i, op := range r.Ops {
		switch op.Kind {
		case OpKeep, OpDelete, OpSubstitute:
			if pos >= len(a) {
				return nil, fmt.Errorf("op %d (%s) past end of input: %w", i, op.Kind, ErrInvalidScript)
			}
		}
		switch op.Kind {
		case OpKeep:
			out = append(out, a[pos])
			pos++
		case OpInsert:
			out = append(out, op.Byte)
		case OpDelete:
			pos++
		case OpSubstitute:
			out = append(out, op.Byte)
			pos++
		default:
			return nil, fmt.Errorf("op %d kind %d: %w", i, op.Kind, ErrInvalidScript)
		}
	}
	if pos != len(a) {
		return nil, fmt.Errorf("script consumed %d of %d bytes: %w", pos, len(a), ErrInvalidScript)
	}
	return out, nil
}
