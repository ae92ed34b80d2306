// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ct provides constant-time primitives for handling secret data.
//
// Every operation in this package executes the same instruction sequence
// and touches the same memory locations regardless of the secret content it
// processes. Only public parameters, such as buffer lengths and table sizes,
// may influence the amount of work performed.
//
// # Primitives
//
//   - Equal: byte-slice equality that scans the longer input
//   - Select, ConditionalSelect: branch-free choice between two words
//   - ConditionalCopy: masked overwrite of a destination buffer
//   - Table: immutable table with oblivious lookup
//   - ReduceMin, ReduceMax: branch-free reductions
//   - Compare, HasPrefix: lexicographic compare and prefix check
//   - Zero, ZeroPasses: non-elidable wipes
//   - Secret, WithSecret: scoped buffers destroyed on every exit path
//
// # Errors
//
// Functions only fail on structural contract violations (mismatched
// lengths, empty inputs). These conditions depend on public parameters,
// never on secret values, so signalling them immediately is safe.
//
// # Limitations
//
// Mask arithmetic guarantees a uniform instruction path and uniform set of
// touched bytes. It does not by itself guarantee uniform cache-line access
// or resistance to speculative execution.
package ct
