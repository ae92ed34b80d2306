// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ctdiff computes byte-level edit scripts without timing leaks.
//
// The edit matrix is filled cell by cell with ct.Min and ct.Select: every
// cell costs the same instructions whether its bytes match or not, and no
// row ends early. With padding enabled both inputs are extended to a
// common length first, so the amount of work depends on the configured
// padding size rather than on the inputs.
//
// # Limitations
//
// Backtracking always runs a fixed number of steps, each with the same
// instructions, but it reads one matrix cell per step, so the addresses it
// touches follow the edit path. Like package ct, this package makes no
// claim about cache-line timing. Turning the fixed-size step buffer into
// the returned script and applying a script are ordinary code.
package ctdiff

import (
	"fmt"

	"github.com/AleutianAI/ctguard/pkg/ct"
)

// Differ computes diffs under one Config.
//
// Thread Safety: Safe for concurrent use. Each call allocates its own matrix.
type Differ struct {
	cfg Config
}

// New validates cfg and returns a Differ.
func New(cfg Config) (*Differ, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Differ{cfg: cfg}, nil
}

// Config returns the Differ's configuration.
func (d *Differ) Config() Config { return d.cfg }

// Diff returns the minimal edit script turning a into b.
//
// Inputs:
//   - a, b: Inputs. Neither is modified. Each must fit MaxInputSize and,
//     when padding, the padding size.
//
// Outputs:
//   - *Result: Substitutions, insertions and deletions of unit cost.
//   - error: ErrInputTooLarge or ErrComputationLimit.
func (d *Differ) Diff(a, b []byte) (*Result, error) {
	pa, pb, release, err := d.prepare(a, b)
	if err != nil {
		return nil, err
	}
	defer release()

	matrix := fill(pa, pb)
	steps := backtrack(pa, pb, matrix, len(a), len(b))
	return compact(steps, len(a), len(b)), nil
}

// Distance returns the edit distance between a and b without building a
// script.
func (d *Differ) Distance(a, b []byte) (int, error) {
	pa, pb, release, err := d.prepare(a, b)
	if err != nil {
		return 0, err
	}
	defer release()

	matrix := fill(pa, pb)
	return int(matrix[len(a)*(len(pb)+1)+len(b)]), nil
}

// Closest returns the index of the candidate with the smallest edit
// distance to a, and that distance. Ties go to the lowest index. Every
// candidate is diffed in full and the minimum is chosen with ct.ReduceMin.
func (d *Differ) Closest(a []byte, candidates [][]byte) (index, distance int, err error) {
	if len(candidates) == 0 {
		return 0, 0, fmt.Errorf("no candidates: %w", ct.ErrEmptyInput)
	}

	dists := make([]uint64, len(candidates))
	for k, c := range candidates {
		dist, err := d.Distance(a, c)
		if err != nil {
			return 0, 0, fmt.Errorf("candidate %d: %w", k, err)
		}
		dists[k] = uint64(dist)
	}

	best, err := ct.ReduceMin(dists)
	if err != nil {
		return 0, 0, err
	}
	var (
		idx   uint64
		found ct.Mask
	)
	for k, v := range dists {
		hit := ct.MaskEq(v, best) &^ found
		idx = ct.Select(hit, uint64(k), idx)
		found |= hit
	}
	return int(idx), int(best), nil
}

// prepare checks limits and returns the (possibly padded) inputs. release
// wipes any padded copies.
func (d *Differ) prepare(a, b []byte) (pa, pb []byte, release func(), err error) {
	if len(a) > d.cfg.MaxInputSize || len(b) > d.cfg.MaxInputSize {
		return nil, nil, nil, fmt.Errorf("input %d bytes, limit %d: %w", max(len(a), len(b)), d.cfg.MaxInputSize, ErrInputTooLarge)
	}
	size, err := d.cfg.paddedLen(len(a), len(b))
	if err != nil {
		return nil, nil, nil, err
	}

	pa, pb, release = a, b, func() {}
	if size > 0 {
		pa, pb = pad(a, size), pad(b, size)
		release = func() {
			ct.Zero(pa)
			ct.Zero(pb)
		}
	}

	if cells := (len(pa) + 1) * (len(pb) + 1); d.cfg.MaxCells > 0 && cells > d.cfg.MaxCells {
		release()
		return nil, nil, nil, fmt.Errorf("%d cells, limit %d: %w", cells, d.cfg.MaxCells, ErrComputationLimit)
	}
	return pa, pb, release, nil
}

func pad(in []byte, size int) []byte {
	out := make([]byte, size)
	copy(out, in)
	for i := len(in); i < size; i++ {
		out[i] = PadByte
	}
	return out
}

// fill computes the full (len(a)+1) x (len(b)+1) edit matrix, row-major.
// Cell (i, j) is the distance between a[:i] and b[:j].
func fill(a, b []byte) []uint32 {
	m, n := len(a), len(b)
	w := n + 1
	dist := make([]uint32, (m+1)*w)
	for i := 0; i <= m; i++ {
		dist[i*w] = uint32(i)
	}
	for j := 0; j <= n; j++ {
		dist[j] = uint32(j)
	}

	for i := 1; i <= m; i++ {
		ai := uint64(a[i-1])
		prev, row := dist[(i-1)*w:i*w], dist[i*w:(i+1)*w]
		for j := 1; j <= n; j++ {
			cost := ct.Select(ct.MaskEq(ai, uint64(b[j-1])), 0, 1)
			diag := uint64(prev[j-1]) + cost
			ins := uint64(row[j-1]) + 1
			del := uint64(prev[j]) + 1
			row[j] = uint32(ct.Min(diag, ct.Min(ins, del)))
		}
	}
	return dist
}

// backtrack walks from cell (lenA, lenB) to the origin. It runs
// len(a)+len(b) steps, the longest possible path; steps after the origin is
// reached record a zero Op. The returned steps are in reverse order.
func backtrack(a, b []byte, dist []uint32, lenA, lenB int) []Op {
	w := uint64(len(b) + 1)
	steps := make([]Op, len(a)+len(b))
	i, j := uint64(lenA), uint64(lenB)

	for s := range steps {
		hasI, hasJ := ct.MaskNonZero(i), ct.MaskNonZero(j)
		active := hasI | hasJ
		pi := ct.Select(hasI, i-1, 0)
		pj := ct.Select(hasJ, j-1, 0)

		bj := byteAt(b, pj)
		eq := ct.MaskEq(uint64(byteAt(a, pi)), uint64(bj))
		cur := uint64(dist[i*w+j])
		diag := uint64(dist[pi*w+pj])
		up := uint64(dist[pi*w+j])

		fromDiag := hasI & hasJ & ct.MaskEq(cur, diag+ct.Select(eq, 0, 1))
		fromDel := hasI &^ fromDiag & (ct.MaskEq(cur, up+1) | ^hasJ)
		fromIns := hasJ &^ fromDiag &^ fromDel

		kind := ct.Select(fromDiag&eq, uint64(OpKeep),
			ct.Select(fromDiag, uint64(OpSubstitute),
				ct.Select(fromDel, uint64(OpDelete), uint64(OpInsert))))
		carry := (fromIns | fromDiag&^eq) & active

		steps[s] = Op{
			Kind: OpKind(ct.Select(active, kind, 0)),
			Byte: ct.SelectByte(carry, bj, 0),
		}

		i -= ct.Select(active&(fromDiag|fromDel), 1, 0)
		j -= ct.Select(active&(fromDiag|fromIns), 1, 0)
	}
	return steps
}

// byteAt reads buf[k]; an empty buf reads as zero. Callers keep k in range
// for non-empty buffers.
func byteAt(buf []byte, k uint64) byte {
	if len(buf) == 0 {
		return 0
	}
	return buf[k]
}

func compact(steps []Op, lenA, lenB int) *Result {
	res := &Result{Ops: make([]Op, 0, len(steps)), LenA: lenA, LenB: lenB}
	for k := len(steps) - 1; k >= 0; k-- {
		op := steps[k]
		if op.Kind == 0 {
			continue
		}
		res.Ops = append(res.Ops, op)
		if op.IsModification() {
			res.Distance++
		}
	}
	return res
}

// Diff runs a Differ with the LevelBalanced preset.
func Diff(a, b []byte) (*Result, error) {
	return presetDiff(LevelBalanced, a, b)
}

// SecureDiff runs a Differ with the LevelMaximum preset.
func SecureDiff(a, b []byte) (*Result, error) {
	return presetDiff(LevelMaximum, a, b)
}

func presetDiff(l Level, a, b []byte) (*Result, error) {
	d, err := New(l.Config(0))
	if err != nil {
		return nil, err
	}
	return d.Diff(a, b)
}
