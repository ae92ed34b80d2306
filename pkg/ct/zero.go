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

import (
	"runtime"

	"github.com/awnumar/memguard"
)

// WipePatterns is the default overwrite sequence for ZeroPasses.
var WipePatterns = []byte{0x00, 0xff, 0x00}

// Zero overwrites every byte of buf with zero.
//
// The write goes through memguard.WipeBytes, which the compiler cannot
// discard as a dead store, and buf is kept alive past the wipe.
func Zero(buf []byte) {
	memguard.WipeBytes(buf)
	runtime.KeepAlive(buf)
}

// ZeroPasses overwrites buf once per pattern, then finishes with Zero.
// With no patterns it uses WipePatterns.
func ZeroPasses(buf []byte, patterns ...byte) {
	if len(patterns) == 0 {
		patterns = WipePatterns
	}
	for _, p := range patterns {
		fill(buf, p)
	}
	Zero(buf)
}

//go:noinline
func fill(buf []byte, p byte) {
	for i := range buf {
		buf[i] = p
	}
	runtime.KeepAlive(buf)
}
