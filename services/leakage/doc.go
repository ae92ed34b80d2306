// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package leakage measures whether a candidate operation's execution time
// depends on its input.
//
// A Runner drives two or more InputClasses through a Sampler, records one
// duration per class per trial, and compares every pair of classes with
// Welch's t-test. A pair whose |t| exceeds the caller's threshold is
// reported as a leak.
//
// # Execution model
//
// Runs are strictly sequential. The Runner pins its goroutine to one OS
// thread, never starts goroutines of its own, and interleaves the classes
// within each trial so slow drift affects every class alike. Independent
// runs must themselves be executed one after another.
//
// # Cancellation
//
// The context is checked between trials, never inside one. A cancelled run
// returns no Report and discards every partial sample set.
//
// # Thresholds
//
// The reference threshold |t| > 2.0 is weak for side-channel work;
// established practice uses about 4.5 with far larger sample counts. The
// threshold is therefore always an explicit Config field.
package leakage
