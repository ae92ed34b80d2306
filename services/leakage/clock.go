// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package leakage

import "time"

// Clock reads a monotonic timestamp.
//
// Readings are only compared with each other, so the origin is arbitrary.
// An error from Now aborts the run with ErrClockFailure.
type Clock interface {
	Now() (time.Duration, error)
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() (time.Duration, error)

// Now calls f.
func (f ClockFunc) Now() (time.Duration, error) { return f() }

// MonotonicClock reads the operating system's monotonic clock.
type MonotonicClock struct{}

// Now returns the current monotonic reading.
func (MonotonicClock) Now() (time.Duration, error) { return monotonicNow() }
