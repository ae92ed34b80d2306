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

import (
	"errors"
	"math/rand/v2"
	"time"
)

// fakeClock is advanced explicitly by the candidates under test.
type fakeClock struct {
	now    time.Duration
	reads  int
	failAt int // read number that fails; 0 never fails
	back   int // read number that jumps backwards; 0 never
}

var errClockBroken = errors.New("clock device unavailable")

func (c *fakeClock) Now() (time.Duration, error) {
	c.reads++
	if c.failAt > 0 && c.reads == c.failAt {
		return 0, errClockBroken
	}
	if c.back > 0 && c.reads == c.back {
		c.now -= time.Microsecond
	}
	return c.now, nil
}

// costCandidate advances the fake clock by a per-input cost plus optional
// seeded jitter on every call.
type costCandidate struct {
	name   string
	clock  *fakeClock
	costs  map[string]time.Duration
	jitter int
	rng    *rand.Rand
	calls  []string
}

func newCostCandidate(clock *fakeClock, costs map[string]time.Duration, jitter int) *costCandidate {
	return &costCandidate{
		name:   "cost",
		clock:  clock,
		costs:  costs,
		jitter: jitter,
		rng:    rand.New(rand.NewPCG(7, 11)),
	}
}

func (c *costCandidate) Name() string { return c.name }

func (c *costCandidate) Call(input []byte) (uint64, error) {
	d := c.costs[string(input)]
	if c.jitter > 0 {
		d += time.Duration(c.rng.IntN(c.jitter))
	}
	c.clock.now += d
	return uint64(len(input)), nil
}

// orderCandidate records which input each timed loop saw first.
type orderCandidate struct {
	clock *fakeClock
	seen  []string
}

func (c *orderCandidate) Name() string { return "order" }

func (c *orderCandidate) Call(input []byte) (uint64, error) {
	c.seen = append(c.seen, string(input))
	c.clock.now += time.Duration(len(c.seen)%3 + 1)
	return 0, nil
}

type recordingObserver struct {
	reports []*Report
	errs    []error
}

func (o *recordingObserver) ObserveReport(r *Report)           { o.reports = append(o.reports, r) }
func (o *recordingObserver) ObserveError(_ string, err error) { o.errs = append(o.errs, err) }

func fixedClasses(names ...string) []InputClass {
	out := make([]InputClass, len(names))
	for i, n := range names {
		out[i] = NewFixedClass(n, []byte(n))
	}
	return out
}

func smallConfig() Config {
	return Config{
		TrialCount:            200,
		IterationsPerTrial:    50,
		SignificanceThreshold: DefaultSignificanceThreshold,
		WarmupTrials:          0,
		HistogramBuckets:      DefaultHistogramBuckets,
	}
}
