// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package baseline

import (
	"math"
	"sort"
)

// DefaultGrowthFactor flags a pair whose |t| at least triples.
const DefaultGrowthFactor = 3.0

// Regression describes one pair that got worse against its baseline.
type Regression struct {
	Pair     string  `json:"pair"`
	Previous float64 `json:"previous_t"`
	Current  float64 `json:"current_t"`
	Reason   string  `json:"reason"`
}

// CheckResult is the comparison of a new run against a baseline.
type CheckResult struct {
	Candidate   string       `json:"candidate"`
	Regressions []Regression `json:"regressions"`

	// Missing lists baseline pairs absent from the current run.
	Missing []string `json:"missing,omitempty"`
}

// Passed reports whether no regression was found.
func (c *CheckResult) Passed() bool { return len(c.Regressions) == 0 }

// Check compares current against previous.
//
// Description:
//
//	A pair regresses when it was clean in previous and leaks in current
//	("new leak"), or when |t| grew by at least growth while the previous
//	|t| was at least 1 ("t growth"). Pairs only present in current are
//	ignored; pairs only present in previous are reported as Missing.
//	A growth of 0 or less selects DefaultGrowthFactor.
func Check(previous, current *Record, growth float64) *CheckResult {
	if growth <= 0 {
		growth = DefaultGrowthFactor
	}
	res := &CheckResult{Candidate: current.Candidate}

	cur := make(map[string]PairRecord, len(current.Pairs))
	for _, p := range current.Pairs {
		cur[p.Key()] = p
	}

	for _, prev := range previous.Pairs {
		now, ok := cur[prev.Key()]
		if !ok {
			res.Missing = append(res.Missing, prev.Key())
			continue
		}

		before, after := math.Abs(prev.TStatistic), math.Abs(now.TStatistic)
		switch {
		case !prev.LeakDetected && now.LeakDetected:
			res.Regressions = append(res.Regressions, Regression{
				Pair: prev.Key(), Previous: prev.TStatistic, Current: now.TStatistic, Reason: "new leak",
			})
		case before >= 1 && after >= before*growth:
			res.Regressions = append(res.Regressions, Regression{
				Pair: prev.Key(), Previous: prev.TStatistic, Current: now.TStatistic, Reason: "t growth",
			})
		}
	}

	sort.Slice(res.Regressions, func(i, j int) bool { return res.Regressions[i].Pair < res.Regressions[j].Pair })
	sort.Strings(res.Missing)
	return res
}
