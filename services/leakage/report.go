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
	"encoding/json"
	"math"
	"time"

	"github.com/AleutianAI/ctguard/services/leakage/stats"
)

// Verdict is the outcome of comparing two classes. Verdicts are derived
// once and never modified.
type Verdict struct {
	ClassA       string  `json:"class_a_name"`
	ClassB       string  `json:"class_b_name"`
	MeanANs      float64 `json:"mean_a_ns"`
	MeanBNs      float64 `json:"mean_b_ns"`
	TStatistic   float64 `json:"t_statistic"`
	Threshold    float64 `json:"threshold"`
	LeakDetected bool    `json:"leak_detected"`

	// DegreesOfFreedom, PValue and EffectSize are informational.
	// LeakDetected depends on TStatistic and Threshold alone.
	DegreesOfFreedom float64 `json:"degrees_of_freedom"`
	PValue           float64 `json:"p_value"`
	EffectSize       float64 `json:"effect_size"`

	// Ratio is MeanANs / MeanBNs.
	Ratio float64 `json:"ratio"`
}

// Pair returns "A vs B".
func (v Verdict) Pair() string { return v.ClassA + " vs " + v.ClassB }

// MarshalJSON encodes infinite statistics as ±MaxFloat64 and NaN as 0,
// since JSON has no representation for either.
func (v Verdict) MarshalJSON() ([]byte, error) {
	type plain Verdict
	p := plain(v)
	p.TStatistic = stats.Finite(p.TStatistic)
	p.EffectSize = stats.Finite(p.EffectSize)
	p.Ratio = stats.Finite(p.Ratio)
	return json.Marshal(p)
}

// ClassSummary describes the samples collected for one class.
type ClassSummary struct {
	Name      string         `json:"name"`
	Summary   stats.Summary  `json:"summary"`
	Histogram []stats.Bucket `json:"histogram,omitempty"`
}

// Report is the structured result of one run.
//
// Description:
//
//	A Report is built once at the end of a successful run and is owned by
//	the caller afterwards. Raw samples are not retained; use
//	WithSampleRecorder to observe them. Textual rendering lives in pkg/ux.
type Report struct {
	ID        string        `json:"id"`
	Candidate string        `json:"candidate"`
	StartedAt time.Time     `json:"started_at"`
	Elapsed   time.Duration `json:"elapsed_ns"`
	Config    Config        `json:"config"`

	// Classes appear in the order the caller supplied them.
	Classes []ClassSummary `json:"classes"`

	// Verdicts hold one entry per unordered class pair (i < j).
	Verdicts []Verdict `json:"verdicts"`

	// Histogram pools every class's samples. Nil when disabled.
	Histogram []stats.Bucket `json:"histogram,omitempty"`
}

// LeakDetected reports whether any pair leaked.
func (r *Report) LeakDetected() bool {
	for _, v := range r.Verdicts {
		if v.LeakDetected {
			return true
		}
	}
	return false
}

// Leaks returns the verdicts that detected a leak.
func (r *Report) Leaks() []Verdict {
	var out []Verdict
	for _, v := range r.Verdicts {
		if v.LeakDetected {
			out = append(out, v)
		}
	}
	return out
}

// MaxAbsT returns the largest |t| across verdicts.
func (r *Report) MaxAbsT() float64 {
	var m float64
	for _, v := range r.Verdicts {
		m = math.Max(m, math.Abs(v.TStatistic))
	}
	return m
}

// Verdict returns the verdict for classes a and b in either order.
func (r *Report) Verdict(a, b string) (Verdict, bool) {
	for _, v := range r.Verdicts {
		if (v.ClassA == a && v.ClassB == b) || (v.ClassA == b && v.ClassB == a) {
			return v, true
		}
	}
	return Verdict{}, false
}

// Class returns the summary for the named class.
func (r *Report) Class(name string) (ClassSummary, bool) {
	for _, c := range r.Classes {
		if c.Name == name {
			return c, true
		}
	}
	return ClassSummary{}, false
}
