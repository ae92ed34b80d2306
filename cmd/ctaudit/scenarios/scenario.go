// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package scenarios holds the demonstration workloads ctaudit measures.
//
// Each scenario pairs a deliberately vulnerable candidate with a
// constant-time one built on pkg/ct, plus the input classes that separate
// them. ctaudit treats a candidate whose verdict contradicts its
// expectation as a failure, which makes the scenarios a self-check for the
// harness as well as a demo.
package scenarios

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/AleutianAI/ctguard/services/leakage"
)

// ErrUnknownScenario is returned by Lookup for unregistered names.
var ErrUnknownScenario = errors.New("unknown scenario")

// Expectation is what a candidate's verdict should be.
type Expectation string

const (
	ExpectLeak     Expectation = "leak"
	ExpectConstant Expectation = "constant-time"
)

// Entry is one measured candidate.
type Entry struct {
	Candidate   leakage.Candidate
	Expect      Expectation
	Description string
}

// Matches reports whether the report's verdict agrees with the expectation.
func (e Entry) Matches(r *leakage.Report) bool {
	return (e.Expect == ExpectLeak) == r.LeakDetected()
}

// Scenario is a named workload.
//
// Exactly one of Classes or Random is set. Random marks a fixed-vs-random
// scenario measured with Runner.RunFixedVsRandom against Fixed.
type Scenario struct {
	Name        string
	Description string

	// Iterations, when positive, replaces the default calls per trial for
	// candidates slow enough that the default would take minutes.
	Iterations int

	Classes func(seed uint64) ([]leakage.InputClass, error)

	Fixed  func() ([]byte, error)
	Random func(seed uint64) (leakage.InputClass, error)

	entries  map[string]Entry
	registry *leakage.Registry
}

func newScenario(s *Scenario, entries ...Entry) *Scenario {
	s.entries = make(map[string]Entry, len(entries))
	s.registry = leakage.NewRegistry()
	for _, e := range entries {
		s.registry.MustRegister(e.Candidate)
		s.entries[e.Candidate.Name()] = e
	}
	return s
}

// Candidates returns the candidate names in sorted order.
func (s *Scenario) Candidates() []string { return s.registry.List() }

// Entry looks up a candidate by name.
func (s *Scenario) Entry(name string) (Entry, error) {
	if _, err := s.registry.Lookup(name); err != nil {
		return Entry{}, fmt.Errorf("scenario %s: %w", s.Name, err)
	}
	return s.entries[name], nil
}

// Run measures one candidate of the scenario.
func (s *Scenario) Run(ctx context.Context, runner *leakage.Runner, e Entry, cfg leakage.Config, seed uint64, opts ...leakage.RunOption) (*leakage.Report, error) {
	if s.Random != nil {
		random, err := s.Random(seed)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: random class: %w", s.Name, err)
		}
		fixed, err := s.Fixed()
		if err != nil {
			return nil, fmt.Errorf("scenario %s: fixed input: %w", s.Name, err)
		}
		return runner.RunFixedVsRandom(ctx, e.Candidate, fixed, random, cfg, opts...)
	}

	classes, err := s.Classes(seed)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: classes: %w", s.Name, err)
	}
	return runner.Run(ctx, e.Candidate, classes, cfg, opts...)
}

var catalog = map[string]*Scenario{}

func register(s *Scenario) {
	if _, dup := catalog[s.Name]; dup {
		panic("duplicate scenario " + s.Name)
	}
	catalog[s.Name] = s
}

// All returns every scenario sorted by name.
func All() []*Scenario {
	out := make([]*Scenario, 0, len(catalog))
	for _, s := range catalog {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Lookup returns the named scenario.
func Lookup(name string) (*Scenario, error) {
	s, ok := catalog[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScenario, name)
	}
	return s, nil
}
