// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/ctguard/cmd/ctaudit/scenarios"
	"github.com/AleutianAI/ctguard/services/leakage"
)

// runResult is one measured candidate as printed with --json.
type runResult struct {
	Scenario  string                `json:"scenario"`
	Candidate string                `json:"candidate"`
	Expect    scenarios.Expectation `json:"expect"`
	Matches   bool                  `json:"matches"`
	Seed      uint64                `json:"seed"`
	Report    *leakage.Report       `json:"report"`
}

func newRunCmd(a *app) *cobra.Command {
	var (
		candidate string
		csvPath   string
	)
	cmd := &cobra.Command{
		Use:   "run <scenario>",
		Short: "Measure every candidate of a scenario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := scenarios.Lookup(args[0])
			if err != nil {
				return err
			}

			var csv *sampleWriter
			if csvPath != "" {
				f, err := os.Create(csvPath)
				if err != nil {
					return fmt.Errorf("create csv: %w", err)
				}
				defer f.Close()
				csv = newSampleWriter(f)
			}

			results, err := a.measure(cmd.Context(), s, candidate, csv)
			if err != nil {
				return err
			}
			if csv != nil {
				if err := csv.Flush(); err != nil {
					return fmt.Errorf("write csv: %w", err)
				}
			}
			return a.report(results)
		},
	}
	cmd.Flags().StringVar(&candidate, "candidate", "", "measure only this candidate")
	cmd.Flags().StringVar(&csvPath, "csv", "", "write raw samples to this CSV file")
	return cmd
}

// measure runs the selected candidates of s, or all of them when name is
// empty. Every candidate in one call shares a seed.
func (a *app) measure(ctx context.Context, s *scenarios.Scenario, name string, csv *sampleWriter) ([]runResult, error) {
	names := s.Candidates()
	if name != "" {
		names = []string{name}
	}
	seed := a.seed()
	lc := a.leakageConfig(s)

	results := make([]runResult, 0, len(names))
	for _, n := range names {
		entry, err := s.Entry(n)
		if err != nil {
			return nil, err
		}

		var extra []leakage.RunOption
		if csv != nil {
			extra = append(extra, leakage.WithSampleRecorder(csv.recorder(s.Name, n)))
		}

		a.logger.Info("measuring", "scenario", s.Name, "candidate", n, "seed", seed)
		report, err := s.Run(ctx, a.runner, entry, lc, seed, a.runOptions(ctx, extra...)...)
		if err != nil {
			return nil, fmt.Errorf("%s/%s: %w", s.Name, n, err)
		}
		results = append(results, runResult{
			Scenario:  s.Name,
			Candidate: n,
			Expect:    entry.Expect,
			Matches:   entry.Matches(report),
			Seed:      seed,
			Report:    report,
		})
	}
	return results, nil
}

// leakageConfig returns the run configuration for s. A scenario's own
// iteration count replaces the default but never an explicit setting.
func (a *app) leakageConfig(s *scenarios.Scenario) leakage.Config {
	lc := a.cfg.Leakage()
	if s.Iterations > 0 && lc.IterationsPerTrial == leakage.DefaultIterationsPerTrial {
		lc.IterationsPerTrial = s.Iterations
	}
	return lc
}

// report prints results and returns errVerdictMismatch when any verdict
// contradicts its expectation.
func (a *app) report(results []runResult) error {
	if a.cfg.Output.JSON {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			a.printer.Report(r.Report)
			a.printer.Info(fmt.Sprintf("expected %s, %s", r.Expect, matchWord(r.Matches)))
		}
	}

	var mismatched []string
	for _, r := range results {
		if !r.Matches {
			mismatched = append(mismatched, r.Scenario+"/"+r.Candidate)
		}
	}
	if len(mismatched) > 0 {
		return fmt.Errorf("%w: %v", errVerdictMismatch, mismatched)
	}
	return nil
}

func matchWord(ok bool) string {
	if ok {
		return "as expected"
	}
	return "MISMATCH"
}
