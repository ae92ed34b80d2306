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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/ctguard/cmd/ctaudit/scenarios"
	"github.com/AleutianAI/ctguard/pkg/logging"
	"github.com/AleutianAI/ctguard/services/leakage/baseline"
)

func newBaselineCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "baseline",
		Short: "Save and compare verdict baselines",
	}
	cmd.AddCommand(
		newBaselineSaveCmd(a),
		newBaselineCheckCmd(a),
		newBaselineListCmd(a),
		newBaselineDeleteCmd(a),
	)
	return cmd
}

func baselineKey(scenario, candidate string) string {
	return scenario + "/" + candidate
}

func (a *app) openStore() (*baseline.BadgerStore, error) {
	cfg := baseline.BadgerConfig{Path: expandHome(a.cfg.Baseline.Path)}
	if lvl, _ := logging.ParseLevel(a.cfg.Logging.Level); lvl == logging.LevelDebug {
		cfg.Logger = a.logger.With("component", "badger").Slog()
	}
	return baseline.OpenBadgerStore(cfg)
}

func (a *app) withStore(fn func(baseline.Store) error) error {
	store, err := a.openStore()
	if err != nil {
		return err
	}
	err = fn(store)
	if cerr := store.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

func newBaselineSaveCmd(a *app) *cobra.Command {
	var candidate string
	cmd := &cobra.Command{
		Use:   "save <scenario>",
		Short: "Measure a scenario and store the verdicts as its baseline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := scenarios.Lookup(args[0])
			if err != nil {
				return err
			}
			results, err := a.measure(ctx, s, candidate, nil)
			if err != nil {
				return err
			}
			return a.withStore(func(store baseline.Store) error {
				for _, r := range results {
					if err := store.Set(ctx, recordFor(r)); err != nil {
						return err
					}
					a.printer.Info("saved baseline " + baselineKey(r.Scenario, r.Candidate))
				}
				return a.report(results)
			})
		},
	}
	cmd.Flags().StringVar(&candidate, "candidate", "", "save only this candidate")
	return cmd
}

func recordFor(r runResult) *baseline.Record {
	rec := baseline.FromReport(r.Report)
	rec.Candidate = baselineKey(r.Scenario, r.Candidate)
	rec.Metadata = map[string]string{
		"scenario": r.Scenario,
		"expect":   string(r.Expect),
		"seed":     strconv.FormatUint(r.Seed, 10),
	}
	return rec
}

func newBaselineCheckCmd(a *app) *cobra.Command {
	var (
		candidate string
		update    bool
	)
	cmd := &cobra.Command{
		Use:   "check <scenario>",
		Short: "Measure a scenario and compare it against the stored baseline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := scenarios.Lookup(args[0])
			if err != nil {
				return err
			}
			results, err := a.measure(ctx, s, candidate, nil)
			if err != nil {
				return err
			}
			return a.withStore(func(store baseline.Store) error {
				return a.check(ctx, store, results, update)
			})
		},
	}
	cmd.Flags().StringVar(&candidate, "candidate", "", "check only this candidate")
	cmd.Flags().BoolVar(&update, "update", false, "store the new verdicts when the check passes")
	return cmd
}

// check compares results against store. Candidates without a baseline are
// reported and skipped.
func (a *app) check(ctx context.Context, store baseline.Store, results []runResult, update bool) error {
	var (
		checked []*baseline.CheckResult
		failed  []string
	)
	for _, r := range results {
		key := baselineKey(r.Scenario, r.Candidate)
		cur := recordFor(r)

		prev, err := store.Get(ctx, key)
		if errors.Is(err, baseline.ErrNotFound) {
			a.printer.Info("no baseline for " + key)
			a.logger.Warn("baseline missing", "candidate", key)
			continue
		}
		if err != nil {
			return err
		}

		res := baseline.Check(prev, cur, a.cfg.Baseline.GrowthFactor)
		checked = append(checked, res)
		if !res.Passed() {
			failed = append(failed, key)
			continue
		}
		if update {
			if err := store.Set(ctx, cur); err != nil {
				return err
			}
		}
	}

	if a.cfg.Output.JSON {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(checked); err != nil {
			return err
		}
	} else {
		for _, res := range checked {
			a.printer.Check(res)
		}
	}

	if len(failed) > 0 {
		return fmt.Errorf("%w: %v", errRegression, failed)
	}
	return nil
}

func newBaselineListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored baselines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withStore(func(store baseline.Store) error {
				names, err := store.List(cmd.Context())
				if err != nil {
					return err
				}
				a.printer.Names("Baselines", names, nil)
				return nil
			})
		},
	}
}

func newBaselineDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <scenario>/<candidate>",
		Short: "Delete a stored baseline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(store baseline.Store) error {
				return store.Delete(cmd.Context(), args[0])
			})
		},
	}
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
