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
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/AleutianAI/ctguard/cmd/ctaudit/config"
	"github.com/AleutianAI/ctguard/pkg/ct"
	"github.com/AleutianAI/ctguard/pkg/logging"
	"github.com/AleutianAI/ctguard/pkg/ux"
	"github.com/AleutianAI/ctguard/services/leakage"
	"github.com/AleutianAI/ctguard/services/leakage/telemetry"
)

var (
	errVerdictMismatch = errors.New("verdict contradicts expectation")
	errRegression      = errors.New("baseline regression")
)

// rootFlags holds values bound to persistent flags.
type rootFlags struct {
	configPath  string
	logLevel    string
	logDir      string
	personality string
	json        bool
	trace       bool
	metricsFile string

	trials     int
	iterations int
	threshold  float64
	warmup     int
	buckets    int
	seed       uint64
}

// app is the state shared by all subcommands for one invocation.
type app struct {
	stdout io.Writer
	stderr io.Writer

	// clock overrides the runner clock. Nil uses the OS monotonic clock.
	clock leakage.Clock

	flags rootFlags

	cfg      config.Config
	logger   *logging.Logger
	printer  *ux.Printer
	runner   *leakage.Runner
	sink     telemetry.Sink
	registry *prometheus.Registry
	tracer   *sdktrace.TracerProvider
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{stdout: stdout, stderr: stderr}
}

// execute runs the command line and always releases resources, including
// when the command itself fails.
func execute(ctx context.Context, a *app, args []string) error {
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	err := root.ExecuteContext(ctx)
	if cerr := a.close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "ctaudit",
		Short:         "Detect timing side channels with Welch's t-test",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configPath, "config", "", "config file (default ~/.ctguard/ctaudit.yaml)")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "debug, info, warn or error")
	pf.StringVar(&a.flags.logDir, "log-dir", "", "also write JSON logs to this directory")
	pf.StringVar(&a.flags.personality, "personality", "", "output style: full, minimal or machine")
	pf.BoolVar(&a.flags.json, "json", false, "print reports as JSON")
	pf.BoolVar(&a.flags.trace, "trace", false, "print OpenTelemetry spans to stderr")
	pf.StringVar(&a.flags.metricsFile, "metrics-file", "", "write Prometheus metrics to this file on exit")

	pf.IntVar(&a.flags.trials, "trials", 0, "samples per class")
	pf.IntVar(&a.flags.iterations, "iterations", 0, "candidate calls per sample")
	pf.Float64Var(&a.flags.threshold, "threshold", 0, "|t| above which a pair leaks")
	pf.IntVar(&a.flags.warmup, "warmup", 0, "discarded warmup trials per class")
	pf.IntVar(&a.flags.buckets, "buckets", 0, "histogram buckets, 0 disables")
	pf.Uint64Var(&a.flags.seed, "seed", 0, "seed for random input classes, 0 picks one")

	root.AddCommand(newScenariosCmd(a), newRunCmd(a), newBaselineCmd(a))
	return root
}

// setup merges configuration and builds the shared collaborators.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.flags.configPath)
	if err != nil {
		return err
	}
	a.applyFlags(cmd, &cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg
	ct.SetInsecureMemory(cfg.Memory.Insecure)

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return err
	}
	a.logger = logging.New(logging.Config{
		Level:   level,
		LogDir:  cfg.Logging.Dir,
		Service: "ctaudit",
		JSON:    cfg.Logging.JSON,
		Output:  a.stderr,
	})

	personality := ux.ParsePersonalityLevel(cfg.Output.Personality)
	if cfg.Output.Personality == "" {
		f, _ := a.stdout.(*os.File)
		personality = ux.DetectPersonality(f)
	}
	a.printer = ux.NewPrinter(a.stdout, personality)

	opts := []leakage.Option{leakage.WithLogger(a.logger.Slog())}
	if a.clock != nil {
		opts = append(opts, leakage.WithClock(a.clock))
	}
	if a.flags.trace {
		exp, err := stdouttrace.New(stdouttrace.WithWriter(a.stderr), stdouttrace.WithPrettyPrint())
		if err != nil {
			return fmt.Errorf("trace exporter: %w", err)
		}
		a.tracer = sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
		opts = append(opts, leakage.WithTracerProvider(a.tracer))
	}
	a.runner = leakage.NewRunner(opts...)

	a.sink = telemetry.NewNoOpSink()
	if a.flags.metricsFile != "" {
		a.registry = prometheus.NewRegistry()
		sink, err := telemetry.NewPrometheusSink(&telemetry.PrometheusConfig{
			Namespace: cfg.Metrics.Namespace,
			Subsystem: cfg.Metrics.Subsystem,
			Registry:  a.registry,
		})
		if err != nil {
			return err
		}
		a.sink = sink
	}
	return nil
}

func (a *app) applyFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("log-level") {
		cfg.Logging.Level = a.flags.logLevel
	}
	if f.Changed("log-dir") {
		cfg.Logging.Dir = a.flags.logDir
	}
	if f.Changed("personality") {
		cfg.Output.Personality = a.flags.personality
	}
	if f.Changed("json") {
		cfg.Output.JSON = a.flags.json
	}
	if f.Changed("trials") {
		cfg.Run.TrialCount = a.flags.trials
	}
	if f.Changed("iterations") {
		cfg.Run.IterationsPerTrial = a.flags.iterations
	}
	if f.Changed("threshold") {
		cfg.Run.SignificanceThreshold = a.flags.threshold
	}
	if f.Changed("warmup") {
		cfg.Run.WarmupTrials = a.flags.warmup
	}
	if f.Changed("buckets") {
		cfg.Run.HistogramBuckets = a.flags.buckets
	}
	if f.Changed("seed") {
		cfg.Run.Seed = a.flags.seed
	}
}

// seed returns the configured seed, or a time-derived one when unset.
func (a *app) seed() uint64 {
	if a.cfg.Run.Seed != 0 {
		return a.cfg.Run.Seed
	}
	return uint64(time.Now().UnixNano())
}

// runOptions returns the per-run options every measuring command uses.
func (a *app) runOptions(ctx context.Context, extra ...leakage.RunOption) []leakage.RunOption {
	opts := []leakage.RunOption{leakage.WithObserver(telemetry.Observer(ctx, a.sink, a.logger.Slog()))}
	return append(opts, extra...)
}

func (a *app) close() error {
	var errs []error
	if a.registry != nil {
		if err := prometheus.WriteToTextfile(a.flags.metricsFile, a.registry); err != nil {
			errs = append(errs, fmt.Errorf("write metrics: %w", err))
		}
	}
	if a.sink != nil {
		errs = append(errs, a.sink.Close())
	}
	if a.tracer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		errs = append(errs, a.tracer.Shutdown(ctx))
		cancel()
	}
	if a.logger != nil {
		errs = append(errs, a.logger.Close())
	}
	return errors.Join(errs...)
}
