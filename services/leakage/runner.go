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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/ctguard/services/leakage/stats"
)

const tracerName = "github.com/AleutianAI/ctguard/services/leakage"

// FixedClassName names the fixed class in fixed-vs-random runs.
const FixedClassName = "fixed"

// -----------------------------------------------------------------------------
// Options
// -----------------------------------------------------------------------------

// Option configures a Runner.
type Option func(*Runner)

// WithClock replaces the monotonic clock, mainly for tests.
func WithClock(c Clock) Option {
	return func(r *Runner) {
		if c != nil {
			r.clock = c
		}
	}
}

// WithLogger sets the Runner's logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithTracerProvider sets the provider used for run spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(r *Runner) {
		if tp != nil {
			r.tracer = tp.Tracer(tracerName)
		}
	}
}

// Observer receives the outcome of every run.
//
// ObserveReport and ObserveError are called after measurement finishes, so
// they never add noise to samples.
type Observer interface {
	ObserveReport(report *Report)
	ObserveError(candidate string, err error)
}

// SampleRecorder receives a class's raw samples, in nanoseconds and trial
// order, before the run discards them. The slice belongs to the recorder.
type SampleRecorder func(class string, samples []float64)

type runOptions struct {
	observer Observer
	recorder SampleRecorder
}

// RunOption configures one call to Run.
type RunOption func(*runOptions)

// WithObserver reports the run's outcome to o.
func WithObserver(o Observer) RunOption {
	return func(ro *runOptions) { ro.observer = o }
}

// WithSampleRecorder exports raw samples of a successful run to fn.
func WithSampleRecorder(fn SampleRecorder) RunOption {
	return func(ro *runOptions) { ro.recorder = fn }
}

// -----------------------------------------------------------------------------
// Runner
// -----------------------------------------------------------------------------

// Runner executes leakage tests.
//
// Description:
//
//	Each Run is a pure function of (candidate, classes, config) to Report.
//	The Runner holds only its collaborators (clock, logger, tracer); no
//	measurement state survives between runs.
//
// Thread Safety: A Runner may be shared, but runs must not overlap in time:
// concurrent measurement corrupts the samples of every run involved.
type Runner struct {
	clock  Clock
	logger *slog.Logger
	tracer trace.Tracer
}

// NewRunner creates a Runner using the OS monotonic clock, slog.Default()
// and the global tracer provider unless overridden.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		clock:  MonotonicClock{},
		logger: slog.Default(),
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetLogger replaces the runner's logger. Nil values are ignored.
func (r *Runner) SetLogger(logger *slog.Logger) {
	if logger != nil {
		r.logger = logger
	}
}

// Run executes a leakage test.
//
// Description:
//
//	Runs cfg.WarmupTrials discarded trials, then cfg.TrialCount measured
//	trials. Each trial draws one input per class (outside the timed
//	region), then measures every class once with cfg.IterationsPerTrial
//	calls, rotating the class order from trial to trial. Every unordered
//	pair of classes is compared with Welch's t-test against
//	cfg.SignificanceThreshold.
//
// Inputs:
//   - ctx: Checked between trials. Cancellation discards all samples.
//   - c: Candidate under test. Must not be nil.
//   - classes: Two or more classes with unique, non-empty names.
//   - cfg: Explicit configuration. Must pass Validate.
//   - opts: Optional per-run observers.
//
// Outputs:
//   - *Report: The result. Nil on error.
//   - error: ErrContractViolation, ErrClockFailure, ErrDegenerateSample,
//     ErrCandidateFailure, or the context's error. Nothing is retried.
//
// Example:
//
//	report, err := leakage.NewRunner().Run(ctx, cand, []leakage.InputClass{early, late}, leakage.DefaultConfig())
//	if err != nil {
//	    return fmt.Errorf("leakage run: %w", err)
//	}
//	if report.LeakDetected() { ... }
func (r *Runner) Run(ctx context.Context, c Candidate, classes []InputClass, cfg Config, opts ...RunOption) (*Report, error) {
	if ctx == nil {
		return nil, fmt.Errorf("nil context: %w", ErrContractViolation)
	}

	var ro runOptions
	for _, opt := range opts {
		opt(&ro)
	}

	name := "<nil>"
	if c != nil {
		name = c.Name()
	}

	ctx, span := r.tracer.Start(ctx, "leakage.Runner.Run",
		trace.WithAttributes(attribute.String("leakage.candidate", name)),
	)
	defer span.End()

	report, err := r.run(ctx, span, c, classes, cfg, &ro)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, ErrorKind(err))
		r.logger.Warn("leakage run failed",
			slog.String("candidate", name),
			slog.String("kind", ErrorKind(err)),
			slog.String("error", err.Error()),
		)
		if ro.observer != nil {
			ro.observer.ObserveError(name, err)
		}
		return nil, err
	}

	span.SetAttributes(
		attribute.Float64("leakage.max_abs_t", report.MaxAbsT()),
		attribute.Bool("leakage.leak_detected", report.LeakDetected()),
	)
	span.SetStatus(codes.Ok, "leakage run completed")

	if ro.observer != nil {
		ro.observer.ObserveReport(report)
	}
	return report, nil
}

// RunFixedVsRandom compares one fixed input against fresh random draws.
//
// The fixed class is named FixedClassName. random must not share that name.
func (r *Runner) RunFixedVsRandom(ctx context.Context, c Candidate, fixed []byte, random InputClass, cfg Config, opts ...RunOption) (*Report, error) {
	if random == nil {
		return nil, fmt.Errorf("nil random class: %w", ErrContractViolation)
	}
	classes := []InputClass{NewFixedClass(FixedClassName, fixed), random}
	return r.Run(ctx, c, classes, cfg, opts...)
}

func (r *Runner) run(ctx context.Context, span trace.Span, c Candidate, classes []InputClass, cfg Config, ro *runOptions) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	if err := validateInputs(c, classes); err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("leakage.trials", cfg.TrialCount),
		attribute.Int("leakage.iterations", cfg.IterationsPerTrial),
		attribute.Int("leakage.classes", len(classes)),
		attribute.Float64("leakage.threshold", cfg.SignificanceThreshold),
	)

	r.logger.Info("leakage run starting",
		slog.String("candidate", c.Name()),
		slog.Int("classes", len(classes)),
		slog.Int("trials", cfg.TrialCount),
		slog.Int("iterations", cfg.IterationsPerTrial),
		slog.Float64("threshold", cfg.SignificanceThreshold),
	)

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	started := time.Now()
	sampler := NewSampler(r.clock)

	runtime.GC()

	if err := r.warmup(ctx, sampler, c, classes, cfg); err != nil {
		return nil, fmt.Errorf("running warmup: %w", err)
	}

	sets, err := r.measure(ctx, sampler, c, classes, cfg)
	if err != nil {
		return nil, fmt.Errorf("running measurement: %w", err)
	}

	if ro.recorder != nil {
		for i, cls := range classes {
			ro.recorder(cls.Name(), slices.Clone(sets[i]))
		}
	}

	report, err := r.buildReport(c.Name(), classes, sets, cfg)
	if err != nil {
		return nil, err
	}
	report.StartedAt = started
	report.Elapsed = time.Since(started)

	r.logger.Info("leakage run complete",
		slog.String("candidate", report.Candidate),
		slog.String("report_id", report.ID),
		slog.Bool("leak", report.LeakDetected()),
		slog.Float64("max_abs_t", report.MaxAbsT()),
		slog.Duration("elapsed", report.Elapsed),
	)
	return report, nil
}

func validateInputs(c Candidate, classes []InputClass) error {
	if c == nil {
		return fmt.Errorf("nil candidate: %w", ErrContractViolation)
	}
	if len(classes) < 2 {
		return fmt.Errorf("need at least 2 input classes, got %d: %w", len(classes), ErrContractViolation)
	}
	seen := make(map[string]struct{}, len(classes))
	for i, cls := range classes {
		if cls == nil {
			return fmt.Errorf("input class %d is nil: %w", i, ErrContractViolation)
		}
		name := cls.Name()
		if name == "" {
			return fmt.Errorf("input class %d has no name: %w", i, ErrContractViolation)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("duplicate input class %q: %w", name, ErrContractViolation)
		}
		seen[name] = struct{}{}
	}
	return nil
}

// warmup runs discarded trials with the same schedule as measure.
func (r *Runner) warmup(ctx context.Context, s *Sampler, c Candidate, classes []InputClass, cfg Config) error {
	for w := 0; w < cfg.WarmupTrials; w++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, cls := range classes {
			if _, err := s.Measure(c, cls.Next(), cfg.IterationsPerTrial); err != nil {
				return annotate(err, cls.Name(), -1)
			}
		}
	}
	return nil
}

// measure records one duration per class per trial. On any error, including
// cancellation, the partial sets are dropped.
func (r *Runner) measure(ctx context.Context, s *Sampler, c Candidate, classes []InputClass, cfg Config) ([][]float64, error) {
	k := len(classes)
	sets := make([][]float64, k)
	for i := range sets {
		sets[i] = make([]float64, 0, cfg.TrialCount)
	}
	inputs := make([][]byte, k)

	for trial := 0; trial < cfg.TrialCount; trial++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("cancelled after %d of %d trials: %w", trial, cfg.TrialCount, err)
		}

		for i, cls := range classes {
			inputs[i] = cls.Next()
		}

		first := trial % k
		for j := 0; j < k; j++ {
			i := (first + j) % k
			d, err := s.Measure(c, inputs[i], cfg.IterationsPerTrial)
			if err != nil {
				return nil, annotate(err, classes[i].Name(), trial)
			}
			sets[i] = append(sets[i], float64(d.Nanoseconds()))
		}
	}
	return sets, nil
}

// annotate attaches class and trial to candidate errors.
func annotate(err error, class string, trial int) error {
	var ce *CandidateError
	if errors.As(err, &ce) {
		ce.Class = class
		ce.Trial = trial
		return ce
	}
	if trial < 0 {
		return fmt.Errorf("class %q warmup: %w", class, err)
	}
	return fmt.Errorf("class %q trial %d: %w", class, trial, err)
}

func (r *Runner) buildReport(candidate string, classes []InputClass, sets [][]float64, cfg Config) (*Report, error) {
	report := &Report{
		ID:        uuid.NewString(),
		Candidate: candidate,
		Config:    cfg,
		Classes:   make([]ClassSummary, len(classes)),
	}

	var pooled []float64
	for i, cls := range classes {
		summary, err := stats.Summarize(sets[i])
		if err != nil {
			return nil, fmt.Errorf("summarizing class %q: %w", cls.Name(), err)
		}
		cs := ClassSummary{Name: cls.Name(), Summary: summary}
		if cfg.HistogramBuckets > 0 {
			if cs.Histogram, err = stats.Histogram(sets[i], cfg.HistogramBuckets); err != nil {
				return nil, fmt.Errorf("histogram of class %q: %w", cls.Name(), err)
			}
			pooled = append(pooled, sets[i]...)
		}
		report.Classes[i] = cs
	}

	if cfg.HistogramBuckets > 0 {
		h, err := stats.Histogram(pooled, cfg.HistogramBuckets)
		if err != nil {
			return nil, fmt.Errorf("pooled histogram: %w", err)
		}
		report.Histogram = h
	}

	for i := 0; i < len(classes); i++ {
		for j := i + 1; j < len(classes); j++ {
			res, err := stats.WelchTest(sets[i], sets[j], cfg.SignificanceThreshold)
			if err != nil {
				return nil, fmt.Errorf("comparing %q and %q: %w", classes[i].Name(), classes[j].Name(), err)
			}
			a, b := report.Classes[i].Summary, report.Classes[j].Summary
			v := Verdict{
				ClassA:           classes[i].Name(),
				ClassB:           classes[j].Name(),
				MeanANs:          a.Mean,
				MeanBNs:          b.Mean,
				TStatistic:       res.TStatistic,
				Threshold:        cfg.SignificanceThreshold,
				LeakDetected:     res.Significant,
				DegreesOfFreedom: res.DegreesOfFreedom,
				PValue:           res.PValue,
				EffectSize:       res.EffectSize,
				Ratio:            a.RatioTo(b),
			}
			r.logger.Debug("pair compared",
				slog.String("candidate", candidate),
				slog.String("pair", v.Pair()),
				slog.Float64("t_statistic", v.TStatistic),
				slog.Bool("leak", v.LeakDetected),
			)
			report.Verdicts = append(report.Verdicts, v)
		}
	}
	return report, nil
}

// ErrorKind classifies a run error for logs and metric labels.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	case errors.Is(err, ErrCandidateFailure):
		return "candidate_failure"
	case errors.Is(err, ErrClockFailure):
		return "clock_failure"
	case errors.Is(err, ErrDegenerateSample):
		return "degenerate_sample"
	case errors.Is(err, ErrContractViolation):
		return "contract_violation"
	default:
		return "unknown"
	}
}
