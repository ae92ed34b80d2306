// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package telemetry exports leakage run results to metrics backends.
//
// A Sink receives finished reports and run errors. Observer adapts any Sink
// to leakage.Observer so it can be passed to Runner.Run through
// leakage.WithObserver.
package telemetry

import (
	"context"
	"errors"
	"log/slog"

	"github.com/AleutianAI/ctguard/services/leakage"
)

// -----------------------------------------------------------------------------
// Errors
// -----------------------------------------------------------------------------

var (
	// ErrSinkClosed is returned when recording to a closed sink.
	ErrSinkClosed = errors.New("telemetry sink closed")

	// ErrNilReport is returned when RecordReport receives nil.
	ErrNilReport = errors.New("nil report")
)

// -----------------------------------------------------------------------------
// Sink
// -----------------------------------------------------------------------------

// Sink records leakage telemetry.
//
// Thread Safety: Implementations must be safe for concurrent use.
type Sink interface {
	// RecordReport records the statistics of a finished run.
	RecordReport(ctx context.Context, report *leakage.Report) error

	// RecordError records a failed run for the named candidate.
	RecordError(ctx context.Context, candidate string, err error) error

	// Close releases resources. Recording after Close returns ErrSinkClosed.
	Close() error
}

// NoOpSink discards everything.
type NoOpSink struct{}

// NewNoOpSink creates a sink that records nothing.
func NewNoOpSink() *NoOpSink { return &NoOpSink{} }

// RecordReport implements Sink.
func (NoOpSink) RecordReport(context.Context, *leakage.Report) error { return nil }

// RecordError implements Sink.
func (NoOpSink) RecordError(context.Context, string, error) error { return nil }

// Close implements Sink.
func (NoOpSink) Close() error { return nil }

// -----------------------------------------------------------------------------
// Observer adapter
// -----------------------------------------------------------------------------

type sinkObserver struct {
	ctx    context.Context
	sink   Sink
	logger *slog.Logger
}

// Observer returns a leakage.Observer that forwards to sink. Sink failures
// are logged at warn level and never fail the run. A nil logger uses
// slog.Default.
func Observer(ctx context.Context, sink Sink, logger *slog.Logger) leakage.Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &sinkObserver{ctx: ctx, sink: sink, logger: logger}
}

func (o *sinkObserver) ObserveReport(r *leakage.Report) {
	if err := o.sink.RecordReport(o.ctx, r); err != nil {
		o.logger.Warn("telemetry: record report failed", "candidate", r.Candidate, "error", err)
	}
}

func (o *sinkObserver) ObserveError(candidate string, runErr error) {
	if err := o.sink.RecordError(o.ctx, candidate, runErr); err != nil {
		o.logger.Warn("telemetry: record error failed", "candidate", candidate, "error", err)
	}
}

var (
	_ Sink             = (*NoOpSink)(nil)
	_ Sink             = (*PrometheusSink)(nil)
	_ leakage.Observer = (*sinkObserver)(nil)
)
