// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package telemetry

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/ctguard/services/leakage"
	"github.com/AleutianAI/ctguard/services/leakage/stats"
)

func testReport(leak bool) *leakage.Report {
	t := 0.4
	if leak {
		t = 12.5
	}
	return &leakage.Report{
		ID:        "r1",
		Candidate: "early-exit",
		Elapsed:   1500 * time.Millisecond,
		Classes: []leakage.ClassSummary{
			{Name: "early", Summary: stats.Summary{Count: 10, Mean: 41}},
			{Name: "late", Summary: stats.Summary{Count: 10, Mean: 97}},
		},
		Verdicts: []leakage.Verdict{
			{ClassA: "early", ClassB: "late", TStatistic: t, Threshold: 2, LeakDetected: leak},
		},
	}
}

func newSink(t *testing.T) (*PrometheusSink, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	cfg := DefaultPrometheusConfig()
	cfg.Registry = reg
	s, err := NewPrometheusSink(cfg)
	require.NoError(t, err)
	return s, reg
}

func TestPrometheusConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultPrometheusConfig().Validate())

	cfg := DefaultPrometheusConfig()
	cfg.Namespace = ""
	assert.Error(t, cfg.Validate())

	cfg = DefaultPrometheusConfig()
	cfg.Subsystem = ""
	_, err := NewPrometheusSink(cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewPrometheusSink(nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestPrometheusSink_RecordReport(t *testing.T) {
	s, _ := newSink(t)
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.RecordReport(ctx, testReport(true)))
	require.NoError(t, s.RecordReport(ctx, testReport(false)))

	assert.Equal(t, 0.4, testutil.ToFloat64(s.tStatistic.WithLabelValues("early-exit", "early vs late")))
	assert.Equal(t, 97.0, testutil.ToFloat64(s.classMean.WithLabelValues("early-exit", "late")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.runsTotal.WithLabelValues("early-exit", "leak")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.runsTotal.WithLabelValues("early-exit", "clean")))
	assert.Equal(t, 1, testutil.CollectAndCount(s.runDuration))

	assert.ErrorIs(t, s.RecordReport(ctx, nil), ErrNilReport)
}

func TestPrometheusSink_RecordError(t *testing.T) {
	s, _ := newSink(t)
	defer s.Close()

	err := s.RecordError(context.Background(), "flaky", context.Canceled)
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(s.errorsTotal.WithLabelValues("flaky", "cancelled")))
}

func TestPrometheusSink_Close(t *testing.T) {
	s, reg := newSink(t)
	require.NoError(t, s.RecordReport(context.Background(), testReport(true)))

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Empty(t, families)

	assert.ErrorIs(t, s.RecordReport(context.Background(), testReport(true)), ErrSinkClosed)
	assert.ErrorIs(t, s.RecordError(context.Background(), "x", errors.New("boom")), ErrSinkClosed)

	// Collectors are free again after Close.
	cfg := DefaultPrometheusConfig()
	cfg.Registry = reg
	again, err := NewPrometheusSink(cfg)
	require.NoError(t, err)
	require.NoError(t, again.Close())
}

func TestPrometheusSink_DuplicateRegistration(t *testing.T) {
	s, reg := newSink(t)
	defer s.Close()

	cfg := DefaultPrometheusConfig()
	cfg.Registry = reg
	_, err := NewPrometheusSink(cfg)
	assert.Error(t, err)
}

func TestPrometheusSink_GatherText(t *testing.T) {
	s, reg := newSink(t)
	defer s.Close()
	require.NoError(t, s.RecordReport(context.Background(), testReport(true)))

	expected := `
# HELP ctguard_leakage_runs_total Completed leakage runs by verdict
# TYPE ctguard_leakage_runs_total counter
ctguard_leakage_runs_total{candidate="early-exit",verdict="leak"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "ctguard_leakage_runs_total"))
}

type failingSink struct{ NoOpSink }

func (failingSink) RecordReport(context.Context, *leakage.Report) error { return ErrSinkClosed }

func TestObserver(t *testing.T) {
	s, _ := newSink(t)
	defer s.Close()

	obs := Observer(context.Background(), s, nil)
	obs.ObserveReport(testReport(true))
	obs.ObserveError("early-exit", leakage.ErrClockFailure)

	assert.Equal(t, 1.0, testutil.ToFloat64(s.runsTotal.WithLabelValues("early-exit", "leak")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.errorsTotal.WithLabelValues("early-exit", "clock_failure")))
}

func TestObserverLogsSinkFailure(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	Observer(context.Background(), failingSink{}, logger).ObserveReport(testReport(false))
	assert.Contains(t, buf.String(), "record report failed")
}

func TestNoOpSink(t *testing.T) {
	s := NewNoOpSink()
	assert.NoError(t, s.RecordReport(context.Background(), nil))
	assert.NoError(t, s.RecordError(context.Background(), "x", nil))
	assert.NoError(t, s.Close())
}
