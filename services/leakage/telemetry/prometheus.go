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
	"context"
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/AleutianAI/ctguard/services/leakage"
)

// ErrInvalidConfig is returned when the Prometheus configuration is invalid.
var ErrInvalidConfig = errors.New("invalid prometheus configuration")

// PrometheusConfig configures the Prometheus sink.
type PrometheusConfig struct {
	// Namespace is the metrics namespace. Required.
	Namespace string

	// Subsystem is the metrics subsystem. Required.
	Subsystem string

	// Registry receives the collectors. Nil uses prometheus.DefaultRegisterer.
	Registry prometheus.Registerer

	// DurationBuckets are the run duration histogram buckets in seconds.
	// Nil uses DefaultDurationBuckets.
	DurationBuckets []float64
}

// DefaultDurationBuckets covers runs from 10ms to roughly 20 minutes.
var DefaultDurationBuckets = prometheus.ExponentialBuckets(0.01, 2.5, 14)

// DefaultPrometheusConfig returns the ctguard/leakage namespace.
func DefaultPrometheusConfig() *PrometheusConfig {
	return &PrometheusConfig{
		Namespace:       "ctguard",
		Subsystem:       "leakage",
		DurationBuckets: DefaultDurationBuckets,
	}
}

// Validate checks that the configuration is valid.
func (c *PrometheusConfig) Validate() error {
	if c.Namespace == "" {
		return errors.New("namespace is required")
	}
	if c.Subsystem == "" {
		return errors.New("subsystem is required")
	}
	return nil
}

// PrometheusSink exports leakage results as Prometheus metrics.
//
// Description:
//
//	Collectors are registered on creation and unregistered on Close.
//	Gauges hold the latest run per candidate; counters accumulate.
//
//	  t_statistic{candidate,pair}          latest Welch t per class pair
//	  class_mean_ns{candidate,class}       latest mean trial duration per class
//	  runs_total{candidate,verdict}        verdict is "leak" or "clean"
//	  errors_total{candidate,kind}         kind from leakage.ErrorKind
//	  run_duration_seconds{candidate}      wall-clock run time
//
// Thread Safety: Safe for concurrent use.
type PrometheusSink struct {
	registry prometheus.Registerer

	tStatistic  *prometheus.GaugeVec
	classMean   *prometheus.GaugeVec
	runsTotal   *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
	runDuration *prometheus.HistogramVec

	collectors []prometheus.Collector

	mu     sync.RWMutex
	closed bool
}

// NewPrometheusSink creates and registers the leakage collectors.
//
// Outputs:
//   - *PrometheusSink: The sink. Never nil on success.
//   - error: ErrInvalidConfig joined with the cause, or a registration error.
func NewPrometheusSink(config *PrometheusConfig) (*PrometheusSink, error) {
	if config == nil {
		return nil, ErrInvalidConfig
	}
	if err := config.Validate(); err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}

	cfg := *config
	if cfg.DurationBuckets == nil {
		cfg.DurationBuckets = DefaultDurationBuckets
	}
	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	s := &PrometheusSink{registry: registry}

	s.tStatistic = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "t_statistic",
			Help:      "Welch t statistic of the latest run per class pair",
		},
		[]string{"candidate", "pair"},
	)

	s.classMean = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "class_mean_ns",
			Help:      "Mean trial duration in nanoseconds of the latest run per class",
		},
		[]string{"candidate", "class"},
	)

	s.runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "runs_total",
			Help:      "Completed leakage runs by verdict",
		},
		[]string{"candidate", "verdict"},
	)

	s.errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "errors_total",
			Help:      "Failed leakage runs by error kind",
		},
		[]string{"candidate", "kind"},
	)

	s.runDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of leakage runs",
			Buckets:   cfg.DurationBuckets,
		},
		[]string{"candidate"},
	)

	s.collectors = []prometheus.Collector{s.tStatistic, s.classMean, s.runsTotal, s.errorsTotal, s.runDuration}

	for i, c := range s.collectors {
		if err := registry.Register(c); err != nil {
			for _, done := range s.collectors[:i] {
				registry.Unregister(done)
			}
			return nil, err
		}
	}
	return s, nil
}

// RecordReport implements Sink.
func (s *PrometheusSink) RecordReport(_ context.Context, r *leakage.Report) error {
	if r == nil {
		return ErrNilReport
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrSinkClosed
	}

	for _, v := range r.Verdicts {
		s.tStatistic.WithLabelValues(r.Candidate, v.Pair()).Set(v.TStatistic)
	}
	for _, c := range r.Classes {
		s.classMean.WithLabelValues(r.Candidate, c.Name).Set(c.Summary.Mean)
	}

	verdict := "clean"
	if r.LeakDetected() {
		verdict = "leak"
	}
	s.runsTotal.WithLabelValues(r.Candidate, verdict).Inc()
	s.runDuration.WithLabelValues(r.Candidate).Observe(r.Elapsed.Seconds())
	return nil
}

// RecordError implements Sink.
func (s *PrometheusSink) RecordError(_ context.Context, candidate string, err error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrSinkClosed
	}

	s.errorsTotal.WithLabelValues(candidate, leakage.ErrorKind(err)).Inc()
	return nil
}

// Close unregisters all collectors. Safe to call more than once.
func (s *PrometheusSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	for _, c := range s.collectors {
		s.registry.Unregister(c)
	}
	return nil
}
