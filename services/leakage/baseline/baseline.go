// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package baseline persists leakage verdicts per candidate and flags
// regressions: a pair that used to be clean and now leaks, or whose |t|
// grew sharply.
package baseline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/AleutianAI/ctguard/services/leakage"
	"github.com/AleutianAI/ctguard/services/leakage/stats"
)

// -----------------------------------------------------------------------------
// Errors
// -----------------------------------------------------------------------------

var (
	// ErrNotFound indicates no baseline exists for the candidate.
	ErrNotFound = errors.New("baseline not found")

	// ErrInvalidRecord indicates stored baseline data could not be decoded
	// or a record is missing its candidate name.
	ErrInvalidRecord = errors.New("invalid baseline record")
)

// -----------------------------------------------------------------------------
// Record
// -----------------------------------------------------------------------------

// PairRecord is the stored outcome of one class pair.
type PairRecord struct {
	ClassA       string  `json:"class_a_name"`
	ClassB       string  `json:"class_b_name"`
	TStatistic   float64 `json:"t_statistic"`
	Threshold    float64 `json:"threshold"`
	LeakDetected bool    `json:"leak_detected"`
}

// Key identifies the pair independently of class order.
func (p PairRecord) Key() string {
	if p.ClassA < p.ClassB {
		return p.ClassA + "|" + p.ClassB
	}
	return p.ClassB + "|" + p.ClassA
}

// Record is the baseline for one candidate.
type Record struct {
	Candidate string            `json:"candidate"`
	ReportID  string            `json:"report_id"`
	CreatedAt time.Time         `json:"created_at"`
	Config    leakage.Config    `json:"config"`
	Pairs     []PairRecord      `json:"pairs"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// FromReport derives a Record from a finished run.
func FromReport(r *leakage.Report) *Record {
	rec := &Record{
		Candidate: r.Candidate,
		ReportID:  r.ID,
		CreatedAt: r.StartedAt,
		Config:    r.Config,
		Pairs:     make([]PairRecord, len(r.Verdicts)),
	}
	for i, v := range r.Verdicts {
		rec.Pairs[i] = PairRecord{
			ClassA:       v.ClassA,
			ClassB:       v.ClassB,
			TStatistic:   stats.Finite(v.TStatistic),
			Threshold:    v.Threshold,
			LeakDetected: v.LeakDetected,
		}
	}
	return rec
}

// clone returns a deep copy so stores never share memory with callers.
func (r *Record) clone() *Record {
	c := *r
	c.Pairs = append([]PairRecord(nil), r.Pairs...)
	if r.Metadata != nil {
		c.Metadata = make(map[string]string, len(r.Metadata))
		for k, v := range r.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}

// -----------------------------------------------------------------------------
// Store
// -----------------------------------------------------------------------------

// Store saves and loads baselines keyed by candidate name.
//
// Thread Safety: Implementations must be safe for concurrent use.
type Store interface {
	// Get returns ErrNotFound if no baseline exists.
	Get(ctx context.Context, candidate string) (*Record, error)
	Set(ctx context.Context, rec *Record) error
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, candidate string) error
}

// MemoryStore keeps baselines in a map. Intended for tests and one-shot runs.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*Record)}
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, candidate string) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[candidate]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, candidate)
	}
	return rec.clone(), nil
}

// Set implements Store.
func (m *MemoryStore) Set(_ context.Context, rec *Record) error {
	if rec == nil || rec.Candidate == "" {
		return ErrInvalidRecord
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records[rec.Candidate] = rec.clone()
	return nil
}

// List implements Store.
func (m *MemoryStore) List(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.records))
	for name := range m.records {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(_ context.Context, candidate string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[candidate]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, candidate)
	}
	delete(m.records, candidate)
	return nil
}
