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
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrAlreadyRegistered indicates a candidate name is taken.
	ErrAlreadyRegistered = errors.New("candidate already registered")

	// ErrNotFound indicates no candidate has the requested name.
	ErrNotFound = errors.New("candidate not found")
)

// Registry maps names to Candidates.
//
// Description:
//
//	Lets a host program expose a menu of candidates (for example a
//	vulnerable and a hardened variant of the same check) and select one by
//	name at run time. The Runner itself never consults a Registry.
//
// Thread Safety: Safe for concurrent use via read-write mutex.
type Registry struct {
	mu         sync.RWMutex
	candidates map[string]Candidate
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{candidates: make(map[string]Candidate)}
}

// Register adds c under c.Name().
//
// Outputs:
//   - error: ErrContractViolation if c is nil or unnamed,
//     ErrAlreadyRegistered if the name is taken.
func (r *Registry) Register(c Candidate) error {
	if c == nil {
		return fmt.Errorf("nil candidate: %w", ErrContractViolation)
	}
	name := c.Name()
	if name == "" {
		return fmt.Errorf("unnamed candidate: %w", ErrContractViolation)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.candidates[name]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, name)
	}
	r.candidates[name] = c
	return nil
}

// MustRegister registers c and panics on error. Intended for init code.
func (r *Registry) MustRegister(c Candidate) {
	if err := r.Register(c); err != nil {
		panic(fmt.Sprintf("leakage: failed to register candidate: %v", err))
	}
}

// Unregister removes the named candidate.
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.candidates[name]; !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	delete(r.candidates, name)
	return nil
}

// Get returns the named candidate.
func (r *Registry) Get(name string) (Candidate, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.candidates[name]
	return c, ok
}

// Lookup is Get returning ErrNotFound instead of a bool.
func (r *Registry) Lookup(name string) (Candidate, error) {
	c, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return c, nil
}

// List returns the registered names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.candidates))
	for name := range r.candidates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered candidates.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.candidates)
}
