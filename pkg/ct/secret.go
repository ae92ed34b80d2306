// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ct

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/awnumar/memguard"
)

// -----------------------------------------------------------------------------
// Secure memory setup
// -----------------------------------------------------------------------------

// lockOverheadBytes covers the guard pages and canary memguard adds around
// every locked allocation.
const lockOverheadBytes = 4 * 4096

var (
	memguardInitOnce sync.Once

	// memlockLimit is the RLIMIT_MEMLOCK soft limit in bytes; 0 with
	// memlockUnlimited set means no limit applies.
	memlockLimit     uint64
	memlockUnlimited bool

	insecureMemory atomic.Bool
)

// SetInsecureMemory forces later Secrets onto the wiped heap instead of
// locked memory. Existing Secrets are unaffected.
func SetInsecureMemory(insecure bool) {
	insecureMemory.Store(insecure)
}

func initMemguard() {
	memguardInitOnce.Do(func() {
		limit, unlimited, err := memlockRlimit()
		if err != nil {
			slog.Warn("could not determine mlock limit", "error", err)
			unlimited = true
		}
		memlockLimit, memlockUnlimited = limit, unlimited

		slog.Debug("secure memory initialized",
			"mlock_limit_bytes", memlockLimit,
			"unlimited", memlockUnlimited,
		)
	})
}

// lockable reports whether size bytes can be mlocked under the current limit.
func lockable(size int) bool {
	if insecureMemory.Load() {
		return false
	}
	return memlockUnlimited || uint64(size)+lockOverheadBytes <= memlockLimit
}

// -----------------------------------------------------------------------------
// Secret
// -----------------------------------------------------------------------------

// Secret is a fixed-size buffer for sensitive data.
//
// # Description
//
// When the process may lock enough memory, the bytes live in a memguard
// LockedBuffer: mlocked, guard-paged, and wiped on Destroy. Otherwise a
// heap buffer is used and wiped with Zero on Destroy. Either way Destroy
// leaves no copy of the contents behind.
//
// # Thread Safety
//
// Not safe for concurrent use. A Secret belongs to the scope that created it.
type Secret struct {
	locked    *memguard.LockedBuffer
	heap      []byte
	size      int
	destroyed bool
}

// NewSecret allocates a zeroed Secret of size bytes.
//
// # Outputs
//
//   - *Secret: The buffer. Callers must Destroy it, typically with defer.
//   - error: ErrInvalidSize when size < 1.
func NewSecret(size int) (*Secret, error) {
	if size < 1 {
		return nil, fmt.Errorf("secret size %d: %w", size, ErrInvalidSize)
	}
	initMemguard()

	s := &Secret{size: size}
	if lockable(size) {
		s.locked = memguard.NewBuffer(size)
	} else {
		slog.Debug("using heap memory for secret", "size", size)
		s.heap = make([]byte, size)
	}
	return s, nil
}

// SecretFrom moves src into a new Secret and wipes src.
func SecretFrom(src []byte) (*Secret, error) {
	s, err := NewSecret(len(src))
	if err != nil {
		return nil, err
	}
	copy(s.Bytes(), src)
	Zero(src)
	return s, nil
}

// Bytes returns the backing bytes. The slice is invalid after Destroy.
func (s *Secret) Bytes() []byte {
	if s.destroyed {
		return nil
	}
	if s.locked != nil {
		return s.locked.Bytes()
	}
	return s.heap
}

// Size returns the buffer length fixed at construction.
func (s *Secret) Size() int { return s.size }

// Locked reports whether the contents are held in mlocked memory.
func (s *Secret) Locked() bool { return s.locked != nil }

// Destroy wipes the contents and releases the buffer. Safe to call twice.
func (s *Secret) Destroy() {
	if s.destroyed {
		return
	}
	s.destroyed = true

	if s.locked != nil {
		s.locked.Destroy()
		s.locked = nil
		return
	}
	Zero(s.heap)
	s.heap = nil
}

// WithSecret runs fn with a fresh zeroed buffer of size bytes and destroys
// the buffer when fn returns, errors, or panics.
//
// # Examples
//
//	err := ct.WithSecret(32, func(key []byte) error {
//	    copy(key, derived)
//	    return use(key)
//	})
func WithSecret(size int, fn func(buf []byte) error) error {
	s, err := NewSecret(size)
	if err != nil {
		return err
	}
	defer s.Destroy()

	return fn(s.Bytes())
}

// Purge destroys every live locked buffer in the process. Intended for
// process exit paths.
func Purge() {
	memguard.Purge()
}
