// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ctdiff

import (
	"fmt"
	"math/bits"
	"strings"
)

// Level is a preset trade-off between timing protection and cost.
type Level int

const (
	// LevelMaximum pads every input to MaxInputSize, so lengths are hidden.
	LevelMaximum Level = iota

	// LevelBalanced pads to the next power of two of the longer input.
	// Timing reveals only that bucket.
	LevelBalanced

	// LevelFast does not pad. The matrix fill stays branch-free, but its
	// size follows the input lengths.
	LevelFast
)

// Default input limits per level.
const (
	MaximumInputSize  = 4 * 1024
	BalancedInputSize = 64 * 1024
	FastInputSize     = 1024 * 1024
)

// PadByte fills padded positions.
const PadByte = 0xff

func (l Level) String() string {
	switch l {
	case LevelMaximum:
		return "maximum"
	case LevelBalanced:
		return "balanced"
	case LevelFast:
		return "fast"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// ParseLevel accepts maximum, balanced or fast, case-insensitively.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "maximum", "max":
		return LevelMaximum, nil
	case "balanced", "":
		return LevelBalanced, nil
	case "fast":
		return LevelFast, nil
	}
	return 0, fmt.Errorf("security level %q: %w", s, ErrInvalidConfig)
}

// Config controls a Differ.
type Config struct {
	// MaxInputSize bounds each input in bytes. Must be positive.
	MaxInputSize int `json:"max_input_size" yaml:"max_input_size"`

	// Pad extends both inputs with PadByte before the matrix is filled.
	Pad bool `json:"pad" yaml:"pad"`

	// PaddingSize is the padded length. Zero picks the next power of two of
	// the longer input, capped at MaxInputSize. Ignored unless Pad is set.
	PaddingSize int `json:"padding_size" yaml:"padding_size"`

	// MaxCells bounds the (m+1)(n+1) cells of the padded matrix. Zero means
	// no bound.
	MaxCells int `json:"max_cells" yaml:"max_cells"`
}

// Config returns the preset for l. maxSize overrides the level's default
// input limit when positive.
func (l Level) Config(maxSize int) Config {
	switch l {
	case LevelMaximum:
		if maxSize <= 0 {
			maxSize = MaximumInputSize
		}
		return Config{MaxInputSize: maxSize, Pad: true, PaddingSize: maxSize, MaxCells: (maxSize + 1) * (maxSize + 1)}
	case LevelFast:
		if maxSize <= 0 {
			maxSize = FastInputSize
		}
		return Config{MaxInputSize: maxSize}
	default:
		if maxSize <= 0 {
			maxSize = BalancedInputSize
		}
		return Config{MaxInputSize: maxSize, Pad: true, MaxCells: 1 << 26}
	}
}

// Validate reports the first invalid field, wrapped in ErrInvalidConfig.
func (c Config) Validate() error {
	switch {
	case c.MaxInputSize < 1:
		return fmt.Errorf("max_input_size must be positive, got %d: %w", c.MaxInputSize, ErrInvalidConfig)
	case c.PaddingSize < 0:
		return fmt.Errorf("padding_size must not be negative, got %d: %w", c.PaddingSize, ErrInvalidConfig)
	case c.PaddingSize > c.MaxInputSize:
		return fmt.Errorf("padding_size %d exceeds max_input_size %d: %w", c.PaddingSize, c.MaxInputSize, ErrInvalidConfig)
	case c.MaxCells < 0:
		return fmt.Errorf("max_cells must not be negative, got %d: %w", c.MaxCells, ErrInvalidConfig)
	}
	return nil
}

// paddedLen returns the length both inputs are extended to, or 0 when
// padding is off.
func (c Config) paddedLen(lenA, lenB int) (int, error) {
	if !c.Pad {
		return 0, nil
	}
	size := c.PaddingSize
	if size == 0 {
		size = nextPow2(max(lenA, lenB))
		size = min(size, c.MaxInputSize)
	}
	if lenA > size || lenB > size {
		return 0, fmt.Errorf("input %d bytes, padding %d: %w", max(lenA, lenB), size, ErrInputTooLarge)
	}
	return size, nil
}

func nextPow2(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}
