// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ux

import (
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// PersonalityLevel selects how much styling the output carries.
type PersonalityLevel string

const (
	// PersonalityFull draws boxes, icons and histograms.
	PersonalityFull PersonalityLevel = "full"

	// PersonalityMinimal prints icons and tables without boxes or histograms.
	PersonalityMinimal PersonalityLevel = "minimal"

	// PersonalityMachine prints tab-separated records for scripts.
	PersonalityMachine PersonalityLevel = "machine"
)

// PersonalityEnv overrides terminal detection when set.
const PersonalityEnv = "CTGUARD_PERSONALITY"

// ParsePersonalityLevel converts a string to a PersonalityLevel. Unknown
// values map to PersonalityMinimal.
func ParsePersonalityLevel(s string) PersonalityLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "full", "f":
		return PersonalityFull
	case "minimal", "min", "m":
		return PersonalityMinimal
	case "machine", "quiet", "q":
		return PersonalityMachine
	default:
		return PersonalityMinimal
	}
}

// DetectPersonality picks a level for f: the CTGUARD_PERSONALITY value if
// set, PersonalityFull on a terminal, PersonalityMachine otherwise.
func DetectPersonality(f *os.File) PersonalityLevel {
	if env := os.Getenv(PersonalityEnv); env != "" {
		return ParsePersonalityLevel(env)
	}
	if f != nil && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		return PersonalityFull
	}
	return PersonalityMachine
}
