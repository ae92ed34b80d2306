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
	"encoding/csv"
	"io"
	"strconv"

	"github.com/AleutianAI/ctguard/services/leakage"
)

// sampleWriter streams raw samples as CSV rows of
// scenario,candidate,class,trial,ns.
type sampleWriter struct {
	w      *csv.Writer
	header bool
	err    error
}

func newSampleWriter(w io.Writer) *sampleWriter {
	return &sampleWriter{w: csv.NewWriter(w)}
}

func (s *sampleWriter) recorder(scenario, candidate string) leakage.SampleRecorder {
	return func(class string, samples []float64) {
		if s.err != nil {
			return
		}
		if !s.header {
			s.err = s.w.Write([]string{"scenario", "candidate", "class", "trial", "ns"})
			s.header = true
		}
		for i, v := range samples {
			if s.err != nil {
				return
			}
			s.err = s.w.Write([]string{scenario, candidate, class, strconv.Itoa(i), strconv.FormatFloat(v, 'f', 3, 64)})
		}
	}
}

// Flush writes buffered rows and returns the first write error.
func (s *sampleWriter) Flush() error {
	s.w.Flush()
	if s.err != nil {
		return s.err
	}
	return s.w.Error()
}
