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
	"fmt"
	"io"
	"math"
	"time"

	"github.com/AleutianAI/ctguard/services/leakage"
	"github.com/AleutianAI/ctguard/services/leakage/baseline"
)

const (
	boxWidth = 68
	barWidth = 30
)

// Printer writes reports to one destination at a fixed personality level.
//
// Thread Safety: Not safe for concurrent use.
type Printer struct {
	w      io.Writer
	level  PersonalityLevel
	styles Styles
}

// NewPrinter creates a Printer for w.
func NewPrinter(w io.Writer, level PersonalityLevel) *Printer {
	return &Printer{w: w, level: level, styles: NewStyles(w)}
}

// Level returns the printer's personality level.
func (p *Printer) Level() PersonalityLevel { return p.level }

// Report renders a leakage report.
//
// Machine output is one tab-separated record per line:
//
//	REPORT   <id> <candidate> <trials> <iterations> <threshold>
//	CLASS    <name> <count> <mean_ns> <median_ns> <stddev_ns> <cv>
//	VERDICT  <class_a> <class_b> <t> <threshold> leak|clean
//	RESULT   leak|clean
func (p *Printer) Report(r *leakage.Report) {
	if p.level == PersonalityMachine {
		p.machineReport(r)
		return
	}
	s := p.styles

	fmt.Fprintln(p.w, s.Title.Render("Leakage report: "+r.Candidate))
	fmt.Fprintln(p.w, s.Muted.Render(fmt.Sprintf("%s  %d trials x %d iterations  |t| > %.2f  %s",
		r.ID, r.Config.TrialCount, r.Config.IterationsPerTrial, r.Config.SignificanceThreshold, r.Elapsed.Round(time.Millisecond))))
	fmt.Fprintln(p.w)

	fmt.Fprintln(p.w, s.Bold.Render(fmt.Sprintf("  %-24s %12s %12s %12s %8s", "class", "mean ns", "median ns", "stddev ns", "cv")))
	for _, c := range r.Classes {
		fmt.Fprintf(p.w, "  %-24s %12.2f %12.2f %12.2f %8.3f\n",
			truncate(c.Name, 24), c.Summary.Mean, c.Summary.Median, c.Summary.StdDev, c.Summary.CV)
	}
	fmt.Fprintln(p.w)

	for _, v := range r.Verdicts {
		icon, label := IconSuccess, s.Success.Render("clean")
		if v.LeakDetected {
			icon, label = IconError, s.Error.Render("LEAK")
		}
		fmt.Fprintf(p.w, "%s %-40s t = %s  %s\n", icon.Render(s), truncate(v.Pair(), 40), formatT(v.TStatistic), label)
	}

	if p.level == PersonalityFull && len(r.Histogram) > 0 {
		fmt.Fprintln(p.w)
		p.histogram(r)
	}

	fmt.Fprintln(p.w)
	if r.LeakDetected() {
		body := fmt.Sprintf("%d of %d class pairs differ, max |t| = %s", len(r.Leaks()), len(r.Verdicts), formatT(r.MaxAbsT()))
		p.box(true, "TIMING LEAK DETECTED", body)
	} else {
		body := fmt.Sprintf("max |t| = %s within threshold %.2f", formatT(r.MaxAbsT()), r.Config.SignificanceThreshold)
		p.box(false, "No timing leak detected", body)
	}
}

func (p *Printer) histogram(r *leakage.Report) {
	s := p.styles
	max := 0
	for _, b := range r.Histogram {
		if b.Count > max {
			max = b.Count
		}
	}
	fmt.Fprintln(p.w, s.Subtitle.Render("Pooled trial duration (ns)"))
	for _, b := range r.Histogram {
		fmt.Fprintf(p.w, "  %10.1f - %-10.1f %s %d\n", b.Low, b.High, s.Muted.Render(Bar(b.Count, max, barWidth)), b.Count)
	}
}

func (p *Printer) box(failed bool, title, body string) {
	s := p.styles
	if p.level != PersonalityFull {
		icon := IconSuccess
		if failed {
			icon = IconError
		}
		fmt.Fprintf(p.w, "%s %s: %s\n", icon.Render(s), title, body)
		return
	}
	if failed {
		fmt.Fprintln(p.w, s.ErrorBox.Width(boxWidth).Render(s.Error.Bold(true).Render(title)+"\n"+body))
		return
	}
	fmt.Fprintln(p.w, s.Box.Width(boxWidth).Render(s.Title.Render(title)+"\n"+body))
}

func (p *Printer) machineReport(r *leakage.Report) {
	fmt.Fprintf(p.w, "REPORT\t%s\t%s\t%d\t%d\t%g\n",
		r.ID, r.Candidate, r.Config.TrialCount, r.Config.IterationsPerTrial, r.Config.SignificanceThreshold)
	for _, c := range r.Classes {
		fmt.Fprintf(p.w, "CLASS\t%s\t%d\t%.3f\t%.3f\t%.3f\t%.4f\n",
			c.Name, c.Summary.Count, c.Summary.Mean, c.Summary.Median, c.Summary.StdDev, c.Summary.CV)
	}
	for _, v := range r.Verdicts {
		fmt.Fprintf(p.w, "VERDICT\t%s\t%s\t%s\t%g\t%s\n", v.ClassA, v.ClassB, formatT(v.TStatistic), v.Threshold, leakWord(v.LeakDetected))
	}
	fmt.Fprintf(p.w, "RESULT\t%s\n", leakWord(r.LeakDetected()))
}

// Check renders a baseline comparison.
func (p *Printer) Check(res *baseline.CheckResult) {
	if p.level == PersonalityMachine {
		for _, reg := range res.Regressions {
			fmt.Fprintf(p.w, "REGRESSION\t%s\t%s\t%s\t%s\n", res.Candidate, reg.Pair, formatT(reg.Previous), formatT(reg.Current))
		}
		for _, m := range res.Missing {
			fmt.Fprintf(p.w, "MISSING\t%s\t%s\n", res.Candidate, m)
		}
		status := "pass"
		if !res.Passed() {
			status = "fail"
		}
		fmt.Fprintf(p.w, "CHECK\t%s\t%s\n", res.Candidate, status)
		return
	}

	s := p.styles
	for _, reg := range res.Regressions {
		fmt.Fprintf(p.w, "%s %s: %s (t %s -> %s)\n", IconError.Render(s), reg.Pair, reg.Reason, formatT(reg.Previous), formatT(reg.Current))
	}
	for _, m := range res.Missing {
		fmt.Fprintf(p.w, "%s %s: not measured in this run\n", IconWarning.Render(s), m)
	}
	if res.Passed() {
		fmt.Fprintf(p.w, "%s %s matches its baseline\n", IconSuccess.Render(s), s.Bold.Render(res.Candidate))
		return
	}
	fmt.Fprintf(p.w, "%s %s regressed in %d pair(s)\n", IconError.Render(s), s.Bold.Render(res.Candidate), len(res.Regressions))
}

// Error prints a failure line. Machine output is "ERROR\t<msg>".
func (p *Printer) Error(err error) {
	if p.level == PersonalityMachine {
		fmt.Fprintf(p.w, "ERROR\t%v\n", err)
		return
	}
	fmt.Fprintf(p.w, "%s %s\n", IconError.Render(p.styles), p.styles.Error.Render(err.Error()))
}

// Info prints a secondary line. Machine output drops it.
func (p *Printer) Info(text string) {
	if p.level == PersonalityMachine {
		return
	}
	fmt.Fprintf(p.w, "%s %s\n", p.styles.Muted.Render("│"), text)
}

func leakWord(leak bool) string {
	if leak {
		return "leak"
	}
	return "clean"
}

func formatT(t float64) string {
	switch {
	case math.IsInf(t, 1):
		return "+Inf"
	case math.IsInf(t, -1):
		return "-Inf"
	case math.IsNaN(t):
		return "NaN"
	}
	return fmt.Sprintf("%.3f", t)
}

func truncate(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-1]) + "…"
}

// Names lists candidates one per line with an optional description.
func (p *Printer) Names(title string, names []string, describe func(string) string) {
	if p.level == PersonalityMachine {
		for _, n := range names {
			fmt.Fprintln(p.w, n)
		}
		return
	}
	fmt.Fprintln(p.w, p.styles.Title.Render(title))
	for _, n := range names {
		line := fmt.Sprintf("  %s %s", IconBullet.Render(p.styles), n)
		if describe != nil {
			if d := describe(n); d != "" {
				line += "  " + p.styles.Muted.Render(d)
			}
		}
		fmt.Fprintln(p.w, line)
	}
	if len(names) == 0 {
		fmt.Fprintln(p.w, p.styles.Muted.Render("  (none)"))
	}
}
