// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command ctaudit measures candidate functions for timing leaks.
//
//	ctaudit scenarios
//	ctaudit run password --trials 2000
//	ctaudit baseline save token
//	ctaudit baseline check token
//
// Exit status is 0 when every verdict matches, 1 when a verdict contradicts
// its expectation or a baseline regresses, and 2 on any other error.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/AleutianAI/ctguard/pkg/ct"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := execute(ctx, newApp(os.Stdout, os.Stderr), os.Args[1:])
	stop()
	ct.Purge()
	os.Exit(exitCode(err))
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errVerdictMismatch), errors.Is(err, errRegression):
		return 1
	default:
		fmt.Fprintln(os.Stderr, "ctaudit:", err)
		return 2
	}
}
