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
	"github.com/spf13/cobra"

	"github.com/AleutianAI/ctguard/cmd/ctaudit/scenarios"
)

func newScenariosCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "scenarios [scenario]",
		Short: "List scenarios, or the candidates of one scenario",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				s, err := scenarios.Lookup(args[0])
				if err != nil {
					return err
				}
				a.printer.Names(s.Name+": "+s.Description, s.Candidates(), func(name string) string {
					e, err := s.Entry(name)
					if err != nil {
						return ""
					}
					return string(e.Expect) + ", " + e.Description
				})
				return nil
			}

			all := scenarios.All()
			names := make([]string, len(all))
			desc := make(map[string]string, len(all))
			for i, s := range all {
				names[i] = s.Name
				desc[s.Name] = s.Description
			}
			a.printer.Names("Scenarios", names, func(name string) string { return desc[name] })
			return nil
		},
	}
}
