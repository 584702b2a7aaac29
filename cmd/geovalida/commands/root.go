// SPDX-License-Identifier: AGPL-3.0-or-later

/*
GeoValidaTool - orchestration harness for cadastral quality-assurance pipelines.
It runs the ordered validation steps of each cadastral model against a shared workspace layout,
streams their output to the operator and compiles the resulting reports.

Copyright (C) 2025  Bartek Kus

This program is free software licensed under the terms of the GNU AGPL v3 or later.

See https://www.gnu.org/licenses/ for license details.

*/

// Package commands holds the Cobra commands of the geovalida binary.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd constructs the geovalida root command. Without a subcommand it
// opens the operator shell.
func NewRootCmd() *cobra.Command {
	version := os.Getenv("GEOVALIDA_VERSION")
	if version == "" {
		version = "0.0.0-dev"
	}

	cmd := &cobra.Command{
		Use:           "geovalida",
		Short:         "GeoValidaTool - cadastral quality-assurance pipelines",
		Long:          "Runs the validation pipelines of each cadastral model and compiles their reports.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runShell(cmd)
		},
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug diagnostics")

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number of geovalida",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "geovalida version %s\n", version)
		},
	})
	cmd.AddCommand(NewStepCommand())
	cmd.AddCommand(NewPipelineCommand())
	cmd.AddCommand(NewDepsCommand())

	return cmd
}
