// SPDX-License-Identifier: AGPL-3.0-or-later
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bartekus/geovalida/cmd/geovalida/internal/clierr"
	"github.com/bartekus/geovalida/internal/config"
	"github.com/bartekus/geovalida/internal/depgate"
	"github.com/bartekus/geovalida/internal/projectroot"
)

// NewDepsCommand reports the interpreter's package state without installing.
func NewDepsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deps",
		Short: "Inspect the interpreter dependencies",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Check required packages and the geoprocessing module",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Default()
			if root, err := projectroot.Resolve(); err == nil {
				if cfg, err = config.Load(root); err != nil {
					return clierr.Classify("deps", err)
				}
			}
			gate := newGate(cfg)
			problems, err := gate.Check(cmd.Context())
			if err != nil {
				return clierr.Classify("deps", err)
			}
			out := cmd.OutOrStdout()
			for _, p := range problems {
				fmt.Fprintln(out, p)
			}
			if err := gate.Probe(cmd.Context()); err != nil {
				fmt.Fprintln(out, err)
				problems = append(problems, depgate.Problem{Requirement: depgate.Requirement{Name: cfg.GeoprocessingModule}})
			}
			if len(problems) > 0 {
				return clierr.New(clierr.DependencyMissing, fmt.Sprintf("%d dependencias sin resolver", len(problems)))
			}
			fmt.Fprintln(out, "Dependencias completas")
			return nil
		},
	})
	return cmd
}
