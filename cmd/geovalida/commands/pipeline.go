// SPDX-License-Identifier: AGPL-3.0-or-later
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bartekus/geovalida/internal/model"
)

// NewPipelineCommand inspects the frozen step registry.
func NewPipelineCommand() *cobra.Command {
	var modelName string
	cmd := &cobra.Command{
		Use:   "pipeline",
		Short: "Inspect the step pipeline of a model",
	}
	cmd.PersistentFlags().StringVar(&modelName, "model", string(model.LADM1_2), "model variant")

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the ordered steps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := model.Parse(modelName)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, s := range model.PipelineOf(v).Steps() {
				manual := ""
				if s.Manual {
					manual = "  (manual)"
				}
				fmt.Fprintf(out, "%2d. %-32s %s%s\n", s.Index, s.Name, s.Target(), manual)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "graph",
		Short: "Print the step dependency graph in DOT format",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := model.Parse(modelName)
			if err != nil {
				return err
			}
			return model.PipelineOf(v).WriteDOT(cmd.OutOrStdout())
		},
	})
	return cmd
}
