// SPDX-License-Identifier: AGPL-3.0-or-later
package commands

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bartekus/geovalida/cmd/geovalida/internal/clierr"
	"github.com/bartekus/geovalida/internal/model"
	"github.com/bartekus/geovalida/internal/projectroot"
	"github.com/bartekus/geovalida/internal/steps"
)

// NewStepCommand runs one built-in step. The shell spawns it as a child; it
// is never needed by the operator.
func NewStepCommand() *cobra.Command {
	var modelName string
	cmd := &cobra.Command{
		Use:       "step <" + joinBuiltins() + ">",
		Short:     "Run a built-in pipeline step",
		Hidden:    true,
		Args:      cobra.ExactArgs(1),
		ValidArgs: model.Builtins,
		RunE: func(cmd *cobra.Command, args []string) error {
			if modelName == "" {
				modelName = os.Getenv(projectroot.EnvModel)
			}
			v, err := model.Parse(modelName)
			if err != nil {
				return clierr.Classify("step", err)
			}
			root, err := projectroot.Resolve()
			if err != nil {
				return clierr.Classify("step", err)
			}
			defer setupLogging(cmd, root).Close()

			env := steps.NewEnv(root, v, cmd.OutOrStdout())
			return clierr.Classify("step "+args[0], steps.Run(cmd.Context(), args[0], env))
		},
	}
	cmd.Flags().StringVar(&modelName, "model", "", "model variant (defaults to $"+projectroot.EnvModel+")")
	return cmd
}

func joinBuiltins() string {
	return strings.Join(model.Builtins, "|")
}
