// SPDX-License-Identifier: AGPL-3.0-or-later
package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/bartekus/geovalida/cmd/geovalida/internal/clierr"
	"github.com/bartekus/geovalida/internal/config"
	"github.com/bartekus/geovalida/internal/depgate"
	"github.com/bartekus/geovalida/internal/model"
	"github.com/bartekus/geovalida/internal/projectroot"
	"github.com/bartekus/geovalida/internal/tab"
	"github.com/bartekus/geovalida/internal/tui"
)

func runShell(cmd *cobra.Command) error {
	root, err := projectroot.Resolve()
	if err != nil {
		return clierr.Classify("geovalida", err)
	}
	defer setupLogging(cmd, root).Close()

	cfg, err := config.Load(root)
	if err != nil {
		return clierr.Classify("configuración", err)
	}
	slog.Info("shell starting", "root", root, "interpreter", cfg.InterpreterOrDefault(), "pid", os.Getpid())

	if err := ensureDependencies(cmd, cfg); err != nil {
		return clierr.Classify("dependencias", err)
	}

	var tabs []*tab.Tab
	for _, v := range model.Variants {
		tabs = append(tabs, tab.New(tab.Options{
			Variant:     v,
			Root:        root,
			Interpreter: cfg.InterpreterOrDefault(),
			Enabled:     cfg.TabEnabled(v),
		}))
	}
	return tui.Run(tui.New(root, tabs...))
}

// ensureDependencies checks the interpreter, installs what is missing through
// the installer modal and checks again before the shell opens.
func ensureDependencies(cmd *cobra.Command, cfg *config.Config) error {
	gate := newGate(cfg)
	problems, err := gate.Check(cmd.Context())
	if err != nil {
		return err
	}
	if len(problems) > 0 {
		slog.Warn("dependencies missing", "count", len(problems))
		if err := tui.RunInstaller(gate, problems); err != nil {
			return err
		}
		if problems, err = gate.Check(cmd.Context()); err != nil {
			return err
		}
		if len(problems) > 0 {
			return fmt.Errorf("%w: %s", depgate.ErrDependencyMissing, problems[0])
		}
	}
	return gate.Probe(cmd.Context())
}

func newGate(cfg *config.Config) *depgate.Gate {
	return depgate.New(cfg.InterpreterOrDefault(), cfg.GeoprocessingModule, cfg.Dependencies, depgate.ExecExecutor{})
}
