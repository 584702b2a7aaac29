// SPDX-License-Identifier: AGPL-3.0-or-later

// Package steps implements the built-in pipeline steps. Each one runs as a
// child process of the binary ("geovalida step <name>"), reads the selection
// file itself and talks to other steps only through the scratch tree.
package steps

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bartekus/geovalida/internal/model"
	"github.com/bartekus/geovalida/internal/projectroot"
	"github.com/bartekus/geovalida/internal/selection"
	"github.com/bartekus/geovalida/internal/workspace"
)

// NoDatasetsMessage is printed by a step with no enabled zone.
const NoDatasetsMessage = "No datasets: ninguna zona habilitada en array_config.txt"

// Env is what a built-in step works with.
type Env struct {
	Root    string
	Variant model.Variant
	WS      *workspace.Workspace
	// Out receives operator lines; the runner streams them to the console.
	Out io.Writer
}

// NewEnv binds a step to the project root and model. The scratch tree is
// always the variant's own; a diverging GEOVALIDA_SCRATCH is ignored.
func NewEnv(root string, v model.Variant, out io.Writer) *Env {
	e := &Env{Root: root, Variant: v, WS: workspace.New(root), Out: out}
	if s := os.Getenv(projectroot.EnvScratch); s != "" && filepath.Clean(s) != e.Scratch() {
		slog.Warn("ignoring scratch override", "model", v, "env", s, "scratch", e.Scratch())
	}
	return e
}

// Scratch is the model's scratch root.
func (e *Env) Scratch() string {
	return e.WS.ScratchDir(e.Variant.Dir())
}

// Path joins elements beneath the scratch root.
func (e *Env) Path(elem ...string) string {
	return e.WS.Path(e.Variant.Dir(), elem...)
}

// Say prints one operator line.
func (e *Env) Say(format string, args ...any) {
	fmt.Fprintf(e.Out, format+"\n", args...)
}

// Func is a built-in step body; zones are the enabled ones, never empty.
type Func func(ctx context.Context, env *Env, zones []selection.Zone) error

// Step is a registered built-in.
type Step struct {
	Name string
	Run  Func
	// Empty runs when no zone is enabled, after the no-datasets line.
	Empty func(env *Env) error
}

// Registry lists the built-ins by name.
var Registry = map[string]Step{
	model.BuiltinSeed:       {Name: model.BuiltinSeed, Run: Seed},
	model.BuiltinOrganize:   {Name: model.BuiltinOrganize, Run: Organize},
	model.BuiltinCount:      {Name: model.BuiltinCount, Run: Count},
	model.BuiltinDuplicates: {Name: model.BuiltinDuplicates, Run: Duplicates},
	model.BuiltinCompile:    {Name: model.BuiltinCompile, Run: Compile, Empty: compileEmpty},
}

// Run executes the named built-in, gated by the selection file.
func Run(ctx context.Context, name string, env *Env) error {
	step, ok := Registry[name]
	if !ok {
		return fmt.Errorf("unknown built-in step %q", name)
	}
	log := slog.With("model", env.Variant, "step", name, "pid", os.Getpid())

	zones, err := selection.NewStore(env.Root).EnabledZones()
	if errors.Is(err, selection.ErrEmpty) {
		log.Warn("selection empty")
		env.Say("%s", NoDatasetsMessage)
		if step.Empty != nil {
			return step.Empty(env)
		}
		return nil
	}
	if err != nil {
		return err
	}

	log.Info("step started", "zones", zones)
	if err := step.Run(ctx, env, zones); err != nil {
		log.Error("step failed", "error", err)
		return err
	}
	log.Info("step finished")
	return nil
}
