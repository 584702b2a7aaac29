// SPDX-License-Identifier: AGPL-3.0-or-later
package runner

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bartekus/geovalida/internal/model"
	"github.com/bartekus/geovalida/internal/projectroot"
)

// DefaultInterpreter runs external steps when none is configured.
const DefaultInterpreter = "python"

// Spec is a fully resolved child command.
type Spec struct {
	Path string
	Args []string
	Dir  string
	Env  []string
}

// Launch resolves steps of one model into child commands.
type Launch struct {
	Root        string
	Scratch     string
	Variant     model.Variant
	Interpreter string
	// Self is the binary executing built-in steps; empty means this process.
	Self string
}

// Spec returns the command for a step. External scripts run as
// "<interpreter> <root>/<script>"; built-ins as "<self> step <name> --model <M>".
func (l Launch) Spec(step model.Step) (Spec, error) {
	spec := Spec{Dir: l.Root, Env: l.env()}

	if step.Builtin != "" {
		self := l.Self
		if self == "" {
			exe, err := os.Executable()
			if err != nil {
				return Spec{}, fmt.Errorf("locating executable: %w", err)
			}
			self = exe
		}
		spec.Path = self
		spec.Args = []string{"step", step.Builtin, "--model", string(l.Variant)}
		return spec, nil
	}

	if step.Script == "" {
		return Spec{}, fmt.Errorf("step %d of %s has no target", step.Index, l.Variant)
	}
	interp := l.Interpreter
	if interp == "" {
		interp = DefaultInterpreter
	}
	spec.Path = interp
	spec.Args = []string{filepath.Join(l.Root, filepath.FromSlash(step.Script))}
	return spec, nil
}

func (l Launch) env() []string {
	return append(os.Environ(),
		projectroot.EnvRoot+"="+l.Root,
		projectroot.EnvModel+"="+string(l.Variant),
		projectroot.EnvScratch+"="+l.Scratch,
		projectroot.EnvToolbox+"="+filepath.Join(l.Root, filepath.FromSlash(l.Variant.Toolbox())),
		"PYTHONIOENCODING=utf-8",
		"PYTHONUNBUFFERED=1",
	)
}
