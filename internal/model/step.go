// SPDX-License-Identifier: AGPL-3.0-or-later
package model

import (
	"fmt"

	"github.com/bartekus/geovalida/internal/workspace"
)

// Built-in steps implemented by this binary and run as child processes of it.
const (
	BuiltinSeed       = "seed"
	BuiltinOrganize   = "organize"
	BuiltinCount      = "count"
	BuiltinDuplicates = "duplicates"
	BuiltinCompile    = "compile"
)

// Builtins lists every built-in step name.
var Builtins = []string{BuiltinSeed, BuiltinOrganize, BuiltinCount, BuiltinDuplicates, BuiltinCompile}

// Step is one entry of a model pipeline.
type Step struct {
	Index   int    // one-based
	Name    string // display name
	Script  string // path relative to the project root; empty for built-ins
	Builtin string
	// Manual marks a step after which the operator works by hand before
	// continuing. It only affects colouring.
	Manual bool

	// Layout entries the step reads and writes; they define the edges of the
	// pipeline dependency graph.
	Reads  []string
	Writes []string
}

// ID is a stable identifier, e.g. "LADM_1_2#03".
func (s Step) ID(v Variant) string {
	return fmt.Sprintf("%s#%02d", v, s.Index)
}

// Target is what the runner executes: the script path or "builtin:<name>".
func (s Step) Target() string {
	if s.Builtin != "" {
		return "builtin:" + s.Builtin
	}
	return s.Script
}

// Destructive reports whether running the step first wipes the scratch tree.
func (s Step) Destructive() bool {
	return s.Index == 1
}

// Pipeline is the frozen ordered step list of a variant.
type Pipeline struct {
	Variant Variant
	steps   []Step
}

// Steps returns a copy of the ordered steps.
func (p Pipeline) Steps() []Step {
	out := make([]Step, len(p.steps))
	copy(out, p.steps)
	return out
}

// Len returns the number of steps.
func (p Pipeline) Len() int { return len(p.steps) }

// Step returns the step with the one-based index.
func (p Pipeline) Step(index int) (Step, bool) {
	if index < 1 || index > len(p.steps) {
		return Step{}, false
	}
	return p.steps[index-1], true
}

// Select returns the steps whose indexes are listed, in pipeline order and
// without duplicates.
func (p Pipeline) Select(indexes []int) ([]Step, error) {
	want := make(map[int]bool, len(indexes))
	for _, i := range indexes {
		if _, ok := p.Step(i); !ok {
			return nil, fmt.Errorf("%s has no step %d", p.Variant, i)
		}
		want[i] = true
	}
	var out []Step
	for _, s := range p.steps {
		if want[s.Index] {
			out = append(out, s)
		}
	}
	return out, nil
}

func newPipeline(v Variant, steps ...Step) Pipeline {
	for i := range steps {
		steps[i].Index = i + 1
	}
	return Pipeline{Variant: v, steps: steps}
}

func script(v Variant, file, name string, reads, writes []string) Step {
	return Step{Name: name, Script: v.ScriptsDir() + "/" + file, Reads: reads, Writes: writes}
}

func seed() Step {
	return Step{
		Name:    "Preparar insumos",
		Builtin: BuiltinSeed,
		Writes:  []string{workspace.Containers, workspace.GPKGOriginal},
	}
}

func organize() Step {
	return Step{
		Name:    "Organizar inconsistencias por zona",
		Builtin: BuiltinOrganize,
		Reads:   []string{workspace.ValidacionesCalidad},
		Writes:  []string{workspace.Inconsistencias},
	}
}

func count() Step {
	return Step{
		Name:    "Conteo de elementos",
		Builtin: BuiltinCount,
		Reads:   []string{workspace.Inconsistencias},
		Writes:  []string{workspace.DB},
	}
}

func duplicates() Step {
	return Step{
		Name:    "Unidades duplicadas",
		Builtin: BuiltinDuplicates,
		Reads:   []string{workspace.TopologyErrors},
		Writes:  []string{workspace.DB},
	}
}

func compile() Step {
	return Step{
		Name:    "Compilar reportes",
		Builtin: BuiltinCompile,
		Reads: []string{
			workspace.Containers, workspace.GPKGOriginal, workspace.Topologia,
			workspace.Inconsistencias, workspace.ValidacionesCalidad, workspace.DB,
		},
	}
}
