// SPDX-License-Identifier: AGPL-3.0-or-later
package tab

import (
	"fmt"

	"github.com/bartekus/geovalida/internal/model"
	"github.com/bartekus/geovalida/internal/pipeline"
	"github.com/bartekus/geovalida/internal/runner"
)

// Plan is a run waiting to be executed, possibly behind a confirmation.
type Plan struct {
	Steps []model.Step
	// Confirm is set when step 1 is chosen and the scratch tree holds data:
	// executing wipes it.
	Confirm bool
	// Warnings list chosen steps whose inputs no chosen step produces and
	// that are absent on disk.
	Warnings []string
}

// Destructive reports whether the plan starts with the seeding step.
func (p Plan) Destructive() bool {
	return len(p.Steps) > 0 && p.Steps[0].Destructive()
}

// ConfirmPrompt is shown before the scratch tree is wiped.
func (t *Tab) ConfirmPrompt() string {
	return fmt.Sprintf("Se eliminará todo el contenido de %s. ¿Continuar?", t.ws.ScratchDir(t.variant.Dir()))
}

// PlanAll prepares a run of every step.
func (t *Tab) PlanAll() (Plan, error) {
	return t.plan(t.pipeline.Steps())
}

// PlanSelected prepares a run of the chosen steps in pipeline order.
func (t *Tab) PlanSelected(indexes []int) (Plan, error) {
	chosen, err := t.pipeline.Select(indexes)
	if err != nil {
		return Plan{}, err
	}
	if len(chosen) == 0 {
		return Plan{}, fmt.Errorf("no steps selected")
	}
	return t.plan(chosen)
}

func (t *Tab) plan(steps []model.Step) (Plan, error) {
	if err := t.checkEnabled(); err != nil {
		return Plan{}, err
	}
	p := Plan{Steps: steps}
	if p.Destructive() {
		empty, err := t.ws.ScratchEmpty(t.variant.Dir())
		if err != nil {
			return Plan{}, err
		}
		p.Confirm = !empty
	}

	pre, err := t.pipeline.Prerequisites(steps)
	if err != nil {
		return Plan{}, err
	}
	for _, r := range pre {
		for _, entry := range r.Entries {
			if p.Destructive() || !t.ws.Exists(t.variant.Dir(), entry) {
				p.Warnings = append(p.Warnings, fmt.Sprintf(
					"El paso %d lee %s, que produce el paso %d y no existe", r.Step.Index, entry, r.Needs.Index))
			}
		}
	}
	return p, nil
}

// Execute runs a plan. A plan needing confirmation that was declined does
// nothing at all and returns false. An aborted driver is reset first; a
// destructive plan wipes the scratch tree before the first step spawns.
func (t *Tab) Execute(p Plan, confirmed bool) (bool, error) {
	if err := t.checkEnabled(); err != nil {
		return false, err
	}
	if p.Confirm && !confirmed {
		t.sink.Append("Ejecución cancelada por el usuario")
		return false, nil
	}
	if t.driver.State() == pipeline.Running {
		return false, ErrBusy
	}

	if p.Destructive() {
		if err := t.ws.ResetScratch(t.variant.Dir()); err != nil {
			t.sink.Appendf("Error: %v", err)
			return false, err
		}
	}
	t.driver.Reset()

	t.mu.Lock()
	for i := range t.indicators {
		t.indicators[i] = runner.Pending
	}
	t.lastError, t.alert = "", ""
	t.mu.Unlock()
	for _, w := range p.Warnings {
		t.sink.Appendf("Advertencia: %s", w)
	}
	t.sink.Appendf("Iniciando %d pasos de %s", len(p.Steps), t.variant.Title())

	if !t.driver.Start(p.Steps) {
		return false, ErrBusy
	}
	return true, nil
}

// RunAll plans and executes every step, asking confirm when the scratch
// tree would be wiped.
func (t *Tab) RunAll(confirm func(prompt string) bool) (bool, error) {
	p, err := t.PlanAll()
	if err != nil {
		return false, err
	}
	return t.Execute(p, !p.Confirm || confirm(t.ConfirmPrompt()))
}

// RunSelected is RunAll for a subset of steps.
func (t *Tab) RunSelected(indexes []int, confirm func(prompt string) bool) (bool, error) {
	p, err := t.PlanSelected(indexes)
	if err != nil {
		return false, err
	}
	return t.Execute(p, !p.Confirm || confirm(t.ConfirmPrompt()))
}
