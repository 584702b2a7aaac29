// SPDX-License-Identifier: AGPL-3.0-or-later
package tab

import (
	"github.com/bartekus/geovalida/internal/inputs"
	"github.com/bartekus/geovalida/internal/model"
	"github.com/bartekus/geovalida/internal/selection"
)

// Slots is the model's input vocabulary.
func (t *Tab) Slots() []model.Slot { return t.variant.Slots() }

// Inputs loads the model's input registry.
func (t *Tab) Inputs() (inputs.Registry, error) {
	return t.inputs.Load(t.variant)
}

// SetInput persists one slot and returns the validation warnings of the
// whole registry. Warnings never block the change.
func (t *Tab) SetInput(slot, path string) ([]inputs.Warning, error) {
	if err := t.checkEnabled(); err != nil {
		return nil, err
	}
	reg, err := t.inputs.Set(t.variant, slot, path)
	if err != nil {
		return nil, err
	}
	return inputs.Validate(t.variant, reg), nil
}

// Zones reads the shared selection file.
func (t *Tab) Zones() ([]selection.Entry, error) {
	return t.sel.Read()
}

// SetZones writes the shared selection file.
func (t *Tab) SetZones(entries []selection.Entry) error {
	if err := t.checkEnabled(); err != nil {
		return err
	}
	if err := t.sel.Write(entries); err != nil {
		return err
	}
	if len(selection.Enabled(entries)) == 0 {
		t.sink.Append("Advertencia: ninguna zona habilitada, los pasos no procesarán datos")
	}
	return nil
}
