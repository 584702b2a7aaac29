// SPDX-License-Identifier: AGPL-3.0-or-later
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/bartekus/geovalida/internal/inputs"
	"github.com/bartekus/geovalida/internal/model"
	"github.com/bartekus/geovalida/internal/selection"
	"github.com/bartekus/geovalida/internal/tab"
)

// modal owns the keyboard while open; returning nil closes it.
type modal interface {
	Update(tea.KeyMsg) (modal, tea.Cmd)
	View() string
}

// confirm is a yes/no question.
type confirm struct {
	prompt  string
	yes, no tea.Cmd
}

func (c *confirm) Update(msg tea.KeyMsg) (modal, tea.Cmd) {
	switch msg.String() {
	case "y", "s", "enter":
		return nil, c.yes
	case "n", "esc":
		return nil, c.no
	}
	return c, nil
}

func (c *confirm) View() string {
	return c.prompt + "\n\n" + helpStyle.Render("[s/enter] sí   [n/esc] no")
}

// notice shows a blocking message until dismissed.
type notice struct {
	title, body string
}

func (n *notice) Update(msg tea.KeyMsg) (modal, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc", " ":
		return nil, nil
	}
	return n, nil
}

func (n *notice) View() string {
	return errStyle.Render(n.title) + "\n\n" + n.body + "\n\n" + helpStyle.Render("[enter] aceptar")
}

// checklist is a cursor over toggleable rows.
type checklist struct {
	labels  []string
	checked []bool
	cursor  int
}

func (c *checklist) move(key string) bool {
	switch key {
	case "up", "k":
		if c.cursor > 0 {
			c.cursor--
		}
	case "down", "j":
		if c.cursor < len(c.labels)-1 {
			c.cursor++
		}
	case " ", "x":
		c.checked[c.cursor] = !c.checked[c.cursor]
	default:
		return false
	}
	return true
}

func (c *checklist) view() string {
	var b strings.Builder
	for i, l := range c.labels {
		cur := "  "
		if i == c.cursor {
			cur = "> "
		}
		box := "[ ]"
		if c.checked[i] {
			box = "[x]"
		}
		fmt.Fprintf(&b, "%s%s %s\n", cur, box, l)
	}
	return b.String()
}

// selector picks a subset of steps; the result keeps pipeline order.
type selector struct {
	view  *tabView
	steps []model.Step
	list  checklist
}

func newSelector(v *tabView) *selector {
	steps := v.tab.Pipeline().Steps()
	s := &selector{view: v, steps: steps, list: checklist{checked: make([]bool, len(steps))}}
	for _, st := range steps {
		s.list.labels = append(s.list.labels, fmt.Sprintf("%2d. %s", st.Index, st.Name))
	}
	return s
}

// Chosen returns the checked step indexes.
func (s *selector) Chosen() []int {
	var out []int
	for i, on := range s.list.checked {
		if on {
			out = append(out, s.steps[i].Index)
		}
	}
	return out
}

func (s *selector) Update(msg tea.KeyMsg) (modal, tea.Cmd) {
	if s.list.move(msg.String()) {
		return s, nil
	}
	switch msg.String() {
	case "esc":
		return nil, nil
	case "enter":
		chosen := s.Chosen()
		if len(chosen) == 0 {
			return nil, nil
		}
		p, err := s.view.tab.PlanSelected(chosen)
		if err != nil {
			s.view.tab.Sink().Appendf("Error: %v", err)
			return nil, nil
		}
		if len(p.Warnings) > 0 {
			return &warnings{list: p.Warnings, next: emit(planMsg{view: s.view, plan: p})}, nil
		}
		return nil, emit(planMsg{view: s.view, plan: p})
	}
	return s, nil
}

func (s *selector) View() string {
	return "Seleccionar procesos\n\n" + s.list.view() + "\n" +
		helpStyle.Render("[espacio] marcar   [enter] ejecutar   [esc] cancelar")
}

// warnings lists prerequisite warnings before a selected run proceeds.
type warnings struct {
	list []string
	next tea.Cmd
}

func (w *warnings) Update(msg tea.KeyMsg) (modal, tea.Cmd) {
	switch msg.String() {
	case "enter", "y", "s":
		return nil, w.next
	case "esc", "n":
		return nil, nil
	}
	return w, nil
}

func (w *warnings) View() string {
	var b strings.Builder
	b.WriteString(warnStyle.Render("Advertencias") + "\n\n")
	for _, l := range w.list {
		b.WriteString("- " + l + "\n")
	}
	b.WriteString("\n" + helpStyle.Render("[enter] continuar   [esc] cancelar"))
	return b.String()
}

// zones edits the shared selection file; every toggle is written through.
type zones struct {
	tab  *tab.Tab
	list checklist
	err  error
}

func newZones(t *tab.Tab) (*zones, error) {
	entries, err := t.Zones()
	if err != nil {
		return nil, err
	}
	on := make(map[selection.Zone]bool, len(entries))
	for _, e := range entries {
		on[e.Zone] = e.Enabled
	}
	z := &zones{tab: t}
	for _, zone := range selection.Vocabulary {
		z.list.labels = append(z.list.labels, string(zone))
		z.list.checked = append(z.list.checked, on[zone])
	}
	return z, nil
}

func (z *zones) entries() []selection.Entry {
	out := make([]selection.Entry, len(selection.Vocabulary))
	for i, zone := range selection.Vocabulary {
		out[i] = selection.Entry{Zone: zone, Enabled: z.list.checked[i]}
	}
	return out
}

func (z *zones) Update(msg tea.KeyMsg) (modal, tea.Cmd) {
	key := msg.String()
	if key == "esc" || key == "enter" {
		return nil, nil
	}
	if z.list.move(key) && (key == " " || key == "x") {
		z.err = z.tab.SetZones(z.entries())
	}
	return z, nil
}

func (z *zones) View() string {
	s := "Zonas habilitadas\n\n" + z.list.view()
	if z.err != nil {
		s += "\n" + errStyle.Render(z.err.Error())
	}
	return s + "\n" + helpStyle.Render("[espacio] marcar   [enter/esc] cerrar")
}

// inputsDialog has one field per slot, each persisted on every change.
type inputsDialog struct {
	tab      *tab.Tab
	slots    []model.Slot
	fields   []textinput.Model
	focus    int
	warnings []inputs.Warning
	err      error
}

func newInputs(t *tab.Tab) (*inputsDialog, error) {
	reg, err := t.Inputs()
	if err != nil {
		return nil, err
	}
	d := &inputsDialog{tab: t, slots: t.Slots()}
	for _, s := range d.slots {
		ti := textinput.New()
		ti.Placeholder = "ruta" + s.Ext
		ti.CharLimit = 1024
		ti.Width = 60
		ti.SetValue(reg[s.Name])
		d.fields = append(d.fields, ti)
	}
	if len(d.fields) > 0 {
		d.fields[0].Focus()
	}
	d.warnings = inputs.Validate(t.Variant(), reg)
	return d, nil
}

func (d *inputsDialog) Update(msg tea.KeyMsg) (modal, tea.Cmd) {
	switch msg.String() {
	case "esc", "enter":
		return nil, nil
	case "tab", "down":
		d.shift(1)
		return d, textinput.Blink
	case "shift+tab", "up":
		d.shift(-1)
		return d, textinput.Blink
	}
	before := d.fields[d.focus].Value()
	var cmd tea.Cmd
	d.fields[d.focus], cmd = d.fields[d.focus].Update(msg)
	if after := d.fields[d.focus].Value(); after != before {
		d.warnings, d.err = d.tab.SetInput(d.slots[d.focus].Name, strings.TrimSpace(after))
	}
	return d, cmd
}

func (d *inputsDialog) shift(delta int) {
	d.fields[d.focus].Blur()
	d.focus = (d.focus + delta + len(d.fields)) % len(d.fields)
	d.fields[d.focus].Focus()
}

func (d *inputsDialog) View() string {
	var b strings.Builder
	b.WriteString("Insumos de " + d.tab.Variant().Title() + "\n\n")
	for i, s := range d.slots {
		fmt.Fprintf(&b, "%s\n%s\n\n", s.Label, d.fields[i].View())
	}
	for _, w := range d.warnings {
		b.WriteString(warnStyle.Render("Advertencia: "+w.String()) + "\n")
	}
	if d.err != nil {
		b.WriteString(errStyle.Render(d.err.Error()) + "\n")
	}
	b.WriteString(helpStyle.Render("[tab] siguiente   [enter/esc] cerrar"))
	return b.String()
}
