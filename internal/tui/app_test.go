// SPDX-License-Identifier: AGPL-3.0-or-later
package tui

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bartekus/geovalida/internal/depgate"
	"github.com/bartekus/geovalida/internal/model"
	"github.com/bartekus/geovalida/internal/pipeline"
	"github.com/bartekus/geovalida/internal/runner"
	"github.com/bartekus/geovalida/internal/selection"
	"github.com/bartekus/geovalida/internal/tab"
	"github.com/bartekus/geovalida/internal/workspace"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(a *App, keys ...string) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		_, cmd = a.Update(key(k))
	}
	return cmd
}

func newApp(t *testing.T) (*App, string) {
	t.Helper()
	root := t.TempDir()
	igac := tab.New(tab.Options{Variant: model.IGAC, Root: root})
	ladm := tab.New(tab.Options{Variant: model.LADM1_2, Root: root, Enabled: true})
	return New(root, igac, ladm), root
}

func TestNew_ActivatesFirstEnabledTab(t *testing.T) {
	a, _ := newApp(t)
	assert.Equal(t, model.LADM1_2, a.current().tab.Variant())
}

func TestDisabledTabIgnoresInput(t *testing.T) {
	a, _ := newApp(t)
	press(a, "left")
	require.Equal(t, model.IGAC, a.current().tab.Variant())

	press(a, "z")
	assert.Nil(t, a.modal)
	press(a, "s")
	assert.Nil(t, a.modal)
	assert.Contains(t, a.View(), "deshabilitada")
}

func TestSelector_KeepsPipelineOrder(t *testing.T) {
	a, _ := newApp(t)
	press(a, "s")
	sel, ok := a.modal.(*selector)
	require.True(t, ok)

	press(a, "down", "down", "down", "down", " ", "up", "up", "up", " ")
	assert.Equal(t, []int{2, 5}, sel.Chosen())

	press(a, "esc")
	assert.Nil(t, a.modal)
}

func TestZonesDialog_WritesThrough(t *testing.T) {
	a, root := newApp(t)
	press(a, "z")
	require.IsType(t, &zones{}, a.modal)

	// Default selection enables the first zone; toggling disables it.
	press(a, " ")
	enabled, err := selection.NewStore(root).EnabledZones()
	require.NoError(t, err)
	assert.Equal(t, []selection.Zone{selection.RuralCTM12}, enabled)

	press(a, "enter")
	assert.Nil(t, a.modal)
}

func TestInputsDialog_PersistsEveryChange(t *testing.T) {
	a, root := newApp(t)
	press(a, "i")
	d, ok := a.modal.(*inputsDialog)
	require.True(t, ok)

	press(a, "a", ".", "t", "x", "t")
	reg, err := a.current().tab.Inputs()
	require.NoError(t, err)
	assert.Equal(t, "a.txt", reg["gpkg_original"])
	assert.NotEmpty(t, d.warnings)
	assert.FileExists(t, filepath.Join(workspace.New(root).RegistryDir(), model.LADM1_2.RegistryFile()))
}

func TestRunAll_DeclineLeavesScratch(t *testing.T) {
	a, root := newApp(t)
	marker := workspace.New(root).Path(model.LADM1_2.Dir(), "keep.txt")
	require.NoError(t, os.MkdirAll(filepath.Dir(marker), 0o755))
	require.NoError(t, os.WriteFile(marker, []byte("x"), 0o644))

	press(a, "r")
	c, ok := a.modal.(*confirm)
	require.True(t, ok)
	assert.Contains(t, c.View(), model.LADM1_2.Dir())

	cmd := press(a, "n")
	require.NotNil(t, cmd)
	a.Update(cmd())

	assert.Nil(t, a.modal)
	assert.FileExists(t, marker)
	assert.Equal(t, pipeline.Idle, a.current().tab.State())
	for _, s := range a.current().tab.Indicators() {
		assert.Equal(t, runner.Pending, s)
	}
}

func TestView_RendersStepsAndTabs(t *testing.T) {
	a, _ := newApp(t)
	a.Update(tea.WindowSizeMsg{Width: 160, Height: 40})
	out := a.View()
	assert.Contains(t, out, model.IGAC.Title())
	assert.Contains(t, out, model.LADM1_2.Title())
	assert.Contains(t, out, "Reporte de topología")
	assert.Equal(t, model.PipelineOf(model.LADM1_2).Len(), strings.Count(out, Dot))
}

func TestConsoleFollowsSink(t *testing.T) {
	a, _ := newApp(t)
	a.Init()
	a.current().tab.Sink().Append("Todos los procesos han finalizado")
	a.Update(changedMsg{})
	assert.Contains(t, a.current().console.View(), "Todos los procesos han finalizado")
}

func TestInstaller_ReportsOutcome(t *testing.T) {
	m := NewInstaller(nil, []depgate.Problem{{Requirement: depgate.Requirement{Name: "numpy"}}})
	m.Update(installStep{done: 1, total: 1, name: "numpy"})
	_, cmd := m.Update(installDone{})
	require.NotNil(t, cmd)
	assert.NoError(t, m.Result)
	assert.Contains(t, m.View(), "Instalado numpy (1/1)")

	failed := errors.New("pip failed")
	m.Update(installDone{err: failed})
	assert.ErrorIs(t, m.Result, failed)
}
