// SPDX-License-Identifier: AGPL-3.0-or-later
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/bartekus/geovalida/internal/depgate"
	"github.com/bartekus/geovalida/internal/palette"
)

type installStep struct {
	done, total int
	name        string
	err         error
}

type installDone struct{ err error }

// Installer is the modal that installs missing packages before the shell
// opens. Result holds the outcome once the program exits.
type Installer struct {
	gate     *depgate.Gate
	problems []depgate.Problem
	events   chan tea.Msg
	bar      progress.Model
	lines    []string
	finished bool
	Result   error
}

// NewInstaller prepares an installer for the problems found by Check.
func NewInstaller(gate *depgate.Gate, problems []depgate.Problem) *Installer {
	return &Installer{
		gate:     gate,
		problems: problems,
		events:   make(chan tea.Msg, len(problems)+1),
		bar:      progress.New(progress.WithSolidFill(palette.Hex(palette.Green)), progress.WithWidth(50)),
	}
}

// Init starts the installation in the background.
func (m *Installer) Init() tea.Cmd {
	go func() {
		err := m.gate.Install(context.Background(), m.problems, func(done, total int, name string, err error) {
			m.events <- installStep{done: done, total: total, name: name, err: err}
		})
		m.events <- installDone{err: err}
	}()
	return m.next()
}

func (m *Installer) next() tea.Cmd {
	return func() tea.Msg { return <-m.events }
}

// Update implements tea.Model.
func (m *Installer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case installStep:
		line := fmt.Sprintf("Instalado %s (%d/%d)", msg.name, msg.done, msg.total)
		if msg.err != nil {
			line = errStyle.Render(fmt.Sprintf("Error instalando %s: %v", msg.name, msg.err))
		}
		m.lines = append(m.lines, line)
		return m, tea.Batch(m.bar.SetPercent(float64(msg.done)/float64(msg.total)), m.next())
	case installDone:
		m.finished = true
		m.Result = msg.err
		return m, tea.Quit
	case progress.FrameMsg:
		bar, cmd := m.bar.Update(msg)
		m.bar = bar.(progress.Model)
		return m, cmd
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.Result = fmt.Errorf("%w: instalación interrumpida", depgate.ErrDependencyMissing)
			return m, tea.Quit
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Installer) View() string {
	var b strings.Builder
	b.WriteString("Instalando dependencias\n\n")
	for _, p := range m.problems {
		b.WriteString("- " + p.String() + "\n")
	}
	b.WriteString("\n" + m.bar.View() + "\n\n")
	b.WriteString(strings.Join(m.lines, "\n"))
	return modalBox.Render(b.String()) + "\n"
}

// RunInstaller shows the installer and returns its outcome.
func RunInstaller(gate *depgate.Gate, problems []depgate.Problem) error {
	m := NewInstaller(gate, problems)
	if _, err := tea.NewProgram(m).Run(); err != nil {
		return err
	}
	return m.Result
}

// Run opens the shell and blocks until the operator quits.
func Run(app *App) error {
	_, err := tea.NewProgram(app, tea.WithAltScreen()).Run()
	return err
}
