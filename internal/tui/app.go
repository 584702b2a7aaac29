// SPDX-License-Identifier: AGPL-3.0-or-later
package tui

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bartekus/geovalida/internal/palette"
	"github.com/bartekus/geovalida/internal/pipeline"
	"github.com/bartekus/geovalida/internal/tab"
	"github.com/bartekus/geovalida/internal/workspace"
)

const (
	stepColumn = 44
	chrome     = 6
)

type changedMsg struct{}

type planMsg struct {
	view *tabView
	plan tab.Plan
}

type executeMsg struct {
	view      *tabView
	plan      tab.Plan
	confirmed bool
}

type modalMsg struct{ m modal }

func emit(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}

type tabView struct {
	tab     *tab.Tab
	console viewport.Model
	seen    int
}

// App is the root bubbletea model.
type App struct {
	views   []*tabView
	active  int
	modal   modal
	notify  chan struct{}
	width   int
	height  int
	project string
}

// New builds the shell over the tabs; project labels the header.
func New(project string, tabs ...*tab.Tab) *App {
	a := &App{notify: make(chan struct{}, 1), project: project}
	for _, t := range tabs {
		t.OnChange(a.poke)
		a.views = append(a.views, &tabView{tab: t, console: viewport.New(80, 20)})
	}
	for i, v := range a.views {
		if v.tab.Enabled() {
			a.active = i
			break
		}
	}
	return a
}

// poke never blocks: tab callbacks run on driver goroutines.
func (a *App) poke() {
	select {
	case a.notify <- struct{}{}:
	default:
	}
}

func (a *App) listen() tea.Cmd {
	return func() tea.Msg {
		<-a.notify
		return changedMsg{}
	}
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	a.refresh()
	return a.listen()
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		for _, v := range a.views {
			v.console.Width = max(msg.Width-stepColumn-4, 20)
			v.console.Height = max(msg.Height-chrome, 5)
		}
		a.refresh()
		return a, nil
	case changedMsg:
		a.refresh()
		if a.modal == nil {
			for _, v := range a.views {
				if text := v.tab.TakeAlert(); text != "" {
					a.modal = &notice{title: "Archivo en uso", body: text}
					break
				}
			}
		}
		return a, a.listen()
	case modalMsg:
		a.modal = msg.m
		return a, nil
	case planMsg:
		return a, a.onPlan(msg.view, msg.plan)
	case executeMsg:
		a.execute(msg.view, msg.plan, msg.confirmed)
		return a, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, a.quit()
		}
		if a.modal != nil {
			var cmd tea.Cmd
			a.modal, cmd = a.modal.Update(msg)
			return a, cmd
		}
		return a, a.onKey(msg)
	}
	return a, nil
}

func (a *App) current() *tabView { return a.views[a.active] }

func (a *App) onKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q":
		return a.quit()
	case "tab", "right", "l":
		a.active = (a.active + 1) % len(a.views)
		return nil
	case "shift+tab", "left", "h":
		a.active = (a.active + len(a.views) - 1) % len(a.views)
		return nil
	}

	v := a.current()
	if !v.tab.Enabled() {
		return nil
	}
	switch msg.String() {
	case "r":
		p, err := v.tab.PlanAll()
		if err != nil {
			v.tab.Sink().Appendf("Error: %v", err)
			return nil
		}
		return a.onPlan(v, p)
	case "s":
		a.modal = newSelector(v)
	case "x":
		v.tab.Stop()
	case "c":
		v.tab.ClearLog()
		v.seen = 0
	case "i":
		m, err := newInputs(v.tab)
		if err != nil {
			v.tab.Sink().Appendf("Error: %v", err)
			return nil
		}
		a.modal = m
	case "z":
		m, err := newZones(v.tab)
		if err != nil {
			v.tab.Sink().Appendf("Error: %v", err)
			return nil
		}
		a.modal = m
	default:
		var cmd tea.Cmd
		v.console, cmd = v.console.Update(msg)
		return cmd
	}
	return nil
}

func (a *App) onPlan(v *tabView, p tab.Plan) tea.Cmd {
	if !p.Confirm {
		a.execute(v, p, true)
		return nil
	}
	a.modal = &confirm{
		prompt: v.tab.ConfirmPrompt(),
		yes:    emit(executeMsg{view: v, plan: p, confirmed: true}),
		no:     emit(executeMsg{view: v, plan: p}),
	}
	return nil
}

func (a *App) execute(v *tabView, p tab.Plan, confirmed bool) {
	_, err := v.tab.Execute(p, confirmed)
	var held *workspace.HeldError
	switch {
	case errors.As(err, &held):
		a.modal = &notice{title: "Archivo en uso", body: held.Error()}
	case err != nil:
		v.tab.Sink().Appendf("Error: %v", err)
	}
	a.refresh()
}

// quit stops every running tab before leaving.
func (a *App) quit() tea.Cmd {
	for _, v := range a.views {
		if v.tab.State() == pipeline.Running {
			slog.Info("stopping on exit", "model", v.tab.Variant())
			v.tab.Stop()
		}
	}
	return tea.Quit
}

// refresh re-renders every console from its sink.
func (a *App) refresh() {
	for _, v := range a.views {
		records := v.tab.Sink().Records()
		if len(records) == v.seen && v.seen > 0 {
			continue
		}
		lines := make([]string, len(records))
		for i, r := range records {
			lines[i] = renderRecord(r, !v.tab.Enabled())
		}
		v.console.SetContent(strings.Join(lines, "\n"))
		v.console.GotoBottom()
		v.seen = len(records)
	}
}

// View implements tea.Model.
func (a *App) View() string {
	if a.modal != nil {
		box := modalBox.Render(a.modal.View())
		if a.width == 0 {
			return box
		}
		return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, box)
	}

	v := a.current()
	dim := !v.tab.Enabled()
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		panel.Width(stepColumn).Render(a.stepsView(v, dim)),
		panel.Render(v.console.View()),
	)
	help := "r ejecutar todo · s seleccionar · x detener · c limpiar · i insumos · z zonas · ←/→ pestaña · q salir"
	if dim {
		help = "pestaña deshabilitada · ←/→ pestaña · q salir"
	}
	return lipgloss.JoinVertical(lipgloss.Left, a.tabsView(), body, helpStyle.Render(help))
}

func (a *App) tabsView() string {
	var cells []string
	for i, v := range a.views {
		label := fg(palette.White, !v.tab.Enabled()).Render(v.tab.Variant().Title())
		if i == a.active {
			cells = append(cells, activeTab.Render(label))
		} else {
			cells = append(cells, idleTab.Render(label))
		}
	}
	row := lipgloss.JoinHorizontal(lipgloss.Bottom, cells...)
	if a.project != "" {
		row = lipgloss.JoinHorizontal(lipgloss.Bottom, row, helpStyle.Render("  "+a.project))
	}
	return row
}

func (a *App) stepsView(v *tabView, dim bool) string {
	ind := v.tab.Indicators()
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", fg(stateColor(v.tab.State()), dim).Render(v.tab.State().String()))
	for i, s := range v.tab.Pipeline().Steps() {
		line := fmt.Sprintf("%s %2d. %s", indicator(ind[i], dim), s.Index, s.Name)
		if s.Manual {
			line += warnStyle.Render(" (manual)")
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}
