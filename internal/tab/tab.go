// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tab is the controller behind one model tab: run controls, the
// destructive-cleanup gate, the indicator column, the console and the
// configuration dialogs. The TUI renders it; tests drive it directly.
package tab

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bartekus/geovalida/internal/inputs"
	"github.com/bartekus/geovalida/internal/logsink"
	"github.com/bartekus/geovalida/internal/model"
	"github.com/bartekus/geovalida/internal/pipeline"
	"github.com/bartekus/geovalida/internal/runner"
	"github.com/bartekus/geovalida/internal/selection"
	"github.com/bartekus/geovalida/internal/workspace"
)

// ErrDisabled is returned by every action of a disabled tab.
var ErrDisabled = errors.New("tab disabled")

// ErrBusy is returned when a run is already in progress.
var ErrBusy = errors.New("a run is in progress")

// Options configure a tab.
type Options struct {
	Variant     model.Variant
	Root        string
	Interpreter string
	// Self runs built-in steps; empty means this executable.
	Self    string
	Enabled bool
	// Spec overrides step resolution.
	Spec pipeline.SpecFunc
}

// Tab owns one model's driver and console.
type Tab struct {
	variant  model.Variant
	pipeline model.Pipeline
	ws       *workspace.Workspace
	sink     *logsink.Sink
	driver   *pipeline.Driver
	sel      *selection.Store
	inputs   *inputs.Store
	enabled  bool

	mu         sync.Mutex
	indicators []runner.Status
	onChange   func()
	lastError  string
	alert      string
}

// New creates a tab and its idle driver.
func New(opts Options) *Tab {
	ws := workspace.New(opts.Root)
	t := &Tab{
		variant:    opts.Variant,
		pipeline:   model.PipelineOf(opts.Variant),
		ws:         ws,
		sink:       logsink.New(),
		sel:        selection.NewStore(opts.Root),
		inputs:     inputs.NewStore(ws.RegistryDir()),
		enabled:    opts.Enabled,
		indicators: make([]runner.Status, model.PipelineOf(opts.Variant).Len()),
	}
	spec := opts.Spec
	if spec == nil {
		launch := runner.Launch{
			Root:        opts.Root,
			Scratch:     ws.ScratchDir(opts.Variant.Dir()),
			Variant:     opts.Variant,
			Interpreter: opts.Interpreter,
			Self:        opts.Self,
		}
		spec = launch.Spec
	}
	t.driver = pipeline.New(spec, t)
	return t
}

// Variant is the tab's model.
func (t *Tab) Variant() model.Variant { return t.variant }

// Pipeline is the tab's frozen step list.
func (t *Tab) Pipeline() model.Pipeline { return t.pipeline }

// Enabled reports the shell's enable flag.
func (t *Tab) Enabled() bool { return t.enabled }

// Sink is the console model.
func (t *Tab) Sink() *logsink.Sink { return t.sink }

// State is the driver state.
func (t *Tab) State() pipeline.State { return t.driver.State() }

// Wait blocks until the current run ends.
func (t *Tab) Wait() error { return t.driver.Wait() }

// OnChange registers the listener called after indicator, console or run
// state changes. It must not block.
func (t *Tab) OnChange(fn func()) {
	t.mu.Lock()
	t.onChange = fn
	t.mu.Unlock()
	t.sink.OnAppend(func(logsink.Record) { t.changed() })
}

// Indicators returns a copy of the indicator column, one per step.
func (t *Tab) Indicators() []runner.Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]runner.Status(nil), t.indicators...)
}

func (t *Tab) setIndicator(index int, s runner.Status) {
	t.mu.Lock()
	if index >= 1 && index <= len(t.indicators) {
		t.indicators[index-1] = s
	}
	t.mu.Unlock()
	t.changed()
}

func (t *Tab) changed() {
	t.mu.Lock()
	fn := t.onChange
	t.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// StepStatus implements pipeline.Observer.
func (t *Tab) StepStatus(index int, s runner.Status, err error) {
	step, _ := t.pipeline.Step(index)
	switch s {
	case runner.Running:
		if _, lerr := t.sink.BeginStep(t.ws.Path(t.variant.Dir(), workspace.Logs), index, step.Name); lerr != nil {
			slog.Warn("step log unavailable", "step", step.ID(t.variant), "error", lerr)
		}
		t.sink.Appendf("Ejecutando %d. %s (%s)", index, step.Name, step.Target())
	case runner.Completed:
		t.sink.Appendf("Paso %d completado", index)
		t.sink.EndStep()
	case runner.Error:
		slog.Info("step failed", "step", step.ID(t.variant), "run_id", t.driver.RunID(), "error", err)
		t.sink.EndStep()
		var exit *runner.ExitStatus
		if errors.As(err, &exit) && exit.Code == workspace.HeldExitCode {
			t.mu.Lock()
			t.alert = t.lastError
			if t.alert == "" {
				t.alert = fmt.Sprintf("El paso %d no pudo continuar: archivo en uso", index)
			}
			t.mu.Unlock()
		}
	}
	t.setIndicator(index, s)
}

// StepLine implements pipeline.Observer.
func (t *Tab) StepLine(_ int, text string) {
	rec := t.sink.Append(text)
	if rec.Class == logsink.Red {
		t.mu.Lock()
		t.lastError = rec.Text
		t.mu.Unlock()
	}
}

// TakeAlert returns and clears the pending held-file message of the last
// run. The shell shows it as a dialog.
func (t *Tab) TakeAlert() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	a := t.alert
	t.alert = ""
	return a
}

// Log implements pipeline.Observer.
func (t *Tab) Log(text string) { t.sink.Append(text) }

// Finished implements pipeline.Observer.
func (t *Tab) Finished(error) { t.changed() }

// Stop cancels the run.
func (t *Tab) Stop() {
	if !t.enabled {
		return
	}
	t.driver.Stop()
}

// ClearLog empties the console.
func (t *Tab) ClearLog() {
	if !t.enabled {
		return
	}
	t.sink.Clear()
	t.changed()
}

func (t *Tab) checkEnabled() error {
	if !t.enabled {
		return fmt.Errorf("%s: %w", t.variant.Title(), ErrDisabled)
	}
	return nil
}
