// SPDX-License-Identifier: AGPL-3.0-or-later

// Package pipeline drives one model's steps strictly in order, one child at a
// time, stopping at the first failure.
package pipeline

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/bartekus/geovalida/internal/logsink"
	"github.com/bartekus/geovalida/internal/model"
	"github.com/bartekus/geovalida/internal/runner"
)

// State of the driver.
type State int

const (
	Idle State = iota
	Running
	Aborted
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Aborted:
		return "aborted"
	default:
		return "idle"
	}
}

// StoppedMessage is logged when the operator cancels a run.
const StoppedMessage = "Proceso detenido por el usuario"

// Observer receives everything the driver reports. Calls come from the
// driver's caller and from child draining goroutines, never concurrently for
// the same step.
type Observer interface {
	StepStatus(index int, status runner.Status, err error)
	StepLine(index int, text string)
	// Log carries driver messages such as the final summary.
	Log(text string)
	// Finished is called once per run; err is nil on success.
	Finished(err error)
}

var startRunner = (*runner.Runner).Start

// SpecFunc resolves a step into a child command.
type SpecFunc func(step model.Step) (runner.Spec, error)

// Driver is the Idle/Running/Aborted state machine of a single model.
type Driver struct {
	spec SpecFunc
	obs  Observer

	mu       sync.Mutex
	state    State
	queue    []model.Step
	active   *runner.Runner
	runID    string
	finished bool
	err      error
	done     chan struct{}
}

// New creates an idle driver.
func New(spec SpecFunc, obs Observer) *Driver {
	done := make(chan struct{})
	close(done)
	return &Driver{spec: spec, obs: obs, done: done}
}

// State returns the current state.
func (d *Driver) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// RunID identifies the current or last run.
func (d *Driver) RunID() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.runID
}

// Start installs the queue and runs the first step. It returns false, doing
// nothing, unless the driver is Idle and steps is non-empty.
func (d *Driver) Start(steps []model.Step) bool {
	d.mu.Lock()
	if d.state != Idle || len(steps) == 0 {
		d.mu.Unlock()
		return false
	}
	d.state = Running
	d.queue = append([]model.Step(nil), steps...)
	d.runID = uuid.NewString()
	d.finished = false
	d.err = nil
	d.done = make(chan struct{})
	runID := d.runID
	d.mu.Unlock()

	slog.Info("pipeline started", "run_id", runID, "steps", len(steps))
	d.next()
	return true
}

// next spawns the head of the queue, if the run is still going.
func (d *Driver) next() {
	d.mu.Lock()
	if d.state != Running || len(d.queue) == 0 {
		d.mu.Unlock()
		return
	}
	step := d.queue[0]
	d.queue = d.queue[1:]
	d.mu.Unlock()

	spec, err := d.spec(step)
	if err != nil {
		d.fail(step.Index, errors.Wrapf(err, "resolving step %d", step.Index))
		return
	}

	r := runner.New(step.Index, spec, runner.Handlers{
		Status: d.onStatus,
		Line:   d.obs.StepLine,
	})

	d.mu.Lock()
	if d.state != Running {
		d.mu.Unlock()
		return
	}
	d.active = r
	d.mu.Unlock()

	if err := startRunner(r); err != nil {
		if errors.Is(err, runner.ErrCancelled) {
			// Stopped before the child existed: nothing will report for it.
			d.fail(step.Index, runner.ErrCancelled)
			return
		}
		d.fail(step.Index, errors.Wrapf(err, "spawning step %d", step.Index))
	}
}

func (d *Driver) onStatus(index int, status runner.Status, err error) {
	d.obs.StepStatus(index, status, err)

	switch status {
	case runner.Completed:
		d.mu.Lock()
		d.active = nil
		running := d.state == Running
		more := running && len(d.queue) > 0
		d.mu.Unlock()

		switch {
		case more:
			d.next()
		case running:
			d.finish(nil)
		default:
			// Stopped while the step was exiting.
			d.finish(runner.ErrCancelled)
		}
	case runner.Error:
		d.finish(errors.Wrapf(err, "step %d", index))
	}
}

// fail reports a step that never produced a child.
func (d *Driver) fail(index int, err error) {
	d.obs.StepStatus(index, runner.Error, err)
	d.finish(err)
}

// finish closes the run exactly once, leaving the driver Idle on success and
// Aborted otherwise.
func (d *Driver) finish(err error) {
	d.mu.Lock()
	if d.finished {
		d.mu.Unlock()
		return
	}
	d.finished = true
	d.err = err
	d.queue = nil
	d.active = nil
	if err == nil {
		d.state = Idle
	} else {
		d.state = Aborted
	}
	runID := d.runID
	done := d.done
	d.mu.Unlock()

	switch {
	case err == nil:
		slog.Info("pipeline finished", "run_id", runID)
		d.obs.Log(logsink.FinishedMessage)
	case errors.Is(err, runner.ErrCancelled):
		slog.Info("pipeline stopped", "run_id", runID)
		d.obs.Log(StoppedMessage)
	default:
		slog.Warn("pipeline aborted", "run_id", runID, "error", err)
		d.obs.Log(fmt.Sprintf("Error: %v. Se detiene la ejecución", err))
	}
	d.obs.Finished(err)
	close(done)
}

// Stop cancels the run: the queue is dropped and the in-flight child is
// killed before Stop returns. The cancelled step reports Error and the
// driver ends Aborted. Stop is idempotent and a no-op unless Running.
func (d *Driver) Stop() {
	d.mu.Lock()
	if d.state != Running {
		d.mu.Unlock()
		return
	}
	d.state = Aborted
	d.queue = nil
	r := d.active
	d.mu.Unlock()

	if r != nil {
		// The runner's Error status finishes the run.
		r.Stop()
		return
	}
	d.finish(runner.ErrCancelled)
}

// Reset returns an Aborted driver to Idle.
func (d *Driver) Reset() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != Aborted {
		return false
	}
	d.state = Idle
	return true
}

// Wait blocks until the current run ends and returns its error.
func (d *Driver) Wait() error {
	d.mu.Lock()
	done := d.done
	d.mu.Unlock()
	<-done

	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}
