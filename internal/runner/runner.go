// SPDX-License-Identifier: AGPL-3.0-or-later

// Package runner executes one pipeline step in a child process, streaming its
// output line by line and reporting status transitions.
package runner

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"sync"

	"golang.org/x/sync/errgroup"
)

const maxLine = 1 << 20

// Handlers receive runner events. Line is never called after Stop returns.
// Status is called with Running from Start, then exactly once with a
// terminal status from the draining goroutine.
type Handlers struct {
	Status func(index int, status Status, err error)
	Line   func(index int, text string)
}

// Runner owns a single child process.
type Runner struct {
	index int
	spec  Spec
	h     Handlers

	mu      sync.Mutex // guards stopped and serialises line delivery
	stopped bool
	cmd     *exec.Cmd

	done chan struct{}
	err  error
}

// New prepares a runner for the step at index.
func New(index int, spec Spec, h Handlers) *Runner {
	return &Runner{index: index, spec: spec, h: h, done: make(chan struct{})}
}

// Index is the step index the runner executes.
func (r *Runner) Index() int { return r.index }

// Start spawns the child and emits Running. A spawn failure, or a Stop that
// came first, is returned without any status event.
func (r *Runner) Start() error {
	cmd := exec.Command(r.spec.Path, r.spec.Args...)
	cmd.Dir = r.spec.Dir
	cmd.Env = r.spec.Env
	setProcessGroup(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}

	// Holding the lock across the spawn makes a concurrent Stop either
	// prevent the start or see the process it has to kill.
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return ErrCancelled
	}
	if err := cmd.Start(); err != nil {
		r.mu.Unlock()
		return fmt.Errorf("starting %s: %w", r.spec.Path, err)
	}
	r.cmd = cmd
	r.mu.Unlock()

	slog.Info("step spawned", "step", r.index, "pid", cmd.Process.Pid, "path", r.spec.Path)
	r.status(Running, nil)

	go r.wait(cmd, stdout, stderr)
	return nil
}

func (r *Runner) wait(cmd *exec.Cmd, stdout, stderr io.Reader) {
	var g errgroup.Group
	g.Go(func() error { return r.drain(stdout) })
	g.Go(func() error { return r.drain(stderr) })
	drainErr := g.Wait()
	waitErr := cmd.Wait()

	r.mu.Lock()
	stopped := r.stopped
	r.mu.Unlock()

	var err error
	var exitErr *exec.ExitError
	switch {
	case stopped:
		err = ErrCancelled
	case errors.As(waitErr, &exitErr):
		err = &ExitStatus{Code: exitErr.ExitCode()}
	case waitErr != nil:
		err = fmt.Errorf("waiting for step %d: %w", r.index, waitErr)
	}
	r.err = err
	if drainErr != nil {
		// The exit status decides the outcome; lost output is only reported.
		slog.Warn("reading step output", "step", r.index, "error", drainErr)
	}

	if err != nil {
		slog.Warn("step failed", "step", r.index, "error", err)
		r.status(Error, err)
	} else {
		slog.Info("step completed", "step", r.index)
		r.status(Completed, nil)
	}
	close(r.done)
}

// scanLines splits on "\n", "\r\n" and a bare "\r", so progress bars redrawn
// in place arrive as separate lines. A line longer than maxLine is delivered
// in maxLine chunks.
func scanLines(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i], nil
		}
		if i+1 == len(data) && !atEOF && len(data) < maxLine {
			// A "\r" at the buffer end may open a "\r\n".
			return 0, nil, nil
		}
		advance := i + 1
		if advance < len(data) && data[advance] == '\n' {
			advance++
		}
		if i == 0 {
			return advance, nil, nil
		}
		return advance, data[:i], nil
	}
	if len(data) >= maxLine {
		return maxLine, data[:maxLine], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

func (r *Runner) drain(rd io.Reader) error {
	sc := bufio.NewScanner(rd)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine+1)
	sc.Split(scanLines)
	for sc.Scan() {
		r.mu.Lock()
		if !r.stopped && r.h.Line != nil {
			r.h.Line(r.index, sc.Text())
		}
		r.mu.Unlock()
	}
	err := sc.Err()
	if err != nil {
		// Keep the pipe flowing so the child never blocks on a full buffer.
		_, _ = io.Copy(io.Discard, rd)
	}
	return err
}

// Stop marks the runner and kills the child's process tree, then waits for
// the terminal status. It is safe to call more than once.
func (r *Runner) Stop() {
	r.mu.Lock()
	already := r.stopped
	r.stopped = true
	cmd := r.cmd
	r.mu.Unlock()

	if cmd == nil {
		return
	}
	if !already {
		if err := killTree(cmd); err != nil {
			slog.Warn("killing step", "step", r.index, "error", err)
		}
	}
	<-r.done
}

// Wait blocks until the child has exited and returns its outcome.
func (r *Runner) Wait() error {
	<-r.done
	return r.err
}

func (r *Runner) status(s Status, err error) {
	if r.h.Status != nil {
		r.h.Status(r.index, s, err)
	}
}
