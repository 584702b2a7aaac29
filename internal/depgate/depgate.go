// SPDX-License-Identifier: AGPL-3.0-or-later

// Package depgate verifies the interpreter that runs external steps before
// the shell starts, and installs missing packages on request.
package depgate

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"sort"
	"strings"
)

// ErrDependencyMissing is returned when a required package or the
// geoprocessing module is unavailable.
var ErrDependencyMissing = errors.New("dependency missing")

// Executor runs a command and returns its combined output.
type Executor interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecExecutor runs real processes.
type ExecExecutor struct{}

// Run implements Executor.
func (ExecExecutor) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(cmd.Environ(), "PYTHONIOENCODING=utf-8")
	return cmd.CombinedOutput()
}

// Requirement is one entry of the package map; an empty Version accepts any.
type Requirement struct {
	Name    string
	Version string
}

func (r Requirement) spec() string {
	if r.Version == "" {
		return r.Name
	}
	return r.Name + "==" + r.Version
}

// Problem is an unsatisfied requirement.
type Problem struct {
	Requirement
	Installed string // empty when the package is absent
}

func (p Problem) String() string {
	if p.Installed == "" {
		return p.Name + ": no instalado"
	}
	return fmt.Sprintf("%s: versión %s, se requiere %s", p.Name, p.Installed, p.Version)
}

// Gate checks one interpreter against a package map.
type Gate struct {
	Interpreter  string
	Requirements []Requirement
	// Module is the geoprocessing module probed for importability; it is
	// never installed. Empty skips the probe.
	Module string
	Exec   Executor
}

// New builds a gate from a name→version map, sorted by name.
func New(interpreter, module string, packages map[string]string, ex Executor) *Gate {
	if ex == nil {
		ex = ExecExecutor{}
	}
	reqs := make([]Requirement, 0, len(packages))
	for name, v := range packages {
		reqs = append(reqs, Requirement{Name: name, Version: strings.TrimSpace(v)})
	}
	sort.Slice(reqs, func(i, j int) bool { return reqs[i].Name < reqs[j].Name })
	return &Gate{Interpreter: interpreter, Module: module, Requirements: reqs, Exec: ex}
}

// Check returns the requirements the interpreter does not satisfy.
func (g *Gate) Check(ctx context.Context) ([]Problem, error) {
	var problems []Problem
	for _, r := range g.Requirements {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		installed, err := g.installedVersion(ctx, r.Name)
		if err != nil {
			return nil, err
		}
		if installed == "" || (r.Version != "" && installed != r.Version) {
			problems = append(problems, Problem{Requirement: r, Installed: installed})
		}
	}
	slog.Info("dependency check", "interpreter", g.Interpreter, "problems", len(problems))
	return problems, nil
}

func (g *Gate) installedVersion(ctx context.Context, name string) (string, error) {
	out, err := g.Exec.Run(ctx, g.Interpreter, "-m", "pip", "show", name)
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: running %s: %v", ErrDependencyMissing, g.Interpreter, err)
	}
	return parseVersion(out), nil
}

func parseVersion(out []byte) string {
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		if v, ok := strings.CutPrefix(sc.Text(), "Version:"); ok {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// Progress reports one finished installation; done counts from 1.
type Progress func(done, total int, name string, err error)

// Install runs pip install for every problem, reporting progress, and
// returns the first failure wrapped in ErrDependencyMissing after trying all.
func (g *Gate) Install(ctx context.Context, problems []Problem, progress Progress) error {
	var failed []string
	for i, p := range problems {
		out, err := g.Exec.Run(ctx, g.Interpreter, "-m", "pip", "install", p.spec())
		if err != nil {
			err = fmt.Errorf("pip install %s: %w: %s", p.spec(), err, lastLine(out))
			failed = append(failed, p.Name)
			slog.Error("install failed", "package", p.Name, "error", err)
		} else {
			slog.Info("installed", "package", p.spec())
		}
		if progress != nil {
			progress(i+1, len(problems), p.Name, err)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("%w: %s", ErrDependencyMissing, strings.Join(failed, ", "))
	}
	return nil
}

// Probe checks that the geoprocessing module imports.
func (g *Gate) Probe(ctx context.Context) error {
	if g.Module == "" {
		return nil
	}
	out, err := g.Exec.Run(ctx, g.Interpreter, "-c", "import "+g.Module)
	if err != nil {
		return fmt.Errorf("%w: %s no se puede importar: %s", ErrDependencyMissing, g.Module, lastLine(out))
	}
	return nil
}

func lastLine(out []byte) string {
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
