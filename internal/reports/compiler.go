// SPDX-License-Identifier: AGPL-3.0-or-later

// Package reports compiles a model's reports tree from its scratch tree.
//
// The destination Reportes/<MODEL_DIR>/ is deleted and recreated on every
// compilation; a file held by another process aborts the compilation with a
// *workspace.HeldError. Missing source artifacts are warnings.
package reports

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bartekus/geovalida/internal/model"
	"github.com/bartekus/geovalida/internal/selection"
	"github.com/bartekus/geovalida/internal/workspace"
)

// Mirror is one scratch entry copied into the reports tree.
type Mirror struct {
	Src string // layout entry; '|' separates glob alternatives
	Dst string
}

// Mirrors lists the copied artifacts in copy order.
var Mirrors = []Mirror{
	{Src: workspace.Containers, Dst: "01_GDB"},
	{Src: workspace.GPKGOriginal, Dst: "00_INSUMOS"},
	{Src: workspace.Topologia, Dst: workspace.Topologia},
	{Src: workspace.Inconsistencias, Dst: workspace.Inconsistencias},
	{Src: workspace.ValidacionesCalidad, Dst: workspace.ValidacionesCalidad},
	{Src: workspace.OmisionComision, Dst: "04_OMISION_COMISION"},
	{Src: workspace.DB, Dst: workspace.DB},
}

// SummaryFile is written at the root of a non-empty reports tree.
const SummaryFile = "RESUMEN.md"

// Result describes one compilation.
type Result struct {
	Dest     string
	Copied   []string // paths relative to Dest
	Warnings []string
}

// Compiler mirrors one model's artifacts.
type Compiler struct {
	WS      *workspace.Workspace
	Variant model.Variant
	// Out receives one operator line per copy and warning.
	Out io.Writer

	// remove deletes the previous destination; tests swap it.
	remove func(string) error
}

// New creates a compiler writing operator lines to out.
func New(ws *workspace.Workspace, v model.Variant, out io.Writer) *Compiler {
	return &Compiler{WS: ws, Variant: v, Out: out, remove: workspace.RemoveTree}
}

// Reset recreates an empty destination root.
func (c *Compiler) Reset() (string, error) {
	dest := c.WS.ReportsDir(c.Variant.Dir())
	remove := c.remove
	if remove == nil {
		remove = workspace.RemoveTree
	}
	if err := remove(dest); err != nil {
		var held *workspace.HeldError
		if errors.As(err, &held) {
			c.say("Error: no se puede recrear %s: %v", dest, held)
		}
		return "", err
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dest, err)
	}
	return dest, nil
}

// Compile recreates the destination, mirrors every artifact present and
// writes the summary. Zones feed the summary only.
func (c *Compiler) Compile(zones []selection.Zone) (Result, error) {
	dest, err := c.Reset()
	if err != nil {
		return Result{}, err
	}
	res := Result{Dest: dest}
	modelDir := c.Variant.Dir()

	for _, m := range Mirrors {
		srcs, err := c.WS.Glob(modelDir, m.Src)
		if err != nil {
			return res, fmt.Errorf("matching %s: %w", m.Src, err)
		}
		if len(srcs) == 0 {
			res.Warnings = append(res.Warnings, m.Src)
			c.say("Advertencia: %s no existe, se omite", m.Src)
			continue
		}
		for _, src := range srcs {
			rel := m.Dst
			if len(srcs) > 1 || m.Src == workspace.Containers {
				rel = filepath.Join(m.Dst, filepath.Base(src))
			}
			if err := workspace.CopyTree(src, filepath.Join(dest, rel)); err != nil {
				return res, fmt.Errorf("copying %s: %w", src, err)
			}
			res.Copied = append(res.Copied, filepath.ToSlash(rel))
			c.say("Copiado %s -> %s", filepath.Base(src), filepath.ToSlash(rel))
		}
	}

	docs, err := c.documents()
	if err != nil {
		return res, err
	}
	for _, name := range docs {
		if err := workspace.CopyFile(c.WS.Path(modelDir, name), filepath.Join(dest, name)); err != nil {
			return res, fmt.Errorf("copying %s: %w", name, err)
		}
		res.Copied = append(res.Copied, name)
		c.say("Copiado %s", name)
	}

	if err := c.writeSummary(dest, zones, res); err != nil {
		return res, err
	}
	slog.Info("reports compiled", "model", c.Variant, "copied", len(res.Copied), "warnings", len(res.Warnings))
	return res, nil
}

func (c *Compiler) documents() ([]string, error) {
	entries, err := os.ReadDir(c.WS.ScratchDir(c.Variant.Dir()))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing scratch tree: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	return FilterNames(names, DocumentFilter()), nil
}

func (c *Compiler) say(format string, args ...any) {
	if c.Out != nil {
		fmt.Fprintf(c.Out, format+"\n", args...)
	}
}
