// SPDX-License-Identifier: AGPL-3.0-or-later
package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// removeAll is swapped in tests to simulate files held by another process.
var removeAll = os.RemoveAll

// HeldError reports a file that could not be deleted because another
// process holds it.
type HeldError struct {
	Path    string
	Process string // empty when the holder cannot be identified
	Err     error
}

func (e *HeldError) Error() string {
	if e.Process == "" {
		return fmt.Sprintf("file in use, close it and retry: %s", e.Path)
	}
	return fmt.Sprintf("file in use by %s, close it and retry: %s", e.Process, e.Path)
}

func (e *HeldError) Unwrap() error { return e.Err }

// EnsureScratch creates the model's scratch root when absent. The interior is
// never touched.
func (w *Workspace) EnsureScratch(modelDir string) (string, error) {
	dir := w.ScratchDir(modelDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating scratch tree %s: %w", dir, err)
	}
	return dir, nil
}

// ScratchEmpty reports whether the scratch tree is absent or has no entries.
func (w *Workspace) ScratchEmpty(modelDir string) (bool, error) {
	entries, err := os.ReadDir(w.ScratchDir(modelDir))
	if errors.Is(err, fs.ErrNotExist) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading scratch tree: %w", err)
	}
	return len(entries) == 0, nil
}

// ResetScratch deletes everything beneath the model's scratch root and leaves
// an empty root behind. It is destructive; callers confirm with the operator
// first. The whole tree is checked for open files before anything is deleted,
// so a held file aborts the reset with a *HeldError and the tree intact. A
// deletion that still fails midway leaves the entries removed so far gone.
func (w *Workspace) ResetScratch(modelDir string) error {
	dir := w.ScratchDir(modelDir)
	entries, err := os.ReadDir(dir)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("reading scratch tree: %w", err)
	}

	if len(entries) > 0 {
		if err := checkHeld(dir); err != nil {
			return err
		}
	}
	for _, e := range entries {
		if err := remove(filepath.Join(dir, e.Name())); err != nil {
			return err
		}
	}

	if _, err := w.EnsureScratch(modelDir); err != nil {
		return err
	}
	slog.Info("scratch tree reset", "model", modelDir, "entries", len(entries))
	return nil
}

// RemoveTree deletes path recursively. A file beneath path held open by
// another process is reported as a *HeldError naming that process, and
// nothing is deleted.
func RemoveTree(path string) error {
	if err := checkHeld(path); err != nil {
		return err
	}
	return remove(path)
}

func checkHeld(path string) error {
	file, proc := holderOf(path)
	if proc == "" {
		return nil
	}
	slog.Warn("delete blocked", "path", file, "process", proc)
	return &HeldError{Path: file, Process: proc, Err: fs.ErrPermission}
}

func remove(path string) error {
	err := removeAll(path)
	if err == nil {
		return nil
	}

	held := &HeldError{Path: path, Err: err}
	var pe *fs.PathError
	if errors.As(err, &pe) && pe.Path != "" {
		held.Path = pe.Path
	}
	_, held.Process = holderOf(held.Path)
	slog.Warn("delete blocked", "path", held.Path, "process", held.Process, "error", err)
	return held
}
