// SPDX-License-Identifier: AGPL-3.0-or-later

/*
GeoValidaTool - orchestration harness for cadastral quality-assurance pipelines.
It runs the ordered validation steps of each cadastral model against a shared workspace layout,
streams their output to the operator and compiles the resulting reports.

Copyright (C) 2025  Bartek Kus

This program is free software licensed under the terms of the GNU AGPL v3 or later.

See https://www.gnu.org/licenses/ for license details.

*/

// Package projectroot locates the GeoValidaTool project directory.
//
// A directory is the project root when it carries the structural signature
//
//	Files/Temporary_Files/array_config.txt
//	Scripts/
package projectroot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Environment exported to every child step. EnvRoot lets a step skip the
// walk; EnvModel and EnvScratch pin the model variant and its scratch tree.
// EnvToolbox is the absolute path of the model's geoprocessing toolbox.
const (
	EnvRoot    = "GEOVALIDA_ROOT"
	EnvModel   = "GEOVALIDA_MODEL"
	EnvScratch = "GEOVALIDA_SCRATCH"
	EnvToolbox = "GEOVALIDA_TOOLBOX"
)

const (
	FilesDir     = "Files"
	TempDir      = "Temporary_Files"
	ScriptsDir   = "Scripts"
	ReportsDir   = "Reportes"
	SelectionTxt = "array_config.txt"
)

// ErrNotFound is returned when no ancestor carries the project signature.
var ErrNotFound = errors.New("project root not found")

// Find walks upward from start until it reaches a directory holding the
// project signature.
func Find(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", start, err)
	}
	// A file path is a valid starting point too.
	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}

	for {
		if IsRoot(dir) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w (searched upward from %s)", ErrNotFound, start)
		}
		dir = parent
	}
}

// IsRoot reports whether dir carries the full project signature.
func IsRoot(dir string) bool {
	if !isDir(filepath.Join(dir, FilesDir, TempDir)) {
		return false
	}
	if !isDir(filepath.Join(dir, ScriptsDir)) {
		return false
	}
	info, err := os.Stat(filepath.Join(dir, FilesDir, TempDir, SelectionTxt))
	return err == nil && !info.IsDir()
}

// Resolve is the lookup used by steps. The exported environment variable wins
// when it still points at a valid root; otherwise the working directory and
// then the executable's directory are walked.
func Resolve() (string, error) {
	if env := os.Getenv(EnvRoot); env != "" && IsRoot(env) {
		return filepath.Abs(env)
	}

	var starts []string
	if wd, err := os.Getwd(); err == nil {
		starts = append(starts, wd)
	}
	if exe, err := os.Executable(); err == nil {
		starts = append(starts, filepath.Dir(exe))
	}

	for _, s := range starts {
		if root, err := Find(s); err == nil {
			return root, nil
		}
	}
	return "", ErrNotFound
}

// TempFiles returns <root>/Files/Temporary_Files.
func TempFiles(root string) string {
	return filepath.Join(root, FilesDir, TempDir)
}

// SelectionPath returns the path of the dataset-selection file.
func SelectionPath(root string) string {
	return filepath.Join(TempFiles(root), SelectionTxt)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
