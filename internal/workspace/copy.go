// SPDX-License-Identifier: AGPL-3.0-or-later
package workspace

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// CopyTree recursively copies src to dst, creating dst as needed. A file src
// is copied as a single file.
func CopyTree(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return CopyFile(src, dst)
	}

	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return CopyFile(path, target)
	})
}

// CopyFile copies one file, truncating any existing target.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm()|0o200)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copying %s: %w", src, err)
	}
	return out.Close()
}

// Glob matches pattern directly beneath the scratch tree. A pattern may hold
// alternatives separated by '|', e.g. Containers.
func (w *Workspace) Glob(modelDir, pattern string) ([]string, error) {
	var matches []string
	for _, p := range strings.Split(pattern, "|") {
		m, err := filepath.Glob(w.Path(modelDir, p))
		if err != nil {
			return nil, err
		}
		matches = append(matches, m...)
	}
	return matches, nil
}

// Exists reports whether the layout entry is present in the scratch tree.
func (w *Workspace) Exists(modelDir, entry string) bool {
	m, err := w.Glob(modelDir, entry)
	return err == nil && len(m) > 0
}
