// SPDX-License-Identifier: AGPL-3.0-or-later
package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const modelDir = "MODELO_LADM_1_2"

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestEnsureScratch_DoesNotTouchInterior(t *testing.T) {
	w := New(t.TempDir())
	writeFile(t, w.Path(modelDir, Topologia, "a.xlsx"), "x")

	dir, err := w.EnsureScratch(modelDir)
	require.NoError(t, err)
	assert.Equal(t, w.ScratchDir(modelDir), dir)
	assert.FileExists(t, w.Path(modelDir, Topologia, "a.xlsx"))
}

func TestScratchEmpty(t *testing.T) {
	w := New(t.TempDir())

	empty, err := w.ScratchEmpty(modelDir)
	require.NoError(t, err)
	assert.True(t, empty, "missing tree counts as empty")

	_, err = w.EnsureScratch(modelDir)
	require.NoError(t, err)
	empty, err = w.ScratchEmpty(modelDir)
	require.NoError(t, err)
	assert.True(t, empty)

	writeFile(t, w.Path(modelDir, "modelo.gpkg"), "x")
	empty, err = w.ScratchEmpty(modelDir)
	require.NoError(t, err)
	assert.False(t, empty)
}

func TestResetScratch(t *testing.T) {
	w := New(t.TempDir())
	writeFile(t, w.Path(modelDir, "modelo.gpkg"), "x")
	writeFile(t, w.Path(modelDir, DB, RegistroErroresDB), "x")
	writeFile(t, w.Path(modelDir, InconsistenciasFormat, "URBANO_CTM12", "r.shp"), "x")
	other := w.Path("MODELO_IGAC", "keep.gdb")
	writeFile(t, other, "x")

	require.NoError(t, w.ResetScratch(modelDir))

	entries, err := os.ReadDir(w.ScratchDir(modelDir))
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.FileExists(t, other, "other models are untouched")
}

func TestResetScratch_HeldFile(t *testing.T) {
	w := New(t.TempDir())
	held := w.Path(modelDir, "modelo.gpkg")
	writeFile(t, held, "x")

	removeAll = func(path string) error {
		return &fs.PathError{Op: "unlinkat", Path: path, Err: errors.New("being used by another process")}
	}
	t.Cleanup(func() { removeAll = os.RemoveAll })

	err := w.ResetScratch(modelDir)
	require.Error(t, err)

	var he *HeldError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, held, he.Path)
	assert.FileExists(t, held)
}

func TestResetScratch_HeldLaterEntryKeepsTree(t *testing.T) {
	w := New(t.TempDir())
	first := w.Path(modelDir, DB, RegistroErroresDB)
	later := w.Path(modelDir, "zz_reporte.xlsx")
	writeFile(t, first, "x")
	writeFile(t, later, "x")

	holderOf = func(path string) (string, string) {
		if path == w.ScratchDir(modelDir) {
			return later, "EXCEL.EXE (pid 42)"
		}
		return "", ""
	}
	t.Cleanup(func() { holderOf = findHolder })

	err := w.ResetScratch(modelDir)
	var he *HeldError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, later, he.Path)
	assert.Equal(t, "EXCEL.EXE (pid 42)", he.Process)
	assert.FileExists(t, first, "no entry is deleted when any is held")
	assert.FileExists(t, later)
}

func TestRemoveTree_NamesHoldingProcess(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("holds the file through a shell redirection")
	}
	dir := filepath.Join(t.TempDir(), "03_INCONSISTENCIAS")
	held := filepath.Join(dir, "R101.dbf")
	writeFile(t, held, "x")

	cmd := exec.Command("sh", "-c", `exec sleep 30 3<"$0"`, held)
	require.NoError(t, cmd.Start())
	t.Cleanup(func() {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
	})

	want := fmt.Sprintf("sleep (pid %d)", cmd.Process.Pid)
	require.Eventually(t, func() bool {
		_, proc := findHolder(dir)
		return strings.HasPrefix(proc, "sleep")
	}, 10*time.Second, 50*time.Millisecond)

	err := RemoveTree(dir)
	var he *HeldError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, want, he.Process)
	assert.True(t, strings.HasSuffix(he.Path, "R101.dbf"), he.Path)
	assert.Contains(t, he.Error(), want)
	assert.FileExists(t, held)

	require.NoError(t, cmd.Process.Kill())
	_ = cmd.Wait()
	require.NoError(t, RemoveTree(dir))
	assert.NoDirExists(t, dir)
}

func TestCopyTree(t *testing.T) {
	src := t.TempDir()
	writeFile(t, filepath.Join(src, "a", "b.txt"), "hello")
	writeFile(t, filepath.Join(src, "c.txt"), "world")

	dst := filepath.Join(t.TempDir(), "out")
	require.NoError(t, CopyTree(src, dst))

	got, err := os.ReadFile(filepath.Join(dst, "a", "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))
	assert.FileExists(t, filepath.Join(dst, "c.txt"))
}

func TestCopyFile_Truncates(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	writeFile(t, dst, "a much longer previous content")
	writeFile(t, src, "short")

	require.NoError(t, CopyFile(src, dst))
	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "short", string(got))
}

func TestGlob_Alternatives(t *testing.T) {
	w := New(t.TempDir())
	require.NoError(t, os.MkdirAll(w.Path(modelDir, "base.gdb"), 0o755))
	writeFile(t, w.Path(modelDir, "modelo.gpkg"), "x")

	matches, err := w.Glob(modelDir, Containers)
	require.NoError(t, err)
	assert.Len(t, matches, 2)
	assert.True(t, w.Exists(modelDir, Containers))
	assert.False(t, w.Exists(modelDir, Topologia))
}
