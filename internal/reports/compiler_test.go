// SPDX-License-Identifier: AGPL-3.0-or-later
package reports

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bartekus/geovalida/internal/model"
	"github.com/bartekus/geovalida/internal/scratchdb"
	"github.com/bartekus/geovalida/internal/selection"
	"github.com/bartekus/geovalida/internal/workspace"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestFilterNames(t *testing.T) {
	got := FilterNames([]string{
		"informe.docx", "~$informe.docx", "tabla.XLSX", "notas.txt",
		"capa.shp", "resumen.html", "mapa.pdf",
	}, DocumentFilter())
	assert.Equal(t, []string{"informe.docx", "mapa.pdf", "notas.txt", "resumen.html", "tabla.XLSX"}, got)
}

func TestCompile_MirrorsLayout(t *testing.T) {
	ws := workspace.New(t.TempDir())
	v := model.LADM1_2
	dir := v.Dir()

	writeFile(t, ws.Path(dir, "modelo.gpkg"), "gpkg")
	writeFile(t, ws.Path(dir, "Consolidado.gdb", "a00000001.gdbtable"), "gdb")
	writeFile(t, ws.Path(dir, workspace.GPKGOriginal, "original.gpkg"), "orig")
	writeFile(t, ws.Path(dir, workspace.Topologia, "Reporte_Topologia_Urbano.xlsx"), "x")
	writeFile(t, ws.Path(dir, workspace.InconsistenciasFormat, "URBANO_CTM12", "R1.shp"), "shp")
	writeFile(t, ws.Path(dir, "informe.docx"), "doc")
	writeFile(t, ws.Path(dir, "~$informe.docx"), "lock")

	db, err := scratchdb.Open(ws.DBPath(dir, workspace.RegistroErroresUrbanoDB))
	require.NoError(t, err)
	_, err = db.InsertErrors([]scratchdb.ErrorRecord{{Zone: "URBANO_CTM12", Rule: "duplicados", Object: "U1"}})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// A stale report from an earlier run disappears.
	writeFile(t, filepath.Join(ws.ReportsDir(dir), "viejo.txt"), "old")

	var out bytes.Buffer
	c := New(ws, v, &out)
	res, err := c.Compile([]selection.Zone{selection.UrbanoCTM12})
	require.NoError(t, err)

	dest := ws.ReportsDir(dir)
	assert.Equal(t, dest, res.Dest)
	assert.FileExists(t, filepath.Join(dest, "01_GDB", "modelo.gpkg"))
	assert.FileExists(t, filepath.Join(dest, "01_GDB", "Consolidado.gdb", "a00000001.gdbtable"))
	assert.FileExists(t, filepath.Join(dest, "00_INSUMOS", "original.gpkg"))
	assert.FileExists(t, filepath.Join(dest, "02_TOPOLOGIA", "Reporte_Topologia_Urbano.xlsx"))
	assert.DirExists(t, filepath.Join(dest, "03_INCONSISTENCIAS", "CONSISTENCIA_FORMATO", "URBANO_CTM12"))
	assert.FileExists(t, filepath.Join(dest, "db", workspace.RegistroErroresUrbanoDB))
	assert.FileExists(t, filepath.Join(dest, "informe.docx"))
	assert.NoFileExists(t, filepath.Join(dest, "~$informe.docx"))
	assert.NoFileExists(t, filepath.Join(dest, "viejo.txt"))

	assert.ElementsMatch(t, []string{workspace.ValidacionesCalidad, workspace.OmisionComision}, res.Warnings)
	assert.Contains(t, out.String(), "Copiado GPKG_ORIGINAL -> 00_INSUMOS")
	assert.Contains(t, out.String(), "Advertencia: Omision_comision_temp no existe")

	summary, err := os.ReadFile(filepath.Join(dest, SummaryFile))
	require.NoError(t, err)
	assert.Contains(t, string(summary), "# Reporte LADM 1.2")
	assert.Contains(t, string(summary), "| duplicados | 1 |")
}

func TestCompile_NoZonesLeavesEmptyTree(t *testing.T) {
	ws := workspace.New(t.TempDir())
	c := New(ws, model.IGAC, nil)

	res, err := c.Compile(nil)
	require.NoError(t, err)
	assert.Empty(t, res.Copied)

	entries, err := os.ReadDir(ws.ReportsDir(model.IGAC.Dir()))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCompile_HeldDestinationIsFatal(t *testing.T) {
	ws := workspace.New(t.TempDir())
	writeFile(t, ws.Path(model.IGAC.Dir(), "a.gdb", "x"), "x")
	held := filepath.Join(ws.ReportsDir(model.IGAC.Dir()), "02_TOPOLOGIA", "abierto.xlsx")
	writeFile(t, held, "x")

	var out bytes.Buffer
	c := New(ws, model.IGAC, &out)
	c.remove = func(string) error {
		return &workspace.HeldError{Path: held, Process: "EXCEL.EXE", Err: os.ErrPermission}
	}

	_, err := c.Compile([]selection.Zone{selection.Urbano})
	var he *workspace.HeldError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, "EXCEL.EXE", he.Process)
	assert.Contains(t, out.String(), "EXCEL.EXE")
	assert.NoDirExists(t, filepath.Join(ws.ReportsDir(model.IGAC.Dir()), "01_GDB"))
}
