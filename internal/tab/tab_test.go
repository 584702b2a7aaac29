// SPDX-License-Identifier: AGPL-3.0-or-later
package tab

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bartekus/geovalida/internal/inputs"
	"github.com/bartekus/geovalida/internal/logsink"
	"github.com/bartekus/geovalida/internal/model"
	"github.com/bartekus/geovalida/internal/pipeline"
	"github.com/bartekus/geovalida/internal/projectroot"
	"github.com/bartekus/geovalida/internal/runner"
	"github.com/bartekus/geovalida/internal/scratchdb"
	"github.com/bartekus/geovalida/internal/selection"
	"github.com/bartekus/geovalida/internal/steps"
	"github.com/bartekus/geovalida/internal/workspace"
)

const (
	helperEnv = "GEOVALIDA_TAB_HELPER"
	failEnv   = "GEOVALIDA_TAB_FAIL"
	hangEnv   = "GEOVALIDA_TAB_HANG"
	heldEnv   = "GEOVALIDA_TAB_HELD"
)

// TestMain doubles as the interpreter and the built-in executor: the tab
// spawns this binary for every step.
func TestMain(m *testing.M) {
	if os.Getenv(helperEnv) == "" {
		os.Exit(m.Run())
	}
	os.Exit(helper(os.Args[1:]))
}

func helper(args []string) int {
	root := os.Getenv(projectroot.EnvRoot)
	v, err := model.Parse(os.Getenv(projectroot.EnvModel))
	if err != nil {
		fmt.Println("Error:", err)
		return 2
	}
	if len(args) >= 2 && args[0] == "step" {
		if args[1] == os.Getenv(heldEnv) {
			fmt.Println("Error: no se puede recrear Reportes: file in use by EXCEL.EXE, close it and retry: Reportes/RESUMEN.xlsx")
			return workspace.HeldExitCode
		}
		if err := steps.Run(context.Background(), args[1], steps.NewEnv(root, v, os.Stdout)); err != nil {
			return 1
		}
		return 0
	}
	if len(args) != 1 {
		return 2
	}
	return fakeScript(filepath.Base(args[0]), os.Getenv(projectroot.EnvScratch))
}

// fakeScript writes what the external scripts of the package models produce.
func fakeScript(name, scratch string) int {
	fmt.Printf("Iniciando %s\n", name)
	if name == os.Getenv(failEnv) {
		fmt.Println("ERROR al procesar la capa")
		return 1
	}
	if name == os.Getenv(hangEnv) {
		fmt.Println("ready")
		time.Sleep(time.Minute)
		return 0
	}
	var err error
	switch name {
	case "03_validar_topologia.py":
		err = put(filepath.Join(scratch, workspace.Topologia, "Reporte_Topologia_Urbano.xlsx"), []byte("xlsx"))
	case "05_validaciones_calidad.py":
		err = putShape(filepath.Join(scratch, workspace.ValidacionesCalidad, "URBANO_CTM12", "R101"), "predios", 3)
		if err == nil {
			err = putErrors(filepath.Join(scratch, workspace.DB, workspace.RegistroErroresUrbanoDB))
		}
	}
	if err != nil {
		fmt.Println("Error:", err)
		return 1
	}
	fmt.Printf("%s completado\n", name)
	return 0
}

func putErrors(path string) error {
	db, err := scratchdb.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	_, err = db.InsertErrors([]scratchdb.ErrorRecord{{
		Zone: "URBANO_CTM12", Rule: "R101", Layer: "predios", Object: "1", Description: "geometría inválida", Source: "validaciones",
	}})
	return err
}

func put(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func putShape(dir, stem string, n int) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	base := filepath.Join(dir, stem)
	w, err := shp.Create(base+".shp", shp.POINT)
	if err != nil {
		return err
	}
	if err := w.SetFields([]shp.Field{shp.StringField("ID", 8)}); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		row := int(w.Write(&shp.Point{X: float64(i), Y: float64(i)}))
		if err := w.WriteAttribute(row, 0, fmt.Sprint(i+1)); err != nil {
			return err
		}
	}
	w.Close()
	// The writer names the table without the extension dot.
	return os.Rename(base+"dbf", base+".dbf")
}

// project scaffolds a root with the default zones and a seeded registry.
func project(t *testing.T, zones ...selection.Zone) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, projectroot.ScriptsDir), 0o755))

	var entries []selection.Entry
	for _, z := range selection.Vocabulary {
		enabled := false
		for _, x := range zones {
			enabled = enabled || x == z
		}
		entries = append(entries, selection.Entry{Zone: z, Enabled: enabled})
	}
	require.NoError(t, selection.NewStore(root).Write(entries))

	in := filepath.Join(root, "insumos")
	require.NoError(t, put(filepath.Join(in, "original.gpkg"), []byte("orig")))
	require.NoError(t, put(filepath.Join(in, "modificado.gpkg"), []byte("mod")))
	store := inputs.NewStore(workspace.New(root).RegistryDir())
	require.NoError(t, store.Store(model.LADM1_2, inputs.Registry{
		"gpkg_original": filepath.Join(in, "original.gpkg"),
		"gpkg_modified": filepath.Join(in, "modificado.gpkg"),
	}))
	return root
}

func newTab(t *testing.T, root string) *Tab {
	t.Helper()
	t.Setenv(helperEnv, "1")
	return New(Options{
		Variant:     model.LADM1_2,
		Root:        root,
		Interpreter: os.Args[0],
		Self:        os.Args[0],
		Enabled:     true,
	})
}

func texts(tb *Tab) []string {
	var out []string
	for _, r := range tb.Sink().Records() {
		out = append(out, r.Text)
	}
	return out
}

func statuses(n int, s runner.Status) []runner.Status {
	out := make([]runner.Status, n)
	for i := range out {
		out[i] = s
	}
	return out
}

func never(string) bool { return false }

func TestRunAll_FullPipeline(t *testing.T) {
	root := project(t, selection.UrbanoCTM12)
	tb := newTab(t, root)

	started, err := tb.RunAll(never)
	require.NoError(t, err)
	require.True(t, started)
	require.NoError(t, tb.Wait())

	assert.Equal(t, statuses(tb.Pipeline().Len(), runner.Completed), tb.Indicators())
	assert.Equal(t, pipeline.Idle, tb.State())

	records := tb.Sink().Records()
	last := records[len(records)-1]
	assert.Equal(t, logsink.FinishedMessage, last.Text)
	assert.Equal(t, logsink.Blue, last.Class)

	reports := workspace.New(root).ReportsDir(model.LADM1_2.Dir())
	assert.FileExists(t, filepath.Join(reports, "00_INSUMOS", "original.gpkg"))
	assert.FileExists(t, filepath.Join(reports, "02_TOPOLOGIA", "Reporte_Topologia_Urbano.xlsx"))
	assert.DirExists(t, filepath.Join(reports, "03_INCONSISTENCIAS", "CONSISTENCIA_FORMATO", "URBANO_CTM12"))
	assert.FileExists(t, filepath.Join(reports, "db", workspace.RegistroErroresUrbanoDB))
	assert.Empty(t, tb.TakeAlert())

	logs, err := os.ReadDir(filepath.Join(workspace.New(root).ScratchDir(model.LADM1_2.Dir()), workspace.Logs))
	require.NoError(t, err)
	assert.Len(t, logs, tb.Pipeline().Len())
}

func TestRunAll_NoZones(t *testing.T) {
	root := project(t)
	tb := newTab(t, root)

	_, err := tb.RunAll(never)
	require.NoError(t, err)
	require.NoError(t, tb.Wait())

	assert.Equal(t, statuses(tb.Pipeline().Len(), runner.Completed), tb.Indicators())
	assert.Contains(t, texts(tb), steps.NoDatasetsMessage)
	assert.DirExists(t, workspace.New(root).ReportsDir(model.LADM1_2.Dir()))
}

func TestExecute_DeclineLeavesEverything(t *testing.T) {
	root := project(t, selection.UrbanoCTM12)
	tb := newTab(t, root)
	_, err := tb.RunAll(never)
	require.NoError(t, err)
	require.NoError(t, tb.Wait())
	before := tb.Indicators()

	marker := workspace.New(root).Path(model.LADM1_2.Dir(), "keep.txt")
	require.NoError(t, put(marker, []byte("x")))

	asked := ""
	started, err := tb.RunAll(func(prompt string) bool {
		asked = prompt
		return false
	})
	require.NoError(t, err)
	assert.False(t, started)
	assert.Contains(t, asked, model.LADM1_2.Dir())
	assert.FileExists(t, marker)
	assert.Equal(t, before, tb.Indicators())
}

func TestExecute_AcceptWipesScratch(t *testing.T) {
	root := project(t)
	tb := newTab(t, root)
	marker := workspace.New(root).Path(model.LADM1_2.Dir(), "stale.txt")
	require.NoError(t, put(marker, []byte("x")))

	p, err := tb.PlanAll()
	require.NoError(t, err)
	require.True(t, p.Confirm)

	started, err := tb.Execute(p, true)
	require.NoError(t, err)
	require.True(t, started)
	require.NoError(t, tb.Wait())
	assert.NoFileExists(t, marker)
}

func TestRun_FailFast(t *testing.T) {
	root := project(t, selection.UrbanoCTM12)
	tb := newTab(t, root)
	t.Setenv(failEnv, "03_validar_topologia.py")

	_, err := tb.RunAll(never)
	require.NoError(t, err)
	assert.Error(t, tb.Wait())

	want := statuses(tb.Pipeline().Len(), runner.Pending)
	want[0], want[1], want[2] = runner.Completed, runner.Completed, runner.Error
	assert.Equal(t, want, tb.Indicators())
	assert.Equal(t, pipeline.Aborted, tb.State())
	assert.NotContains(t, texts(tb), logsink.FinishedMessage)

	// An aborted tab runs again once the operator asks.
	t.Setenv(failEnv, "")
	started, err := tb.RunSelected([]int{2, 3}, never)
	require.NoError(t, err)
	require.True(t, started)
	require.NoError(t, tb.Wait())
	assert.Equal(t, pipeline.Idle, tb.State())
}

func TestStop_MidStep(t *testing.T) {
	root := project(t, selection.UrbanoCTM12)
	tb := newTab(t, root)
	t.Setenv(hangEnv, "03_validar_topologia.py")

	_, err := tb.RunAll(never)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		for _, s := range texts(tb) {
			if s == "ready" {
				return true
			}
		}
		return false
	}, 10*time.Second, 10*time.Millisecond)

	tb.Stop()
	assert.Error(t, tb.Wait())

	ind := tb.Indicators()
	assert.Equal(t, runner.Error, ind[2])
	for _, s := range ind[3:] {
		assert.Equal(t, runner.Pending, s)
	}
	assert.Contains(t, texts(tb), pipeline.StoppedMessage)
	assert.Equal(t, pipeline.Aborted, tb.State())
}

func TestPlanSelected_WarnsAboutMissingInputs(t *testing.T) {
	root := project(t, selection.UrbanoCTM12)
	tb := newTab(t, root)

	p, err := tb.PlanSelected([]int{5, 4})
	require.NoError(t, err)
	assert.Equal(t, []int{4, 5}, []int{p.Steps[0].Index, p.Steps[1].Index})
	assert.False(t, p.Confirm)
	require.NotEmpty(t, p.Warnings)
	assert.True(t, strings.Contains(strings.Join(p.Warnings, "\n"), "*.gdb|*.gpkg"))

	_, err = tb.PlanSelected(nil)
	assert.Error(t, err)
}

func TestDisabledTab(t *testing.T) {
	tb := New(Options{Variant: model.IGAC, Root: t.TempDir()})

	_, err := tb.PlanAll()
	assert.ErrorIs(t, err, ErrDisabled)
	_, err = tb.SetInput("gdb", "x.gdb")
	assert.ErrorIs(t, err, ErrDisabled)
	assert.ErrorIs(t, tb.SetZones(selection.Default()), ErrDisabled)

	tb.Stop()
	tb.ClearLog()
	assert.Equal(t, pipeline.Idle, tb.State())
}

func TestConfigDialogs(t *testing.T) {
	root := project(t)
	tb := newTab(t, root)

	warnings, err := tb.SetInput("gpkg_original", filepath.Join(root, "insumos", "original.txt"))
	require.NoError(t, err)
	assert.NotEmpty(t, warnings)
	reg, err := tb.Inputs()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "insumos", "original.txt"), reg["gpkg_original"])

	entries := selection.Default()
	require.NoError(t, tb.SetZones(entries))
	got, err := tb.Zones()
	require.NoError(t, err)
	assert.Equal(t, entries, got)

	require.NoError(t, tb.SetZones([]selection.Entry{{Zone: selection.Rural}}))
	assert.Contains(t, strings.Join(texts(tb), "\n"), "ninguna zona habilitada")
}

func TestRun_HeldFileRaisesAlert(t *testing.T) {
	root := project(t, selection.UrbanoCTM12)
	tb := newTab(t, root)
	t.Setenv(heldEnv, model.BuiltinCompile)

	_, err := tb.RunAll(never)
	require.NoError(t, err)
	assert.ErrorIs(t, tb.Wait(), runner.ErrExitNonZero)

	ind := tb.Indicators()
	assert.Equal(t, runner.Error, ind[len(ind)-1])
	assert.Equal(t, pipeline.Aborted, tb.State())

	alert := tb.TakeAlert()
	assert.Contains(t, alert, "EXCEL.EXE")
	assert.Empty(t, tb.TakeAlert())
}
