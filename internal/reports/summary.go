// SPDX-License-Identifier: AGPL-3.0-or-later
package reports

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bartekus/geovalida/internal/projection"
	"github.com/bartekus/geovalida/internal/scratchdb"
	"github.com/bartekus/geovalida/internal/selection"
	"github.com/bartekus/geovalida/internal/workspace"
)

var errorRegistries = []string{
	workspace.RegistroErroresDB,
	workspace.RegistroErroresUrbanoDB,
	workspace.RegistroErroresRuralDB,
}

// writeSummary renders RESUMEN.md from the compiled databases. Nothing is
// written when no zone is enabled, keeping that tree empty.
func (c *Compiler) writeSummary(dest string, zones []selection.Zone, res Result) error {
	if len(zones) == 0 {
		return nil
	}
	var b strings.Builder
	b.WriteString(projection.RenderHeader(1, "Reporte "+c.Variant.Title()))
	fmt.Fprintf(&b, "Generado: %s\n\n", time.Now().Format("2006-01-02 15:04"))

	var names []string
	for _, z := range zones {
		names = append(names, string(z))
	}
	b.WriteString(projection.RenderHeader(2, "Zonas"))
	b.WriteString(projection.RenderList(names))
	b.WriteString("\n")

	b.WriteString(projection.RenderHeader(2, "Artefactos"))
	b.WriteString(projection.RenderList(res.Copied))
	if len(res.Warnings) > 0 {
		b.WriteString("\n")
		b.WriteString(projection.RenderHeader(3, "No encontrados"))
		b.WriteString(projection.RenderList(res.Warnings))
	}
	b.WriteString("\n")

	dbDir := filepath.Join(dest, "db")
	if rows := countRows(filepath.Join(dbDir, workspace.ConteoElementosDB)); len(rows) > 0 {
		b.WriteString(projection.RenderHeader(2, "Conteo de elementos"))
		b.WriteString(projection.RenderTable([]string{"Zona", "Regla", "Elementos"}, rows))
		b.WriteString("\n")
	}
	for _, name := range errorRegistries {
		byRule := errorRows(filepath.Join(dbDir, name))
		if len(byRule) == 0 {
			continue
		}
		var rows [][]string
		for _, rule := range projection.SortedKeys(byRule) {
			rows = append(rows, []string{rule, strconv.Itoa(byRule[rule])})
		}
		b.WriteString(projection.RenderHeader(2, "Errores ("+name+")"))
		b.WriteString(projection.RenderTable([]string{"Regla", "Registros"}, rows))
		b.WriteString("\n")
	}

	return projection.AtomicWrite(filepath.Join(dest, SummaryFile), []byte(b.String()))
}

func countRows(path string) [][]string {
	db, err := scratchdb.OpenExisting(path)
	if err != nil {
		return nil
	}
	defer func() { _ = db.Close() }()

	counts, err := db.Counts()
	if err != nil {
		logSkipped(path, err)
		return nil
	}
	rows := make([][]string, 0, len(counts))
	for _, c := range counts {
		rows = append(rows, []string{c.Zone, c.Rule, strconv.Itoa(c.Elements)})
	}
	return rows
}

func errorRows(path string) map[string]int {
	db, err := scratchdb.OpenExisting(path)
	if err != nil {
		return nil
	}
	defer func() { _ = db.Close() }()

	byRule, err := db.ErrorsByRule()
	if err != nil {
		logSkipped(path, err)
		return nil
	}
	return byRule
}

func logSkipped(path string, err error) {
	if errors.Is(err, scratchdb.ErrNoTable) {
		slog.Debug("summary skips foreign database", "path", path)
		return
	}
	slog.Warn("summary could not read database", "path", path, "error", err)
}
