// SPDX-License-Identifier: AGPL-3.0-or-later
package scratchdb

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db", "conteo_elementos.db")
	d, err := Open(path)
	require.NoError(t, err)
	defer d.Close()

	require.NoError(t, d.ReplaceCounts("URBANO_CTM12", []Count{
		{Rule: "R101", Elements: 4},
		{Rule: "R003", Elements: 0},
	}))
	require.NoError(t, d.ReplaceCounts("RURAL_CTM12", []Count{{Rule: "R101", Elements: 1}}))
	// Replacing a zone drops its previous rows.
	require.NoError(t, d.ReplaceCounts("URBANO_CTM12", []Count{{Rule: "R101", Elements: 7}}))

	got, err := d.Counts()
	require.NoError(t, err)
	assert.Equal(t, []Count{
		{Zone: "RURAL_CTM12", Rule: "R101", Elements: 1},
		{Zone: "URBANO_CTM12", Rule: "R101", Elements: 7},
	}, got)
}

func TestErrors(t *testing.T) {
	d, err := Open(filepath.Join(t.TempDir(), "registro_errores_urbano.db"))
	require.NoError(t, err)
	defer d.Close()

	n, err := d.InsertErrors([]ErrorRecord{
		{Zone: "URBANO_CTM12", Rule: "duplicados", Object: "U1", Source: "duplicates"},
		{Zone: "URBANO_CTM12", Rule: "duplicados", Object: "U2", Source: "duplicates"},
		{Zone: "URBANO_CTM12", Rule: "superposicion", Object: "T9", Source: "topologia"},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	byRule, err := d.ErrorsByRule()
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"duplicados": 2, "superposicion": 1}, byRule)

	require.NoError(t, d.DeleteErrors("URBANO_CTM12", "duplicates"))
	byRule, err = d.ErrorsByRule()
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"superposicion": 1}, byRule)

	n, err = d.InsertErrors(nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestOpenExisting(t *testing.T) {
	dir := t.TempDir()
	_, err := OpenExisting(filepath.Join(dir, "missing.db"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	// A database written by an external step with another schema.
	path := filepath.Join(dir, "omision_comision.db")
	raw, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = raw.Exec(`CREATE TABLE omision (id INTEGER)`)
	require.NoError(t, err)
	require.NoError(t, raw.Close())

	d, err := OpenExisting(path)
	require.NoError(t, err)
	defer d.Close()

	ok, err := d.HasTable("omision")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = d.Counts()
	assert.ErrorIs(t, err, ErrNoTable)
}

func TestOpen_DriverFailure(t *testing.T) {
	orig := openDB
	t.Cleanup(func() { openDB = orig })
	openDB = func(string, string) (*sql.DB, error) { return nil, errors.New("boom") }

	_, err := Open(filepath.Join(t.TempDir(), "x.db"))
	assert.ErrorContains(t, err, "boom")
}
