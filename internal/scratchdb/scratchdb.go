// SPDX-License-Identifier: AGPL-3.0-or-later

// Package scratchdb reads and writes the sqlite databases under a model's
// scratch db/ directory. Each step opens a database briefly and closes it
// before exiting.
package scratchdb

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// ErrNoTable is returned when a database lacks the table a query needs,
// e.g. one produced by an external step with its own schema.
var ErrNoTable = errors.New("table not present")

const (
	countsTable = "conteo_elementos"
	errorsTable = "registro_errores"
)

// DB is one scratch database.
type DB struct {
	db   *sql.DB
	path string
}

// Open opens or creates the database at path and ensures the tables this
// binary writes exist. The rollback journal is kept so that a compiled copy
// is a single self-contained file.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("scratchdb: create dir: %w", err)
	}
	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("scratchdb: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = DELETE",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("scratchdb: pragma %q: %w", p, err)
		}
	}

	d := &DB{db: db, path: path}
	if err := d.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("scratchdb: migration: %w", err)
	}
	return d, nil
}

// OpenExisting opens a database without creating tables. A missing file is
// reported as os.ErrNotExist.
func OpenExisting(path string) (*DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("scratchdb: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	return &DB{db: db, path: path}, nil
}

// Path is the database file.
func (d *DB) Path() string { return d.path }

// Close closes the connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS conteo_elementos (
			zona        TEXT NOT NULL,
			regla       TEXT NOT NULL,
			elementos   INTEGER NOT NULL DEFAULT 0,
			actualizado TEXT NOT NULL,
			PRIMARY KEY (zona, regla)
		);

		CREATE TABLE IF NOT EXISTS registro_errores (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			zona        TEXT NOT NULL,
			regla       TEXT NOT NULL,
			capa        TEXT NOT NULL DEFAULT '',
			objeto      TEXT NOT NULL DEFAULT '',
			descripcion TEXT NOT NULL DEFAULT '',
			origen      TEXT NOT NULL DEFAULT '',
			creado      TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_registro_errores_regla ON registro_errores(regla);
	`
	_, err := d.db.Exec(schema)
	return err
}

// HasTable reports whether the named table exists.
func (d *DB) HasTable(name string) (bool, error) {
	var n int
	err := d.db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name,
	).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (d *DB) require(table string) error {
	ok, err := d.HasTable(table)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s in %s", ErrNoTable, table, filepath.Base(d.path))
	}
	return nil
}

func now() string {
	return time.Now().Format(time.RFC3339)
}
