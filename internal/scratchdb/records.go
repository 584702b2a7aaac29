// SPDX-License-Identifier: AGPL-3.0-or-later
package scratchdb

import (
	"fmt"
)

// Count is the number of features of one rule output in one zone.
type Count struct {
	Zone     string
	Rule     string
	Elements int
}

// ReplaceCounts overwrites the counts of a zone in one transaction.
func (d *DB) ReplaceCounts(zone string, counts []Count) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM conteo_elementos WHERE zona = ?`, zone); err != nil {
		return fmt.Errorf("clearing counts of %s: %w", zone, err)
	}
	stmt, err := tx.Prepare(
		`INSERT INTO conteo_elementos (zona, regla, elementos, actualizado) VALUES (?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	ts := now()
	for _, c := range counts {
		if _, err := stmt.Exec(zone, c.Rule, c.Elements, ts); err != nil {
			return fmt.Errorf("inserting count %s/%s: %w", zone, c.Rule, err)
		}
	}
	return tx.Commit()
}

// Counts lists every stored count ordered by zone and rule.
func (d *DB) Counts() ([]Count, error) {
	if err := d.require(countsTable); err != nil {
		return nil, err
	}
	rows, err := d.db.Query(`SELECT zona, regla, elementos FROM conteo_elementos ORDER BY zona, regla`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Count
	for rows.Next() {
		var c Count
		if err := rows.Scan(&c.Zone, &c.Rule, &c.Elements); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ErrorRecord is one row of the error registry.
type ErrorRecord struct {
	Zone        string
	Rule        string
	Layer       string
	Object      string
	Description string
	Source      string
}

// InsertErrors appends records in one transaction and returns how many were
// written.
func (d *DB) InsertErrors(recs []ErrorRecord) (int, error) {
	if len(recs) == 0 {
		return 0, nil
	}
	tx, err := d.db.Begin()
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
		INSERT INTO registro_errores (zona, regla, capa, objeto, descripcion, origen, creado)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer func() { _ = stmt.Close() }()

	ts := now()
	for _, r := range recs {
		if _, err := stmt.Exec(r.Zone, r.Rule, r.Layer, r.Object, r.Description, r.Source, ts); err != nil {
			return 0, fmt.Errorf("inserting error %s/%s: %w", r.Rule, r.Object, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(recs), nil
}

// DeleteErrors removes the records a source wrote for a zone, so reruns of
// the same step do not accumulate duplicates.
func (d *DB) DeleteErrors(zone, source string) error {
	_, err := d.db.Exec(`DELETE FROM registro_errores WHERE zona = ? AND origen = ?`, zone, source)
	return err
}

// ErrorsByRule counts records per rule.
func (d *DB) ErrorsByRule() (map[string]int, error) {
	if err := d.require(errorsTable); err != nil {
		return nil, err
	}
	rows, err := d.db.Query(`SELECT regla, COUNT(*) FROM registro_errores GROUP BY regla`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := map[string]int{}
	for rows.Next() {
		var rule string
		var n int
		if err := rows.Scan(&rule, &n); err != nil {
			return nil, err
		}
		out[rule] = n
	}
	return out, rows.Err()
}
