// SPDX-License-Identifier: AGPL-3.0-or-later
package steps

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/bartekus/geovalida/internal/duplicates"
	"github.com/bartekus/geovalida/internal/scratchdb"
	"github.com/bartekus/geovalida/internal/selection"
	"github.com/bartekus/geovalida/internal/workspace"
)

const (
	unitsFile     = "unidades.csv"
	duplicateRule = "unidad_duplicada"
	duplicateSrc  = "duplicates"
)

// Duplicates applies the default duplicate policy to each zone's units
// export and records one error per duplicate pair in the zone's registry.
func Duplicates(_ context.Context, env *Env, zones []selection.Zone) error {
	policy := duplicates.Default()

	for _, z := range zones {
		path := env.Path(workspace.TopologyErrors, string(z), unitsFile)
		env.Say("Iniciando búsqueda de unidades duplicadas %s (%s)", z, policy.Name())

		f, err := os.Open(path)
		if errors.Is(err, os.ErrNotExist) {
			env.Say("Advertencia: %s/%s/%s no existe, se omite", workspace.TopologyErrors, z, unitsFile)
			continue
		}
		if err != nil {
			return err
		}
		units, err := duplicates.ReadUnits(f)
		_ = f.Close()
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		pairs := policy.Find(units)
		if err := recordDuplicates(env, z, pairs); err != nil {
			return err
		}
		env.Say("Duplicados %s completado: %d de %d unidades", z, len(pairs), len(units))
	}
	return nil
}

func recordDuplicates(env *Env, z selection.Zone, pairs []duplicates.Pair) error {
	db, err := scratchdb.Open(env.WS.DBPath(env.Variant.Dir(), workspace.ErrorRegistryDB(z.Rural())))
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	// Reruns replace what this step wrote before.
	if err := db.DeleteErrors(string(z), duplicateSrc); err != nil {
		return err
	}
	recs := make([]scratchdb.ErrorRecord, 0, len(pairs))
	for _, p := range pairs {
		recs = append(recs, scratchdb.ErrorRecord{
			Zone:        string(z),
			Rule:        duplicateRule,
			Layer:       "unidades",
			Object:      p.B.ID,
			Description: fmt.Sprintf("duplicada de %s (solape %.1f%%)", p.A.ID, p.Overlap*100),
			Source:      duplicateSrc,
		})
	}
	_, err = db.InsertErrors(recs)
	return err
}
