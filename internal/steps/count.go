// SPDX-License-Identifier: AGPL-3.0-or-later
package steps

import (
	"context"

	"github.com/bartekus/geovalida/internal/scratchdb"
	"github.com/bartekus/geovalida/internal/selection"
	"github.com/bartekus/geovalida/internal/workspace"
)

// Count stores the feature count of every organised rule layer per zone in
// db/conteo_elementos.db.
func Count(_ context.Context, env *Env, zones []selection.Zone) error {
	db, err := scratchdb.Open(env.WS.DBPath(env.Variant.Dir(), workspace.ConteoElementosDB))
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	for _, z := range zones {
		env.Say("Iniciando conteo de elementos %s", z)
		sets, err := FindShapeSets(env.Path(workspace.InconsistenciasFormat, string(z)))
		if err != nil {
			return err
		}

		counts := make([]scratchdb.Count, 0, len(sets))
		total := 0
		for _, set := range sets {
			n, err := FeatureCount(set)
			if err != nil {
				env.Say("Advertencia: %v", err)
				continue
			}
			counts = append(counts, scratchdb.Count{Rule: set.Stem, Elements: n})
			total += n
		}
		if err := db.ReplaceCounts(string(z), counts); err != nil {
			return err
		}
		env.Say("Conteo %s completado: %d capas, %d elementos", z, len(counts), total)
	}
	return nil
}
