// SPDX-License-Identifier: AGPL-3.0-or-later
package steps

import (
	"context"
	"os"
	"path/filepath"

	"github.com/bartekus/geovalida/internal/selection"
	"github.com/bartekus/geovalida/internal/workspace"
)

// Organize copies the non-empty rule outputs of each zone from
// Validaciones_Calidad/<zone>/ into 03_INCONSISTENCIAS/CONSISTENCIA_FORMATO/<zone>/,
// replacing whatever an earlier run left there. Sets in rule subdirectories
// are prefixed with the rule name.
func Organize(_ context.Context, env *Env, zones []selection.Zone) error {
	for _, z := range zones {
		src := env.Path(workspace.ValidacionesCalidad, string(z))
		dst := env.Path(workspace.InconsistenciasFormat, string(z))
		env.Say("Iniciando organización de inconsistencias %s", z)
		if err := workspace.RemoveTree(dst); err != nil {
			return err
		}

		sets, err := FindShapeSets(src)
		if err != nil {
			return err
		}
		if len(sets) == 0 {
			env.Say("Advertencia: sin resultados en %s/%s", workspace.ValidacionesCalidad, z)
			continue
		}
		if err := os.MkdirAll(dst, 0o755); err != nil {
			return err
		}

		copied := 0
		for _, set := range sets {
			n, err := FeatureCount(set)
			if err != nil {
				env.Say("Advertencia: %v", err)
				continue
			}
			if n == 0 {
				continue
			}
			prefix := ""
			if rel, err := filepath.Rel(src, set.Dir); err == nil && rel != "." {
				prefix = filepath.Base(rel) + "_"
			}
			for _, name := range set.Files {
				target := filepath.Join(dst, prefix+name)
				if err := workspace.CopyFile(filepath.Join(set.Dir, name), target); err != nil {
					return err
				}
			}
			copied++
			env.Say("%s%s: %d elementos", prefix, set.Stem, n)
		}
		env.Say("Organización %s completado: %d capas con inconsistencias", z, copied)
	}
	return nil
}
