// SPDX-License-Identifier: AGPL-3.0-or-later
package steps

import (
	"context"

	"github.com/bartekus/geovalida/internal/reports"
	"github.com/bartekus/geovalida/internal/selection"
)

// Compile mirrors the scratch artifacts into the reports tree.
func Compile(_ context.Context, env *Env, zones []selection.Zone) error {
	env.Say("Iniciando compilación de reportes %s", env.Variant.Title())
	res, err := reports.New(env.WS, env.Variant, env.Out).Compile(zones)
	if err != nil {
		env.Say("Error: %v", err)
		return err
	}
	env.Say("Compilación completado: %d artefactos, %d ausentes", len(res.Copied), len(res.Warnings))
	return nil
}

// compileEmpty still recreates the destination so no stale report survives.
func compileEmpty(env *Env) error {
	_, err := reports.New(env.WS, env.Variant, env.Out).Reset()
	return err
}
