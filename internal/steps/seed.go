// SPDX-License-Identifier: AGPL-3.0-or-later
package steps

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bartekus/geovalida/internal/inputs"
	"github.com/bartekus/geovalida/internal/model"
	"github.com/bartekus/geovalida/internal/selection"
	"github.com/bartekus/geovalida/internal/workspace"
)

// Seed copies the registry inputs into the scratch tree: the working
// container at the root and, for package models, the untransformed package
// under GPKG_ORIGINAL/.
func Seed(_ context.Context, env *Env, _ []selection.Zone) error {
	env.Say("Iniciando preparación de insumos para %s", env.Variant.Title())

	reg, err := inputs.NewStore(env.WS.RegistryDir()).Load(env.Variant)
	if err != nil {
		return err
	}
	for _, w := range inputs.Validate(env.Variant, reg) {
		env.Say("Advertencia: %s", w)
	}
	if _, err := env.WS.EnsureScratch(env.Variant.Dir()); err != nil {
		return err
	}

	if env.Variant == model.IGAC {
		err = seedIGAC(env, reg)
	} else {
		err = seedPackages(env, reg)
	}
	if err != nil {
		env.Say("Error: %v", err)
		return err
	}
	env.Say("Preparación de insumos completado")
	return nil
}

func seedIGAC(env *Env, reg inputs.Registry) error {
	gdb, err := reg.Require("gdb")
	if err != nil {
		return err
	}
	if err := copyInput(env, gdb, env.Path(filepath.Base(trimSlash(gdb)))); err != nil {
		return err
	}
	// The tabular inputs are read in place by the external steps.
	for _, slot := range []string{"predio", "construccion", "apex_conservacion"} {
		p, err := reg.Require(slot)
		if err != nil {
			env.Say("Advertencia: %s sin ruta configurada", slot)
			continue
		}
		if _, err := os.Stat(p); err != nil {
			env.Say("Advertencia: %s no existe: %s", slot, p)
		}
	}
	return nil
}

func seedPackages(env *Env, reg inputs.Registry) error {
	original, err := reg.Require("gpkg_original")
	if err != nil {
		return err
	}
	modified, err := reg.Require("gpkg_modified")
	if err != nil {
		return err
	}
	if err := copyInput(env, modified, env.Path(filepath.Base(modified))); err != nil {
		return err
	}
	return copyInput(env, original, env.Path(workspace.GPKGOriginal, filepath.Base(original)))
}

func copyInput(env *Env, src, dst string) error {
	if _, err := os.Stat(src); err != nil {
		return fmt.Errorf("input %s: %w", src, err)
	}
	if err := workspace.CopyTree(src, dst); err != nil {
		return fmt.Errorf("copying %s: %w", src, err)
	}
	rel, _ := filepath.Rel(env.Scratch(), dst)
	env.Say("Copiado %s -> %s", filepath.Base(src), filepath.ToSlash(rel))
	return nil
}

func trimSlash(p string) string {
	return strings.TrimRight(p, `/\`)
}
