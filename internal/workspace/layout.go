// SPDX-License-Identifier: AGPL-3.0-or-later

/*
GeoValidaTool - orchestration harness for cadastral quality-assurance pipelines.
It runs the ordered validation steps of each cadastral model against a shared workspace layout,
streams their output to the operator and compiles the resulting reports.

Copyright (C) 2025  Bartek Kus

This program is free software licensed under the terms of the GNU AGPL v3 or later.

See https://www.gnu.org/licenses/ for license details.

*/

// Package workspace owns the on-disk contract shared by every step.
//
// Directory layout:
//
//	<root>/Files/Temporary_Files/<MODEL_DIR>/      scratch tree (one per model)
//	    *.gdb, *.gpkg                              working dataset containers
//	    GPKG_ORIGINAL/                             untransformed input package
//	    02_TOPOLOGIA/                              topology workbooks per zone
//	    Validaciones_Calidad/<zone>/<rule>/        per-rule shapefiles
//	    Topology_Errors/                           IGAC error containers
//	    03_INCONSISTENCIAS/CONSISTENCIA_FORMATO/<zone>/
//	    db/                                        sqlite databases
//	    logs/                                      per-step log files
//	<root>/Files/Temporary_Files/Ruta_Insumos/     input registries
//	<root>/Reportes/<MODEL_DIR>/                   reports tree
package workspace

import (
	"path/filepath"

	"github.com/bartekus/geovalida/internal/projectroot"
)

// Scratch tree entries. Each name is a contract with external steps.
const (
	Containers              = "*.gdb|*.gpkg"
	GPKGOriginal            = "GPKG_ORIGINAL"
	Topologia               = "02_TOPOLOGIA"
	ValidacionesCalidad     = "Validaciones_Calidad"
	TopologyErrors          = "Topology_Errors"
	ConsistenciaFormato     = "consistencia_formato_temp"
	ConsistenciaGeoespacial = "consistencia_geoespacial_temp"
	OmisionComision         = "Omision_comision_temp"
	Inconsistencias         = "03_INCONSISTENCIAS"
	InconsistenciasFormat   = "03_INCONSISTENCIAS/CONSISTENCIA_FORMATO"
	DB                      = "db"
	Logs                    = "logs"
)

// Databases under db/.
const (
	ConteoElementosDB       = "conteo_elementos.db"
	RegistroErroresDB       = "registro_errores.db"
	RegistroErroresRuralDB  = "registro_errores_rural.db"
	RegistroErroresUrbanoDB = "registro_errores_urbano.db"
	ErroresFormatoDB        = "errores_consistencia_formato.db"
	ExcepcionesFormatoDB    = "excepciones_consistencia_formato.db"
	OmisionComisionDB       = "omision_comision.db"
)

// HeldExitCode is the exit status of a step stopped by a held file.
const HeldExitCode = 4

// RegistryDir holds the per-model input registries.
const RegistryDir = "Ruta_Insumos"

// Workspace resolves layout paths for one project root.
type Workspace struct {
	root string
}

// New returns the workspace rooted at the project root.
func New(root string) *Workspace {
	return &Workspace{root: root}
}

// Root returns the project root.
func (w *Workspace) Root() string { return w.root }

// ScratchDir returns Files/Temporary_Files/<modelDir>.
func (w *Workspace) ScratchDir(modelDir string) string {
	return filepath.Join(projectroot.TempFiles(w.root), modelDir)
}

// ReportsDir returns Reportes/<modelDir>.
func (w *Workspace) ReportsDir(modelDir string) string {
	return filepath.Join(w.root, projectroot.ReportsDir, modelDir)
}

// RegistryDir returns Files/Temporary_Files/Ruta_Insumos.
func (w *Workspace) RegistryDir() string {
	return filepath.Join(projectroot.TempFiles(w.root), RegistryDir)
}

// Path joins elements beneath a model's scratch tree.
func (w *Workspace) Path(modelDir string, elem ...string) string {
	return filepath.Join(append([]string{w.ScratchDir(modelDir)}, elem...)...)
}

// DBPath returns the path of a scratch database.
func (w *Workspace) DBPath(modelDir, name string) string {
	return w.Path(modelDir, DB, name)
}

// ErrorRegistryDB names the per-zone error registry database.
func ErrorRegistryDB(rural bool) string {
	if rural {
		return RegistroErroresRuralDB
	}
	return RegistroErroresUrbanoDB
}
