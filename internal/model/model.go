// SPDX-License-Identifier: AGPL-3.0-or-later

/*
GeoValidaTool - orchestration harness for cadastral quality-assurance pipelines.
It runs the ordered validation steps of each cadastral model against a shared workspace layout,
streams their output to the operator and compiles the resulting reports.

Copyright (C) 2025  Bartek Kus

This program is free software licensed under the terms of the GNU AGPL v3 or later.

See https://www.gnu.org/licenses/ for license details.

*/

// Package model defines the closed set of cadastral model variants and the
// frozen step pipeline of each one.
package model

import (
	"fmt"
	"strings"
)

// Variant is one cadastral schema variant.
type Variant string

const (
	IGAC       Variant = "IGAC"
	Interno1_0 Variant = "Interno_1_0"
	LADM1_0    Variant = "LADM_1_0"
	LADM1_2    Variant = "LADM_1_2"
)

// Variants lists every model in tab order.
var Variants = []Variant{IGAC, Interno1_0, LADM1_0, LADM1_2}

// Parse accepts a variant name, ignoring case.
func Parse(s string) (Variant, error) {
	for _, v := range Variants {
		if strings.EqualFold(string(v), s) {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown model %q (want one of %v)", s, Variants)
}

// Dir names the model's scratch and reports subdirectory. The variant is
// authoritative: no step may write another variant's directory.
func (v Variant) Dir() string {
	return "MODELO_" + strings.ToUpper(string(v))
}

// Title is the tab label.
func (v Variant) Title() string {
	switch v {
	case Interno1_0:
		return "Interno 1.0"
	case LADM1_0:
		return "LADM 1.0"
	case LADM1_2:
		return "LADM 1.2"
	default:
		return string(v)
	}
}

// RegistryFile names the model's input registry under Ruta_Insumos/.
func (v Variant) RegistryFile() string {
	return "rutas_" + strings.ToLower(v.Dir()) + ".json"
}

// ScriptsDir is the model's directory under Scripts/.
func (v Variant) ScriptsDir() string {
	return "Scripts/" + string(v)
}

// Toolbox is the geoprocessing toolbox consumed by the model's external
// steps, relative to the project root.
func (v Variant) Toolbox() string {
	return "Files/Toolbox/" + string(v) + ".atbx"
}

// Slot is one input the operator points at a file.
type Slot struct {
	Name    string // registry key
	Label   string
	Ext     string // expected suffix
	Keyword string // expected in the file name; empty means any
}

var igacSlots = []Slot{
	{Name: "gdb", Label: "Geodatabase consolidada", Ext: ".gdb"},
	{Name: "predio", Label: "Datos de predio", Ext: ".csv", Keyword: "Predio"},
	{Name: "construccion", Label: "Unidades de construcción", Ext: ".csv", Keyword: "Construccion"},
	{Name: "apex_conservacion", Label: "Reporte APEX conservación", Ext: ".csv", Keyword: "APEX"},
}

var gpkgSlots = []Slot{
	{Name: "gpkg_original", Label: "GeoPackage original", Ext: ".gpkg"},
	{Name: "gpkg_modified", Label: "GeoPackage modificado", Ext: ".gpkg"},
}

// Slots returns the model's fixed slot vocabulary.
func (v Variant) Slots() []Slot {
	if v == IGAC {
		return igacSlots
	}
	return gpkgSlots
}

// Slot looks up a slot by registry key.
func (v Variant) Slot(name string) (Slot, bool) {
	for _, s := range v.Slots() {
		if s.Name == name {
			return s, true
		}
	}
	return Slot{}, false
}
