// SPDX-License-Identifier: AGPL-3.0-or-later
package model

import (
	ws "github.com/bartekus/geovalida/internal/workspace"
)

// Registry defines the canonical pipeline of every variant. Order is the
// execution order and never changes at runtime.
var Registry = map[Variant]Pipeline{
	IGAC: newPipeline(IGAC,
		seed(),
		script(IGAC, "02_validar_topologia.py", "Validar topología",
			[]string{ws.Containers}, []string{ws.TopologyErrors, ws.Topologia}),
		script(IGAC, "03_generar_errores_topologia.py", "Generar errores topológicos",
			[]string{ws.TopologyErrors}, []string{ws.TopologyErrors, ws.DB}),
		duplicates(),
		script(IGAC, "05_consistencia_formato.py", "Consistencia de formato",
			[]string{ws.Containers}, []string{ws.ConsistenciaFormato, ws.ValidacionesCalidad, ws.DB}),
		script(IGAC, "06_consistencia_geoespacial.py", "Consistencia geoespacial",
			[]string{ws.Containers, ws.ConsistenciaFormato}, []string{ws.ConsistenciaGeoespacial, ws.ValidacionesCalidad}),
		script(IGAC, "07_omision_comision.py", "Omisión y comisión",
			[]string{ws.Containers}, []string{ws.OmisionComision, ws.DB}),
		organize(),
		count(),
		compile(),
	),
	Interno1_0: newPipeline(Interno1_0,
		seed(),
		script(Interno1_0, "02_migrar_gpkg_gdb.py", "Migrar GeoPackage a GDB",
			[]string{ws.Containers}, []string{ws.Containers}),
		script(Interno1_0, "03_validar_topologia.py", "Validar topología",
			[]string{ws.Containers}, []string{ws.Topologia}),
		withManual(script(Interno1_0, "04_reporte_topologia.py", "Reporte de topología",
			[]string{ws.Topologia}, []string{ws.Topologia})),
		script(Interno1_0, "05_validaciones_calidad.py", "Validaciones de calidad",
			[]string{ws.Containers}, []string{ws.ValidacionesCalidad, ws.DB}),
		script(Interno1_0, "06_omision_comision.py", "Omisión y comisión",
			[]string{ws.Containers, ws.GPKGOriginal}, []string{ws.OmisionComision, ws.DB}),
		organize(),
		count(),
		compile(),
	),
	LADM1_0: newPipeline(LADM1_0,
		seed(),
		script(LADM1_0, "02_migrar_gpkg_gdb.py", "Migrar GeoPackage a GDB",
			[]string{ws.Containers}, []string{ws.Containers}),
		script(LADM1_0, "03_validar_topologia.py", "Validar topología",
			[]string{ws.Containers}, []string{ws.Topologia}),
		withManual(script(LADM1_0, "04_reporte_topologia.py", "Reporte de topología",
			[]string{ws.Topologia}, []string{ws.Topologia})),
		script(LADM1_0, "05_validaciones_calidad.py", "Validaciones de calidad",
			[]string{ws.Containers}, []string{ws.ValidacionesCalidad, ws.DB}),
		organize(),
		count(),
		compile(),
	),
	LADM1_2: newPipeline(LADM1_2,
		seed(),
		script(LADM1_2, "02_migrar_gpkg_gdb.py", "Migrar GeoPackage a GDB",
			[]string{ws.Containers}, []string{ws.Containers}),
		script(LADM1_2, "03_validar_topologia.py", "Validar topología",
			[]string{ws.Containers}, []string{ws.Topologia}),
		withManual(script(LADM1_2, "04_reporte_topologia.py", "Reporte de topología",
			[]string{ws.Topologia}, []string{ws.Topologia})),
		script(LADM1_2, "05_validaciones_calidad.py", "Validaciones de calidad",
			[]string{ws.Containers}, []string{ws.ValidacionesCalidad, ws.DB}),
		organize(),
		count(),
		compile(),
	),
}

// PipelineOf returns the variant's pipeline.
func PipelineOf(v Variant) Pipeline {
	return Registry[v]
}

func withManual(s Step) Step {
	s.Manual = true
	return s
}
