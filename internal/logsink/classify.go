// SPDX-License-Identifier: AGPL-3.0-or-later
package logsink

import (
	"strings"

	"gopkg.in/go-playground/colors.v1" //nolint

	"github.com/bartekus/geovalida/internal/palette"
)

// Class is the display colour of a record.
type Class int

const (
	White Class = iota
	Red
	Blue
	Yellow
	Cyan
	Green
)

// FinishedMessage closes a successful run.
const FinishedMessage = "Todos los procesos han finalizado"

func (c Class) String() string {
	switch c {
	case Red:
		return "red"
	case Blue:
		return "blue"
	case Yellow:
		return "yellow"
	case Cyan:
		return "cyan"
	case Green:
		return "green"
	default:
		return "white"
	}
}

// Color returns the palette colour of the class.
func (c Class) Color() *colors.HEXColor {
	switch c {
	case Red:
		return palette.Red
	case Blue:
		return palette.Blue
	case Yellow:
		return palette.Yellow
	case Cyan:
		return palette.Cyan
	case Green:
		return palette.Green
	default:
		return palette.White
	}
}

var (
	errorMarkers = []string{"Error", "ERROR al procesar", "detenido"}
	// A line naming an error but reporting its absence stays informational.
	infoMarkers  = []string{"sin errores", "Sin errores", "0 errores", "no se encontraron errores", "No se encontraron errores"}
	startMarkers = []string{"Iniciando", "Ejecutando"}
	doneMarkers  = []string{"completado", "exito", "éxito", "finalizado"}
)

// Classify colours a line by content. Substring matching is lossy and only a
// hint for the operator.
func Classify(text string) Class {
	switch {
	case strings.Contains(text, FinishedMessage):
		return Blue
	case containsAny(text, errorMarkers) && !containsAny(text, infoMarkers):
		return Red
	case strings.Contains(text, ".py"):
		return Yellow
	case hasAnyPrefix(strings.TrimSpace(text), startMarkers):
		return Cyan
	case containsAny(text, doneMarkers):
		return Green
	default:
		return White
	}
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
