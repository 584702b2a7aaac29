// SPDX-License-Identifier: AGPL-3.0-or-later

/*
GeoValidaTool - orchestration harness for cadastral quality-assurance pipelines.
It runs the ordered validation steps of each cadastral model against a shared workspace layout,
streams their output to the operator and compiles the resulting reports.

Copyright (C) 2025  Bartek Kus

This program is free software licensed under the terms of the GNU AGPL v3 or later.

See https://www.gnu.org/licenses/ for license details.

*/

// Package tui is the operator shell: one tab per model with run controls,
// the indicator column and the live console, plus the configuration dialogs
// and the dependency installer.
package tui

import (
	"github.com/charmbracelet/lipgloss"
	"gopkg.in/go-playground/colors.v1" //nolint

	"github.com/bartekus/geovalida/internal/logsink"
	"github.com/bartekus/geovalida/internal/palette"
	"github.com/bartekus/geovalida/internal/pipeline"
	"github.com/bartekus/geovalida/internal/runner"
)

// Dot is the glyph of one indicator.
const Dot = "●"

func color(c *colors.HEXColor) lipgloss.Color {
	return lipgloss.Color(palette.Hex(c))
}

func fg(c *colors.HEXColor, dim bool) lipgloss.Style {
	if dim {
		c = palette.Dim(c)
	}
	return lipgloss.NewStyle().Foreground(color(c))
}

var (
	activeTab = lipgloss.NewStyle().Bold(true).Padding(0, 1).
			Border(lipgloss.NormalBorder(), true, true, false, true).
			BorderForeground(color(palette.Cyan))
	idleTab = lipgloss.NewStyle().Padding(0, 1).
		Border(lipgloss.HiddenBorder(), true, true, false, true)
	panel = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).
		BorderForeground(color(palette.Grey))
	modalBox = lipgloss.NewStyle().Border(lipgloss.DoubleBorder()).
			BorderForeground(color(palette.Orange)).Padding(1, 2)
	helpStyle = fg(palette.Grey, false)
	warnStyle = fg(palette.Yellow, false)
	errStyle  = fg(palette.Red, false)
)

// statusColor maps an indicator state to its dot colour.
func statusColor(s runner.Status) *colors.HEXColor {
	switch s {
	case runner.Running:
		return palette.Yellow
	case runner.Completed:
		return palette.Green
	case runner.Error:
		return palette.Red
	default:
		return palette.Grey
	}
}

func stateColor(s pipeline.State) *colors.HEXColor {
	switch s {
	case pipeline.Running:
		return palette.Yellow
	case pipeline.Aborted:
		return palette.Red
	default:
		return palette.Green
	}
}

func indicator(s runner.Status, dim bool) string {
	return fg(statusColor(s), dim).Render(Dot)
}

func renderRecord(r logsink.Record, dim bool) string {
	return fg(r.Class.Color(), dim).Render(r.String())
}
