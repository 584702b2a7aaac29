// SPDX-License-Identifier: AGPL-3.0-or-later

// Package palette holds the colours shared by the console, the indicator
// column and the pipeline graph export.
package palette

import (
	"fmt"

	"gopkg.in/go-playground/colors.v1" //nolint
)

var (
	Red    = mustHex("#ff5f5f")
	Blue   = mustHex("#5f87ff")
	Yellow = mustHex("#ffd75f")
	Cyan   = mustHex("#5fd7d7")
	Green  = mustHex("#5fd75f")
	White  = mustHex("#e4e4e4")
	Grey   = mustHex("#808080")
	Orange = mustHex("#ffaf5f")
)

// Hex returns the "#rrggbb" form understood by terminal styles and DOT.
func Hex(c *colors.HEXColor) string {
	return c.String()
}

// Dim blends c halfway towards black, used for disabled tabs.
func Dim(c *colors.HEXColor) *colors.HEXColor {
	rgb := c.ToRGB()
	dimmed, err := colors.RGB(rgb.R/2, rgb.G/2, rgb.B/2)
	if err != nil {
		return c
	}
	return dimmed.ToHEX()
}

func mustHex(s string) *colors.HEXColor {
	c, err := colors.ParseHEX(s)
	if err != nil {
		panic(fmt.Sprintf("palette: %s: %v", s, err))
	}
	return c
}
