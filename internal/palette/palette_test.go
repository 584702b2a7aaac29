// SPDX-License-Identifier: AGPL-3.0-or-later
package palette

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHex(t *testing.T) {
	assert.Equal(t, "#5f87ff", Hex(Blue))
}

func TestDim(t *testing.T) {
	d := Dim(mustHex("#804020")).ToRGB()
	assert.Equal(t, uint8(0x40), d.R)
	assert.Equal(t, uint8(0x20), d.G)
	assert.Equal(t, uint8(0x10), d.B)
}
