// SPDX-License-Identifier: AGPL-3.0-or-later
package duplicates

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func box(x0, y0, x1, y1 float64) Envelope {
	return Envelope{MinX: x0, MinY: y0, MaxX: x1, MaxY: y1}
}

func TestEnvelopeOverlap(t *testing.T) {
	a := box(0, 0, 10, 10)
	assert.InDelta(t, 1.0, a.Overlap(a), 1e-9)
	assert.InDelta(t, 0.5, a.Overlap(box(5, 0, 15, 10)), 1e-9)
	assert.Zero(t, a.Overlap(box(20, 20, 30, 30)))
	// Containment of a small box is not a duplicate of the large one.
	assert.InDelta(t, 0.01, a.Overlap(box(0, 0, 1, 1)), 1e-9)
	assert.Zero(t, box(0, 0, 0, 5).Area())
}

func TestAttributeOverlap(t *testing.T) {
	attrs := func(piso, uso string) map[string]string {
		return map[string]string{"piso": piso, "uso": uso}
	}
	units := []Unit{
		{ID: "U3", Attrs: attrs("1", "residencial"), Env: box(0, 0, 10, 10)},
		{ID: "U1", Attrs: attrs("1", "residencial"), Env: box(0.1, 0, 10.1, 10)},
		{ID: "U2", Attrs: attrs("2", "residencial"), Env: box(0, 0, 10, 10)},
		{ID: "U4", Attrs: attrs("1", "residencial"), Env: box(3, 0, 13, 10)},
	}

	pairs := AttributeOverlap{}.Find(units)
	require.Len(t, pairs, 1)
	assert.Equal(t, "U1", pairs[0].A.ID)
	assert.Equal(t, "U3", pairs[0].B.ID)
	assert.Greater(t, pairs[0].Overlap, DefaultMinOverlap)

	// Comparing only "uso" makes U2 match U1 and U3 as well.
	pairs = AttributeOverlap{Keys: []string{"uso"}}.Find(units)
	assert.Len(t, pairs, 3)
}

func TestReadUnits(t *testing.T) {
	in := "\uFEFFid;piso;uso;minx;miny;maxx;maxy\n" +
		"U1;1;residencial;0;0;10,5;10\n" +
		"U2;2;comercial;1;1;2;2\n"
	units, err := ReadUnits(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, units, 2)
	assert.Equal(t, "U1", units[0].ID)
	assert.Equal(t, map[string]string{"piso": "1", "uso": "residencial"}, units[0].Attrs)
	assert.Equal(t, 10.5, units[0].Env.MaxX)

	units, err = ReadUnits(strings.NewReader("id,minx,miny,maxx,maxy\nA,0,0,1,1\n"))
	require.NoError(t, err)
	assert.Len(t, units, 1)

	units, err = ReadUnits(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, units)
}

func TestReadUnits_Invalid(t *testing.T) {
	_, err := ReadUnits(strings.NewReader("piso,minx,miny,maxx,maxy\n1,0,0,1,1\n"))
	assert.ErrorContains(t, err, "id column")

	_, err = ReadUnits(strings.NewReader("id,minx,miny,maxx\nA,0,0,1\n"))
	assert.ErrorContains(t, err, "maxy")

	_, err = ReadUnits(strings.NewReader("id,minx,miny,maxx,maxy\nA,x,0,1,1\n"))
	assert.ErrorContains(t, err, "line 2")
}
