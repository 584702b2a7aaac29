// SPDX-License-Identifier: AGPL-3.0-or-later

// Package duplicates synthesises duplicate-unit errors the geoprocessing
// runtime misses. The matching heuristic is a named Policy.
package duplicates

import (
	"sort"
	"strings"
)

// Envelope is an axis-aligned bounding box.
type Envelope struct {
	MinX, MinY, MaxX, MaxY float64
}

// Area is zero for degenerate envelopes.
func (e Envelope) Area() float64 {
	w, h := e.MaxX-e.MinX, e.MaxY-e.MinY
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// Intersect returns the shared box; it may be degenerate.
func (e Envelope) Intersect(o Envelope) Envelope {
	return Envelope{
		MinX: max(e.MinX, o.MinX),
		MinY: max(e.MinY, o.MinY),
		MaxX: min(e.MaxX, o.MaxX),
		MaxY: min(e.MaxY, o.MaxY),
	}
}

// Overlap is the shared area as a fraction of the larger envelope, so both
// envelopes are covered at least that much.
func (e Envelope) Overlap(o Envelope) float64 {
	larger := max(e.Area(), o.Area())
	if larger == 0 {
		return 0
	}
	return e.Intersect(o).Area() / larger
}

// Unit is one construction unit read from the topology errors export.
type Unit struct {
	ID    string
	Attrs map[string]string
	Env   Envelope
}

// Pair is a detected duplicate; A sorts before B.
type Pair struct {
	A, B    Unit
	Overlap float64
}

// Policy decides which units duplicate each other.
type Policy interface {
	Name() string
	Find(units []Unit) []Pair
}

// DefaultMinOverlap is the envelope overlap above which equal units are
// duplicates.
const DefaultMinOverlap = 0.95

// AttributeOverlap pairs units with equal attributes whose envelopes overlap
// by more than MinOverlap.
type AttributeOverlap struct {
	// Keys are the compared attributes; empty compares every attribute.
	Keys       []string
	MinOverlap float64
}

// Name implements Policy.
func (AttributeOverlap) Name() string { return "atributos_solape" }

// Find implements Policy. Units are grouped by attribute signature so only
// candidates with equal attributes are compared.
func (p AttributeOverlap) Find(units []Unit) []Pair {
	limit := p.MinOverlap
	if limit == 0 {
		limit = DefaultMinOverlap
	}

	groups := map[string][]Unit{}
	for _, u := range units {
		sig := p.signature(u)
		groups[sig] = append(groups[sig], u)
	}

	var out []Pair
	for _, g := range groups {
		sort.Slice(g, func(i, j int) bool { return g[i].ID < g[j].ID })
		for i := 0; i < len(g); i++ {
			for j := i + 1; j < len(g); j++ {
				if ov := g[i].Env.Overlap(g[j].Env); ov > limit {
					out = append(out, Pair{A: g[i], B: g[j], Overlap: ov})
				}
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].A.ID != out[j].A.ID {
			return out[i].A.ID < out[j].A.ID
		}
		return out[i].B.ID < out[j].B.ID
	})
	return out
}

func (p AttributeOverlap) signature(u Unit) string {
	keys := p.Keys
	if len(keys) == 0 {
		keys = make([]string, 0, len(u.Attrs))
		for k := range u.Attrs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
	}
	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(strings.TrimSpace(u.Attrs[k]))
		b.WriteByte(0)
	}
	return b.String()
}

var policies = map[string]Policy{
	AttributeOverlap{}.Name(): AttributeOverlap{MinOverlap: DefaultMinOverlap},
}

// Default is the policy used by the duplicates step.
func Default() Policy {
	return policies["atributos_solape"]
}
