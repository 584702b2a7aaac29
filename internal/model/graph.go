// SPDX-License-Identifier: AGPL-3.0-or-later
package model

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/dominikbraun/graph"
	"github.com/dominikbraun/graph/draw"

	"github.com/bartekus/geovalida/internal/palette"
)

func stepHash(s Step) int { return s.Index }

// Graph builds the data-dependency graph of the pipeline. Step b depends on
// step a when a is the latest step before b writing a layout entry b reads.
// Each edge carries the shared entries as data.
func (p Pipeline) Graph() (graph.Graph[int, Step], error) {
	g := graph.New(stepHash, graph.Directed(), graph.Acyclic(), graph.PreventCycles())

	for _, s := range p.steps {
		attrs := map[string]string{
			"label": fmt.Sprintf("%02d %s", s.Index, s.Name),
			"shape": "box",
		}
		if s.Manual {
			attrs["style"] = "filled"
			attrs["fillcolor"] = palette.Hex(palette.Orange)
		} else if s.Builtin != "" {
			attrs["color"] = palette.Hex(palette.Cyan)
		}
		if err := g.AddVertex(s, graph.VertexAttributes(attrs)); err != nil {
			return nil, fmt.Errorf("adding step %d: %w", s.Index, err)
		}
	}

	lastWriter := make(map[string]int)
	for _, s := range p.steps {
		shared := make(map[int][]string)
		for _, entry := range s.Reads {
			if w, ok := lastWriter[entry]; ok {
				shared[w] = append(shared[w], entry)
			}
		}
		for w, entries := range shared {
			err := g.AddEdge(w, s.Index, graph.EdgeData(entries))
			if err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
				return nil, fmt.Errorf("linking step %d to %d: %w", w, s.Index, err)
			}
		}
		for _, entry := range s.Writes {
			lastWriter[entry] = s.Index
		}
	}
	return g, nil
}

// Prerequisite is an unchosen step whose outputs a chosen step reads.
type Prerequisite struct {
	Step    Step
	Needs   Step
	Entries []string
}

// Prerequisites lists, for the chosen steps, the producers left out of the
// selection. The caller decides whether the produced entries already exist.
func (p Pipeline) Prerequisites(chosen []Step) ([]Prerequisite, error) {
	g, err := p.Graph()
	if err != nil {
		return nil, err
	}
	preds, err := g.PredecessorMap()
	if err != nil {
		return nil, err
	}

	picked := make(map[int]bool, len(chosen))
	for _, s := range chosen {
		picked[s.Index] = true
	}

	var out []Prerequisite
	for _, s := range chosen {
		var sources []int
		for src := range preds[s.Index] {
			if !picked[src] {
				sources = append(sources, src)
			}
		}
		sort.Ints(sources)
		for _, src := range sources {
			need, _ := p.Step(src)
			entries, _ := preds[s.Index][src].Properties.Data.([]string)
			out = append(out, Prerequisite{Step: s, Needs: need, Entries: entries})
		}
	}
	return out, nil
}

// WriteDOT renders the dependency graph in Graphviz format.
func (p Pipeline) WriteDOT(w io.Writer) error {
	g, err := p.Graph()
	if err != nil {
		return err
	}
	return draw.DOT(g, w, draw.GraphAttribute("label", p.Variant.Title()), draw.GraphAttribute("rankdir", "LR"))
}
