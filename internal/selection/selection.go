// SPDX-License-Identifier: AGPL-3.0-or-later

// Package selection reads and writes the dataset-selection file
// (Files/Temporary_Files/array_config.txt) that every step consults to
// decide which zones it processes.
//
// File format:
//
//	[
//	    "URBANO_CTM12",
//	    #"RURAL_CTM12",
//	    #"URBANO",
//	    #"RURAL"
//	]
//
// A leading # disables an entry. The vocabulary is closed and its order is
// fixed; the store never reorders it.
package selection

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/bartekus/geovalida/internal/projection"
	"github.com/bartekus/geovalida/internal/projectroot"
)

// Zone is one dataset subdivision.
type Zone string

const (
	UrbanoCTM12 Zone = "URBANO_CTM12"
	RuralCTM12  Zone = "RURAL_CTM12"
	Urbano      Zone = "URBANO"
	Rural       Zone = "RURAL"
)

// Vocabulary lists every zone in its canonical order.
var Vocabulary = []Zone{UrbanoCTM12, RuralCTM12, Urbano, Rural}

// ErrEmpty means no zone is enabled. Steps treat it as a no-op, not a failure.
var ErrEmpty = errors.New("no datasets selected")

// Entry is one line of the selection file.
type Entry struct {
	Zone    Zone
	Enabled bool
}

// Valid reports whether z belongs to the vocabulary.
func (z Zone) Valid() bool {
	for _, v := range Vocabulary {
		if v == z {
			return true
		}
	}
	return false
}

// Rural reports whether the zone holds rural parcels.
func (z Zone) Rural() bool {
	return z == RuralCTM12 || z == Rural
}

// Suffix is the title-cased marker steps append to per-zone artifacts,
// e.g. "Urbano" for the topology workbook "Reporte_Topologia_Urbano.xlsx".
func (z Zone) Suffix() string {
	if z.Rural() {
		return "Rural"
	}
	return "Urbano"
}

// Default is the selection used when the file is missing or empty.
func Default() []Entry {
	return []Entry{
		{Zone: UrbanoCTM12, Enabled: true},
		{Zone: RuralCTM12, Enabled: true},
		{Zone: Urbano},
		{Zone: Rural},
	}
}

// Enabled returns the enabled zones in vocabulary order.
func Enabled(entries []Entry) []Zone {
	on := make(map[Zone]bool, len(entries))
	for _, e := range entries {
		if e.Enabled {
			on[e.Zone] = true
		}
	}
	var zones []Zone
	for _, z := range Vocabulary {
		if on[z] {
			zones = append(zones, z)
		}
	}
	return zones
}

// Store reads and writes one selection file.
type Store struct {
	path string
}

// NewStore returns the store for the project rooted at root.
func NewStore(root string) *Store {
	return &Store{path: projectroot.SelectionPath(root)}
}

// NewStoreAt returns a store bound to an explicit file path.
func NewStoreAt(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file.
func (s *Store) Path() string { return s.path }

// Read parses the selection file. A missing or empty file yields Default.
func (s *Store) Read() ([]Entry, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading selection %s: %w", s.path, err)
	}
	return Parse(data), nil
}

// Write serializes entries in vocabulary order.
func (s *Store) Write(entries []Entry) error {
	return projection.AtomicWrite(s.path, Format(entries))
}

// EnabledZones reads the file and returns the enabled zones, or ErrEmpty.
func (s *Store) EnabledZones() ([]Zone, error) {
	entries, err := s.Read()
	if err != nil {
		return nil, err
	}
	zones := Enabled(entries)
	if len(zones) == 0 {
		return nil, ErrEmpty
	}
	return zones, nil
}

// Parse decodes the bracketed selection format. Unknown tokens and blank
// lines are ignored; a zone absent from the file is disabled. When no known
// token is present the default selection applies.
func Parse(data []byte) []Entry {
	seen := make(map[Zone]bool)
	on := make(map[Zone]bool)

	for _, line := range strings.Split(string(data), "\n") {
		for _, tok := range strings.Split(line, ",") {
			zone, enabled, ok := parseToken(tok)
			if !ok {
				continue
			}
			seen[zone] = true
			if enabled {
				on[zone] = true
			}
		}
	}

	if len(seen) == 0 {
		return Default()
	}

	entries := make([]Entry, 0, len(Vocabulary))
	for _, z := range Vocabulary {
		entries = append(entries, Entry{Zone: z, Enabled: on[z]})
	}
	return entries
}

func parseToken(tok string) (Zone, bool, bool) {
	tok = strings.TrimSpace(tok)
	tok = strings.Trim(tok, "[]")
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return "", false, false
	}

	enabled := true
	if strings.HasPrefix(tok, "#") {
		enabled = false
		tok = strings.TrimLeft(tok, "#")
	}
	tok = strings.Trim(strings.TrimSpace(tok), `"'[],`)

	zone := Zone(strings.ToUpper(tok))
	if !zone.Valid() {
		return "", false, false
	}
	return zone, enabled, true
}

// Format encodes entries in the bracketed format. Every vocabulary zone is
// written; zones missing from entries are written disabled.
func Format(entries []Entry) []byte {
	on := make(map[Zone]bool, len(entries))
	for _, e := range entries {
		if e.Enabled {
			on[e.Zone] = true
		}
	}

	var b bytes.Buffer
	b.WriteString("[\n")
	for i, z := range Vocabulary {
		b.WriteString("    ")
		if !on[z] {
			b.WriteString("#")
		}
		fmt.Fprintf(&b, "%q", string(z))
		if i < len(Vocabulary)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString("]\n")
	return b.Bytes()
}
