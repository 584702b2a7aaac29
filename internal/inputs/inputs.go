// SPDX-License-Identifier: AGPL-3.0-or-later

// Package inputs persists the per-model input registry: a flat JSON object
// mapping slot names to absolute file paths.
package inputs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bartekus/geovalida/internal/model"
	"github.com/bartekus/geovalida/internal/projection"
)

// ErrSlotMissing reports a slot a step needs but the registry lacks.
var ErrSlotMissing = errors.New("input slot missing")

// Registry maps slot names to paths.
type Registry map[string]string

// Require returns the path of a slot, or ErrSlotMissing.
func (r Registry) Require(slot string) (string, error) {
	p := strings.TrimSpace(r[slot])
	if p == "" {
		return "", fmt.Errorf("%w: %s", ErrSlotMissing, slot)
	}
	return p, nil
}

// Store reads and writes registries under one directory.
type Store struct {
	dir string
}

// NewStore creates a store rooted at the registry directory
// (Files/Temporary_Files/Ruta_Insumos).
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Path returns the registry file of a model.
func (s *Store) Path(v model.Variant) string {
	return filepath.Join(s.dir, v.RegistryFile())
}

// Load reads the model's registry. A missing file is an empty registry.
func (s *Store) Load(v model.Variant) (Registry, error) {
	data, err := os.ReadFile(s.Path(v))
	if os.IsNotExist(err) {
		return Registry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s registry: %w", v, err)
	}
	reg := Registry{}
	if len(strings.TrimSpace(string(data))) == 0 {
		return reg, nil
	}
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("decoding %s registry: %w", v, err)
	}
	return reg, nil
}

// Store writes the model's registry atomically. Keys are written sorted.
func (s *Store) Store(v model.Variant, reg Registry) error {
	if reg == nil {
		reg = Registry{}
	}
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s registry: %w", v, err)
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return err
	}
	return projection.AtomicWrite(s.Path(v), append(data, '\n'))
}

// Set updates one slot and persists the registry. An empty path removes it.
func (s *Store) Set(v model.Variant, slot, path string) (Registry, error) {
	reg, err := s.Load(v)
	if err != nil {
		return nil, err
	}
	if path = strings.TrimSpace(path); path == "" {
		delete(reg, slot)
	} else {
		reg[slot] = path
	}
	return reg, s.Store(v, reg)
}

// Warning is a non-blocking validation finding.
type Warning struct {
	Slot    string
	Message string
}

func (w Warning) String() string {
	return w.Slot + ": " + w.Message
}

// Validate checks suffixes and filename keywords against the model's slot
// vocabulary. It never rejects a registry.
func Validate(v model.Variant, reg Registry) []Warning {
	var out []Warning
	for _, slot := range v.Slots() {
		p := strings.TrimSpace(reg[slot.Name])
		if p == "" {
			continue
		}
		base := filepath.Base(strings.TrimRight(p, `/\`))
		if ext := filepath.Ext(base); !strings.EqualFold(ext, slot.Ext) {
			out = append(out, Warning{
				Slot:    slot.Name,
				Message: fmt.Sprintf("se esperaba un archivo %s, se recibió %q", slot.Ext, base),
			})
		}
		if slot.Keyword != "" && !strings.Contains(strings.ToLower(base), strings.ToLower(slot.Keyword)) {
			out = append(out, Warning{
				Slot:    slot.Name,
				Message: fmt.Sprintf("el nombre %q no contiene %q", base, slot.Keyword),
			})
		}
	}
	var unknown []string
	for name := range reg {
		if _, ok := v.Slot(name); !ok {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	for _, name := range unknown {
		out = append(out, Warning{Slot: name, Message: "campo desconocido para " + v.Title()})
	}
	return out
}
