// SPDX-License-Identifier: AGPL-3.0-or-later
package steps

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jonas-p/go-shp"
)

// Sidecar extensions copied together with a .shp.
var shapeSidecars = []string{".shp", ".shx", ".dbf", ".prj", ".cpg", ".sbn", ".sbx", ".qix", ".shp.xml"}

// ShapeSet is the files of one shapefile sharing a stem.
type ShapeSet struct {
	Dir   string
	Stem  string
	Files []string // base names
}

// Shp is the main file path.
func (s ShapeSet) Shp() string {
	return filepath.Join(s.Dir, s.Stem+".shp")
}

// FindShapeSets walks root and returns every shapefile set, sorted by path.
// A missing root yields no sets.
func FindShapeSets(root string) ([]ShapeSet, error) {
	var sets []ShapeSet
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, os.ErrNotExist) && path == root {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".shp") {
			return nil
		}
		dir := filepath.Dir(path)
		stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		set := ShapeSet{Dir: dir, Stem: stem}
		for _, ext := range shapeSidecars {
			name := stem + ext
			if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
				set.Files = append(set.Files, name)
			}
		}
		if len(set.Files) == 0 {
			// Upper-case extension on a case-sensitive filesystem.
			set.Files = []string{filepath.Base(path)}
		}
		sets = append(sets, set)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(sets, func(i, j int) bool { return sets[i].Shp() < sets[j].Shp() })
	return sets, nil
}

// FeatureCount reads the set's geometry records together with their
// attribute rows and returns how many there are.
func FeatureCount(set ShapeSet) (int, error) {
	geom, err := os.Open(set.Shp())
	if err != nil {
		return 0, fmt.Errorf("opening %s: %w", set.Stem, err)
	}
	table, err := os.Open(filepath.Join(set.Dir, set.Stem+".dbf"))
	if err != nil {
		_ = geom.Close()
		return 0, fmt.Errorf("opening attributes of %s: %w", set.Stem, err)
	}

	sr := shp.SequentialReaderFromExt(geom, table)
	defer func() { _ = sr.Close() }()

	n := 0
	for sr.Next() {
		n++
	}
	if err := sr.Err(); err != nil {
		return 0, fmt.Errorf("reading %s: %w", set.Stem, err)
	}
	return n, nil
}
