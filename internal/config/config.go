// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads the optional shell configuration geovalida.yaml from
// the project root. Every field has a compiled-in default; a missing file is
// not an error.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/bartekus/geovalida/internal/model"
)

// FileName is the configuration file at the project root.
const FileName = "geovalida.yaml"

// Config is the shell configuration.
type Config struct {
	// Interpreter runs external steps and the dependency checks.
	Interpreter string `yaml:"interpreter"`
	// GeoprocessingModule is probed for importability, never installed.
	GeoprocessingModule string `yaml:"geoprocessing_module"`
	// Tabs maps a variant name to its enable flag. Absent variants are enabled.
	Tabs map[string]bool `yaml:"tabs"`
	// Dependencies maps package names to required versions; empty means any.
	Dependencies map[string]string `yaml:"dependencies"`
}

// Default returns the compiled-in configuration.
func Default() *Config {
	return &Config{
		Interpreter:         "python",
		GeoprocessingModule: "arcpy",
		Tabs:                map[string]bool{},
		Dependencies: map[string]string{
			// Older environments ship incompatible builds of these two.
			"numpy":  "1.24.4",
			"pandas": "2.0.3",

			"openpyxl":    "",
			"xlsxwriter":  "",
			"python-docx": "",
			"colorama":    "",
		},
	}
}

// Load reads root/geovalida.yaml over the defaults.
func Load(root string) (*Config, error) {
	c := Default()
	path := filepath.Join(root, FileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", path, err)
	}
	if s := strings.TrimSpace(file.Interpreter); s != "" {
		c.Interpreter = s
	}
	if file.GeoprocessingModule != "" {
		c.GeoprocessingModule = strings.TrimSpace(file.GeoprocessingModule)
	}
	for k, v := range file.Tabs {
		parsed, err := model.Parse(k)
		if err != nil {
			return nil, fmt.Errorf("%s: tabs: %w", path, err)
		}
		c.Tabs[string(parsed)] = v
	}
	// A dependencies block replaces the default map.
	if file.Dependencies != nil {
		c.Dependencies = file.Dependencies
	}
	return c, nil
}

// TabEnabled reports the enable flag of a variant. Safe on a nil receiver.
func (c *Config) TabEnabled(v model.Variant) bool {
	if c == nil {
		return true
	}
	on, ok := c.Tabs[string(v)]
	return !ok || on
}

// InterpreterOrDefault is safe on a nil receiver.
func (c *Config) InterpreterOrDefault() string {
	if c == nil || c.Interpreter == "" {
		return Default().Interpreter
	}
	return c.Interpreter
}
