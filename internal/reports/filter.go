// SPDX-License-Identifier: AGPL-3.0-or-later
package reports

import (
	"path/filepath"
	"sort"
	"strings"
)

// FilterOptions selects the free-form documents copied from the scratch root.
type FilterOptions struct {
	// IncludeExtensions is matched case-insensitively. Empty includes all.
	IncludeExtensions []string
	// ExcludePrefixes drops names such as office lock files ("~$").
	ExcludePrefixes []string
}

// DocumentFilter is the filter applied to top-level report documents.
func DocumentFilter() FilterOptions {
	return FilterOptions{
		IncludeExtensions: []string{".docx", ".xlsx", ".pdf", ".html", ".txt"},
		ExcludePrefixes:   []string{"~$"},
	}
}

// FilterNames applies the options to base names and returns them sorted.
func FilterNames(names []string, opts FilterOptions) []string {
	var out []string
	for _, n := range names {
		if hasPrefix(n, opts.ExcludePrefixes) || !hasExtension(n, opts.IncludeExtensions) {
			continue
		}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func hasPrefix(name string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

func hasExtension(name string, exts []string) bool {
	if len(exts) == 0 {
		return true
	}
	ext := filepath.Ext(name)
	for _, e := range exts {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}
