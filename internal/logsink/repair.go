// SPDX-License-Identifier: AGPL-3.0-or-later
package logsink

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Lead characters of UTF-8 sequences that were decoded as Windows-1252.
const mojibakeLeads = "ÃÂâ"

// Repair undoes double-encoded UTF-8, e.g. "validaciÃ³n" → "validación".
// Text that does not round-trip through Windows-1252 into valid UTF-8 is
// returned unchanged. The result is for display only.
func Repair(text string) string {
	if !strings.ContainsAny(text, mojibakeLeads) {
		return text
	}
	raw, err := charmap.Windows1252.NewEncoder().String(text)
	if err != nil || !utf8.ValidString(raw) || raw == text {
		return text
	}
	return raw
}
