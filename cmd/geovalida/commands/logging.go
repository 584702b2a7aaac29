// SPDX-License-Identifier: AGPL-3.0-or-later
package commands

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bartekus/geovalida/internal/projectroot"
)

// LogFile collects the diagnostics of the shell and of every built-in step.
const LogFile = "geovalida.log"

// setupLogging points the default slog logger at root's log file. Child
// steps share the file; their stderr belongs to the console.
func setupLogging(cmd *cobra.Command, root string) io.Closer {
	level := slog.LevelInfo
	if v, _ := cmd.Flags().GetBool("verbose"); v {
		level = slog.LevelDebug
	}

	var out io.Writer = io.Discard
	var closer io.Closer = io.NopCloser(nil)
	dir := projectroot.TempFiles(root)
	if err := os.MkdirAll(dir, 0o755); err == nil {
		f, err := os.OpenFile(filepath.Join(dir, LogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err == nil {
			out, closer = f, f
		}
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})))
	return closer
}
