// SPDX-License-Identifier: AGPL-3.0-or-later
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v4/process"
)

// holderOf is swapped in tests.
var holderOf = findHolder

// findHolder looks for another process with path open, or any file beneath
// path when it is a directory. It returns the open file and a description of
// the process, or two empty strings.
func findHolder(path string) (string, string) {
	target, err := filepath.Abs(path)
	if err != nil {
		return "", ""
	}
	if resolved, err := filepath.EvalSymlinks(target); err == nil {
		target = resolved
	}

	procs, err := process.Processes()
	if err != nil {
		return "", ""
	}
	self := int32(os.Getpid())

	for _, p := range procs {
		if p.Pid == self {
			continue
		}
		files, err := p.OpenFiles()
		if err != nil {
			continue
		}
		for _, f := range files {
			if within(f.Path, target) {
				return f.Path, describe(p)
			}
		}
	}
	return "", ""
}

func within(file, dir string) bool {
	if runtime.GOOS == "windows" {
		file, dir = strings.ToLower(file), strings.ToLower(dir)
	}
	return file == dir || strings.HasPrefix(file, dir+string(filepath.Separator))
}

func describe(p *process.Process) string {
	name, err := p.Name()
	if err != nil || name == "" {
		return fmt.Sprintf("pid %d", p.Pid)
	}
	return fmt.Sprintf("%s (pid %d)", name, p.Pid)
}
