// SPDX-License-Identifier: AGPL-3.0-or-later
package clierr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bartekus/geovalida/internal/depgate"
	"github.com/bartekus/geovalida/internal/projectroot"
	"github.com/bartekus/geovalida/internal/workspace"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"nil", nil, 0},
		{"generic", errors.New("boom"), Generic},
		{"root", fmt.Errorf("resolve: %w", projectroot.ErrNotFound), RootNotFound},
		{"deps", fmt.Errorf("%w: numpy", depgate.ErrDependencyMissing), DependencyMissing},
		{"held", &workspace.HeldError{Path: "x.xlsx", Process: "EXCEL.EXE"}, WorkspaceHeld},
		{"coded", New(7, "custom"), 7},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.code, ExitCodeOf(Classify("geovalida", tc.err)))
		})
	}
}

func TestExitError_Unwraps(t *testing.T) {
	err := Classify("step", fmt.Errorf("x: %w", projectroot.ErrNotFound))
	assert.ErrorIs(t, err, projectroot.ErrNotFound)
	assert.Equal(t, "step: x: project root not found", err.Error())
	assert.Equal(t, Generic, ExitCodeOf(New(0, "zero")))
}
