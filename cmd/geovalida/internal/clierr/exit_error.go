// SPDX-License-Identifier: AGPL-3.0-or-later
package clierr

import (
	"errors"
	"fmt"

	"github.com/bartekus/geovalida/internal/depgate"
	"github.com/bartekus/geovalida/internal/projectroot"
	"github.com/bartekus/geovalida/internal/workspace"
)

// Process exit codes.
const (
	Generic           = 1
	RootNotFound      = 2
	DependencyMissing = 3
	WorkspaceHeld     = workspace.HeldExitCode
)

type ExitCoder interface {
	error
	ExitCode() int
}

// ExitError is an error that carries an explicit process exit code.
// It supports wrapping via Unwrap so errors.Is/As work as expected.
type ExitError struct {
	code  int
	msg   string
	cause error
}

func (e *ExitError) Error() string {
	if e.cause == nil {
		return e.msg
	}
	return fmt.Sprintf("%s: %v", e.msg, e.cause)
}

func (e *ExitError) ExitCode() int { return e.code }

func (e *ExitError) Unwrap() error { return e.cause }

// New creates an ExitError with a message.
func New(code int, msg string) error {
	return &ExitError{code: normalize(code), msg: msg}
}

// Wrap creates an ExitError that wraps an underlying cause.
func Wrap(code int, msg string, cause error) error {
	if cause == nil {
		return New(code, msg)
	}
	return &ExitError{code: normalize(code), msg: msg, cause: cause}
}

// Classify wraps err with the exit code of its domain failure. Errors that
// already carry a code pass through.
func Classify(msg string, err error) error {
	if err == nil {
		return nil
	}
	var ec ExitCoder
	if errors.As(err, &ec) {
		return err
	}
	var held *workspace.HeldError
	switch {
	case errors.Is(err, projectroot.ErrNotFound):
		return Wrap(RootNotFound, msg, err)
	case errors.Is(err, depgate.ErrDependencyMissing):
		return Wrap(DependencyMissing, msg, err)
	case errors.As(err, &held):
		return Wrap(WorkspaceHeld, msg, err)
	}
	return Wrap(Generic, msg, err)
}

// ExitCodeOf extracts an exit code from any error, defaulting to 1.
func ExitCodeOf(err error) int {
	if err == nil {
		return 0
	}
	var ec ExitCoder
	if errors.As(err, &ec) {
		return ec.ExitCode()
	}
	return Generic
}

func normalize(code int) int {
	// Exit code 0 means success; errors should never be 0.
	if code <= 0 {
		return Generic
	}
	return code
}
