// SPDX-License-Identifier: AGPL-3.0-or-later
package runner

import (
	"errors"
	"fmt"
)

// Status is the indicator state of one step.
type Status int

const (
	Pending Status = iota
	Running
	Completed
	Error
)

func (s Status) String() string {
	switch s {
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Error:
		return "error"
	default:
		return "pending"
	}
}

// Terminal reports whether no further transition follows.
func (s Status) Terminal() bool {
	return s == Completed || s == Error
}

var (
	// ErrExitNonZero wraps a child's non-zero exit.
	ErrExitNonZero = errors.New("step exited with non-zero status")
	// ErrCancelled is the outcome of a stopped step.
	ErrCancelled = errors.New("step cancelled")
)

// ExitStatus is a child's non-zero exit; it matches ErrExitNonZero.
type ExitStatus struct {
	Code int
}

func (e *ExitStatus) Error() string {
	return fmt.Sprintf("%v: exit status %d", ErrExitNonZero, e.Code)
}

func (e *ExitStatus) Is(target error) bool { return target == ErrExitNonZero }
