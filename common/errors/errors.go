// Package errors carries a process exit code alongside an error so the CLI
// can report distinct failure classes to its caller.
package errors

import (
	"errors"
	"fmt"
)

type ExitCodeError struct {
	code ExitCode
	error
}

func NewError(err error, exitCode ExitCode) *ExitCodeError {
	if err == nil {
		return nil
	}
	return &ExitCodeError{exitCode, err}
}

func NewErrorf(exitCode ExitCode, format string, args ...interface{}) *ExitCodeError {
	return &ExitCodeError{exitCode, fmt.Errorf(format, args...)}
}

func (e *ExitCodeError) GetExitCode() ExitCode {
	if e == nil {
		return 0
	}
	return e.code
}

func (e *ExitCodeError) Unwrap() error {
	return e.error
}

// ExitCodeOf returns the code carried by err or any error it wraps.
// Errors without one map to InternalErrorExitCode; nil maps to SuccessExitCode.
func ExitCodeOf(err error) ExitCode {
	if err == nil {
		return SuccessExitCode
	}
	var ece *ExitCodeError
	if errors.As(err, &ece) {
		return ece.GetExitCode()
	}
	return InternalErrorExitCode
}
