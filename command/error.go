// Copyright 2024 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package command

import (
	"fmt"
	"io"

	"github.com/google/subcommands"
)

// StatusError implements the error interface and contains an additional status code.
type StatusError struct {
	msg    string
	status subcommands.ExitStatus
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%v (status %v)", e.msg, e.status)
}

// Status returns e's status code.
func (e *StatusError) Status() subcommands.ExitStatus {
	return e.status
}

// NewStatusErrorf creates a StatusError with the passed status code and formatted string.
func NewStatusErrorf(status subcommands.ExitStatus, format string, args ...interface{}) *StatusError {
	return &StatusError{fmt.Sprintf(format, args...), status}
}

// UsageErrorf creates a StatusError reporting a command line mistake.
func UsageErrorf(format string, args ...interface{}) *StatusError {
	return NewStatusErrorf(subcommands.ExitUsageError, format, args...)
}

// WriteError writes a newline-terminated fatal error to w and returns the status code to use when exiting.
// If err is not a *StatusError, subcommands.ExitFailure is returned.
func WriteError(w io.Writer, err error) subcommands.ExitStatus {
	var msg string
	status := subcommands.ExitFailure

	if se, ok := err.(*StatusError); ok {
		msg = se.msg
		status = se.status
	} else {
		msg = err.Error()
	}

	if len(msg) > 0 && msg[len(msg)-1] != '\n' {
		msg += "\n"
	}
	io.WriteString(w, msg)

	return status
}
