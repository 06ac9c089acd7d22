// Copyright 2024 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package errors provides basic utilities to construct errors.
//
// To construct new errors or wrap other errors, use this package rather than
// standard libraries (errors.New, fmt.Errorf). This package records stack
// traces and chained errors so that failed generator runs and test results
// leave readable logs.
//
// To construct a new error, use New or Errorf.
//
//	errors.New("module list is empty")
//	errors.Errorf("unknown abi %q", abi)
//
// To construct an error by adding context to an existing error, use Wrap or
// Wrapf.
//
//	errors.Wrap(err, "failed to download bundle")
//	errors.Wrapf(err, "failed to write control file %s", name)
//
// Errors additionally carry a Kind that maps them to the three result
// categories of a test run. See Fail, TestErr and NA.
//
// A stack trace can be printed by formatting an error with the "%+v" verb.
package errors

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Oliver-2023/autoTest-sub000/errors/stack"
)

// impl is the error implementation used by this package.
type impl struct {
	msg   string      // error message to be prepended to cause
	stk   stack.Stack // stack trace where this error was created
	cause error       // original error that caused this error if non-nil
	kind  Kind        // result category; kindUnset to inherit from cause
}

// Error implements the error interface.
func (e *impl) Error() string {
	if e.cause == nil {
		return e.msg
	}
	return fmt.Sprintf("%s: %s", e.msg, e.cause.Error())
}

// Unwrap returns the wrapped error so that Is and As can walk the chain.
func (e *impl) Unwrap() error {
	return e.cause
}

// formatChain formats an error chain.
func formatChain(err error) string {
	var chain []string
	for err != nil {
		e, ok := err.(*impl)
		if !ok {
			chain = append(chain, fmt.Sprintf("%s\n\tat ???", err.Error()))
			break
		}
		chain = append(chain, fmt.Sprintf("%s\n%v", e.msg, e.stk))
		err = e.cause
	}
	return strings.Join(chain, "\n")
}

// Format implements the fmt.Formatter interface.
// In particular, it is supported to format an error chain by "%+v" verb.
func (e *impl) Format(s fmt.State, verb rune) {
	if verb == 'v' && s.Flag('+') {
		io.WriteString(s, formatChain(e))
	} else {
		io.WriteString(s, e.Error())
	}
}

// New creates a new error with the given message.
// This is similar to the standard errors.New, but also records the location
// where it was called.
func New(msg string) error {
	return &impl{msg: msg, stk: stack.New(1)}
}

// Errorf creates a new error with the given message.
// This is similar to the standard fmt.Errorf, but also records the location
// where it was called.
func Errorf(format string, args ...interface{}) error {
	return &impl{msg: fmt.Sprintf(format, args...), stk: stack.New(1)}
}

// Wrap creates a new error with the given message, wrapping another error.
// If cause is nil, this is the same as New.
func Wrap(cause error, msg string) error {
	return &impl{msg: msg, stk: stack.New(1), cause: cause}
}

// Wrapf creates a new error with the given message, wrapping another error.
// If cause is nil, this is the same as Errorf.
func Wrapf(cause error, format string, args ...interface{}) error {
	return &impl{msg: fmt.Sprintf(format, args...), stk: stack.New(1), cause: cause}
}

// Is is the same as the standard errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is the same as the standard errors.As.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Unwrap is the same as the standard errors.Unwrap.
func Unwrap(err error) error {
	return errors.Unwrap(err)
}
