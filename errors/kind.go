// Copyright 2024 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package errors

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/Oliver-2023/autoTest-sub000/errors/stack"
)

// Kind classifies an error into the result category recorded by the job
// runner.
type Kind int

const (
	kindUnset Kind = iota
	// KindFail means the test ran and the device misbehaved.
	KindFail
	// KindError means the test could not be run correctly.
	KindError
	// KindNA means the test does not apply to the device under test.
	KindNA
)

func (k Kind) String() string {
	switch k {
	case KindFail:
		return "TestFail"
	case KindError:
		return "TestError"
	case KindNA:
		return "TestNAError"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Fail creates a new error of KindFail.
func Fail(msg string) error {
	return &impl{msg: msg, stk: stack.New(1), kind: KindFail}
}

// Failf creates a new error of KindFail with a formatted message.
func Failf(format string, args ...interface{}) error {
	return &impl{msg: fmt.Sprintf(format, args...), stk: stack.New(1), kind: KindFail}
}

// TestErr creates a new error of KindError.
func TestErr(msg string) error {
	return &impl{msg: msg, stk: stack.New(1), kind: KindError}
}

// TestErrf creates a new error of KindError with a formatted message.
func TestErrf(format string, args ...interface{}) error {
	return &impl{msg: fmt.Sprintf(format, args...), stk: stack.New(1), kind: KindError}
}

// NA creates a new error of KindNA.
func NA(msg string) error {
	return &impl{msg: msg, stk: stack.New(1), kind: KindNA}
}

// NAf creates a new error of KindNA with a formatted message.
func NAf(format string, args ...interface{}) error {
	return &impl{msg: fmt.Sprintf(format, args...), stk: stack.New(1), kind: KindNA}
}

// WrapKind wraps cause like Wrap and overrides its kind.
func WrapKind(cause error, kind Kind, msg string) error {
	return &impl{msg: msg, stk: stack.New(1), cause: cause, kind: kind}
}

// KindOf returns the outermost kind set on the error chain of err.
// Errors that carry no kind, including ones from other packages, are
// reported as KindError. KindOf(nil) returns 0.
func KindOf(err error) Kind {
	if err == nil {
		return kindUnset
	}
	for e := err; e != nil; e = Unwrap(e) {
		if ie, ok := e.(*impl); ok && ie.kind != kindUnset {
			return ie.kind
		}
	}
	return KindError
}

// Append appends errs to err, flattening multi-errors. nil errors are
// skipped. It returns nil if no non-nil error is given.
func Append(err error, errs ...error) error {
	var nonNil []error
	for _, e := range errs {
		if e != nil {
			nonNil = append(nonNil, e)
		}
	}
	if len(nonNil) == 0 {
		return err
	}
	return multierror.Append(err, nonNil...)
}
