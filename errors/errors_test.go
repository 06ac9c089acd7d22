// Copyright 2024 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package errors

import (
	"errors"
	"fmt"
	"regexp"
	"testing"
)

func check(t *testing.T, err error, msg string, traceRegexp *regexp.Regexp) {
	t.Helper()
	if s := err.Error(); s != msg {
		t.Errorf("Wrong error message %q; want %q", s, msg)
	}
	if s := fmt.Sprintf("%v", err); s != msg {
		t.Errorf("Wrong default value %q; want %q", s, msg)
	}
	if tr := fmt.Sprintf("%+v", err); !traceRegexp.MatchString(tr) {
		t.Errorf("Wrong trace %q; should match %q", tr, traceRegexp)
	}
}

func TestNew(t *testing.T) {
	traceRegexp := regexp.MustCompile(`^bundle missing
	at .*/errors\.TestNew \(errors_test.go:\d+\)`)
	check(t, New("bundle missing"), "bundle missing", traceRegexp)
}

func TestErrorf(t *testing.T) {
	traceRegexp := regexp.MustCompile(`^abi x86 unknown
	at .*/errors\.TestErrorf \(errors_test.go:\d+\)`)
	check(t, Errorf("abi %s unknown", "x86"), "abi x86 unknown", traceRegexp)
}

func TestWrap(t *testing.T) {
	traceRegexp := regexp.MustCompile(`(?s)^outer
	at .*/errors\.TestWrap \(errors_test.go:\d+\)
.*
inner
	at .*/errors\.TestWrap \(errors_test.go:\d+\)`)
	check(t, Wrap(New("inner"), "outer"), "outer: inner", traceRegexp)
}

func TestWrapForeignError(t *testing.T) {
	traceRegexp := regexp.MustCompile(`(?s)^outer
	at .*/errors\.TestWrapForeignError \(errors_test.go:\d+\)
.*
inner
	at \?\?\?$`)
	check(t, Wrap(errors.New("inner"), "outer"), "outer: inner", traceRegexp)
}

func TestWrapNil(t *testing.T) {
	traceRegexp := regexp.MustCompile(`^outer
	at .*/errors\.TestWrapNil \(errors_test.go:\d+\)`)
	check(t, Wrap(nil, "outer"), "outer", traceRegexp)
}

func TestWrapf(t *testing.T) {
	traceRegexp := regexp.MustCompile(`(?s)^outer 3
	at .*/errors\.TestWrapf \(errors_test.go:\d+\)
.*
inner`)
	check(t, Wrapf(New("inner"), "outer %d", 3), "outer 3: inner", traceRegexp)
}

func TestIsThroughWrap(t *testing.T) {
	sentinel := errors.New("sentinel")
	err := Wrapf(Wrap(sentinel, "middle"), "outer")
	if !Is(err, sentinel) {
		t.Errorf("Is(%q, sentinel) = false; want true", err)
	}
	if Unwrap(Unwrap(err)) != sentinel {
		t.Errorf("Unwrap twice did not reach sentinel")
	}
}
