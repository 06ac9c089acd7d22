// Copyright 2024 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package shutil quotes and splits shell command lines. It is used to log
// tradefed invocations and to parse command-line fragments from
// configuration.
package shutil

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/shlex"

	"github.com/Oliver-2023/autoTest-sub000/errors"
)

const (
	// \w is [0-9A-Za-z_]. A leading equals sign is unsafe in zsh.
	leadingSafeChars  = `-\w@%+:,./`
	trailingSafeChars = leadingSafeChars + "="
)

var safeRE = regexp.MustCompile(fmt.Sprintf("^[%s][%s]*$", leadingSafeChars, trailingSafeChars))

// Escape quotes s so it can be included as a single argument in a shell
// command line. s is returned as is if no quoting is needed.
func Escape(s string) string {
	if safeRE.MatchString(s) {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}

// EscapeSlice joins args into a shell command line, quoting each one with
// Escape.
func EscapeSlice(args []string) string {
	escaped := make([]string, len(args))
	for i, arg := range args {
		escaped[i] = Escape(arg)
	}
	return strings.Join(escaped, " ")
}

// Split splits a command line into arguments using shell-like quoting rules.
// It is the inverse of EscapeSlice.
func Split(cmdline string) ([]string, error) {
	args, err := shlex.Split(cmdline)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to split %q", cmdline)
	}
	return args, nil
}
