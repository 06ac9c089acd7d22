// Copyright 2024 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package exec runs host commands with their command lines and failures
// recorded to the context logger.
package exec

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/Oliver-2023/autoTest-sub000/errors"
	"github.com/Oliver-2023/autoTest-sub000/internal/logging"
	"github.com/Oliver-2023/autoTest-sub000/shutil"
)

// RunOption is enum of options which can be passed to Output to control
// precise behavior of it.
type RunOption int

// DumpLogOnError is an option to dump logs if the executed command fails
// (i.e., exited with non-zero status code).
const DumpLogOnError RunOption = iota

// Output runs name with args and returns its stdout. Stdin is connected to
// the null device; some tools exit early when stdin is not a terminal and
// would otherwise consume the caller's input.
func Output(ctx context.Context, name string, args []string, opts ...RunOption) ([]byte, error) {
	argv := append([]string{name}, args...)
	logging.Debugf(ctx, "Running %s", shutil.EscapeSlice(argv))

	devNull, err := os.Open(os.DevNull)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open null device")
	}
	defer devNull.Close()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = devNull
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		for _, o := range opts {
			if o == DumpLogOnError {
				dumpLog(ctx, argv, stdout.String(), stderr.String())
			}
		}
		return stdout.Bytes(), errors.Wrapf(err, "%s failed", shutil.EscapeSlice(argv))
	}
	return stdout.Bytes(), nil
}

func dumpLog(ctx context.Context, argv []string, stdout, stderr string) {
	logging.Infof(ctx, "Command failed: %s", shutil.EscapeSlice(argv))
	for _, s := range []struct {
		name, out string
	}{{"stdout", stdout}, {"stderr", stderr}} {
		if strings.TrimSpace(s.out) == "" {
			continue
		}
		logging.Infof(ctx, "%s:\n%s", s.name, strings.TrimRight(s.out, "\n"))
	}
}
