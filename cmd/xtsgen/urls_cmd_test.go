// Copyright 2024 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package main

import (
	"bytes"
	"testing"

	"github.com/google/subcommands"
)

const urlConfig = "../../internal/xts/bundle/testdata/cts_r.json"

func TestURLsCmd(t *testing.T) {
	for _, tc := range []struct {
		args   []string
		status subcommands.ExitStatus
		want   string
	}{
		{
			[]string{"-url_config", urlConfig, "-type", "LATEST"},
			subcommands.ExitSuccess,
			"gs://chromeos-arc-images/cts/bundle/R/android-cts-11_r9-linux_x86-arm.zip\n" +
				"gs://chromeos-arc-images/cts/bundle/R/android-cts-11_r9-linux_x86-x86.zip\n",
		},
		{
			[]string{"-url_config", urlConfig, "-type", "dev_moblab", "-abi", "x86"},
			subcommands.ExitSuccess,
			"gs://chromeos-partner-gts/R/android-cts-9099362-linux_x86-x86.zip\n",
		},
		{
			[]string{"-url_config", urlConfig, "-abi", "arm"},
			subcommands.ExitSuccess,
			"https://dl.google.com/dl/android/cts/android-cts-11_r9-linux_x86-arm.zip\n",
		},
		{[]string{"-url_config", urlConfig, "-type", "NIGHTLY"}, subcommands.ExitUsageError, ""},
		{[]string{"-url_config", urlConfig, "-abi", "mips"}, subcommands.ExitFailure, ""},
		{[]string{"-type", "LATEST"}, subcommands.ExitUsageError, ""},
	} {
		var stdout, stderr bytes.Buffer
		cmd := newURLsCmd(&stdout)
		cmd.stderr = &stderr
		if status := executeCmd(t, cmd, tc.args); status != tc.status {
			t.Errorf("urls %v returned status %v; want %v (stderr %q)", tc.args, status, tc.status, stderr.String())
			continue
		}
		if got := stdout.String(); got != tc.want {
			t.Errorf("urls %v printed %q; want %q", tc.args, got, tc.want)
		}
	}
}
