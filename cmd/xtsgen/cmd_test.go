// Copyright 2024 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package main

import (
	"archive/zip"
	"bytes"
	"context"
	"flag"
	"io"
	"testing"

	"github.com/google/subcommands"
)

// executeCmd parses args with the flags of cmd and executes it.
func executeCmd(t *testing.T, cmd subcommands.Command, args []string) subcommands.ExitStatus {
	t.Helper()
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.SetOutput(io.Discard)
	cmd.SetFlags(flags)
	if err := flags.Parse(args); err != nil {
		t.Fatal(err)
	}
	return cmd.Execute(context.Background(), flags)
}

// fakeBundle returns a zipped bundle whose tradefed prints listing.
func fakeBundle(t *testing.T, listing string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("android-cts/tools/cts-tradefed")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := io.WriteString(w, "#!/bin/sh\ncat <<'EOF'\n"+listing+"EOF\n"); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

const listing = `Android Compatibility Test Suite 11_r3 (7654321)
arm64-v8a CtsAppTestCases
arm64-v8a CtsNetTestCases
armeabi-v7a CtsAppTestCases
armeabi-v7a CtsNetTestCases
`
