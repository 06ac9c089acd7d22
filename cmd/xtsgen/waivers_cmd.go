// Copyright 2024 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"

	"github.com/Oliver-2023/autoTest-sub000/command"
	"github.com/Oliver-2023/autoTest-sub000/internal/logging"
	"github.com/Oliver-2023/autoTest-sub000/internal/xts/module"
	"github.com/Oliver-2023/autoTest-sub000/internal/xts/waiver"
)

// waiverFlags selects waiver files and the device they are applied to.
type waiverFlags struct {
	files   []string
	dir     string
	pattern string
	dut     waiver.DUT
}

func (w *waiverFlags) SetFlags(f *flag.FlagSet) {
	f.Var(command.NewListFlag(",", func(v []string) { w.files = v }, nil), "waivers", "comma-separated list of waiver files")
	f.StringVar(&w.dir, "waiver_dir", "", "directory searched for waiver files")
	f.StringVar(&w.pattern, "waiver_glob", "**/*.yaml", "pattern of waiver files under -waiver_dir")
	f.StringVar(&w.dut.Arch, "arch", "arm", "DUT architecture: arm or x86")
	f.StringVar(&w.dut.Board, "board", "", "DUT board")
	f.StringVar(&w.dut.Model, "model", "", "DUT model")
	f.StringVar(&w.dut.BundleABI, "bundle_abi", "", "ABI of the bundle; the DUT architecture if empty")
	f.IntVar(&w.dut.SDKVersion, "sdk_api_level", 0, "SDK API level of the DUT")
	f.IntVar(&w.dut.FirstAPILevel, "shipping_api_level", 0, "API level the DUT shipped with")
	f.BoolVar(&w.dut.HostSide, "host", false, "select waivers of host-side runs")
}

// find returns the waived modules and tests.
func (w *waiverFlags) find(ctx context.Context) (module.Set, error) {
	paths := append([]string(nil), w.files...)
	if w.dir != "" {
		found, err := waiver.Find(w.dir, w.pattern)
		if err != nil {
			return nil, err
		}
		paths = append(paths, found...)
	}
	if len(paths) == 0 {
		return module.NewSet(), nil
	}
	logging.Debugf(ctx, "Loading waivers from %v", paths)
	ws, err := waiver.Load(paths)
	if err != nil {
		return nil, err
	}
	dut := w.dut
	if dut.BundleABI == "" {
		dut.BundleABI = dut.Arch
	}
	return ws.FindWaivers(&dut), nil
}

// waiversCmd implements subcommands.Command to print the waivers applying
// to a device.
type waiversCmd struct {
	waivers waiverFlags
	stdout  io.Writer
	stderr  io.Writer
}

var _ = subcommands.Command(&waiversCmd{})

func newWaiversCmd(stdout io.Writer) *waiversCmd {
	return &waiversCmd{stdout: stdout, stderr: os.Stderr}
}

func (*waiversCmd) Name() string     { return "waivers" }
func (*waiversCmd) Synopsis() string { return "print waived tests of a device" }
func (*waiversCmd) Usage() string {
	return `Usage: waivers [flag]...

Description:
    Print the modules and tests whose failures are expected on a device,
    one per line.

Flag:
`
}

func (wc *waiversCmd) SetFlags(f *flag.FlagSet) {
	wc.waivers.SetFlags(f)
}

func (wc *waiversCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	waived, err := wc.waivers.find(ctx)
	if err != nil {
		return command.WriteError(wc.stderr, err)
	}
	for _, name := range waived.Sorted() {
		fmt.Fprintln(wc.stdout, name)
	}
	return subcommands.ExitSuccess
}
