// Copyright 2024 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package controlfile

import (
	"fmt"
	"strings"

	"github.com/Oliver-2023/autoTest-sub000/errors"
	"github.com/Oliver-2023/autoTest-sub000/internal/xts/module"
)

// RunOptions describes one tradefed invocation of a control file.
type RunOptions struct {
	// ABI is the tradefed ABI name, e.g. "arm64-v8a", or "" to run all.
	ABI   string
	Shard Shard
	Retry bool
	// WholeModuleSet is all modules of the bundle. If set, modules are
	// selected by excluding the complement instead of including each one.
	WholeModuleSet module.Set
	Hardware       bool
}

// RunTemplate returns the tradefed command line running modules. It returns
// nil if the test picks the command itself.
func (g *Generator) RunTemplate(modules module.Set, public bool, opts RunOptions) ([]string, error) {
	if modules.Has(module.All) {
		return nil, nil
	}
	if m, ok := modules.Only(); ok && g.CollectModules(public, opts.Hardware).Has(m) {
		if opts.Retry {
			return nil, nil
		}
		return g.collectCommand(public, opts.ABI, opts.Hardware, strings.Contains(m, "camerabox")), nil
	}
	return g.modulesCommand(modules, public, opts)
}

// RetryTemplate returns the tradefed command line retrying a session of
// modules.
func (g *Generator) RetryTemplate(modules module.Set, public bool) ([]string, error) {
	return g.RunTemplate(modules, public, RunOptions{Retry: true, Shard: NoShard})
}

func (g *Generator) collectCommand(public bool, abi string, hardware, camera bool) []string {
	c := g.cfg
	cmd := []string{"run", "commandAndExit", "collect-tests-only"}
	if c.TradefedDisableRebootOnCollection {
		cmd = append(cmd, "--disable-reboot")
	}
	if camera {
		cmd = append(cmd, "--module", "CtsCameraTestCases")
	} else if hardware {
		cmd = append(cmd, "--subplan", "cts-hardware")
	}
	for _, m := range c.MediaModules {
		cmd = append(cmd, "--module-arg", m+":skip-media-download:true")
	}
	if !public && !c.DynamicConfigOnCollection() {
		cmd = append(cmd, "--dynamic-config-url=")
	}
	if abi != "" {
		cmd = append(cmd, "--abi", abi)
	}
	return cmd
}

// hardwareFilters rewrites extra command line arguments for the hardware
// suite. Instant app variants are dropped and --module selections become
// --include-filter since --module implies the instant variants too.
func hardwareFilters(args []string) []string {
	var out []string
	for i := 0; i < len(args); {
		switch {
		case args[i] == "--include-filter" && i+1 < len(args) && strings.Contains(args[i+1], "[instant]"):
			i += 2
		case args[i] == "--module" && i+3 < len(args) && args[i+2] == "--test":
			out = append(out, "--include-filter", args[i+1]+" "+args[i+3])
			i += 4
		case args[i] == "--module" && i+1 < len(args):
			out = append(out, "--include-filter", args[i+1])
			i += 2
		default:
			out = append(out, args[i])
			i++
		}
	}
	return out
}

func (g *Generator) modulesCommand(modules module.Set, public bool, opts RunOptions) ([]string, error) {
	c := g.cfg
	var cmd []string
	if opts.Retry {
		cmd = []string{"run", "commandAndExit", c.TradefedRetryCommand, "--retry", "{session_id}"}
	} else {
		cmd = []string{"run", "commandAndExit", c.TradefedCTSCommand}

		var special []string
		for _, m := range modules.Sorted() {
			special = append(special, c.ExtraCommandline[m]...)
		}
		switch {
		case len(special) > 0:
			if opts.Hardware {
				special = hardwareFilters(special)
			}
			cmd = append(cmd, special...)
		case len(modules) == 1 && !opts.Hardware:
			m, _ := modules.Only()
			cmd = append(cmd, "--module", m)
		case opts.WholeModuleSet == nil:
			if c.TradefedCTSCommand == "cts-instant" {
				return nil, errors.New("cts-instant cannot include multiple modules")
			}
			for _, m := range modules.Sorted() {
				// 32-bit runs skip parameterized modules.
				if module.IsParameterized(m) && (opts.ABI == "x86" || opts.ABI == "armeabi-v7a") {
					continue
				}
				cmd = append(cmd, "--include-filter", m)
			}
		default:
			for _, m := range opts.WholeModuleSet.Minus(modules).Sorted() {
				cmd = append(cmd, "--exclude-filter", m)
			}
		}

		if opts.Shard.sharded() {
			cmd = append(cmd, "--shard-index", fmt.Sprint(opts.Shard.Index), "--shard-count", fmt.Sprint(opts.Shard.Count))
		}
		if !modules.Any(c.DisableLogcatOnFailure) && !public && c.TradefedCTSCommand != "gts" {
			cmd = append(cmd, "--logcat-on-failure")
		}
		if c.TradefedIgnoreBusinessLogicFailure {
			cmd = append(cmd, "--ignore-business-logic-failure")
		}
	}

	if c.TradefedDisableReboot {
		cmd = append(cmd, "--disable-reboot")
	}
	if c.TradefedMaySkipDeviceInfo {
		var infoModules []string
		infoModules = append(infoModules, c.BVTArc...)
		infoModules = append(infoModules, c.Smoke...)
		infoModules = append(infoModules, c.NeedsDeviceInfo...)
		if !modules.Any(infoModules) {
			cmd = append(cmd, "--skip-device-info")
		}
	}
	if opts.ABI != "" {
		cmd = append(cmd, "--abi", opts.ABI)
	}
	if !public && len(c.NeedsDynamicConfig) > 0 && !modules.Any(c.NeedsDynamicConfig) {
		cmd = append(cmd, "--dynamic-config-url=")
	}
	return cmd, nil
}
