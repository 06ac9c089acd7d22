// Copyright 2024 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"

	"github.com/Oliver-2023/autoTest-sub000/command"
	"github.com/Oliver-2023/autoTest-sub000/internal/xts/config"
	"github.com/Oliver-2023/autoTest-sub000/internal/xts/tradefed"
)

// modulesCmd implements subcommands.Command to list the modules of a bundle.
type modulesCmd struct {
	cfgPath string
	json    bool
	bundles bundleFlags
	stdout  io.Writer
	stderr  io.Writer
}

var _ = subcommands.Command(&modulesCmd{})

func newModulesCmd(stdout io.Writer) *modulesCmd {
	return &modulesCmd{stdout: stdout, stderr: os.Stderr}
}

func (*modulesCmd) Name() string     { return "modules" }
func (*modulesCmd) Synopsis() string { return "list modules of a bundle" }
func (*modulesCmd) Usage() string {
	return `Usage: modules -config <yaml> [flag]... <bundle url>

Description:
    Download a bundle and print the modules tradefed reports, one per line.

Flag:
`
}

func (mc *modulesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&mc.cfgPath, "config", "", "YAML generator config of the suite")
	f.BoolVar(&mc.json, "json", false, "print the module list as JSON")
	mc.bundles.SetFlags(f)
}

// moduleListJSON is the JSON form of a module list.
type moduleListJSON struct {
	Build    string   `json:"build"`
	Revision string   `json:"revision"`
	Modules  []string `json:"modules"`
}

func (mc *modulesCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if len(f.Args()) != 1 {
		return command.WriteError(mc.stderr, command.UsageErrorf("expected one bundle url\n\n%s", mc.Usage()))
	}
	if err := mc.list(ctx, f.Args()[0]); err != nil {
		return command.WriteError(mc.stderr, err)
	}
	return subcommands.ExitSuccess
}

func (mc *modulesCmd) list(ctx context.Context, url string) error {
	if mc.cfgPath == "" {
		return command.UsageErrorf("-config is required")
	}
	cfg, err := config.Load(mc.cfgPath)
	if err != nil {
		return err
	}
	cl, err := mc.bundles.client(ctx)
	if err != nil {
		return err
	}
	defer cl.TearDown()
	c, cleanup, err := mc.bundles.openCache(ctx, cl)
	if err != nil {
		return err
	}
	defer cleanup()

	dir, err := c.Install(ctx, url)
	if err != nil {
		return err
	}
	lister := &tradefed.Lister{
		TradefedPath: cfg.TradefedExecutablePath,
		JavaPath:     cfg.JavaExecutablePath,
		Exclude:      cfg.ExcludeModules,
	}
	ml, err := lister.List(ctx, dir)
	if err != nil {
		return err
	}

	if mc.json {
		enc := json.NewEncoder(mc.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(&moduleListJSON{Build: ml.Build, Revision: ml.Revision, Modules: ml.Modules.Sorted()})
	}
	for _, m := range ml.Modules.Sorted() {
		if _, err := fmt.Fprintln(mc.stdout, m); err != nil {
			return err
		}
	}
	return nil
}
