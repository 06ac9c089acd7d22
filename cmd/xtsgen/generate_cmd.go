// Copyright 2024 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package main

import (
	"context"
	"flag"
	"io"
	"os"
	"path/filepath"

	"github.com/google/subcommands"

	"github.com/Oliver-2023/autoTest-sub000/command"
	"github.com/Oliver-2023/autoTest-sub000/internal/logging"
	"github.com/Oliver-2023/autoTest-sub000/internal/xts/bundle"
	"github.com/Oliver-2023/autoTest-sub000/internal/xts/config"
	"github.com/Oliver-2023/autoTest-sub000/internal/xts/controlfile"
	"github.com/Oliver-2023/autoTest-sub000/internal/xts/generate"
)

// generateCmd implements subcommands.Command to write control files.
type generateCmd struct {
	cfgPath    string
	urlCfgPath string
	public     bool
	latest     bool
	all        bool
	bundles    bundleFlags
	run        *generate.MutableConfig
	stderr     io.Writer
}

var _ = subcommands.Command(&generateCmd{})

func newGenerateCmd() *generateCmd {
	return &generateCmd{run: generate.NewMutableConfig("."), stderr: os.Stderr}
}

func (*generateCmd) Name() string     { return "generate" }
func (*generateCmd) Synopsis() string { return "generate control files of xTS bundles" }
func (*generateCmd) Usage() string {
	return `Usage: generate -config <yaml> [flag]...

Description:
    Download the bundles of a suite, list their modules and write the
    control files scheduling them.

    By default the development bundles are processed. -is_public selects the
    moblab bundles, -is_latest the latest official release, and -is_all every
    bundle.

Flag:
`
}

func (g *generateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&g.cfgPath, "config", "", "YAML generator config of the suite")
	f.StringVar(&g.urlCfgPath, "url_config", "", "bundle URL config; bundle_config_path of the generator config if empty")
	f.BoolVar(&g.public, "is_public", false, "generate control files for moblab")
	f.BoolVar(&g.latest, "is_latest", false, "generate control files for the latest official release")
	f.BoolVar(&g.all, "is_all", false, "generate all control files")
	g.bundles.SetFlags(f)
	g.run.SetFlags(f)
}

func (g *generateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := g.generate(ctx); err != nil {
		return command.WriteError(g.stderr, err)
	}
	return subcommands.ExitSuccess
}

func (g *generateCmd) generate(ctx context.Context) error {
	if g.cfgPath == "" {
		return command.UsageErrorf("-config is required")
	}
	cfg, err := config.Load(g.cfgPath)
	if err != nil {
		return err
	}
	urlCfgPath := g.urlCfgPath
	if urlCfgPath == "" {
		urlCfgPath = filepath.Join(filepath.Dir(g.cfgPath), cfg.BundleConfigPath)
	}
	urls, err := bundle.LoadURLConfig(urlCfgPath)
	if err != nil {
		return err
	}
	sources, err := generate.SourcesFor(urls, g.public, g.latest, g.all)
	if err != nil {
		return err
	}

	cl, err := g.bundles.client(ctx)
	if err != nil {
		return err
	}
	defer cl.TearDown()
	c, cleanup, err := g.bundles.openCache(ctx, cl)
	if err != nil {
		return err
	}
	defer cleanup()

	logging.Infof(ctx, "Generating control files of %d bundles", len(sources))
	return generate.Run(ctx, g.run.Freeze(), controlfile.New(cfg), c, sources)
}
