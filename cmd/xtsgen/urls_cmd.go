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
	"github.com/Oliver-2023/autoTest-sub000/internal/xts/bundle"
)

// urlsCmd implements subcommands.Command to print bundle URLs.
type urlsCmd struct {
	urlCfgPath string
	typ        string
	abi        string
	stdout     io.Writer
	stderr     io.Writer
}

var _ = subcommands.Command(&urlsCmd{})

func newURLsCmd(stdout io.Writer) *urlsCmd {
	return &urlsCmd{stdout: stdout, stderr: os.Stderr}
}

func (*urlsCmd) Name() string     { return "urls" }
func (*urlsCmd) Synopsis() string { return "print bundle urls" }
func (*urlsCmd) Usage() string {
	return `Usage: urls -url_config <json> [flag]...

Description:
    Print the URL of the bundle of a type, for one ABI or every ABI of the
    config.

Flag:
`
}

func (uc *urlsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&uc.urlCfgPath, "url_config", "", "bundle URL config")
	f.StringVar(&uc.typ, "type", "PUBLIC", "bundle type: PUBLIC, LATEST, DEV, DEV_MOBLAB or DEV_WAIVER")
	f.StringVar(&uc.abi, "abi", "", "bundle ABI; every ABI if empty")
}

func (uc *urlsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	urls, err := uc.urls()
	if err != nil {
		return command.WriteError(uc.stderr, err)
	}
	for _, u := range urls {
		fmt.Fprintln(uc.stdout, u)
	}
	return subcommands.ExitSuccess
}

func (uc *urlsCmd) urls() ([]string, error) {
	if uc.urlCfgPath == "" {
		return nil, command.UsageErrorf("-url_config is required")
	}
	typ, err := bundle.ParseType(uc.typ)
	if err != nil {
		return nil, command.UsageErrorf("bad -type: %v", err)
	}
	cfg, err := bundle.LoadURLConfig(uc.urlCfgPath)
	if err != nil {
		return nil, err
	}
	if uc.abi == "" {
		return bundle.MakeURLsForAllABIs(cfg, typ)
	}
	u, err := bundle.MakeURL(cfg, typ, uc.abi)
	if err != nil {
		return nil, err
	}
	return []string{u}, nil
}
