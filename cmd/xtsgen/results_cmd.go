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
	"github.com/Oliver-2023/autoTest-sub000/errors"
	"github.com/Oliver-2023/autoTest-sub000/internal/xts/tradefed"
)

// resultsCmd implements subcommands.Command to interpret tradefed results.
type resultsCmd struct {
	logPath string
	waivers waiverFlags
	stdout  io.Writer
	stderr  io.Writer
}

var _ = subcommands.Command(&resultsCmd{})

func newResultsCmd(stdout io.Writer) *resultsCmd {
	return &resultsCmd{stdout: stdout, stderr: os.Stderr}
}

func (*resultsCmd) Name() string     { return "results" }
func (*resultsCmd) Synopsis() string { return "summarize tradefed results" }
func (*resultsCmd) Usage() string {
	return `Usage: results [flag]... [results dir]

Description:
    Summarize a tradefed run. -log reads the test counts from the console
    output of tradefed. If a results directory is given, the waived failures
    and performance metrics of its newest result are printed.

    Failures waived on the device described by the waiver flags count as
    passes.

Flag:
`
}

func (rc *resultsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&rc.logPath, "log", "", "console output of tradefed")
	rc.waivers.SetFlags(f)
}

func (rc *resultsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if rc.logPath == "" && len(f.Args()) == 0 {
		return command.WriteError(rc.stderr, command.UsageErrorf("nothing to summarize\n\n%s", rc.Usage()))
	}
	if err := rc.summarize(ctx, f.Args()); err != nil {
		return command.WriteError(rc.stderr, err)
	}
	return subcommands.ExitSuccess
}

func (rc *resultsCmd) summarize(ctx context.Context, dirs []string) error {
	waived, err := rc.waivers.find(ctx)
	if err != nil {
		return err
	}
	waivers := waived.Sorted()

	if rc.logPath != "" {
		b, err := os.ReadFile(rc.logPath)
		if err != nil {
			return errors.Wrap(err, "failed to read tradefed log")
		}
		s, err := tradefed.ParseSummary(ctx, string(b), waivers)
		if err != nil {
			return err
		}
		fmt.Fprintf(rc.stdout, "tests=%d passed=%d failed=%d not_executed=%d\n", s.Tests, s.Passed, s.Failed, s.NotExecuted)
		if id, err := tradefed.ParseResultID(ctx, string(b), ""); err == nil {
			fmt.Fprintf(rc.stdout, "result_id=%s\n", id)
		}
	}

	for _, dir := range dirs {
		path, err := tradefed.ResultXMLPath(dir)
		if err != nil {
			return err
		}
		if path == "" {
			return errors.Errorf("no results found in %s", dir)
		}
		found, err := tradefed.ParseResultXML(ctx, path, waivers)
		if err != nil {
			return err
		}
		for _, name := range found {
			fmt.Fprintf(rc.stdout, "waived %s\n", name)
		}
		for _, m := range tradefed.PerfMetrics(ctx, path, dir) {
			fmt.Fprintf(rc.stdout, "perf %s=%s %s (higher_is_better=%v)\n", m.Description, m.Value, m.Units, m.HigherIsBetter)
		}
	}
	return nil
}
