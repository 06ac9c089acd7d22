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
	"github.com/Oliver-2023/autoTest-sub000/errors"
	"github.com/Oliver-2023/autoTest-sub000/internal/audiodata"
)

// audioCmd implements subcommands.Command to inspect Bluetooth audio
// fixtures and check ViSQOL scores against them.
type audioCmd struct {
	json      bool
	clip      string
	direction audiodata.Direction
	score     float64
	stdout    io.Writer
	stderr    io.Writer
}

var _ = subcommands.Command(&audioCmd{})

func newAudioCmd(stdout io.Writer) *audioCmd {
	return &audioCmd{stdout: stdout, stderr: os.Stderr}
}

func (*audioCmd) Name() string     { return "audio" }
func (*audioCmd) Synopsis() string { return "inspect Bluetooth audio fixtures" }
func (*audioCmd) Usage() string {
	return `Usage: audio [flag]... [fixture]...

Description:
    Print Bluetooth audio fixtures. Without arguments, the names of all
    fixtures are printed.

    With -clip and -score, check a ViSQOL score of a clip of the single
    given fixture against its passing score.

Flag:
`
}

func (ac *audioCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&ac.json, "json", false, "print fixtures as JSON")
	f.StringVar(&ac.clip, "clip", "", "reporting type of the ViSQOL clip to check, e.g. voice-8k")
	f.Float64Var(&ac.score, "score", 0, "ViSQOL score to check")
	dirs := map[string]int{
		"sink":   int(audiodata.Sink),
		"source": int(audiodata.Source),
	}
	df := command.NewEnumFlag(dirs, func(v int) { ac.direction = audiodata.Direction(v) }, "sink")
	f.Var(df, "direction", fmt.Sprintf("direction of the checked audio (%s; default %q)", df.QuotedValues(), df.Default()))
}

func (ac *audioCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var err error
	switch {
	case ac.clip != "":
		err = ac.check(ctx, f.Args())
	case len(f.Args()) == 0:
		for _, name := range audiodata.Names() {
			fmt.Fprintln(ac.stdout, name)
		}
	default:
		err = ac.print(f.Args())
	}
	if err != nil {
		return command.WriteError(ac.stderr, err)
	}
	return subcommands.ExitSuccess
}

func (ac *audioCmd) print(names []string) error {
	var fixtures []*audiodata.Fixture
	for _, name := range names {
		f, err := audiodata.Lookup(name)
		if err != nil {
			return command.UsageErrorf("%v", err)
		}
		fixtures = append(fixtures, f)
	}
	if ac.json {
		enc := json.NewEncoder(ac.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(fixtures)
	}
	for _, f := range fixtures {
		fmt.Fprintf(ac.stdout, "%s: rate=%d channels=%d duration=%vs file=%s\n", f.Name, f.Rate, f.Channels, f.DurationSecs, f.File)
		for _, v := range f.Visqol {
			fmt.Fprintf(ac.stdout, "  visqol %s: sink>=%.1f source>=%.1f file=%s\n", v.ReportingType, v.SinkPassingScore, v.SourcePassingScore, v.File)
		}
	}
	return nil
}

func (ac *audioCmd) check(ctx context.Context, names []string) error {
	if len(names) != 1 {
		return command.UsageErrorf("-clip needs exactly one fixture")
	}
	f, err := audiodata.Lookup(names[0])
	if err != nil {
		return command.UsageErrorf("%v", err)
	}
	for _, v := range f.Visqol {
		if v.ReportingType != ac.clip {
			continue
		}
		if err := audiodata.CheckScore(ctx, v, ac.direction, ac.score); err != nil {
			return err
		}
		fmt.Fprintf(ac.stdout, "PASS %s %s %s %.3f\n", f.Name, v.ReportingType, ac.direction, ac.score)
		return nil
	}
	return errors.Errorf("%s has no ViSQOL clip %q", f.Name, ac.clip)
}
