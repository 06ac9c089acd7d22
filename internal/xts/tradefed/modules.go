// Copyright 2024 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package tradefed interprets the output and result files of the Trade
// Federation harness shipped in xTS bundles.
package tradefed

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/Oliver-2023/autoTest-sub000/errors"
	"github.com/Oliver-2023/autoTest-sub000/exec"
	"github.com/Oliver-2023/autoTest-sub000/fsutil"
	"github.com/Oliver-2023/autoTest-sub000/internal/logging"
	"github.com/Oliver-2023/autoTest-sub000/internal/testingutil"
	"github.com/Oliver-2023/autoTest-sub000/internal/xts/module"
)

// UnknownBuild is reported when the identification line carries no build.
const UnknownBuild = "<unknown>"

var (
	buildRE     = regexp.MustCompile(` \((.*)\)`)
	revisionREs = []*regexp.Regexp{
		regexp.MustCompile(`Android Google Mobile Services \(GMS\) Test Suite (.*) \(`),
		regexp.MustCompile(`Android Compatibility Test Suite(?: for Instant Apps)? (.*) \(`),
		regexp.MustCompile(`Android Vendor Test Suite (.*) \(`),
		regexp.MustCompile(`Android Security Test Suite (.*) \(`),
	}

	identPrefixes  = []string{"Android Compatibility Test Suite ", "Android Google ", "Android Vendor Test Suite", "Android Security Test Suite"}
	abiPrefixes    = []string{"arm", "x86"}
	modulePrefixes = []string{"Cts", "cts-", "signed-Cts", "vm-tests-tf", "Sts"}
)

// ParseBuild returns the build ID found in a tradefed identification line
// such as "Android Compatibility Test Suite 7.0 (3423912)", or UnknownBuild.
func ParseBuild(line string) string {
	if m := buildRE.FindStringSubmatch(line); m != nil {
		return m[1]
	}
	return UnknownBuild
}

// ParseRevision returns the suite revision found in a tradefed
// identification line, e.g. "6.0_r6". ok is false if no revision is found.
func ParseRevision(line string) (rev string, ok bool) {
	for _, re := range revisionREs {
		if m := re.FindStringSubmatch(line); m != nil {
			return m[1], true
		}
	}
	return "", false
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// ModuleList is the parsed output of "tradefed list modules".
type ModuleList struct {
	Modules  module.Set
	Build    string
	Revision string // empty if unknown
}

// ParseModuleList parses the output of "tradefed list modules". Modules in
// exclude are dropped from ABI-prefixed listings.
func ParseModuleList(ctx context.Context, output string, exclude []string) (*ModuleList, error) {
	// Some suite versions break a module listing over two lines; glue a line
	// back onto a preceding ABI-prefixed line.
	var lines []string
	prevABIPrefixed := false
	for _, line := range strings.Split(strings.TrimSuffix(output, "\n"), "\n") {
		abiPrefixed := hasAnyPrefix(line, abiPrefixes)
		endOfModules := line == "" || strings.Contains(line, "Saved log to")
		if prevABIPrefixed && !endOfModules && !abiPrefixed {
			lines[len(lines)-1] += line
		} else {
			lines = append(lines, line)
		}
		prevABIPrefixed = abiPrefixed
	}

	excluded := module.NewSet(exclude...)
	ml := &ModuleList{Modules: module.NewSet(), Build: UnknownBuild}
	for _, line := range lines {
		switch {
		case hasAnyPrefix(line, identPrefixes):
			logging.Infof(ctx, "Unpacking: %s", line)
			ml.Build = ParseBuild(line)
			if ml.Build == UnknownBuild {
				logging.Warningf(ctx, "Could not identify build in line %q", line)
			}
			rev, ok := ParseRevision(line)
			if !ok {
				logging.Warningf(ctx, "Could not identify revision in line %q", line)
			}
			ml.Revision = rev
		case hasAnyPrefix(line, abiPrefixes):
			fields := strings.Fields(line)
			if len(fields) < 2 {
				logging.Warningf(ctx, "Ignoring %q", line)
				continue
			}
			if !excluded.Has(fields[1]) {
				ml.Modules.Add(fields[1])
			}
		case hasAnyPrefix(line, modulePrefixes):
			ml.Modules.Add(line)
		case strings.TrimSpace(line) == "" || strings.HasPrefix(line, `Use "help"`):
		default:
			logging.Warningf(ctx, "Ignoring %q", line)
		}
	}
	if len(ml.Modules) == 0 {
		return nil, errors.New("no modules found")
	}
	return ml, nil
}

// Lister lists the modules of an extracted bundle.
type Lister struct {
	// TradefedPath is the tradefed launcher relative to the bundle root,
	// e.g. "android-cts/tools/cts-tradefed".
	TradefedPath string
	// JavaPath is an optional java binary relative to the bundle root.
	JavaPath string
	// Exclude lists modules never reported.
	Exclude []string
	// Timeout bounds the retries of a failing tradefed. Zero tries once.
	Timeout time.Duration
	// RetryInterval is the delay between retries. A default is used if zero.
	RetryInterval time.Duration
}

// List runs "tradefed list modules" in the bundle extracted at dir.
func (l *Lister) List(ctx context.Context, dir string) (*ModuleList, error) {
	tradefed := filepath.Join(dir, l.TradefedPath)
	// Extracted archives lose the executable bit.
	if err := fsutil.AddExecutable(tradefed); err != nil {
		return nil, errors.Wrap(err, "failed to make tradefed executable")
	}
	if l.JavaPath != "" {
		if err := fsutil.AddExecutable(filepath.Join(dir, l.JavaPath)); err != nil {
			return nil, errors.Wrap(err, "failed to make java executable")
		}
	}
	var out []byte
	if err := testingutil.Poll(ctx, func(ctx context.Context) error {
		logging.Info(ctx, "Calling tradefed for list of modules")
		var err error
		out, err = exec.Output(ctx, tradefed, []string{"list", "modules"}, exec.DumpLogOnError)
		if err != nil && l.Timeout <= 0 {
			return testingutil.PollBreak(err)
		}
		return err
	}, &testingutil.PollOptions{
		Timeout:  l.Timeout,
		Interval: l.RetryInterval,
		Desc:     "tradefed to list modules",
	}); err != nil {
		return nil, errors.Wrap(err, "failed to list modules")
	}
	return ParseModuleList(ctx, string(out), l.Exclude)
}
