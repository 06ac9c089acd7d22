// Copyright 2024 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package tradefed

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/exp/slices"

	"github.com/Oliver-2023/autoTest-sub000/errors"
	"github.com/Oliver-2023/autoTest-sub000/internal/logging"
)

var (
	summaryRE   = regexp.MustCompile(`XML test result file generated at (\S+)\. Passed (\d+), Failed (\d+), Not Executed (\d+)`)
	testCountRE = regexp.MustCompile(`Start test run of (\d+) packages, containing (\d+(?:,\d+)?) tests`)
	resultIDRE  = regexp.MustCompile(`: XML test result file generated at (\S+)\. Passed`)
	resultDirRE = regexp.MustCompile(`: Created result dir (\S+)`)
)

// Summary holds the test counts of a tradefed run.
type Summary struct {
	Tests       int
	Passed      int
	Failed      int
	NotExecuted int
}

func atoi(s string) int {
	n, _ := strconv.Atoi(strings.ReplaceAll(s, ",", ""))
	return n
}

// ParseSummary extracts the final test counts from the console output of
// tradefed. Every waived test reported as "<name> FAIL" is counted as passed
// instead.
func ParseSummary(ctx context.Context, stdout string, waivers []string) (*Summary, error) {
	m := summaryRE.FindStringSubmatch(stdout)
	if m == nil {
		return nil, errors.TestErr("test log does not contain a summary")
	}
	s := &Summary{
		Passed:      atoi(m[2]),
		Failed:      atoi(m[3]),
		NotExecuted: atoi(m[4]),
	}
	if m := testCountRE.FindStringSubmatch(stdout); m != nil {
		s.Tests = atoi(m[2])
	} else {
		logging.Warning(ctx, "Tradefed forgot to print number of tests")
		s.Tests = s.Passed + s.Failed + s.NotExecuted
	}

	sorted := append([]string(nil), waivers...)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)
	for _, name := range sorted {
		if strings.Contains(stdout, name+" FAIL") {
			s.Failed--
			s.Passed++
			logging.Infof(ctx, "Waived failure %s", name)
		}
	}
	logging.Infof(ctx, "tests=%d, passed=%d, failed=%d, not_executed=%d",
		s.Tests, s.Passed, s.Failed, s.NotExecuted)
	return s, nil
}

// ParseResultID returns the result ID tradefed chose for a run, such as
// "2016.07.14_00.34.50". Results of concurrent runs share one directory, so
// the ID is the only way to find the files of this run. prevSummary is
// appended to the error message when no ID is found.
func ParseResultID(ctx context.Context, stdout, prevSummary string) (string, error) {
	if m := resultIDRE.FindStringSubmatch(stdout); m != nil {
		logging.Infof(ctx, "Tradefed identified results and logs with %s", m[1])
		return m[1], nil
	}
	logging.Warning(ctx, "XML test result file incomplete?")
	if m := resultDirRE.FindStringSubmatch(stdout); m != nil {
		logging.Infof(ctx, "Tradefed identified results and logs with %s", m[1])
		return m[1], nil
	}
	msg := "test did not complete due to Chrome or ARC crash"
	if prevSummary != "" {
		msg += "; test summary from previous runs: " + prevSummary
	}
	return "", errors.Fail(msg)
}
