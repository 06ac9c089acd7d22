// Copyright 2024 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/subcommands"

	"github.com/Oliver-2023/autoTest-sub000/testutil"
)

const (
	runLog = `I/CompatibilityTest: Start test run of 1 packages, containing 10 tests
I/ConsoleReporter: [1/1 armeabi-v7a CtsAppTestCases host:22] android.app.cts.SystemFeaturesTest#testUsbAccessory FAIL
I/ConsoleReporter: [1/1 armeabi-v7a CtsAppTestCases host:22] android.app.cts.SystemFeaturesTest#testNfc FAIL
I/ResultReporter: XML test result file generated at 2019.05.11_09.43.11. Passed 8, Failed 2, Not Executed 0
`
	resultXML = `<?xml version='1.0' encoding='UTF-8' standalone='no' ?>
<Result>
  <Module name="CtsAppTestCases" abi="armeabi-v7a">
    <TestCase name="android.app.cts.SystemFeaturesTest">
      <Test result="fail" name="testUsbAccessory">
        <Failure message="usb accessory not supported"/>
      </Test>
      <Test result="fail" name="testNfc">
        <Failure message="nfc not supported"/>
      </Test>
      <Test result="pass" name="testCamera">
        <Summary>
          <Metric score_type="higher_better" score_unit="fps">
            <Value>30.0</Value>
          </Metric>
        </Summary>
      </Test>
    </TestCase>
  </Module>
</Result>
`
	waiverYAML = "android.app.cts.SystemFeaturesTest#testUsbAccessory: [all]\n"
)

func TestResultsCmd(t *testing.T) {
	td := testutil.TempDir(t)
	defer os.RemoveAll(td)
	testutil.Must(t, testutil.WriteFiles(td, map[string]string{
		"tradefed.log":                                runLog,
		"waivers.yaml":                                waiverYAML,
		"results/2019.05.11_09.43.11/test_result.xml": resultXML,
	}))

	for _, tc := range []struct {
		args []string
		want string
	}{
		{
			[]string{"-log", filepath.Join(td, "tradefed.log"), "-waivers", filepath.Join(td, "waivers.yaml")},
			"tests=10 passed=9 failed=1 not_executed=0\n" +
				"result_id=2019.05.11_09.43.11\n",
		},
		{
			[]string{"-log", filepath.Join(td, "tradefed.log")},
			"tests=10 passed=8 failed=2 not_executed=0\n" +
				"result_id=2019.05.11_09.43.11\n",
		},
		{
			[]string{"-waivers", filepath.Join(td, "waivers.yaml"), filepath.Join(td, "results")},
			"waived android.app.cts.SystemFeaturesTest#testUsbAccessory\n" +
				"perf android.app.cts.SystemFeaturesTest#testCamera=30.0 fps (higher_is_better=true)\n",
		},
	} {
		var stdout, stderr bytes.Buffer
		cmd := newResultsCmd(&stdout)
		cmd.stderr = &stderr
		if status := executeCmd(t, cmd, tc.args); status != subcommands.ExitSuccess {
			t.Errorf("results %v returned status %v: %s", tc.args, status, stderr.String())
			continue
		}
		if got := stdout.String(); got != tc.want {
			t.Errorf("results %v printed %q; want %q", tc.args, got, tc.want)
		}
	}
}

func TestResultsCmdErrors(t *testing.T) {
	td := testutil.TempDir(t)
	defer os.RemoveAll(td)

	for _, tc := range []struct {
		args   []string
		status subcommands.ExitStatus
	}{
		{nil, subcommands.ExitUsageError},
		{[]string{"-log", filepath.Join(td, "missing.log")}, subcommands.ExitFailure},
		{[]string{filepath.Join(td, "results")}, subcommands.ExitFailure},
	} {
		var stdout, stderr bytes.Buffer
		cmd := newResultsCmd(&stdout)
		cmd.stderr = &stderr
		if status := executeCmd(t, cmd, tc.args); status != tc.status {
			t.Errorf("results %v returned status %v; want %v", tc.args, status, tc.status)
		}
	}
}
