// Copyright 2024 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package tradefed_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Oliver-2023/autoTest-sub000/errors"
	"github.com/Oliver-2023/autoTest-sub000/internal/xts/tradefed"
	"github.com/Oliver-2023/autoTest-sub000/testutil"
)

func TestParseSummary(t *testing.T) {
	waivers := []string{
		"android.app.cts.SystemFeaturesTest#testUsbAccessory",
		"android.widget.cts.GridViewTest#testSetNumColumns",
	}
	got, err := tradefed.ParseSummary(context.Background(), readTestData(t, "run_summary.txt"), waivers)
	if err != nil {
		t.Fatal("ParseSummary failed: ", err)
	}
	want := &tradefed.Summary{Tests: 1395, Passed: 1387, Failed: 8, NotExecuted: 0}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("ParseSummary mismatch (-got +want):\n%s", diff)
	}
}

func TestParseSummaryNoTestCount(t *testing.T) {
	const out = "XML test result file generated at 2019.05.11_09.43.11. Passed 3, Failed 1, Not Executed 2\n"
	got, err := tradefed.ParseSummary(context.Background(), out, nil)
	if err != nil {
		t.Fatal("ParseSummary failed: ", err)
	}
	want := &tradefed.Summary{Tests: 6, Passed: 3, Failed: 1, NotExecuted: 2}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("ParseSummary mismatch (-got +want):\n%s", diff)
	}
}

func TestParseSummaryMissing(t *testing.T) {
	_, err := tradefed.ParseSummary(context.Background(), "tradefed crashed\n", nil)
	if k := errors.KindOf(err); k != errors.KindError {
		t.Errorf("KindOf(err) = %v; want %v", k, errors.KindError)
	}
}

func TestParseResultID(t *testing.T) {
	ctx := context.Background()
	id, err := tradefed.ParseResultID(ctx, readTestData(t, "run_summary.txt"), "")
	if err != nil {
		t.Fatal("ParseResultID failed: ", err)
	}
	if id != "2019.05.11_09.43.11" {
		t.Errorf("ParseResultID = %q; want %q", id, "2019.05.11_09.43.11")
	}

	id, err = tradefed.ParseResultID(ctx, "I/ResultReporter: Created result dir 2019.05.11_10.00.00\n", "")
	if err != nil {
		t.Fatal("ParseResultID failed for incomplete run: ", err)
	}
	if id != "2019.05.11_10.00.00" {
		t.Errorf("ParseResultID = %q; want %q", id, "2019.05.11_10.00.00")
	}

	_, err = tradefed.ParseResultID(ctx, "crash\n", "passed=3")
	if k := errors.KindOf(err); k != errors.KindFail {
		t.Errorf("KindOf(err) = %v; want %v", k, errors.KindFail)
	}
}

func TestParseResultXML(t *testing.T) {
	ctx := context.Background()
	got, err := tradefed.ParseResultXML(ctx, filepath.Join("testdata", "test_result.xml"), nil)
	if err != nil {
		t.Fatal("ParseResultXML failed: ", err)
	}
	if len(got) != 0 {
		t.Errorf("ParseResultXML returned %v for a passing run", got)
	}

	waivers := []string{
		"com.google.android.media.gts.WidevineGenericOpsTests#testL3",
		"com.google.android.media.gts.MediaDrmTest#testWidevineApi28",
		"com.google.android.placement.gts.CoreGmsAppsTest#testGoogleDuoPreloaded",
		"com.google.android.gts.backup.BackupHostTest#testGmsBackupTransportIsDefault",
	}
	got, err = tradefed.ParseResultXML(ctx, filepath.Join("testdata", "gts_result.xml"), waivers)
	if err != nil {
		t.Fatal("ParseResultXML failed: ", err)
	}
	want := []string{
		"com.google.android.media.gts.MediaDrmTest#testWidevineApi28",
		"com.google.android.media.gts.WidevineGenericOpsTests#testL3",
		"com.google.android.media.gts.WidevineGenericOpsTests#testL3",
		"com.google.android.placement.gts.CoreGmsAppsTest#testGoogleDuoPreloaded",
	}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("ParseResultXML mismatch (-got +want):\n%s", diff)
	}

	if _, err := tradefed.ParseResultXML(ctx, filepath.Join("testdata", "malformed_test_result.xml"), nil); err == nil {
		t.Error("ParseResultXML unexpectedly succeeded for malformed file")
	}
}

func TestPerfMetrics(t *testing.T) {
	ctx := context.Background()
	const dir = "/resultsdir/tests/CTS.CtsMediaTestCases.armeabi-v7a"
	got := tradefed.PerfMetrics(ctx, filepath.Join("testdata", "test_result.xml"), "/resultsdir")
	want := []tradefed.PerfMetric{
		{Description: "android.media.cts.AudioRecordTest#testAudioRecordLocalMono16Bit", Value: "7.1688596491228065", Units: "ms", ResultsDir: dir},
		{Description: "android.media.cts.AudioRecordTest#testAudioRecordMonoFloat", Value: "12.958881578947368", Units: "ms", ResultsDir: dir},
		{Description: "android.media.cts.VideoDecoderPerfTest#testVp9Goog0Perf1920x1080", Value: "83.95677136649255", Units: "fps", HigherIsBetter: true, ResultsDir: dir},
	}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("PerfMetrics mismatch (-got +want):\n%s", diff)
	}

	for _, name := range []string{"malformed_test_result.xml", "not_exist"} {
		if got := tradefed.PerfMetrics(ctx, filepath.Join("testdata", name), "/resultsdir"); len(got) != 0 {
			t.Errorf("PerfMetrics(%s) = %v; want none", name, got)
		}
	}
}

func TestResultXMLPath(t *testing.T) {
	td := testutil.TempDir(t)
	defer os.RemoveAll(td)
	testutil.Must(t, testutil.WriteFiles(td, map[string]string{
		"2019.11.06_08.00.00/test_result.xml": "<Result/>",
		"2019.11.07_10.14.55/test_result.xml": "<Result/>",
		"2019.11.08_01.00.00/invocation.log":  "partial",
		"2019.11.09_01.00.00.zip":             "zip",
	}))
	got, err := tradefed.ResultXMLPath(td)
	if err != nil {
		t.Fatal("ResultXMLPath failed: ", err)
	}
	if want := filepath.Join(td, "2019.11.07_10.14.55", "test_result.xml"); got != want {
		t.Errorf("ResultXMLPath = %q; want %q", got, want)
	}

	if got, err := tradefed.ResultXMLPath(filepath.Join(td, "not_exist")); err != nil || got != "" {
		t.Errorf("ResultXMLPath for missing dir = (%q, %v); want empty", got, err)
	}
}

func TestCollectLogs(t *testing.T) {
	td := testutil.TempDir(t)
	defer os.RemoveAll(td)
	const id = "2016.07.14_00.34.50"
	repo := filepath.Join(td, "repo")
	dest := filepath.Join(td, "dest")
	testutil.Must(t, testutil.WriteFiles(repo, map[string]string{
		"results/" + id + "/test_result.xml": "<Result/>",
		"results/" + id + ".zip":             "zip",
		"logs/" + id + "/host_log.txt":       "log",
	}))
	testutil.Must(t, testutil.WriteFiles(dest, map[string]string{
		id + "/stale.txt": "old",
	}))

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := tradefed.CollectLogs(ctx, repo, id, dest); err != nil {
			t.Fatalf("CollectLogs #%d failed: %v", i, err)
		}
	}
	got, err := testutil.ReadFiles(dest)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]string{
		id + "/test_result.xml":        "<Result/>",
		id + ".zip":                    "zip",
		"logs/" + id + "/host_log.txt": "log",
	}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("Collected files mismatch (-got +want):\n%s", diff)
	}
}
