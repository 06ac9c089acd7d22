// Copyright 2024 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package waiver_test

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Oliver-2023/autoTest-sub000/internal/xts/waiver"
)

func loadTestWaivers(t *testing.T) *waiver.Waivers {
	t.Helper()
	paths, err := waiver.Find("testdata", "**/*.yaml")
	if err != nil {
		t.Fatal("Find failed: ", err)
	}
	if len(paths) != 3 {
		t.Fatalf("Find returned %v; want 3 files", paths)
	}
	w, err := waiver.Load(paths)
	if err != nil {
		t.Fatal("Load failed: ", err)
	}
	return w
}

func TestBinaryTranslated(t *testing.T) {
	w := loadTestWaivers(t)
	dut := &waiver.DUT{Arch: "x86", Board: "hatch", Model: "kohaku", BundleABI: "arm", SDKVersion: 30, FirstAPILevel: 30}
	if !w.FindWaivers(dut).Has("GtsOnlyPrimaryAbiTestCases") {
		t.Error("GtsOnlyPrimaryAbiTestCases not waived for arm bundle on x86")
	}
	dut.BundleABI = "x86"
	if w.FindWaivers(dut).Has("GtsOnlyPrimaryAbiTestCases") {
		t.Error("GtsOnlyPrimaryAbiTestCases waived for x86 bundle on x86")
	}
}

func TestFindWaivers(t *testing.T) {
	w := loadTestWaivers(t)
	for _, tc := range []struct {
		name string
		dut  waiver.DUT
		want []string
	}{
		{
			name: "x86 hatch",
			dut:  waiver.DUT{Arch: "x86", Board: "hatch", Model: "kohaku", BundleABI: "x86", SDKVersion: 30, FirstAPILevel: 30},
			want: []string{
				"android.media.cts.AudioRecordTest#testTimestamp",
				"com.google.android.gts.backup.BackupHostTest#testGmsBackupTransportIsDefault",
				"com.google.android.media.gts.WidevineGenericOpsTests#testL3",
			},
		},
		{
			name: "arm kukui old shipping level",
			dut:  waiver.DUT{Arch: "arm", Board: "kukui", Model: "krane", BundleABI: "arm", SDKVersion: 33, FirstAPILevel: 28},
			want: []string{
				"android.media.cts.MediaDrmTest#testWidevine",
				"android.media.cts.VideoDecoderPerfTest#testVp9Goog0Perf1920x1080",
				"com.google.android.gts.backup.BackupHostTest#testGmsBackupTransportIsDefault",
				"com.google.android.media.gts.WidevineGenericOpsTests#testL3",
			},
		},
		{
			name: "arm old sdk host side",
			dut:  waiver.DUT{Arch: "arm", Board: "trogdor", Model: "lazor", BundleABI: "arm", SDKVersion: 30, FirstAPILevel: 30, HostSide: true},
			want: []string{
				"android.media.cts.HostSideTest#testPlayback",
				"com.google.android.gts.backup.BackupHostTest#testGmsBackupTransportIsDefault",
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got := w.FindWaivers(&tc.dut).Sorted()
			if diff := cmp.Diff(got, tc.want); diff != "" {
				t.Errorf("FindWaivers mismatch (-got +want):\n%s", diff)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	for _, tc := range []string{
		"foo: [\"shipping_api_level:~30\"]",
		"foo: [\"\"]",
		"foo: bar",
	} {
		if _, err := waiver.Parse([]byte(tc)); err == nil {
			t.Errorf("Parse(%q) unexpectedly succeeded", tc)
		}
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := waiver.Load([]string{filepath.Join("testdata", "missing.yaml")}); err == nil {
		t.Error("Load unexpectedly succeeded for a missing file")
	}
}
