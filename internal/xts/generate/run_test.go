// Copyright 2024 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package generate_test

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Oliver-2023/autoTest-sub000/internal/xts/bundle"
	"github.com/Oliver-2023/autoTest-sub000/internal/xts/cache"
	"github.com/Oliver-2023/autoTest-sub000/internal/xts/fetch"
	"github.com/Oliver-2023/autoTest-sub000/internal/xts/generate"
	"github.com/Oliver-2023/autoTest-sub000/testutil"
)

const (
	devURL     = "gs://chromeos-arc-images/cts/bundle/R/android-cts-9099362-linux_x86-arm.zip"
	missingURL = "gs://chromeos-arc-images/cts/bundle/R/android-cts-9099362-linux_x86-x86.zip"
)

// fakeBundle returns a zipped bundle whose tradefed prints listing.
func fakeBundle(t *testing.T, listing string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("android-cts/tools/cts-tradefed")
	if err != nil {
		t.Fatal(err)
	}
	script := "#!/bin/sh\ncat <<'EOF'\n" + listing + "EOF\n"
	if _, err := w.Write([]byte(script)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func newCache(t *testing.T, td string, files map[string][]byte) *cache.Cache {
	t.Helper()
	c, err := cache.New(cache.Options{
		Root:       filepath.Join(td, "cache"),
		InstallDir: filepath.Join(td, "install"),
		Client:     fetch.NewFakeClient(files),
	})
	if err != nil {
		t.Fatal("Failed to create cache: ", err)
	}
	return c
}

const listing = `Android Compatibility Test Suite 11_r3 (7654321)
arm64-v8a CtsAppTestCases
arm64-v8a CtsNetTestCases
armeabi-v7a CtsAppTestCases
armeabi-v7a CtsNetTestCases
`

func TestRun(t *testing.T) {
	td := testutil.TempDir(t)
	defer os.RemoveAll(td)

	outDir := filepath.Join(td, "out")
	c := newCache(t, td, map[string][]byte{devURL: fakeBundle(t, listing)})
	cfg := generate.NewMutableConfig(outDir).Freeze()
	sources := []generate.Source{{URL: devURL, Type: bundle.DevSource}}
	if err := generate.Run(context.Background(), cfg, newGenerator(t), c, sources); err != nil {
		t.Fatal("Run failed: ", err)
	}
	want := []string{
		"control.internal.arm.CtsAppTestCases",
		"control.internal.arm.CtsCameraTestCases.noled.camerabox.back",
		"control.internal.arm.CtsCameraTestCases.noled.camerabox.front",
		"control.internal.arm.CtsMediaTestCases.arc_perf",
		"control.internal.arm.CtsNetTestCases",
	}
	if diff := cmp.Diff(listFiles(t, outDir), want); diff != "" {
		t.Errorf("Files mismatch (-got +want):\n%s", diff)
	}
	content := readFile(t, filepath.Join(outDir, want[0]))
	if !strings.Contains(content, "NAME = 'cheets_CTS_R.internal.arm.CtsAppTestCases'\n") {
		t.Errorf("Unexpected control file:\n%s", content)
	}
}

func TestRunPartialFailure(t *testing.T) {
	td := testutil.TempDir(t)
	defer os.RemoveAll(td)

	outDir := filepath.Join(td, "out")
	c := newCache(t, td, map[string][]byte{devURL: fakeBundle(t, listing)})
	cfg := generate.NewMutableConfig(outDir).Freeze()
	sources := []generate.Source{
		{URL: missingURL, Type: bundle.DevSource},
		{URL: devURL, Type: bundle.DevSource},
	}
	err := generate.Run(context.Background(), cfg, newGenerator(t), c, sources)
	if err == nil {
		t.Fatal("Run succeeded for a missing bundle")
	}
	if !strings.Contains(err.Error(), missingURL) {
		t.Errorf("Run error %q does not name %s", err, missingURL)
	}
	if _, err := os.Stat(filepath.Join(outDir, "control.internal.arm.CtsAppTestCases")); err != nil {
		t.Error("Control files of the available bundle were not written: ", err)
	}
}

func TestRunUnknownRevision(t *testing.T) {
	td := testutil.TempDir(t)
	defer os.RemoveAll(td)

	noIdent := "arm64-v8a CtsAppTestCases\n"
	c := newCache(t, td, map[string][]byte{devURL: fakeBundle(t, noIdent)})
	cfg := generate.NewMutableConfig(filepath.Join(td, "out")).Freeze()
	sources := []generate.Source{{URL: devURL, Type: bundle.DevSource}}
	if err := generate.Run(context.Background(), cfg, newGenerator(t), c, sources); err == nil {
		t.Error("Run succeeded for a bundle of unknown revision")
	}
}

func TestSourcesFor(t *testing.T) {
	urls, err := bundle.LoadURLConfig("../bundle/testdata/cts_r.json")
	if err != nil {
		t.Fatal(err)
	}
	const (
		internal = "gs://chromeos-arc-images/cts/bundle/R/"
		public   = "https://dl.google.com/dl/android/cts/"
	)
	for _, tc := range []struct {
		name                string
		public, latest, all bool
		want                []generate.Source
	}{
		{
			name: "dev",
			want: []generate.Source{
				{URL: internal + "android-cts-9099362-linux_x86-arm.zip", Type: bundle.DevSource},
				{URL: internal + "android-cts-9099362-linux_x86-x86.zip", Type: bundle.DevSource},
			},
		},
		{
			name:   "public",
			public: true,
			want: []generate.Source{
				{URL: public + "android-cts-11_r9-linux_x86-arm.zip", Type: bundle.Moblab},
				{URL: public + "android-cts-11_r9-linux_x86-x86.zip", Type: bundle.Moblab},
			},
		},
		{
			name:   "latest",
			latest: true,
			want: []generate.Source{
				{URL: internal + "android-cts-11_r9-linux_x86-arm.zip", Type: bundle.LatestSource},
				{URL: internal + "android-cts-11_r9-linux_x86-x86.zip", Type: bundle.LatestSource},
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := generate.SourcesFor(urls, tc.public, tc.latest, tc.all)
			if err != nil {
				t.Fatal("SourcesFor failed: ", err)
			}
			if diff := cmp.Diff(got, tc.want); diff != "" {
				t.Errorf("SourcesFor mismatch (-got +want):\n%s", diff)
			}
		})
	}

	all, err := generate.SourcesFor(urls, false, false, true)
	if err != nil {
		t.Fatal("SourcesFor failed: ", err)
	}
	if len(all) != 6 {
		t.Errorf("SourcesFor(all) returned %d sources; want 6", len(all))
	}
}
