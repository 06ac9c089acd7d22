// Copyright 2024 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package fsutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Oliver-2023/autoTest-sub000/fsutil"
	"github.com/Oliver-2023/autoTest-sub000/testutil"
)

func TestCopyFile(t *testing.T) {
	td := testutil.TempDir(t)
	defer os.RemoveAll(td)

	src := filepath.Join(td, "android-cts.zip")
	if err := os.WriteFile(src, []byte("bundle"), 0640); err != nil {
		t.Fatal(err)
	}
	dst := filepath.Join(td, "copy.zip")
	if err := os.WriteFile(dst, []byte("old"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := fsutil.CopyFile(src, dst); err != nil {
		t.Fatal("CopyFile failed: ", err)
	}
	b, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "bundle" {
		t.Errorf("CopyFile wrote %q; want %q", b, "bundle")
	}
	fi, err := os.Stat(dst)
	if err != nil {
		t.Fatal(err)
	}
	if fi.Mode().Perm() != 0640 {
		t.Errorf("CopyFile set mode %v; want 0640", fi.Mode().Perm())
	}

	if err := fsutil.CopyFile(td, dst); err == nil {
		t.Error("CopyFile succeeded for a directory source")
	}
}

func TestMoveFile(t *testing.T) {
	td := testutil.TempDir(t)
	defer os.RemoveAll(td)

	src := filepath.Join(td, "a")
	dst := filepath.Join(td, "b")
	if err := os.WriteFile(src, []byte("data"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := fsutil.MoveFile(src, dst); err != nil {
		t.Fatal("MoveFile failed: ", err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Errorf("MoveFile left src behind: %v", err)
	}
	if b, err := os.ReadFile(dst); err != nil || string(b) != "data" {
		t.Errorf("MoveFile produced %q, %v; want %q", b, err, "data")
	}
}

func TestDirSize(t *testing.T) {
	td := testutil.TempDir(t)
	defer os.RemoveAll(td)

	if err := testutil.WriteFiles(td, map[string]string{
		"k1/a.zip":   "12345",
		"k1/a/x.txt": "678",
		"k2/b.zip":   "90",
	}); err != nil {
		t.Fatal(err)
	}
	size, err := fsutil.DirSize(td)
	if err != nil {
		t.Fatal("DirSize failed: ", err)
	}
	if size != 10 {
		t.Errorf("DirSize = %d; want 10", size)
	}

	size, err = fsutil.DirSize(filepath.Join(td, "missing"))
	if err != nil || size != 0 {
		t.Errorf("DirSize(missing) = %d, %v; want 0, nil", size, err)
	}
}

func TestAddExecutable(t *testing.T) {
	td := testutil.TempDir(t)
	defer os.RemoveAll(td)

	p := filepath.Join(td, "cts-tradefed")
	if err := os.WriteFile(p, []byte("#!/bin/sh\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := fsutil.AddExecutable(p); err != nil {
		t.Fatal("AddExecutable failed: ", err)
	}
	fi, err := os.Stat(p)
	if err != nil {
		t.Fatal(err)
	}
	if fi.Mode().Perm() != 0744 {
		t.Errorf("Mode = %v; want 0744", fi.Mode().Perm())
	}
}
