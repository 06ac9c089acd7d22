// Copyright 2024 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package fsutil implements file operations used by the bundle cache.
package fsutil

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/Oliver-2023/autoTest-sub000/errors"
)

// CopyFile copies the regular file at path src to dst.
// dst is atomically replaced if it already exists and inherits src's mode.
// Ownership is also preserved if the EUID is 0.
func CopyFile(src, dst string) error {
	sf, err := os.Open(src)
	if err != nil {
		return errors.Wrap(err, "failed to open src file")
	}
	defer sf.Close()

	fi, err := sf.Stat()
	if err != nil {
		return errors.Wrap(err, "failed to stat src file")
	}
	if !fi.Mode().IsRegular() {
		return errors.Errorf("source not regular file (mode %s)", fi.Mode())
	}

	df, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".")
	if err != nil {
		return errors.Wrap(err, "failed to create tmp file")
	}
	cleanup := func() { os.Remove(df.Name()) }

	if _, err := io.Copy(df, sf); err != nil {
		df.Close()
		cleanup()
		return errors.Wrap(err, "failed to copy data to tmp file")
	}
	if err := df.Close(); err != nil {
		cleanup()
		return errors.Wrap(err, "failed to close tmp file")
	}
	if err := os.Chmod(df.Name(), fi.Mode()); err != nil {
		cleanup()
		return errors.Wrap(err, "failed to change permissions of tmp file")
	}
	if os.Geteuid() == 0 {
		st := fi.Sys().(*syscall.Stat_t)
		if err := os.Chown(df.Name(), int(st.Uid), int(st.Gid)); err != nil {
			cleanup()
			return errors.Wrap(err, "failed to change owner of tmp file")
		}
	}
	if err := os.Rename(df.Name(), dst); err != nil {
		cleanup()
		return errors.Wrap(err, "failed to rename tmp file to dst file")
	}
	return nil
}

// MoveFile moves the file at src to dst, which may be on a different
// filesystem.
func MoveFile(src, dst string) error {
	fi, err := os.Stat(src)
	if err != nil {
		return errors.Wrap(err, "failed to stat src file")
	}
	if !fi.Mode().IsRegular() {
		return errors.Errorf("source not regular file (mode %s)", fi.Mode())
	}

	err = os.Rename(src, dst)
	if err == nil {
		return nil
	}
	if lerr, ok := err.(*os.LinkError); !ok || lerr.Err != unix.EXDEV {
		return errors.Wrap(err, "failed to rename src to dst file")
	}
	if err := CopyFile(src, dst); err != nil {
		return errors.Wrap(err, "failed to copy src to dst file")
	}
	return os.Remove(src)
}

// DirSize returns the total size in bytes of regular files under dir.
// A missing dir has size 0.
func DirSize(dir string) (int64, error) {
	var total int64
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == dir && errors.Is(err, fs.ErrNotExist) {
				return fs.SkipDir
			}
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		total += fi.Size()
		return nil
	})
	if err != nil {
		return 0, errors.Wrapf(err, "failed to compute size of %s", dir)
	}
	return total, nil
}

// AddExecutable adds the owner executable bit to the file at path.
func AddExecutable(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return errors.Wrap(err, "failed to stat file")
	}
	if err := unix.Chmod(path, uint32(fi.Mode().Perm()|unix.S_IXUSR)); err != nil {
		return errors.Wrapf(err, "failed to chmod %s", path)
	}
	return nil
}
