// Copyright 2024 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package cache

import (
	"archive/zip"
	"context"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/Oliver-2023/autoTest-sub000/errors"
	"github.com/Oliver-2023/autoTest-sub000/internal/logging"
)

// zipFlagEncrypted is bit 0 of the general purpose flag of a zip entry.
const zipFlagEncrypted = 0x1

// Unzip extracts the zip archive at filename into the directory named after
// its stem, e.g. foo/bar/baz.zip is extracted into foo/bar/baz. An existing
// directory at the stem is reused as is.
func Unzip(ctx context.Context, filename string) (string, error) {
	dst := strings.TrimSuffix(filename, filepath.Ext(filename))
	if fi, err := os.Stat(dst); err == nil && fi.IsDir() {
		return dst, nil
	}

	zr, err := zip.OpenReader(filename)
	if err != nil {
		return "", errors.Wrapf(err, "failed to open %s", filename)
	}
	defer zr.Close()

	tmp := dst + ".partial"
	if err := os.RemoveAll(tmp); err != nil {
		return "", errors.Wrap(err, "failed to remove stale partial extraction")
	}
	logging.Infof(ctx, "Extracting %s", filename)
	for _, f := range zr.File {
		if err := extractFile(f, tmp); err != nil {
			os.RemoveAll(tmp)
			return "", errors.Wrapf(err, "failed to extract %s", filename)
		}
	}
	if err := os.MkdirAll(tmp, 0755); err != nil {
		return "", errors.Wrap(err, "failed to create destination")
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.RemoveAll(tmp)
		return "", errors.Wrapf(err, "failed to move extracted files to %s", dst)
	}
	return dst, nil
}

func extractFile(f *zip.File, dir string) error {
	if f.Flags&zipFlagEncrypted != 0 {
		return errors.Errorf("%s is encrypted", f.Name)
	}
	name := path.Clean("/" + f.Name)[1:]
	if name == "" {
		return nil
	}
	dst := filepath.Join(dir, filepath.FromSlash(name))

	mode := f.Mode()
	switch {
	case mode.IsDir():
		return os.MkdirAll(dst, 0755)
	case mode&os.ModeSymlink != 0:
		r, err := f.Open()
		if err != nil {
			return err
		}
		defer r.Close()
		target, err := io.ReadAll(r)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
			return err
		}
		return os.Symlink(string(target), dst)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	r, err := f.Open()
	if err != nil {
		return err
	}
	defer r.Close()
	w, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode.Perm()|0600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// baseName returns the last path element of a URL.
func baseName(rawURL string) string {
	if u, err := url.Parse(rawURL); err == nil {
		return path.Base(u.Path)
	}
	return path.Base(rawURL)
}

func joinURL(dirURL, name string) string {
	return strings.TrimSuffix(dirURL, "/") + "/" + name
}
