// Copyright 2024 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package cache maintains a download cache of xTS bundles shared between
// concurrently running processes, and installs private copies of cached
// bundles.
package cache

import (
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/docker/go-units"
	"github.com/gofrs/flock"
	"github.com/shirou/gopsutil/v3/disk"

	"github.com/Oliver-2023/autoTest-sub000/errors"
	"github.com/Oliver-2023/autoTest-sub000/fsutil"
	"github.com/Oliver-2023/autoTest-sub000/internal/logging"
	"github.com/Oliver-2023/autoTest-sub000/internal/xts/fetch"
)

const (
	// DefaultRoot is the default location of the shared cache.
	DefaultRoot = "/tmp/autotest-tradefed-cache"

	// DefaultMaxSize is the cache size above which the cache is wiped.
	DefaultMaxSize = 10 * units.GiB

	defaultMaxLockAttempts = 1000
	lockRetryDelay         = 100 * time.Millisecond
)

// Options configures a Cache.
type Options struct {
	// Root is the directory holding the shared cache and its lock file.
	// DefaultRoot is used if empty.
	Root string
	// InstallDir receives private copies of cached files.
	InstallDir string
	// Client downloads files missing from the cache.
	Client fetch.Client
	// MaxSize is the cache size in bytes above which the cache is wiped.
	// DefaultMaxSize is used if zero.
	MaxSize int64
	// MinFreeBytes wipes the cache when the filesystem holding it has less
	// free space. Zero disables the check.
	MinFreeBytes uint64
	// MaxLockAttempts is the number of lock attempts after which the lock is
	// considered stale. A default is used if zero.
	MaxLockAttempts int
}

// Cache is a download cache shared between processes. The cache lives in
// <root>/cache, one directory per content version, and is protected by the
// lock file <root>/lock.
type Cache struct {
	cacheDir        string
	lockPath        string
	installDir      string
	client          fetch.Client
	maxSize         int64
	minFree         uint64
	maxLockAttempts int

	// lockWait returns how long a single lock attempt may block.
	lockWait func() time.Duration
}

// New creates the cache directories and returns a Cache.
func New(opts Options) (*Cache, error) {
	if opts.InstallDir == "" {
		return nil, errors.New("install dir not set")
	}
	if opts.Client == nil {
		return nil, errors.New("download client not set")
	}
	root := opts.Root
	if root == "" {
		root = DefaultRoot
	}
	c := &Cache{
		cacheDir:        filepath.Join(root, "cache"),
		lockPath:        filepath.Join(root, "lock"),
		installDir:      opts.InstallDir,
		client:          opts.Client,
		maxSize:         opts.MaxSize,
		minFree:         opts.MinFreeBytes,
		maxLockAttempts: opts.MaxLockAttempts,
		lockWait: func() time.Duration {
			return time.Duration(1+rand.Intn(5)) * time.Second
		},
	}
	if c.maxSize == 0 {
		c.maxSize = DefaultMaxSize
	}
	if c.maxLockAttempts == 0 {
		c.maxLockAttempts = defaultMaxLockAttempts
	}
	for _, dir := range []string{c.cacheDir, c.installDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.Wrap(err, "failed to create cache directories")
		}
	}
	return c, nil
}

// Dir returns the directory holding cached files.
func (c *Cache) Dir() string {
	return c.cacheDir
}

// lock acquires the cache lock. The returned function releases it.
func (c *Cache) lock(ctx context.Context) (func(), error) {
	fl := flock.New(c.lockPath)
	for attempts := 1; ; attempts++ {
		logging.Debug(ctx, "Waiting for cache lock...")
		actx, cancel := context.WithTimeout(ctx, c.lockWait())
		ok, err := fl.TryLockContext(actx, lockRetryDelay)
		cancel()
		if ok {
			logging.Debugf(ctx, "Acquired cache lock after %d attempts", attempts)
			return func() {
				if err := fl.Unlock(); err != nil {
					logging.Warningf(ctx, "Failed to release cache lock: %v", err)
					return
				}
				logging.Debug(ctx, "Released cache lock")
			}, nil
		}
		if ctx.Err() != nil {
			return nil, errors.Wrap(ctx.Err(), "gave up waiting for cache lock")
		}
		if err != nil && err != actx.Err() {
			return nil, errors.Wrapf(err, "failed to lock %s", c.lockPath)
		}
		if attempts >= c.maxLockAttempts {
			logging.Warning(ctx, "Permanent lock failure; breaking lock")
			if err := os.Remove(c.lockPath); err != nil && !os.IsNotExist(err) {
				logging.Warningf(ctx, "Failed to break lock: %v", err)
			}
			return nil, errors.Fail("permanent cache lock failure")
		}
	}
}

// ClearIfNeeded wipes the cache if it has grown beyond the size limit or if
// the filesystem holding it runs short of free space.
func (c *Cache) ClearIfNeeded(ctx context.Context) error {
	unlock, err := c.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	size, err := fsutil.DirSize(c.cacheDir)
	if err != nil {
		return errors.Wrap(err, "failed to compute cache size")
	}
	wipe := size > c.maxSize
	if wipe {
		logging.Infof(ctx, "Cache size %s got too large; clearing %s",
			units.BytesSize(float64(size)), c.cacheDir)
	} else if c.minFree > 0 {
		usage, err := disk.UsageWithContext(ctx, c.cacheDir)
		if err != nil {
			logging.Warningf(ctx, "Failed to get disk usage of %s: %v", c.cacheDir, err)
		} else if usage.Free < c.minFree {
			logging.Infof(ctx, "Only %s free on %s; clearing %s",
				units.BytesSize(float64(usage.Free)), usage.Path, c.cacheDir)
			wipe = true
		}
	}
	if !wipe {
		logging.Infof(ctx, "Cache size %s of %s", units.BytesSize(float64(size)), c.cacheDir)
		return nil
	}
	if err := os.RemoveAll(c.cacheDir); err != nil {
		return errors.Wrap(err, "failed to clear cache")
	}
	if err := os.MkdirAll(c.cacheDir, 0755); err != nil {
		return errors.Wrap(err, "failed to recreate cache")
	}
	return nil
}

// Install downloads the zip archive at url through the cache, copies it to
// the install dir and extracts it. It returns the extracted directory.
func (c *Cache) Install(ctx context.Context, url string) (string, error) {
	if filepath.Ext(url) != ".zip" {
		return "", errors.Failf("not a .zip file: %s", url)
	}
	local, err := c.fetchLocal(ctx, url)
	if err != nil {
		return "", err
	}
	return Unzip(ctx, local)
}

// InstallFiles installs files found under the directory URL dirURL with the
// given permission. It returns the directories the files were installed to,
// in the order of files.
func (c *Cache) InstallFiles(ctx context.Context, dirURL string, files []string, perm os.FileMode) ([]string, error) {
	var dirs []string
	for _, name := range files {
		local, err := c.fetchLocal(ctx, joinURL(dirURL, name))
		if err != nil {
			return nil, err
		}
		if err := os.Chmod(local, perm); err != nil {
			return nil, errors.Wrapf(err, "failed to change mode of %s", local)
		}
		dirs = append(dirs, filepath.Dir(local))
	}
	return dirs, nil
}

func (c *Cache) fetchLocal(ctx context.Context, url string) (string, error) {
	unlock, err := c.lock(ctx)
	if err != nil {
		return "", err
	}
	defer unlock()
	cached, err := c.Download(ctx, url)
	if err != nil {
		return "", err
	}
	return c.InstanceCopy(cached)
}

// Download returns the cached copy of url, downloading it first if it is
// not cached yet. The caller must hold the cache lock.
func (c *Cache) Download(ctx context.Context, url string) (string, error) {
	ver, err := c.client.Version(ctx, url)
	if err != nil {
		return "", errors.Wrapf(err, "failed to get version of %s", url)
	}
	dir := filepath.Join(c.cacheDir, ver)
	dst := filepath.Join(dir, baseName(url))
	if fi, err := os.Stat(dst); err == nil && fi.Size() > 0 {
		logging.Infof(ctx, "Skipping download of %s, reusing %s", url, dst)
		return dst, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.Wrap(err, "failed to create cache entry")
	}

	logging.Infof(ctx, "Downloading %s to %s", url, dir)
	r, err := c.client.Open(ctx, url)
	if err != nil {
		return "", errors.Wrapf(err, "failed to download %s", url)
	}
	defer r.Close()

	f, err := os.CreateTemp(dir, ".download.")
	if err != nil {
		return "", errors.Wrap(err, "failed to create temporary file")
	}
	defer os.Remove(f.Name())
	n, err := f.ReadFrom(r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", errors.Wrapf(err, "failed to download %s", url)
	}
	if err := fsutil.MoveFile(f.Name(), dst); err != nil {
		return "", errors.Wrapf(err, "failed to store %s", dst)
	}
	logging.Infof(ctx, "Downloaded %s (%s)", dst, units.HumanSize(float64(n)))
	return dst, nil
}

// InstanceCopy copies a cached file into the install dir, keeping the
// version directory it is stored under.
func (c *Cache) InstanceCopy(cachePath string) (string, error) {
	dir := filepath.Join(c.installDir, filepath.Base(filepath.Dir(cachePath)))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.Wrap(err, "failed to create install dir")
	}
	dst := filepath.Join(dir, filepath.Base(cachePath))
	if err := fsutil.CopyFile(cachePath, dst); err != nil {
		return "", errors.Wrapf(err, "failed to copy %s", cachePath)
	}
	return dst, nil
}
