// Copyright 2024 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package main

import (
	"context"
	"flag"
	"os"

	"github.com/docker/go-units"

	"github.com/Oliver-2023/autoTest-sub000/errors"
	"github.com/Oliver-2023/autoTest-sub000/internal/xts/cache"
	"github.com/Oliver-2023/autoTest-sub000/internal/xts/fetch"
)

// bundleFlags holds flags shared by subcommands downloading bundles.
type bundleFlags struct {
	cacheRoot   string
	installDir  string
	gsCreds     string
	httpRetries int
	minFree     string

	// newClient returns the client downloading bundles. Unit tests replace it.
	newClient func(ctx context.Context) (fetch.Client, error)
}

func (b *bundleFlags) SetFlags(f *flag.FlagSet) {
	f.StringVar(&b.cacheRoot, "cache_dir", cache.DefaultRoot, "directory shared by concurrent runs to cache bundles")
	f.StringVar(&b.installDir, "install_dir", "", "directory bundles are extracted to; a temporary directory if empty")
	f.StringVar(&b.gsCreds, "gs_creds", "", "service account credentials to access Google Cloud Storage")
	f.IntVar(&b.httpRetries, "http_retries", 3, "number of retries of failed HTTP downloads")
	f.StringVar(&b.minFree, "min_free", "", "wipe the cache when the disk holding it has less free space, e.g. 20GB")
}

func (b *bundleFlags) client(ctx context.Context) (fetch.Client, error) {
	if b.newClient != nil {
		return b.newClient(ctx)
	}
	gs, err := fetch.NewGSClient(ctx, b.gsCreds)
	if err != nil {
		return nil, err
	}
	hc := fetch.NewHTTPClient(b.httpRetries)
	return fetch.NewMultiClient(map[string]fetch.Client{
		"gs":    gs,
		"http":  hc,
		"https": hc,
	}), nil
}

// openCache returns a cache downloading with cl. The returned function
// removes the temporary install dir, if any.
func (b *bundleFlags) openCache(ctx context.Context, cl fetch.Client) (*cache.Cache, func(), error) {
	var minFree int64
	if b.minFree != "" {
		var err error
		if minFree, err = units.FromHumanSize(b.minFree); err != nil {
			return nil, nil, errors.Wrap(err, "bad -min_free")
		}
	}

	installDir := b.installDir
	cleanup := func() {}
	if installDir == "" {
		td, err := os.MkdirTemp("", "xtsgen.")
		if err != nil {
			return nil, nil, errors.Wrap(err, "failed to create install dir")
		}
		installDir = td
		cleanup = func() { os.RemoveAll(td) }
	}

	c, err := cache.New(cache.Options{
		Root:         b.cacheRoot,
		InstallDir:   installDir,
		Client:       cl,
		MinFreeBytes: uint64(minFree),
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	if err := c.ClearIfNeeded(ctx); err != nil {
		cleanup()
		return nil, nil, err
	}
	return c, cleanup, nil
}
