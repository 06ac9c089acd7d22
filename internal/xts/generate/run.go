// Copyright 2024 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package generate

import (
	"context"
	"os"
	"path"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Oliver-2023/autoTest-sub000/errors"
	"github.com/Oliver-2023/autoTest-sub000/internal/logging"
	"github.com/Oliver-2023/autoTest-sub000/internal/xts/bundle"
	"github.com/Oliver-2023/autoTest-sub000/internal/xts/cache"
	"github.com/Oliver-2023/autoTest-sub000/internal/xts/controlfile"
	"github.com/Oliver-2023/autoTest-sub000/internal/xts/passes"
	"github.com/Oliver-2023/autoTest-sub000/internal/xts/suitesplit"
	"github.com/Oliver-2023/autoTest-sub000/internal/xts/tradefed"
)

// Source is a bundle to generate control files for.
type Source struct {
	URL  string
	Type bundle.SourceType
}

// SourcesFor returns the bundles to process. Public sources are the moblab
// bundles of every ABI, latest sources the latest bundle and dev sources
// the development bundle. all selects every source.
func SourcesFor(urls *bundle.URLConfig, public, latest, all bool) ([]Source, error) {
	var srcs []Source
	if public || all {
		l, err := bundle.MakeURLsForAllABIs(urls, bundle.Public)
		if err != nil {
			return nil, err
		}
		for _, u := range l {
			srcs = append(srcs, Source{URL: u, Type: bundle.Moblab})
		}
	}
	if latest || all {
		l, err := bundle.MakeURLsForAllABIs(urls, bundle.Latest)
		if err != nil {
			return nil, err
		}
		for _, u := range l {
			srcs = append(srcs, Source{URL: u, Type: bundle.LatestSource})
		}
	}
	if (!public && !latest) || all {
		l, err := bundle.MakeURLsForAllABIs(urls, bundle.Dev)
		if err != nil {
			return nil, err
		}
		for _, u := range l {
			srcs = append(srcs, Source{URL: u, Type: bundle.DevSource})
		}
	}
	return srcs, nil
}

// Run installs each bundle of sources through c, lists its modules and
// writes its control files. Bundles are processed concurrently; the errors
// of all failed bundles are returned together.
func Run(ctx context.Context, cfg *Config, gen *controlfile.Generator, c *cache.Cache, sources []Source) error {
	if err := os.MkdirAll(cfg.OutDir(), 0755); err != nil {
		return errors.Wrap(err, "failed to create output directory")
	}

	var split *passes.SplitSuite
	if p := cfg.RuntimeHintsPath(); p != "" {
		hints, err := suitesplit.LoadConfig(p)
		if err != nil {
			return err
		}
		split = &passes.SplitSuite{Hints: hints, Format: cfg.SplitSuiteFormat(), Long: cfg.LongSuite()}
	}

	var mu sync.Mutex
	var merr error
	g, gctx := errgroup.WithContext(ctx)
	if n := cfg.Parallelism(); n > 0 {
		g.SetLimit(n)
	}
	for _, src := range sources {
		src := src
		g.Go(func() error {
			if err := runBundle(gctx, cfg, gen, c, src, split); err != nil {
				mu.Lock()
				merr = errors.Append(merr, errors.Wrapf(err, "%s", src.URL))
				mu.Unlock()
			}
			return nil
		})
	}
	g.Wait()
	return merr
}

func runBundle(ctx context.Context, cfg *Config, gen *controlfile.Generator, c *cache.Cache, src Source, split *passes.SplitSuite) error {
	gcfg := gen.Config()
	ctx = logging.WithPrefix(ctx, path.Base(src.URL)+": ")

	abi, err := bundle.GuessABI(path.Base(src.URL), gcfg.SingleControlFile, gcfg.TradefedCTSCommand)
	if err != nil {
		return err
	}
	logging.Infof(ctx, "Processing %s bundle", src.Type)
	dir, err := c.Install(ctx, src.URL)
	if err != nil {
		return err
	}
	lister := &tradefed.Lister{
		TradefedPath: gcfg.TradefedExecutablePath,
		JavaPath:     gcfg.JavaExecutablePath,
		Exclude:      gcfg.ExcludeModules,
		Timeout:      cfg.ListTimeout(),
	}
	ml, err := lister.List(ctx, dir)
	if err != nil {
		return err
	}
	if ml.Revision == "" {
		return errors.New("could not determine revision of the bundle")
	}
	logging.Infof(ctx, "Found %d modules in revision %s build %s", len(ml.Modules), ml.Revision, ml.Build)

	w := NewWriter(gen, cfg.OutDir(), Bundle{
		ABI:      abi,
		Revision: ml.Revision,
		Build:    ml.Build,
		Source:   src.Type,
	})
	return w.Write(ctx, ml.Modules, split)
}
