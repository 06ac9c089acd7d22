// Copyright 2024 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package suitesplit packs control files into suite shards of bounded
// runtime.
package suitesplit

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/Oliver-2023/autoTest-sub000/errors"
	"github.com/Oliver-2023/autoTest-sub000/internal/logging"
)

// LongSuite is the shard of tests that run too long for any shard or have
// no runtime hint.
const LongSuite = -1

// Config holds runtime hints of control files.
type Config struct {
	MaxRuntimeSecs      float64 `yaml:"max_runtime_secs"`
	PerTestOverheadSecs float64 `yaml:"per_test_overhead_secs"`
	// RuntimeHintSecs maps a control file basename, suffixed with ".32" or
	// ".64" for split-by-bits control files, to its runtime.
	RuntimeHintSecs map[string]float64 `yaml:"runtime_hint_secs"`
}

// LoadConfig reads a Config from a YAML file.
func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read runtime hints")
	}
	var cfg Config
	if err := yaml.UnmarshalStrict(b, &cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}
	if cfg.MaxRuntimeSecs <= 0 {
		return nil, errors.Errorf("%s: max_runtime_secs must be positive", path)
	}
	return &cfg, nil
}

// Splitter assigns control files to shards in call order. A shard is
// closed once the next control file would exceed the max runtime.
type Splitter struct {
	cfg              *Config
	curShard         int
	curRuntime       float64
	longTotalRuntime float64
}

// NewSplitter returns a Splitter starting at shard 1.
func NewSplitter(cfg *Config) *Splitter {
	return &Splitter{cfg: cfg, curShard: 1}
}

// Shard returns the shard of a control file, or LongSuite. abiBits is 0 for
// control files running both bitnesses.
func (s *Splitter) Shard(ctx context.Context, basename string, abiBits int) int {
	if abiBits != 0 {
		basename = fmt.Sprintf("%s.%d", basename, abiBits)
	}
	hint, ok := s.cfg.RuntimeHintSecs[basename]
	if !ok {
		logging.Warningf(ctx, "Test %s not found in runtime hint, assuming long test", basename)
		return LongSuite
	}
	runtime := hint + s.cfg.PerTestOverheadSecs
	if runtime > s.cfg.MaxRuntimeSecs {
		logging.Infof(ctx, "Marking long test: %s (%.1fh)", basename, runtime/3600)
		s.longTotalRuntime += runtime
		return LongSuite
	}
	if s.curRuntime+runtime > s.cfg.MaxRuntimeSecs {
		s.curShard++
		s.curRuntime = 0
	}
	s.curRuntime += runtime
	return s.curShard
}

// Stats returns the number of shards and the total runtime of long tests
// in seconds.
func (s *Splitter) Stats() (shards int, longRuntime float64) {
	return s.curShard, s.longTotalRuntime
}
