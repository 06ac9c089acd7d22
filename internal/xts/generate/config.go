// Copyright 2024 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package generate

import (
	"flag"
	"runtime"
	"time"
)

const (
	defaultSplitSuiteFormat = "suite:arc-cts-{abi}-shard-{shard}"
	defaultLongSuite        = "suite:arc-cts-long"
	defaultListTimeout      = 5 * time.Minute
)

// MutableConfig is similar to Config, but its fields are mutable.
// Call Freeze to obtain a Config from MutableConfig.
type MutableConfig struct {
	// See Config for descriptions of these fields.

	OutDir           string
	Parallelism      int
	RuntimeHintsPath string
	SplitSuiteFormat string
	LongSuite        string
	ListTimeout      time.Duration
}

// NewMutableConfig returns a MutableConfig writing into outDir.
func NewMutableConfig(outDir string) *MutableConfig {
	return &MutableConfig{
		OutDir:           outDir,
		Parallelism:      runtime.NumCPU(),
		SplitSuiteFormat: defaultSplitSuiteFormat,
		LongSuite:        defaultLongSuite,
		ListTimeout:      defaultListTimeout,
	}
}

// SetFlags adds generation flags to f that store values in c.
func (c *MutableConfig) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.OutDir, "outdir", c.OutDir, "directory control files are written to")
	f.IntVar(&c.Parallelism, "parallelism", c.Parallelism, "number of bundles processed concurrently")
	f.StringVar(&c.RuntimeHintsPath, "runtimehints", "", "YAML file of test runtime hints; enables split suites for the latest bundle")
	f.StringVar(&c.SplitSuiteFormat, "splitsuite", c.SplitSuiteFormat, "name of a split suite shard; {abi} and {shard} are substituted")
	f.StringVar(&c.LongSuite, "longsuite", c.LongSuite, "split suite of tests too long for any shard")
	f.DurationVar(&c.ListTimeout, "list_timeout", c.ListTimeout, "how long a failing tradefed is retried to list modules; 0 tries once")
}

// Freeze returns a frozen configuration object.
func (c *MutableConfig) Freeze() *Config {
	return &Config{m: c}
}

// Config holds the options of a control file generation run.
type Config struct {
	m *MutableConfig
}

// OutDir is the directory control files are written to.
func (c *Config) OutDir() string { return c.m.OutDir }

// Parallelism is the number of bundles processed concurrently.
func (c *Config) Parallelism() int { return c.m.Parallelism }

// RuntimeHintsPath is the runtime hints YAML file. Split suites are written
// only if it is set.
func (c *Config) RuntimeHintsPath() string { return c.m.RuntimeHintsPath }

// SplitSuiteFormat is the suite name of a split suite shard.
func (c *Config) SplitSuiteFormat() string { return c.m.SplitSuiteFormat }

// LongSuite is the split suite of tests too long for any shard.
func (c *Config) LongSuite() string { return c.m.LongSuite }

// ListTimeout bounds the retries of a tradefed failing to list modules.
func (c *Config) ListTimeout() time.Duration { return c.m.ListTimeout }
