// Copyright 2024 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package generate writes the Autotest control files of xTS bundles.
package generate

import (
	"context"
	"os"
	"path/filepath"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/Oliver-2023/autoTest-sub000/errors"
	"github.com/Oliver-2023/autoTest-sub000/internal/logging"
	"github.com/Oliver-2023/autoTest-sub000/internal/xts/bundle"
	"github.com/Oliver-2023/autoTest-sub000/internal/xts/combine"
	"github.com/Oliver-2023/autoTest-sub000/internal/xts/config"
	"github.com/Oliver-2023/autoTest-sub000/internal/xts/controlfile"
	"github.com/Oliver-2023/autoTest-sub000/internal/xts/module"
	"github.com/Oliver-2023/autoTest-sub000/internal/xts/passes"
)

// Bundle identifies the bundle control files are written for.
type Bundle struct {
	// ABI is the bundle ABI, e.g. "arm", or "" for ABI-less bundles.
	ABI      string
	Revision string
	Build    string
	Source   bundle.SourceType
}

// Writer writes the control files of one bundle into a directory.
type Writer struct {
	gen    *controlfile.Generator
	cfg    *config.Config
	outDir string
	b      Bundle
}

// NewWriter returns a Writer writing into outDir.
func NewWriter(gen *controlfile.Generator, outDir string, b Bundle) *Writer {
	return &Writer{gen: gen, cfg: gen.Config(), outDir: outDir, b: b}
}

func (w *Writer) public() bool {
	return w.b.Source.IsPublic()
}

// ControlFile describes a family of control files of one module group.
type ControlFile struct {
	Name    string
	Modules module.Set
	// Suites are computed from the modules if empty.
	Suites         []string
	WholeModuleSet module.Set
	HardwareSuite  bool
	// ABI overrides the bundle ABI if non-empty.
	ABI string
}

// writeParams writes the single control file described by p.
func (w *Writer) writeParams(ctx context.Context, p *controlfile.Params) error {
	name := w.gen.ControlFileName(p.NameParams())
	content, err := w.gen.Content(ctx, p)
	if err != nil {
		return err
	}
	path := filepath.Join(w.outDir, name)
	logging.Debugf(ctx, "Writing %s", path)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return errors.Wrapf(err, "failed to write %s", name)
	}
	return nil
}

func (w *Writer) params(name string, modules module.Set, abi string, suites []string) *controlfile.Params {
	return &controlfile.Params{
		Combined: name,
		Modules:  modules,
		ABI:      abi,
		Revision: w.b.Revision,
		Build:    w.b.Build,
		Suites:   suites,
		Source:   w.b.Source,
		Shard:    controlfile.NoShard,
	}
}

// WriteControlFile writes the control files of cf. Groups containing a
// split-by-bits module get one control file per bitness, for both arm and
// x86 if the bundle has no ABI. Groups containing sharded modules get one
// control file per shard.
func (w *Writer) WriteControlFile(ctx context.Context, cf *ControlFile) error {
	abi := cf.ABI
	if abi == "" {
		abi = w.b.ABI
	}
	splitModules := w.cfg.SplitByBitsModules
	shardCounts := w.cfg.ShardCount
	if w.public() {
		splitModules = w.cfg.PublicSplitByBitsModules
		shardCounts = w.cfg.PublicShardCount
	}

	type abiBits struct {
		abi  string
		bits int
	}
	var variants []abiBits
	if cf.Modules.Any(splitModules) {
		archs := []string{abi}
		if abi == "" {
			archs = []string{"arm", "x86"}
		}
		for _, arch := range archs {
			variants = append(variants, abiBits{arch, 32}, abiBits{arch, 64})
		}
	} else {
		variants = append(variants, abiBits{abi, 0})
	}

	shardCount := 1
	for m := range cf.Modules {
		if n := shardCounts[m]; n > shardCount {
			shardCount = n
		}
	}

	for _, v := range variants {
		for i := 0; i < shardCount; i++ {
			p := w.params(cf.Name, cf.Modules, v.abi, cf.Suites)
			p.ABIBits = v.bits
			p.Shard = controlfile.Shard{Index: i, Count: shardCount}
			p.WholeModuleSet = cf.WholeModuleSet
			p.HardwareSuite = cf.HardwareSuite
			if err := w.writeParams(ctx, p); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteMoblab writes one control file per module for moblab. Parameterized
// modules are covered by the control file of their base module.
func (w *Writer) WriteMoblab(ctx context.Context, modules module.Set) error {
	for _, m := range modules.Sorted() {
		if w.gen.IsParameterizedModule(m) {
			continue
		}
		if err := w.WriteControlFile(ctx, &ControlFile{Name: m, Modules: module.NewSet(m)}); err != nil {
			return err
		}
	}
	return nil
}

// WriteRegression writes control files for regression coverage, combining
// modules with similar names into one control file.
func (w *Writer) WriteRegression(ctx context.Context, modules module.Set) error {
	if w.cfg.SingleControlFile {
		return w.WriteControlFile(ctx, &ControlFile{Name: module.All, Modules: modules, WholeModuleSet: modules})
	}
	combined := combine.ByCommonWord(ctx, modules)
	for _, name := range sortedKeys(combined) {
		if err := w.WriteControlFile(ctx, &ControlFile{Name: name, Modules: combined[name]}); err != nil {
			return err
		}
	}
	return nil
}

// WriteQualification writes control files running all modules for
// qualification, split at the configured bookmarks.
func (w *Writer) WriteQualification(ctx context.Context, modules module.Set) error {
	combined := combine.ByBookmark(modules, w.cfg.QualBookmarks)
	for _, key := range sortedKeys(combined) {
		group := combined[key]
		archs := []string{w.b.ABI}
		if group.Any(w.cfg.SplitByBitsModules) && w.b.ABI == "" {
			archs = []string{"arm", "x86"}
		}
		for _, arch := range archs {
			if err := w.WriteControlFile(ctx, &ControlFile{
				Name:    "all." + key,
				Modules: group,
				Suites:  w.cfg.QualSuiteNames,
				ABI:     arch,
			}); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *Writer) writeExtraModules(ctx context.Context, extra config.ExtraModules) error {
	for _, parent := range sortedKeys(extra) {
		for _, sub := range sortedKeys(extra[parent]) {
			if err := w.WriteControlFile(ctx, &ControlFile{
				Name:    sub,
				Modules: module.NewSet(sub),
				Suites:  extra[parent][sub],
			}); err != nil {
				return err
			}
		}
	}
	return nil
}

// WritePerfQualification writes control files of performance qualification
// submodules.
func (w *Writer) WritePerfQualification(ctx context.Context) error {
	return w.writeExtraModules(ctx, w.cfg.PerfModules)
}

// WriteQualificationAndRegression writes control files covering both
// qualification and regression, split at the configured bookmarks.
func (w *Writer) WriteQualificationAndRegression(ctx context.Context, modules module.Set) error {
	suites := []string{"suite:arc-cts", "suite:arc-cts-qual"}
	combined := combine.ByBookmark(modules, w.cfg.QualBookmarks)
	for _, key := range sortedKeys(combined) {
		if err := w.WriteControlFile(ctx, &ControlFile{
			Name:           "all." + key,
			Modules:        combined[key],
			Suites:         suites,
			WholeModuleSet: modules,
		}); err != nil {
			return err
		}
	}
	return nil
}

// WriteCollect writes the control files collecting the tests of the bundle,
// used to check test completeness before qualification.
func (w *Writer) WriteCollect(ctx context.Context, hardware bool) error {
	var suites []string
	switch {
	case w.public() && hardware:
		suites = []string{w.cfg.MoblabHardwareSuiteName}
	case w.public():
		suites = []string{w.cfg.MoblabSuiteName}
	case hardware:
		suites = []string{w.cfg.HardwareSuiteName}
	default:
		suites = append(append([]string(nil), w.cfg.InternalSuiteNames...), w.cfg.QualSuiteNames...)
	}
	for _, m := range w.gen.CollectModules(w.public(), hardware).Sorted() {
		if err := w.WriteControlFile(ctx, &ControlFile{
			Name:          m,
			Modules:       module.NewSet(m),
			Suites:        suites,
			HardwareSuite: hardware,
		}); err != nil {
			return err
		}
	}
	return nil
}

// WriteExtra writes the control files of extra submodules.
func (w *Writer) WriteExtra(ctx context.Context) error {
	return w.writeExtraModules(ctx, w.gen.ExtraModulesFor(w.b.Source, w.b.ABI))
}

// WriteHardwareSuite writes the control files of the hardware suite.
func (w *Writer) WriteHardwareSuite(ctx context.Context) error {
	for _, m := range module.NewSet(w.cfg.HardwareModules...).Sorted() {
		if err := w.WriteControlFile(ctx, &ControlFile{Name: m, Modules: module.NewSet(m), HardwareSuite: true}); err != nil {
			return err
		}
	}
	extra := w.gen.ExtraHardwareModules()
	for _, parent := range sortedKeys(extra) {
		for _, sub := range sortedKeys(extra[parent]) {
			p := w.params(sub, module.NewSet(sub), w.b.ABI, nil)
			p.HardwareSuite = true
			if err := w.writeParams(ctx, p); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteExtraCamera writes camerabox control files of CtsCameraTestCases.
func (w *Writer) WriteExtraCamera(ctx context.Context) error {
	const camera = "CtsCameraTestCases"
	for _, facing := range []string{"back", "front"} {
		p := w.params(camera, module.NewSet(camera), w.b.ABI, nil)
		p.LEDProvision = "noled"
		p.CameraFacing = facing
		if err := w.writeParams(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// WriteGroups writes one control file per module group.
func (w *Writer) WriteGroups(ctx context.Context, groups []*passes.ModuleGroup) error {
	for _, g := range groups {
		p := w.params(g.Basename, g.Modules, w.b.ABI, g.Suites.Sorted())
		p.ABIBits = g.ABIBits
		if g.Shard != (controlfile.Shard{}) {
			p.Shard = g.Shard
		}
		if err := w.writeParams(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// WriteSplitSuites packs modules into split suites by runtime and writes
// the merged control files.
func (w *Writer) WriteSplitSuites(ctx context.Context, modules module.Set, split passes.SplitSuite) error {
	split.ABI = w.b.ABI
	groups := passes.CombineByCommonWord(ctx, modules)
	splitByBits := func(g *passes.ModuleGroup) bool {
		return g.Modules.Any(w.cfg.SplitByBitsModules)
	}
	pipeline := passes.Concat(
		passes.If(splitByBits, passes.SplitByBits()),
		passes.MergeSplitSuites(split, "split"),
	)
	groups, err := pipeline.Process(ctx, groups)
	if err != nil {
		return errors.Wrap(err, "failed to split suites")
	}
	return w.WriteGroups(ctx, groups)
}

// Write writes all control files required for the bundle source.
func (w *Writer) Write(ctx context.Context, modules module.Set, split *passes.SplitSuite) error {
	c := w.cfg
	src := w.b.Source
	latestOrMoblab := src == bundle.LatestSource || src == bundle.Moblab

	logging.Info(ctx, "Writing all control files")
	if src == bundle.Moblab {
		if err := w.WriteMoblab(ctx, modules); err != nil {
			return err
		}
	}

	if c.ControlFileWriteSimpleQualAndRegress {
		if src == bundle.LatestSource {
			if err := w.WriteQualificationAndRegression(ctx, modules); err != nil {
				return err
			}
		}
	} else {
		if src == bundle.DevSource {
			if err := w.WriteRegression(ctx, modules); err != nil {
				return err
			}
			if err := w.WritePerfQualification(ctx); err != nil {
				return err
			}
		}
		if src == bundle.LatestSource {
			if err := w.WriteQualification(ctx, modules); err != nil {
				return err
			}
		}
	}

	if c.ControlFileWriteCamera && src == bundle.DevSource {
		if err := w.WriteExtraCamera(ctx); err != nil {
			return err
		}
	}

	if c.WriteCollect() && latestOrMoblab {
		if err := w.WriteCollect(ctx, false); err != nil {
			return err
		}
		if c.HasHardwareSuite() {
			if err := w.WriteCollect(ctx, true); err != nil {
				return err
			}
		}
	}

	if c.ControlFileWriteExtra && latestOrMoblab {
		if err := w.WriteExtra(ctx); err != nil {
			return err
		}
	}

	if latestOrMoblab {
		if err := w.WriteHardwareSuite(ctx); err != nil {
			return err
		}
	}

	if split != nil && src == bundle.LatestSource {
		if err := w.WriteSplitSuites(ctx, modules, *split); err != nil {
			return err
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := maps.Keys(m)
	slices.Sort(keys)
	return keys
}
